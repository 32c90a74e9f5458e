package cache

// Prefetcher observes the access stream and suggests additional addresses
// to bring in ahead of demand (the next line, or one learned stride ahead).
type Prefetcher interface {
	// OnAccess is called on every access (hit or miss) and returns the
	// addresses, if any, it wants prefetched.
	OnAccess(addr uint64, lineBytes int) []uint64
}

func NewPrefetcher(name string) Prefetcher {
	switch name {
	case "stream":
		return &streamPrefetcher{}
	case "stride":
		return &stridePrefetcher{lastDelta: -1}
	case "tagged":
		return &taggedPrefetcher{tagged: map[uint64]bool{}}
	case "ghb":
		return &ghbPrefetcher{history: make([]uint64, 0, ghbDepth)}
	default:
		return noopPrefetcher{}
	}
}

type noopPrefetcher struct{}

func (noopPrefetcher) OnAccess(addr uint64, lineBytes int) []uint64 { return nil }

// streamPrefetcher detects monotonically increasing line accesses and
// issues the next line.
type streamPrefetcher struct {
	lastLine uint64
	have     bool
}

func (p *streamPrefetcher) OnAccess(addr uint64, lineBytes int) []uint64 {
	line := addr &^ uint64(lineBytes-1)
	defer func() { p.lastLine = line; p.have = true }()
	if p.have && line == p.lastLine+uint64(lineBytes) {
		return []uint64{line + uint64(lineBytes)}
	}
	return nil
}

// stridePrefetcher learns a constant stride between consecutive accesses
// and, once confirmed twice in a row, prefetches one stride ahead.
type stridePrefetcher struct {
	lastAddr  uint64
	lastDelta int64
	confirmed int
	have      bool
}

func (p *stridePrefetcher) OnAccess(addr uint64, lineBytes int) []uint64 {
	defer func() { p.lastAddr = addr; p.have = true }()
	if !p.have {
		return nil
	}
	delta := int64(addr) - int64(p.lastAddr)
	if delta == p.lastDelta && delta != 0 {
		p.confirmed++
	} else {
		p.confirmed = 0
		p.lastDelta = delta
	}
	if p.confirmed >= 1 {
		return []uint64{uint64(int64(addr) + delta)}
	}
	return nil
}

// taggedPrefetcher extends a stream prefetcher with a "prefetched" tag so a
// demand access to a previously-prefetched line issues the *next*
// prefetch too (tagged prefetching), rather than only on strict sequential
// demand misses.
type taggedPrefetcher struct {
	stream streamPrefetcher
	tagged map[uint64]bool
}

func (p *taggedPrefetcher) OnAccess(addr uint64, lineBytes int) []uint64 {
	line := addr &^ uint64(lineBytes-1)
	next := p.stream.OnAccess(addr, lineBytes)
	if p.tagged[line] {
		delete(p.tagged, line)
		next = append(next, line+uint64(lineBytes))
	}
	for _, n := range next {
		p.tagged[n] = true
	}
	return next
}

const ghbDepth = 16

// ghbPrefetcher is a simplified global-history-buffer prefetcher: it keeps
// the last N accessed addresses (hits and misses alike) and, when the current delta matches the delta
// two accesses ago, predicts the stream continues with the same delta.
type ghbPrefetcher struct {
	history []uint64
}

func (p *ghbPrefetcher) OnAccess(addr uint64, lineBytes int) []uint64 {
	p.history = append(p.history, addr)
	if len(p.history) > ghbDepth {
		p.history = p.history[1:]
	}
	n := len(p.history)
	if n < 3 {
		return nil
	}
	d1 := int64(p.history[n-1]) - int64(p.history[n-2])
	d2 := int64(p.history[n-2]) - int64(p.history[n-3])
	if d1 == d2 && d1 != 0 {
		return []uint64{uint64(int64(addr) + d1)}
	}
	return nil
}
