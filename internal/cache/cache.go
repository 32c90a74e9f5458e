// Package cache implements a set-associative cache level with pluggable
// replacement policies and prefetchers, backed by whatever satisfies
// Backer (the next cache level, or a memory controller).
package cache

// Backer is the level below this one: the next cache level or a memory
// controller. Fill returns the latency (in cycles) of servicing a line
// fill from this backer.
type Backer interface {
	Fill(addr uint64) (latency int)
}

type line struct {
	valid bool
	tag   uint64
	dirty bool
}

// Config describes a cache level's geometry and policy selection.
type Config struct {
	Name        string
	SizeBytes   int
	Ways        int
	LineBytes   int
	Policy      string
	Prefetcher  string
	LatencyHit  int
	LatencyMiss int
}

// Level is one set-associative cache level.
type Level struct {
	cfg        Config
	sets       [][]line
	numSets    int
	setBits    uint
	lineBits   uint
	policy     ReplacementPolicy
	prefetcher Prefetcher
	backer     Backer

	Hits   uint64
	Misses uint64
}

func NewLevel(cfg Config, backer Backer) *Level {
	if cfg.LineBytes <= 0 {
		cfg.LineBytes = 64
	}
	if cfg.Ways <= 0 {
		cfg.Ways = 1
	}
	numLines := cfg.SizeBytes / cfg.LineBytes
	numSets := numLines / cfg.Ways
	if numSets < 1 {
		numSets = 1
	}
	sets := make([][]line, numSets)
	for i := range sets {
		sets[i] = make([]line, cfg.Ways)
	}
	return &Level{
		cfg:        cfg,
		sets:       sets,
		numSets:    numSets,
		setBits:    bitsFor(numSets),
		lineBits:   bitsFor(cfg.LineBytes),
		policy:     NewPolicy(cfg.Policy, cfg.Ways),
		prefetcher: NewPrefetcher(cfg.Prefetcher),
		backer:     backer,
	}
}

func bitsFor(n int) uint {
	var b uint
	for (1 << b) < n {
		b++
	}
	return b
}

func (l *Level) indexAndTag(addr uint64) (setIdx int, tag uint64) {
	lineAddr := addr >> l.lineBits
	setIdx = int(lineAddr & (uint64(l.numSets) - 1))
	tag = lineAddr >> l.setBits
	return
}

// Access probes the cache for addr, returning whether it hit and the
// latency charged. On a miss, it fills from the backer and evicts per the
// configured replacement policy; it also asks the prefetcher for lines to
// warm and fills those opportunistically (charged as backer latency but
// not reflected in this access's returned latency).
func (l *Level) Access(addr uint64, write bool) (hit bool, latency int) {
	setIdx, tag := l.indexAndTag(addr)
	set := l.sets[setIdx]

	for way, ln := range set {
		if ln.valid && ln.tag == tag {
			l.policy.Touch(setIdx, way)
			if write {
				set[way].dirty = true
			}
			l.Hits++
			l.triggerPrefetch(addr)
			return true, l.cfg.LatencyHit
		}
	}

	l.Misses++
	backerLatency := 0
	if l.backer != nil {
		backerLatency = l.backer.Fill(addr)
	}
	victim := l.policy.Victim(setIdx)
	set[victim] = line{valid: true, tag: tag, dirty: write}
	l.policy.Touch(setIdx, victim)
	l.triggerPrefetch(addr)

	return false, l.cfg.LatencyMiss + backerLatency
}

func (l *Level) triggerPrefetch(addr uint64) {
	for _, pa := range l.prefetcher.OnAccess(addr, l.cfg.LineBytes) {
		setIdx, tag := l.indexAndTag(pa)
		set := l.sets[setIdx]
		already := false
		for _, ln := range set {
			if ln.valid && ln.tag == tag {
				already = true
				break
			}
		}
		if already {
			continue
		}
		if l.backer != nil {
			l.backer.Fill(pa)
		}
		victim := l.policy.Victim(setIdx)
		set[victim] = line{valid: true, tag: tag}
	}
}

// Fill lets this Level itself act as a Backer for the level above it.
func (l *Level) Fill(addr uint64) int {
	_, latency := l.Access(addr, false)
	return latency
}

// HitRate returns the cumulative hit rate, for stats reporting.
func (l *Level) HitRate() float64 {
	total := l.Hits + l.Misses
	if total == 0 {
		return 0
	}
	return float64(l.Hits) / float64(total)
}
