package cache

import "math/rand"

// ReplacementPolicy decides which way within a set to evict, and is told
// about every access so it can track recency/insertion order.
type ReplacementPolicy interface {
	// Touch records an access (hit or a fill after a miss) to way within set.
	Touch(set, way int)
	// Victim picks the way to evict for a miss in set.
	Victim(set int) int
}

func NewPolicy(name string, ways int) ReplacementPolicy {
	switch name {
	case "fifo":
		return newFIFO(ways)
	case "mru":
		return newMRU(ways)
	case "random":
		return newRandomPolicy(ways)
	default:
		return newLRU(ways)
	}
}

// --- LRU ---

type lru struct {
	order [][]int // order[set] = ways from least- to most-recently used
	ways  int
}

func newLRU(ways int) *lru { return &lru{ways: ways} }

func (p *lru) ensure(set int) {
	for len(p.order) <= set {
		init := make([]int, p.ways)
		for i := range init {
			init[i] = i
		}
		p.order = append(p.order, init)
	}
}

func (p *lru) Touch(set, way int) {
	p.ensure(set)
	o := p.order[set]
	for i, w := range o {
		if w == way {
			o = append(o[:i], o[i+1:]...)
			break
		}
	}
	p.order[set] = append(o, way)
}

func (p *lru) Victim(set int) int {
	p.ensure(set)
	return p.order[set][0]
}

// --- FIFO ---

type fifo struct {
	queue [][]int
	ways  int
}

func newFIFO(ways int) *fifo { return &fifo{ways: ways} }

func (p *fifo) ensure(set int) {
	for len(p.queue) <= set {
		init := make([]int, p.ways)
		for i := range init {
			init[i] = i
		}
		p.queue = append(p.queue, init)
	}
}

// FIFO only tracks insertion order on a fill; hits don't reorder.
func (p *fifo) Touch(set, way int) {
	p.ensure(set)
	q := p.queue[set]
	for _, w := range q {
		if w == way {
			return // already tracked; FIFO ignores hit-touches
		}
	}
	_ = q
}

func (p *fifo) Victim(set int) int {
	p.ensure(set)
	v := p.queue[set][0]
	p.queue[set] = append(p.queue[set][1:], v)
	return v
}

// --- MRU: evict the most-recently-used way ---

type mru struct {
	*lru
}

func newMRU(ways int) *mru { return &mru{lru: newLRU(ways)} }

func (p *mru) Victim(set int) int {
	p.ensure(set)
	o := p.order[set]
	return o[len(o)-1]
}

// --- Random ---

type randomPolicy struct {
	ways int
	rng  *rand.Rand
}

func newRandomPolicy(ways int) *randomPolicy {
	return &randomPolicy{ways: ways, rng: rand.New(rand.NewSource(1))}
}

func (p *randomPolicy) Touch(set, way int) {}

func (p *randomPolicy) Victim(set int) int {
	return p.rng.Intn(p.ways)
}
