// Package predictor implements the branch predictor interface and its
// pluggable internals (Static, GShare, Tournament, TAGE, Perceptron). Only
// the interface shape is architecturally significant; callers never
// depend on which concrete predictor is selected.
package predictor

// Predictor is consulted by the fetch stage every cycle and updated by the
// execute stage once a branch resolves.
type Predictor interface {
	// PredictBranch returns the taken/not-taken prediction for a branch at pc.
	PredictBranch(pc uint64) bool
	// PredictBTB returns the predicted target for a taken branch/jump at pc.
	PredictBTB(pc uint64) (target uint64, ok bool)
	// PredictReturn pops the return-address-stack prediction for a ret.
	PredictReturn() (target uint64, ok bool)
	// UpdateBranch trains the predictor with a branch's resolved outcome.
	UpdateBranch(pc uint64, taken bool, target uint64)
	// OnCall pushes a return address onto the return-address stack.
	OnCall(returnAddr uint64)
	// OnReturn pops the return-address stack (call site already consulted
	// PredictReturn; this keeps the RAS depth consistent on misprediction
	// recovery paths that skip the predicted value).
	OnReturn()
}

func New(kind string, btbEntries, rasEntries int, cfg Config) Predictor {
	switch kind {
	case "static":
		return newStatic(btbEntries, rasEntries)
	case "tournament":
		return newTournament(btbEntries, rasEntries, cfg.Tournament)
	case "tage":
		return newTAGE(btbEntries, rasEntries, cfg.TAGE)
	case "perceptron":
		return newPerceptron(btbEntries, rasEntries, cfg.Perceptron)
	default:
		return newGShare(btbEntries, rasEntries)
	}
}

// Config bundles the per-kind tuning knobs (mirrors config.PipelineConfig's
// predictor sub-configs without this package depending on internal/config).
type Config struct {
	Tournament TournamentConfig
	TAGE       TAGEConfig
	Perceptron PerceptronConfig
}

type TournamentConfig struct {
	LocalHistoryBits, GlobalHistoryBits, ChoiceBits int
}

type TAGEConfig struct {
	BaseBits, NumTables, TagBits, HistLenMin, HistLenMax int
}

type PerceptronConfig struct {
	HistoryLength, TableEntries, Threshold int
}

// btb is a small direct-mapped branch target buffer shared by every
// predictor kind.
type btb struct {
	entries []btbEntry
	mask    uint64
}

type btbEntry struct {
	valid  bool
	tag    uint64
	target uint64
}

func newBTB(size int) *btb {
	n := 1
	for n < size {
		n <<= 1
	}
	return &btb{entries: make([]btbEntry, n), mask: uint64(n - 1)}
}

func (b *btb) lookup(pc uint64) (uint64, bool) {
	idx := pc & b.mask
	e := b.entries[idx]
	if e.valid && e.tag == pc {
		return e.target, true
	}
	return 0, false
}

func (b *btb) update(pc, target uint64) {
	idx := pc & b.mask
	b.entries[idx] = btbEntry{valid: true, tag: pc, target: target}
}

// ras is a fixed-depth return address stack.
type ras struct {
	stack []uint64
	depth int
}

func newRAS(depth int) *ras {
	if depth < 1 {
		depth = 1
	}
	return &ras{stack: make([]uint64, 0, depth), depth: depth}
}

func (r *ras) push(addr uint64) {
	if len(r.stack) >= r.depth {
		copy(r.stack, r.stack[1:])
		r.stack = r.stack[:len(r.stack)-1]
	}
	r.stack = append(r.stack, addr)
}

func (r *ras) peek() (uint64, bool) {
	if len(r.stack) == 0 {
		return 0, false
	}
	return r.stack[len(r.stack)-1], true
}

func (r *ras) pop() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// satCounter is a saturating n-bit counter used by every 2-bit-style
// bimodal table.
type satCounter struct {
	val, max uint8
}

func newSatCounter(bits uint8) satCounter {
	return satCounter{val: 1 << (bits - 1), max: (1 << bits) - 1}
}

func (c *satCounter) taken() bool { return c.val > c.max/2 }

func (c *satCounter) update(taken bool) {
	if taken {
		if c.val < c.max {
			c.val++
		}
	} else {
		if c.val > 0 {
			c.val--
		}
	}
}
