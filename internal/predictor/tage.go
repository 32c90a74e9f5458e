package predictor

import "math"

// tagePredictor is a simplified TAGE (TAgged GEometric) predictor: a
// bimodal base table plus a handful of tagged tables with geometrically
// increasing history lengths. The longest-history table with a tag match
// provides the prediction; on an update, the shortest table that mispredicted
// may allocate a new entry in a longer table.
type tagePredictor struct {
	base []satCounter

	tables   []tageTable
	histLens []int
	ghr      uint64

	btb *btb
	ras *ras
}

type tageTableEntry struct {
	valid   bool
	tag     uint16
	counter satCounter
	useful  uint8
}

type tageTable struct {
	entries []tageTableEntry
	idxMask uint32
	tagMask uint16
}

func newTAGE(btbEntries, rasEntries int, cfg TAGEConfig) *tagePredictor {
	if cfg.BaseBits == 0 {
		cfg.BaseBits = 13
	}
	if cfg.NumTables == 0 {
		cfg.NumTables = 4
	}
	if cfg.TagBits == 0 {
		cfg.TagBits = 9
	}
	if cfg.HistLenMin == 0 {
		cfg.HistLenMin = 5
	}
	if cfg.HistLenMax == 0 {
		cfg.HistLenMax = 64
	}

	base := makeCounters(1 << cfg.BaseBits)

	t := &tagePredictor{base: base, btb: newBTB(btbEntries), ras: newRAS(rasEntries)}
	for i := 0; i < cfg.NumTables; i++ {
		// Geometric history length growth from HistLenMin to HistLenMax.
		frac := float64(i) / float64(maxInt(cfg.NumTables-1, 1))
		length := int(float64(cfg.HistLenMin) * math.Pow(float64(cfg.HistLenMax)/float64(cfg.HistLenMin), frac))
		t.histLens = append(t.histLens, length)
		size := 1 << 10
		t.tables = append(t.tables, tageTable{
			entries: make([]tageTableEntry, size),
			idxMask: uint32(size - 1),
			tagMask: uint16(1<<cfg.TagBits) - 1,
		})
	}
	return t
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (t *tagePredictor) tableIndexAndTag(ti int, pc uint64) (uint32, uint16) {
	hlen := t.histLens[ti]
	mask := uint64(1)<<uint(hlen) - 1
	if hlen >= 64 {
		mask = ^uint64(0)
	}
	foldedHist := t.ghr & mask
	idx := uint32(pc^foldedHist) & t.tables[ti].idxMask
	tag := uint16(pc^(foldedHist>>3)) & t.tables[ti].tagMask
	return idx, tag
}

func (t *tagePredictor) lookup(pc uint64) (providerTable int, idx uint32, pred bool) {
	providerTable = -1
	for i := len(t.tables) - 1; i >= 0; i-- {
		ix, tag := t.tableIndexAndTag(i, pc)
		e := t.tables[i].entries[ix]
		if e.valid && e.tag == tag {
			return i, ix, e.counter.taken()
		}
	}
	return -1, 0, t.base[uint32(pc)&uint32(len(t.base)-1)].taken()
}

func (t *tagePredictor) PredictBranch(pc uint64) bool {
	_, _, pred := t.lookup(pc)
	return pred
}

func (t *tagePredictor) PredictBTB(pc uint64) (uint64, bool) { return t.btb.lookup(pc) }
func (t *tagePredictor) PredictReturn() (uint64, bool)       { return t.ras.peek() }

func (t *tagePredictor) UpdateBranch(pc uint64, taken bool, target uint64) {
	provider, idx, pred := t.lookup(pc)
	if provider >= 0 {
		t.tables[provider].entries[idx].counter.update(taken)
		if pred == taken {
			if t.tables[provider].entries[idx].useful < 3 {
				t.tables[provider].entries[idx].useful++
			}
		} else if t.tables[provider].entries[idx].useful > 0 {
			t.tables[provider].entries[idx].useful--
		}
	} else {
		t.base[uint32(pc)&uint32(len(t.base)-1)].update(taken)
	}

	if pred != taken && provider < len(t.tables)-1 {
		alloc := provider + 1
		ix, tag := t.tableIndexAndTag(alloc, pc)
		e := &t.tables[alloc].entries[ix]
		if !e.valid || e.useful == 0 {
			*e = tageTableEntry{valid: true, tag: tag, counter: newSatCounter(2)}
			e.counter.update(taken)
		}
	}

	t.ghr = (t.ghr << 1) | b2u64(taken)
	if taken {
		t.btb.update(pc, target)
	}
}

func b2u64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (t *tagePredictor) OnCall(returnAddr uint64) { t.ras.push(returnAddr) }
func (t *tagePredictor) OnReturn()                { t.ras.pop() }
