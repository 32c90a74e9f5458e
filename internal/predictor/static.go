package predictor

// staticPredictor implements backward-taken/forward-not-taken: a branch
// whose target (once known via the BTB) is behind the current PC predicts
// taken, otherwise not-taken. Before the BTB has learned a target, it
// defaults to not-taken.
type staticPredictor struct {
	btb *btb
	ras *ras
}

func newStatic(btbEntries, rasEntries int) *staticPredictor {
	return &staticPredictor{btb: newBTB(btbEntries), ras: newRAS(rasEntries)}
}

func (p *staticPredictor) PredictBranch(pc uint64) bool {
	if target, ok := p.btb.lookup(pc); ok {
		return target < pc
	}
	return false
}

func (p *staticPredictor) PredictBTB(pc uint64) (uint64, bool) { return p.btb.lookup(pc) }
func (p *staticPredictor) PredictReturn() (uint64, bool)       { return p.ras.peek() }

func (p *staticPredictor) UpdateBranch(pc uint64, taken bool, target uint64) {
	if taken {
		p.btb.update(pc, target)
	}
}

func (p *staticPredictor) OnCall(returnAddr uint64) { p.ras.push(returnAddr) }
func (p *staticPredictor) OnReturn()                { p.ras.pop() }
