package predictor

// tournamentPredictor chooses between a per-PC local predictor and a
// global-history predictor using a third saturating counter trained by
// whichever of the two was correct.
type tournamentPredictor struct {
	localHistory []uint16
	localTable   []satCounter
	localMask    uint32

	globalTable []satCounter
	ghr         uint32
	globalMask  uint32

	choice     []satCounter
	choiceMask uint32

	btb *btb
	ras *ras
}

func newTournament(btbEntries, rasEntries int, cfg TournamentConfig) *tournamentPredictor {
	if cfg.LocalHistoryBits == 0 {
		cfg.LocalHistoryBits = 10
	}
	if cfg.GlobalHistoryBits == 0 {
		cfg.GlobalHistoryBits = 12
	}
	if cfg.ChoiceBits == 0 {
		cfg.ChoiceBits = 12
	}
	t := &tournamentPredictor{
		localHistory: make([]uint16, 1<<10),
		localTable:   makeCounters(1 << cfg.LocalHistoryBits),
		localMask:    uint32(1<<cfg.LocalHistoryBits) - 1,
		globalTable:  makeCounters(1 << cfg.GlobalHistoryBits),
		globalMask:   uint32(1<<cfg.GlobalHistoryBits) - 1,
		choice:       makeCounters(1 << cfg.ChoiceBits),
		choiceMask:   uint32(1<<cfg.ChoiceBits) - 1,
		btb:          newBTB(btbEntries),
		ras:          newRAS(rasEntries),
	}
	return t
}

func makeCounters(n int) []satCounter {
	c := make([]satCounter, n)
	for i := range c {
		c[i] = newSatCounter(2)
	}
	return c
}

func (p *tournamentPredictor) localIdx(pc uint64) (histIdx uint32, tableIdx uint32) {
	histIdx = uint32(pc) & uint32(len(p.localHistory)-1)
	tableIdx = uint32(p.localHistory[histIdx]) & p.localMask
	return
}

func (p *tournamentPredictor) globalIdx() uint32 { return p.ghr & p.globalMask }
func (p *tournamentPredictor) choiceIdx() uint32 { return p.ghr & p.choiceMask }

func (p *tournamentPredictor) PredictBranch(pc uint64) bool {
	_, localIdx := p.localIdx(pc)
	localPred := p.localTable[localIdx].taken()
	globalPred := p.globalTable[p.globalIdx()].taken()
	if p.choice[p.choiceIdx()].taken() {
		return globalPred
	}
	return localPred
}

func (p *tournamentPredictor) PredictBTB(pc uint64) (uint64, bool) { return p.btb.lookup(pc) }
func (p *tournamentPredictor) PredictReturn() (uint64, bool)       { return p.ras.peek() }

func (p *tournamentPredictor) UpdateBranch(pc uint64, taken bool, target uint64) {
	histIdx, localIdx := p.localIdx(pc)
	localPred := p.localTable[localIdx].taken()
	globalPred := p.globalTable[p.globalIdx()].taken()

	if localPred != globalPred {
		if globalPred == taken {
			p.choice[p.choiceIdx()].update(true)
		} else {
			p.choice[p.choiceIdx()].update(false)
		}
	}

	p.localTable[localIdx].update(taken)
	p.localHistory[histIdx] = (p.localHistory[histIdx] << 1) | uint16(b2u32(taken))
	p.globalTable[p.globalIdx()].update(taken)
	p.ghr = (p.ghr << 1) | b2u32(taken)

	if taken {
		p.btb.update(pc, target)
	}
}

func (p *tournamentPredictor) OnCall(returnAddr uint64) { p.ras.push(returnAddr) }
func (p *tournamentPredictor) OnReturn()                { p.ras.pop() }
