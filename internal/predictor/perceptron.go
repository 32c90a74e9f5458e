package predictor

// perceptronPredictor implements the Jimenez-Lin perceptron branch
// predictor: a per-PC weight vector over the global history bits, summed
// and thresholded.
type perceptronPredictor struct {
	weights   [][]int8
	history   []int8 // +1/-1 per bit, most recent last
	histLen   int
	threshold int
	mask      uint32

	btb *btb
	ras *ras

	lastSum int
}

func newPerceptron(btbEntries, rasEntries int, cfg PerceptronConfig) *perceptronPredictor {
	if cfg.HistoryLength == 0 {
		cfg.HistoryLength = 24
	}
	if cfg.TableEntries == 0 {
		cfg.TableEntries = 1024
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = int(1.93*float64(cfg.HistoryLength)) + 14
	}
	n := 1
	for n < cfg.TableEntries {
		n <<= 1
	}
	weights := make([][]int8, n)
	for i := range weights {
		weights[i] = make([]int8, cfg.HistoryLength+1) // +1 bias weight
	}
	return &perceptronPredictor{
		weights:   weights,
		history:   make([]int8, 0, cfg.HistoryLength),
		histLen:   cfg.HistoryLength,
		threshold: cfg.Threshold,
		mask:      uint32(n - 1),
		btb:       newBTB(btbEntries),
		ras:       newRAS(rasEntries),
	}
}

func (p *perceptronPredictor) index(pc uint64) uint32 {
	return uint32(pc) & p.mask
}

func (p *perceptronPredictor) sum(pc uint64) int {
	w := p.weights[p.index(pc)]
	sum := int(w[0]) // bias
	for i, h := range p.history {
		sum += int(w[i+1]) * int(h)
	}
	return sum
}

func (p *perceptronPredictor) PredictBranch(pc uint64) bool {
	p.lastSum = p.sum(pc)
	return p.lastSum >= 0
}

func (p *perceptronPredictor) PredictBTB(pc uint64) (uint64, bool) { return p.btb.lookup(pc) }
func (p *perceptronPredictor) PredictReturn() (uint64, bool)       { return p.ras.peek() }

func (p *perceptronPredictor) UpdateBranch(pc uint64, taken bool, target uint64) {
	sum := p.sum(pc)
	pred := sum >= 0
	outcome := int8(-1)
	if taken {
		outcome = 1
	}
	if pred != taken || abs(sum) <= p.threshold {
		w := p.weights[p.index(pc)]
		w[0] = clamp8(int(w[0]) + int(outcome))
		for i, h := range p.history {
			w[i+1] = clamp8(int(w[i+1]) + int(outcome)*int(h))
		}
	}
	p.history = append(p.history, outcome)
	if len(p.history) > p.histLen {
		p.history = p.history[1:]
	}
	if taken {
		p.btb.update(pc, target)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp8(v int) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}

func (p *perceptronPredictor) OnCall(returnAddr uint64) { p.ras.push(returnAddr) }
func (p *perceptronPredictor) OnReturn()                { p.ras.pop() }
