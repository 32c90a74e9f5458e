package predictor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGShareLearnsAlwaysTaken(t *testing.T) {
	p := newGShare(64, 8)
	pc := uint64(0x8000_1000)
	for i := 0; i < 50; i++ {
		p.UpdateBranch(pc, true, pc+100)
	}
	require.True(t, p.PredictBranch(pc))
	target, ok := p.PredictBTB(pc)
	require.True(t, ok)
	require.Equal(t, pc+100, target)
}

func TestRASRoundTrip(t *testing.T) {
	p := newStatic(16, 4)
	p.OnCall(0x1000)
	p.OnCall(0x2000)
	target, ok := p.PredictReturn()
	require.True(t, ok)
	require.Equal(t, uint64(0x2000), target)
	p.OnReturn()
	target, ok = p.PredictReturn()
	require.True(t, ok)
	require.Equal(t, uint64(0x1000), target)
}

func TestTournamentConverges(t *testing.T) {
	p := newTournament(64, 8, TournamentConfig{})
	pc := uint64(0x4000)
	for i := 0; i < 200; i++ {
		p.UpdateBranch(pc, true, pc+4)
	}
	require.True(t, p.PredictBranch(pc))
}

func TestPerceptronConverges(t *testing.T) {
	p := newPerceptron(64, 8, PerceptronConfig{})
	pc := uint64(0x4000)
	for i := 0; i < 200; i++ {
		p.UpdateBranch(pc, true, pc+4)
	}
	require.True(t, p.PredictBranch(pc))
}

func TestTAGEConverges(t *testing.T) {
	p := newTAGE(64, 8, TAGEConfig{})
	pc := uint64(0x4000)
	for i := 0; i < 200; i++ {
		p.UpdateBranch(pc, true, pc+4)
	}
	require.True(t, p.PredictBranch(pc))
}
