package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64pipe/sim/internal/isa"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c := newTestCPU(t)
	c.gpr.Set(5, 0xdeadbeefcafef00d)
	c.fpr.SetDouble(10, 0x3ff0000000000000)
	c.pc = 0x80001234
	c.priv.priv = isa.PrivSupervisor
	c.priv.mstatus = 0x1122
	c.priv.satp = 0x8000000000001234
	c.stats.Cycles = 999
	c.stats.InstructionsRetired = 500
	c.stats.TrapsTaken = 3
	c.stats.LoadUseStalls = 7
	c.stats.BranchMispredicts = 2
	c.halted = true
	c.exitCode = 42

	buf := make([]byte, c.SerializeSize())
	require.NoError(t, c.Serialize(buf))

	restored := newTestCPU(t)
	require.NoError(t, restored.Deserialize(buf))

	require.EqualValues(t, 0xdeadbeefcafef00d, restored.GPR(5))
	require.EqualValues(t, 0x3ff0000000000000, restored.fpr.GetDouble(10))
	require.EqualValues(t, 0x80001234, restored.PC())
	require.Equal(t, isa.PrivSupervisor, restored.PrivMode())
	require.EqualValues(t, 0x1122, restored.priv.mstatus)
	require.EqualValues(t, 0x8000000000001234, restored.priv.satp)
	require.EqualValues(t, 999, restored.stats.Cycles)
	require.EqualValues(t, 500, restored.stats.InstructionsRetired)
	require.EqualValues(t, 3, restored.stats.TrapsTaken)
	require.EqualValues(t, 7, restored.stats.LoadUseStalls)
	require.EqualValues(t, 2, restored.stats.BranchMispredicts)
	require.True(t, restored.Halted())
	require.Equal(t, 42, restored.ExitCode())
}

func TestSerializeRejectsShortBuffer(t *testing.T) {
	c := newTestCPU(t)
	require.Error(t, c.Serialize(make([]byte, 4)))
	require.Error(t, c.Deserialize(make([]byte, 4)))
}

func TestDeserializeRejectsBadVersion(t *testing.T) {
	c := newTestCPU(t)
	buf := make([]byte, c.SerializeSize())
	require.NoError(t, c.Serialize(buf))
	buf[0] = 0xFF
	require.Error(t, c.Deserialize(buf))
}
