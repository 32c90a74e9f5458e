package lsu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64pipe/sim/internal/isa"
)

func TestExtendLoad(t *testing.T) {
	require.EqualValues(t, ^uint64(0), ExtendLoad(isa.OpLB, 0xFF))
	require.EqualValues(t, 0xFF, ExtendLoad(isa.OpLBU, 0xFF))
	require.EqualValues(t, 0xFFFFFFFFFFFFFFFF, ExtendLoad(isa.OpLW, 0xFFFFFFFF))
	require.EqualValues(t, 0xFFFFFFFF, ExtendLoad(isa.OpLWU, 0xFFFFFFFF))
}

func TestReservationRoundTrip(t *testing.T) {
	var r Reservation
	require.False(t, r.Check(0x1000))
	r.Set(0x1000)
	require.True(t, r.Check(0x1000))
	// a checked reservation is consumed
	require.False(t, r.Check(0x1000))
}

func TestAMOAdd(t *testing.T) {
	got := AMO(isa.AtomicAdd, false, 10, 5)
	require.EqualValues(t, 15, got)
}

func TestAMOMin32SignExtends(t *testing.T) {
	// mem = -1 (0xFFFFFFFF as 32-bit), reg = 1 -> min is -1
	got := AMO(isa.AtomicMin, true, 0xFFFFFFFF, 1)
	require.EqualValues(t, 0xFFFFFFFF, got)
}
