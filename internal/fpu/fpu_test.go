package fpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddD(t *testing.T) {
	r, f := AddD(1.5, 2.5)
	require.Equal(t, 4.0, r)
	require.Zero(t, f)
}

func TestDivByZeroD(t *testing.T) {
	r, f := DivD(1.0, 0.0)
	require.True(t, math.IsInf(r, 1))
	require.NotZero(t, f&FlagDZ)
}

func TestMinMaxNaN(t *testing.T) {
	r, f := MinD(math.NaN(), 1.0)
	require.Equal(t, 1.0, r)
	require.NotZero(t, f&FlagNV)
}

func TestClassD(t *testing.T) {
	require.EqualValues(t, ClassPosZero, ClassD(0.0))
	require.EqualValues(t, ClassNegZero, ClassD(math.Copysign(0, -1)))
	require.EqualValues(t, ClassPosInf, ClassD(math.Inf(1)))
}

func TestF64ToI32Saturation(t *testing.T) {
	v, f := F64ToI32(1e30)
	require.EqualValues(t, math.MaxInt32, v)
	require.NotZero(t, f&FlagNV)
}

func TestSgnj(t *testing.T) {
	require.Equal(t, -3.0, SgnjD(3.0, -1.0))
	require.Equal(t, 3.0, SgnjnD(3.0, 1.0))
}
