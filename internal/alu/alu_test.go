package alu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64pipe/sim/internal/isa"
)

func TestBasicOps(t *testing.T) {
	cases := []struct {
		name string
		op   isa.AluOp
		a, b uint64
		want uint64
	}{
		{"add", isa.AluAdd, 2, 3, 5},
		{"sub", isa.AluSub, 5, 3, 2},
		{"sll", isa.AluSLL, 1, 4, 16},
		{"srl", isa.AluSRL, 0x8000000000000000, 4, 0x0800000000000000},
		{"sra", isa.AluSRA, 0x8000000000000000, 4, 0xF800000000000000},
		{"slt true", isa.AluSLT, ^uint64(0), 1, 1},
		{"sltu false", isa.AluSLTU, ^uint64(0), 1, 0},
		{"xor", isa.AluXor, 0xFF, 0x0F, 0xF0},
		{"or", isa.AluOr, 0xF0, 0x0F, 0xFF},
		{"and", isa.AluAnd, 0xFF, 0x0F, 0x0F},
		{"addw overflow wraps and sign extends", isa.AluAddW, 0x7FFFFFFF, 1, uint64(int64(int32(0x80000000)))},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Exec(tt.op, tt.a, tt.b))
		})
	}
}

func TestDivByZero(t *testing.T) {
	require.Equal(t, ^uint64(0), Exec(isa.AluDiv, 10, 0))
	require.Equal(t, ^uint64(0), Exec(isa.AluDivU, 10, 0))
	require.EqualValues(t, 10, Exec(isa.AluRem, 10, 0))
}

func TestDivOverflow(t *testing.T) {
	require.Equal(t, uint64(minInt64), Exec(isa.AluDiv, uint64(minInt64), uint64(^uint64(0))))
	require.EqualValues(t, 0, Exec(isa.AluRem, uint64(minInt64), uint64(^uint64(0))))
}

func TestMulH(t *testing.T) {
	// -1 * -1 = 1, high word of signed 128-bit product is 0
	require.EqualValues(t, 0, Exec(isa.AluMulH, ^uint64(0), ^uint64(0)))
	// max_u64 * max_u64 high word
	got := Exec(isa.AluMulHU, ^uint64(0), ^uint64(0))
	require.EqualValues(t, ^uint64(0)-1, got)
}
