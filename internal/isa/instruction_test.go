package isa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeADDI(t *testing.T) {
	// addi x1, x2, 5  -> imm=5 rs1=2 funct3=0 rd=1 opcode=0x13
	raw := uint32(5)<<20 | 2<<15 | 0<<12 | 1<<7 | 0x13
	inst := Decode(raw, 0x1000)
	require.Equal(t, OpADDI, inst.Op)
	require.EqualValues(t, 1, inst.Rd)
	require.EqualValues(t, 2, inst.Rs1)
	require.EqualValues(t, 5, inst.Imm)
}

func TestDecodeBEQNegativeImm(t *testing.T) {
	// beq x1,x2,-4: imm bits per B-type. -4 = 0x1FFC (13-bit signed)
	imm := uint32(0x1FFC)
	raw := (imm>>12&1)<<31 | (imm>>5&0x3F)<<25 | 2<<20 | 1<<15 | 0<<12 | (imm>>1&0xF)<<8 | (imm>>11&1)<<7 | 0x63
	inst := Decode(raw, 0x2000)
	require.Equal(t, OpBEQ, inst.Op)
	require.EqualValues(t, -4, inst.Imm)
}

func TestDecodeOPMulDiv(t *testing.T) {
	raw := uint32(0x01)<<25 | 2<<20 | 1<<15 | 4<<12 | 3<<7 | 0x33 // div
	inst := Decode(raw, 0)
	require.Equal(t, OpDIV, inst.Op)
}

func TestExpandCAddi(t *testing.T) {
	// c.addi x1, 5: quadrant 01 funct3 000, rd=1, imm=5
	raw := uint16(0)
	raw |= 1 << 0 // quadrant 01
	raw |= 1 << 7 // rd bits[11:7] = 1
	raw |= (5 & 0x1F) << 2
	inst := ExpandCompressed(raw, 0x1000)
	require.Equal(t, OpADDI, inst.Op)
	require.EqualValues(t, 1, inst.Rd)
	require.EqualValues(t, 5, inst.Imm)
	require.EqualValues(t, 2, inst.Size)
}

func TestGPRZeroHardwired(t *testing.T) {
	var g GPRFile
	g.Set(0, 42)
	require.Zero(t, g.Get(0))
	g.Set(3, 7)
	require.EqualValues(t, 7, g.Get(3))
}

func TestFPRNaNBoxing(t *testing.T) {
	var f FPRFile
	f.SetSingle(1, 0x3f800000)
	require.EqualValues(t, 0x3f800000, f.GetSingle(1))
	require.EqualValues(t, nanBoxUpper|0x3f800000, f.GetDouble(1))

	f.SetDouble(2, 0x1122334455667788)
	require.EqualValues(t, 0x7fc00000, f.GetSingle(2))
}
