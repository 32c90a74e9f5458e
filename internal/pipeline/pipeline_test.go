package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64pipe/sim/internal/isa"
	"github.com/rv64pipe/sim/internal/lsu"
)

type fakeMem struct {
	code map[uint64]uint32
	data map[uint64]uint64
}

func (m *fakeMem) FetchInstruction(pc uint64) (uint32, *isa.Trap) {
	return m.code[pc], nil
}

func (m *fakeMem) ReadData(addr uint64, width int) (uint64, *isa.Trap) {
	return m.data[addr], nil
}

func (m *fakeMem) WriteData(addr uint64, width int, val uint64) *isa.Trap {
	m.data[addr] = val
	return nil
}

type fakeCSR struct {
	vals map[uint16]uint64
}

func (c *fakeCSR) ReadCSR(addr uint16) (uint64, bool) { v, ok := c.vals[addr]; return v, ok }
func (c *fakeCSR) WriteCSR(addr uint16, v uint64) bool { c.vals[addr] = v; return true }
func (c *fakeCSR) Priv() isa.PrivilegeMode             { return isa.PrivMachine }

func encodeADDI(rd, rs1 uint32, imm int64) uint32 {
	return uint32(imm&0xFFF)<<20 | rs1<<15 | 0<<12 | rd<<7 | 0x13
}

func TestDecodeExecuteWriteback_ADDI(t *testing.T) {
	gpr := &isa.GPRFile{}
	fpr := &isa.FPRFile{}
	inst := isa.Decode(encodeADDI(5, 0, 42), 0x1000)

	b := Bundle{Valid: true, Inst: inst}
	b = Decode(b, gpr, fpr)
	require.True(t, b.Ctrl.RegWrite)

	b = Execute(b, &fakeCSR{vals: map[uint16]uint64{}}, &lsu.Reservation{})
	require.EqualValues(t, 42, b.ALUResult)

	commit := Writeback(b, gpr, fpr)
	require.True(t, commit.Valid)
	require.False(t, commit.IsFP)
	require.EqualValues(t, 5, commit.Reg)
	require.EqualValues(t, 42, commit.Val)
	require.EqualValues(t, 42, gpr.Get(5))
}

func TestLoadUseHazardDetected(t *testing.T) {
	load := isa.Instruction{Op: isa.OpLD, Rd: 5, Rs1: 1}
	user := isa.Instruction{Op: isa.OpADD, Rs1: 5, Rs2: 2}
	idex := Bundle{Valid: true, Inst: load, Ctrl: ControlSignals{MemRead: true, RegWrite: true}}
	require.True(t, DetectLoadUseHazard(idex, user))

	notUsing := isa.Instruction{Op: isa.OpADD, Rs1: 6, Rs2: 2}
	require.False(t, DetectLoadUseHazard(idex, notUsing))
}

func TestForwardOperandPrefersExMemOverRegFile(t *testing.T) {
	exmem := Bundle{Valid: true, Inst: isa.Instruction{Rd: 5}, Ctrl: ControlSignals{RegWrite: true}, ALUResult: 99}
	val, src := ForwardOperand(5, false, 0, nil, []Bundle{exmem}, nil, nil)
	require.EqualValues(t, 99, val)
	require.Equal(t, ForwardFromExMem, src)
}

func TestForwardOperandFallsBackToRegFile(t *testing.T) {
	val, src := ForwardOperand(5, false, 7, nil, nil, nil, nil)
	require.EqualValues(t, 7, val)
	require.Equal(t, ForwardFromRegFile, src)
}

func TestForwardOperandMatchesFPFileOnly(t *testing.T) {
	// An EX/MEM record writing integer x5 must not satisfy a read of f5.
	intProducer := Bundle{Valid: true, Inst: isa.Instruction{Rd: 5}, Ctrl: ControlSignals{RegWrite: true}, ALUResult: 111}
	val, src := ForwardOperand(5, true, 3, nil, []Bundle{intProducer}, nil, nil)
	require.EqualValues(t, 3, val)
	require.Equal(t, ForwardFromRegFile, src)

	fpProducer := Bundle{Valid: true, Inst: isa.Instruction{Rd: 5}, Ctrl: ControlSignals{FPWrite: true}, FPResult: 222}
	val, src = ForwardOperand(5, true, 3, nil, []Bundle{fpProducer}, nil, nil)
	require.EqualValues(t, 222, val)
	require.Equal(t, ForwardFromExMem, src)
}

func TestLoadUseHazardCoversFPDestination(t *testing.T) {
	load := isa.Instruction{Op: isa.OpFLD, Rd: 5, Rs1: 1}
	idex := Bundle{Valid: true, Inst: load, Ctrl: ControlSignals{MemRead: true, IsFP: true, FPWrite: true}}

	user := isa.Instruction{Op: isa.OpFADD, Rs1: 5, Rs2: 2}
	require.True(t, DetectLoadUseHazard(idex, user))

	intUser := isa.Instruction{Op: isa.OpADD, Rs1: 5, Rs2: 2}
	require.False(t, DetectLoadUseHazard(idex, intUser))
}

func TestBranchMispredictDetected(t *testing.T) {
	inst := isa.Instruction{Op: isa.OpBEQ, PC: 0x100, Size: 4, Imm: 16}
	b := Bundle{Valid: true, Inst: inst, Rs1Val: 1, Rs2Val: 1, PredictedTaken: false}
	b = Execute(b, &fakeCSR{vals: map[uint16]uint64{}}, &lsu.Reservation{})
	require.True(t, b.BranchTaken)
	require.True(t, b.Mispredicted)
	require.EqualValues(t, 0x110, b.NextPC)
}

func TestMemoryStageLoadWordSignExtends(t *testing.T) {
	mem := &fakeMem{code: map[uint64]uint32{}, data: map[uint64]uint64{0x2000: 0xDEADBEEF}}
	b := Bundle{
		Valid:   true,
		Inst:    isa.Instruction{Op: isa.OpLW},
		Ctrl:    ControlSignals{MemRead: true},
		MemAddr: 0x2000,
	}
	b = MemoryStage(b, mem, &lsu.Reservation{})
	require.EqualValues(t, uint64(0xFFFFFFFFDEADBEEF), b.MemValue)
}

func TestFMADDDouble(t *testing.T) {
	inst := isa.Instruction{Op: isa.OpFMADD, Width: isa.FPWidthDouble}
	b := Bundle{
		Valid:  true,
		Inst:   inst,
		Rs1Val: floatToBits(2),
		Rs2Val: floatToBits(3),
		Rs3Val: floatToBits(4),
	}
	b = Execute(b, &fakeCSR{vals: map[uint16]uint64{}}, &lsu.Reservation{})
	require.EqualValues(t, 10, bitsToFloat(b.FPResult))
}

func TestFNMADDDouble(t *testing.T) {
	inst := isa.Instruction{Op: isa.OpFNMADD, Width: isa.FPWidthDouble}
	b := Bundle{
		Valid:  true,
		Inst:   inst,
		Rs1Val: floatToBits(2),
		Rs2Val: floatToBits(3),
		Rs3Val: floatToBits(4),
	}
	b = Execute(b, &fakeCSR{vals: map[uint16]uint64{}}, &lsu.Reservation{})
	require.EqualValues(t, -10, bitsToFloat(b.FPResult))
}

func TestFADDSingleDoesNotMisreadDoubleBits(t *testing.T) {
	inst := isa.Instruction{Op: isa.OpFADD, Width: isa.FPWidthSingle}
	b := Bundle{
		Valid:  true,
		Inst:   inst,
		Rs1Val: float32ToBits(1.5),
		Rs2Val: float32ToBits(2.5),
	}
	b = Execute(b, &fakeCSR{vals: map[uint16]uint64{}}, &lsu.Reservation{})
	require.EqualValues(t, float32(4), bitsToFloat32(b.FPResult))
}

func TestAMOAddRoundTrip(t *testing.T) {
	mem := &fakeMem{code: map[uint64]uint32{}, data: map[uint64]uint64{0x3000: 10}}
	b := Bundle{
		Valid:   true,
		Inst:    isa.Instruction{Op: isa.OpAMOADDW},
		Ctrl:    ControlSignals{IsAtomic: true, RegWrite: true},
		MemAddr: 0x3000,
		MemValue: 5,
	}
	res := &lsu.Reservation{}
	b = MemoryStage(b, mem, res)
	require.EqualValues(t, 10, b.ALUResult)
	require.EqualValues(t, 15, mem.data[0x3000])
}
