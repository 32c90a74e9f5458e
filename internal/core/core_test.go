package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64pipe/sim/internal/config"
	"github.com/rv64pipe/sim/internal/isa"
	"github.com/rv64pipe/sim/internal/mmu"
)

func newTestCPU(t *testing.T) *CPU {
	t.Helper()
	cfg := config.Default()
	cfg.Memory.RAMSizeMiB = 1
	return New(cfg, nil, nil)
}

func encodeADDI(rd, rs1 uint32, imm int64) uint32 {
	return uint32(imm&0xFFF)<<20 | rs1<<15 | 0<<12 | rd<<7 | 0x13
}

func TestCSRReadWriteRoundTrip(t *testing.T) {
	c := newTestCPU(t)
	ok := c.WriteCSR(isa.CsrMtvec, 0x80001000)
	require.True(t, ok)
	v, ok := c.ReadCSR(isa.CsrMtvec)
	require.True(t, ok)
	require.EqualValues(t, 0x80001000, v)

	require.True(t, c.WriteCSR(isa.CsrMstatus, 0xFFFFFFFF))
	mstatus, _ := c.ReadCSR(isa.CsrMstatus)
	sstatus, _ := c.ReadCSR(isa.CsrSstatus)
	require.Equal(t, mstatus&isa.SstatusMask, sstatus)

	_, ok = c.ReadCSR(0x7FF)
	require.False(t, ok)
}

func TestSIECSRMasksMachineBits(t *testing.T) {
	c := newTestCPU(t)
	require.True(t, c.WriteCSR(isa.CsrMie, isa.MipMTIP|isa.MipSTIP))
	sie, _ := c.ReadCSR(isa.CsrSie)
	require.EqualValues(t, isa.MipSTIP, sie)
}

func TestSatpWriteFlushesTLBs(t *testing.T) {
	c := newTestCPU(t)
	c.dtlb.Insert(mmu.TLBEntry{Valid: true, VPN: 0x1000, PPN: 0x2000, Readable: true})
	_, hit := c.dtlb.Lookup(0x1000, 0)
	require.True(t, hit)

	require.True(t, c.WriteCSR(isa.CsrSatp, (8<<60)|0x1234))

	_, hit = c.dtlb.Lookup(0x1000, 0)
	require.False(t, hit)

	v, _ := c.ReadCSR(isa.CsrSatp)
	require.EqualValues(t, (8<<60)|0x1234, v)
}

func TestTranslateBareModePassesThrough(t *testing.T) {
	c := newTestCPU(t)
	phys, trap := c.translate(0x80000100, isa.AccessRead)
	require.Nil(t, trap)
	require.EqualValues(t, 0x80000100, phys)
}

func TestEnterTrapFromMachineMode(t *testing.T) {
	c := newTestCPU(t)
	c.priv.priv = isa.PrivMachine
	c.priv.mtvec = 0x80002000
	c.priv.mstatus |= isa.MstatusMIE

	c.enterTrap(isa.Trap{Cause: isa.ExcIllegalInstruction, Tval: 0xdead}, 0x80000004)

	require.EqualValues(t, 0x80002000, c.pc)
	require.EqualValues(t, 0x80000004, c.priv.mepc)
	require.EqualValues(t, isa.ExcIllegalInstruction, c.priv.mcause)
	require.EqualValues(t, 0xdead, c.priv.mtval)
	require.Equal(t, isa.PrivMachine, c.priv.priv)
	require.EqualValues(t, 1, c.stats.TrapsTaken)
}

func TestEnterTrapDelegatedToSupervisor(t *testing.T) {
	c := newTestCPU(t)
	c.priv.priv = isa.PrivUser
	c.priv.medeleg = 1 << isa.ExcIllegalInstruction
	c.priv.stvec = 0x80003000

	c.enterTrap(isa.Trap{Cause: isa.ExcIllegalInstruction, Tval: 0}, 0x80000004)

	require.EqualValues(t, 0x80003000, c.pc)
	require.EqualValues(t, 0x80000004, c.priv.sepc)
	require.Equal(t, isa.PrivSupervisor, c.priv.priv)
}

func TestMRETRestoresPrivAndInterruptEnable(t *testing.T) {
	c := newTestCPU(t)
	c.priv.priv = isa.PrivMachine
	c.priv.mepc = 0x80000200
	c.priv.mstatus |= isa.MstatusMPIE
	c.priv.mstatus &^= isa.MstatusMIE
	c.priv.mstatus = (c.priv.mstatus &^ isa.MstatusMPPMask) | (uint64(isa.PrivSupervisor) << isa.MstatusMPPShift)

	c.execMRET()

	require.EqualValues(t, 0x80000200, c.pc)
	require.Equal(t, isa.PrivSupervisor, c.priv.priv)
	require.NotZero(t, c.priv.mstatus&isa.MstatusMIE)
}

func TestPendingInterruptPrefersMachineOverSupervisor(t *testing.T) {
	c := newTestCPU(t)
	c.priv.priv = isa.PrivSupervisor
	c.priv.mstatus |= isa.MstatusMIE | isa.MstatusSIE
	c.priv.mie = isa.MipMEIP | isa.MipSEIP
	c.priv.mip = isa.MipMEIP | isa.MipSEIP

	trap, ok := c.pendingInterrupt()
	require.True(t, ok)
	require.EqualValues(t, isa.IrqMachineExternal, trap.Cause)
}

func TestStepRetiresADDIChain(t *testing.T) {
	c := newTestCPU(t)
	base := uint64(c.cfg.System.ResetVector)
	prog := []uint32{
		encodeADDI(5, 0, 10),
		encodeADDI(6, 5, 32),
		encodeADDI(7, 6, 0),
	}
	img := make([]byte, 0, len(prog)*4)
	for _, w := range prog {
		img = append(img, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	require.NoError(t, c.LoadImageAt(base, img))

	for i := 0; i < 40 && c.stats.InstructionsRetired < 3; i++ {
		c.Step()
	}

	require.EqualValues(t, 10, c.GPR(5))
	require.EqualValues(t, 42, c.GPR(6))
	require.EqualValues(t, 42, c.GPR(7))
	require.GreaterOrEqual(t, c.stats.InstructionsRetired, uint64(3))
}

// loadUpperImm splits a 32-bit value into LUI+ADDI encodings targeting rd,
// using the standard RISC-V rounding trick (bump the upper immediate when
// the lower 12 bits would sign-extend negative).
func loadUpperImm(rd uint32, value uint32) (lui, addi uint32) {
	lo12 := int64(int32(value<<20) >> 20)
	upper20 := (int64(value) - lo12) >> 12
	lui = uint32(upper20)<<12 | rd<<7 | 0x37
	addi = encodeADDI(rd, rd, lo12)
	return
}

func encodeSW(rs2, rs1 uint32, offset int32) uint32 {
	u := uint32(offset) & 0xFFF
	return (u>>5)<<25 | rs2<<20 | rs1<<15 | 2<<12 | (u&0x1F)<<7 | 0x23
}

func TestStepHaltsOnSysConPowerOff(t *testing.T) {
	c := newTestCPU(t)
	base := uint64(c.cfg.System.ResetVector)
	sysconAddr := uint32(c.cfg.Memory.SysConBase)

	luiX6, addiX6 := loadUpperImm(6, sysconAddr)
	luiX7, addiX7 := loadUpperImm(7, 0x5555)
	swX7X6 := encodeSW(7, 6, 0)

	img := make([]byte, 0, 20)
	for _, w := range []uint32{luiX6, addiX6, luiX7, addiX7, swX7X6} {
		img = append(img, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	require.NoError(t, c.LoadImageAt(base, img))

	for i := 0; i < 200 && !c.Halted(); i++ {
		c.Step()
	}
	require.True(t, c.Halted())
}
