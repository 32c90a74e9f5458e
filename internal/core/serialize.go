package core

import (
	"encoding/binary"
	"errors"

	"github.com/rv64pipe/sim/internal/isa"
	"github.com/rv64pipe/sim/internal/pipeline"
)

// cpuSerializeVersion is incremented whenever the binary layout changes.
const cpuSerializeVersion = 1

// cpuSerializeSize is the number of bytes produced by Serialize: version
// byte, 32 GPRs + 32 FPRs (8 bytes each), PC, the privilege mode byte, and
// 24 uint64 values: 17 CSR fields, the halted flag, the exit code, and the
// five run counters needed to resume deterministically. In-flight pipeline latches are not captured — restoring
// a snapshot always resumes with an empty pipeline, which is architecturally
// equivalent to a one-time stall on the next instruction.
const cpuSerializeSize = 1 + 32*8 + 32*8 + 8 + 1 + 21*8 + 3*8

// SerializeSize returns the number of bytes needed for Serialize.
func (c *CPU) SerializeSize() int { return cpuSerializeSize }

// Serialize writes the full architectural CPU state into buf, which must be
// at least SerializeSize() bytes. Bus/cache/predictor state is not included:
// re-running from a snapshot starts those with cold state, same as a fresh
// boot reusing the same configuration.
func (c *CPU) Serialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("core: serialize buffer too small")
	}
	buf[0] = cpuSerializeVersion
	be := binary.BigEndian
	off := 1

	for i := uint32(0); i < 32; i++ {
		be.PutUint64(buf[off:], c.gpr.Get(i))
		off += 8
	}
	for i := uint32(0); i < 32; i++ {
		be.PutUint64(buf[off:], c.fpr.GetDouble(i))
		off += 8
	}

	be.PutUint64(buf[off:], c.pc)
	off += 8

	buf[off] = byte(c.priv.priv)
	off++

	for _, v := range []uint64{
		c.priv.mstatus, c.priv.mie, c.priv.mip, c.priv.mtvec, c.priv.mepc,
		c.priv.mcause, c.priv.mtval, c.priv.mscratch, c.priv.medeleg, c.priv.mideleg,
		c.priv.stvec, c.priv.sepc, c.priv.scause, c.priv.stval, c.priv.sscratch,
		c.priv.satp, c.priv.fcsr,
		c.stats.Cycles, c.stats.InstructionsRetired, c.stats.TrapsTaken,
		boolU64(c.halted),
	} {
		be.PutUint64(buf[off:], v)
		off += 8
	}

	be.PutUint64(buf[off:], uint64(c.exitCode))
	off += 8
	be.PutUint64(buf[off:], c.stats.LoadUseStalls)
	off += 8
	be.PutUint64(buf[off:], c.stats.BranchMispredicts)
	return nil
}

// Deserialize restores architectural CPU state from buf, which must be at
// least SerializeSize() bytes and have been produced by Serialize at a
// matching version. The pipeline latches are reset to empty.
func (c *CPU) Deserialize(buf []byte) error {
	if len(buf) < cpuSerializeSize {
		return errors.New("core: deserialize buffer too small")
	}
	if buf[0] != cpuSerializeVersion {
		return errors.New("core: unsupported serialize version")
	}
	be := binary.BigEndian
	off := 1

	for i := uint32(0); i < 32; i++ {
		c.gpr.Set(i, be.Uint64(buf[off:]))
		off += 8
	}
	for i := uint32(0); i < 32; i++ {
		c.fpr.SetDouble(i, be.Uint64(buf[off:]))
		off += 8
	}

	c.pc = be.Uint64(buf[off:])
	off += 8

	c.priv.priv = isa.PrivilegeMode(buf[off])
	off++

	fields := []*uint64{
		&c.priv.mstatus, &c.priv.mie, &c.priv.mip, &c.priv.mtvec, &c.priv.mepc,
		&c.priv.mcause, &c.priv.mtval, &c.priv.mscratch, &c.priv.medeleg, &c.priv.mideleg,
		&c.priv.stvec, &c.priv.sepc, &c.priv.scause, &c.priv.stval, &c.priv.sscratch,
		&c.priv.satp, &c.priv.fcsr,
		&c.stats.Cycles, &c.stats.InstructionsRetired, &c.stats.TrapsTaken,
	}
	for _, f := range fields {
		*f = be.Uint64(buf[off:])
		off += 8
	}
	c.halted = be.Uint64(buf[off:]) != 0
	off += 8

	c.exitCode = int(be.Uint64(buf[off:]))
	off += 8
	c.stats.LoadUseStalls = be.Uint64(buf[off:])
	off += 8
	c.stats.BranchMispredicts = be.Uint64(buf[off:])

	c.latches = pipeline.Latches{}
	return nil
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
