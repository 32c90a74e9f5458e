package core

import "github.com/rv64pipe/sim/internal/isa"

// mretEncoding is the raw MRET instruction word (funct12=0x302, rs1=rd=0,
// opcode=SYSTEM), used by BootBareMetal exactly as the reference loader
// uses it: as a one-instruction trampoline that lets the CPU's own
// trap-return path establish the target privilege mode before jumping to
// the real entry point.
const mretEncoding = 0x30200073

// LoadImageAt copies img into physical memory starting at base.
func (c *CPU) LoadImageAt(base uint64, img []byte) error {
	return c.busDev.LoadBinaryAt(base, img)
}

// BootBareMetal sets up a bare-metal (no firmware) boot: it plants a single
// MRET at the RAM base so the CPU's own privilege-restore logic takes over,
// points mepc at the real kernel entry, and passes hart ID / DTB pointer in
// a0/a1 per the RISC-V supervisor boot convention.
func (c *CPU) BootBareMetal(ramBase uint64, kernelImg []byte, kernelOffset, dtbAddr uint64) error {
	if err := c.busDev.LoadBinaryAt(ramBase, []byte{
		byte(mretEncoding), byte(mretEncoding >> 8), byte(mretEncoding >> 16), byte(mretEncoding >> 24),
	}); err != nil {
		return err
	}
	loadAddr := ramBase + kernelOffset
	if err := c.busDev.LoadBinaryAt(loadAddr, kernelImg); err != nil {
		return err
	}
	c.pc = ramBase
	c.priv.priv = isa.PrivMachine
	c.priv.mepc = loadAddr
	c.gpr.Set(10, 0)
	c.gpr.Set(11, dtbAddr)
	return nil
}

// BootWithFirmware sets up an OpenSBI-style boot: firmware at ramBase,
// kernel at a fixed offset, device tree blob at another, entering directly
// in machine mode at the firmware's first instruction.
func (c *CPU) BootWithFirmware(ramBase uint64, firmware, kernel, dtb []byte, kernelOffset, dtbOffset uint64) error {
	if err := c.busDev.LoadBinaryAt(ramBase, firmware); err != nil {
		return err
	}
	if kernel != nil {
		if err := c.busDev.LoadBinaryAt(ramBase+kernelOffset, kernel); err != nil {
			return err
		}
	}
	dtbAddr := ramBase + dtbOffset
	if dtb != nil {
		if err := c.busDev.LoadBinaryAt(dtbAddr, dtb); err != nil {
			return err
		}
	}
	c.pc = ramBase
	c.priv.priv = isa.PrivMachine
	c.gpr.Set(10, 0)
	c.gpr.Set(11, dtbAddr)
	c.gpr.Set(12, 0)
	return nil
}
