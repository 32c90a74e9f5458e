package core

import "github.com/rv64pipe/sim/internal/isa"

// ReadCSR and WriteCSR implement pipeline.CSRFile: the execute stage's view
// of control/status register state. Unrecognized addresses report !ok,
// which the execute stage turns into an illegal-instruction trap.
func (c *CPU) ReadCSR(addr uint16) (uint64, bool) {
	switch addr {
	case isa.CsrMstatus:
		return c.priv.mstatus, true
	case isa.CsrSstatus:
		return c.priv.mstatus & isa.SstatusMask, true
	case isa.CsrMisa:
		return misaValue, true
	case isa.CsrMedeleg:
		return c.priv.medeleg, true
	case isa.CsrMideleg:
		return c.priv.mideleg, true
	case isa.CsrMie:
		return c.priv.mie, true
	case isa.CsrSie:
		return c.priv.mie & sInterruptMask, true
	case isa.CsrMtvec:
		return c.priv.mtvec, true
	case isa.CsrStvec:
		return c.priv.stvec, true
	case isa.CsrMscratch:
		return c.priv.mscratch, true
	case isa.CsrSscratch:
		return c.priv.sscratch, true
	case isa.CsrMepc:
		return c.priv.mepc, true
	case isa.CsrSepc:
		return c.priv.sepc, true
	case isa.CsrMcause:
		return c.priv.mcause, true
	case isa.CsrScause:
		return c.priv.scause, true
	case isa.CsrMtval:
		return c.priv.mtval, true
	case isa.CsrStval:
		return c.priv.stval, true
	case isa.CsrMip:
		return c.priv.mip, true
	case isa.CsrSip:
		return c.priv.mip & sInterruptMask, true
	case isa.CsrSatp:
		return c.priv.satp, true
	case isa.CsrFflags:
		return c.priv.fcsr & 0x1F, true
	case isa.CsrFrm:
		return (c.priv.fcsr >> 5) & 0x7, true
	case isa.CsrFcsr:
		return c.priv.fcsr & 0xFF, true
	case isa.CsrMcycle, isa.CsrCycle:
		return c.stats.Cycles, true
	case isa.CsrMinstret, isa.CsrInstret:
		return c.stats.InstructionsRetired, true
	case isa.CsrTime:
		return c.clint.MTime(), true
	case isa.CsrMvendorid, isa.CsrMarchid, isa.CsrMimpid, isa.CsrMhartid:
		return 0, true
	default:
		return 0, false
	}
}

func (c *CPU) WriteCSR(addr uint16, val uint64) bool {
	switch addr {
	case isa.CsrMstatus:
		c.priv.mstatus = val
	case isa.CsrSstatus:
		c.priv.mstatus = (c.priv.mstatus &^ isa.SstatusMask) | (val & isa.SstatusMask)
	case isa.CsrMedeleg:
		c.priv.medeleg = val
	case isa.CsrMideleg:
		c.priv.mideleg = val
	case isa.CsrMie:
		c.priv.mie = val
	case isa.CsrSie:
		c.priv.mie = (c.priv.mie &^ sInterruptMask) | (val & sInterruptMask)
	case isa.CsrMtvec:
		c.priv.mtvec = val
	case isa.CsrStvec:
		c.priv.stvec = val
	case isa.CsrMscratch:
		c.priv.mscratch = val
	case isa.CsrSscratch:
		c.priv.sscratch = val
	case isa.CsrMepc:
		c.priv.mepc = val &^ 1
	case isa.CsrSepc:
		c.priv.sepc = val &^ 1
	case isa.CsrMcause:
		c.priv.mcause = val
	case isa.CsrScause:
		c.priv.scause = val
	case isa.CsrMtval:
		c.priv.mtval = val
	case isa.CsrStval:
		c.priv.stval = val
	case isa.CsrMip:
		writable := uint64(isa.MipSSIP | isa.MipSTIP)
		c.priv.mip = (c.priv.mip &^ writable) | (val & writable)
	case isa.CsrSip:
		writable := uint64(isa.MipSSIP)
		c.priv.mip = (c.priv.mip &^ writable) | (val & writable)
	case isa.CsrSatp:
		c.priv.satp = val
		c.itlb.FlushAll()
		c.dtlb.FlushAll()
	case isa.CsrFflags:
		c.priv.fcsr = (c.priv.fcsr &^ 0x1F) | (val & 0x1F)
	case isa.CsrFrm:
		c.priv.fcsr = (c.priv.fcsr &^ (0x7 << 5)) | ((val & 0x7) << 5)
	case isa.CsrFcsr:
		c.priv.fcsr = val & 0xFF
	default:
		return false
	}
	return true
}

func (c *CPU) Priv() isa.PrivilegeMode { return c.priv.priv }

// misaValue advertises RV64IMAFDC: XLEN=64 plus the I/M/A/F/D/C extension
// letters set in the low 26 bits.
const misaValue = uint64(2)<<62 |
	1<<8 /*I*/ | 1<<12 /*M*/ | 1<<0 /*A*/ | 1<<5 /*F*/ | 1<<3 /*D*/ | 1<<2 /*C*/

const sInterruptMask = uint64(isa.MipSEIP | isa.MipSTIP | isa.MipSSIP)
