package core

import "github.com/rv64pipe/sim/internal/isa"

// pendingInterrupt checks whether any enabled interrupt is ready to be
// taken and returns it, applying the standard priority order: an interrupt
// destined for a higher privilege level than the current one is always
// taken; one destined for the current level needs that level's global
// interrupt-enable bit set; within a level, External > Software > Timer.
func (c *CPU) pendingInterrupt() (isa.Trap, bool) {
	pending := c.priv.mip & c.priv.mie
	if pending == 0 {
		return isa.Trap{}, false
	}

	mEnabled := c.priv.priv < isa.PrivMachine || (c.priv.priv == isa.PrivMachine && c.priv.mstatus&isa.MstatusMIE != 0)
	sEnabled := c.priv.priv < isa.PrivSupervisor || (c.priv.priv == isa.PrivSupervisor && c.priv.mstatus&isa.MstatusSIE != 0)

	order := []struct {
		bit   uint64
		irq   uint64
	}{
		{isa.MipMEIP, isa.IrqMachineExternal},
		{isa.MipMSIP, isa.IrqMachineSoftware},
		{isa.MipMTIP, isa.IrqMachineTimer},
		{isa.MipSEIP, isa.IrqSupervisorExternal},
		{isa.MipSSIP, isa.IrqSupervisorSoftware},
		{isa.MipSTIP, isa.IrqSupervisorTimer},
	}
	for _, o := range order {
		if pending&o.bit == 0 {
			continue
		}
		delegated := c.priv.mideleg&o.bit != 0
		if !delegated && mEnabled {
			return isa.Trap{Cause: o.irq, IsInterrupt: true}, true
		}
		if delegated && sEnabled {
			return isa.Trap{Cause: o.irq, IsInterrupt: true}, true
		}
	}
	return isa.Trap{}, false
}

// delegatedToSupervisor reports whether trap should be handled in
// supervisor mode: only possible when currently at U or S, and only when
// the matching medeleg/mideleg bit is set.
func (c *CPU) delegatedToSupervisor(t isa.Trap) bool {
	if c.priv.priv == isa.PrivMachine {
		return false
	}
	if t.IsInterrupt {
		return c.priv.mideleg&(1<<t.Cause) != 0
	}
	return c.priv.medeleg&(1<<t.Cause) != 0
}

// enterTrap performs the four-step trap-entry algorithm against the
// faulting instruction's PC: pick the target privilege level via
// delegation, save the old interrupt-enable/privilege state, record
// cause/epc/tval, and jump to the handler (direct mode: the tvec base).
func (c *CPU) enterTrap(t isa.Trap, pc uint64) {
	c.stats.TrapsTaken++
	toSupervisor := c.delegatedToSupervisor(t)

	if toSupervisor {
		c.priv.sepc = pc
		c.priv.scause = t.EncodedCause()
		c.priv.stval = t.Tval

		spie := c.priv.mstatus&isa.MstatusSIE != 0
		c.priv.mstatus = c.priv.mstatus &^ isa.MstatusSIE
		if spie {
			c.priv.mstatus |= isa.MstatusSPIE
		} else {
			c.priv.mstatus &^= isa.MstatusSPIE
		}
		if c.priv.priv == isa.PrivUser {
			c.priv.mstatus &^= isa.MstatusSPP
		} else {
			c.priv.mstatus |= isa.MstatusSPP
		}
		c.priv.priv = isa.PrivSupervisor
		c.pc = vectoredTarget(c.priv.stvec)
		return
	}

	c.priv.mepc = pc
	c.priv.mcause = t.EncodedCause()
	c.priv.mtval = t.Tval

	mpie := c.priv.mstatus&isa.MstatusMIE != 0
	c.priv.mstatus = c.priv.mstatus &^ isa.MstatusMIE
	if mpie {
		c.priv.mstatus |= isa.MstatusMPIE
	} else {
		c.priv.mstatus &^= isa.MstatusMPIE
	}
	c.priv.mstatus = (c.priv.mstatus &^ isa.MstatusMPPMask) | (uint64(c.priv.priv) << isa.MstatusMPPShift)
	c.priv.priv = isa.PrivMachine
	c.pc = vectoredTarget(c.priv.mtvec)
}

// vectoredTarget resolves tvec to its handler address. Only direct mode is
// implemented: the mode bits are masked off and the base is always used,
// even for interrupts. xtvec's vectored mode (mode bit 1, dispatching
// interrupts to base + 4*cause) is intentionally unsupported.
func vectoredTarget(tvec uint64) uint64 {
	return tvec &^ 0x3
}

// execMRET/execSRET restore the privilege/interrupt-enable state saved at
// trap entry and resume at the saved epc.
func (c *CPU) execMRET() {
	mpie := c.priv.mstatus&isa.MstatusMPIE != 0
	mpp := isa.PrivilegeMode((c.priv.mstatus & isa.MstatusMPPMask) >> isa.MstatusMPPShift)
	if mpie {
		c.priv.mstatus |= isa.MstatusMIE
	} else {
		c.priv.mstatus &^= isa.MstatusMIE
	}
	c.priv.mstatus |= isa.MstatusMPIE
	c.priv.mstatus = (c.priv.mstatus &^ isa.MstatusMPPMask) | (uint64(isa.PrivUser) << isa.MstatusMPPShift)
	c.priv.priv = mpp
	c.pc = c.priv.mepc
}

func (c *CPU) execSRET() {
	spie := c.priv.mstatus&isa.MstatusSPIE != 0
	var spp isa.PrivilegeMode
	if c.priv.mstatus&isa.MstatusSPP != 0 {
		spp = isa.PrivSupervisor
	} else {
		spp = isa.PrivUser
	}
	if spie {
		c.priv.mstatus |= isa.MstatusSIE
	} else {
		c.priv.mstatus &^= isa.MstatusSIE
	}
	c.priv.mstatus |= isa.MstatusSPIE
	c.priv.mstatus &^= isa.MstatusSPP
	c.priv.priv = spp
	c.pc = c.priv.sepc
}
