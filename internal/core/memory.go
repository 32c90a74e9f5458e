package core

import (
	"github.com/rv64pipe/sim/internal/isa"
	"github.com/rv64pipe/sim/internal/mmu"
)

// effectivePriv returns the privilege mode a data access is checked
// against: mstatus.MPRV redirects loads/stores (never fetches) to run as
// mstatus.MPP while that bit is set.
func (c *CPU) effectivePriv(access isa.AccessType) isa.PrivilegeMode {
	if access != isa.AccessFetch && c.priv.mprv() {
		return c.priv.mpp()
	}
	return c.priv.priv
}

// translate resolves a virtual address through the SV39 walker (via the
// matching TLB), returning a trap instead of a physical address on any
// permission or page-table-format failure.
func (c *CPU) translate(va uint64, access isa.AccessType) (uint64, *isa.Trap) {
	mode, asid, ppn := c.priv.satpFields()
	priv := c.effectivePriv(access)
	if mode == 0 || priv == isa.PrivMachine {
		return va, nil
	}
	satp := mmu.Satp{Mode: mode, ASID: asid, PPN: ppn}

	tlb := c.dtlb
	if access == isa.AccessFetch {
		tlb = c.itlb
	}

	phys, err := mmu.Resolve(tlb, c.ram, satp, isa.VirtAddr(va), access, priv, c.priv.sum(), c.priv.mxr())
	if err != nil {
		fault := err.(mmu.Fault)
		return 0, &isa.Trap{Cause: fault.Cause, Tval: va}
	}
	return uint64(phys), nil
}

// FetchInstruction implements pipeline.Memory: translate, record cache
// timing, then read one or two halfwords depending on whether the first
// halfword signals a compressed instruction.
func (c *CPU) FetchInstruction(pc uint64) (uint32, *isa.Trap) {
	phys, trap := c.translate(pc, isa.AccessFetch)
	if trap != nil {
		return 0, trap
	}
	hit, lat := c.icache.Access(phys, false)
	c.stats.recordICache(hit, lat)

	lo := c.busDev.Read(phys, 2)
	if lo&0x3 != 0x3 {
		return uint32(lo), nil
	}
	hi := c.busDev.Read(phys+2, 2)
	return uint32(lo) | uint32(hi)<<16, nil
}

// ReadData implements pipeline.Memory's data-load path.
func (c *CPU) ReadData(addr uint64, width int) (uint64, *isa.Trap) {
	phys, trap := c.translate(addr, isa.AccessRead)
	if trap != nil {
		return 0, trap
	}
	hit, lat := c.dcache.Access(phys, false)
	c.stats.recordDCache(hit, lat)
	return c.busDev.Read(phys, width), nil
}

// WriteData implements pipeline.Memory's data-store path.
func (c *CPU) WriteData(addr uint64, width int, val uint64) *isa.Trap {
	phys, trap := c.translate(addr, isa.AccessWrite)
	if trap != nil {
		return trap
	}
	hit, lat := c.dcache.Access(phys, true)
	c.stats.recordDCache(hit, lat)
	c.busDev.Write(phys, width, val)
	return nil
}
