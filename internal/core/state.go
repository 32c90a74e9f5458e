// Package core ties the decode/execute machinery in internal/pipeline to
// architectural state (registers, CSRs, privilege mode), the MMU/cache/bus
// memory system, and a single-hart tick driver: the top-level assembly that
// makes all the leaf packages into a running simulator.
package core

import "github.com/rv64pipe/sim/internal/isa"

// privState holds the privilege mode and every CSR the core implements:
// the machine/supervisor trap registers, satp, and fcsr.
type privState struct {
	priv isa.PrivilegeMode

	mstatus uint64
	mie     uint64
	mip     uint64
	mtvec   uint64
	mepc    uint64
	mcause  uint64
	mtval   uint64
	mscratch uint64
	medeleg uint64
	mideleg uint64

	stvec   uint64
	sepc    uint64
	scause  uint64
	stval   uint64
	sscratch uint64
	satp    uint64

	fcsr uint64 // fflags in bits [4:0], frm in bits [7:5]
}

func (p *privState) sum() bool  { return p.mstatus&isa.MstatusSUM != 0 }
func (p *privState) mxr() bool  { return p.mstatus&isa.MstatusMXR != 0 }
func (p *privState) mprv() bool { return p.mstatus&isa.MstatusMPRV != 0 }

// mpp returns mstatus.MPP, the privilege mode loads/stores are done as when
// mprv is set.
func (p *privState) mpp() isa.PrivilegeMode {
	return isa.PrivilegeMode((p.mstatus & isa.MstatusMPPMask) >> isa.MstatusMPPShift)
}

func (p *privState) satpFields() (mode uint8, asid uint16, ppn uint64) {
	mode = uint8((p.satp >> 60) & 0xF)
	asid = uint16((p.satp >> 44) & 0xFFFF)
	ppn = p.satp & ((1 << 44) - 1)
	return
}
