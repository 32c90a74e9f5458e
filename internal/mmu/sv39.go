package mmu

import "github.com/rv64pipe/sim/internal/isa"

const (
	pteV = 1 << 0
	pteR = 1 << 1
	pteW = 1 << 2
	pteX = 1 << 3
	pteU = 1 << 4
	pteG = 1 << 5
	pteA = 1 << 6
	pteD = 1 << 7

	pteSize  = 8
	levels   = 3
	pageBits = 12
)

// PhysMemory is the narrow interface the walker needs: raw 8-byte reads and
// writes for page-table entries (writes only occur to set A/D bits).
type PhysMemory interface {
	ReadPTE(addr isa.PhysAddr) uint64
	WritePTE(addr isa.PhysAddr, val uint64)
}

// Satp mirrors the satp CSR's fields for SV39 (mode=8).
type Satp struct {
	Mode uint8 // 0 = Bare, 8 = SV39
	ASID uint16
	PPN  uint64
}

// Fault is returned by Translate when the walk cannot complete.
type Fault struct {
	Cause uint64 // an isa.Exc*PageFault code, or an isa.Exc*AccessFault code for a non-canonical address
}

func (f Fault) Error() string { return "mmu: translation fault" }

// Translate walks the SV39 page table for va, honoring priv/SUM/MXR. It
// does not consult or update the TLB; callers are expected to check the
// TLB first and Insert the result on a walk.
func Translate(mem PhysMemory, satp Satp, va isa.VirtAddr, access isa.AccessType, priv isa.PrivilegeMode, sum, mxr bool) (TLBEntry, error) {
	if satp.Mode != 8 {
		// Bare mode: identity map.
		return TLBEntry{Valid: true, VPN: uint64(va) &^ ((1 << 12) - 1), PPN: uint64(va) >> 12,
			Level: 0, Readable: true, Writable: true, Executable: true, User: true, Global: true}, nil
	}

	if !isCanonical(va) {
		return TLBEntry{}, accessFaultFor(access)
	}

	vpn := [3]uint64{
		(uint64(va) >> 12) & 0x1FF,
		(uint64(va) >> 21) & 0x1FF,
		(uint64(va) >> 30) & 0x1FF,
	}

	a := satp.PPN << pageBits
	i := levels - 1
	var pte uint64
	var pteAddr isa.PhysAddr

	for {
		pteAddr = isa.PhysAddr(a + vpn[i]*pteSize)
		pte = mem.ReadPTE(pteAddr)

		if pte&pteV == 0 || (pte&pteR == 0 && pte&pteW != 0) {
			return TLBEntry{}, faultFor(access)
		}
		if pte&(pteR|pteX) != 0 {
			break // leaf
		}
		i--
		if i < 0 {
			return TLBEntry{}, faultFor(access)
		}
		ppn := pte >> 10
		a = ppn << pageBits
	}

	// Superpage misalignment check.
	ppnFull := pte >> 10
	if i > 0 {
		lowMask := uint64(1)<<(9*i) - 1
		if ppnFull&lowMask != 0 {
			return TLBEntry{}, faultFor(access)
		}
	}

	if !checkPermission(pte, access, priv, sum, mxr) {
		return TLBEntry{}, faultFor(access)
	}

	// Hardware A/D update (simplified: set directly rather than faulting
	// for software management).
	newPTE := pte
	if pte&pteA == 0 {
		newPTE |= pteA
	}
	if access == isa.AccessWrite && pte&pteD == 0 {
		newPTE |= pteD
	}
	if newPTE != pte {
		mem.WritePTE(pteAddr, newPTE)
		pte = newPTE
	}

	vpnMasked := uint64(va) &^ pageMask(i)
	return TLBEntry{
		Valid:      true,
		VPN:        vpnMasked,
		PPN:        ppnFull,
		Level:      i,
		ASID:       satp.ASID,
		Readable:   pte&pteR != 0,
		Writable:   pte&pteW != 0,
		Executable: pte&pteX != 0,
		User:       pte&pteU != 0,
		Global:     pte&pteG != 0,
		Dirty:      pte&pteD != 0,
	}, nil
}

// isCanonical reports whether va's upper bits above the 39-bit SV39 virtual
// address space are a proper sign-extension of bit 38, as required before a
// walk begins.
func isCanonical(va isa.VirtAddr) bool {
	v := int64(uint64(va) << 25)
	return v>>25 == int64(va)
}

// accessFaultFor reports the raw access fault (not a page fault) raised
// when a virtual address fails the canonicality check before any walk.
func accessFaultFor(access isa.AccessType) error {
	switch access {
	case isa.AccessFetch:
		return Fault{Cause: isa.ExcInstructionAccessFault}
	case isa.AccessWrite:
		return Fault{Cause: isa.ExcStoreAccessFault}
	default:
		return Fault{Cause: isa.ExcLoadAccessFault}
	}
}

func faultFor(access isa.AccessType) error {
	switch access {
	case isa.AccessFetch:
		return Fault{Cause: isa.ExcInstructionPageFault}
	case isa.AccessWrite:
		return Fault{Cause: isa.ExcStorePageFault}
	default:
		return Fault{Cause: isa.ExcLoadPageFault}
	}
}

func checkPermission(pte uint64, access isa.AccessType, priv isa.PrivilegeMode, sum, mxr bool) bool {
	r := pte&pteR != 0
	w := pte&pteW != 0
	x := pte&pteX != 0
	u := pte&pteU != 0

	if priv == isa.PrivUser && !u {
		return false
	}
	if priv == isa.PrivSupervisor && u {
		// Fetching from a U-mode page while in S-mode is always illegal,
		// regardless of SUM: SUM only ever relaxes data accesses.
		if access == isa.AccessFetch || !sum {
			return false
		}
	}

	switch access {
	case isa.AccessFetch:
		return x
	case isa.AccessWrite:
		return w
	default: // read
		if r {
			return true
		}
		return mxr && x
	}
}

// Resolve translates va using the TLB first, falling back to a page-table
// walk and populating the TLB on success.
func Resolve(tlb *TLB, mem PhysMemory, satp Satp, va isa.VirtAddr, access isa.AccessType, priv isa.PrivilegeMode, sum, mxr bool) (isa.PhysAddr, error) {
	if e, ok := tlb.Lookup(va, satp.ASID); ok {
		if !permitEntry(e, access, priv, sum, mxr) {
			return 0, faultFor(access)
		}
		return entryToPhys(e, va), nil
	}
	e, err := Translate(mem, satp, va, access, priv, sum, mxr)
	if err != nil {
		return 0, err
	}
	tlb.Insert(e)
	return entryToPhys(e, va), nil
}

func permitEntry(e TLBEntry, access isa.AccessType, priv isa.PrivilegeMode, sum, mxr bool) bool {
	if priv == isa.PrivUser && !e.User {
		return false
	}
	if priv == isa.PrivSupervisor && e.User {
		if access == isa.AccessFetch || !sum {
			return false
		}
	}
	switch access {
	case isa.AccessFetch:
		return e.Executable
	case isa.AccessWrite:
		return e.Writable
	default:
		return e.Readable || (mxr && e.Executable)
	}
}

func entryToPhys(e TLBEntry, va isa.VirtAddr) isa.PhysAddr {
	mask := pageMask(e.Level)
	return isa.PhysAddr((e.PPN << pageBits & ^mask) | (uint64(va) & mask))
}
