// Package mmu implements the SV39 page-table walker and the split
// instruction/data TLBs that cache its results.
package mmu

import "github.com/rv64pipe/sim/internal/isa"

// TLBEntry caches one completed virtual-to-physical translation.
type TLBEntry struct {
	Valid    bool
	VPN      uint64 // virtual page number (bits 63:12 of the virtual address, truncated to the entry's level)
	PPN      uint64 // physical page number
	Level    int    // 0 = 4KiB, 1 = 2MiB megapage, 2 = 1GiB gigapage
	ASID     uint16
	Readable bool
	Writable bool
	Executable bool
	User     bool
	Global   bool
	Dirty    bool
}

// TLB is a small fully-associative translation cache.
type TLB struct {
	entries []TLBEntry
	next    int // clock hand for replacement
}

func NewTLB(size int) *TLB {
	return &TLB{entries: make([]TLBEntry, size)}
}

func pageMask(level int) uint64 {
	switch level {
	case 1:
		return (1 << 21) - 1
	case 2:
		return (1 << 30) - 1
	default:
		return (1 << 12) - 1
	}
}

// Lookup searches the TLB for a translation covering va under asid.
func (t *TLB) Lookup(va isa.VirtAddr, asid uint16) (TLBEntry, bool) {
	for _, e := range t.entries {
		if !e.Valid {
			continue
		}
		if !e.Global && e.ASID != asid {
			continue
		}
		mask := pageMask(e.Level)
		if (uint64(va)&^mask)>>12<<12 == e.VPN {
			return e, true
		}
	}
	return TLBEntry{}, false
}

// Insert stores a new translation, evicting via round-robin if full.
func (t *TLB) Insert(e TLBEntry) {
	idx := t.next
	t.entries[idx] = e
	t.next = (t.next + 1) % len(t.entries)
}

// FlushAll invalidates every entry (SFENCE.VMA with no operands).
func (t *TLB) FlushAll() {
	for i := range t.entries {
		t.entries[i] = TLBEntry{}
	}
}

// FlushASID invalidates entries matching a specific (non-global) ASID.
func (t *TLB) FlushASID(asid uint16) {
	for i := range t.entries {
		if t.entries[i].Valid && !t.entries[i].Global && t.entries[i].ASID == asid {
			t.entries[i] = TLBEntry{}
		}
	}
}

// FlushVA invalidates any entry whose range covers va.
func (t *TLB) FlushVA(va isa.VirtAddr) {
	for i := range t.entries {
		e := t.entries[i]
		if !e.Valid {
			continue
		}
		mask := pageMask(e.Level)
		if (uint64(va)&^mask)>>12<<12 == e.VPN {
			t.entries[i] = TLBEntry{}
		}
	}
}
