package mmu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64pipe/sim/internal/isa"
)

type fakeMem struct {
	words map[isa.PhysAddr]uint64
}

func newFakeMem() *fakeMem { return &fakeMem{words: map[isa.PhysAddr]uint64{}} }

func (f *fakeMem) ReadPTE(addr isa.PhysAddr) uint64  { return f.words[addr] }
func (f *fakeMem) WritePTE(addr isa.PhysAddr, v uint64) { f.words[addr] = v }

func TestBareModeIdentityMaps(t *testing.T) {
	mem := newFakeMem()
	e, err := Translate(mem, Satp{Mode: 0}, 0x1000, isa.AccessRead, isa.PrivMachine, false, false)
	require.NoError(t, err)
	require.EqualValues(t, 0x1000>>12, e.PPN)
}

func TestSV39ThreeLevelWalk(t *testing.T) {
	mem := newFakeMem()
	// root table at physical 0x1000
	root := isa.PhysAddr(0x1000)
	// level-1 table at 0x2000, level-0 (leaf 4K) table at 0x3000, data page at 0x4000
	l1 := isa.PhysAddr(0x2000)
	l0 := isa.PhysAddr(0x3000)
	dataPage := uint64(0x4000)

	va := isa.VirtAddr(0x123456000) // arbitrary VA with distinct vpn[2],vpn[1],vpn[0]
	vpn2 := (uint64(va) >> 30) & 0x1FF
	vpn1 := (uint64(va) >> 21) & 0x1FF
	vpn0 := (uint64(va) >> 12) & 0x1FF

	mem.WritePTE(root+isa.PhysAddr(vpn2*8), (uint64(l1)>>12)<<10|pteV)
	mem.WritePTE(l1+isa.PhysAddr(vpn1*8), (uint64(l0)>>12)<<10|pteV)
	mem.WritePTE(l0+isa.PhysAddr(vpn0*8), (dataPage>>12)<<10|pteV|pteR|pteW|pteA|pteD)

	e, err := Translate(mem, Satp{Mode: 8, PPN: uint64(root) >> 12}, va, isa.AccessRead, isa.PrivMachine, false, false)
	require.NoError(t, err)
	require.True(t, e.Readable)
	require.EqualValues(t, dataPage>>12, e.PPN)
}

func TestPermissionDeniedUserOnSupervisorPage(t *testing.T) {
	mem := newFakeMem()
	root := isa.PhysAddr(0x1000)
	mem.WritePTE(root, (uint64(0x40000000)>>12)<<10|pteV|pteR|pteA)
	satp := Satp{Mode: 8, PPN: uint64(root) >> 12}
	va := isa.VirtAddr(0)
	_, err := Translate(mem, satp, va, isa.AccessRead, isa.PrivUser, false, false)
	require.Error(t, err)
}

func TestSupervisorFetchFromUserPageAlwaysDenied(t *testing.T) {
	mem := newFakeMem()
	root := isa.PhysAddr(0x1000)
	mem.WritePTE(root, (uint64(0x40000000)>>12)<<10|pteV|pteX|pteU|pteA)
	satp := Satp{Mode: 8, PPN: uint64(root) >> 12}
	va := isa.VirtAddr(0)

	// SUM set or not, fetch from a U page in S-mode is illegal.
	_, err := Translate(mem, satp, va, isa.AccessFetch, isa.PrivSupervisor, true, false)
	require.Error(t, err)
	_, err = Translate(mem, satp, va, isa.AccessFetch, isa.PrivSupervisor, false, false)
	require.Error(t, err)
}

func TestSupervisorReadFromUserPageNeedsSUM(t *testing.T) {
	mem := newFakeMem()
	root := isa.PhysAddr(0x1000)
	mem.WritePTE(root, (uint64(0x40000000)>>12)<<10|pteV|pteR|pteU|pteA)
	satp := Satp{Mode: 8, PPN: uint64(root) >> 12}
	va := isa.VirtAddr(0)

	_, err := Translate(mem, satp, va, isa.AccessRead, isa.PrivSupervisor, false, false)
	require.Error(t, err)

	e, err := Translate(mem, satp, va, isa.AccessRead, isa.PrivSupervisor, true, false)
	require.NoError(t, err)
	require.True(t, e.Readable)
}

func TestNonCanonicalAddressFaultsBeforeWalk(t *testing.T) {
	mem := newFakeMem()
	satp := Satp{Mode: 8, PPN: 1}
	va := isa.VirtAddr(0x0000_1000_0000_0000) // bit 38 is 0, bit 44 is set: not sign-extended
	_, err := Translate(mem, satp, va, isa.AccessRead, isa.PrivMachine, false, false)
	require.Error(t, err)
	require.EqualValues(t, isa.ExcLoadAccessFault, err.(Fault).Cause)
}

func TestTLBRoundTrip(t *testing.T) {
	tlb := NewTLB(4)
	e := TLBEntry{Valid: true, VPN: 0x1000, PPN: 0x55, Readable: true}
	tlb.Insert(e)
	got, ok := tlb.Lookup(0x1123, 0)
	require.True(t, ok)
	require.EqualValues(t, 0x55, got.PPN)

	tlb.FlushAll()
	_, ok = tlb.Lookup(0x1123, 0)
	require.False(t, ok)
}
