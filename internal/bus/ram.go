package bus

import (
	"encoding/binary"
	"fmt"

	"github.com/rv64pipe/sim/internal/isa"
)

// RAM is a flat byte-addressable memory device.
type RAM struct {
	base uint64
	mem  []byte
}

func NewRAM(base uint64, sizeBytes int) *RAM {
	return &RAM{base: base, mem: make([]byte, sizeBytes)}
}

func (r *RAM) Base() uint64 { return r.base }
func (r *RAM) Size() uint64 { return uint64(len(r.mem)) }

func (r *RAM) Read(addr uint64, width int) uint64 {
	off := addr - r.base
	if off+uint64(width) > uint64(len(r.mem)) {
		return 0
	}
	switch width {
	case 1:
		return uint64(r.mem[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(r.mem[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(r.mem[off:]))
	case 8:
		return binary.LittleEndian.Uint64(r.mem[off:])
	default:
		return 0
	}
}

func (r *RAM) Write(addr uint64, width int, val uint64) {
	off := addr - r.base
	if off+uint64(width) > uint64(len(r.mem)) {
		return
	}
	switch width {
	case 1:
		r.mem[off] = byte(val)
	case 2:
		binary.LittleEndian.PutUint16(r.mem[off:], uint16(val))
	case 4:
		binary.LittleEndian.PutUint32(r.mem[off:], uint32(val))
	case 8:
		binary.LittleEndian.PutUint64(r.mem[off:], val)
	}
}

// ReadPTE/WritePTE satisfy mmu.PhysMemory directly against RAM, used when
// the simulator wires the MMU straight to the backing RAM device for
// page-table walks.
func (r *RAM) ReadPTE(addr isa.PhysAddr) uint64 {
	return r.Read(uint64(addr), 8)
}

func (r *RAM) WritePTE(addr isa.PhysAddr, val uint64) {
	r.Write(uint64(addr), 8, val)
}

// LoadAt copies img into the RAM starting at physical address base.
func (r *RAM) LoadAt(base uint64, img []byte) error {
	off := base - r.base
	if off+uint64(len(img)) > uint64(len(r.mem)) {
		return fmt.Errorf("bus: image of %d bytes at 0x%x overflows RAM of %d bytes", len(img), base, len(r.mem))
	}
	copy(r.mem[off:], img)
	return nil
}
