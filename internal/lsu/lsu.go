// Package lsu implements the load/store unit: sign/zero-extension for
// sub-word loads, and the A-extension atomic memory operations (LR/SC
// reservation tracking plus AMO read-modify-write).
package lsu

import "github.com/rv64pipe/sim/internal/isa"

// ExtendLoad sign- or zero-extends a raw little-endian load value per op.
func ExtendLoad(op isa.Mnemonic, raw uint64) uint64 {
	switch op {
	case isa.OpLB:
		return uint64(int64(int8(raw)))
	case isa.OpLH:
		return uint64(int64(int16(raw)))
	case isa.OpLW:
		return uint64(int64(int32(raw)))
	case isa.OpLD:
		return raw
	case isa.OpLBU:
		return raw & 0xFF
	case isa.OpLHU:
		return raw & 0xFFFF
	case isa.OpLWU:
		return raw & 0xFFFFFFFF
	default:
		return raw
	}
}

// StoreWidth returns the access width in bytes for a store/load mnemonic.
func StoreWidth(op isa.Mnemonic) int {
	switch op {
	case isa.OpSB, isa.OpLB, isa.OpLBU:
		return 1
	case isa.OpSH, isa.OpLH, isa.OpLHU:
		return 2
	case isa.OpSW, isa.OpLW, isa.OpLWU,
		isa.OpLRW, isa.OpSCW, isa.OpAMOSWAPW, isa.OpAMOADDW, isa.OpAMOXORW,
		isa.OpAMOANDW, isa.OpAMOORW, isa.OpAMOMINW, isa.OpAMOMAXW, isa.OpAMOMINUW, isa.OpAMOMAXUW,
		isa.OpFLW, isa.OpFSW:
		return 4
	case isa.OpSD, isa.OpLD,
		isa.OpLRD, isa.OpSCD, isa.OpAMOSWAPD, isa.OpAMOADDD, isa.OpAMOXORD,
		isa.OpAMOANDD, isa.OpAMOORD, isa.OpAMOMIND, isa.OpAMOMAXD, isa.OpAMOMINUD, isa.OpAMOMAXUD,
		isa.OpFLD, isa.OpFSD:
		return 8
	default:
		return 8
	}
}

// Reservation tracks the single outstanding LR/SC reservation set, a
// global-monitor model (simpler than a per-cacheline PA set, but adequate
// for a single-hart in-order pipeline).
type Reservation struct {
	valid bool
	addr  isa.PhysAddr
}

func (r *Reservation) Set(addr isa.PhysAddr) {
	r.valid = true
	r.addr = addr
}

func (r *Reservation) Clear() {
	r.valid = false
}

// Check reports whether addr matches the current reservation, consuming it
// either way (a successful or failing SC always clears the reservation).
func (r *Reservation) Check(addr isa.PhysAddr) bool {
	ok := r.valid && r.addr == addr
	r.valid = false
	return ok
}

// AMO computes the read-modify-write result for an AMO operation given the
// memory's current value and the register operand. Returns the value to
// write back to memory; the value returned to the destination register is
// always the original memory value (handled by the caller).
func AMO(op isa.AtomicOp, is32 bool, mem, reg uint64) uint64 {
	if is32 {
		m := uint32(mem)
		r := uint32(reg)
		return uint64(amo32(op, m, r))
	}
	return amo64(op, mem, reg)
}

func amo32(op isa.AtomicOp, mem, reg uint32) uint32 {
	switch op {
	case isa.AtomicSwap:
		return reg
	case isa.AtomicAdd:
		return mem + reg
	case isa.AtomicXor:
		return mem ^ reg
	case isa.AtomicAnd:
		return mem & reg
	case isa.AtomicOr:
		return mem | reg
	case isa.AtomicMin:
		if int32(mem) < int32(reg) {
			return mem
		}
		return reg
	case isa.AtomicMax:
		if int32(mem) > int32(reg) {
			return mem
		}
		return reg
	case isa.AtomicMinU:
		if mem < reg {
			return mem
		}
		return reg
	case isa.AtomicMaxU:
		if mem > reg {
			return mem
		}
		return reg
	default:
		return mem
	}
}

func amo64(op isa.AtomicOp, mem, reg uint64) uint64 {
	switch op {
	case isa.AtomicSwap:
		return reg
	case isa.AtomicAdd:
		return mem + reg
	case isa.AtomicXor:
		return mem ^ reg
	case isa.AtomicAnd:
		return mem & reg
	case isa.AtomicOr:
		return mem | reg
	case isa.AtomicMin:
		if int64(mem) < int64(reg) {
			return mem
		}
		return reg
	case isa.AtomicMax:
		if int64(mem) > int64(reg) {
			return mem
		}
		return reg
	case isa.AtomicMinU:
		if mem < reg {
			return mem
		}
		return reg
	case isa.AtomicMaxU:
		if mem > reg {
			return mem
		}
		return reg
	default:
		return mem
	}
}

// MnemonicToAtomicOp maps an AMO mnemonic to its AtomicOp and whether it is
// a 32-bit (.W) operation.
func MnemonicToAtomicOp(op isa.Mnemonic) (isa.AtomicOp, bool) {
	switch op {
	case isa.OpLRW:
		return isa.AtomicLR, true
	case isa.OpSCW:
		return isa.AtomicSC, true
	case isa.OpAMOSWAPW:
		return isa.AtomicSwap, true
	case isa.OpAMOADDW:
		return isa.AtomicAdd, true
	case isa.OpAMOXORW:
		return isa.AtomicXor, true
	case isa.OpAMOANDW:
		return isa.AtomicAnd, true
	case isa.OpAMOORW:
		return isa.AtomicOr, true
	case isa.OpAMOMINW:
		return isa.AtomicMin, true
	case isa.OpAMOMAXW:
		return isa.AtomicMax, true
	case isa.OpAMOMINUW:
		return isa.AtomicMinU, true
	case isa.OpAMOMAXUW:
		return isa.AtomicMaxU, true
	case isa.OpLRD:
		return isa.AtomicLR, false
	case isa.OpSCD:
		return isa.AtomicSC, false
	case isa.OpAMOSWAPD:
		return isa.AtomicSwap, false
	case isa.OpAMOADDD:
		return isa.AtomicAdd, false
	case isa.OpAMOXORD:
		return isa.AtomicXor, false
	case isa.OpAMOANDD:
		return isa.AtomicAnd, false
	case isa.OpAMOORD:
		return isa.AtomicOr, false
	case isa.OpAMOMIND:
		return isa.AtomicMin, false
	case isa.OpAMOMAXD:
		return isa.AtomicMax, false
	case isa.OpAMOMINUD:
		return isa.AtomicMinU, false
	case isa.OpAMOMAXUD:
		return isa.AtomicMaxU, false
	default:
		return isa.AtomicNone, false
	}
}
