// Package alu implements the RV64IM integer arithmetic/logic unit: the
// base-integer and M-extension operations the execute stage dispatches to.
//
// Each operation is a small pure function over two 64-bit operands, in the
// style of the teacher's flags.go helpers (setFlagsAdd/Sub/Cmp): take
// explicit inputs, return an explicit result, touch no hidden state.
package alu

import "github.com/rv64pipe/sim/internal/isa"

// Exec evaluates an integer ALU operation. a and b are the operand values
// (already sign/zero-extended by the caller as appropriate); for shifts b
// is the shift amount.
func Exec(op isa.AluOp, a, b uint64) uint64 {
	switch op {
	case isa.AluAdd:
		return a + b
	case isa.AluSub:
		return a - b
	case isa.AluSLL:
		return a << (b & 0x3F)
	case isa.AluSRL:
		return a >> (b & 0x3F)
	case isa.AluSRA:
		return uint64(int64(a) >> (b & 0x3F))
	case isa.AluSLT:
		if int64(a) < int64(b) {
			return 1
		}
		return 0
	case isa.AluSLTU:
		if a < b {
			return 1
		}
		return 0
	case isa.AluXor:
		return a ^ b
	case isa.AluOr:
		return a | b
	case isa.AluAnd:
		return a & b

	case isa.AluAddW:
		return signExtend32(uint32(a) + uint32(b))
	case isa.AluSubW:
		return signExtend32(uint32(a) - uint32(b))
	case isa.AluSLLW:
		return signExtend32(uint32(a) << (b & 0x1F))
	case isa.AluSRLW:
		return signExtend32(uint32(a) >> (b & 0x1F))
	case isa.AluSRAW:
		return signExtend32(uint32(int32(uint32(a)) >> (b & 0x1F)))

	case isa.AluMul:
		return a * b
	case isa.AluMulH:
		return uint64(mulHSigned(int64(a), int64(b)))
	case isa.AluMulHSU:
		return uint64(mulHSignedUnsigned(int64(a), b))
	case isa.AluMulHU:
		return mulHUnsigned(a, b)
	case isa.AluDiv:
		return divSigned(int64(a), int64(b))
	case isa.AluDivU:
		return divUnsigned(a, b)
	case isa.AluRem:
		return remSigned(int64(a), int64(b))
	case isa.AluRemU:
		return remUnsigned(a, b)

	case isa.AluMulW:
		return signExtend32(uint32(a) * uint32(b))
	case isa.AluDivW:
		return signExtend32(uint32(divSigned(int64(int32(uint32(a))), int64(int32(uint32(b))))))
	case isa.AluDivUW:
		return signExtend32(uint32(divUnsigned(uint64(uint32(a)), uint64(uint32(b)))))
	case isa.AluRemW:
		return signExtend32(uint32(remSigned(int64(int32(uint32(a))), int64(int32(uint32(b))))))
	case isa.AluRemUW:
		return signExtend32(uint32(remUnsigned(uint64(uint32(a)), uint64(uint32(b)))))

	case isa.AluNop:
		return a
	default:
		return 0
	}
}

func signExtend32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

func mulHSigned(a, b int64) int64 {
	hi, _ := bitsMulS64(a, b)
	return hi
}

func mulHUnsigned(a, b uint64) uint64 {
	hi, _ := bitsMulU64(a, b)
	return hi
}

func mulHSignedUnsigned(a int64, b uint64) int64 {
	neg := a < 0
	ua := uint64(a)
	if neg {
		ua = uint64(-a)
	}
	hi, lo := bitsMulU64(ua, b)
	if !neg {
		return int64(hi)
	}
	// negate the 128-bit product
	lo = ^lo + 1
	carry := uint64(0)
	if lo == 0 {
		carry = 1
	}
	hi = ^hi + carry
	return int64(hi)
}

// divSigned implements RISC-V signed division semantics: division by zero
// returns -1, and MinInt64/-1 overflow returns MinInt64 (both without trapping).
func divSigned(a, b int64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	if a == minInt64 && b == -1 {
		return uint64(1) << 63
	}
	return uint64(a / b)
}

func divUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

func remSigned(a, b int64) uint64 {
	if b == 0 {
		return uint64(a)
	}
	if a == minInt64 && b == -1 {
		return 0
	}
	return uint64(a % b)
}

func remUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

const minInt64 = -1 << 63
