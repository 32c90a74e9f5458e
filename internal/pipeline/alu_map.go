package pipeline

import (
	"math"

	"github.com/rv64pipe/sim/internal/alu"
	"github.com/rv64pipe/sim/internal/isa"
)

func bitsToFloat(v uint64) float64 { return math.Float64frombits(v) }
func floatToBits(f float64) uint64 { return math.Float64bits(f) }

// nanBoxUpper mirrors isa.FPRFile's box: a single-precision value held in a
// 64-bit FP register has its upper 32 bits all set.
const nanBoxUpper = 0xFFFFFFFF00000000

// bitsToFloat32 unboxes a NaN-boxed single-precision register value,
// returning the canonical quiet NaN if it isn't properly boxed.
func bitsToFloat32(v uint64) float32 {
	if v&nanBoxUpper != nanBoxUpper {
		return math.Float32frombits(0x7fc00000)
	}
	return math.Float32frombits(uint32(v))
}

// float32ToBits boxes a single-precision result for storage in a 64-bit FP
// register.
func float32ToBits(f float32) uint64 {
	return nanBoxUpper | uint64(math.Float32bits(f))
}

func aluCompute(op isa.AluOp, a, b uint64) uint64 { return alu.Exec(op, a, b) }

// aluOpFor maps an integer-pipe mnemonic to the ALU operation it needs. LUI
// and AUIPC are handled directly in Execute since they don't fit the
// two-operand shape.
func aluOpFor(op isa.Mnemonic) (isa.AluOp, bool) {
	switch op {
	case isa.OpADDI, isa.OpADD:
		return isa.AluAdd, true
	case isa.OpSUB:
		return isa.AluSub, true
	case isa.OpSLTI, isa.OpSLT:
		return isa.AluSLT, true
	case isa.OpSLTIU, isa.OpSLTU:
		return isa.AluSLTU, true
	case isa.OpXORI, isa.OpXOR:
		return isa.AluXor, true
	case isa.OpORI, isa.OpOR:
		return isa.AluOr, true
	case isa.OpANDI, isa.OpAND:
		return isa.AluAnd, true
	case isa.OpSLLI, isa.OpSLL:
		return isa.AluSLL, true
	case isa.OpSRLI, isa.OpSRL:
		return isa.AluSRL, true
	case isa.OpSRAI, isa.OpSRA:
		return isa.AluSRA, true
	case isa.OpADDIW, isa.OpADDW:
		return isa.AluAddW, true
	case isa.OpSUBW:
		return isa.AluSubW, true
	case isa.OpSLLIW, isa.OpSLLW:
		return isa.AluSLLW, true
	case isa.OpSRLIW, isa.OpSRLW:
		return isa.AluSRLW, true
	case isa.OpSRAIW, isa.OpSRAW:
		return isa.AluSRAW, true
	case isa.OpMUL:
		return isa.AluMul, true
	case isa.OpMULH:
		return isa.AluMulH, true
	case isa.OpMULHSU:
		return isa.AluMulHSU, true
	case isa.OpMULHU:
		return isa.AluMulHU, true
	case isa.OpDIV:
		return isa.AluDiv, true
	case isa.OpDIVU:
		return isa.AluDivU, true
	case isa.OpREM:
		return isa.AluRem, true
	case isa.OpREMU:
		return isa.AluRemU, true
	case isa.OpMULW:
		return isa.AluMulW, true
	case isa.OpDIVW:
		return isa.AluDivW, true
	case isa.OpDIVUW:
		return isa.AluDivUW, true
	case isa.OpREMW:
		return isa.AluRemW, true
	case isa.OpREMUW:
		return isa.AluRemUW, true
	default:
		return isa.AluNop, false
	}
}
