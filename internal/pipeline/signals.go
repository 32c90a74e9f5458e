// Package pipeline implements the five in-order pipeline stages, the
// latches between them, and hazard detection + operand forwarding, for a
// configurable-width instruction bundle.
package pipeline

import "github.com/rv64pipe/sim/internal/isa"

// ControlSignals are the stage-driving decisions made by decode and
// consumed by execute/memory/writeback.
type ControlSignals struct {
	RegWrite   bool
	MemRead    bool
	MemWrite   bool
	MemWidth   int
	IsFP       bool
	FPWrite    bool
	IsBranch   bool
	IsJump     bool
	IsSystem   bool
	IsAtomic   bool
	IsCSR      bool
}

// Bundle is one in-flight instruction as it moves through the pipeline
// latches, carrying the decoder's record, control signals, and the values
// produced/consumed at each stage.
type Bundle struct {
	Valid bool
	Inst  isa.Instruction
	Ctrl  ControlSignals

	Rs1Val uint64
	Rs2Val uint64
	Rs3Val uint64 // fused multiply-add's third source

	ALUResult  uint64
	MemAddr    uint64
	MemValue   uint64
	FPResult   uint64
	FPFlags    uint8
	CSROld     uint64

	BranchTaken    bool
	BranchTarget   uint64
	PredictedTaken bool
	PredictedPC    uint64
	Mispredicted   bool

	Trap    *isa.Trap
	NextPC  uint64
}

// Commit records a just-retired instruction's register write so a later
// stage can forward it the same cycle writeback and a dependent read both
// touch the register file.
type Commit struct {
	Valid bool
	IsFP  bool
	Reg   uint32
	Val   uint64
}

// DecodeControl derives ControlSignals from a decoded instruction's
// mnemonic.
func DecodeControl(inst isa.Instruction) ControlSignals {
	var c ControlSignals
	switch inst.Op {
	case isa.OpLB, isa.OpLH, isa.OpLW, isa.OpLD, isa.OpLBU, isa.OpLHU, isa.OpLWU:
		c.RegWrite = true
		c.MemRead = true
	case isa.OpSB, isa.OpSH, isa.OpSW, isa.OpSD:
		c.MemWrite = true
	case isa.OpBEQ, isa.OpBNE, isa.OpBLT, isa.OpBGE, isa.OpBLTU, isa.OpBGEU:
		c.IsBranch = true
	case isa.OpJAL, isa.OpJALR:
		c.IsJump = true
		c.RegWrite = true
	case isa.OpECALL, isa.OpEBREAK, isa.OpMRET, isa.OpSRET, isa.OpWFI, isa.OpFENCE, isa.OpFENCEI, isa.OpSFENCEVMA:
		c.IsSystem = true
	case isa.OpCSRRW, isa.OpCSRRS, isa.OpCSRRC, isa.OpCSRRWI, isa.OpCSRRSI, isa.OpCSRRCI:
		c.IsSystem = true
		c.IsCSR = true
		c.RegWrite = true
	case isa.OpFLW, isa.OpFLD:
		c.MemRead = true
		c.IsFP = true
		c.FPWrite = true
	case isa.OpFSW, isa.OpFSD:
		c.MemWrite = true
		c.IsFP = true
	case isa.OpLRW, isa.OpSCW, isa.OpAMOSWAPW, isa.OpAMOADDW, isa.OpAMOXORW, isa.OpAMOANDW, isa.OpAMOORW,
		isa.OpAMOMINW, isa.OpAMOMAXW, isa.OpAMOMINUW, isa.OpAMOMAXUW,
		isa.OpLRD, isa.OpSCD, isa.OpAMOSWAPD, isa.OpAMOADDD, isa.OpAMOXORD, isa.OpAMOANDD, isa.OpAMOORD,
		isa.OpAMOMIND, isa.OpAMOMAXD, isa.OpAMOMINUD, isa.OpAMOMAXUD:
		c.RegWrite = true
		c.IsAtomic = true
	case isa.OpFADD, isa.OpFSUB, isa.OpFMUL, isa.OpFDIV, isa.OpFSQRT, isa.OpFSGNJ, isa.OpFSGNJN, isa.OpFSGNJX,
		isa.OpFMIN, isa.OpFMAX, isa.OpFMADD, isa.OpFMSUB, isa.OpFNMSUB, isa.OpFNMADD,
		isa.OpFCVTFfromW, isa.OpFCVTFfromWU, isa.OpFCVTFfromL, isa.OpFCVTFfromLU, isa.OpFCVTSfromD, isa.OpFCVTDfromS,
		isa.OpFMVFfromX:
		c.IsFP = true
		c.FPWrite = true
	case isa.OpFCVTWfromF, isa.OpFCVTWUfromF, isa.OpFCVTLfromF, isa.OpFCVTLUfromF, isa.OpFMVXfromF,
		isa.OpFEQ, isa.OpFLT, isa.OpFLE, isa.OpFCLASS:
		c.IsFP = true
		c.RegWrite = true
	case isa.OpLUI, isa.OpAUIPC, isa.OpADDI, isa.OpSLTI, isa.OpSLTIU, isa.OpXORI, isa.OpORI, isa.OpANDI,
		isa.OpSLLI, isa.OpSRLI, isa.OpSRAI, isa.OpADD, isa.OpSUB, isa.OpSLL, isa.OpSLT, isa.OpSLTU,
		isa.OpXOR, isa.OpSRL, isa.OpSRA, isa.OpOR, isa.OpAND,
		isa.OpADDIW, isa.OpSLLIW, isa.OpSRLIW, isa.OpSRAIW, isa.OpADDW, isa.OpSUBW, isa.OpSLLW, isa.OpSRLW, isa.OpSRAW,
		isa.OpMUL, isa.OpMULH, isa.OpMULHSU, isa.OpMULHU, isa.OpDIV, isa.OpDIVU, isa.OpREM, isa.OpREMU,
		isa.OpMULW, isa.OpDIVW, isa.OpDIVUW, isa.OpREMW, isa.OpREMUW:
		c.RegWrite = true
	default:
		// OpIllegal and anything unhandled: no writeback.
	}
	return c
}
