package isa

// Instruction is the decoder's output record: the data the remaining
// pipeline stages need, with raw bitfields already resolved.
type Instruction struct {
	Raw   uint32
	PC    VirtAddr
	Size  uint8 // 2 (compressed) or 4
	Op    Mnemonic
	Rd    uint32
	Rs1   uint32
	Rs2   uint32
	Rs3   uint32 // fused multiply-add only
	Imm   int64
	Funct3 uint8
	Funct7 uint8
	Width FPWidth
	RM    uint8 // rounding mode field (funct3 on FP ops), 7 = dynamic
	AQ    bool
	RL    bool
}

func signExtend(v uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(v<<shift)) >> shift
}

// Decode decodes one 32-bit RV64 instruction word.
func Decode(raw uint32, pc VirtAddr) Instruction {
	op := raw & 0x7F
	rd := (raw >> 7) & 0x1F
	funct3 := uint8((raw >> 12) & 0x7)
	rs1 := (raw >> 15) & 0x1F
	rs2 := (raw >> 20) & 0x1F
	funct7 := uint8((raw >> 25) & 0x7F)

	inst := Instruction{Raw: raw, PC: pc, Size: 4, Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3, Funct7: funct7}

	switch op {
	case 0x37: // LUI
		inst.Op = OpLUI
		inst.Imm = int64(int32(raw & 0xFFFFF000))
	case 0x17: // AUIPC
		inst.Op = OpAUIPC
		inst.Imm = int64(int32(raw & 0xFFFFF000))
	case 0x6F: // JAL
		inst.Op = OpJAL
		imm := (raw>>31&1)<<20 | (raw>>21&0x3FF)<<1 | (raw>>20&1)<<11 | (raw>>12&0xFF)<<12
		inst.Imm = signExtend(imm, 21)
	case 0x67: // JALR
		inst.Op = OpJALR
		inst.Imm = signExtend(raw>>20, 12)
	case 0x63: // branches
		imm := (raw>>31&1)<<12 | (raw>>7&1)<<11 | (raw>>25&0x3F)<<5 | (raw>>8&0xF)<<1
		inst.Imm = signExtend(imm, 13)
		switch funct3 {
		case 0:
			inst.Op = OpBEQ
		case 1:
			inst.Op = OpBNE
		case 4:
			inst.Op = OpBLT
		case 5:
			inst.Op = OpBGE
		case 6:
			inst.Op = OpBLTU
		case 7:
			inst.Op = OpBGEU
		}
	case 0x03: // loads
		inst.Imm = signExtend(raw>>20, 12)
		switch funct3 {
		case 0:
			inst.Op = OpLB
		case 1:
			inst.Op = OpLH
		case 2:
			inst.Op = OpLW
		case 3:
			inst.Op = OpLD
		case 4:
			inst.Op = OpLBU
		case 5:
			inst.Op = OpLHU
		case 6:
			inst.Op = OpLWU
		}
	case 0x23: // stores
		imm := (raw>>25&0x7F)<<5 | (raw>>7&0x1F)
		inst.Imm = signExtend(imm, 12)
		switch funct3 {
		case 0:
			inst.Op = OpSB
		case 1:
			inst.Op = OpSH
		case 2:
			inst.Op = OpSW
		case 3:
			inst.Op = OpSD
		}
	case 0x13: // OP-IMM
		inst.Imm = signExtend(raw>>20, 12)
		switch funct3 {
		case 0:
			inst.Op = OpADDI
		case 2:
			inst.Op = OpSLTI
		case 3:
			inst.Op = OpSLTIU
		case 4:
			inst.Op = OpXORI
		case 6:
			inst.Op = OpORI
		case 7:
			inst.Op = OpANDI
		case 1:
			inst.Op = OpSLLI
			inst.Imm = int64((raw >> 20) & 0x3F)
		case 5:
			inst.Imm = int64((raw >> 20) & 0x3F)
			if funct7&0x20 != 0 {
				inst.Op = OpSRAI
			} else {
				inst.Op = OpSRLI
			}
		}
	case 0x1B: // OP-IMM-32
		inst.Imm = signExtend(raw>>20, 12)
		switch funct3 {
		case 0:
			inst.Op = OpADDIW
		case 1:
			inst.Op = OpSLLIW
			inst.Imm = int64(rs2)
		case 5:
			inst.Imm = int64(rs2 & 0x1F)
			if funct7&0x20 != 0 {
				inst.Op = OpSRAIW
			} else {
				inst.Op = OpSRLIW
			}
		}
	case 0x33: // OP
		inst.Op = decodeOP(funct3, funct7)
	case 0x3B: // OP-32
		inst.Op = decodeOP32(funct3, funct7)
	case 0x0F:
		if funct3 == 0 {
			inst.Op = OpFENCE
		} else {
			inst.Op = OpFENCEI
		}
	case 0x73: // SYSTEM
		decodeSystem(&inst, raw, funct3)
	case 0x2F: // AMO
		decodeAMO(&inst, raw, funct3, funct7)
	case 0x07: // FLW/FLD
		inst.Imm = signExtend(raw>>20, 12)
		if funct3 == 2 {
			inst.Op = OpFLW
			inst.Width = FPWidthSingle
		} else {
			inst.Op = OpFLD
			inst.Width = FPWidthDouble
		}
	case 0x27: // FSW/FSD
		imm := (raw>>25&0x7F)<<5 | (raw>>7&0x1F)
		inst.Imm = signExtend(imm, 12)
		if funct3 == 2 {
			inst.Op = OpFSW
			inst.Width = FPWidthSingle
		} else {
			inst.Op = OpFSD
			inst.Width = FPWidthDouble
		}
	case 0x43, 0x47, 0x4B, 0x4F: // FMADD/FMSUB/FNMSUB/FNMADD
		inst.Rs3 = (raw >> 27) & 0x1F
		inst.RM = funct3
		inst.Width = fpWidthFromFmt((raw >> 25) & 0x3)
		switch op {
		case 0x43:
			inst.Op = OpFMADD
		case 0x47:
			inst.Op = OpFMSUB
		case 0x4B:
			inst.Op = OpFNMSUB
		case 0x4F:
			inst.Op = OpFNMADD
		}
	case 0x53: // OP-FP
		decodeOPFP(&inst, raw, funct7)
	default:
		inst.Op = OpIllegal
	}
	return inst
}

func fpWidthFromFmt(fmt uint32) FPWidth {
	if fmt == 1 {
		return FPWidthDouble
	}
	return FPWidthSingle
}

func decodeOP(funct3, funct7 uint8) Mnemonic {
	switch {
	case funct7 == 0x01:
		switch funct3 {
		case 0:
			return OpMUL
		case 1:
			return OpMULH
		case 2:
			return OpMULHSU
		case 3:
			return OpMULHU
		case 4:
			return OpDIV
		case 5:
			return OpDIVU
		case 6:
			return OpREM
		case 7:
			return OpREMU
		}
	case funct3 == 0:
		if funct7&0x20 != 0 {
			return OpSUB
		}
		return OpADD
	case funct3 == 1:
		return OpSLL
	case funct3 == 2:
		return OpSLT
	case funct3 == 3:
		return OpSLTU
	case funct3 == 4:
		return OpXOR
	case funct3 == 5:
		if funct7&0x20 != 0 {
			return OpSRA
		}
		return OpSRL
	case funct3 == 6:
		return OpOR
	case funct3 == 7:
		return OpAND
	}
	return OpIllegal
}

func decodeOP32(funct3, funct7 uint8) Mnemonic {
	switch {
	case funct7 == 0x01:
		switch funct3 {
		case 0:
			return OpMULW
		case 4:
			return OpDIVW
		case 5:
			return OpDIVUW
		case 6:
			return OpREMW
		case 7:
			return OpREMUW
		}
	case funct3 == 0:
		if funct7&0x20 != 0 {
			return OpSUBW
		}
		return OpADDW
	case funct3 == 1:
		return OpSLLW
	case funct3 == 5:
		if funct7&0x20 != 0 {
			return OpSRAW
		}
		return OpSRLW
	}
	return OpIllegal
}

func decodeSystem(inst *Instruction, raw uint32, funct3 uint8) {
	switch funct3 {
	case 0:
		imm12 := raw >> 20
		switch {
		case imm12 == 0:
			inst.Op = OpECALL
		case imm12 == 1:
			inst.Op = OpEBREAK
		case imm12 == 0x302:
			inst.Op = OpMRET
		case imm12 == 0x102:
			inst.Op = OpSRET
		case imm12 == 0x105:
			inst.Op = OpWFI
		case imm12>>5 == 0x9:
			inst.Op = OpSFENCEVMA
		default:
			inst.Op = OpIllegal
		}
	case 1:
		inst.Op = OpCSRRW
		inst.Imm = int64(raw >> 20)
	case 2:
		inst.Op = OpCSRRS
		inst.Imm = int64(raw >> 20)
	case 3:
		inst.Op = OpCSRRC
		inst.Imm = int64(raw >> 20)
	case 5:
		inst.Op = OpCSRRWI
		inst.Imm = int64(raw >> 20)
	case 6:
		inst.Op = OpCSRRSI
		inst.Imm = int64(raw >> 20)
	case 7:
		inst.Op = OpCSRRCI
		inst.Imm = int64(raw >> 20)
	default:
		inst.Op = OpIllegal
	}
}

func decodeAMO(inst *Instruction, raw uint32, funct3 uint8, funct7 uint8) {
	inst.AQ = funct7&0x2 != 0
	inst.RL = funct7&0x1 != 0
	top5 := funct7 >> 2
	is64 := funct3 == 3
	table32 := map[uint8]Mnemonic{
		0x02: OpLRW, 0x03: OpSCW, 0x01: OpAMOSWAPW, 0x00: OpAMOADDW,
		0x04: OpAMOXORW, 0x0C: OpAMOANDW, 0x08: OpAMOORW, 0x10: OpAMOMINW,
		0x14: OpAMOMAXW, 0x18: OpAMOMINUW, 0x1C: OpAMOMAXUW,
	}
	table64 := map[uint8]Mnemonic{
		0x02: OpLRD, 0x03: OpSCD, 0x01: OpAMOSWAPD, 0x00: OpAMOADDD,
		0x04: OpAMOXORD, 0x0C: OpAMOANDD, 0x08: OpAMOORD, 0x10: OpAMOMIND,
		0x14: OpAMOMAXD, 0x18: OpAMOMINUD, 0x1C: OpAMOMAXUD,
	}
	if is64 {
		inst.Op = table64[top5]
	} else {
		inst.Op = table32[top5]
	}
	if inst.Op == 0 {
		inst.Op = OpIllegal
	}
}

func decodeOPFP(inst *Instruction, raw uint32, funct7 uint8) {
	funct3 := uint8((raw >> 12) & 0x7)
	rs2 := (raw >> 20) & 0x1F
	inst.RM = funct3
	fmtBits := funct7 & 0x3
	inst.Width = fpWidthFromFmt(uint32(fmtBits))
	switch funct7 >> 2 {
	case 0x00:
		inst.Op = OpFADD
	case 0x01:
		inst.Op = OpFSUB
	case 0x02:
		inst.Op = OpFMUL
	case 0x03:
		inst.Op = OpFDIV
	case 0x0B:
		inst.Op = OpFSQRT
	case 0x04:
		switch funct3 {
		case 0:
			inst.Op = OpFSGNJ
		case 1:
			inst.Op = OpFSGNJN
		case 2:
			inst.Op = OpFSGNJX
		}
	case 0x05:
		if funct3 == 0 {
			inst.Op = OpFMIN
		} else {
			inst.Op = OpFMAX
		}
	case 0x08:
		if rs2 == 1 {
			inst.Op = OpFCVTSfromD
		} else {
			inst.Op = OpFCVTDfromS
		}
	case 0x14:
		switch funct3 {
		case 0:
			inst.Op = OpFLE
		case 1:
			inst.Op = OpFLT
		case 2:
			inst.Op = OpFEQ
		}
	case 0x1C:
		if funct3 == 0 {
			inst.Op = OpFMVXfromF
		} else {
			inst.Op = OpFCLASS
		}
	case 0x1E:
		inst.Op = OpFMVFfromX
	case 0x18:
		switch rs2 {
		case 0:
			inst.Op = OpFCVTWfromF
		case 1:
			inst.Op = OpFCVTWUfromF
		case 2:
			inst.Op = OpFCVTLfromF
		case 3:
			inst.Op = OpFCVTLUfromF
		}
	case 0x1A:
		switch rs2 {
		case 0:
			inst.Op = OpFCVTFfromW
		case 1:
			inst.Op = OpFCVTFfromWU
		case 2:
			inst.Op = OpFCVTFfromL
		case 3:
			inst.Op = OpFCVTFfromLU
		}
	default:
		inst.Op = OpIllegal
	}
}
