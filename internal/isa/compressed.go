package isa

// Compressed (16-bit, RVC) instruction expansion. Mirrors the teacher's
// opcode-dispatch-table idiom: a 64K-entry array of expander functions,
// populated at init() time by loops that enumerate the "don't care" bits
// of each encoding, rather than one giant hand-written switch.

type expandFunc func(raw uint16) Instruction

var compressedTable [65536]expandFunc

func init() {
	registerCQuadrant0()
	registerCQuadrant1()
	registerCQuadrant2()
}

// ExpandCompressed decodes a 16-bit compressed instruction into its
// equivalent expanded Instruction (Size=2, so the fetch stage still
// advances PC by only 2 bytes).
func ExpandCompressed(raw uint16, pc VirtAddr) Instruction {
	fn := compressedTable[raw]
	var inst Instruction
	if fn == nil {
		inst = Instruction{Op: OpIllegal}
	} else {
		inst = fn(raw)
	}
	inst.Raw = uint32(raw)
	inst.PC = pc
	inst.Size = 2
	return inst
}

func rcReg(field uint16) uint32 { return uint32(field&0x7) + 8 } // 3-bit compressed reg -> x8-x15

func registerFor(mask, pattern uint16, fn expandFunc) {
	for v := uint32(0); v < 65536; v++ {
		if uint16(v)&mask == pattern {
			compressedTable[v] = fn
		}
	}
}

func registerCQuadrant0() {
	// C.ADDI4SPN: 000 nzuimm rd' 00
	registerFor(0xE003, 0x0000, func(raw uint16) Instruction {
		rd := rcReg(raw >> 2)
		nz := (raw>>5&0x1)<<3 | (raw>>6&0x1)<<2 | (raw>>7&0xF)<<6 | (raw>>11&0x3)<<4
		if nz == 0 {
			return Instruction{Op: OpIllegal}
		}
		return Instruction{Op: OpADDI, Rd: rd, Rs1: 2, Imm: int64(nz)}
	})
	// C.LW: 010 uimm rs1' uimm rd' 00
	registerFor(0xE003, 0x4000, func(raw uint16) Instruction {
		rs1 := rcReg(raw >> 7)
		rd := rcReg(raw >> 2)
		uimm := (raw>>6&1)<<2 | (raw>>10&0x7)<<3 | (raw>>5&1)<<6
		return Instruction{Op: OpLW, Rd: rd, Rs1: rs1, Imm: int64(uimm)}
	})
	// C.LD: 011
	registerFor(0xE003, 0x6000, func(raw uint16) Instruction {
		rs1 := rcReg(raw >> 7)
		rd := rcReg(raw >> 2)
		uimm := (raw>>10&0x7)<<3 | (raw>>5&0x3)<<6
		return Instruction{Op: OpLD, Rd: rd, Rs1: rs1, Imm: int64(uimm)}
	})
	// C.SW: 110
	registerFor(0xE003, 0xC000, func(raw uint16) Instruction {
		rs1 := rcReg(raw >> 7)
		rs2 := rcReg(raw >> 2)
		uimm := (raw>>6&1)<<2 | (raw>>10&0x7)<<3 | (raw>>5&1)<<6
		return Instruction{Op: OpSW, Rs1: rs1, Rs2: rs2, Imm: int64(uimm)}
	})
	// C.SD: 111
	registerFor(0xE003, 0xE000, func(raw uint16) Instruction {
		rs1 := rcReg(raw >> 7)
		rs2 := rcReg(raw >> 2)
		uimm := (raw>>10&0x7)<<3 | (raw>>5&0x3)<<6
		return Instruction{Op: OpSD, Rs1: rs1, Rs2: rs2, Imm: int64(uimm)}
	})
}

func cImm6(raw uint16) int64 {
	v := (raw>>12&1)<<5 | (raw >> 2 & 0x1F)
	return signExtend(uint32(v), 6)
}

func registerCQuadrant1() {
	// C.ADDI / C.NOP: 000
	registerFor(0xE003, 0x0001, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		return Instruction{Op: OpADDI, Rd: rd, Rs1: rd, Imm: cImm6(raw)}
	})
	// C.ADDIW: 001 (RV64 only, uses full rd, not rd')
	registerFor(0xE003, 0x2001, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		return Instruction{Op: OpADDIW, Rd: rd, Rs1: rd, Imm: cImm6(raw)}
	})
	// C.LI: 010
	registerFor(0xE003, 0x4001, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		return Instruction{Op: OpADDI, Rd: rd, Rs1: 0, Imm: cImm6(raw)}
	})
	// C.LUI / C.ADDI16SP: 011
	registerFor(0xE003, 0x6001, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		if rd == 2 {
			v := (raw>>12&1)<<9 | (raw>>6&1)<<4 | (raw>>5&1)<<6 | (raw>>3&0x3)<<7 | (raw>>2&1)<<5
			imm := signExtend(uint32(v), 10)
			return Instruction{Op: OpADDI, Rd: 2, Rs1: 2, Imm: imm}
		}
		v := (raw>>12&1)<<17 | (raw>>2&0x1F)<<12
		return Instruction{Op: OpLUI, Rd: rd, Imm: signExtend(uint32(v), 18)}
	})
	// quadrant-1 MISC-ALU group: 100
	registerFor(0xE003, 0x8001, func(raw uint16) Instruction {
		rd := rcReg(raw >> 7)
		funct2 := (raw >> 10) & 0x3
		switch funct2 {
		case 0: // C.SRLI
			shamt := (raw>>12&1)<<5 | (raw >> 2 & 0x1F)
			return Instruction{Op: OpSRLI, Rd: rd, Rs1: rd, Imm: int64(shamt)}
		case 1: // C.SRAI
			shamt := (raw>>12&1)<<5 | (raw >> 2 & 0x1F)
			return Instruction{Op: OpSRAI, Rd: rd, Rs1: rd, Imm: int64(shamt)}
		case 2: // C.ANDI
			return Instruction{Op: OpANDI, Rd: rd, Rs1: rd, Imm: cImm6(raw)}
		case 3:
			rs2 := rcReg(raw >> 2)
			funct1 := (raw >> 12) & 1
			funct2b := (raw >> 5) & 0x3
			if funct1 == 0 {
				switch funct2b {
				case 0:
					return Instruction{Op: OpSUB, Rd: rd, Rs1: rd, Rs2: rs2}
				case 1:
					return Instruction{Op: OpXOR, Rd: rd, Rs1: rd, Rs2: rs2}
				case 2:
					return Instruction{Op: OpOR, Rd: rd, Rs1: rd, Rs2: rs2}
				case 3:
					return Instruction{Op: OpAND, Rd: rd, Rs1: rd, Rs2: rs2}
				}
			} else {
				switch funct2b {
				case 0:
					return Instruction{Op: OpSUBW, Rd: rd, Rs1: rd, Rs2: rs2}
				case 1:
					return Instruction{Op: OpADDW, Rd: rd, Rs1: rd, Rs2: rs2}
				}
			}
		}
		return Instruction{Op: OpIllegal}
	})
	// C.J: 101
	registerFor(0xE003, 0xA001, func(raw uint16) Instruction {
		v := (raw>>12&1)<<11 | (raw>>11&1)<<4 | (raw>>9&0x3)<<8 | (raw>>8&1)<<10 |
			(raw>>7&1)<<6 | (raw>>6&1)<<7 | (raw>>3&0x7)<<1 | (raw>>2&1)<<5
		return Instruction{Op: OpJAL, Rd: 0, Imm: signExtend(uint32(v), 12)}
	})
	// C.BEQZ: 110
	registerFor(0xE003, 0xC001, func(raw uint16) Instruction {
		rs1 := rcReg(raw >> 7)
		v := (raw>>12&1)<<8 | (raw>>10&0x3)<<3 | (raw>>5&0x3)<<6 | (raw>>3&0x3)<<1 | (raw>>2&1)<<5
		return Instruction{Op: OpBEQ, Rs1: rs1, Rs2: 0, Imm: signExtend(uint32(v), 9)}
	})
	// C.BNEZ: 111
	registerFor(0xE003, 0xE001, func(raw uint16) Instruction {
		rs1 := rcReg(raw >> 7)
		v := (raw>>12&1)<<8 | (raw>>10&0x3)<<3 | (raw>>5&0x3)<<6 | (raw>>3&0x3)<<1 | (raw>>2&1)<<5
		return Instruction{Op: OpBNE, Rs1: rs1, Rs2: 0, Imm: signExtend(uint32(v), 9)}
	})
}

func registerCQuadrant2() {
	// C.SLLI: 000
	registerFor(0xE003, 0x0002, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		shamt := (raw>>12&1)<<5 | (raw >> 2 & 0x1F)
		if rd == 0 {
			return Instruction{Op: OpIllegal}
		}
		return Instruction{Op: OpSLLI, Rd: rd, Rs1: rd, Imm: int64(shamt)}
	})
	// C.LWSP: 010
	registerFor(0xE003, 0x4002, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		uimm := (raw>>4&0x7)<<2 | (raw>>12&1)<<5 | (raw>>2&0x3)<<6
		return Instruction{Op: OpLW, Rd: rd, Rs1: 2, Imm: int64(uimm)}
	})
	// C.LDSP: 011
	registerFor(0xE003, 0x6002, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		uimm := (raw>>5&0x3)<<3 | (raw>>12&1)<<5 | (raw>>2&0x7)<<6
		return Instruction{Op: OpLD, Rd: rd, Rs1: 2, Imm: int64(uimm)}
	})
	// C.JR / C.MV / C.EBREAK / C.JALR / C.ADD: 100
	registerFor(0xE003, 0x8002, func(raw uint16) Instruction {
		rd := uint32(raw>>7) & 0x1F
		rs2 := uint32(raw>>2) & 0x1F
		bit12 := (raw >> 12) & 1
		switch {
		case bit12 == 0 && rs2 == 0:
			return Instruction{Op: OpJALR, Rd: 0, Rs1: rd, Imm: 0}
		case bit12 == 0:
			return Instruction{Op: OpADD, Rd: rd, Rs1: 0, Rs2: rs2}
		case bit12 == 1 && rd == 0 && rs2 == 0:
			return Instruction{Op: OpEBREAK}
		case bit12 == 1 && rs2 == 0:
			return Instruction{Op: OpJALR, Rd: 1, Rs1: rd, Imm: 0}
		default:
			return Instruction{Op: OpADD, Rd: rd, Rs1: rd, Rs2: rs2}
		}
	})
	// C.SWSP: 110
	registerFor(0xE003, 0xC002, func(raw uint16) Instruction {
		rs2 := uint32(raw>>2) & 0x1F
		uimm := (raw>>9&0xF)<<2 | (raw>>7&0x3)<<6
		return Instruction{Op: OpSW, Rs1: 2, Rs2: rs2, Imm: int64(uimm)}
	})
	// C.SDSP: 111
	registerFor(0xE003, 0xE002, func(raw uint16) Instruction {
		rs2 := uint32(raw>>2) & 0x1F
		uimm := (raw>>10&0x7)<<3 | (raw>>7&0x7)<<6
		return Instruction{Op: OpSD, Rs1: 2, Rs2: rs2, Imm: int64(uimm)}
	})
}
