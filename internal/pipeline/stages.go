package pipeline

import (
	"github.com/rv64pipe/sim/internal/fpu"
	"github.com/rv64pipe/sim/internal/isa"
	"github.com/rv64pipe/sim/internal/lsu"
	"github.com/rv64pipe/sim/internal/predictor"
)

// Memory is the fetch/memory-stage view of the system: instruction fetch
// and data load/store, both of which can fault (translation, alignment, or
// access faults) and hand control to the trap engine instead of completing.
type Memory interface {
	FetchInstruction(pc uint64) (raw uint32, trap *isa.Trap)
	ReadData(addr uint64, width int) (uint64, *isa.Trap)
	WriteData(addr uint64, width int, val uint64) *isa.Trap
}

// CSRFile is the execute-stage view of control/status register state,
// implemented by the core's privileged-state holder.
type CSRFile interface {
	ReadCSR(addr uint16) (uint64, bool)
	WriteCSR(addr uint16, val uint64) bool
	Priv() isa.PrivilegeMode
}

// Fetch reads one instruction (compressed or not) at pc, expands it if
// needed, and consults the branch predictor for a next-PC guess. It does
// not mutate any latch itself; the caller decides whether to commit the
// result or stall.
func Fetch(pc uint64, mem Memory, pred predictor.Predictor) (Bundle, uint64) {
	raw, trap := mem.FetchInstruction(pc)
	if trap != nil {
		return Bundle{Valid: true, Trap: trap, Inst: isa.Instruction{PC: isa.VirtAddr(pc)}}, pc + 4
	}

	var inst isa.Instruction
	if raw&0x3 != 0x3 {
		inst = isa.ExpandCompressed(uint16(raw), isa.VirtAddr(pc))
	} else {
		inst = isa.Decode(raw, isa.VirtAddr(pc))
	}

	nextPC := pc + uint64(inst.Size)
	predictedTaken := false
	predictedTarget := nextPC
	switch inst.Op {
	case isa.OpBEQ, isa.OpBNE, isa.OpBLT, isa.OpBGE, isa.OpBLTU, isa.OpBGEU:
		predictedTaken = pred.PredictBranch(pc)
		if predictedTaken {
			if t, ok := pred.PredictBTB(pc); ok {
				predictedTarget = t
			} else {
				predictedTarget = uint64(int64(pc) + inst.Imm)
			}
		}
	case isa.OpJAL:
		predictedTaken = true
		predictedTarget = uint64(int64(pc) + inst.Imm)
	case isa.OpJALR:
		if inst.Rd == 0 && inst.Rs1 == 1 {
			if t, ok := pred.PredictReturn(); ok {
				predictedTaken = true
				predictedTarget = t
			}
		} else if t, ok := pred.PredictBTB(pc); ok {
			predictedTaken = true
			predictedTarget = t
		}
	}

	b := Bundle{
		Valid:          true,
		Inst:           inst,
		PredictedTaken: predictedTaken,
		PredictedPC:    predictedTarget,
	}
	if predictedTaken {
		return b, predictedTarget
	}
	return b, nextPC
}

// FetchBundle fetches up to width instructions sequentially starting at pc,
// stopping early on a predicted-taken redirect or a fetch fault (which
// truncates the bundle: the instructions after a fault can't be located
// without knowing its size).
func FetchBundle(pc uint64, mem Memory, pred predictor.Predictor, width int) ([]Bundle, uint64) {
	if width < 1 {
		return nil, pc
	}
	bundles := make([]Bundle, 0, width)
	cur := pc
	for len(bundles) < width {
		b, next := Fetch(cur, mem, pred)
		bundles = append(bundles, b)
		cur = next
		if b.Trap != nil || b.PredictedTaken {
			break
		}
	}
	return bundles, cur
}

// Decode derives control signals and reads the source operand register
// file values (pre-forwarding; the execute stage applies forwarding on top
// of these).
func Decode(b Bundle, gpr *isa.GPRFile, fpr *isa.FPRFile) Bundle {
	if !b.Valid || b.Trap != nil {
		return b
	}
	b.Ctrl = DecodeControl(b.Inst)
	if b.Ctrl.IsFP && !isFPDestOnly(b.Inst.Op) {
		b.Rs1Val = fpr.GetDouble(b.Inst.Rs1)
		b.Rs2Val = fpr.GetDouble(b.Inst.Rs2)
	} else {
		b.Rs1Val = gpr.Get(b.Inst.Rs1)
		b.Rs2Val = gpr.Get(b.Inst.Rs2)
	}
	if usesRs3(b.Inst.Op) {
		b.Rs3Val = fpr.GetDouble(b.Inst.Rs3)
	}
	if b.Ctrl.IsCSR {
		if v, ok := gprOrImm(b.Inst); ok {
			b.Rs1Val = v
		}
	}
	return b
}

// DecodeBundle drains ifid into decoded ID/EX records one by one, in
// program order. If a later instruction depends on a register an earlier
// instruction in the same batch writes, decoding stops at the dependent:
// decoded holds everything up to that point, and remainder (the dependent
// onward) is held in IF/ID for the next cycle.
func DecodeBundle(ifid []Bundle, gpr *isa.GPRFile, fpr *isa.FPRFile) (decoded, remainder []Bundle) {
	for i, b := range ifid {
		if b.Valid && b.Trap == nil && dependsOnEarlier(decoded, b.Inst) {
			return decoded, ifid[i:]
		}
		decoded = append(decoded, Decode(b, gpr, fpr))
	}
	return decoded, nil
}

func dependsOnEarlier(decoded []Bundle, inst isa.Instruction) bool {
	for _, e := range decoded {
		rd, isFP, ok := producerInfo(e)
		if ok && readsProducer(inst, rd, isFP) {
			return true
		}
	}
	return false
}

// isFPDestOnly reports whether op's only FP involvement is its destination
// register: its sources are read from the integer file even though it
// writes (or converts into) an FP register. FMV.D.X/FMV.W.X and the
// int-to-float conversions are the only such ops; everything else that
// carries ControlSignals.IsFP reads its rs1/rs2 from the FP file.
func isFPDestOnly(op isa.Mnemonic) bool {
	switch op {
	case isa.OpFMVFfromX, isa.OpFCVTFfromW, isa.OpFCVTFfromWU, isa.OpFCVTFfromL, isa.OpFCVTFfromLU:
		return true
	}
	return false
}

func gprOrImm(inst isa.Instruction) (uint64, bool) {
	switch inst.Op {
	case isa.OpCSRRWI, isa.OpCSRRSI, isa.OpCSRRCI:
		return uint64(inst.Rs1), true
	}
	return 0, false
}

// Execute runs the ALU/FPU/branch-resolution/address-generation logic for
// one bundle. Operand values must already have forwarding applied by the
// caller.
func Execute(b Bundle, csr CSRFile, reservations *lsu.Reservation) Bundle {
	if !b.Valid || b.Trap != nil {
		return b
	}
	inst := b.Inst

	if op, ok := aluOpFor(inst.Op); ok {
		operand2 := b.Rs2Val
		if usesImmediate(inst.Op) {
			operand2 = uint64(inst.Imm)
		}
		operand1 := b.Rs1Val
		if inst.Op == isa.OpLUI {
			operand1 = 0
		}
		if inst.Op == isa.OpAUIPC {
			b.ALUResult = uint64(int64(inst.PC) + inst.Imm)
			return b
		}
		b.ALUResult = aluCompute(op, operand1, operand2)
		return b
	}

	switch inst.Op {
	case isa.OpBEQ, isa.OpBNE, isa.OpBLT, isa.OpBGE, isa.OpBLTU, isa.OpBGEU:
		b.BranchTaken = evalBranch(inst.Op, b.Rs1Val, b.Rs2Val)
		b.BranchTarget = uint64(int64(inst.PC) + inst.Imm)
		b.NextPC = uint64(inst.PC) + uint64(inst.Size)
		if b.BranchTaken {
			b.NextPC = b.BranchTarget
		}
		b.Mispredicted = b.PredictedTaken != b.BranchTaken || (b.BranchTaken && b.PredictedPC != b.BranchTarget)
	case isa.OpJAL:
		b.ALUResult = uint64(inst.PC) + uint64(inst.Size)
		b.BranchTaken = true
		b.NextPC = uint64(int64(inst.PC) + inst.Imm)
		b.Mispredicted = !b.PredictedTaken || b.PredictedPC != b.NextPC
	case isa.OpJALR:
		b.ALUResult = uint64(inst.PC) + uint64(inst.Size)
		b.BranchTaken = true
		b.NextPC = (b.Rs1Val + uint64(inst.Imm)) &^ 1
		b.Mispredicted = !b.PredictedTaken || b.PredictedPC != b.NextPC
	case isa.OpLB, isa.OpLH, isa.OpLW, isa.OpLD, isa.OpLBU, isa.OpLHU, isa.OpLWU,
		isa.OpSB, isa.OpSH, isa.OpSW, isa.OpSD, isa.OpFLW, isa.OpFLD, isa.OpFSW, isa.OpFSD:
		b.MemAddr = b.Rs1Val + uint64(inst.Imm)
		b.MemValue = b.Rs2Val
	case isa.OpLRW, isa.OpSCW, isa.OpAMOSWAPW, isa.OpAMOADDW, isa.OpAMOXORW, isa.OpAMOANDW, isa.OpAMOORW,
		isa.OpAMOMINW, isa.OpAMOMAXW, isa.OpAMOMINUW, isa.OpAMOMAXUW,
		isa.OpLRD, isa.OpSCD, isa.OpAMOSWAPD, isa.OpAMOADDD, isa.OpAMOXORD, isa.OpAMOANDD, isa.OpAMOORD,
		isa.OpAMOMIND, isa.OpAMOMAXD, isa.OpAMOMINUD, isa.OpAMOMAXUD:
		b.MemAddr = b.Rs1Val
		b.MemValue = b.Rs2Val
	case isa.OpCSRRW, isa.OpCSRRS, isa.OpCSRRC, isa.OpCSRRWI, isa.OpCSRRSI, isa.OpCSRRCI:
		executeCSR(&b, csr)
	case isa.OpFADD:
		execFP2(&b, fpu.AddD, fpu.AddS)
	case isa.OpFSUB:
		execFP2(&b, fpu.SubD, fpu.SubS)
	case isa.OpFMUL:
		execFP2(&b, fpu.MulD, fpu.MulS)
	case isa.OpFDIV:
		execFP2(&b, fpu.DivD, fpu.DivS)
	case isa.OpFMIN:
		execFP2(&b, fpu.MinD, fpu.MinS)
	case isa.OpFMAX:
		execFP2(&b, fpu.MaxD, fpu.MaxS)
	case isa.OpFMADD, isa.OpFMSUB, isa.OpFNMSUB, isa.OpFNMADD:
		execFMA(&b)
	case isa.OpFSQRT:
		if b.Inst.Width == isa.FPWidthSingle {
			r, f := fpu.SqrtS(bitsToFloat32(b.Rs1Val))
			b.FPResult, b.FPFlags = float32ToBits(r), uint8(f)
		} else {
			r, f := fpu.SqrtD(fromBits(b.Rs1Val))
			b.FPResult, b.FPFlags = toBits(r), uint8(f)
		}
	case isa.OpFEQ:
		eq, f := execFPCompare(&b, fpu.EqD, fpu.EqS)
		b.ALUResult, b.FPFlags = b2u(eq), uint8(f)
	case isa.OpFLT:
		lt, f := execFPCompare(&b, fpu.LtD, fpu.LtS)
		b.ALUResult, b.FPFlags = b2u(lt), uint8(f)
	case isa.OpFLE:
		le, f := execFPCompare(&b, fpu.LeD, fpu.LeS)
		b.ALUResult, b.FPFlags = b2u(le), uint8(f)
	case isa.OpFCLASS:
		if b.Inst.Width == isa.FPWidthSingle {
			b.ALUResult = fpu.ClassS(bitsToFloat32(b.Rs1Val))
		} else {
			b.ALUResult = fpu.ClassD(fromBits(b.Rs1Val))
		}
	case isa.OpFSGNJ:
		b.FPResult = execSgnj(&b, fpu.SgnjD, fpu.SgnjS)
	case isa.OpFSGNJN:
		b.FPResult = execSgnj(&b, fpu.SgnjnD, fpu.SgnjnS)
	case isa.OpFSGNJX:
		b.FPResult = execSgnj(&b, fpu.SgnjxD, fpu.SgnjxS)
	case isa.OpFMVXfromF:
		b.ALUResult = b.Rs1Val
	case isa.OpFMVFfromX:
		b.FPResult = b.Rs1Val
	case isa.OpECALL:
		cause := uint64(isa.ExcEnvCallFromU)
		switch csr.Priv() {
		case isa.PrivSupervisor:
			cause = isa.ExcEnvCallFromS
		case isa.PrivMachine:
			cause = isa.ExcEnvCallFromM
		}
		b.Trap = &isa.Trap{Cause: cause}
	case isa.OpEBREAK:
		b.Trap = &isa.Trap{Cause: isa.ExcBreakpoint}
	}
	return b
}

// ExecuteBundle runs Execute across a whole ID/EX bundle in program order,
// applying the five-level forwarding priority (register file, a same-tick
// writeback commit, EX/MEM, fresh MEM/WB, and intra-bundle results already
// computed earlier in this same call) before each instruction executes. A
// mispredicted control-flow instruction truncates the bundle: anything
// after it was fetched down the wrong path and must never reach memory.
func ExecuteBundle(idex []Bundle, csr CSRFile, reservations *lsu.Reservation, exmem, memwb []Bundle, commits []Commit) []Bundle {
	out := make([]Bundle, 0, len(idex))
	for _, b := range idex {
		if b.Valid && b.Trap == nil {
			fpSrc := isFPOperand(b)
			b.Rs1Val, _ = ForwardOperand(b.Inst.Rs1, fpSrc, b.Rs1Val, out, exmem, memwb, commits)
			b.Rs2Val, _ = ForwardOperand(b.Inst.Rs2, fpSrc, b.Rs2Val, out, exmem, memwb, commits)
			if usesRs3(b.Inst.Op) {
				b.Rs3Val, _ = ForwardOperand(b.Inst.Rs3, true, b.Rs3Val, out, exmem, memwb, commits)
			}
		}
		b = Execute(b, csr, reservations)
		out = append(out, b)
		if b.Valid && b.Trap == nil && isControlFlowOp(b.Inst.Op) && b.Mispredicted {
			break
		}
	}
	return out
}

func isFPOperand(b Bundle) bool {
	return b.Ctrl.IsFP && !isFPDestOnly(b.Inst.Op)
}

func isControlFlowOp(op isa.Mnemonic) bool {
	switch op {
	case isa.OpBEQ, isa.OpBNE, isa.OpBLT, isa.OpBGE, isa.OpBLTU, isa.OpBGEU, isa.OpJAL, isa.OpJALR:
		return true
	}
	return false
}

// execFP2 dispatches a two-operand FP op on inst.Width, unboxing/reboxing
// through the single-precision helpers when the instruction is the .S
// variant instead of reinterpreting its NaN-boxed bits as a raw double.
func execFP2(b *Bundle, d func(a, bb float64) (float64, fpu.Flags), s func(a, bb float32) (float32, fpu.Flags)) {
	if b.Inst.Width == isa.FPWidthSingle {
		r, f := s(bitsToFloat32(b.Rs1Val), bitsToFloat32(b.Rs2Val))
		b.FPResult, b.FPFlags = float32ToBits(r), uint8(f)
		return
	}
	r, f := d(fromBits(b.Rs1Val), fromBits(b.Rs2Val))
	b.FPResult, b.FPFlags = toBits(r), uint8(f)
}

func execFPCompare(b *Bundle, d func(a, bb float64) (bool, fpu.Flags), s func(a, bb float32) (bool, fpu.Flags)) (bool, fpu.Flags) {
	if b.Inst.Width == isa.FPWidthSingle {
		return s(bitsToFloat32(b.Rs1Val), bitsToFloat32(b.Rs2Val))
	}
	return d(fromBits(b.Rs1Val), fromBits(b.Rs2Val))
}

func execSgnj(b *Bundle, d func(a, bb float64) float64, s func(a, bb float32) float32) uint64 {
	if b.Inst.Width == isa.FPWidthSingle {
		return float32ToBits(s(bitsToFloat32(b.Rs1Val), bitsToFloat32(b.Rs2Val)))
	}
	return toBits(d(fromBits(b.Rs1Val), fromBits(b.Rs2Val)))
}

// execFMA computes the fused multiply-add family: FMADD = a*b+c, FMSUB =
// a*b-c, FNMSUB = -(a*b-c), FNMADD = -(a*b+c), each as a single rounding.
func execFMA(b *Bundle) {
	negA := b.Inst.Op == isa.OpFNMSUB || b.Inst.Op == isa.OpFNMADD
	negC := b.Inst.Op == isa.OpFMSUB || b.Inst.Op == isa.OpFNMADD
	if b.Inst.Width == isa.FPWidthSingle {
		a := bitsToFloat32(b.Rs1Val)
		bb := bitsToFloat32(b.Rs2Val)
		c := bitsToFloat32(b.Rs3Val)
		if negA {
			a = -a
		}
		if negC {
			c = -c
		}
		r, f := fpu.FmaS(a, bb, c)
		b.FPResult, b.FPFlags = float32ToBits(r), uint8(f)
		return
	}
	a := fromBits(b.Rs1Val)
	bb := fromBits(b.Rs2Val)
	c := fromBits(b.Rs3Val)
	if negA {
		a = -a
	}
	if negC {
		c = -c
	}
	r, f := fpu.FmaD(a, bb, c)
	b.FPResult, b.FPFlags = toBits(r), uint8(f)
}

func fromBits(v uint64) float64 { return bitsToFloat(v) }
func toBits(f float64) uint64   { return floatToBits(f) }

func b2u(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

func executeCSR(b *Bundle, csr CSRFile) {
	addr := uint16(b.Inst.Imm)
	old, ok := csr.ReadCSR(addr)
	if !ok {
		b.Trap = &isa.Trap{Cause: isa.ExcIllegalInstruction}
		return
	}
	b.CSROld = old
	var newVal uint64
	switch b.Inst.Op {
	case isa.OpCSRRW, isa.OpCSRRWI:
		newVal = b.Rs1Val
	case isa.OpCSRRS, isa.OpCSRRSI:
		newVal = old | b.Rs1Val
	case isa.OpCSRRC, isa.OpCSRRCI:
		newVal = old &^ b.Rs1Val
	}
	// CSRRS/CSRRC (and their immediate forms) skip the write entirely when
	// rs1/uimm is x0/zero; CSRRW(I) always writes.
	writesCSR := b.Inst.Op == isa.OpCSRRW || b.Inst.Op == isa.OpCSRRWI || b.Inst.Rs1 != 0
	if writesCSR {
		csr.WriteCSR(addr, newVal)
	}
	b.ALUResult = old
}

func evalBranch(op isa.Mnemonic, a, c uint64) bool {
	switch op {
	case isa.OpBEQ:
		return a == c
	case isa.OpBNE:
		return a != c
	case isa.OpBLT:
		return int64(a) < int64(c)
	case isa.OpBGE:
		return int64(a) >= int64(c)
	case isa.OpBLTU:
		return a < c
	case isa.OpBGEU:
		return a >= c
	}
	return false
}

func usesImmediate(op isa.Mnemonic) bool {
	switch op {
	case isa.OpADDI, isa.OpSLTI, isa.OpSLTIU, isa.OpXORI, isa.OpORI, isa.OpANDI,
		isa.OpSLLI, isa.OpSRLI, isa.OpSRAI, isa.OpADDIW, isa.OpSLLIW, isa.OpSRLIW, isa.OpSRAIW, isa.OpLUI:
		return true
	}
	return false
}

// MemoryStage performs the load/store (and AMO) side effect for a bundle
// that reached the memory stage, and advances the global-monitor LR/SC
// reservation.
func MemoryStage(b Bundle, mem Memory, res *lsu.Reservation) Bundle {
	if !b.Valid || b.Trap != nil {
		return b
	}
	inst := b.Inst
	width := lsu.StoreWidth(inst.Op)

	if b.Ctrl.IsAtomic {
		amoOp, is32 := lsu.MnemonicToAtomicOp(inst.Op)
		switch amoOp {
		case isa.AtomicLR:
			v, trap := mem.ReadData(b.MemAddr, width)
			if trap != nil {
				b.Trap = trap
				return b
			}
			res.Set(isa.PhysAddr(b.MemAddr))
			b.ALUResult = signExtendIfNarrow(v, is32)
		case isa.AtomicSC:
			if res.Check(isa.PhysAddr(b.MemAddr)) {
				if trap := mem.WriteData(b.MemAddr, width, b.MemValue); trap != nil {
					b.Trap = trap
					return b
				}
				b.ALUResult = 0
			} else {
				b.ALUResult = 1
			}
		default:
			old, trap := mem.ReadData(b.MemAddr, width)
			if trap != nil {
				b.Trap = trap
				return b
			}
			newVal := lsu.AMO(amoOp, is32, old, b.MemValue)
			if trap := mem.WriteData(b.MemAddr, width, newVal); trap != nil {
				b.Trap = trap
				return b
			}
			b.ALUResult = signExtendIfNarrow(old, is32)
		}
		return b
	}

	if b.Ctrl.MemRead {
		v, trap := mem.ReadData(b.MemAddr, width)
		if trap != nil {
			b.Trap = trap
			return b
		}
		if b.Ctrl.IsFP {
			if width == 4 {
				b.FPResult = 0xFFFFFFFF00000000 | (v & 0xFFFFFFFF)
			} else {
				b.FPResult = v
			}
		} else {
			b.MemValue = lsu.ExtendLoad(inst.Op, v)
		}
		return b
	}

	if b.Ctrl.MemWrite {
		storeVal := b.MemValue
		if b.Ctrl.IsFP {
			storeVal = b.FPResult
		}
		if trap := mem.WriteData(b.MemAddr, width, storeVal); trap != nil {
			b.Trap = trap
		}
	}
	return b
}

// MemoryBundle runs MemoryStage across a whole EX/MEM bundle.
func MemoryBundle(exmem []Bundle, mem Memory, res *lsu.Reservation) []Bundle {
	out := make([]Bundle, len(exmem))
	for i, b := range exmem {
		out[i] = MemoryStage(b, mem, res)
	}
	return out
}

func signExtendIfNarrow(v uint64, is32 bool) uint64 {
	if is32 {
		return uint64(int64(int32(uint32(v))))
	}
	return v
}

// Writeback commits a bundle's result to the architectural register files
// and reports what it wrote (if anything) so same-tick forwarding can see
// it via a Commit record.
func Writeback(b Bundle, gpr *isa.GPRFile, fpr *isa.FPRFile) Commit {
	if !b.Valid || b.Trap != nil {
		return Commit{}
	}
	if b.Ctrl.FPWrite {
		fpr.SetDouble(b.Inst.Rd, b.FPResult)
		return Commit{Valid: true, IsFP: true, Reg: b.Inst.Rd, Val: b.FPResult}
	}
	if !b.Ctrl.RegWrite || b.Inst.Rd == 0 {
		return Commit{}
	}
	result := b.ALUResult
	if b.Ctrl.MemRead {
		result = b.MemValue
	}
	gpr.Set(b.Inst.Rd, result)
	return Commit{Valid: true, Reg: b.Inst.Rd, Val: result}
}
