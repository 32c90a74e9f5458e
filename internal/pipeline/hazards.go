package pipeline

import "github.com/rv64pipe/sim/internal/isa"

// regRead is one source-operand read an instruction performs, classified by
// which register file it comes from.
type regRead struct {
	reg uint32
	fp  bool
}

// usesRs3 reports whether op reads a third source register: only the fused
// multiply-add family does.
func usesRs3(op isa.Mnemonic) bool {
	switch op {
	case isa.OpFMADD, isa.OpFMSUB, isa.OpFNMSUB, isa.OpFNMADD:
		return true
	}
	return false
}

// sourceReads returns inst's register reads, classified fp/int the same way
// Decode picks which register file to read from.
func sourceReads(inst isa.Instruction) []regRead {
	ctrl := DecodeControl(inst)
	fpSrc := ctrl.IsFP && !isFPDestOnly(inst.Op)
	reads := []regRead{{inst.Rs1, fpSrc}, {inst.Rs2, fpSrc}}
	if usesRs3(inst.Op) {
		reads = append(reads, regRead{inst.Rs3, true})
	}
	return reads
}

// producerInfo reports the destination register and register file of a
// bundle that writes one, or ok=false if it writes nothing architectural.
func producerInfo(b Bundle) (rd uint32, isFP bool, ok bool) {
	if !b.Valid || b.Trap != nil {
		return 0, false, false
	}
	if b.Ctrl.FPWrite {
		return b.Inst.Rd, true, true
	}
	if b.Ctrl.RegWrite {
		return b.Inst.Rd, false, true
	}
	return 0, false, false
}

// forwardValueOf returns the value a producer bundle will write, preferring
// the load/FP-load data once it's known over the raw ALU result.
func forwardValueOf(b Bundle) uint64 {
	if b.Ctrl.FPWrite {
		return b.FPResult
	}
	if b.Ctrl.MemRead {
		return b.MemValue
	}
	return b.ALUResult
}

// readsProducer reports whether inst reads producerRd in the register file
// named by producerIsFP. x0 is never a meaningful destination, but f0 is an
// ordinary register and must still be matched.
func readsProducer(inst isa.Instruction, producerRd uint32, producerIsFP bool) bool {
	if producerRd == 0 && !producerIsFP {
		return false
	}
	for _, r := range sourceReads(inst) {
		if r.fp == producerIsFP && r.reg == producerRd {
			return true
		}
	}
	return false
}

// DetectLoadUseHazard reports whether the instruction currently in decode
// needs an operand the instruction ahead of it (sitting in ID/EX) has not
// yet produced because it is itself a load. The pipeline must stall one
// cycle (insert a bubble into EX, hold IF/ID and PC) in that case.
func DetectLoadUseHazard(idex Bundle, decoding isa.Instruction) bool {
	if !idex.Valid || !idex.Ctrl.MemRead {
		return false
	}
	rd, isFP, ok := producerInfo(idex)
	if !ok {
		return false
	}
	return readsProducer(decoding, rd, isFP)
}

// DetectBundleLoadUseHazard generalizes DetectLoadUseHazard to a whole
// ID/EX bundle against a whole IF/ID bundle: a stall is needed if any
// load in ID/EX feeds any not-yet-decoded instruction in IF/ID.
func DetectBundleLoadUseHazard(idex, ifid []Bundle) bool {
	for _, p := range idex {
		for _, d := range ifid {
			if d.Valid && d.Trap == nil && DetectLoadUseHazard(p, d.Inst) {
				return true
			}
		}
	}
	return false
}

// ForwardSource names where an operand value was sourced from, for tracing
// and for tests that want to assert forwarding actually took the fast path
// rather than happening to match the stale register value.
type ForwardSource uint8

const (
	ForwardFromRegFile ForwardSource = iota
	ForwardFromWriteback
	ForwardFromExMem
	ForwardFromMemWb
	ForwardFromIntraBundle
)

// ForwardOperand resolves the live value of register reg (in the integer or
// FP file per isFP), applying the standard forwarding priority, later
// sources winning when more than one applies:
//  1. the register file at decode (regVal, the baseline)
//  2. a just-committed writeback (commits, same tick as decode)
//  3. EX/MEM's ALU-producing records (loads/AMOs excluded: not ready yet)
//  4. fresh MEM/WB (memwb; loads are ready here, the memory stage having run)
//  5. intraBundle: results already computed this cycle by earlier
//     instructions in the same Execute bundle (searched newest first)
//
// Floating-point destinations only match floating-point source reads;
// integer x0 can never be a forwarding source, but f0 can.
func ForwardOperand(reg uint32, isFP bool, regVal uint64, intraBundle, exmem, memwb []Bundle, commits []Commit) (uint64, ForwardSource) {
	if reg == 0 && !isFP {
		return 0, ForwardFromRegFile
	}
	if v, ok := scanProducers(intraBundle, reg, isFP, true); ok {
		return v, ForwardFromIntraBundle
	}
	if v, ok := scanProducers(memwb, reg, isFP, false); ok {
		return v, ForwardFromMemWb
	}
	if v, ok := scanProducers(exmem, reg, isFP, true); ok {
		return v, ForwardFromExMem
	}
	for _, c := range commits {
		if c.Valid && c.IsFP == isFP && c.Reg == reg {
			return c.Val, ForwardFromWriteback
		}
	}
	return regVal, ForwardFromRegFile
}

// scanProducers searches bundles in reverse (newest first) for a record
// that writes reg in the named register file. excludePending skips
// loads/AMOs whose value isn't computed until the memory stage runs.
func scanProducers(bundles []Bundle, reg uint32, isFP bool, excludePending bool) (uint64, bool) {
	for i := len(bundles) - 1; i >= 0; i-- {
		b := bundles[i]
		rd, pFP, ok := producerInfo(b)
		if !ok || pFP != isFP || rd != reg {
			continue
		}
		if excludePending && (b.Ctrl.MemRead || b.Ctrl.IsAtomic) {
			continue
		}
		return forwardValueOf(b), true
	}
	return 0, false
}
