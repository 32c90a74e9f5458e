package core

import (
	"github.com/rv64pipe/sim/internal/isa"
	"github.com/rv64pipe/sim/internal/pipeline"
)

// Step runs one clock cycle of the five-stage pipeline: writeback first
// (oldest instructions), then memory, execute, decode, fetch — mirroring
// program order from oldest to youngest within a single tick so an older
// instruction's trap or misprediction can discard younger, not-yet-committed
// work before it does anything irreversible. Each stage operates on an
// ordered, width-bounded slice of records (pipeline.Bundle) rather than a
// single instruction, so pipeline.bundle_width > 1 runs a superscalar
// in-order pipeline instead of a strictly scalar one.
func (c *CPU) Step() {
	if c.halted {
		return
	}
	defer func() { c.stats.Cycles++ }()

	width := c.cfg.Pipeline.BundleWidth
	if width < 1 {
		width = 1
	}

	var commits []pipeline.Commit
	for _, wb := range c.latches.MEMWB {
		if !wb.Valid {
			continue
		}
		if wb.Trap != nil {
			c.enterTrap(*wb.Trap, uint64(wb.Inst.PC))
			c.latches = pipeline.Latches{}
			return
		}
		if wb.Inst.Op == isa.OpMRET || wb.Inst.Op == isa.OpSRET {
			c.stats.InstructionsRetired++
			if wb.Inst.Op == isa.OpMRET {
				c.execMRET()
			} else {
				c.execSRET()
			}
			c.latches = pipeline.Latches{}
			return
		}
		commit := pipeline.Writeback(wb, &c.gpr, &c.fpr)
		if commit.Valid {
			commits = append(commits, commit)
		}
		c.priv.fcsr |= uint64(wb.FPFlags)
		c.stats.InstructionsRetired++
		if isControlFlow(wb.Inst.Op) {
			c.stats.BranchesResolved++
			if wb.Mispredicted {
				c.stats.BranchMispredicts++
			}
		}
	}

	if len(c.latches.IFID) == 0 && len(c.latches.IDEX) == 0 {
		if trap, ok := c.pendingInterrupt(); ok {
			c.enterTrap(trap, c.pc)
			c.latches = pipeline.Latches{}
			return
		}
	}

	mem := pipeline.MemoryBundle(c.latches.EXMEM, c, &c.reservation)

	idexIn := c.latches.IDEX
	ex := pipeline.ExecuteBundle(idexIn, c, &c.reservation, c.latches.EXMEM, mem, commits)

	var mispredicted *pipeline.Bundle
	for i := range ex {
		b := ex[i]
		if b.Valid && b.Trap == nil && isControlFlow(b.Inst.Op) {
			target := b.BranchTarget
			if b.Inst.Op == isa.OpJAL || b.Inst.Op == isa.OpJALR {
				target = b.NextPC
			}
			c.pred.UpdateBranch(uint64(b.Inst.PC), b.BranchTaken, target)
			if b.Mispredicted {
				mispredicted = &ex[i]
				break
			}
		}
	}

	var decOut, fetchOut []pipeline.Bundle
	var nextPC uint64

	if mispredicted != nil {
		fetchOut, nextPC = pipeline.FetchBundle(mispredicted.NextPC, c, c.pred, width)
	} else {
		ifid := c.latches.IFID
		if pipeline.DetectBundleLoadUseHazard(idexIn, ifid) {
			c.stats.LoadUseStalls++
			fetchOut = ifid
			nextPC = c.pc
		} else {
			var held []pipeline.Bundle
			decOut, held = pipeline.DecodeBundle(ifid, &c.gpr, &c.fpr)
			if len(held) > 0 {
				fetchOut = held
				nextPC = c.pc
			} else {
				fetchOut, nextPC = pipeline.FetchBundle(c.pc, c, c.pred, width)
			}
		}
	}

	c.latches.Advance(fetchOut, decOut, ex, mem)
	c.pc = nextPC

	if halt, code := c.busDev.CheckExit(); halt {
		c.halted = true
		c.exitCode = code
	}
	timerIRQ, softIRQ, meip, seip := c.busDev.Tick(c.stats.Cycles)
	c.priv.mip &^= isa.MipMTIP | isa.MipMSIP | isa.MipMEIP | isa.MipSEIP
	if timerIRQ {
		c.priv.mip |= isa.MipMTIP
	}
	if softIRQ {
		c.priv.mip |= isa.MipMSIP
	}
	if meip {
		c.priv.mip |= isa.MipMEIP
	}
	if seip {
		c.priv.mip |= isa.MipSEIP
	}
}

func isControlFlow(op isa.Mnemonic) bool {
	switch op {
	case isa.OpBEQ, isa.OpBNE, isa.OpBLT, isa.OpBGE, isa.OpBLTU, isa.OpBGEU, isa.OpJAL, isa.OpJALR:
		return true
	}
	return false
}

// Run steps the pipeline until the hart halts or a configured cycle/
// instruction budget is exhausted, whichever comes first.
func (c *CPU) Run(maxCycles, maxInstructions uint64) {
	for !c.halted {
		if maxCycles != 0 && c.stats.Cycles >= maxCycles {
			return
		}
		if maxInstructions != 0 && c.stats.InstructionsRetired >= maxInstructions {
			return
		}
		c.Step()
	}
}
