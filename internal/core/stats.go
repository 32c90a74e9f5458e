package core

// Stats accumulates the run counters a completed simulation reports:
// timing (cycles/instructions), pipeline efficiency (stalls, mispredicts),
// and cache behavior per level. Grounded on the reference implementation's
// stats collector, generalized from per-M68K-opcode tallies to the
// pipeline-stage counters this architecture exposes.
type Stats struct {
	Cycles              uint64
	InstructionsRetired uint64
	LoadUseStalls       uint64
	BranchMispredicts   uint64
	BranchesResolved    uint64
	TrapsTaken          uint64

	ICacheHits, ICacheMisses uint64
	DCacheHits, DCacheMisses uint64

	memoryStallCycles uint64
}

func (s *Stats) recordICache(hit bool, latency int) {
	if hit {
		s.ICacheHits++
	} else {
		s.ICacheMisses++
	}
	s.memoryStallCycles += uint64(latency)
}

func (s *Stats) recordDCache(hit bool, latency int) {
	if hit {
		s.DCacheHits++
	} else {
		s.DCacheMisses++
	}
	s.memoryStallCycles += uint64(latency)
}

// IPC returns instructions retired per cycle, 0 if no cycles elapsed.
func (s *Stats) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.InstructionsRetired) / float64(s.Cycles)
}

// BranchMispredictRate returns the fraction of resolved branches that were
// mispredicted, 0 if none resolved yet.
func (s *Stats) BranchMispredictRate() float64 {
	if s.BranchesResolved == 0 {
		return 0
	}
	return float64(s.BranchMispredicts) / float64(s.BranchesResolved)
}
