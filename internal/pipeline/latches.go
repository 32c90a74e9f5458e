package pipeline

// Latches holds the four inter-stage pipeline registers. Each is an ordered
// sequence of instruction records, oldest first, bounded by the configured
// bundle width: width 1 is the scalar case, width >1 carries a superscalar
// in-order bundle fetched/decoded/executed/retired together. Each tick, the
// core's tick driver runs the stages in reverse order (writeback first,
// fetch last) over a snapshot of these latches, then advances them.
type Latches struct {
	IFID  []Bundle
	IDEX  []Bundle
	EXMEM []Bundle
	MEMWB []Bundle
}

// Advance moves each stage's output into the next stage's input latch,
// overwriting whatever was there in the previous cycle. Called once all
// five stages have run for the current tick.
func (l *Latches) Advance(ifidOut, idexOut, exmemOut, memwbOut []Bundle) {
	l.MEMWB = memwbOut
	l.EXMEM = exmemOut
	l.IDEX = idexOut
	l.IFID = ifidOut
}

// Bubble returns a single invalid (NOP) bundle, used to fill a latch slot
// on a stall or a control-flow flush.
func Bubble() Bundle {
	return Bundle{Valid: false}
}

// FlushIFAndID clears the two front latches, used when a branch or jump in
// execute resolves against a wrong fetch-time prediction.
func (l *Latches) FlushIFAndID() {
	l.IFID = nil
	l.IDEX = nil
}
