// Package memctl implements the two memory controller timing models: a
// Simple constant-latency controller and a DRAM controller with row-buffer
// hit/miss timing.
package memctl

// Simple is a constant-latency memory controller: every access costs the
// same number of cycles regardless of access pattern.
type Simple struct {
	Latency int
}

func (s *Simple) Fill(addr uint64) int { return s.Latency }

// DRAM models a single open row buffer per bank: consecutive accesses to
// the same row pay only the CAS latency; a row change pays precharge +
// row-activate + CAS.
type DRAM struct {
	RowBytes     int
	Banks        int
	CASLatency   int
	RowHitBonus  int // not read by Fill: a row hit costs CASLatency alone
	ActivateCost int
	PrechargeCost int

	openRow []int64 // per-bank currently open row index, -1 = none
}

func NewDRAM(rowBytes, banks, cas, activate, precharge int) *DRAM {
	rows := make([]int64, banks)
	for i := range rows {
		rows[i] = -1
	}
	return &DRAM{
		RowBytes: rowBytes, Banks: banks, CASLatency: cas,
		ActivateCost: activate, PrechargeCost: precharge, openRow: rows,
	}
}

func (d *DRAM) bankAndRow(addr uint64) (bank int, row int64) {
	if d.Banks <= 0 {
		d.Banks = 1
	}
	if d.RowBytes <= 0 {
		d.RowBytes = 2048
	}
	lineIdx := addr / uint64(d.RowBytes)
	bank = int(lineIdx % uint64(d.Banks))
	row = int64(lineIdx / uint64(d.Banks))
	return
}

func (d *DRAM) Fill(addr uint64) int {
	bank, row := d.bankAndRow(addr)
	if d.openRow == nil {
		d.openRow = make([]int64, d.Banks)
		for i := range d.openRow {
			d.openRow[i] = -1
		}
	}
	if d.openRow[bank] == row {
		return d.CASLatency
	}
	cost := d.CASLatency + d.ActivateCost
	if d.openRow[bank] != -1 {
		cost += d.PrechargeCost
	}
	d.openRow[bank] = row
	return cost
}
