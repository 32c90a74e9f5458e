package memctl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimpleConstantLatency(t *testing.T) {
	s := &Simple{Latency: 100}
	require.Equal(t, 100, s.Fill(0))
	require.Equal(t, 100, s.Fill(0xDEADBEEF))
}

func TestDRAMRowHitVsMiss(t *testing.T) {
	d := NewDRAM(2048, 4, 10, 20, 15)
	first := d.Fill(0) // row miss: no row open yet, no precharge
	require.Equal(t, 30, first)

	hit := d.Fill(8) // same row, same bank
	require.Equal(t, 10, hit)

	miss := d.Fill(2048 * 4) // different row, same bank (stride = banks*rowbytes)
	require.Equal(t, 45, miss)
}
