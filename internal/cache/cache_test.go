package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type constBacker struct{ latency int }

func (b constBacker) Fill(addr uint64) int { return b.latency }

func TestMissThenHit(t *testing.T) {
	l := NewLevel(Config{SizeBytes: 1024, Ways: 2, LineBytes: 64, Policy: "lru", LatencyHit: 1, LatencyMiss: 20}, constBacker{latency: 50})
	hit, lat := l.Access(0x1000, false)
	require.False(t, hit)
	require.Equal(t, 70, lat)

	hit, lat = l.Access(0x1000, false)
	require.True(t, hit)
	require.Equal(t, 1, lat)
	require.EqualValues(t, 1, l.Hits)
	require.EqualValues(t, 1, l.Misses)
}

func TestLRUEviction(t *testing.T) {
	l := NewLevel(Config{SizeBytes: 128, Ways: 2, LineBytes: 64, Policy: "lru", LatencyHit: 1, LatencyMiss: 10}, constBacker{})
	// both lines map to the same set since there's only 1 set (128/64/2=1)
	l.Access(0, false)      // way0
	l.Access(64, false)     // way1
	l.Access(0, false)      // touch way0 again -> way1 now LRU
	hit, _ := l.Access(128, false) // evicts way1 (line at addr 64)
	require.False(t, hit)
	hit, _ = l.Access(0, false)
	require.True(t, hit, "line 0 should still be cached")
	hit, _ = l.Access(64, false)
	require.False(t, hit, "line 64 should have been evicted")
}

func TestStridePrefetcher(t *testing.T) {
	p := NewPrefetcher("stride")
	require.Nil(t, p.OnAccess(0, 64))
	require.Nil(t, p.OnAccess(64, 64))
	got := p.OnAccess(128, 64)
	require.Equal(t, []uint64{192}, got)
}
