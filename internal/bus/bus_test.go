package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRAMReadWrite(t *testing.T) {
	b := New(nil, 8, 2)
	ram := NewRAM(0x80000000, 4096)
	b.AddDevice(ram)

	b.Write(0x80000010, 4, 0xDEADBEEF)
	require.EqualValues(t, 0xDEADBEEF, b.Read(0x80000010, 4))
}

func TestUnmappedReadReturnsZero(t *testing.T) {
	b := New(nil, 8, 2)
	require.EqualValues(t, 0, b.Read(0x1, 4))
	require.False(t, b.IsValidAddress(0x1))
}

func TestLastDeviceCacheStillFindsOtherDevices(t *testing.T) {
	b := New(nil, 8, 2)
	ram := NewRAM(0x80000000, 4096)
	uart := NewUART(0x10000000, nil)
	b.AddDevice(ram)
	b.AddDevice(uart)

	b.Write(0x80000000, 1, 1) // hits ram, caches lastIdx=0
	b.Write(0x10000000, 1, 'A')
	require.EqualValues(t, 1, b.Read(0x80000000, 1))
}

func TestSysConPowerOff(t *testing.T) {
	s := NewSysCon(0x100000)
	req, _ := s.ExitRequested()
	require.False(t, req)
	s.Write(0x100000, 4, 0x5555)
	req, code := s.ExitRequested()
	require.True(t, req)
	require.Zero(t, code)
}

func TestSysConFailureCode(t *testing.T) {
	s := NewSysCon(0x100000)
	s.Write(0x100000, 4, (7<<16)|0x3333)
	req, code := s.ExitRequested()
	require.True(t, req)
	require.Equal(t, 7, code)
}

func TestCLINTTimerInterrupt(t *testing.T) {
	c := NewCLINT(0x02000000)
	c.Write(0x02000000+clintMTIMECMP, 8, 3)
	require.False(t, c.MachineTimerPending())
	c.Tick(0)
	c.Tick(0)
	c.Tick(0)
	require.True(t, c.MachineTimerPending())
}
