// Package bus implements the address-decoded system bus: an ordered list
// of memory-mapped devices, a last-hit device cache for the common case of
// repeated same-device accesses, and per-access transit-time accounting.
package bus

import (
	"fmt"

	"go.uber.org/zap"
)

// Device is one memory-mapped peripheral (or RAM).
type Device interface {
	Base() uint64
	Size() uint64
	Read(addr uint64, width int) uint64
	Write(addr uint64, width int, val uint64)
}

// Tickable is optionally implemented by devices that need to advance their
// own internal state (timers, UART FIFOs) once per bus tick.
type Tickable interface {
	Tick(cycle uint64)
}

// InterruptSource is optionally implemented by devices that can assert a
// platform interrupt line (CLINT timer/software, PLIC external).
type InterruptSource interface {
	MachineTimerPending() bool
	MachineSoftwarePending() bool
	MachineExternalPending() bool
	SupervisorExternalPending() bool
}

// ExitSignal is implemented by SysCon: a device that can end the run.
type ExitSignal interface {
	ExitRequested() (bool, int)
}

// Bus dispatches reads/writes to the device whose address range contains
// the target address, tracking the last-hit device to skip the linear scan
// on repeated accesses to the same device (the common case).
type Bus struct {
	devices     []Device
	lastIdx     int
	widthBytes  int
	latencyCycles int
	log         *zap.Logger
}

func New(log *zap.Logger, widthBytes, latencyCycles int) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{widthBytes: widthBytes, latencyCycles: latencyCycles, log: log}
}

func (b *Bus) AddDevice(d Device) {
	b.devices = append(b.devices, d)
}

func (b *Bus) find(addr uint64) (Device, int) {
	if b.lastIdx < len(b.devices) {
		d := b.devices[b.lastIdx]
		if addr >= d.Base() && addr < d.Base()+d.Size() {
			return d, b.lastIdx
		}
	}
	for i, d := range b.devices {
		if addr >= d.Base() && addr < d.Base()+d.Size() {
			b.lastIdx = i
			return d, i
		}
	}
	return nil, -1
}

func (b *Bus) IsValidAddress(addr uint64) bool {
	d, _ := b.find(addr)
	return d != nil
}

func (b *Bus) Read(addr uint64, width int) uint64 {
	d, _ := b.find(addr)
	if d == nil {
		b.log.Warn("bus: read from unmapped address", zap.Uint64("addr", addr), zap.Int("width", width))
		return 0
	}
	return d.Read(addr, width)
}

func (b *Bus) Write(addr uint64, width int, val uint64) {
	d, _ := b.find(addr)
	if d == nil {
		b.log.Warn("bus: write to unmapped address", zap.Uint64("addr", addr), zap.Int("width", width))
		return
	}
	d.Write(addr, width, val)
}

// CalculateTransitTime returns the fixed per-access bus latency plus one
// cycle for each bus-width beat the access needs.
func (b *Bus) CalculateTransitTime(width int) int {
	if b.widthBytes <= 0 {
		b.widthBytes = 8
	}
	beats := (width + b.widthBytes - 1) / b.widthBytes
	if beats < 1 {
		beats = 1
	}
	return b.latencyCycles + beats
}

// Tick advances every Tickable device and aggregates pending interrupt
// lines from every InterruptSource device (mirroring a PLIC aggregating
// external interrupts and a CLINT driving the timer/software lines).
func (b *Bus) Tick(cycle uint64) (timerIRQ, softIRQ, meip, seip bool) {
	for _, d := range b.devices {
		if t, ok := d.(Tickable); ok {
			t.Tick(cycle)
		}
	}
	for _, d := range b.devices {
		if src, ok := d.(InterruptSource); ok {
			timerIRQ = timerIRQ || src.MachineTimerPending()
			softIRQ = softIRQ || src.MachineSoftwarePending()
			meip = meip || src.MachineExternalPending()
			seip = seip || src.SupervisorExternalPending()
		}
	}
	return
}

// CheckExit reports whether any device has requested the run end, and
// with what exit code.
func (b *Bus) CheckExit() (bool, int) {
	for _, d := range b.devices {
		if e, ok := d.(ExitSignal); ok {
			if req, code := e.ExitRequested(); req {
				return true, code
			}
		}
	}
	return false, 0
}

// LoadBinaryAt writes img into whichever device's range contains base,
// erroring if the image would overflow that device (mirrors loading a
// flat kernel image directly into RAM).
func (b *Bus) LoadBinaryAt(base uint64, img []byte) error {
	d, _ := b.find(base)
	ram, ok := d.(*RAM)
	if !ok {
		return fmt.Errorf("bus: LoadBinaryAt base=0x%x is not backed by RAM", base)
	}
	return ram.LoadAt(base, img)
}
