package bus

// UART is a minimal 16550-ish console device: writing a byte to the
// transmit-holding-register offset emits it; reads of the line-status
// register always report transmitter-empty.
type UART struct {
	base uint64
	out  func(b byte)
	in   []byte
}

const (
	uartSize = 0x1000
	uartTHR  = 0x00
	uartLSR  = 0x05
	uartLSRTxEmpty = 1 << 5
	uartLSRDataReady = 1 << 0
)

func NewUART(base uint64, out func(b byte)) *UART {
	if out == nil {
		out = func(b byte) {}
	}
	return &UART{base: base, out: out}
}

func (u *UART) Base() uint64 { return u.base }
func (u *UART) Size() uint64 { return uartSize }

func (u *UART) Feed(b byte) { u.in = append(u.in, b) }

func (u *UART) Read(addr uint64, width int) uint64 {
	switch addr - u.base {
	case uartLSR:
		status := uint64(uartLSRTxEmpty)
		if len(u.in) > 0 {
			status |= uartLSRDataReady
		}
		return status
	case uartTHR:
		if len(u.in) == 0 {
			return 0
		}
		b := u.in[0]
		u.in = u.in[1:]
		return uint64(b)
	default:
		return 0
	}
}

func (u *UART) Write(addr uint64, width int, val uint64) {
	if addr-u.base == uartTHR {
		u.out(byte(val))
	}
}

// CLINT is the core-local interruptor: mtime/mtimecmp (timer interrupt)
// and msip (software interrupt), matching the SiFive CLINT memory map.
type CLINT struct {
	base     uint64
	mtime    uint64
	mtimecmp uint64
	msip     uint32
}

const (
	clintSize     = 0xC000
	clintMSIP     = 0x0000
	clintMTIMECMP = 0x4000
	clintMTIME    = 0xBFF8
)

func NewCLINT(base uint64) *CLINT { return &CLINT{base: base} }

func (c *CLINT) Base() uint64 { return c.base }
func (c *CLINT) Size() uint64 { return clintSize }

func (c *CLINT) Read(addr uint64, width int) uint64 {
	switch addr - c.base {
	case clintMSIP:
		return uint64(c.msip)
	case clintMTIMECMP:
		return c.mtimecmp
	case clintMTIME:
		return c.mtime
	default:
		return 0
	}
}

func (c *CLINT) Write(addr uint64, width int, val uint64) {
	switch addr - c.base {
	case clintMSIP:
		c.msip = uint32(val)
	case clintMTIMECMP:
		c.mtimecmp = val
	case clintMTIME:
		c.mtime = val
	}
}

func (c *CLINT) Tick(cycle uint64) { c.mtime++ }

// MTime returns the current timer value, for the time/mtime CSR read path.
func (c *CLINT) MTime() uint64 { return c.mtime }

func (c *CLINT) MachineTimerPending() bool     { return c.mtime >= c.mtimecmp }
func (c *CLINT) MachineSoftwarePending() bool  { return c.msip&1 != 0 }
func (c *CLINT) MachineExternalPending() bool  { return false }
func (c *CLINT) SupervisorExternalPending() bool { return false }

// PLIC is a drastically simplified platform-level interrupt controller: a
// pending bitmap, a per-context enable bitmap, and a claim/complete
// register for machine and supervisor external interrupts.
type PLIC struct {
	base     uint64
	pending  uint64
	enableM  uint64
	enableS  uint64
	claimedM uint32
	claimedS uint32
}

const (
	plicSize       = 0x4000000
	plicEnableM    = 0x2000
	plicEnableS    = 0x2080
	plicClaimM     = 0x200004
	plicClaimS     = 0x201004
	plicPendingReg = 0x1000
)

func NewPLIC(base uint64) *PLIC { return &PLIC{base: base} }

func (p *PLIC) Base() uint64 { return p.base }
func (p *PLIC) Size() uint64 { return plicSize }

// Raise sets bit irq (1-63) pending, called by a device driver stub.
func (p *PLIC) Raise(irq uint) {
	p.pending |= 1 << irq
}

func (p *PLIC) Read(addr uint64, width int) uint64 {
	switch addr - p.base {
	case plicPendingReg:
		return p.pending
	case plicEnableM:
		return p.enableM
	case plicEnableS:
		return p.enableS
	case plicClaimM:
		for i := uint(1); i < 64; i++ {
			if p.pending&p.enableM&(1<<i) != 0 {
				p.pending &^= 1 << i
				return uint64(i)
			}
		}
		return 0
	case plicClaimS:
		for i := uint(1); i < 64; i++ {
			if p.pending&p.enableS&(1<<i) != 0 {
				p.pending &^= 1 << i
				return uint64(i)
			}
		}
		return 0
	default:
		return 0
	}
}

func (p *PLIC) Write(addr uint64, width int, val uint64) {
	switch addr - p.base {
	case plicEnableM:
		p.enableM = val
	case plicEnableS:
		p.enableS = val
	case plicClaimM, plicClaimS:
		// complete: nothing to do in this simplified model
	}
}

func (p *PLIC) MachineTimerPending() bool    { return false }
func (p *PLIC) MachineSoftwarePending() bool { return false }
func (p *PLIC) MachineExternalPending() bool { return p.pending&p.enableM != 0 }
func (p *PLIC) SupervisorExternalPending() bool { return p.pending&p.enableS != 0 }

// RTC is a trivial read-only wall-clock register, independent of the CLINT
// timer used for scheduling.
type RTC struct {
	base  uint64
	epoch uint64
}

func NewRTC(base uint64, epochSeconds uint64) *RTC { return &RTC{base: base, epoch: epochSeconds} }

func (r *RTC) Base() uint64 { return r.base }
func (r *RTC) Size() uint64 { return 0x1000 }

func (r *RTC) Read(addr uint64, width int) uint64 {
	if addr == r.base {
		return r.epoch
	}
	return 0
}

func (r *RTC) Write(addr uint64, width int, val uint64) {}

// VirtioBlock is a stub block device presenting only its magic/version
// registers; full virtqueue processing is out of scope, but the device
// occupies its address range and answers discovery probes, which is
// enough for a guest to detect and skip it.
type VirtioBlock struct {
	base uint64
}

func NewVirtioBlock(base uint64) *VirtioBlock { return &VirtioBlock{base: base} }

func (v *VirtioBlock) Base() uint64 { return v.base }
func (v *VirtioBlock) Size() uint64 { return 0x1000 }

func (v *VirtioBlock) Read(addr uint64, width int) uint64 {
	switch addr - v.base {
	case 0x00:
		return 0x74726976 // "virt" magic
	case 0x04:
		return 2 // version
	case 0x08:
		return 2 // device id: block device
	default:
		return 0
	}
}

func (v *VirtioBlock) Write(addr uint64, width int, val uint64) {}
