package core

import (
	"go.uber.org/zap"

	"github.com/rv64pipe/sim/internal/bus"
	"github.com/rv64pipe/sim/internal/cache"
	"github.com/rv64pipe/sim/internal/config"
	"github.com/rv64pipe/sim/internal/isa"
	"github.com/rv64pipe/sim/internal/lsu"
	"github.com/rv64pipe/sim/internal/memctl"
	"github.com/rv64pipe/sim/internal/mmu"
	"github.com/rv64pipe/sim/internal/pipeline"
	"github.com/rv64pipe/sim/internal/predictor"
)

// CPU assembles every leaf package into one running RV64IMAFDC hart: the
// architectural register/CSR state, the MMU/cache/bus memory system, the
// branch predictor, and the pipeline tick driver.
type CPU struct {
	gpr isa.GPRFile
	fpr isa.FPRFile
	pc  uint64
	priv privState

	itlb *mmu.TLB
	dtlb *mmu.TLB
	ram  *bus.RAM

	icache, dcache *cache.Level
	l2, l3         *cache.Level

	busDev *bus.Bus
	clint  *bus.CLINT
	syscon *bus.SysCon
	uart   *bus.UART

	pred        predictor.Predictor
	reservation lsu.Reservation
	latches     pipeline.Latches

	stats Stats
	log   *zap.Logger

	cfg     *config.Config
	halted  bool
	exitCode int
}

// New builds a CPU from a loaded configuration: RAM plus UART, CLINT, PLIC
// and SysCon on the bus (the bus package's RTC and VirtioBlock devices are
// not attached), an L1I/L1D/L2/L3 cache hierarchy backed by the configured memory
// controller model, split TLBs, and the configured branch predictor.
func New(cfg *config.Config, log *zap.Logger, uartOut func(byte)) *CPU {
	if log == nil {
		log = zap.NewNop()
	}
	c := &CPU{log: log, cfg: cfg}
	c.pc = uint64(cfg.System.ResetVector)
	switch cfg.System.InitialPriv {
	case "supervisor":
		c.priv.priv = isa.PrivSupervisor
	case "user":
		c.priv.priv = isa.PrivUser
	default:
		c.priv.priv = isa.PrivMachine
	}

	c.ram = bus.NewRAM(uint64(cfg.Memory.RAMBase), int(cfg.Memory.RAMSizeMiB)*1024*1024)
	c.clint = bus.NewCLINT(uint64(cfg.Memory.CLINTBase))
	c.syscon = bus.NewSysCon(uint64(cfg.Memory.SysConBase))
	plic := bus.NewPLIC(uint64(cfg.Memory.PLICBase))
	c.uart = bus.NewUART(uint64(cfg.Memory.UARTBase), uartOut)

	c.busDev = bus.New(log, 8, 1)
	c.busDev.AddDevice(c.ram)
	c.busDev.AddDevice(c.uart)
	c.busDev.AddDevice(c.clint)
	c.busDev.AddDevice(plic)
	c.busDev.AddDevice(c.syscon)

	var backer cache.Backer
	if cfg.Memory.Model == "dram" {
		backer = memctl.NewDRAM(2048, 8, 20, 15, 10)
	} else {
		backer = &memctl.Simple{Latency: 100}
	}

	c.l3 = cache.NewLevel(levelConfig("l3", cfg.Caches.L3), backer)
	c.l2 = cache.NewLevel(levelConfig("l2", cfg.Caches.L2), c.l3)
	c.icache = cache.NewLevel(levelConfig("l1i", cfg.Caches.L1I), c.l2)
	c.dcache = cache.NewLevel(levelConfig("l1d", cfg.Caches.L1D), c.l2)

	c.itlb = mmu.NewTLB(32)
	c.dtlb = mmu.NewTLB(32)

	predCfg := predictor.Config{
		Tournament: predictor.TournamentConfig(cfg.Pipeline.Tournament),
		TAGE:       predictor.TAGEConfig(cfg.Pipeline.TAGE),
		Perceptron: predictor.PerceptronConfig(cfg.Pipeline.Perceptron),
	}
	c.pred = predictor.New(cfg.Pipeline.PredictorKind, cfg.Pipeline.BTBEntries, cfg.Pipeline.RASEntries, predCfg)

	return c
}

func levelConfig(name string, cc config.CacheConfig) cache.Config {
	return cache.Config{
		Name:        name,
		SizeBytes:   cc.SizeKiB * 1024,
		Ways:        cc.Ways,
		LineBytes:   cc.LineBytes,
		Policy:      cc.Policy,
		Prefetcher:  cc.Prefetcher,
		LatencyHit:  cc.LatencyHit,
		LatencyMiss: cc.LatencyMiss,
	}
}

// Halted reports whether the hart has stopped on a SysCon poweroff, reset
// or failure-exit request.
func (c *CPU) Halted() bool { return c.halted }

// ExitCode returns the code SysCon requested, meaningful once Halted.
func (c *CPU) ExitCode() int { return c.exitCode }

// Stats returns the accumulated run counters.
func (c *CPU) Stats() *Stats { return &c.stats }

// UART returns the console device, so a CLI front-end can feed it
// simulated keyboard input.
func (c *CPU) UART() *bus.UART { return c.uart }

// GPR/FPR/PC/PrivMode expose architectural state read-only, for
// diagnostics, tests, and serialization.
func (c *CPU) GPR(r uint32) uint64        { return c.gpr.Get(r) }
func (c *CPU) PC() uint64                 { return c.pc }
func (c *CPU) PrivMode() isa.PrivilegeMode { return c.priv.priv }
