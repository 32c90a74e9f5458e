// Command rv64pipe runs the RV64IMAFDC pipeline simulator against a
// configured machine, loading a flat binary image and executing it for a
// configured instruction/cycle budget or until the guest halts.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rv64pipe/sim/internal/config"
	"github.com/rv64pipe/sim/internal/core"
	"github.com/rv64pipe/sim/internal/telemetry"
)

// version is overwritten at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "rv64pipe",
		Short: "RV64IMAFDC in-order pipeline simulator",
	}

	root.AddCommand(newRunCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rv64pipe:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("rv64pipe", version)
			return nil
		},
	}
}

type runOptions struct {
	configPath   string
	firmware     string
	dtb          string
	bareMetal    bool
	kernelOffset uint64
	dtbOffset    uint64
	cycles       uint64
	instructions uint64
	stats        bool
	statsOut     string
	trace        bool
	verbose      bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Boot and run a kernel image to completion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var image string
			if len(args) == 1 {
				image = args[0]
			}
			return runSimulation(image, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML machine configuration file")
	f.StringVar(&opts.firmware, "firmware", "", "OpenSBI-style firmware image, loaded at RAM base ahead of the kernel")
	f.StringVar(&opts.dtb, "dtb", "", "Device tree blob to load alongside the kernel")
	f.BoolVar(&opts.bareMetal, "bare-metal", true, "Boot without firmware: plant an MRET trampoline that enters the kernel in the mode held in mstatus.MPP (user mode after reset)")
	f.Uint64Var(&opts.kernelOffset, "kernel-offset", 0x200000, "Kernel image offset from RAM base")
	f.Uint64Var(&opts.dtbOffset, "dtb-offset", 0x1f00000, "Device tree blob offset from RAM base")
	f.Uint64Var(&opts.cycles, "cycles", 0, "Cycle budget (0 = use config/default)")
	f.Uint64Var(&opts.instructions, "instructions", 0, "Instruction budget (0 = use config/default)")
	f.BoolVar(&opts.stats, "stats", false, "Print run statistics to stderr on completion")
	f.StringVar(&opts.statsOut, "stats-out", "", "Write run statistics as JSON to this file")
	f.BoolVar(&opts.trace, "trace", false, "Log the cycle and retired-instruction counts when the run completes")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug-level structured logging")

	return cmd
}

func runSimulation(image string, opts *runOptions) error {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
	}
	if opts.cycles != 0 {
		cfg.General.MaxCycles = opts.cycles
	}
	if opts.instructions != 0 {
		cfg.General.MaxInstructions = opts.instructions
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := telemetry.New(opts.verbose)
	defer func() { _ = log.Sync() }()

	cpu := core.New(cfg, log, func(b byte) { os.Stdout.Write([]byte{b}) })

	if image != "" {
		kernelImg, err := os.ReadFile(image)
		if err != nil {
			return fmt.Errorf("reading kernel image %s: %w", image, err)
		}
		ramBase := uint64(cfg.Memory.RAMBase)
		dtbAddr := ramBase + opts.dtbOffset
		var dtbImg []byte
		if opts.dtb != "" {
			dtbImg, err = os.ReadFile(opts.dtb)
			if err != nil {
				return fmt.Errorf("reading device tree blob %s: %w", opts.dtb, err)
			}
		}

		switch {
		case opts.firmware != "":
			firmwareImg, err := os.ReadFile(opts.firmware)
			if err != nil {
				return fmt.Errorf("reading firmware image %s: %w", opts.firmware, err)
			}
			if err := cpu.BootWithFirmware(ramBase, firmwareImg, kernelImg, dtbImg, opts.kernelOffset, opts.dtbOffset); err != nil {
				return fmt.Errorf("booting with firmware: %w", err)
			}
		case opts.bareMetal:
			if err := cpu.BootBareMetal(ramBase, kernelImg, opts.kernelOffset, dtbAddr); err != nil {
				return fmt.Errorf("booting bare metal: %w", err)
			}
			if dtbImg != nil {
				if err := cpu.LoadImageAt(dtbAddr, dtbImg); err != nil {
					return fmt.Errorf("loading device tree blob: %w", err)
				}
			}
		default:
			if err := cpu.LoadImageAt(ramBase, kernelImg); err != nil {
				return fmt.Errorf("loading image: %w", err)
			}
		}
	}

	cpu.Run(cfg.General.MaxCycles, cfg.General.MaxInstructions)

	stats := cpu.Stats()
	if opts.trace {
		log.Info("run complete",
			zap.Uint64("cycles", stats.Cycles),
			zap.Uint64("instructions", stats.InstructionsRetired),
		)
	}
	if opts.stats {
		printStats(os.Stderr, stats)
	}
	if opts.statsOut != "" {
		if err := writeStatsJSON(opts.statsOut, stats); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
	}

	if cpu.Halted() && cpu.ExitCode() != 0 {
		os.Exit(cpu.ExitCode())
	}
	return nil
}

func writeStatsJSON(path string, s *core.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Cycles              uint64  `json:"cycles"`
		InstructionsRetired uint64  `json:"instructions_retired"`
		IPC                 float64 `json:"ipc"`
		LoadUseStalls       uint64  `json:"load_use_stalls"`
		BranchMispredicts   uint64  `json:"branch_mispredicts"`
		BranchesResolved    uint64  `json:"branches_resolved"`
		TrapsTaken          uint64  `json:"traps_taken"`
		ICacheHits          uint64  `json:"icache_hits"`
		ICacheMisses        uint64  `json:"icache_misses"`
		DCacheHits          uint64  `json:"dcache_hits"`
		DCacheMisses        uint64  `json:"dcache_misses"`
	}{
		Cycles:              s.Cycles,
		InstructionsRetired: s.InstructionsRetired,
		IPC:                 s.IPC(),
		LoadUseStalls:       s.LoadUseStalls,
		BranchMispredicts:   s.BranchMispredicts,
		BranchesResolved:    s.BranchesResolved,
		TrapsTaken:          s.TrapsTaken,
		ICacheHits:          s.ICacheHits,
		ICacheMisses:        s.ICacheMisses,
		DCacheHits:          s.DCacheHits,
		DCacheMisses:        s.DCacheMisses,
	})
}

func printStats(w *os.File, s *core.Stats) {
	fmt.Fprintf(w, "cycles:              %d\n", s.Cycles)
	fmt.Fprintf(w, "instructions:        %d\n", s.InstructionsRetired)
	fmt.Fprintf(w, "ipc:                 %.3f\n", s.IPC())
	fmt.Fprintf(w, "load-use stalls:     %d\n", s.LoadUseStalls)
	fmt.Fprintf(w, "branch mispredicts:  %d (%.2f%%)\n", s.BranchMispredicts, s.BranchMispredictRate()*100)
	fmt.Fprintf(w, "traps taken:         %d\n", s.TrapsTaken)
	fmt.Fprintf(w, "icache hits/misses:  %d/%d\n", s.ICacheHits, s.ICacheMisses)
	fmt.Fprintf(w, "dcache hits/misses:  %d/%d\n", s.DCacheHits, s.DCacheMisses)
}
