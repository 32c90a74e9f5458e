// Package config loads the YAML document describing a simulated machine:
// general run parameters, memory layout, cache hierarchy, pipeline shape,
// and branch predictor selection.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HexU64 unmarshals both hex strings ("0x80000000") and plain YAML integers
// into a uint64.
type HexU64 uint64

func (h *HexU64) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		s := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
		n, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return fmt.Errorf("config: invalid hex address %q: %w", v, err)
		}
		*h = HexU64(n)
	case int:
		*h = HexU64(v)
	case int64:
		*h = HexU64(v)
	case uint64:
		*h = HexU64(v)
	default:
		return fmt.Errorf("config: unsupported address value %v (%T)", raw, raw)
	}
	return nil
}

func (h HexU64) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%x", uint64(h)))
}

// GeneralConfig controls top-level run behavior.
type GeneralConfig struct {
	Name              string `yaml:"name"`
	MaxCycles         uint64 `yaml:"max_cycles"`
	MaxInstructions   uint64 `yaml:"max_instructions"`
	HaltOnUnknownDevc bool   `yaml:"halt_on_unknown_device"`
}

func (g *GeneralConfig) applyDefaults() {
	if g.Name == "" {
		g.Name = "rv64pipe"
	}
	if g.MaxCycles == 0 && g.MaxInstructions == 0 {
		g.MaxCycles = 100_000_000
	}
}

// SystemConfig describes reset vectors and privilege defaults.
type SystemConfig struct {
	ResetVector   HexU64 `yaml:"reset_vector"`
	InitialPriv   string `yaml:"initial_privilege"`
	TimebaseFreq  uint64 `yaml:"timebase_frequency"`
	EnableRVC     bool   `yaml:"enable_compressed"`
	BundleWidth   int    `yaml:"bundle_width"`
}

func (s *SystemConfig) applyDefaults() {
	if s.ResetVector == 0 {
		s.ResetVector = 0x80000000
	}
	if s.InitialPriv == "" {
		s.InitialPriv = "machine"
	}
	if s.TimebaseFreq == 0 {
		s.TimebaseFreq = 10_000_000
	}
	if s.BundleWidth == 0 {
		s.BundleWidth = 1
	}
}

// MemoryConfig describes physical memory and the default device map.
type MemoryConfig struct {
	RAMBase    HexU64 `yaml:"ram_base"`
	RAMSizeMiB uint64 `yaml:"ram_size_mib"`
	UARTBase   HexU64 `yaml:"uart_base"`
	CLINTBase  HexU64 `yaml:"clint_base"`
	PLICBase   HexU64 `yaml:"plic_base"`
	SysConBase HexU64 `yaml:"syscon_base"`
	Model      string `yaml:"controller_model"` // "simple" | "dram"
}

func (m *MemoryConfig) applyDefaults() {
	if m.RAMBase == 0 {
		m.RAMBase = 0x80000000
	}
	if m.RAMSizeMiB == 0 {
		m.RAMSizeMiB = 128
	}
	if m.UARTBase == 0 {
		m.UARTBase = 0x10000000
	}
	if m.CLINTBase == 0 {
		m.CLINTBase = 0x02000000
	}
	if m.PLICBase == 0 {
		m.PLICBase = 0x0C000000
	}
	if m.SysConBase == 0 {
		m.SysConBase = 0x00100000
	}
	if m.Model == "" {
		m.Model = "simple"
	}
}

// CacheConfig describes a single cache level.
type CacheConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SizeKiB      int    `yaml:"size_kib"`
	Ways         int    `yaml:"ways"`
	LineBytes    int    `yaml:"line_bytes"`
	Policy       string `yaml:"policy"`        // lru|fifo|mru|random
	Prefetcher   string `yaml:"prefetcher"`    // none|stream|stride|tagged|ghb
	LatencyHit   int    `yaml:"latency_hit"`
	LatencyMiss  int    `yaml:"latency_miss"`
}

func (c *CacheConfig) applyDefaults(sizeKiB, ways, line, hit, miss int) {
	if c.SizeKiB == 0 {
		c.SizeKiB = sizeKiB
	}
	if c.Ways == 0 {
		c.Ways = ways
	}
	if c.LineBytes == 0 {
		c.LineBytes = line
	}
	if c.Policy == "" {
		c.Policy = "lru"
	}
	if c.Prefetcher == "" {
		c.Prefetcher = "none"
	}
	if c.LatencyHit == 0 {
		c.LatencyHit = hit
	}
	if c.LatencyMiss == 0 {
		c.LatencyMiss = miss
	}
}

// CacheHierarchyConfig describes the L1I/L1D/L2/L3 levels.
type CacheHierarchyConfig struct {
	L1I CacheConfig `yaml:"l1i"`
	L1D CacheConfig `yaml:"l1d"`
	L2  CacheConfig `yaml:"l2"`
	L3  CacheConfig `yaml:"l3"`
}

func (h *CacheHierarchyConfig) applyDefaults() {
	h.L1I.Enabled = true
	h.L1D.Enabled = true
	h.L1I.applyDefaults(32, 4, 64, 1, 30)
	h.L1D.applyDefaults(32, 8, 64, 1, 30)
	h.L2.applyDefaults(256, 8, 64, 8, 60)
	h.L3.applyDefaults(2048, 16, 64, 20, 120)
}

// PipelineConfig describes the in-order pipeline and predictor selection.
type PipelineConfig struct {
	BundleWidth     int              `yaml:"bundle_width"`
	PredictorKind   string           `yaml:"predictor"` // static|gshare|tournament|tage|perceptron
	Tournament      TournamentConfig `yaml:"tournament"`
	TAGE            TAGEConfig       `yaml:"tage"`
	Perceptron      PerceptronConfig `yaml:"perceptron"`
	BTBEntries      int              `yaml:"btb_entries"`
	RASEntries      int              `yaml:"ras_entries"`
}

func (p *PipelineConfig) applyDefaults() {
	if p.BundleWidth == 0 {
		p.BundleWidth = 1
	}
	if p.PredictorKind == "" {
		p.PredictorKind = "gshare"
	}
	if p.BTBEntries == 0 {
		p.BTBEntries = 512
	}
	if p.RASEntries == 0 {
		p.RASEntries = 16
	}
	p.Tournament.applyDefaults()
	p.TAGE.applyDefaults()
	p.Perceptron.applyDefaults()
}

// TournamentConfig configures a local/global tournament predictor.
type TournamentConfig struct {
	LocalHistoryBits  int `yaml:"local_history_bits"`
	GlobalHistoryBits int `yaml:"global_history_bits"`
	ChoiceBits        int `yaml:"choice_bits"`
}

func (t *TournamentConfig) applyDefaults() {
	if t.LocalHistoryBits == 0 {
		t.LocalHistoryBits = 10
	}
	if t.GlobalHistoryBits == 0 {
		t.GlobalHistoryBits = 12
	}
	if t.ChoiceBits == 0 {
		t.ChoiceBits = 12
	}
}

// TAGEConfig configures a TAGE predictor's tagged tables.
type TAGEConfig struct {
	BaseBits   int   `yaml:"base_bits"`
	NumTables  int   `yaml:"num_tables"`
	TagBits    int   `yaml:"tag_bits"`
	HistLenMin int   `yaml:"hist_len_min"`
	HistLenMax int   `yaml:"hist_len_max"`
}

func (t *TAGEConfig) applyDefaults() {
	if t.BaseBits == 0 {
		t.BaseBits = 13
	}
	if t.NumTables == 0 {
		t.NumTables = 4
	}
	if t.TagBits == 0 {
		t.TagBits = 9
	}
	if t.HistLenMin == 0 {
		t.HistLenMin = 5
	}
	if t.HistLenMax == 0 {
		t.HistLenMax = 64
	}
}

// PerceptronConfig configures a perceptron predictor.
type PerceptronConfig struct {
	HistoryLength int `yaml:"history_length"`
	TableEntries  int `yaml:"table_entries"`
	Threshold     int `yaml:"threshold"`
}

func (p *PerceptronConfig) applyDefaults() {
	if p.HistoryLength == 0 {
		p.HistoryLength = 24
	}
	if p.TableEntries == 0 {
		p.TableEntries = 1024
	}
	if p.Threshold == 0 {
		p.Threshold = int(1.93*float64(p.HistoryLength)) + 14
	}
}

// Config is the full simulator configuration document.
type Config struct {
	General  GeneralConfig        `yaml:"general"`
	System   SystemConfig         `yaml:"system"`
	Memory   MemoryConfig         `yaml:"memory"`
	Caches   CacheHierarchyConfig `yaml:"caches"`
	Pipeline PipelineConfig       `yaml:"pipeline"`
}

// Default returns a fully-populated default configuration.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every zero-valued field with its documented default.
func (c *Config) ApplyDefaults() {
	c.General.applyDefaults()
	c.System.applyDefaults()
	c.Memory.applyDefaults()
	c.Caches.applyDefaults()
	c.Pipeline.applyDefaults()
	if c.Pipeline.BundleWidth == 1 && c.System.BundleWidth > 1 {
		c.Pipeline.BundleWidth = c.System.BundleWidth
	}
}

// Validate reports every structural problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Memory.RAMSizeMiB == 0 {
		errs = append(errs, errors.New("config: memory.ram_size_mib must be nonzero"))
	}
	if c.Pipeline.BundleWidth < 1 || c.Pipeline.BundleWidth > 8 {
		errs = append(errs, fmt.Errorf("config: pipeline.bundle_width %d out of range [1,8]", c.Pipeline.BundleWidth))
	}
	switch c.System.InitialPriv {
	case "machine", "supervisor", "user":
	default:
		errs = append(errs, fmt.Errorf("config: system.initial_privilege %q invalid", c.System.InitialPriv))
	}
	switch c.Pipeline.PredictorKind {
	case "static", "gshare", "tournament", "tage", "perceptron":
	default:
		errs = append(errs, fmt.Errorf("config: pipeline.predictor %q unknown", c.Pipeline.PredictorKind))
	}
	for name, cc := range map[string]CacheConfig{
		"l1i": c.Caches.L1I, "l1d": c.Caches.L1D, "l2": c.Caches.L2, "l3": c.Caches.L3,
	} {
		if cc.Enabled && (cc.SizeKiB <= 0 || cc.Ways <= 0 || cc.LineBytes <= 0) {
			errs = append(errs, fmt.Errorf("config: caches.%s has non-positive geometry", name))
		}
	}
	switch c.Memory.Model {
	case "simple", "dram":
	default:
		errs = append(errs, fmt.Errorf("config: memory.controller_model %q unknown", c.Memory.Model))
	}
	return errors.Join(errs...)
}
