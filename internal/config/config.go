// Package config loads cosched.toml, the description of a scheduler run:
// capacity, tick source, tracing and the tasks to register.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"cosched/internal/sched"
)

// FileName is the manifest looked up by Find.
const FileName = "cosched.toml"

// Task kinds understood by the workload package.
const (
	KindBlinker = "blinker"
	KindLocker  = "locker"
	KindStepper = "stepper"
	KindTicker  = "ticker"
)

var knownKinds = []string{KindBlinker, KindLocker, KindStepper, KindTicker}

// Config is the decoded manifest.
type Config struct {
	Path      string          `toml:"-"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Trace     TraceConfig     `toml:"trace"`
	Tasks     []TaskConfig    `toml:"task"`
}

// SchedulerConfig sizes the registry and picks the tick source.
type SchedulerConfig struct {
	Capacity    int    `toml:"capacity"`
	Clock       string `toml:"clock"`         // real | virtual
	StepMS      int    `toml:"step_ms"`       // virtual clock advance per cycle
	IdleSleepMS int    `toml:"idle_sleep_ms"` // real clock idle back-off
}

// TraceConfig mirrors the --trace flags.
type TraceConfig struct {
	Level     string `toml:"level"`
	Mode      string `toml:"mode"`
	Output    string `toml:"output"`
	Format    string `toml:"format"`
	RingSize  int    `toml:"ring_size"`
	Heartbeat string `toml:"heartbeat"`
}

// TaskConfig describes one task to register.
type TaskConfig struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	PeriodMS int    `toml:"period_ms"`
	HoldMS   int    `toml:"hold_ms,omitempty"`
	Stages   int    `toml:"stages,omitempty"`
}

// Default returns the configuration used when no manifest exists.
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{Capacity: 8, Clock: "virtual", StepMS: 1, IdleSleepMS: 1},
		Trace:     TraceConfig{Level: "off", Mode: "stream", Output: "-", RingSize: 4096},
		Tasks: []TaskConfig{
			{Name: "blink", Kind: KindBlinker, PeriodMS: 250},
			{Name: "writer-a", Kind: KindLocker, PeriodMS: 40, HoldMS: 120},
			{Name: "writer-b", Kind: KindLocker, PeriodMS: 60, HoldMS: 80},
			{Name: "sampler", Kind: KindStepper, PeriodMS: 30, Stages: 4},
			{Name: "ticker", Kind: KindTicker},
		},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes and validates a manifest. Missing optional keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Tasks = nil
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("scheduler") {
		return Config{}, fmt.Errorf("%s: missing [scheduler]", path)
	}
	if !meta.IsDefined("scheduler", "capacity") {
		return Config{}, fmt.Errorf("%s: missing [scheduler].capacity", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Scheduler.Capacity < 1 || c.Scheduler.Capacity > sched.MaxCapacity {
		return fmt.Errorf("[scheduler].capacity must be in 1..%d, got %d", sched.MaxCapacity, c.Scheduler.Capacity)
	}
	switch c.Scheduler.Clock {
	case "real", "virtual":
	default:
		return fmt.Errorf("[scheduler].clock must be real or virtual, got %q", c.Scheduler.Clock)
	}
	if c.Scheduler.StepMS < 0 || c.Scheduler.IdleSleepMS < 0 {
		return fmt.Errorf("[scheduler] durations must not be negative")
	}
	if len(c.Tasks) > c.Scheduler.Capacity {
		return fmt.Errorf("%d tasks do not fit in capacity %d", len(c.Tasks), c.Scheduler.Capacity)
	}
	seen := make(map[string]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("[[task]] #%d: missing name", i+1)
		}
		if seen[t.Name] {
			return fmt.Errorf("[[task]] %q: duplicate name", t.Name)
		}
		seen[t.Name] = true
		if !isKnownKind(t.Kind) {
			return fmt.Errorf("[[task]] %q: unknown kind %q (expected: %s)", t.Name, t.Kind, strings.Join(knownKinds, "|"))
		}
		if t.PeriodMS < 0 || t.HoldMS < 0 || t.Stages < 0 {
			return fmt.Errorf("[[task]] %q: durations and stages must not be negative", t.Name)
		}
	}
	if c.Trace.Heartbeat != "" {
		if _, err := time.ParseDuration(c.Trace.Heartbeat); err != nil {
			return fmt.Errorf("[trace].heartbeat: %w", err)
		}
	}
	return nil
}

func isKnownKind(kind string) bool {
	for _, k := range knownKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Ticks converts a millisecond setting to scheduler ticks.
func Ticks(ms int) (uint32, error) {
	v, err := safecast.Conv[uint32](ms)
	if err != nil {
		return 0, fmt.Errorf("duration %d ms out of tick range: %w", ms, err)
	}
	return v, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return nil
}
