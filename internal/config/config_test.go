package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", FileName, err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `# test manifest
[scheduler]
capacity = 4
clock = "real"

[trace]
level = "task"

[[task]]
name = "blink"
kind = "blinker"
period_ms = 250

[[task]]
name = "steps"
kind = "stepper"
period_ms = 30
stages = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.Capacity != 4 || cfg.Scheduler.Clock != "real" {
		t.Fatalf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.StepMS != 1 {
		t.Fatalf("StepMS default lost: %d", cfg.Scheduler.StepMS)
	}
	if cfg.Trace.Level != "task" || cfg.Trace.Mode != "stream" {
		t.Fatalf("trace = %+v", cfg.Trace)
	}
	if len(cfg.Tasks) != 2 || cfg.Tasks[1].Stages != 3 {
		t.Fatalf("tasks = %+v", cfg.Tasks)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"missing scheduler", "[trace]\nlevel = \"off\"\n", "missing [scheduler]"},
		{"missing capacity", "[scheduler]\nclock = \"real\"\n", "missing [scheduler].capacity"},
		{"capacity too large", "[scheduler]\ncapacity = 32\n", "capacity must be in 1..31"},
		{"bad clock", "[scheduler]\ncapacity = 2\nclock = \"atomic\"\n", "clock must be real or virtual"},
		{"unknown key", "[scheduler]\ncapacity = 2\nturbo = true\n", "unknown keys: scheduler.turbo"},
		{"too many tasks", "[scheduler]\ncapacity = 1\n[[task]]\nname = \"a\"\nkind = \"ticker\"\n[[task]]\nname = \"b\"\nkind = \"ticker\"\n", "do not fit"},
		{"unknown kind", "[scheduler]\ncapacity = 1\n[[task]]\nname = \"a\"\nkind = \"spinner\"\n", "unknown kind"},
		{"duplicate name", "[scheduler]\ncapacity = 2\n[[task]]\nname = \"a\"\nkind = \"ticker\"\n[[task]]\nname = \"a\"\nkind = \"ticker\"\n", "duplicate name"},
	}
	for _, tc := range cases {
		path := writeManifest(t, t.TempDir(), tc.data)
		_, err := Load(path)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "[scheduler]\ncapacity = 1\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find(%q) = %q, %v, %v", nested, got, ok, err)
	}
	if got != path {
		t.Fatalf("Find = %q, want %q", got, path)
	}
}

func TestEncodeRoundTripsDefault(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Default()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := writeManifest(t, t.TempDir(), buf.String())
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(encoded default): %v\n%s", err, buf.String())
	}
	if len(cfg.Tasks) != len(Default().Tasks) {
		t.Fatalf("tasks = %d, want %d", len(cfg.Tasks), len(Default().Tasks))
	}
}

func TestTicks(t *testing.T) {
	if v, err := Ticks(250); err != nil || v != 250 {
		t.Fatalf("Ticks(250) = %d, %v", v, err)
	}
	if _, err := Ticks(-1); err == nil {
		t.Fatalf("Ticks(-1) should fail")
	}
}
