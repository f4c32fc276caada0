package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cosched/internal/config"
	"cosched/internal/trace"
)

// tracing is the tracer of one command invocation plus its teardown.
type tracing struct {
	tracer    trace.Tracer
	heartbeat time.Duration
	hb        *trace.Heartbeat
	dumpPath  string
}

// setupTracing merges the [trace] table with the --trace flags, builds the
// tracer and attaches it to the command context.
func setupTracing(cmd *cobra.Command, tc config.TraceConfig) (*tracing, error) {
	root := cmd.Root().PersistentFlags()
	if root.Changed("trace") {
		v, err := root.GetString("trace")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace flag: %w", err)
		}
		tc.Output = v
		if !root.Changed("trace-level") && (tc.Level == "" || tc.Level == "off") {
			tc.Level = "task"
		}
	}
	if root.Changed("trace-level") {
		v, err := root.GetString("trace-level")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
		}
		tc.Level = v
	}
	if root.Changed("trace-mode") {
		v, err := root.GetString("trace-mode")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
		}
		tc.Mode = v
	}
	if root.Changed("trace-format") {
		v, err := root.GetString("trace-format")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
		}
		tc.Format = v
	}
	if root.Changed("trace-ring-size") {
		v, err := root.GetInt("trace-ring-size")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
		}
		tc.RingSize = v
	}
	heartbeat, err := root.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	if !root.Changed("trace-heartbeat") && tc.Heartbeat != "" {
		heartbeat, err = time.ParseDuration(tc.Heartbeat)
		if err != nil {
			return nil, fmt.Errorf("invalid heartbeat: %w", err)
		}
	}

	level, err := trace.ParseLevel(tc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return &tracing{tracer: trace.Nop}, nil
	}
	mode := trace.ModeStream
	if tc.Mode != "" {
		if mode, err = trace.ParseMode(tc.Mode); err != nil {
			return nil, fmt.Errorf("invalid trace mode: %w", err)
		}
	}
	format := trace.FormatAuto
	if tc.Format != "" {
		if format, err = trace.ParseFormat(tc.Format); err != nil {
			return nil, fmt.Errorf("invalid trace format: %w", err)
		}
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: tc.Output,
		RingSize:   tc.RingSize,
		Heartbeat:  heartbeat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return &tracing{tracer: tracer, heartbeat: heartbeat}, nil
}

// startHeartbeat begins periodic heartbeat events; status supplies the detail.
func (t *tracing) startHeartbeat(status func() string) {
	if t.heartbeat > 0 {
		t.hb = trace.StartHeartbeat(t.tracer, t.heartbeat, status)
	}
}

// ring returns the in-memory buffer when the tracer keeps one.
func (t *tracing) ring() *trace.RingTracer {
	switch tr := t.tracer.(type) {
	case *trace.RingTracer:
		return tr
	case *trace.MultiTracer:
		return tr.Ring()
	default:
		return nil
	}
}

// close stops the heartbeat, dumps the ring when asked and releases the
// output. Errors are reported on stderr.
func (t *tracing) close(cmd *cobra.Command) {
	t.hb.Stop()
	if t.dumpPath != "" {
		if err := t.dump(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
		} else if n := t.ring().Dropped(); n > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %d older events overwritten, raise --trace-ring-size to keep them\n", n)
		}
	}
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}

func (t *tracing) dump() error {
	ring := t.ring()
	if ring == nil {
		return fmt.Errorf("no ring buffer (use --trace-mode ring or both)")
	}
	f, err := os.Create(t.dumpPath)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", t.dumpPath, err)
	}
	if err := ring.Dump(f, trace.FormatFromPath(t.dumpPath)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
