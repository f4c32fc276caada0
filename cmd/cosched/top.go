package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cosched/internal/ui"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Watch task states live",
	Long: `Run one scheduler from cosched.toml and render a live table of its
tasks. Press q to quit. Without a terminal the final table is printed.`,
	Args: cobra.NoArgs,
	RunE: runTop,
}

func init() {
	addSchedulerFlags(topCmd)
	topCmd.Flags().Int("steps", 0, "scheduling cycles to run (0 runs until quit)")
	topCmd.Flags().Int("every", 50, "cycles between frames")
	topCmd.Flags().Duration("frame-delay", 30*time.Millisecond, "pause between frames")
	topCmd.Flags().String("ui", "auto", "live view (auto|on|off)")
}

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func runTop(cmd *cobra.Command, _ []string) error {
	cfg, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	if err = applySchedulerFlags(cmd, &cfg); err != nil {
		return err
	}
	steps, err := cmd.Flags().GetInt("steps")
	if err != nil {
		return fmt.Errorf("failed to get steps flag: %w", err)
	}
	every, err := cmd.Flags().GetInt("every")
	if err != nil {
		return fmt.Errorf("failed to get every flag: %w", err)
	}
	delay, err := cmd.Flags().GetDuration("frame-delay")
	if err != nil {
		return fmt.Errorf("failed to get frame-delay flag: %w", err)
	}
	modeStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(modeStr)
	if err != nil {
		return err
	}
	if steps < 0 || every < 1 {
		return fmt.Errorf("--steps must not be negative and --every must be at least 1")
	}

	tr, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	defer tr.close(cmd)

	in, err := newInstance(0, cfg, tr.tracer)
	if err != nil {
		return err
	}
	defer in.close()

	if !shouldUseTUI(mode) {
		if steps == 0 {
			return fmt.Errorf("--steps is required without a terminal")
		}
		if err := in.run(cmd.Context(), steps); err != nil {
			return err
		}
		printFrame(cmd.OutOrStdout(), snapshotFrame(in, steps))
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	frames := make(chan ui.Frame)
	errCh := make(chan error, 1)
	go func() {
		defer close(frames)
		errCh <- produceFrames(ctx, in, frames, steps, every, delay)
	}()

	program := tea.NewProgram(ui.NewTopModel("cosched top", frames), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	cancel()
	runErr := <-errCh
	if uiErr != nil {
		return uiErr
	}
	return runErr
}

// produceFrames runs the scheduler on the calling goroutine and publishes
// a snapshot every few cycles. The scheduler is never touched elsewhere
// while it runs.
func produceFrames(ctx context.Context, in *instance, frames chan<- ui.Frame, steps, every int, delay time.Duration) error {
	for cycle := 0; steps == 0 || cycle < steps; {
		batch := every
		if steps > 0 && steps-cycle < batch {
			batch = steps - cycle
		}
		if err := in.run(ctx, batch); err != nil {
			return err
		}
		cycle += batch
		select {
		case frames <- snapshotFrame(in, steps):
		case <-ctx.Done():
			return nil
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

func snapshotFrame(in *instance, steps int) ui.Frame {
	total := uint64(0)
	if steps > 0 {
		total = uint64(steps) //nolint:gosec // checked non-negative
	}
	return ui.Frame{
		Cycle: in.cycles.Load(),
		Total: total,
		Tick:  in.now(),
		Tasks: in.sched.Snapshot(),
	}
}

func printFrame(out io.Writer, f ui.Frame) {
	fmt.Fprintf(out, "cycle %d  tick %d\n", f.Cycle, f.Tick)
	for _, t := range f.Tasks {
		lock := ""
		if t.HoldsLock {
			lock = " *"
		}
		fmt.Fprintf(out, "  %3d %-16s %-9s marker=%d timeout=%d runs=%d%s\n",
			t.Handle, t.Name, t.State, t.Marker, t.Timeout, t.Activations, lock)
	}
}
