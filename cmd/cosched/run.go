package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cosched/internal/config"
	"cosched/internal/observ"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tasks of a manifest",
	Long: `Build a scheduler from cosched.toml, register its tasks and run them.
With --steps 0 the run lasts until interrupted. --instances starts several
independent schedulers, each on its own goroutine.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	addSchedulerFlags(runCmd)
	runCmd.Flags().Int("steps", 10000, "scheduling cycles per instance (0 runs until interrupted)")
	runCmd.Flags().Int("instances", 1, "number of independent schedulers")
	runCmd.Flags().Bool("stats", true, "print per-task statistics")
	runCmd.Flags().String("stats-json", "", "write statistics as JSON to this file")
	runCmd.Flags().String("trace-dump", "", "write the trace ring buffer to this file on exit")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
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
	count, err := cmd.Flags().GetInt("instances")
	if err != nil {
		return fmt.Errorf("failed to get instances flag: %w", err)
	}
	showStats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return fmt.Errorf("failed to get stats flag: %w", err)
	}
	statsJSON, err := cmd.Flags().GetString("stats-json")
	if err != nil {
		return fmt.Errorf("failed to get stats-json flag: %w", err)
	}
	dumpPath, err := cmd.Flags().GetString("trace-dump")
	if err != nil {
		return fmt.Errorf("failed to get trace-dump flag: %w", err)
	}
	if steps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}
	if count < 1 {
		return fmt.Errorf("--instances must be at least 1")
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	tr, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	tr.dumpPath = dumpPath
	defer tr.close(cmd)

	instances := make([]*instance, 0, count)
	for i := range count {
		in, err := newInstance(i, cfg, tr.tracer)
		if err != nil {
			return err
		}
		defer in.close()
		instances = append(instances, in)
	}
	tr.startHeartbeat(func() string { return progress(instances) })

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := runInstances(ctx, instances, steps); err != nil {
		return err
	}

	if showStats {
		printSummary(cmd.OutOrStdout(), cfg, instances)
	}
	if statsJSON != "" {
		if err := writeStatsJSON(statsJSON, instances); err != nil {
			return err
		}
	}
	return nil
}

// runInstances drives every instance on its own goroutine. The first error
// cancels the rest.
func runInstances(ctx context.Context, instances []*instance, steps int) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, in := range instances {
		g.Go(func() error {
			return in.run(ctx, steps)
		})
	}
	return g.Wait()
}

func progress(instances []*instance) string {
	var cycles, idles uint64
	for _, in := range instances {
		cycles += in.cycles.Load()
		idles += in.idles.Load()
	}
	return fmt.Sprintf("cycles=%d idle=%d", cycles, idles)
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	badColor    = color.New(color.FgRed, color.Bold)
)

func printSummary(out io.Writer, cfg config.Config, instances []*instance) {
	source := cfg.Path
	if source == "" {
		source = "built-in default"
	}
	fmt.Fprintf(out, "manifest: %s  clock: %s  capacity: %d\n", source, cfg.Scheduler.Clock, cfg.Scheduler.Capacity)
	for _, in := range instances {
		headerColor.Fprintf(out, "instance %d", in.id)
		fmt.Fprintf(out, "  trace #%d  tick %d\n", in.sched.TraceID(), in.now())
		fmt.Fprint(out, indent(in.stats.Summary()))

		mark := okColor
		if in.board.Overlaps > 0 {
			mark = badColor
		}
		mark.Fprintf(out, "  board: %d writes, %d overlaps\n", in.board.Writes, in.board.Overlaps)
		for _, t := range in.tasks {
			fmt.Fprintf(out, "  %-16s %-8s %d cycles\n", t.Name, t.Kind, t.Count)
		}
	}
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString("  ")
		b.WriteString(l)
	}
	return b.String()
}

type statsFile struct {
	Instances []observ.Report `json:"instances"`
}

func writeStatsJSON(path string, instances []*instance) error {
	payload := statsFile{Instances: make([]observ.Report, 0, len(instances))}
	for _, in := range instances {
		payload.Instances = append(payload.Instances, in.stats.Report())
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}
