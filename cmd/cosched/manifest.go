package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cosched/internal/config"
)

// loadManifest resolves --config, falls back to searching upward from the
// working directory and finally to the built-in default.
func loadManifest(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		found, ok, err := config.Find(wd)
		if err != nil {
			return config.Config{}, err
		}
		if !ok {
			return config.Default(), nil
		}
		path = found
	}
	return config.Load(path)
}

// applySchedulerFlags overrides manifest values with flags the user set.
func applySchedulerFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("capacity") {
		v, err := flags.GetInt("capacity")
		if err != nil {
			return fmt.Errorf("failed to get capacity flag: %w", err)
		}
		cfg.Scheduler.Capacity = v
	}
	if flags.Changed("clock") {
		v, err := flags.GetString("clock")
		if err != nil {
			return fmt.Errorf("failed to get clock flag: %w", err)
		}
		cfg.Scheduler.Clock = v
	}
	if flags.Changed("step-ms") {
		v, err := flags.GetInt("step-ms")
		if err != nil {
			return fmt.Errorf("failed to get step-ms flag: %w", err)
		}
		cfg.Scheduler.StepMS = v
	}
	return cfg.Validate()
}

func addSchedulerFlags(cmd *cobra.Command) {
	cmd.Flags().Int("capacity", 0, "override [scheduler].capacity")
	cmd.Flags().String("clock", "", "override [scheduler].clock (real|virtual)")
	cmd.Flags().Int("step-ms", 0, "override [scheduler].step_ms")
}
