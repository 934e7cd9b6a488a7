package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and print the report",
	Long:  "Fetches, scores and stores listings once. With application.auto_apply set it also runs the applier. Use --dry-run to force dry-run mode for this run.",
	RunE:  runOnce,
}

var runDryRun bool

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Force dry-run mode regardless of config")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	var overrides []func(*config.Config)
	if runDryRun {
		overrides = append(overrides, func(c *config.Config) { c.Application.DryRun = true })
	}
	a, err := openApp(cmd.Context(), overrides...)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.runner.RunOnce(cmd.Context(), pipeline.TriggerCLI)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
