package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobapply-engine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the engine configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config.yml and print errors and warnings",
	RunE:  runConfigValidate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path, creating the default file if missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := resolveConfigPath(resolveDataDir())
		if err != nil {
			return err
		}
		abs, _ := filepath.Abs(path)
		fmt.Fprintln(cmd.OutOrStdout(), abs)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var errConfigInvalid = errors.New("configuration has errors")

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath(resolveDataDir())
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := config.Parse(b)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := config.OverlayEnv(&cfg); err != nil {
		return err
	}

	_, vr := config.NormalizeAndValidate(cfg)
	return reportValidation(cmd, path, vr)
}

func reportValidation(cmd *cobra.Command, path string, vr config.Validation) error {
	w := cmd.OutOrStdout()
	for _, e := range vr.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, wn := range vr.Warnings {
		fmt.Fprintf(w, "warning: %s\n", wn)
	}
	if !vr.OK() {
		return fmt.Errorf("%s: %w (%d)", path, errConfigInvalid, len(vr.Errors))
	}
	fmt.Fprintf(w, "%s: ok (%d warnings)\n", path, len(vr.Warnings))
	return nil
}
