// Command engine scores job listings and applies to the best ones.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "engine",
	Short:         "Job listing scorer and auto-apply engine",
	Long:          "engine pulls job listings from configured sources, scores them against your preferences and, when enabled, applies to the ones above the threshold within a daily limit.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagDataDir string
	flagConfig  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Engine data directory (default $JOBAPPLY_DATA_DIR or the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to config.yml (default <data-dir>/config.yml)")
	rootCmd.Version = version
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
