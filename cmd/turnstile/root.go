package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "turnstile",
	Short: "Turnstile - admission control and usage accounting for LLM APIs",
	Long: `Turnstile guards token-consuming operations behind admission control.

It provides:
  - Token budget enforcement (daily, hourly, and per-request)
  - Per-client request rate limiting (minute, hour, and day windows)
  - Usage monitoring with threshold alerting
  - Persistent usage counters and alert history`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
