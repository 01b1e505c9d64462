package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"turnstile-hq/turnstile/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the server.

All validation failures are reported at once, not just the first.

Examples:
  # Validate the default config
  turnstile validate

  # Validate a specific file
  turnstile validate --config /etc/turnstile/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("✗ Configuration invalid: %s\n", cfgFile)
			for _, fe := range verr.Errors {
				fmt.Printf("  - %s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("%d validation error(s)", len(verr.Errors))
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Printf("  Listen address:  %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  Storage backend: %s\n", cfg.Storage.Backend)
	fmt.Printf("  Daily tokens:    %d\n", cfg.Limits.DailyTokenLimit)
	fmt.Printf("  Hourly tokens:   %d\n", cfg.Limits.HourlyTokenLimit)
	fmt.Printf("  Request tokens:  %d\n", cfg.Limits.RequestTokenLimit)
	fmt.Printf("  Rate limits:     %d/min %d/hr %d/day\n",
		cfg.Limits.RateLimitPerMinute, cfg.Limits.RateLimitPerHour, cfg.Limits.RateLimitPerDay)
	return nil
}
