package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"turnstile-hq/turnstile/pkg/admission"
	"turnstile-hq/turnstile/pkg/admission/governor"
	"turnstile-hq/turnstile/pkg/admission/ratelimit"
	"turnstile-hq/turnstile/pkg/admission/storage"
	"turnstile-hq/turnstile/pkg/config"
	"turnstile-hq/turnstile/pkg/monitor"
	"turnstile-hq/turnstile/pkg/monitor/retention"
	"turnstile-hq/turnstile/pkg/server"
	"turnstile-hq/turnstile/pkg/telemetry/logging"
	"turnstile-hq/turnstile/pkg/telemetry/metrics"
	"turnstile-hq/turnstile/pkg/tokens"
)

// clientIdleTimeout is the inactivity cutoff for sweeping rate-limiter
// clients. A client idle past its longest window carries no state worth
// keeping.
const clientIdleTimeout = 24 * time.Hour

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Turnstile server",
	Long: `Start the Turnstile server with the specified configuration.

The server exposes usage inspection, alert queries, and administrative
endpoints, with every request gated through the per-client rate limiter.

Examples:
  # Start with default config
  turnstile run

  # Start with custom config
  turnstile run --config /etc/turnstile/config.yaml

  # Override listen address
  turnstile run --listen 0.0.0.0:8080

  # Validate config without starting server
  turnstile run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Turnstile v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	// Persistence backends
	usageStore, alertStore, err := openStores(cfg, logger)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(metrics.Config{
		Enabled: cfg.Telemetry.Metrics.Enabled,
	}, nil)

	mgr := admission.NewManager(buildAdmissionConfig(cfg), usageStore, alertStore, logger)
	mgr.SetMetrics(collector)
	defer mgr.Close()

	fmt.Println("✓ Admission manager initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduled maintenance: usage threshold sweep, alert pruning, and
	// idle client eviction.
	scheduler := retention.NewScheduler(retention.Config{
		Schedule:          cfg.Monitoring.MaintenanceSchedule,
		RetentionDays:     cfg.Monitoring.RetentionDays,
		ClientIdleTimeout: clientIdleTimeout,
		Evaluate:          mgr.EvaluateUsage,
	}, mgr.Monitor(), mgr.Limiter())

	if err := scheduler.Start(ctx); err != nil {
		logger.Warn("failed to start maintenance scheduler", "error", err)
	} else {
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			logger.Debug("maintenance scheduler started", "next_run", next)
		}
	}

	// Configuration hot reload. Structural changes need a restart; the
	// watcher surfaces whether an edited file would still load.
	startConfigWatcher(ctx, cfgFile, logger)

	srv := server.NewServer(cfg.Server, cfg.Telemetry.Metrics, mgr, collector, Version, logger)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal, context cancellation, or server error.
	if err := srv.Start(ctx); err != nil {
		return err
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// openStores creates the configured persistence backends. The memory
// backend returns nil stores; the admission manager treats those as
// memory-only operation.
func openStores(cfg *config.Config, logger *slog.Logger) (storage.Backend, monitor.AlertStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		usageStore, err := storage.NewSQLiteBackend(cfg.Storage.UsagePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open usage store: %w", err)
		}

		alertStore, err := monitor.NewSQLiteAlertStore(cfg.Storage.AlertsPath)
		if err != nil {
			usageStore.Close()
			return nil, nil, fmt.Errorf("failed to open alert store: %w", err)
		}

		logger.Info("sqlite persistence enabled",
			"usage_path", cfg.Storage.UsagePath,
			"alerts_path", cfg.Storage.AlertsPath,
		)
		return usageStore, alertStore, nil

	case "memory":
		return storage.NewMemoryBackend(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// buildAdmissionConfig maps the file configuration onto the admission
// component configs. Negative limits pass through unchanged; downstream
// treats non-positive limits as unenforced.
func buildAdmissionConfig(cfg *config.Config) admission.Config {
	return admission.Config{
		Governor: governor.Config{
			DailyLimit:   cfg.Limits.DailyTokenLimit,
			HourlyLimit:  cfg.Limits.HourlyTokenLimit,
			RequestLimit: cfg.Limits.RequestTokenLimit,
		},
		RateLimit: ratelimit.Config{
			PerMinute:  cfg.Limits.RateLimitPerMinute,
			PerHour:    cfg.Limits.RateLimitPerHour,
			PerDay:     cfg.Limits.RateLimitPerDay,
			MaxClients: cfg.Limits.MaxClients,
		},
		Monitor: monitor.Config{
			MaxAlerts:           cfg.Monitoring.MaxAlerts,
			DailyUsageWarning:   cfg.Monitoring.DailyUsageWarningThreshold,
			DailyUsageCritical:  cfg.Monitoring.DailyUsageCriticalThreshold,
			HourlyUsageWarning:  cfg.Monitoring.HourlyUsageWarningThreshold,
			HourlyUsageCritical: cfg.Monitoring.HourlyUsageCriticalThreshold,
			RateLimitWarning:    cfg.Monitoring.RateLimitWarningThreshold,
			RateLimitCritical:   cfg.Monitoring.RateLimitCriticalThreshold,
		},
		Tokens: tokens.Config{
			MaxTextLength:     cfg.Tokens.MaxTextLength,
			MaxQuestionLength: cfg.Tokens.MaxQuestionLength,
		},
	}
}

// startConfigWatcher watches the config file and revalidates it on
// change. Applied limits keep their startup values until restart; the
// watcher exists so an operator learns about a broken edit before the
// next restart fails.
func startConfigWatcher(ctx context.Context, path string, logger *slog.Logger) {
	watcher, err := config.NewFileWatcher(path, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
		return
	}

	go func() {
		err := watcher.Watch(ctx, func() error {
			if _, err := config.LoadConfigWithEnvOverrides(path); err != nil {
				return err
			}
			logger.Info("configuration file valid, restart to apply changes")
			return nil
		})
		if err != nil {
			logger.Warn("config watcher exited", "error", err)
		}
	}()
}
