package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return DefaultConfig()
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddress = ""
	cfg.Storage.Backend = "postgres"
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr)
	}
	if !strings.Contains(err.Error(), "3 errors") {
		t.Errorf("expected error count in message, got %q", err.Error())
	}
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{
			"warning above critical",
			func(c *Config) {
				c.Monitoring.DailyUsageWarningThreshold = 0.96
				c.Monitoring.DailyUsageCriticalThreshold = 0.95
			},
			false,
		},
		{
			"threshold above one",
			func(c *Config) { c.Monitoring.RateLimitCriticalThreshold = 1.5 },
			false,
		},
		{
			"threshold below zero",
			func(c *Config) { c.Monitoring.HourlyUsageWarningThreshold = -0.1 },
			false,
		},
		{
			"equal warning and critical",
			func(c *Config) {
				c.Monitoring.DailyUsageWarningThreshold = 0.9
				c.Monitoring.DailyUsageCriticalThreshold = 0.9
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateStorage(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "sqlite"

	// sqlite requires both paths.
	if err := Validate(cfg); err == nil {
		t.Error("expected error for sqlite backend without paths")
	}

	cfg.Storage.UsagePath = "/var/lib/turnstile/usage.db"
	cfg.Storage.AlertsPath = "/var/lib/turnstile/alerts.db"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid sqlite config, got %v", err)
	}
}

func TestValidateMaintenanceSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Monitoring.MaintenanceSchedule = "99 99 * * *"

	if err := Validate(cfg); err == nil {
		t.Error("expected error for invalid cron expression")
	}

	cfg.Monitoring.MaintenanceSchedule = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("empty schedule should be valid, got %v", err)
	}
}

func TestValidateNegativeLimitsAllowed(t *testing.T) {
	// -1 disables a check downstream; validation must not reject it.
	cfg := validConfig()
	cfg.Limits.DailyTokenLimit = -1
	cfg.Limits.RateLimitPerMinute = -1

	if err := Validate(cfg); err != nil {
		t.Errorf("negative limits should validate, got %v", err)
	}
}
