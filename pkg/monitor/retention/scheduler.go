// Package retention runs periodic maintenance over the alert history
// and the rate limiter's client table: aging out old alerts, evaluating
// usage thresholds so trends are caught between requests, and sweeping
// idle client entries.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner ages out alert history entries.
type Pruner interface {
	Prune(days int) int
}

// Sweeper evicts idle rate-limiter clients.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Config controls the maintenance schedule.
type Config struct {
	// Schedule is a standard cron expression. Empty disables the
	// scheduler entirely.
	//
	// Common expressions:
	//   - "0 3 * * *"    - daily at 3 AM
	//   - "0 */6 * * *"  - every 6 hours
	//   - "*/15 * * * *" - every 15 minutes
	Schedule string

	// RetentionDays is the alert age cutoff passed to the pruner.
	RetentionDays int

	// ClientIdleTimeout is the inactivity cutoff for sweeping
	// rate-limiter clients.
	ClientIdleTimeout time.Duration

	// Evaluate runs the usage threshold check on each cycle. Optional.
	Evaluate func()
}

// Scheduler runs the maintenance cycle on a cron schedule.
type Scheduler struct {
	config  Config
	pruner  Pruner
	sweeper Sweeper
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a maintenance scheduler. Either the pruner or
// the sweeper may be nil; the corresponding step is skipped.
func NewScheduler(cfg Config, pruner Pruner, sweeper Sweeper) *Scheduler {
	return &Scheduler{
		config:  cfg,
		pruner:  pruner,
		sweeper: sweeper,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "retention"),
	}
}

// Start begins the scheduled maintenance. If no schedule is configured,
// Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("maintenance schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, s.runCycle)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("maintenance scheduler started",
		"schedule", s.config.Schedule,
		"retention_days", s.config.RetentionDays,
		"client_idle_timeout", s.config.ClientIdleTimeout,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runCycle executes one maintenance pass.
func (s *Scheduler) runCycle() {
	s.logger.Debug("starting maintenance cycle")

	if s.config.Evaluate != nil {
		s.config.Evaluate()
	}

	if s.pruner != nil && s.config.RetentionDays > 0 {
		removed := s.pruner.Prune(s.config.RetentionDays)
		if removed > 0 {
			s.logger.Info("pruned alert history", "removed", removed)
		}
	}

	if s.sweeper != nil && s.config.ClientIdleTimeout > 0 {
		evicted := s.sweeper.Sweep(s.config.ClientIdleTimeout)
		if evicted > 0 {
			s.logger.Info("swept idle clients", "evicted", evicted)
		}
	}
}

// Stop stops the scheduler and waits for a running cycle to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled maintenance time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
