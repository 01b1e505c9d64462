package governor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"turnstile-hq/turnstile/pkg/admission/storage"
)

// Governor tracks cumulative token consumption against per-request,
// hourly, and daily budgets. There is one Governor per process,
// constructed at startup with injected configuration.
//
// All counter mutation happens under a single mutex so that a denied
// admission is never observable as having consumed quota, and two
// concurrent admissions cannot both be admitted when only one fits.
// Persistence writes happen outside that lock.
type Governor struct {
	config Config

	// usage holds the authoritative in-memory counters.
	usage storage.UsageState

	store  storage.Backend
	logger *slog.Logger

	mu sync.Mutex

	// persistWG tracks in-flight best-effort persistence writes so
	// Close can flush them.
	persistWG sync.WaitGroup

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// New creates a Governor, seeding counters from the backend's persisted
// snapshot when one exists and is not stale. A snapshot from a previous
// calendar day is discarded wholesale; one from an earlier hour of the
// same day keeps its daily totals but restarts the hourly window.
func New(cfg Config, store storage.Backend, logger *slog.Logger) *Governor {
	if cfg.DailyResetPolicy == "" {
		cfg.DailyResetPolicy = ResetCalendarDay
	}
	if cfg.HourlyResetPolicy == "" {
		cfg.HourlyResetPolicy = ResetElapsed
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Governor{
		config: cfg,
		store:  store,
		logger: logger.With("component", "governor"),
		now:    time.Now,
	}

	now := g.now()
	g.usage = storage.UsageState{
		DailyWindowStart:  now,
		HourlyWindowStart: now,
	}

	if store != nil {
		if loaded, err := store.LoadUsage(context.Background()); err != nil {
			g.logger.Warn("failed to load usage snapshot, starting fresh", "error", err)
		} else if loaded != nil {
			g.usage = *loaded
			g.rollover(now)
		}
	}

	return g
}

// Admit checks whether a call with the given estimated token count may
// proceed. Constraints are evaluated in fixed order: daily cumulative
// budget, hourly cumulative budget, per-request ceiling. The first
// violated constraint denies the call and its reason is returned.
//
// Zero and negative estimates are treated as zero; Admit never fails
// for malformed input. A denial mutates no counters.
func (g *Governor) Admit(estimatedTokens int64, op Operation) Decision {
	if estimatedTokens < 0 {
		estimatedTokens = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollover(g.now())

	if g.config.DailyLimit > 0 && g.usage.TotalTokens+estimatedTokens > g.config.DailyLimit {
		return Decision{
			Scope: ScopeDaily,
			Reason: fmt.Sprintf("daily token limit exceeded (%d): current usage %d, request would add %d",
				g.config.DailyLimit, g.usage.TotalTokens, estimatedTokens),
		}
	}

	if g.config.HourlyLimit > 0 && g.usage.HourlyUsage+estimatedTokens > g.config.HourlyLimit {
		return Decision{
			Scope: ScopeHourly,
			Reason: fmt.Sprintf("hourly token limit exceeded (%d): current hourly usage %d, request would add %d",
				g.config.HourlyLimit, g.usage.HourlyUsage, estimatedTokens),
		}
	}

	if g.config.RequestLimit > 0 && estimatedTokens > g.config.RequestLimit {
		return Decision{
			Scope: ScopePerRequest,
			Reason: fmt.Sprintf("request token limit exceeded (%d): estimated tokens %d",
				g.config.RequestLimit, estimatedTokens),
		}
	}

	return Decision{Allowed: true}
}

// Commit records actual post-hoc usage in all counters. Negative inputs
// are clamped to zero so counters never go negative. The hourly-window
// rollover check is applied before adding, so usage reported just after
// an hour boundary lands in the fresh window.
func (g *Governor) Commit(promptTokens, completionTokens, embeddingTokens int64) {
	if promptTokens < 0 {
		promptTokens = 0
	}
	if completionTokens < 0 {
		completionTokens = 0
	}
	if embeddingTokens < 0 {
		embeddingTokens = 0
	}

	total := promptTokens + completionTokens + embeddingTokens

	g.mu.Lock()
	g.rollover(g.now())

	g.usage.PromptTokens += promptTokens
	g.usage.CompletionTokens += completionTokens
	g.usage.EmbeddingTokens += embeddingTokens
	g.usage.TotalTokens += total
	g.usage.HourlyUsage += total

	snapshot := g.usage
	g.mu.Unlock()

	g.persistAsync(&snapshot)
}

// Snapshot returns a point-in-time view of the counters, applying any
// due window resets first.
func (g *Governor) Snapshot() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rollover(g.now())

	return Usage{
		TotalTokens:      g.usage.TotalTokens,
		PromptTokens:     g.usage.PromptTokens,
		CompletionTokens: g.usage.CompletionTokens,
		EmbeddingTokens:  g.usage.EmbeddingTokens,
		HourlyUsage:      g.usage.HourlyUsage,
		DailyLimit:       g.config.DailyLimit,
		HourlyLimit:      g.config.HourlyLimit,
		RequestLimit:     g.config.RequestLimit,
		DailyRemaining:   remaining(g.config.DailyLimit, g.usage.TotalTokens),
		HourlyRemaining:  remaining(g.config.HourlyLimit, g.usage.HourlyUsage),
		LastReset:        g.usage.DailyWindowStart,
		HourlyReset:      g.usage.HourlyWindowStart,
	}
}

// ResetDaily zeroes all counters and restarts both windows from now.
// This is an administrative operation.
func (g *Governor) ResetDaily() {
	g.mu.Lock()

	now := g.now()
	g.usage = storage.UsageState{
		DailyWindowStart:  now,
		HourlyWindowStart: now,
	}

	snapshot := g.usage
	g.mu.Unlock()

	g.logger.Info("daily usage reset")
	g.persistAsync(&snapshot)
}

// Close flushes any in-flight persistence writes.
func (g *Governor) Close() error {
	g.persistWG.Wait()
	return nil
}

// rollover applies due window resets. Caller must hold the lock.
// The daily reset zeroes everything; the hourly reset only restarts
// the hourly counter.
func (g *Governor) rollover(now time.Time) {
	if windowDue(g.config.DailyResetPolicy, g.usage.DailyWindowStart, 24*time.Hour, now) {
		g.usage = storage.UsageState{
			DailyWindowStart:  now,
			HourlyWindowStart: now,
		}
		return
	}

	if windowDue(g.config.HourlyResetPolicy, g.usage.HourlyWindowStart, time.Hour, now) {
		g.usage.HourlyUsage = 0
		g.usage.HourlyWindowStart = now
	}
}

// persistAsync mirrors the snapshot to storage off the hot path.
// Failures are logged, never surfaced.
func (g *Governor) persistAsync(state *storage.UsageState) {
	if g.store == nil {
		return
	}

	g.persistWG.Add(1)
	go func() {
		defer g.persistWG.Done()
		if err := g.store.SaveUsage(context.Background(), state); err != nil {
			g.logger.Warn("failed to persist usage snapshot", "error", err)
		}
	}()
}

// windowDue reports whether a window starting at start is due for reset.
func windowDue(policy ResetPolicy, start time.Time, period time.Duration, now time.Time) bool {
	switch policy {
	case ResetCalendarDay:
		y1, m1, d1 := start.Date()
		y2, m2, d2 := now.Date()
		return y2 > y1 || (y2 == y1 && (m2 > m1 || (m2 == m1 && d2 > d1)))
	case ResetElapsed:
		return now.Sub(start) > period
	default:
		return false
	}
}

// remaining returns max(0, limit-used), or 0 when the limit is unset.
func remaining(limit, used int64) int64 {
	if limit <= 0 {
		return 0
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
