package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"turnstile-hq/turnstile/pkg/admission/governor"
)

// Defaults applied by NewMonitor for unset Config fields.
const (
	DefaultMaxAlerts         = 1000
	DefaultWarningThreshold  = 0.80
	DefaultCriticalThreshold = 0.95
)

// slowRequestThreshold marks a request as slow.
const slowRequestThreshold = 5 * time.Second

// highTokenThreshold marks a single request's token usage as notable.
const highTokenThreshold = 10000

// Monitor evaluates usage snapshots and request outcomes against
// thresholds and maintains the bounded, persisted alert history.
type Monitor struct {
	config Config

	// alerts is the in-memory history, oldest first, capped at
	// config.MaxAlerts.
	alerts []Alert

	store  AlertStore
	logger *slog.Logger

	// mu guards alerts; persistMu serializes saves so the history on
	// disk is written in append order without holding mu during I/O.
	mu        sync.Mutex
	persistMu sync.Mutex

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewMonitor creates a Monitor, seeding its history from the store's
// persisted alerts when present.
func NewMonitor(cfg Config, store AlertStore, logger *slog.Logger) *Monitor {
	if cfg.MaxAlerts <= 0 {
		cfg.MaxAlerts = DefaultMaxAlerts
	}
	if cfg.DailyUsageWarning == 0 {
		cfg.DailyUsageWarning = DefaultWarningThreshold
	}
	if cfg.DailyUsageCritical == 0 {
		cfg.DailyUsageCritical = DefaultCriticalThreshold
	}
	if cfg.HourlyUsageWarning == 0 {
		cfg.HourlyUsageWarning = DefaultWarningThreshold
	}
	if cfg.HourlyUsageCritical == 0 {
		cfg.HourlyUsageCritical = DefaultCriticalThreshold
	}
	if cfg.RateLimitWarning == 0 {
		cfg.RateLimitWarning = DefaultWarningThreshold
	}
	if cfg.RateLimitCritical == 0 {
		cfg.RateLimitCritical = DefaultCriticalThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Monitor{
		config: cfg,
		store:  store,
		logger: logger.With("component", "monitor"),
		now:    time.Now,
	}

	if store != nil {
		if loaded, err := store.LoadAlerts(context.Background()); err != nil {
			m.logger.Warn("failed to load alert history, starting empty", "error", err)
		} else if len(loaded) > 0 {
			if len(loaded) > cfg.MaxAlerts {
				loaded = loaded[len(loaded)-cfg.MaxAlerts:]
			}
			m.alerts = loaded
		}
	}

	return m
}

// EvaluateUsage checks a governor snapshot against the daily and hourly
// thresholds. Each ratio produces at most one alert per call; the
// critical threshold is checked first and suppresses the warning for
// that ratio. Ratios with a zero limit are skipped.
func (m *Monitor) EvaluateUsage(usage governor.Usage) []Alert {
	var raised []Alert

	if usage.DailyLimit > 0 {
		ratio := float64(usage.TotalTokens) / float64(usage.DailyLimit)

		if ratio >= m.config.DailyUsageCritical {
			raised = append(raised, m.addAlert(LevelCritical,
				fmt.Sprintf("daily token usage critical: %d/%d (%.1f%%)",
					usage.TotalTokens, usage.DailyLimit, ratio*100),
				map[string]any{
					"type":  TypeDailyUsage,
					"usage": usage.TotalTokens,
					"limit": usage.DailyLimit,
					"ratio": ratio,
				}))
		} else if ratio >= m.config.DailyUsageWarning {
			raised = append(raised, m.addAlert(LevelWarning,
				fmt.Sprintf("daily token usage high: %d/%d (%.1f%%)",
					usage.TotalTokens, usage.DailyLimit, ratio*100),
				map[string]any{
					"type":  TypeDailyUsage,
					"usage": usage.TotalTokens,
					"limit": usage.DailyLimit,
					"ratio": ratio,
				}))
		}
	}

	if usage.HourlyLimit > 0 {
		ratio := float64(usage.HourlyUsage) / float64(usage.HourlyLimit)

		if ratio >= m.config.HourlyUsageCritical {
			raised = append(raised, m.addAlert(LevelCritical,
				fmt.Sprintf("hourly token usage critical: %d/%d (%.1f%%)",
					usage.HourlyUsage, usage.HourlyLimit, ratio*100),
				map[string]any{
					"type":  TypeHourlyUsage,
					"usage": usage.HourlyUsage,
					"limit": usage.HourlyLimit,
					"ratio": ratio,
				}))
		} else if ratio >= m.config.HourlyUsageWarning {
			raised = append(raised, m.addAlert(LevelWarning,
				fmt.Sprintf("hourly token usage high: %d/%d (%.1f%%)",
					usage.HourlyUsage, usage.HourlyLimit, ratio*100),
				map[string]any{
					"type":  TypeHourlyUsage,
					"usage": usage.HourlyUsage,
					"limit": usage.HourlyLimit,
					"ratio": ratio,
				}))
		}
	}

	return raised
}

// EvaluateRateLimit checks a client's minute-window headroom against
// the rate-limit proximity thresholds. A zero limit skips the check.
func (m *Monitor) EvaluateRateLimit(clientID string, minuteRemaining, minuteLimit int) []Alert {
	if minuteLimit <= 0 {
		return nil
	}

	details := map[string]any{
		"type":      TypeRateLimit,
		"client_id": clientID,
		"remaining": minuteRemaining,
		"limit":     minuteLimit,
		"window":    "minute",
	}

	if float64(minuteRemaining) <= float64(minuteLimit)*(1-m.config.RateLimitCritical) {
		return []Alert{m.addAlert(LevelCritical,
			fmt.Sprintf("rate limit critical for client %s: %d requests remaining per minute",
				clientID, minuteRemaining),
			details)}
	}

	if float64(minuteRemaining) <= float64(minuteLimit)*(1-m.config.RateLimitWarning) {
		return []Alert{m.addAlert(LevelWarning,
			fmt.Sprintf("rate limit high for client %s: %d requests remaining per minute",
				clientID, minuteRemaining),
			details)}
	}

	return nil
}

// RecordRequest evaluates a completed request against three independent
// conditions: slow response, error status, and high token usage. A
// single event may raise zero, one, or several alerts.
func (m *Monitor) RecordRequest(endpoint, method string, statusCode int, duration time.Duration, clientID string, tokensUsed int64) []Alert {
	details := map[string]any{
		"type":          TypeRequest,
		"endpoint":      endpoint,
		"method":        method,
		"status_code":   statusCode,
		"response_time": duration.Seconds(),
	}
	if clientID != "" {
		details["client_id"] = clientID
	}
	if tokensUsed > 0 {
		details["tokens_used"] = tokensUsed
	}

	var raised []Alert

	if duration > slowRequestThreshold {
		raised = append(raised, m.addAlert(LevelWarning,
			fmt.Sprintf("slow request: %s %s took %.2fs", method, endpoint, duration.Seconds()),
			details))
	}

	if statusCode >= 400 {
		level := LevelError
		if statusCode >= 500 {
			level = LevelCritical
		}
		raised = append(raised, m.addAlert(level,
			fmt.Sprintf("API error: %s %s returned %d", method, endpoint, statusCode),
			details))
	}

	if tokensUsed > highTokenThreshold {
		raised = append(raised, m.addAlert(LevelInfo,
			fmt.Sprintf("high token usage request: %s %s used %d tokens", method, endpoint, tokensUsed),
			details))
	}

	return raised
}

// Query returns all alerts within the last hours, optionally filtered
// by level, ordered oldest to newest.
func (m *Monitor) Query(hours int, level Level) []Alert {
	cutoff := m.now().Add(-time.Duration(hours) * time.Hour)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Alert
	for _, a := range m.alerts {
		if a.Timestamp.Before(cutoff) {
			continue
		}
		if level != "" && a.Level != level {
			continue
		}
		out = append(out, a)
	}

	return out
}

// Summarize aggregates alert activity over the last hours.
func (m *Monitor) Summarize(hours int) Summary {
	recent := m.Query(hours, "")

	summary := Summary{
		Total:   len(recent),
		ByLevel: make(map[Level]int),
		ByType:  make(map[string]int),
	}

	for _, a := range recent {
		summary.ByLevel[a.Level]++

		alertType := "unknown"
		if t, ok := a.Details["type"].(string); ok {
			alertType = t
		}
		summary.ByType[alertType]++
	}

	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	summary.Recent = recent

	return summary
}

// Prune discards alerts older than the given number of days and
// persists the remainder. It returns how many alerts were removed.
//
// Note the hard history cap is enforced on every append independently
// of Prune, so entries may already be gone before they age out.
func (m *Monitor) Prune(days int) int {
	cutoff := m.now().Add(-time.Duration(days) * 24 * time.Hour)

	m.mu.Lock()

	kept := m.alerts[:0:0]
	for _, a := range m.alerts {
		if !a.Timestamp.Before(cutoff) {
			kept = append(kept, a)
		}
	}

	removed := len(m.alerts) - len(kept)
	m.alerts = kept

	snapshot := make([]Alert, len(m.alerts))
	copy(snapshot, m.alerts)
	m.mu.Unlock()

	m.persist(snapshot)

	return removed
}

// Close flushes nothing (saves are synchronous) but closes the store.
func (m *Monitor) Close() error {
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// addAlert appends a new alert to the history, enforces the cap, logs
// it, and persists the capped history synchronously.
func (m *Monitor) addAlert(level Level, message string, details map[string]any) Alert {
	alert := Alert{
		ID:        uuid.New().String(),
		Timestamp: m.now(),
		Level:     level,
		Message:   message,
		Details:   details,
	}

	m.mu.Lock()
	m.alerts = append(m.alerts, alert)
	if len(m.alerts) > m.config.MaxAlerts {
		// Oldest entries are evicted silently.
		m.alerts = m.alerts[len(m.alerts)-m.config.MaxAlerts:]
	}

	snapshot := make([]Alert, len(m.alerts))
	copy(snapshot, m.alerts)
	m.mu.Unlock()

	m.logAlert(alert)
	m.persist(snapshot)

	return alert
}

// persist writes the history snapshot through the store. Failures are
// logged, never propagated; the in-memory history stands.
func (m *Monitor) persist(snapshot []Alert) {
	if m.store == nil {
		return
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if err := m.store.SaveAlerts(context.Background(), snapshot); err != nil {
		m.logger.Warn("failed to persist alert history", "error", err)
	}
}

// logAlert mirrors the alert into the structured log at its severity.
func (m *Monitor) logAlert(alert Alert) {
	switch alert.Level {
	case LevelWarning:
		m.logger.Warn("alert raised", "message", alert.Message, "details", alert.Details)
	case LevelError, LevelCritical:
		m.logger.Error("alert raised", "level", alert.Level, "message", alert.Message, "details", alert.Details)
	default:
		m.logger.Info("alert raised", "message", alert.Message, "details", alert.Details)
	}
}
