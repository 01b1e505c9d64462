// Package admission is the facade over the token governor, the client
// rate limiter, and the usage monitor. Callers construct one Manager at
// startup and route every gated operation through it: identify the
// client and check its request windows, estimate and admit the token
// cost, perform the downstream call, then commit actual usage. The
// manager feeds every decision into the monitor so threshold crossings
// become alerts without any extra caller work.
package admission

import (
	"log/slog"
	"net/http"

	"turnstile-hq/turnstile/pkg/admission/governor"
	"turnstile-hq/turnstile/pkg/admission/ratelimit"
	"turnstile-hq/turnstile/pkg/admission/storage"
	"turnstile-hq/turnstile/pkg/monitor"
	"turnstile-hq/turnstile/pkg/telemetry/metrics"
	"turnstile-hq/turnstile/pkg/tokens"
)

// Config aggregates the configuration of every admission component.
type Config struct {
	// Governor configures the token budgets.
	Governor governor.Config

	// RateLimit configures the per-client request windows.
	RateLimit ratelimit.Config

	// Monitor configures alerting thresholds and history bounds.
	Monitor monitor.Config

	// Tokens configures estimation input ceilings.
	Tokens tokens.Config
}

// Manager coordinates token budgets, request rate limits, and usage
// monitoring behind one API.
//
// # Example
//
//	mgr := admission.NewManager(cfg, usageStore, alertStore, logger)
//
//	clientID, err := mgr.AllowRequest(r)
//	if err != nil {
//	    // 429
//	}
//
//	estimated, err := mgr.AdmitSummarize(text)
//	if err != nil {
//	    // 429 with quota reason
//	}
//
//	// ... perform the model call ...
//	mgr.CommitUsage(promptTokens, completionTokens, 0)
type Manager struct {
	governor   *governor.Governor
	limiter    *ratelimit.Limiter
	monitor    *monitor.Monitor
	estimator  *tokens.Estimator
	usageStore storage.Backend
	collector  *metrics.Collector
	logger     *slog.Logger
}

// NewManager creates the admission facade. Either store may be nil, in
// which case the corresponding state is held in memory only.
func NewManager(cfg Config, usageStore storage.Backend, alertStore monitor.AlertStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		governor:   governor.New(cfg.Governor, usageStore, logger),
		limiter:    ratelimit.NewLimiter(cfg.RateLimit),
		monitor:    monitor.NewMonitor(cfg.Monitor, alertStore, logger),
		estimator:  tokens.NewEstimator(cfg.Tokens),
		usageStore: usageStore,
		logger:     logger.With("component", "admission"),
	}
}

// SetMetrics attaches a metrics collector. Admission decisions, quota
// denials, committed tokens, and raised alerts are recorded to it.
func (m *Manager) SetMetrics(collector *metrics.Collector) {
	m.collector = collector
}

// AllowRequest identifies the request's client and checks its request
// windows. On success it returns the client identity and counts the
// request; on denial it returns a *RateLimitExceededError and counts
// nothing. The client's remaining minute budget is fed to the monitor
// either way.
func (m *Manager) AllowRequest(r *http.Request) (string, error) {
	clientID := ratelimit.Identify(r)

	decision := m.limiter.Allow(clientID)

	status := m.limiter.MinuteStatusFor(clientID)
	m.recordAlerts(m.monitor.EvaluateRateLimit(clientID, status.Remaining, status.Limit))

	if !decision.Allowed {
		return clientID, &RateLimitExceededError{
			Window:     decision.Window,
			Reason:     decision.Reason,
			RetryAfter: decision.RetryAfter,
		}
	}

	return clientID, nil
}

// AdmitTokens checks an estimated token count against the budgets.
// A denial returns a *QuotaExceededError and consumes nothing.
func (m *Manager) AdmitTokens(estimatedTokens int64, op governor.Operation) error {
	decision := m.governor.Admit(estimatedTokens, op)

	if m.collector != nil {
		m.collector.RecordAdmission(decision.Allowed)
		if !decision.Allowed {
			m.collector.RecordQuotaDenial(string(decision.Scope))
		}
	}

	if !decision.Allowed {
		return &QuotaExceededError{Scope: decision.Scope, Reason: decision.Reason}
	}
	return nil
}

// AdmitSummarize validates the input text, estimates its token cost
// plus the summarization envelope, and admits it. It returns the
// estimate used so callers can log or report it.
func (m *Manager) AdmitSummarize(text string) (int64, error) {
	if err := m.estimator.ValidateText(text); err != nil {
		return 0, err
	}

	estimated := int64(m.estimator.Estimate(text) + tokens.SummarizeOverhead)
	if err := m.AdmitTokens(estimated, governor.OpCompletion); err != nil {
		return estimated, err
	}

	return estimated, nil
}

// AdmitAnswer validates the context text and question, estimates their
// combined token cost plus the answer exchange envelope, and admits it.
func (m *Manager) AdmitAnswer(contextText, question string) (int64, error) {
	if err := m.estimator.ValidateText(contextText); err != nil {
		return 0, err
	}
	if err := m.estimator.ValidateQuestion(question); err != nil {
		return 0, err
	}

	estimated := int64(m.estimator.Estimate(contextText) +
		m.estimator.Estimate(question) + tokens.AnswerOverhead)
	if err := m.AdmitTokens(estimated, governor.OpCompletion); err != nil {
		return estimated, err
	}

	return estimated, nil
}

// AdmitEmbedding estimates the token cost of an embedding input and
// admits it. Embeddings carry no prompt envelope.
func (m *Manager) AdmitEmbedding(text string) (int64, error) {
	if err := m.estimator.ValidateText(text); err != nil {
		return 0, err
	}

	estimated := int64(m.estimator.Estimate(text))
	if err := m.AdmitTokens(estimated, governor.OpEmbedding); err != nil {
		return estimated, err
	}

	return estimated, nil
}

// CommitUsage records actual post-hoc usage and evaluates the updated
// snapshot against the usage thresholds.
func (m *Manager) CommitUsage(promptTokens, completionTokens, embeddingTokens int64) {
	m.governor.Commit(promptTokens, completionTokens, embeddingTokens)

	if m.collector != nil {
		m.collector.RecordTokensCommitted(promptTokens, completionTokens, embeddingTokens)
	}

	m.recordAlerts(m.monitor.EvaluateUsage(m.governor.Snapshot()))
}

// Usage returns the current governor snapshot.
func (m *Manager) Usage() governor.Usage {
	return m.governor.Snapshot()
}

// ResetUsage zeroes the token counters. Administrative operation.
func (m *Manager) ResetUsage() {
	m.governor.ResetDaily()
}

// Remaining returns a client's per-window remaining request budgets.
func (m *Manager) Remaining(clientID string) ratelimit.Remaining {
	return m.limiter.RemainingFor(clientID)
}

// MinuteStatus returns a client's minute-window status for response
// headers.
func (m *Manager) MinuteStatus(clientID string) ratelimit.MinuteStatus {
	return m.limiter.MinuteStatusFor(clientID)
}

// Monitor exposes the usage monitor for handlers and schedulers.
func (m *Manager) Monitor() *monitor.Monitor {
	return m.monitor
}

// Limiter exposes the rate limiter for maintenance sweeps.
func (m *Manager) Limiter() *ratelimit.Limiter {
	return m.limiter
}

// EvaluateUsage runs the usage thresholds against the current snapshot.
// Called periodically by the retention scheduler.
func (m *Manager) EvaluateUsage() {
	m.recordAlerts(m.monitor.EvaluateUsage(m.governor.Snapshot()))

	if m.collector != nil {
		m.collector.UpdateTrackedClients(m.limiter.TrackedClients())
	}
}

// recordAlerts counts raised alerts in the metrics collector.
func (m *Manager) recordAlerts(alerts []monitor.Alert) {
	if m.collector == nil {
		return
	}
	for _, a := range alerts {
		m.collector.RecordAlert(string(a.Level))
	}
}

// Close flushes pending persistence and releases the stores.
func (m *Manager) Close() error {
	if err := m.governor.Close(); err != nil {
		return err
	}

	if m.usageStore != nil {
		if err := m.usageStore.Close(); err != nil {
			m.logger.Warn("failed to close usage store", "error", err)
		}
	}

	return m.monitor.Close()
}
