package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"turnstile-hq/turnstile/pkg/monitor"
)

// Query parameter defaults for the monitoring endpoints.
const (
	defaultAlertWindowHours = 24
	defaultCleanupDays      = 7
	maxAlertWindowHours     = 24 * 30
)

// MonitoringHandler serves alert queries and history cleanup.
type MonitoringHandler struct {
	monitor *monitor.Monitor
	logger  *slog.Logger
}

// NewMonitoringHandler creates a monitoring handler.
func NewMonitoringHandler(mon *monitor.Monitor, logger *slog.Logger) *MonitoringHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitoringHandler{
		monitor: mon,
		logger:  logger.With("component", "monitoring_handler"),
	}
}

// Alerts handles GET /monitoring/alerts?hours=24&level=warning: recent
// alerts plus an aggregated summary of the same window.
func (h *MonitoringHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	hours := defaultAlertWindowHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxAlertWindowHours {
			writeError(w, http.StatusBadRequest, "invalid_parameter",
				"hours must be an integer between 1 and "+strconv.Itoa(maxAlertWindowHours))
			return
		}
		hours = parsed
	}

	level := monitor.Level(r.URL.Query().Get("level"))
	switch level {
	case "", monitor.LevelInfo, monitor.LevelWarning, monitor.LevelError, monitor.LevelCritical:
	default:
		writeError(w, http.StatusBadRequest, "invalid_parameter",
			"level must be one of: info, warning, error, critical")
		return
	}

	alerts := h.monitor.Query(hours, level)
	if alerts == nil {
		alerts = []monitor.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts":  alerts,
		"summary": h.monitor.Summarize(hours),
	})
}

// Cleanup handles POST /monitoring/cleanup?days=7: discards alerts
// older than the retention window.
func (h *MonitoringHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	days := defaultCleanupDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_parameter",
				"days must be a non-negative integer")
			return
		}
		days = parsed
	}

	removed := h.monitor.Prune(days)

	h.logger.Info("alert history cleaned up",
		"removed", removed,
		"retention_days", days,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "cleaned",
		"removed": removed,
		"days":    days,
	})
}
