package handlers

import (
	"log/slog"
	"net/http"

	"turnstile-hq/turnstile/pkg/admission"
)

// UsageHandler serves token usage inspection and reset.
type UsageHandler struct {
	manager *admission.Manager
	logger  *slog.Logger
}

// NewUsageHandler creates a usage handler.
func NewUsageHandler(manager *admission.Manager, logger *slog.Logger) *UsageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageHandler{
		manager: manager,
		logger:  logger.With("component", "usage_handler"),
	}
}

// Get handles GET /usage: the current token usage snapshot. Reading
// usage also runs the threshold evaluation, so inspecting a hot budget
// raises its alert without waiting for the next commit.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	h.manager.EvaluateUsage()

	writeJSON(w, http.StatusOK, h.manager.Usage())
}

// Reset handles POST /usage/reset: zeroes the token counters.
// Administrative operation; the reset is logged for audit.
func (h *UsageHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	before := h.manager.Usage()
	h.manager.ResetUsage()

	h.logger.Info("usage counters reset",
		"previous_total", before.TotalTokens,
		"remote_addr", r.RemoteAddr,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reset",
		"usage":  h.manager.Usage(),
	})
}
