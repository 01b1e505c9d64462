package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector() *Collector {
	return NewCollector(Config{Enabled: true}, prometheus.NewRegistry())
}

func TestRecordAdmission(t *testing.T) {
	c := newTestCollector()

	c.RecordAdmission(true)
	c.RecordAdmission(true)
	c.RecordAdmission(false)

	if got := testutil.ToFloat64(c.admissionsTotal.WithLabelValues("allowed")); got != 2 {
		t.Errorf("expected 2 allowed, got %f", got)
	}
	if got := testutil.ToFloat64(c.admissionsTotal.WithLabelValues("denied")); got != 1 {
		t.Errorf("expected 1 denied, got %f", got)
	}
}

func TestRecordDenials(t *testing.T) {
	c := newTestCollector()

	c.RecordQuotaDenial("daily")
	c.RecordQuotaDenial("daily")
	c.RecordRateLimitDenial("minute")

	if got := testutil.ToFloat64(c.quotaDenialsTotal.WithLabelValues("daily")); got != 2 {
		t.Errorf("expected 2 daily quota denials, got %f", got)
	}
	if got := testutil.ToFloat64(c.rateLimitDenialsTotal.WithLabelValues("minute")); got != 1 {
		t.Errorf("expected 1 minute denial, got %f", got)
	}
}

func TestRecordTokensCommitted(t *testing.T) {
	c := newTestCollector()

	c.RecordTokensCommitted(100, 200, 0)
	c.RecordTokensCommitted(50, 0, 25)

	if got := testutil.ToFloat64(c.tokensCommittedTotal.WithLabelValues("prompt")); got != 150 {
		t.Errorf("expected 150 prompt tokens, got %f", got)
	}
	if got := testutil.ToFloat64(c.tokensCommittedTotal.WithLabelValues("completion")); got != 200 {
		t.Errorf("expected 200 completion tokens, got %f", got)
	}
	if got := testutil.ToFloat64(c.tokensCommittedTotal.WithLabelValues("embedding")); got != 25 {
		t.Errorf("expected 25 embedding tokens, got %f", got)
	}
}

func TestDisabledCollectorRecordsNothing(t *testing.T) {
	c := NewCollector(Config{Enabled: false}, prometheus.NewRegistry())

	c.RecordAdmission(true)
	c.RecordAlert("critical")
	c.RecordTokensCommitted(100, 100, 100)

	if got := testutil.ToFloat64(c.admissionsTotal.WithLabelValues("allowed")); got != 0 {
		t.Errorf("expected no admissions recorded when disabled, got %f", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		if got := statusClass(tt.code); got != tt.want {
			t.Errorf("statusClass(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := newTestCollector()
	c.RecordAdmission(true)
	c.RecordRequest("/usage", 200, 15*time.Millisecond)
	c.UpdateTrackedClients(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Result().Body)
	out := string(body)

	if !strings.Contains(out, "turnstile_admissions_total") {
		t.Error("expected admissions metric in exposition")
	}
	if !strings.Contains(out, "turnstile_request_duration_seconds") {
		t.Error("expected request duration metric in exposition")
	}
	if !strings.Contains(out, "turnstile_ratelimit_tracked_clients 3") {
		t.Error("expected tracked clients gauge in exposition")
	}
}
