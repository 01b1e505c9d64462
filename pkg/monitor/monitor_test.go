package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"turnstile-hq/turnstile/pkg/admission/governor"
)

func newTestMonitor(cfg Config, store AlertStore) *Monitor {
	return NewMonitor(cfg, store, nil)
}

// ============================================================
// Usage threshold evaluation
// ============================================================

func TestEvaluateUsageDailyCritical(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	// 96/100 is past critical; only the critical alert fires.
	raised := m.EvaluateUsage(governor.Usage{
		TotalTokens: 96,
		DailyLimit:  100,
	})

	if len(raised) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(raised))
	}
	if raised[0].Level != LevelCritical {
		t.Errorf("expected critical level, got %s", raised[0].Level)
	}
	if raised[0].Details["type"] != TypeDailyUsage {
		t.Errorf("expected type %s, got %v", TypeDailyUsage, raised[0].Details["type"])
	}
}

func TestEvaluateUsageDailyWarning(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	raised := m.EvaluateUsage(governor.Usage{
		TotalTokens: 85,
		DailyLimit:  100,
	})

	if len(raised) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(raised))
	}
	if raised[0].Level != LevelWarning {
		t.Errorf("expected warning level, got %s", raised[0].Level)
	}
}

func TestEvaluateUsageBelowThresholds(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	raised := m.EvaluateUsage(governor.Usage{
		TotalTokens: 50,
		DailyLimit:  100,
		HourlyUsage: 10,
		HourlyLimit: 100,
	})

	if len(raised) != 0 {
		t.Errorf("expected no alerts, got %d", len(raised))
	}
}

func TestEvaluateUsageBothRatios(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	// Daily at warning, hourly at critical: one alert each.
	raised := m.EvaluateUsage(governor.Usage{
		TotalTokens: 80,
		DailyLimit:  100,
		HourlyUsage: 99,
		HourlyLimit: 100,
	})

	if len(raised) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(raised))
	}
	if raised[0].Level != LevelWarning || raised[0].Details["type"] != TypeDailyUsage {
		t.Errorf("expected daily warning first, got %s/%v", raised[0].Level, raised[0].Details["type"])
	}
	if raised[1].Level != LevelCritical || raised[1].Details["type"] != TypeHourlyUsage {
		t.Errorf("expected hourly critical second, got %s/%v", raised[1].Level, raised[1].Details["type"])
	}
}

func TestEvaluateUsageZeroLimitsSkipped(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	raised := m.EvaluateUsage(governor.Usage{
		TotalTokens: 1000000,
		HourlyUsage: 1000000,
	})

	if len(raised) != 0 {
		t.Errorf("expected no alerts with zero limits, got %d", len(raised))
	}
}

// ============================================================
// Rate limit proximity evaluation
// ============================================================

func TestEvaluateRateLimit(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	tests := []struct {
		name      string
		remaining int
		limit     int
		wantLevel Level
		wantNone  bool
	}{
		{"plenty of headroom", 50, 100, "", true},
		{"warning threshold", 20, 100, LevelWarning, false},
		{"critical threshold", 5, 100, LevelCritical, false},
		{"exhausted", 0, 100, LevelCritical, false},
		{"zero limit skipped", 0, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raised := m.EvaluateRateLimit("ip:10.0.0.1", tt.remaining, tt.limit)

			if tt.wantNone {
				if len(raised) != 0 {
					t.Errorf("expected no alerts, got %d", len(raised))
				}
				return
			}

			if len(raised) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(raised))
			}
			if raised[0].Level != tt.wantLevel {
				t.Errorf("expected level %s, got %s", tt.wantLevel, raised[0].Level)
			}
			if raised[0].Details["client_id"] != "ip:10.0.0.1" {
				t.Errorf("expected client id in details, got %v", raised[0].Details["client_id"])
			}
		})
	}
}

// ============================================================
// Request outcome evaluation
// ============================================================

func TestRecordRequestAllConditions(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	// Slow, server error, and high token usage at once.
	raised := m.RecordRequest("/summarize", "POST", 503, 6*time.Second, "ip:10.0.0.1", 12000)

	if len(raised) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(raised))
	}
	if raised[0].Level != LevelWarning {
		t.Errorf("expected slow-request warning, got %s", raised[0].Level)
	}
	if raised[1].Level != LevelCritical {
		t.Errorf("expected 5xx critical, got %s", raised[1].Level)
	}
	if raised[2].Level != LevelInfo {
		t.Errorf("expected high-token info, got %s", raised[2].Level)
	}
}

func TestRecordRequestClientError(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	raised := m.RecordRequest("/answer", "POST", 404, 100*time.Millisecond, "", 0)

	if len(raised) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(raised))
	}
	if raised[0].Level != LevelError {
		t.Errorf("expected error level for 4xx, got %s", raised[0].Level)
	}
}

func TestRecordRequestHealthy(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	raised := m.RecordRequest("/answer", "POST", 200, 100*time.Millisecond, "ip:10.0.0.1", 500)

	if len(raised) != 0 {
		t.Errorf("expected no alerts for healthy request, got %d", len(raised))
	}
}

func TestRecordRequestBoundaries(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	// Exactly at the thresholds raises nothing; they are strict.
	raised := m.RecordRequest("/answer", "POST", 200, 5*time.Second, "", 10000)
	if len(raised) != 0 {
		t.Errorf("expected no alerts at exact thresholds, got %d", len(raised))
	}

	raised = m.RecordRequest("/answer", "POST", 399, time.Millisecond, "", 0)
	if len(raised) != 0 {
		t.Errorf("expected no alert for status 399, got %d", len(raised))
	}
}

// ============================================================
// Query, summary, pruning
// ============================================================

func TestQueryFiltersByAgeAndLevel(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m.now = func() time.Time { return base.Add(-48 * time.Hour) }
	m.RecordRequest("/old", "POST", 500, time.Millisecond, "", 0)

	m.now = func() time.Time { return base.Add(-1 * time.Hour) }
	m.RecordRequest("/recent", "POST", 500, time.Millisecond, "", 0)
	m.RecordRequest("/recent", "POST", 404, time.Millisecond, "", 0)

	m.now = func() time.Time { return base }

	all := m.Query(24, "")
	if len(all) != 2 {
		t.Errorf("expected 2 recent alerts, got %d", len(all))
	}

	critical := m.Query(24, LevelCritical)
	if len(critical) != 1 {
		t.Errorf("expected 1 critical alert, got %d", len(critical))
	}

	wide := m.Query(72, "")
	if len(wide) != 3 {
		t.Errorf("expected 3 alerts over 72h, got %d", len(wide))
	}
}

func TestQueryOrderedOldestFirst(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		m.now = func() time.Time { return tick }
		m.RecordRequest(fmt.Sprintf("/ep%d", i), "POST", 500, time.Millisecond, "", 0)
	}

	m.now = func() time.Time { return base.Add(time.Hour) }
	out := m.Query(24, "")
	if len(out) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp.Before(out[i-1].Timestamp) {
			t.Errorf("alerts not ordered oldest first at index %d", i)
		}
	}
}

func TestSummarize(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	m.RecordRequest("/a", "POST", 500, time.Millisecond, "", 0)
	m.RecordRequest("/b", "POST", 404, time.Millisecond, "", 0)
	m.EvaluateUsage(governor.Usage{TotalTokens: 96, DailyLimit: 100})

	s := m.Summarize(24)

	if s.Total != 3 {
		t.Errorf("expected total 3, got %d", s.Total)
	}
	if s.ByLevel[LevelCritical] != 2 {
		t.Errorf("expected 2 critical, got %d", s.ByLevel[LevelCritical])
	}
	if s.ByLevel[LevelError] != 1 {
		t.Errorf("expected 1 error, got %d", s.ByLevel[LevelError])
	}
	if s.ByType[TypeRequest] != 2 {
		t.Errorf("expected 2 request alerts, got %d", s.ByType[TypeRequest])
	}
	if s.ByType[TypeDailyUsage] != 1 {
		t.Errorf("expected 1 daily usage alert, got %d", s.ByType[TypeDailyUsage])
	}
	if len(s.Recent) != 3 {
		t.Errorf("expected 3 recent alerts, got %d", len(s.Recent))
	}
}

func TestSummarizeRecentCappedAtTen(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	for i := 0; i < 15; i++ {
		m.RecordRequest("/a", "POST", 500, time.Millisecond, "", 0)
	}

	s := m.Summarize(24)
	if s.Total != 15 {
		t.Errorf("expected total 15, got %d", s.Total)
	}
	if len(s.Recent) != 10 {
		t.Errorf("expected 10 recent alerts, got %d", len(s.Recent))
	}
}

func TestPrune(t *testing.T) {
	store := NewMemoryAlertStore()
	m := newTestMonitor(Config{}, store)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m.now = func() time.Time { return base.Add(-10 * 24 * time.Hour) }
	m.RecordRequest("/old", "POST", 500, time.Millisecond, "", 0)

	m.now = func() time.Time { return base.Add(-time.Hour) }
	m.RecordRequest("/recent", "POST", 500, time.Millisecond, "", 0)

	m.now = func() time.Time { return base }

	removed := m.Prune(7)
	if removed != 1 {
		t.Errorf("expected 1 alert removed, got %d", removed)
	}

	remaining := m.Query(24*30, "")
	if len(remaining) != 1 {
		t.Errorf("expected 1 alert remaining, got %d", len(remaining))
	}

	// The pruned history is what the store now holds.
	persisted, err := store.LoadAlerts(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Errorf("expected 1 persisted alert after prune, got %d", len(persisted))
	}
}

func TestPruneEverything(t *testing.T) {
	m := newTestMonitor(Config{}, nil)

	m.RecordRequest("/a", "POST", 500, time.Millisecond, "", 0)
	m.RecordRequest("/b", "POST", 500, time.Millisecond, "", 0)

	// Advance past the alerts so a zero-day cutoff removes them all.
	m.now = func() time.Time { return time.Now().Add(time.Minute) }

	removed := m.Prune(0)
	if removed != 2 {
		t.Errorf("expected 2 alerts removed, got %d", removed)
	}
	if got := m.Query(24, ""); len(got) != 0 {
		t.Errorf("expected empty history after full prune, got %d", len(got))
	}
}

// ============================================================
// History cap
// ============================================================

func TestHistoryCapEnforcedOnAppend(t *testing.T) {
	m := newTestMonitor(Config{MaxAlerts: 5}, nil)

	for i := 0; i < 8; i++ {
		m.RecordRequest(fmt.Sprintf("/ep%d", i), "POST", 500, time.Millisecond, "", 0)
	}

	got := m.Query(24, "")
	if len(got) != 5 {
		t.Fatalf("expected history capped at 5, got %d", len(got))
	}

	// Oldest entries were evicted; the survivors are the last five.
	if got[0].Details["endpoint"] != "/ep3" {
		t.Errorf("expected oldest surviving alert for /ep3, got %v", got[0].Details["endpoint"])
	}
	if got[4].Details["endpoint"] != "/ep7" {
		t.Errorf("expected newest alert for /ep7, got %v", got[4].Details["endpoint"])
	}
}

// ============================================================
// Persistence
// ============================================================

func TestAlertsPersistedOnAppend(t *testing.T) {
	store := NewMemoryAlertStore()
	m := newTestMonitor(Config{}, store)

	m.RecordRequest("/a", "POST", 500, time.Millisecond, "", 0)

	persisted, err := store.LoadAlerts(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("expected 1 persisted alert, got %d", len(persisted))
	}
	if persisted[0].Level != LevelCritical {
		t.Errorf("expected critical alert persisted, got %s", persisted[0].Level)
	}
}

func TestPersistenceFailureAbsorbed(t *testing.T) {
	store := NewMemoryAlertStore()
	m := newTestMonitor(Config{}, store)

	store.SetFailWrites(true)

	raised := m.RecordRequest("/a", "POST", 500, time.Millisecond, "", 0)
	if len(raised) != 1 {
		t.Fatalf("expected alert despite save failure, got %d", len(raised))
	}

	// In-memory history is unaffected.
	if got := m.Query(24, ""); len(got) != 1 {
		t.Errorf("expected 1 alert in history, got %d", len(got))
	}
}

func TestHistorySeededFromStore(t *testing.T) {
	store := NewMemoryAlertStore()

	seed := []Alert{
		{ID: "a1", Timestamp: time.Now().Add(-time.Hour), Level: LevelWarning, Message: "earlier"},
		{ID: "a2", Timestamp: time.Now().Add(-time.Minute), Level: LevelCritical, Message: "later"},
	}
	if err := store.SaveAlerts(context.Background(), seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	m := newTestMonitor(Config{}, store)

	got := m.Query(24, "")
	if len(got) != 2 {
		t.Fatalf("expected 2 seeded alerts, got %d", len(got))
	}
	if got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("seeded alerts out of order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestHistorySeedTrimmedToCap(t *testing.T) {
	store := NewMemoryAlertStore()

	var seed []Alert
	for i := 0; i < 10; i++ {
		seed = append(seed, Alert{
			ID:        fmt.Sprintf("a%d", i),
			Timestamp: time.Now(),
			Level:     LevelInfo,
		})
	}
	if err := store.SaveAlerts(context.Background(), seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	m := newTestMonitor(Config{MaxAlerts: 4}, store)

	got := m.Query(24, "")
	if len(got) != 4 {
		t.Fatalf("expected seed trimmed to 4, got %d", len(got))
	}
	if got[0].ID != "a6" {
		t.Errorf("expected newest 4 kept, oldest survivor a6, got %s", got[0].ID)
	}
}
