package governor

import (
	"context"
	"sync"
	"testing"
	"time"

	"turnstile-hq/turnstile/pkg/admission/storage"
)

func newTestGovernor(cfg Config, store storage.Backend) *Governor {
	return New(cfg, store, nil)
}

// ============================================================================
// Counter Invariant Tests
// ============================================================================

func TestCommit_TotalIsSumOfCategories(t *testing.T) {
	gov := newTestGovernor(Config{DailyLimit: 1000000}, nil)

	commits := [][3]int64{
		{100, 50, 0},
		{0, 0, 300},
		{25, 75, 10},
	}

	for _, c := range commits {
		gov.Commit(c[0], c[1], c[2])

		u := gov.Snapshot()
		if u.TotalTokens != u.PromptTokens+u.CompletionTokens+u.EmbeddingTokens {
			t.Fatalf("Invariant broken: total=%d, prompt=%d, completion=%d, embedding=%d",
				u.TotalTokens, u.PromptTokens, u.CompletionTokens, u.EmbeddingTokens)
		}
	}

	u := gov.Snapshot()
	if u.TotalTokens != 560 {
		t.Errorf("Expected total 560, got %d", u.TotalTokens)
	}
	if u.HourlyUsage != 560 {
		t.Errorf("Expected hourly usage 560, got %d", u.HourlyUsage)
	}
}

func TestCommit_NegativeInputsClamped(t *testing.T) {
	gov := newTestGovernor(Config{}, nil)

	gov.Commit(-100, 50, -1)

	u := gov.Snapshot()
	if u.PromptTokens != 0 || u.CompletionTokens != 50 || u.EmbeddingTokens != 0 {
		t.Errorf("Expected negative inputs clamped to zero, got %+v", u)
	}
	if u.TotalTokens != 50 {
		t.Errorf("Expected total 50, got %d", u.TotalTokens)
	}
}

// ============================================================================
// Admission Tests
// ============================================================================

func TestAdmit_DailyLimit(t *testing.T) {
	gov := newTestGovernor(Config{DailyLimit: 1000}, nil)

	gov.Commit(600, 300, 0)

	// 900 + 200 = 1100 > 1000: denied with daily scope
	d := gov.Admit(200, OpCompletion)
	if d.Allowed {
		t.Fatal("Expected denial at 1100/1000")
	}
	if d.Scope != ScopeDaily {
		t.Errorf("Expected daily scope, got %q", d.Scope)
	}
	if d.Reason == "" {
		t.Error("Expected a human-readable reason")
	}

	// 900 + 100 = 1000 <= 1000: allowed
	if d := gov.Admit(100, OpCompletion); !d.Allowed {
		t.Errorf("Expected 1000/1000 to be allowed, got denial: %s", d.Reason)
	}
}

func TestAdmit_ConstraintOrder(t *testing.T) {
	// All three constraints violated at once: daily wins, then hourly,
	// then per-request. The ordering is a contract.
	gov := newTestGovernor(Config{DailyLimit: 100, HourlyLimit: 50, RequestLimit: 10}, nil)

	d := gov.Admit(200, OpCompletion)
	if d.Scope != ScopeDaily {
		t.Errorf("Expected daily checked first, got %q", d.Scope)
	}

	// Only hourly and per-request violated
	gov = newTestGovernor(Config{DailyLimit: 10000, HourlyLimit: 50, RequestLimit: 10}, nil)
	d = gov.Admit(200, OpCompletion)
	if d.Scope != ScopeHourly {
		t.Errorf("Expected hourly checked second, got %q", d.Scope)
	}

	// Only per-request violated
	gov = newTestGovernor(Config{DailyLimit: 10000, HourlyLimit: 10000, RequestLimit: 10}, nil)
	d = gov.Admit(200, OpCompletion)
	if d.Scope != ScopePerRequest {
		t.Errorf("Expected per-request checked last, got %q", d.Scope)
	}
}

func TestAdmit_DenialIsSideEffectFree(t *testing.T) {
	gov := newTestGovernor(Config{DailyLimit: 1000}, nil)
	gov.Commit(600, 300, 0)

	before := gov.Snapshot()

	d := gov.Admit(500, OpCompletion)
	if d.Allowed {
		t.Fatal("Expected denial")
	}

	after := gov.Snapshot()
	if before != after {
		t.Errorf("Denied admit mutated counters:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

func TestAdmit_ZeroAndNegativeEstimates(t *testing.T) {
	gov := newTestGovernor(Config{DailyLimit: 100, HourlyLimit: 100, RequestLimit: 10}, nil)

	if d := gov.Admit(0, OpCompletion); !d.Allowed {
		t.Errorf("Zero estimate should be allowed, got: %s", d.Reason)
	}
	if d := gov.Admit(-50, OpEmbedding); !d.Allowed {
		t.Errorf("Negative estimate should be treated as zero, got: %s", d.Reason)
	}
}

func TestAdmit_ZeroLimitsUnenforced(t *testing.T) {
	gov := newTestGovernor(Config{}, nil)

	if d := gov.Admit(1 << 40, OpCompletion); !d.Allowed {
		t.Errorf("Unset limits should admit anything, got: %s", d.Reason)
	}
}

// ============================================================================
// Window Reset Tests
// ============================================================================

func TestHourlyWindow_ElapsedReset(t *testing.T) {
	gov := newTestGovernor(Config{DailyLimit: 10000, HourlyLimit: 100}, nil)

	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	gov.now = func() time.Time { return base }
	gov.usage.DailyWindowStart = base
	gov.usage.HourlyWindowStart = base

	gov.Commit(100, 0, 0)

	if d := gov.Admit(1, OpCompletion); d.Allowed {
		t.Fatal("Expected hourly denial at 100/100")
	}

	// 61 minutes later, same day: hourly window rolls, daily does not
	gov.now = func() time.Time { return base.Add(61 * time.Minute) }

	if d := gov.Admit(1, OpCompletion); !d.Allowed {
		t.Fatalf("Expected fresh hourly budget after rollover, got: %s", d.Reason)
	}

	u := gov.Snapshot()
	if u.HourlyUsage != 0 {
		t.Errorf("Expected hourly usage reset to 0, got %d", u.HourlyUsage)
	}
	if u.TotalTokens != 100 {
		t.Errorf("Daily total should survive hourly reset, got %d", u.TotalTokens)
	}
}

func TestHourlyWindow_NotDueAtExactlyOneHour(t *testing.T) {
	gov := newTestGovernor(Config{HourlyLimit: 100}, nil)

	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	gov.now = func() time.Time { return base }
	gov.usage.DailyWindowStart = base
	gov.usage.HourlyWindowStart = base

	gov.Commit(100, 0, 0)

	// Exactly one hour elapsed: strictly "more than one hour" has not passed
	gov.now = func() time.Time { return base.Add(time.Hour) }
	if u := gov.Snapshot(); u.HourlyUsage != 100 {
		t.Errorf("Window reset at exactly one hour, usage=%d", u.HourlyUsage)
	}
}

func TestDailyWindow_CalendarReset(t *testing.T) {
	gov := newTestGovernor(Config{DailyLimit: 1000}, nil)

	// 23:30, late in the day
	base := time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC)
	gov.now = func() time.Time { return base }
	gov.usage.DailyWindowStart = base
	gov.usage.HourlyWindowStart = base

	gov.Commit(900, 0, 0)

	if d := gov.Admit(200, OpCompletion); d.Allowed {
		t.Fatal("Expected daily denial")
	}

	// One hour later the calendar date has advanced, even though less
	// than 24 hours elapsed: full daily budget again.
	gov.now = func() time.Time { return base.Add(time.Hour) }

	if d := gov.Admit(200, OpCompletion); !d.Allowed {
		t.Fatalf("Expected fresh daily budget after midnight, got: %s", d.Reason)
	}

	u := gov.Snapshot()
	if u.TotalTokens != 0 {
		t.Errorf("Expected counters zeroed after daily reset, got total=%d", u.TotalTokens)
	}
}

func TestWindowStarts_MonotonicNonDecreasing(t *testing.T) {
	gov := newTestGovernor(Config{HourlyLimit: 100}, nil)

	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	gov.now = func() time.Time { return base }
	gov.usage.DailyWindowStart = base
	gov.usage.HourlyWindowStart = base

	prev := gov.Snapshot()
	for _, offset := range []time.Duration{30 * time.Minute, 2 * time.Hour, 26 * time.Hour} {
		gov.now = func() time.Time { return base.Add(offset) }
		u := gov.Snapshot()
		if u.LastReset.Before(prev.LastReset) || u.HourlyReset.Before(prev.HourlyReset) {
			t.Fatalf("Window start went backwards: %+v -> %+v", prev, u)
		}
		prev = u
	}
}

func TestResetDaily(t *testing.T) {
	gov := newTestGovernor(Config{DailyLimit: 1000}, nil)
	gov.Commit(500, 200, 100)

	gov.ResetDaily()

	u := gov.Snapshot()
	if u.TotalTokens != 0 || u.PromptTokens != 0 || u.CompletionTokens != 0 ||
		u.EmbeddingTokens != 0 || u.HourlyUsage != 0 {
		t.Errorf("Expected all counters zeroed, got %+v", u)
	}
}

// ============================================================================
// Persistence Tests
// ============================================================================

func TestPersistence_SnapshotRoundTrip(t *testing.T) {
	backend := storage.NewMemoryBackend()

	gov := newTestGovernor(Config{DailyLimit: 10000}, backend)
	gov.Commit(600, 300, 50)
	if err := gov.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A new governor within the same day and hour sees identical counters.
	reloaded := newTestGovernor(Config{DailyLimit: 10000}, backend)

	u := reloaded.Snapshot()
	if u.TotalTokens != 950 || u.PromptTokens != 600 || u.CompletionTokens != 300 || u.EmbeddingTokens != 50 {
		t.Errorf("Reloaded counters mismatch: %+v", u)
	}
	if u.HourlyUsage != 950 {
		t.Errorf("Expected hourly usage 950, got %d", u.HourlyUsage)
	}
}

func TestPersistence_StaleDailySnapshotDiscarded(t *testing.T) {
	backend := storage.NewMemoryBackend()

	yesterday := time.Now().Add(-25 * time.Hour)
	_ = backend.SaveUsage(context.Background(), &storage.UsageState{
		TotalTokens:       5000,
		PromptTokens:      5000,
		HourlyUsage:       100,
		DailyWindowStart:  yesterday,
		HourlyWindowStart: yesterday,
	})

	gov := newTestGovernor(Config{DailyLimit: 10000}, backend)

	u := gov.Snapshot()
	if u.TotalTokens != 0 {
		t.Errorf("Expected stale daily snapshot discarded, got total=%d", u.TotalTokens)
	}
}

func TestPersistence_StaleHourlySnapshotKeepsDailyTotals(t *testing.T) {
	backend := storage.NewMemoryBackend()

	now := time.Now()
	_ = backend.SaveUsage(context.Background(), &storage.UsageState{
		TotalTokens:       5000,
		PromptTokens:      5000,
		HourlyUsage:       100,
		DailyWindowStart:  now.Add(-10 * time.Minute),
		HourlyWindowStart: now.Add(-2 * time.Hour),
	})

	gov := newTestGovernor(Config{DailyLimit: 10000}, backend)

	u := gov.Snapshot()
	if u.TotalTokens != 5000 {
		t.Errorf("Expected daily totals kept, got %d", u.TotalTokens)
	}
	if u.HourlyUsage != 0 {
		t.Errorf("Expected hourly usage reset, got %d", u.HourlyUsage)
	}
}

func TestPersistence_FailureDoesNotBlockCommit(t *testing.T) {
	backend := storage.NewMemoryBackend()
	backend.SetFailWrites(true)

	gov := newTestGovernor(Config{DailyLimit: 10000}, backend)
	gov.Commit(100, 50, 0)
	_ = gov.Close()

	// In-memory state is authoritative regardless of the failed write.
	u := gov.Snapshot()
	if u.TotalTokens != 150 {
		t.Errorf("Expected in-memory state to stand, got total=%d", u.TotalTokens)
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestCommit_Concurrent(t *testing.T) {
	gov := newTestGovernor(Config{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gov.Commit(10, 5, 1)
		}()
	}
	wg.Wait()

	u := gov.Snapshot()
	if u.TotalTokens != 1600 {
		t.Errorf("Expected total 1600 after 100 concurrent commits, got %d", u.TotalTokens)
	}
	if u.TotalTokens != u.PromptTokens+u.CompletionTokens+u.EmbeddingTokens {
		t.Error("Sum invariant broken under concurrency")
	}
}
