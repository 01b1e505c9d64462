package monitor

import (
	"context"
	"fmt"
	"sync"
)

// MemoryAlertStore implements AlertStore in memory. History does not
// survive the process; used as the default and in tests.
type MemoryAlertStore struct {
	alerts []Alert
	saves  int

	// failWrites forces SaveAlerts to fail, for tests.
	failWrites bool

	mu sync.RWMutex
}

// NewMemoryAlertStore creates an empty in-memory alert store.
func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{}
}

// SaveAlerts overwrites the stored history.
func (s *MemoryAlertStore) SaveAlerts(ctx context.Context, alerts []Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return fmt.Errorf("save alerts: injected failure")
	}

	s.alerts = make([]Alert, len(alerts))
	copy(s.alerts, alerts)
	s.saves++

	return nil
}

// LoadAlerts returns a copy of the stored history.
func (s *MemoryAlertStore) LoadAlerts(ctx context.Context) ([]Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out, nil
}

// Close releases resources. No-op for the memory store.
func (s *MemoryAlertStore) Close() error {
	return nil
}

// SaveCount returns the number of successful saves. Test helper.
func (s *MemoryAlertStore) SaveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// SetFailWrites makes subsequent saves fail. Test helper.
func (s *MemoryAlertStore) SetFailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}
