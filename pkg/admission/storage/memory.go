package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend implements Backend using in-memory storage.
// All data is lost when the process exits. It is the default backend and
// is also used by tests that need to observe what the governor persists.
//
// MemoryBackend is thread-safe and supports concurrent access.
type MemoryBackend struct {
	// state holds the single usage snapshot, nil until first save.
	state *UsageState

	// saves counts successful SaveUsage calls, for tests.
	saves int

	// failWrites forces SaveUsage to fail, for tests exercising the
	// best-effort persistence contract.
	failWrites bool

	mu sync.RWMutex
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// SaveUsage overwrites the stored usage snapshot.
func (m *MemoryBackend) SaveUsage(ctx context.Context, state *UsageState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites {
		return fmt.Errorf("save usage: %w", ErrStorageFailure)
	}

	// Store a copy so later caller mutations don't leak in.
	copied := *state
	m.state = &copied
	m.saves++

	return nil
}

// LoadUsage returns a copy of the stored snapshot, or nil if none exists.
func (m *MemoryBackend) LoadUsage(ctx context.Context) (*UsageState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return nil, nil
	}

	copied := *m.state
	return &copied, nil
}

// Close releases resources. No-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// SaveCount returns the number of successful saves. Test helper.
func (m *MemoryBackend) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// SetFailWrites makes subsequent saves fail. Test helper.
func (m *MemoryBackend) SetFailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = fail
}
