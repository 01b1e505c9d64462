package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// usageRowID is the primary key of the single snapshot row. The snapshot
// is overwritten wholesale on each save, so one row is all there is.
const usageRowID = 1

// SQLiteBackend implements Backend using SQLite for persistence.
// It stores the usage snapshot in a single upserted row and is suitable
// for single-instance deployments where counters should survive restarts.
//
// SQLiteBackend uses a write-ahead log (WAL) for better concurrent
// performance and periodic passive checkpointing.
type SQLiteBackend struct {
	db               *sql.DB
	dbPath           string
	snapshotInterval time.Duration
	done             chan struct{}
	mu               sync.RWMutex
	closeOnce        sync.Once

	saveStmt *sql.Stmt
	loadStmt *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	SnapshotInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a new SQLite storage backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{
		DBPath:           dbPath,
		SnapshotInterval: 5 * time.Minute,
		BusyTimeout:      5 * time.Second,
	})
}

// NewSQLiteBackendWithConfig creates a new SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:               db,
		dbPath:           cfg.DBPath,
		snapshotInterval: cfg.SnapshotInterval,
		done:             make(chan struct{}),
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go backend.checkpointLoop()

	return backend, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_tokens INTEGER NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		embedding_tokens INTEGER NOT NULL,
		hourly_usage INTEGER NOT NULL,
		daily_window_start INTEGER NOT NULL,
		hourly_window_start INTEGER NOT NULL,
		last_updated INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO usage_snapshot (id, total_tokens, prompt_tokens, completion_tokens,
			embedding_tokens, hourly_usage, daily_window_start, hourly_window_start, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			total_tokens = excluded.total_tokens,
			prompt_tokens = excluded.prompt_tokens,
			completion_tokens = excluded.completion_tokens,
			embedding_tokens = excluded.embedding_tokens,
			hourly_usage = excluded.hourly_usage,
			daily_window_start = excluded.daily_window_start,
			hourly_window_start = excluded.hourly_window_start,
			last_updated = excluded.last_updated
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT total_tokens, prompt_tokens, completion_tokens, embedding_tokens,
			hourly_usage, daily_window_start, hourly_window_start
		FROM usage_snapshot
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	return nil
}

// SaveUsage overwrites the persisted usage snapshot.
func (s *SQLiteBackend) SaveUsage(ctx context.Context, state *UsageState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.saveStmt.ExecContext(ctx,
		usageRowID,
		state.TotalTokens,
		state.PromptTokens,
		state.CompletionTokens,
		state.EmbeddingTokens,
		state.HourlyUsage,
		state.DailyWindowStart.Unix(),
		state.HourlyWindowStart.Unix(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save usage snapshot: %w", err)
	}

	return nil
}

// LoadUsage returns the persisted snapshot, or nil if none exists.
func (s *SQLiteBackend) LoadUsage(ctx context.Context) (*UsageState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		state       UsageState
		dailyStart  int64
		hourlyStart int64
	)

	err := s.loadStmt.QueryRowContext(ctx, usageRowID).Scan(
		&state.TotalTokens,
		&state.PromptTokens,
		&state.CompletionTokens,
		&state.EmbeddingTokens,
		&state.HourlyUsage,
		&dailyStart,
		&hourlyStart,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load usage snapshot: %w", err)
	}

	state.DailyWindowStart = time.Unix(dailyStart, 0)
	state.HourlyWindowStart = time.Unix(hourlyStart, 0)

	return &state, nil
}

// Close releases any resources held by the backend.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.loadStmt != nil {
			s.loadStmt.Close()
		}

		if s.db != nil {
			// Run final checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteBackend) checkpointLoop() {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
