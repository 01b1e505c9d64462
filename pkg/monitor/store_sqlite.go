package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAlertStore implements AlertStore using SQLite. The history is
// rewritten wholesale on each save inside a single transaction, which
// matches the append-then-cap discipline of the Monitor: the persisted
// table always mirrors the current in-memory history exactly.
type SQLiteAlertStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteAlertStore opens (or creates) the alert database at path.
func NewSQLiteAlertStore(path string) (*SQLiteAlertStore, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open alert database: %w", err)
	}

	// Single writer keeps the wholesale rewrite simple.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize alert schema: %w", err)
	}

	return &SQLiteAlertStore{db: db}, nil
}

// SaveAlerts overwrites the persisted history with alerts.
func (s *SQLiteAlertStore) SaveAlerts(ctx context.Context, alerts []Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM alerts"); err != nil {
		return fmt.Errorf("failed to clear alerts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO alerts (id, timestamp, level, message, details) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range alerts {
		var detailsJSON []byte
		if a.Details != nil {
			detailsJSON, err = json.Marshal(a.Details)
			if err != nil {
				return fmt.Errorf("failed to marshal alert details: %w", err)
			}
		}

		_, err = stmt.ExecContext(ctx,
			a.ID,
			a.Timestamp.UnixNano(),
			string(a.Level),
			a.Message,
			string(detailsJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}

	return nil
}

// LoadAlerts returns the persisted history, oldest first.
func (s *SQLiteAlertStore) LoadAlerts(ctx context.Context) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, level, message, details FROM alerts ORDER BY timestamp, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var (
			a           Alert
			ts          int64
			level       string
			detailsJSON string
		)

		if err := rows.Scan(&a.ID, &ts, &level, &a.Message, &detailsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		a.Timestamp = time.Unix(0, ts)
		a.Level = Level(level)

		if detailsJSON != "" {
			if err := json.Unmarshal([]byte(detailsJSON), &a.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alert details: %w", err)
			}
		}

		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// Close closes the underlying database.
func (s *SQLiteAlertStore) Close() error {
	return s.db.Close()
}
