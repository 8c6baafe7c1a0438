// Package sqlite provides the default, file-backed [state.Store]
// implementation using modernc.org/sqlite (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tarahq/tara/internal/state"
)

var _ state.Store = (*Store)(nil)

// Store is a SQLite-backed state.Store. The session lock occupies a single
// row; quota counters are keyed by requester ID.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and ensures
// the schema exists. Parent directories are created as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite state: create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite state: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite state: ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite state: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS voice_lock (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    owner_id TEXT NOT NULL,
    acquired_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS voice_quota (
    requester_id TEXT PRIMARY KEY,
    day TEXT NOT NULL,
    count INTEGER NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// LoadLock implements state.Store.
func (s *Store) LoadLock(ctx context.Context) (*state.LockRecord, error) {
	var rec state.LockRecord
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id, acquired_at FROM voice_lock WHERE id = 1`,
	).Scan(&rec.OwnerID, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite state: load lock: %w", err)
	}
	rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("sqlite state: parse lock timestamp %q: %w", ts, err)
	}
	return &rec, nil
}

// SaveLock implements state.Store.
func (s *Store) SaveLock(ctx context.Context, rec state.LockRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO voice_lock (id, owner_id, acquired_at) VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET owner_id = excluded.owner_id, acquired_at = excluded.acquired_at`,
		rec.OwnerID, rec.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite state: save lock: %w", err)
	}
	return nil
}

// ClearLock implements state.Store.
func (s *Store) ClearLock(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM voice_lock WHERE id = 1`); err != nil {
		return fmt.Errorf("sqlite state: clear lock: %w", err)
	}
	return nil
}

// LoadQuota implements state.Store.
func (s *Store) LoadQuota(ctx context.Context, requesterID string) (*state.QuotaRecord, error) {
	var rec state.QuotaRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT day, count FROM voice_quota WHERE requester_id = ?`, requesterID,
	).Scan(&rec.Date, &rec.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite state: load quota: %w", err)
	}
	return &rec, nil
}

// SaveQuota implements state.Store.
func (s *Store) SaveQuota(ctx context.Context, requesterID string, rec state.QuotaRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO voice_quota (requester_id, day, count) VALUES (?, ?, ?)
ON CONFLICT (requester_id) DO UPDATE SET day = excluded.day, count = excluded.count`,
		requesterID, rec.Date, rec.Count)
	if err != nil {
		return fmt.Errorf("sqlite state: save quota: %w", err)
	}
	return nil
}

// Ping implements state.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements state.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
