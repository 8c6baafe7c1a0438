// Package postgres provides a PostgreSQL-backed [state.Store] implementation
// on top of a pgx connection pool, for deployments that already run Postgres
// and want lock and quota state in the same database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tarahq/tara/internal/state"
)

var _ state.Store = (*Store)(nil)

// Store is a PostgreSQL-backed state.Store.
//
// All operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a connection pool to the database at dsn and ensures the
// schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres state: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres state: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres state: ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres state: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS voice_lock (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    owner_id TEXT NOT NULL,
    acquired_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS voice_quota (
    requester_id TEXT PRIMARY KEY,
    day TEXT NOT NULL,
    count INTEGER NOT NULL
);`)
	return err
}

// LoadLock implements state.Store.
func (s *Store) LoadLock(ctx context.Context) (*state.LockRecord, error) {
	var rec state.LockRecord
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id, acquired_at FROM voice_lock WHERE id = 1`,
	).Scan(&rec.OwnerID, &rec.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres state: load lock: %w", err)
	}
	return &rec, nil
}

// SaveLock implements state.Store.
func (s *Store) SaveLock(ctx context.Context, rec state.LockRecord) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO voice_lock (id, owner_id, acquired_at) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET owner_id = EXCLUDED.owner_id, acquired_at = EXCLUDED.acquired_at`,
		rec.OwnerID, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("postgres state: save lock: %w", err)
	}
	return nil
}

// ClearLock implements state.Store.
func (s *Store) ClearLock(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM voice_lock WHERE id = 1`); err != nil {
		return fmt.Errorf("postgres state: clear lock: %w", err)
	}
	return nil
}

// LoadQuota implements state.Store.
func (s *Store) LoadQuota(ctx context.Context, requesterID string) (*state.QuotaRecord, error) {
	var rec state.QuotaRecord
	err := s.pool.QueryRow(ctx,
		`SELECT day, count FROM voice_quota WHERE requester_id = $1`, requesterID,
	).Scan(&rec.Date, &rec.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres state: load quota: %w", err)
	}
	return &rec, nil
}

// SaveQuota implements state.Store.
func (s *Store) SaveQuota(ctx context.Context, requesterID string, rec state.QuotaRecord) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO voice_quota (requester_id, day, count) VALUES ($1, $2, $3)
ON CONFLICT (requester_id) DO UPDATE SET day = EXCLUDED.day, count = EXCLUDED.count`,
		requesterID, rec.Date, rec.Count)
	if err != nil {
		return fmt.Errorf("postgres state: save quota: %w", err)
	}
	return nil
}

// Ping implements state.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements state.Store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
