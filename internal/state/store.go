// Package state defines the durable store for voice session coordination:
// the exclusive session lock and the per-requester daily usage quota.
//
// Backends live in subpackages (state/sqlite, state/postgres) and a recording
// test double in state/mock. All implementations must survive process
// restarts: a lock or quota written before a crash is visible after it.
package state

import (
	"context"
	"time"
)

// LockRecord is the persisted session lock. A nil record means the lock is
// not held by anyone.
type LockRecord struct {
	// OwnerID is the platform user ID of the lock holder.
	OwnerID string

	// Timestamp is when the lock was acquired or last refreshed.
	Timestamp time.Time
}

// QuotaRecord is the persisted daily usage counter for one requester.
type QuotaRecord struct {
	// Date is the UTC day the counter belongs to, formatted as 2006-01-02.
	Date string

	// Count is the number of sessions consumed on Date.
	Count int
}

// Store persists lock and quota state across restarts.
//
// Implementations must be safe for concurrent use. Atomicity of
// check-then-write sequences is the caller's responsibility (the lock
// manager serialises them); Store only guarantees that each individual
// operation is durable and consistent.
type Store interface {
	// LoadLock returns the current lock record, or (nil, nil) when no lock
	// is held.
	LoadLock(ctx context.Context) (*LockRecord, error)

	// SaveLock writes the lock record, replacing any previous one.
	SaveLock(ctx context.Context, rec LockRecord) error

	// ClearLock removes the lock record. Clearing an absent lock is not an
	// error.
	ClearLock(ctx context.Context) error

	// LoadQuota returns the quota record for requesterID, or (nil, nil) when
	// the requester has no recorded usage.
	LoadQuota(ctx context.Context, requesterID string) (*QuotaRecord, error)

	// SaveQuota writes the quota record for requesterID, replacing any
	// previous one.
	SaveQuota(ctx context.Context, requesterID string, rec QuotaRecord) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}
