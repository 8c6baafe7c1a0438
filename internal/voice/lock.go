package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tarahq/tara/internal/state"
)

// DefaultTTL is how long an unrefreshed lock stays held before it is
// treated as vacant.
const DefaultTTL = 600 * time.Second

// LockState is the result of an expiry-aware lock read.
type LockState struct {
	// Held reports whether a non-expired lock exists.
	Held bool

	// OwnerID is the holder's requester ID when Held.
	OwnerID string

	// Remaining is how long until the lock expires when Held.
	Remaining time.Duration
}

// Lock is the single-holder session lock. Expiry is soft: every read
// compares the stored timestamp against the TTL, so a crashed or restarted
// process re-derives vacancy from the durable record and no background
// sweeper is needed.
//
// All read-modify-write sequences over the store are serialised by an
// internal mutex; the departure watcher's force-release goes through the
// same mutex as Acquire.
type Lock struct {
	mu    sync.Mutex
	store state.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewLock creates a Lock over the given store. A non-positive ttl falls
// back to DefaultTTL.
func NewLock(store state.Store, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lock{store: store, ttl: ttl, now: time.Now}
}

// Read returns the current lock state. An expired stored record is reported
// Vacant and cleared from the store.
func (l *Lock) Read(ctx context.Context) (LockState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(ctx)
}

// read is the unexported expiry-aware load; callers must hold l.mu.
func (l *Lock) read(ctx context.Context) (LockState, error) {
	rec, err := l.store.LoadLock(ctx)
	if err != nil {
		return LockState{}, fmt.Errorf("voice: load lock: %w", err)
	}
	if rec == nil {
		return LockState{}, nil
	}

	elapsed := l.now().Sub(rec.Timestamp)
	if elapsed > l.ttl {
		// Stale record. Clearing is best-effort: vacancy is derived from
		// the timestamp either way, and the next Acquire overwrites it.
		_ = l.store.ClearLock(ctx)
		return LockState{}, nil
	}

	return LockState{
		Held:      true,
		OwnerID:   rec.OwnerID,
		Remaining: l.ttl - elapsed,
	}, nil
}

// Acquire takes the lock for requesterID. It succeeds when the lock is
// vacant, expired, or already held by the same requester (re-entry), and
// returns a *ConflictError naming the holder otherwise.
func (l *Lock) Acquire(ctx context.Context, requesterID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.read(ctx)
	if err != nil {
		return err
	}
	if st.Held && st.OwnerID != requesterID {
		return &ConflictError{OwnerID: st.OwnerID}
	}

	if err := l.store.SaveLock(ctx, state.LockRecord{OwnerID: requesterID, Timestamp: l.now()}); err != nil {
		return fmt.Errorf("voice: save lock: %w", err)
	}
	return nil
}

// Refresh re-stamps the lock timestamp for requesterID, extending the idle
// window after a finished playback. Refreshing a lock that is vacant or
// held by someone else is a no-op.
func (l *Lock) Refresh(ctx context.Context, requesterID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.read(ctx)
	if err != nil {
		return err
	}
	if !st.Held || st.OwnerID != requesterID {
		return nil
	}

	if err := l.store.SaveLock(ctx, state.LockRecord{OwnerID: requesterID, Timestamp: l.now()}); err != nil {
		return fmt.Errorf("voice: refresh lock: %w", err)
	}
	return nil
}

// Release unconditionally clears the lock regardless of the current owner.
// Used on quota exhaustion, departure detection, and shutdown.
func (l *Lock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.ClearLock(ctx); err != nil {
		return fmt.Errorf("voice: release lock: %w", err)
	}
	return nil
}
