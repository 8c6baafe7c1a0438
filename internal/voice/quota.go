package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tarahq/tara/internal/state"
)

// DefaultDailyLimit is how many sessions one requester may start per UTC
// calendar day.
const DefaultDailyLimit = 5

// quotaDateFormat is the persisted calendar-day key.
const quotaDateFormat = "2006-01-02"

// Quota tracks per-requester daily session usage. A record whose date is
// not today counts as zero; the counter is never explicitly reset,
// date rollover supersedes it.
type Quota struct {
	mu    sync.Mutex
	store state.Store
	limit int
	now   func() time.Time
}

// NewQuota creates a Quota over the given store. A non-positive limit falls
// back to DefaultDailyLimit.
func NewQuota(store state.Store, limit int) *Quota {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Quota{store: store, limit: limit, now: time.Now}
}

// TryConsume charges one session unit against requesterID's budget for
// today. It returns ErrQuotaExceeded when the budget is spent. A consumed
// unit is never refunded, even when the session fails afterwards.
func (q *Quota) TryConsume(ctx context.Context, requesterID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	today := q.now().UTC().Format(quotaDateFormat)

	rec, err := q.store.LoadQuota(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("voice: load quota: %w", err)
	}

	count := 0
	if rec != nil && rec.Date == today {
		count = rec.Count
	}
	if count >= q.limit {
		return ErrQuotaExceeded
	}

	if err := q.store.SaveQuota(ctx, requesterID, state.QuotaRecord{Date: today, Count: count + 1}); err != nil {
		return fmt.Errorf("voice: save quota: %w", err)
	}
	return nil
}

// Remaining returns how many sessions requesterID may still start today.
func (q *Quota) Remaining(ctx context.Context, requesterID string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	today := q.now().UTC().Format(quotaDateFormat)

	rec, err := q.store.LoadQuota(ctx, requesterID)
	if err != nil {
		return 0, fmt.Errorf("voice: load quota: %w", err)
	}

	count := 0
	if rec != nil && rec.Date == today {
		count = rec.Count
	}
	if count >= q.limit {
		return 0, nil
	}
	return q.limit - count, nil
}
