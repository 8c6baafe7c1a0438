package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/tarahq/tara/internal/state"
	"github.com/tarahq/tara/internal/state/postgres"
)

// newTestStore creates a fresh [postgres.Store] from the DSN in the
// environment, or skips the test if TARA_TEST_POSTGRES_DSN is not set.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("TARA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TARA_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}

	ctx := context.Background()
	s, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.ClearLock(ctx)
		s.Close()
	})
	return s
}

func TestLockRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ClearLock(ctx); err != nil {
		t.Fatalf("ClearLock: %v", err)
	}

	rec, err := s.LoadLock(ctx)
	if err != nil {
		t.Fatalf("LoadLock: %v", err)
	}
	if rec != nil {
		t.Fatalf("LoadLock after clear = %+v, want nil", rec)
	}

	acquired := time.Now().UTC().Truncate(time.Microsecond)
	if err := s.SaveLock(ctx, state.LockRecord{OwnerID: "user-1", Timestamp: acquired}); err != nil {
		t.Fatalf("SaveLock: %v", err)
	}

	rec, err = s.LoadLock(ctx)
	if err != nil {
		t.Fatalf("LoadLock: %v", err)
	}
	if rec == nil || rec.OwnerID != "user-1" || !rec.Timestamp.Equal(acquired) {
		t.Errorf("LoadLock = %+v, want owner user-1 at %v", rec, acquired)
	}
}

func TestQuotaUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveQuota(ctx, "quota-user", state.QuotaRecord{Date: "2026-03-14", Count: 2}); err != nil {
		t.Fatalf("SaveQuota: %v", err)
	}
	if err := s.SaveQuota(ctx, "quota-user", state.QuotaRecord{Date: "2026-03-15", Count: 1}); err != nil {
		t.Fatalf("SaveQuota (upsert): %v", err)
	}

	rec, err := s.LoadQuota(ctx, "quota-user")
	if err != nil {
		t.Fatalf("LoadQuota: %v", err)
	}
	if rec == nil || rec.Date != "2026-03-15" || rec.Count != 1 {
		t.Errorf("LoadQuota = %+v, want {2026-03-15 1}", rec)
	}
}
