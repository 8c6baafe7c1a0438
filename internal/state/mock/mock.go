// Package mock provides an in-memory test double for the state.Store
// interface with per-method error injection.
package mock

import (
	"context"
	"sync"

	"github.com/tarahq/tara/internal/state"
)

// Store is an in-memory state.Store. The zero value is ready to use.
type Store struct {
	mu sync.Mutex

	lock   *state.LockRecord
	quotas map[string]state.QuotaRecord

	// Error injection. When set, the corresponding method returns the error
	// without touching stored state.
	LoadLockErr  error
	SaveLockErr  error
	ClearLockErr error
	LoadQuotaErr error
	SaveQuotaErr error
	PingErr      error
}

var _ state.Store = (*Store)(nil)

// LoadLock implements state.Store.
func (s *Store) LoadLock(_ context.Context) (*state.LockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadLockErr != nil {
		return nil, s.LoadLockErr
	}
	if s.lock == nil {
		return nil, nil
	}
	rec := *s.lock
	return &rec, nil
}

// SaveLock implements state.Store.
func (s *Store) SaveLock(_ context.Context, rec state.LockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveLockErr != nil {
		return s.SaveLockErr
	}
	s.lock = &rec
	return nil
}

// ClearLock implements state.Store.
func (s *Store) ClearLock(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearLockErr != nil {
		return s.ClearLockErr
	}
	s.lock = nil
	return nil
}

// LoadQuota implements state.Store.
func (s *Store) LoadQuota(_ context.Context, requesterID string) (*state.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadQuotaErr != nil {
		return nil, s.LoadQuotaErr
	}
	rec, ok := s.quotas[requesterID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// SaveQuota implements state.Store.
func (s *Store) SaveQuota(_ context.Context, requesterID string, rec state.QuotaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveQuotaErr != nil {
		return s.SaveQuotaErr
	}
	if s.quotas == nil {
		s.quotas = make(map[string]state.QuotaRecord)
	}
	s.quotas[requesterID] = rec
	return nil
}

// Ping implements state.Store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PingErr
}

// Close implements state.Store.
func (s *Store) Close() error { return nil }

// SetLock seeds the stored lock directly, bypassing error injection.
func (s *Store) SetLock(rec *state.LockRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lock = rec
}

// Lock returns a copy of the stored lock, or nil.
func (s *Store) Lock() *state.LockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock == nil {
		return nil
	}
	rec := *s.lock
	return &rec
}

// Quota returns a copy of the stored quota for requesterID, or nil.
func (s *Store) Quota(requesterID string) *state.QuotaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.quotas[requesterID]
	if !ok {
		return nil
	}
	return &rec
}
