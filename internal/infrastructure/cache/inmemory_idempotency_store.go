package cache

import (
	"context"
	"sync"
	"time"

	"github.com/invoicing/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps event ids in a map. It only deduplicates
// deliveries to this process. Expired ids are swept lazily on write.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiry    map[string]time.Time
	now       func() time.Time
	sweepEach time.Duration
	lastSweep time.Time
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

// NewInMemoryIdempotencyStore creates an empty store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		expiry:    make(map[string]time.Time),
		now:       time.Now,
		sweepEach: defaultSweepInterval,
	}
}

// MarkProcessed implements shared.IdempotencyStore
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if until, ok := s.expiry[eventID]; ok && now.Before(until) {
		return false, nil
	}
	s.expiry[eventID] = now.Add(ttl)
	return true, nil
}

// Forget implements shared.IdempotencyStore
func (s *InMemoryIdempotencyStore) Forget(_ context.Context, eventID string) error {
	s.mu.Lock()
	delete(s.expiry, eventID)
	s.mu.Unlock()
	return nil
}

// Close drops every remembered id
func (s *InMemoryIdempotencyStore) Close() error {
	s.mu.Lock()
	clear(s.expiry)
	s.mu.Unlock()
	return nil
}

// Size returns the number of remembered ids, expired ones included until
// the next sweep
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

func (s *InMemoryIdempotencyStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.sweepEach {
		return
	}
	s.lastSweep = now
	for id, until := range s.expiry {
		if !now.Before(until) {
			delete(s.expiry, id)
		}
	}
}
