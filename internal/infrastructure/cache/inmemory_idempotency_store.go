package cache

import (
	"context"
	"sync"
	"time"
)

const cleanupInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed event IDs in a process-local
// map. Good enough for single-instance deployments and tests; a second
// instance would not see these entries and could process a redelivered
// DocuSign event twice.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	seen      map[string]time.Time // event ID -> entry expiry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts a background
// sweeper that drops expired entries.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		seen:     make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.sweepLoop()

	return store
}

// MarkProcessed records an event ID for the given ttl. Returns true on
// first sight, false when the event was already recorded and unexpired.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.seen[eventID]; ok && time.Now().Before(expiry) {
		return false, nil
	}

	s.seen[eventID] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether an unexpired entry exists for the event ID
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.seen[eventID]
	if !ok || time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops entries whose ttl has elapsed. IsProcessed already treats
// expired entries as absent, the sweep just reclaims the memory.
func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for eventID, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, eventID)
		}
	}
}

// Size returns the number of tracked entries, expired ones included
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

var _ IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
