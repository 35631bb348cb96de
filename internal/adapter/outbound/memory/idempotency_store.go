package memory

import (
	"context"
	"sync"
	"time"

	"github.com/relai/server/internal/port/outbound"
)

type storedEntry struct {
	resp    *outbound.StoredResponse
	expires time.Time
}

// IdempotencyStore keeps replayable responses and locks in process memory.
type IdempotencyStore struct {
	mu        sync.Mutex
	responses map[string]storedEntry
	locks     map[string]time.Time
	now       func() time.Time
}

// NewIdempotencyStore creates an in-process idempotency store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		responses: make(map[string]storedEntry),
		locks:     make(map[string]time.Time),
		now:       time.Now,
	}
}

// Load returns the stored response for key, or nil when absent or expired.
func (s *IdempotencyStore) Load(_ context.Context, key string) (*outbound.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.responses[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.responses, key)
		return nil, nil
	}
	return e.resp, nil
}

// Acquire takes the in-flight lock for key unless someone else holds it.
func (s *IdempotencyStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if exp, held := s.locks[key]; held && now.Before(exp) {
		return false, nil
	}
	s.locks[key] = now.Add(ttl)
	return true, nil
}

// Release drops the in-flight lock for key.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

// Save stores resp for replay until ttl elapses.
func (s *IdempotencyStore) Save(_ context.Context, key string, resp *outbound.StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.responses[key] = storedEntry{resp: resp, expires: now.Add(ttl)}
	return nil
}

// sweep drops expired responses and locks. Callers hold s.mu.
func (s *IdempotencyStore) sweep(now time.Time) {
	for k, e := range s.responses {
		if !now.Before(e.expires) {
			delete(s.responses, k)
		}
	}
	for k, exp := range s.locks {
		if !now.Before(exp) {
			delete(s.locks, k)
		}
	}
}

// Compile-time check
var _ outbound.IdempotencyStorePort = (*IdempotencyStore)(nil)
