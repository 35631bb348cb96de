package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relai/server/internal/port/outbound"
)

const (
	idempotencyKeyPrefix  = "relai:idempotency:"
	idempotencyLockPrefix = "relai:idempotency:lock:"
)

// IdempotencyStore keeps replayable responses and in-flight locks in Redis.
type IdempotencyStore struct {
	client redis.UniversalClient
}

// NewIdempotencyStore creates a new idempotency store adapter.
func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Load returns the stored response, or nil when absent.
func (s *IdempotencyStore) Load(ctx context.Context, key string) (*outbound.StoredResponse, error) {
	data, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load response: %w", err)
	}

	var resp outbound.StoredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// Acquire takes the in-flight lock with SET NX.
func (s *IdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyLockPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	return ok, nil
}

// Release drops the in-flight lock.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyLockPrefix+key).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Save stores resp for replay.
func (s *IdempotencyStore) Save(ctx context.Context, key string, resp *outbound.StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := s.client.Set(ctx, idempotencyKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.IdempotencyStorePort = (*IdempotencyStore)(nil)
