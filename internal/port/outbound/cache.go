package outbound

import (
	"context"
	"time"

	"github.com/relai/server/internal/model"
)

// SuggestionCachePort caches parsed suggestion lists.
type SuggestionCachePort interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) ([]*model.Suggestion, error)
	Set(ctx context.Context, key string, suggestions []*model.Suggestion, ttl time.Duration) error
	GenerateKey(brief, preferences string) string
}

// RateLimiterPort defines sliding window rate limiting.
type RateLimiterPort interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// StoredResponse is a response kept for idempotent replay.
type StoredResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}

// IdempotencyStorePort keeps responses and in-flight locks per request key.
type IdempotencyStorePort interface {
	// Load returns nil, nil when nothing is stored.
	Load(ctx context.Context, key string) (*StoredResponse, error)
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Save(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error
}
