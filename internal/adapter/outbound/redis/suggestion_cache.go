package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/outbound"
)

const suggestionKeyPrefix = "relai:suggestions:"

// SuggestionCache stores parsed suggestion lists as JSON.
type SuggestionCache struct {
	client redis.UniversalClient
}

// NewSuggestionCache creates a new suggestion cache adapter.
func NewSuggestionCache(client redis.UniversalClient) *SuggestionCache {
	return &SuggestionCache{client: client}
}

// Get returns the cached list, or nil on a miss.
func (c *SuggestionCache) Get(ctx context.Context, key string) ([]*model.Suggestion, error) {
	data, err := c.client.Get(ctx, suggestionKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestions: %w", err)
	}

	var suggestions []*model.Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return suggestions, nil
}

// Set caches suggestions under key for ttl.
func (c *SuggestionCache) Set(ctx context.Context, key string, suggestions []*model.Suggestion, ttl time.Duration) error {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	if err := c.client.Set(ctx, suggestionKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set suggestions: %w", err)
	}
	return nil
}

// GenerateKey hashes the normalised brief and preferences.
func (c *SuggestionCache) GenerateKey(brief, preferences string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(brief))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(preferences))))
	return hex.EncodeToString(h.Sum(nil))
}

// Compile-time check
var _ outbound.SuggestionCachePort = (*SuggestionCache)(nil)
