package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/pai-suggest/internal/platform/metrics"
	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const keyPrefix = "suggest:v1:"

// SuggestionCache stores ranked suggestion lists per element as JSON values.
type SuggestionCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewSuggestionCache creates a suggestion cache on top of client. A ttl <= 0
// keeps entries until they are overwritten.
func NewSuggestionCache(client redis.Cmdable, ttl time.Duration) *SuggestionCache {
	return &SuggestionCache{client: client, ttl: ttl}
}

// Key returns the Redis key for an element ID. IDs are hashed so that arbitrary
// editor-supplied identifiers map to fixed-length, delimiter-free keys.
func Key(elementID string) string {
	sum := blake2b.Sum256([]byte(elementID))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Get returns the cached suggestions for elementID.
func (c *SuggestionCache) Get(ctx context.Context, elementID string) ([]recommend.Suggestion, bool, error) {
	raw, err := c.client.Get(ctx, Key(elementID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		return nil, false, fmt.Errorf("reading suggestions: %w", err)
	}

	suggestions, err := decodeSuggestions(raw)
	if err != nil {
		metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		return nil, false, err
	}
	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return suggestions, true, nil
}

// Set stores suggestions for elementID, replacing any previous entry.
func (c *SuggestionCache) Set(ctx context.Context, elementID string, suggestions []recommend.Suggestion) error {
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("encoding suggestions: %w", err)
	}
	if err := c.client.Set(ctx, Key(elementID), raw, c.ttl).Err(); err != nil {
		metrics.CacheOperations.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("writing suggestions: %w", err)
	}
	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
	return nil
}

func decodeSuggestions(raw []byte) ([]recommend.Suggestion, error) {
	var suggestions []recommend.Suggestion
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	return suggestions, nil
}
