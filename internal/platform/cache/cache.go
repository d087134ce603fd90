// Package cache provides the Dragonfly/Redis backed suggestion cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-suggest/internal/platform/config"
)

// Cache owns the Redis/Dragonfly connection behind the suggestion cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to the configured cache and verifies it with a ping.
func Open(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	opts, err := clientOptions(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{client: client, ttl: cfg.TTL}, nil
}

// clientOptions parses a redis:// or rediss:// URL. A suggestion lookup is on
// the request path, so timeouts are short and a failed command is retried once.
func clientOptions(url string) (*redis.Options, error) {
	if url == "" {
		return nil, errors.New("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.MaxRetries = 1
	return opts, nil
}

// Suggestions returns the suggestion cache stored on this connection, using
// the configured TTL.
func (c *Cache) Suggestions() *SuggestionCache {
	return NewSuggestionCache(c.client, c.ttl)
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
