package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/p-n-ai/pai-suggest/internal/platform/metrics"
)

// Router tries registered providers in order until one returns a vector.
type Router struct {
	providers map[string]Provider
	fallback  []string // ordered fallback chain
	mu        sync.RWMutex
}

// NewRouter creates a new embedding router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the end of the fallback chain.
func (r *Router) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := provider.Name()
	if _, exists := r.providers[name]; !exists {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Name implements Provider.
func (r *Router) Name() string {
	return "router"
}

// Embed routes a request through the fallback chain.
func (r *Router) Embed(ctx context.Context, text string) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lastErr error
	for _, name := range r.fallback {
		provider := r.providers[name]

		vec, err := provider.Embed(ctx, text)
		if err == nil && len(vec) == 0 {
			err = errors.New("empty embedding")
		}
		if err != nil {
			metrics.EmbeddingRequests.WithLabelValues(name, "failure").Inc()
			slog.Warn("embedding provider failed, trying next",
				"provider", name,
				"error", err,
			)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		metrics.EmbeddingRequests.WithLabelValues(name, "success").Inc()
		slog.Debug("embedding computed",
			"provider", name,
			"dimension", len(vec),
		)
		return vec, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: all providers failed: %w", ErrUnavailable, lastErr)
	}
	return nil, fmt.Errorf("%w: no providers registered", ErrUnavailable)
}

// HealthCheck succeeds if any registered provider is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return fmt.Errorf("%w: no providers registered", ErrUnavailable)
	}
	var lastErr error
	for _, name := range r.fallback {
		if err := r.providers[name].HealthCheck(ctx); err != nil {
			lastErr = fmt.Errorf("%s: %w", name, err)
			continue
		}
		return nil
	}
	return lastErr
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}
