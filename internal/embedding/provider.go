// Package embedding provides text embedding providers with fallback routing.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no provider could produce an embedding.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider is the interface all embedding backends must implement.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)
	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error
}
