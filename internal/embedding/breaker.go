package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/p-n-ai/pai-suggest/internal/platform/metrics"
)

// BreakerProvider guards a provider with a circuit breaker so that an unreachable
// model server fails fast instead of holding every request for the full timeout.
//
// Settings:
//   - 3 trial requests in half-open state
//   - counts reset every minute while closed
//   - 30 seconds open before probing again
//   - opens after 5 consecutive failures
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[[]float64]
}

// WithBreaker wraps p in a circuit breaker.
func WithBreaker(p Provider) *BreakerProvider {
	name := "embedding-" + p.Name()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state change",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// A cancelled caller says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: p, cb: cb}
}

func (b *BreakerProvider) Name() string {
	return b.next.Name()
}

func (b *BreakerProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return b.cb.Execute(func() ([]float64, error) {
		return b.next.Embed(ctx, text)
	})
}

func (b *BreakerProvider) HealthCheck(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return b.next.HealthCheck(ctx)
}

// State returns the current breaker state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
