package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryProvider retries a provider with exponential backoff.
type RetryProvider struct {
	next     Provider
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps p so that Embed is attempted up to 1+retries times, waiting
// backoff, 2*backoff, 4*backoff... between attempts. retries <= 0 returns p unchanged.
func WithRetry(p Provider, retries int, backoff time.Duration) Provider {
	if retries <= 0 {
		return p
	}
	return &RetryProvider{
		next:     p,
		attempts: retries + 1,
		backoff:  backoff,
		sleep:    sleepContext,
	}
}

func (r *RetryProvider) Name() string {
	return r.next.Name()
}

func (r *RetryProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			delay := r.backoff << (attempt - 1)
			slog.Debug("retrying embedding",
				"provider", r.next.Name(),
				"attempt", attempt+1,
				"delay", delay,
			)
			if err := r.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("retry aborted: %w (last error: %w)", err, lastErr)
			}
		}

		vec, err := r.next.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", r.attempts, lastErr)
}

func (r *RetryProvider) HealthCheck(ctx context.Context) error {
	return r.next.HealthCheck(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
