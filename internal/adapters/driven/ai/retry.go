package ai

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/logger"
)

// Retrier retries transient provider failures with capped exponential
// backoff. Permanent failures are returned on first sight.
type Retrier struct {
	limiter    *RateLimiter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetrier creates a retrier from provider settings.
func NewRetrier(cfg domain.ProviderSettings) *Retrier {
	defaults := domain.DefaultAppSettings().Provider
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaults.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = max(defaults.MaxDelay, cfg.BaseDelay)
	}
	return &Retrier{
		limiter:    NewRateLimiter(cfg.RequestsPerSecond),
		maxRetries: max(0, cfg.MaxRetries),
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
	}
}

// Delay returns the backoff before retry number attempt (0-based).
func (r *Retrier) Delay(attempt int) time.Duration {
	d := r.baseDelay
	for range attempt {
		d *= 2
		if d >= r.maxDelay {
			return r.maxDelay
		}
	}
	return min(d, r.maxDelay)
}

// Do runs fn, throttled, until it succeeds, fails permanently, exhausts
// the retries or ctx ends.
func (r *Retrier) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil || !domain.IsTransient(err) || attempt >= r.maxRetries {
			return err
		}

		delay := r.Delay(attempt)
		if errors.Is(err, domain.ErrRateLimited) {
			r.limiter.Pause(delay)
		}
		logger.Debug("%s: attempt %d failed (%v), retrying in %s", op, attempt+1, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
