package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

type retrying struct {
	inner Provider
	cfg   RetryConfig
	// sleep waits d or until ctx ends. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry retries rate limits and outages with capped exponential backoff.
// A reply that fails schema validation is retried once; rejected and
// truncated requests are not retried at all.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retrying{inner: p, cfg: cfg, sleep: sleepCtx}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	invalidSeen := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts || ctx.Err() != nil {
			return nil, err
		}
		switch KindOf(err) {
		case KindRateLimited, KindUnavailable:
		case KindInvalidResponse:
			if invalidSeen {
				return nil, err
			}
			invalidSeen = true
		default:
			return nil, err
		}
		if serr := r.sleep(ctx, r.delay(attempt, err)); serr != nil {
			return nil, serr
		}
	}
}

func (r *retrying) ModelID() string { return r.inner.ModelID() }

// delay is the wait after the given failed attempt (1-based). A server
// Retry-After wins but is still capped by MaxWait.
func (r *retrying) delay(attempt int, err error) time.Duration {
	var d time.Duration
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		d = e.RetryAfter
	} else {
		base := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
		// Spread within [base/2, base) so concurrent clients drift apart.
		d = time.Duration(base/2 + rand.Float64()*base/2)
	}
	if r.cfg.MaxWait > 0 && d > r.cfg.MaxWait {
		d = r.cfg.MaxWait
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
