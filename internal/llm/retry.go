package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// wait returns the pause before retry number n (zero-based), with up to 20%
// jitter either way.
func (c RetryConfig) wait(n int) time.Duration {
	d := float64(c.InitialWait)
	for range n {
		d *= c.Multiplier
		if d >= float64(c.MaxWait) {
			d = float64(c.MaxWait)
			break
		}
	}
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

type retrying struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry retries failed generations with exponential backoff. Truncated
// replies and context errors are returned at once; invalid replies are
// retried a single time.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &retrying{inner: p, cfg: cfg}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	invalidSeen := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		switch KindOf(err) {
		case KindTruncated:
			return nil, err
		case KindInvalid:
			if invalidSeen {
				return nil, err
			}
			invalidSeen = true
		}
		if attempt >= r.cfg.MaxAttempts {
			return nil, err
		}

		pause := r.cfg.wait(attempt - 1)
		var e *Error
		if errors.As(err, &e) && e.RetryAfter > 0 {
			pause = e.RetryAfter
		}
		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *retrying) ModelID() string { return r.inner.ModelID() }
