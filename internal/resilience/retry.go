// Package resilience retries transient failures when fetching listing feeds.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
)

// Policy controls retry with exponential backoff and jitter.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Base is the delay before the first retry; each retry doubles it.
	Base time.Duration
	// Max caps a single delay.
	Max time.Duration
	// Jitter adds up to this fraction of the delay, chosen at random.
	Jitter float64

	// Retryable overrides IsTransient.
	Retryable func(error) bool
	// OnRetry is called before each sleep with the 1-based attempt that failed.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy tries three times starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Base:     time.Second,
		Max:      30 * time.Second,
		Jitter:   0.5,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Base <= 0 {
		p.Base = d.Base
	}
	if p.Max <= 0 {
		p.Max = d.Max
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Delay returns the sleep before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	wait := float64(p.Base) * math.Pow(2, float64(attempt))
	if wait > float64(p.Max) {
		wait = float64(p.Max)
	}
	if p.Jitter > 0 {
		wait += rand.Float64() * p.Jitter * wait
	}
	return time.Duration(wait)
}

// Retry calls fn until it succeeds, returns a non-retryable error, or runs out
// of attempts. A cancelled context stops immediately with the last error.
func Retry[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := range p.Attempts {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.Retryable(err) {
			return zero, err
		}
		if attempt == p.Attempts-1 {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		t := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, lastErr
		case <-t.C:
		}
	}
	return zero, eris.Wrapf(lastErr, "all retries exhausted after %d attempts", p.Attempts)
}
