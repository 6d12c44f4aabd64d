package fetch

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Retry defaults.
const (
	// DefaultRetryBudget is how many times a transient failure is
	// retried after the first attempt.
	DefaultRetryBudget = 2

	DefaultBackoffBase = 250 * time.Millisecond
	DefaultBackoffMax  = 5 * time.Second
)

// RetryPolicy decides whether a failed attempt is retried and how long
// to wait before the next one. Only transport errors are retryable;
// validation rejections and rule errors never reach this policy.
type RetryPolicy struct {
	budget      int
	backoffBase time.Duration
	backoffMax  time.Duration
}

// NewRetryPolicy builds a policy with the given retry budget and
// exponential backoff bounds. Non-positive backoff values fall back to
// the defaults; a negative budget means no retries.
func NewRetryPolicy(budget int, base, max time.Duration) *RetryPolicy {
	if budget < 0 {
		budget = 0
	}
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	return &RetryPolicy{budget: budget, backoffBase: base, backoffMax: max}
}

// ShouldRetry reports whether another attempt is allowed after the
// given number of completed attempts. Context cancellation is never
// retried: the run is shutting down.
func (p *RetryPolicy) ShouldRetry(err error, attempts int) bool {
	if err == nil {
		return false
	}
	if attempts > p.budget {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var transport *TransportError
	return errors.As(err, &transport)
}

// Backoff returns the jittered wait before the given attempt number
// (1-based for the first retry). The delay doubles per attempt up to
// the configured maximum, with half the delay randomized to spread
// concurrent retries.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.backoffBase) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.backoffMax) {
		delay = float64(p.backoffMax)
	}
	half := delay / 2
	return time.Duration(half) + time.Duration(rand.Int63n(int64(half)+1)) //nolint:gosec // jitter, not crypto
}

// FetchWithRetry fetches url, retrying transient transport failures
// within the policy's budget. The last error is returned when the
// budget is exhausted.
func (c *Client) FetchWithRetry(ctx context.Context, url string, policy *RetryPolicy) (Response, error) {
	attempts := 0
	for {
		resp, err := c.Fetch(ctx, url)
		if err == nil {
			return resp, nil
		}
		attempts++
		if !policy.ShouldRetry(err, attempts) {
			return Response{}, err
		}

		select {
		case <-ctx.Done():
			return Response{}, err
		case <-time.After(policy.Backoff(attempts)):
		}
	}
}
