package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds how an outbound call is retried. A throttled attempt
// stretches the next wait by RateLimitMultiplier unless the upstream named
// its own Retry-After.
type RetryPolicy struct {
	MaxRetries          int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	RateLimitMultiplier float64
	RandomizationFactor float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:          2,
		InitialInterval:     time.Second,
		MaxInterval:         30 * time.Second,
		RateLimitMultiplier: 4,
		RandomizationFactor: 0.2,
	}
}

func normalizeRetryPolicy(p RetryPolicy) RetryPolicy {
	defaults := DefaultRetryPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = defaults.InitialInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = maxDuration(defaults.MaxInterval, p.InitialInterval)
	}
	if p.RateLimitMultiplier < 1 {
		p.RateLimitMultiplier = defaults.RateLimitMultiplier
	}
	if p.RandomizationFactor < 0 || p.RandomizationFactor >= 1 {
		p.RandomizationFactor = defaults.RandomizationFactor
	}
	return p
}

// ThrottleBackOff is an exponential backoff that a call can flag as throttled
// before returning its error.
type ThrottleBackOff struct {
	base       *backoff.ExponentialBackOff
	multiplier float64
	throttled  bool
	retryAfter time.Duration
}

func (p RetryPolicy) NewBackOff() *ThrottleBackOff {
	p = normalizeRetryPolicy(p)
	base := backoff.NewExponentialBackOff()
	base.InitialInterval = p.InitialInterval
	base.MaxInterval = p.MaxInterval
	base.RandomizationFactor = p.RandomizationFactor
	base.Reset()
	return &ThrottleBackOff{base: base, multiplier: p.RateLimitMultiplier}
}

// Throttle marks the attempt as rate limited. A positive retryAfter replaces
// the computed wait for the next attempt.
func (b *ThrottleBackOff) Throttle(retryAfter time.Duration) {
	b.throttled = true
	b.retryAfter = retryAfter
}

func (b *ThrottleBackOff) NextBackOff() time.Duration {
	next := b.base.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if b.throttled {
		if b.retryAfter > 0 {
			next = b.retryAfter
		} else {
			next = time.Duration(float64(next) * b.multiplier)
		}
	}
	b.throttled = false
	b.retryAfter = 0
	return next
}

func (b *ThrottleBackOff) Reset() {
	b.base.Reset()
	b.throttled = false
	b.retryAfter = 0
}

// Retry runs op until it succeeds, returns a backoff.Permanent error, the
// policy's attempts run out, or ctx is done.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(b *ThrottleBackOff) (T, error), notify func(err error, wait time.Duration)) (T, error) {
	policy = normalizeRetryPolicy(policy)
	b := policy.NewBackOff()

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(policy.MaxRetries + 1)),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(notify))
	}

	return backoff.Retry(ctx, func() (T, error) { return op(b) }, opts...)
}

// Permanent stops Retry immediately with err.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func maxDuration(left, right time.Duration) time.Duration {
	if left > right {
		return left
	}
	return right
}
