package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of tokens replenished per second.
	// Default: 100
	Rate float64

	// Burst is the bucket capacity. Short bursts above the steady-state
	// rate are admitted up to this many tokens.
	// Default: 10
	Burst int

	// MaxWait is the maximum time WaitN blocks for tokens to accrue.
	// Default: 1 second
	MaxWait time.Duration
}

// RateLimiter implements a token bucket rate limiter.
//
// The bucket refills lazily from wall-clock elapsed time at each acquire
// attempt, so idle buckets cost nothing. Available tokens never exceed
// Burst and never go negative.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time

	rejections atomic.Int64
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	// Apply defaults
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}

	return &RateLimiter{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: time.Now(),
	}
}

// Allow checks if a single request is admitted under the rate limit.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN checks if n tokens are available, consuming them if so. The check
// and decrement happen under one lock acquisition.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}

	rl.rejections.Add(1)
	return false
}

// Wait blocks until a token is available, the context is done, or MaxWait
// elapses.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN blocks until n tokens are available. It returns ErrRateLimited if
// the tokens do not accrue within MaxWait, or the context error if the
// caller's deadline expires first.
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if rl.allowQuiet(n) {
		return nil
	}

	deadline := time.Now().Add(rl.config.MaxWait)

	for {
		rl.mu.Lock()
		rl.refillLocked()
		missing := float64(n) - rl.tokens
		rl.mu.Unlock()

		sleep := time.Duration(missing / rl.config.Rate * float64(time.Second))
		if remaining := time.Until(deadline); sleep > remaining {
			sleep = remaining
		}
		if sleep <= 0 {
			if rl.allowQuiet(n) {
				return nil
			}
			rl.rejections.Add(1)
			return ErrRateLimited
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if rl.allowQuiet(n) {
			return nil
		}
		if time.Now().After(deadline) {
			rl.rejections.Add(1)
			return ErrRateLimited
		}
	}
}

// allowQuiet is AllowN without counting a rejection, for use inside the
// wait loop where only the final outcome is a rejection.
func (rl *RateLimiter) allowQuiet(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}
	return false
}

// Execute runs the operation if admitted by the rate limit, waiting up to
// MaxWait when wait is true.
func (rl *RateLimiter) Execute(ctx context.Context, wait bool, op func(context.Context) error) error {
	if wait {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimited
	}

	return op(ctx)
}

func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	rl.lastRefill = now

	rl.tokens += elapsed.Seconds() * rl.config.Rate

	// Cap at burst capacity
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Rejections returns the cumulative number of rejected acquisitions.
func (rl *RateLimiter) Rejections() int64 {
	return rl.rejections.Load()
}

// Reset refills the bucket to capacity.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = float64(rl.config.Burst)
	rl.lastRefill = time.Now()
}
