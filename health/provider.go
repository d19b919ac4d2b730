package health

import (
	"context"
	"fmt"
)

// Breaker state names as reported by ProviderStats.
const (
	BreakerClosed   = "closed"
	BreakerHalfOpen = "half-open"
	BreakerOpen     = "open"
)

// ProviderStats is a point-in-time snapshot of a provider's runtime counters.
type ProviderStats struct {
	// BreakerState is the circuit breaker state: closed, half-open or open.
	BreakerState string

	// ConsecutiveFailures is the current failure streak seen by the breaker.
	ConsecutiveFailures int

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections int64

	// PoolExhausted counts acquisitions that failed because the pool was full.
	PoolExhausted int64

	// CacheHitRate is the response cache hit rate in [0,1], if known.
	CacheHitRate float64
}

// StatsFunc returns a snapshot of a provider's runtime counters. It must be
// cheap and must not block on network I/O.
type StatsFunc func() ProviderStats

// ProviderChecker reports a provider's health from its local runtime state.
// No probe request is sent upstream: an open breaker already encodes the
// upstream's recent behavior.
type ProviderChecker struct {
	name  string
	stats StatsFunc
}

// NewProviderChecker creates a checker for the named provider.
func NewProviderChecker(name string, stats StatsFunc) *ProviderChecker {
	return &ProviderChecker{name: name, stats: stats}
}

// Name returns the provider name.
func (p *ProviderChecker) Name() string {
	return p.name
}

// Check derives the health status from the provider's counters.
func (p *ProviderChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	stats := p.stats()

	details := map[string]any{
		"breaker_state":         stats.BreakerState,
		"consecutive_failures":  stats.ConsecutiveFailures,
		"rate_limit_rejections": stats.RateLimitRejections,
		"pool_exhausted":        stats.PoolExhausted,
		"cache_hit_rate":        stats.CacheHitRate,
	}

	switch stats.BreakerState {
	case BreakerOpen:
		return Unhealthy(
			fmt.Sprintf("circuit open after %d consecutive failures", stats.ConsecutiveFailures),
			ErrCheckFailed,
		).WithDetails(details)

	case BreakerHalfOpen:
		return Degraded("circuit half-open, probing upstream").WithDetails(details)

	default:
		if stats.ConsecutiveFailures > 0 {
			return Degraded(
				fmt.Sprintf("%d consecutive failures, circuit still closed", stats.ConsecutiveFailures),
			).WithDetails(details)
		}
		return Healthy("provider operating normally").WithDetails(details)
	}
}

var _ Checker = (*ProviderChecker)(nil)
