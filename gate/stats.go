package gate

import (
	"github.com/jonwraymond/modelgate/cache"
	"github.com/jonwraymond/modelgate/health"
	"github.com/jonwraymond/modelgate/pool"
	"github.com/jonwraymond/modelgate/resilience"
)

// RateLimiterStats is a point-in-time rate limiter snapshot.
type RateLimiterStats struct {
	// Tokens is the currently available token count.
	Tokens float64

	// Rejections counts acquisitions rejected since startup.
	Rejections int64
}

// BreakerStats is a point-in-time circuit breaker snapshot.
type BreakerStats struct {
	// State is the current breaker state.
	State resilience.State

	// Metrics carries the counters behind the state.
	Metrics resilience.CircuitBreakerMetrics

	// Transitions is the recent state change history, oldest first.
	Transitions []resilience.Transition
}

// ProviderStats is a read-only snapshot of one provider's runtime state,
// for external monitoring. It must not be used to drive call decisions.
type ProviderStats struct {
	Pool        pool.Stats
	RateLimiter RateLimiterStats
	Breaker     BreakerStats
	Cache       cache.Metrics

	// TokensEstimated is the cumulative estimated token count submitted.
	TokensEstimated int64

	// CostUSD is the cumulative estimated spend.
	CostUSD float64
}

// Stats returns per-provider snapshots keyed by provider.
func (c *Client) Stats() map[ProviderKey]ProviderStats {
	out := make(map[ProviderKey]ProviderStats, len(c.providers))
	for key, rt := range c.providers {
		out[key] = ProviderStats{
			Pool: rt.pool.Stats(),
			RateLimiter: RateLimiterStats{
				Tokens:     rt.limiter.Tokens(),
				Rejections: rt.limiter.Rejections(),
			},
			Breaker: BreakerStats{
				State:       rt.breaker.State(),
				Metrics:     rt.breaker.Metrics(),
				Transitions: rt.breaker.Transitions(),
			},
			Cache:           rt.cache.Metrics(),
			TokensEstimated: rt.tokensEstimated.Load(),
			CostUSD:         rt.estimatedCost(),
		}
	}
	return out
}

// RegisterHealth registers one health checker per provider on agg, derived
// from the same snapshots Stats exposes.
func (c *Client) RegisterHealth(agg *health.Aggregator) {
	for key, rt := range c.providers {
		rt := rt
		agg.Register(string(key), health.NewProviderChecker(string(key), func() health.ProviderStats {
			breaker := rt.breaker.Metrics()
			cacheStats := rt.cache.Metrics()

			var hitRate float64
			if lookups := cacheStats.Hits + cacheStats.Misses; lookups > 0 {
				hitRate = float64(cacheStats.Hits) / float64(lookups)
			}

			return health.ProviderStats{
				BreakerState:        breaker.State.String(),
				ConsecutiveFailures: breaker.Failures,
				RateLimitRejections: rt.limiter.Rejections(),
				PoolExhausted:       rt.pool.Stats().Exhausted,
				CacheHitRate:        hitRate,
			}
		}))
	}
}
