// Package resilience provides the per-provider protection primitives for
// outbound LLM calls.
//
// # Patterns
//
//   - Circuit Breaker: stops calling an upstream that is failing until it
//     appears to have recovered. Only errors the configured classifier
//     recognizes as upstream failures count toward the threshold.
//
//   - Rate Limiter: token bucket gating how many calls may start per unit
//     time. Refill is computed lazily from wall-clock time, so idle buckets
//     cost nothing; burst capacity equals bucket capacity.
//
// Both primitives are safe for concurrent use and keyed per provider by the
// caller; neither holds a lock across a network call.
//
// # Usage
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 3,
//	    SuccessThreshold: 2,
//	    RecoveryTimeout:  30 * time.Second,
//	})
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    Rate:  10, // tokens per second
//	    Burst: 10,
//	})
//
//	if !rl.AllowN(1) {
//	    return resilience.ErrRateLimited
//	}
//	if err := cb.Allow(); err != nil {
//	    return err
//	}
//	err := callProvider(ctx)
//	cb.Record(err)
package resilience
