// Package health reports provider and gateway health without sending
// traffic upstream.
//
// ProviderChecker derives one provider's condition from its runtime
// counters, primarily the circuit breaker state:
//
//	check := health.NewProviderChecker("openai", func() health.ProviderStats {
//	    return health.ProviderStats{BreakerState: health.BreakerClosed}
//	})
//
// Aggregator combines per-provider checks into a gateway-wide status:
//
//	agg := health.NewAggregator()
//	agg.Register("openai", openaiChecker)
//	agg.Register("anthropic", anthropicChecker)
//
//	results := agg.CheckAll(ctx)
//	overall := health.Overall(results)
//
// HTTP handlers cover the common probe patterns:
//
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler(agg))
//	http.Handle("/health", health.StatusHandler(agg))
package health
