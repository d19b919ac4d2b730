package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records telemetry for outbound provider calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a completed provider call with duration and error status.
	RecordCall(ctx context.Context, call CallMeta, duration time.Duration, err error)

	// RecordCacheLookup records a response cache hit or miss.
	RecordCacheLookup(ctx context.Context, call CallMeta, hit bool)

	// RecordUsage records estimated token and cost usage for a call.
	RecordUsage(ctx context.Context, call CallMeta, tokens int64, costUSD float64)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	callCount    metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	tokenCount   metric.Int64Counter
	costTotal    metric.Float64Counter
}

// NewMetrics creates a Metrics instance registered on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	callCount, err := meter.Int64Counter(
		"llm.call.total",
		metric.WithDescription("Total number of provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"llm.call.errors",
		metric.WithDescription("Total number of failed provider calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"llm.call.duration_ms",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"llm.cache.hits",
		metric.WithDescription("Response cache hits"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"llm.cache.misses",
		metric.WithDescription("Response cache misses"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	tokenCount, err := meter.Int64Counter(
		"llm.tokens.estimated",
		metric.WithDescription("Estimated tokens submitted to providers"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	costTotal, err := meter.Float64Counter(
		"llm.cost.usd",
		metric.WithDescription("Estimated spend in US dollars"),
		metric.WithUnit("{usd}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		callCount:    callCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		tokenCount:   tokenCount,
		costTotal:    costTotal,
	}, nil
}

func callAttrs(call CallMeta) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("llm.provider", call.Provider),
		attribute.String("llm.model", call.Model),
	)
}

// RecordCall records metrics for a completed provider call.
func (m *metricsImpl) RecordCall(ctx context.Context, call CallMeta, duration time.Duration, err error) {
	opt := callAttrs(call)

	m.callCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordCacheLookup records a cache hit or miss.
func (m *metricsImpl) RecordCacheLookup(ctx context.Context, call CallMeta, hit bool) {
	opt := callAttrs(call)
	if hit {
		m.cacheHits.Add(ctx, 1, opt)
	} else {
		m.cacheMisses.Add(ctx, 1, opt)
	}
}

// RecordUsage records estimated token and cost usage.
func (m *metricsImpl) RecordUsage(ctx context.Context, call CallMeta, tokens int64, costUSD float64) {
	opt := callAttrs(call)
	m.tokenCount.Add(ctx, tokens, opt)
	if costUSD > 0 {
		m.costTotal.Add(ctx, costUSD, opt)
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, call CallMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordCacheLookup(ctx context.Context, call CallMeta, hit bool)          {}
func (m *noopMetrics) RecordUsage(ctx context.Context, call CallMeta, tokens int64, c float64) {}

// NoopMetrics returns a Metrics that discards everything.
func NoopMetrics() Metrics { return &noopMetrics{} }
