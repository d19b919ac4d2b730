package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is not an int64 sum", m.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsRecordCall(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	call := CallMeta{Provider: "openai", Model: "gpt-4o-mini"}

	metrics.RecordCall(ctx, call, 40*time.Millisecond, nil)
	metrics.RecordCall(ctx, call, 60*time.Millisecond, errors.New("boom"))

	data := collect(t, reader)

	if got := counterValue(t, data["llm.call.total"]); got != 2 {
		t.Errorf("llm.call.total = %d, want 2", got)
	}
	if got := counterValue(t, data["llm.call.errors"]); got != 1 {
		t.Errorf("llm.call.errors = %d, want 1", got)
	}

	hist, ok := data["llm.call.duration_ms"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("llm.call.duration_ms is not a float64 histogram")
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("duration histogram count = %d, want 2", count)
	}
}

func TestMetricsRecordCacheLookup(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	call := CallMeta{Provider: "anthropic", Model: "claude-sonnet"}

	metrics.RecordCacheLookup(ctx, call, true)
	metrics.RecordCacheLookup(ctx, call, true)
	metrics.RecordCacheLookup(ctx, call, false)

	data := collect(t, reader)
	if got := counterValue(t, data["llm.cache.hits"]); got != 2 {
		t.Errorf("llm.cache.hits = %d, want 2", got)
	}
	if got := counterValue(t, data["llm.cache.misses"]); got != 1 {
		t.Errorf("llm.cache.misses = %d, want 1", got)
	}
}

func TestMetricsRecordUsage(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	call := CallMeta{Provider: "openai", Model: "gpt-4o-mini"}

	metrics.RecordUsage(ctx, call, 1004, 0.01004)
	metrics.RecordUsage(ctx, call, 500, 0) // cost unknown, tokens still counted

	data := collect(t, reader)
	if got := counterValue(t, data["llm.tokens.estimated"]); got != 1504 {
		t.Errorf("llm.tokens.estimated = %d, want 1504", got)
	}

	cost, ok := data["llm.cost.usd"].Data.(metricdata.Sum[float64])
	if !ok {
		t.Fatal("llm.cost.usd is not a float64 sum")
	}
	var total float64
	for _, dp := range cost.DataPoints {
		total += dp.Value
	}
	if total < 0.01 || total > 0.011 {
		t.Errorf("llm.cost.usd = %f, want ~0.01004", total)
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics()
	ctx := context.Background()
	call := CallMeta{Provider: "ollama"}
	m.RecordCall(ctx, call, time.Second, nil)
	m.RecordCacheLookup(ctx, call, true)
	m.RecordUsage(ctx, call, 10, 0)
}
