package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func closedChecker(name string) *ProviderChecker {
	return NewProviderChecker(name, func() ProviderStats {
		return ProviderStats{BreakerState: BreakerClosed}
	})
}

func openChecker(name string) *ProviderChecker {
	return NewProviderChecker(name, func() ProviderStats {
		return ProviderStats{BreakerState: BreakerOpen, ConsecutiveFailures: 5}
	})
}

// stuckChecker does not report until its context is cancelled.
type stuckChecker struct{ name string }

func (s *stuckChecker) Name() string { return s.name }

func (s *stuckChecker) Check(ctx context.Context) Result {
	<-ctx.Done()
	time.Sleep(10 * time.Millisecond)
	return Healthy("late")
}

func TestAggregatorCheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register("openai", closedChecker("openai"))
	agg.Register("anthropic", openChecker("anthropic"))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results["openai"].Status != StatusHealthy {
		t.Errorf("openai = %v", results["openai"].Status)
	}
	if results["anthropic"].Status != StatusUnhealthy {
		t.Errorf("anthropic = %v", results["anthropic"].Status)
	}
	if results["openai"].CheckedAt.IsZero() {
		t.Error("CheckedAt not stamped")
	}
	if Overall(results) != StatusUnhealthy {
		t.Errorf("overall = %v, want unhealthy", Overall(results))
	}
}

func TestAggregatorSequential(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Sequential: true})
	agg.Register("openai", closedChecker("openai"))
	agg.Register("anthropic", openChecker("anthropic"))

	results := agg.CheckAll(context.Background())
	if results["openai"].Status != StatusHealthy {
		t.Errorf("openai = %v", results["openai"].Status)
	}
	if results["anthropic"].Status != StatusUnhealthy {
		t.Errorf("anthropic = %v", results["anthropic"].Status)
	}
}

func TestAggregatorTimeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register("slow", &stuckChecker{name: "slow"})

	results := agg.CheckAll(context.Background())
	result := results["slow"]
	if result.Status != StatusUnhealthy {
		t.Errorf("status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Err, ErrCheckTimeout) {
		t.Errorf("err = %v, want ErrCheckTimeout", result.Err)
	}
}

func TestAggregatorCheckByName(t *testing.T) {
	agg := NewAggregator()
	agg.Register("openai", closedChecker("openai"))

	result, err := agg.Check(context.Background(), "openai")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Status != StatusHealthy {
		t.Errorf("status = %v", result.Status)
	}

	if _, err := agg.Check(context.Background(), "mistral"); !errors.Is(err, ErrUnknownCheck) {
		t.Errorf("err = %v, want ErrUnknownCheck", err)
	}
}

func TestAggregatorProvidersOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register("anthropic", closedChecker("anthropic"))
	agg.Register("openai", closedChecker("openai"))
	// Re-registering keeps the original position.
	agg.Register("anthropic", openChecker("anthropic"))

	names := agg.Providers()
	if len(names) != 2 || names[0] != "anthropic" || names[1] != "openai" {
		t.Errorf("Providers() = %v", names)
	}

	results := agg.CheckAll(context.Background())
	if results["anthropic"].Status != StatusUnhealthy {
		t.Error("re-registration did not replace the checker")
	}
}

func TestOverall(t *testing.T) {
	if got := Overall(nil); got != StatusHealthy {
		t.Errorf("Overall(nil) = %v", got)
	}

	mixed := map[string]Result{
		"a": Healthy("ok"),
		"b": Degraded("streak"),
	}
	if got := Overall(mixed); got != StatusDegraded {
		t.Errorf("Overall = %v, want degraded", got)
	}
}
