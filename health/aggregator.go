package health

import (
	"context"
	"sync"
	"time"
)

const defaultCheckTimeout = 10 * time.Second

// AggregatorConfig configures how provider checks are run.
type AggregatorConfig struct {
	// Timeout bounds one CheckAll pass. Default 10s.
	Timeout time.Duration

	// Sequential runs checks one at a time in registration order instead
	// of concurrently.
	Sequential bool
}

// Aggregator runs the registered provider checks and combines their
// results into a gateway-wide status.
type Aggregator struct {
	config AggregatorConfig

	mu     sync.RWMutex
	order  []string
	byName map[string]Checker
}

// NewAggregator builds an aggregator. With no arguments checks run
// concurrently under the default timeout.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCheckTimeout
	}
	return &Aggregator{
		config: cfg,
		byName: make(map[string]Checker),
	}
}

// Register adds or replaces the check for one provider. Registration order
// is preserved for sequential runs and for Providers.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byName[name]; !ok {
		a.order = append(a.order, name)
	}
	a.byName[name] = checker
}

// Providers returns the registered provider names in registration order.
func (a *Aggregator) Providers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Check runs the check for a single provider.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.byName[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrUnknownCheck
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.run(ctx, checker), nil
}

// CheckAll runs every registered check and returns the results keyed by
// provider name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	names := make([]string, len(a.order))
	copy(names, a.order)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = a.byName[name]
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(names))
	if len(names) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if a.config.Sequential {
		for i, name := range names {
			results[name] = a.run(ctx, checkers[i])
		}
		return results
	}

	var (
		wg    sync.WaitGroup
		resmu sync.Mutex
	)
	for i, name := range names {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			result := a.run(ctx, checker)
			resmu.Lock()
			results[name] = result
			resmu.Unlock()
		}(name, checkers[i])
	}
	wg.Wait()

	return results
}

// run executes one check, stamping timing and converting a blown deadline
// into an unhealthy result.
func (a *Aggregator) run(ctx context.Context, checker Checker) Result {
	start := time.Now()

	done := make(chan Result, 1)
	go func() {
		done <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}
	result.CheckedAt = start
	result.Elapsed = time.Since(start)
	return result
}

// Overall folds per-provider results into one status: unhealthy wins over
// degraded, degraded over healthy. No results reads as healthy.
func Overall(results map[string]Result) Status {
	overall := StatusHealthy
	for _, result := range results {
		if result.Status > overall {
			overall = result.Status
		}
	}
	return overall
}
