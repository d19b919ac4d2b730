package gate

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/modelgate/auth"
	"github.com/jonwraymond/modelgate/cache"
	"github.com/jonwraymond/modelgate/pool"
	"github.com/jonwraymond/modelgate/resilience"
)

// providerRuntime bundles the per-provider state: token bucket, circuit
// breaker, connection pool, response cache and credential. Built once at
// startup, never destroyed during process lifetime.
type providerRuntime struct {
	key     ProviderKey
	config  ProviderConfig
	baseURL *url.URL
	cred    auth.Credential

	limiter *resilience.RateLimiter
	breaker *resilience.CircuitBreaker
	pool    *pool.Pool
	cache   cache.Cache
	policy  cache.Policy

	tokensEstimated atomic.Int64

	mu      sync.Mutex
	costUSD float64
}

// newProviderRuntime builds the runtime for one configured provider.
func newProviderRuntime(key ProviderKey, pc ProviderConfig) (*providerRuntime, error) {
	base, err := url.Parse(pc.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("gate: provider %q: invalid base_url: %w", key, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: provider %q: base_url has no host", ErrMissingBaseURL, key)
	}

	cred, err := auth.New(auth.Options{
		Scheme: pc.AuthScheme,
		Key:    pc.APIKey,
		Header: pc.AuthHeader,
		Issuer: string(key),
	})
	if err != nil {
		return nil, fmt.Errorf("gate: provider %q: %w", key, err)
	}

	rt := &providerRuntime{
		key:     key,
		config:  pc,
		baseURL: base,
		cred:    cred,

		limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:    pc.RateLimitPerS,
			Burst:   pc.BurstCapacity,
			MaxWait: pc.rateLimitWait(),
		}),

		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: pc.FailureThreshold,
			SuccessThreshold: pc.SuccessThreshold,
			RecoveryTimeout:  pc.recoveryTimeout(),
			IsFailure:        countsAgainstBreaker,
		}),

		pool: pool.New(pool.Config{
			MaxPerHost:  pc.MaxConnsPerHost,
			MaxTotal:    pc.MaxTotalConns,
			IdleTimeout: pc.idleTimeout(),
		}),

		cache: cache.NewLRU(cache.LRUConfig{
			MaxEntries:           pc.MaxCacheEntries,
			CompressionThreshold: pc.CompressionThresholdBytes,
		}),

		policy: cache.Policy{
			Mode:             cache.ParseMode(pc.CacheMode),
			DeterministicTTL: time.Duration(pc.DefaultTTLS) * time.Second,
			VolatileTTL:      time.Duration(pc.VolatileTTLS) * time.Second,
			MaxTTL:           time.Duration(pc.DefaultTTLS) * time.Second,
			AllowModels:      pc.CacheAllowModels,
		},
	}

	return rt, nil
}

// countsAgainstBreaker reports whether an error represents genuine upstream
// failure. Malformed-input errors must not trip the breaker.
func countsAgainstBreaker(err error) bool {
	if err == nil {
		return false
	}
	switch classify(err) {
	case KindUpstream, KindTimeout:
		return true
	default:
		return false
	}
}

// recordUsage accumulates estimated token and cost counters.
func (rt *providerRuntime) recordUsage(tokens int, costUSD float64) {
	rt.tokensEstimated.Add(int64(tokens))
	if costUSD > 0 {
		rt.mu.Lock()
		rt.costUSD += costUSD
		rt.mu.Unlock()
	}
}

func (rt *providerRuntime) estimatedCost() float64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.costUSD
}

func (rt *providerRuntime) close() {
	rt.pool.Close()
}
