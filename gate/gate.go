package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/modelgate/cache"
	"github.com/jonwraymond/modelgate/observe"
	"github.com/jonwraymond/modelgate/tokens"
)

// Request validation errors.
var (
	// ErrEmptyMessages indicates a request with no messages.
	ErrEmptyMessages = errors.New("gate: request has no messages")

	// ErrMissingModel indicates a request with no model id.
	ErrMissingModel = errors.New("gate: request has no model")
)

// Client is the resilient front door for provider calls. Every call passes
// through cache lookup, rate limiting, circuit breaking and the connection
// pool, in that order, and the outcome is recorded back into the breaker
// and the cache.
//
// A Client is safe for concurrent use. It owns no long-lived call state
// itself; all per-provider state lives in the keyed registry built at
// construction time.
type Client struct {
	providers     map[ProviderKey]*providerRuntime
	estimator     *tokens.Estimator
	fingerprinter cache.Fingerprinter
	mw            *observe.Middleware
	logger        observe.Logger
	group         singleflight.Group
}

// NewClient builds a Client from configuration with telemetry disabled.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Service == "" {
		cfg.Service = "modelgate"
	}
	obs, err := observe.NewObserver(context.Background(), observe.Config{
		ServiceName: cfg.Service,
	})
	if err != nil {
		return nil, err
	}
	return NewClientWithObserver(cfg, obs)
}

// NewClientWithObserver builds a Client that reports through obs.
func NewClientWithObserver(cfg Config, obs observe.Observer) (*Client, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}

	providers := make(map[ProviderKey]*providerRuntime, len(cfg.Providers))
	profiles := make(map[string]tokens.Profile, len(cfg.Providers))

	for name, pc := range cfg.Providers {
		key := ProviderKey(name)
		rt, err := newProviderRuntime(key, pc)
		if err != nil {
			for _, built := range providers {
				built.close()
			}
			return nil, err
		}
		providers[key] = rt

		profiles[name] = tokens.Profile{
			CharsPerToken:  pc.CharsPerToken,
			PricePer1K:     pc.PricePer1KTokens,
			ContextWindows: pc.ContextWindows,
		}
	}

	return &Client{
		providers:     providers,
		estimator:     tokens.NewEstimator(profiles),
		fingerprinter: cache.NewSHA256Fingerprinter(),
		mw:            mw,
		logger:        obs.Logger(),
	}, nil
}

// Complete performs one logical chat completion call through the full
// pipeline. A cache hit returns immediately without consuming rate-limit
// tokens or touching the breaker. Failures are typed; see Kind.
func (c *Client) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	rt, ok := c.providers[req.Provider]
	if !ok {
		return nil, newError(KindConfig, StageConfig, req.Provider,
			fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider))
	}
	if len(req.Messages) == 0 {
		return nil, newError(KindClient, StageConfig, req.Provider, ErrEmptyMessages)
	}
	if req.Model == "" {
		return nil, newError(KindClient, StageConfig, req.Provider, ErrMissingModel)
	}

	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	est, err := c.estimator.Estimate(string(req.Provider), req.Model, req.Messages)
	if err != nil {
		est = tokens.Estimate{}
	}

	meta := observe.CallMeta{
		Provider: string(rt.key),
		Model:    req.Model,
		Host:     rt.baseURL.Host,
		Stream:   req.Stream,
	}

	ttl := rt.policy.TTLFor(req.deterministic(), req.Stream, req.Model)

	var fingerprint string
	if ttl > 0 {
		fingerprint, err = c.fingerprinter.Fingerprint(string(req.Provider), req.Model, req.fingerprintContent())
		if err != nil {
			// An unfingerprintable request is simply not cached.
			fingerprint = ""
		}
	}

	if fingerprint != "" {
		if entry, ok := rt.cache.Get(ctx, fingerprint); ok {
			c.mw.Metrics().RecordCacheLookup(ctx, meta, true)
			return c.buildResult(rt, req, est, entry.Payload, true)
		}
		c.mw.Metrics().RecordCacheLookup(ctx, meta, false)
	}

	var payload []byte
	if fingerprint != "" {
		// Concurrent identical misses share one upstream call; the winner
		// consumes the rate-limit token and fills the cache.
		v, callErr, _ := c.group.Do(fingerprint, func() (any, error) {
			return c.callUpstream(ctx, rt, req, est, meta, fingerprint, ttl)
		})
		if callErr != nil {
			return nil, callErr
		}
		payload = v.([]byte)
	} else {
		payload, err = c.callUpstream(ctx, rt, req, est, meta, "", 0)
		if err != nil {
			return nil, err
		}
	}

	return c.buildResult(rt, req, est, payload, false)
}

// callUpstream runs the rate limiter, breaker, pool and network stages for
// one cache miss and stores the result per policy.
func (c *Client) callUpstream(ctx context.Context, rt *providerRuntime, req *CompletionRequest,
	est tokens.Estimate, meta observe.CallMeta, fingerprint string, ttl time.Duration) ([]byte, error) {

	cost := 1
	if rt.config.LimitByTokens && est.Tokens > 0 {
		cost = est.Tokens
	}
	if err := rt.limiter.WaitN(ctx, cost); err != nil {
		return nil, newError(classify(err), StageRateLimit, rt.key, err)
	}

	if err := rt.breaker.Allow(); err != nil {
		return nil, newError(KindCircuitOpen, StageBreaker, rt.key, err)
	}

	fn := c.mw.Wrap(func(ctx context.Context, call observe.CallMeta) (any, error) {
		payload, err := rt.dispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		return payload, nil
	})

	v, err := fn(ctx, meta)

	// A call that never reached the upstream carries no signal about its
	// health, so pool exhaustion is not fed into the breaker.
	if err == nil || KindOf(err) != KindPoolExhausted {
		rt.breaker.Record(err)
	}

	if err != nil {
		return nil, err
	}
	payload := v.([]byte)

	rt.recordUsage(est.Tokens, est.Cost)
	c.mw.Metrics().RecordUsage(ctx, meta, int64(est.Tokens), est.Cost)

	if fingerprint != "" && ttl > 0 {
		if putErr := rt.cache.Put(ctx, fingerprint, payload, ttl); putErr != nil {
			c.logger.Warn(ctx, "cache store failed",
				observe.Field{Key: "provider", Value: string(rt.key)},
				observe.Field{Key: "error", Value: putErr.Error()},
			)
		}
	}

	return payload, nil
}

// buildResult decodes a live or cached payload into a CompletionResult.
func (c *Client) buildResult(rt *providerRuntime, req *CompletionRequest, est tokens.Estimate,
	payload []byte, cached bool) (*CompletionResult, error) {

	resp, err := decodeChatResponse(payload)
	if err != nil {
		stage := StageCall
		if cached {
			stage = StageCache
		}
		return nil, newError(KindUpstream, stage, rt.key, err)
	}

	result := &CompletionResult{
		Model:    resp.Model,
		Provider: rt.key,
		Cached:   cached,
		Usage: Usage{
			PromptTokens:     est.Tokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	if resp.Usage.PromptTokens > 0 {
		result.Usage.PromptTokens = resp.Usage.PromptTokens
	}
	if !cached {
		result.Usage.EstimatedCost = est.Cost
	}
	if len(resp.Choices) > 0 {
		result.Content = resp.Choices[0].Message.Content
	}

	return result, nil
}

// CacheTotals aggregates cache counters across all providers.
func (c *Client) CacheTotals() cache.Metrics {
	var total cache.Metrics
	for _, rt := range c.providers {
		m := rt.cache.Metrics()
		total.Hits += m.Hits
		total.Misses += m.Misses
		total.Evictions += m.Evictions
		total.Expirations += m.Expirations
		total.Entries += m.Entries
		total.Bytes += m.Bytes
	}
	return total
}

// Providers returns the configured provider keys.
func (c *Client) Providers() []ProviderKey {
	keys := make([]ProviderKey, 0, len(c.providers))
	for key := range c.providers {
		keys = append(keys, key)
	}
	return keys
}

// Close stops the background reapers and closes idle connections. In-flight
// calls are unaffected; their connections are discarded on release.
func (c *Client) Close() {
	for _, rt := range c.providers {
		rt.close()
	}
}
