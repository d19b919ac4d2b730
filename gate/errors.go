package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/modelgate/pool"
	"github.com/jonwraymond/modelgate/resilience"
)

// Kind classifies a call failure so callers can decide between retrying,
// failing over to another provider, or surfacing the error.
type Kind int

const (
	// KindConfig means the call never started: unknown provider, invalid
	// request shape, or bad configuration.
	KindConfig Kind = iota
	// KindPoolExhausted means no connection slot freed up in time. Transient.
	KindPoolExhausted
	// KindRateLimited means the provider's token bucket rejected the call.
	// Transient; wait or switch provider.
	KindRateLimited
	// KindCircuitOpen means the provider is currently considered unhealthy.
	// Callers should fail over.
	KindCircuitOpen
	// KindUpstream means the network call failed or the provider returned a
	// server error. Counted against the circuit breaker.
	KindUpstream
	// KindClient means the request was malformed. Not counted against the
	// breaker and not worth retrying unchanged.
	KindClient
	// KindTimeout means the caller's deadline expired at some stage.
	KindTimeout
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindPoolExhausted:
		return "pool_exhausted"
	case KindRateLimited:
		return "rate_limited"
	case KindCircuitOpen:
		return "circuit_open"
	case KindUpstream:
		return "upstream"
	case KindClient:
		return "client"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Stages at which a call can fail.
const (
	StageConfig    = "config"
	StageCache     = "cache"
	StageRateLimit = "ratelimit"
	StageBreaker   = "breaker"
	StagePool      = "pool"
	StageCall      = "call"
)

// Error is a typed call failure tagging the stage that produced it.
type Error struct {
	Kind     Kind
	Stage    string
	Provider ProviderKey
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gate: %s: %s: %s", e.Provider, e.Stage, e.Kind)
	}
	return fmt.Sprintf("gate: %s: %s: %s: %v", e.Provider, e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is worth retrying, possibly against
// another provider.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindPoolExhausted, KindRateLimited, KindCircuitOpen, KindUpstream, KindTimeout:
		return true
	default:
		return false
	}
}

// KindOf extracts the failure kind from an error returned by Client.
// It returns KindUpstream for errors that did not originate here.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUpstream
}

// newError wraps err with its classification, stage and provider.
func newError(kind Kind, stage string, provider ProviderKey, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Provider: provider, Err: err}
}

// classify maps errors from the underlying components onto a Kind. An error
// that already carries a classification keeps it.
func classify(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.Is(err, resilience.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, resilience.ErrCircuitOpen):
		return KindCircuitOpen
	case errors.Is(err, pool.ErrPoolExhausted), errors.Is(err, pool.ErrPoolClosed):
		return KindPoolExhausted
	default:
		var se *statusError
		if errors.As(err, &se) {
			if se.clientFault() {
				return KindClient
			}
			return KindUpstream
		}
		return KindUpstream
	}
}
