package health

import (
	"context"
	"time"
)

// Status is the reported condition of a provider or of the gateway as a
// whole. The zero value is healthy; higher values are worse.
type Status int

const (
	// StatusHealthy means calls are flowing normally.
	StatusHealthy Status = iota

	// StatusDegraded means calls still flow but recent behavior warrants
	// attention, such as a failure streak or a probing breaker.
	StatusDegraded

	// StatusUnhealthy means calls are not expected to succeed, typically
	// because the circuit breaker is open.
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of one provider check.
type Result struct {
	Status Status

	// Message is a short explanation of the status.
	Message string

	// Details carries the counters the status was derived from.
	Details map[string]any

	// Err is set when the check reported unhealthy or did not complete.
	Err error

	// CheckedAt and Elapsed are stamped by the aggregator.
	CheckedAt time.Time
	Elapsed   time.Duration
}

// Healthy builds a passing result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded builds a result for a provider that works but needs attention.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message}
}

// Unhealthy builds a failing result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Err: err}
}

// WithDetails attaches the counters behind the result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker reports the condition of one provider.
type Checker interface {
	// Name identifies the provider being checked.
	Name() string

	// Check derives the current condition. It must not send traffic
	// upstream; health is read from local runtime state.
	Check(ctx context.Context) Result
}
