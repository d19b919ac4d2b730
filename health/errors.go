package health

import "errors"

var (
	// ErrCheckFailed marks an unhealthy result, typically an open breaker.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a check that outlived the aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrUnknownCheck is returned when no check is registered under the
	// requested provider name.
	ErrUnknownCheck = errors.New("health: unknown provider")
)
