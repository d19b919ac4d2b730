package pool

import "errors"

// Sentinel errors for pool operations.
var (
	// ErrPoolExhausted is returned when no connection slot became available
	// before the caller's deadline. Transient: callers may retry or fail
	// over to another provider.
	ErrPoolExhausted = errors.New("pool: exhausted")

	// ErrPoolClosed is returned when acquiring from a closed pool.
	ErrPoolClosed = errors.New("pool: closed")
)
