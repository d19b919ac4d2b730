package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Entry is a cached response returned by Get. Payload is always the
// decompressed bytes regardless of how the entry is stored.
type Entry struct {
	Payload    []byte
	StoredSize int
	Compressed bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Hits       int64
}

// Cache is the interface for storing provider responses by fingerprint.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use; readers
//     never observe a partially written entry, and for concurrent writes to
//     one key the last writer wins.
//   - Errors: Get never errors; it returns (nil, false) on miss or expiry.
type Cache interface {
	// Get retrieves a cached entry and marks it most recently used.
	Get(ctx context.Context, key string) (*Entry, bool)

	// Put stores a payload with the given TTL. TTL<=0 means no caching.
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes a cached entry. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Metrics returns a point-in-time snapshot of cache counters.
	Metrics() Metrics
}

// Metrics is a read-only snapshot of cache activity.
type Metrics struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	Entries     int
	Bytes       int64
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
