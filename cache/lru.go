package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// LRUConfig configures the LRU cache.
type LRUConfig struct {
	// MaxEntries is the entry count that triggers LRU eviction.
	// Default: 1000
	MaxEntries int

	// CompressionThreshold is the payload size in bytes above which entries
	// are stored compressed. Smaller payloads are stored raw so compression
	// overhead does not dominate tiny entries.
	// Default: 1024
	CompressionThreshold int
}

// LRU is an in-memory cache with strict LRU eviction and per-entry TTL.
// Whichever comes first, LRU order on overflow or TTL expiry, removes an
// entry.
type LRU struct {
	config LRUConfig

	mu      sync.Mutex
	order   *list.List // front = most recently used
	entries map[string]*list.Element

	hits        int64
	misses      int64
	evictions   int64
	expirations int64
	bytes       int64
}

type lruEntry struct {
	key        string
	stored     []byte
	compressed bool
	createdAt  time.Time
	expiresAt  time.Time
	hits       int64
}

// NewLRU creates a new LRU cache.
func NewLRU(config LRUConfig) *LRU {
	// Apply defaults
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	if config.CompressionThreshold <= 0 {
		config.CompressionThreshold = 1024
	}

	return &LRU{
		config:  config,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get retrieves an entry, moving it to most-recently-used position and
// bumping its hit count. Expired entries are removed lazily and reported as
// misses.
func (c *LRU) Get(_ context.Context, key string) (*Entry, bool) {
	c.mu.Lock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	ent := elem.Value.(*lruEntry)
	if time.Now().After(ent.expiresAt) {
		c.removeLocked(elem)
		c.expirations++
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.order.MoveToFront(elem)
	ent.hits++
	c.hits++

	snapshot := &Entry{
		StoredSize: len(ent.stored),
		Compressed: ent.compressed,
		CreatedAt:  ent.createdAt,
		ExpiresAt:  ent.expiresAt,
		Hits:       ent.hits,
	}
	stored := ent.stored
	c.mu.Unlock()

	if snapshot.Compressed {
		payload, err := decompress(stored)
		if err != nil {
			// Corrupt entry: drop it and report a miss.
			_ = c.Delete(context.Background(), key)
			return nil, false
		}
		snapshot.Payload = payload
	} else {
		snapshot.Payload = append([]byte(nil), stored...)
	}

	return snapshot, true
}

// Put stores a payload under key. Payloads above the compression threshold
// are compressed before storage. TTL<=0 disables caching for this payload.
func (c *LRU) Put(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	stored := append([]byte(nil), payload...)
	compressed := false
	if len(payload) > c.config.CompressionThreshold {
		packed, err := compress(payload)
		if err != nil {
			return fmt.Errorf("cache: compress: %w", err)
		}
		// Keep the raw form when compression does not pay off.
		if len(packed) < len(payload) {
			stored = packed
			compressed = true
		}
	}

	now := time.Now()
	ent := &lruEntry{
		key:        key,
		stored:     stored,
		compressed: compressed,
		createdAt:  now,
		expiresAt:  now.Add(ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		// Last writer wins; recency resets with the new write.
		old := elem.Value.(*lruEntry)
		c.bytes -= int64(len(old.stored))
		elem.Value = ent
		c.order.MoveToFront(elem)
		c.bytes += int64(len(stored))
		return nil
	}

	elem := c.order.PushFront(ent)
	c.entries[key] = elem
	c.bytes += int64(len(stored))

	for len(c.entries) > c.config.MaxEntries {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.removeLocked(back)
		c.evictions++
	}

	return nil
}

// Delete removes an entry. Idempotent.
func (c *LRU) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
	return nil
}

// Metrics returns a snapshot of cache counters.
func (c *LRU) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Metrics{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		Entries:     len(c.entries),
		Bytes:       c.bytes,
	}
}

func (c *LRU) removeLocked(elem *list.Element) {
	ent := elem.Value.(*lruEntry)
	c.order.Remove(elem)
	delete(c.entries, ent.key)
	c.bytes -= int64(len(ent.stored))
}

// Ensure LRU implements Cache
var _ Cache = (*LRU)(nil)
