package pool

import (
	"context"
	"net"
	"sync"
	"time"
)

// dnsCache caches resolved addresses per host for a fixed TTL.
type dnsCache struct {
	ttl      time.Duration
	resolver *net.Resolver

	mu      sync.Mutex
	entries map[string]dnsEntry
}

type dnsEntry struct {
	addrs   []string
	expires time.Time
}

func newDNSCache(ttl time.Duration) *dnsCache {
	return &dnsCache{
		ttl:      ttl,
		resolver: net.DefaultResolver,
		entries:  make(map[string]dnsEntry),
	}
}

// lookup returns the cached addresses for host, resolving on a miss or
// after the TTL has passed.
func (d *dnsCache) lookup(ctx context.Context, host string) ([]string, error) {
	// Literal IPs bypass resolution entirely.
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}

	d.mu.Lock()
	entry, ok := d.entries[host]
	d.mu.Unlock()

	if ok && time.Now().Before(entry.expires) {
		return entry.addrs, nil
	}

	addrs, err := d.resolver.LookupHost(ctx, host)
	if err != nil {
		// Serve a stale entry over a hard failure when one exists.
		if ok {
			return entry.addrs, nil
		}
		return nil, err
	}

	d.mu.Lock()
	d.entries[host] = dnsEntry{addrs: addrs, expires: time.Now().Add(d.ttl)}
	d.mu.Unlock()

	return addrs, nil
}

// purge drops expired entries. Called from the pool's reap cycle.
func (d *dnsCache) purge() {
	now := time.Now()
	d.mu.Lock()
	for host, entry := range d.entries {
		if now.After(entry.expires) {
			delete(d.entries, host)
		}
	}
	d.mu.Unlock()
}
