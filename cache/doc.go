// Package cache provides a content-addressed store of prior provider
// responses.
//
// It provides a Cache interface with an LRU+TTL implementation, SHA-256
// request fingerprinting over normalized request content, transparent
// compression for large payloads, and a content-aware caching policy with
// aggressive, conservative, selective, and disabled modes.
package cache
