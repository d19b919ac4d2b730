package pool

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Session is a reusable network session bound to one host.
//
// Contract:
// - Ownership: exclusive to one caller between Acquire and Release.
// - Close must be idempotent and safe after a failed round trip.
type Session interface {
	// RoundTrip performs one HTTP exchange over this session.
	RoundTrip(req *http.Request) (*http.Response, error)

	// Close releases the session's underlying resources.
	Close() error
}

// Dialer creates a new session to the given host ("host" or "host:port").
type Dialer func(ctx context.Context, host string) (Session, error)

// Conn is a pooled session checked out by at most one in-flight call.
type Conn struct {
	host     string
	sess     Session
	created  time.Time
	lastUsed time.Time
}

// Host returns the host this connection is bound to.
func (c *Conn) Host() string {
	return c.host
}

// RoundTrip performs one HTTP exchange over the pooled session.
func (c *Conn) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.sess.RoundTrip(req)
}

// Age returns how long ago the connection was dialed.
func (c *Conn) Age() time.Duration {
	return time.Since(c.created)
}

// httpSession is the default Session: a dedicated HTTP transport holding a
// single keep-alive connection to its host, so TCP/TLS handshakes are paid
// once per session rather than once per call.
type httpSession struct {
	transport *http.Transport
}

func (s *httpSession) RoundTrip(req *http.Request) (*http.Response, error) {
	return s.transport.RoundTrip(req)
}

func (s *httpSession) Close() error {
	s.transport.CloseIdleConnections()
	return nil
}

// newHTTPDialer builds the default Dialer. Each session owns its transport;
// addresses are resolved through the shared DNS cache.
func newHTTPDialer(dns *dnsCache, idleTimeout time.Duration) Dialer {
	return func(_ context.Context, _ string) (Session, error) {
		netDialer := &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}

		transport := &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return netDialer.DialContext(ctx, network, addr)
				}
				addrs, err := dns.lookup(ctx, host)
				if err != nil || len(addrs) == 0 {
					return netDialer.DialContext(ctx, network, addr)
				}
				var lastErr error
				for _, ip := range addrs {
					conn, err := netDialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
					lastErr = err
				}
				return nil, lastErr
			},
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			TLSHandshakeTimeout: 10 * time.Second,
			MaxConnsPerHost:     1,
			MaxIdleConnsPerHost: 1,
			IdleConnTimeout:     idleTimeout,
			ForceAttemptHTTP2:   true,
		}

		return &httpSession{transport: transport}, nil
	}
}
