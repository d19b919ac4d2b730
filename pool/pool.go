package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Config configures the pool.
type Config struct {
	// MaxPerHost is the maximum number of connections per target host.
	// Default: 25
	MaxPerHost int

	// MaxTotal is the maximum number of connections across all hosts.
	// Default: 100
	MaxTotal int

	// IdleTimeout is how long a released connection may sit idle before the
	// reaper closes it.
	// Default: 300 seconds
	IdleTimeout time.Duration

	// ReapInterval is how often the idle reaper runs.
	// Default: 30 seconds
	ReapInterval time.Duration

	// DNSCacheTTL is how long resolved addresses are cached by the default
	// dialer.
	// Default: 300 seconds
	DNSCacheTTL time.Duration

	// Dialer creates sessions. Default: an HTTP transport dialer with DNS
	// caching.
	Dialer Dialer
}

// Pool owns reusable sessions per target host, bounded per host and
// globally. The zero value is not usable; call New.
type Pool struct {
	config Config
	dialer Dialer
	dns    *dnsCache

	// total bounds connections across all hosts; this is the deliberate
	// backpressure point for outstanding network calls.
	total *semaphore.Weighted

	mu     sync.Mutex
	hosts  map[string]*hostState
	closed bool

	dialed    atomic.Int64
	reaped    atomic.Int64
	exhausted atomic.Int64

	stop chan struct{}
	done chan struct{}
}

type hostState struct {
	sem   chan struct{}
	idle  []*Conn
	inUse int
}

// New creates a pool and starts its idle reaper. Callers must Close the
// pool to stop the reaper and release idle sessions.
func New(config Config) *Pool {
	// Apply defaults
	if config.MaxPerHost <= 0 {
		config.MaxPerHost = 25
	}
	if config.MaxTotal <= 0 {
		config.MaxTotal = 100
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 300 * time.Second
	}
	if config.ReapInterval <= 0 {
		config.ReapInterval = 30 * time.Second
	}
	if config.DNSCacheTTL <= 0 {
		config.DNSCacheTTL = 300 * time.Second
	}

	p := &Pool{
		config: config,
		dns:    newDNSCache(config.DNSCacheTTL),
		total:  semaphore.NewWeighted(int64(config.MaxTotal)),
		hosts:  make(map[string]*hostState),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	p.dialer = config.Dialer
	if p.dialer == nil {
		p.dialer = newHTTPDialer(p.dns, config.IdleTimeout)
	}

	go p.reapLoop()

	return p
}

// Acquire checks out a connection to host, dialing a new session if no idle
// one exists. It blocks while both limits are saturated and fails with
// ErrPoolExhausted once ctx expires.
func (p *Pool) Acquire(ctx context.Context, host string) (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	hs := p.hosts[host]
	if hs == nil {
		hs = &hostState{sem: make(chan struct{}, p.config.MaxPerHost)}
		p.hosts[host] = hs
	}
	p.mu.Unlock()

	if err := p.total.Acquire(ctx, 1); err != nil {
		p.exhausted.Add(1)
		return nil, fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}

	select {
	case hs.sem <- struct{}{}:
	case <-ctx.Done():
		p.total.Release(1)
		p.exhausted.Add(1)
		return nil, fmt.Errorf("%w: %v", ErrPoolExhausted, ctx.Err())
	}

	// Prefer the most recently used idle session.
	p.mu.Lock()
	var conn *Conn
	if n := len(hs.idle); n > 0 {
		conn = hs.idle[n-1]
		hs.idle = hs.idle[:n-1]
	}
	hs.inUse++
	p.mu.Unlock()

	if conn != nil {
		return conn, nil
	}

	sess, err := p.dialer(ctx, host)
	if err != nil {
		p.mu.Lock()
		hs.inUse--
		p.mu.Unlock()
		<-hs.sem
		p.total.Release(1)
		return nil, fmt.Errorf("pool: dial %s: %w", host, err)
	}
	p.dialed.Add(1)

	return &Conn{host: host, sess: sess, created: time.Now()}, nil
}

// Release returns a connection to the pool. A non-reusable connection (for
// example after a transport error or an abandoned deadline) is closed and
// discarded; a fresh one is dialed lazily on next demand.
func (p *Pool) Release(conn *Conn, reusable bool) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	hs := p.hosts[conn.host]
	if hs != nil {
		hs.inUse--
	}
	if reusable && !p.closed && hs != nil {
		conn.lastUsed = time.Now()
		hs.idle = append(hs.idle, conn)
		conn = nil
	}
	p.mu.Unlock()

	if conn != nil {
		_ = conn.sess.Close()
	}
	if hs != nil {
		<-hs.sem
	}
	p.total.Release(1)
}

// Close stops the reaper and closes all idle sessions. Checked-out
// connections are unaffected; releasing them after Close discards them.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	var idle []*Conn
	for _, hs := range p.hosts {
		idle = append(idle, hs.idle...)
		hs.idle = nil
	}
	p.mu.Unlock()

	close(p.stop)
	<-p.done

	for _, conn := range idle {
		_ = conn.sess.Close()
	}
}

func (p *Pool) reapLoop() {
	defer close(p.done)

	ticker := time.NewTicker(p.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.reapIdle(time.Now())
			p.dns.purge()
		}
	}
}

// reapIdle closes idle sessions past the idle timeout. Only idle sessions
// are touched; ownership of checked-out connections stays with the caller.
func (p *Pool) reapIdle(now time.Time) {
	var stale []*Conn

	p.mu.Lock()
	for _, hs := range p.hosts {
		kept := hs.idle[:0]
		for _, conn := range hs.idle {
			if now.Sub(conn.lastUsed) >= p.config.IdleTimeout {
				stale = append(stale, conn)
			} else {
				kept = append(kept, conn)
			}
		}
		hs.idle = kept
	}
	p.mu.Unlock()

	for _, conn := range stale {
		_ = conn.sess.Close()
		p.reaped.Add(1)
	}
}

// HostStats is a per-host snapshot.
type HostStats struct {
	InUse int
	Idle  int
}

// Stats is a point-in-time snapshot of pool state.
type Stats struct {
	Hosts      map[string]HostStats
	InUse      int
	Idle       int
	Dialed     int64
	Reaped     int64
	Exhausted  int64
	MaxPerHost int
	MaxTotal   int
}

// Stats returns a read-only snapshot for monitoring.
func (p *Pool) Stats() Stats {
	s := Stats{
		Hosts:      make(map[string]HostStats),
		Dialed:     p.dialed.Load(),
		Reaped:     p.reaped.Load(),
		Exhausted:  p.exhausted.Load(),
		MaxPerHost: p.config.MaxPerHost,
		MaxTotal:   p.config.MaxTotal,
	}

	p.mu.Lock()
	for host, hs := range p.hosts {
		hstats := HostStats{InUse: hs.inUse, Idle: len(hs.idle)}
		s.Hosts[host] = hstats
		s.InUse += hstats.InUse
		s.Idle += hstats.Idle
	}
	p.mu.Unlock()

	return s
}
