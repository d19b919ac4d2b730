package cache

import "time"

// Mode selects which responses are eligible for caching.
type Mode int

const (
	// ModeDisabled caches nothing.
	ModeDisabled Mode = iota
	// ModeConservative caches only clearly deterministic requests.
	ModeConservative
	// ModeSelective caches models on an explicit allow-list.
	ModeSelective
	// ModeAggressive caches everything cacheable.
	ModeAggressive
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeConservative:
		return "conservative"
	case ModeSelective:
		return "selective"
	case ModeAggressive:
		return "aggressive"
	default:
		return "disabled"
	}
}

// ParseMode parses a mode name, defaulting to disabled for unknown names.
func ParseMode(s string) Mode {
	switch s {
	case "aggressive":
		return ModeAggressive
	case "conservative":
		return ModeConservative
	case "selective":
		return ModeSelective
	default:
		return ModeDisabled
	}
}

// Policy decides whether and for how long a response is cached. TTLs are
// content-aware: deterministic requests get the long TTL, non-deterministic
// requests the short one, and streaming responses are never cached.
type Policy struct {
	// Mode selects the caching mode.
	Mode Mode

	// DeterministicTTL is the TTL for deterministic (low-temperature)
	// requests. Default: 1 hour.
	DeterministicTTL time.Duration

	// VolatileTTL is the TTL for cacheable but non-deterministic requests.
	// Default: 30 seconds.
	VolatileTTL time.Duration

	// MaxTTL clamps all TTLs. Zero means no maximum.
	MaxTTL time.Duration

	// AllowModels is the model allow-list consulted in selective mode.
	AllowModels []string
}

// DefaultPolicy returns an aggressive policy with the standard TTLs.
func DefaultPolicy() Policy {
	return Policy{
		Mode:             ModeAggressive,
		DeterministicTTL: time.Hour,
		VolatileTTL:      30 * time.Second,
		MaxTTL:           time.Hour,
	}
}

// TTLFor returns the TTL to store a response with; 0 means do not cache.
func (p Policy) TTLFor(deterministic, streaming bool, model string) time.Duration {
	if p.Mode == ModeDisabled || streaming {
		return 0
	}

	switch p.Mode {
	case ModeConservative:
		if !deterministic {
			return 0
		}
	case ModeSelective:
		if !p.allows(model) {
			return 0
		}
	}

	ttl := p.VolatileTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if deterministic {
		ttl = p.DeterministicTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

func (p Policy) allows(model string) bool {
	for _, m := range p.AllowModels {
		if m == model {
			return true
		}
	}
	return false
}
