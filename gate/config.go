package gate

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/modelgate/secret"
)

// Configuration errors.
var (
	// ErrNoProviders indicates the configuration names no providers.
	ErrNoProviders = errors.New("gate: no providers configured")

	// ErrUnknownProvider indicates a request named a provider that is not
	// configured.
	ErrUnknownProvider = errors.New("gate: unknown provider")

	// ErrMissingBaseURL indicates a provider entry without a base_url.
	ErrMissingBaseURL = errors.New("gate: base_url is required")
)

// Config is the top-level configuration surface.
type Config struct {
	// Service names this process for telemetry. Default: "modelgate"
	Service string `yaml:"service"`

	// Providers maps provider keys to their settings.
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds the per-provider settings. Absent fields fall back
// to the documented defaults.
type ProviderConfig struct {
	// BaseURL is the provider's HTTP endpoint, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url"`

	// APIKey is the credential material. ${VAR} references are expanded
	// from the environment at load time; a "file:" prefix reads the key
	// from disk.
	APIKey string `yaml:"api_key"`

	// AuthScheme selects how the credential is attached: none, api_key,
	// bearer or service_jwt. Default: bearer when APIKey is set.
	AuthScheme string `yaml:"auth_scheme"`

	// AuthHeader overrides the header name for the api_key scheme.
	AuthHeader string `yaml:"auth_header"`

	// Pool limits.
	MaxConnsPerHost int `yaml:"max_connections_per_host"` // default 25
	MaxTotalConns   int `yaml:"max_total_connections"`    // default 100
	IdleTimeoutS    int `yaml:"idle_timeout_s"`           // default 300

	// Rate limiting. With LimitByTokens set, one bucket token corresponds to
	// one estimated prompt token instead of one call.
	RateLimitPerS   float64 `yaml:"rate_limit_per_s"`   // default 100
	BurstCapacity   int     `yaml:"burst_capacity"`     // default 10
	RateLimitWaitMS int     `yaml:"rate_limit_wait_ms"` // default 1000
	LimitByTokens   bool    `yaml:"limit_by_tokens"`

	// Circuit breaking.
	FailureThreshold int `yaml:"failure_threshold"`  // default 5
	SuccessThreshold int `yaml:"success_threshold"`  // default 2
	RecoveryTimeoutS int `yaml:"recovery_timeout_s"` // default 30

	// Response caching.
	CacheMode                 string   `yaml:"cache_mode"` // default aggressive
	DefaultTTLS               int      `yaml:"default_ttl_s"`
	VolatileTTLS              int      `yaml:"volatile_ttl_s"`
	MaxCacheEntries           int      `yaml:"max_cache_entries"`
	CompressionThresholdBytes int      `yaml:"compression_threshold_bytes"`
	CacheAllowModels          []string `yaml:"cache_allow_models"`

	// Estimation.
	CharsPerToken    float64            `yaml:"chars_per_token"` // default 4.0
	PricePer1KTokens map[string]float64 `yaml:"price_per_1k_tokens"`
	ContextWindows   map[string]int     `yaml:"context_windows"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gate: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration. Unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("gate: parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize validates the configuration, expands environment references and
// applies defaults.
func (c *Config) normalize() error {
	if c.Service == "" {
		c.Service = "modelgate"
	}
	if len(c.Providers) == 0 {
		return ErrNoProviders
	}

	for key, pc := range c.Providers {
		if pc.BaseURL == "" {
			return fmt.Errorf("%w: provider %q", ErrMissingBaseURL, key)
		}

		base, err := secret.ExpandEnvStrict(pc.BaseURL)
		if err != nil {
			return fmt.Errorf("provider %q: base_url: %w", key, err)
		}
		if _, err := url.Parse(base); err != nil {
			return fmt.Errorf("gate: provider %q: invalid base_url: %w", key, err)
		}
		pc.BaseURL = base

		if pc.APIKey != "" {
			resolved, err := secret.Resolve(pc.APIKey)
			if err != nil {
				return fmt.Errorf("provider %q: api_key: %w", key, err)
			}
			pc.APIKey = resolved
		}

		pc.applyDefaults()
		c.Providers[key] = pc
	}

	return nil
}

func (pc *ProviderConfig) applyDefaults() {
	if pc.MaxConnsPerHost <= 0 {
		pc.MaxConnsPerHost = 25
	}
	if pc.MaxTotalConns <= 0 {
		pc.MaxTotalConns = 100
	}
	if pc.IdleTimeoutS <= 0 {
		pc.IdleTimeoutS = 300
	}
	if pc.RateLimitPerS <= 0 {
		pc.RateLimitPerS = 100
	}
	if pc.BurstCapacity <= 0 {
		pc.BurstCapacity = 10
	}
	if pc.RateLimitWaitMS <= 0 {
		pc.RateLimitWaitMS = 1000
	}
	if pc.FailureThreshold <= 0 {
		pc.FailureThreshold = 5
	}
	if pc.SuccessThreshold <= 0 {
		pc.SuccessThreshold = 2
	}
	if pc.RecoveryTimeoutS <= 0 {
		pc.RecoveryTimeoutS = 30
	}
	if pc.CacheMode == "" {
		pc.CacheMode = "aggressive"
	}
	if pc.DefaultTTLS <= 0 {
		pc.DefaultTTLS = 3600
	}
	if pc.VolatileTTLS <= 0 {
		pc.VolatileTTLS = 30
	}
	if pc.MaxCacheEntries <= 0 {
		pc.MaxCacheEntries = 1000
	}
	if pc.CompressionThresholdBytes <= 0 {
		pc.CompressionThresholdBytes = 1024
	}
	if pc.CharsPerToken <= 0 {
		pc.CharsPerToken = 4.0
	}
}

func (pc *ProviderConfig) idleTimeout() time.Duration {
	return time.Duration(pc.IdleTimeoutS) * time.Second
}

func (pc *ProviderConfig) recoveryTimeout() time.Duration {
	return time.Duration(pc.RecoveryTimeoutS) * time.Second
}

func (pc *ProviderConfig) rateLimitWait() time.Duration {
	return time.Duration(pc.RateLimitWaitMS) * time.Millisecond
}
