package auth

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceTokenConfig configures the self-minted JWT credential.
type ServiceTokenConfig struct {
	// Issuer is the iss claim.
	Issuer string

	// Audience is the aud claim, typically the gateway's base URL.
	Audience string

	// Subject is the sub claim. Default: Issuer
	Subject string

	// Key is the HMAC signing key.
	Key []byte

	// TTL is the token lifetime. Default: 5 minutes
	TTL time.Duration
}

// ServiceToken mints short-lived HS256 tokens for self-hosted gateway
// endpoints that accept signed service credentials. Tokens are reused
// until close to expiry, then re-minted.
type ServiceToken struct {
	config ServiceTokenConfig

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewServiceToken creates a new service token credential.
func NewServiceToken(config ServiceTokenConfig) (*ServiceToken, error) {
	if len(config.Key) == 0 {
		return nil, ErrMissingCredential
	}
	if config.Issuer == "" {
		return nil, fmt.Errorf("auth: service token issuer is required")
	}
	// Apply defaults
	if config.Subject == "" {
		config.Subject = config.Issuer
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}

	return &ServiceToken{config: config}, nil
}

// Apply sets the Authorization header with a valid signed token, minting a
// fresh one when the cached token is within a quarter of its TTL from
// expiry.
func (c *ServiceToken) Apply(req *http.Request) error {
	token, err := c.current()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *ServiceToken) current() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	refreshAt := c.expires.Add(-c.config.TTL / 4)
	if c.token != "" && time.Now().Before(refreshAt) {
		return c.token, nil
	}

	now := time.Now()
	expires := now.Add(c.config.TTL)

	claims := jwt.RegisteredClaims{
		Issuer:    c.config.Issuer,
		Subject:   c.config.Subject,
		Audience:  jwt.ClaimStrings{c.config.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Key)
	if err != nil {
		return "", fmt.Errorf("auth: sign service token: %w", err)
	}

	c.token = signed
	c.expires = expires
	return signed, nil
}

// Ensure ServiceToken implements Credential
var _ Credential = (*ServiceToken)(nil)
