package auth

import (
	"fmt"
	"time"
)

// Options carries the configuration-surface fields for building a
// credential. Scheme selects the implementation; unused fields are ignored.
type Options struct {
	// Scheme is one of "none", "api_key", "bearer", "service_jwt".
	// Default: "bearer" when Key is set, otherwise "none".
	Scheme string

	// Key is the API key, bearer token, or JWT signing key.
	Key string

	// Header overrides the API key header name.
	Header string

	// Issuer and Audience configure the service_jwt scheme.
	Issuer   string
	Audience string

	// TTL is the service token lifetime.
	TTL time.Duration
}

// New builds a Credential from options.
func New(opts Options) (Credential, error) {
	scheme := opts.Scheme
	if scheme == "" {
		if opts.Key != "" {
			scheme = "bearer"
		} else {
			scheme = "none"
		}
	}

	switch scheme {
	case "none":
		return None{}, nil
	case "api_key":
		return APIKey{Header: opts.Header, Key: opts.Key}, nil
	case "bearer":
		return Bearer{Token: opts.Key}, nil
	case "service_jwt":
		return NewServiceToken(ServiceTokenConfig{
			Issuer:   opts.Issuer,
			Audience: opts.Audience,
			Key:      []byte(opts.Key),
			TTL:      opts.TTL,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}
