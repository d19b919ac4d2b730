package auth

import (
	"net/http"
	"strings"
)

// Credential attaches provider authentication to an outbound request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: Apply mutates only the request headers.
type Credential interface {
	// Apply sets the authentication headers on the request.
	Apply(req *http.Request) error
}

// None is the no-op credential for providers without authentication, such
// as a local inference server.
type None struct{}

// Apply does nothing.
func (None) Apply(*http.Request) error { return nil }

// APIKey sends a raw API key in a header.
type APIKey struct {
	// Header is the header name. Default: "X-API-Key"
	Header string

	// Key is the API key value.
	Key string
}

// Apply sets the API key header.
func (c APIKey) Apply(req *http.Request) error {
	key := strings.TrimSpace(c.Key)
	if key == "" {
		return ErrMissingCredential
	}
	header := c.Header
	if header == "" {
		header = "X-API-Key"
	}
	req.Header.Set(header, key)
	return nil
}

// Bearer sends a static bearer token in the Authorization header.
type Bearer struct {
	// Token is the bearer token value.
	Token string
}

// Apply sets the Authorization header.
func (c Bearer) Apply(req *http.Request) error {
	token := strings.TrimSpace(c.Token)
	if token == "" {
		return ErrMissingCredential
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Ensure credential implementations satisfy Credential
var (
	_ Credential = None{}
	_ Credential = APIKey{}
	_ Credential = Bearer{}
)
