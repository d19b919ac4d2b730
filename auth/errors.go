package auth

import "errors"

// Sentinel errors for credential handling.
var (
	// ErrMissingCredential indicates an empty key or token.
	ErrMissingCredential = errors.New("auth: missing credential")

	// ErrUnknownScheme indicates an unrecognized credential scheme name.
	ErrUnknownScheme = errors.New("auth: unknown credential scheme")
)
