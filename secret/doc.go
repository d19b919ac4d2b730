// Package secret resolves credential material referenced from
// configuration values.
//
// It supports:
//   - Strict environment expansion: ${VAR} errors when VAR is unset
//   - File references: "file:/run/secrets/openai_key" reads the key from disk
//   - "$$" as an escape hatch for a literal "$"
//
// A missing credential fails at configuration load time, not as a confusing
// authentication error on the first call.
package secret
