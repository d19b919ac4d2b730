// Package tokens estimates request size in tokens and approximate cost per
// provider. Estimation is a pure function of message content and the
// provider's calibrated characters-per-token ratio; nothing here enforces a
// limit.
package tokens
