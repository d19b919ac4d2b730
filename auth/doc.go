// Package auth attaches provider credentials to outbound requests.
//
// Supported schemes: raw API key headers, static bearer tokens, and
// self-minted short-lived HS256 service tokens for self-hosted gateways.
// Credential storage and rotation live outside this module; the config
// layer hands resolved secret values in.
package auth
