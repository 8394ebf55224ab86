package grantkit

import (
	"log/slog"

	"golang.org/x/oauth2"
)

// Default configuration values applied by applyDefaults
const (
	// DefaultAccessTokenTTL is the access token lifetime in seconds
	DefaultAccessTokenTTL = 3600

	// DefaultRefreshTokenTTL is the refresh token lifetime in seconds (90 days)
	DefaultRefreshTokenTTL = 7776000

	// DefaultScopeDelimiter separates scope names in request parameters.
	// A single space per RFC 6749 §3.3.
	DefaultScopeDelimiter = " "
)

// Config holds the authorization server configuration. It is read during the
// assembly phase and treated as immutable once the server starts handling
// requests; a runtime change to the TTL affects only subsequent issuances.
type Config struct {
	// Issuer is the server's base URL, used for security headers on the
	// token endpoint. Optional.
	Issuer string

	// AccessTokenTTL is how long issued access tokens are valid, in seconds.
	// Default: 3600 (1 hour).
	AccessTokenTTL int64

	// RefreshTokenTTL is how long issued refresh tokens are valid, in seconds.
	// Default: 7776000 (90 days).
	RefreshTokenTTL int64

	// ScopeDelimiter separates scope names in the scope parameter.
	// Default: a single space.
	ScopeDelimiter string

	// RequireScopeParam makes the scope parameter mandatory in authorization
	// requests. Default: false.
	RequireScopeParam bool

	// RequireStateParam makes the state parameter mandatory in authorization
	// requests. Default: false.
	RequireStateParam bool

	// DefaultScope is granted when scope is absent and not mandatory.
	// Default: empty (no scope).
	DefaultScope string

	// TokenGenerator supplies opaque token strings. Default:
	// oauth2.GenerateVerifier, a cryptographically secure source.
	TokenGenerator func() string

	// Logger for structured logging (optional, uses slog.Default if not provided)
	Logger *slog.Logger
}

// applyDefaults fills zero-valued configuration fields
func applyDefaults(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL == 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if config.ScopeDelimiter == "" {
		config.ScopeDelimiter = DefaultScopeDelimiter
	}
	if config.TokenGenerator == nil {
		config.TokenGenerator = oauth2.GenerateVerifier
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return config
}
