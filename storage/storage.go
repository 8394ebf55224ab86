// Package storage defines the capability interfaces the authorization server
// calls into for persisting clients, sessions, tokens, authorization codes,
// and scopes. It supports various backend implementations including in-memory
// and databases.
package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by storage implementations. Grant types translate
// these into catalog-backed faults before they reach the orchestrator.
var (
	// ErrClientNotFound indicates the client does not exist or the supplied
	// credentials/redirect URI do not match its registration
	ErrClientNotFound = errors.New("client not found")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrTokenNotFound indicates the token does not exist or was already consumed
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired indicates the token or code exists but is past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrAuthorizationCodeNotFound indicates the authorization code does not exist
	ErrAuthorizationCodeNotFound = errors.New("authorization code not found")

	// ErrAuthorizationCodeUsed indicates the authorization code was already redeemed
	ErrAuthorizationCodeUsed = errors.New("authorization code already used")

	// ErrScopeNotFound indicates the scope name is not registered
	ErrScopeNotFound = errors.New("scope not found")
)

// ClientStore looks up registered OAuth clients.
// All methods accept context.Context for tracing and cancellation.
type ClientStore interface {
	// GetClient retrieves a client by ID. clientSecret and redirectURI are
	// optional filters: when non-empty the client must also match them, and
	// a mismatch is reported as ErrClientNotFound so callers cannot probe
	// which part of the lookup failed.
	GetClient(ctx context.Context, clientID, clientSecret, redirectURI string) (*Client, error)
}

// SessionStore persists the binding between an authenticated owner and a client.
// All methods accept context.Context for tracing and cancellation.
type SessionStore interface {
	// SaveSession saves a session
	SaveSession(ctx context.Context, session *Session) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// DeleteSession removes a session
	DeleteSession(ctx context.Context, sessionID string) error
}

// AccessTokenStore persists issued access tokens.
// All methods accept context.Context for tracing and cancellation.
type AccessTokenStore interface {
	// SaveAccessToken saves an issued access token
	SaveAccessToken(ctx context.Context, token *AccessToken) error

	// GetAccessToken retrieves an access token by its opaque string
	GetAccessToken(ctx context.Context, token string) (*AccessToken, error)

	// DeleteAccessToken removes an access token
	DeleteAccessToken(ctx context.Context, token string) error
}

// RefreshTokenStore persists refresh tokens paired 1:1 with access tokens.
// All methods accept context.Context for tracing and cancellation.
type RefreshTokenStore interface {
	// SaveRefreshToken saves an issued refresh token
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves a refresh token by its opaque string
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)

	// AtomicConsumeRefreshToken atomically retrieves and invalidates a refresh
	// token. Returns ErrTokenNotFound if the token does not exist or was
	// already consumed, ErrTokenExpired if it is past its expiry.
	// SECURITY: This operation MUST be atomic so that two requests racing on
	// the same refresh token result in exactly one redemption.
	AtomicConsumeRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
}

// AuthCodeStore persists single-use authorization codes.
// All methods accept context.Context for tracing and cancellation.
type AuthCodeStore interface {
	// SaveAuthorizationCode saves an issued authorization code
	SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// AtomicConsumeAuthorizationCode atomically checks that a code is unused
	// and unexpired, and marks it consumed. Returns
	// ErrAuthorizationCodeNotFound, ErrTokenExpired, or
	// ErrAuthorizationCodeUsed on violation.
	// SECURITY: This operation MUST be atomic to prevent double redemption
	// under concurrent requests racing on the same code.
	AtomicConsumeAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// DeleteAuthorizationCode removes an authorization code
	DeleteAuthorizationCode(ctx context.Context, code string) error
}

// ScopeStore resolves scope names to registered scopes.
// All methods accept context.Context for tracing and cancellation.
type ScopeStore interface {
	// GetScope retrieves a scope by name, or ErrScopeNotFound
	GetScope(ctx context.Context, name string) (*Scope, error)
}

// Client represents a registered OAuth client
type Client struct {
	ClientID         string
	ClientSecretHash string // bcrypt hash, empty for public clients
	ClientName       string
	RedirectURIs     []string
	GrantTypes       []string // grant type identifiers the client may use; empty allows all
	CreatedAt        time.Time
}

// AllowsGrantType reports whether the client registration permits the given
// grant type identifier. An empty registration list permits every grant type.
func (c *Client) AllowsGrantType(identifier string) bool {
	if len(c.GrantTypes) == 0 {
		return true
	}
	for _, g := range c.GrantTypes {
		if g == identifier {
			return true
		}
	}
	return false
}

// Session binds an authenticated resource owner (or the client itself, for
// client-credentials) to a client and carries the granted scope set.
type Session struct {
	ID        string
	ClientID  string
	OwnerType string // "user" or "client"
	OwnerID   string
	Scopes    []string
	CreatedAt time.Time
}

// AccessToken is an issued opaque access token bound to a session.
// Created exactly once per successful grant completion, never mutated.
type AccessToken struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RefreshToken is an opaque refresh token paired with the access token it was
// issued alongside. Consuming it invalidates the pair.
type RefreshToken struct {
	Token       string
	AccessToken string // the paired access token string
	SessionID   string
	ClientID    string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// AuthorizationCode is a single-use code bound to a session and redirect URI
type AuthorizationCode struct {
	Code        string
	SessionID   string
	ClientID    string
	RedirectURI string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	Used        bool
}

// Scope is a named permission unit
type Scope struct {
	Name        string
	Description string
}
