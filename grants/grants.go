package grants

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grantkit/grantkit"
	"github.com/grantkit/grantkit/storage"
)

// Owner types recorded on sessions
const (
	ownerTypeUser   = "user"
	ownerTypeClient = "client"
)

// authenticateClient resolves and authenticates the requesting client.
//
// Credentials come from Basic auth when present, the client_id/client_secret
// parameters otherwise. A lookup or secret mismatch is always reported as
// invalid_client so callers cannot probe which part failed. Confidential
// clients (those registered with a secret) must present one. Finally the
// client's registration must permit the requesting grant type.
func authenticateClient(ctx context.Context, srv *grantkit.Server, req *grantkit.TokenRequest, grantType string) (*storage.Client, error) {
	clients, err := srv.ClientStorage()
	if err != nil {
		return nil, err
	}

	clientID, clientSecret := req.ClientCredentials()
	if clientID == "" {
		return nil, grantkit.ErrInvalidRequest("client_id")
	}

	client, err := clients.GetClient(ctx, clientID, clientSecret, "")
	if err != nil {
		if errors.Is(err, storage.ErrClientNotFound) {
			srv.Logger().Warn("Client authentication failed",
				"client_id", clientID,
				"grant_type", grantType)
			recordAuthFailure(ctx, srv, clientID, "client")
			return nil, grantkit.ErrInvalidClient("")
		}
		srv.Logger().Error("Client lookup failed", "error", err)
		return nil, grantkit.ErrServer("client lookup")
	}

	// An empty secret skips the store's filter, so enforce it here for
	// confidential clients.
	if client.ClientSecretHash != "" && clientSecret == "" {
		recordAuthFailure(ctx, srv, clientID, "client")
		return nil, grantkit.ErrInvalidClient("")
	}

	if !client.AllowsGrantType(grantType) {
		return nil, grantkit.ErrUnauthorizedClient(grantType)
	}

	return client, nil
}

// recordAuthFailure feeds an authentication failure into the metric and
// audit sinks when they are configured
func recordAuthFailure(ctx context.Context, srv *grantkit.Server, clientID, reason string) {
	if inst := srv.Instrumentation(); inst != nil {
		inst.Metrics().RecordAuthFailure(ctx, reason)
	}
	if aud := srv.Auditor(); aud != nil {
		aud.LogAuthFailure("", clientID, "", reason)
	}
}

// resolveScopes turns the request's scope parameter into a validated scope
// list. An absent parameter falls back to the configured default scope
// unless the server requires the parameter; every name must resolve through
// the scope store or the whole request fails with invalid_scope naming the
// offender.
func resolveScopes(ctx context.Context, srv *grantkit.Server, req *grantkit.TokenRequest) ([]string, error) {
	raw := req.Param("scope")
	if raw == "" {
		if srv.RequireScopeParam() {
			return nil, grantkit.ErrInvalidRequest("scope")
		}
		raw = srv.DefaultScope()
	}
	if raw == "" {
		return nil, nil
	}

	scopes, err := srv.ScopeStorage()
	if err != nil {
		return nil, err
	}

	names := strings.Split(raw, srv.ScopeDelimiter())
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := scopes.GetScope(ctx, name); err != nil {
			if errors.Is(err, storage.ErrScopeNotFound) {
				return nil, grantkit.ErrInvalidScope(name)
			}
			srv.Logger().Error("Scope lookup failed", "scope", name, "error", err)
			return nil, grantkit.ErrServer("scope lookup")
		}
		resolved = append(resolved, name)
	}
	return resolved, nil
}

// newSession creates and persists a session binding the owner to the client
func newSession(ctx context.Context, srv *grantkit.Server, clientID, ownerType, ownerID string, scopes []string) (*storage.Session, error) {
	sessions, err := srv.SessionStorage()
	if err != nil {
		return nil, err
	}

	sess := &storage.Session{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Scopes:    scopes,
		CreatedAt: time.Now(),
	}
	if err := sessions.SaveSession(ctx, sess); err != nil {
		srv.Logger().Error("Failed to save session", "error", err)
		return nil, grantkit.ErrServer("save session")
	}
	return sess, nil
}

// issueTokens creates exactly one access token for the session, plus one
// paired refresh token when withRefresh is set, and returns the RFC 6749
// §5.1 payload. Storage failures surface as server_error faults.
func issueTokens(ctx context.Context, srv *grantkit.Server, sess *storage.Session, withRefresh bool) (*grantkit.TokenResponse, error) {
	accessTokens, err := srv.AccessTokenStorage()
	if err != nil {
		return nil, err
	}

	generate := srv.TokenGenerator()
	now := time.Now()

	access := &storage.AccessToken{
		Token:     generate(),
		SessionID: sess.ID,
		ExpiresAt: now.Add(time.Duration(srv.AccessTokenTTL()) * time.Second),
		CreatedAt: now,
	}
	if err := accessTokens.SaveAccessToken(ctx, access); err != nil {
		srv.Logger().Error("Failed to save access token", "error", err)
		return nil, grantkit.ErrServer("save access token")
	}

	resp := &grantkit.TokenResponse{
		AccessToken: access.Token,
		TokenType:   "Bearer",
		ExpiresIn:   srv.AccessTokenTTL(),
		Scope:       strings.Join(sess.Scopes, srv.ScopeDelimiter()),
	}

	if withRefresh {
		refreshTokens, err := srv.RefreshTokenStorage()
		if err != nil {
			return nil, err
		}

		refresh := &storage.RefreshToken{
			Token:       generate(),
			AccessToken: access.Token,
			SessionID:   sess.ID,
			ClientID:    sess.ClientID,
			ExpiresAt:   now.Add(time.Duration(srv.RefreshTokenTTL()) * time.Second),
			CreatedAt:   now,
		}
		if err := refreshTokens.SaveRefreshToken(ctx, refresh); err != nil {
			srv.Logger().Error("Failed to save refresh token", "error", err)
			return nil, grantkit.ErrServer("save refresh token")
		}
		resp.RefreshToken = refresh.Token
	}

	return resp, nil
}
