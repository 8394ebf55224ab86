package grants

import (
	"context"
	"errors"

	"github.com/grantkit/grantkit"
	"github.com/grantkit/grantkit/storage"
)

// RefreshToken implements the RFC 6749 §6 refresh token grant with rotation:
// redeeming a refresh token atomically invalidates it and its paired access
// token, then mints a fresh pair against the same session. Two requests
// racing on the same refresh token result in exactly one new pair.
type RefreshToken struct {
	srv *grantkit.Server
}

// NewRefreshToken creates the refresh token grant type
func NewRefreshToken() *RefreshToken {
	return &RefreshToken{}
}

// Identifier returns the grant_type key
func (g *RefreshToken) Identifier() string {
	return grantkit.GrantRefreshToken
}

// ResponseType returns "" since this grant is not reachable from the
// authorization endpoint
func (g *RefreshToken) ResponseType() string {
	return ""
}

// Bind stores the server handle
func (g *RefreshToken) Bind(s *grantkit.Server) {
	g.srv = s
}

// CompleteFlow authenticates the client, atomically consumes the presented
// refresh token, revokes its paired access token, and issues a new pair.
// The granted scope may be narrowed but never widened.
func (g *RefreshToken) CompleteFlow(ctx context.Context, req *grantkit.TokenRequest) (*grantkit.TokenResponse, error) {
	client, err := authenticateClient(ctx, g.srv, req, g.Identifier())
	if err != nil {
		return nil, err
	}

	raw := req.Param("refresh_token")
	if raw == "" {
		return nil, grantkit.ErrInvalidRequest("refresh_token")
	}

	refreshTokens, err := g.srv.RefreshTokenStorage()
	if err != nil {
		return nil, err
	}

	refresh, err := refreshTokens.AtomicConsumeRefreshToken(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTokenNotFound), errors.Is(err, storage.ErrTokenExpired):
			g.srv.Logger().Warn("Refresh token rejected",
				"client_id", client.ClientID, "reason", err.Error())
			g.recordReplay(ctx, err)
			return nil, grantkit.ErrInvalidRefresh("")
		default:
			g.srv.Logger().Error("Refresh token lookup failed", "error", err)
			return nil, grantkit.ErrServer("refresh token lookup")
		}
	}

	// The token is bound to the client it was issued to
	if refresh.ClientID != client.ClientID {
		return nil, grantkit.ErrInvalidRefresh("")
	}

	// Revoke the paired access token; a token already gone is fine
	accessTokens, err := g.srv.AccessTokenStorage()
	if err != nil {
		return nil, err
	}
	if err := accessTokens.DeleteAccessToken(ctx, refresh.AccessToken); err != nil &&
		!errors.Is(err, storage.ErrTokenNotFound) {
		g.srv.Logger().Error("Failed to revoke paired access token", "error", err)
		return nil, grantkit.ErrServer("revoke access token")
	}

	sessions, err := g.srv.SessionStorage()
	if err != nil {
		return nil, err
	}
	sess, err := sessions.GetSession(ctx, refresh.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, grantkit.ErrInvalidRefresh("")
		}
		g.srv.Logger().Error("Session lookup failed", "error", err)
		return nil, grantkit.ErrServer("session lookup")
	}

	// Optional scope narrowing (RFC 6749 §6): the requested scope must be a
	// subset of the originally granted one.
	if req.Param("scope") != "" {
		narrowed, err := resolveScopes(ctx, g.srv, req)
		if err != nil {
			return nil, err
		}
		granted := make(map[string]bool, len(sess.Scopes))
		for _, s := range sess.Scopes {
			granted[s] = true
		}
		for _, s := range narrowed {
			if !granted[s] {
				return nil, grantkit.ErrInvalidScope(s)
			}
		}
		sess.Scopes = narrowed
		if err := sessions.SaveSession(ctx, sess); err != nil {
			g.srv.Logger().Error("Failed to save narrowed session", "error", err)
			return nil, grantkit.ErrServer("save session")
		}
	}

	resp, err := issueTokens(ctx, g.srv, sess, true)
	if err != nil {
		return nil, err
	}

	if inst := g.srv.Instrumentation(); inst != nil {
		inst.Metrics().RecordTokenRefresh(ctx, client.ClientID)
	}
	if aud := g.srv.Auditor(); aud != nil {
		aud.LogTokenRefreshed(sess.OwnerID, client.ClientID, "")
	}
	return resp, nil
}

// recordReplay counts redemption attempts of consumed tokens, the signature
// of a stolen or replayed refresh token
func (g *RefreshToken) recordReplay(ctx context.Context, err error) {
	if !errors.Is(err, storage.ErrTokenNotFound) {
		return
	}
	if inst := g.srv.Instrumentation(); inst != nil {
		inst.Metrics().RecordRefreshReplay(ctx)
	}
}

var _ grantkit.GrantType = (*RefreshToken)(nil)
