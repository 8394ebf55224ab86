package grants

import (
	"context"
	"errors"

	"github.com/grantkit/grantkit"
	"github.com/grantkit/grantkit/storage"
)

// AuthorizationCode implements the RFC 6749 §4.1 authorization code grant:
// a single-use code, minted at the authorization endpoint, is exchanged for
// a token pair. Code consumption is atomic so two requests racing on the
// same code result in exactly one issuance.
type AuthorizationCode struct {
	srv *grantkit.Server
}

// NewAuthorizationCode creates the authorization code grant type
func NewAuthorizationCode() *AuthorizationCode {
	return &AuthorizationCode{}
}

// Identifier returns the grant_type key
func (g *AuthorizationCode) Identifier() string {
	return grantkit.GrantAuthorizationCode
}

// ResponseType returns "code", the authorization-endpoint response type this
// grant is reachable from
func (g *AuthorizationCode) ResponseType() string {
	return "code"
}

// Bind stores the server handle
func (g *AuthorizationCode) Bind(s *grantkit.Server) {
	g.srv = s
}

// CompleteFlow authenticates the client, atomically consumes the code, and
// issues a token pair against the code's session.
//
// Every code defect (unknown, expired, already used, issued to another
// client) is reported as invalid_grant on the "code" parameter; a redirect
// URI mismatch names "redirect_uri" instead.
func (g *AuthorizationCode) CompleteFlow(ctx context.Context, req *grantkit.TokenRequest) (*grantkit.TokenResponse, error) {
	client, err := authenticateClient(ctx, g.srv, req, g.Identifier())
	if err != nil {
		return nil, err
	}

	code := req.Param("code")
	if code == "" {
		return nil, grantkit.ErrInvalidRequest("code")
	}

	codes, err := g.srv.AuthCodeStorage()
	if err != nil {
		return nil, err
	}

	authCode, err := codes.AtomicConsumeAuthorizationCode(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAuthorizationCodeNotFound),
			errors.Is(err, storage.ErrAuthorizationCodeUsed),
			errors.Is(err, storage.ErrTokenExpired):
			g.srv.Logger().Warn("Authorization code rejected",
				"client_id", client.ClientID, "reason", err.Error())
			return nil, grantkit.ErrInvalidGrant("code")
		default:
			g.srv.Logger().Error("Authorization code lookup failed", "error", err)
			return nil, grantkit.ErrServer("authorization code lookup")
		}
	}

	// The code is bound to the client it was issued to
	if authCode.ClientID != client.ClientID {
		return nil, grantkit.ErrInvalidGrant("code")
	}

	// RFC 6749 §4.1.3: redirect_uri must match the one used at authorization
	if authCode.RedirectURI != "" && req.Param("redirect_uri") != authCode.RedirectURI {
		return nil, grantkit.ErrInvalidGrant("redirect_uri")
	}

	sessions, err := g.srv.SessionStorage()
	if err != nil {
		return nil, err
	}

	sess, err := sessions.GetSession(ctx, authCode.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, grantkit.ErrInvalidGrant("code")
		}
		g.srv.Logger().Error("Session lookup failed", "error", err)
		return nil, grantkit.ErrServer("session lookup")
	}

	resp, err := issueTokens(ctx, g.srv, sess, g.srv.HasGrantType(grantkit.GrantRefreshToken))
	if err != nil {
		return nil, err
	}

	if inst := g.srv.Instrumentation(); inst != nil {
		inst.Metrics().RecordCodeRedeemed(ctx, client.ClientID)
	}
	if aud := g.srv.Auditor(); aud != nil {
		aud.LogCodeRedeemed(sess.OwnerID, client.ClientID, "")
	}
	return resp, nil
}

var _ grantkit.GrantType = (*AuthorizationCode)(nil)
