package grants

import (
	"context"
	"errors"

	"github.com/grantkit/grantkit"
	"github.com/grantkit/grantkit/storage"
)

// Implicit implements the RFC 6749 §4.2 implicit grant. The flow completes
// from a session the authorization endpoint has already approved; the
// session_id parameter names it. Public clients only, no refresh token.
type Implicit struct {
	srv *grantkit.Server
}

// NewImplicit creates the implicit grant type
func NewImplicit() *Implicit {
	return &Implicit{}
}

// Identifier returns the grant_type key
func (g *Implicit) Identifier() string {
	return grantkit.GrantImplicit
}

// ResponseType returns "token", the authorization-endpoint response type
// this grant is reachable from
func (g *Implicit) ResponseType() string {
	return "token"
}

// Bind stores the server handle
func (g *Implicit) Bind(s *grantkit.Server) {
	g.srv = s
}

// CompleteFlow issues an access token against a pre-authorized session.
// The session must belong to the requesting client.
func (g *Implicit) CompleteFlow(ctx context.Context, req *grantkit.TokenRequest) (*grantkit.TokenResponse, error) {
	client, err := authenticateClient(ctx, g.srv, req, g.Identifier())
	if err != nil {
		return nil, err
	}

	sessionID := req.Param("session_id")
	if sessionID == "" {
		return nil, grantkit.ErrInvalidRequest("session_id")
	}

	sessions, err := g.srv.SessionStorage()
	if err != nil {
		return nil, err
	}

	sess, err := sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, grantkit.ErrAccessDenied("")
		}
		g.srv.Logger().Error("Session lookup failed", "error", err)
		return nil, grantkit.ErrServer("session lookup")
	}

	if sess.ClientID != client.ClientID {
		return nil, grantkit.ErrAccessDenied("")
	}

	return issueTokens(ctx, g.srv, sess, false)
}

var _ grantkit.GrantType = (*Implicit)(nil)
