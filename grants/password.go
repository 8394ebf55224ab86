package grants

import (
	"context"

	"github.com/grantkit/grantkit"
)

// Authenticator verifies resource owner credentials and returns the owner's
// stable identifier. Any returned error is reported to the client as
// invalid_credentials without detail.
type Authenticator func(ctx context.Context, username, password string) (ownerID string, err error)

// Password implements the RFC 6749 §4.3 resource owner password credentials
// grant. Owner verification is delegated to a pluggable Authenticator so the
// core never sees a credential backend.
type Password struct {
	srv          *grantkit.Server
	authenticate Authenticator
}

// NewPassword creates the password grant type with the given authenticator
func NewPassword(authenticate Authenticator) *Password {
	return &Password{authenticate: authenticate}
}

// Identifier returns the grant_type key
func (g *Password) Identifier() string {
	return grantkit.GrantPassword
}

// ResponseType returns "" since this grant is not reachable from the
// authorization endpoint
func (g *Password) ResponseType() string {
	return ""
}

// Bind stores the server handle
func (g *Password) Bind(s *grantkit.Server) {
	g.srv = s
}

// CompleteFlow authenticates the client and the resource owner, then issues
// an access token (with a paired refresh token when the refresh grant is
// registered) bound to a user-owned session.
func (g *Password) CompleteFlow(ctx context.Context, req *grantkit.TokenRequest) (*grantkit.TokenResponse, error) {
	client, err := authenticateClient(ctx, g.srv, req, g.Identifier())
	if err != nil {
		return nil, err
	}

	username := req.Param("username")
	if username == "" {
		return nil, grantkit.ErrInvalidRequest("username")
	}
	password := req.Param("password")
	if password == "" {
		return nil, grantkit.ErrInvalidRequest("password")
	}

	if g.authenticate == nil {
		g.srv.Logger().Error("Password grant has no authenticator configured")
		return nil, grantkit.ErrServer("password authenticator")
	}

	ownerID, err := g.authenticate(ctx, username, password)
	if err != nil {
		g.srv.Logger().Warn("Resource owner authentication failed",
			"client_id", client.ClientID)
		recordAuthFailure(ctx, g.srv, client.ClientID, "resource_owner")
		return nil, grantkit.ErrInvalidCredentials("")
	}

	scopes, err := resolveScopes(ctx, g.srv, req)
	if err != nil {
		return nil, err
	}

	sess, err := newSession(ctx, g.srv, client.ClientID, ownerTypeUser, ownerID, scopes)
	if err != nil {
		return nil, err
	}

	return issueTokens(ctx, g.srv, sess, g.srv.HasGrantType(grantkit.GrantRefreshToken))
}

var _ grantkit.GrantType = (*Password)(nil)
