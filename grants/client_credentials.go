package grants

import (
	"context"

	"github.com/grantkit/grantkit"
)

// ClientCredentials implements the RFC 6749 §4.4 client credentials grant.
// The client authenticates as itself; the session's owner is the client.
// No refresh token is issued (§4.4.3).
type ClientCredentials struct {
	srv *grantkit.Server
}

// NewClientCredentials creates the client credentials grant type
func NewClientCredentials() *ClientCredentials {
	return &ClientCredentials{}
}

// Identifier returns the grant_type key
func (g *ClientCredentials) Identifier() string {
	return grantkit.GrantClientCredentials
}

// ResponseType returns "" since this grant is not reachable from the
// authorization endpoint
func (g *ClientCredentials) ResponseType() string {
	return ""
}

// Bind stores the server handle
func (g *ClientCredentials) Bind(s *grantkit.Server) {
	g.srv = s
}

// CompleteFlow authenticates the client and issues an access token bound to
// a client-owned session
func (g *ClientCredentials) CompleteFlow(ctx context.Context, req *grantkit.TokenRequest) (*grantkit.TokenResponse, error) {
	client, err := authenticateClient(ctx, g.srv, req, g.Identifier())
	if err != nil {
		return nil, err
	}

	// Client credentials requires an authenticated (confidential) client
	if client.ClientSecretHash == "" {
		return nil, grantkit.ErrInvalidClient("")
	}

	scopes, err := resolveScopes(ctx, g.srv, req)
	if err != nil {
		return nil, err
	}

	sess, err := newSession(ctx, g.srv, client.ClientID, ownerTypeClient, client.ClientID, scopes)
	if err != nil {
		return nil, err
	}

	return issueTokens(ctx, g.srv, sess, false)
}

var _ grantkit.GrantType = (*ClientCredentials)(nil)
