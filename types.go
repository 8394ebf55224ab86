package grantkit

import (
	"net/http"
	"net/url"
)

// Grant type identifiers registered by the flows in the grants package
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
	GrantImplicit          = "implicit"
)

// TokenRequest is the explicit request value passed into every entry point.
// The core never reaches into ambient or global state to discover headers or
// form fields; the transport (or a test) constructs one of these.
type TokenRequest struct {
	// Form holds the form-encoded request parameters
	Form url.Values

	// Extra supplements Form with values supplied by the caller of
	// IssueAccessToken. Form takes precedence on lookup.
	Extra url.Values

	// Authorization is the raw Authorization header value, if any
	Authorization string

	// BasicUser and BasicSecret are the decoded HTTP Basic credentials,
	// empty when the request carried none
	BasicUser   string
	BasicSecret string
}

// NewTokenRequest builds a TokenRequest from an HTTP request, parsing its
// form body and decoding Basic credentials when present.
func NewTokenRequest(r *http.Request) (*TokenRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, ErrInvalidRequest("grant_type")
	}

	req := &TokenRequest{
		Form:          r.Form,
		Authorization: r.Header.Get("Authorization"),
	}
	if user, secret, ok := r.BasicAuth(); ok {
		req.BasicUser = user
		req.BasicSecret = secret
	}
	return req, nil
}

// Param returns the named parameter, consulting Form first and Extra second
func (r *TokenRequest) Param(name string) string {
	if v := r.Form.Get(name); v != "" {
		return v
	}
	return r.Extra.Get(name)
}

// GrantType returns the grant_type form parameter. Extra input never
// supplies the grant type; it must arrive with the request itself.
func (r *TokenRequest) GrantType() string {
	return r.Form.Get("grant_type")
}

// ClientCredentials returns the client ID and secret, preferring decoded
// Basic credentials over the client_id/client_secret parameters.
func (r *TokenRequest) ClientCredentials() (clientID, clientSecret string) {
	if r.BasicUser != "" {
		return r.BasicUser, r.BasicSecret
	}
	return r.Param("client_id"), r.Param("client_secret")
}

// WithExtra returns a shallow copy of the request carrying the given
// supplemental values. A nil or empty extra returns the receiver unchanged.
func (r *TokenRequest) WithExtra(extra url.Values) *TokenRequest {
	if len(extra) == 0 {
		return r
	}
	cp := *r
	cp.Extra = extra
	return &cp
}

// TokenResponse represents a successful RFC 6749 §5.1 token payload
type TokenResponse struct {
	// AccessToken is the issued opaque access token
	AccessToken string `json:"access_token"`

	// TokenType is the type of token (always "Bearer")
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int64 `json:"expires_in"`

	// Scope is the granted scope string, delimiter-joined
	Scope string `json:"scope,omitempty"`

	// RefreshToken is the paired refresh token (optional per grant type)
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ErrorResponse represents an RFC 6749 §5.2 error body
type ErrorResponse struct {
	// Error is the catalog key
	Error string `json:"error"`

	// ErrorDescription is the templated message with the detail interpolated
	ErrorDescription string `json:"error_description,omitempty"`
}
