// Package grantkit implements the token-issuance core of an OAuth 2.0
// authorization server: a grant-type dispatch engine that routes token
// requests to pluggable protocol flows and normalizes every failure into an
// RFC 6749 error code, HTTP status, and header set.
package grantkit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/grantkit/grantkit/instrumentation"
	"github.com/grantkit/grantkit/security"
	"github.com/grantkit/grantkit/storage"
)

// GrantType is the contract every pluggable protocol flow implements.
// Implementations live in the grants package; new grant types plug in
// without touching the dispatch logic.
type GrantType interface {
	// Identifier returns the stable grant_type key (e.g. "authorization_code")
	Identifier() string

	// ResponseType returns the authorization-endpoint response type this
	// grant is reachable from ("code", "token"), or "" when it is not
	ResponseType() string

	// Bind hands the grant a server handle so it can reach registered
	// storages and shared configuration. Called once at registration time.
	Bind(s *Server)

	// CompleteFlow validates the grant-specific parameters, creates exactly
	// one access token (and, where supported, one paired refresh token)
	// through the storage collaborators, and returns the token payload.
	// Failures are *Error values with the appropriate catalog kind.
	CompleteFlow(ctx context.Context, req *TokenRequest) (*TokenResponse, error)
}

// Role names a storage capability for fault reporting and telemetry
type Role string

// Storage roles, one per capability interface
const (
	RoleClient       Role = "client"
	RoleSession      Role = "session"
	RoleAccessToken  Role = "access_token"
	RoleRefreshToken Role = "refresh_token"
	RoleAuthCode     Role = "auth_code"
	RoleScope        Role = "scope"
)

// Storages binds one collaborator to each storage role. The fixed shape
// makes a complete assembly checkable before the server starts serving;
// a nil field that is reached at request time surfaces as a server_error
// fault, never a client-attributable one.
type Storages struct {
	Client       storage.ClientStore
	Session      storage.SessionStore
	AccessToken  storage.AccessTokenStore
	RefreshToken storage.RefreshTokenStore
	AuthCode     storage.AuthCodeStore
	Scope        storage.ScopeStore
}

// Validate reports the roles left unbound. Call it after assembly to turn
// missing-storage faults into a startup error instead of a 500 at request
// time.
func (st Storages) Validate() error {
	var missing []string
	if st.Client == nil {
		missing = append(missing, string(RoleClient))
	}
	if st.Session == nil {
		missing = append(missing, string(RoleSession))
	}
	if st.AccessToken == nil {
		missing = append(missing, string(RoleAccessToken))
	}
	if st.RefreshToken == nil {
		missing = append(missing, string(RoleRefreshToken))
	}
	if st.AuthCode == nil {
		missing = append(missing, string(RoleAuthCode))
	}
	if st.Scope == nil {
		missing = append(missing, string(RoleScope))
	}
	if len(missing) > 0 {
		return fmt.Errorf("storage roles not registered: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Server is the authorization server orchestrator. It owns the configuration,
// the grant-type registry, and the storage bindings, and dispatches token
// requests to the matching grant type.
//
// Assembly (RegisterStorages, AddGrantType, configuration setters) is
// logically single-threaded initialization. Once serving begins the
// registries are read-only, so IssueAccessToken and the accessors are safe
// for unbounded concurrent callers without locking.
type Server struct {
	config          *Config
	storages        Storages
	grantTypes      map[string]GrantType
	responseTypes   []string
	logger          *slog.Logger
	auditor         *security.Auditor
	instrumentation *instrumentation.Instrumentation
}

// NewServer creates a new authorization server with the given storages and
// configuration. A nil config uses the defaults (3600s TTL, space-delimited
// scopes, oauth2.GenerateVerifier tokens).
func NewServer(storages Storages, config *Config) *Server {
	config = applyDefaults(config)
	return &Server{
		config:     config,
		storages:   storages,
		grantTypes: make(map[string]GrantType),
		logger:     config.Logger,
	}
}

// RegisterStorages replaces the storage bindings. Last write wins; intended
// for the assembly phase only.
func (s *Server) RegisterStorages(storages Storages) {
	s.storages = storages
}

// SetAuditor sets the security auditor
func (s *Server) SetAuditor(aud *security.Auditor) {
	s.auditor = aud
}

// Auditor returns the configured auditor, or nil
func (s *Server) Auditor() *security.Auditor {
	return s.auditor
}

// SetInstrumentation sets the OpenTelemetry instrumentation
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.instrumentation = inst
}

// Instrumentation returns the configured instrumentation, or nil
func (s *Server) Instrumentation() *instrumentation.Instrumentation {
	return s.instrumentation
}

// Logger returns the server's structured logger
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// AddGrantType registers a grant type under its identifier, binding the
// server handle into it first so the flow can reach storages and
// configuration. Re-registering an identifier replaces the previous binding.
// A non-empty response type is appended to the advertised response-type
// list; duplicates across grant types are preserved positionally.
func (s *Server) AddGrantType(g GrantType) {
	g.Bind(s)
	s.grantTypes[g.Identifier()] = g
	if rt := g.ResponseType(); rt != "" {
		s.responseTypes = append(s.responseTypes, rt)
	}
	s.logger.Debug("Registered grant type",
		"grant_type", g.Identifier(),
		"response_type", g.ResponseType())
}

// HasGrantType reports whether a grant type is registered under the identifier
func (s *Server) HasGrantType(identifier string) bool {
	_, ok := s.grantTypes[identifier]
	return ok
}

// GetGrantType returns the grant type registered under the identifier, or an
// unsupported_grant_type fault with the attempted identifier interpolated.
func (s *Server) GetGrantType(identifier string) (GrantType, error) {
	g, ok := s.grantTypes[identifier]
	if !ok {
		return nil, ErrUnsupportedGrantType(identifier)
	}
	return g, nil
}

// ResponseTypes returns the advertised response types in registration order
func (s *Server) ResponseTypes() []string {
	return s.responseTypes
}

// Storage returns the collaborator bound to the role. An unbound role is a
// deployment defect and yields a server_error fault, never a
// client-attributable kind.
func (s *Server) Storage(role Role) (any, error) {
	switch role {
	case RoleClient:
		if s.storages.Client != nil {
			return s.storages.Client, nil
		}
	case RoleSession:
		if s.storages.Session != nil {
			return s.storages.Session, nil
		}
	case RoleAccessToken:
		if s.storages.AccessToken != nil {
			return s.storages.AccessToken, nil
		}
	case RoleRefreshToken:
		if s.storages.RefreshToken != nil {
			return s.storages.RefreshToken, nil
		}
	case RoleAuthCode:
		if s.storages.AuthCode != nil {
			return s.storages.AuthCode, nil
		}
	case RoleScope:
		if s.storages.Scope != nil {
			return s.storages.Scope, nil
		}
	}
	return nil, s.missingStorage(role)
}

// ClientStorage returns the client store, or a server_error fault
func (s *Server) ClientStorage() (storage.ClientStore, error) {
	if s.storages.Client == nil {
		return nil, s.missingStorage(RoleClient)
	}
	return s.storages.Client, nil
}

// SessionStorage returns the session store, or a server_error fault
func (s *Server) SessionStorage() (storage.SessionStore, error) {
	if s.storages.Session == nil {
		return nil, s.missingStorage(RoleSession)
	}
	return s.storages.Session, nil
}

// AccessTokenStorage returns the access token store, or a server_error fault
func (s *Server) AccessTokenStorage() (storage.AccessTokenStore, error) {
	if s.storages.AccessToken == nil {
		return nil, s.missingStorage(RoleAccessToken)
	}
	return s.storages.AccessToken, nil
}

// RefreshTokenStorage returns the refresh token store, or a server_error fault
func (s *Server) RefreshTokenStorage() (storage.RefreshTokenStore, error) {
	if s.storages.RefreshToken == nil {
		return nil, s.missingStorage(RoleRefreshToken)
	}
	return s.storages.RefreshToken, nil
}

// AuthCodeStorage returns the authorization code store, or a server_error fault
func (s *Server) AuthCodeStorage() (storage.AuthCodeStore, error) {
	if s.storages.AuthCode == nil {
		return nil, s.missingStorage(RoleAuthCode)
	}
	return s.storages.AuthCode, nil
}

// ScopeStorage returns the scope store, or a server_error fault
func (s *Server) ScopeStorage() (storage.ScopeStore, error) {
	if s.storages.Scope == nil {
		return nil, s.missingStorage(RoleScope)
	}
	return s.storages.Scope, nil
}

func (s *Server) missingStorage(role Role) error {
	s.logger.Error("Storage role not registered", "role", string(role))
	return ErrServer(string(role))
}

// AccessTokenTTL returns the configured access token lifetime in seconds
func (s *Server) AccessTokenTTL() int64 {
	return s.config.AccessTokenTTL
}

// SetAccessTokenTTL changes the access token lifetime. Tokens already issued
// keep the lifetime they were issued with.
func (s *Server) SetAccessTokenTTL(seconds int64) {
	s.config.AccessTokenTTL = seconds
}

// RefreshTokenTTL returns the configured refresh token lifetime in seconds
func (s *Server) RefreshTokenTTL() int64 {
	return s.config.RefreshTokenTTL
}

// SetRefreshTokenTTL changes the refresh token lifetime
func (s *Server) SetRefreshTokenTTL(seconds int64) {
	s.config.RefreshTokenTTL = seconds
}

// ScopeDelimiter returns the scope delimiter (a single space by default)
func (s *Server) ScopeDelimiter() string {
	return s.config.ScopeDelimiter
}

// SetScopeDelimiter changes the scope delimiter
func (s *Server) SetScopeDelimiter(delimiter string) {
	s.config.ScopeDelimiter = delimiter
}

// RequireScopeParam reports whether the scope parameter is mandatory
func (s *Server) RequireScopeParam() bool {
	return s.config.RequireScopeParam
}

// SetRequireScopeParam changes whether the scope parameter is mandatory
func (s *Server) SetRequireScopeParam(require bool) {
	s.config.RequireScopeParam = require
}

// RequireStateParam reports whether the state parameter is mandatory
func (s *Server) RequireStateParam() bool {
	return s.config.RequireStateParam
}

// SetRequireStateParam changes whether the state parameter is mandatory
func (s *Server) SetRequireStateParam(require bool) {
	s.config.RequireStateParam = require
}

// DefaultScope returns the scope granted when the parameter is absent and
// not mandatory
func (s *Server) DefaultScope() string {
	return s.config.DefaultScope
}

// SetDefaultScope changes the default scope
func (s *Server) SetDefaultScope(scope string) {
	s.config.DefaultScope = scope
}

// TokenGenerator returns the configured opaque token source
func (s *Server) TokenGenerator() func() string {
	return s.config.TokenGenerator
}

// Issuer returns the server's base URL, if configured
func (s *Server) Issuer() string {
	return s.config.Issuer
}

// IssueAccessToken is the dispatch entry point. It reads grant_type from the
// request's form parameters (extra supplements the request for the grant
// flow but never supplies the grant type), routes to the matching grant
// type, and returns its result unmodified; the orchestrator does not
// interpret or re-validate the token payload.
//
// Failure paths:
//   - no grant_type parameter: invalid_request with detail "grant_type"
//   - unregistered grant type: unsupported_grant_type with the offending
//     value interpolated (HTTP 501)
//   - anything the grant flow raises propagates untouched
func (s *Server) IssueAccessToken(ctx context.Context, req *TokenRequest, extra url.Values) (*TokenResponse, error) {
	grantType := req.GrantType()
	if grantType == "" {
		return nil, ErrInvalidRequest("grant_type")
	}

	g, ok := s.grantTypes[grantType]
	if !ok {
		s.logger.Warn("Token request for unregistered grant type", "grant_type", grantType)
		return nil, ErrUnsupportedGrantType(grantType)
	}

	resp, err := g.CompleteFlow(ctx, req.WithExtra(extra))
	if err != nil {
		s.recordTokenDenied(ctx, grantType, err)
		return nil, err
	}

	s.recordTokenIssued(ctx, grantType)
	s.logger.Info("Access token issued", "grant_type", grantType, "scope", resp.Scope)
	return resp, nil
}

func (s *Server) recordTokenIssued(ctx context.Context, grantType string) {
	if s.instrumentation == nil {
		return
	}
	s.instrumentation.Metrics().RecordTokenIssued(ctx, grantType)
}

func (s *Server) recordTokenDenied(ctx context.Context, grantType string, err error) {
	if s.instrumentation == nil {
		return
	}
	kind := string(KindServerError)
	if oauthErr, ok := err.(*Error); ok {
		kind = string(oauthErr.Kind)
	}
	s.instrumentation.Metrics().RecordTokenDenied(ctx, grantType, kind)
}
