package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/grantkit/grantkit/instrumentation"
	"github.com/grantkit/grantkit/internal/util"
	"github.com/grantkit/grantkit/security"
	"github.com/grantkit/grantkit/storage"
)

// tokenLogLength is the number of characters of a token included in debug
// logs, enough for correlation without leaking the credential
const tokenLogLength = 8

// dummySecretHash is a pre-computed bcrypt hash compared against when the
// client does not exist or has no secret, so a lookup miss takes as long as
// a secret mismatch (bcrypt hash of "test").
const dummySecretHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Store is an in-memory implementation of all storage contracts
type Store struct {
	mu sync.RWMutex

	clients       map[string]*storage.Client
	sessions      map[string]*storage.Session
	accessTokens  map[string]*storage.AccessToken
	refreshTokens map[string]*storage.RefreshToken
	authCodes     map[string]*storage.AuthorizationCode
	scopes        map[string]*storage.Scope

	// Instrumentation
	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer

	// Atomic counters for gauges (lock-free access during metric collection)
	sessionsCountAtomic      atomic.Int64
	accessTokensCountAtomic  atomic.Int64
	refreshTokensCountAtomic atomic.Int64
	authCodesCountAtomic     atomic.Int64

	// Cleanup
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	logger          *slog.Logger
}

// Compile-time interface checks to ensure Store implements all storage contracts
var (
	_ storage.ClientStore       = (*Store)(nil)
	_ storage.SessionStore      = (*Store)(nil)
	_ storage.AccessTokenStore  = (*Store)(nil)
	_ storage.RefreshTokenStore = (*Store)(nil)
	_ storage.AuthCodeStore     = (*Store)(nil)
	_ storage.ScopeStore        = (*Store)(nil)
)

// New creates a new in-memory store with the default cleanup interval (1 minute)
func New() *Store {
	return NewWithInterval(time.Minute)
}

// NewWithInterval creates a new in-memory store with a custom cleanup
// interval. A zero or negative interval uses the default of 1 minute.
func NewWithInterval(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &Store{
		clients:         make(map[string]*storage.Client),
		sessions:        make(map[string]*storage.Session),
		accessTokens:    make(map[string]*storage.AccessToken),
		refreshTokens:   make(map[string]*storage.RefreshToken),
		authCodes:       make(map[string]*storage.AuthorizationCode),
		scopes:          make(map[string]*storage.Scope),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		logger:          slog.Default(),
	}

	go s.cleanupLoop()

	return s
}

// SetLogger sets a custom logger
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetInstrumentation sets OpenTelemetry instrumentation for the store
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.mu.Lock()
	s.instrumentation = inst
	if inst != nil {
		s.tracer = inst.Tracer("storage")
	}
	s.sessionsCountAtomic.Store(int64(len(s.sessions)))
	s.accessTokensCountAtomic.Store(int64(len(s.accessTokens)))
	s.refreshTokensCountAtomic.Store(int64(len(s.refreshTokens)))
	s.authCodesCountAtomic.Store(int64(len(s.authCodes)))
	s.mu.Unlock()

	if inst != nil {
		err := inst.RegisterStorageSizeCallbacks(
			func() int64 { return s.sessionsCountAtomic.Load() },
			func() int64 { return s.accessTokensCountAtomic.Load() },
			func() int64 { return s.refreshTokensCountAtomic.Load() },
			func() int64 { return s.authCodesCountAtomic.Load() },
		)
		if err != nil {
			s.logger.Warn("Failed to register storage size callbacks", "error", err)
		}
	}
}

// Stop gracefully stops the cleanup goroutine
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// HashSecret returns the bcrypt hash of a plaintext client secret, for use
// when registering confidential clients
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash client secret: %w", err)
	}
	return string(hash), nil
}

// RegisterClient adds a client to the store. The client's secret must
// already be hashed (see HashSecret); plaintext secrets are never stored.
func (s *Store) RegisterClient(client *storage.Client) error {
	if client == nil || client.ClientID == "" {
		return fmt.Errorf("client ID cannot be empty")
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ClientID] = client
	s.logger.Debug("Registered client", "client_id", client.ClientID)
	return nil
}

// RegisterScope adds a scope to the store
func (s *Store) RegisterScope(scope *storage.Scope) error {
	if scope == nil || scope.Name == "" {
		return fmt.Errorf("scope name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope.Name] = scope
	return nil
}

// ============================================================
// ClientStore Implementation
// ============================================================

// GetClient retrieves a client by ID, verifying the secret and redirect URI
// filters when supplied. A mismatch on any part is reported uniformly as
// ErrClientNotFound.
func (s *Store) GetClient(ctx context.Context, clientID, clientSecret, redirectURI string) (*storage.Client, error) {
	ctx, span := s.startStorageSpan(ctx, "get_client")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "get_client", err, startTime)
	}()

	s.mu.RLock()
	client := s.clients[clientID]
	s.mu.RUnlock()

	if clientSecret != "" {
		// SECURITY: always run exactly one bcrypt comparison so a lookup
		// miss is indistinguishable from a secret mismatch by timing.
		hash := dummySecretHash
		if client != nil && client.ClientSecretHash != "" {
			hash = client.ClientSecretHash
		}
		bcryptErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(clientSecret))
		if client == nil || client.ClientSecretHash == "" || bcryptErr != nil {
			err = storage.ErrClientNotFound
			return nil, err
		}
	} else if client == nil {
		err = storage.ErrClientNotFound
		return nil, err
	}

	if redirectURI != "" {
		match := false
		for _, uri := range client.RedirectURIs {
			if uri == redirectURI {
				match = true
				break
			}
		}
		if !match {
			err = storage.ErrClientNotFound
			return nil, err
		}
	}

	return client, nil
}

// ============================================================
// SessionStore Implementation
// ============================================================

// SaveSession saves a session
func (s *Store) SaveSession(ctx context.Context, session *storage.Session) error {
	ctx, span := s.startStorageSpan(ctx, "save_session")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "save_session", err, startTime)
	}()

	if session == nil || session.ID == "" {
		err = fmt.Errorf("session ID cannot be empty")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.sessions[session.ID]
	s.sessions[session.ID] = session
	if !existed {
		s.sessionsCountAtomic.Add(1)
	}
	return nil
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(ctx context.Context, sessionID string) (*storage.Session, error) {
	ctx, span := s.startStorageSpan(ctx, "get_session")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "get_session", err, startTime)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		err = storage.ErrSessionNotFound
		return nil, err
	}
	return session, nil
}

// DeleteSession removes a session
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, span := s.startStorageSpan(ctx, "delete_session")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "delete_session", err, startTime)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		s.sessionsCountAtomic.Add(-1)
	}
	return nil
}

// ============================================================
// AccessTokenStore Implementation
// ============================================================

// SaveAccessToken saves an issued access token
func (s *Store) SaveAccessToken(ctx context.Context, token *storage.AccessToken) error {
	ctx, span := s.startStorageSpan(ctx, "save_access_token")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "save_access_token", err, startTime)
	}()

	if token == nil || token.Token == "" {
		err = fmt.Errorf("access token cannot be empty")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.accessTokens[token.Token]
	s.accessTokens[token.Token] = token
	if !existed {
		s.accessTokensCountAtomic.Add(1)
	}
	s.logger.Debug("Saved access token",
		"token_prefix", util.SafeTruncate(token.Token, tokenLogLength),
		"session_id", token.SessionID)
	return nil
}

// GetAccessToken retrieves an access token by its opaque string.
// Expired tokens are reported as ErrTokenExpired.
func (s *Store) GetAccessToken(ctx context.Context, token string) (*storage.AccessToken, error) {
	ctx, span := s.startStorageSpan(ctx, "get_access_token")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "get_access_token", err, startTime)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	at, ok := s.accessTokens[token]
	if !ok {
		err = storage.ErrTokenNotFound
		return nil, err
	}
	if security.IsExpired(at.ExpiresAt) {
		err = storage.ErrTokenExpired
		return nil, err
	}
	return at, nil
}

// DeleteAccessToken removes an access token
func (s *Store) DeleteAccessToken(ctx context.Context, token string) error {
	ctx, span := s.startStorageSpan(ctx, "delete_access_token")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "delete_access_token", err, startTime)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accessTokens[token]; !ok {
		err = storage.ErrTokenNotFound
		return err
	}
	delete(s.accessTokens, token)
	s.accessTokensCountAtomic.Add(-1)
	return nil
}

// ============================================================
// RefreshTokenStore Implementation
// ============================================================

// SaveRefreshToken saves an issued refresh token
func (s *Store) SaveRefreshToken(ctx context.Context, token *storage.RefreshToken) error {
	ctx, span := s.startStorageSpan(ctx, "save_refresh_token")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "save_refresh_token", err, startTime)
	}()

	if token == nil || token.Token == "" {
		err = fmt.Errorf("refresh token cannot be empty")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.refreshTokens[token.Token]
	s.refreshTokens[token.Token] = token
	if !existed {
		s.refreshTokensCountAtomic.Add(1)
	}
	return nil
}

// GetRefreshToken retrieves a refresh token by its opaque string
func (s *Store) GetRefreshToken(ctx context.Context, token string) (*storage.RefreshToken, error) {
	ctx, span := s.startStorageSpan(ctx, "get_refresh_token")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "get_refresh_token", err, startTime)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, ok := s.refreshTokens[token]
	if !ok {
		err = storage.ErrTokenNotFound
		return nil, err
	}
	if security.IsExpired(rt.ExpiresAt) {
		err = storage.ErrTokenExpired
		return nil, err
	}
	return rt, nil
}

// AtomicConsumeRefreshToken atomically retrieves and invalidates a refresh
// token.
// SECURITY: lookup and delete happen under a single write lock so two
// requests racing on the same token result in exactly one redemption.
func (s *Store) AtomicConsumeRefreshToken(ctx context.Context, token string) (*storage.RefreshToken, error) {
	ctx, span := s.startStorageSpan(ctx, "consume_refresh_token")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "consume_refresh_token", err, startTime)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.refreshTokens[token]
	if !ok {
		err = storage.ErrTokenNotFound
		return nil, err
	}
	if security.IsExpired(rt.ExpiresAt) {
		delete(s.refreshTokens, token)
		s.refreshTokensCountAtomic.Add(-1)
		err = storage.ErrTokenExpired
		return nil, err
	}

	delete(s.refreshTokens, token)
	s.refreshTokensCountAtomic.Add(-1)
	s.logger.Debug("Consumed refresh token",
		"token_prefix", util.SafeTruncate(token, tokenLogLength),
		"session_id", rt.SessionID)
	return rt, nil
}

// ============================================================
// AuthCodeStore Implementation
// ============================================================

// SaveAuthorizationCode saves an issued authorization code
func (s *Store) SaveAuthorizationCode(ctx context.Context, code *storage.AuthorizationCode) error {
	ctx, span := s.startStorageSpan(ctx, "save_auth_code")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "save_auth_code", err, startTime)
	}()

	if code == nil || code.Code == "" {
		err = fmt.Errorf("authorization code cannot be empty")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.authCodes[code.Code]
	s.authCodes[code.Code] = code
	if !existed {
		s.authCodesCountAtomic.Add(1)
	}
	return nil
}

// AtomicConsumeAuthorizationCode atomically checks that a code is unused and
// unexpired and marks it consumed.
// SECURITY: check and mark happen under a single write lock to prevent
// double redemption under concurrent requests racing on the same code.
func (s *Store) AtomicConsumeAuthorizationCode(ctx context.Context, code string) (*storage.AuthorizationCode, error) {
	ctx, span := s.startStorageSpan(ctx, "consume_auth_code")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "consume_auth_code", err, startTime)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.authCodes[code]
	if !ok {
		err = storage.ErrAuthorizationCodeNotFound
		return nil, err
	}
	if ac.Used {
		s.logger.Warn("Authorization code reuse detected", "client_id", ac.ClientID)
		err = storage.ErrAuthorizationCodeUsed
		return nil, err
	}
	if security.IsExpired(ac.ExpiresAt) {
		err = storage.ErrTokenExpired
		return nil, err
	}

	ac.Used = true
	return ac, nil
}

// DeleteAuthorizationCode removes an authorization code
func (s *Store) DeleteAuthorizationCode(ctx context.Context, code string) error {
	ctx, span := s.startStorageSpan(ctx, "delete_auth_code")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "delete_auth_code", err, startTime)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authCodes[code]; ok {
		delete(s.authCodes, code)
		s.authCodesCountAtomic.Add(-1)
	}
	return nil
}

// ============================================================
// ScopeStore Implementation
// ============================================================

// GetScope retrieves a scope by name
func (s *Store) GetScope(ctx context.Context, name string) (*storage.Scope, error) {
	ctx, span := s.startStorageSpan(ctx, "get_scope")
	defer span.End()

	startTime := time.Now()
	var err error
	defer func() {
		s.recordStorageOperation(ctx, span, "get_scope", err, startTime)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	scope, ok := s.scopes[name]
	if !ok {
		err = storage.ErrScopeNotFound
		return nil, err
	}
	return scope, nil
}

// ============================================================
// Cleanup
// ============================================================

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0

	// Expired access tokens
	for key, at := range s.accessTokens {
		if security.IsExpired(at.ExpiresAt) {
			delete(s.accessTokens, key)
			s.accessTokensCountAtomic.Add(-1)
			cleaned++
		}
	}

	// Expired refresh tokens
	for key, rt := range s.refreshTokens {
		if security.IsExpired(rt.ExpiresAt) {
			delete(s.refreshTokens, key)
			s.refreshTokensCountAtomic.Add(-1)
			cleaned++
		}
	}

	// Expired or consumed authorization codes
	for key, ac := range s.authCodes {
		if ac.Used || security.IsExpired(ac.ExpiresAt) {
			delete(s.authCodes, key)
			s.authCodesCountAtomic.Add(-1)
			cleaned++
		}
	}

	if cleaned > 0 {
		s.logger.Debug("Storage cleanup completed", "cleaned", cleaned)
	}
}

// ============================================================
// Instrumentation helpers
// ============================================================

// startStorageSpan starts a tracing span for a storage operation (no-op
// without instrumentation)
func (s *Store) startStorageSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return s.tracer.Start(ctx, fmt.Sprintf("storage.%s", operation),
		trace.WithAttributes(
			attribute.String("operation", operation),
		))
}

// recordStorageOperation records metrics for a storage operation and sets
// the span status
func (s *Store) recordStorageOperation(ctx context.Context, span trace.Span, operation string, err error, startTime time.Time) {
	if s.instrumentation == nil {
		return
	}

	durationMs := float64(time.Since(startTime).Milliseconds())
	result := "success"
	if err != nil {
		result = "error"
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	} else if span != nil {
		span.SetStatus(codes.Ok, "")
	}

	s.instrumentation.Metrics().RecordStorageOperation(ctx, operation, result, durationMs)
}
