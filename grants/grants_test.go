package grants_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grantkit/grantkit"
	"github.com/grantkit/grantkit/grants"
	"github.com/grantkit/grantkit/internal/testutil"
	"github.com/grantkit/grantkit/storage"
	"github.com/grantkit/grantkit/storage/memory"
)

const (
	confidentialClientID = "confidential-client"
	publicClientID       = "public-client"
	clientSecret         = "s3cret"
)

type fixture struct {
	srv   *grantkit.Server
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewWithInterval(time.Hour)
	t.Cleanup(store.Stop)

	clients := []*storage.Client{
		{
			ClientID:         confidentialClientID,
			ClientSecretHash: testutil.HashSecret(clientSecret),
			ClientName:       "Confidential Client",
			RedirectURIs:     []string{"https://app.example.com/callback"},
		},
		{
			ClientID:   publicClientID,
			ClientName: "Public Client",
		},
	}
	for _, c := range clients {
		if err := store.RegisterClient(c); err != nil {
			t.Fatalf("RegisterClient(%s) error = %v", c.ClientID, err)
		}
	}

	for _, s := range []*storage.Scope{
		{Name: "basic", Description: "Basic access"},
		{Name: "read", Description: "Read access"},
		{Name: "write", Description: "Write access"},
	} {
		if err := store.RegisterScope(s); err != nil {
			t.Fatalf("RegisterScope(%s) error = %v", s.Name, err)
		}
	}

	srv := grantkit.NewServer(grantkit.Storages{
		Client:       store,
		Session:      store,
		AccessToken:  store,
		RefreshToken: store,
		AuthCode:     store,
		Scope:        store,
	}, &grantkit.Config{
		Issuer:       "https://auth.example.com",
		DefaultScope: "basic",
	})
	return &fixture{srv: srv, store: store}
}

func tokenRequest(params map[string]string) *grantkit.TokenRequest {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	return &grantkit.TokenRequest{Form: form}
}

func wantOAuthError(t *testing.T, err error, kind grantkit.Kind) *grantkit.Error {
	t.Helper()
	var oauthErr *grantkit.Error
	if !errors.As(err, &oauthErr) {
		t.Fatalf("error = %v (%T), want *grantkit.Error", err, err)
	}
	if oauthErr.Kind != kind {
		t.Fatalf("error kind = %q, want %q (description: %s)", oauthErr.Kind, kind, oauthErr.Description())
	}
	return oauthErr
}

func TestClientCredentialsFlow(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewClientCredentials())
	f.srv.AddGrantType(grants.NewRefreshToken())

	req := tokenRequest(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
	})
	resp, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if resp.AccessToken == "" {
		t.Error("access token missing")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q", resp.TokenType)
	}
	if resp.ExpiresIn != grantkit.DefaultAccessTokenTTL {
		t.Errorf("expires_in = %d, want %d", resp.ExpiresIn, grantkit.DefaultAccessTokenTTL)
	}
	if resp.Scope != "basic" {
		t.Errorf("scope = %q, want the default scope", resp.Scope)
	}
	if resp.RefreshToken != "" {
		t.Error("client_credentials must not issue a refresh token even with the refresh grant registered")
	}

	// The token is live in storage
	access, err := f.store.GetAccessToken(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("GetAccessToken() error = %v", err)
	}
	sess, err := f.store.GetSession(context.Background(), access.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess.OwnerType != "client" || sess.OwnerID != confidentialClientID {
		t.Errorf("session owner = %s/%s, want client/%s", sess.OwnerType, sess.OwnerID, confidentialClientID)
	}
}

func TestClientCredentialsRejectsPublicClient(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewClientCredentials())

	req := tokenRequest(map[string]string{
		"grant_type": "client_credentials",
		"client_id":  publicClientID,
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	wantOAuthError(t, err, grantkit.KindInvalidClient)
}

func TestClientCredentialsWrongSecret(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewClientCredentials())

	req := tokenRequest(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     confidentialClientID,
		"client_secret": "not-the-secret",
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	wantOAuthError(t, err, grantkit.KindInvalidClient)
}

func TestClientCredentialsMissingClientID(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewClientCredentials())

	req := tokenRequest(map[string]string{"grant_type": "client_credentials"})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindInvalidRequest)
	if oauthErr.Detail != "client_id" {
		t.Errorf("Detail = %q, want client_id", oauthErr.Detail)
	}
}

func TestGrantTypeRestriction(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewClientCredentials())

	restricted := &storage.Client{
		ClientID:         "code-only-client",
		ClientSecretHash: testutil.HashSecret(clientSecret),
		GrantTypes:       []string{grantkit.GrantAuthorizationCode},
	}
	if err := f.store.RegisterClient(restricted); err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}

	req := tokenRequest(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     restricted.ClientID,
		"client_secret": clientSecret,
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindUnauthorizedClient)
	if oauthErr.Detail != grantkit.GrantClientCredentials {
		t.Errorf("Detail = %q, want the requested grant type", oauthErr.Detail)
	}
}

func TestUnknownScopeRejected(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewClientCredentials())

	req := tokenRequest(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"scope":         "read payments",
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindInvalidScope)
	if oauthErr.Detail != "payments" {
		t.Errorf("Detail = %q, want the offending scope named", oauthErr.Detail)
	}
}

func TestRequiredScopeParam(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewClientCredentials())
	f.srv.SetRequireScopeParam(true)

	req := tokenRequest(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindInvalidRequest)
	if oauthErr.Detail != "scope" {
		t.Errorf("Detail = %q, want scope", oauthErr.Detail)
	}
}

func passwordAuthenticator(t *testing.T) grants.Authenticator {
	t.Helper()
	return func(_ context.Context, username, password string) (string, error) {
		if username == "alice" && password == "wonderland" {
			return "user-alice", nil
		}
		return "", errors.New("bad credentials")
	}
}

func TestPasswordFlow(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewPassword(passwordAuthenticator(t)))
	f.srv.AddGrantType(grants.NewRefreshToken())

	req := tokenRequest(map[string]string{
		"grant_type":    "password",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"username":      "alice",
		"password":      "wonderland",
		"scope":         "read write",
	})
	resp, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if resp.RefreshToken == "" {
		t.Error("password grant should pair a refresh token when the refresh grant is registered")
	}
	if resp.Scope != "read write" {
		t.Errorf("scope = %q, want the granted scopes space-joined", resp.Scope)
	}

	access, err := f.store.GetAccessToken(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("GetAccessToken() error = %v", err)
	}
	sess, err := f.store.GetSession(context.Background(), access.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess.OwnerType != "user" || sess.OwnerID != "user-alice" {
		t.Errorf("session owner = %s/%s, want user/user-alice", sess.OwnerType, sess.OwnerID)
	}
}

func TestPasswordFlowWithoutRefreshGrant(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewPassword(passwordAuthenticator(t)))

	req := tokenRequest(map[string]string{
		"grant_type":    "password",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"username":      "alice",
		"password":      "wonderland",
	})
	resp, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if resp.RefreshToken != "" {
		t.Error("no refresh token without the refresh grant registered")
	}
}

func TestPasswordBadOwnerCredentials(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewPassword(passwordAuthenticator(t)))

	req := tokenRequest(map[string]string{
		"grant_type":    "password",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"username":      "alice",
		"password":      "looking-glass",
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	wantOAuthError(t, err, grantkit.KindInvalidCredentials)
}

func TestPasswordMissingParameters(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewPassword(passwordAuthenticator(t)))

	tests := []struct {
		name       string
		params     map[string]string
		wantDetail string
	}{
		{
			name: "missing username",
			params: map[string]string{
				"grant_type":    "password",
				"client_id":     confidentialClientID,
				"client_secret": clientSecret,
				"password":      "wonderland",
			},
			wantDetail: "username",
		},
		{
			name: "missing password",
			params: map[string]string{
				"grant_type":    "password",
				"client_id":     confidentialClientID,
				"client_secret": clientSecret,
				"username":      "alice",
			},
			wantDetail: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.srv.IssueAccessToken(context.Background(), tokenRequest(tt.params), nil)
			oauthErr := wantOAuthError(t, err, grantkit.KindInvalidRequest)
			if oauthErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", oauthErr.Detail, tt.wantDetail)
			}
		})
	}
}

// seedAuthorizationCode plants a pre-approved session and a code bound to it
func seedAuthorizationCode(t *testing.T, f *fixture, clientID, redirectURI string) (*storage.Session, *storage.AuthorizationCode) {
	t.Helper()

	sess := testutil.GenerateTestSession()
	sess.ClientID = clientID
	if err := f.store.SaveSession(context.Background(), sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	code := testutil.GenerateTestAuthorizationCode(sess.ID)
	code.ClientID = clientID
	code.RedirectURI = redirectURI
	if err := f.store.SaveAuthorizationCode(context.Background(), code); err != nil {
		t.Fatalf("SaveAuthorizationCode() error = %v", err)
	}
	return sess, code
}

func TestAuthorizationCodeFlow(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewAuthorizationCode())
	f.srv.AddGrantType(grants.NewRefreshToken())

	sess, code := seedAuthorizationCode(t, f, confidentialClientID, "https://app.example.com/callback")

	req := tokenRequest(map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"code":          code.Code,
		"redirect_uri":  code.RedirectURI,
	})
	resp, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if resp.AccessToken == "" {
		t.Error("access token missing")
	}
	if resp.RefreshToken == "" {
		t.Error("refresh token should pair when the refresh grant is registered")
	}
	if want := strings.Join(sess.Scopes, " "); resp.Scope != want {
		t.Errorf("scope = %q, want %q", resp.Scope, want)
	}
}

func TestAuthorizationCodeRedirectMismatch(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewAuthorizationCode())

	_, code := seedAuthorizationCode(t, f, confidentialClientID, "https://app.example.com/callback")

	req := tokenRequest(map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"code":          code.Code,
		"redirect_uri":  "https://evil.example.com/callback",
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindInvalidGrant)
	if oauthErr.Detail != "redirect_uri" {
		t.Errorf("Detail = %q, want redirect_uri", oauthErr.Detail)
	}
}

func TestAuthorizationCodeSingleUse(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewAuthorizationCode())

	_, code := seedAuthorizationCode(t, f, confidentialClientID, "")

	req := tokenRequest(map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"code":          code.Code,
	})
	if _, err := f.srv.IssueAccessToken(context.Background(), req, nil); err != nil {
		t.Fatalf("first exchange error = %v", err)
	}

	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindInvalidGrant)
	if oauthErr.Detail != "code" {
		t.Errorf("Detail = %q, want code", oauthErr.Detail)
	}
}

func TestAuthorizationCodeWrongClient(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewAuthorizationCode())

	other := &storage.Client{
		ClientID:         "other-client",
		ClientSecretHash: testutil.HashSecret(clientSecret),
	}
	if err := f.store.RegisterClient(other); err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}

	_, code := seedAuthorizationCode(t, f, confidentialClientID, "")

	req := tokenRequest(map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     other.ClientID,
		"client_secret": clientSecret,
		"code":          code.Code,
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	wantOAuthError(t, err, grantkit.KindInvalidGrant)
}

// issuePasswordPair runs the password flow and returns the issued pair
func issuePasswordPair(t *testing.T, f *fixture, scope string) *grantkit.TokenResponse {
	t.Helper()

	params := map[string]string{
		"grant_type":    "password",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"username":      "alice",
		"password":      "wonderland",
	}
	if scope != "" {
		params["scope"] = scope
	}
	resp, err := f.srv.IssueAccessToken(context.Background(), tokenRequest(params), nil)
	if err != nil {
		t.Fatalf("password flow error = %v", err)
	}
	if resp.RefreshToken == "" {
		t.Fatal("password flow issued no refresh token")
	}
	return resp
}

func refreshRequest(refreshToken, scope string) *grantkit.TokenRequest {
	params := map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     confidentialClientID,
		"client_secret": clientSecret,
		"refresh_token": refreshToken,
	}
	if scope != "" {
		params["scope"] = scope
	}
	return tokenRequest(params)
}

func newRefreshFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewPassword(passwordAuthenticator(t)))
	f.srv.AddGrantType(grants.NewRefreshToken())
	return f
}

func TestRefreshTokenRotation(t *testing.T) {
	f := newRefreshFixture(t)
	pair := issuePasswordPair(t, f, "read write")

	resp, err := f.srv.IssueAccessToken(context.Background(), refreshRequest(pair.RefreshToken, ""), nil)
	if err != nil {
		t.Fatalf("refresh error = %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("rotation should mint a complete new pair")
	}
	if resp.AccessToken == pair.AccessToken || resp.RefreshToken == pair.RefreshToken {
		t.Error("rotation must not reuse token strings")
	}

	// The old access token is revoked alongside the consumed refresh token
	if _, err := f.store.GetAccessToken(context.Background(), pair.AccessToken); !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("old access token lookup error = %v, want ErrTokenNotFound", err)
	}

	// The old refresh token is dead
	_, err = f.srv.IssueAccessToken(context.Background(), refreshRequest(pair.RefreshToken, ""), nil)
	wantOAuthError(t, err, grantkit.KindInvalidRefresh)

	// The new pair keeps working
	if _, err := f.store.GetAccessToken(context.Background(), resp.AccessToken); err != nil {
		t.Errorf("new access token lookup error = %v", err)
	}
	if _, err := f.srv.IssueAccessToken(context.Background(), refreshRequest(resp.RefreshToken, ""), nil); err != nil {
		t.Errorf("refreshing the new pair error = %v", err)
	}
}

func TestRefreshTokenScopeNarrowing(t *testing.T) {
	f := newRefreshFixture(t)
	pair := issuePasswordPair(t, f, "read write")

	resp, err := f.srv.IssueAccessToken(context.Background(), refreshRequest(pair.RefreshToken, "read"), nil)
	if err != nil {
		t.Fatalf("narrowing refresh error = %v", err)
	}
	if resp.Scope != "read" {
		t.Errorf("scope = %q, want the narrowed scope", resp.Scope)
	}

	// After narrowing, the dropped scope cannot be recovered
	_, err = f.srv.IssueAccessToken(context.Background(), refreshRequest(resp.RefreshToken, "write"), nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindInvalidScope)
	if oauthErr.Detail != "write" {
		t.Errorf("Detail = %q, want the widened scope named", oauthErr.Detail)
	}
}

func TestRefreshTokenWideningRejected(t *testing.T) {
	f := newRefreshFixture(t)
	pair := issuePasswordPair(t, f, "read")

	_, err := f.srv.IssueAccessToken(context.Background(), refreshRequest(pair.RefreshToken, "read write"), nil)
	oauthErr := wantOAuthError(t, err, grantkit.KindInvalidScope)
	if oauthErr.Detail != "write" {
		t.Errorf("Detail = %q, want write", oauthErr.Detail)
	}
}

func TestRefreshTokenWrongClient(t *testing.T) {
	f := newRefreshFixture(t)
	pair := issuePasswordPair(t, f, "")

	other := &storage.Client{
		ClientID:         "other-client",
		ClientSecretHash: testutil.HashSecret(clientSecret),
	}
	if err := f.store.RegisterClient(other); err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}

	req := tokenRequest(map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     other.ClientID,
		"client_secret": clientSecret,
		"refresh_token": pair.RefreshToken,
	})
	_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	wantOAuthError(t, err, grantkit.KindInvalidRefresh)
}

func TestRefreshTokenUnknown(t *testing.T) {
	f := newRefreshFixture(t)

	_, err := f.srv.IssueAccessToken(context.Background(), refreshRequest("never-issued", ""), nil)
	wantOAuthError(t, err, grantkit.KindInvalidRefresh)
}

func TestConcurrentRefreshRedemption(t *testing.T) {
	f := newRefreshFixture(t)
	pair := issuePasswordPair(t, f, "")

	const attempts = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	rejections := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.srv.IssueAccessToken(context.Background(), refreshRequest(pair.RefreshToken, ""), nil)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var oauthErr *grantkit.Error
			if errors.As(err, &oauthErr) && oauthErr.Kind == grantkit.KindInvalidRefresh {
				rejections++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if rejections != attempts-1 {
		t.Errorf("rejections = %d, want %d", rejections, attempts-1)
	}
}

func TestImplicitFlow(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewImplicit())

	sess := testutil.GenerateTestSession()
	sess.ClientID = publicClientID
	if err := f.store.SaveSession(context.Background(), sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	req := tokenRequest(map[string]string{
		"grant_type": "implicit",
		"client_id":  publicClientID,
		"session_id": sess.ID,
	})
	resp, err := f.srv.IssueAccessToken(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("access token missing")
	}
	if resp.RefreshToken != "" {
		t.Error("implicit grant must not issue a refresh token")
	}
}

func TestImplicitSessionChecks(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewImplicit())

	sess := testutil.GenerateTestSession()
	sess.ClientID = confidentialClientID
	if err := f.store.SaveSession(context.Background(), sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		wantKind  grantkit.Kind
	}{
		{"unknown session", "no-such-session", grantkit.KindAccessDenied},
		{"session owned by another client", sess.ID, grantkit.KindAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tokenRequest(map[string]string{
				"grant_type": "implicit",
				"client_id":  publicClientID,
				"session_id": tt.sessionID,
			})
			_, err := f.srv.IssueAccessToken(context.Background(), req, nil)
			wantOAuthError(t, err, tt.wantKind)
		})
	}
}

func TestResponseTypesAdvertised(t *testing.T) {
	f := newFixture(t)
	f.srv.AddGrantType(grants.NewAuthorizationCode())
	f.srv.AddGrantType(grants.NewImplicit())
	f.srv.AddGrantType(grants.NewClientCredentials())

	got := f.srv.ResponseTypes()
	want := []string{"code", "token"}
	if len(got) != len(want) {
		t.Fatalf("ResponseTypes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ResponseTypes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
