package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/grantkit/grantkit/storage"
)

// HashSecret bcrypt-hashes a plaintext secret for client fixtures, using the
// minimum cost to keep tests fast
func HashSecret(secret string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash secret: %v", err))
	}
	return string(hash)
}

// GenerateTestClient creates a confidential test client whose secret is "secret"
func GenerateTestClient() *storage.Client {
	return &storage.Client{
		ClientID:         "test-client-id",
		ClientSecretHash: HashSecret("secret"),
		ClientName:       "Test Client",
		RedirectURIs:     []string{"https://example.com/callback"},
		GrantTypes:       []string{"authorization_code", "client_credentials", "password", "refresh_token"},
		CreatedAt:        time.Now(),
	}
}

// GenerateTestSession creates a test session for the test client
func GenerateTestSession() *storage.Session {
	return &storage.Session{
		ID:        GenerateRandomString(32),
		ClientID:  "test-client-id",
		OwnerType: "user",
		OwnerID:   "test-user-123",
		Scopes:    []string{"read", "write"},
		CreatedAt: time.Now(),
	}
}

// GenerateTestAuthorizationCode creates an unused test authorization code
// bound to the given session
func GenerateTestAuthorizationCode(sessionID string) *storage.AuthorizationCode {
	return &storage.AuthorizationCode{
		Code:        GenerateRandomString(32),
		SessionID:   sessionID,
		ClientID:    "test-client-id",
		RedirectURI: "https://example.com/callback",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(10 * time.Minute),
		Used:        false,
	}
}

// GenerateTestRefreshToken creates a test refresh token paired with the
// given access token and session
func GenerateTestRefreshToken(accessToken, sessionID string) *storage.RefreshToken {
	return &storage.RefreshToken{
		Token:       GenerateRandomString(32),
		AccessToken: accessToken,
		SessionID:   sessionID,
		ClientID:    "test-client-id",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
}

// GenerateRandomString generates a random base64-encoded string
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate random string: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

// AssertEqual fails the test if got != want
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// AssertStringContains fails the test if s does not contain substr
func AssertStringContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("string %q does not contain %q", s, substr)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, message string) {
	t.Helper()
	if !condition {
		t.Errorf("assertion failed: %s", message)
	}
}
