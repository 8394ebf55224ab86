package grantkit

import (
	"log/slog"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	config := applyDefaults(nil)

	if config.AccessTokenTTL != DefaultAccessTokenTTL {
		t.Errorf("AccessTokenTTL = %d, want %d", config.AccessTokenTTL, DefaultAccessTokenTTL)
	}
	if config.RefreshTokenTTL != DefaultRefreshTokenTTL {
		t.Errorf("RefreshTokenTTL = %d, want %d", config.RefreshTokenTTL, DefaultRefreshTokenTTL)
	}
	if config.ScopeDelimiter != " " {
		t.Errorf("ScopeDelimiter = %q, want a single space", config.ScopeDelimiter)
	}
	if config.TokenGenerator == nil {
		t.Fatal("TokenGenerator should default to a working generator")
	}
	if config.Logger == nil {
		t.Error("Logger should default to slog.Default()")
	}

	// The default generator produces non-empty, distinct opaque strings
	a, b := config.TokenGenerator(), config.TokenGenerator()
	if a == "" || b == "" {
		t.Error("TokenGenerator produced an empty token")
	}
	if a == b {
		t.Error("TokenGenerator produced identical tokens")
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	logger := slog.Default()
	generator := func() string { return "fixed" }

	config := applyDefaults(&Config{
		Issuer:            "https://auth.example.com",
		AccessTokenTTL:    60,
		RefreshTokenTTL:   120,
		ScopeDelimiter:    ",",
		RequireScopeParam: true,
		DefaultScope:      "basic",
		TokenGenerator:    generator,
		Logger:            logger,
	})

	if config.Issuer != "https://auth.example.com" {
		t.Errorf("Issuer = %q", config.Issuer)
	}
	if config.AccessTokenTTL != 60 || config.RefreshTokenTTL != 120 {
		t.Errorf("TTLs = %d/%d, want 60/120", config.AccessTokenTTL, config.RefreshTokenTTL)
	}
	if config.ScopeDelimiter != "," {
		t.Errorf("ScopeDelimiter = %q", config.ScopeDelimiter)
	}
	if !config.RequireScopeParam {
		t.Error("RequireScopeParam should be preserved")
	}
	if config.DefaultScope != "basic" {
		t.Errorf("DefaultScope = %q", config.DefaultScope)
	}
	if config.TokenGenerator() != "fixed" {
		t.Error("TokenGenerator should be preserved")
	}
	if config.Logger != logger {
		t.Error("Logger should be preserved")
	}
}
