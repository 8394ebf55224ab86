package grantkit

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"
)

var allKinds = []Kind{
	KindInvalidRequest,
	KindUnauthorizedClient,
	KindAccessDenied,
	KindUnsupportedResponseType,
	KindInvalidScope,
	KindServerError,
	KindTemporarilyUnavailable,
	KindUnsupportedGrantType,
	KindInvalidClient,
	KindInvalidGrant,
	KindInvalidCredentials,
	KindInvalidRefresh,
}

func TestErrorCatalogComplete(t *testing.T) {
	for _, kind := range allKinds {
		entry, ok := errorCatalog[kind]
		if !ok {
			t.Errorf("Catalog missing entry for kind %q", kind)
			continue
		}
		if entry.template == "" {
			t.Errorf("Catalog entry for %q has empty template", kind)
		}
		if entry.status == 0 {
			t.Errorf("Catalog entry for %q has no status", kind)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidRequest, http.StatusBadRequest},
		{KindUnauthorizedClient, http.StatusBadRequest},
		{KindAccessDenied, http.StatusUnauthorized},
		{KindUnsupportedResponseType, http.StatusBadRequest},
		{KindInvalidScope, http.StatusBadRequest},
		{KindServerError, http.StatusInternalServerError},
		{KindTemporarilyUnavailable, http.StatusBadRequest},
		{KindUnsupportedGrantType, http.StatusNotImplemented},
		{KindInvalidClient, http.StatusUnauthorized},
		{KindInvalidGrant, http.StatusBadRequest},
		{KindInvalidCredentials, http.StatusBadRequest},
		{KindInvalidRefresh, http.StatusBadRequest},
		{Kind("made_up"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := NewError(tt.kind, "")
			if got := err.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorDescription(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "detail interpolated into invalid_request",
			err:  ErrInvalidRequest("grant_type"),
			want: `Check the "grant_type" parameter.`,
		},
		{
			name: "detail interpolated into invalid_scope",
			err:  ErrInvalidScope("payments"),
			want: `Check the "payments" scope.`,
		},
		{
			name: "detail interpolated into unsupported_grant_type",
			err:  ErrUnsupportedGrantType("saml"),
			want: `The grant type "saml" is not supported`,
		},
		{
			name: "no slot means detail ignored",
			err:  ErrInvalidClient("this never appears"),
			want: "Client authentication failed.",
		},
		{
			name: "unknown kind falls back to server_error message",
			err:  NewError(Kind("made_up"), "detail"),
			want: "unexpected condition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Description()
			if !strings.Contains(got, tt.want) {
				t.Errorf("Description() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestErrorInterface(t *testing.T) {
	err := ErrInvalidGrant("code")
	msg := err.Error()
	if !strings.HasPrefix(msg, "invalid_grant: ") {
		t.Errorf("Error() = %q, want invalid_grant prefix", msg)
	}
	if !strings.Contains(msg, `"code"`) {
		t.Errorf("Error() = %q, want interpolated detail", msg)
	}
}

func TestDeriveHeaders(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		req  *TokenRequest
		want []string
	}{
		{
			name: "invalid_client with Bearer authorization signal",
			kind: KindInvalidClient,
			req:  &TokenRequest{Authorization: "Bearer abc123"},
			want: []string{
				"HTTP/1.1 401 Unauthorized",
				`WWW-Authenticate: Bearer realm=""`,
			},
		},
		{
			name: "invalid_client with Basic authorization signal",
			kind: KindInvalidClient,
			req:  &TokenRequest{Authorization: "Basic dXNlcjpwYXNz"},
			want: []string{
				"HTTP/1.1 401 Unauthorized",
				`WWW-Authenticate: Basic realm=""`,
			},
		},
		{
			name: "decoded Basic credentials win over Bearer prefix",
			kind: KindInvalidClient,
			req:  &TokenRequest{Authorization: "Bearer abc123", BasicUser: "client-1", BasicSecret: "s"},
			want: []string{
				"HTTP/1.1 401 Unauthorized",
				`WWW-Authenticate: Basic realm=""`,
			},
		},
		{
			name: "invalid_client with no auth signal",
			kind: KindInvalidClient,
			req:  &TokenRequest{},
			want: []string{"HTTP/1.1 401 Unauthorized"},
		},
		{
			name: "invalid_client with nil request",
			kind: KindInvalidClient,
			req:  nil,
			want: []string{"HTTP/1.1 401 Unauthorized"},
		},
		{
			name: "non-challenge kind never gets a challenge",
			kind: KindInvalidRequest,
			req:  &TokenRequest{Authorization: "Basic dXNlcjpwYXNz"},
			want: []string{"HTTP/1.1 400 Bad Request"},
		},
		{
			name: "server_error status line",
			kind: KindServerError,
			req:  nil,
			want: []string{"HTTP/1.1 500 Internal Server Error"},
		},
		{
			name: "unsupported_grant_type status line",
			kind: KindUnsupportedGrantType,
			req:  nil,
			want: []string{"HTTP/1.1 501 Not Implemented"},
		},
		{
			name: "temporarily_unavailable maps to 400, never 503",
			kind: KindTemporarilyUnavailable,
			req:  nil,
			want: []string{"HTTP/1.1 400 Bad Request"},
		},
		{
			name: "unknown kind maps to 400",
			kind: Kind("made_up"),
			req:  nil,
			want: []string{"HTTP/1.1 400 Bad Request"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveHeaders(tt.kind, tt.req)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeriveHeaders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChallengeScheme(t *testing.T) {
	tests := []struct {
		name string
		req  *TokenRequest
		want string
	}{
		{"basic credentials decoded", &TokenRequest{BasicUser: "c", BasicSecret: "s"}, "Basic"},
		{"bearer prefix", &TokenRequest{Authorization: "Bearer tok"}, "Bearer"},
		{"basic prefix without decode", &TokenRequest{Authorization: "Basic zzz"}, "Basic"},
		{"no signal", &TokenRequest{Form: url.Values{"client_id": {"c"}}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := challengeScheme(tt.req); got != tt.want {
				t.Errorf("challengeScheme() = %q, want %q", got, tt.want)
			}
		})
	}
}
