package grantkit

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies an entry in the RFC 6749 error catalog. Callers can
// pattern-match on Kind without inspecting message strings.
type Kind string

// Catalog keys for token-endpoint and authorization-endpoint failures
const (
	KindInvalidRequest          Kind = "invalid_request"
	KindUnauthorizedClient      Kind = "unauthorized_client"
	KindAccessDenied            Kind = "access_denied"
	KindUnsupportedResponseType Kind = "unsupported_response_type"
	KindInvalidScope            Kind = "invalid_scope"
	KindServerError             Kind = "server_error"
	KindTemporarilyUnavailable  Kind = "temporarily_unavailable"
	KindUnsupportedGrantType    Kind = "unsupported_grant_type"
	KindInvalidClient           Kind = "invalid_client"
	KindInvalidGrant            Kind = "invalid_grant"
	KindInvalidCredentials      Kind = "invalid_credentials"
	KindInvalidRefresh          Kind = "invalid_refresh"
)

// catalogEntry pairs a message template (at most one %s substitution slot)
// with the HTTP status the kind maps to.
type catalogEntry struct {
	template string
	status   int
}

// errorCatalog is the static error table. Complete for every Kind, never
// mutated after process start.
//
// Note that per RFC 6749 a temporarily_unavailable failure maps to 400, not
// 503, because a 503 cannot be delivered via a redirect-based error response.
var errorCatalog = map[Kind]catalogEntry{
	KindInvalidRequest: {
		template: `The request is missing a required parameter, includes an invalid parameter value, includes a parameter more than once, or is otherwise malformed. Check the "%s" parameter.`,
		status:   http.StatusBadRequest,
	},
	KindUnauthorizedClient: {
		template: "The client is not authorized to request an access token using this method.",
		status:   http.StatusBadRequest,
	},
	KindAccessDenied: {
		template: "The resource owner or authorization server denied the request.",
		status:   http.StatusUnauthorized,
	},
	KindUnsupportedResponseType: {
		template: "The authorization server does not support obtaining an access token using this method.",
		status:   http.StatusBadRequest,
	},
	KindInvalidScope: {
		template: `The requested scope is invalid, unknown, or malformed. Check the "%s" scope.`,
		status:   http.StatusBadRequest,
	},
	KindServerError: {
		template: "The authorization server encountered an unexpected condition which prevented it from fulfilling the request.",
		status:   http.StatusInternalServerError,
	},
	KindTemporarilyUnavailable: {
		template: "The authorization server is currently unable to handle the request due to a temporary overloading or maintenance of the server.",
		status:   http.StatusBadRequest,
	},
	KindUnsupportedGrantType: {
		template: `The grant type "%s" is not supported by the authorization server.`,
		status:   http.StatusNotImplemented,
	},
	KindInvalidClient: {
		template: "Client authentication failed.",
		status:   http.StatusUnauthorized,
	},
	KindInvalidGrant: {
		template: `The provided authorization grant is invalid, expired, revoked, does not match the redirection URI used in the authorization request, or was issued to another client. Check the "%s" parameter.`,
		status:   http.StatusBadRequest,
	},
	KindInvalidCredentials: {
		template: "The user credentials were incorrect.",
		status:   http.StatusBadRequest,
	},
	KindInvalidRefresh: {
		template: "The refresh token is invalid.",
		status:   http.StatusBadRequest,
	},
}

// Error is a typed token-endpoint failure. Kind selects the catalog entry,
// Detail fills the entry's substitution slot (when it has one), and Code is
// an optional internal sub-code for telemetry that is never sent to clients.
//
// A failure is client-attributable (4xx/501, safe to report verbatim with the
// interpolated detail) for every kind except KindServerError, whose detail is
// withheld from the caller and logged internally instead.
type Error struct {
	Kind   Kind
	Detail string
	Code   int
}

// Error implements the error interface
func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Description()
}

// Description renders the catalog message with the detail interpolated.
// Unknown kinds fall back to the server_error message.
func (e *Error) Description() string {
	entry, ok := errorCatalog[e.Kind]
	if !ok {
		entry = errorCatalog[KindServerError]
	}
	if strings.Contains(entry.template, "%s") {
		return fmt.Sprintf(entry.template, e.Detail)
	}
	return entry.template
}

// Status returns the HTTP status code for the error kind. Kinds absent from
// the catalog map to 400 Bad Request.
func (e *Error) Status() int {
	if entry, ok := errorCatalog[e.Kind]; ok {
		return entry.status
	}
	return http.StatusBadRequest
}

// NewError creates an error for the given catalog kind
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Constructors for the catalog kinds, one per key
var (
	// ErrInvalidRequest indicates a missing or malformed request parameter
	ErrInvalidRequest = func(param string) *Error {
		return NewError(KindInvalidRequest, param)
	}

	// ErrUnauthorizedClient indicates the client may not use this grant type
	ErrUnauthorizedClient = func(detail string) *Error {
		return NewError(KindUnauthorizedClient, detail)
	}

	// ErrAccessDenied indicates the resource owner or server denied the request
	ErrAccessDenied = func(detail string) *Error {
		return NewError(KindAccessDenied, detail)
	}

	// ErrUnsupportedResponseType indicates an unknown authorization response type
	ErrUnsupportedResponseType = func(detail string) *Error {
		return NewError(KindUnsupportedResponseType, detail)
	}

	// ErrInvalidScope indicates an unknown or malformed scope name
	ErrInvalidScope = func(scope string) *Error {
		return NewError(KindInvalidScope, scope)
	}

	// ErrServer indicates an internal configuration or collaborator defect.
	// The detail is for internal logging only, never reported to the caller.
	ErrServer = func(detail string) *Error {
		return NewError(KindServerError, detail)
	}

	// ErrTemporarilyUnavailable indicates transient overload or maintenance
	ErrTemporarilyUnavailable = func(detail string) *Error {
		return NewError(KindTemporarilyUnavailable, detail)
	}

	// ErrUnsupportedGrantType indicates the grant type is not registered
	ErrUnsupportedGrantType = func(grantType string) *Error {
		return NewError(KindUnsupportedGrantType, grantType)
	}

	// ErrInvalidClient indicates client authentication failed
	ErrInvalidClient = func(detail string) *Error {
		return NewError(KindInvalidClient, detail)
	}

	// ErrInvalidGrant indicates the authorization grant is invalid or expired
	ErrInvalidGrant = func(param string) *Error {
		return NewError(KindInvalidGrant, param)
	}

	// ErrInvalidCredentials indicates the resource owner credentials were wrong
	ErrInvalidCredentials = func(detail string) *Error {
		return NewError(KindInvalidCredentials, detail)
	}

	// ErrInvalidRefresh indicates the refresh token is invalid or consumed
	ErrInvalidRefresh = func(detail string) *Error {
		return NewError(KindInvalidRefresh, detail)
	}
)

// DeriveHeaders returns the HTTP header lines for a failure of the given
// kind, in emission order. The first line is always the status line derived
// from the catalog; kinds absent from the status table map to 400.
//
// For invalid_client the request's authentication signal selects a
// WWW-Authenticate challenge scheme: decoded Basic credentials win, then the
// raw Authorization value's Bearer/Basic prefix. A request with no auth
// signal (or a nil request) produces no challenge header.
func DeriveHeaders(kind Kind, req *TokenRequest) []string {
	headers := []string{statusLine(kind)}

	if kind == KindInvalidClient && req != nil {
		if scheme := challengeScheme(req); scheme != "" {
			headers = append(headers, fmt.Sprintf("WWW-Authenticate: %s realm=%q", scheme, ""))
		}
	}

	return headers
}

func statusLine(kind Kind) string {
	status := http.StatusBadRequest
	if entry, ok := errorCatalog[kind]; ok {
		status = entry.status
	}

	switch status {
	case http.StatusUnauthorized:
		return "HTTP/1.1 401 Unauthorized"
	case http.StatusInternalServerError:
		return "HTTP/1.1 500 Internal Server Error"
	case http.StatusNotImplemented:
		return "HTTP/1.1 501 Not Implemented"
	default:
		return "HTTP/1.1 400 Bad Request"
	}
}

func challengeScheme(req *TokenRequest) string {
	switch {
	case req.BasicUser != "":
		return "Basic"
	case strings.HasPrefix(req.Authorization, "Bearer"):
		return "Bearer"
	case strings.HasPrefix(req.Authorization, "Basic"):
		return "Basic"
	default:
		return ""
	}
}
