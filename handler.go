package grantkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/grantkit/grantkit/instrumentation"
	"github.com/grantkit/grantkit/security"
)

const tokenTypeBearer = "Bearer"

// Handler exposes the token endpoint over HTTP. It parses the form into a
// TokenRequest, dispatches through the server, and writes RFC 6749 §5.1/§5.2
// JSON bodies with the catalog-derived status and headers.
type Handler struct {
	server            *Server
	logger            *slog.Logger
	rateLimiter       *security.RateLimiter
	trustProxy        bool
	trustedProxyCount int
}

// NewHandler creates an HTTP handler around the server
func NewHandler(server *Server) *Handler {
	return &Handler{
		server: server,
		logger: server.Logger(),
	}
}

// SetRateLimiter enables per-IP rate limiting on the token endpoint
func (h *Handler) SetRateLimiter(rl *security.RateLimiter) {
	h.rateLimiter = rl
}

// SetProxyTrust configures client IP extraction behind reverse proxies.
// Only enable behind a trusted proxy; forwarding headers are
// attacker-controlled otherwise.
func (h *Handler) SetProxyTrust(trustProxy bool, trustedProxyCount int) {
	h.trustProxy = trustProxy
	h.trustedProxyCount = trustedProxyCount
}

// ServeHTTP makes the handler mountable directly on a mux
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeToken(w, r)
}

// ServeToken handles POST requests to the token endpoint
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()

	inst := h.server.Instrumentation()
	var span trace.Span
	if inst != nil {
		ctx, span = inst.Tracer("http").Start(ctx, "token_endpoint")
		defer span.End()
	}

	clientIP := security.GetClientIP(r, h.trustProxy, h.trustedProxyCount)
	if inst != nil && inst.ShouldLogClientIPs() {
		instrumentation.AddSecurityAttributes(span, clientIP)
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeErrorBody(w, ErrInvalidRequest("grant_type"), http.StatusMethodNotAllowed)
		h.recordRequest(ctx, span, r, http.StatusMethodNotAllowed, startTime)
		return
	}

	if h.rateLimiter != nil && !h.rateLimiter.Allow(clientIP) {
		h.logger.Warn("Rate limit exceeded on token endpoint", "ip", clientIP)
		if aud := h.server.Auditor(); aud != nil {
			aud.LogRateLimitExceeded(clientIP)
		}
		if inst != nil {
			inst.Metrics().RecordRateLimitExceeded(ctx, "ip")
		}
		oauthErr := ErrTemporarilyUnavailable("")
		h.writeOAuthError(w, oauthErr, nil)
		h.recordRequest(ctx, span, r, oauthErr.Status(), startTime)
		return
	}

	req, err := NewTokenRequest(r)
	if err != nil {
		oauthErr := asOAuthError(err)
		h.writeOAuthError(w, oauthErr, nil)
		h.recordRequest(ctx, span, r, oauthErr.Status(), startTime)
		return
	}

	clientID, _ := req.ClientCredentials()
	instrumentation.AddGrantAttributes(span, req.GrantType(), clientID, "")

	resp, err := h.server.IssueAccessToken(ctx, req, nil)
	if err != nil {
		oauthErr := asOAuthError(err)
		if aud := h.server.Auditor(); aud != nil {
			aud.LogTokenDenied(clientID, clientIP, req.GrantType(), string(oauthErr.Kind))
		}
		instrumentation.RecordError(span, oauthErr)
		h.writeOAuthError(w, oauthErr, req)
		h.recordRequest(ctx, span, r, oauthErr.Status(), startTime)
		return
	}

	if aud := h.server.Auditor(); aud != nil {
		aud.LogTokenIssued("", clientID, clientIP, req.GrantType(), resp.Scope)
	}
	instrumentation.SetSpanSuccess(span)
	h.writeTokenResponse(w, resp)
	h.recordRequest(ctx, span, r, http.StatusOK, startTime)
}

func (h *Handler) writeTokenResponse(w http.ResponseWriter, resp *TokenResponse) {
	security.SetSecurityHeaders(w, h.server.Issuer())

	if resp.TokenType == "" {
		resp.TokenType = tokenTypeBearer
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// writeOAuthError writes an RFC 6749 §5.2 error body with the catalog status
// and, for invalid_client, the WWW-Authenticate challenge derived from the
// request's authentication signal.
func (h *Handler) writeOAuthError(w http.ResponseWriter, oauthErr *Error, req *TokenRequest) {
	security.SetSecurityHeaders(w, h.server.Issuer())

	if oauthErr.Kind == KindInvalidClient && req != nil {
		if scheme := challengeScheme(req); scheme != "" {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("%s realm=%q", scheme, ""))
		}
	}

	h.writeErrorBody(w, oauthErr, oauthErr.Status())
}

func (h *Handler) writeErrorBody(w http.ResponseWriter, oauthErr *Error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            string(oauthErr.Kind),
		ErrorDescription: oauthErr.Description(),
	})
}

func (h *Handler) recordRequest(ctx context.Context, span trace.Span, r *http.Request, status int, startTime time.Time) {
	inst := h.server.Instrumentation()
	if inst == nil {
		return
	}
	instrumentation.AddHTTPAttributes(span, r.Method, r.URL.Path, status)
	durationMs := float64(time.Since(startTime).Milliseconds())
	inst.Metrics().RecordHTTPRequest(ctx, r.Method, r.URL.Path, status, durationMs)
}

// asOAuthError normalizes any error into a catalog-backed value; non-catalog
// errors become server_error with the detail withheld from the client.
func asOAuthError(err error) *Error {
	if oauthErr, ok := err.(*Error); ok {
		return oauthErr
	}
	return ErrServer("")
}
