package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event type constants for audit logging. Constants keep the event names
// consistent across the codebase.
const (
	// EventTokenIssued is logged when an access token is issued
	EventTokenIssued = "token_issued"

	// EventTokenDenied is logged when a token request fails
	EventTokenDenied = "token_denied"

	// EventTokenRefreshed is logged when a refresh token is redeemed for a new pair
	EventTokenRefreshed = "token_refreshed"

	// EventAuthFailure is logged when client or resource-owner authentication fails
	EventAuthFailure = "auth_failure"

	// EventCodeRedeemed is logged when an authorization code is exchanged
	EventCodeRedeemed = "code_redeemed"

	// EventRateLimitExceeded is logged when a rate limit rejects a request
	EventRateLimitExceeded = "rate_limit_exceeded"
)

// Auditor handles security event logging with PII protection. Owner
// identifiers are hashed before they reach the log stream.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	ID        string
	Type      string
	OwnerID   string
	ClientID  string
	IPAddress string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_id", event.ID,
		"event_type", event.Type,
		"owner_id_hash", hashForLogging(event.OwnerID),
		"client_id", event.ClientID,
		"ip_address", event.IPAddress,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogTokenIssued logs a successful token issuance
func (a *Auditor) LogTokenIssued(ownerID, clientID, ipAddress, grantType, scope string) {
	a.LogEvent(Event{
		Type:      EventTokenIssued,
		OwnerID:   ownerID,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"grant_type": grantType,
			"scope":      scope,
		},
	})
}

// LogTokenDenied logs a failed token request with its catalog error kind
func (a *Auditor) LogTokenDenied(clientID, ipAddress, grantType, errorKind string) {
	a.LogEvent(Event{
		Type:      EventTokenDenied,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"grant_type": grantType,
			"error":      errorKind,
		},
	})
}

// LogTokenRefreshed logs a refresh token redemption
func (a *Auditor) LogTokenRefreshed(ownerID, clientID, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventTokenRefreshed,
		OwnerID:   ownerID,
		ClientID:  clientID,
		IPAddress: ipAddress,
	})
}

// LogCodeRedeemed logs an authorization code exchange
func (a *Auditor) LogCodeRedeemed(ownerID, clientID, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventCodeRedeemed,
		OwnerID:   ownerID,
		ClientID:  clientID,
		IPAddress: ipAddress,
	})
}

// LogAuthFailure logs an authentication failure
func (a *Auditor) LogAuthFailure(ownerID, clientID, ipAddress, reason string) {
	a.LogEvent(Event{
		Type:      EventAuthFailure,
		OwnerID:   ownerID,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogRateLimitExceeded logs a rate limit violation
func (a *Auditor) LogRateLimitExceeded(ipAddress string) {
	a.LogEvent(Event{
		Type:      EventRateLimitExceeded,
		IPAddress: ipAddress,
	})
}

// hashForLogging creates a SHA256 hash of sensitive data for logging
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
