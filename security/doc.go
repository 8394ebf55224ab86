// Package security provides the security features surrounding token
// issuance: audit logging with PII hashing, per-identifier rate limiting,
// secure response headers, client IP extraction, and expiry checks with a
// clock-skew grace period.
package security
