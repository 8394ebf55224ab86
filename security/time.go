package security

import "time"

// DefaultClockSkewGracePeriod is the grace period for expiry checks. It
// prevents false expiration errors caused by time drift between systems
// while extending effective token lifetime by only a few seconds.
const DefaultClockSkewGracePeriod = 5 * time.Second

// IsExpired checks expiry with the default clock-skew grace period.
// A zero time means no expiration.
func IsExpired(expiresAt time.Time) bool {
	return IsExpiredWithGracePeriod(expiresAt, DefaultClockSkewGracePeriod)
}

// IsExpiredWithGracePeriod checks expiry with a custom grace period
func IsExpiredWithGracePeriod(expiresAt time.Time, gracePeriod time.Duration) bool {
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().After(expiresAt.Add(gracePeriod))
}
