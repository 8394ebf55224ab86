package util

// SafeTruncate truncates a string to maxLen characters without panicking.
// Used when logging prefixes of sensitive values like tokens, where only a
// short prefix should ever reach the log stream. A negative maxLen returns
// an empty string.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
