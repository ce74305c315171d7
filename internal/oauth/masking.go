package oauth

// MaskSecret redacts a secret for logging, keeping just enough of it to
// correlate log lines. Short values are fully masked.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:3] + "***" + s[len(s)-4:]
}
