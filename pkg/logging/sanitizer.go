package logging

import (
	"regexp"
)

// RedactedText replaces sensitive values.
const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// sk-... style provider keys and key=... query parameters
	apiKeyPattern  = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)
	bareKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9-_]{16,}`)

	// user:pass@host in URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^/\s]*@`)
)

// SanitizeConnectionString removes credentials from a DSN or URL before logging.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
}

// SanitizeError renders err with passwords, API keys and URL credentials removed.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = bareKeyPattern.ReplaceAllString(sanitized, RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
}

// TruncateString truncates s to maxLen bytes and adds an ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
