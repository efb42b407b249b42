// Package redact scrubs sensitive values from strings before they are
// logged or returned in error responses. It targets the things this API
// actually handles: connection strings, passwords, signing secrets, JWTs,
// email addresses, and SQL fragments.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedSecretPlaceholder     = "[REDACTED_SECRET]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
)

var (
	// Database connection strings with embedded credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// Password-ish key/value fragments.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?)[^'"&\s]{3,}`)

	// Signing secrets and token material in key/value form.
	secretRegex = regexp.MustCompile(`(?i)(jwt[_-]?secret|secret|token|api[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`)

	// The standard three-part base64url JWT shape.
	jwtRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Email addresses.
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// SQL statement fragments that may surface in driver errors.
	sqlRegex = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE)[\s\w,*()]+(?:FROM|INTO|SET)(?:[\s\w,*()='"$]+)?`,
	)

	replacements = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{dbConnRegex, RedactedCredentialPlaceholder},
		{passwordRegex, RedactedCredentialPlaceholder},
		{secretRegex, RedactedSecretPlaceholder},
		{jwtRegex, RedactedJWTPlaceholder},
		{emailRegex, RedactedEmailPlaceholder},
		{sqlRegex, RedactedSQLPlaceholder},
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range replacements {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
