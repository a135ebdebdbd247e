package logger

import (
	"regexp"
	"strings"
)

// pkRegex matches private-key shaped credentials embedded anywhere in a
// value ("pk_" followed by the key body).
var pkRegex = regexp.MustCompile(`\bpk_[A-Za-z0-9]+\b`)

// secretKeyHints marks field names whose values are always credentials.
var secretKeyHints = []string{"api_key", "apikey", "credential", "secret", "password", "token"}

// RedactCredential masks a credential for safe logging.
// "pk_abcdef123456" → "pk_ab***". Values too short to keep a prefix are
// fully masked.
func RedactCredential(v string) string {
	if len(v) > 5 {
		return v[:5] + "***"
	}
	return "***"
}

func redactSecretValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(lower, hint) {
			return RedactCredential(val)
		}
	}
	// Redact any embedded key material in generic fields
	return pkRegex.ReplaceAllStringFunc(val, RedactCredential)
}
