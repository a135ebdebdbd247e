package secrets

import (
	"regexp"
	"strings"
)

var (
	legalSuffixes = []string{"llc", "l.l.c", "inc", "incorporated", "ltd", "limited", "corp", "corporation", "co", "gmbh"}

	nonRefChars = regexp.MustCompile(`[^a-z0-9]+`)
	nonEnvChars = regexp.MustCompile(`[^A-Z0-9]+`)
)

// DeriveRef deterministically derives a secret reference name from a
// tenant's human-readable name: lowercase, legal-entity suffixes stripped,
// punctuation removed, separators collapsed to single hyphens, with a
// "-klaviyo-key" suffix.
//
//	"Acme Widgets, LLC"  → "acme-widgets-klaviyo-key"
//	"Bob's Bikes Inc."   → "bobs-bikes-klaviyo-key"
func DeriveRef(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "'", "")

	// Drop trailing legal-entity words, possibly several ("Acme Co, Ltd.")
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	for len(words) > 1 && isLegalSuffix(strings.Trim(words[len(words)-1], ".")) {
		words = words[:len(words)-1]
	}

	s = nonRefChars.ReplaceAllString(strings.Join(words, " "), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return ""
	}
	return s + "-klaviyo-key"
}

func isLegalSuffix(word string) bool {
	for _, suf := range legalSuffixes {
		if word == suf {
			return true
		}
	}
	return false
}

// EnvVarName builds the development-mode environment variable for a tenant:
// the configured prefix plus the sanitized tenant identifier, e.g.
// prefix "KLAVIYO_KEY" + tenant "acme-co" → "KLAVIYO_KEY_ACME_CO".
func EnvVarName(prefix, tenantID string) string {
	id := strings.ToUpper(tenantID)
	id = nonEnvChars.ReplaceAllString(id, "_")
	id = strings.Trim(id, "_")
	if id == "" {
		return ""
	}
	return prefix + "_" + id
}
