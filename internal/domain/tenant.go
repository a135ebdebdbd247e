package domain

import "time"

// Tenant represents a single configured client account.
//
// At most one of the credential fields is authoritative at any time; the
// secret resolver decides which by fallback order, never by presence alone
// (a legacy field may coexist with a current one during a migration window).
type Tenant struct {
	ID   string `json:"id" db:"id"`
	Slug string `json:"slug,omitempty" db:"slug"`
	Name string `json:"name" db:"name"`

	// MetricID is the locked "Placed Order"-equivalent metric. Empty until
	// auto-detection has run or an operator locks one explicitly.
	MetricID string `json:"metric_id,omitempty" db:"metric_id"`

	// LegacyMetricID is the metric field under its pre-rename name. Read
	// as a fallback; detected and resolved values are always written to
	// MetricID.
	LegacyMetricID string `json:"legacy_metric_id,omitempty" db:"legacy_metric_id"`

	// SecretRef is the current-generation reference into the managed
	// secret store.
	SecretRef string `json:"secret_ref,omitempty" db:"secret_ref"`

	// LegacySecretRef is the previous-generation reference field. Kept
	// readable so tenants created before the rename keep working; resolved
	// values are written back under SecretRef.
	LegacySecretRef string `json:"legacy_secret_ref,omitempty" db:"legacy_secret_ref"`

	// LegacyAPIKey is a plaintext credential from the oldest storage
	// generation. Migrated into the secret store on first use and then
	// cleared; must never survive a successful migration.
	LegacyAPIKey string `json:"-" db:"legacy_api_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasMetric reports whether a canonical metric is configured.
func (t *Tenant) HasMetric() bool { return t.MetricID != "" }
