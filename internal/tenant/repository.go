package tenant

import (
	"context"
	"errors"

	"github.com/ignite/attribution-gateway/internal/domain"
)

// ErrNotFound is returned when no tenant matches the given id or slug.
var ErrNotFound = errors.New("tenant not found")

// Repository defines the data access contract for tenants.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single tenant by id. Returns ErrNotFound if it
	// doesn't exist.
	Get(ctx context.Context, id string) (*domain.Tenant, error)

	// GetBySlug returns a single tenant by its human-readable slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)

	// Update applies a partial update. Nil pointer fields are left
	// untouched; Clear flags remove the field entirely (NULL, not empty
	// string) so migration state is unambiguous.
	Update(ctx context.Context, id string, u UpdateFields) error
}

// UpdateFields holds the mutable fields the gateway may write back.
// Zero-value (nil) fields are not applied.
type UpdateFields struct {
	MetricID        *string
	SecretRef       *string
	LegacySecretRef *string

	// ClearLegacySecretRef removes the legacy reference after its value has
	// been re-persisted under the current-generation field.
	ClearLegacySecretRef bool

	// ClearLegacyAPIKey removes the plaintext credential after a successful
	// migration into the managed secret store.
	ClearLegacyAPIKey bool
}

// IsZero reports whether the update would change nothing.
func (u UpdateFields) IsZero() bool {
	return u.MetricID == nil && u.SecretRef == nil && u.LegacySecretRef == nil &&
		!u.ClearLegacySecretRef && !u.ClearLegacyAPIKey
}
