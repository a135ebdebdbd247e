package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/tenant"
)

// TenantRepo implements tenant.Repository against PostgreSQL.
type TenantRepo struct{ db *sql.DB }

// NewTenantRepo creates a Postgres-backed tenant repository.
func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

const tenantColumns = `
	id, COALESCE(slug,''), name, COALESCE(metric_id,''), COALESCE(legacy_metric_id,''),
	COALESCE(secret_ref,''), COALESCE(legacy_secret_ref,''),
	COALESCE(legacy_api_key,''), created_at, updated_at`

func (r *TenantRepo) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.getWhere(ctx, "slug = $1", slug)
}

func (r *TenantRepo) getWhere(ctx context.Context, where, arg string) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE `+where, arg,
	).Scan(
		&t.ID, &t.Slug, &t.Name, &t.MetricID, &t.LegacyMetricID,
		&t.SecretRef, &t.LegacySecretRef, &t.LegacyAPIKey,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, tenant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// Update applies a partial update. Clear flags write SQL NULL, which the
// reads above fold back to "". NULL (field removed) and '' (field set
// empty) stay distinct in storage, which the migration logic relies on.
func (r *TenantRepo) Update(ctx context.Context, id string, u tenant.UpdateFields) error {
	if u.IsZero() {
		return nil
	}

	set := []string{}
	args := []interface{}{}
	idx := 1

	if u.MetricID != nil {
		set = append(set, fmt.Sprintf("metric_id = $%d", idx))
		args = append(args, *u.MetricID)
		idx++
	}
	if u.SecretRef != nil {
		set = append(set, fmt.Sprintf("secret_ref = $%d", idx))
		args = append(args, *u.SecretRef)
		idx++
	}
	if u.LegacySecretRef != nil {
		set = append(set, fmt.Sprintf("legacy_secret_ref = $%d", idx))
		args = append(args, *u.LegacySecretRef)
		idx++
	}
	if u.ClearLegacySecretRef {
		set = append(set, "legacy_secret_ref = NULL")
	}
	if u.ClearLegacyAPIKey {
		set = append(set, "legacy_api_key = NULL")
	}
	set = append(set, "updated_at = NOW()")

	q := "UPDATE tenants SET "
	for i, s := range set {
		if i > 0 {
			q += ", "
		}
		q += s
	}
	q += fmt.Sprintf(" WHERE id = $%d", idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tenant.ErrNotFound
	}
	return nil
}
