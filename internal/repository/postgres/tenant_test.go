package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/attribution-gateway/internal/tenant"
)

func newMockRepo(t *testing.T) (*TenantRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTenantRepo(db), mock
}

func tenantRows(id, slug, metricID, legacyAPIKey string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "slug", "name", "metric_id", "legacy_metric_id",
		"secret_ref", "legacy_secret_ref", "legacy_api_key",
		"created_at", "updated_at",
	}).AddRow(id, slug, "Acme Co", metricID, "", "acme-klaviyo-key", "", legacyAPIKey, now, now)
}

func TestTenantRepoGet(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tenants WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(tenantRows("t1", "acme", "m2", ""))

	got, err := repo.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "acme", got.Slug)
	assert.Equal(t, "m2", got.MetricID)
	assert.Equal(t, "acme-klaviyo-key", got.SecretRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepoGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tenants WHERE id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, tenant.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepoGetBySlug(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tenants WHERE slug = $1")).
		WithArgs("acme").
		WillReturnRows(tenantRows("t1", "acme", "", "pk_abc"))

	got, err := repo.GetBySlug(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "pk_abc", got.LegacyAPIKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepoUpdateMetric(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE tenants SET metric_id = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs("m2", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	metricID := "m2"
	err := repo.Update(context.Background(), "t1", tenant.UpdateFields{MetricID: &metricID})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepoUpdateMigration(t *testing.T) {
	repo, mock := newMockRepo(t)

	// A plaintext migration sets the current ref and NULLs the plaintext
	// column in one statement.
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE tenants SET secret_ref = $1, legacy_api_key = NULL, updated_at = NOW() WHERE id = $2")).
		WithArgs("acme-klaviyo-key", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref := "acme-klaviyo-key"
	err := repo.Update(context.Background(), "t1", tenant.UpdateFields{
		SecretRef:         &ref,
		ClearLegacyAPIKey: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepoUpdateLegacyRefPromotion(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE tenants SET secret_ref = $1, legacy_secret_ref = NULL, updated_at = NOW() WHERE id = $2")).
		WithArgs("acme-klaviyo-key", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref := "acme-klaviyo-key"
	err := repo.Update(context.Background(), "t1", tenant.UpdateFields{
		SecretRef:            &ref,
		ClearLegacySecretRef: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepoUpdateNoFieldsIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	err := repo.Update(context.Background(), "t1", tenant.UpdateFields{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantRepoUpdateUnknownTenant(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE tenants SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	metricID := "m2"
	err := repo.Update(context.Background(), "ghost", tenant.UpdateFields{MetricID: &metricID})
	assert.ErrorIs(t, err, tenant.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
