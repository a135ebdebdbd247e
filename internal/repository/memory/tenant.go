// Package memory provides in-memory repository implementations for tests
// and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/tenant"
)

// TenantRepo implements tenant.Repository with an in-memory map.
// Safe for concurrent use.
type TenantRepo struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Tenant
	updates int
}

// NewTenantRepo creates an empty in-memory tenant repository.
func NewTenantRepo() *TenantRepo {
	return &TenantRepo{byID: make(map[string]*domain.Tenant)}
}

// Seed inserts or replaces a tenant record. Test setup helper.
func (r *TenantRepo) Seed(t *domain.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	r.byID[cp.ID] = &cp
}

// UpdateCount returns how many Update calls have been applied. Used by
// tests asserting migration idempotency.
func (r *TenantRepo) UpdateCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updates
}

func (r *TenantRepo) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.byID {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (r *TenantRepo) Update(ctx context.Context, id string, u tenant.UpdateFields) error {
	if u.IsZero() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return tenant.ErrNotFound
	}
	if u.MetricID != nil {
		t.MetricID = *u.MetricID
	}
	if u.SecretRef != nil {
		t.SecretRef = *u.SecretRef
	}
	if u.LegacySecretRef != nil {
		t.LegacySecretRef = *u.LegacySecretRef
	}
	if u.ClearLegacySecretRef {
		t.LegacySecretRef = ""
	}
	if u.ClearLegacyAPIKey {
		t.LegacyAPIKey = ""
	}
	t.UpdatedAt = time.Now().UTC()
	r.updates++
	return nil
}
