package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/pkg/logger"
	"github.com/ignite/attribution-gateway/internal/tenant"
)

// Resolver resolves a tenant's upstream API credential through an ordered
// fallback chain, migrating older storage generations forward as it goes.
type Resolver struct {
	repo  tenant.Repository
	store Store

	// DevMode enables the environment-variable fallback as the last chain
	// step. Off in production.
	DevMode      bool
	DevEnvPrefix string

	// wg tracks background plaintext migrations so tests (and shutdown)
	// can wait for them.
	wg sync.WaitGroup
}

// NewResolver creates a credential resolver.
func NewResolver(repo tenant.Repository, store Store) *Resolver {
	return &Resolver{repo: repo, store: store, DevEnvPrefix: "KLAVIYO_KEY"}
}

// step is one link in the fallback chain: it either yields a usable
// credential (ok=true), declines (ok=false, err=nil) so the chain moves on,
// or fails the whole resolution (err != nil).
type step struct {
	name string
	fn   func(ctx context.Context, t *domain.Tenant) (cred string, ok bool, err error)
}

// Resolve returns a usable credential for the tenant or a kinded error.
// Successful migrations are idempotent: once a credential is persisted under
// the current-generation reference, later calls short-circuit on the first
// step and write nothing.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (string, error) {
	t, err := r.repo.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return "", domain.E(domain.KindTenantNotFound, fmt.Sprintf("tenant %s not found", tenantID), err)
		}
		return "", domain.E(domain.KindInternal, "tenant lookup failed", err)
	}

	chain := []step{
		{"current_ref", r.fromCurrentRef},
		{"legacy_ref", r.fromLegacyRef},
		{"derived_ref", r.fromDerivedRef},
		{"legacy_plaintext", r.fromLegacyPlaintext},
	}
	if r.DevMode {
		chain = append(chain, step{"dev_env", r.fromEnv})
	}

	for _, s := range chain {
		cred, ok, err := s.fn(ctx, t)
		if err != nil {
			return "", err
		}
		if ok {
			logger.Debug("credential resolved", "tenant_id", t.ID, "source", s.name)
			return cred, nil
		}
	}

	return "", domain.Ef(domain.KindCredentialNotFound,
		"no credential configured for tenant %s", tenantID)
}

// Wait blocks until all background migrations have finished.
func (r *Resolver) Wait() { r.wg.Wait() }

// fromCurrentRef fetches via the current-generation reference field.
func (r *Resolver) fromCurrentRef(ctx context.Context, t *domain.Tenant) (string, bool, error) {
	if t.SecretRef == "" {
		return "", false, nil
	}
	cred, err := r.fetch(ctx, t, t.SecretRef)
	if err != nil {
		return "", false, err
	}
	return cred, cred != "", nil
}

// fromLegacyRef fetches via the legacy-generation reference field and, on
// success, re-persists the reference under the current-generation field.
func (r *Resolver) fromLegacyRef(ctx context.Context, t *domain.Tenant) (string, bool, error) {
	if t.LegacySecretRef == "" {
		return "", false, nil
	}
	cred, err := r.fetch(ctx, t, t.LegacySecretRef)
	if err != nil || cred == "" {
		return "", false, err
	}
	r.persistRef(ctx, t, t.LegacySecretRef, true)
	return cred, true, nil
}

// fromDerivedRef derives a reference from the tenant's display name and
// tries it; a hit is persisted under the current-generation field.
func (r *Resolver) fromDerivedRef(ctx context.Context, t *domain.Tenant) (string, bool, error) {
	ref := DeriveRef(t.Name)
	if ref == "" {
		return "", false, nil
	}
	cred, err := r.fetch(ctx, t, ref)
	if err != nil || cred == "" {
		return "", false, err
	}
	r.persistRef(ctx, t, ref, false)
	return cred, true, nil
}

// fromLegacyPlaintext uses an embedded plaintext key directly and kicks off
// an asynchronous migration into the managed store; the plaintext field is
// deleted only after the store write succeeds.
func (r *Resolver) fromLegacyPlaintext(ctx context.Context, t *domain.Tenant) (string, bool, error) {
	if t.LegacyAPIKey == "" {
		return "", false, nil
	}
	key := t.LegacyAPIKey

	ref := DeriveRef(t.Name)
	if ref == "" {
		ref = DeriveRef(t.ID)
	}
	tenantID := t.ID

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// Detached from the request: the caller shouldn't wait on the
		// migration, and a client disconnect must not abort it.
		mctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.migratePlaintext(mctx, tenantID, ref, key)
	}()

	return key, true, nil
}

func (r *Resolver) migratePlaintext(ctx context.Context, tenantID, ref, key string) {
	labels := map[string]string{"tenant_id": tenantID, "managed_by": "attribution-gateway"}
	if err := r.store.CreateOrUpdate(ctx, ref, key, labels); err != nil {
		logger.Warn("plaintext credential migration failed", "tenant_id", tenantID, "ref", ref, "error", err)
		return
	}
	u := tenant.UpdateFields{SecretRef: &ref, ClearLegacyAPIKey: true}
	if err := r.repo.Update(ctx, tenantID, u); err != nil {
		logger.Warn("plaintext migration writeback failed", "tenant_id", tenantID, "ref", ref, "error", err)
		return
	}
	logger.Info("migrated plaintext credential to secret store", "tenant_id", tenantID, "ref", ref)
}

// fromEnv is the development-mode fallback: a namespaced environment
// variable derived from the tenant identifier.
func (r *Resolver) fromEnv(ctx context.Context, t *domain.Tenant) (string, bool, error) {
	name := EnvVarName(r.DevEnvPrefix, t.ID)
	if name == "" {
		return "", false, nil
	}
	v := os.Getenv(name)
	return v, v != "", nil
}

// fetch wraps Store.Fetch with the chain's error policy: a missing secret
// declines the step and the chain continues, while a denial aborts the whole
// resolution. A reference that exists but cannot be read is an operator
// problem, and falling through would mask it.
func (r *Resolver) fetch(ctx context.Context, t *domain.Tenant, ref string) (string, error) {
	cred, err := r.store.Fetch(ctx, ref)
	if err == nil {
		return cred, nil
	}
	if errors.Is(err, ErrSecretNotFound) {
		return "", nil
	}
	if errors.Is(err, ErrPermissionDenied) {
		return "", domain.E(domain.KindCredentialDenied,
			fmt.Sprintf("access to credential for tenant %s was denied", t.ID), err)
	}
	return "", domain.E(domain.KindInternal, "secret store fetch failed", err)
}

// persistRef writes a resolved reference under the current-generation field.
// Failures are logged, not returned: the caller already holds a usable
// credential and the migration will retry on the next resolution.
func (r *Resolver) persistRef(ctx context.Context, t *domain.Tenant, ref string, clearLegacy bool) {
	u := tenant.UpdateFields{SecretRef: &ref, ClearLegacySecretRef: clearLegacy}
	if err := r.repo.Update(ctx, t.ID, u); err != nil {
		logger.Warn("secret ref writeback failed", "tenant_id", t.ID, "ref", ref, "error", err)
		return
	}
	logger.Info("migrated secret reference", "tenant_id", t.ID, "ref", ref)
}
