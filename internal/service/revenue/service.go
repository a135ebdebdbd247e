package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ignite/attribution-gateway/internal/cache"
	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/pkg/logger"
	"github.com/ignite/attribution-gateway/internal/tenant"
)

// CredentialResolver resolves a tenant's upstream API credential.
type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (string, error)
}

// MetricResolver resolves or detects a tenant's canonical metric.
type MetricResolver interface {
	Resolve(ctx context.Context, t *domain.Tenant, apiKey string) (string, error)
	Detect(ctx context.Context, t *domain.Tenant, apiKey string) (string, error)
}

// Computer performs the two-channel attribution computation.
type Computer interface {
	Compute(ctx context.Context, tenantID, apiKey, metricID string, tf domain.Timeframe, timezone string) (*domain.AttributionResult, error)
}

// Query is one attribution request after HTTP parsing.
type Query struct {
	TenantID  string
	Timeframe domain.Timeframe
	Timezone  string
	// Recompute bypasses the cache read and unconditionally overwrites
	// the entry with a fresh computation.
	Recompute bool
}

// Service implements the gateway's business logic.
type Service struct {
	repo     tenant.Repository
	creds    CredentialResolver
	metrics  MetricResolver
	computer Computer
	cache    cache.Store
	ttl      time.Duration

	flight singleflight.Group
}

// NewService wires the revenue service.
func NewService(repo tenant.Repository, creds CredentialResolver, metrics MetricResolver, computer Computer, store cache.Store, ttl time.Duration) *Service {
	return &Service{
		repo:     repo,
		creds:    creds,
		metrics:  metrics,
		computer: computer,
		cache:    store,
		ttl:      ttl,
	}
}

// LookupSlug resolves a tenant slug to its id.
func (s *Service) LookupSlug(ctx context.Context, slug string) (string, error) {
	t, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return "", domain.Ef(domain.KindTenantNotFound, "no tenant with slug %s", slug)
		}
		return "", domain.E(domain.KindInternal, "tenant lookup failed", err)
	}
	return t.ID, nil
}

// Revenue computes (or serves from cache) the attributed revenue for a
// query.
func (s *Service) Revenue(ctx context.Context, q Query) (*domain.AttributionResult, error) {
	tf, err := q.Timeframe.Resolve()
	if err != nil {
		return nil, domain.E(domain.KindBadRequest, err.Error(), nil)
	}
	tz := q.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, domain.Ef(domain.KindBadRequest, "unknown timezone %q", tz)
	}

	t, err := s.getTenant(ctx, q.TenantID)
	if err != nil {
		return nil, err
	}

	// Fast path: tenants with a stored metric can answer from cache
	// without touching the secret store or the upstream API at all.
	if !q.Recompute && t.HasMetric() {
		key := cache.NewKey(t.ID, t.MetricID, tz, tf)
		if res, ok := s.cacheGet(ctx, key); ok {
			return res, nil
		}
	}

	apiKey, err := s.creds.Resolve(ctx, q.TenantID)
	if err != nil {
		return nil, err
	}

	metricID, err := s.metrics.Resolve(ctx, t, apiKey)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(t.ID, metricID, tz, tf)
	if !q.Recompute {
		if res, ok := s.cacheGet(ctx, key); ok {
			return res, nil
		}
	}

	return s.fetch(ctx, key, t.ID, apiKey, metricID, tf, tz)
}

// fetch runs the attribution computation through a single-flight group so
// concurrent misses on the same key share one upstream invocation.
func (s *Service) fetch(ctx context.Context, key cache.Key, tenantID, apiKey, metricID string, tf domain.Timeframe, tz string) (*domain.AttributionResult, error) {
	v, err, shared := s.flight.Do(key.String(), func() (interface{}, error) {
		// Detach from the caller: a client disconnect must not abort an
		// in-flight computation that can still populate the cache for
		// the next request.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
		defer cancel()

		res, err := s.computer.Compute(fctx, tenantID, apiKey, metricID, tf, tz)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(fctx, key, res, s.ttl); err != nil {
			logger.Warn("cache put failed", "key", key.String(), "error", err)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("coalesced concurrent attribution fetch", "key", key.String())
	}
	return v.(*domain.AttributionResult), nil
}

// cacheGet treats every cache failure as a miss; the read path never
// surfaces cache trouble to the caller.
func (s *Service) cacheGet(ctx context.Context, key cache.Key) (*domain.AttributionResult, bool) {
	res, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache get failed, degrading to recompute", "key", key.String(), "error", err)
		return nil, false
	}
	return res, ok
}

// DetectMetric re-runs metric auto-detection for a tenant, overwrites the
// stored identifier, and drops the tenant's cache entries.
func (s *Service) DetectMetric(ctx context.Context, tenantID string) (string, error) {
	t, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	apiKey, err := s.creds.Resolve(ctx, tenantID)
	if err != nil {
		return "", err
	}
	metricID, err := s.metrics.Detect(ctx, t, apiKey)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, cache.PatternTenant(tenantID))
	return metricID, nil
}

// LockMetric pins a tenant to an explicit metric and drops the tenant's
// cache entries, since any of them may carry numbers for the old metric.
func (s *Service) LockMetric(ctx context.Context, tenantID, metricID string) error {
	if metricID == "" {
		return domain.Ef(domain.KindBadRequest, "metric_id is required")
	}
	if _, err := s.getTenant(ctx, tenantID); err != nil {
		return err
	}
	u := tenant.UpdateFields{MetricID: &metricID}
	if err := s.repo.Update(ctx, tenantID, u); err != nil {
		return domain.E(domain.KindInternal, "failed to lock metric", err)
	}
	s.invalidate(ctx, cache.PatternTenant(tenantID))
	return nil
}

// ClearCache removes cache entries. With a tenant id the clear is scoped to
// that tenant, optionally narrowed to one timeframe key; without, it clears
// everything.
func (s *Service) ClearCache(ctx context.Context, tenantID, timeframeKey string) (int, error) {
	pattern := cache.PatternAll()
	switch {
	case tenantID != "" && timeframeKey != "":
		pattern = cache.PatternTenantTimeframe(tenantID, domain.Timeframe{Key: timeframeKey})
	case tenantID != "":
		pattern = cache.PatternTenant(tenantID)
	}
	n, err := s.cache.Invalidate(ctx, pattern)
	if err != nil {
		return n, domain.E(domain.KindInternal, "cache clear failed", err)
	}
	logger.Info("cache cleared", "pattern", pattern, "removed", fmt.Sprintf("%d", n))
	return n, nil
}

// invalidate drops matching cache entries; failures are logged, the
// administrative operation itself still succeeds against storage.
func (s *Service) invalidate(ctx context.Context, pattern string) {
	if n, err := s.cache.Invalidate(ctx, pattern); err != nil {
		logger.Warn("cache invalidation failed", "pattern", pattern, "error", err)
	} else if n > 0 {
		logger.Debug("cache invalidated", "pattern", pattern, "removed", fmt.Sprintf("%d", n))
	}
}

func (s *Service) getTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return nil, domain.Ef(domain.KindTenantNotFound, "tenant %s not found", id)
		}
		return nil, domain.E(domain.KindInternal, "tenant lookup failed", err)
	}
	return t, nil
}
