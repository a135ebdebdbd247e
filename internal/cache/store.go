// Package cache memoizes attribution results with a uniform bounded TTL.
//
// The store is an injected dependency of the revenue service, never a
// process global: tests get per-test isolation and the backend (Redis or
// in-memory) can change without touching call sites. Cache failures are the
// caller's business to degrade on: implementations return them, the
// service treats them as misses.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/attribution-gateway/internal/domain"
)

// Key identifies one cached attribution result. Every dimension that can
// change the numeric answer is part of the key; omitting any one of them
// would cross-contaminate queries that share the rest.
type Key struct {
	TenantID     string
	MetricID     string
	Timezone     string
	TimeframeSig string
}

// NewKey builds a cache key from a resolved query.
func NewKey(tenantID, metricID, timezone string, tf domain.Timeframe) Key {
	return Key{
		TenantID:     tenantID,
		MetricID:     metricID,
		Timezone:     timezone,
		TimeframeSig: tf.Signature(),
	}
}

const keyPrefix = "attr"

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", keyPrefix, k.TenantID, k.MetricID, k.Timezone, k.TimeframeSig)
}

// PatternAll matches every attribution cache entry.
func PatternAll() string { return keyPrefix + ":*" }

// PatternTenant matches every entry for one tenant.
func PatternTenant(tenantID string) string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, tenantID)
}

// PatternTenantTimeframe matches one tenant's entries for one effective
// timeframe across all metrics and timezones.
func PatternTenantTimeframe(tenantID string, tf domain.Timeframe) string {
	return fmt.Sprintf("%s:%s:*:*:%s", keyPrefix, tenantID, tf.Signature())
}

// Store is the attribution cache contract. Implementations must be safe
// for concurrent use. Entries are replaced wholesale, never updated in
// place.
type Store interface {
	// Get returns the cached result for a key, if present and unexpired.
	Get(ctx context.Context, key Key) (*domain.AttributionResult, bool, error)

	// Put stores a result under the key with the given TTL, overwriting
	// any existing entry.
	Put(ctx context.Context, key Key, res *domain.AttributionResult, ttl time.Duration) error

	// Invalidate removes all entries matching the glob pattern and
	// returns how many were removed.
	Invalidate(ctx context.Context, pattern string) (int, error)
}
