// Package metric determines the canonical conversion metric for a tenant.
package metric

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/klaviyo"
	"github.com/ignite/attribution-gateway/internal/pkg/logger"
	"github.com/ignite/attribution-gateway/internal/tenant"
)

// DefaultProbeWindowDays is the fixed trailing window probed during
// auto-detection. Detection deliberately ignores the caller's requested
// timeframe: a short or empty request window would make every candidate
// look inactive and skew selection toward the priority default.
const DefaultProbeWindowDays = 30

// Prober issues the minimal activity probes for candidate metrics. The
// attribution computer satisfies this.
type Prober interface {
	Compute(ctx context.Context, tenantID, apiKey, metricID string, tf domain.Timeframe, timezone string) (*domain.AttributionResult, error)
}

// Lister lists the upstream account's metric definitions. The reporting
// client satisfies this.
type Lister interface {
	ListMetrics(ctx context.Context, apiKey string) ([]klaviyo.Metric, error)
}

// Resolver resolves the canonical metric identifier for a tenant:
// locked metric, then recognized record fields, then auto-detection.
type Resolver struct {
	repo   tenant.Repository
	lister Lister
	prober Prober

	// ProbeWindowDays overrides the detection window; zero means default.
	ProbeWindowDays int
}

// NewResolver creates a metric resolver.
func NewResolver(repo tenant.Repository, lister Lister, prober Prober) *Resolver {
	return &Resolver{repo: repo, lister: lister, prober: prober}
}

// Resolve returns the tenant's canonical metric id, running auto-detection
// only when no stored identifier exists. The detected winner is persisted
// so future requests skip detection.
func (r *Resolver) Resolve(ctx context.Context, t *domain.Tenant, apiKey string) (string, error) {
	if t.MetricID != "" {
		return t.MetricID, nil
	}
	if t.LegacyMetricID != "" {
		// Found under the pre-rename field: promote it so the next read
		// hits the current field directly.
		r.persist(ctx, t.ID, t.LegacyMetricID)
		return t.LegacyMetricID, nil
	}
	return r.Detect(ctx, t, apiKey)
}

// Detect runs auto-detection unconditionally and overwrites the stored
// metric with the winner. Used by the Resolve miss path and by the
// administrative re-detection endpoint.
func (r *Resolver) Detect(ctx context.Context, t *domain.Tenant, apiKey string) (string, error) {
	metrics, err := r.lister.ListMetrics(ctx, apiKey)
	if err != nil {
		return "", err
	}

	candidates := RankCandidates(metrics)
	if len(candidates) == 0 {
		return "", domain.Ef(domain.KindUpstreamInvalid,
			"no plausible conversion metric found in upstream account for tenant %s", t.ID)
	}

	active := r.probeActivity(ctx, t, apiKey, candidates)

	winner, ok := PickWinner(candidates, active)
	if !ok {
		// Unreachable with a non-empty candidate list; kept as a guard.
		return "", domain.Ef(domain.KindInternal, "metric selection failed for tenant %s", t.ID)
	}

	logger.Info("detected conversion metric",
		"tenant_id", t.ID, "metric_id", winner.ID, "label", winner.Label,
		"had_activity", fmt.Sprintf("%t", active[winner.ID]))

	r.persist(ctx, t.ID, winner.ID)
	return winner.ID, nil
}

// probeActivity issues one minimal combined-channel query per candidate
// over the fixed reference window and records which candidates show any
// conversions. Probe failures mark the candidate inactive rather than
// aborting detection; selection then degrades to the priority default.
func (r *Resolver) probeActivity(ctx context.Context, t *domain.Tenant, apiKey string, candidates []Candidate) map[string]bool {
	days := r.ProbeWindowDays
	if days <= 0 {
		days = DefaultProbeWindowDays
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	window := domain.Timeframe{Start: &start, End: &end}

	active := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		res, err := r.prober.Compute(ctx, t.ID, apiKey, c.ID, window, "UTC")
		if err != nil {
			logger.Warn("metric probe failed",
				"tenant_id", t.ID, "metric_id", c.ID, "error", err)
			continue
		}
		if res.TotalRevenue != 0 || res.CampaignOrders+res.FlowOrders > 0 {
			active[c.ID] = true
		}
	}
	return active
}

func (r *Resolver) persist(ctx context.Context, tenantID, metricID string) {
	u := tenant.UpdateFields{MetricID: &metricID}
	if err := r.repo.Update(ctx, tenantID, u); err != nil {
		logger.Warn("metric writeback failed", "tenant_id", tenantID, "metric_id", metricID, "error", err)
	}
}
