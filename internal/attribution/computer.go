// Package attribution computes email/SMS-attributed revenue totals.
package attribution

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/attribution-gateway/internal/domain"
)

// Reporter is the slice of the upstream client the computer needs.
type Reporter interface {
	CampaignValuesReport(ctx context.Context, apiKey, metricID string, tf domain.Timeframe) (domain.ChannelTotals, error)
	FlowValuesReport(ctx context.Context, apiKey, metricID string, tf domain.Timeframe) (domain.ChannelTotals, error)
}

// Computer sums the two channel-scoped conversion reports into an
// attribution result.
//
// Attribution is always the sum of the campaign (scheduled/broadcast) and
// flow (automated/triggered) conversion-value reports, each filtered to the
// resolved metric and timeframe. The generic metric-aggregates endpoint is
// deliberately not used: it sums all event volume regardless of marketing
// attribution and systematically disagrees with the channel reports.
type Computer struct {
	reporter Reporter
}

// NewComputer creates an attribution computer over the given reporter.
func NewComputer(reporter Reporter) *Computer {
	return &Computer{reporter: reporter}
}

// Compute queries both channels concurrently and returns the combined
// result. The timeframe must already be resolved to a single effective
// representation. A zero total is only ever produced by two successful
// upstream responses; any failure propagates as a kinded error.
func (c *Computer) Compute(ctx context.Context, tenantID, apiKey, metricID string, tf domain.Timeframe, timezone string) (*domain.AttributionResult, error) {
	var campaign, flow domain.ChannelTotals

	// The two queries are read-only and address disjoint upstream
	// resources, so they can run in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaign, err = c.reporter.CampaignValuesReport(gctx, apiKey, metricID, tf)
		return err
	})
	g.Go(func() error {
		var err error
		flow, err = c.reporter.FlowValuesReport(gctx, apiKey, metricID, tf)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.AttributionResult{
		TenantID:        tenantID,
		MetricID:        metricID,
		CampaignRevenue: campaign.Revenue,
		FlowRevenue:     flow.Revenue,
		TotalRevenue:    campaign.Revenue + flow.Revenue,
		CampaignOrders:  campaign.Orders,
		FlowOrders:      flow.Orders,
		Timeframe:       tf,
		Timezone:        timezone,
		ComputedAt:      time.Now().UTC(),
	}, nil
}
