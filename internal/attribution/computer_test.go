package attribution

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/attribution-gateway/internal/domain"
)

type fakeReporter struct {
	mu            sync.Mutex
	campaign      domain.ChannelTotals
	flow          domain.ChannelTotals
	campaignErr   error
	flowErr       error
	campaignCalls int
	flowCalls     int
}

func (f *fakeReporter) CampaignValuesReport(ctx context.Context, apiKey, metricID string, tf domain.Timeframe) (domain.ChannelTotals, error) {
	f.mu.Lock()
	f.campaignCalls++
	f.mu.Unlock()
	return f.campaign, f.campaignErr
}

func (f *fakeReporter) FlowValuesReport(ctx context.Context, apiKey, metricID string, tf domain.Timeframe) (domain.ChannelTotals, error) {
	f.mu.Lock()
	f.flowCalls++
	f.mu.Unlock()
	return f.flow, f.flowErr
}

func TestComputeSumsBothChannels(t *testing.T) {
	rep := &fakeReporter{
		campaign: domain.ChannelTotals{Revenue: 1200.50, Orders: 14},
		flow:     domain.ChannelTotals{Revenue: 799.50, Orders: 9},
	}
	c := NewComputer(rep)

	res, err := c.Compute(context.Background(), "t1", "pk_x", "m1",
		domain.Timeframe{Key: domain.TimeframeLast7Days}, "UTC")
	require.NoError(t, err)

	assert.Equal(t, "t1", res.TenantID)
	assert.Equal(t, "m1", res.MetricID)
	assert.InDelta(t, 1200.50, res.CampaignRevenue, 0.001)
	assert.InDelta(t, 799.50, res.FlowRevenue, 0.001)
	assert.InDelta(t, 2000.00, res.TotalRevenue, 0.001)
	assert.Equal(t, 14, res.CampaignOrders)
	assert.Equal(t, 9, res.FlowOrders)
	assert.Equal(t, "UTC", res.Timezone)
	assert.False(t, res.ComputedAt.IsZero())

	assert.Equal(t, 1, rep.campaignCalls)
	assert.Equal(t, 1, rep.flowCalls)
}

func TestComputeZeroTotalsAreValid(t *testing.T) {
	c := NewComputer(&fakeReporter{})
	res, err := c.Compute(context.Background(), "t1", "pk_x", "m1",
		domain.Timeframe{Key: domain.TimeframeLast7Days}, "UTC")
	require.NoError(t, err)
	assert.Zero(t, res.TotalRevenue)
}

func TestComputePropagatesChannelError(t *testing.T) {
	rep := &fakeReporter{
		campaign: domain.ChannelTotals{Revenue: 100},
		flowErr:  domain.Ef(domain.KindUpstreamAuth, "reporting API rejected the credential"),
	}
	c := NewComputer(rep)

	_, err := c.Compute(context.Background(), "t1", "pk_x", "m1",
		domain.Timeframe{Key: domain.TimeframeLast7Days}, "UTC")
	require.Error(t, err)
	// No partial result: a failed channel fails the whole computation
	assert.Equal(t, domain.KindUpstreamAuth, domain.KindOf(err))
}
