package domain

import "time"

// AttributionResult is the computed revenue attribution for one tenant over
// one effective timeframe. Immutable once produced; cache entries wrap it
// with an expiry and replace it wholesale, never update it in place.
type AttributionResult struct {
	TenantID string `json:"tenant_id"`
	MetricID string `json:"metric_id"`

	// CampaignRevenue is conversion value attributed to scheduled/broadcast
	// sends; FlowRevenue to automated/triggered sends. TotalRevenue is
	// always their sum.
	CampaignRevenue float64 `json:"campaign_revenue"`
	FlowRevenue     float64 `json:"flow_revenue"`
	TotalRevenue    float64 `json:"total_revenue"`

	CampaignOrders int `json:"campaign_orders"`
	FlowOrders     int `json:"flow_orders"`

	Timeframe  Timeframe `json:"timeframe"`
	Timezone   string    `json:"timezone"`
	ComputedAt time.Time `json:"computed_at"`
}

// ChannelTotals is one channel's slice of an attribution computation.
type ChannelTotals struct {
	Revenue float64
	Orders  int
}
