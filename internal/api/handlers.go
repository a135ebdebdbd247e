package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/pkg/httputil"
	"github.com/ignite/attribution-gateway/internal/service/revenue"
)

// Handlers holds the HTTP handlers for the gateway.
type Handlers struct {
	svc     *revenue.Service
	presets map[string]struct{}
}

// NewHandlers creates the handler set. timeframePresets is the set of named
// timeframe keys accepted on requests.
func NewHandlers(svc *revenue.Service, timeframePresets []string) *Handlers {
	presets := make(map[string]struct{}, len(timeframePresets))
	for _, k := range timeframePresets {
		presets[k] = struct{}{}
	}
	return &Handlers{svc: svc, presets: presets}
}

// Healthz reports process liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// revenueResponse is the attribution read payload.
type revenueResponse struct {
	TenantID        string           `json:"tenant_id"`
	MetricID        string           `json:"metric_id"`
	CampaignRevenue float64          `json:"campaign_revenue"`
	FlowRevenue     float64          `json:"flow_revenue"`
	Total           float64          `json:"total"`
	CampaignOrders  int              `json:"campaign_orders"`
	FlowOrders      int              `json:"flow_orders"`
	Timeframe       domain.Timeframe `json:"timeframe"`
	Timezone        string           `json:"timezone"`
	ComputedAt      time.Time        `json:"computed_at"`
}

// GetRevenue serves attribution for a tenant by id.
func (h *Handlers) GetRevenue(w http.ResponseWriter, r *http.Request) {
	h.serveRevenue(w, r, chi.URLParam(r, "tenantID"))
}

// GetRevenueBySlug serves attribution for a tenant by slug.
func (h *Handlers) GetRevenueBySlug(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.LookupSlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.KindedError(w, err)
		return
	}
	h.serveRevenue(w, r, id)
}

func (h *Handlers) serveRevenue(w http.ResponseWriter, r *http.Request, tenantID string) {
	q, ok := h.parseQuery(w, r, tenantID)
	if !ok {
		return
	}

	res, err := h.svc.Revenue(r.Context(), q)
	if err != nil {
		httputil.KindedError(w, err)
		return
	}

	httputil.OK(w, revenueResponse{
		TenantID:        res.TenantID,
		MetricID:        res.MetricID,
		CampaignRevenue: res.CampaignRevenue,
		FlowRevenue:     res.FlowRevenue,
		Total:           res.TotalRevenue,
		CampaignOrders:  res.CampaignOrders,
		FlowOrders:      res.FlowOrders,
		Timeframe:       res.Timeframe,
		Timezone:        res.Timezone,
		ComputedAt:      res.ComputedAt,
	})
}

// parseQuery builds a revenue.Query from request parameters. Explicit
// start/end bounds and a timeframe_key may both be present; precedence is
// resolved downstream (bounds win).
func (h *Handlers) parseQuery(w http.ResponseWriter, r *http.Request, tenantID string) (revenue.Query, bool) {
	q := revenue.Query{
		TenantID: tenantID,
		Timezone: r.URL.Query().Get("timezone"),
	}

	if key := r.URL.Query().Get("timeframe_key"); key != "" {
		if _, ok := h.presets[key]; !ok {
			httputil.BadRequest(w, "unknown timeframe_key "+key)
			return revenue.Query{}, false
		}
		q.Timeframe.Key = key
	}

	if s := r.URL.Query().Get("start"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			httputil.BadRequest(w, "start must be RFC3339: "+err.Error())
			return revenue.Query{}, false
		}
		q.Timeframe.Start = &ts
	}
	if e := r.URL.Query().Get("end"); e != "" {
		te, err := time.Parse(time.RFC3339, e)
		if err != nil {
			httputil.BadRequest(w, "end must be RFC3339: "+err.Error())
			return revenue.Query{}, false
		}
		q.Timeframe.End = &te
	}

	q.Recompute = r.URL.Query().Get("recompute") == "true"
	return q, true
}
