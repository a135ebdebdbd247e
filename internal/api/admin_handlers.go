package api

import (
	"net/http"

	"github.com/ignite/attribution-gateway/internal/pkg/httputil"
)

// ClearCache removes attribution cache entries. Scope narrows with the
// query params: tenant_id alone clears one tenant, tenant_id plus
// timeframe_key clears one timeframe for that tenant, neither clears all.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	timeframeKey := r.URL.Query().Get("timeframe_key")
	if tenantID == "" && timeframeKey != "" {
		httputil.BadRequest(w, "timeframe_key requires tenant_id")
		return
	}

	removed, err := h.svc.ClearCache(r.Context(), tenantID, timeframeKey)
	if err != nil {
		httputil.KindedError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"removed": removed})
}

// DetectMetric re-runs metric auto-detection for a tenant and overwrites
// the stored identifier with the winner.
func (h *Handlers) DetectMetric(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		httputil.BadRequest(w, "tenant_id is required")
		return
	}

	metricID, err := h.svc.DetectMetric(r.Context(), tenantID)
	if err != nil {
		httputil.KindedError(w, err)
		return
	}
	httputil.OK(w, map[string]string{
		"tenant_id":          tenantID,
		"detected_metric_id": metricID,
	})
}

type lockMetricRequest struct {
	TenantID string `json:"tenant_id"`
	MetricID string `json:"metric_id"`
}

// LockMetric pins a tenant to an explicit metric and invalidates the
// tenant's cache entries.
func (h *Handlers) LockMetric(w http.ResponseWriter, r *http.Request) {
	var req lockMetricRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.TenantID == "" {
		httputil.BadRequest(w, "tenant_id is required")
		return
	}

	if err := h.svc.LockMetric(r.Context(), req.TenantID, req.MetricID); err != nil {
		httputil.KindedError(w, err)
		return
	}
	httputil.OK(w, map[string]string{
		"tenant_id": req.TenantID,
		"metric_id": req.MetricID,
		"status":    "locked",
	})
}
