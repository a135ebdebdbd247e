package klaviyo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/attribution-gateway/internal/domain"
)

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, Revision: "2024-10-15", TimeoutSeconds: 5, MaxRetries: 1})
}

func reportBody(rows ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"type": "campaign-values-report",
			"attributes": map[string]interface{}{
				"results": rows,
			},
		},
	}
}

func row(conversions, value float64) map[string]interface{} {
	return map[string]interface{}{
		"groupings":  map[string]string{"campaign_id": "c1"},
		"statistics": map[string]float64{"conversions": conversions, "conversion_value": value},
	}
}

func TestCampaignValuesReportSumsResults(t *testing.T) {
	var gotReq valuesReportRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/campaign-values-reports", r.URL.Path)
		require.Equal(t, "Klaviyo-API-Key pk_test", r.Header.Get("Authorization"))
		require.Equal(t, "2024-10-15", r.Header.Get("revision"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(reportBody(row(3, 120.50), row(2, 79.50)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	totals, err := c.CampaignValuesReport(context.Background(), "pk_test", "m1",
		domain.Timeframe{Key: domain.TimeframeLast7Days})
	require.NoError(t, err)
	assert.Equal(t, 5, totals.Orders)
	assert.InDelta(t, 200.0, totals.Revenue, 0.001)

	// Both attribution statistics are requested explicitly
	assert.Equal(t, []string{StatConversions, StatConversionValue}, gotReq.Data.Attributes.Statistics)
	assert.Equal(t, "m1", gotReq.Data.Attributes.ConversionMetricID)
	assert.Equal(t, "last_7_days", gotReq.Data.Attributes.Timeframe.Key)
	assert.Empty(t, gotReq.Data.Attributes.Timeframe.Start)
}

func TestValuesReportEncodesBounds(t *testing.T) {
	var gotReq valuesReportRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(reportBody())
	}))
	defer srv.Close()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

	c := newTestClient(srv.URL)
	_, err := c.FlowValuesReport(context.Background(), "pk_test", "m1",
		domain.Timeframe{Start: &start, End: &end})
	require.NoError(t, err)

	assert.Empty(t, gotReq.Data.Attributes.Timeframe.Key)
	assert.Equal(t, "2026-08-01T00:00:00Z", gotReq.Data.Attributes.Timeframe.Start)
	assert.Equal(t, "2026-08-08T00:00:00Z", gotReq.Data.Attributes.Timeframe.End)
}

func TestValuesReportMissingStatisticFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upstream renamed conversion_value: must not silently read as 0
		json.NewEncoder(w).Encode(reportBody(map[string]interface{}{
			"groupings":  map[string]string{"campaign_id": "c1"},
			"statistics": map[string]float64{"conversions": 3, "conversion_total": 99.0},
		}))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CampaignValuesReport(context.Background(), "pk_test", "m1",
		domain.Timeframe{Key: domain.TimeframeLast7Days})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamInvalid, domain.KindOf(err))
}

func TestValuesReportAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"title":"Invalid API key"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CampaignValuesReport(context.Background(), "pk_bad", "m1",
		domain.Timeframe{Key: domain.TimeframeLast7Days})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamAuth, domain.KindOf(err))
	// The credential must never be echoed in the error
	assert.NotContains(t, err.Error(), "pk_bad")
}

func TestValuesReportRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors":[{"title":"Rate limited"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CampaignValuesReport(context.Background(), "pk_test", "m1",
		domain.Timeframe{Key: domain.TimeframeLast7Days})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamRateLimited, domain.KindOf(err))
}

func TestValuesReportMalformedTimeframe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"detail":"Invalid timeframe key"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CampaignValuesReport(context.Background(), "pk_test", "m1",
		domain.Timeframe{Key: "bogus"})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamInvalid, domain.KindOf(err))
	assert.Contains(t, err.Error(), "Invalid timeframe key")
}

func TestListMetricsFollowsPagination(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page[cursor]") == "p2" {
			w.Write([]byte(`{"data":[{"id":"m2","attributes":{"name":"Placed Order (SMS)","integration":{"name":"Klaviyo"}}}],"links":{"next":""}}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":"m1","attributes":{"name":"Placed Order","integration":{"name":"Shopify"}}}],"links":{"next":"` + srvURL + `/api/metrics?page[cursor]=p2"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	c := newTestClient(srv.URL)
	metrics, err := c.ListMetrics(context.Background(), "pk_test")
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, Metric{ID: "m1", Name: "Placed Order", Integration: "Shopify"}, metrics[0])
	assert.Equal(t, Metric{ID: "m2", Name: "Placed Order (SMS)", Integration: "Klaviyo"}, metrics[1])
}
