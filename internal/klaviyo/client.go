// Package klaviyo is a typed client for the upstream reporting API.
//
// Only the endpoints the gateway needs are implemented: the two
// channel-scoped conversion-value reports (campaign and flow) and the
// metric listing used by auto-detection. Responses are decoded into typed
// structures and validated at the boundary, so upstream field drift fails
// fast instead of coercing to zero.
package klaviyo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/attribution-gateway/internal/domain"
	"github.com/ignite/attribution-gateway/internal/pkg/httpretry"
)

// Config holds client settings. Per-tenant API keys are passed per call,
// never stored on the client.
type Config struct {
	BaseURL        string
	Revision       string
	TimeoutSeconds int
	MaxRetries     int
}

// Client is the reporting API client.
type Client struct {
	baseURL    string
	revision   string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new reporting API client.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		revision: cfg.Revision,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, cfg.MaxRetries),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// CampaignValuesReport returns conversion totals attributed to
// scheduled/broadcast sends for one metric and timeframe.
func (c *Client) CampaignValuesReport(ctx context.Context, apiKey, metricID string, tf domain.Timeframe) (domain.ChannelTotals, error) {
	return c.valuesReport(ctx, apiKey, "/api/campaign-values-reports", "campaign-values-report", metricID, tf)
}

// FlowValuesReport returns conversion totals attributed to
// automated/triggered sends for one metric and timeframe.
func (c *Client) FlowValuesReport(ctx context.Context, apiKey, metricID string, tf domain.Timeframe) (domain.ChannelTotals, error) {
	return c.valuesReport(ctx, apiKey, "/api/flow-values-reports", "flow-values-report", metricID, tf)
}

func (c *Client) valuesReport(ctx context.Context, apiKey, endpoint, reportType, metricID string, tf domain.Timeframe) (domain.ChannelTotals, error) {
	body := valuesReportRequest{
		Data: valuesReportRequestData{
			Type: reportType,
			Attributes: valuesReportAttributes{
				Statistics:         []string{StatConversions, StatConversionValue},
				Timeframe:          encodeTimeframe(tf),
				ConversionMetricID: metricID,
			},
		},
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, endpoint, apiKey, body)
	if err != nil {
		return domain.ChannelTotals{}, err
	}

	var resp valuesReportResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return domain.ChannelTotals{}, domain.E(domain.KindUpstreamInvalid,
			fmt.Sprintf("%s: malformed response", reportType), err)
	}

	var totals domain.ChannelTotals
	for i, row := range resp.Data.Attributes.Results {
		if row.Statistics.Conversions == nil || row.Statistics.ConversionValue == nil {
			return domain.ChannelTotals{}, domain.Ef(domain.KindUpstreamInvalid,
				"%s: result %d is missing requested statistics (field drift?)", reportType, i)
		}
		totals.Orders += int(*row.Statistics.Conversions)
		totals.Revenue += *row.Statistics.ConversionValue
	}
	return totals, nil
}

// encodeTimeframe translates the effective timeframe: a preset passes
// through as a key, explicit bounds as a start/end pair. The caller has
// already resolved which representation wins.
func encodeTimeframe(tf domain.Timeframe) timeframePayload {
	if tf.IsBounded() {
		return timeframePayload{
			Start: tf.Start.UTC().Format(time.RFC3339),
			End:   tf.End.UTC().Format(time.RFC3339),
		}
	}
	return timeframePayload{Key: tf.Key}
}

// ListMetrics returns all metric definitions in the upstream account,
// following pagination cursors.
func (c *Client) ListMetrics(ctx context.Context, apiKey string) ([]Metric, error) {
	endpoint := "/api/metrics"
	var out []Metric

	for endpoint != "" {
		respBody, err := c.doRequest(ctx, http.MethodGet, endpoint, apiKey, nil)
		if err != nil {
			return nil, err
		}

		var page metricsResponse
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, domain.E(domain.KindUpstreamInvalid, "metrics: malformed response", err)
		}
		for _, m := range page.Data {
			out = append(out, Metric{
				ID:          m.ID,
				Name:        m.Attributes.Name,
				Integration: m.Attributes.Integration.Name,
			})
		}

		endpoint = relativeEndpoint(page.Links.Next, c.baseURL)
	}
	return out, nil
}

// relativeEndpoint strips the base URL from an absolute pagination link.
func relativeEndpoint(link, baseURL string) string {
	if link == "" {
		return ""
	}
	if len(link) > len(baseURL) && link[:len(baseURL)] == baseURL {
		return link[len(baseURL):]
	}
	return link
}

// doRequest performs an authenticated request and classifies failures into
// the gateway's error taxonomy. The API key never appears in errors.
func (c *Client) doRequest(ctx context.Context, method, endpoint, apiKey string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Klaviyo-API-Key "+apiKey)
	req.Header.Set("revision", c.revision)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, domain.E(domain.KindUpstreamTimeout, "reporting API call timed out", err)
		}
		return nil, domain.E(domain.KindInternal, "reporting API request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.E(domain.KindInternal, "failed to read reporting API response", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	detail := errorDetail(respBody)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.Ef(domain.KindUpstreamAuth,
			"reporting API rejected the credential (status %d): %s", resp.StatusCode, detail)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.Ef(domain.KindUpstreamRateLimited,
			"reporting API rate limit exceeded after retries")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, domain.Ef(domain.KindUpstreamInvalid,
			"reporting API rejected the request (status %d): %s", resp.StatusCode, detail)
	default:
		return nil, domain.Ef(domain.KindInternal,
			"reporting API error (status %d): %s", resp.StatusCode, detail)
	}
}

func errorDetail(body []byte) string {
	var e apiError
	if json.Unmarshal(body, &e) == nil && len(e.Errors) > 0 {
		if e.Errors[0].Detail != "" {
			return e.Errors[0].Detail
		}
		return e.Errors[0].Title
	}
	return "no detail"
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
