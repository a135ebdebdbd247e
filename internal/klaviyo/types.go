package klaviyo

// Statistics requested from the channel-scoped conversion reports. These two
// are the attribution-equivalent shapes; nothing else is summable into
// attributed revenue.
const (
	StatConversions     = "conversions"
	StatConversionValue = "conversion_value"
)

// valuesReportRequest is the JSON:API envelope for the campaign-values and
// flow-values report endpoints.
type valuesReportRequest struct {
	Data valuesReportRequestData `json:"data"`
}

type valuesReportRequestData struct {
	Type       string                  `json:"type"`
	Attributes valuesReportAttributes `json:"attributes"`
}

type valuesReportAttributes struct {
	Statistics         []string         `json:"statistics"`
	Timeframe          timeframePayload `json:"timeframe"`
	ConversionMetricID string           `json:"conversion_metric_id"`
}

// timeframePayload carries exactly one representation: a preset key or an
// explicit start/end pair.
type timeframePayload struct {
	Key   string `json:"key,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// valuesReportResponse is the decoded report. Statistics are pointers so a
// missing or renamed field upstream is detectable instead of silently
// reading as zero.
type valuesReportResponse struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			Results []valuesResult `json:"results"`
		} `json:"attributes"`
	} `json:"data"`
}

type valuesResult struct {
	Groupings  map[string]string `json:"groupings"`
	Statistics struct {
		Conversions     *float64 `json:"conversions"`
		ConversionValue *float64 `json:"conversion_value"`
	} `json:"statistics"`
}

// Metric is one metric definition from the upstream account.
type Metric struct {
	ID   string
	Name string
	// Integration is the source integration's name, e.g. "Shopify" or
	// "Klaviyo"; useful when several integrations report similarly named
	// events.
	Integration string
}

// metricsResponse decodes GET /api/metrics pages.
type metricsResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name        string `json:"name"`
			Integration struct {
				Name string `json:"name"`
			} `json:"integration"`
		} `json:"attributes"`
	} `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// apiError decodes the upstream error envelope for log-friendly messages.
type apiError struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
