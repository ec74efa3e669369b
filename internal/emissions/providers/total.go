package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/airspace-emissions/internal/chart"
	"github.com/i474232898/airspace-emissions/internal/emissions"
)

// TotalProvider samples the running total of an airspace
// (GET /api/{airspace}/total). The upstream value carries no timestamp, so the
// reading is stamped with the end of the requested window; airspaces polled
// in the same tick therefore share a timestamp.
type TotalProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewTotalProvider(client *http.Client, baseURL string) *TotalProvider {
	return &TotalProvider{
		name:    "total",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("emissions-total"),
	}
}

func (p *TotalProvider) Name() string {
	return p.name
}

func (p *TotalProvider) Fetch(ctx context.Context, airspace emissions.Airspace, window emissions.Window) ([]chart.Reading, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("emissions api url is not configured")
	}
	if window.To.IsZero() {
		return nil, fmt.Errorf("total provider needs a window end to stamp the reading")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/api/%s/total", p.baseURL, url.PathEscape(string(airspace)))
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		AirspaceName string   `json:"airspace_name"`
		Total        *float64 `json:"total"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Total == nil {
		return nil, fmt.Errorf("total missing in response for %s", airspace)
	}

	return []chart.Reading{{Timestamp: window.To.Unix(), Value: *payload.Total}}, nil
}
