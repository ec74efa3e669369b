package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/airspace-emissions/internal/chart"
	"github.com/i474232898/airspace-emissions/internal/emissions"
)

// SequenceProvider reads the stored cumulative sequence of an airspace from
// the emissions API (GET /api/{airspace}/data?begin=&end=).
type SequenceProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewSequenceProvider(client *http.Client, baseURL string) *SequenceProvider {
	return &SequenceProvider{
		name:    "sequence",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("emissions-sequence"),
	}
}

func (p *SequenceProvider) Name() string {
	return p.name
}

func (p *SequenceProvider) Fetch(ctx context.Context, airspace emissions.Airspace, window emissions.Window) ([]chart.Reading, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("emissions api url is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		if !window.From.IsZero() {
			values.Set("begin", strconv.FormatInt(window.From.Unix(), 10))
		}
		if !window.To.IsZero() {
			values.Set("end", strconv.FormatInt(window.To.Unix(), 10))
		}

		u := fmt.Sprintf("%s/api/%s/data", p.baseURL, url.PathEscape(string(airspace)))
		if len(values) > 0 {
			u += "?" + values.Encode()
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		AirspaceName string             `json:"airspace_name"`
		Data         map[string]float64 `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return parseReadings(payload.Data)
}
