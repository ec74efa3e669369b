package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/airspace-emissions/internal/common"
	"github.com/i474232898/airspace-emissions/internal/emissions"
)

var validate = validator.New()

// CatalogProvider reads the upstream API's metadata endpoints:
// GET /api/serverstart, GET /api/airspaces and GET /api/leaderboard.
type CatalogProvider struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewCatalogProvider(client *http.Client, baseURL string) *CatalogProvider {
	return &CatalogProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("emissions-catalog"),
	}
}

func (p *CatalogProvider) ServerStart(ctx context.Context) (time.Time, error) {
	var payload struct {
		Timestamp *int64 `json:"timestamp"`
	}
	if err := p.getJSON(ctx, "/api/serverstart", &payload); err != nil {
		return time.Time{}, err
	}
	if payload.Timestamp == nil || *payload.Timestamp < 0 {
		return time.Time{}, fmt.Errorf("server start timestamp missing in response")
	}
	return time.Unix(*payload.Timestamp, 0).UTC(), nil
}

// Airspaces returns the watched airspaces keyed by normalised name. The
// upstream sends each box as [latMin, lonMin, latMax, lonMax].
func (p *CatalogProvider) Airspaces(ctx context.Context) (map[emissions.Airspace]emissions.BoundingBox, error) {
	var payload struct {
		Airspaces map[string][]float64 `json:"airspaces"`
	}
	if err := p.getJSON(ctx, "/api/airspaces", &payload); err != nil {
		return nil, err
	}

	out := make(map[emissions.Airspace]emissions.BoundingBox, len(payload.Airspaces))
	for name, coords := range payload.Airspaces {
		if len(coords) != 4 {
			return nil, fmt.Errorf("bounding box of %s has %d coordinates, want 4", name, len(coords))
		}
		box := emissions.BoundingBox{LatMin: coords[0], LonMin: coords[1], LatMax: coords[2], LonMax: coords[3]}
		if err := validate.Struct(box); err != nil {
			return nil, fmt.Errorf("bounding box of %s: %w", name, err)
		}
		out[common.NormalizeAirspace(name)] = box
	}
	return out, nil
}

// OwnerEmissions returns the kilograms of CO2 attributed to each tracked owner.
func (p *CatalogProvider) OwnerEmissions(ctx context.Context) (map[string]float64, error) {
	var payload struct {
		CelebEmission map[string]float64 `json:"celeb_emission"`
	}
	if err := p.getJSON(ctx, "/api/leaderboard", &payload); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(payload.CelebEmission))
	for name, kg := range payload.CelebEmission {
		name = strings.TrimSpace(name)
		if name == "" || kg < 0 || math.IsInf(kg, 0) {
			return nil, fmt.Errorf("invalid leaderboard entry %q: %v", name, kg)
		}
		out[name] = kg
	}
	return out, nil
}

func (p *CatalogProvider) getJSON(ctx context.Context, path string, out any) error {
	if p.baseURL == "" {
		return fmt.Errorf("emissions api url is not configured")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
