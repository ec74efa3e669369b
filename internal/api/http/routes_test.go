package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/airspace-emissions/internal/chart"
	"github.com/i474232898/airspace-emissions/internal/emissions"
	"github.com/i474232898/airspace-emissions/internal/store"
	"github.com/i474232898/airspace-emissions/internal/visits"
)

func newTestApp(t *testing.T, seed map[chart.EntityID][]chart.Reading) *fiber.App {
	t.Helper()
	return newCatalogApp(t, seed, nil)
}

func newCatalogApp(t *testing.T, seed map[chart.EntityID][]chart.Reading, catalog emissions.Catalog) *fiber.App {
	t.Helper()

	mem := store.NewMemoryStore(0, 0)
	for a, rs := range seed {
		mem.SaveReadings(a, rs)
	}

	service := emissions.NewService(mem, nil)
	if catalog != nil {
		service.WithCatalog(catalog)
	}

	app := fiber.New()
	RegisterRoutes(app, service, visits.NewTracker(visits.NewMemoryKV()), Options{
		Airspaces: []chart.EntityID{"berlin", "london"},
		Chart:     chart.Options{Location: time.UTC, Fill: chart.FillNone},
		Now:       func() time.Time { return time.Unix(86400+1000, 0) },
	})
	return app
}

func scenarioSeed() map[chart.EntityID][]chart.Reading {
	return map[chart.EntityID][]chart.Reading{
		"berlin": {{Timestamp: 1000, Value: 50}},
		"london": {{Timestamp: 1000, Value: 80}, {Timestamp: 86400 + 1000, Value: 200}},
	}
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

type chartResponse struct {
	Labels   []string `json:"labels"`
	Datasets []struct {
		Entity      string     `json:"entity"`
		Label       string     `json:"label"`
		Data        []*float64 `json:"data"`
		BorderColor string     `json:"borderColor"`
	} `json:"datasets"`
}

func TestChartEndpoint(t *testing.T) {
	app := newTestApp(t, scenarioSeed())

	resp, body := get(t, app, "/api/v1/chart")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got chartResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []string{"01.01.70", "02.01.70"}, got.Labels)
	require.Len(t, got.Datasets, 2)
	assert.Equal(t, "Berlin", got.Datasets[0].Label)
	assert.Equal(t, 50.0, *got.Datasets[0].Data[1])
	assert.Equal(t, 200.0, *got.Datasets[1].Data[1])
}

func TestChartEndpointDeltasAndAbsent(t *testing.T) {
	app := newTestApp(t, scenarioSeed())

	resp, body := get(t, app, "/api/v1/chart?airspaces=Berlin,London,Paris&deltas=true")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got chartResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got.Datasets, 3)
	assert.Equal(t, 120.0, *got.Datasets[1].Data[1])
	assert.Equal(t, "paris", got.Datasets[2].Entity)
	assert.Nil(t, got.Datasets[2].Data[0])
	assert.Nil(t, got.Datasets[2].Data[1])
}

func TestChartEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		seed   map[chart.EntityID][]chart.Reading
		target string
		status int
	}{
		{"no data at all", nil, "/api/v1/chart", http.StatusUnprocessableEntity},
		{"disjoint timestamps", map[chart.EntityID][]chart.Reading{
			"berlin": {{Timestamp: 1, Value: 1}},
			"london": {{Timestamp: 2, Value: 1}},
		}, "/api/v1/chart", http.StatusUnprocessableEntity},
		{"bad fill", scenarioSeed(), "/api/v1/chart?fill=sideways", http.StatusBadRequest},
		{"bad deltas", scenarioSeed(), "/api/v1/chart?deltas=maybe", http.StatusBadRequest},
		{"bad now", scenarioSeed(), "/api/v1/chart?now=yesterday", http.StatusBadRequest},
		{"now on the range's first day", scenarioSeed(), "/api/v1/chart?now=1970-01-01T00:00:00Z&airspaces=london", http.StatusOK},
		{"now before range", map[chart.EntityID][]chart.Reading{
			"london": {{Timestamp: 3 * chart.SecondsInDay, Value: 1}},
		}, "/api/v1/chart?now=0&airspaces=london", http.StatusBadRequest},
		{"empty airspace list", scenarioSeed(), "/api/v1/chart?airspaces=,,", http.StatusBadRequest},
		{"now past year 9999", scenarioSeed(), "/api/v1/chart?now=253402300800", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, newTestApp(t, tc.seed), tc.target)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
		})
	}
}

func TestTotalEndpoint(t *testing.T) {
	app := newTestApp(t, scenarioSeed())

	resp, body := get(t, app, "/api/v1/airspaces/London/total")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"airspace":"london","timestamp":87400,"total":200}`, string(body))

	resp, _ = get(t, app, "/api/v1/airspaces/paris/total")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReadingsEndpoint(t *testing.T) {
	app := newTestApp(t, scenarioSeed())

	resp, body := get(t, app, "/api/v1/airspaces/london/readings?from=0&to=2000")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got struct {
		Readings []chart.Reading `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []chart.Reading{{Timestamp: 1000, Value: 80}}, got.Readings)

	resp, _ = get(t, app, "/api/v1/airspaces/london/readings?from=2000")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, app, "/api/v1/airspaces/london/readings?from=3000&to=2000")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, app, "/api/v1/airspaces/london/readings?from=2000&to=3000")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAirspacesEndpoint(t *testing.T) {
	resp, body := get(t, newTestApp(t, nil), "/api/v1/airspaces")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"airspaces":["berlin","london"]}`, string(body))
}

type stubCatalog struct {
	started time.Time
	boxes   map[emissions.Airspace]emissions.BoundingBox
	owners  map[string]float64
	err     error
}

func (s stubCatalog) ServerStart(context.Context) (time.Time, error) { return s.started, s.err }

func (s stubCatalog) Airspaces(context.Context) (map[emissions.Airspace]emissions.BoundingBox, error) {
	return s.boxes, s.err
}

func (s stubCatalog) OwnerEmissions(context.Context) (map[string]float64, error) {
	return s.owners, s.err
}

func TestAirspacesEndpointWithBounds(t *testing.T) {
	app := newCatalogApp(t, nil, stubCatalog{boxes: map[emissions.Airspace]emissions.BoundingBox{
		"berlin": {LatMin: 52.3, LonMin: 13, LatMax: 52.7, LonMax: 13.8},
	}})

	resp, body := get(t, app, "/api/v1/airspaces")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{
		"airspaces": ["berlin", "london"],
		"bounds": {"berlin": {"latMin": 52.3, "lonMin": 13, "latMax": 52.7, "lonMax": 13.8}}
	}`, string(body))

	resp, body = get(t, newCatalogApp(t, nil, stubCatalog{err: errors.New("down")}), "/api/v1/airspaces")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"airspaces":["berlin","london"]}`, string(body))
}

func TestServerStartEndpoint(t *testing.T) {
	app := newCatalogApp(t, nil, stubCatalog{started: time.Unix(1689529853, 0)})

	resp, body := get(t, app, "/api/v1/serverstart")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"timestamp":1689529853}`, string(body))

	resp, _ = get(t, newTestApp(t, nil), "/api/v1/serverstart")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = get(t, newCatalogApp(t, nil, stubCatalog{err: errors.New("down")}), "/api/v1/serverstart")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLeaderboardEndpoint(t *testing.T) {
	app := newCatalogApp(t, nil, stubCatalog{owners: map[string]float64{
		"Alan Sugar":   100,
		"Taylor Swift": 190,
	}})

	resp, body := get(t, app, "/api/v1/leaderboard?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"leaderboard":[{"placing":1,"name":"Taylor Swift","kgCO2":190}]}`, string(body))

	for _, target := range []string{"/api/v1/leaderboard?limit=x", "/api/v1/leaderboard?limit=-1"} {
		resp, _ = get(t, app, target)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestVisitsEndpoint(t *testing.T) {
	app := newTestApp(t, scenarioSeed())

	type visitResponse struct {
		Visit visits.Visit      `json:"visit"`
		Since []emissions.Since `json:"since"`
	}

	resp, body := get(t, app, "/api/v1/visits")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var first visitResponse
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Nil(t, first.Visit.Previous)
	assert.Empty(t, first.Since)

	resp, body = get(t, app, "/api/v1/visits?client="+first.Visit.ClientID)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var second visitResponse
	require.NoError(t, json.Unmarshal(body, &second))
	require.NotNil(t, second.Visit.Previous)
	assert.Equal(t, first.Visit.ClientID, second.Visit.ClientID)
	require.Len(t, second.Since, 2)
	assert.Equal(t, 0.0, second.Since[0].Amount)
	assert.Equal(t, 0.0, second.Since[1].Amount)
}
