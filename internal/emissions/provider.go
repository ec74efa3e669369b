package emissions

import (
	"context"
	"time"

	"github.com/i474232898/airspace-emissions/internal/chart"
)

// Provider abstracts a source of cumulative emission readings.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, airspace Airspace, window Window) ([]chart.Reading, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveReadings(airspace Airspace, readings []chart.Reading)
	Series(airspace Airspace) (chart.Series, error)
	Latest(airspace Airspace) (chart.Reading, error)
	Range(airspace Airspace, from, to int64) ([]chart.Reading, error)
}

// Catalog serves the upstream API's metadata: when collection started, the
// watched airspaces and the per-owner emission leaderboard.
type Catalog interface {
	ServerStart(ctx context.Context) (time.Time, error)
	Airspaces(ctx context.Context) (map[Airspace]BoundingBox, error)
	OwnerEmissions(ctx context.Context) (map[string]float64, error)
}
