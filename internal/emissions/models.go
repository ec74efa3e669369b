package emissions

import (
	"time"

	"github.com/i474232898/airspace-emissions/internal/chart"
)

// Airspace names a watched region, e.g. a city. Names are normalised
// (lower-case, slugged) before they reach the service.
type Airspace = chart.EntityID

// Window is the time span a provider is asked to cover.
type Window struct {
	From time.Time
	To   time.Time
}

// ProviderReadings is the outcome of one provider fetch for one airspace.
type ProviderReadings struct {
	ProviderName string
	Readings     []chart.Reading
}

// Since reports the emission accumulated in an airspace after a moment.
type Since struct {
	Airspace Airspace `json:"airspace"`
	From     int64    `json:"from"`
	Latest   int64    `json:"latest"`
	Amount   float64  `json:"amount"`
}

// BoundingBox is the watched rectangle of an airspace, in degrees.
type BoundingBox struct {
	LatMin float64 `json:"latMin" validate:"gte=-90,lte=90"`
	LonMin float64 `json:"lonMin" validate:"gte=-180,lte=180"`
	LatMax float64 `json:"latMax" validate:"gte=-90,lte=90,gtefield=LatMin"`
	LonMax float64 `json:"lonMax" validate:"gte=-180,lte=180,gtefield=LonMin"`
}

// LeaderboardEntry ranks one tracked aircraft owner by attributed emission.
type LeaderboardEntry struct {
	Placing int     `json:"placing"`
	Name    string  `json:"name"`
	KgCO2   float64 `json:"kgCO2"`
}
