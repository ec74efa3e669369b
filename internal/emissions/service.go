package emissions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/airspace-emissions/internal/chart"
	"github.com/i474232898/airspace-emissions/internal/store"
)

// ErrNoCatalog is returned by the metadata operations when the service has
// no Catalog.
var ErrNoCatalog = errors.New("emissions catalog not configured")

// Service orchestrates fetching from providers, persisting readings and
// building charts from what has been stored.
type Service struct {
	store     Store
	providers []Provider
	catalog   Catalog
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider) *Service {
	return &Service{
		store:     store,
		providers: providers,
	}
}

// WithCatalog sets the source of upstream metadata and returns s.
func (s *Service) WithCatalog(c Catalog) *Service {
	s.catalog = c
	return s
}

// FetchAndStore fetches readings from all providers concurrently for the given
// airspace, merges successful results and stores them.
func (s *Service) FetchAndStore(ctx context.Context, airspace Airspace, window Window) error {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []ProviderReadings
	)

	logger := log.WithFields(log.Fields{"airspace": airspace, "providers": len(s.providers)})
	if len(s.providers) == 0 {
		logger.Error("no providers available to fetch emission data")
		return fmt.Errorf("no emission providers configured")
	}

	for _, p := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			readings, err := p.Fetch(ctx, airspace, window)
			if err != nil {
				// Partial success is fine; other providers may still answer.
				logger.WithError(err).WithField("provider", p.Name()).Warn("provider fetch failed")
				return
			}

			mu.Lock()
			results = append(results, ProviderReadings{ProviderName: p.Name(), Readings: readings})
			mu.Unlock()
		}(p)
	}

	wg.Wait()

	if len(results) == 0 {
		// Keep whatever history is already stored.
		logger.Warn("no successful provider readings; keeping stored history")
		return nil
	}

	merged := MergeReadings(results)
	s.store.SaveReadings(airspace, merged)
	logger.WithField("readings", len(merged)).Debug("stored readings")
	return nil
}

// Collection gathers the stored series of every airspace. Airspaces without
// stored readings map to an empty series.
func (s *Service) Collection(airspaces []Airspace) (chart.SeriesCollection, error) {
	c := make(chart.SeriesCollection, len(airspaces))
	for _, a := range airspaces {
		series, err := s.store.Series(a)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c[a] = chart.Series{}
				continue
			}
			return nil, fmt.Errorf("load series for %s: %w", a, err)
		}
		c[a] = series
	}
	return c, nil
}

// Chart builds the daily chart for the given airspaces as of now.
func (s *Service) Chart(airspaces []Airspace, now time.Time, opts chart.Options) (chart.Chart, error) {
	c, err := s.Collection(airspaces)
	if err != nil {
		return chart.Chart{}, err
	}
	return chart.Build(c, now.Unix(), opts)
}

// Latest delegates to the underlying store.
func (s *Service) Latest(airspace Airspace) (chart.Reading, error) {
	return s.store.Latest(airspace)
}

// Readings returns stored readings for an airspace between from and to (inclusive).
func (s *Service) Readings(airspace Airspace, from, to time.Time) ([]chart.Reading, error) {
	return s.store.Range(airspace, from.Unix(), to.Unix())
}

// EmissionSince returns how much the cumulative total of an airspace grew
// after since. An airspace with no reading at or before since counts from 0.
func (s *Service) EmissionSince(airspace Airspace, since time.Time) (Since, error) {
	series, err := s.store.Series(airspace)
	if err != nil {
		return Since{}, err
	}
	latest, err := s.store.Latest(airspace)
	if err != nil {
		return Since{}, err
	}

	base := chart.ValueAt(series, since.Unix())
	amount := latest.Value
	if !base.IsAbsent() {
		amount -= base.Float()
	}

	return Since{
		Airspace: airspace,
		From:     since.Unix(),
		Latest:   latest.Timestamp,
		Amount:   amount,
	}, nil
}

// ServerStart returns when the upstream API started collecting.
func (s *Service) ServerStart(ctx context.Context) (time.Time, error) {
	if s.catalog == nil {
		return time.Time{}, ErrNoCatalog
	}
	return s.catalog.ServerStart(ctx)
}

// Bounds returns the bounding box of every requested airspace the upstream
// API knows. Airspaces it does not list are left out.
func (s *Service) Bounds(ctx context.Context, airspaces []Airspace) (map[Airspace]BoundingBox, error) {
	if s.catalog == nil {
		return nil, ErrNoCatalog
	}
	all, err := s.catalog.Airspaces(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[Airspace]BoundingBox, len(airspaces))
	for _, a := range airspaces {
		if box, ok := all[a]; ok {
			out[a] = box
		}
	}
	return out, nil
}

// Leaderboard ranks owners by attributed emission, highest first. Equal
// emissions are ordered by name. A limit <= 0 returns every entry.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if s.catalog == nil {
		return nil, ErrNoCatalog
	}
	owners, err := s.catalog.OwnerEmissions(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(owners))
	for name, kg := range owners {
		entries = append(entries, LeaderboardEntry{Name: name, KgCO2: kg})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].KgCO2 != entries[j].KgCO2 {
			return entries[i].KgCO2 > entries[j].KgCO2
		}
		return entries[i].Name < entries[j].Name
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Placing = i + 1
	}
	return entries, nil
}
