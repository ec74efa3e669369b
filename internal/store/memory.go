package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/airspace-emissions/internal/chart"
)

var (
	// ErrNotFound is returned when no data is available for a given airspace.
	ErrNotFound = errors.New("no emission data for airspace")
)

// ReadingHistory holds a timestamp-ordered list of readings for an airspace.
type ReadingHistory struct {
	Readings []chart.Reading
}

// MemoryStore is a concurrency-safe in-memory implementation of a reading store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: airspace, value: history
	data map[chart.EntityID]*ReadingHistory

	// retention configuration
	maxHistory int           // max number of readings per airspace
	maxAge     time.Duration // optional max age for readings

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[chart.EntityID]*ReadingHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReadings merges readings into an airspace's history and enforces
// retention. A reading for an already stored timestamp replaces it.
func (s *MemoryStore) SaveReadings(airspace chart.EntityID, readings []chart.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[airspace]
	if !ok {
		history = &ReadingHistory{}
		s.data[airspace] = history
	}

	byTS := make(map[int64]float64, len(history.Readings)+len(readings))
	for _, r := range history.Readings {
		byTS[r.Timestamp] = r.Value
	}
	for _, r := range readings {
		byTS[r.Timestamp] = r.Value
	}

	merged := make([]chart.Reading, 0, len(byTS))
	for ts, v := range byTS {
		merged = append(merged, chart.Reading{Timestamp: ts, Value: v})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).Unix()
		i := sort.Search(len(merged), func(i int) bool { return merged[i].Timestamp >= cutoff })
		merged = merged[i:]
	}

	// Enforce retention by count.
	if s.maxHistory > 0 && len(merged) > s.maxHistory {
		merged = merged[len(merged)-s.maxHistory:]
	}

	history.Readings = merged
}

// Series returns a copy of an airspace's history as a chart.Series.
func (s *MemoryStore) Series(airspace chart.EntityID) (chart.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[airspace]
	if !ok || len(history.Readings) == 0 {
		return nil, ErrNotFound
	}
	return chart.SeriesFromReadings(history.Readings), nil
}

// Latest returns the most recent reading for an airspace.
func (s *MemoryStore) Latest(airspace chart.EntityID) (chart.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[airspace]
	if !ok || len(history.Readings) == 0 {
		return chart.Reading{}, ErrNotFound
	}
	return history.Readings[len(history.Readings)-1], nil
}

// Range returns all readings for an airspace between from and to (inclusive).
func (s *MemoryStore) Range(airspace chart.EntityID, from, to int64) ([]chart.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[airspace]
	if !ok || len(history.Readings) == 0 {
		return nil, ErrNotFound
	}

	var result []chart.Reading
	for _, r := range history.Readings {
		if r.Timestamp >= from && r.Timestamp <= to {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
