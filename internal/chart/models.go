package chart

import (
	"errors"
	"sort"
)

// SecondsInDay is the fixed width of a DayBucket.
const SecondsInDay = 86400

var (
	// ErrNoSharedRange is returned when no timestamp is present in every
	// non-empty series, including the case where every series is empty.
	ErrNoSharedRange = errors.New("no shared range across series")

	// ErrNowBeforeRange is returned when the supplied current time lies on a
	// calendar day before the start of the shared range.
	ErrNowBeforeRange = errors.New("current time precedes shared range")
)

// EntityID identifies one tracked entity (an airspace). It is an opaque key.
type EntityID string

// Reading is a single cumulative value observed at a unix timestamp (seconds).
type Reading struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Series maps unix timestamps (seconds) to cumulative values for one entity.
type Series map[int64]float64

// SeriesCollection maps entities to their reading sets.
type SeriesCollection map[EntityID]Series

// SeriesFromReadings builds a Series. Later readings win on duplicate timestamps.
func SeriesFromReadings(readings []Reading) Series {
	s := make(Series, len(readings))
	for _, r := range readings {
		s[r.Timestamp] = r.Value
	}
	return s
}

// Readings returns the series as readings sorted by timestamp ascending.
func (s Series) Readings() []Reading {
	out := make([]Reading, 0, len(s))
	for ts, v := range s {
		out = append(out, Reading{Timestamp: ts, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Entities returns the collection's keys in ascending order.
func (c SeriesCollection) Entities() []EntityID {
	ids := make([]EntityID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Range is the (oldest, newest) pair of timestamps shared by every non-empty series.
type Range struct {
	Oldest int64 `json:"oldest"`
	Newest int64 `json:"newest"`
}

// DayBucket is the half-open interval [Start, Start+SecondsInDay).
type DayBucket struct {
	Start int64 `json:"start"`
}

// End returns the first second after the bucket.
func (b DayBucket) End() int64 { return b.Start + SecondsInDay }

// Last returns the final second inside the bucket.
func (b DayBucket) Last() int64 { return b.Start + SecondsInDay - 1 }
