package chart

import (
	"fmt"
	"sort"
	"time"
)

// StartOfDay returns the unix timestamp of local midnight on ts's calendar
// day in loc.
func StartOfDay(ts int64, loc *time.Location) int64 {
	t := time.Unix(ts, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).Unix()
}

// DayCount returns the number of calendar days from from's day through to's
// day inclusive, as seen in loc. Days are counted on dates rather than by
// dividing elapsed seconds, so 23 and 25 hour days count once each.
func DayCount(from, to int64, loc *time.Location) (int, error) {
	a := civilDate(from, loc)
	b := civilDate(to, loc)
	if b.Before(a) {
		return 0, fmt.Errorf("%w: %d is before %d", ErrNowBeforeRange, to, from)
	}
	return int((b.Unix()-a.Unix())/SecondsInDay) + 1, nil
}

// civilDate maps ts's local calendar date onto UTC midnight, where every day
// is exactly 24 hours long.
func civilDate(ts int64, loc *time.Location) time.Time {
	t := time.Unix(ts, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Alignment is the result of resampling a SeriesCollection onto day buckets.
// Every Samples entry has len(Buckets) elements, positionally aligned.
type Alignment struct {
	Buckets []DayBucket
	// Entities lists the keys of Samples in ascending order.
	Entities []EntityID
	Samples  map[EntityID][]Sample
}

// DailyAligner resamples sparse cumulative readings onto calendar-day buckets
// using last-known-value carry-forward.
type DailyAligner struct {
	// Location defines where local midnight falls. Nil means time.Local.
	Location *time.Location
}

func (a DailyAligner) location() *time.Location {
	if a.Location == nil {
		return time.Local
	}
	return a.Location
}

// Buckets returns one DayBucket per calendar day from oldest's day through
// now's day. Buckets start at local midnight of oldest's day and advance by
// SecondsInDay.
func (a DailyAligner) Buckets(oldest, now int64) ([]DayBucket, error) {
	loc := a.location()
	days, err := DayCount(oldest, now, loc)
	if err != nil {
		return nil, err
	}

	first := StartOfDay(oldest, loc)
	buckets := make([]DayBucket, days)
	for i := range buckets {
		buckets[i] = DayBucket{Start: first + int64(i)*SecondsInDay}
	}
	return buckets, nil
}

// Align resamples every entity in c onto the buckets between oldest and now.
//
// Each sample is the value of the most recent reading at or before the
// bucket's last second, resolved against the raw readings rather than the
// previous bucket. Entities without such a reading get an absent sample.
func (a DailyAligner) Align(c SeriesCollection, oldest, now int64) (Alignment, error) {
	buckets, err := a.Buckets(oldest, now)
	if err != nil {
		return Alignment{}, err
	}

	ids := c.Entities()
	samples := make(map[EntityID][]Sample, len(ids))
	for _, id := range ids {
		samples[id] = resample(c[id].Readings(), buckets)
	}

	return Alignment{Buckets: buckets, Entities: ids, Samples: samples}, nil
}

func resample(sorted []Reading, buckets []DayBucket) []Sample {
	out := make([]Sample, len(buckets))
	for i, b := range buckets {
		out[i] = lookup(sorted, b.Last())
	}
	return out
}

// lookup returns the value of the latest reading with Timestamp <= at.
// sorted must be ascending by Timestamp.
func lookup(sorted []Reading, at int64) Sample {
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Timestamp > at })
	if idx == 0 {
		return Absent()
	}
	return Sample(sorted[idx-1].Value)
}

// ValueAt returns the carry-forward value of series at the instant at.
func ValueAt(series Series, at int64) Sample {
	return lookup(series.Readings(), at)
}
