package chart

import (
	"fmt"
	"time"
)

// Options controls how Build renders a SeriesCollection.
type Options struct {
	// Location defines local midnight and label dates. Nil means time.Local.
	Location *time.Location
	// DateLayout is a time layout for labels; empty means DefaultDateLayout.
	DateLayout string
	Fill       FillPolicy
	Divisor    float64
	Floor      bool
	Deltas     bool
}

// Chart is the chart-ready output: one label per bucket and one dataset per
// entity, all of equal length.
type Chart struct {
	Range    Range       `json:"range"`
	Buckets  []DayBucket `json:"buckets"`
	Labels   []string    `json:"labels"`
	Datasets []Dataset   `json:"datasets"`
}

// Build resolves the shared range of c, aligns every entity onto the day
// buckets from the range's oldest day through now's day and formats the result.
func Build(c SeriesCollection, now int64, opts Options) (Chart, error) {
	r, err := ResolveRange(c)
	if err != nil {
		return Chart{}, err
	}

	aligner := DailyAligner{Location: opts.Location}
	aligned, err := aligner.Align(c, r.Oldest, now)
	if err != nil {
		return Chart{}, fmt.Errorf("align daily: %w", err)
	}

	formatter := SeriesFormatter{
		Fill:    opts.Fill,
		Divisor: opts.Divisor,
		Floor:   opts.Floor,
		Deltas:  opts.Deltas,
	}

	return Chart{
		Range:    r,
		Buckets:  aligned.Buckets,
		Labels:   Labels(aligned.Buckets, aligner.location(), opts.DateLayout),
		Datasets: formatter.Format(aligned),
	}, nil
}
