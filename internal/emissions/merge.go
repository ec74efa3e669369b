package emissions

import (
	"sort"

	"github.com/i474232898/airspace-emissions/internal/chart"
)

// MergeReadings combines readings from several providers into one list
// sorted by timestamp. When two providers report the same timestamp the
// larger value is kept, since values are cumulative totals.
func MergeReadings(results []ProviderReadings) []chart.Reading {
	byTS := make(map[int64]float64)
	for _, res := range results {
		for _, r := range res.Readings {
			if cur, ok := byTS[r.Timestamp]; ok && cur >= r.Value {
				continue
			}
			byTS[r.Timestamp] = r.Value
		}
	}

	merged := make([]chart.Reading, 0, len(byTS))
	for ts, v := range byTS {
		merged = append(merged, chart.Reading{Timestamp: ts, Value: v})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
