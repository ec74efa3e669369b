package common

import (
	"strings"

	"github.com/gosimple/slug"

	"github.com/i474232898/airspace-emissions/internal/chart"
)

// NormalizeAirspace turns a user supplied airspace name into the canonical
// key used by the store and the upstream API ("São Paulo " -> "sao-paulo").
func NormalizeAirspace(name string) chart.EntityID {
	return chart.EntityID(slug.Make(strings.TrimSpace(name)))
}

// SplitList splits a comma separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseAirspaces normalises and de-duplicates a comma separated list of
// airspace names, keeping first-seen order.
func ParseAirspaces(s string) []chart.EntityID {
	seen := make(map[chart.EntityID]bool)
	var out []chart.EntityID
	for _, name := range SplitList(s) {
		id := NormalizeAirspace(name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
