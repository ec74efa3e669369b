package chart

// ResolveRange returns the oldest and newest timestamps that appear in the
// reading set of every entity whose reading set is non-empty.
//
// Only exact timestamp matches count. When no timestamp is shared by all
// non-empty entities, or when there are no non-empty entities at all,
// ErrNoSharedRange is returned.
func ResolveRange(c SeriesCollection) (Range, error) {
	counts := make(map[int64]int)
	nonEmpty := 0
	for _, series := range c {
		if len(series) == 0 {
			continue
		}
		nonEmpty++
		for ts := range series {
			counts[ts]++
		}
	}

	if nonEmpty == 0 {
		return Range{}, ErrNoSharedRange
	}

	var (
		r     Range
		found bool
	)
	for ts, n := range counts {
		if n != nonEmpty {
			continue
		}
		if !found {
			r = Range{Oldest: ts, Newest: ts}
			found = true
			continue
		}
		if ts < r.Oldest {
			r.Oldest = ts
		}
		if ts > r.Newest {
			r.Newest = ts
		}
	}

	if !found {
		return Range{}, ErrNoSharedRange
	}
	return r, nil
}
