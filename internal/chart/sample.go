package chart

import (
	"encoding/json"
	"math"
)

// Sample is a float64 in which NaN marks an absent value. Absent samples
// encode to JSON null and decode from it.
type Sample float64

// Absent returns a Sample that carries no value.
func Absent() Sample {
	return Sample(math.NaN())
}

// IsAbsent reports whether s carries no value.
func (s Sample) IsAbsent() bool {
	return math.IsNaN(float64(s))
}

// Float returns the raw value; NaN when absent.
func (s Sample) Float() float64 {
	return float64(s)
}

// MarshalJSON encodes absent samples as null.
func (s Sample) MarshalJSON() ([]byte, error) {
	if s.IsAbsent() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(s))
}

// UnmarshalJSON decodes null as an absent sample.
func (s *Sample) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Absent()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Sample(v)
	return nil
}
