package chart

import (
	"fmt"
	"math"
	"time"
	"unicode/utf16"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultDateLayout renders bucket labels as dd.mm.yy.
const DefaultDateLayout = "02.01.06"

// FillPolicy decides how absent samples are replaced before differencing.
type FillPolicy string

const (
	// FillNone leaves absent samples in place.
	FillNone FillPolicy = "none"
	// FillZero replaces absent samples with 0.
	FillZero FillPolicy = "zero"
	// FillPrevious replaces absent samples with the previous real value, or 0
	// when no real value precedes them.
	FillPrevious FillPolicy = "previous"
)

// Dataset is one renderer-ready line.
type Dataset struct {
	Entity          EntityID      `json:"entity"`
	Label           string        `json:"label"`
	Data            []Sample      `json:"data"`
	Color           drawing.Color `json:"-"`
	BorderColor     string        `json:"borderColor"`
	BackgroundColor string        `json:"backgroundColor"`
}

// ColorFor derives a stable RGB color from id. The same id always yields the
// same color.
func ColorFor(id EntityID) drawing.Color {
	var hash int32
	for _, c := range utf16.Encode([]rune(string(id))) {
		hash = int32(c) + (hash<<5 - hash)
	}
	return drawing.Color{
		R: uint8((hash >> 16) & 0xff),
		G: uint8((hash >> 8) & 0xff),
		B: uint8(hash & 0xff),
		A: 255,
	}
}

// RGB renders c as a CSS rgb() color.
func RGB(c drawing.Color) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// RGBA renders c as a CSS rgba() color with the given alpha in [0, 1].
func RGBA(c drawing.Color, alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, alpha)
}

// DisplayName returns the human-cased label for id.
func DisplayName(id EntityID) string {
	return cases.Title(language.Und).String(string(id))
}

// Deltas converts cumulative samples into per-position increments. Position 0
// keeps its value; position i > 0 becomes samples[i] - samples[i-1]. A delta
// with an absent operand is absent: callers pick a FillPolicy beforehand if
// they want something else.
func Deltas(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	if len(samples) == 0 {
		return out
	}
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		cur, prev := samples[i], samples[i-1]
		if cur.IsAbsent() || prev.IsAbsent() {
			out[i] = Absent()
			continue
		}
		d := decimal.NewFromFloat(cur.Float()).Sub(decimal.NewFromFloat(prev.Float()))
		out[i] = Sample(d.InexactFloat64())
	}
	return out
}

// Cumulate is the inverse of Deltas: it sums deltas from index 0. Absent
// samples stay absent and do not contribute to the running total.
func Cumulate(deltas []Sample) []Sample {
	out := make([]Sample, len(deltas))
	total := decimal.Zero
	for i, d := range deltas {
		if d.IsAbsent() {
			out[i] = Absent()
			continue
		}
		total = total.Add(decimal.NewFromFloat(d.Float()))
		out[i] = Sample(total.InexactFloat64())
	}
	return out
}

// FillAbsent returns a copy of samples with absent entries replaced per policy.
func FillAbsent(samples []Sample, policy FillPolicy) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)

	switch policy {
	case FillZero:
		for i, s := range out {
			if s.IsAbsent() {
				out[i] = 0
			}
		}
	case FillPrevious:
		var prev Sample
		for i, s := range out {
			if s.IsAbsent() {
				out[i] = prev
				continue
			}
			prev = s
		}
	}
	return out
}

// Scale divides every present sample by divisor and optionally floors the
// result. A divisor that is not a finite number > 0, or that equals 1, leaves
// values unscaled.
func Scale(samples []Sample, divisor float64, floor bool) []Sample {
	out := make([]Sample, len(samples))
	var div *decimal.Decimal
	if divisor > 0 && divisor != 1 && !math.IsInf(divisor, 0) {
		d := decimal.NewFromFloat(divisor)
		div = &d
	}
	for i, s := range samples {
		if s.IsAbsent() {
			out[i] = s
			continue
		}
		v := decimal.NewFromFloat(s.Float())
		if div != nil {
			v = v.Div(*div)
		}
		if floor {
			v = v.Floor()
		}
		out[i] = Sample(v.InexactFloat64())
	}
	return out
}

// Labels returns one date per bucket in loc using layout. The first label is
// the local date of the first bucket's start and each following label is the
// next calendar day, so fixed-width buckets that drift off local midnight
// after a DST change still get one label per day.
func Labels(buckets []DayBucket, loc *time.Location, layout string) []string {
	if loc == nil {
		loc = time.Local
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	out := make([]string, len(buckets))
	if len(buckets) == 0 {
		return out
	}
	first := time.Unix(buckets[0].Start, 0).In(loc)
	for i := range buckets {
		day := time.Date(first.Year(), first.Month(), first.Day()+i, 0, 0, 0, 0, loc)
		out[i] = day.Format(layout)
	}
	return out
}

// SeriesFormatter turns aligned cumulative samples into Datasets.
type SeriesFormatter struct {
	Fill    FillPolicy
	Divisor float64
	Floor   bool
	Deltas  bool
}

// Format builds one Dataset per entity in a, in the order of a.Entities.
func (f SeriesFormatter) Format(a Alignment) []Dataset {
	datasets := make([]Dataset, 0, len(a.Entities))
	for _, id := range a.Entities {
		data := FillAbsent(a.Samples[id], f.Fill)
		data = Scale(data, f.Divisor, f.Floor)
		if f.Deltas {
			data = Deltas(data)
		}

		color := ColorFor(id)
		datasets = append(datasets, Dataset{
			Entity:          id,
			Label:           DisplayName(id),
			Data:            data,
			Color:           color,
			BorderColor:     RGB(color),
			BackgroundColor: RGBA(color, 0.5),
		})
	}
	return datasets
}
