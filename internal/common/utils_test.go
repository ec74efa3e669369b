package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/airspace-emissions/internal/chart"
)

func TestNormalizeAirspace(t *testing.T) {
	assert.Equal(t, chart.EntityID("berlin"), NormalizeAirspace(" Berlin "))
	assert.Equal(t, chart.EntityID("sao-paulo"), NormalizeAirspace("São Paulo"))
	assert.Equal(t, chart.EntityID(""), NormalizeAirspace("   "))
}

func TestParseAirspaces(t *testing.T) {
	got := ParseAirspaces("Berlin, london,,BERLIN , Madrid")
	assert.Equal(t, []chart.EntityID{"berlin", "london", "madrid"}, got)
	assert.Empty(t, ParseAirspaces(" , "))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, SplitList(" a ,, b c ,"))
	assert.Nil(t, SplitList(""))
}
