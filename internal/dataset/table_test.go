package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Wheat (tonnes per hectare)", "wheat_tonnes_per_hectare"},
		{"Total population (Gapminder)", "total_population_gapminder"},
		{"Entity", "entity"},
		{"Code", "code"},
		{"  Year ", "year"},
		{"Cereal yield index", "cereal_yield_index"},
		{"already_snake_case", "already_snake_case"},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, NormalizeColumn(test.in), "input %q", test.in)
	}
}

func TestTable_TypedAccess(t *testing.T) {
	table := NewTable(
		[]string{"Entity", "Year", "Wheat (tonnes per hectare)"},
		[][]string{
			{"A", "2019", "3.5"},
			{"B", "2020", ""},
			{"C", "bad", "x"},
		},
	)

	v, ok := table.Float(0, "wheat_tonnes_per_hectare")
	assert.True(t, ok)
	assert.Equal(t, 3.5, v)

	v, ok = table.Float(1, "wheat_tonnes_per_hectare")
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))

	_, ok = table.Float(2, "wheat_tonnes_per_hectare")
	assert.False(t, ok)

	year, ok := table.Int(0, "year")
	assert.True(t, ok)
	assert.Equal(t, 2019, year)

	_, ok = table.Int(2, "year")
	assert.False(t, ok)
}

func TestTable_ShortRowsReadAsMissing(t *testing.T) {
	table := NewTable(
		[]string{"Entity", "Year", "Wheat (tonnes per hectare)"},
		[][]string{{"A", "2019"}},
	)

	_, ok := table.Cell(0, "wheat_tonnes_per_hectare")
	assert.False(t, ok)
}

func TestTable_RequireColumns(t *testing.T) {
	table := NewTable([]string{"Entity", "Year"}, nil)

	require.NoError(t, table.RequireColumns("entity", "year"))
	assert.Error(t, table.RequireColumns("entity", "code"))
}
