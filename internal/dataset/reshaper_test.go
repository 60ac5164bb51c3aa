package dataset

import (
	"testing"

	"croptrends/domain/trend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wideTable(rows [][]string) *Table {
	return NewTable([]string{
		"Entity", "Code", "Year",
		"Wheat (tonnes per hectare)",
		"Rice (tonnes per hectare)",
		"Maize (tonnes per hectare)",
	}, rows)
}

func TestReshape_WideToLong(t *testing.T) {
	table := wideTable([][]string{
		{"A", "AAA", "2019", "3.0", "4.5", "6.1"},
		{"A", "AAA", "2020", "3.2", "4.4", "6.3"},
	})

	observations, err := Reshape(table, ReshapeParams{
		Crops:     []string{"wheat", "rice", "maize"},
		AllowList: []string{"A"},
	})
	require.NoError(t, err)

	// rows x crop-columns, nothing filtered
	require.Len(t, observations, 6)

	// Stable order: input row order, then crop-column order
	assert.Equal(t, trend.Observation{Entity: "A", Year: 2019, Crop: "wheat", Yield: 3.0}, observations[0])
	assert.Equal(t, trend.Observation{Entity: "A", Year: 2019, Crop: "rice", Yield: 4.5}, observations[1])
	assert.Equal(t, trend.Observation{Entity: "A", Year: 2019, Crop: "maize", Yield: 6.1}, observations[2])
	assert.Equal(t, trend.Observation{Entity: "A", Year: 2020, Crop: "wheat", Yield: 3.2}, observations[3])
}

func TestReshape_FiltersMissingEntityAndCrop(t *testing.T) {
	table := wideTable([][]string{
		{"A", "AAA", "2019", "3.0", "", "6.1"}, // rice missing
		{"B", "BBB", "2019", "2.0", "5.0", "4.0"}, // entity not allowed
	})

	observations, err := Reshape(table, ReshapeParams{
		Crops:     []string{"wheat", "rice"}, // maize not of interest
		AllowList: []string{"A"},
	})
	require.NoError(t, err)

	require.Len(t, observations, 1)
	assert.Equal(t, "wheat", observations[0].Crop)
	assert.Equal(t, "A", observations[0].Entity)
}

func TestReshape_Idempotent(t *testing.T) {
	table := wideTable([][]string{
		{"A", "AAA", "2019", "3.0", "4.5", ""},
		{"B", "BBB", "2020", "", "4.4", "6.3"},
	})
	params := ReshapeParams{
		Crops:     []string{"wheat", "rice", "maize"},
		AllowList: []string{"A", "B"},
	}

	first, err := Reshape(table, params)
	require.NoError(t, err)
	second, err := Reshape(table, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReshape_SuffixStripped(t *testing.T) {
	table := wideTable([][]string{
		{"A", "AAA", "2019", "3.0", "4.5", "6.1"},
	})

	observations, err := Reshape(table, ReshapeParams{
		Crops:     []string{"wheat", "rice", "maize"},
		AllowList: []string{"A"},
	})
	require.NoError(t, err)

	for _, obs := range observations {
		assert.NotContains(t, obs.Crop, "tonnes")
	}
}

func TestCropColumns_HeaderOrder(t *testing.T) {
	table := wideTable(nil)
	assert.Equal(t, []string{
		"wheat_tonnes_per_hectare",
		"rice_tonnes_per_hectare",
		"maize_tonnes_per_hectare",
	}, CropColumns(table))
}
