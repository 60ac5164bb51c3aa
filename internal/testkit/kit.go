package testkit

import (
	"fmt"
	"math/rand"
	"strconv"

	"croptrends/domain/trend"
	"croptrends/internal/dataset"
)

// LinearObservations builds a synthetic yield series with an exact
// linear trend: yield = base + slope*(year - startYear).
func LinearObservations(entity, crop string, startYear int, base, slope float64, n int) []trend.Observation {
	out := make([]trend.Observation, n)
	for i := 0; i < n; i++ {
		out[i] = trend.Observation{
			Entity: entity,
			Year:   startYear + i,
			Crop:   crop,
			Yield:  base + slope*float64(i),
		}
	}
	return out
}

// NoisyObservations builds a linear trend with seeded gaussian noise so
// fits are nontrivial but reproducible.
func NoisyObservations(entity, crop string, startYear int, base, slope, noise float64, n int, seed int64) []trend.Observation {
	rng := rand.New(rand.NewSource(seed))
	out := make([]trend.Observation, n)
	for i := 0; i < n; i++ {
		out[i] = trend.Observation{
			Entity: entity,
			Year:   startYear + i,
			Crop:   crop,
			Yield:  base + slope*float64(i) + rng.NormFloat64()*noise,
		}
	}
	return out
}

// WideYieldRow is one synthetic row of the wide yield table.
type WideYieldRow struct {
	Entity string
	Code   string
	Year   int
	Yields map[string]string // crop label -> cell value; missing crops read as empty
}

// WideYieldTable builds a wide table with one quantity column per crop,
// header names matching the raw source convention.
func WideYieldTable(crops []string, rows []WideYieldRow) *dataset.Table {
	header := []string{"Entity", "Code", "Year"}
	for _, crop := range crops {
		header = append(header, fmt.Sprintf("%s (tonnes per hectare)", crop))
	}

	data := make([][]string, len(rows))
	for i, row := range rows {
		cells := []string{row.Entity, row.Code, strconv.Itoa(row.Year)}
		for _, crop := range crops {
			cells = append(cells, row.Yields[crop])
		}
		data[i] = cells
	}
	return dataset.NewTable(header, data)
}

// RankRow is one synthetic row of the ranking table.
type RankRow struct {
	Entity string
	Code   string
	Year   int
	Rank   string // empty = missing
}

// RankTable builds a ranking table with a single population-style
// ranking column.
func RankTable(rankColumn string, rows []RankRow) *dataset.Table {
	header := []string{"Entity", "Code", "Year", rankColumn}
	data := make([][]string, len(rows))
	for i, row := range rows {
		data[i] = []string{row.Entity, row.Code, strconv.Itoa(row.Year), row.Rank}
	}
	return dataset.NewTable(header, data)
}
