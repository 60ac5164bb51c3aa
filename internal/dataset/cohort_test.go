package dataset

import (
	"testing"

	"croptrends/domain/core"
	"croptrends/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankTable(rows [][]string) *Table {
	return NewTable([]string{"Entity", "Code", "Year", "Total population (Gapminder)"}, rows)
}

var quietLogger = internal.NewLogger(internal.LogLevelError)

func TestSelectCohort_TopNDescending(t *testing.T) {
	table := rankTable([][]string{
		{"A", "AAA", "2019", "50"},
		{"B", "BBB", "2019", "10"},
		{"C", "CCC", "2019", "90"},
		{"D", "DDD", "2019", "30"},
	})

	cohort, err := SelectCohort(table, CohortParams{
		RankColumn: "total_population_gapminder",
		TopN:       2,
	}, quietLogger)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, cohort)
}

func TestSelectCohort_MostRecentYearPerEntity(t *testing.T) {
	// A's older row has the larger value; only the most recent year
	// counts.
	table := rankTable([][]string{
		{"A", "AAA", "2000", "900"},
		{"A", "AAA", "2019", "20"},
		{"B", "BBB", "2019", "50"},
	})

	cohort, err := SelectCohort(table, CohortParams{
		RankColumn: "total_population_gapminder",
		TopN:       2,
	}, quietLogger)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, cohort)
}

func TestSelectCohort_ExcludesAggregatesAndMissingCodes(t *testing.T) {
	table := rankTable([][]string{
		{"World", "OWID_WRL", "2019", "7000"},
		{"Asia", "", "2019", "4000"},
		{"A", "AAA", "2019", "50"},
		{"B", "BBB", "2019", "10"},
	})

	cohort, err := SelectCohort(table, CohortParams{
		RankColumn: "total_population_gapminder",
		TopN:       2,
		Aggregates: []string{"World"},
	}, quietLogger)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, cohort)
}

func TestSelectCohort_ClampsToEligible(t *testing.T) {
	table := rankTable([][]string{
		{"A", "AAA", "2019", "50"},
		{"B", "BBB", "2019", "10"},
	})

	cohort, err := SelectCohort(table, CohortParams{
		RankColumn: "total_population_gapminder",
		TopN:       30,
	}, quietLogger)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, cohort)
}

func TestSelectCohort_TiesBreakByFirstAppearance(t *testing.T) {
	table := rankTable([][]string{
		{"X", "XXX", "2019", "40"},
		{"Y", "YYY", "2019", "40"},
		{"Z", "ZZZ", "2019", "40"},
	})

	for i := 0; i < 3; i++ {
		cohort, err := SelectCohort(table, CohortParams{
			RankColumn: "total_population_gapminder",
			TopN:       3,
		}, quietLogger)
		require.NoError(t, err)
		assert.Equal(t, []string{"X", "Y", "Z"}, cohort)
	}
}

func TestSelectCohort_NonPositiveNIsConfigError(t *testing.T) {
	table := rankTable([][]string{{"A", "AAA", "2019", "50"}})

	_, err := SelectCohort(table, CohortParams{
		RankColumn: "total_population_gapminder",
		TopN:       0,
	}, quietLogger)
	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
}

func TestSelectCohort_MissingRankColumn(t *testing.T) {
	table := rankTable([][]string{{"A", "AAA", "2019", "50"}})

	_, err := SelectCohort(table, CohortParams{
		RankColumn: "no_such_column",
		TopN:       1,
	}, quietLogger)
	require.Error(t, err)
	assert.True(t, core.IsDataSourceError(err))
}
