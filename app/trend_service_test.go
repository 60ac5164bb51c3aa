package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"croptrends/domain/trend"
	"croptrends/internal"
	"croptrends/internal/analysis"
	"croptrends/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const rankCSV = `Entity,Code,Year,Total population (Gapminder)
World,OWID_WRL,2019,7700000000
A,AAA,2019,90
B,BBB,2019,50
C,CCC,2019,70
`

// A, B and C each carry a perfect wheat trend (3.0, 4.0, 5.0); C also
// has a single rice observation, which cannot be regressed.
const yieldCSV = `Entity,Code,Year,Wheat (tonnes per hectare),Rice (tonnes per hectare)
A,AAA,2018,3.0,
A,AAA,2019,4.0,
A,AAA,2020,5.0,
B,BBB,2018,3.0,
B,BBB,2019,4.0,
B,BBB,2020,5.0,
C,CCC,2018,3.0,
C,CCC,2019,4.0,
C,CCC,2020,5.0,4.2
`

func newTestService() *TrendService {
	logger := internal.NewLogger(internal.LogLevelError)
	return NewTrendService(
		dataset.NewLoader(1, logger),
		analysis.NewFitter(1, logger),
		logger,
	)
}

func TestTrendService_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	rankPath := writeFixture(t, dir, "rank.csv", rankCSV)
	yieldPath := writeFixture(t, dir, "yields.csv", yieldCSV)

	service := newTestService()
	result, err := service.Run(context.Background(), TrendRequest{
		YieldSource: yieldPath,
		RankSource:  rankPath,
		RankColumn:  "total_population_gapminder",
		Crops:       []string{"wheat", "rice"},
		TopN:        3,
		Aggregates:  []string{"World"},
	})
	require.NoError(t, err)

	// World excluded, remaining three ranked by population
	assert.Equal(t, []string{"A", "C", "B"}, result.Cohort)

	// Three perfect wheat trends survive; the single-point rice group
	// is skipped and reported, not silently dropped.
	require.Len(t, result.Records, 3)
	for _, rec := range result.Records {
		assert.Equal(t, "wheat", rec.Crop)
		assert.InDelta(t, 1.0, rec.Slope, 1e-9)
		assert.True(t, rec.Adjusted)
		assert.Equal(t, analysis.FDRMethodBH, rec.FDRMethod)
	}

	// Equal raw p-values tie on every rank, so the adjustment is a
	// no-op: all adjusted values equal each other and the raw value.
	for _, rec := range result.Records[1:] {
		assert.Equal(t, result.Records[0].PValue, rec.PValue)
	}
	assert.Equal(t, result.Records[0].RawPValue, result.Records[0].PValue)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, trend.GroupKey{Entity: "C", Crop: "rice"}, result.Skipped[0].Key)
	assert.Equal(t, trend.SkipInsufficientData, result.Skipped[0].Reason)
	for _, rec := range result.Records {
		assert.NotEqual(t, result.Skipped[0].Key, rec.Key())
	}

	assert.False(t, result.Manifest.RunID.String() == "")
	assert.Equal(t, analysis.FDRMethodBH, result.Manifest.FDRMethod)
}

func TestTrendService_CohortRestrictsObservations(t *testing.T) {
	dir := t.TempDir()
	rankPath := writeFixture(t, dir, "rank.csv", rankCSV)
	yieldPath := writeFixture(t, dir, "yields.csv", yieldCSV)

	service := newTestService()
	result, err := service.Run(context.Background(), TrendRequest{
		YieldSource: yieldPath,
		RankSource:  rankPath,
		RankColumn:  "total_population_gapminder",
		Crops:       []string{"wheat"},
		TopN:        1,
		Aggregates:  []string{"World"},
	})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "A", result.Records[0].Entity)
	for _, obs := range result.Observations {
		assert.Equal(t, "A", obs.Entity)
	}
}

func TestTrendService_BadRankColumnAborts(t *testing.T) {
	dir := t.TempDir()
	rankPath := writeFixture(t, dir, "rank.csv", rankCSV)
	yieldPath := writeFixture(t, dir, "yields.csv", yieldCSV)

	service := newTestService()
	_, err := service.Run(context.Background(), TrendRequest{
		YieldSource: yieldPath,
		RankSource:  rankPath,
		RankColumn:  "not_a_column",
		Crops:       []string{"wheat"},
		TopN:        3,
	})
	require.Error(t, err)
}
