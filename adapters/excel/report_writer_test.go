package excel

import (
	"path/filepath"
	"testing"
	"time"

	"croptrends/domain/core"
	"croptrends/domain/trend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *trend.RunResult {
	now := time.Now()
	return &trend.RunResult{
		Manifest: trend.RunManifest{
			RunID:       core.NewRunID(),
			YieldSource: "yields.csv",
			RankSource:  "rank.csv",
			Crops:       []string{"wheat", "rice"},
			TopN:        3,
			FDRMethod:   "BH",
			StartedAt:   now,
			FinishedAt:  now,
		},
		Records: []trend.SlopeRecord{
			{Entity: "A", Crop: "wheat", Slope: 0.04, StdErr: 0.01, TStat: 4.0, PValue: 0.02, RawPValue: 0.01, N: 20, Adjusted: true, FDRMethod: "BH"},
			{Entity: "B", Crop: "wheat", Slope: -0.01, StdErr: 0.02, TStat: -0.5, PValue: 0.8, RawPValue: 0.62, N: 18, Adjusted: true, FDRMethod: "BH"},
		},
		Skipped: []trend.SkippedGroup{
			{Key: trend.GroupKey{Entity: "C", Crop: "rice"}, Reason: trend.SkipInsufficientData, N: 1},
		},
	}
}

func TestResultWriter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trends.xlsx")

	require.NoError(t, NewResultWriter().Export(sampleResult(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "Slopes")
	assert.Contains(t, f.GetSheetList(), "Skipped Groups")
	assert.Contains(t, f.GetSheetList(), "Run")

	entity, err := f.GetCellValue("Slopes", "A2")
	require.NoError(t, err)
	assert.Equal(t, "A", entity)

	reason, err := f.GetCellValue("Skipped Groups", "C2")
	require.NoError(t, err)
	assert.Equal(t, string(trend.SkipInsufficientData), reason)
}
