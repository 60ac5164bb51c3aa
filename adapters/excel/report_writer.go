package excel

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"croptrends/domain/trend"
	"croptrends/internal/errors"
	"croptrends/ports"

	"github.com/xuri/excelize/v2"
)

// ResultWriter exports a completed run to an Excel workbook with one
// sheet for slope records, one for skipped groups and one for the run
// manifest.
type ResultWriter struct{}

// NewResultWriter creates an Excel result writer
func NewResultWriter() ports.ResultExporter {
	return &ResultWriter{}
}

// Export writes the workbook to path, creating parent directories.
func (w *ResultWriter) Export(result *trend.RunResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ExportError("create output directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const slopesSheet = "Slopes"
	f.SetSheetName("Sheet1", slopesSheet)

	slopeHeaders := []string{"Entity", "Crop", "Slope", "Std Error", "t", "Adjusted p", "Raw p", "N"}
	for i, header := range slopeHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(slopesSheet, cell, header)
	}
	for i, rec := range result.Records {
		row := i + 2
		f.SetCellValue(slopesSheet, fmt.Sprintf("A%d", row), rec.Entity)
		f.SetCellValue(slopesSheet, fmt.Sprintf("B%d", row), rec.Crop)
		f.SetCellValue(slopesSheet, fmt.Sprintf("C%d", row), rec.Slope)
		f.SetCellValue(slopesSheet, fmt.Sprintf("D%d", row), rec.StdErr)
		f.SetCellValue(slopesSheet, fmt.Sprintf("E%d", row), formatStat(rec.TStat))
		f.SetCellValue(slopesSheet, fmt.Sprintf("F%d", row), rec.PValue)
		f.SetCellValue(slopesSheet, fmt.Sprintf("G%d", row), rec.RawPValue)
		f.SetCellValue(slopesSheet, fmt.Sprintf("H%d", row), rec.N)
	}

	const skippedSheet = "Skipped Groups"
	if _, err := f.NewSheet(skippedSheet); err != nil {
		return errors.ExportError("create skipped sheet", err)
	}
	skippedHeaders := []string{"Entity", "Crop", "Reason", "N", "Detail"}
	for i, header := range skippedHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(skippedSheet, cell, header)
	}
	for i, sk := range result.Skipped {
		row := i + 2
		f.SetCellValue(skippedSheet, fmt.Sprintf("A%d", row), sk.Key.Entity)
		f.SetCellValue(skippedSheet, fmt.Sprintf("B%d", row), sk.Key.Crop)
		f.SetCellValue(skippedSheet, fmt.Sprintf("C%d", row), string(sk.Reason))
		f.SetCellValue(skippedSheet, fmt.Sprintf("D%d", row), sk.N)
		f.SetCellValue(skippedSheet, fmt.Sprintf("E%d", row), sk.Detail)
	}

	const runSheet = "Run"
	if _, err := f.NewSheet(runSheet); err != nil {
		return errors.ExportError("create run sheet", err)
	}
	m := result.Manifest
	runRows := [][2]interface{}{
		{"Run ID", m.RunID.String()},
		{"Yield source", m.YieldSource},
		{"Rank source", m.RankSource},
		{"Top N", m.TopN},
		{"FDR method", m.FDRMethod},
		{"Started", m.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", m.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Runtime (ms)", result.RuntimeMs},
		{"Groups fitted", len(result.Records)},
		{"Groups skipped", len(result.Skipped)},
	}
	for i, kv := range runRows {
		f.SetCellValue(runSheet, fmt.Sprintf("A%d", i+1), kv[0])
		f.SetCellValue(runSheet, fmt.Sprintf("B%d", i+1), kv[1])
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ExportError("save workbook", err)
	}
	return nil
}

// formatStat keeps non-finite t statistics readable in the sheet.
func formatStat(v float64) interface{} {
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	if math.IsNaN(v) {
		return "NaN"
	}
	return v
}
