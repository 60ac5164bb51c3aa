package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"croptrends/domain/trend"
	"croptrends/internal/analysis"
	"croptrends/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const reportTemplate = `# Crop yield trend report

Run ` + "`{{ .RunID }}`" + ` — {{ .Started }} ({{ .RuntimeMs }} ms)

- Yield source: {{ .YieldSource }}
- Ranking source: {{ .RankSource }}
- Cohort: top {{ .TopN }} entities, {{ .CohortSize }} selected
- Crops: {{ .Crops }}
- Correction: {{ .FDRMethod }} across {{ .RecordCount }} tests

## Strongest trends (by adjusted p-value)

| Entity | Crop | Slope (t/ha/yr) | Std err | Adjusted p | N |
|---|---|---|---|---|---|
{{- range .TopRecords }}
| {{ .Entity }} | {{ .Crop }} | {{ printf "%.4f" .Slope }} | {{ printf "%.4f" .StdErr }} | {{ .PFormatted }} | {{ .N }} |
{{- end }}

## Skipped groups ({{ .SkippedCount }})
{{ if .Skipped }}
| Entity | Crop | Reason | N |
|---|---|---|---|
{{- range .Skipped }}
| {{ .Key.Entity }} | {{ .Key.Crop }} | {{ .Reason }} | {{ .N }} |
{{- end }}
{{ else }}
None.
{{ end }}

## Group coverage

{{ .GroupCount }} groups fitted across {{ .EntityCount }} entities; median series length {{ .MedianN }} observations.
`

type topRecord struct {
	trend.SlopeRecord
	PFormatted string
}

type reportData struct {
	RunID        string
	Started      string
	RuntimeMs    int64
	YieldSource  string
	RankSource   string
	TopN         int
	CohortSize   int
	Crops        string
	FDRMethod    string
	RecordCount  int
	TopRecords   []topRecord
	Skipped      []trend.SkippedGroup
	SkippedCount int
	GroupCount   int
	EntityCount  int
	MedianN      int
}

// Write renders the run summary as a markdown file at path, plus an
// HTML rendering of the same content next to it.
func Write(result *trend.RunResult, diagnostics []analysis.GroupDiagnostics, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.RenderError("create report directory", err)
	}

	data := buildData(result, diagnostics)

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return errors.RenderError("parse report template", err)
	}
	var md strings.Builder
	if err := tmpl.Execute(&md, data); err != nil {
		return errors.RenderError("render report", err)
	}

	if err := os.WriteFile(path, []byte(md.String()), 0o644); err != nil {
		return errors.RenderError("write markdown report", err)
	}

	htmlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	rendered := markdown.ToHTML([]byte(md.String()), p, renderer)
	if err := os.WriteFile(htmlPath, rendered, 0o644); err != nil {
		return errors.RenderError("write html report", err)
	}
	return nil
}

func buildData(result *trend.RunResult, diagnostics []analysis.GroupDiagnostics) reportData {
	m := result.Manifest

	top := make([]trend.SlopeRecord, len(result.Records))
	copy(top, result.Records)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].PValue < top[j].PValue
	})
	if len(top) > 15 {
		top = top[:15]
	}
	topRecords := make([]topRecord, len(top))
	for i, rec := range top {
		topRecords[i] = topRecord{SlopeRecord: rec, PFormatted: formatP(rec.PValue)}
	}

	entities := make(map[string]struct{})
	lengths := make([]int, 0, len(diagnostics))
	for _, d := range diagnostics {
		entities[d.Key.Entity] = struct{}{}
		lengths = append(lengths, d.N)
	}
	sort.Ints(lengths)
	medianN := 0
	if len(lengths) > 0 {
		medianN = lengths[len(lengths)/2]
	}

	return reportData{
		RunID:        m.RunID.String(),
		Started:      m.StartedAt.Format("2006-01-02 15:04:05"),
		RuntimeMs:    result.RuntimeMs,
		YieldSource:  m.YieldSource,
		RankSource:   m.RankSource,
		TopN:         m.TopN,
		CohortSize:   len(result.Cohort),
		Crops:        strings.Join(m.Crops, ", "),
		FDRMethod:    m.FDRMethod,
		RecordCount:  len(result.Records),
		TopRecords:   topRecords,
		Skipped:      result.Skipped,
		SkippedCount: len(result.Skipped),
		GroupCount:   len(diagnostics),
		EntityCount:  len(entities),
		MedianN:      medianN,
	}
}

func formatP(p float64) string {
	switch {
	case p == 0:
		return "<1e-300"
	case p < 1e-4:
		return fmt.Sprintf("%.2e", p)
	case math.IsNaN(p):
		return "NaN"
	default:
		return fmt.Sprintf("%.4f", p)
	}
}
