package plot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"croptrends/domain/trend"
	"croptrends/internal/errors"
	"croptrends/ports"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Renderer draws yield time-series panels and volcano scatters as PNG
// files. Formatting only; every statistic arrives precomputed.
type Renderer struct{}

// NewRenderer creates a chart renderer
func NewRenderer() ports.ChartRenderer {
	return &Renderer{}
}

var cropPalette = []color.RGBA{
	{R: 217, G: 95, B: 2, A: 255},
	{R: 27, G: 158, B: 119, A: 255},
	{R: 117, G: 112, B: 179, A: 255},
	{R: 231, G: 41, B: 138, A: 255},
	{R: 102, G: 166, B: 30, A: 255},
	{R: 230, G: 171, B: 2, A: 255},
}

// RenderYieldSeries writes one time-series panel per entity: yield vs
// year, one line+point series per crop.
func (r *Renderer) RenderYieldSeries(observations []trend.Observation, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.RenderError("create chart directory", err)
	}

	// entity -> crop -> points, preserving first-appearance order
	byEntity := make(map[string]map[string]plotter.XYs)
	var entityOrder []string
	cropIndex := make(map[string]int)
	var cropOrder []string
	for _, obs := range observations {
		crops, ok := byEntity[obs.Entity]
		if !ok {
			crops = make(map[string]plotter.XYs)
			byEntity[obs.Entity] = crops
			entityOrder = append(entityOrder, obs.Entity)
		}
		if _, ok := cropIndex[obs.Crop]; !ok {
			cropIndex[obs.Crop] = len(cropIndex)
			cropOrder = append(cropOrder, obs.Crop)
		}
		crops[obs.Crop] = append(crops[obs.Crop], plotter.XY{X: float64(obs.Year), Y: obs.Yield})
	}

	for _, entity := range entityOrder {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("Crop yields: %s", entity)
		p.Title.TextStyle.Font.Size = vg.Points(14)
		p.X.Label.Text = "Year"
		p.Y.Label.Text = "Yield (tonnes per hectare)"
		p.Add(plotter.NewGrid())

		for _, crop := range cropOrder {
			points, ok := byEntity[entity][crop]
			if !ok {
				continue
			}
			c := cropPalette[cropIndex[crop]%len(cropPalette)]

			line, err := plotter.NewLine(points)
			if err != nil {
				return errors.RenderError("build line series", err)
			}
			line.Color = c
			line.Width = vg.Points(1.5)

			scatter, err := plotter.NewScatter(points)
			if err != nil {
				return errors.RenderError("build point series", err)
			}
			scatter.GlyphStyle.Color = c
			scatter.GlyphStyle.Shape = draw.CircleGlyph{}
			scatter.GlyphStyle.Radius = vg.Points(2)

			p.Add(line, scatter)
			p.Legend.Add(crop, line, scatter)
		}
		p.Legend.Top = true

		path := filepath.Join(dir, fmt.Sprintf("yields_%s.png", slug(entity)))
		if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
			return errors.RenderError("save yield panel", err)
		}
	}
	return nil
}

// RenderVolcano writes one scatter per crop: slope estimate against
// -log10 of the adjusted p-value, with a reference line at slope 0 and
// entity labels per point.
func (r *Renderer) RenderVolcano(records []trend.SlopeRecord, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.RenderError("create chart directory", err)
	}

	byCrop := make(map[string][]trend.SlopeRecord)
	var cropOrder []string
	for _, rec := range records {
		if _, ok := byCrop[rec.Crop]; !ok {
			cropOrder = append(cropOrder, rec.Crop)
		}
		byCrop[rec.Crop] = append(byCrop[rec.Crop], rec)
	}

	for _, crop := range cropOrder {
		recs := byCrop[crop]

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Yield trend per country: %s", crop)
		p.Title.TextStyle.Font.Size = vg.Points(14)
		p.X.Label.Text = "Slope (tonnes per hectare per year)"
		p.Y.Label.Text = "-log10(adjusted p)"
		p.Add(plotter.NewGrid())

		points := make(plotter.XYs, len(recs))
		labels := make([]string, len(recs))
		maxY := 0.0
		for i, rec := range recs {
			points[i] = plotter.XY{X: rec.Slope, Y: negLog10(rec.PValue)}
			labels[i] = rec.Entity
			if points[i].Y > maxY {
				maxY = points[i].Y
			}
		}

		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return errors.RenderError("build volcano scatter", err)
		}
		scatter.GlyphStyle.Color = cropPalette[0]
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)

		reference, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: 0},
			{X: 0, Y: maxY * 1.05},
		})
		if err != nil {
			return errors.RenderError("build reference line", err)
		}
		reference.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
		reference.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(reference)

		pointLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
		if err != nil {
			return errors.RenderError("build point labels", err)
		}
		pointLabels.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(2)}
		p.Add(pointLabels)

		path := filepath.Join(dir, fmt.Sprintf("volcano_%s.png", slug(crop)))
		if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
			return errors.RenderError("save volcano panel", err)
		}
	}
	return nil
}

// negLog10 keeps perfect fits (p = 0) plottable.
func negLog10(p float64) float64 {
	const floor = 1e-300
	if p < floor {
		p = floor
	}
	return -math.Log10(p)
}

func slug(name string) string {
	s := strings.ToLower(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	return strings.Trim(s, "_")
}
