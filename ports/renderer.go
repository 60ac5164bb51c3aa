package ports

import (
	"croptrends/domain/trend"
)

// ChartRenderer draws the pipeline's two chart families: per-entity
// yield time series and per-crop volcano scatters of slope versus
// adjusted p-value. Renderers only format; all statistics arrive
// precomputed.
type ChartRenderer interface {
	RenderYieldSeries(observations []trend.Observation, dir string) error
	RenderVolcano(records []trend.SlopeRecord, dir string) error
}
