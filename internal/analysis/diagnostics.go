package analysis

import (
	"croptrends/domain/trend"

	"github.com/montanaflynn/stats"
)

// GroupDiagnostics summarizes one group's yield series for reporting.
type GroupDiagnostics struct {
	Key       trend.GroupKey `json:"key"`
	N         int            `json:"n"`
	FirstYear int            `json:"first_year"`
	LastYear  int            `json:"last_year"`
	MeanYield float64        `json:"mean_yield"`
	MinYield  float64        `json:"min_yield"`
	MaxYield  float64        `json:"max_yield"`
	StdDev    float64        `json:"std_dev"`
}

// Diagnose computes summary statistics for every group, in group order.
func Diagnose(groups []trend.Group) []GroupDiagnostics {
	out := make([]GroupDiagnostics, 0, len(groups))
	for _, g := range groups {
		yields := make([]float64, len(g.Observations))
		firstYear, lastYear := g.Observations[0].Year, g.Observations[0].Year
		for i, obs := range g.Observations {
			yields[i] = obs.Yield
			if obs.Year < firstYear {
				firstYear = obs.Year
			}
			if obs.Year > lastYear {
				lastYear = obs.Year
			}
		}

		mean, _ := stats.Mean(yields)
		minYield, _ := stats.Min(yields)
		maxYield, _ := stats.Max(yields)
		stdDev, _ := stats.StandardDeviationSample(yields)

		out = append(out, GroupDiagnostics{
			Key:       g.Key,
			N:         len(g.Observations),
			FirstYear: firstYear,
			LastYear:  lastYear,
			MeanYield: mean,
			MinYield:  minYield,
			MaxYield:  maxYield,
			StdDev:    stdDev,
		})
	}
	return out
}
