package analysis

import (
	"sort"

	"croptrends/domain/core"
	"croptrends/domain/trend"
)

// FDRMethodBH names the Benjamini-Hochberg step-up procedure, the fixed
// correction method for this pipeline.
const FDRMethodBH = "BH"

// BenjaminiHochberg adjusts a batch of raw p-values for multiple
// comparisons with the BH false-discovery-rate step-up procedure:
// sort ascending, candidate q_i = p_i * m / rank_i, enforce monotonicity
// from the largest rank down, clamp to 1, scatter back to the original
// positions.
//
// Guarantees: adjusted >= raw elementwise, rank order preserved, all
// values in [0, 1]. An empty batch is a configuration error; the
// correction is meaningless without the full collection.
func BenjaminiHochberg(raw []float64) ([]float64, error) {
	m := len(raw)
	if m == 0 {
		return nil, core.NewConfigError("p-values", "empty collection")
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return raw[order[a]] < raw[order[b]]
	})

	adjusted := make([]float64, m)
	// Walk ranks from largest down so each value carries the running
	// minimum of the candidates above it.
	runningMin := 1.0
	for i := m - 1; i >= 0; i-- {
		rank := i + 1
		candidate := raw[order[i]] * float64(m) / float64(rank)
		if candidate < runningMin {
			runningMin = candidate
		}
		adjusted[order[i]] = runningMin
	}
	return adjusted, nil
}

// AdjustRecords overwrites each record's p-value with its BH-adjusted
// value, in place, one-to-one by position. Valid only on the complete
// batch: no record is final until every group has been fitted.
func AdjustRecords(records []trend.SlopeRecord) error {
	raw := make([]float64, len(records))
	for i := range records {
		raw[i] = records[i].RawPValue
	}

	adjusted, err := BenjaminiHochberg(raw)
	if err != nil {
		return err
	}

	for i := range records {
		records[i].PValue = adjusted[i]
		records[i].Adjusted = true
		records[i].FDRMethod = FDRMethodBH
	}
	return nil
}
