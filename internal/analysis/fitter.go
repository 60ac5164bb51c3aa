package analysis

import (
	"context"
	"math"

	"croptrends/domain/trend"
	"croptrends/internal"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fitter fits one independent simple linear regression (yield ~ year)
// per (entity, crop) group and extracts the year term from each fit.
type Fitter struct {
	workers int
	logger  *internal.Logger
}

// FitOutput is the fitter's result: one slope record per valid group in
// group order, plus the groups that were skipped and why.
type FitOutput struct {
	Records []trend.SlopeRecord
	Skipped []trend.SkippedGroup
}

// NewFitter creates a fitter. workers > 1 fits groups concurrently;
// output order is identical either way.
func NewFitter(workers int, logger *internal.Logger) *Fitter {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Fitter{workers: workers, logger: logger}
}

// PartitionGroups splits tidy observations into groups keyed by
// (entity, crop). Group order is order of first appearance in the input,
// which fixes the order of the output slope records.
func PartitionGroups(observations []trend.Observation) []trend.Group {
	index := make(map[trend.GroupKey]int)
	var groups []trend.Group
	for _, obs := range observations {
		key := trend.GroupKey{Entity: obs.Entity, Crop: obs.Crop}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, trend.Group{Key: key})
		}
		groups[i].Observations = append(groups[i].Observations, obs)
	}
	return groups
}

// Fit partitions the observations and fits every group. Group-level
// failures are recorded and never abort the batch; the output may hold
// fewer records than there are groups.
func (f *Fitter) Fit(ctx context.Context, observations []trend.Observation) (*FitOutput, error) {
	groups := PartitionGroups(observations)

	type slot struct {
		record  *trend.SlopeRecord
		skipped *trend.SkippedGroup
	}
	slots := make([]slot, len(groups))

	if f.workers == 1 {
		for i, g := range groups {
			record, skipped := FitGroup(g)
			slots[i] = slot{record: record, skipped: skipped}
		}
	} else {
		// Fits are independent; results land in their group's slot so
		// output order matches the sequential path.
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(f.workers)
		for i, g := range groups {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				record, skipped := FitGroup(g)
				slots[i] = slot{record: record, skipped: skipped}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	out := &FitOutput{}
	for i := range slots {
		if slots[i].record != nil {
			rec := *slots[i].record
			f.logger.Debug("fitted %s: slope=%.6g raw p=%.4g (n=%d)", rec.Key(), rec.Slope, rec.PValue, rec.N)
			out.Records = append(out.Records, rec)
		}
		if slots[i].skipped != nil {
			sk := *slots[i].skipped
			f.logger.Warn("skipping group %s: %s (n=%d)", sk.Key, sk.Reason, sk.N)
			out.Skipped = append(out.Skipped, sk)
		}
	}
	return out, nil
}

// FitGroup fits yield = b0 + b1*year by ordinary least squares and
// extracts the year term. Exactly one of the returns is non-nil.
func FitGroup(g trend.Group) (*trend.SlopeRecord, *trend.SkippedGroup) {
	n := len(g.Observations)

	if g.DistinctYears() < 2 {
		return nil, &trend.SkippedGroup{
			Key:    g.Key,
			Reason: trend.SkipInsufficientData,
			N:      n,
			Detail: "fewer than 2 distinct year values",
		}
	}
	// The slope exists with 2 points, but the t test needs n-2 >= 1
	// residual degrees of freedom.
	if n-2 < 1 {
		return nil, &trend.SkippedGroup{
			Key:    g.Key,
			Reason: trend.SkipNoResidualDF,
			N:      n,
			Detail: "no residual degrees of freedom for slope inference",
		}
	}

	model, err := fitOLS(g.Observations)
	if err != nil {
		return nil, &trend.SkippedGroup{
			Key:    g.Key,
			Reason: trend.SkipNumericDegeneracy,
			N:      n,
			Detail: err.Error(),
		}
	}

	return &trend.SlopeRecord{
		Entity:    g.Key.Entity,
		Crop:      g.Key.Crop,
		Slope:     model.Slope,
		StdErr:    model.SlopeStdErr,
		TStat:     model.TStat,
		PValue:    model.PValue,
		RawPValue: model.PValue,
		N:         model.N,
	}, nil
}

// fitOLS computes the closed-form simple regression with slope standard
// error from the residual variance and a two-sided p-value from the t
// distribution with n-2 degrees of freedom.
func fitOLS(observations []trend.Observation) (*trend.FittedModel, error) {
	n := len(observations)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, obs := range observations {
		xs[i] = float64(obs.Year)
		ys[i] = obs.Yield
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if !isFinite(slope) || !isFinite(intercept) {
		return nil, degeneracy("coefficient")
	}

	meanX := stat.Mean(xs, nil)
	meanY := stat.Mean(ys, nil)
	sxx, rss, tss := 0.0, 0.0, 0.0
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		resid := ys[i] - (intercept + slope*xs[i])
		rss += resid * resid
		dy := ys[i] - meanY
		tss += dy * dy
	}
	if sxx == 0 {
		// Zero variance in year slipped past the distinct-years check
		return nil, degeneracy("design matrix")
	}

	df := n - 2
	s2 := rss / float64(df)
	stderr := math.Sqrt(s2 / sxx)
	if math.IsNaN(stderr) {
		return nil, degeneracy("standard error")
	}

	// A perfect fit has zero residual variance; the t statistic diverges
	// and the tail probability is zero.
	tStat := math.Inf(1)
	pValue := 0.0
	if stderr > 0 {
		tStat = slope / stderr
		if math.IsNaN(tStat) {
			return nil, degeneracy("t statistic")
		}
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
		pValue = 2 * tDist.CDF(-math.Abs(tStat))
		if pValue > 1 {
			pValue = 1
		}
		if math.IsNaN(pValue) {
			return nil, degeneracy("p-value")
		}
	} else if slope < 0 {
		tStat = math.Inf(-1)
	}

	rSquared := 1.0
	if tss > 0 {
		rSquared = 1 - rss/tss
	}

	return &trend.FittedModel{
		Intercept:   intercept,
		Slope:       slope,
		SlopeStdErr: stderr,
		TStat:       tStat,
		PValue:      pValue,
		ResidualDF:  df,
		N:           n,
		RSquared:    rSquared,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type degeneracyError string

func (e degeneracyError) Error() string {
	return "non-finite " + string(e)
}

func degeneracy(field string) error {
	return degeneracyError(field)
}
