package app

import (
	"context"
	"time"

	"croptrends/domain/core"
	"croptrends/domain/trend"
	"croptrends/internal"
	"croptrends/internal/analysis"
	"croptrends/internal/dataset"
)

// TrendService runs the batch crop-yield trend pipeline: load both
// tables, select the cohort, reshape to tidy observations, fit one
// regression per (entity, crop) group, then BH-correct the batch of raw
// p-values.
type TrendService struct {
	loader *dataset.Loader
	fitter *analysis.Fitter
	logger *internal.Logger
}

// TrendRequest defines the inputs for one pipeline run
type TrendRequest struct {
	YieldSource string
	RankSource  string
	RankColumn  string
	Crops       []string
	TopN        int
	Aggregates  []string
	RunID       core.RunID // optional, generated if empty
}

// NewTrendService creates a trend pipeline service
func NewTrendService(loader *dataset.Loader, fitter *analysis.Fitter, logger *internal.Logger) *TrendService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TrendService{loader: loader, fitter: fitter, logger: logger}
}

// Run executes the pipeline end to end. Data-source and configuration
// failures abort; group-level failures are recorded on the result and
// never abort the batch.
func (s *TrendService) Run(ctx context.Context, req TrendRequest) (*trend.RunResult, error) {
	startTime := time.Now()

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}

	rankTable, err := s.loader.Load(ctx, req.RankSource)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded rank table: %d rows", rankTable.Len())

	cohort, err := dataset.SelectCohort(rankTable, dataset.CohortParams{
		RankColumn: req.RankColumn,
		TopN:       req.TopN,
		Aggregates: req.Aggregates,
	}, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Info("selected cohort of %d entities", len(cohort))

	yieldTable, err := s.loader.Load(ctx, req.YieldSource)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded yield table: %d rows", yieldTable.Len())

	observations, err := dataset.Reshape(yieldTable, dataset.ReshapeParams{
		Crops:     req.Crops,
		AllowList: cohort,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reshaped to %d tidy observations", len(observations))

	fitOutput, err := s.fitter.Fit(ctx, observations)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fitted %d groups, skipped %d", len(fitOutput.Records), len(fitOutput.Skipped))

	// The correction needs the complete batch of raw p-values; no
	// record is final until every group has been fitted.
	if len(fitOutput.Records) > 0 {
		if err := analysis.AdjustRecords(fitOutput.Records); err != nil {
			return nil, err
		}
	} else {
		s.logger.Warn("no valid groups; nothing to correct")
	}

	finished := time.Now()
	return &trend.RunResult{
		Manifest: trend.RunManifest{
			RunID:       runID,
			YieldSource: req.YieldSource,
			RankSource:  req.RankSource,
			Crops:       req.Crops,
			TopN:        req.TopN,
			FDRMethod:   analysis.FDRMethodBH,
			StartedAt:   startTime,
			FinishedAt:  finished,
		},
		Cohort:       cohort,
		Observations: observations,
		Records:      fitOutput.Records,
		Skipped:      fitOutput.Skipped,
		RuntimeMs:    finished.Sub(startTime).Milliseconds(),
	}, nil
}
