package ports

import (
	"context"

	"croptrends/domain/core"
	"croptrends/domain/trend"
)

// SlopeStore persists completed pipeline runs and their slope records.
// The pipeline itself never requires persistence; a store is an optional
// downstream sink for the corrected output collection.
type SlopeStore interface {
	SaveRun(ctx context.Context, result *trend.RunResult) error
	GetRecords(ctx context.Context, runID core.RunID) ([]trend.SlopeRecord, error)
	ListRuns(ctx context.Context, limit int) ([]trend.RunManifest, error)
}
