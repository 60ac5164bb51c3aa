package trend

import (
	"fmt"
	"time"

	"croptrends/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// Observation is the fundamental unit consumed by the fitter: one yield
// measurement for one entity, crop and year. Immutable once created.
type Observation struct {
	Entity string  `json:"entity"`
	Year   int     `json:"year"`
	Crop   string  `json:"crop"`
	Yield  float64 `json:"yield"` // tonnes per hectare, nonnegative
}

// GroupKey uniquely identifies a regression group
type GroupKey struct {
	Entity string `json:"entity"`
	Crop   string `json:"crop"`
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s/%s", k.Entity, k.Crop)
}

// Group holds all observations sharing one (entity, crop) pair, in tidy
// table order.
// INVARIANTS:
// - At least one observation
// - No minimum size beyond that; a valid slope still needs >=2 distinct years
type Group struct {
	Key          GroupKey      `json:"key"`
	Observations []Observation `json:"observations"`
}

// DistinctYears counts the distinct year values in the group.
func (g Group) DistinctYears() int {
	seen := make(map[int]struct{}, len(g.Observations))
	for _, obs := range g.Observations {
		seen[obs.Year] = struct{}{}
	}
	return len(seen)
}

// FittedModel holds the OLS fit for one group: yield = Intercept + Slope*year.
// Owned by its group, derived, never mutated, discarded after the slope
// record is extracted.
type FittedModel struct {
	Intercept   float64 `json:"intercept"`
	Slope       float64 `json:"slope"`
	SlopeStdErr float64 `json:"slope_std_err"`
	TStat       float64 `json:"t_stat"`
	PValue      float64 `json:"p_value"` // two-sided, against slope = 0
	ResidualDF  int     `json:"residual_df"`
	N           int     `json:"n"`
	RSquared    float64 `json:"r_squared"`
}

// SlopeRecord is one output row per group: the extracted "year" term.
// INVARIANTS:
// - PValue starts as the raw p-value (0.0 to 1.0)
// - PValue is overwritten exactly once, globally, by the FDR correction;
//   no other field ever changes after creation
type SlopeRecord struct {
	Entity    string  `json:"entity" db:"entity"`
	Crop      string  `json:"crop" db:"crop"`
	Slope     float64 `json:"slope" db:"slope"`
	StdErr    float64 `json:"std_err" db:"std_err"`
	TStat     float64 `json:"t_stat" db:"t_stat"`
	PValue    float64 `json:"p_value" db:"p_value"`
	RawPValue float64 `json:"raw_p_value" db:"raw_p_value"`
	N         int     `json:"n" db:"n"`
	Adjusted  bool    `json:"adjusted" db:"adjusted"`
	FDRMethod string  `json:"fdr_method,omitempty" db:"fdr_method"`
}

func (r SlopeRecord) Key() GroupKey {
	return GroupKey{Entity: r.Entity, Crop: r.Crop}
}

// ============================================================================
// SKIP REPORTING (groups are skipped, never silently dropped)
// ============================================================================

// SkipReason represents structured skip causes
type SkipReason string

const (
	SkipInsufficientData  SkipReason = "INSUFFICIENT_DATA"  // <2 distinct years
	SkipNoResidualDF      SkipReason = "NO_RESIDUAL_DF"     // n-2 < 1, t test undefined
	SkipNumericDegeneracy SkipReason = "NUMERIC_DEGENERACY" // non-finite fit result
)

// SkippedGroup records one group excluded from the output collection
type SkippedGroup struct {
	Key    GroupKey   `json:"key"`
	Reason SkipReason `json:"reason"`
	N      int        `json:"n"`
	Detail string     `json:"detail,omitempty"`
}

// ============================================================================
// RUN ARTIFACTS
// ============================================================================

// RunManifest captures the parameters one pipeline run was executed with
type RunManifest struct {
	RunID       core.RunID `json:"run_id"`
	YieldSource string     `json:"yield_source"`
	RankSource  string     `json:"rank_source"`
	Crops       []string   `json:"crops"`
	TopN        int        `json:"top_n"`
	FDRMethod   string     `json:"fdr_method"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`
}

// RunResult is the complete output of one pipeline run
type RunResult struct {
	Manifest     RunManifest    `json:"manifest"`
	Cohort       []string       `json:"cohort"`
	Observations []Observation  `json:"observations"`
	Records      []SlopeRecord  `json:"records"`
	Skipped      []SkippedGroup `json:"skipped"`
	RuntimeMs    int64          `json:"runtime_ms"`
}
