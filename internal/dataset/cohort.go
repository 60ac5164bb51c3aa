package dataset

import (
	"sort"

	"croptrends/domain/core"
	"croptrends/internal"
)

// CohortParams configures top-N entity selection.
type CohortParams struct {
	RankColumn string   // normalized column ranked on
	TopN       int      // cohort size
	Aggregates []string // pseudo-entities excluded (e.g. "World")
}

// SelectCohort returns the TopN entity names with the largest value of
// the ranking column, using each entity's most recent year as its
// representative row. Rows without an entity code and aggregate
// pseudo-entities are excluded. Order is descending by rank; ties break
// by first appearance in the input, so a deterministic input yields a
// deterministic cohort.
//
// TopN larger than the eligible entity count clamps to the full eligible
// set rather than failing; TopN <= 0 is a configuration error.
func SelectCohort(table *Table, params CohortParams, logger *internal.Logger) ([]string, error) {
	if params.TopN <= 0 {
		return nil, core.NewConfigError("TopN", "must be positive")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if err := table.RequireColumns("entity", "code", "year", params.RankColumn); err != nil {
		return nil, err
	}

	deny := make(map[string]struct{}, len(params.Aggregates))
	for _, a := range params.Aggregates {
		deny[a] = struct{}{}
	}

	type candidate struct {
		entity string
		year   int
		rank   float64
		order  int // first-appearance position, the tie-break
	}

	latest := make(map[string]*candidate)
	var entityOrder []string

	for row := 0; row < table.Len(); row++ {
		entity, _ := table.Cell(row, "entity")
		code, _ := table.Cell(row, "code")
		if entity == "" || code == "" {
			continue
		}
		if _, excluded := deny[entity]; excluded {
			continue
		}
		year, ok := table.Int(row, "year")
		if !ok {
			continue
		}
		rank, ok := table.Float(row, params.RankColumn)
		if !ok {
			continue
		}

		cur, seen := latest[entity]
		if !seen {
			latest[entity] = &candidate{entity: entity, year: year, rank: rank, order: len(entityOrder)}
			entityOrder = append(entityOrder, entity)
			continue
		}
		// Most recent period per entity wins
		if year > cur.year {
			cur.year = year
			cur.rank = rank
		}
	}

	eligible := make([]*candidate, 0, len(entityOrder))
	for _, entity := range entityOrder {
		eligible = append(eligible, latest[entity])
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].rank != eligible[j].rank {
			return eligible[i].rank > eligible[j].rank
		}
		return eligible[i].order < eligible[j].order
	})

	n := params.TopN
	if n > len(eligible) {
		logger.Warn("cohort size %d exceeds %d eligible entities, clamping", n, len(eligible))
		n = len(eligible)
	}

	cohort := make([]string, n)
	for i := 0; i < n; i++ {
		cohort[i] = eligible[i].entity
	}
	return cohort, nil
}
