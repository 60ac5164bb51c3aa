package dataset

import (
	"strings"

	"croptrends/domain/core"
	"croptrends/domain/trend"
)

// CropColumnSuffix is the fixed suffix carried by every crop quantity
// column in the wide yield table.
const CropColumnSuffix = "_tonnes_per_hectare"

// ReshapeParams configures the wide-to-long reshape.
type ReshapeParams struct {
	Crops     []string // crop labels kept, post suffix-strip
	AllowList []string // entities kept (the cohort)
}

// Reshape converts the wide yield table (one column per crop) into tidy
// observations (one row per entity/year/crop), keeping only the crops of
// interest, entities on the allow-list, and present yield values.
//
// The transform is pure and its output order is stable: input row order,
// then crop-column order within each row. Before filtering, the output
// size is rows x crop-columns.
func Reshape(table *Table, params ReshapeParams) ([]trend.Observation, error) {
	if err := table.RequireColumns("entity", "year"); err != nil {
		return nil, err
	}

	cropColumns := CropColumns(table)
	if len(cropColumns) == 0 {
		return nil, core.NewDataSourceError("yield table", core.ErrColumnNotFound)
	}

	keep := make(map[string]struct{}, len(params.Crops))
	for _, c := range params.Crops {
		keep[c] = struct{}{}
	}
	allowed := make(map[string]struct{}, len(params.AllowList))
	for _, e := range params.AllowList {
		allowed[e] = struct{}{}
	}

	var out []trend.Observation
	for row := 0; row < table.Len(); row++ {
		entity, _ := table.Cell(row, "entity")
		year, yearOK := table.Int(row, "year")
		if !yearOK {
			continue
		}
		if _, ok := allowed[entity]; !ok {
			continue
		}
		for _, col := range cropColumns {
			crop := strings.TrimSuffix(col, CropColumnSuffix)
			if _, ok := keep[crop]; !ok {
				continue
			}
			yield, present := table.Float(row, col)
			if !present {
				continue
			}
			out = append(out, trend.Observation{
				Entity: entity,
				Year:   year,
				Crop:   crop,
				Yield:  yield,
			})
		}
	}
	return out, nil
}

// CropColumns lists the table's crop quantity columns in header order.
func CropColumns(table *Table) []string {
	var cols []string
	for _, name := range table.Columns {
		if strings.HasSuffix(name, CropColumnSuffix) {
			cols = append(cols, name)
		}
	}
	return cols
}
