package dataset

import (
	"math"
	"strconv"
	"strings"

	"croptrends/domain/core"
)

// Table is an in-memory delimited table with normalized column names.
// Cells stay as strings until a component asks for a typed view; missing
// values are empty cells.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table from a header row and data rows, normalizing
// every column name.
func NewTable(header []string, rows [][]string) *Table {
	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumn(h)
		columns[i] = name
		// First occurrence wins on duplicate names
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}
	return &Table{Columns: columns, Rows: rows, index: index}
}

// NormalizeColumn converts an arbitrary header to a canonical snake_case
// identifier: "Wheat (tonnes per hectare)" -> "wheat_tonnes_per_hectare".
func NormalizeColumn(name string) string {
	var b strings.Builder
	lastUnderscore := true // swallow leading separators
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ColumnIndex returns the position of a normalized column name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	idx, ok := t.index[name]
	return idx, ok
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the raw cell value for a row and normalized column name.
// Rows shorter than the header read as missing.
func (t *Table) Cell(row int, name string) (string, bool) {
	idx, ok := t.index[name]
	if !ok || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	r := t.Rows[row]
	if idx >= len(r) {
		return "", false
	}
	return r[idx], true
}

// Float returns a cell parsed as float64. Missing or unparseable cells
// return NaN and false.
func (t *Table) Float(row int, name string) (float64, bool) {
	raw, ok := t.Cell(row, name)
	if !ok || strings.TrimSpace(raw) == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}

// Int returns a cell parsed as int.
func (t *Table) Int(row int, name string) (int, bool) {
	raw, ok := t.Cell(row, name)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// RequireColumns verifies the named columns exist, returning a data
// source error naming the first missing one.
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return core.NewDataSourceError(name, core.ErrColumnNotFound)
		}
	}
	return nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
