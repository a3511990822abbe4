package formatter

import (
	"sort"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/schema"
)

// ExpandPlaceholder stands in for an object value that can be expanded.
const ExpandPlaceholder = "{ … }"

// Cell is the display form of one value.
type Cell struct {
	Text       string
	Expandable bool
}

// FormatCell renders a value: objects with properties become an expandable
// placeholder, strings are shown verbatim and everything else as JSON.
func FormatCell(v any) Cell {
	if schema.IsDecomposable(v) {
		return Cell{Text: ExpandPlaceholder, Expandable: true}
	}
	return Cell{Text: DisplayText(v)}
}

// DisplayText is the scalar-vs-JSON rule without the placeholder.
func DisplayText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return dataset.JSONText(v)
}

// CellAt returns the cell an entry shows under column. The second result is
// false when the entry has nothing there: a decomposed column the entry's
// value lacks, or a column that is not part of the layout.
func CellAt(e dataset.Entry, cols schema.Columns, column string) (Cell, bool) {
	v, ok := columnValue(e, cols, column)
	if !ok {
		return Cell{}, false
	}
	return FormatCell(v), true
}

func columnValue(e dataset.Entry, cols schema.Columns, column string) (any, bool) {
	if !cols.Decomposed() {
		if column != schema.ValueColumn {
			return nil, false
		}
		return e.Value, true
	}
	m, ok := e.Value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[column]
	return v, ok
}

// Property is one row of an expanded cell.
type Property struct {
	Name string
	Text string
}

// ResolveExpansion returns the properties revealed by expanding the cell of
// e under column, sorted by name. It reports false when that cell holds no
// decomposable value, in which case no expansion toggle should be offered.
// Nested objects are shown as JSON text; expansion goes one level deep.
func ResolveExpansion(e dataset.Entry, cols schema.Columns, column string) ([]Property, bool) {
	v, ok := columnValue(e, cols, column)
	if !ok || !schema.IsDecomposable(v) {
		return nil, false
	}
	m := v.(map[string]any)
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]Property, len(names))
	for i, k := range names {
		out[i] = Property{Name: k, Text: DisplayText(m[k])}
	}
	return out, true
}

// RowCells returns the display cells of one entry in header order: key, the
// layout's columns, expiration and metadata.
func RowCells(e dataset.Entry, cols schema.Columns) []Cell {
	out := make([]Cell, 0, len(cols.Names)+3)
	out = append(out, Cell{Text: e.Key})
	for _, c := range cols.Names {
		cell, _ := CellAt(e, cols, c)
		out = append(out, cell)
	}
	out = append(out, Cell{Text: e.ExpirationText()})
	meta := ""
	if e.Metadata != nil {
		meta = dataset.JSONText(e.Metadata)
	}
	return append(out, Cell{Text: meta})
}

// TableRows returns the header and the display text of every entry under
// the given layout.
func TableRows(entries []dataset.Entry, cols schema.Columns) ([]string, [][]string) {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		cells := RowCells(e, cols)
		row := make([]string, len(cells))
		for j, c := range cells {
			row[j] = c.Text
		}
		rows[i] = row
	}
	return cols.Header(), rows
}
