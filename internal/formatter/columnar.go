package formatter

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/schema"
)

const (
	sepWidth    = 2
	minColWidth = 3
	maxColWidth = 40
)

// ColumnarOptions configures table rendering.
type ColumnarOptions struct {
	// NoColor disables color output
	NoColor bool

	// TotalWidth is the total available width. If 0, uses terminal width.
	TotalWidth int

	// RowOffset is added to row numbers so numbering continues across pages.
	// A negative value hides the row number column.
	RowOffset int

	// Selected is the 0-based row drawn highlighted, -1 for none.
	Selected int
}

// RenderPage renders one page of entries as a table under the given layout.
// Expandable cells are drawn with the placeholder.
func RenderPage(entries []dataset.Entry, cols schema.Columns, opts ColumnarOptions) string {
	header, rows := TableRows(entries, cols)
	expandable := make([][]bool, len(entries))
	for i, e := range entries {
		cells := RowCells(e, cols)
		marks := make([]bool, len(cells))
		for j, c := range cells {
			marks[j] = c.Expandable
		}
		expandable[i] = marks
	}
	return renderColumnar(header, rows, expandable, opts)
}

// RenderColumnarTable renders rows under a header with widths fitted to the
// available space.
func RenderColumnarTable(columns []string, rows [][]string, opts ColumnarOptions) string {
	return renderColumnar(columns, rows, nil, opts)
}

func renderColumnar(columns []string, rows [][]string, expandable [][]bool, opts ColumnarOptions) string {
	if len(columns) == 0 {
		return ""
	}
	totalWidth := opts.TotalWidth
	if totalWidth <= 0 {
		totalWidth = getTerminalWidth()
	}

	flat := make([][]string, len(rows))
	for i, row := range rows {
		flat[i] = make([]string, len(row))
		for j, v := range row {
			flat[i][j] = singleLine(v)
		}
	}

	showRowNum := opts.RowOffset >= 0
	rowNumWidth := 0
	available := totalWidth
	if showRowNum {
		rowNumWidth = len(strconv.Itoa(opts.RowOffset+len(rows))) + 1
		available -= rowNumWidth + sepWidth
	}
	widths := calculateColumnWidths(columns, flat, available)
	sep := strings.Repeat(" ", sepWidth)

	var b strings.Builder

	parts := make([]string, 0, len(columns)+1)
	if showRowNum {
		parts = append(parts, styled(headerStyle, padRight("#", rowNumWidth), opts.NoColor))
	}
	for i, col := range columns {
		parts = append(parts, styled(headerStyle, padRight(col, widths[i]), opts.NoColor))
	}
	b.WriteString(strings.Join(parts, sep) + "\n")

	lineWidth := 0
	for _, w := range widths {
		lineWidth += w
	}
	lineWidth += sepWidth * (len(widths) - 1)
	if showRowNum {
		lineWidth += rowNumWidth + sepWidth
	}
	b.WriteString(styled(separatorStyle, strings.Repeat("─", lineWidth), opts.NoColor) + "\n")

	for i, row := range flat {
		parts = parts[:0]
		if showRowNum {
			num := padRight(strconv.Itoa(opts.RowOffset+i+1), rowNumWidth)
			parts = append(parts, styled(keyStyle, num, opts.NoColor))
		}
		for j := range columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cell := padRight(val, widths[j])
			switch {
			case i == opts.Selected && opts.Selected >= 0:
				cell = styled(headerStyle, cell, opts.NoColor)
			case expandable != nil && j < len(expandable[i]) && expandable[i][j]:
				cell = styled(expandableStyle, cell, opts.NoColor)
			case j == 0:
				cell = styled(keyStyle, cell, opts.NoColor)
			default:
				cell = styled(valueStyle, cell, opts.NoColor)
			}
			parts = append(parts, cell)
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, sep), " ") + "\n")
	}
	return b.String()
}

func styled(st lipgloss.Style, s string, noColor bool) string {
	if noColor {
		return s
	}
	return st.Render(s)
}

// calculateColumnWidths sizes every column to its widest value, then caps
// and shrinks proportionally when the total exceeds availableWidth.
func calculateColumnWidths(columns []string, rows [][]string, availableWidth int) []int {
	numCols := len(columns)
	widths := make([]int, numCols)
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < numCols {
				if w := runewidth.StringWidth(val); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	usable := availableWidth - (numCols-1)*sepWidth
	if usable <= 0 || sum(widths) <= usable {
		return widths
	}

	for i := range widths {
		if widths[i] > maxColWidth {
			widths[i] = maxColWidth
		}
	}
	total := sum(widths)
	if total <= usable {
		return widths
	}
	for i := range widths {
		w := int(float64(widths[i]) / float64(total) * float64(usable))
		if w < minColWidth {
			w = minColWidth
		}
		widths[i] = w
	}
	// Trim the widest column until the table fits or nothing can shrink.
	for sum(widths) > usable {
		maxIdx := 0
		for i := 1; i < numCols; i++ {
			if widths[i] > widths[maxIdx] {
				maxIdx = i
			}
		}
		if widths[maxIdx] <= minColWidth {
			break
		}
		widths[maxIdx]--
	}
	return widths
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
