package formatter

import (
	"io"
	"regexp"
	"strings"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/schema"
)

// CSVContentType is the MIME type of exported files.
const CSVContentType = "text/csv; charset=utf-8"

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFilename derives the download name from a namespace title.
func ExportFilename(title string) string {
	return whitespaceRun.ReplaceAllString(title, "_") + "_data.csv"
}

// ToCSV serializes entries with the layout DeriveColumns picks for them.
// Callers pass the filtered entries while a search is active so the export
// matches what is on screen.
func ToCSV(entries []dataset.Entry) string {
	var b strings.Builder
	_ = WriteCSV(&b, entries)
	return b.String()
}

// WriteCSV streams the CSV form of entries to w.
func WriteCSV(w io.Writer, entries []dataset.Entry) error {
	return WriteCSVColumns(w, entries, schema.DeriveColumns(entries))
}

// WriteCSVColumns streams entries under a layout derived elsewhere, such as
// one page written with the columns of the whole result.
func WriteCSVColumns(w io.Writer, entries []dataset.Entry, cols schema.Columns) error {
	if err := writeCSVRow(w, cols.Header()); err != nil {
		return err
	}
	row := make([]string, 0, len(cols.Names)+3)
	for _, e := range entries {
		row = row[:0]
		row = append(row, e.Key)
		for _, c := range cols.Names {
			v, ok := columnValue(e, cols, c)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, csvText(v))
		}
		row = append(row, e.ExpirationText())
		if e.Metadata != nil {
			row = append(row, dataset.JSONText(e.Metadata))
		} else {
			row = append(row, "")
		}
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVRow(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeCSVField(f))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// EscapeCSVField quotes a field that contains a comma, a double quote or a
// newline, doubling inner quotes. Other fields are returned unchanged.
func EscapeCSVField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvText is the unescaped text of a value. Null exports as an empty field.
func csvText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return dataset.JSONText(t)
	}
}
