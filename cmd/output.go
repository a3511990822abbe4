package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/formatter"
	"github.com/oakwood-commons/kvbrowse/internal/paginator"
	"github.com/oakwood-commons/kvbrowse/internal/schema"
	"github.com/oakwood-commons/kvbrowse/internal/session"
)

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeYAML(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func writeTOML(w io.Writer, v any) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal toml: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// printNamespaces writes the namespace list in the requested format.
func printNamespaces(w io.Writer, nss []dataset.Namespace, format string) error {
	switch format {
	case "json":
		return writeJSON(w, nss)
	case "yaml":
		return writeYAML(w, namespaceDocs(nss))
	case "toml":
		// toml documents need a table at the top.
		return writeTOML(w, map[string]any{"namespaces": namespaceDocs(nss)})
	}
	if len(nss) == 0 {
		_, err := fmt.Fprintln(w, "No KV namespaces found.")
		return err
	}
	rows := make([][]string, len(nss))
	for i, ns := range nss {
		rows[i] = []string{ns.ID, ns.Title}
	}
	_, err := fmt.Fprint(w, formatter.RenderColumnarTable([]string{"id", "title"}, rows, formatter.ColumnarOptions{
		NoColor:    noColor,
		TotalWidth: width,
		Selected:   -1,
	}))
	return err
}

func namespaceDocs(nss []dataset.Namespace) []map[string]any {
	out := make([]map[string]any, len(nss))
	for i, ns := range nss {
		out[i] = map[string]any{"id": ns.ID, "title": ns.Title}
	}
	return out
}

func entryDocs(entries []dataset.Entry) []map[string]any {
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[i] = e.Fields()
	}
	return out
}

// entryListing is what `entries` prints: the governing set (filtered, or
// everything when no filter is active), the page of it to show and the
// size of the whole namespace.
type entryListing struct {
	Governing []dataset.Entry
	Page      paginator.Page[dataset.Entry]
	PageSize  int
	Total     int
	Filtered  bool
}

// printEntries writes entries in the requested format. Only the table is
// paged unless a page was asked for explicitly.
func printEntries(w io.Writer, l entryListing, format string, paged bool) error {
	rows := l.Governing
	if paged {
		rows = l.Page.Items
	}
	switch format {
	case "json":
		return writeJSON(w, rows)
	case "yaml":
		return writeYAML(w, entryDocs(rows))
	case "csv":
		return formatter.WriteCSVColumns(w, rows, schema.DeriveColumns(l.Governing))
	}
	return printEntryTable(w, l)
}

func printEntryTable(w io.Writer, l entryListing) error {
	if len(l.Governing) == 0 {
		empty := session.EmptyNoData
		if l.Filtered {
			empty = session.EmptyNoMatches
		}
		_, err := fmt.Fprintln(w, empty.Message())
		return err
	}
	cols := schema.DeriveColumns(l.Governing)
	table := formatter.RenderPage(l.Page.Items, cols, formatter.ColumnarOptions{
		NoColor:    noColor,
		TotalWidth: width,
		RowOffset:  (l.Page.Number - 1) * l.PageSize,
		Selected:   -1,
	})
	if _, err := fmt.Fprint(w, table); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, pagerFooter(l))
	return err
}

// pagerFooter renders the page window below the table, e.g.
// "« 1 [2] 3 4 5 »  page 2 of 9 · 270 entries".
func pagerFooter(l entryListing) string {
	p := l.Page
	var b strings.Builder
	if !p.PrevDisabled {
		b.WriteString("« ")
	}
	for _, n := range p.Window() {
		if n == p.Number {
			b.WriteString("[" + strconv.Itoa(n) + "] ")
		} else {
			b.WriteString(strconv.Itoa(n) + " ")
		}
	}
	if !p.NextDisabled {
		b.WriteString("» ")
	}
	fmt.Fprintf(&b, " page %d of %d · ", p.Number, p.TotalPages)
	if l.Filtered {
		fmt.Fprintf(&b, "%d of %d entries", len(l.Governing), l.Total)
	} else {
		fmt.Fprintf(&b, "%d entries", l.Total)
	}
	return b.String()
}
