// Package schema decides how a set of entries is laid out as columns.
//
// A dataset is shown in one of two modes. In scalar mode every entry's value
// sits under a single "value" column. In decomposed mode the top-level
// properties of object values become columns of their own. Rendering,
// expansion, search results and CSV export all ask DeriveColumns, so they
// agree whenever they look at the same entries.
package schema

import (
	"sort"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
)

// ValueColumn is the single column of scalar mode.
const ValueColumn = "value"

// Mode is the layout a dataset is rendered in.
type Mode int

const (
	ModeScalar Mode = iota
	ModeDecomposed
)

func (m Mode) String() string {
	if m == ModeDecomposed {
		return "decomposed"
	}
	return "scalar"
}

// Columns is the derived layout of a dataset.
type Columns struct {
	Mode  Mode
	Names []string
}

// Decomposed reports whether the layout splits object values into columns.
func (c Columns) Decomposed() bool {
	return c.Mode == ModeDecomposed
}

// Has reports whether name is one of the derived columns.
func (c Columns) Has(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

// IsDecomposable reports whether v is an object with at least one property.
func IsDecomposable(v any) bool {
	m, ok := v.(map[string]any)
	return ok && len(m) > 0
}

// DeriveColumns returns the decomposed layout when any entry holds a
// decomposable value: the sorted union of their top-level property names.
// Otherwise it returns the scalar layout.
func DeriveColumns(entries []dataset.Entry) Columns {
	seen := make(map[string]struct{})
	for _, e := range entries {
		m, ok := e.Value.(map[string]any)
		if !ok || len(m) == 0 {
			continue
		}
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return Columns{Mode: ModeScalar, Names: []string{ValueColumn}}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return Columns{Mode: ModeDecomposed, Names: names}
}

// Header returns the full header row for a layout: key, the derived
// columns, expiration and metadata.
func (c Columns) Header() []string {
	out := make([]string, 0, len(c.Names)+3)
	out = append(out, "key")
	out = append(out, c.Names...)
	return append(out, "expiration", "metadata")
}
