// Package session holds the browsing state of one operator: the selected
// namespace, its full and filtered entries, the search term, the current
// page and which cells are expanded. Every mutation goes through one mutex.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/formatter"
	"github.com/oakwood-commons/kvbrowse/internal/paginator"
	"github.com/oakwood-commons/kvbrowse/internal/schema"
)

// ErrStaleSelection is returned by SelectNamespace when a newer selection
// superseded the load before it finished. Its result was discarded.
var ErrStaleSelection = errors.New("namespace selection superseded")

// ErrNothingToExport is returned by Export before a namespace is loaded.
var ErrNothingToExport = errors.New("no namespace loaded")

// Loader fetches every entry of a namespace.
type Loader interface {
	FetchEntries(ctx context.Context, namespaceID string) ([]dataset.Entry, error)
}

// State is the load state of the selected namespace.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// LoadErrorMessage is shown when a namespace load fails.
const LoadErrorMessage = "Error loading KV data. Please try again."

// EmptyState tells an empty page apart from an empty search result.
type EmptyState int

const (
	EmptyNone EmptyState = iota
	EmptyNoData
	EmptyNoMatches
)

// Message is the text shown in place of the table.
func (e EmptyState) Message() string {
	switch e {
	case EmptyNoData:
		return "No data in this namespace."
	case EmptyNoMatches:
		return "No results match your search."
	default:
		return ""
	}
}

// ExpansionKey addresses one cell of the current page.
type ExpansionKey struct {
	Row    int
	Column string
}

// PageView is a snapshot of what to render.
type PageView struct {
	Namespace dataset.Namespace
	State     State
	Err       error
	Search    string
	Page      paginator.Page[dataset.Entry]
	PageSize  int
	Columns   schema.Columns
	Empty     EmptyState
	// Matches counts the entries the search kept; Total counts all loaded.
	Matches int
	Total   int
}

// Session is the browsing state. The zero value is not usable; call New.
type Session struct {
	mu       sync.Mutex
	loader   Loader
	pageSize int

	state     State
	err       error
	namespace dataset.Namespace
	all       []dataset.Entry
	filtered  []dataset.Entry
	search    string
	page      int
	expanded  map[ExpansionKey]bool
	gen       uint64
	cancel    context.CancelFunc
}

// New returns an idle session. A non-positive pageSize uses
// paginator.DefaultPageSize.
func New(loader Loader, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = paginator.DefaultPageSize
	}
	return &Session{
		loader:   loader,
		pageSize: pageSize,
		page:     1,
		expanded: make(map[ExpansionKey]bool),
	}
}

// SelectNamespace discards the current datasets, clears the search and
// loads ns. A load still running for an earlier selection is cancelled,
// and if it completes anyway its result is dropped with ErrStaleSelection.
func (s *Session) SelectNamespace(ctx context.Context, ns dataset.Namespace) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.namespace = ns
	s.state = StateLoading
	s.err = nil
	s.all, s.filtered = nil, nil
	s.search = ""
	s.resetViewLocked()
	s.mu.Unlock()

	entries, err := s.loader.FetchEntries(loadCtx, ns.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrStaleSelection
	}
	cancel()
	s.cancel = nil
	if err != nil {
		s.state = StateError
		s.err = err
		return err
	}
	s.state = StateReady
	s.all = entries
	s.filtered = dataset.Filter(s.all, s.search)
	return nil
}

// Close cancels any load in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// SetSearch replaces the search term, recomputes the filtered entries from
// the full set and returns to page 1.
func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
	s.filtered = dataset.Filter(s.all, term)
	s.resetViewLocked()
}

// Search returns the current search term.
func (s *Session) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// SetPage moves to page n, clamped to the available pages.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPageLocked(n)
}

// NextPage moves forward one page if possible.
func (s *Session) NextPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPageLocked(s.page + 1)
}

// PrevPage moves back one page if possible.
func (s *Session) PrevPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPageLocked(s.page - 1)
}

func (s *Session) setPageLocked(n int) {
	total := paginator.TotalPages(len(s.filtered), s.pageSize)
	n = paginator.ClampPage(n, total)
	if n != s.page {
		s.page = n
		clear(s.expanded)
	}
}

func (s *Session) resetViewLocked() {
	s.page = 1
	clear(s.expanded)
}

// View returns the current page and the column layout derived from the
// governing dataset: the filtered entries when a search is active, else
// every entry.
func (s *Session) View() PageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := PageView{
		Namespace: s.namespace,
		State:     s.state,
		Err:       s.err,
		Search:    s.search,
		PageSize:  s.pageSize,
		Matches:   len(s.filtered),
		Total:     len(s.all),
	}
	governing := s.governingLocked()
	v.Columns = schema.DeriveColumns(governing)
	v.Page = paginator.Paginate(s.filtered, s.page, s.pageSize)
	if s.state == StateReady && len(v.Page.Items) == 0 {
		if s.searchActiveLocked() {
			v.Empty = EmptyNoMatches
		} else {
			v.Empty = EmptyNoData
		}
	}
	return v
}

// ToggleExpansion flips the expansion of the cell at row (within the
// current page) and column. It reports the properties to show and whether
// the cell is now expanded; cells with nothing to expand never toggle.
func (s *Session) ToggleExpansion(row int, column string) ([]formatter.Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.resolveLocked(row, column)
	if !ok {
		return nil, false
	}
	key := ExpansionKey{Row: row, Column: column}
	if s.expanded[key] {
		delete(s.expanded, key)
		return props, false
	}
	s.expanded[key] = true
	return props, true
}

// Expansion returns the properties of an expanded cell.
func (s *Session) Expansion(row int, column string) ([]formatter.Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expanded[ExpansionKey{Row: row, Column: column}] {
		return nil, false
	}
	return s.resolveLocked(row, column)
}

// Expanded lists the expanded cells of the current page.
func (s *Session) Expanded() []ExpansionKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExpansionKey, 0, len(s.expanded))
	for k := range s.expanded {
		out = append(out, k)
	}
	return out
}

func (s *Session) resolveLocked(row int, column string) ([]formatter.Property, bool) {
	page := paginator.Paginate(s.filtered, s.page, s.pageSize)
	if row < 0 || row >= len(page.Items) {
		return nil, false
	}
	cols := schema.DeriveColumns(s.governingLocked())
	return formatter.ResolveExpansion(page.Items[row], cols, column)
}

// Export renders the entries currently in view as CSV: the filtered set
// when a search is active, else every entry. It returns the download file
// name and the CSV text.
func (s *Session) Export() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return "", "", fmt.Errorf("export: %w", ErrNothingToExport)
	}
	title := s.namespace.Title
	if title == "" {
		title = s.namespace.ID
	}
	return formatter.ExportFilename(title), formatter.ToCSV(s.governingLocked()), nil
}

func (s *Session) searchActiveLocked() bool {
	return strings.TrimSpace(s.search) != ""
}

func (s *Session) governingLocked() []dataset.Entry {
	if s.searchActiveLocked() {
		return s.filtered
	}
	return s.all
}
