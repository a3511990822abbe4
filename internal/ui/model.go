// Package ui is the interactive terminal browser. It owns one
// session.Session: a namespace list on the left, the current page of
// entries on the right, a search input, cell expansion and CSV export.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/session"
	"github.com/oakwood-commons/kvbrowse/pkg/logger"
)

// Fetcher loads namespaces and entries.
type Fetcher interface {
	FetchNamespaces(ctx context.Context) ([]dataset.Namespace, error)
	FetchEntries(ctx context.Context, namespaceID string) ([]dataset.Entry, error)
}

// Pane is the part of the screen that receives navigation keys.
type Pane int

const (
	PaneNamespaces Pane = iota
	PaneEntries
)

// ListState is the load state of the namespace list.
type ListState int

const (
	ListLoading ListState = iota
	ListReady
	ListError
)

// Namespace list messages.
const (
	NoNamespacesMessage    = "No KV namespaces found."
	NamespaceErrorMessage  = "Error loading namespaces. Please try again."
	SelectNamespaceMessage = "Select a namespace to view its data."
)

type namespacesMsg struct {
	namespaces []dataset.Namespace
	err        error
}

type entriesMsg struct {
	namespace dataset.Namespace
	err       error
}

type exportMsg struct {
	path string
	rows int
	err  error
}

// Options configures a Model.
type Options struct {
	NoColor   bool
	PageSize  int
	ExportDir string // where CSV exports are written; "" is the working directory
	Theme     *Theme
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	fetcher Fetcher
	Session *session.Session

	Namespaces []dataset.Namespace
	ListState  ListState
	ListErr    error
	NSCursor   int
	Focus      Pane

	// Row is the cursor row within the current page, Col the index of the
	// selected column among the layout's value columns.
	Row int
	Col int

	SearchInput textinput.Model
	Searching   bool

	StatusMsg   string
	StatusType  string // "error", "success" or ""
	HelpVisible bool

	Width   int
	Height  int
	NoColor bool

	exportDir string
	writeFile func(name string, data []byte, perm os.FileMode) error
	styles    styles
}

// New builds a Model. ctx bounds every fetch the browser starts.
func New(ctx context.Context, f Fetcher, opts Options) *Model {
	si := textinput.New()
	si.Placeholder = "Search data..."
	si.Prompt = "/ "
	si.CharLimit = 500

	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	return &Model{
		ctx:         ctx,
		fetcher:     f,
		Session:     session.New(f, opts.PageSize),
		ListState:   ListLoading,
		SearchInput: si,
		Width:       120,
		Height:      40,
		NoColor:     opts.NoColor,
		exportDir:   opts.ExportDir,
		writeFile:   os.WriteFile,
		styles:      newStyles(theme, opts.NoColor),
	}
}

// Init starts loading the namespace list.
func (m *Model) Init() tea.Cmd {
	return m.loadNamespaces()
}

func (m *Model) loadNamespaces() tea.Cmd {
	m.ListState = ListLoading
	ctx, f := m.ctx, m.fetcher
	return func() tea.Msg {
		out, err := f.FetchNamespaces(ctx)
		return namespacesMsg{namespaces: out, err: err}
	}
}

func (m *Model) selectNamespace(ns dataset.Namespace) tea.Cmd {
	m.Row, m.Col = 0, 0
	m.Searching = false
	m.SearchInput.Blur()
	m.SearchInput.SetValue("")
	m.StatusMsg, m.StatusType = "", ""
	ctx, s := m.ctx, m.Session
	return func() tea.Msg {
		return entriesMsg{namespace: ns, err: s.SelectNamespace(ctx, ns)}
	}
}

func (m *Model) export() tea.Cmd {
	name, body, err := m.Session.Export()
	if err != nil {
		m.setError("Nothing to export: select a namespace first")
		return nil
	}
	v := m.Session.View()
	rows := v.Total
	if strings.TrimSpace(v.Search) != "" {
		rows = v.Matches
	}
	path := filepath.Join(m.exportDir, name)
	write := m.writeFile
	return func() tea.Msg {
		return exportMsg{path: path, rows: rows, err: write(path, []byte(body), 0o600)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil

	case namespacesMsg:
		if msg.err != nil {
			m.ListState = ListError
			m.ListErr = msg.err
			logger.FromContext(m.ctx).Error(msg.err, "list namespaces failed")
			return m, nil
		}
		m.ListState = ListReady
		m.ListErr = nil
		m.Namespaces = msg.namespaces
		if m.NSCursor >= len(m.Namespaces) {
			m.NSCursor = max(0, len(m.Namespaces)-1)
		}
		return m, nil

	case entriesMsg:
		switch {
		case errors.Is(msg.err, session.ErrStaleSelection):
		case msg.err != nil:
			logger.FromContext(m.ctx).Error(msg.err, "load namespace failed", logger.NamespaceKey, msg.namespace.ID)
		default:
			m.clampCursor()
		}
		return m, nil

	case exportMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Export failed: %v", msg.err))
			return m, nil
		}
		m.StatusMsg = fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.path)
		m.StatusType = "success"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.Searching {
		var cmd tea.Cmd
		m.SearchInput, cmd = m.SearchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.HelpVisible {
		if a := ActionFor(key); a == ActionHelp || a == ActionClearSearch || a == ActionQuit {
			m.HelpVisible = false
		}
		return m, nil
	}
	if m.Searching {
		return m.handleSearchKey(msg, key)
	}

	switch ActionFor(key) {
	case ActionQuit:
		return m, tea.Quit
	case ActionHelp:
		m.HelpVisible = true
	case ActionSwitchPane:
		if m.Focus == PaneNamespaces {
			m.Focus = PaneEntries
		} else {
			m.Focus = PaneNamespaces
		}
	case ActionDown:
		m.moveCursor(1)
	case ActionUp:
		m.moveCursor(-1)
	case ActionLeft:
		m.moveColumn(-1)
	case ActionRight:
		m.moveColumn(1)
	case ActionEnter:
		return m, m.enter()
	case ActionNextPage:
		m.Session.NextPage()
		m.clampCursor()
	case ActionPrevPage:
		m.Session.PrevPage()
		m.clampCursor()
	case ActionFirstPage:
		m.Session.SetPage(1)
		m.clampCursor()
	case ActionLastPage:
		m.Session.SetPage(m.Session.View().Page.TotalPages)
		m.clampCursor()
	case ActionSearch:
		m.Searching = true
		term := m.Session.Search()
		m.SearchInput.SetValue(term)
		m.SearchInput.SetCursor(len(term))
		return m, m.SearchInput.Focus()
	case ActionClearSearch:
		if m.Session.Search() != "" {
			m.applySearch("")
		}
		m.StatusMsg, m.StatusType = "", ""
	case ActionExport:
		return m, m.export()
	case ActionReload:
		return m, m.loadNamespaces()
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg, key string) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		m.Searching = false
		m.SearchInput.Blur()
		return m, nil
	case "esc":
		m.Searching = false
		m.SearchInput.Blur()
		m.SearchInput.SetValue("")
		m.applySearch("")
		return m, nil
	}
	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	if v := m.SearchInput.Value(); v != m.Session.Search() {
		m.applySearch(v)
	}
	return m, cmd
}

func (m *Model) applySearch(term string) {
	m.Session.SetSearch(term)
	m.Row = 0
	m.clampCursor()
}

func (m *Model) enter() tea.Cmd {
	if m.Focus == PaneNamespaces {
		if m.ListState != ListReady || len(m.Namespaces) == 0 {
			return nil
		}
		m.Focus = PaneEntries
		return m.selectNamespace(m.Namespaces[m.NSCursor])
	}
	col, ok := m.currentColumn()
	if !ok {
		return nil
	}
	if props, _ := m.Session.ToggleExpansion(m.Row, col); props == nil {
		m.StatusMsg, m.StatusType = fmt.Sprintf("Nothing to expand in %q", col), ""
	}
	return nil
}

func (m *Model) moveCursor(delta int) {
	if m.Focus == PaneNamespaces {
		m.NSCursor = clamp(m.NSCursor+delta, 0, len(m.Namespaces)-1)
		return
	}
	v := m.Session.View()
	m.Row = clamp(m.Row+delta, 0, len(v.Page.Items)-1)
}

func (m *Model) moveColumn(delta int) {
	if m.Focus != PaneEntries {
		return
	}
	names := m.Session.View().Columns.Names
	m.Col = clamp(m.Col+delta, 0, len(names)-1)
}

func (m *Model) currentColumn() (string, bool) {
	names := m.Session.View().Columns.Names
	if m.Col < 0 || m.Col >= len(names) {
		return "", false
	}
	return names[m.Col], true
}

func (m *Model) clampCursor() {
	v := m.Session.View()
	m.Row = clamp(m.Row, 0, len(v.Page.Items)-1)
	m.Col = clamp(m.Col, 0, len(v.Columns.Names)-1)
}

func (m *Model) setError(msg string) {
	m.StatusMsg = msg
	m.StatusType = "error"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
