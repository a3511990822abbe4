package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvbrowse/internal/aggregator"
	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
	"github.com/oakwood-commons/kvbrowse/internal/kvstore/kvstoretest"
	"github.com/oakwood-commons/kvbrowse/internal/session"
)

func newTestModel(t *testing.T, mem *kvstoretest.Memory) *Model {
	t.Helper()
	m := New(context.Background(), aggregator.New(mem), Options{NoColor: true, PageSize: 10, ExportDir: t.TempDir()})
	run(m, m.Init())
	return m
}

// run executes cmd synchronously and feeds its message back.
func run(m *Model, cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg != nil {
		m.Update(msg)
	}
	return msg
}

func press(m *Model, key string) tea.Cmd {
	var msg tea.KeyPressMsg
	switch key {
	case "enter":
		msg = tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		msg = tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		msg = tea.KeyPressMsg{Code: tea.KeyTab}
	case "down":
		msg = tea.KeyPressMsg{Code: tea.KeyDown}
	case "ctrl+c":
		msg = tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	default:
		msg = tea.KeyPressMsg{Code: []rune(key)[0], Text: key}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func typeText(m *Model, s string) {
	for _, r := range s {
		press(m, string(r))
	}
}

func seeded(n int) *kvstoretest.Memory {
	mem := kvstoretest.NewMemory()
	mem.AddNamespace("ns1", "Users")
	mem.AddNamespace("ns2", "Sessions")
	for i := 1; i <= n; i++ {
		mem.Put("ns1", kvstore.Key{Name: fmt.Sprintf("key-%02d", i)}, []byte(fmt.Sprintf(`{"n":%d}`, i)))
	}
	return mem
}

func openFirst(t *testing.T, m *Model) {
	t.Helper()
	msg := run(m, press(m, "enter"))
	require.IsType(t, entriesMsg{}, msg)
	require.NoError(t, msg.(entriesMsg).err)
}

func TestInitLoadsNamespaces(t *testing.T) {
	m := newTestModel(t, seeded(0))

	assert.Equal(t, ListReady, m.ListState)
	require.Len(t, m.Namespaces, 2)
	out := m.Render()
	assert.Contains(t, out, "Users")
	assert.Contains(t, out, "Sessions")
	assert.Contains(t, out, SelectNamespaceMessage)
}

func TestNamespaceListStates(t *testing.T) {
	m := newTestModel(t, kvstoretest.NewMemory())
	assert.Contains(t, m.Render(), NoNamespacesMessage)

	mem := kvstoretest.NewMemory()
	mem.NamespacesErr = errors.New("denied")
	m = newTestModel(t, mem)
	assert.Equal(t, ListError, m.ListState)
	out := m.Render()
	assert.Contains(t, out, "Error loading namespaces.")
	assert.Contains(t, out, "Please try again.")
	assert.NotContains(t, out, NoNamespacesMessage)

	mem.NamespacesErr = nil
	mem.AddNamespace("x", "Recovered")
	run(m, press(m, "r"))
	assert.Equal(t, ListReady, m.ListState)
	assert.Contains(t, m.Render(), "Recovered")
}

func TestWrapWords(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "fits", in: "No KV namespaces found.", width: 25, want: "No KV namespaces found."},
		{name: "two lines", in: NamespaceErrorMessage, width: sidebarTextWidth, want: "Error loading namespaces.\nPlease try again."},
		{name: "long word", in: "a supercalifragilistic b", width: 5, want: "a\nsupercalifragilistic\nb"},
		{name: "empty", in: "", width: 10, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapWords(tt.in, tt.width))
		})
	}
}

func TestSelectNamespaceShowsFirstPage(t *testing.T) {
	m := newTestModel(t, seeded(25))
	openFirst(t, m)

	assert.Equal(t, PaneEntries, m.Focus)
	v := m.Session.View()
	assert.Equal(t, session.StateReady, v.State)
	assert.Len(t, v.Page.Items, 10)
	out := m.Render()
	assert.Contains(t, out, "key-01")
	assert.Contains(t, out, "key-10")
	assert.NotContains(t, out, "key-11")
	assert.Contains(t, out, "page 1 of 3")
	assert.Contains(t, out, "[1]")
}

func TestSelectSecondNamespace(t *testing.T) {
	m := newTestModel(t, seeded(3))
	press(m, "down")
	assert.Equal(t, 1, m.NSCursor)
	openFirst(t, m)
	assert.Equal(t, "Sessions", m.Session.View().Namespace.Title)
	assert.Contains(t, m.Render(), "No data in this namespace.")
}

func TestLoadErrorShown(t *testing.T) {
	mem := seeded(3)
	mem.ListKeysErr = errors.New("boom")
	m := newTestModel(t, mem)

	msg := run(m, press(m, "enter"))
	require.Error(t, msg.(entriesMsg).err)
	assert.Contains(t, m.Render(), session.LoadErrorMessage)
}

func TestStaleResultIgnored(t *testing.T) {
	m := newTestModel(t, seeded(3))
	openFirst(t, m)
	m.Update(entriesMsg{namespace: dataset.Namespace{ID: "ns2"}, err: session.ErrStaleSelection})
	assert.Equal(t, "ns1", m.Session.View().Namespace.ID)
	assert.Empty(t, m.StatusMsg)
}

func TestPagingKeys(t *testing.T) {
	m := newTestModel(t, seeded(35))
	openFirst(t, m)

	press(m, "n")
	assert.Equal(t, 2, m.Session.View().Page.Number)
	press(m, "G")
	assert.Equal(t, 4, m.Session.View().Page.Number)
	assert.Contains(t, m.Render(), "key-35")
	press(m, "p")
	assert.Equal(t, 3, m.Session.View().Page.Number)
	press(m, "g")
	assert.Equal(t, 1, m.Session.View().Page.Number)

	press(m, "j")
	press(m, "j")
	assert.Equal(t, 2, m.Row)
	for range 20 {
		press(m, "j")
	}
	assert.Equal(t, 9, m.Row)
	press(m, "G")
	assert.Equal(t, 4, m.Row, "cursor is clamped to the shorter last page")
}

func TestSearchFiltersAndResetsPage(t *testing.T) {
	m := newTestModel(t, seeded(35))
	openFirst(t, m)
	press(m, "n")

	press(m, "/")
	require.True(t, m.Searching)
	typeText(m, "key-3")
	assert.Equal(t, "key-3", m.Session.Search())
	v := m.Session.View()
	assert.Equal(t, 1, v.Page.Number)
	assert.Equal(t, 6, v.Matches)
	assert.Contains(t, m.Render(), "6 of 35 entries")

	press(m, "enter")
	assert.False(t, m.Searching)
	assert.Equal(t, "key-3", m.Session.Search())

	typeText(m, "zz")
	assert.Equal(t, "key-3", m.Session.Search(), "typing outside search mode does not edit the term")

	press(m, "/")
	typeText(m, "zz")
	assert.Contains(t, m.Render(), "No results match your search.")
	press(m, "esc")
	assert.False(t, m.Searching)
	assert.Equal(t, "", m.Session.Search())
	assert.Equal(t, 35, m.Session.View().Matches)
}

func TestExpandCell(t *testing.T) {
	mem := kvstoretest.NewMemory()
	mem.AddNamespace("ns1", "Users")
	mem.Put("ns1", kvstore.Key{Name: "user:1"}, []byte(`{"name":"Ada","profile":{"lang":"go","age":36}}`))
	m := newTestModel(t, mem)
	openFirst(t, m)

	assert.Contains(t, m.Render(), "{ … }")

	press(m, "enter")
	assert.Equal(t, `Nothing to expand in "name"`, m.StatusMsg)
	assert.Empty(t, m.Session.Expanded())

	press(m, "l")
	assert.Equal(t, 1, m.Col)
	press(m, "enter")
	out := m.Render()
	assert.Contains(t, out, "▾ user:1 › profile")
	assert.Contains(t, out, "age: 36")
	assert.Contains(t, out, "lang: go")

	press(m, "enter")
	assert.NotContains(t, m.Render(), "▾ user:1")
}

func TestExportWritesCSV(t *testing.T) {
	m := newTestModel(t, seeded(3))

	assert.Nil(t, press(m, "e"))
	assert.Equal(t, "error", m.StatusType)

	openFirst(t, m)
	var gotPath string
	var gotBody []byte
	m.writeFile = func(name string, data []byte, _ os.FileMode) error {
		gotPath, gotBody = name, data
		return nil
	}
	run(m, press(m, "e"))
	assert.Equal(t, filepath.Join(m.exportDir, "Users_data.csv"), gotPath)
	assert.Equal(t, "key,n,expiration,metadata\nkey-01,1,,\nkey-02,2,,\nkey-03,3,,\n", string(gotBody))
	assert.Equal(t, "success", m.StatusType)
	assert.Contains(t, m.StatusMsg, "Exported 3 rows")

	press(m, "/")
	typeText(m, "key-02")
	press(m, "enter")
	run(m, press(m, "e"))
	assert.Equal(t, "key,n,expiration,metadata\nkey-02,2,,\n", string(gotBody))
	assert.Contains(t, m.StatusMsg, "Exported 1 rows")

	m.writeFile = func(string, []byte, os.FileMode) error { return errors.New("disk full") }
	run(m, press(m, "e"))
	assert.Equal(t, "error", m.StatusType)
	assert.Contains(t, m.StatusMsg, "disk full")
}

func TestExportToDisk(t *testing.T) {
	m := newTestModel(t, seeded(2))
	openFirst(t, m)
	run(m, press(m, "e"))

	data, err := os.ReadFile(filepath.Join(m.exportDir, "Users_data.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "key-02")
}

func TestHelpAndQuit(t *testing.T) {
	m := newTestModel(t, seeded(1))

	press(m, "?")
	assert.True(t, m.HelpVisible)
	assert.Contains(t, m.Render(), "export current view as CSV")
	assert.Nil(t, press(m, "q"))
	assert.False(t, m.HelpVisible)

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = press(m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTabSwitchesPane(t *testing.T) {
	m := newTestModel(t, seeded(1))
	assert.Equal(t, PaneNamespaces, m.Focus)
	press(m, "tab")
	assert.Equal(t, PaneEntries, m.Focus)
	press(m, "tab")
	assert.Equal(t, PaneNamespaces, m.Focus)
}

func TestWindowSizeAndView(t *testing.T) {
	m := newTestModel(t, seeded(1))
	m.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	assert.Equal(t, 90, m.Width)
	assert.Equal(t, 30, m.Height)
	assert.True(t, m.View().AltScreen)
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionDown, ActionFor("j"))
	assert.Equal(t, ActionDown, ActionFor("down"))
	assert.Equal(t, ActionExport, ActionFor("e"))
	assert.Equal(t, ActionNone, ActionFor("x"))
}
