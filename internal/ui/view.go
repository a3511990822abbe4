package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/kvbrowse/internal/formatter"
	"github.com/oakwood-commons/kvbrowse/internal/paginator"
	"github.com/oakwood-commons/kvbrowse/internal/session"
	"github.com/oakwood-commons/kvbrowse/pkg/settings"
)

const sidebarWidth = 28

// sidebarTextWidth leaves room for the sidebar's padding and border.
const sidebarTextWidth = sidebarWidth - 3

// View renders the screen.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render returns the screen as text.
func (m *Model) Render() string {
	sidebar := m.styles.sidebar.Width(sidebarWidth).Render(m.renderNamespaces())
	mainWidth := max(20, m.Width-sidebarWidth-3)
	var main string
	if m.HelpVisible {
		main = m.renderHelp()
	} else {
		main = m.renderMain(mainWidth)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", main)
	return body + "\n" + m.renderStatus()
}

func (m *Model) renderNamespaces() string {
	var b strings.Builder
	title := "Namespaces"
	if m.Focus == PaneNamespaces {
		title = "▸ " + title
	}
	b.WriteString(m.styles.title.Render(title) + "\n\n")

	switch {
	case m.ListState == ListLoading:
		b.WriteString(m.styles.muted.Render("Loading..."))
		return b.String()
	case m.ListState == ListError:
		b.WriteString(m.styles.errText.Render(wrapWords(NamespaceErrorMessage, sidebarTextWidth)))
		return b.String()
	case len(m.Namespaces) == 0:
		b.WriteString(m.styles.muted.Render(wrapWords(NoNamespacesMessage, sidebarTextWidth)))
		return b.String()
	}

	current := m.Session.View().Namespace.ID
	for i, ns := range m.Namespaces {
		label := runewidth.Truncate(ns.Title, sidebarWidth-3, "...")
		marker := "  "
		if ns.ID == current {
			marker = "• "
		}
		line := marker + label
		switch {
		case i == m.NSCursor && m.Focus == PaneNamespaces:
			line = m.styles.selected.Render(runewidth.FillRight(line, sidebarWidth-1))
		case ns.ID == current:
			line = m.styles.active.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderMain(width int) string {
	v := m.Session.View()
	var b strings.Builder

	title := v.Namespace.Title
	if title == "" {
		title = settings.CliBinaryName
	}
	b.WriteString(m.styles.title.Render(title) + "\n")

	if m.Searching || v.Search != "" {
		b.WriteString(m.SearchInput.View() + "\n")
	}
	b.WriteString("\n")

	switch v.State {
	case session.StateIdle:
		b.WriteString(m.styles.muted.Render(SelectNamespaceMessage))
		return b.String()
	case session.StateLoading:
		b.WriteString(m.styles.muted.Render("Loading " + title + "..."))
		return b.String()
	case session.StateError:
		b.WriteString(m.styles.errText.Render(session.LoadErrorMessage))
		return b.String()
	}
	if v.Empty != session.EmptyNone {
		b.WriteString(m.styles.muted.Render(v.Empty.Message()))
		return b.String()
	}

	selected := -1
	if m.Focus == PaneEntries {
		selected = m.Row
	}
	b.WriteString(formatter.RenderPage(v.Page.Items, v.Columns, formatter.ColumnarOptions{
		NoColor:    m.NoColor,
		TotalWidth: width,
		RowOffset:  (v.Page.Number - 1) * v.PageSize,
		Selected:   selected,
	}))
	if exp := m.renderExpansions(v); exp != "" {
		b.WriteString("\n" + exp)
	}
	b.WriteString("\n" + m.renderPager(v))
	return b.String()
}

func (m *Model) renderExpansions(v session.PageView) string {
	keys := m.Session.Expanded()
	if len(keys) == 0 {
		return ""
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Column < keys[j].Column
	})
	var b strings.Builder
	for _, k := range keys {
		props, ok := m.Session.Expansion(k.Row, k.Column)
		if !ok || k.Row >= len(v.Page.Items) {
			continue
		}
		b.WriteString(m.styles.active.Render(fmt.Sprintf("▾ %s › %s", v.Page.Items[k.Row].Key, k.Column)) + "\n")
		for _, p := range props {
			b.WriteString("    " + m.styles.helpKey.Render(p.Name) + ": " + p.Text + "\n")
		}
	}
	return b.String()
}

// renderPager draws the page buttons: Prev, a window of at most five page
// numbers around the current page, Next.
func (m *Model) renderPager(v session.PageView) string {
	p := v.Page
	if p.TotalPages == 0 {
		return ""
	}
	parts := make([]string, 0, paginator.WindowSize+2)
	parts = append(parts, m.pagerButton("« Prev", p.PrevDisabled))
	for _, n := range p.Window() {
		label := strconv.Itoa(n)
		if n == p.Number {
			parts = append(parts, m.styles.active.Render("["+label+"]"))
			continue
		}
		parts = append(parts, label)
	}
	parts = append(parts, m.pagerButton("Next »", p.NextDisabled))

	count := fmt.Sprintf("%d entries", v.Total)
	if strings.TrimSpace(v.Search) != "" {
		count = fmt.Sprintf("%d of %d entries", v.Matches, v.Total)
	}
	info := fmt.Sprintf("page %d of %d · %s", p.Number, p.TotalPages, count)
	if col, ok := m.currentColumn(); ok && m.Focus == PaneEntries {
		info += " · column " + col
	}
	return strings.Join(parts, " ") + "   " + m.styles.muted.Render(info)
}

func (m *Model) pagerButton(label string, disabled bool) string {
	if disabled {
		return m.styles.muted.Render(label)
	}
	return label
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Keys") + "\n\n")
	for _, l := range helpLines {
		b.WriteString(m.styles.helpKey.Render(runewidth.FillRight(l[0], 10)) + " " + l[1] + "\n")
	}
	b.WriteString("\n" + m.styles.muted.Render("press ? or esc to close"))
	return b.String()
}

func (m *Model) renderStatus() string {
	switch m.StatusType {
	case "error":
		return m.styles.errText.Render(m.StatusMsg)
	case "success":
		return m.styles.okText.Render(m.StatusMsg)
	}
	if m.StatusMsg != "" {
		return m.StatusMsg
	}
	return m.styles.muted.Render("? help · / search · e export · q quit")
}

// wrapWords breaks s between words so no line is wider than width. A word
// wider than width gets a line of its own.
func wrapWords(s string, width int) string {
	var lines []string
	line := ""
	for _, w := range strings.Fields(s) {
		switch {
		case line == "":
			line = w
		case runewidth.StringWidth(line)+1+runewidth.StringWidth(w) <= width:
			line += " " + w
		default:
			lines = append(lines, line)
			line = w
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
