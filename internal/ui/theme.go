package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/kvbrowse/internal/formatter"
)

// Theme defines the colors of the browser.
type Theme struct {
	Accent        color.Color // titles, active namespace, help keys
	Muted         color.Color // hints and disabled pager buttons
	SelectedFG    color.Color // cursor row foreground
	SelectedBG    color.Color // cursor row background
	Border        color.Color // pane separators
	StatusError   color.Color
	StatusSuccess color.Color
	Expandable    color.Color // cells that can be expanded
}

// DefaultTheme is the dark palette.
func DefaultTheme() Theme {
	return Theme{
		Accent:        lipgloss.Color("81"),  // cyan
		Muted:         lipgloss.Color("244"), // gray
		SelectedFG:    lipgloss.Color("250"),
		SelectedBG:    lipgloss.Color("24"), // deep teal
		Border:        lipgloss.Color("238"),
		StatusError:   lipgloss.Color("203"),
		StatusSuccess: lipgloss.Color("114"),
		Expandable:    lipgloss.Color("33"),
	}
}

type styles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
	active   lipgloss.Style
	sidebar  lipgloss.Style
	errText  lipgloss.Style
	okText   lipgloss.Style
	helpKey  lipgloss.Style
}

func newStyles(t Theme, noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			title: plain, muted: plain, selected: plain.Reverse(true), active: plain,
			sidebar: plain.PaddingRight(1), errText: plain, okText: plain, helpKey: plain,
		}
	}
	formatter.SetTableTheme(formatter.TableColors{
		HeaderFG:        t.Accent,
		ExpandableColor: t.Expandable,
		SeparatorColor:  t.Border,
	})
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		muted:    lipgloss.NewStyle().Foreground(t.Muted),
		selected: lipgloss.NewStyle().Foreground(t.SelectedFG).Background(t.SelectedBG),
		active:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(t.Border).
			PaddingRight(1),
		errText: lipgloss.NewStyle().Foreground(t.StatusError),
		okText:  lipgloss.NewStyle().Foreground(t.StatusSuccess),
		helpKey: lipgloss.NewStyle().Foreground(t.Accent),
	}
}
