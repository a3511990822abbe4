package ui

// Action is what a key press does outside of search input.
type Action string

const (
	ActionNone        Action = ""
	ActionDown        Action = "down"
	ActionUp          Action = "up"
	ActionLeft        Action = "left"
	ActionRight       Action = "right"
	ActionEnter       Action = "enter"
	ActionNextPage    Action = "next_page"
	ActionPrevPage    Action = "prev_page"
	ActionFirstPage   Action = "first_page"
	ActionLastPage    Action = "last_page"
	ActionSearch      Action = "search"
	ActionClearSearch Action = "clear_search"
	ActionExport      Action = "export"
	ActionSwitchPane  Action = "switch_pane"
	ActionReload      Action = "reload"
	ActionHelp        Action = "help"
	ActionQuit        Action = "quit"
)

// KeyBindings maps key strings, as reported by tea.KeyMsg.String, to
// actions. Vim-style keys and arrows both work.
var KeyBindings = map[string]Action{
	"j":      ActionDown,
	"down":   ActionDown,
	"k":      ActionUp,
	"up":     ActionUp,
	"h":      ActionLeft,
	"left":   ActionLeft,
	"l":      ActionRight,
	"right":  ActionRight,
	"enter":  ActionEnter,
	"space":  ActionEnter,
	"n":      ActionNextPage,
	"pgdown": ActionNextPage,
	"]":      ActionNextPage,
	"p":      ActionPrevPage,
	"pgup":   ActionPrevPage,
	"[":      ActionPrevPage,
	"g":      ActionFirstPage,
	"home":   ActionFirstPage,
	"G":      ActionLastPage,
	"end":    ActionLastPage,
	"/":      ActionSearch,
	"esc":    ActionClearSearch,
	"e":      ActionExport,
	"tab":    ActionSwitchPane,
	"r":      ActionReload,
	"?":      ActionHelp,
	"f1":     ActionHelp,
	"q":      ActionQuit,
	"ctrl+c": ActionQuit,
}

// ActionFor resolves a key string.
func ActionFor(key string) Action {
	return KeyBindings[key]
}

// helpLines is the key reference shown by ActionHelp.
var helpLines = [][2]string{
	{"tab", "switch between namespaces and entries"},
	{"j/k ↑/↓", "move the cursor"},
	{"h/l ←/→", "choose the column to expand"},
	{"enter", "open namespace / expand or collapse cell"},
	{"n/p ]/[", "next / previous page"},
	{"g/G", "first / last page"},
	{"/", "search all fields"},
	{"esc", "clear search"},
	{"e", "export current view as CSV"},
	{"r", "reload namespaces"},
	{"?", "toggle this help"},
	{"q", "quit"},
}
