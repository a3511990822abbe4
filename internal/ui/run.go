package ui

import (
	"context"

	tea "charm.land/bubbletea/v2"
)

// Run starts the browser and blocks until the user quits. Extra program
// options (custom IO, fixed window size) are passed to tea.NewProgram.
func Run(ctx context.Context, f Fetcher, opts Options, progOpts ...tea.ProgramOption) error {
	m := New(ctx, f, opts)
	defer m.Session.Close()
	_, err := tea.NewProgram(m, progOpts...).Run()
	return err
}
