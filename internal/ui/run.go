package ui

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/pageview/pkg/loader"
)

// Run starts the interactive pager and blocks until the user quits or ctx
// is canceled. startKeys are applied before the first frame.
func Run(ctx context.Context, records []loader.Record, opts Options, startKeys []string, progOpts ...tea.ProgramOption) error {
	m, err := New(records, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	ApplyStartupKeys(m, startKeys)

	all := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Width > 0 && opts.Height > 0 {
		all = append(all, tea.WithWindowSize(opts.Width, opts.Height))
	}
	all = append(all, progOpts...)

	if _, err := tea.NewProgram(m, all...).Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}
	return nil
}

// RenderSnapshot renders one frame after applying startKeys. Searches run
// without debounce so the frame reflects every key.
func RenderSnapshot(records []loader.Record, opts Options, startKeys []string) (string, error) {
	opts.Debounce = 0
	m, err := New(records, opts)
	if err != nil {
		return "", err
	}
	defer m.Close()

	ApplyStartupKeys(m, startKeys)
	return m.Render(), nil
}
