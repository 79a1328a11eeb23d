package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/internal/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the bug table interactively",
		Long: `Open an interactive, full-screen bug table.

Cached bugs are shown right away; stale or missing data is refreshed in the
background. Logs are written to bugtable.log in the cache directory while the
view is open.

Keys:
  j/k, arrows   move
  o, space      toggle open bugs only
  1-7           sort by column (press again to reverse)
  r             refresh
  q             quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := initialState(cmd)
			if err != nil {
				return err
			}
			links, err := hyperlinks(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			level := logging.LogLevel(a.cfg.Log.Level)
			closeLog, err := logging.SetupFileLogger(a.cfg.LogFile(), level)
			if err != nil {
				return err
			}
			defer func() {
				closeLog()
				logging.SetupLogger(os.Stderr, level)
			}()

			start := a.loader.Plan(cmd.Context())
			model := tui.New(cmd.Context(), a.table, a.loader, start,
				tui.WithHyperlinks(links),
				tui.WithState(state))

			program := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithOutput(cmd.OutOrStdout()))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("tui failed: %w", err)
			}
			return nil
		},
	}

	addViewFlags(tuiCmd)
	return tuiCmd
}
