package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	var week, day string

	cmd := required(&cobra.Command{
		Use:   "board",
		Short: "Browse and edit the calendar interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("%w: use `weekgrid cal` instead", errNotInteractive)
			}
			w, d, err := parseCell(week, day)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newBoardModel(app.Planner, w, d),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	})

	cmd.Flags().StringVar(&week, "week", "1", "Week to open (1-4)")
	cmd.Flags().StringVar(&day, "day", "mon", "Day to open")
	return cmd
}
