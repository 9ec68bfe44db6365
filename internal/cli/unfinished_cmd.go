package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newUnfinishedCmd(app *App) *cobra.Command {
	cmd := required(&cobra.Command{
		Use:   "unfinished",
		Short: "List task entries on past dates that are not done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Planner.Unfinished()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatUnfinished(app.Planner.Snapshot(), entries))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "done N",
		Short: "Mark the Nth unfinished entry done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.Planner.Unfinished()
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > len(entries) {
				return fmt.Errorf("invalid entry number %q: %d unfinished", args[0], len(entries))
			}
			u := entries[n-1]
			if err := app.Planner.MarkUnfinishedDone(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s on %s done\n", u.TaskName, u.DateLabel)
			return nil
		},
	})
	return cmd
}
