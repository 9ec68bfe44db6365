package cli

import (
	"fmt"

	"github.com/alexanderramin/weekgrid/internal/backup"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	return required(&cobra.Command{
		Use:   "export PATH",
		Short: "Write the planner to a backup file (.json, .cbor, optionally .zst)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta := backup.Meta{ExportedAt: app.Planner.Now().UTC(), DeviceID: app.DeviceID}
			if err := backup.WriteFile(args[0], app.Planner.Export(), meta); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", args[0])
			return nil
		},
	})
}

func newImportCmd(app *App) *cobra.Command {
	var yes bool

	cmd := required(&cobra.Command{
		Use:   "import PATH",
		Short: "Replace the planner with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, meta, err := backup.ReadFile(args[0])
			if err != nil {
				return err
			}
			title := "Replace the current planner with this backup?"
			if !meta.ExportedAt.IsZero() {
				title = fmt.Sprintf("Replace the current planner with the backup from %s?", meta.ExportedAt.Local().Format("Jan 2, 2006 15:04"))
			}
			ok, err := confirm(app, yes, title)
			if err != nil || !ok {
				return err
			}
			if err := app.Planner.Import(cmd.Context(), raw); err != nil {
				return err
			}
			st := app.Planner.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks, %d locations, %d tracked tasks\n",
				len(st.Tasks), len(st.Locations), len(st.TrackedTasks))
			return nil
		},
	})

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := required(&cobra.Command{
		Use:   "clear",
		Short: "Reset the planner to an empty state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(app, yes, "Delete every task, location and calendar entry?")
			if err != nil || !ok {
				return err
			}
			if err := app.Planner.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Planner cleared")
			return nil
		},
	})

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
