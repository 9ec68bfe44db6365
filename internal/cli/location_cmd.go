package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/spf13/cobra"
)

func newLocationCmd(app *App) *cobra.Command {
	cmd := required(&cobra.Command{
		Use:     "location",
		Aliases: []string{"locations", "loc"},
		Short:   "Manage locations",
	})

	cmd.AddCommand(
		newLocationAddCmd(app),
		newLocationListCmd(app),
		newLocationEditCmd(app),
		newLocationStatsCmd(app),
	)
	return cmd
}

func newLocationAddCmd(app *App) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := app.Planner.AddLocation(cmd.Context(), strings.Join(args, " "), color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added location %d: %s %s\n", loc.ID, formatter.Swatch(loc.Color), loc.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Hex color such as #a0d8ef")
	return cmd
}

func newLocationListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List locations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatLocationList(app.Planner.Snapshot()))
			return nil
		},
	}
}

func newLocationEditCmd(app *App) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Rename or recolor a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("location", args[0])
			if err != nil {
				return err
			}
			cur := app.Planner.Snapshot().FindLocation(id)
			if cur == nil {
				return fmt.Errorf("%w: location %d", planner.ErrNotFound, id)
			}
			if !cmd.Flags().Changed("name") {
				name = cur.Name
			}
			if !cmd.Flags().Changed("color") {
				color = cur.Color
			}
			loc, err := app.Planner.EditLocation(cmd.Context(), id, name, color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated location %d: %s %s\n", loc.ID, formatter.Swatch(loc.Color), loc.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New hex color")
	return cmd
}

func newLocationStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats ID",
		Short: "Show how much of each task is planned at a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("location", args[0])
			if err != nil {
				return err
			}
			progress, err := app.Planner.LocationStats(id)
			if err != nil {
				return err
			}
			loc := app.Planner.Snapshot().FindLocation(id)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatLocationStats(*loc, progress))
			return nil
		},
	}
}
