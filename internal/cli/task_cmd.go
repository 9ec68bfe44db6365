package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := required(&cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage the task pool",
	})

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskEditCmd(app),
		newTaskMinutesCmd(app),
		newTaskFrequencyCmd(app),
		newTaskRemoveCmd(app),
		newTaskMoveCmd(app),
	)
	return cmd
}

func taskFlags(cmd *cobra.Command, in *planner.TaskInput) {
	cmd.Flags().StringVar(&in.Name, "name", "", "Task name")
	cmd.Flags().StringVar(&in.Minutes, "minutes", "", "Length in minutes (negative for breaks)")
	cmd.Flags().StringVar(&in.Frequency, "frequency", "daily", "daily, weekly, monthly, yearly or one-time")
	cmd.Flags().StringVar(&in.Location, "location", "all", "Location id, or all")
	cmd.Flags().StringVar(&in.Description, "description", "", "Notes shown with the task")
}

func newTaskAddCmd(app *App) *cobra.Command {
	var in planner.TaskInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Planner.AddTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s (%s)\n", t.ID, t.Name, formatter.FormatMinutes(t.LengthMinutes))
			return nil
		},
	}

	taskFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("minutes")
	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskList(app.Planner.Snapshot()))
			return nil
		},
	}
}

func newTaskEditCmd(app *App) *cobra.Command {
	var in planner.TaskInput

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			cur, _ := app.Planner.Snapshot().FindTask(id)
			if cur == nil {
				return fmt.Errorf("%w: task %d", planner.ErrNotFound, id)
			}
			keep := func(flag string, dst *string, v string) {
				if !cmd.Flags().Changed(flag) {
					*dst = v
				}
			}
			keep("name", &in.Name, cur.Name)
			keep("minutes", &in.Minutes, strconv.Itoa(cur.LengthMinutes))
			keep("frequency", &in.Frequency, string(cur.Frequency))
			keep("location", &in.Location, cur.Location.String())
			keep("description", &in.Description, cur.Description)

			t, err := app.Planner.EditTask(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d: %s\n", t.ID, t.Name)
			return nil
		},
	}

	taskFlags(cmd, &in)
	return cmd
}

func newTaskMinutesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "minutes ID MINUTES",
		Short: "Set a task's length",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			return app.Planner.SetTaskMinutes(cmd.Context(), id, args[1])
		},
	}
}

func newTaskFrequencyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "frequency ID FREQUENCY",
		Short: "Set how often a task may be placed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			return app.Planner.SetTaskFrequency(cmd.Context(), id, args[1])
		},
	}
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its calendar entries",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			t, _ := app.Planner.Snapshot().FindTask(id)
			if t == nil {
				return fmt.Errorf("%w: task %d", planner.ErrNotFound, id)
			}
			ok, err := confirm(app, yes, fmt.Sprintf("Delete %q and remove it from the calendar?", t.Name))
			if err != nil || !ok {
				return err
			}
			removed, err := app.Planner.DeleteTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d (%d calendar entries removed)\n", id, removed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newTaskMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move FROM TO",
		Short: "Reorder the task list by position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			to, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return app.Planner.MoveTask(cmd.Context(), from, to)
		},
	}
}
