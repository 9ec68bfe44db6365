package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/spf13/cobra"
)

func newCalendarCmd(app *App) *cobra.Command {
	cmd := required(&cobra.Command{
		Use:     "cal",
		Aliases: []string{"calendar"},
		Short:   "View and edit the four-week calendar",
		Long: `View and edit the four-week calendar.

Weeks are 1-4, days are 1-7 or a name such as mon, and positions count
entries in a day from 1.`,
	})

	cmd.AddCommand(
		newCalShowCmd(app),
		newCalDayCmd(app),
		newCalAddCmd(app),
		newCalTravelCmd(app),
		newCalRemoveCmd(app),
		newCalToggleCmd(app),
		newCalDoneCmd(app),
		newCalResetDoneCmd(app),
		newCalCopyCmd(app),
		newCalMoveCmd(app),
		newCalStartLocationCmd(app),
		newCalStartTimeCmd(app),
		newCalVisibilityCmd(app),
		newCalMondayCmd(app),
	)
	return cmd
}

func newCalShowCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show [WEEK]",
		Short: "Show visible weeks, or one week",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := app.Planner.Snapshot()
			var weeks []int
			if len(args) == 1 {
				w, err := parseWeek(args[0])
				if err != nil {
					return err
				}
				weeks = []int{w}
			} else {
				for w := 0; w < domain.Weeks; w++ {
					if all || st.WeekVisibility[w] {
						weeks = append(weeks, w)
					}
				}
			}
			if len(weeks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("All weeks are hidden. Use --all or `weekgrid cal visibility WEEK on`."))
				return nil
			}
			parts := make([]string, 0, len(weeks))
			for _, w := range weeks {
				parts = append(parts, formatter.FormatWeek(st, w))
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, "\n\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include hidden weeks")
	return cmd
}

func newCalDayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "day WEEK DAY",
		Short: "Show one day with its running clock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, d, err := parseCell(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDay(app.Planner.Snapshot(), w, d))
			return nil
		},
	}
}

func newCalAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add WEEK DAY TASK_ID",
		Short: "Place a task in a day",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, d, err := parseCell(args[0], args[1])
			if err != nil {
				return err
			}
			id, err := parseID("task", args[2])
			if err != nil {
				return err
			}
			e, err := app.Planner.AddTaskToCell(cmd.Context(), w, d, id)
			if err != nil {
				return err
			}
			st := app.Planner.Snapshot()
			task, _ := st.FindTask(id)
			where := "no location"
			if e.LocationID != nil {
				where = st.LocationName(domain.LocationRef(*e.LocationID))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s @ %s\n", task.Name, st.DateLabel(w, d), where)
			return nil
		},
	}
}

func newCalTravelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "travel WEEK DAY LOCATION_ID",
		Short: "Add a travel leg to a location",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, d, err := parseCell(args[0], args[1])
			if err != nil {
				return err
			}
			id, err := parseID("location", args[2])
			if err != nil {
				return err
			}
			return app.Planner.AddTravel(cmd.Context(), w, d, id)
		},
	}
}

func newCalRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove WEEK DAY POS",
		Aliases: []string{"rm"},
		Short:   "Remove an entry from a day",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args)
			if err != nil {
				return err
			}
			_, err = app.Planner.RemoveEntry(cmd.Context(), slot)
			return err
		},
	}
}

func newCalToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle WEEK DAY POS",
		Short: "Flip an entry's done mark",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args)
			if err != nil {
				return err
			}
			done, err := app.Planner.ToggleDone(cmd.Context(), slot)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatter.DoneMark(done), slotLabel(slot))
			return nil
		},
	}
}

func newCalDoneCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done WEEK DAY POS",
		Short: "Mark a task entry done",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args)
			if err != nil {
				return err
			}
			return app.Planner.SetDone(cmd.Context(), slot, !undo)
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Mark not done instead")
	return cmd
}

func newCalResetDoneCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset-done",
		Short: "Clear every done mark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(app, yes, "Clear the done mark of every entry?")
			if err != nil || !ok {
				return err
			}
			n, err := app.Planner.ResetAllDone(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d done marks\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newCalCopyCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "copy FROM_WEEK TO_WEEK",
		Short: "Replace a week with a copy of another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseWeek(args[0])
			if err != nil {
				return err
			}
			to, err := parseWeek(args[1])
			if err != nil {
				return err
			}
			ok, err := confirm(app, yes, fmt.Sprintf("Overwrite week %d with week %d?", to+1, from+1))
			if err != nil || !ok {
				return err
			}
			if err := app.Planner.CopyWeek(cmd.Context(), from, to); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied week %d to week %d\n", from+1, to+1)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newCalMoveCmd(app *App) *cobra.Command {
	mode := dragModeValue(domain.DragInsert)

	cmd := &cobra.Command{
		Use:   "move WEEK DAY POS TO_WEEK TO_DAY [TO_POS]",
		Short: "Drag an entry to another position or day",
		Long: `Drag an entry to another position or day.

In insert mode the entry lands before TO_POS, or at the end of the day when
TO_POS is omitted. In swap mode it trades places with the entry at TO_POS.`,
		Args: cobra.RangeArgs(5, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseSlot(args[:3])
			if err != nil {
				return err
			}
			w, d, err := parseCell(args[3], args[4])
			if err != nil {
				return err
			}
			if len(args) == 5 {
				if domain.DragMode(mode) == domain.DragSwap {
					return fmt.Errorf("swap needs TO_POS")
				}
				return app.Planner.MoveEntryToEnd(cmd.Context(), from, w, d)
			}
			i, err := parsePosition(args[5])
			if err != nil {
				return err
			}
			return app.Planner.MoveEntry(cmd.Context(), from, planner.Slot{Week: w, Day: d, Index: i}, domain.DragMode(mode))
		},
	}

	cmd.Flags().Var(&mode, "mode", "insert or swap")
	return cmd
}

func newCalStartLocationCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start-location WEEK DAY LOCATION_ID|none",
		Short: "Set where a day begins",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, d, err := parseCell(args[0], args[1])
			if err != nil {
				return err
			}
			id := 0
			if !isNone(args[2]) {
				if id, err = parseID("location", args[2]); err != nil {
					return err
				}
			}
			return app.Planner.SetDayStartLocation(cmd.Context(), w, d, id)
		},
	}
}

func newCalStartTimeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start-time WEEK DAY HH:MM|none",
		Short: "Set when a day's clock starts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, d, err := parseCell(args[0], args[1])
			if err != nil {
				return err
			}
			value := args[2]
			if isNone(value) {
				value = ""
			}
			return app.Planner.SetDayStartTime(cmd.Context(), w, d, value)
		},
	}
}

func newCalVisibilityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "visibility WEEK on|off",
		Short: "Show or hide a week",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseWeek(args[0])
			if err != nil {
				return err
			}
			var visible bool
			switch strings.ToLower(args[1]) {
			case "on", "show":
				visible = true
			case "off", "hide":
			default:
				return fmt.Errorf("visibility must be on or off, got %q", args[1])
			}
			return app.Planner.SetWeekVisibility(cmd.Context(), w, visible)
		},
	}
}

func newCalMondayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "monday YYYY-MM-DD|none",
		Short: "Anchor week 1 to a Monday date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := args[0]
			if isNone(value) {
				value = ""
			}
			return app.Planner.SetStartMonday(cmd.Context(), value)
		},
	}
}

func isNone(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "clear", "-":
		return true
	}
	return false
}

func slotLabel(s planner.Slot) string {
	return fmt.Sprintf("week %d %s #%d", s.Week+1, domain.DayNames[s.Day], s.Index+1)
}
