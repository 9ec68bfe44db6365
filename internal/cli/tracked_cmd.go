package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/spf13/cobra"
)

func newTrackedCmd(app *App) *cobra.Command {
	cmd := required(&cobra.Command{
		Use:     "tracked",
		Aliases: []string{"track"},
		Short:   "Manage tracked tasks and their fields",
	})

	cmd.AddCommand(
		newTrackedCategoryCmd(app),
		newTrackedAddCmd(app),
		newTrackedListCmd(app),
		newTrackedEditCmd(app),
		newTrackedRemoveCmd(app),
		newTrackedSetCmd(app),
		newTrackedTodayCmd(app),
		newTrackedBulkFieldCmd(app),
	)
	return cmd
}

func newTrackedCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Tracked task categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := app.Planner.Snapshot().TrackedCategories
			if len(cats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No categories."))
				return nil
			}
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				rows = append(rows, []string{strconv.Itoa(c.ID), c.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "NAME"}, rows))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Planner.AddCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Category %d: %s\n", c.ID, c.Name)
			return nil
		},
	})
	return cmd
}

type trackedFlags struct {
	in       planner.TrackedInput
	category string
	fields   []string
}

func (f *trackedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in.Title, "title", "", "Title")
	cmd.Flags().StringVar(&f.in.Location, "location", "all", "Location id, or all")
	cmd.Flags().StringVar(&f.category, "category", "", "Existing category id")
	cmd.Flags().StringVar(&f.in.NewCategory, "new-category", "", "Create or reuse a category by name")
	cmd.Flags().StringArrayVar(&f.fields, "field", nil, "Field as LABEL[:TYPE[:EXPIRY_DAYS]] (repeatable)")
}

func (f *trackedFlags) input() (planner.TrackedInput, error) {
	in := f.in
	if f.category != "" && !isNone(f.category) {
		id, err := parseID("category", f.category)
		if err != nil {
			return in, err
		}
		in.CategoryID = id
	}
	specs, err := parseFieldSpecs(f.fields)
	if err != nil {
		return in, err
	}
	in.Fields = specs
	return in, nil
}

func newTrackedAddCmd(app *App) *cobra.Command {
	var flags trackedFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tracked task; location all adds one per location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input()
			if err != nil {
				return err
			}
			created, err := app.Planner.CreateTracked(cmd.Context(), in)
			if err != nil {
				return err
			}
			st := app.Planner.Snapshot()
			for _, t := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "Added tracked task %d: %s @ %s\n", t.ID, t.Title, st.LocationName(t.Location))
			}
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTrackedListCmd(app *App) *cobra.Command {
	var (
		location string
		category string
		filter   planner.BulkFilter
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveFilter(&filter, location, category); err != nil {
				return err
			}
			tasks := app.Planner.Tracked(filter)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTrackedList(app.Planner.Snapshot(), tasks, app.Planner.Today()))
			return nil
		},
	}

	filterFlags(cmd, &location, &category, &filter.Search)
	return cmd
}

func filterFlags(cmd *cobra.Command, location, category, search *string) {
	cmd.Flags().StringVar(location, "location", "", "Only this location id")
	cmd.Flags().StringVar(category, "category", "", "Only this category id")
	cmd.Flags().StringVar(search, "search", "", "Title contains (case-insensitive)")
}

func resolveFilter(f *planner.BulkFilter, location, category string) error {
	if location != "" && location != domain.AllLocations.String() {
		id, err := parseID("location", location)
		if err != nil {
			return err
		}
		f.LocationID = id
	}
	if category != "" {
		id, err := parseID("category", category)
		if err != nil {
			return err
		}
		f.CategoryID = id
	}
	return nil
}

func newTrackedEditCmd(app *App) *cobra.Command {
	var flags trackedFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a tracked task; --field replaces the field list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tracked task", args[0])
			if err != nil {
				return err
			}
			cur := app.Planner.Snapshot().FindTrackedTask(id)
			if cur == nil {
				return fmt.Errorf("%w: tracked task %d", planner.ErrNotFound, id)
			}
			in, err := flags.input()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("title") {
				in.Title = cur.Title
			}
			if !cmd.Flags().Changed("location") {
				in.Location = cur.Location.String()
			}
			if !cmd.Flags().Changed("category") && !cmd.Flags().Changed("new-category") {
				in.CategoryID = domain.IntFromPtrWithDefault(0, cur.CategoryID)
			}
			if !cmd.Flags().Changed("field") {
				in.Fields = keepFields(cur.Fields)
			}

			t, err := app.Planner.EditTracked(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated tracked task %d: %s\n", t.ID, t.Title)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func keepFields(fields []domain.TrackedField) []planner.FieldSpec {
	specs := make([]planner.FieldSpec, 0, len(fields))
	for _, f := range fields {
		specs = append(specs, planner.FieldSpec{
			ID:               f.ID,
			Label:            f.Label,
			Type:             f.Type,
			HighlightEnabled: domain.BoolFromPtrWithDefault(false, f.HighlightEnabled),
			ExpiryDays:       domain.IntFromPtrWithDefault(0, f.ExpiryDays),
		})
	}
	return specs
}

func newTrackedRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete a tracked task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("tracked task", args[0])
			if err != nil {
				return err
			}
			t := app.Planner.Snapshot().FindTrackedTask(id)
			if t == nil {
				return fmt.Errorf("%w: tracked task %d", planner.ErrNotFound, id)
			}
			ok, err := confirm(app, yes, fmt.Sprintf("Delete tracked task %q?", t.Title))
			if err != nil || !ok {
				return err
			}
			if err := app.Planner.DeleteTracked(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tracked task %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func parseFieldRef(task, field string) (int, int, error) {
	taskID, err := parseID("tracked task", task)
	if err != nil {
		return 0, 0, err
	}
	fieldID, err := parseID("field", field)
	if err != nil {
		return 0, 0, err
	}
	return taskID, fieldID, nil
}

func newTrackedSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set TASK FIELD VALUE",
		Short: "Set a field value; checkboxes take true/false, dates yyyy-mm-dd",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, fieldID, err := parseFieldRef(args[0], args[1])
			if err != nil {
				return err
			}
			if err := app.Planner.SetFieldValue(cmd.Context(), taskID, fieldID, args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set field %d of tracked task %d\n", fieldID, taskID)
			return nil
		},
	}
}

func newTrackedTodayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "today TASK FIELD",
		Short: "Set a date field to today",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, fieldID, err := parseFieldRef(args[0], args[1])
			if err != nil {
				return err
			}
			if err := app.Planner.SetFieldToday(cmd.Context(), taskID, fieldID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set field %d of tracked task %d to %s\n",
				fieldID, taskID, domain.FormatISODate(app.Planner.Today()))
			return nil
		},
	}
}

func newTrackedBulkFieldCmd(app *App) *cobra.Command {
	var (
		location  string
		category  string
		filter    planner.BulkFilter
		spec      planner.FieldSpec
		fieldType = fieldTypeValue(domain.FieldText)
	)

	cmd := &cobra.Command{
		Use:   "bulk-field",
		Short: "Add a field to every matching tracked task that lacks it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveFilter(&filter, location, category); err != nil {
				return err
			}
			spec.Type = domain.FieldType(fieldType)
			if spec.ExpiryDays > 0 {
				if spec.Type != domain.FieldDate {
					return fmt.Errorf("--expiry needs --type date")
				}
				spec.HighlightEnabled = true
			}
			n, err := app.Planner.BulkAddField(cmd.Context(), filter, spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %d tracked tasks\n", spec.Label, n)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec.Label, "label", "", "Field label")
	cmd.Flags().Var(&fieldType, "type", "text, number, checkbox or date")
	cmd.Flags().IntVar(&spec.ExpiryDays, "expiry", 0, "Highlight a date field after this many days")
	filterFlags(cmd, &location, &category, &filter.Search)
	_ = cmd.MarkFlagRequired("label")
	return cmd
}
