package planner

import (
	"context"
	"testing"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"30", 30, true},
		{" -60 ", -60, true},
		{"45m", 45, true},
		{"+5", 5, true},
		{"1.5", 1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"2147483647", 2147483647, true},
		{"-2147483647", -2147483647, true},
		{"3000000000", 0, false},
		{"-3000000000", 0, false},
		{"99999999999999999999", 0, false},
		{"-", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMinutes(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrValidation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestAddTask_ValidatesAndAssignsIDs(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	site := mustAddLocation(t, s, "Site A")

	a := mustAddTask(t, s, "  Inspect ", "30", "Weekly", "")
	b := mustAddTask(t, s, "Lunch", "-45", "", "all")
	c := mustAddTask(t, s, "Pump", "20", "one-time", "1")

	assert.Equal(t, []int{1, 2, 3}, []int{a.ID, b.ID, c.ID})
	assert.Equal(t, "Inspect", a.Name)
	assert.Equal(t, domain.FrequencyWeekly, a.Frequency)
	assert.Equal(t, domain.FrequencyDaily, b.Frequency)
	assert.Equal(t, -45, b.LengthMinutes)
	assert.Equal(t, site.ID, c.Location.ID())

	for _, in := range []TaskInput{
		{Name: "", Minutes: "10"},
		{Name: "X", Minutes: "ten"},
		{Name: "X", Minutes: "3000000000"},
		{Name: "X", Minutes: "10", Frequency: "hourly"},
		{Name: "X", Minutes: "10", Location: "somewhere"},
	} {
		_, err := s.AddTask(ctx, in)
		assert.ErrorIs(t, err, ErrValidation, "%+v", in)
	}
	_, err := s.AddTask(ctx, TaskInput{Name: "X", Minutes: "10", Location: "9"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, store.Snapshot().Tasks, 3)
}

func TestEditTask_AndInlineEdits(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	task := mustAddTask(t, s, "Inspect", "30", "daily", "")

	edited, err := s.EditTask(ctx, task.ID, TaskInput{Name: "Inspect pumps", Description: "north side", Minutes: "40", Frequency: "monthly"})
	require.NoError(t, err)
	assert.Equal(t, task.ID, edited.ID)
	assert.Equal(t, "north side", edited.Description)

	require.NoError(t, s.SetTaskMinutes(ctx, task.ID, "-15"))
	require.NoError(t, s.SetTaskFrequency(ctx, task.ID, "YEARLY"))
	got, _ := s.Snapshot().FindTask(task.ID)
	assert.Equal(t, -15, got.LengthMinutes)
	assert.Equal(t, domain.FrequencyYearly, got.Frequency)

	assert.ErrorIs(t, s.SetTaskMinutes(ctx, task.ID, "x"), ErrValidation)
	assert.ErrorIs(t, s.SetTaskMinutes(ctx, 99, "5"), ErrNotFound)
	_, err = s.EditTask(ctx, 99, TaskInput{Name: "Y", Minutes: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask_RemovesEntriesEverywhere(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	keep := mustAddTask(t, s, "Keep", "10", "daily", "")
	drop := mustAddTask(t, s, "Drop", "10", "daily", "")

	for _, cell := range [][2]int{{0, 0}, {1, 3}, {3, 6}} {
		_, err := s.AddTaskToCell(ctx, cell[0], cell[1], drop.ID)
		require.NoError(t, err)
	}
	_, err := s.AddTaskToCell(ctx, 0, 0, keep.ID)
	require.NoError(t, err)

	removed, err := s.DeleteTask(ctx, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	snap := s.Snapshot()
	require.Len(t, snap.Tasks, 1)
	require.Len(t, snap.Assignments[0][0], 1)
	assert.Equal(t, keep.ID, snap.Assignments[0][0][0].TaskID)
	assert.Empty(t, snap.Assignments[1][3])

	_, err = s.DeleteTask(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveTask(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	for _, n := range []string{"A", "B", "C", "D"} {
		mustAddTask(t, s, n, "5", "", "")
	}
	names := func() []string {
		var out []string
		for _, t := range s.Snapshot().Tasks {
			out = append(out, t.Name)
		}
		return out
	}

	require.NoError(t, s.MoveTask(ctx, 0, 2))
	assert.Equal(t, []string{"B", "C", "A", "D"}, names())
	require.NoError(t, s.MoveTask(ctx, 3, 0))
	assert.Equal(t, []string{"D", "B", "C", "A"}, names())
	assert.ErrorIs(t, s.MoveTask(ctx, 0, 4), ErrValidation)
}
