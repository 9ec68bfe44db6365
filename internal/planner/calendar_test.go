package planner

import (
	"context"
	"testing"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cellTaskIDs(s *Service, week, day int) []int {
	var ids []int
	for _, e := range s.Snapshot().Assignments[week][day] {
		if e.IsTask() {
			ids = append(ids, e.TaskID)
		} else {
			ids = append(ids, -*e.LocationID)
		}
	}
	return ids
}

func TestAddTaskToCell_TargetLocation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	home := mustAddLocation(t, s, "Home")
	site := mustAddLocation(t, s, "Site")
	anywhere := mustAddTask(t, s, "Anywhere", "10", "daily", "")
	pinned := mustAddTask(t, s, "Pinned", "10", "daily", "2")

	e, err := s.AddTaskToCell(ctx, 0, 0, anywhere.ID)
	require.NoError(t, err)
	assert.Nil(t, e.LocationID, "no start location and no travel")

	require.NoError(t, s.SetDayStartLocation(ctx, 0, 1, home.ID))
	e, err = s.AddTaskToCell(ctx, 0, 1, anywhere.ID)
	require.NoError(t, err)
	assert.Equal(t, home.ID, *e.LocationID)

	require.NoError(t, s.AddTravel(ctx, 0, 1, site.ID))
	e, err = s.AddTaskToCell(ctx, 0, 1, anywhere.ID)
	require.NoError(t, err, "same daily task at a different location is allowed")
	assert.Equal(t, site.ID, *e.LocationID)

	e, err = s.AddTaskToCell(ctx, 0, 2, pinned.ID)
	require.NoError(t, err)
	assert.Equal(t, site.ID, *e.LocationID, "pinned tasks ignore the day's location")
}

func TestAddTaskToCell_FrequencyRules(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	daily := mustAddTask(t, s, "Daily", "5", "daily", "")
	weekly := mustAddTask(t, s, "Weekly", "5", "weekly", "")
	monthly := mustAddTask(t, s, "Monthly", "5", "monthly", "")

	_, err := s.AddTaskToCell(ctx, 0, 0, daily.ID)
	require.NoError(t, err)
	_, err = s.AddTaskToCell(ctx, 0, 0, daily.ID)
	assert.ErrorIs(t, err, ErrValidation, "daily: once per day")
	_, err = s.AddTaskToCell(ctx, 0, 1, daily.ID)
	assert.NoError(t, err)

	_, err = s.AddTaskToCell(ctx, 1, 0, weekly.ID)
	require.NoError(t, err)
	_, err = s.AddTaskToCell(ctx, 1, 4, weekly.ID)
	assert.ErrorIs(t, err, ErrValidation, "weekly: once per week")
	_, err = s.AddTaskToCell(ctx, 2, 4, weekly.ID)
	assert.NoError(t, err)

	_, err = s.AddTaskToCell(ctx, 3, 6, monthly.ID)
	require.NoError(t, err)
	ok, err := s.CanPlace(monthly.ID, 0, 0)
	require.NoError(t, err)
	assert.False(t, ok, "monthly: once per grid")
	_, err = s.AddTaskToCell(ctx, 0, 0, monthly.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.AddTaskToCell(ctx, 4, 0, daily.ID)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.AddTaskToCell(ctx, 0, 0, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAndToggle(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := mustAddTask(t, s, "A", "5", "", "")
	b := mustAddTask(t, s, "B", "5", "", "")
	_, _ = s.AddTaskToCell(ctx, 0, 0, a.ID)
	_, _ = s.AddTaskToCell(ctx, 0, 0, b.ID)

	done, err := s.ToggleDone(ctx, Slot{0, 0, 1})
	require.NoError(t, err)
	assert.True(t, done)
	done, err = s.ToggleDone(ctx, Slot{0, 0, 1})
	require.NoError(t, err)
	assert.False(t, done)

	removed, err := s.RemoveEntry(ctx, Slot{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.TaskID)
	assert.Equal(t, []int{b.ID}, cellTaskIDs(s, 0, 0))

	_, err = s.RemoveEntry(ctx, Slot{0, 0, 5})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResetAllDone(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := mustAddTask(t, s, "A", "5", "", "")
	for d := 0; d < 3; d++ {
		_, err := s.AddTaskToCell(ctx, 1, d, a.ID)
		require.NoError(t, err)
		require.NoError(t, s.SetDone(ctx, Slot{1, d, 0}, true))
	}

	n, err := s.ResetAllDone(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for d := 0; d < 3; d++ {
		assert.False(t, s.Snapshot().Assignments[1][d][0].Done)
	}
}

func TestCopyWeek(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	loc := mustAddLocation(t, s, "Site")
	a := mustAddTask(t, s, "A", "5", "", "")
	_, _ = s.AddTaskToCell(ctx, 0, 2, a.ID)
	require.NoError(t, s.SetDayStartTime(ctx, 0, 2, "07:15"))
	require.NoError(t, s.SetDayStartLocation(ctx, 0, 3, loc.ID))
	_, _ = s.AddTaskToCell(ctx, 2, 5, a.ID)

	require.NoError(t, s.CopyWeek(ctx, 0, 2))
	snap := s.Snapshot()
	assert.Equal(t, snap.Assignments[0], snap.Assignments[2])
	assert.Equal(t, snap.DayCellSettings[0], snap.DayCellSettings[2])
	assert.Empty(t, snap.Assignments[2][5], "target week is overwritten")

	require.NoError(t, s.SetDone(ctx, Slot{2, 2, 0}, true))
	assert.False(t, s.Snapshot().Assignments[0][2][0].Done, "copies are independent")

	assert.ErrorIs(t, s.CopyWeek(ctx, 1, 1), ErrValidation)
	assert.ErrorIs(t, s.CopyWeek(ctx, 0, 4), ErrValidation)
}

func TestMoveEntry_Insert(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	var ids []int
	for _, n := range []string{"A", "B", "C", "D"} {
		task := mustAddTask(t, s, n, "5", "", "")
		ids = append(ids, task.ID)
		_, err := s.AddTaskToCell(ctx, 0, 0, task.ID)
		require.NoError(t, err)
	}

	// Dropping A onto C lands it before C once A's slot is gone.
	require.NoError(t, s.MoveEntry(ctx, Slot{0, 0, 0}, Slot{0, 0, 2}, domain.DragInsert))
	assert.Equal(t, []int{ids[1], ids[0], ids[2], ids[3]}, cellTaskIDs(s, 0, 0))

	require.NoError(t, s.MoveEntry(ctx, Slot{0, 0, 3}, Slot{0, 0, 0}, domain.DragInsert))
	assert.Equal(t, []int{ids[3], ids[1], ids[0], ids[2]}, cellTaskIDs(s, 0, 0))

	require.NoError(t, s.MoveEntry(ctx, Slot{0, 0, 0}, Slot{1, 4, 0}, domain.DragInsert))
	assert.Equal(t, []int{ids[3]}, cellTaskIDs(s, 1, 4))
	assert.Len(t, cellTaskIDs(s, 0, 0), 3)

	require.NoError(t, s.MoveEntryToEnd(ctx, Slot{0, 0, 0}, 0, 0))
	assert.Equal(t, []int{ids[0], ids[2], ids[1]}, cellTaskIDs(s, 0, 0))
	require.NoError(t, s.MoveEntryToEnd(ctx, Slot{0, 0, 0}, 1, 4))
	assert.Equal(t, []int{ids[3], ids[0]}, cellTaskIDs(s, 1, 4))

	assert.ErrorIs(t, s.MoveEntry(ctx, Slot{0, 0, 9}, Slot{0, 0, 0}, domain.DragInsert), ErrValidation)
	assert.ErrorIs(t, s.MoveEntry(ctx, Slot{0, 0, 0}, Slot{2, 2, 3}, domain.DragInsert), ErrValidation)
}

func TestMoveEntry_Swap(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := mustAddTask(t, s, "A", "5", "", "")
	b := mustAddTask(t, s, "B", "5", "", "")
	_, _ = s.AddTaskToCell(ctx, 0, 0, a.ID)
	_, _ = s.AddTaskToCell(ctx, 3, 6, b.ID)

	require.NoError(t, s.MoveEntry(ctx, Slot{0, 0, 0}, Slot{3, 6, 0}, domain.DragSwap))
	assert.Equal(t, []int{b.ID}, cellTaskIDs(s, 0, 0))
	assert.Equal(t, []int{a.ID}, cellTaskIDs(s, 3, 6))

	assert.ErrorIs(t, s.MoveEntry(ctx, Slot{0, 0, 0}, Slot{1, 1, 0}, domain.DragSwap), ErrValidation, "swap needs an entry on both sides")
	assert.NoError(t, s.MoveEntry(ctx, Slot{0, 0, 0}, Slot{0, 0, 0}, domain.DragSwap))
}

func TestDaySettingsAndVisibility(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, s.SetDayStartTime(ctx, 1, 1, "07:05"))
	assert.ErrorIs(t, s.SetDayStartTime(ctx, 1, 1, "7am"), ErrValidation)
	assert.Equal(t, "07:05", *s.Snapshot().DayCellSettings[1][1].StartTime)
	require.NoError(t, s.SetDayStartTime(ctx, 1, 1, ""))
	assert.Nil(t, s.Snapshot().DayCellSettings[1][1].StartTime)

	assert.ErrorIs(t, s.SetDayStartLocation(ctx, 0, 0, 3), ErrNotFound)
	require.NoError(t, s.SetDayStartLocation(ctx, 0, 0, 0))

	require.NoError(t, s.SetWeekVisibility(ctx, 2, false))
	assert.Equal(t, [domain.Weeks]bool{true, true, false, true}, s.Snapshot().WeekVisibility)
	assert.ErrorIs(t, s.SetWeekVisibility(ctx, -1, false), ErrValidation)

	require.NoError(t, s.SetStartMonday(ctx, "2026-01-05"))
	assert.Equal(t, "2026-01-05", *s.Snapshot().StartMondayISO)
	assert.ErrorIs(t, s.SetStartMonday(ctx, "05/01/2026"), ErrValidation)
	require.NoError(t, s.SetStartMonday(ctx, " "))
	assert.Nil(t, s.Snapshot().StartMondayISO)
}

func TestLocationStats(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	site := mustAddLocation(t, s, "Site")
	other := mustAddLocation(t, s, "Other")
	daily := mustAddTask(t, s, "Daily", "5", "daily", "")
	weekly := mustAddTask(t, s, "Weekly", "5", "weekly", "")
	once := mustAddTask(t, s, "Once", "5", "one-time", "")
	mustAddTask(t, s, "Elsewhere", "5", "daily", "2")

	for w := 0; w < domain.Weeks; w++ {
		require.NoError(t, s.SetDayStartLocation(ctx, w, 0, site.ID))
		_, err := s.AddTaskToCell(ctx, w, 0, weekly.ID)
		require.NoError(t, err)
		for d := 0; d < 2; d++ {
			require.NoError(t, s.SetDayStartLocation(ctx, w, d, site.ID))
			_, err := s.AddTaskToCell(ctx, w, d, daily.ID)
			require.NoError(t, err)
		}
	}
	_, err := s.AddTaskToCell(ctx, 0, 3, once.ID)
	require.NoError(t, err, "no location, counts nowhere")

	stats, err := s.LocationStats(site.ID)
	require.NoError(t, err)
	require.Len(t, stats, 3, "tasks pinned elsewhere are not listed")
	byName := map[string]TaskProgress{}
	for _, p := range stats {
		byName[p.Task.Name] = p
	}
	assert.Equal(t, 8, byName["Daily"].Occurrences)
	assert.True(t, byName["Daily"].Complete)
	assert.Equal(t, DailyTarget, byName["Daily"].Target)
	assert.Equal(t, 4, byName["Weekly"].Weeks)
	assert.True(t, byName["Weekly"].Complete)
	assert.False(t, byName["Once"].Complete)
	assert.Equal(t, 0, byName["Once"].Target)

	stats, err = s.LocationStats(other.ID)
	require.NoError(t, err)
	assert.Len(t, stats, 4)

	_, err = s.LocationStats(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnfinished(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := mustAddTask(t, s, "A", "30", "", "")
	b := mustAddTask(t, s, "B", "15", "", "")

	_, err := s.Unfinished()
	assert.ErrorIs(t, err, ErrNoStartMonday)

	require.NoError(t, s.SetStartMonday(ctx, "2026-01-05"))
	// Week 3 Wednesday is today and does not count.
	_, _ = s.AddTaskToCell(ctx, 2, 2, a.ID)
	_, _ = s.AddTaskToCell(ctx, 2, 1, a.ID)
	_, _ = s.AddTaskToCell(ctx, 0, 4, b.ID)
	_, _ = s.AddTaskToCell(ctx, 0, 4, a.ID)
	_, _ = s.AddTaskToCell(ctx, 0, 0, a.ID)
	require.NoError(t, s.SetDone(ctx, Slot{0, 0, 0}, true))
	_, err = s.DeleteTask(ctx, b.ID)
	require.NoError(t, err)

	items, err := s.Unfinished()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2026-01-09", items[0].Date)
	assert.Equal(t, "Friday, Jan 9th, 2026", items[0].DateLabel)
	assert.Equal(t, Slot{0, 4, 0}, items[0].Slot)
	assert.Equal(t, "2026-01-20", items[1].Date)

	require.NoError(t, s.MarkUnfinishedDone(ctx, items[0]))
	items, err = s.Unfinished()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
