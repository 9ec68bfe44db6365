package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/domain"
)

// Slot addresses one entry in the grid.
type Slot struct {
	Week  int
	Day   int
	Index int
}

// targetLocation is where a new entry of task lands in a cell: the task's
// own location, else wherever the day currently is.
func targetLocation(st *domain.PlannerState, task *domain.Task, week, day int) *int {
	if !task.Location.IsAll() {
		return domain.IntPtr(task.Location.ID())
	}
	return st.CurrentLocation(week, day)
}

// blocked applies the frequency rules: a daily task once per day, a weekly
// task once per week, anything rarer once per grid, each per location.
func blocked(st *domain.PlannerState, task *domain.Task, week, day int, target *int) bool {
	placed := func(w, d int) bool {
		for _, e := range st.Assignments[w][d] {
			if e.IsTask() && e.TaskID == task.ID && domain.SameLocation(e.LocationID, target) {
				return true
			}
		}
		return false
	}
	switch task.Frequency {
	case domain.FrequencyDaily:
		return placed(week, day)
	case domain.FrequencyWeekly:
		for d := 0; d < domain.DaysPerWeek; d++ {
			if placed(week, d) {
				return true
			}
		}
	case domain.FrequencyMonthly, domain.FrequencyYearly, domain.FrequencyOneTime:
		for w := 0; w < domain.Weeks; w++ {
			for d := 0; d < domain.DaysPerWeek; d++ {
				if placed(w, d) {
					return true
				}
			}
		}
	}
	return false
}

// CanPlace reports whether AddTaskToCell would accept taskID in the cell.
func (s *Service) CanPlace(taskID, week, day int) (bool, error) {
	if err := checkCell(week, day); err != nil {
		return false, err
	}
	st := s.store.Snapshot()
	task, _ := st.FindTask(taskID)
	if task == nil {
		return false, notFound("task %d", taskID)
	}
	return !blocked(st, task, week, day, targetLocation(st, task, week, day)), nil
}

// AddTaskToCell appends a task entry to the cell, tagged with its target
// location.
func (s *Service) AddTaskToCell(ctx context.Context, week, day, taskID int) (domain.Entry, error) {
	var added domain.Entry
	fields := map[string]any{"week": week, "day": day, "task_id": taskID}
	err := s.commit(ctx, "add-task-to-cell", fields, func(st *domain.PlannerState) error {
		if err := checkCell(week, day); err != nil {
			return err
		}
		task, _ := st.FindTask(taskID)
		if task == nil {
			return notFound("task %d", taskID)
		}
		target := targetLocation(st, task, week, day)
		if blocked(st, task, week, day, target) {
			return invalid("%q can't be added here based on its frequency rules for this location", task.Name)
		}
		added = domain.NewTaskEntry(taskID, target)
		st.Assignments[week][day] = append(st.Assignments[week][day], added)
		return nil
	})
	return added, err
}

// AddTravel appends a travel leg to the given location.
func (s *Service) AddTravel(ctx context.Context, week, day, locationID int) error {
	fields := map[string]any{"week": week, "day": day, "location_id": locationID}
	return s.commit(ctx, "add-travel", fields, func(st *domain.PlannerState) error {
		if err := checkCell(week, day); err != nil {
			return err
		}
		if st.FindLocation(locationID) == nil {
			return notFound("location %d", locationID)
		}
		st.Assignments[week][day] = append(st.Assignments[week][day], domain.NewTravelEntry(locationID))
		return nil
	})
}

// RemoveEntry deletes one entry and returns it.
func (s *Service) RemoveEntry(ctx context.Context, slot Slot) (domain.Entry, error) {
	var removed domain.Entry
	err := s.commit(ctx, "remove-entry", slot.fields(), func(st *domain.PlannerState) error {
		e, err := checkEntry(st, slot.Week, slot.Day, slot.Index)
		if err != nil {
			return err
		}
		removed = *e
		cell := st.Assignments[slot.Week][slot.Day]
		st.Assignments[slot.Week][slot.Day] = append(cell[:slot.Index], cell[slot.Index+1:]...)
		return nil
	})
	return removed, err
}

// ToggleDone flips the done flag of one entry and returns the new value.
func (s *Service) ToggleDone(ctx context.Context, slot Slot) (bool, error) {
	var done bool
	err := s.commit(ctx, "toggle-done", slot.fields(), func(st *domain.PlannerState) error {
		e, err := checkEntry(st, slot.Week, slot.Day, slot.Index)
		if err != nil {
			return err
		}
		e.Done = !e.Done
		done = e.Done
		return nil
	})
	return done, err
}

// SetDone sets the done flag of one task entry.
func (s *Service) SetDone(ctx context.Context, slot Slot, done bool) error {
	return s.commit(ctx, "set-done", slot.fields(), func(st *domain.PlannerState) error {
		e, err := checkEntry(st, slot.Week, slot.Day, slot.Index)
		if err != nil {
			return err
		}
		if !e.IsTask() {
			return invalid("entry %d is not a task", slot.Index)
		}
		if e.Done == done {
			return errUnchanged
		}
		e.Done = done
		return nil
	})
}

// ResetAllDone clears the done flag of every task entry and returns how
// many were set.
func (s *Service) ResetAllDone(ctx context.Context) (int, error) {
	n := 0
	err := s.commit(ctx, "reset-all-done", nil, func(st *domain.PlannerState) error {
		for w := range st.Assignments {
			for d := range st.Assignments[w] {
				for i := range st.Assignments[w][d] {
					e := &st.Assignments[w][d][i]
					if e.IsTask() && e.Done {
						e.Done = false
						n++
					}
				}
			}
		}
		return nil
	})
	return n, err
}

// CopyWeek overwrites target with the entries and day settings of source.
func (s *Service) CopyWeek(ctx context.Context, source, target int) error {
	fields := map[string]any{"source": source, "target": target}
	return s.commit(ctx, "copy-week", fields, func(st *domain.PlannerState) error {
		if err := checkWeek(source); err != nil {
			return err
		}
		if err := checkWeek(target); err != nil {
			return err
		}
		if source == target {
			return invalid("cannot copy week %d onto itself", source+1)
		}
		for d := 0; d < domain.DaysPerWeek; d++ {
			src := st.Assignments[source][d]
			cp := make([]domain.Entry, len(src))
			for i, e := range src {
				e.LocationID = domain.CloneIntPtr(e.LocationID)
				cp[i] = e
			}
			st.Assignments[target][d] = cp

			set := st.DayCellSettings[source][d]
			st.DayCellSettings[target][d] = domain.DayCellSetting{
				StartLocationID: domain.CloneIntPtr(set.StartLocationID),
				StartTime:       cloneString(set.StartTime),
			}
		}
		return nil
	})
}

// MoveEntry drags the entry at from onto to. In insert mode the entry is
// removed and inserted at to.Index, which may equal the target cell's
// length to append. In swap mode the two entries trade places.
func (s *Service) MoveEntry(ctx context.Context, from, to Slot, mode domain.DragMode) error {
	fields := map[string]any{"from": from.String(), "to": to.String(), "mode": mode}
	return s.commit(ctx, "move-entry", fields, func(st *domain.PlannerState) error {
		if _, err := checkEntry(st, from.Week, from.Day, from.Index); err != nil {
			return err
		}
		if err := checkCell(to.Week, to.Day); err != nil {
			return err
		}
		sameCell := from.Week == to.Week && from.Day == to.Day
		targetLen := len(st.Assignments[to.Week][to.Day])

		if mode == domain.DragSwap {
			if sameCell && from.Index == to.Index {
				return errUnchanged
			}
			if to.Index < 0 || to.Index >= targetLen {
				return invalid("no entry %d to swap with", to.Index)
			}
			src := &st.Assignments[from.Week][from.Day][from.Index]
			dst := &st.Assignments[to.Week][to.Day][to.Index]
			*src, *dst = *dst, *src
			return nil
		}

		if to.Index < 0 || to.Index > targetLen {
			return invalid("position %d is outside the day", to.Index)
		}
		cell := st.Assignments[from.Week][from.Day]
		moved := cell[from.Index]
		st.Assignments[from.Week][from.Day] = append(cell[:from.Index], cell[from.Index+1:]...)

		at := to.Index
		if sameCell && at > from.Index {
			at--
		}
		dst := st.Assignments[to.Week][to.Day]
		dst = append(dst, domain.Entry{})
		copy(dst[at+1:], dst[at:])
		dst[at] = moved
		st.Assignments[to.Week][to.Day] = dst
		return nil
	})
}

// MoveEntryToEnd drops the entry at the bottom of the (week, day) cell.
func (s *Service) MoveEntryToEnd(ctx context.Context, from Slot, week, day int) error {
	if err := checkCell(week, day); err != nil {
		return err
	}
	n := len(s.store.Snapshot().Assignments[week][day])
	return s.MoveEntry(ctx, from, Slot{Week: week, Day: day, Index: n}, domain.DragInsert)
}

// SetDayStartLocation sets where the day begins; 0 clears it.
func (s *Service) SetDayStartLocation(ctx context.Context, week, day, locationID int) error {
	fields := map[string]any{"week": week, "day": day, "location_id": locationID}
	return s.commit(ctx, "set-day-location", fields, func(st *domain.PlannerState) error {
		if err := checkCell(week, day); err != nil {
			return err
		}
		if locationID == 0 {
			st.DayCellSettings[week][day].StartLocationID = nil
			return nil
		}
		if st.FindLocation(locationID) == nil {
			return notFound("location %d", locationID)
		}
		st.DayCellSettings[week][day].StartLocationID = domain.IntPtr(locationID)
		return nil
	})
}

// SetDayStartTime sets the running clock seed of the day as HH:MM; ""
// clears it.
func (s *Service) SetDayStartTime(ctx context.Context, week, day int, raw string) error {
	fields := map[string]any{"week": week, "day": day, "start_time": raw}
	return s.commit(ctx, "set-day-time", fields, func(st *domain.PlannerState) error {
		if err := checkCell(week, day); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			st.DayCellSettings[week][day].StartTime = nil
			return nil
		}
		mins, ok := domain.ParseClock(raw)
		if !ok {
			return invalid("start time must be HH:MM, got %q", raw)
		}
		st.DayCellSettings[week][day].StartTime = domain.StringPtr(domain.FormatHHMM(mins))
		return nil
	})
}

// SetWeekVisibility shows or hides one week.
func (s *Service) SetWeekVisibility(ctx context.Context, week int, visible bool) error {
	fields := map[string]any{"week": week, "visible": visible}
	return s.commit(ctx, "set-week-visibility", fields, func(st *domain.PlannerState) error {
		if err := checkWeek(week); err != nil {
			return err
		}
		st.WeekVisibility[week] = visible
		return nil
	})
}

// SetStartMonday anchors week 1 to a yyyy-mm-dd date; "" clears the anchor.
func (s *Service) SetStartMonday(ctx context.Context, iso string) error {
	return s.commit(ctx, "set-start-monday", map[string]any{"date": iso}, func(st *domain.PlannerState) error {
		iso = strings.TrimSpace(iso)
		if iso == "" {
			st.StartMondayISO = nil
			return nil
		}
		t, ok := domain.ParseISODate(iso)
		if !ok {
			return invalid("date must be yyyy-mm-dd, got %q", iso)
		}
		st.StartMondayISO = domain.StringPtr(domain.FormatISODate(t))
		return nil
	})
}

func (sl Slot) fields() map[string]any {
	return map[string]any{"week": sl.Week, "day": sl.Day, "index": sl.Index}
}

func (sl Slot) String() string {
	return fmt.Sprintf("w%d/d%d/#%d", sl.Week+1, sl.Day+1, sl.Index)
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
