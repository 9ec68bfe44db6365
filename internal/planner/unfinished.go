package planner

import (
	"context"
	"sort"

	"github.com/alexanderramin/weekgrid/internal/domain"
)

// ErrNoStartMonday is returned by date-based queries when week 1 has no
// anchor date.
var ErrNoStartMonday = invalid("set a Week 1 Monday date first")

// UnfinishedEntry is a task entry on a past date that is not done.
type UnfinishedEntry struct {
	Slot       Slot
	Date       string
	DateLabel  string
	TaskID     int
	TaskName   string
	Minutes    int
	LocationID *int
}

// Unfinished lists undone task entries dated before today, oldest first.
// Entries of deleted tasks are skipped.
func (s *Service) Unfinished() ([]UnfinishedEntry, error) {
	st := s.store.Snapshot()
	if _, ok := st.PlannerDate(0, 0); !ok {
		return nil, ErrNoStartMonday
	}
	today := s.Today()

	var out []UnfinishedEntry
	for w := 0; w < domain.Weeks; w++ {
		for d := 0; d < domain.DaysPerWeek; d++ {
			date, _ := st.PlannerDate(w, d)
			if !date.Before(today) {
				continue
			}
			for i, e := range st.Assignments[w][d] {
				if !e.IsTask() || e.Done {
					continue
				}
				task, _ := st.FindTask(e.TaskID)
				if task == nil {
					continue
				}
				out = append(out, UnfinishedEntry{
					Slot:       Slot{Week: w, Day: d, Index: i},
					Date:       domain.FormatISODate(date),
					DateLabel:  st.DateLabel(w, d),
					TaskID:     task.ID,
					TaskName:   task.Name,
					Minutes:    task.LengthMinutes,
					LocationID: domain.CloneIntPtr(e.LocationID),
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// MarkUnfinishedDone marks the entry of an Unfinished result as done.
func (s *Service) MarkUnfinishedDone(ctx context.Context, u UnfinishedEntry) error {
	return s.SetDone(ctx, u.Slot, true)
}
