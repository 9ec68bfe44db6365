package planner

import (
	"context"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
)

// Occurrence targets for the per-location progress view.
const (
	WeeklyTarget = domain.Weeks
	DailyTarget  = 8
)

// AddLocation appends a location. An empty color gets the default.
func (s *Service) AddLocation(ctx context.Context, name, color string) (domain.Location, error) {
	var added domain.Location
	err := s.commit(ctx, "add-location", map[string]any{"name": name}, func(st *domain.PlannerState) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return invalid("location name is required")
		}
		added = domain.Location{
			ID:    st.NextLocationID,
			Name:  name,
			Color: domain.CoalesceStr(strings.TrimSpace(color), normalize.DefaultLocationColor),
		}
		st.NextLocationID++
		st.Locations = append(st.Locations, added)
		return nil
	})
	return added, err
}

// EditLocation renames and recolors a location.
func (s *Service) EditLocation(ctx context.Context, id int, name, color string) (domain.Location, error) {
	var edited domain.Location
	err := s.commit(ctx, "edit-location", map[string]any{"location_id": id}, func(st *domain.PlannerState) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return invalid("location name is required")
		}
		loc := st.FindLocation(id)
		if loc == nil {
			return notFound("location %d", id)
		}
		loc.Name = name
		loc.Color = domain.CoalesceStr(strings.TrimSpace(color), normalize.DefaultLocationColor)
		edited = *loc
		return nil
	})
	return edited, err
}

// TaskProgress is how far one task has been planned at one location.
type TaskProgress struct {
	Task        domain.Task
	Occurrences int
	Weeks       int
	// Target is the occurrence goal shown next to the count, 0 when the
	// frequency has none.
	Target   int
	Complete bool
}

// LocationStats lists every task that can run at location id with how
// often it is planned there. An entry counts at the location recorded on
// it; entries without one count nowhere.
func (s *Service) LocationStats(id int) ([]TaskProgress, error) {
	st := s.store.Snapshot()
	if st.FindLocation(id) == nil {
		return nil, notFound("location %d", id)
	}

	type tally struct {
		occurrences int
		weeks       map[int]struct{}
	}
	counts := make(map[int]*tally)
	for w := 0; w < domain.Weeks; w++ {
		for d := 0; d < domain.DaysPerWeek; d++ {
			for _, e := range st.Assignments[w][d] {
				if !e.IsTask() || e.LocationID == nil || *e.LocationID != id {
					continue
				}
				t := counts[e.TaskID]
				if t == nil {
					t = &tally{weeks: make(map[int]struct{})}
					counts[e.TaskID] = t
				}
				t.occurrences++
				t.weeks[w] = struct{}{}
			}
		}
	}

	var out []TaskProgress
	for _, task := range st.Tasks {
		if !task.Location.IsAll() && task.Location.ID() != id {
			continue
		}
		p := TaskProgress{Task: task}
		if t := counts[task.ID]; t != nil {
			p.Occurrences = t.occurrences
			p.Weeks = len(t.weeks)
		}
		switch task.Frequency {
		case domain.FrequencyWeekly:
			p.Target = WeeklyTarget
			p.Complete = p.Weeks >= WeeklyTarget
		case domain.FrequencyDaily:
			p.Target = DailyTarget
			p.Complete = p.Occurrences >= DailyTarget
		default:
			p.Complete = p.Occurrences > 0
		}
		out = append(out, p)
	}
	return out, nil
}
