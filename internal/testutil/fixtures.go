package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/weekgrid/internal/domain"
)

var identityCounter atomic.Int64

// Task options
type TaskOption func(*domain.Task)

func WithLength(minutes int) TaskOption {
	return func(t *domain.Task) {
		t.LengthMinutes = minutes
	}
}

func WithFrequency(f domain.Frequency) TaskOption {
	return func(t *domain.Task) {
		t.Frequency = f
	}
}

func WithTaskLocation(locationID int) TaskOption {
	return func(t *domain.Task) {
		t.Location = domain.LocationRef(locationID)
	}
}

func WithDescription(d string) TaskOption {
	return func(t *domain.Task) {
		t.Description = d
	}
}

// NewTestTask returns a 30-minute daily task for all locations. The id is
// assigned when the task is added with WithTasks.
func NewTestTask(name string, opts ...TaskOption) domain.Task {
	t := domain.Task{
		Name:          name,
		LengthMinutes: 30,
		Frequency:     domain.FrequencyDaily,
		Location:      domain.AllLocations,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// State options
type StateOption func(*domain.PlannerState)

// WithTasks appends tasks, numbering them from the state's task counter.
func WithTasks(tasks ...domain.Task) StateOption {
	return func(s *domain.PlannerState) {
		for _, t := range tasks {
			t.ID = s.NextTaskID
			s.NextTaskID++
			s.Tasks = append(s.Tasks, t)
		}
	}
}

// WithLocations appends one location per name with the default color.
func WithLocations(names ...string) StateOption {
	return func(s *domain.PlannerState) {
		for _, name := range names {
			s.Locations = append(s.Locations, domain.Location{
				ID:    s.NextLocationID,
				Name:  name,
				Color: "#ffffaa",
			})
			s.NextLocationID++
		}
	}
}

func WithStartMonday(iso string) StateOption {
	return func(s *domain.PlannerState) {
		s.StartMondayISO = domain.StringPtr(iso)
	}
}

func WithLastModified(ms int64) StateOption {
	return func(s *domain.PlannerState) {
		s.LastModified = ms
	}
}

// WithEntries replaces the entries of one cell.
func WithEntries(week, day int, entries ...domain.Entry) StateOption {
	return func(s *domain.PlannerState) {
		s.Assignments[week][day] = append([]domain.Entry{}, entries...)
	}
}

// NewTestState returns an empty planner state with opts applied.
func NewTestState(opts ...StateOption) *domain.PlannerState {
	s := domain.NewPlannerState()
	for _, opt := range opts {
		opt(s)
	}
	s.RecomputeNextIDs()
	return s
}

// NewTestIdentity returns an identity with a unique id and an email derived
// from name.
func NewTestIdentity(name string) domain.Identity {
	n := identityCounter.Add(1)
	return domain.Identity{
		ID:          fmt.Sprintf("uid-%s-%d", name, n),
		Email:       name + "@example.com",
		DisplayName: name,
	}
}
