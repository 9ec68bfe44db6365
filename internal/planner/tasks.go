package planner

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/domain"
)

// TaskInput is the raw form of a task as entered by the user.
type TaskInput struct {
	Name        string
	Description string
	// Minutes must parse as an integer. Negative values are allowed and
	// mark breaks such as lunch.
	Minutes   string
	Frequency string
	// Location is "all", "" or a location id.
	Location string
}

func (in TaskInput) build(st *domain.PlannerState) (domain.Task, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Task{}, invalid("task name is required")
	}
	minutes, err := ParseMinutes(in.Minutes)
	if err != nil {
		return domain.Task{}, err
	}
	freq, err := ParseFrequency(in.Frequency)
	if err != nil {
		return domain.Task{}, err
	}
	loc, err := resolveLocation(st, in.Location)
	if err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		LengthMinutes: minutes,
		Frequency:     freq,
		Location:      loc,
	}, nil
}

// ParseMinutes parses a task length. Leading integers are accepted the way
// the form always has ("45m" is 45).
func ParseMinutes(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && (raw[end] >= '0' && raw[end] <= '9' || end == 0 && (raw[end] == '-' || raw[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0, invalid("minutes must be a number (negative for breaks), got %q", raw)
	}
	if n > math.MaxInt32 || n < -math.MaxInt32 {
		return 0, invalid("minutes out of range, got %q", raw)
	}
	return n, nil
}

// ParseFrequency accepts any known frequency, case-insensitively. Empty
// means daily.
func ParseFrequency(raw string) (domain.Frequency, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return domain.FrequencyDaily, nil
	}
	f := domain.Frequency(raw)
	if !domain.ValidFrequencies[f] {
		return "", invalid("unknown frequency %q", raw)
	}
	return f, nil
}

// resolveLocation parses a location reference and checks that a specific
// location exists.
func resolveLocation(st *domain.PlannerState, raw string) (domain.LocationRef, error) {
	raw = strings.TrimSpace(raw)
	ref := domain.ParseLocationRef(raw)
	if ref.IsAll() {
		if raw != "" && !strings.EqualFold(raw, "all") {
			return 0, invalid("location must be \"all\" or a location id, got %q", raw)
		}
		return domain.AllLocations, nil
	}
	if st.FindLocation(ref.ID()) == nil {
		return 0, notFound("location %d", ref.ID())
	}
	return ref, nil
}

// AddTask appends a new task and returns it with its id.
func (s *Service) AddTask(ctx context.Context, in TaskInput) (domain.Task, error) {
	var added domain.Task
	err := s.commit(ctx, "add-task", map[string]any{"name": in.Name}, func(st *domain.PlannerState) error {
		t, err := in.build(st)
		if err != nil {
			return err
		}
		t.ID = st.NextTaskID
		st.NextTaskID++
		st.Tasks = append(st.Tasks, t)
		added = t
		return nil
	})
	return added, err
}

// EditTask replaces every editable field of task id.
func (s *Service) EditTask(ctx context.Context, id int, in TaskInput) (domain.Task, error) {
	var edited domain.Task
	err := s.commit(ctx, "edit-task", map[string]any{"task_id": id}, func(st *domain.PlannerState) error {
		task, _ := st.FindTask(id)
		if task == nil {
			return notFound("task %d", id)
		}
		t, err := in.build(st)
		if err != nil {
			return err
		}
		t.ID = id
		*task = t
		edited = t
		return nil
	})
	return edited, err
}

// SetTaskMinutes is the inline minutes edit.
func (s *Service) SetTaskMinutes(ctx context.Context, id int, raw string) error {
	return s.commit(ctx, "set-task-minutes", map[string]any{"task_id": id}, func(st *domain.PlannerState) error {
		minutes, err := ParseMinutes(raw)
		if err != nil {
			return err
		}
		task, _ := st.FindTask(id)
		if task == nil {
			return notFound("task %d", id)
		}
		task.LengthMinutes = minutes
		return nil
	})
}

// SetTaskFrequency is the inline frequency edit.
func (s *Service) SetTaskFrequency(ctx context.Context, id int, raw string) error {
	return s.commit(ctx, "set-task-frequency", map[string]any{"task_id": id}, func(st *domain.PlannerState) error {
		freq, err := ParseFrequency(raw)
		if err != nil {
			return err
		}
		task, _ := st.FindTask(id)
		if task == nil {
			return notFound("task %d", id)
		}
		task.Frequency = freq
		return nil
	})
}

// DeleteTask removes the task and every calendar entry that refers to it.
// It returns the number of entries removed.
func (s *Service) DeleteTask(ctx context.Context, id int) (int, error) {
	removed := 0
	err := s.commit(ctx, "delete-task", map[string]any{"task_id": id}, func(st *domain.PlannerState) error {
		_, idx := st.FindTask(id)
		if idx < 0 {
			return notFound("task %d", id)
		}
		st.Tasks = append(st.Tasks[:idx], st.Tasks[idx+1:]...)
		for w := range st.Assignments {
			for d := range st.Assignments[w] {
				kept := st.Assignments[w][d][:0]
				for _, e := range st.Assignments[w][d] {
					if e.IsTask() && e.TaskID == id {
						removed++
						continue
					}
					kept = append(kept, e)
				}
				st.Assignments[w][d] = kept
			}
		}
		return nil
	})
	return removed, err
}

// MoveTask reorders the task list, moving the task at from to index to.
func (s *Service) MoveTask(ctx context.Context, from, to int) error {
	return s.commit(ctx, "move-task", map[string]any{"from": from, "to": to}, func(st *domain.PlannerState) error {
		n := len(st.Tasks)
		if from < 0 || from >= n || to < 0 || to >= n {
			return invalid("task positions must be between 1 and %d", n)
		}
		if from == to {
			return errUnchanged
		}
		moved := st.Tasks[from]
		st.Tasks = append(st.Tasks[:from], st.Tasks[from+1:]...)
		st.Tasks = append(st.Tasks[:to], append([]domain.Task{moved}, st.Tasks[to:]...)...)
		return nil
	})
}
