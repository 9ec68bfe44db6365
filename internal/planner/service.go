// Package planner holds every user-facing command and query over the
// planner state. Each command is a single commit on the state store, so it
// is persisted locally and scheduled for remote sync as one unit, or not
// at all when validation fails.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/domain"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
)

// errUnchanged aborts a commit that would not change anything.
var errUnchanged = errors.New("unchanged")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Store is the state store the planner mutates.
type Store interface {
	Commit(ctx context.Context, fn func(st *domain.PlannerState) error) error
	Snapshot() *domain.PlannerState
}

type Option func(*Service)

// WithGuard runs guard before every command. A non-nil result aborts the
// command; the session binder uses it to refuse edits while signed out.
func WithGuard(guard func() error) Option {
	return func(s *Service) {
		s.guard = guard
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithObserver(o UseCaseObserver) Option {
	return func(s *Service) {
		s.observer = useCaseObserverOrNoop([]UseCaseObserver{o})
	}
}

type Service struct {
	store    Store
	clock    clock.Clock
	guard    func() error
	observer UseCaseObserver
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		clock:    clock.Real(),
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() *domain.PlannerState {
	return s.store.Snapshot()
}

// Now is the service clock's current time.
func (s *Service) Now() time.Time { return s.clock.Now() }

// Today returns the local calendar date as UTC midnight, the form planner
// dates use.
func (s *Service) Today() time.Time {
	now := s.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) commit(ctx context.Context, name string, fields map[string]any, fn func(st *domain.PlannerState) error) (err error) {
	startedAt := s.clock.Now()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: startedAt,
			Duration:  s.clock.Now().Sub(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if s.guard != nil {
		if err = s.guard(); err != nil {
			return err
		}
	}
	err = s.store.Commit(ctx, fn)
	if errors.Is(err, errUnchanged) {
		err = nil
	}
	return err
}

func checkCell(week, day int) error {
	if !domain.InGrid(week, day) {
		return invalid("no cell at week %d, day %d", week+1, day+1)
	}
	return nil
}

func checkEntry(st *domain.PlannerState, week, day, index int) (*domain.Entry, error) {
	if err := checkCell(week, day); err != nil {
		return nil, err
	}
	cell := st.Assignments[week][day]
	if index < 0 || index >= len(cell) {
		return nil, invalid("no entry %d in week %d, day %d", index, week+1, day+1)
	}
	return &cell[index], nil
}

func checkWeek(week int) error {
	if week < 0 || week >= domain.Weeks {
		return invalid("no week %d", week+1)
	}
	return nil
}
