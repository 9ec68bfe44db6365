package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-01-21 is the Wednesday of week 3 when week 1 starts 2026-01-05.
var now = time.Date(2026, 1, 21, 15, 0, 0, 0, time.UTC)

type recordingObserver struct {
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, ev UseCaseEvent) {
	o.events = append(o.events, ev)
}

func newService(t *testing.T, opts ...Option) (*Service, *state.Store) {
	t.Helper()
	clk := clock.NewFake(now)
	store := state.New(nil, clk, nil)
	return New(store, append([]Option{WithClock(clk)}, opts...)...), store
}

func mustAddTask(t *testing.T, s *Service, name, minutes, freq, loc string) domain.Task {
	t.Helper()
	task, err := s.AddTask(context.Background(), TaskInput{Name: name, Minutes: minutes, Frequency: freq, Location: loc})
	require.NoError(t, err)
	return task
}

func mustAddLocation(t *testing.T, s *Service, name string) domain.Location {
	t.Helper()
	loc, err := s.AddLocation(context.Background(), name, "")
	require.NoError(t, err)
	return loc
}

func TestCommit_ObserverSeesSuccessAndFailure(t *testing.T) {
	obs := &recordingObserver{}
	s, _ := newService(t, WithObserver(obs))
	ctx := context.Background()

	_, err := s.AddTask(ctx, TaskInput{Name: "Inspect", Minutes: "30"})
	require.NoError(t, err)
	_, err = s.AddTask(ctx, TaskInput{Name: "", Minutes: "30"})
	require.ErrorIs(t, err, ErrValidation)

	require.Len(t, obs.events, 2)
	assert.Equal(t, "add-task", obs.events[0].Name)
	assert.True(t, obs.events[0].Success)
	assert.False(t, obs.events[1].Success)
	assert.ErrorIs(t, obs.events[1].Err, ErrValidation)
}

func TestCommit_GuardBlocksCommands(t *testing.T) {
	errSignedOut := errors.New("signed out")
	s, store := newService(t, WithGuard(func() error { return errSignedOut }))

	_, err := s.AddLocation(context.Background(), "Site", "")
	assert.ErrorIs(t, err, errSignedOut)
	assert.Empty(t, store.Snapshot().Locations)
	assert.Equal(t, int64(0), store.LastModified())
}

func TestCommit_UnchangedDoesNotStamp(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	mustAddTask(t, s, "A", "10", "", "")
	mustAddTask(t, s, "B", "10", "", "")
	before := store.LastModified()

	require.NoError(t, s.MoveTask(ctx, 1, 1))
	assert.Equal(t, before, store.LastModified())
}

func TestNewLogUseCaseObserver_NilLogger(t *testing.T) {
	assert.Equal(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
}
