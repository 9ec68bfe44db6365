// Package state owns the live planner state of the signed-in identity.
//
// All mutations go through Commit, which stamps lastModified, writes the
// local cache, asks the save scheduler for a remote write and then notifies
// listeners, in that order.
package state

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
)

// Cache is the local persistence the store writes through.
type Cache interface {
	Load(ctx context.Context) (normalize.Raw, bool)
	Save(ctx context.Context, snapshot normalize.Raw) bool
}

// SaveScheduler is told about every committed mutation.
type SaveScheduler interface {
	ScheduleSave()
}

// Listener receives a copy of the state after each change. The copy is
// shared between listeners and must not be modified. Listeners must not
// call Commit.
type Listener func(s *domain.PlannerState)

type subscription struct {
	id int
	l  Listener
}

type Store struct {
	cache  Cache
	clock  clock.Clock
	logger *slog.Logger

	// commitMu serializes writers, mu guards the state pointer for readers.
	commitMu sync.Mutex
	mu       sync.RWMutex
	state    *domain.PlannerState

	scheduler    SaveScheduler
	listeners    []subscription
	nextListener int
}

func New(cache Cache, clk clock.Clock, logger *slog.Logger) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		cache:  cache,
		clock:  clk,
		logger: logger.With("component", "state"),
		state:  domain.NewPlannerState(),
	}
}

// SetSaveScheduler registers the component told about every commit. Pass
// nil to stop scheduling.
func (s *Store) SetSaveScheduler(sched SaveScheduler) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.scheduler = sched
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (cancel func()) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, subscription{id: id, l: l})
	return func() {
		s.commitMu.Lock()
		defer s.commitMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}

// Commit runs fn against a copy of the state. When fn returns an error the
// live state is untouched and nothing is persisted or scheduled.
func (s *Store) Commit(ctx context.Context, fn func(st *domain.PlannerState) error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	next := s.Snapshot()
	if err := fn(next); err != nil {
		return err
	}
	next.LastModified = s.stamp(s.LastModified())

	s.swap(next)
	persisted := s.persistLocked(ctx, next)
	s.logger.DebugContext(ctx, "state committed", "last_modified", next.LastModified, "persisted", persisted)
	if s.scheduler != nil {
		s.scheduler.ScheduleSave()
	}
	s.notifyLocked(next)
	return nil
}

// ResetToEmpty replaces the state with an empty one. Nothing is persisted.
func (s *Store) ResetToEmpty() {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	empty := domain.NewPlannerState()
	s.swap(empty)
	s.notifyLocked(empty)
}

// InitializeEmpty resets to an empty state stamped with the current time
// and persists it. Used when an identity has no remote document yet.
func (s *Store) InitializeEmpty(ctx context.Context) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	empty := domain.NewPlannerState()
	empty.LastModified = s.stamp(s.LastModified())
	s.swap(empty)
	s.persistLocked(ctx, empty)
	s.notifyLocked(empty)
}

// ApplyLoadedState normalizes raw and makes it the live state, keeping
// its lastModified. Nothing is persisted or scheduled.
func (s *Store) ApplyLoadedState(raw normalize.Raw) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	loaded := normalize.Normalize(raw)
	s.swap(loaded)
	s.notifyLocked(loaded)
}

// LoadFromCache applies the cached snapshot of the bound identity. It
// reports whether one was found.
func (s *Store) LoadFromCache(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	raw, ok := s.cache.Load(ctx)
	if !ok {
		return false
	}
	s.ApplyLoadedState(raw)
	return true
}

// PersistLocal writes the current state to the cache.
func (s *Store) PersistLocal(ctx context.Context) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	return s.persistLocked(ctx, s.Snapshot())
}

// Snapshot returns a deep copy of the live state.
func (s *Store) Snapshot() *domain.PlannerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Serializable returns the full-state wire shape of the live state.
func (s *Store) Serializable() domain.SerializableState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Serializable()
}

func (s *Store) LastModified() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastModified
}

// stamp returns now in epoch ms, or prev+1 when the clock has not moved
// past prev.
func (s *Store) stamp(prev int64) int64 {
	return max(clock.NowMillis(s.clock), prev+1)
}

func (s *Store) swap(next *domain.PlannerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next.Clone()
}

func (s *Store) persistLocked(ctx context.Context, st *domain.PlannerState) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.Save(ctx, normalize.FromState(st))
}

func (s *Store) notifyLocked(st *domain.PlannerState) {
	for _, sub := range s.listeners {
		sub.l(st)
	}
}
