package planner

import (
	"context"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
)

// Export returns the full serializable state.
func (s *Service) Export() domain.SerializableState {
	return s.store.Snapshot().Serializable()
}

// Import replaces the whole state with raw after normalizing it. It is an
// ordinary commit: the imported data gets a fresh lastModified and is
// synced like any other edit.
func (s *Service) Import(ctx context.Context, raw normalize.Raw) error {
	loaded := normalize.Normalize(raw)
	fields := map[string]any{"tasks": len(loaded.Tasks), "tracked": len(loaded.TrackedTasks)}
	return s.commit(ctx, "import", fields, func(st *domain.PlannerState) error {
		*st = *loaded
		return nil
	})
}

// Clear replaces the state with an empty one.
func (s *Service) Clear(ctx context.Context) error {
	return s.commit(ctx, "clear", nil, func(st *domain.PlannerState) error {
		*st = *domain.NewPlannerState()
		return nil
	})
}
