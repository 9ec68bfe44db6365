package domain

import (
	"encoding/json"
	"fmt"
)

// Snapshot field names. These are the keys of the local per-field cache and
// the top-level keys of the serialized state.
const (
	FieldTasks             = "tasks"
	FieldAssignments       = "assignments"
	FieldLocations         = "locations"
	FieldDayCellSettings   = "dayCellSettings"
	FieldWeekVisibility    = "weekVisibility"
	FieldStartMondayISO    = "startMondayISO"
	FieldLastModified      = "lastModified"
	FieldTrackedCategories = "trackedCategories"
	FieldTrackedTasks      = "trackedTasks"
)

// SnapshotFields lists every persisted field in write order.
var SnapshotFields = []string{
	FieldTasks, FieldAssignments, FieldLocations, FieldDayCellSettings,
	FieldWeekVisibility, FieldStartMondayISO, FieldLastModified,
	FieldTrackedCategories, FieldTrackedTasks,
}

// SerializableState is the full-state wire shape used for the remote
// payload and backups.
type SerializableState struct {
	Version           int               `json:"version"`
	Tasks             []Task            `json:"tasks"`
	Assignments       Assignments       `json:"assignments"`
	Locations         []Location        `json:"locations"`
	DayCellSettings   DayCellGrid       `json:"dayCellSettings"`
	WeekVisibility    [Weeks]bool       `json:"weekVisibility"`
	StartMondayISO    *string           `json:"startMondayISO"`
	LastModified      int64             `json:"lastModified"`
	TrackedCategories []TrackedCategory `json:"trackedCategories"`
	TrackedTasks      []TrackedTask     `json:"trackedTasks"`
}

// Serializable returns the wire shape of s. The result shares no memory
// with s.
func (s *PlannerState) Serializable() SerializableState {
	c := s.Clone()
	return SerializableState{
		Version:           SchemaVersion,
		Tasks:             c.Tasks,
		Assignments:       c.Assignments,
		Locations:         c.Locations,
		DayCellSettings:   c.DayCellSettings,
		WeekVisibility:    c.WeekVisibility,
		StartMondayISO:    c.StartMondayISO,
		LastModified:      c.LastModified,
		TrackedCategories: c.TrackedCategories,
		TrackedTasks:      c.TrackedTasks,
	}
}

// SnapshotValues encodes each persisted field separately, keyed by field
// name.
func (s *PlannerState) SnapshotValues() (map[string]json.RawMessage, error) {
	values := map[string]any{
		FieldTasks:             s.Tasks,
		FieldAssignments:       s.Assignments,
		FieldLocations:         s.Locations,
		FieldDayCellSettings:   s.DayCellSettings,
		FieldWeekVisibility:    s.WeekVisibility,
		FieldStartMondayISO:    s.StartMondayISO,
		FieldLastModified:      s.LastModified,
		FieldTrackedCategories: s.TrackedCategories,
		FieldTrackedTasks:      s.TrackedTasks,
	}
	out := make(map[string]json.RawMessage, len(values))
	for name, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}
