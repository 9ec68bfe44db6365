package normalize

import "github.com/alexanderramin/weekgrid/internal/domain"

// Field defaults applied when a stored value is missing or unusable.
const (
	DefaultLocationColor = "#ffffaa"
	DefaultFrequency     = domain.FrequencyDaily
	DefaultFieldType     = domain.FieldText
	DefaultExpiryDays    = 28
)

// DefaultTaskLocation is used when a task or tracked task carries no location.
const DefaultTaskLocation = domain.AllLocations

// DefaultWeekVisibility shows every week.
var DefaultWeekVisibility = [domain.Weeks]bool{true, true, true, true}

// Defaults summarizes the table above for diagnostics and the status command.
var Defaults = []struct {
	Field   string
	Default string
}{
	{"task.location", "all"},
	{"task.frequency", string(DefaultFrequency)},
	{"location.color", DefaultLocationColor},
	{"weekVisibility", "[true true true true]"},
	{"dayCellSettings.startTime", "null unless HH:MM"},
	{"dayCellSettings.startLocationId", "null unless a positive id"},
	{"startMondayISO", "null unless yyyy-mm-dd"},
	{"entry.done", "false"},
	{"entry.locationId", "replayed from the day's travel timeline"},
	{"trackedTask.location", "all"},
	{"trackedTask.categoryId", "null"},
	{"trackedTask.fields", "[]"},
	{"field.type", string(DefaultFieldType)},
	{"field.value", `false for checkbox, "" otherwise`},
	{"field.highlightEnabled", "false (date fields)"},
	{"field.expiryDays", "28 (date fields)"},
}
