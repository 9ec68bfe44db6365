package planner

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCategory_ReusesByName(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()

	a, err := s.AddCategory(ctx, "Filters")
	require.NoError(t, err)
	stamp := store.LastModified()
	b, err := s.AddCategory(ctx, " filters ")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, s.Snapshot().TrackedCategories, 1)
	assert.Equal(t, stamp, store.LastModified(), "reuse commits nothing")

	_, err = s.AddCategory(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateTracked_AllLocationsExpands(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	in := TrackedInput{
		Title:       "Pump check",
		Location:    "all",
		NewCategory: "Pumps",
		Fields: []FieldSpec{
			{Label: "Checked", Type: domain.FieldCheckbox},
			{Label: "Last service", Type: domain.FieldDate, HighlightEnabled: true},
			{Label: "Notes"},
		},
	}

	_, err := s.CreateTracked(ctx, in)
	assert.ErrorIs(t, err, ErrValidation, "no locations yet")

	mustAddLocation(t, s, "North")
	mustAddLocation(t, s, "South")
	created, err := s.CreateTracked(ctx, in)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, 1, created[0].Location.ID())
	assert.Equal(t, 2, created[1].Location.ID())
	assert.Equal(t, created[0].CategoryID, created[1].CategoryID)
	assert.NotEqual(t, created[0].Fields[0].ID, created[1].Fields[0].ID, "each copy has its own field ids")

	f := created[0].Fields
	assert.Equal(t, false, f[0].Value)
	assert.Nil(t, f[0].ExpiryDays)
	assert.Equal(t, "", f[1].Value)
	assert.Equal(t, normalize.DefaultExpiryDays, *f[1].ExpiryDays)
	assert.True(t, *f[1].HighlightEnabled)
	assert.Equal(t, domain.FieldText, f[2].Type)

	snap := s.Snapshot()
	assert.Equal(t, normalize.Normalize(normalize.FromState(snap)).TrackedTasks, snap.TrackedTasks, "created tasks are already normalized")
}

func TestCreateTracked_Validation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	mustAddLocation(t, s, "North")

	_, err := s.CreateTracked(ctx, TrackedInput{Title: " ", Location: "1"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateTracked(ctx, TrackedInput{Title: "T", Location: "1", CategoryID: 4})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.CreateTracked(ctx, TrackedInput{Title: "T", Location: "1", Fields: []FieldSpec{{Label: "x", Type: "color"}}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, s.Snapshot().TrackedTasks)
}

func TestEditTracked_KeepsValuesOfKeptFields(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	mustAddLocation(t, s, "North")
	created, err := s.CreateTracked(ctx, TrackedInput{Title: "Tank", Location: "1", Fields: []FieldSpec{
		{Label: "Level", Type: domain.FieldNumber},
		{Label: "Clean", Type: domain.FieldCheckbox},
	}})
	require.NoError(t, err)
	task := created[0]
	level, clean := task.Fields[0], task.Fields[1]
	require.NoError(t, s.SetFieldValue(ctx, task.ID, level.ID, "75"))
	require.NoError(t, s.SetFieldValue(ctx, task.ID, clean.ID, "on"))

	edited, err := s.EditTracked(ctx, task.ID, TrackedInput{Title: "Tank 2", Location: "all", Fields: []FieldSpec{
		{ID: clean.ID, Label: "Clean?"},
		{ID: level.ID, Label: "Level", Type: domain.FieldText},
		{Label: "Inspected", Type: domain.FieldDate, ExpiryDays: 7},
	}})
	require.NoError(t, err)

	assert.Equal(t, "Tank 2", edited.Title)
	assert.True(t, edited.Location.IsAll(), "editing to all does not expand")
	require.Len(t, edited.Fields, 3)
	assert.Equal(t, clean.ID, edited.Fields[0].ID)
	assert.Equal(t, domain.FieldCheckbox, edited.Fields[0].Type, "type is kept when not given")
	assert.Equal(t, true, edited.Fields[0].Value)
	assert.Equal(t, "", edited.Fields[1].Value, "type change resets the value")
	assert.Greater(t, edited.Fields[2].ID, clean.ID)
	assert.Equal(t, 7, *edited.Fields[2].ExpiryDays)

	_, err = s.EditTracked(ctx, 99, TrackedInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetFieldValue(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	mustAddLocation(t, s, "North")
	created, err := s.CreateTracked(ctx, TrackedInput{Title: "T", Location: "1", Fields: []FieldSpec{
		{Label: "Box", Type: domain.FieldCheckbox},
		{Label: "When", Type: domain.FieldDate},
		{Label: "Note"},
	}})
	require.NoError(t, err)
	task := created[0]
	box, when, note := task.Fields[0].ID, task.Fields[1].ID, task.Fields[2].ID

	require.NoError(t, s.SetFieldValue(ctx, task.ID, box, "TRUE"))
	assert.ErrorIs(t, s.SetFieldValue(ctx, task.ID, box, "maybe"), ErrValidation)
	assert.ErrorIs(t, s.SetFieldValue(ctx, task.ID, when, "yesterday"), ErrValidation)
	require.NoError(t, s.SetFieldValue(ctx, task.ID, note, "  spaced  "))
	require.NoError(t, s.SetFieldToday(ctx, task.ID, when))
	assert.ErrorIs(t, s.SetFieldToday(ctx, task.ID, note), ErrValidation)
	assert.ErrorIs(t, s.SetFieldValue(ctx, task.ID, 999, "x"), ErrNotFound)

	got := s.Snapshot().FindTrackedTask(task.ID).Fields
	assert.Equal(t, true, got[0].Value)
	assert.Equal(t, "2026-01-21", got[1].Value)
	assert.Equal(t, "  spaced  ", got[2].Value)
}

func TestDeleteTracked(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	mustAddLocation(t, s, "North")
	created, err := s.CreateTracked(ctx, TrackedInput{Title: "T", Location: "1"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTracked(ctx, created[0].ID))
	assert.Empty(t, s.Snapshot().TrackedTasks)
	assert.ErrorIs(t, s.DeleteTracked(ctx, created[0].ID), ErrNotFound)
}

func TestBulkAddField(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	mustAddLocation(t, s, "North")
	mustAddLocation(t, s, "South")
	cat, err := s.AddCategory(ctx, "Pumps")
	require.NoError(t, err)

	_, err = s.CreateTracked(ctx, TrackedInput{Title: "Main pump", Location: "all", CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = s.CreateTracked(ctx, TrackedInput{Title: "Spare pump", Location: "2",
		Fields: []FieldSpec{{Label: "serviced", Type: domain.FieldDate}}})
	require.NoError(t, err)
	_, err = s.CreateTracked(ctx, TrackedInput{Title: "Filter", Location: "2"})
	require.NoError(t, err)

	n, err := s.BulkAddField(ctx, BulkFilter{Search: "PUMP"}, FieldSpec{Label: "Serviced", Type: domain.FieldDate, ExpiryDays: -3})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the spare pump already has the label")

	n, err = s.BulkAddField(ctx, BulkFilter{LocationID: 2, CategoryID: cat.ID}, FieldSpec{Label: "Oil", Type: domain.FieldCheckbox})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stamp := store.LastModified()
	n, err = s.BulkAddField(ctx, BulkFilter{Search: "nothing matches"}, FieldSpec{Label: "X"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, stamp, store.LastModified())

	_, err = s.BulkAddField(ctx, BulkFilter{}, FieldSpec{Label: " "})
	assert.ErrorIs(t, err, ErrValidation)

	for _, tt := range s.Snapshot().TrackedTasks {
		if tt.Title == "Main pump" {
			last := tt.Fields[0]
			assert.Equal(t, normalize.DefaultExpiryDays, *last.ExpiryDays, "non-positive expiry falls back")
		}
	}
}

func TestTracked_Filters(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	mustAddLocation(t, s, "North")
	mustAddLocation(t, s, "South")

	_, err := s.CreateTracked(ctx, TrackedInput{Title: "Pump", Location: "all", NewCategory: "Pumps"})
	require.NoError(t, err)
	_, err = s.CreateTracked(ctx, TrackedInput{Title: "Tank lid", Location: "2"})
	require.NoError(t, err)

	titles := func(f BulkFilter) []string {
		var out []string
		for _, tt := range s.Tracked(f) {
			out = append(out, tt.Title)
		}
		return out
	}
	assert.Equal(t, []string{"Pump", "Pump", "Tank lid"}, titles(BulkFilter{}))
	assert.Equal(t, []string{"Pump", "Tank lid"}, titles(BulkFilter{LocationID: 2}))
	assert.Equal(t, []string{"Pump", "Pump"}, titles(BulkFilter{CategoryID: 1}))
	assert.Equal(t, []string{"Tank lid"}, titles(BulkFilter{Search: " LID"}))
	assert.Empty(t, titles(BulkFilter{LocationID: 1, Search: "tank"}))
}

func TestDateUrgency(t *testing.T) {
	today := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	field := func(value string, highlight bool, exp int) domain.TrackedField {
		return domain.TrackedField{Type: domain.FieldDate, Value: value, HighlightEnabled: domain.BoolPtr(highlight), ExpiryDays: domain.IntPtr(exp)}
	}

	r, ok := DateUrgency(field("2026-01-15", true, 28), today)
	require.True(t, ok)
	assert.InDelta(t, 0.5, r, 1e-9)

	r, ok = DateUrgency(field("2025-12-01", true, 28), today)
	require.True(t, ok)
	assert.Equal(t, 1.0, r)

	r, ok = DateUrgency(field("2026-02-10", true, 28), today)
	require.True(t, ok)
	assert.Equal(t, 0.0, r)

	_, ok = DateUrgency(field("2026-01-15", false, 28), today)
	assert.False(t, ok)
	_, ok = DateUrgency(field("", true, 28), today)
	assert.False(t, ok)
	_, ok = DateUrgency(domain.TrackedField{Type: domain.FieldText, Value: "2026-01-15"}, today)
	assert.False(t, ok)

	task := domain.TrackedTask{Fields: []domain.TrackedField{
		field("2026-01-22", true, 28),
		field("2026-01-22", true, 7),
		field("2026-01-01", false, 1),
	}}
	r, ok = MostUrgent(task, today)
	require.True(t, ok)
	assert.Equal(t, 1.0, r)

	_, ok = MostUrgent(domain.TrackedTask{}, today)
	assert.False(t, ok)
}

func TestImportAndClear(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	mustAddTask(t, s, "Old", "5", "", "")

	raw := normalize.FromJSON([]byte(`{"tasks":[{"id":7,"name":"Imported"}],"assignments":[[[7]]],"lastModified":5}`))
	require.NoError(t, s.Import(ctx, raw))

	snap := s.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "Imported", snap.Tasks[0].Name)
	assert.Equal(t, 8, snap.NextTaskID)
	assert.Equal(t, now.UnixMilli()+1, store.LastModified(), "import is stamped like any commit")

	exported := s.Export()
	assert.Equal(t, domain.SchemaVersion, exported.Version)
	assert.Equal(t, "Imported", exported.Tasks[0].Name)

	require.NoError(t, s.Clear(ctx))
	assert.True(t, s.Snapshot().IsEmpty())
}
