package planner

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
)

// FieldSpec describes one form field of a tracked task. ID is set when
// editing an existing field so its value is kept.
type FieldSpec struct {
	ID               int
	Label            string
	Type             domain.FieldType
	HighlightEnabled bool
	ExpiryDays       int
}

// TrackedInput is the raw form of a tracked task.
type TrackedInput struct {
	Title string
	// Location is "all" or a location id. Creating with "all" makes one
	// task per location.
	Location string
	// CategoryID picks an existing category. NewCategory, when set, wins
	// and reuses a category of the same name.
	CategoryID  int
	NewCategory string
	Fields      []FieldSpec
}

// BulkFilter selects tracked tasks for Tracked and BulkAddField. Zero
// values match everything.
type BulkFilter struct {
	LocationID int
	CategoryID int
	Search     string
}

// Match reports whether t passes every set filter. Search is a
// case-insensitive title substring.
func (f BulkFilter) Match(t domain.TrackedTask) bool {
	if f.LocationID != 0 && t.Location.ID() != f.LocationID {
		return false
	}
	if f.CategoryID != 0 && domain.IntFromPtrWithDefault(0, t.CategoryID) != f.CategoryID {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	return needle == "" || strings.Contains(strings.ToLower(t.Title), needle)
}

// Tracked returns the tracked tasks matching filter in stored order.
func (s *Service) Tracked(filter BulkFilter) []domain.TrackedTask {
	var out []domain.TrackedTask
	for _, t := range s.store.Snapshot().TrackedTasks {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (f FieldSpec) build(id int, value any) (domain.TrackedField, error) {
	label := strings.TrimSpace(f.Label)
	if label == "" {
		return domain.TrackedField{}, invalid("field label is required")
	}
	typ := f.Type
	if typ == "" {
		typ = normalize.DefaultFieldType
	}
	if !domain.ValidFieldTypes[typ] {
		return domain.TrackedField{}, invalid("unknown field type %q", typ)
	}
	if value == nil {
		value = domain.ZeroValue(typ)
	}
	field := domain.TrackedField{ID: id, Label: label, Type: typ, Value: value}
	if typ == domain.FieldDate {
		exp := f.ExpiryDays
		if exp <= 0 {
			exp = normalize.DefaultExpiryDays
		}
		field.HighlightEnabled = domain.BoolPtr(f.HighlightEnabled)
		field.ExpiryDays = domain.IntPtr(exp)
	}
	return field, nil
}

// ensureCategory resolves the category of in, creating a new one by name
// when needed. It returns nil for uncategorized.
func ensureCategory(st *domain.PlannerState, in TrackedInput) (*int, error) {
	if name := strings.TrimSpace(in.NewCategory); name != "" {
		for _, c := range st.TrackedCategories {
			if strings.EqualFold(c.Name, name) {
				return domain.IntPtr(c.ID), nil
			}
		}
		c := domain.TrackedCategory{ID: st.NextTrackedCategoryID, Name: name}
		st.NextTrackedCategoryID++
		st.TrackedCategories = append(st.TrackedCategories, c)
		return domain.IntPtr(c.ID), nil
	}
	if in.CategoryID == 0 {
		return nil, nil
	}
	if st.FindCategory(in.CategoryID) == nil {
		return nil, notFound("category %d", in.CategoryID)
	}
	return domain.IntPtr(in.CategoryID), nil
}

// AddCategory creates a category, or returns the existing one with the
// same name.
func (s *Service) AddCategory(ctx context.Context, name string) (domain.TrackedCategory, error) {
	var cat domain.TrackedCategory
	err := s.commit(ctx, "add-category", map[string]any{"name": name}, func(st *domain.PlannerState) error {
		if strings.TrimSpace(name) == "" {
			return invalid("category name is required")
		}
		before := len(st.TrackedCategories)
		id, err := ensureCategory(st, TrackedInput{NewCategory: name})
		if err != nil {
			return err
		}
		cat = *st.FindCategory(*id)
		if len(st.TrackedCategories) == before {
			return errUnchanged
		}
		return nil
	})
	return cat, err
}

// CreateTracked adds a tracked task. With location "all" it adds one copy
// per location, each with its own field ids.
func (s *Service) CreateTracked(ctx context.Context, in TrackedInput) ([]domain.TrackedTask, error) {
	var created []domain.TrackedTask
	err := s.commit(ctx, "create-tracked", map[string]any{"title": in.Title}, func(st *domain.PlannerState) error {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return invalid("tracked task title is required")
		}
		loc, err := resolveLocation(st, in.Location)
		if err != nil {
			return err
		}
		targets := []domain.LocationRef{loc}
		if loc.IsAll() {
			if len(st.Locations) == 0 {
				return invalid("all locations selected, but no locations exist yet")
			}
			targets = targets[:0]
			for _, l := range st.Locations {
				targets = append(targets, domain.LocationRef(l.ID))
			}
		}
		category, err := ensureCategory(st, in)
		if err != nil {
			return err
		}

		for _, target := range targets {
			fields := make([]domain.TrackedField, 0, len(in.Fields))
			for _, spec := range in.Fields {
				f, err := spec.build(st.NextTrackedFieldID, nil)
				if err != nil {
					return err
				}
				st.NextTrackedFieldID++
				fields = append(fields, f)
			}
			t := domain.TrackedTask{
				ID:         st.NextTrackedTaskID,
				Title:      title,
				Location:   target,
				CategoryID: domain.CloneIntPtr(category),
				Fields:     fields,
			}
			st.NextTrackedTaskID++
			st.TrackedTasks = append(st.TrackedTasks, t)
			created = append(created, t)
		}
		return nil
	})
	return created, err
}

// EditTracked replaces title, location, category and the field list of one
// tracked task. Fields whose ID matches an existing field keep its value.
func (s *Service) EditTracked(ctx context.Context, id int, in TrackedInput) (domain.TrackedTask, error) {
	var edited domain.TrackedTask
	err := s.commit(ctx, "edit-tracked", map[string]any{"tracked_id": id}, func(st *domain.PlannerState) error {
		t := st.FindTrackedTask(id)
		if t == nil {
			return notFound("tracked task %d", id)
		}
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return invalid("tracked task title is required")
		}
		loc, err := resolveLocation(st, in.Location)
		if err != nil {
			return err
		}
		category, err := ensureCategory(st, in)
		if err != nil {
			return err
		}

		old := make(map[int]domain.TrackedField, len(t.Fields))
		for _, f := range t.Fields {
			old[f.ID] = f
		}
		fields := make([]domain.TrackedField, 0, len(in.Fields))
		for _, spec := range in.Fields {
			fid := spec.ID
			var value any
			if prev, ok := old[fid]; ok && fid != 0 {
				if spec.Type == "" {
					spec.Type = prev.Type
				}
				if spec.Type == prev.Type {
					value = prev.Value
				}
			} else {
				fid = st.NextTrackedFieldID
				st.NextTrackedFieldID++
			}
			f, err := spec.build(fid, value)
			if err != nil {
				return err
			}
			fields = append(fields, f)
		}

		t.Title = title
		t.Location = loc
		t.CategoryID = category
		t.Fields = fields
		edited = *t
		return nil
	})
	return edited, err
}

// DeleteTracked removes one tracked task.
func (s *Service) DeleteTracked(ctx context.Context, id int) error {
	return s.commit(ctx, "delete-tracked", map[string]any{"tracked_id": id}, func(st *domain.PlannerState) error {
		for i, t := range st.TrackedTasks {
			if t.ID == id {
				st.TrackedTasks = append(st.TrackedTasks[:i], st.TrackedTasks[i+1:]...)
				return nil
			}
		}
		return notFound("tracked task %d", id)
	})
}

func findField(st *domain.PlannerState, taskID, fieldID int) (*domain.TrackedField, error) {
	t := st.FindTrackedTask(taskID)
	if t == nil {
		return nil, notFound("tracked task %d", taskID)
	}
	for i := range t.Fields {
		if t.Fields[i].ID == fieldID {
			return &t.Fields[i], nil
		}
	}
	return nil, notFound("field %d of tracked task %d", fieldID, taskID)
}

// SetFieldValue stores raw as the field's value. Checkbox fields parse it
// as a boolean; date fields require yyyy-mm-dd or "".
func (s *Service) SetFieldValue(ctx context.Context, taskID, fieldID int, raw string) error {
	fields := map[string]any{"tracked_id": taskID, "field_id": fieldID}
	return s.commit(ctx, "set-field-value", fields, func(st *domain.PlannerState) error {
		f, err := findField(st, taskID, fieldID)
		if err != nil {
			return err
		}
		switch f.Type {
		case domain.FieldCheckbox:
			b, err := parseCheckbox(raw)
			if err != nil {
				return err
			}
			f.Value = b
		case domain.FieldDate:
			raw = strings.TrimSpace(raw)
			if raw != "" {
				if _, ok := domain.ParseISODate(raw); !ok {
					return invalid("date must be yyyy-mm-dd, got %q", raw)
				}
			}
			f.Value = raw
		default:
			f.Value = raw
		}
		return nil
	})
}

func parseCheckbox(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes", "y", "x":
		return true, nil
	case "off", "no", "n", "":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, invalid("checkbox value must be true or false, got %q", raw)
	}
	return b, nil
}

// SetFieldToday sets a date field to today.
func (s *Service) SetFieldToday(ctx context.Context, taskID, fieldID int) error {
	today := domain.FormatISODate(s.Today())
	fields := map[string]any{"tracked_id": taskID, "field_id": fieldID}
	return s.commit(ctx, "set-field-today", fields, func(st *domain.PlannerState) error {
		f, err := findField(st, taskID, fieldID)
		if err != nil {
			return err
		}
		if f.Type != domain.FieldDate {
			return invalid("field %q is not a date", f.Label)
		}
		f.Value = today
		return nil
	})
}

// BulkAddField adds spec to every tracked task matching filter that has
// no field with the same label yet. It returns the number of tasks
// changed; nothing is committed when that is zero.
func (s *Service) BulkAddField(ctx context.Context, filter BulkFilter, spec FieldSpec) (int, error) {
	changed := 0
	fields := map[string]any{"label": spec.Label, "location_id": filter.LocationID, "category_id": filter.CategoryID}
	err := s.commit(ctx, "bulk-add-field", fields, func(st *domain.PlannerState) error {
		if _, err := spec.build(0, nil); err != nil {
			return err
		}
		label := strings.ToLower(strings.TrimSpace(spec.Label))

		for i := range st.TrackedTasks {
			t := &st.TrackedTasks[i]
			if !filter.Match(*t) || hasLabel(t, label) {
				continue
			}
			f, _ := spec.build(st.NextTrackedFieldID, nil)
			st.NextTrackedFieldID++
			t.Fields = append(t.Fields, f)
			changed++
		}
		if changed == 0 {
			return errUnchanged
		}
		return nil
	})
	return changed, err
}

func hasLabel(t *domain.TrackedTask, lowerLabel string) bool {
	for _, f := range t.Fields {
		if strings.ToLower(strings.TrimSpace(f.Label)) == lowerLabel {
			return true
		}
	}
	return false
}

// DateUrgency is how far a highlighted date field is through its expiry
// window: 0 on the day it was set, 1 once expired. ok is false for fields
// that are not highlighted dates or hold no valid date.
func DateUrgency(f domain.TrackedField, today time.Time) (ratio float64, ok bool) {
	if f.Type != domain.FieldDate || !domain.BoolFromPtrWithDefault(false, f.HighlightEnabled) {
		return 0, false
	}
	then, valid := domain.ParseISODate(strings.TrimSpace(f.Text()))
	if !valid {
		return 0, false
	}
	exp := domain.IntFromPtrWithDefault(normalize.DefaultExpiryDays, f.ExpiryDays)
	if exp <= 0 {
		return 0, false
	}
	days := int(today.Sub(then).Hours() / 24)
	return min(max(float64(days)/float64(exp), 0), 1), true
}

// MostUrgent returns the largest DateUrgency among the task's fields.
func MostUrgent(t domain.TrackedTask, today time.Time) (ratio float64, ok bool) {
	best := -1.0
	for _, f := range t.Fields {
		if r, valid := DateUrgency(f, today); valid && r > best {
			best = r
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
