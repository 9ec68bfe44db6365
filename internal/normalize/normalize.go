// Package normalize turns arbitrary stored or fetched planner data into a
// well-formed domain.PlannerState.
//
// Normalize never fails. Each malformed fragment is replaced by its default
// from defaults.go, and running it on its own output changes nothing.
package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/domain"
)

// Raw is a field-name to raw-JSON view of a planner snapshot. It is the
// shape of both the local cache and a decoded remote payload. A missing key
// means "use the default".
type Raw map[string]json.RawMessage

// FromJSON decodes a JSON object leniently. Anything that is not an object
// yields an empty Raw.
func FromJSON(data []byte) Raw {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Raw{}
	}
	return raw
}

// FromState re-encodes a state into Raw form.
func FromState(s *domain.PlannerState) Raw {
	values, err := s.SnapshotValues()
	if err != nil {
		return Raw{}
	}
	return Raw(values)
}

// Normalize builds a PlannerState from raw, applying every default and
// legacy migration. Next-id counters are recomputed.
func Normalize(raw Raw) *domain.PlannerState {
	s := domain.NewPlannerState()

	s.Tasks = tasks(raw.value(domain.FieldTasks))
	s.Locations = locations(raw.value(domain.FieldLocations))
	s.DayCellSettings = dayCellSettings(raw.value(domain.FieldDayCellSettings))
	s.Assignments = assignments(raw.value(domain.FieldAssignments), s.DayCellSettings)
	s.WeekVisibility = weekVisibility(raw.value(domain.FieldWeekVisibility))
	s.StartMondayISO = startMonday(raw.value(domain.FieldStartMondayISO))
	s.LastModified = lastModified(raw.value(domain.FieldLastModified))
	s.TrackedCategories = categories(raw.value(domain.FieldTrackedCategories))
	s.TrackedTasks = trackedTasks(raw.value(domain.FieldTrackedTasks))

	s.RecomputeNextIDs()
	return s
}

// NormalizeJSON is FromJSON followed by Normalize.
func NormalizeJSON(data []byte) *domain.PlannerState {
	return Normalize(FromJSON(data))
}

func (r Raw) value(field string) any {
	data, ok := r[field]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// --- collections ---

func tasks(v any) []domain.Task {
	items := objects(v)
	ids := make([]int, len(items))
	for i, m := range items {
		ids[i] = positiveID(m["id"])
	}
	ids = uniqueIDs(ids)

	out := make([]domain.Task, 0, len(items))
	for i, m := range items {
		freq := domain.Frequency(text(m["frequency"]))
		if !domain.ValidFrequencies[freq] {
			freq = DefaultFrequency
		}
		length, _ := number(m["lengthMinutes"])
		out = append(out, domain.Task{
			ID:            ids[i],
			Name:          text(m["name"]),
			Description:   text(m["description"]),
			LengthMinutes: length,
			Frequency:     freq,
			Location:      locationRef(m["location"]),
		})
	}
	return out
}

func locations(v any) []domain.Location {
	items := objects(v)
	ids := make([]int, len(items))
	for i, m := range items {
		ids[i] = positiveID(m["id"])
	}
	ids = uniqueIDs(ids)

	out := make([]domain.Location, 0, len(items))
	for i, m := range items {
		color := text(m["color"])
		if color == "" {
			color = DefaultLocationColor
		}
		out = append(out, domain.Location{ID: ids[i], Name: text(m["name"]), Color: color})
	}
	return out
}

func categories(v any) []domain.TrackedCategory {
	items := objects(v)
	ids := make([]int, len(items))
	for i, m := range items {
		ids[i] = positiveID(m["id"])
	}
	ids = uniqueIDs(ids)

	out := make([]domain.TrackedCategory, 0, len(items))
	for i, m := range items {
		out = append(out, domain.TrackedCategory{ID: ids[i], Name: text(m["name"])})
	}
	return out
}

func trackedTasks(v any) []domain.TrackedTask {
	items := objects(v)
	ids := make([]int, len(items))
	fieldItems := make([][]map[string]any, len(items))
	var fieldIDs []int
	for i, m := range items {
		ids[i] = positiveID(m["id"])
		fieldItems[i] = objects(m["fields"])
		for _, f := range fieldItems[i] {
			fieldIDs = append(fieldIDs, positiveID(f["id"]))
		}
	}
	ids = uniqueIDs(ids)
	fieldIDs = uniqueIDs(fieldIDs)

	out := make([]domain.TrackedTask, 0, len(items))
	next := 0
	for i, m := range items {
		fields := make([]domain.TrackedField, 0, len(fieldItems[i]))
		for _, f := range fieldItems[i] {
			fields = append(fields, field(fieldIDs[next], f))
			next++
		}
		out = append(out, domain.TrackedTask{
			ID:         ids[i],
			Title:      text(m["title"]),
			Location:   locationRef(m["location"]),
			CategoryID: optionalID(m["categoryId"]),
			Fields:     fields,
		})
	}
	return out
}

func field(id int, m map[string]any) domain.TrackedField {
	typ := domain.FieldType(text(m["type"]))
	if !domain.ValidFieldTypes[typ] {
		typ = DefaultFieldType
	}
	f := domain.TrackedField{ID: id, Label: text(m["label"]), Type: typ}

	raw, present := m["value"]
	switch {
	case !present || raw == nil:
		f.Value = domain.ZeroValue(typ)
	case typ == domain.FieldCheckbox:
		f.Value = checked(raw)
	default:
		f.Value = text(raw)
	}

	if typ == domain.FieldDate {
		f.HighlightEnabled = domain.BoolPtr(truthy(m["highlightEnabled"]))
		expiry, ok := number(m["expiryDays"])
		if !ok || expiry <= 0 {
			expiry = DefaultExpiryDays
		}
		f.ExpiryDays = domain.IntPtr(expiry)
	}
	return f
}

// --- grids ---

func dayCellSettings(v any) domain.DayCellGrid {
	var grid domain.DayCellGrid
	rows, _ := v.([]any)
	for w := 0; w < domain.Weeks && w < len(rows); w++ {
		cells, _ := rows[w].([]any)
		for d := 0; d < domain.DaysPerWeek && d < len(cells); d++ {
			m, ok := cells[d].(map[string]any)
			if !ok {
				continue
			}
			var setting domain.DayCellSetting
			setting.StartLocationID = optionalID(m["startLocationId"])
			if st, ok := m["startTime"].(string); ok {
				if _, valid := domain.ParseClock(st); valid {
					setting.StartTime = domain.StringPtr(st)
				}
			}
			grid[w][d] = setting
		}
	}
	return grid
}

func assignments(v any, settings domain.DayCellGrid) domain.Assignments {
	var grid domain.Assignments
	rows, _ := v.([]any)
	for w := 0; w < domain.Weeks; w++ {
		var cells []any
		if w < len(rows) {
			cells, _ = rows[w].([]any)
		}
		for d := 0; d < domain.DaysPerWeek; d++ {
			var items []any
			if d < len(cells) {
				items, _ = cells[d].([]any)
			}
			grid[w][d] = day(items, settings[w][d].StartLocationID)
		}
	}
	return grid
}

// day normalizes one cell, replaying travel from start to backfill task
// entries that carry no locationId key.
func day(items []any, start *int) []domain.Entry {
	out := make([]domain.Entry, 0, len(items))
	cur := domain.CloneIntPtr(start)
	for _, item := range items {
		e, explicit := entry(item)
		switch {
		case e.IsTravel():
			cur = domain.CloneIntPtr(e.LocationID)
		case !explicit:
			e.LocationID = domain.CloneIntPtr(cur)
		}
		out = append(out, e)
	}
	return out
}

// entry converts one stored item. The bool reports whether the item carried
// its own locationId key.
func entry(item any) (domain.Entry, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		// Legacy cells stored bare task ids.
		return domain.Entry{Type: domain.EntryTask, TaskID: positiveID(item)}, false
	}

	if text(m["type"]) == string(domain.EntryTravel) {
		return domain.Entry{
			Type:       domain.EntryTravel,
			LocationID: optionalID(m["locationId"]),
			Done:       truthy(m["done"]),
		}, true
	}

	taskID := positiveID(m["taskId"])
	if taskID == 0 {
		taskID = positiveID(m["id"])
	}
	_, explicit := m["locationId"]
	return domain.Entry{
		Type:       domain.EntryTask,
		TaskID:     taskID,
		LocationID: optionalID(m["locationId"]),
		Done:       truthy(m["done"]),
	}, explicit
}

func weekVisibility(v any) [domain.Weeks]bool {
	items, ok := v.([]any)
	if !ok || len(items) != domain.Weeks {
		return DefaultWeekVisibility
	}
	var out [domain.Weeks]bool
	for i, item := range items {
		out[i] = truthy(item)
	}
	return out
}

func startMonday(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if _, valid := domain.ParseISODate(s); !valid {
		return nil
	}
	return domain.StringPtr(s)
}

// lastModified only accepts JSON numbers; the sync engine compares this
// value and must read it the same way.
func lastModified(v any) int64 {
	switch v.(type) {
	case json.Number, float64:
	default:
		return 0
	}
	f, _ := float(v)
	if f < 0 || f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// --- scalar coercion ---

func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// uniqueIDs keeps the first occurrence of each positive id and gives every
// other slot a fresh id above the current maximum.
func uniqueIDs(ids []int) []int {
	maxID := 0
	for _, id := range ids {
		maxID = max(maxID, id)
	}
	seen := make(map[int]bool, len(ids))
	out := make([]int, len(ids))
	for i, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out[i] = id
			continue
		}
		maxID++
		out[i] = maxID
	}
	return out
}

func float(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func number(v any) (int, bool) {
	f, ok := float(v)
	if !ok || math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func positiveID(v any) int {
	switch v.(type) {
	case json.Number, float64:
	default:
		return 0
	}
	f, _ := float(v)
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func optionalID(v any) *int {
	if id := positiveID(v); id > 0 {
		return domain.IntPtr(id)
	}
	return nil
}

func locationRef(v any) domain.LocationRef {
	switch t := v.(type) {
	case json.Number, float64:
		return domain.LocationRef(positiveID(v))
	case string:
		return domain.ParseLocationRef(t)
	default:
		return DefaultTaskLocation
	}
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func checked(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "on"
	default:
		f, ok := float(v)
		return ok && f != 0
	}
}

// truthy mirrors loose boolean coercion of stored flags.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number, float64:
		f, _ := float(v)
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}
