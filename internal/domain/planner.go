package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Grid dimensions. The planner always holds exactly four weeks of seven days.
const (
	Weeks       = 4
	DaysPerWeek = 7
)

// SchemaVersion is written into every serialized snapshot.
const SchemaVersion = 1

// LocationRef is either a location id or AllLocations. It encodes as the
// JSON string "all" or as the bare id.
type LocationRef int

// AllLocations means the task is not tied to a specific location.
const AllLocations LocationRef = 0

func (r LocationRef) IsAll() bool { return r <= 0 }

// ID returns the referenced location id, or 0 for AllLocations.
func (r LocationRef) ID() int {
	if r.IsAll() {
		return 0
	}
	return int(r)
}

func (r LocationRef) String() string {
	if r.IsAll() {
		return "all"
	}
	return strconv.Itoa(int(r))
}

func (r LocationRef) MarshalJSON() ([]byte, error) {
	if r.IsAll() {
		return []byte(`"all"`), nil
	}
	return strconv.AppendInt(nil, int64(r), 10), nil
}

// UnmarshalJSON accepts "all", a number, or a numeric string. Anything else
// decodes to AllLocations.
func (r *LocationRef) UnmarshalJSON(b []byte) error {
	*r = ParseLocationRef(string(bytes.Trim(bytes.TrimSpace(b), `"`)))
	return nil
}

// ParseLocationRef parses user or wire input into a LocationRef.
func ParseLocationRef(s string) LocationRef {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllLocations
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 {
		return LocationRef(int(f))
	}
	return AllLocations
}

type Task struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	LengthMinutes int         `json:"lengthMinutes"`
	Frequency     Frequency   `json:"frequency"`
	Location      LocationRef `json:"location"`
}

type Location struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Entry is one item in a day cell: a scheduled task or a travel leg.
// LocationID nil means "no location" once normalized.
type Entry struct {
	Type       EntryType `json:"type"`
	TaskID     int       `json:"taskId,omitempty"`
	LocationID *int      `json:"locationId"`
	Done       bool      `json:"done"`
}

func NewTaskEntry(taskID int, locationID *int) Entry {
	return Entry{Type: EntryTask, TaskID: taskID, LocationID: locationID}
}

func NewTravelEntry(locationID int) Entry {
	return Entry{Type: EntryTravel, LocationID: IntPtr(locationID)}
}

func (e Entry) IsTask() bool   { return e.Type == EntryTask }
func (e Entry) IsTravel() bool { return e.Type == EntryTravel }

type DayCellSetting struct {
	StartLocationID *int    `json:"startLocationId"`
	StartTime       *string `json:"startTime"`
}

func (s DayCellSetting) IsZero() bool {
	return s.StartLocationID == nil && s.StartTime == nil
}

type TrackedCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TrackedTask struct {
	ID         int            `json:"id"`
	Title      string         `json:"title"`
	Location   LocationRef    `json:"location"`
	CategoryID *int           `json:"categoryId"`
	Fields     []TrackedField `json:"fields"`
}

// TrackedField holds a single form value. Value is a bool for checkbox
// fields and a string for every other type.
type TrackedField struct {
	ID               int       `json:"id"`
	Label            string    `json:"label"`
	Type             FieldType `json:"type"`
	Value            any       `json:"value"`
	HighlightEnabled *bool     `json:"highlightEnabled,omitempty"`
	ExpiryDays       *int      `json:"expiryDays,omitempty"`
}

// Checked reports the value of a checkbox field.
func (f TrackedField) Checked() bool {
	b, _ := f.Value.(bool)
	return b
}

// Text reports the value of a non-checkbox field.
func (f TrackedField) Text() string {
	s, _ := f.Value.(string)
	return s
}

// ZeroValue returns the empty value for a field of type t.
func ZeroValue(t FieldType) any {
	if t == FieldCheckbox {
		return false
	}
	return ""
}

type (
	Assignments [Weeks][DaysPerWeek][]Entry
	DayCellGrid [Weeks][DaysPerWeek]DayCellSetting
)

// PlannerState is the root aggregate for one signed-in identity.
type PlannerState struct {
	Tasks             []Task            `json:"tasks"`
	Assignments       Assignments       `json:"assignments"`
	Locations         []Location        `json:"locations"`
	DayCellSettings   DayCellGrid       `json:"dayCellSettings"`
	WeekVisibility    [Weeks]bool       `json:"weekVisibility"`
	StartMondayISO    *string           `json:"startMondayISO"`
	LastModified      int64             `json:"lastModified"`
	TrackedCategories []TrackedCategory `json:"trackedCategories"`
	TrackedTasks      []TrackedTask     `json:"trackedTasks"`

	// Next-id counters. Never persisted; recomputed on every load.
	NextTaskID            int `json:"-"`
	NextLocationID        int `json:"-"`
	NextTrackedCategoryID int `json:"-"`
	NextTrackedTaskID     int `json:"-"`
	NextTrackedFieldID    int `json:"-"`
}

// NewPlannerState returns the empty state used on sign-out and first login.
func NewPlannerState() *PlannerState {
	s := &PlannerState{
		Tasks:             []Task{},
		Locations:         []Location{},
		TrackedCategories: []TrackedCategory{},
		TrackedTasks:      []TrackedTask{},
		WeekVisibility:    [Weeks]bool{true, true, true, true},
	}
	for w := 0; w < Weeks; w++ {
		for d := 0; d < DaysPerWeek; d++ {
			s.Assignments[w][d] = []Entry{}
		}
	}
	s.RecomputeNextIDs()
	return s
}

// InGrid reports whether (week, day) addresses a cell.
func InGrid(week, day int) bool {
	return week >= 0 && week < Weeks && day >= 0 && day < DaysPerWeek
}

// RecomputeNextIDs sets every counter to one more than the largest id in
// its collection.
func (s *PlannerState) RecomputeNextIDs() {
	maxTask := 0
	for _, t := range s.Tasks {
		maxTask = max(maxTask, t.ID)
	}
	maxLoc := 0
	for _, l := range s.Locations {
		maxLoc = max(maxLoc, l.ID)
	}
	maxCat := 0
	for _, c := range s.TrackedCategories {
		maxCat = max(maxCat, c.ID)
	}
	maxTracked, maxField := 0, 0
	for _, t := range s.TrackedTasks {
		maxTracked = max(maxTracked, t.ID)
		for _, f := range t.Fields {
			maxField = max(maxField, f.ID)
		}
	}
	s.NextTaskID = maxTask + 1
	s.NextLocationID = maxLoc + 1
	s.NextTrackedCategoryID = maxCat + 1
	s.NextTrackedTaskID = maxTracked + 1
	s.NextTrackedFieldID = maxField + 1
}

func (s *PlannerState) FindTask(id int) (*Task, int) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], i
		}
	}
	return nil, -1
}

func (s *PlannerState) FindLocation(id int) *Location {
	for i := range s.Locations {
		if s.Locations[i].ID == id {
			return &s.Locations[i]
		}
	}
	return nil
}

func (s *PlannerState) FindTrackedTask(id int) *TrackedTask {
	for i := range s.TrackedTasks {
		if s.TrackedTasks[i].ID == id {
			return &s.TrackedTasks[i]
		}
	}
	return nil
}

func (s *PlannerState) FindCategory(id int) *TrackedCategory {
	for i := range s.TrackedCategories {
		if s.TrackedCategories[i].ID == id {
			return &s.TrackedCategories[i]
		}
	}
	return nil
}

// LocationName resolves a LocationRef for display.
func (s *PlannerState) LocationName(ref LocationRef) string {
	if ref.IsAll() {
		return "All locations"
	}
	if l := s.FindLocation(ref.ID()); l != nil {
		return l.Name
	}
	return "(Unknown location)"
}

// CurrentLocation replays the day's travel entries from the cell's start
// location and returns where the day ends up.
func (s *PlannerState) CurrentLocation(week, day int) *int {
	cur := CloneIntPtr(s.DayCellSettings[week][day].StartLocationID)
	for _, e := range s.Assignments[week][day] {
		if e.IsTravel() {
			cur = CloneIntPtr(e.LocationID)
		}
	}
	return cur
}

// IsEmpty reports whether the state holds no user content.
func (s *PlannerState) IsEmpty() bool {
	if len(s.Tasks) > 0 || len(s.Locations) > 0 || len(s.TrackedTasks) > 0 || len(s.TrackedCategories) > 0 {
		return false
	}
	for w := 0; w < Weeks; w++ {
		for d := 0; d < DaysPerWeek; d++ {
			if len(s.Assignments[w][d]) > 0 {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy. It round-trips through JSON for the wire
// fields, which keeps nested pointers and slices independent.
func (s *PlannerState) Clone() *PlannerState {
	data, err := json.Marshal(s)
	if err != nil {
		panic("domain: planner state is not serializable: " + err.Error())
	}
	out := &PlannerState{}
	if err := json.Unmarshal(data, out); err != nil {
		panic("domain: planner state round-trip failed: " + err.Error())
	}
	out.fixNilSlices()
	out.NextTaskID = s.NextTaskID
	out.NextLocationID = s.NextLocationID
	out.NextTrackedCategoryID = s.NextTrackedCategoryID
	out.NextTrackedTaskID = s.NextTrackedTaskID
	out.NextTrackedFieldID = s.NextTrackedFieldID
	return out
}

func (s *PlannerState) fixNilSlices() {
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.Locations == nil {
		s.Locations = []Location{}
	}
	if s.TrackedCategories == nil {
		s.TrackedCategories = []TrackedCategory{}
	}
	if s.TrackedTasks == nil {
		s.TrackedTasks = []TrackedTask{}
	}
	for i := range s.TrackedTasks {
		if s.TrackedTasks[i].Fields == nil {
			s.TrackedTasks[i].Fields = []TrackedField{}
		}
	}
	for w := 0; w < Weeks; w++ {
		for d := 0; d < DaysPerWeek; d++ {
			if s.Assignments[w][d] == nil {
				s.Assignments[w][d] = []Entry{}
			}
		}
	}
}
