package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWithTasks(tasks ...Task) *PlannerState {
	s := NewPlannerState()
	s.Tasks = append(s.Tasks, tasks...)
	s.RecomputeNextIDs()
	return s
}

func TestSchedule_RunningClockAndTotals(t *testing.T) {
	s := stateWithTasks(
		Task{ID: 1, Name: "Inspect", LengthMinutes: 30, Frequency: FrequencyDaily},
		Task{ID: 2, Name: "Lunch", LengthMinutes: -60, Frequency: FrequencyDaily},
	)
	s.DayCellSettings[0][0].StartTime = StringPtr("09:15")
	s.Assignments[0][0] = []Entry{
		NewTaskEntry(1, nil),
		NewTravelEntry(3),
		NewTaskEntry(2, nil),
		NewTaskEntry(99, nil), // deleted task
		NewTaskEntry(1, nil),
	}

	sched := s.Schedule(0, 0)
	require.Len(t, sched.Entries, 4)
	assert.Equal(t, 9*60+15, sched.Entries[0].StartMin)
	assert.Equal(t, 9*60+45, sched.Entries[1].StartMin, "travel starts after task")
	assert.Equal(t, 10*60+25, sched.Entries[2].StartMin, "travel takes 40 minutes")
	assert.Equal(t, 11*60+25, sched.Entries[3].StartMin, "negative length still advances the clock")
	assert.Equal(t, 4, sched.Entries[3].Index, "index refers to the cell position")
	assert.Equal(t, 30+40+30, sched.TotalMin, "negative lengths are excluded from totals")
}

func TestSchedule_DefaultStartAndBadStartTime(t *testing.T) {
	s := stateWithTasks(Task{ID: 1, LengthMinutes: 10})
	s.DayCellSettings[1][2].StartTime = StringPtr("9am")
	s.Assignments[1][2] = []Entry{NewTaskEntry(1, nil)}

	sched := s.Schedule(1, 2)
	assert.Equal(t, DefaultDayStartMin, sched.StartMin)
	assert.Equal(t, 10, s.WeekTotal(1))
	assert.Equal(t, 0, s.WeekTotal(0))
}

func TestCurrentLocation_ReplaysTravel(t *testing.T) {
	s := NewPlannerState()
	s.DayCellSettings[0][3].StartLocationID = IntPtr(1)
	assert.Equal(t, 1, *s.CurrentLocation(0, 3))

	s.Assignments[0][3] = []Entry{NewTravelEntry(2), NewTaskEntry(5, nil), NewTravelEntry(4)}
	assert.Equal(t, 4, *s.CurrentLocation(0, 3))
	assert.Nil(t, s.CurrentLocation(0, 4))
}

func TestVisibleDays_WeekendOnlyWhenUsed(t *testing.T) {
	s := NewPlannerState()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.VisibleDays())

	s.DayCellSettings[3][6].StartTime = StringPtr("10:00")
	assert.Equal(t, []int{0, 1, 2, 3, 4, 6}, s.VisibleDays())

	s.Assignments[2][5] = []Entry{NewTravelEntry(1)}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, s.VisibleDays())
}

func TestClockFormatting(t *testing.T) {
	cases := []struct {
		mins int
		h12  string
		hhmm string
	}{
		{0, "12:00am", "00:00"},
		{8 * 60, "8:00am", "08:00"},
		{12*60 + 5, "12:05pm", "12:05"},
		{23*60 + 59, "11:59pm", "23:59"},
		{25 * 60, "1:00am", "25:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.h12, Format12h(tc.mins), "mins=%d", tc.mins)
		assert.Equal(t, tc.hhmm, FormatHHMM(tc.mins), "mins=%d", tc.mins)
	}

	_, ok := ParseClock("24:00")
	assert.False(t, ok)
	m, ok := ParseClock("07:30")
	require.True(t, ok)
	assert.Equal(t, 450, m)
}

func TestDateLabel(t *testing.T) {
	s := NewPlannerState()
	assert.Equal(t, "Wednesday", s.DateLabel(0, 2))

	s.StartMondayISO = StringPtr("2026-01-05")
	assert.Equal(t, "Monday, Jan 5th, 2026", s.DateLabel(0, 0))
	assert.Equal(t, "Monday, Jan 12th, 2026", s.DateLabel(1, 0))
	assert.Equal(t, "Wednesday, Jan 21st, 2026", s.DateLabel(2, 2))
	assert.Equal(t, "Thursday, Jan 22nd, 2026", s.DateLabel(2, 3))
	assert.Equal(t, "Sunday, Feb 1st, 2026", s.DateLabel(3, 6))

	s.StartMondayISO = StringPtr("not-a-date")
	assert.Equal(t, "Friday", s.DateLabel(0, 4))
}

func TestLocationRef_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A LocationRef `json:"a"`
		B LocationRef `json:"b"`
	}{AllLocations, 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"all","b":7}`, string(data))

	var got struct {
		A LocationRef `json:"a"`
		B LocationRef `json:"b"`
		C LocationRef `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"all","b":"3","c":{"x":1}}`), &got))
	assert.True(t, got.A.IsAll())
	assert.Equal(t, 3, got.B.ID())
	assert.True(t, got.C.IsAll(), "unparseable refs fall back to all")
}

func TestClone_IsDeep(t *testing.T) {
	s := stateWithTasks(Task{ID: 1, Name: "A", Frequency: FrequencyDaily})
	s.Assignments[0][0] = []Entry{NewTaskEntry(1, IntPtr(2))}
	s.TrackedTasks = []TrackedTask{{ID: 1, Title: "Filter", Fields: []TrackedField{{ID: 1, Label: "Done", Type: FieldCheckbox, Value: false}}}}
	s.RecomputeNextIDs()

	c := s.Clone()
	require.Equal(t, s, c)

	*c.Assignments[0][0][0].LocationID = 9
	c.Tasks[0].Name = "B"
	c.TrackedTasks[0].Fields[0].Value = true
	assert.Equal(t, 2, *s.Assignments[0][0][0].LocationID)
	assert.Equal(t, "A", s.Tasks[0].Name)
	assert.Equal(t, false, s.TrackedTasks[0].Fields[0].Value)
}

func TestRecomputeNextIDs(t *testing.T) {
	s := NewPlannerState()
	assert.Equal(t, 1, s.NextTaskID)
	s.Tasks = []Task{{ID: 4}, {ID: 2}}
	s.TrackedTasks = []TrackedTask{{ID: 3, Fields: []TrackedField{{ID: 10}, {ID: 6}}}}
	s.RecomputeNextIDs()
	assert.Equal(t, 5, s.NextTaskID)
	assert.Equal(t, 1, s.NextLocationID)
	assert.Equal(t, 4, s.NextTrackedTaskID)
	assert.Equal(t, 11, s.NextTrackedFieldID)
}
