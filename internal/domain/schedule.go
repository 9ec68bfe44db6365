package domain

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// DefaultDayStartMin is the running clock seed when a cell has no start time.
	DefaultDayStartMin = 8 * 60
	// TravelMinutes is the fixed duration of a travel entry.
	TravelMinutes = 40

	isoDate = "2006-01-02"
)

var DayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ScheduledEntry is an entry placed on the day's running clock.
type ScheduledEntry struct {
	Index      int
	Entry      Entry
	Task       *Task // nil for travel entries
	StartMin   int
	Minutes    int
	LocationID *int
}

// DaySchedule is the running-clock view of one cell.
type DaySchedule struct {
	Week     int
	Day      int
	StartMin int
	TotalMin int
	Entries  []ScheduledEntry
}

// Schedule walks the cell's entries in order, advancing the clock and the
// current location. Task entries whose task no longer exists are skipped.
// Negative task lengths move the clock but are left out of the total.
func (s *PlannerState) Schedule(week, day int) DaySchedule {
	settings := s.DayCellSettings[week][day]
	out := DaySchedule{Week: week, Day: day, StartMin: DefaultDayStartMin}
	if settings.StartTime != nil {
		if m, ok := ParseClock(*settings.StartTime); ok {
			out.StartMin = m
		}
	}

	clock := out.StartMin
	for i, e := range s.Assignments[week][day] {
		switch e.Type {
		case EntryTask:
			task, _ := s.FindTask(e.TaskID)
			if task == nil {
				continue
			}
			length := task.LengthMinutes
			if length < 0 {
				length = -length
			}
			out.Entries = append(out.Entries, ScheduledEntry{
				Index: i, Entry: e, Task: task, StartMin: clock,
				Minutes: task.LengthMinutes, LocationID: e.LocationID,
			})
			if task.LengthMinutes >= 0 {
				out.TotalMin += length
			}
			clock += length
		case EntryTravel:
			out.Entries = append(out.Entries, ScheduledEntry{
				Index: i, Entry: e, StartMin: clock,
				Minutes: TravelMinutes, LocationID: e.LocationID,
			})
			out.TotalMin += TravelMinutes
			clock += TravelMinutes
		}
	}
	return out
}

// WeekTotal sums the day totals of one week.
func (s *PlannerState) WeekTotal(week int) int {
	total := 0
	for d := 0; d < DaysPerWeek; d++ {
		total += s.Schedule(week, d).TotalMin
	}
	return total
}

// VisibleDays returns Monday..Friday plus any weekend day that holds
// entries or settings in some week.
func (s *PlannerState) VisibleDays() []int {
	days := []int{0, 1, 2, 3, 4}
	for d := 5; d < DaysPerWeek; d++ {
		for w := 0; w < Weeks; w++ {
			if len(s.Assignments[w][d]) > 0 || !s.DayCellSettings[w][d].IsZero() {
				days = append(days, d)
				break
			}
		}
	}
	return days
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(v string) (int, bool) {
	if len(v) != 5 || v[2] != ':' {
		return 0, false
	}
	h, err := strconv.Atoi(v[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(v[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatHHMM renders a duration in minutes as HH:MM.
func FormatHHMM(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// Format12h renders minutes after midnight as a 12-hour clock, wrapping at
// midnight.
func Format12h(mins int) string {
	if mins < 0 {
		mins = 0
	}
	mins %= 24 * 60
	h, m := mins/60, mins%60
	period := "am"
	if h >= 12 {
		period = "pm"
	}
	dh := h % 12
	if dh == 0 {
		dh = 12
	}
	return fmt.Sprintf("%d:%02d%s", dh, m, period)
}

// ParseISODate parses a yyyy-mm-dd date in UTC.
func ParseISODate(v string) (time.Time, bool) {
	t, err := time.Parse(isoDate, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatISODate renders t as yyyy-mm-dd.
func FormatISODate(t time.Time) string {
	return t.Format(isoDate)
}

// PlannerDate returns the calendar date of (week, day) relative to the
// Week-1 Monday anchor.
func (s *PlannerState) PlannerDate(week, day int) (time.Time, bool) {
	if s.StartMondayISO == nil {
		return time.Time{}, false
	}
	base, ok := ParseISODate(*s.StartMondayISO)
	if !ok {
		return time.Time{}, false
	}
	return base.AddDate(0, 0, week*DaysPerWeek+day), true
}

// DateLabel renders "Monday, Jan 5th, 2026", or just the day name when no
// anchor is set.
func (s *PlannerState) DateLabel(week, day int) string {
	t, ok := s.PlannerDate(week, day)
	if !ok {
		return DayNames[day]
	}
	return fmt.Sprintf("%s, %s %d%s, %d", DayNames[day], t.Format("Jan"), t.Day(), ordinalSuffix(t.Day()), t.Year())
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
