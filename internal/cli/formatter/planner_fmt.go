package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/alexanderramin/weekgrid/internal/remotesync"
)

const progressBarWidth = 8

// FormatTaskList renders the task pool in display order.
func FormatTaskList(st *domain.PlannerState) string {
	if len(st.Tasks) == 0 {
		return Dim("No tasks yet. Add one with: weekgrid task add --name NAME --minutes N")
	}
	rows := make([][]string, 0, len(st.Tasks))
	for i, t := range st.Tasks {
		rows = append(rows, []string{
			Dim(strconv.Itoa(i + 1)),
			strconv.Itoa(t.ID),
			Bold(t.Name),
			FormatMinutes(t.LengthMinutes),
			t.Frequency.Label(),
			st.LocationName(t.Location),
		})
	}
	return RenderTable([]string{"#", "ID", "NAME", "LENGTH", "FREQUENCY", "LOCATION"}, rows)
}

// FormatLocationList renders locations with their color swatch.
func FormatLocationList(st *domain.PlannerState) string {
	if len(st.Locations) == 0 {
		return Dim("No locations yet. Add one with: weekgrid location add NAME")
	}
	rows := make([][]string, 0, len(st.Locations))
	for _, l := range st.Locations {
		rows = append(rows, []string{strconv.Itoa(l.ID), Swatch(l.Color) + " " + Bold(l.Name), Dim(l.Color)})
	}
	return RenderTable([]string{"ID", "NAME", "COLOR"}, rows)
}

// FormatLocationStats renders how far each task is planned at one location.
func FormatLocationStats(loc domain.Location, progress []planner.TaskProgress) string {
	var b strings.Builder
	b.WriteString(Header(loc.Name))
	b.WriteString("\n")
	if len(progress) == 0 {
		b.WriteString(Dim("No tasks can run here."))
		return b.String()
	}
	rows := make([][]string, 0, len(progress))
	for _, p := range progress {
		count := p.Occurrences
		if p.Task.Frequency == domain.FrequencyWeekly {
			count = p.Weeks
		}
		rows = append(rows, []string{
			Bold(p.Task.Name),
			p.Task.Frequency.Label(),
			RenderProgress(count, p.Target, progressBarWidth, p.Complete),
			strconv.Itoa(p.Occurrences),
			strconv.Itoa(p.Weeks),
		})
	}
	b.WriteString(RenderTable([]string{"TASK", "FREQUENCY", "PROGRESS", "PLACED", "WEEKS"}, rows))
	return b.String()
}

// FormatWeek renders every visible day of one week with its running clock.
func FormatWeek(st *domain.PlannerState, week int) string {
	var b strings.Builder
	title := fmt.Sprintf("Week %d", week+1)
	if !st.WeekVisibility[week] {
		title += " (hidden)"
	}
	b.WriteString(Header(title))
	b.WriteString("\n")
	for _, d := range st.VisibleDays() {
		b.WriteString(FormatDay(st, week, d))
		b.WriteString("\n")
	}
	b.WriteString(Dim("Week total: " + FormatMinutes(st.WeekTotal(week))))
	return b.String()
}

// FormatDay renders one cell: date, start settings, then each entry at its
// clock time with a 1-based position.
func FormatDay(st *domain.PlannerState, week, day int) string {
	return FormatDayCursor(st, week, day, -1)
}

// FormatDayCursor is FormatDay with the scheduled entry at cursor marked.
// A negative cursor marks nothing.
func FormatDayCursor(st *domain.PlannerState, week, day, cursor int) string {
	sched := st.Schedule(week, day)
	settings := st.DayCellSettings[week][day]

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s", StyleBlue.Render(st.DateLabel(week, day)), Dim(FormatMinutes(sched.TotalMin)))
	if settings.StartTime != nil || settings.StartLocationID != nil {
		start := domain.Format12h(sched.StartMin)
		if settings.StartLocationID != nil {
			start += " at " + entryLocation(st, settings.StartLocationID)
		}
		b.WriteString(Dim("  starts " + start))
	}
	b.WriteString("\n")

	if len(sched.Entries) == 0 {
		b.WriteString(Dim("  (empty)\n"))
		return b.String()
	}
	for i, se := range sched.Entries {
		if cursor >= 0 {
			if i == cursor {
				b.WriteString(StyleHeader.Render("> "))
			} else {
				b.WriteString("  ")
			}
		}
		pos := Dim(fmt.Sprintf("%3d", se.Index+1))
		at := fmt.Sprintf("%7s", domain.Format12h(se.StartMin))
		if se.Entry.IsTravel() {
			fmt.Fprintf(&b, "%s     %s %s %s\n", pos, at,
				StylePurple.Render("→ Travel to "+entryLocation(st, se.LocationID)),
				Dim("("+FormatMinutes(se.Minutes)+")"))
			continue
		}
		name := se.Task.Name
		if se.Entry.Done {
			name = StyleDim.Strikethrough(true).Render(name)
		} else {
			name = StyleFg.Render(name)
		}
		fmt.Fprintf(&b, "%s %s %s %s %s %s\n", pos, DoneMark(se.Entry.Done), at, name,
			Dim("("+FormatMinutes(se.Minutes)+")"), Dim("@ "+entryLocation(st, se.LocationID)))
	}
	return b.String()
}

func entryLocation(st *domain.PlannerState, id *int) string {
	if id == nil {
		return "no location"
	}
	return st.LocationName(domain.LocationRef(*id))
}

// FormatUnfinished renders past undone entries numbered for
// `weekgrid unfinished done N`.
func FormatUnfinished(st *domain.PlannerState, entries []planner.UnfinishedEntry) string {
	if len(entries) == 0 {
		return StyleGreen.Render("Nothing unfinished.")
	}
	rows := make([][]string, 0, len(entries))
	for i, u := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			u.DateLabel,
			Bold(u.TaskName),
			FormatMinutes(u.Minutes),
			entryLocation(st, u.LocationID),
			Dim(fmt.Sprintf("w%d %s #%d", u.Slot.Week+1, domain.DayNames[u.Slot.Day][:3], u.Slot.Index+1)),
		})
	}
	return RenderTable([]string{"N", "DATE", "TASK", "LENGTH", "LOCATION", "CELL"}, rows)
}

// FormatTrackedList renders tracked tasks with their fields. Highlighted
// date fields are colored by how close they are to expiry.
func FormatTrackedList(st *domain.PlannerState, tasks []domain.TrackedTask, today time.Time) string {
	if len(tasks) == 0 {
		return Dim("No tracked tasks.")
	}
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s  %s", Dim(fmt.Sprintf("#%d", t.ID)), Bold(t.Title), Dim(st.LocationName(t.Location)))
		if t.CategoryID != nil {
			if c := st.FindCategory(*t.CategoryID); c != nil {
				b.WriteString("  " + StylePurple.Render(c.Name))
			}
		}
		if ratio, ok := planner.MostUrgent(t, today); ok {
			b.WriteString("  " + UrgencyStyle(ratio).Render(fmt.Sprintf("%.0f%%", ratio*100)))
		}
		b.WriteString("\n")
		for _, f := range t.Fields {
			fmt.Fprintf(&b, "   %s %s: %s\n", Dim(fmt.Sprintf("%d", f.ID)), f.Label, fieldValue(f, today))
		}
	}
	return b.String()
}

func fieldValue(f domain.TrackedField, today time.Time) string {
	switch f.Type {
	case domain.FieldCheckbox:
		return DoneMark(f.Checked())
	case domain.FieldDate:
		v := f.Text()
		if v == "" {
			return Dim("--")
		}
		if ratio, ok := planner.DateUrgency(f, today); ok {
			return UrgencyStyle(ratio).Render(v)
		}
		return v
	default:
		if f.Text() == "" {
			return Dim("--")
		}
		return f.Text()
	}
}

// StatusView is what `weekgrid status` reports.
type StatusView struct {
	Identity     *domain.Identity
	Role         domain.Role
	DeviceID     string
	Remote       string
	LastModified int64
	Sync         *domain.SyncStatus
	Tasks        int
	Locations    int
	Tracked      int
}

// FormatStatus renders the session and sync summary.
func FormatStatus(v StatusView) string {
	var lines []string
	add := func(k, val string) { lines = append(lines, fmt.Sprintf("%-14s %s", Dim(k), val)) }

	if v.Identity == nil {
		add("Signed in", StyleYellow.Render("no")+Dim("  (weekgrid login)"))
	} else {
		add("Signed in", StyleGreen.Render(v.Identity.Label())+Dim(" <"+v.Identity.Email+">"))
		add("Role", string(v.Role))
	}
	add("Device", v.DeviceID)
	add("Remote", v.Remote)
	if v.Identity != nil {
		add("Last change", formatMillis(v.LastModified))
		add("Contents", fmt.Sprintf("%d tasks, %d locations, %d tracked", v.Tasks, v.Locations, v.Tracked))
	}
	if v.Sync != nil {
		outcome := v.Sync.Outcome
		if outcome == string(remotesync.OutcomeFailed) {
			outcome = StyleRed.Render(outcome)
		} else {
			outcome = StyleGreen.Render(outcome)
		}
		add("Last sync", outcome+Dim(" at "+v.Sync.SyncedAt.Local().Format("2006-01-02 15:04")))
		if v.Sync.Message != "" {
			add("", Dim(v.Sync.Message))
		}
	}
	return RenderBox("weekgrid", strings.Join(lines, "\n"))
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return Dim("never")
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}
