package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type boardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevDay  key.Binding
	NextDay  key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Toggle   key.Binding
	Remove   key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	ToPrev   key.Binding
	ToNext   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultBoardKeys() boardKeyMap {
	return boardKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevDay:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev day")),
		NextDay:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		PrevWeek: key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev week")),
		NextWeek: key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next week")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "toggle done")),
		Remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		MoveUp:   key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		ToPrev:   key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "to prev day")),
		ToNext:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "to next day")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Remove, k.PrevDay, k.NextDay, k.Help, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevDay, k.NextDay, k.PrevWeek, k.NextWeek},
		{k.Toggle, k.Remove, k.MoveUp, k.MoveDown, k.ToPrev, k.ToNext},
		{k.Help, k.Quit},
	}
}

// boardChangedMsg reports the result of a planner command run from the
// board. status is shown under the day on success.
type boardChangedMsg struct {
	status string
	err    error
}

// boardModel is an interactive view of one calendar cell at a time.
type boardModel struct {
	planner *planner.Service
	keys    boardKeyMap
	help    help.Model

	week   int
	day    int
	cursor int
	width  int

	status string
	err    error
}

func newBoardModel(p *planner.Service, week, day int) *boardModel {
	m := &boardModel{
		planner: p,
		keys:    defaultBoardKeys(),
		help:    help.New(),
		week:    week,
		day:     day,
	}
	m.snapDay()
	return m
}

func (m *boardModel) Init() tea.Cmd { return nil }

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case boardChangedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		} else {
			m.status = ""
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		m.err = nil
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.entries())-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.PrevDay):
			m.stepDay(-1)
		case key.Matches(msg, m.keys.NextDay):
			m.stepDay(1)
		case key.Matches(msg, m.keys.PrevWeek):
			m.stepWeek(-1)
		case key.Matches(msg, m.keys.NextWeek):
			m.stepWeek(1)
		case key.Matches(msg, m.keys.Toggle):
			return m, m.withSelected(m.toggle)
		case key.Matches(msg, m.keys.Remove):
			return m, m.withSelected(m.remove)
		case key.Matches(msg, m.keys.MoveUp):
			return m, m.swapWith(-1)
		case key.Matches(msg, m.keys.MoveDown):
			return m, m.swapWith(1)
		case key.Matches(msg, m.keys.ToPrev):
			return m, m.moveToDay(-1)
		case key.Matches(msg, m.keys.ToNext):
			return m, m.moveToDay(1)
		}
	}
	return m, nil
}

func (m *boardModel) View() string {
	st := m.planner.Snapshot()

	var b strings.Builder
	title := fmt.Sprintf("Week %d", m.week+1)
	if !st.WeekVisibility[m.week] {
		title += " (hidden)"
	}
	b.WriteString(formatter.StyleHeader.Render(title) + "  " + m.dayTabs(st) + "\n\n")
	b.WriteString(formatter.FormatDayCursor(st, m.week, m.day, m.cursor))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(formatter.StyleGreen.Render(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *boardModel) dayTabs(st *domain.PlannerState) string {
	tabs := make([]string, 0, domain.DaysPerWeek)
	for _, d := range st.VisibleDays() {
		name := domain.DayNames[d][:3]
		if d == m.day {
			tabs = append(tabs, formatter.StyleBold.Underline(true).Render(name))
		} else {
			tabs = append(tabs, formatter.Dim(name))
		}
	}
	return strings.Join(tabs, " ")
}

func (m *boardModel) entries() []domain.ScheduledEntry {
	return m.planner.Snapshot().Schedule(m.week, m.day).Entries
}

// snapDay moves off a weekend day that is not shown.
func (m *boardModel) snapDay() {
	days := m.planner.Snapshot().VisibleDays()
	if !slices.Contains(days, m.day) {
		m.day = days[0]
	}
}

func (m *boardModel) stepDay(delta int) {
	days := m.planner.Snapshot().VisibleDays()
	i := slices.Index(days, m.day)
	if i < 0 {
		i = 0
	}
	i = (i + delta + len(days)) % len(days)
	m.day = days[i]
	m.cursor = 0
}

func (m *boardModel) stepWeek(delta int) {
	m.week = (m.week + delta + domain.Weeks) % domain.Weeks
	m.cursor = 0
}

func (m *boardModel) clampCursor() {
	n := len(m.entries())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// withSelected runs fn on the entry under the cursor as a Cmd. Nothing
// happens on an empty day.
func (m *boardModel) withSelected(fn func(se domain.ScheduledEntry) boardChangedMsg) tea.Cmd {
	entries := m.entries()
	if m.cursor >= len(entries) {
		return nil
	}
	se := entries[m.cursor]
	return func() tea.Msg { return fn(se) }
}

func (m *boardModel) slot(index int) planner.Slot {
	return planner.Slot{Week: m.week, Day: m.day, Index: index}
}

func (m *boardModel) toggle(se domain.ScheduledEntry) boardChangedMsg {
	if se.Entry.IsTravel() {
		return boardChangedMsg{err: fmt.Errorf("travel entries have no done mark")}
	}
	done, err := m.planner.ToggleDone(context.Background(), m.slot(se.Index))
	if err != nil {
		return boardChangedMsg{err: err}
	}
	verb := "not done"
	if done {
		verb = "done"
	}
	return boardChangedMsg{status: fmt.Sprintf("%s marked %s", se.Task.Name, verb)}
}

func (m *boardModel) remove(se domain.ScheduledEntry) boardChangedMsg {
	if _, err := m.planner.RemoveEntry(context.Background(), m.slot(se.Index)); err != nil {
		return boardChangedMsg{err: err}
	}
	return boardChangedMsg{status: "Removed " + entryName(m.planner.Snapshot(), se)}
}

// swapWith trades the selected entry with its scheduled neighbour and
// keeps the cursor on it.
func (m *boardModel) swapWith(delta int) tea.Cmd {
	entries := m.entries()
	target := m.cursor + delta
	if m.cursor >= len(entries) || target < 0 || target >= len(entries) {
		return nil
	}
	from, to := m.slot(entries[m.cursor].Index), m.slot(entries[target].Index)
	m.cursor = target
	return func() tea.Msg {
		if err := m.planner.MoveEntry(context.Background(), from, to, domain.DragSwap); err != nil {
			return boardChangedMsg{err: err}
		}
		return boardChangedMsg{status: "Moved"}
	}
}

// moveToDay drops the selected entry at the end of the neighbouring
// visible day of the same week.
func (m *boardModel) moveToDay(delta int) tea.Cmd {
	entries := m.entries()
	if m.cursor >= len(entries) {
		return nil
	}
	days := m.planner.Snapshot().VisibleDays()
	i := slices.Index(days, m.day) + delta
	if i < 0 || i >= len(days) {
		return nil
	}
	from, day, week := m.slot(entries[m.cursor].Index), days[i], m.week
	return func() tea.Msg {
		if err := m.planner.MoveEntryToEnd(context.Background(), from, week, day); err != nil {
			return boardChangedMsg{err: err}
		}
		return boardChangedMsg{status: "Moved to " + domain.DayNames[day]}
	}
}

func entryName(st *domain.PlannerState, se domain.ScheduledEntry) string {
	if se.Task != nil {
		return se.Task.Name
	}
	if se.LocationID == nil {
		return "travel"
	}
	return "travel to " + st.LocationName(domain.LocationRef(*se.LocationID))
}
