package update

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/scheduler"
)

func TestNewModelLoadsMonthAndWeek(t *testing.T) {
	m, backend := newTestModel(t)
	if m.CurrentView != ViewWeek {
		t.Fatalf("expected default view %q, got %q", ViewWeek, m.CurrentView)
	}
	if m.Anchor.String() != "2024-01-03" {
		t.Fatalf("unexpected anchor %s", m.Anchor)
	}
	if m.Window.String() != "2024-01-01..2024-01-31" {
		t.Fatalf("unexpected window %s", m.Window)
	}
	if backend.loads != 1 {
		t.Fatalf("expected one load, got %d", backend.loads)
	}
	if m.SelectedID != "standup_2024-01-03" {
		t.Fatalf("expected first occurrence of the day selected, got %q", m.SelectedID)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "2")
	if m.CurrentView != ViewDay {
		t.Fatalf("expected day view, got %q", m.CurrentView)
	}
	m = press(t, m, "3")
	if m.CurrentView != ViewStats {
		t.Fatalf("expected stats view, got %q", m.CurrentView)
	}

	updated, _ := m.Update(SwitchViewMsg{View: View("Unknown")})
	if updated.(Model).CurrentView != ViewStats {
		t.Fatal("unknown view must be ignored")
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !updated.(Model).Quitting || cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestNavigationMovesAnchorAndWindow(t *testing.T) {
	m, backend := newTestModel(t)
	m = press(t, m, "l")
	if m.Anchor.String() != "2024-01-04" {
		t.Fatalf("expected next day, got %s", m.Anchor)
	}
	m = press(t, m, "L", "L", "L", "L")
	if m.Anchor.String() != "2024-02-01" {
		t.Fatalf("expected four weeks later, got %s", m.Anchor)
	}
	if m.Window.String() != "2024-01-29..2024-02-29" {
		t.Fatalf("window must cover week and month of anchor, got %s", m.Window)
	}
	m = press(t, m, "t")
	if m.Anchor.String() != "2024-01-03" {
		t.Fatalf("expected today, got %s", m.Anchor)
	}
	if backend.loads != 7 {
		t.Fatalf("every navigation reloads, got %d loads", backend.loads)
	}
}

func TestWeekGridCells(t *testing.T) {
	m, _ := newTestModel(t)
	dates := m.weekDates()
	rows := weekRows(dates, m.Occurrences, []model.Clock{model.NewClock(9, 0), model.NewClock(9, 30), model.NewClock(18, 0)}, 30)

	// Columns: time, Mon..Sun.
	if got := rows[0][1]; got != "Standup" {
		t.Fatalf("monday 09:00 = %q", got)
	}
	if got := rows[0][3]; got != "!Standup +1" {
		t.Fatalf("wednesday 09:00 = %q", got)
	}
	if got := rows[1][3]; got != continuation {
		t.Fatalf("wednesday 09:30 = %q, want continuation", got)
	}
	if got := rows[2][4]; got != "Gym" {
		t.Fatalf("thursday 18:00 = %q", got)
	}
	if got := rows[2][6]; got != "" {
		t.Fatalf("saturday 18:00 = %q, want empty", got)
	}

	conflicts := weekConflicts(dates, m.Occurrences)
	if len(conflicts) != 1 || conflicts[0].Date != "2024-01-03" {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}
	if strings.Join(conflicts[0].IDs, ",") != "review,standup_2024-01-03" {
		t.Fatalf("unexpected conflict ids: %v", conflicts[0].IDs)
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	for _, want := range []string{"slotd", "view: Week", "2024-01-03", "conflicts:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("week view missing %q", want)
		}
	}
	m = press(t, m, "2")
	out = m.View()
	if !strings.Contains(out, "Review") || !strings.Contains(out, "!conflict") {
		t.Fatalf("day view missing conflicting review:\n%s", out)
	}
}

func TestDayViewToggleDone(t *testing.T) {
	m, backend := newTestModel(t)
	m = press(t, m, "2", "j")
	if m.SelectedID != "review" {
		t.Fatalf("expected review selected, got %q", m.SelectedID)
	}
	m = press(t, m, "x")
	occ, ok := m.findOccurrence("review")
	if !ok || !occ.Completed {
		t.Fatalf("expected review completed, got %+v", occ)
	}
	if m.SelectedID != "review" {
		t.Fatalf("selection must survive the reload, got %q", m.SelectedID)
	}

	m = press(t, m, "k", "x")
	if _, ok := backend.overrides["standup_2024-01-03"]; !ok {
		t.Fatal("completing a recurring instance must write an override")
	}
	standup, _ := m.findOccurrence("standup_2024-01-03")
	other, _ := m.findOccurrence("standup_2024-01-04")
	if !standup.Completed || other.Completed {
		t.Fatal("override must only affect its own instance")
	}
}

func TestStatsReportTotals(t *testing.T) {
	m, _ := newTestModel(t)
	report := m.statsReport()
	if report.Heading != "Week of 2024-01-01" {
		t.Fatalf("unexpected heading %q", report.Heading)
	}
	checkHours(t, "day", report.DayHours, 1.0)
	checkHours(t, "week", report.WeekHours, 5.0)
	checkHours(t, "month", report.MonthHours, 21.0)
	if len(report.Days) != 7 || report.Days[2].Conflicts != 2 || report.Days[2].Sessions != 1 || report.Days[2].Booked != 1.25 {
		t.Fatalf("unexpected wednesday row: %+v", report.Days)
	}

	names := make([]string, 0, len(report.Categories))
	for _, c := range report.Categories {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "Gym,Review,Standup" {
		t.Fatalf("unexpected categories %v", names)
	}

	m = press(t, m, "3", "s")
	if m.StatsPeriod != commands.PeriodMonth {
		t.Fatalf("expected month after cycling, got %s", m.StatsPeriod)
	}
	if got := m.statsReport(); len(got.Days) != 31 || got.Heading != "January 2024" {
		t.Fatalf("unexpected month report: %s with %d days", got.Heading, len(got.Days))
	}
}

func TestDayOccupancyShare(t *testing.T) {
	m, _ := newTestModel(t)
	checkHours(t, "occupancy", m.dayOccupancy(), 60.0/720.0)

	m = press(t, m, "3")
	if view := m.View(); !strings.Contains(view, "day occupancy:") || !strings.Contains(view, "8%") {
		t.Fatalf("expected occupancy bar in stats view, got %q", view)
	}
}

func checkHours(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s hours = %v, want %v", label, got, want)
	}
}

func TestPaletteNavigationCommands(t *testing.T) {
	m, _ := newTestModel(t)
	m = runCommand(t, m, "goto 2024-01-08")
	if m.Anchor.String() != "2024-01-08" || m.Status.Text != "moved to 2024-01-08" {
		t.Fatalf("unexpected goto result: anchor=%s status=%q", m.Anchor, m.Status.Text)
	}
	if m.Palette.Active {
		t.Fatal("palette must close after executing")
	}

	m = runCommand(t, m, "week prev")
	if m.Anchor.String() != "2024-01-01" || m.CurrentView != ViewWeek {
		t.Fatalf("unexpected week prev result: %s %s", m.Anchor, m.CurrentView)
	}
	m = runCommand(t, m, "week this")
	if m.Anchor.String() != "2024-01-03" {
		t.Fatalf("week this must return to today, got %s", m.Anchor)
	}

	m = runCommand(t, m, "stats day")
	if m.CurrentView != ViewStats || m.Status.Text != "day: 1.00h occupied" {
		t.Fatalf("unexpected stats result: %s %q", m.CurrentView, m.Status.Text)
	}

	m = runCommand(t, m, "conflicts")
	if m.Status.Text != "conflicts on 2024-01-03: review, standup_2024-01-03" {
		t.Fatalf("unexpected conflicts status %q", m.Status.Text)
	}
	m = runCommand(t, m, "conflicts 2024-01-02")
	if m.Status.Text != "no conflicts on 2024-01-02" {
		t.Fatalf("unexpected conflicts status %q", m.Status.Text)
	}
}

func TestPaletteEditsOccurrences(t *testing.T) {
	m, backend := newTestModel(t)
	m = runCommand(t, m, "move standup_2024-01-03 10:00-10:30")
	if m.Status.IsError {
		t.Fatalf("move failed: %s", m.Status.Text)
	}
	moved, _ := m.findOccurrence("standup_2024-01-03")
	if moved.Start().String() != "10:00" || moved.End().String() != "10:30" {
		t.Fatalf("unexpected moved times %s-%s", moved.Start(), moved.End())
	}
	if tmpl := backend.templates[0]; tmpl.StartTime.String() != "09:00" {
		t.Fatalf("template must stay untouched, got %s", tmpl.StartTime)
	}
	if got := weekConflicts(m.weekDates(), m.Occurrences); len(got) != 0 {
		t.Fatalf("moving standup resolves the conflict, got %+v", got)
	}

	m = runCommand(t, m, "rename review Design review")
	renamed, _ := m.findOccurrence("review")
	if renamed.Title != "Design review" {
		t.Fatalf("unexpected title %q", renamed.Title)
	}

	m = runCommand(t, m, "done .")
	selected, _ := m.findOccurrence(m.SelectedID)
	if !selected.Completed {
		t.Fatalf("expected selected occurrence %s completed", m.SelectedID)
	}
}

func TestPaletteErrors(t *testing.T) {
	m, _ := newTestModel(t)
	m = runCommand(t, m, "done gym_2024-03-01")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "not in 2024-01-01..2024-01-31") {
		t.Fatalf("expected out-of-window error, got %+v", m.Status)
	}
	m = runCommand(t, m, "teleport")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, string(commands.ErrCodeUnknownCommand)) {
		t.Fatalf("expected unknown command error, got %+v", m.Status)
	}
	m = runCommand(t, m, "import missing.yaml")
	if !m.Status.IsError {
		t.Fatalf("expected import error, got %+v", m.Status)
	}

	m = press(t, m, "/", "goto", "esc")
	if m.Palette.Active || m.Status.Text != "command palette closed" {
		t.Fatalf("esc must close the palette, got %+v", m.Palette)
	}
}

func TestPaletteExportAndImport(t *testing.T) {
	m, backend := newTestModel(t)
	m = runCommand(t, m, "export")
	if backend.exported != "slotd.ics" {
		t.Fatalf("expected default export path, got %q", backend.exported)
	}
	m = runCommand(t, m, "export out/week.ics")
	if backend.exported != "out/week.ics" || m.Status.IsError {
		t.Fatalf("unexpected export: %q %+v", backend.exported, m.Status)
	}

	m = runCommand(t, m, "import seed.yaml")
	if backend.imported != "seed.yaml" {
		t.Fatalf("import not forwarded, got %q", backend.imported)
	}
	if _, ok := m.findOccurrence("imported"); !ok {
		t.Fatal("import must reload the window")
	}
}

func TestLoadErrorSurfacesInStatus(t *testing.T) {
	backend := sampleBackend()
	backend.loadErr = errors.New("storage: database is locked")
	m := NewModel(backend, testSettings())
	if m.LastError == nil || !m.Status.IsError {
		t.Fatalf("expected load error in status, got %+v", m.Status)
	}
	if len(m.Occurrences) != 0 {
		t.Fatal("failed load must not keep stale occurrences")
	}

	backend.loadErr = nil
	updated, _ := m.Update(RefreshMsg{})
	next := updated.(Model)
	if next.LastError != nil || len(next.Occurrences) == 0 {
		t.Fatalf("refresh should recover, err=%v", next.LastError)
	}
}

func TestInitWithSchedulerReturnsReminderCmd(t *testing.T) {
	engine := scheduler.NewEngine(1)
	m := NewModelWithRuntime(sampleBackend(), testSettings(), engine, nil)
	if cmd := m.Init(); cmd == nil {
		t.Fatal("expected reminder wait cmd when scheduler is attached")
	}
	if cmd := NewModel(sampleBackend(), testSettings()).Init(); cmd != nil {
		t.Fatal("expected no cmd without scheduler")
	}
}

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) Send(n Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

func TestReminderDueMsgLogsNotifiesAndRearms(t *testing.T) {
	engine := scheduler.NewEngine(1)
	notifier := &recordingNotifier{}
	settings := testSettings()
	settings.DesktopNotifications = true
	m := NewModelWithRuntime(sampleBackend(), settings, engine, notifier)

	ev := scheduler.ReminderEvent{
		ID:           "reminder:gym_2024-01-04@18:00",
		OccurrenceID: "gym_2024-01-04",
		Title:        "Gym",
		StartsAt:     time.Date(2024, 1, 4, 18, 0, 0, 0, time.UTC),
		TriggerAt:    time.Date(2024, 1, 4, 17, 50, 0, 0, time.UTC),
	}
	updated, cmd := m.Update(ReminderDueMsg{Event: ev})
	next := updated.(Model)
	if len(next.ReminderLog) != 1 || next.ReminderLog[0].ID != ev.ID {
		t.Fatalf("unexpected reminder log: %#v", next.ReminderLog)
	}
	if cmd == nil {
		t.Fatal("expected reminder listener rearm cmd")
	}
	if next.Status.Text != "reminder: Gym at 18:00" {
		t.Fatalf("unexpected status %q", next.Status.Text)
	}
	if len(notifier.sent) == 0 || notifier.sent[len(notifier.sent)-1].Title != "Reminder" {
		t.Fatalf("expected desktop notification, got %+v", notifier.sent)
	}
	if !strings.Contains(next.View(), "last-reminder: Gym starts 18:00") {
		t.Fatal("view must show the last reminder")
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "?")
	if !m.HelpVisible {
		t.Fatal("expected help visible")
	}
	if !strings.Contains(m.View(), "move slot cursor") {
		t.Fatal("help must list the week bindings")
	}
	m = press(t, m, "?")
	if m.HelpVisible {
		t.Fatal("expected help hidden")
	}
}
