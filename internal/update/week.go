package update

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/views"
)

const (
	timeColumnWidth = 5
	dayColumnWidth  = 11
	continuation    = "│"
)

// loadWindow covers both the week and the month of anchor so every view reads
// from one snapshot.
func loadWindow(anchor model.Date, weekStart time.Weekday) schedule.Window {
	week := schedule.WeekWindow(anchor, weekStart)
	w := schedule.MonthWindow(anchor)
	if week.Start.Before(w.Start) {
		w.Start = week.Start
	}
	if week.End.After(w.End) {
		w.End = week.End
	}
	return w
}

func (m *Model) reload() {
	w := loadWindow(m.Anchor, m.Settings.WeekStart)
	m.Window = w
	m.LastError = nil
	m.Occurrences = nil
	m.Orphaned = 0
	if m.backend == nil {
		m.clampCursor()
		return
	}
	res, err := m.backend.Load(context.Background(), w)
	if err != nil {
		m.fail(err)
		m.clampCursor()
		return
	}
	m.Occurrences = res.Occurrences
	m.Orphaned = len(res.Orphaned)
	m.clampCursor()
}

func (m *Model) setAnchor(d model.Date) {
	m.Anchor = d
	m.Cursor = 0
	m.reload()
	m.Status = StatusBar{Text: fmt.Sprintf("focus: %s %s", d.Weekday().String()[:3], d)}
}

func (m Model) weekDates() []model.Date {
	return schedule.WeekDates(m.Anchor, m.Settings.WeekStart)
}

func (m Model) slotStarts() []model.Clock {
	out := make([]model.Clock, 0)
	step := model.Clock(m.Settings.SlotMinutes)
	for c := m.Settings.DayStart; c < m.Settings.DayEnd; c += step {
		out = append(out, c)
	}
	return out
}

func weekColumns(weekDates []model.Date, anchor model.Date) []table.Column {
	cols := []table.Column{{Title: "Time", Width: timeColumnWidth}}
	for _, d := range weekDates {
		title := fmt.Sprintf("%s %02d-%02d", d.Weekday().String()[:3], int(d.Month()), d.Day())
		if d.Equal(anchor) {
			title = "*" + title
		}
		cols = append(cols, table.Column{Title: title, Width: dayColumnWidth})
	}
	return cols
}

func weekRows(weekDates []model.Date, occs []model.Occurrence, slots []model.Clock, width int) []table.Row {
	rows := make([]table.Row, 0, len(slots))
	for _, slot := range slots {
		row := table.Row{slot.String()}
		for i := range weekDates {
			row = append(row, slotCell(i, slot, width, weekDates, occs))
		}
		rows = append(rows, row)
	}
	return rows
}

// slotCell titles an occurrence in the slot it starts in and draws a
// continuation mark below it. Conflicting slots are prefixed with "!".
func slotCell(dayIndex int, slot model.Clock, width int, weekDates []model.Date, occs []model.Occurrence) string {
	active := schedule.OccurrencesInSlot(dayIndex, slot, width, weekDates, occs)
	if len(active) == 0 {
		return ""
	}
	label := continuation
	for _, o := range active {
		if schedule.IsFirstSlotForOccurrence(o, slot, width) {
			label = o.Title
			break
		}
	}
	if len(active) > 1 {
		label = fmt.Sprintf("%s +%d", label, len(active)-1)
	}
	if schedule.SlotHasConflict(dayIndex, slot, width, weekDates, occs) {
		label = "!" + label
	}
	return label
}

func weekConflicts(weekDates []model.Date, occs []model.Occurrence) []views.ConflictData {
	out := make([]views.ConflictData, 0)
	for i, d := range weekDates {
		ids := schedule.DetectConflicts(i, weekDates, occs).Sorted()
		if len(ids) == 0 {
			continue
		}
		out = append(out, views.ConflictData{Date: d.String(), IDs: ids})
	}
	return out
}

func (m Model) renderWeekView() string {
	dates := m.weekDates()
	return views.RenderWeekPanel(views.WeekPanelData{
		Title: fmt.Sprintf("week: %s..%s | %.2fh occupied", dates[0], dates[len(dates)-1],
			schedule.WeeklyHours(m.Anchor, m.Settings.WeekStart, m.Occurrences)),
		TableView: m.weekTable.View(),
		Conflicts: weekConflicts(dates, m.Occurrences),
	})
}
