package update

import (
	"fmt"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/views"
)

func (m Model) dayOccurrences() []model.Occurrence {
	return schedule.OccurrencesOn(m.Anchor, m.Occurrences)
}

func (m *Model) clampCursor() {
	day := m.dayOccurrences()
	if len(day) == 0 {
		m.Cursor = 0
		m.SelectedID = ""
		return
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(day) {
		m.Cursor = len(day) - 1
	}
	m.SelectedID = day[m.Cursor].ID
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

func (m Model) findOccurrence(id string) (model.Occurrence, bool) {
	for _, o := range m.Occurrences {
		if o.ID == id {
			return o, true
		}
	}
	return model.Occurrence{}, false
}

// resolveTarget maps a palette target to a loaded occurrence; "." is the selection.
func (m Model) resolveTarget(target string) (model.Occurrence, error) {
	id := target
	if target == "." || target == "selected" {
		id = m.SelectedID
	}
	if id == "" {
		return model.Occurrence{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no occurrence selected"}
	}
	occ, ok := m.findOccurrence(id)
	if !ok {
		return model.Occurrence{}, &commands.CommandError{
			Code:    commands.ErrCodeInvalidArgument,
			Message: fmt.Sprintf("occurrence %s is not in %s", id, m.Window),
		}
	}
	return occ, nil
}

func (m Model) renderDayView() string {
	day := m.dayOccurrences()
	weekDates := m.weekDates()
	dayIndex := 0
	for i, d := range weekDates {
		if d.Equal(m.Anchor) {
			dayIndex = i
		}
	}
	conflicts := schedule.DetectConflicts(dayIndex, weekDates, m.Occurrences)
	items := make([]views.DayItemData, 0, len(day))
	for _, o := range day {
		items = append(items, views.DayItemData{
			ID:        o.ID,
			Time:      fmt.Sprintf("%s-%s", o.Start(), o.End()),
			Title:     o.Title,
			Kind:      string(o.Kind),
			Completed: o.Completed,
			Conflict:  conflicts.Has(o.ID),
		})
	}
	return views.RenderDayPanel(views.DayPanelData{
		Date:       m.Anchor.String(),
		Weekday:    m.Anchor.Weekday().String(),
		Items:      items,
		SelectedID: m.SelectedID,
		Hours:      schedule.DailyNonOverlappingHours(day),
		Sessions:   schedule.DailySessionCount(day),
	})
}
