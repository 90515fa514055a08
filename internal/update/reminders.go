package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/scheduler"
)

const reminderLogSize = 20

func waitForReminderCmd(ch <-chan scheduler.ReminderEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

func (m *Model) onReminder(ev scheduler.ReminderEvent) {
	m.ReminderLog = append(m.ReminderLog, ev)
	if len(m.ReminderLog) > reminderLogSize {
		m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-reminderLogSize:]
	}
	text := fmt.Sprintf("reminder: %s at %s", ev.Title, ev.StartsAt.Format("15:04"))
	if occ, ok := m.findOccurrence(ev.OccurrenceID); ok && occ.Completed {
		text = fmt.Sprintf("reminder skipped, %s already done", ev.Title)
		m.Status = StatusBar{Text: text}
		return
	}
	m.Status = StatusBar{Text: text}
	m.notify("Reminder", text, "info")
}
