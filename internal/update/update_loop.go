package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.Scheduler != nil {
		return waitForReminderCmd(m.Scheduler.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.route(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) route(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed), nil
		}
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		if typed.Height > 12 {
			m.reportViewport.Height = typed.Height - 12
			m.weekTable.SetHeight(typed.Height - 10)
		}
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			m.fail(typed.Err)
		}
		return m, nil
	case RefreshMsg:
		m.reload()
		if m.LastError == nil {
			m.Status = StatusBar{Text: fmt.Sprintf("refreshed %s", m.Window)}
		}
		return m, nil
	case ReminderDueMsg:
		m.onReminder(typed.Event)
		if m.Scheduler != nil {
			return m, waitForReminderCmd(m.Scheduler.C())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "/", ":":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.Focus()
		m.commandInput.SetValue("")
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Week:
		m.CurrentView = ViewWeek
	case m.Keys.Day:
		m.CurrentView = ViewDay
	case m.Keys.Stats:
		m.CurrentView = ViewStats
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case "h", "left":
		m.setAnchor(m.Anchor.AddDays(-1))
	case "l", "right":
		m.setAnchor(m.Anchor.AddDays(1))
	case "H", "[":
		m.setAnchor(m.Anchor.AddDays(-7))
	case "L", "]":
		m.setAnchor(m.Anchor.AddDays(7))
	case "t":
		m.setAnchor(m.Settings.today())
	case "r":
		m.reload()
		if m.LastError == nil {
			m.Status = StatusBar{Text: fmt.Sprintf("reloaded %d occurrence(s)", len(m.Occurrences))}
		}
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "x":
		if m.CurrentView == ViewDay {
			m.toggleSelectedDone()
		}
	case "s":
		if m.CurrentView == ViewStats {
			m.StatsPeriod = nextPeriod(m.StatsPeriod)
			m.Status = StatusBar{Text: fmt.Sprintf("stats period: %s", m.StatsPeriod)}
		}
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	switch m.CurrentView {
	case ViewDay:
		m.moveCursor(delta)
	case ViewWeek:
		slots := len(m.slotStarts())
		m.SlotCursor += delta
		if m.SlotCursor < 0 {
			m.SlotCursor = 0
		}
		if m.SlotCursor >= slots {
			m.SlotCursor = slots - 1
		}
	case ViewStats:
		if delta > 0 {
			m.reportViewport.LineDown(delta)
		} else {
			m.reportViewport.LineUp(-delta)
		}
	}
}

func (m *Model) toggleSelectedDone() {
	occ, err := m.resolveTarget(".")
	if err != nil {
		m.fail(err)
		return
	}
	if err := m.setCompleted(occ, !occ.Completed); err != nil {
		m.fail(err)
	}
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.notify("Error", err.Error(), "error")
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	leftPane := ""
	switch m.CurrentView {
	case ViewDay:
		leftPane = m.renderDayView()
	case ViewStats:
		leftPane = m.renderStatsView()
	default:
		leftPane = m.renderWeekView()
	}
	rightPane := strings.TrimSpace(strings.Join([]string{
		m.renderCommandPalette(),
		m.renderHelpIfVisible(),
	}, "\n"))

	notificationView := ""
	if len(m.ReminderLog) > 0 {
		last := m.ReminderLog[len(m.ReminderLog)-1]
		notificationView = fmt.Sprintf("last-reminder: %s starts %s", last.Title, last.StartsAt.Format("15:04"))
	}
	if m.Orphaned > 0 {
		notificationView = strings.TrimSpace(notificationView + fmt.Sprintf("\n%d orphaned override(s) ignored", m.Orphaned))
	}
	notificationView = strings.TrimSpace(strings.Join([]string{notificationView, m.renderNotificationsView()}, "\n"))

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("slotd | view: %s | %s %s | selected: %s", m.CurrentView, m.Anchor.Weekday().String()[:3], m.Anchor, m.SelectedID),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: notificationView,
		Footer: fmt.Sprintf("keys: %s week | %s day | %s stats | / cmd | %s help | %s quit",
			m.Keys.Week, m.Keys.Day, m.Keys.Stats, m.Keys.Help, m.Keys.Quit),
	})
}

func isKnownView(v View) bool {
	switch v {
	case ViewWeek, ViewDay, ViewStats:
		return true
	default:
		return false
	}
}

func (m *Model) initBubbleComponents() {
	dates := m.weekDates()
	m.weekTable = table.New(
		table.WithColumns(weekColumns(dates, m.Anchor)),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 40

	m.helpModel = help.New()
	m.reportViewport = viewport.New(80, 20)
	m.dayProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage())
}

func (m *Model) syncBubbleData() {
	dates := m.weekDates()
	m.weekTable.SetColumns(weekColumns(dates, m.Anchor))
	rows := weekRows(dates, m.Occurrences, m.slotStarts(), m.Settings.SlotMinutes)
	m.weekTable.SetRows(rows)
	if len(rows) > 0 && m.SlotCursor < len(rows) {
		m.weekTable.SetCursor(m.SlotCursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	} else {
		m.commandInput.Blur()
	}

	if m.CurrentView == ViewStats {
		md := views.StatsMarkdown(m.statsReport())
		if md != m.reportSource {
			m.reportSource = md
			m.reportViewport.SetContent(views.RenderMarkdown(md))
		}
	}
}
