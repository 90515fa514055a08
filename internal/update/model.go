package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/config"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/scheduler"
)

type View string

const (
	ViewWeek  View = "Week"
	ViewDay   View = "Day"
	ViewStats View = "Stats"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Week  string
	Day   string
	Stats string
	Help  string
	Quit  string
}

// Settings is the part of the runtime config the program reads.
type Settings struct {
	WeekStart            time.Weekday
	SlotMinutes          int
	DayStart             model.Clock
	DayEnd               model.Clock
	Location             *time.Location
	ExportPath           string
	DesktopNotifications bool
	// Today reports the current date; nil uses the wall clock in Location.
	Today func() model.Date
}

func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

func SettingsFromConfig(cfg *config.Config) Settings {
	start, end := cfg.DayBounds()
	export := cfg.ICSPath
	if export == "" {
		export = "slotd.ics"
	}
	return Settings{
		WeekStart:            cfg.FirstWeekday(),
		SlotMinutes:          cfg.SlotMinutes,
		DayStart:             start,
		DayEnd:               end,
		Location:             cfg.Location(),
		ExportPath:           export,
		DesktopNotifications: cfg.DesktopNotifications,
	}
}

func (s Settings) today() model.Date {
	if s.Today != nil {
		return s.Today()
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return model.DateOf(time.Now().In(loc))
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	CurrentView View
	Settings    Settings
	// Anchor is the selected day; the week and month shown contain it.
	Anchor      model.Date
	Window      schedule.Window
	Occurrences []model.Occurrence
	Orphaned    int
	// Cursor indexes the anchor day's occurrences in the day view.
	Cursor      int
	SelectedID  string
	SlotCursor  int
	StatsPeriod commands.Period
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	Scheduler      *scheduler.Engine
	ReminderLog    []scheduler.ReminderEvent
	Notifications  []Notification
	DesktopEnabled bool

	backend  Backend
	notifier DesktopNotifier

	weekTable      table.Model
	commandInput   textinput.Model
	helpModel      help.Model
	reportViewport viewport.Model
	dayProgress    progress.Model
	reportSource   string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type AppErrorMsg struct {
	Err error
}

// RefreshMsg reloads the visible window, e.g. after the daily rollover.
type RefreshMsg struct{}

type ReminderDueMsg struct {
	Event scheduler.ReminderEvent
}

func NewModel(backend Backend, settings Settings) Model {
	if settings.SlotMinutes <= 0 {
		settings.SlotMinutes = 60
	}
	if settings.DayEnd <= settings.DayStart {
		settings.DayStart, settings.DayEnd = 0, model.MinutesPerDay-1
	}
	m := Model{
		CurrentView:    ViewWeek,
		Settings:       settings,
		StatsPeriod:    commands.PeriodWeek,
		DesktopEnabled: settings.DesktopNotifications,
		backend:        backend,
		notifier:       NoopDesktopNotifier{},
		Keys: GlobalKeyMap{
			Week:  "1",
			Day:   "2",
			Stats: "3",
			Help:  "?",
			Quit:  "q",
		},
	}
	m.Anchor = settings.today()
	m.initBubbleComponents()
	m.reload()
	m.syncBubbleData()
	return m
}

func NewModelWithRuntime(backend Backend, settings Settings, engine *scheduler.Engine, notifier DesktopNotifier) Model {
	m := NewModel(backend, settings)
	m.Scheduler = engine
	if notifier != nil {
		m.notifier = notifier
	}
	return m
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}
