package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	res, err := commands.Execute(cmd, m.paletteHandlers())
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		return m
	}
	m.Status = StatusBar{Text: res.Message}
	m.notify("Command", res.Message, "info")
	return m
}

// paletteHandlers mutate m through the pointer captured by the closures; the
// caller returns the same m afterwards.
func (m *Model) paletteHandlers() commands.Handlers {
	return commands.Handlers{
		Goto: func(a commands.GotoArgs) (commands.Result, error) {
			d := a.Date
			if a.Today {
				d = m.Settings.today()
			}
			m.setAnchor(d)
			return commands.Result{Message: fmt.Sprintf("moved to %s", d)}, nil
		},
		Week: func(a commands.WeekArgs) (commands.Result, error) {
			d := m.Anchor.AddDays(7 * a.Step)
			if a.Step == 0 {
				d = m.Settings.today()
			}
			m.setAnchor(d)
			m.CurrentView = ViewWeek
			dates := m.weekDates()
			return commands.Result{Message: fmt.Sprintf("week %s..%s", dates[0], dates[len(dates)-1])}, nil
		},
		Stats: func(a commands.StatsArgs) (commands.Result, error) {
			m.StatsPeriod = a.Period
			m.CurrentView = ViewStats
			w, _ := m.periodWindow()
			hours := schedule.PeriodHours(w.Dates(), m.Occurrences)
			return commands.Result{Message: fmt.Sprintf("%s: %.2fh occupied", a.Period, hours)}, nil
		},
		Conflicts: func(a commands.ConflictsArgs) (commands.Result, error) {
			if !a.Date.IsZero() && !a.Date.Equal(m.Anchor) {
				m.setAnchor(a.Date)
			}
			return m.conflictsOnAnchor(), nil
		},
		Export: func(a commands.PathArgs) (commands.Result, error) {
			path := a.Path
			if path == "" {
				path = m.Settings.ExportPath
			}
			if m.backend == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "no backend configured"}
			}
			res, err := m.backend.Export(context.Background(), path, m.Window)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("exported %d event(s) for %s to %s", res.Events, m.Window, path)}, nil
		},
		Import: func(a commands.PathArgs) (commands.Result, error) {
			if m.backend == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "no backend configured"}
			}
			res, err := m.backend.Import(context.Background(), a.Path)
			if err != nil {
				return commands.Result{}, err
			}
			m.reload()
			return commands.Result{Message: fmt.Sprintf("imported %d new, %d updated, %d override(s)", res.Created, res.Updated, res.Overrides)}, nil
		},
		Done: func(a commands.DoneArgs) (commands.Result, error) {
			occ, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.setCompleted(occ, true); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("completed %s", occ.ID)}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			occ, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.edit(func(b Backend) error {
				return b.Reschedule(context.Background(), occ, a.Start, a.End)
			}); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("moved %s to %s-%s", occ.ID, a.Start, a.End)}, nil
		},
		Rename: func(a commands.RenameArgs) (commands.Result, error) {
			occ, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.edit(func(b Backend) error {
				return b.Rename(context.Background(), occ, a.Title)
			}); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("renamed %s to %q", occ.ID, a.Title)}, nil
		},
	}
}

func (m *Model) conflictsOnAnchor() commands.Result {
	weekDates := m.weekDates()
	for i, d := range weekDates {
		if !d.Equal(m.Anchor) {
			continue
		}
		ids := schedule.DetectConflicts(i, weekDates, m.Occurrences).Sorted()
		if len(ids) == 0 {
			return commands.Result{Message: fmt.Sprintf("no conflicts on %s", d)}
		}
		return commands.Result{Message: fmt.Sprintf("conflicts on %s: %s", d, strings.Join(ids, ", "))}
	}
	return commands.Result{Message: fmt.Sprintf("no conflicts on %s", m.Anchor)}
}

func (m *Model) setCompleted(occ model.Occurrence, done bool) error {
	return m.edit(func(b Backend) error {
		return b.SetCompleted(context.Background(), occ, done)
	})
}

// edit runs a write against the backend and reloads so the views reflect it.
func (m *Model) edit(write func(Backend) error) error {
	if m.backend == nil {
		return &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "no backend configured"}
	}
	if err := write(m.backend); err != nil {
		return err
	}
	selected := m.SelectedID
	m.reload()
	day := m.dayOccurrences()
	for i, o := range day {
		if o.ID == selected {
			m.Cursor = i
			m.SelectedID = selected
		}
	}
	return nil
}
