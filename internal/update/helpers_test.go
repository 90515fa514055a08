package update

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/ics"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/storage"
)

// memoryBackend keeps templates and overrides in memory and runs the real engine.
type memoryBackend struct {
	templates []model.TaskTemplate
	overrides map[string]model.Override
	loadErr   error
	loads     int
	exported  string
	imported  string
}

func (b *memoryBackend) Load(_ context.Context, w schedule.Window) (schedule.Result, error) {
	b.loads++
	if b.loadErr != nil {
		return schedule.Result{}, b.loadErr
	}
	in := schedule.Input{}
	for _, t := range b.templates {
		if t.IsRecurring {
			in.Recurring = append(in.Recurring, t)
		} else {
			in.Standalone = append(in.Standalone, t)
		}
	}
	for _, ov := range b.overrides {
		in.Overrides = append(in.Overrides, ov)
	}
	return schedule.Build(in, w)
}

func (b *memoryBackend) override(occ model.Occurrence, apply func(*model.Override)) {
	key := occ.ID
	ov, ok := b.overrides[key]
	if !ok {
		ov = model.Override{ID: "ov-" + key, ParentTemplateID: occ.SourceTemplateID, InstanceDate: occ.Date}
	}
	apply(&ov)
	b.overrides[key] = ov
}

func (b *memoryBackend) template(id string, apply func(*model.TaskTemplate)) {
	for i := range b.templates {
		if b.templates[i].ID == id {
			apply(&b.templates[i])
		}
	}
}

func (b *memoryBackend) SetCompleted(_ context.Context, occ model.Occurrence, done bool) error {
	if occ.Kind == model.KindStandalone {
		b.template(occ.SourceTemplateID, func(t *model.TaskTemplate) { t.Completed = done })
		return nil
	}
	b.override(occ, func(ov *model.Override) { ov.Completed = &done })
	return nil
}

func (b *memoryBackend) Reschedule(_ context.Context, occ model.Occurrence, start, end model.Clock) error {
	if occ.Kind == model.KindStandalone {
		b.template(occ.SourceTemplateID, func(t *model.TaskTemplate) {
			t.StartTime, t.EndTime = &start, &end
		})
		return nil
	}
	b.override(occ, func(ov *model.Override) { ov.StartTime, ov.EndTime = &start, &end })
	return nil
}

func (b *memoryBackend) Rename(_ context.Context, occ model.Occurrence, title string) error {
	if occ.Kind == model.KindStandalone {
		b.template(occ.SourceTemplateID, func(t *model.TaskTemplate) { t.Title = title })
		return nil
	}
	b.override(occ, func(ov *model.Override) { ov.Title = &title })
	return nil
}

func (b *memoryBackend) Export(_ context.Context, path string, _ schedule.Window) (ics.Result, error) {
	b.exported = path
	return ics.Result{Events: len(b.templates)}, nil
}

func (b *memoryBackend) Import(_ context.Context, path string) (storage.ImportResult, error) {
	if path == "missing.yaml" {
		return storage.ImportResult{}, errors.New("storage: read import: no such file")
	}
	b.imported = path
	b.templates = append(b.templates, model.TaskTemplate{
		ID: "imported", Title: "Imported", IsSchedulable: true,
		StartDate: datePtr(model.NewDate(2024, 1, 3)),
		StartTime: clockPtr(model.NewClock(20, 0)), EndTime: clockPtr(model.NewClock(21, 0)),
	})
	return storage.ImportResult{Created: 1}, nil
}

func clockPtr(c model.Clock) *model.Clock { return &c }

func datePtr(d model.Date) *model.Date { return &d }

// sampleBackend: weekday standup, a Wednesday review overlapping it, gym on Mon/Thu.
func sampleBackend() *memoryBackend {
	jan1 := model.NewDate(2024, 1, 1)
	return &memoryBackend{
		overrides: map[string]model.Override{},
		templates: []model.TaskTemplate{
			{
				ID: "standup", Title: "Standup", IsRecurring: true, IsSchedulable: true,
				RecurringDays: model.NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
				StartDate:     datePtr(jan1),
				StartTime:     clockPtr(model.NewClock(9, 0)), EndTime: clockPtr(model.NewClock(9, 30)),
			},
			{
				ID: "gym", Title: "Gym", IsRecurring: true, IsSchedulable: true,
				RecurringDays: model.NewWeekdaySet(time.Monday, time.Thursday),
				StartDate:     datePtr(jan1),
				StartTime:     clockPtr(model.NewClock(18, 0)), EndTime: clockPtr(model.NewClock(19, 0)),
			},
			{
				ID: "review", Title: "Review", IsSchedulable: true,
				StartDate: datePtr(model.NewDate(2024, 1, 3)),
				StartTime: clockPtr(model.NewClock(9, 15)), EndTime: clockPtr(model.NewClock(10, 0)),
			},
		},
	}
}

func testSettings() Settings {
	s := DefaultSettings()
	s.WeekStart = time.Monday
	s.SlotMinutes = 60
	s.DayStart = model.NewClock(8, 0)
	s.DayEnd = model.NewClock(20, 0)
	s.Location = time.UTC
	s.ExportPath = "slotd.ics"
	s.Today = func() model.Date { return model.NewDate(2024, 1, 3) }
	return s
}

func newTestModel(t *testing.T) (Model, *memoryBackend) {
	t.Helper()
	backend := sampleBackend()
	m := NewModel(backend, testSettings())
	if m.LastError != nil {
		t.Fatalf("initial load failed: %v", m.LastError)
	}
	return m, backend
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func runCommand(t *testing.T, m Model, command string) Model {
	t.Helper()
	return press(t, m, "/", command, "enter")
}
