package update

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/storage"
)

func setupStore(t *testing.T) (*StoreBackend, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "slotd-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	for _, tmpl := range []storage.Template{
		{
			ID: "standup", UserID: "u1", Title: "Standup", IsRecurring: true, RecurringDays: "mon,tue,wed,thu,fri",
			StartDate: "2024-01-01", StartTime: "09:00", EndTime: "09:30", IsSchedulable: true,
		},
		{
			ID: "review", UserID: "u1", Title: "Review", StartDate: "2024-01-03",
			StartTime: "09:15", EndTime: "10:00", IsSchedulable: true,
		},
		{
			ID: "foreign", UserID: "u2", Title: "Not mine", StartDate: "2024-01-03",
			StartTime: "11:00", EndTime: "12:00", IsSchedulable: true,
		},
	} {
		if _, err := repo.CreateTemplate(ctx, tmpl); err != nil {
			t.Fatalf("create %s: %v", tmpl.ID, err)
		}
	}
	return NewStoreBackend(repo, "u1", time.UTC), repo
}

func weekOf(t *testing.T, start, end string) schedule.Window {
	t.Helper()
	w, err := schedule.ParseWindow(start, end)
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	return w
}

func occurrenceByID(t *testing.T, b *StoreBackend, w schedule.Window, id string) model.Occurrence {
	t.Helper()
	res, err := b.Load(context.Background(), w)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, o := range res.Occurrences {
		if o.ID == id {
			return o
		}
	}
	t.Fatalf("occurrence %s not found", id)
	return model.Occurrence{}
}

func TestStoreBackendEditsMergeIntoOneOverride(t *testing.T) {
	b, repo := setupStore(t)
	ctx := context.Background()
	w := weekOf(t, "2024-01-01", "2024-01-07")

	occ := occurrenceByID(t, b, w, "standup_2024-01-03")
	if err := b.SetCompleted(ctx, occ, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := b.Reschedule(ctx, occ, model.NewClock(10, 0), model.NewClock(10, 30)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if err := b.Rename(ctx, occ, "Standup (remote)"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	overrides, err := repo.ListTemplateOverrides(ctx, "standup")
	if err != nil {
		t.Fatalf("list overrides: %v", err)
	}
	if len(overrides) != 1 {
		t.Fatalf("expected a single merged override, got %d", len(overrides))
	}

	got := occurrenceByID(t, b, w, "standup_2024-01-03")
	if !got.Completed || got.Title != "Standup (remote)" || got.Start().String() != "10:00" {
		t.Fatalf("edits were not merged: %+v", got)
	}
	untouched := occurrenceByID(t, b, w, "standup_2024-01-04")
	if untouched.Completed || untouched.Title != "Standup" || untouched.Start().String() != "09:00" {
		t.Fatalf("other instances must keep template values: %+v", untouched)
	}
	tmpl, err := repo.GetTemplate(ctx, "standup")
	if err != nil || tmpl.Title != "Standup" || tmpl.StartTime != "09:00" || tmpl.Completed {
		t.Fatalf("template must not change: %+v err=%v", tmpl, err)
	}
}

func TestStoreBackendClearsOverrideEqualToTemplate(t *testing.T) {
	b, repo := setupStore(t)
	ctx := context.Background()
	w := weekOf(t, "2024-01-01", "2024-01-07")

	occ := occurrenceByID(t, b, w, "standup_2024-01-03")
	if err := b.SetCompleted(ctx, occ, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := repo.GetOverride(ctx, "standup", "2024-01-03"); err != nil {
		t.Fatalf("expected override after completing: %v", err)
	}
	if err := b.SetCompleted(ctx, occ, false); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := repo.GetOverride(ctx, "standup", "2024-01-03"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("override repeating the template must be deleted, got %v", err)
	}
	if err := b.Rename(ctx, occ, "Standup"); err != nil {
		t.Fatalf("rename to template title: %v", err)
	}
	if _, err := repo.GetOverride(ctx, "standup", "2024-01-03"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("no-op edit must not create an override, got %v", err)
	}
}

func TestStoreBackendEditsStandaloneTemplate(t *testing.T) {
	b, repo := setupStore(t)
	ctx := context.Background()
	w := weekOf(t, "2024-01-01", "2024-01-07")

	occ := occurrenceByID(t, b, w, "review")
	if err := b.Reschedule(ctx, occ, model.NewClock(13, 0), model.NewClock(14, 0)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	tmpl, err := repo.GetTemplate(ctx, "review")
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if tmpl.StartTime != "13:00" || tmpl.EndTime != "14:00" {
		t.Fatalf("unexpected template times %s-%s", tmpl.StartTime, tmpl.EndTime)
	}
	if err := b.Reschedule(ctx, occ, model.NewClock(14, 0), model.NewClock(13, 0)); !errors.Is(err, model.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if err := b.Rename(ctx, occ, "   "); err == nil {
		t.Fatal("expected blank title error")
	}
}

func TestStoreBackendRejectsForeignTemplates(t *testing.T) {
	b, _ := setupStore(t)
	foreign := model.Occurrence{
		ID:               "foreign",
		SourceTemplateID: "foreign",
		Kind:             model.KindStandalone,
		Date:             model.NewDate(2024, 1, 3),
	}
	if err := b.SetCompleted(context.Background(), foreign, true); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for another user's template, got %v", err)
	}
}

func TestStoreBackendExportAndImport(t *testing.T) {
	b, _ := setupStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	w := weekOf(t, "2024-01-01", "2024-01-07")

	path := filepath.Join(dir, "feeds", "slotd.ics")
	res, err := b.Export(ctx, path, w)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Events != 2 {
		t.Fatalf("expected 2 events, got %d", res.Events)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(raw), "BEGIN:VCALENDAR") || strings.Contains(string(raw), "Not mine") {
		t.Fatalf("unexpected feed:\n%s", raw)
	}

	seed := filepath.Join(dir, "seed.yaml")
	doc := "templates:\n  - title: Gym\n    days: mon thu\n    start_date: \"2024-01-01\"\n    start_time: \"18:00\"\n    end_time: \"19:00\"\n"
	if err := os.WriteFile(seed, []byte(doc), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	imported, err := b.Import(ctx, seed)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.Created != 1 {
		t.Fatalf("unexpected import result %+v", imported)
	}
	loaded, err := b.Load(ctx, w)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	gym := 0
	for _, o := range loaded.Occurrences {
		if o.Title == "Gym" {
			gym++
		}
	}
	if gym != 2 {
		t.Fatalf("expected 2 gym occurrences, got %d", gym)
	}
}
