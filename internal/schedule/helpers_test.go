package schedule

import (
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

func mustDate(t *testing.T, raw string) model.Date {
	t.Helper()
	d, err := model.ParseDate(raw)
	if err != nil {
		t.Fatalf("parse date %q: %v", raw, err)
	}
	return d
}

func mustClock(t *testing.T, raw string) *model.Clock {
	t.Helper()
	c, err := model.ParseClock(raw)
	if err != nil {
		t.Fatalf("parse clock %q: %v", raw, err)
	}
	return &c
}

func mustWindow(t *testing.T, start, end string) Window {
	t.Helper()
	w, err := ParseWindow(start, end)
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	return w
}

func recurring(t *testing.T, id, start, end string, days ...time.Weekday) model.TaskTemplate {
	t.Helper()
	return model.TaskTemplate{
		ID:            id,
		Title:         id,
		IsRecurring:   true,
		RecurringDays: model.NewWeekdaySet(days...),
		StartTime:     mustClock(t, start),
		EndTime:       mustClock(t, end),
		IsSchedulable: true,
	}
}

func standalone(t *testing.T, id, date, start, end string) model.TaskTemplate {
	t.Helper()
	d := mustDate(t, date)
	return model.TaskTemplate{
		ID:            id,
		Title:         id,
		StartDate:     &d,
		StartTime:     mustClock(t, start),
		EndTime:       mustClock(t, end),
		IsSchedulable: true,
	}
}

// block is a standalone occurrence used by slot and aggregation tests.
func block(t *testing.T, id, date, start, end string) model.Occurrence {
	t.Helper()
	occ, err := model.NewStandalone(standalone(t, id, date, start, end))
	if err != nil {
		t.Fatalf("standalone %s: %v", id, err)
	}
	return occ
}

func ids(occs []model.Occurrence) []string {
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
