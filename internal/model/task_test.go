package model

import (
	"errors"
	"testing"
	"time"
)

func clockPtr(t *testing.T, raw string) *Clock {
	t.Helper()
	c, err := ParseClock(raw)
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	return &c
}

func datePtr(t *testing.T, raw string) *Date {
	t.Helper()
	d, err := ParseDate(raw)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return &d
}

func TestTaskTemplateValidateSuccess(t *testing.T) {
	task := TaskTemplate{
		ID:            "t1",
		Title:         "Deep work",
		Priority:      PriorityHigh,
		IsRecurring:   true,
		RecurringDays: NewWeekdaySet(time.Monday, time.Wednesday),
		StartDate:     datePtr(t, "2024-01-01"),
		StartTime:     clockPtr(t, "09:00"),
		EndTime:       clockPtr(t, "10:00"),
		IsSchedulable: true,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
	if !task.Participates() {
		t.Fatal("expected task to participate in the timetable")
	}
}

func TestTaskTemplateValidateFailures(t *testing.T) {
	base := TaskTemplate{ID: "t1", Title: "Gym", IsSchedulable: true}

	recurringNoDays := base
	recurringNoDays.IsRecurring = true
	if err := recurringNoDays.Validate(); err == nil {
		t.Fatal("expected error for recurring task without weekdays")
	}

	badPriority := base
	badPriority.Priority = Priority("urgent")
	if err := badPriority.Validate(); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}

	halfTimes := base
	halfTimes.StartTime = clockPtr(t, "09:00")
	if err := halfTimes.Validate(); !errors.Is(err, ErrIncompleteTimes) {
		t.Fatalf("expected ErrIncompleteTimes, got %v", err)
	}

	inverted := base
	inverted.StartTime = clockPtr(t, "10:00")
	inverted.EndTime = clockPtr(t, "10:00")
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	backwards := base
	backwards.StartDate = datePtr(t, "2024-02-01")
	backwards.EndDate = datePtr(t, "2024-01-01")
	if err := backwards.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for dates, got %v", err)
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" High ")
	if err != nil || p != PriorityHigh {
		t.Fatalf("unexpected priority %q err=%v", p, err)
	}
	if p, err := ParsePriority(""); err != nil || p != PriorityUnset {
		t.Fatalf("expected unset priority, got %q err=%v", p, err)
	}
	if _, err := ParsePriority("critical"); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestOwnDateFallsBackToEndDate(t *testing.T) {
	task := TaskTemplate{ID: "t1", Title: "Report", EndDate: datePtr(t, "2024-03-04")}
	d, ok := task.OwnDate()
	if !ok || d.String() != "2024-03-04" {
		t.Fatalf("unexpected own date %s ok=%v", d, ok)
	}
	task.EndDate = nil
	if _, ok := task.OwnDate(); ok {
		t.Fatal("expected no own date")
	}
}
