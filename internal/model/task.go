package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrIncompleteTimes = errors.New("model: start_time and end_time must be set together")
)

type Priority string

const (
	PriorityUnset  Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityUnset, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return PriorityUnset, fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

// TaskTemplate is a user-owned schedulable unit. A non-recurring template is its own
// single occurrence; a recurring one is expanded per matching weekday.
type TaskTemplate struct {
	ID            string
	Title         string
	Description   string
	Priority      Priority
	IsRecurring   bool
	RecurringDays WeekdaySet
	StartDate     *Date
	EndDate       *Date
	StartTime     *Clock
	EndTime       *Clock
	IsSchedulable bool
	Completed     bool
	DeletedAt     *time.Time
}

func (t TaskTemplate) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.IsRecurring && t.RecurringDays.IsEmpty() {
		return errors.New("model: recurring task requires at least one weekday")
	}
	if !t.IsRecurring && !t.RecurringDays.IsEmpty() {
		return errors.New("model: recurring_days must be empty for a non-recurring task")
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return fmt.Errorf("%w: end_date %s before start_date %s", ErrInvalidRange, t.EndDate, t.StartDate)
	}
	return validateTimes(t.ID, t.StartTime, t.EndTime)
}

// HasTimes reports whether both time bounds are set.
func (t TaskTemplate) HasTimes() bool {
	return t.StartTime != nil && t.EndTime != nil
}

func (t TaskTemplate) IsDeleted() bool {
	return t.DeletedAt != nil
}

// OwnDate is the single date a non-recurring task occupies: its start date,
// falling back to its end date.
func (t TaskTemplate) OwnDate() (Date, bool) {
	if t.StartDate != nil && !t.StartDate.IsZero() {
		return *t.StartDate, true
	}
	if t.EndDate != nil && !t.EndDate.IsZero() {
		return *t.EndDate, true
	}
	return Date{}, false
}

// Participates reports whether the template enters the timetable at all. A template
// with only one of its time bounds set is malformed and reported by Validate instead.
func (t TaskTemplate) Participates() bool {
	return t.IsSchedulable && !t.IsDeleted() && t.HasTimes()
}

func validateTimes(id string, start, end *Clock) error {
	if (start == nil) != (end == nil) {
		return fmt.Errorf("%w: %s", ErrIncompleteTimes, id)
	}
	if start != nil && *end <= *start {
		return fmt.Errorf("%w: %s ends at %s before it starts at %s", ErrInvalidRange, id, end, start)
	}
	return nil
}
