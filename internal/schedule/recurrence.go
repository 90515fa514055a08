package schedule

import "github.com/sandeepkv93/slotd/internal/model"

// OccursOn reports whether recurring template t has an occurrence on d. Date
// bounds are inclusive; a missing bound leaves that side open.
func OccursOn(t model.TaskTemplate, d model.Date) bool {
	if !t.IsRecurring || d.IsZero() {
		return false
	}
	if t.StartDate != nil && !t.StartDate.IsZero() && d.Before(*t.StartDate) {
		return false
	}
	if t.EndDate != nil && !t.EndDate.IsZero() && d.After(*t.EndDate) {
		return false
	}
	return t.RecurringDays.Contains(d.Weekday())
}
