package schedule

import (
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

// WeekDates returns the seven dates of the week containing anchor, starting on weekStart.
func WeekDates(anchor model.Date, weekStart time.Weekday) []model.Date {
	offset := (int(anchor.Weekday()) - int(weekStart) + 7) % 7
	first := anchor.AddDays(-offset)
	out := make([]model.Date, 7)
	for i := range out {
		out[i] = first.AddDays(i)
	}
	return out
}

// MonthDates returns every date of anchor's calendar month.
func MonthDates(anchor model.Date) []model.Date {
	first := model.NewDate(anchor.Year(), anchor.Month(), 1)
	next := first.AddMonths(1)
	out := make([]model.Date, 0, 31)
	for d := first; d.Before(next); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// DateRange lists start..end inclusive; empty when end precedes start.
func DateRange(start, end model.Date) []model.Date {
	out := make([]model.Date, 0)
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// WeekWindow is the window covering the week of anchor.
func WeekWindow(anchor model.Date, weekStart time.Weekday) Window {
	dates := WeekDates(anchor, weekStart)
	return Window{Start: dates[0], End: dates[len(dates)-1]}
}

func MonthWindow(anchor model.Date) Window {
	dates := MonthDates(anchor)
	return Window{Start: dates[0], End: dates[len(dates)-1]}
}
