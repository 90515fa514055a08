package schedule

import (
	"sort"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

// coverage sweeps one day's intervals in start order and returns the covered
// minutes and the number of distinct blocks.
func coverage(occs []model.Occurrence) (minutes, sessions int) {
	intervals := make([]Interval, 0, len(occs))
	for _, o := range occs {
		intervals = append(intervals, IntervalOf(o))
	}
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].End < intervals[j].End
	})

	coveredUntil := 0
	for _, iv := range intervals {
		switch {
		case iv.Start >= coveredUntil:
			minutes += iv.Minutes()
			sessions++
			coveredUntil = iv.End
		case iv.End > coveredUntil:
			minutes += iv.End - coveredUntil
			coveredUntil = iv.End
		}
	}
	return minutes, sessions
}

// NonOverlappingMinutes is the wall-clock time a day's occurrences cover,
// counting double-booked minutes once.
func NonOverlappingMinutes(dayOccs []model.Occurrence) int {
	m, _ := coverage(dayOccs)
	return m
}

func DailyNonOverlappingHours(dayOccs []model.Occurrence) float64 {
	return float64(NonOverlappingMinutes(dayOccs)) / 60
}

// DailySessionCount counts blocks that start after everything before them ended.
// Occurrences swallowed by an earlier block do not count.
func DailySessionCount(dayOccs []model.Occurrence) int {
	_, s := coverage(dayOccs)
	return s
}

// NaiveMinutes is the plain sum of durations.
func NaiveMinutes(occs []model.Occurrence) int {
	total := 0
	for _, o := range occs {
		total += o.Minutes()
	}
	return total
}

type DaySummary struct {
	Date    model.Date
	Minutes int
	// Booked is the plain sum of durations; it exceeds Minutes when occurrences overlap.
	Booked    int
	Sessions  int
	Conflicts []string
}

func (s DaySummary) Hours() float64 { return float64(s.Minutes) / 60 }

// Summarize aggregates each date independently.
func Summarize(dates []model.Date, occs []model.Occurrence) []DaySummary {
	out := make([]DaySummary, 0, len(dates))
	for i, d := range dates {
		dayOccs := OccurrencesOn(d, occs)
		m, s := coverage(dayOccs)
		out = append(out, DaySummary{
			Date:      d,
			Minutes:   m,
			Booked:    NaiveMinutes(dayOccs),
			Sessions:  s,
			Conflicts: DetectConflicts(i, dates, occs).Sorted(),
		})
	}
	return out
}

// DailyBreakdown summarizes every date of w.
func DailyBreakdown(w Window, occs []model.Occurrence) []DaySummary {
	return Summarize(w.Dates(), occs)
}

// PeriodMinutes sums each day's non-overlapping minutes over dates.
func PeriodMinutes(dates []model.Date, occs []model.Occurrence) int {
	total := 0
	for _, d := range dates {
		total += NonOverlappingMinutes(OccurrencesOn(d, occs))
	}
	return total
}

func PeriodHours(dates []model.Date, occs []model.Occurrence) float64 {
	return float64(PeriodMinutes(dates, occs)) / 60
}

func WeeklyHours(anchor model.Date, weekStart time.Weekday, occs []model.Occurrence) float64 {
	return PeriodHours(WeekDates(anchor, weekStart), occs)
}

func MonthlyHours(anchor model.Date, occs []model.Occurrence) float64 {
	return PeriodHours(MonthDates(anchor), occs)
}
