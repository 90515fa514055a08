package schedule

import (
	"sort"

	"github.com/sandeepkv93/slotd/internal/model"
)

func dayAt(dayIndex int, weekDates []model.Date) (model.Date, bool) {
	if dayIndex < 0 || dayIndex >= len(weekDates) {
		return model.Date{}, false
	}
	return weekDates[dayIndex], true
}

// OccurrencesInSlot returns the occurrences on weekDates[dayIndex] that overlap
// [slotStart, slotStart+width). An out of range day index yields nothing.
func OccurrencesInSlot(dayIndex int, slotStart model.Clock, width int, weekDates []model.Date, occs []model.Occurrence) []model.Occurrence {
	day, ok := dayAt(dayIndex, weekDates)
	if !ok || width <= 0 {
		return nil
	}
	slot := Interval{Start: slotStart.Minutes(), End: slotStart.Minutes() + width}
	out := make([]model.Occurrence, 0)
	for _, o := range occs {
		if !o.Date.Equal(day) {
			continue
		}
		if Overlaps(IntervalOf(o), slot) {
			out = append(out, o)
		}
	}
	return out
}

// IsFirstSlotForOccurrence reports whether o starts inside the slot.
func IsFirstSlotForOccurrence(o model.Occurrence, slotStart model.Clock, width int) bool {
	start := o.Start().Minutes()
	return slotStart.Minutes() <= start && start < slotStart.Minutes()+width
}

// SlotHasConflict reports whether more than one occurrence is active in the slot.
func SlotHasConflict(dayIndex int, slotStart model.Clock, width int, weekDates []model.Date, occs []model.Occurrence) bool {
	return len(OccurrencesInSlot(dayIndex, slotStart, width, weekDates, occs)) > 1
}

type IDSet map[string]struct{}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DetectConflicts collects the ids of every occurrence on weekDates[dayIndex]
// that overlaps at least one other occurrence that day.
func DetectConflicts(dayIndex int, weekDates []model.Date, occs []model.Occurrence) IDSet {
	out := IDSet{}
	day, ok := dayAt(dayIndex, weekDates)
	if !ok {
		return out
	}
	dayOccs := OccurrencesOn(day, occs)
	for i := 0; i < len(dayOccs); i++ {
		for j := i + 1; j < len(dayOccs); j++ {
			if Overlaps(IntervalOf(dayOccs[i]), IntervalOf(dayOccs[j])) {
				out[dayOccs[i].ID] = struct{}{}
				out[dayOccs[j].ID] = struct{}{}
			}
		}
	}
	return out
}
