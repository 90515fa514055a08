package schedule

import (
	"github.com/sandeepkv93/slotd/internal/model"
)

// Interval is a half-open span of minutes since midnight within one day.
type Interval struct {
	Start int
	End   int
}

// ToMinutes converts an "HH:MM" wall-clock string into minutes since midnight.
func ToMinutes(raw string) (int, error) {
	c, err := model.ParseClock(raw)
	if err != nil {
		return 0, err
	}
	return c.Minutes(), nil
}

// Overlaps uses half-open semantics: touching intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

func (i Interval) Minutes() int { return i.End - i.Start }

// IntervalOf reduces a validated occurrence to its interval.
func IntervalOf(o model.Occurrence) Interval {
	return Interval{Start: o.Start().Minutes(), End: o.End().Minutes()}
}
