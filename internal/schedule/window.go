package schedule

import (
	"fmt"

	"github.com/sandeepkv93/slotd/internal/model"
)

// MaxWindowDays bounds a single query so a typo in a year cannot expand forever.
const MaxWindowDays = 3 * 366

// Window is a closed range of calendar dates.
type Window struct {
	Start model.Date
	End   model.Date
}

func NewWindow(start, end model.Date) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, fmt.Errorf("%w: empty window bound", model.ErrMalformedDate)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: window ends %s before it starts %s", model.ErrInvalidRange, end, start)
	}
	if start.DaysUntil(end) >= MaxWindowDays {
		return Window{}, fmt.Errorf("%w: window %s..%s longer than %d days", model.ErrInvalidRange, start, end, MaxWindowDays)
	}
	return Window{Start: start, End: end}, nil
}

// ParseWindow parses two YYYY-MM-DD bounds.
func ParseWindow(start, end string) (Window, error) {
	s, err := model.ParseDate(start)
	if err != nil {
		return Window{}, err
	}
	e, err := model.ParseDate(end)
	if err != nil {
		return Window{}, err
	}
	return NewWindow(s, e)
}

func (w Window) Contains(d model.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) Days() int {
	return w.Start.DaysUntil(w.End) + 1
}

// Dates lists every date of the window in order.
func (w Window) Dates() []model.Date {
	out := make([]model.Date, 0, w.Days())
	for d := w.Start; !d.After(w.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// DateStrings is Dates encoded as YYYY-MM-DD, the shape the store expects.
func (w Window) DateStrings() []string {
	dates := w.Dates()
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}
