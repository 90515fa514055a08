package schedule

import (
	"github.com/sandeepkv93/slotd/internal/model"
)

// Expand synthesizes every occurrence of the recurring templates inside w, without
// overrides. Non-recurring templates are skipped. The walk is clamped to each
// template's own date bounds; the result equals a full day-by-day scan.
func Expand(templates []model.TaskTemplate, w Window) ([]model.Occurrence, error) {
	out := make([]model.Occurrence, 0)
	for _, t := range templates {
		if !t.IsRecurring {
			continue
		}
		from, to := w.Start, w.End
		if t.StartDate != nil && !t.StartDate.IsZero() && t.StartDate.After(from) {
			from = *t.StartDate
		}
		if t.EndDate != nil && !t.EndDate.IsZero() && t.EndDate.Before(to) {
			to = *t.EndDate
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			if !OccursOn(t, d) {
				continue
			}
			occ, err := model.NewRecurringInstance(t, d, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, occ)
		}
	}
	return out, nil
}
