package schedule

import (
	"fmt"
	"sort"

	"github.com/sandeepkv93/slotd/internal/model"
)

// Input is one fully materialized snapshot fetched from the store.
type Input struct {
	Standalone []model.TaskTemplate
	Recurring  []model.TaskTemplate
	Overrides  []model.Override
}

// Result is the unified occurrence set of a window.
type Result struct {
	Window      Window
	Occurrences []model.Occurrence
	// Orphaned holds overrides whose target instance the recurrence no longer generates.
	Orphaned []model.Override
}

// Build merges standalone tasks with expanded, override-applied recurring
// occurrences and sorts them. Any malformed record fails the whole call.
func Build(in Input, w Window) (Result, error) {
	for _, t := range in.Standalone {
		if err := t.Validate(); err != nil {
			return Result{}, err
		}
	}
	for _, t := range in.Recurring {
		if err := t.Validate(); err != nil {
			return Result{}, err
		}
	}
	idx, err := IndexOverrides(in.Overrides)
	if err != nil {
		return Result{}, err
	}

	occs := make([]model.Occurrence, 0, len(in.Standalone))
	seen := make(map[string]struct{})
	for _, t := range in.Standalone {
		if t.IsRecurring || !t.Participates() {
			continue
		}
		d, ok := t.OwnDate()
		if !ok || !w.Contains(d) {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		occ, err := model.NewStandalone(t)
		if err != nil {
			return Result{}, err
		}
		seen[occ.ID] = struct{}{}
		occs = append(occs, occ)
	}

	recurring := make([]model.TaskTemplate, 0, len(in.Recurring))
	for _, t := range in.Recurring {
		if !t.IsRecurring || !t.Participates() {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		recurring = append(recurring, t)
	}
	expanded, err := Expand(recurring, w)
	if err != nil {
		return Result{}, err
	}
	expanded, orphans, err := ApplyOverrides(expanded, idx)
	if err != nil {
		return Result{}, err
	}
	for _, occ := range expanded {
		if err := occ.Validate(); err != nil {
			return Result{}, fmt.Errorf("schedule: occurrence %s: %w", occ.ID, err)
		}
	}
	occs = append(occs, expanded...)
	SortOccurrences(occs)
	return Result{Window: w, Occurrences: occs, Orphaned: orphans}, nil
}

// SortOccurrences orders by date then start time; ties put standalone tasks
// before recurring ones and then compare ids, so the order never depends on input order.
func SortOccurrences(occs []model.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Start() != b.Start() {
			return a.Start() < b.Start()
		}
		if a.Kind != b.Kind {
			return a.Kind == model.KindStandalone
		}
		return a.ID < b.ID
	})
}

// OccurrencesOn returns the occurrences dated d, keeping their order.
func OccurrencesOn(d model.Date, occs []model.Occurrence) []model.Occurrence {
	out := make([]model.Occurrence, 0)
	for _, o := range occs {
		if o.Date.Equal(d) {
			out = append(out, o)
		}
	}
	return out
}
