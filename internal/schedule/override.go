package schedule

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sandeepkv93/slotd/internal/model"
)

var ErrOverrideConflict = errors.New("schedule: unresolved override conflict")

// OverrideIndex looks overrides up by the id of the occurrence they target.
type OverrideIndex map[string]model.Override

// IndexOverrides validates overrides and keys them by (template, date). Two
// overrides for the same instance are an error, never a silent pick.
func IndexOverrides(overrides []model.Override) (OverrideIndex, error) {
	idx := make(OverrideIndex, len(overrides))
	for _, ov := range overrides {
		if err := ov.Validate(); err != nil {
			return nil, err
		}
		key := ov.Key()
		if prev, ok := idx[key]; ok {
			return nil, fmt.Errorf("%w: %s (overrides %q and %q)", ErrOverrideConflict, key, prev.ID, ov.ID)
		}
		idx[key] = ov
	}
	return idx, nil
}

func (idx OverrideIndex) Lookup(templateID string, d model.Date) (model.Override, bool) {
	ov, ok := idx[model.InstanceID(templateID, d)]
	return ov, ok
}

// ApplyOverrides merges each matching override into its occurrence. Overrides
// that match no synthesized occurrence are returned as orphans, sorted by key,
// and otherwise ignored.
func ApplyOverrides(occs []model.Occurrence, idx OverrideIndex) ([]model.Occurrence, []model.Override, error) {
	used := make(map[string]struct{}, len(idx))
	out := make([]model.Occurrence, 0, len(occs))
	for _, occ := range occs {
		if occ.Kind != model.KindRecurring {
			out = append(out, occ)
			continue
		}
		ov, ok := idx.Lookup(occ.SourceTemplateID, occ.Date)
		if !ok {
			out = append(out, occ)
			continue
		}
		applied, err := occ.WithOverride(&ov)
		if err != nil {
			return nil, nil, err
		}
		used[ov.Key()] = struct{}{}
		out = append(out, applied)
	}

	orphans := make([]model.Override, 0)
	for key, ov := range idx {
		if _, ok := used[key]; !ok {
			orphans = append(orphans, ov)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Key() < orphans[j].Key() })
	return out, orphans, nil
}
