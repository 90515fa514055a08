package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/slotd/internal/model"
)

// ImportFile is the YAML document accepted by Import.
//
//	templates:
//	  - id: standup
//	    title: Standup
//	    days: mon,tue,wed,thu,fri
//	    start_time: "09:00"
//	    end_time: "09:15"
//	overrides:
//	  - template: standup
//	    date: "2024-01-08"
//	    title: Standup (remote)
type ImportFile struct {
	Templates []ImportTemplate `yaml:"templates"`
	Overrides []ImportOverride `yaml:"overrides"`
}

type ImportTemplate struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Priority    string `yaml:"priority"`
	Days        string `yaml:"days"`
	StartDate   string `yaml:"start_date"`
	EndDate     string `yaml:"end_date"`
	StartTime   string `yaml:"start_time"`
	EndTime     string `yaml:"end_time"`
	Schedulable *bool  `yaml:"schedulable"`
	Completed   bool   `yaml:"completed"`
}

type ImportOverride struct {
	Template    string  `yaml:"template"`
	Date        string  `yaml:"date"`
	Title       *string `yaml:"title"`
	Description *string `yaml:"description"`
	StartTime   *string `yaml:"start_time"`
	EndTime     *string `yaml:"end_time"`
	Priority    *string `yaml:"priority"`
	Completed   *bool   `yaml:"completed"`
}

type ImportResult struct {
	Created   int
	Updated   int
	Overrides int
}

// ParseImport decodes and validates every record of a document. It does not touch the store.
func ParseImport(data []byte, userID string) ([]Template, []Override, error) {
	var doc ImportFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("storage: decode import: %w", err)
	}
	templates := make([]Template, 0, len(doc.Templates))
	for i, it := range doc.Templates {
		tmpl := Template{
			ID:            strings.TrimSpace(it.ID),
			UserID:        userID,
			Title:         it.Title,
			Description:   it.Description,
			Priority:      strings.ToLower(strings.TrimSpace(it.Priority)),
			IsRecurring:   strings.TrimSpace(it.Days) != "",
			StartDate:     strings.TrimSpace(it.StartDate),
			EndDate:       strings.TrimSpace(it.EndDate),
			StartTime:     strings.TrimSpace(it.StartTime),
			EndTime:       strings.TrimSpace(it.EndTime),
			IsSchedulable: it.Schedulable == nil || *it.Schedulable,
			Completed:     it.Completed,
		}
		days, err := model.ParseWeekdaySet(it.Days)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: import template %d: %w", i+1, err)
		}
		tmpl.RecurringDays = days.String()
		candidate := tmpl
		if candidate.ID == "" {
			candidate.ID = fmt.Sprintf("template #%d", i+1)
		}
		if err := validateTemplate(candidate); err != nil {
			return nil, nil, fmt.Errorf("storage: import template %d: %w", i+1, err)
		}
		templates = append(templates, tmpl)
	}

	overrides := make([]Override, 0, len(doc.Overrides))
	for i, entry := range doc.Overrides {
		ov := Override{
			ParentTemplateID: strings.TrimSpace(entry.Template),
			InstanceDate:     strings.TrimSpace(entry.Date),
			Title:            entry.Title,
			Description:      entry.Description,
			StartTime:        entry.StartTime,
			EndTime:          entry.EndTime,
			Priority:         entry.Priority,
			Completed:        entry.Completed,
		}
		m, err := ov.ToModel()
		if err != nil {
			return nil, nil, fmt.Errorf("storage: import override %d: %w", i+1, err)
		}
		if err := m.Validate(); err != nil {
			return nil, nil, fmt.Errorf("storage: import override %d: %w", i+1, err)
		}
		overrides = append(overrides, ov)
	}
	return templates, overrides, nil
}

// Import creates or updates the templates of a YAML document and upserts its
// overrides. Override parents are resolved against the document and the store
// before the first write, and the writes share one transaction when repo
// supports it, so a failed import leaves the store unchanged.
func Import(ctx context.Context, repo Repository, userID string, data []byte) (ImportResult, error) {
	if strings.TrimSpace(userID) == "" {
		return ImportResult{}, errors.New("storage: import user id is required")
	}
	templates, overrides, err := ParseImport(data, userID)
	if err != nil {
		return ImportResult{}, err
	}
	if err := resolveParents(ctx, repo, userID, templates, overrides); err != nil {
		return ImportResult{}, err
	}

	tx, ok := repo.(Transactor)
	if !ok {
		return applyImport(ctx, repo, userID, templates, overrides)
	}
	var res ImportResult
	err = tx.WithTx(ctx, func(scoped Repository) error {
		var applyErr error
		res, applyErr = applyImport(ctx, scoped, userID, templates, overrides)
		return applyErr
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// resolveParents checks that every override targets a recurring template of
// userID, taken from the document when it defines the id and from the store otherwise.
func resolveParents(ctx context.Context, repo Repository, userID string, templates []Template, overrides []Override) error {
	inDoc := make(map[string]Template, len(templates))
	for _, tmpl := range templates {
		if tmpl.ID != "" {
			inDoc[tmpl.ID] = tmpl
		}
	}
	for i, ov := range overrides {
		parent, ok := inDoc[ov.ParentTemplateID]
		if !ok {
			stored, err := repo.GetTemplate(ctx, ov.ParentTemplateID)
			if err != nil {
				return fmt.Errorf("storage: import override %d: template %s: %w", i+1, ov.ParentTemplateID, err)
			}
			if stored.UserID != userID {
				return fmt.Errorf("storage: import override %d: template %s: %w", i+1, ov.ParentTemplateID, ErrNotFound)
			}
			parent = stored
		}
		if !parent.IsRecurring {
			return fmt.Errorf("storage: import override %d: %w: %s", i+1, ErrNotRecurring, parent.ID)
		}
	}
	return nil
}

func applyImport(ctx context.Context, repo Repository, userID string, templates []Template, overrides []Override) (ImportResult, error) {
	var res ImportResult
	for _, tmpl := range templates {
		if tmpl.ID != "" {
			existing, getErr := repo.GetTemplate(ctx, tmpl.ID)
			switch {
			case getErr == nil:
				if existing.UserID != userID {
					return res, fmt.Errorf("storage: template %s belongs to another user", tmpl.ID)
				}
				if err := repo.UpdateTemplate(ctx, tmpl); err != nil {
					return res, fmt.Errorf("storage: update template %s: %w", tmpl.ID, err)
				}
				res.Updated++
				continue
			case !errors.Is(getErr, ErrNotFound):
				return res, getErr
			}
		}
		if _, err := repo.CreateTemplate(ctx, tmpl); err != nil {
			return res, fmt.Errorf("storage: create template %q: %w", tmpl.Title, err)
		}
		res.Created++
	}
	for _, ov := range overrides {
		if _, err := repo.UpsertOverride(ctx, ov); err != nil {
			return res, fmt.Errorf("storage: override %s@%s: %w", ov.ParentTemplateID, ov.InstanceDate, err)
		}
		res.Overrides++
	}
	return res, nil
}

// ImportPath reads a YAML document from disk and imports it.
func ImportPath(ctx context.Context, repo Repository, userID, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("storage: read import: %w", err)
	}
	return Import(ctx, repo, userID, data)
}
