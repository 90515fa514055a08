package model

import (
	"errors"
	"fmt"
	"strings"
)

// Override is a per-date exception to a recurring template. Nil fields fall back
// to the template's value.
type Override struct {
	ID               string
	ParentTemplateID string
	InstanceDate     Date
	Title            *string
	Description      *string
	StartTime        *Clock
	EndTime          *Clock
	Priority         *Priority
	Completed        *bool
}

func (o Override) Validate() error {
	if strings.TrimSpace(o.ParentTemplateID) == "" {
		return errors.New("model: override parent_template_id is required")
	}
	if o.InstanceDate.IsZero() {
		return errors.New("model: override instance_date is required")
	}
	if o.Priority != nil && !o.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *o.Priority)
	}
	if o.Title != nil && strings.TrimSpace(*o.Title) == "" {
		return errors.New("model: override title must not be blank")
	}
	if o.StartTime != nil && o.EndTime != nil && *o.EndTime <= *o.StartTime {
		return fmt.Errorf("%w: override %s ends before it starts", ErrInvalidRange, o.Key())
	}
	return nil
}

// Key is the composite identity of the occurrence the override targets.
func (o Override) Key() string {
	return InstanceID(o.ParentTemplateID, o.InstanceDate)
}

// IsEmpty reports whether the override changes nothing.
func (o Override) IsEmpty() bool {
	return o.Title == nil && o.Description == nil && o.StartTime == nil &&
		o.EndTime == nil && o.Priority == nil && o.Completed == nil
}

// Reduce drops the fields that repeat t's own values, so the override only
// records what actually differs from the template.
func (o Override) Reduce(t TaskTemplate) Override {
	if o.Title != nil && *o.Title == t.Title {
		o.Title = nil
	}
	if o.Description != nil && *o.Description == t.Description {
		o.Description = nil
	}
	if o.Priority != nil && *o.Priority == t.Priority {
		o.Priority = nil
	}
	if o.StartTime != nil && t.StartTime != nil && *o.StartTime == *t.StartTime {
		o.StartTime = nil
	}
	if o.EndTime != nil && t.EndTime != nil && *o.EndTime == *t.EndTime {
		o.EndTime = nil
	}
	if o.Completed != nil && *o.Completed == t.Completed {
		o.Completed = nil
	}
	return o
}

// InstanceID is the synthesized id of a recurring occurrence: template id + "_" + ISO date.
func InstanceID(templateID string, d Date) string {
	return templateID + "_" + d.String()
}
