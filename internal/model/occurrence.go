package model

import (
	"errors"
	"fmt"
)

type OccurrenceKind string

const (
	KindStandalone OccurrenceKind = "standalone"
	KindRecurring  OccurrenceKind = "recurring"
)

// Occurrence is one concrete placement of a template on a calendar day. It is a pure
// projection: Template is never modified, resolved fields carry any applied Override.
//
// Only NewStandalone and NewRecurringInstance build occurrences; they own identity.
type Occurrence struct {
	ID               string
	SourceTemplateID string
	Date             Date
	Kind             OccurrenceKind
	Template         TaskTemplate
	Override         *Override

	Title       string
	Description string
	Priority    Priority
	StartTime   *Clock
	EndTime     *Clock
	Completed   bool
}

func NewStandalone(t TaskTemplate) (Occurrence, error) {
	if t.IsRecurring {
		return Occurrence{}, fmt.Errorf("model: task %s is recurring", t.ID)
	}
	date, ok := t.OwnDate()
	if !ok {
		return Occurrence{}, fmt.Errorf("model: task %s has no date", t.ID)
	}
	occ := Occurrence{
		ID:               t.ID,
		SourceTemplateID: t.ID,
		Date:             date,
		Kind:             KindStandalone,
		Template:         t,
	}
	occ.resolve()
	return occ, nil
}

// NewRecurringInstance synthesizes the occurrence of t on date, merging ov when given.
// It does not check the recurrence predicate; expansion does.
func NewRecurringInstance(t TaskTemplate, date Date, ov *Override) (Occurrence, error) {
	if !t.IsRecurring {
		return Occurrence{}, fmt.Errorf("model: task %s is not recurring", t.ID)
	}
	if date.IsZero() {
		return Occurrence{}, fmt.Errorf("%w: empty instance date for %s", ErrMalformedDate, t.ID)
	}
	if ov != nil && (ov.ParentTemplateID != t.ID || !ov.InstanceDate.Equal(date)) {
		return Occurrence{}, fmt.Errorf("model: override %s does not target %s", ov.Key(), InstanceID(t.ID, date))
	}
	occ := Occurrence{
		ID:               InstanceID(t.ID, date),
		SourceTemplateID: t.ID,
		Date:             date,
		Kind:             KindRecurring,
		Template:         t,
		Override:         ov,
	}
	occ.resolve()
	return occ, nil
}

// WithOverride re-resolves a recurring occurrence from its template with ov applied.
func (o Occurrence) WithOverride(ov *Override) (Occurrence, error) {
	if o.Kind != KindRecurring {
		return Occurrence{}, errors.New("model: overrides only apply to recurring occurrences")
	}
	return NewRecurringInstance(o.Template, o.Date, ov)
}

func (o *Occurrence) resolve() {
	t := o.Template
	o.Title = t.Title
	o.Description = t.Description
	o.Priority = t.Priority
	o.StartTime = t.StartTime
	o.EndTime = t.EndTime
	o.Completed = t.Completed
	if o.Override == nil {
		return
	}
	ov := o.Override
	if ov.Title != nil {
		o.Title = *ov.Title
	}
	if ov.Description != nil {
		o.Description = *ov.Description
	}
	if ov.Priority != nil {
		o.Priority = *ov.Priority
	}
	if ov.StartTime != nil {
		o.StartTime = ov.StartTime
	}
	if ov.EndTime != nil {
		o.EndTime = ov.EndTime
	}
	if ov.Completed != nil {
		o.Completed = *ov.Completed
	}
}

// Validate checks the resolved interval.
func (o Occurrence) Validate() error {
	return validateTimes(o.ID, o.StartTime, o.EndTime)
}

// Start and End assume a validated occurrence with both bounds set.
func (o Occurrence) Start() Clock {
	if o.StartTime == nil {
		return 0
	}
	return *o.StartTime
}

func (o Occurrence) End() Clock {
	if o.EndTime == nil {
		return 0
	}
	return *o.EndTime
}

func (o Occurrence) Minutes() int {
	if o.StartTime == nil || o.EndTime == nil {
		return 0
	}
	return int(*o.EndTime - *o.StartTime)
}
