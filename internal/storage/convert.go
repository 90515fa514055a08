package storage

import (
	"fmt"

	"github.com/sandeepkv93/slotd/internal/model"
)

// ToModel decodes a row into a domain template. Malformed columns fail loudly.
func (t Template) ToModel() (model.TaskTemplate, error) {
	out := model.TaskTemplate{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		IsRecurring:   t.IsRecurring,
		IsSchedulable: t.IsSchedulable,
		Completed:     t.Completed,
		DeletedAt:     t.DeletedAt,
	}
	var err error
	if out.Priority, err = model.ParsePriority(t.Priority); err != nil {
		return model.TaskTemplate{}, fmt.Errorf("storage: template %s: %w", t.ID, err)
	}
	if out.RecurringDays, err = model.ParseWeekdaySet(t.RecurringDays); err != nil {
		return model.TaskTemplate{}, fmt.Errorf("storage: template %s: %w", t.ID, err)
	}
	if out.StartDate, err = optionalDate(t.StartDate); err != nil {
		return model.TaskTemplate{}, fmt.Errorf("storage: template %s start_date: %w", t.ID, err)
	}
	if out.EndDate, err = optionalDate(t.EndDate); err != nil {
		return model.TaskTemplate{}, fmt.Errorf("storage: template %s end_date: %w", t.ID, err)
	}
	if out.StartTime, err = optionalClock(t.StartTime); err != nil {
		return model.TaskTemplate{}, fmt.Errorf("storage: template %s start_time: %w", t.ID, err)
	}
	if out.EndTime, err = optionalClock(t.EndTime); err != nil {
		return model.TaskTemplate{}, fmt.Errorf("storage: template %s end_time: %w", t.ID, err)
	}
	return out, nil
}

// TemplateFromModel encodes a domain template owned by userID.
func TemplateFromModel(userID string, m model.TaskTemplate) Template {
	out := Template{
		ID:            m.ID,
		UserID:        userID,
		Title:         m.Title,
		Description:   m.Description,
		Priority:      string(m.Priority),
		IsRecurring:   m.IsRecurring,
		RecurringDays: m.RecurringDays.String(),
		IsSchedulable: m.IsSchedulable,
		Completed:     m.Completed,
		DeletedAt:     m.DeletedAt,
	}
	if m.StartDate != nil {
		out.StartDate = m.StartDate.String()
	}
	if m.EndDate != nil {
		out.EndDate = m.EndDate.String()
	}
	if m.StartTime != nil {
		out.StartTime = m.StartTime.String()
	}
	if m.EndTime != nil {
		out.EndTime = m.EndTime.String()
	}
	return out
}

func (o Override) ToModel() (model.Override, error) {
	out := model.Override{
		ID:               o.ID,
		ParentTemplateID: o.ParentTemplateID,
		Title:            o.Title,
		Description:      o.Description,
		Completed:        o.Completed,
	}
	d, err := model.ParseDate(o.InstanceDate)
	if err != nil {
		return model.Override{}, fmt.Errorf("storage: override %s: %w", o.ID, err)
	}
	out.InstanceDate = d
	if o.StartTime != nil {
		if out.StartTime, err = optionalClock(*o.StartTime); err != nil {
			return model.Override{}, fmt.Errorf("storage: override %s start_time: %w", o.ID, err)
		}
	}
	if o.EndTime != nil {
		if out.EndTime, err = optionalClock(*o.EndTime); err != nil {
			return model.Override{}, fmt.Errorf("storage: override %s end_time: %w", o.ID, err)
		}
	}
	if o.Priority != nil {
		p, err := model.ParsePriority(*o.Priority)
		if err != nil {
			return model.Override{}, fmt.Errorf("storage: override %s: %w", o.ID, err)
		}
		out.Priority = &p
	}
	return out, nil
}

func OverrideFromModel(m model.Override) Override {
	out := Override{
		ID:               m.ID,
		ParentTemplateID: m.ParentTemplateID,
		InstanceDate:     m.InstanceDate.String(),
		Title:            m.Title,
		Description:      m.Description,
		Completed:        m.Completed,
	}
	if m.StartTime != nil {
		v := m.StartTime.String()
		out.StartTime = &v
	}
	if m.EndTime != nil {
		v := m.EndTime.String()
		out.EndTime = &v
	}
	if m.Priority != nil {
		v := string(*m.Priority)
		out.Priority = &v
	}
	return out
}

func optionalDate(v string) (*model.Date, error) {
	if v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalClock(v string) (*model.Clock, error) {
	if v == "" {
		return nil, nil
	}
	c, err := model.ParseClock(v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
