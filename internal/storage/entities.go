package storage

import "time"

// Template is a task_templates row. Empty strings stand for NULL columns.
type Template struct {
	ID            string
	UserID        string
	Title         string
	Description   string
	Priority      string
	IsRecurring   bool
	RecurringDays string
	StartDate     string
	EndDate       string
	StartTime     string
	EndTime       string
	IsSchedulable bool
	Completed     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Override is a task_overrides row. Nil fields are not overridden.
type Override struct {
	ID               string
	ParentTemplateID string
	InstanceDate     string
	Title            *string
	Description      *string
	StartTime        *string
	EndTime          *string
	Priority         *string
	Completed        *bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type TemplateListFilter struct {
	UserID         string
	Recurring      *bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}
