package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/slotd/internal/schedule"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrNotRecurring = errors.New("storage: template is not recurring")
)

type Repository interface {
	schedule.Source

	CreateTemplate(ctx context.Context, in Template) (Template, error)
	GetTemplate(ctx context.Context, id string) (Template, error)
	UpdateTemplate(ctx context.Context, in Template) error
	SoftDeleteTemplate(ctx context.Context, id string) error
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context, filter TemplateListFilter) ([]Template, error)

	UpsertOverride(ctx context.Context, in Override) (Override, error)
	GetOverride(ctx context.Context, templateID, instanceDate string) (Override, error)
	DeleteOverride(ctx context.Context, id string) error
	ListTemplateOverrides(ctx context.Context, templateID string) ([]Override, error)
}

// Transactor is implemented by repositories that can apply several writes atomically.
type Transactor interface {
	WithTx(ctx context.Context, fn func(Repository) error) error
}

var (
	_ Repository = (*SQLiteRepository)(nil)
	_ Transactor = (*SQLiteRepository)(nil)
)
