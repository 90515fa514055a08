package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/slotd/internal/ics"
	"github.com/sandeepkv93/slotd/internal/log"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/storage"
)

// Backend is everything the program reads and writes.
type Backend interface {
	Load(ctx context.Context, w schedule.Window) (schedule.Result, error)
	SetCompleted(ctx context.Context, occ model.Occurrence, done bool) error
	Reschedule(ctx context.Context, occ model.Occurrence, start, end model.Clock) error
	Rename(ctx context.Context, occ model.Occurrence, title string) error
	Export(ctx context.Context, path string, w schedule.Window) (ics.Result, error)
	Import(ctx context.Context, path string) (storage.ImportResult, error)
}

// StoreBackend edits one user's timetable in a repository. Edits of a recurring
// occurrence go to its override; the template is only touched for standalone tasks.
type StoreBackend struct {
	Repo     storage.Repository
	Service  *schedule.Service
	UserID   string
	Location *time.Location
}

func NewStoreBackend(repo storage.Repository, userID string, loc *time.Location) *StoreBackend {
	return &StoreBackend{
		Repo:     repo,
		Service:  schedule.NewService(repo),
		UserID:   userID,
		Location: loc,
	}
}

func (b *StoreBackend) Load(ctx context.Context, w schedule.Window) (schedule.Result, error) {
	return b.Service.Load(ctx, b.UserID, w)
}

func (b *StoreBackend) SetCompleted(ctx context.Context, occ model.Occurrence, done bool) error {
	return b.edit(ctx, occ,
		func(ov *storage.Override) { ov.Completed = &done },
		func(t *storage.Template) { t.Completed = done },
	)
}

func (b *StoreBackend) Reschedule(ctx context.Context, occ model.Occurrence, start, end model.Clock) error {
	if end <= start {
		return fmt.Errorf("%w: %s-%s", model.ErrInvalidRange, start, end)
	}
	s, e := start.String(), end.String()
	return b.edit(ctx, occ,
		func(ov *storage.Override) {
			ov.StartTime = &s
			ov.EndTime = &e
		},
		func(t *storage.Template) {
			t.StartTime = s
			t.EndTime = e
		},
	)
}

func (b *StoreBackend) Rename(ctx context.Context, occ model.Occurrence, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("update: title must not be blank")
	}
	return b.edit(ctx, occ,
		func(ov *storage.Override) { ov.Title = &title },
		func(t *storage.Template) { t.Title = title },
	)
}

func (b *StoreBackend) edit(ctx context.Context, occ model.Occurrence, onOverride func(*storage.Override), onTemplate func(*storage.Template)) error {
	tmpl, err := b.Repo.GetTemplate(ctx, occ.SourceTemplateID)
	if err != nil {
		return err
	}
	if tmpl.UserID != b.UserID {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, occ.SourceTemplateID)
	}
	if occ.Kind == model.KindStandalone {
		onTemplate(&tmpl)
		return b.Repo.UpdateTemplate(ctx, tmpl)
	}

	date := occ.Date.String()
	ov, err := b.Repo.GetOverride(ctx, tmpl.ID, date)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		ov = storage.Override{ParentTemplateID: tmpl.ID, InstanceDate: date}
	case err != nil:
		return err
	}
	onOverride(&ov)

	edited, err := ov.ToModel()
	if err != nil {
		return err
	}
	base, err := tmpl.ToModel()
	if err != nil {
		return err
	}
	reduced := edited.Reduce(base)
	if reduced.IsEmpty() {
		if ov.ID == "" {
			return nil
		}
		if err := b.Repo.DeleteOverride(ctx, ov.ID); err != nil {
			return err
		}
		log.Debug("override cleared", "user", b.UserID, "override", ov.ID, "instance", occ.ID)
		return nil
	}
	saved, err := b.Repo.UpsertOverride(ctx, storage.OverrideFromModel(reduced))
	if err != nil {
		return err
	}
	log.Debug("override saved", "user", b.UserID, "override", saved.ID, "instance", occ.ID)
	return nil
}

func (b *StoreBackend) Export(ctx context.Context, path string, w schedule.Window) (ics.Result, error) {
	res, err := ics.ExportUser(ctx, b.Repo, b.UserID, ics.Options{Window: w, Location: b.Location})
	if err != nil {
		return ics.Result{}, err
	}
	if err := ics.WriteFile(path, res.Calendar); err != nil {
		return ics.Result{}, err
	}
	log.Info("calendar exported", "user", b.UserID, "path", path, "events", res.Events, "skipped", res.Skipped)
	return res, nil
}

func (b *StoreBackend) Import(ctx context.Context, path string) (storage.ImportResult, error) {
	res, err := storage.ImportPath(ctx, b.Repo, b.UserID, path)
	if err != nil {
		return res, err
	}
	log.Info("templates imported", "user", b.UserID, "path", path, "created", res.Created, "updated", res.Updated, "overrides", res.Overrides)
	return res, nil
}
