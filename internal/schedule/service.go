package schedule

import (
	"context"
	"errors"
	"strings"

	"github.com/sandeepkv93/slotd/internal/log"
	"github.com/sandeepkv93/slotd/internal/model"
)

// Source is the task store the engine reads from.
type Source interface {
	ListNonRecurringSchedulable(ctx context.Context, userID string, from, to model.Date) ([]model.TaskTemplate, error)
	ListRecurringSchedulable(ctx context.Context, userID string) ([]model.TaskTemplate, error)
	ListOverrides(ctx context.Context, userID string, instanceDates []string) ([]model.Override, error)
}

// Service fetches a snapshot from a Source and runs the pure engine over it.
// It holds no state between calls.
type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// GetOccurrencesForRange returns the sorted, override-applied occurrences of
// userID between start and end (YYYY-MM-DD, inclusive).
func (s *Service) GetOccurrencesForRange(ctx context.Context, userID, start, end string) ([]model.Occurrence, error) {
	w, err := ParseWindow(start, end)
	if err != nil {
		return nil, err
	}
	res, err := s.Load(ctx, userID, w)
	if err != nil {
		return nil, err
	}
	return res.Occurrences, nil
}

// Load is GetOccurrencesForRange for an already parsed window, keeping orphans.
func (s *Service) Load(ctx context.Context, userID string, w Window) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, errors.New("schedule: user id is required")
	}
	in, err := s.fetch(ctx, userID, w)
	if err != nil {
		log.Error("fetch window failed", err, "user", userID, "window", w)
		return Result{}, err
	}
	res, err := Build(in, w)
	if err != nil {
		log.Error("build occurrences failed", err, "user", userID, "window", w)
		return Result{}, err
	}
	for _, ov := range res.Orphaned {
		log.Debug("ignoring orphaned override", "user", userID, "override", ov.ID, "instance", ov.Key())
	}
	log.Debug("window loaded", "user", userID, "window", w, "occurrences", len(res.Occurrences))
	return res, nil
}

func (s *Service) fetch(ctx context.Context, userID string, w Window) (Input, error) {
	standalone, err := s.source.ListNonRecurringSchedulable(ctx, userID, w.Start, w.End)
	if err != nil {
		return Input{}, err
	}
	recurring, err := s.source.ListRecurringSchedulable(ctx, userID)
	if err != nil {
		return Input{}, err
	}
	overrides, err := s.source.ListOverrides(ctx, userID, w.DateStrings())
	if err != nil {
		return Input{}, err
	}
	return Input{Standalone: standalone, Recurring: recurring, Overrides: overrides}, nil
}
