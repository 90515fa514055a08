package scheduler

import (
	"context"
	"time"

	"github.com/sandeepkv93/slotd/internal/log"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
)

// PlanReminders turns occurrences into reminder events lead before their start.
// Completed occurrences and ones already started are skipped; a reminder whose
// lead time has passed fires at now.
func PlanReminders(occs []model.Occurrence, loc *time.Location, lead time.Duration, now time.Time) []ReminderEvent {
	if loc == nil {
		loc = time.Local
	}
	out := make([]ReminderEvent, 0)
	for _, o := range occs {
		if o.Completed || o.StartTime == nil {
			continue
		}
		startsAt := o.Date.At(o.Start(), loc)
		if !startsAt.After(now) {
			continue
		}
		trigger := startsAt.Add(-lead)
		if trigger.Before(now) {
			trigger = now
		}
		out = append(out, ReminderEvent{
			ID:           "reminder:" + o.ID + "@" + o.Start().String(),
			OccurrenceID: o.ID,
			Title:        o.Title,
			StartsAt:     startsAt,
			TriggerAt:    trigger,
		})
	}
	return out
}

// Loader is the part of schedule.Service the planner needs.
type Loader interface {
	Load(ctx context.Context, userID string, w schedule.Window) (schedule.Result, error)
}

// Planner queues reminders for the current day of one user.
type Planner struct {
	Loader   Loader
	Engine   *Engine
	UserID   string
	Lead     time.Duration
	Location *time.Location
	Now      func() time.Time
}

// PlanDay loads today's occurrences and queues reminders not queued before.
func (p *Planner) PlanDay(ctx context.Context) (int, error) {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	today := model.DateOf(now.In(loc))
	w, err := schedule.NewWindow(today, today)
	if err != nil {
		return 0, err
	}
	res, err := p.Loader.Load(ctx, p.UserID, w)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, ev := range PlanReminders(res.Occurrences, loc, p.Lead, now) {
		ok, err := p.Engine.ScheduleOnce(ev)
		if err != nil {
			return queued, err
		}
		if ok {
			queued++
		}
	}
	log.Info("reminders planned", "user", p.UserID, "date", today, "queued", queued)
	return queued, nil
}
