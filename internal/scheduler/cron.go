package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/slotd/internal/log"
	"github.com/sandeepkv93/slotd/internal/model"
)

// Cron runs periodic jobs such as the daily rollover.
type Cron struct {
	cron *cron.Cron
}

func NewCron(loc *time.Location) *Cron {
	if loc == nil {
		loc = time.Local
	}
	return &Cron{cron: cron.New(cron.WithLocation(loc))}
}

// Schedule registers job under a standard five-field spec or a descriptor like "@daily".
func (c *Cron) Schedule(spec, name string, job func() error) (cron.EntryID, error) {
	id, err := c.cron.AddFunc(spec, func() {
		if err := job(); err != nil {
			log.Error("cron job failed", err, "job", name)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("scheduler: cron spec %q: %w", spec, err)
	}
	return id, nil
}

// ScheduleDaily registers job at the given HH:MM every day.
func (c *Cron) ScheduleDaily(at, name string, job func() error) (cron.EntryID, error) {
	clock, err := model.ParseClock(at)
	if err != nil {
		return 0, err
	}
	return c.Schedule(dailySpec(clock), name, job)
}

func (c *Cron) Entries() int {
	return len(c.cron.Entries())
}

func (c *Cron) Start() {
	c.cron.Start()
}

func (c *Cron) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// cron format: minute hour dom month dow
func dailySpec(c model.Clock) string {
	return fmt.Sprintf("%d %d * * *", c.Minute(), c.Hour())
}
