// Package ics renders a user's timetable as an iCalendar feed.
package ics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/sandeepkv93/slotd/internal/log"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
)

const (
	ProductID     = "-//slotd//timetable//EN"
	utcStampFmt   = "20060102T150405Z"
	localStampFmt = "20060102T150405"
	uidSuffix     = "@slotd"
)

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

type Options struct {
	// Window bounds the feed: recurring rules start no earlier and end no later.
	Window schedule.Window
	// Location interprets wall-clock times. Nil means time.Local.
	Location *time.Location
	Now      time.Time
}

type Result struct {
	Calendar string
	Events   int
	// Skipped counts overrides whose instance the recurrence does not generate in the window.
	Skipped int
}

// Export builds the feed for the participating templates and their overrides.
func Export(templates []model.TaskTemplate, overrides []model.Override, opts Options) (Result, error) {
	if opts.Window.Start.IsZero() || opts.Window.End.IsZero() {
		return Result{}, errors.New("ics: export window is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	idx, err := schedule.IndexOverrides(overrides)
	if err != nil {
		return Result{}, err
	}

	sorted := append([]model.TaskTemplate(nil), templates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if tzid, ok := zoneID(opts.Location); ok {
		cal.SetXWRTimezone(tzid)
	}

	var res Result
	used := make(map[string]struct{})
	for _, t := range sorted {
		if err := t.Validate(); err != nil {
			return Result{}, err
		}
		if !t.Participates() {
			continue
		}
		if !t.IsRecurring {
			d, ok := t.OwnDate()
			if !ok || !opts.Window.Contains(d) {
				continue
			}
			occ, err := model.NewStandalone(t)
			if err != nil {
				return Result{}, err
			}
			addOccurrence(cal, occ, opts)
			res.Events++
			continue
		}

		first, until, ok := recurringBounds(t, opts.Window)
		if !ok {
			continue
		}
		ev := cal.AddEvent(t.ID + uidSuffix)
		start := first.At(*t.StartTime, opts.Location)
		end := first.At(*t.EndTime, opts.Location)
		ev.SetDtStampTime(opts.Now)
		ev.SetSummary(t.Title)
		if t.Description != "" {
			ev.SetDescription(t.Description)
		}
		setTime(ev, ical.ComponentPropertyDtStart, start, opts.Location)
		setTime(ev, ical.ComponentPropertyDtEnd, end, opts.Location)
		setPriority(ev, t.Priority)

		rule, err := weeklyRule(t, start, until.At(model.MinutesPerDay-1, opts.Location), opts.Location)
		if err != nil {
			return Result{}, fmt.Errorf("ics: template %s: %w", t.ID, err)
		}
		ev.AddRrule(rule)
		res.Events++

		for _, d := range schedule.DateRange(first, until) {
			ov, ok := idx.Lookup(t.ID, d)
			if !ok || !schedule.OccursOn(t, d) {
				continue
			}
			occ, err := model.NewRecurringInstance(t, d, &ov)
			if err != nil {
				return Result{}, err
			}
			if err := occ.Validate(); err != nil {
				return Result{}, err
			}
			override := addOccurrence(cal, occ, opts)
			setTime(override, ical.ComponentPropertyRecurrenceId, d.At(*t.StartTime, opts.Location), opts.Location)
			used[ov.Key()] = struct{}{}
			res.Events++
		}
	}
	res.Skipped = len(idx) - len(used)
	res.Calendar = cal.Serialize()
	return res, nil
}

// ExportUser fetches userID's window from src and renders it.
func ExportUser(ctx context.Context, src schedule.Source, userID string, opts Options) (Result, error) {
	w := opts.Window
	standalone, err := src.ListNonRecurringSchedulable(ctx, userID, w.Start, w.End)
	if err != nil {
		return Result{}, err
	}
	recurring, err := src.ListRecurringSchedulable(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	overrides, err := src.ListOverrides(ctx, userID, w.DateStrings())
	if err != nil {
		return Result{}, err
	}
	res, err := Export(append(standalone, recurring...), overrides, opts)
	if err != nil {
		return Result{}, err
	}
	if res.Skipped > 0 {
		log.Debug("ics export skipped orphaned overrides", "user", userID, "count", res.Skipped)
	}
	return res, nil
}

// WriteFile writes the feed through a temp file and rename.
func WriteFile(path, calendar string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ics: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".slotd-*.ics")
	if err != nil {
		return fmt.Errorf("ics: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(calendar); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ics: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ics: close: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// recurringBounds clamps the template's date bounds to w and moves the start to
// the first generated date, which RFC 5545 requires of DTSTART.
func recurringBounds(t model.TaskTemplate, w schedule.Window) (first, until model.Date, ok bool) {
	from, to := w.Start, w.End
	if t.StartDate != nil && t.StartDate.After(from) {
		from = *t.StartDate
	}
	if t.EndDate != nil && t.EndDate.Before(to) {
		to = *t.EndDate
	}
	for d := from; !d.After(to) && d.Before(from.AddDays(7)); d = d.AddDays(1) {
		if schedule.OccursOn(t, d) {
			return d, to, true
		}
	}
	return model.Date{}, model.Date{}, false
}

// weeklyRule builds the RRULE for t. BYDAY is evaluated in the zone of DTSTART,
// so dtstart must carry the same wall clock the feed writes. UNTIL follows the
// DTSTART form: UTC for zoned starts, floating for floating ones.
func weeklyRule(t model.TaskTemplate, dtstart, until time.Time, loc *time.Location) (string, error) {
	days := make([]rrule.Weekday, 0, t.RecurringDays.Len())
	for _, d := range t.RecurringDays.Days() {
		days = append(days, rruleWeekdays[d])
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: days,
		Dtstart:   dtstart.In(loc),
	})
	if err != nil {
		return "", err
	}
	stamp := until.UTC().Format(utcStampFmt)
	if _, zoned := zoneID(loc); !zoned && loc != time.UTC {
		stamp = until.In(loc).Format(localStampFmt)
	}
	return r.OrigOptions.RRuleString() + ";UNTIL=" + stamp, nil
}

// zoneID returns the IANA name written as TZID. time.Local has no portable
// name, so its times are written floating.
func zoneID(loc *time.Location) (string, bool) {
	name := loc.String()
	if loc == time.UTC || name == "UTC" || name == "" || name == "Local" {
		return "", false
	}
	return name, true
}

// setTime writes t as a wall-clock time of loc: UTC with a Z suffix, a TZID
// parameter for named zones, floating otherwise.
func setTime(ev *ical.VEvent, prop ical.ComponentProperty, t time.Time, loc *time.Location) {
	if loc == time.UTC || loc.String() == "UTC" {
		ev.SetProperty(prop, t.UTC().Format(utcStampFmt))
		return
	}
	if tzid, ok := zoneID(loc); ok {
		ev.SetProperty(prop, t.In(loc).Format(localStampFmt), ical.WithTZID(tzid))
		return
	}
	ev.SetProperty(prop, t.In(loc).Format(localStampFmt))
}

func addOccurrence(cal *ical.Calendar, occ model.Occurrence, opts Options) *ical.VEvent {
	ev := cal.AddEvent(occ.SourceTemplateID + uidSuffix)
	ev.SetDtStampTime(opts.Now)
	ev.SetSummary(occ.Title)
	if occ.Description != "" {
		ev.SetDescription(occ.Description)
	}
	setTime(ev, ical.ComponentPropertyDtStart, occ.Date.At(occ.Start(), opts.Location), opts.Location)
	setTime(ev, ical.ComponentPropertyDtEnd, occ.Date.At(occ.End(), opts.Location), opts.Location)
	setPriority(ev, occ.Priority)
	return ev
}

// setPriority maps to the RFC 5545 scale where 1 is highest.
func setPriority(ev *ical.VEvent, p model.Priority) {
	levels := map[model.Priority]int{model.PriorityHigh: 1, model.PriorityMedium: 5, model.PriorityLow: 9}
	if v, ok := levels[p]; ok {
		ev.SetProperty(ical.ComponentProperty("PRIORITY"), strconv.Itoa(v))
	}
}
