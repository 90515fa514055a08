package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrMalformedDate = errors.New("model: malformed date")
	ErrMalformedTime = errors.New("model: malformed time")
	ErrInvalidRange  = errors.New("model: invalid range")
)

// Date is a calendar day with no clock and no zone. The zero value means unset.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(raw string) (Date, error) {
	v := strings.TrimSpace(raw)
	if len(v) != len(DateLayout) {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }

func (d Date) Year() int { return d.t.Year() }

func (d Date) Month() time.Month { return d.t.Month() }

func (d Date) Day() int { return d.t.Day() }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// DaysUntil returns the number of whole days from d to o (negative when o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

// At returns the instant the clock c is reached on d in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock is a wall-clock time of day in minutes since midnight, in [0, 1440).
type Clock int

const MinutesPerDay = 24 * 60

func NewClock(hour, minute int) Clock { return Clock(hour*60 + minute) }

// ParseClock accepts "HH:MM" and the "HH:MM:SS" form SQL time columns produce.
// Seconds are discarded.
func ParseClock(raw string) (Clock, error) {
	v := strings.TrimSpace(raw)
	if len(v) == 8 && v[5] == ':' {
		if _, err := parseTwoDigits(v[6:8], 59); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
		}
		v = v[:5]
	}
	if len(v) != 5 || v[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}
	h, err := parseTwoDigits(v[:2], 23)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}
	m, err := parseTwoDigits(v[3:5], 59)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}
	return NewClock(h, m), nil
}

func parseTwoDigits(s string, max int) (int, error) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, errors.New("not two digits")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, errors.New("out of range")
	}
	return n, nil
}

func (c Clock) Hour() int { return int(c) / 60 }

func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) Minutes() int { return int(c) }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
