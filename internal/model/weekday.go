package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidWeekday = errors.New("model: invalid weekday")

// WeekdaySet is a set of weekdays indexed by time.Weekday (Sunday=0 … Saturday=6).
// That ordinal is used everywhere, including the storage encoding.
type WeekdaySet uint8

var weekdayTokens = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

func (s WeekdaySet) Contains(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) IsEmpty() bool { return s&0x7f == 0 }

func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			n++
		}
	}
	return n
}

// Days returns the members in canonical order, Sunday first.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// String encodes the set as comma separated three letter tokens, e.g. "mon,wed,fri".
func (s WeekdaySet) String() string {
	days := s.Days()
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, weekdayTokens[d])
	}
	return strings.Join(parts, ",")
}

// ParseWeekdaySet decodes a comma or space separated list of weekday names,
// abbreviations or ordinals (0=sunday). Duplicates are rejected.
func ParseWeekdaySet(raw string) (WeekdaySet, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';' || r == '\t'
	})
	var s WeekdaySet
	for _, f := range fields {
		d, err := ParseWeekday(f)
		if err != nil {
			return 0, err
		}
		if s.Contains(d) {
			return 0, fmt.Errorf("%w: duplicate %q", ErrInvalidWeekday, f)
		}
		s = s.With(d)
	}
	return s, nil
}

func ParseWeekday(raw string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
		}
		return time.Weekday(n), nil
	}
	if len(v) >= 3 {
		for i, tok := range weekdayTokens {
			full := strings.ToLower(time.Weekday(i).String())
			if v == tok || v == full {
				return time.Weekday(i), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
}

func (s WeekdaySet) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *WeekdaySet) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekdaySet(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
