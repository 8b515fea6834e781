// Package timetable holds wall-clock times of day and the periods built from them.
package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is an hour and minute of the school day.
type Time struct {
	hour   int
	minute int
}

// NewTime wraps hour into 0..23 and minute into 0..59, so NewTime(24, 0) is midnight.
func NewTime(hour, minute int) Time {
	return Time{hour: mod(hour, 24), minute: mod(minute, 60)}
}

// TimeOf returns the wall-clock time of t in loc.
func TimeOf(t time.Time, loc *time.Location) Time {
	if loc != nil {
		t = t.In(loc)
	}
	return Time{hour: t.Hour(), minute: t.Minute()}
}

// ParseTime parses "H:MM" or "HH:MM". Unlike NewTime it rejects out-of-range values.
func ParseTime(s string) (Time, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Time{}, fmt.Errorf("invalid time %q: expected H:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return Time{}, fmt.Errorf("invalid hour in time %q", s)
	}
	if len(m) != 2 {
		return Time{}, fmt.Errorf("invalid minute in time %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return Time{}, fmt.Errorf("invalid minute in time %q", s)
	}
	return Time{hour: hour, minute: minute}, nil
}

func (t Time) Hour() int   { return t.hour }
func (t Time) Minute() int { return t.minute }

// Minutes returns minutes since midnight.
func (t Time) Minutes() int {
	return t.hour*60 + t.minute
}

// Compare returns -1, 0 or +1.
func (t Time) Compare(o Time) int {
	switch a, b := t.Minutes(), o.Minutes(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (t Time) Before(o Time) bool { return t.Minutes() < o.Minutes() }
func (t Time) After(o Time) bool  { return t.Minutes() > o.Minutes() }

// Sub returns t-o in minutes; negative when t is earlier.
func (t Time) Sub(o Time) int {
	return t.Minutes() - o.Minutes()
}

// IsBefore reports whether t is strictly before the period starts.
func (t Time) IsBefore(p Period) bool { return t.Before(p.Start) }

// IsAfter reports whether t is strictly after the period ends.
func (t Time) IsAfter(p Period) bool { return t.After(p.End) }

// IsInside reports whether t falls within p, both ends included.
func (t Time) IsInside(p Period) bool { return p.Includes(t) }

// On places t on the calendar date of date, in date's location.
func (t Time) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.hour, t.minute, 0, 0, date.Location())
}

func (t Time) String() string {
	return fmt.Sprintf("%d:%02d", t.hour, t.minute)
}

// Period is a span of the school day. Start never comes after End.
type Period struct {
	Start Time
	End   Time
}

// NewPeriod orders its arguments so the earlier one becomes Start.
func NewPeriod(from, to Time) Period {
	if to.Before(from) {
		from, to = to, from
	}
	return Period{Start: from, End: to}
}

// Length returns the duration in minutes.
func (p Period) Length() int {
	return p.End.Sub(p.Start)
}

func (p Period) Includes(t Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return p.Start.String() + "-" + p.End.String()
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
