package dateutil

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the full-date layout used by calendar definitions and identifiers.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the local date-time layout without a zone suffix.
	DateTimeLayout = "2006-01-02T15:04:05"
)

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// DateIn returns midnight of the calendar date t falls on in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return StartOfDay(t.In(loc))
}

// AddDays steps n calendar days, keeping midnight across DST changes.
func AddDays(date time.Time, n int) time.Time {
	return StartOfDay(date.AddDate(0, 0, n))
}

// NextDay returns the following calendar date.
func NextDay(date time.Time) time.Time {
	return AddDays(date, 1)
}

// PrevDay returns the preceding calendar date.
func PrevDay(date time.Time) time.Time {
	return AddDays(date, -1)
}

// StartOfWeek returns the Monday of the week for the given date
func StartOfWeek(date time.Time) time.Time {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	return AddDays(date, -(weekday - 1))
}

// IsWeekday returns true if the date is Monday-Friday
func IsWeekday(date time.Time) bool {
	weekday := date.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// FormatDate formats the date part as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses a strict YYYY-MM-DD date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// ParseDateTime parses a YYYY-MM-DDTHH:mm:ss local time in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date-time %q: %w", s, err)
	}
	return t, nil
}

// Today returns today's date (start of day) in loc
func Today(loc *time.Location) time.Time {
	return DateIn(time.Now(), loc)
}
