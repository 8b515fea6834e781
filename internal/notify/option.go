// Package notify decides which notifications should be pending and builds them.
package notify

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/username/prematch/internal/calendar"
)

var (
	ErrBadSettings    = errors.New("bad notification settings")
	ErrYearEnded      = errors.New("cannot schedule notifications for a school year in the past")
	ErrUnsupportedDay = errors.New("no notification for this kind of day")
	ErrUnknownOption  = errors.New("no option for identifier")
)

// Request describes one notification to deliver at Trigger.
type Request struct {
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Trigger    time.Time `json:"trigger"`
}

// Option is a kind of notification. Identifiers start with the option's ID.
type Option interface {
	ID() byte
	Name() string
	// Identifiers yields identifiers in date order starting at from.
	// Each call returns a fresh sequence.
	Identifiers(from time.Time) iter.Seq2[string, time.Time]
	Request(id string) (Request, error)
}

// SchedulingRange returns the part of the current or next semester that
// notifications starting at from should cover, and that semester's index.
func SchedulingRange(from time.Time, cal *calendar.Calendar) (calendar.Interval, int, error) {
	date := cal.Date(from)
	for n, semester := range cal.Semesters() {
		if date.Before(semester.Start) {
			return semester, n, nil
		}
		if semester.Contains(date) {
			return calendar.Interval{Start: date, End: semester.End}, n, nil
		}
	}
	return calendar.Interval{}, -1, fmt.Errorf("%w: %s", ErrYearEnded, date.Format(time.DateOnly))
}
