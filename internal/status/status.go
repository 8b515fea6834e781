// Package status describes what is happening at school at a given instant.
package status

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/schedule"
	"github.com/username/prematch/internal/timetable"
	"github.com/username/prematch/pkg/dateutil"
)

// ErrNoStatus is returned when no handler matches, which means the calendar is
// inconsistent.
var ErrNoStatus = errors.New("no status for this instant")

type Kind int

const (
	KindUnavailable Kind = iota + 1
	KindAfterRelease
	KindNonSchoolDay
	KindBeforeSchool
	KindAfterSchool
	KindDuringSchool
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindAfterRelease:
		return "after_release"
	case KindNonSchoolDay:
		return "non_school_day"
	case KindBeforeSchool:
		return "before_school"
	case KindAfterSchool:
		return "after_school"
	case KindDuringSchool:
		return "during_school"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is a short headline plus the school day it refers to.
type Status struct {
	Kind  Kind
	Title string
	Info  string
	// Day is the day shown alongside the headline. It is the zero Day for
	// KindUnavailable.
	Day calendar.Day
	// IsToday is false when Day is an upcoming day.
	IsToday bool
}

type handler interface {
	applicable(now time.Time, cal *calendar.Calendar) bool
	apply(now time.Time, cal *calendar.Calendar, sched *schedule.Schedule) (Status, error)
}

// The first applicable handler wins.
var handlers = []handler{
	afterRelease{},
	outsideYear{},
	nonSchoolDay{},
	beforeSchool{},
	afterSchool{},
	duringSchool{},
}

// Resolve describes now. sched may be nil.
func Resolve(now time.Time, cal *calendar.Calendar, sched *schedule.Schedule) (Status, error) {
	for _, h := range handlers {
		if h.applicable(now, cal) {
			return h.apply(now, cal, sched)
		}
	}
	return Status{}, fmt.Errorf("%w: %s", ErrNoStatus, now.Format(dateutil.DateTimeLayout))
}

type outsideYear struct{}

func (outsideYear) applicable(now time.Time, cal *calendar.Calendar) bool {
	return !cal.Includes(now)
}

func (outsideYear) apply(time.Time, *calendar.Calendar, *schedule.Schedule) (Status, error) {
	return Status{Kind: KindUnavailable, Title: "Not in current school year"}, nil
}

// afterRelease covers the days between the schedule release and the first day.
type afterRelease struct{}

func (afterRelease) applicable(now time.Time, cal *calendar.Calendar) bool {
	release := cal.ReleaseDate()
	return !release.IsZero() && !now.Before(release) && now.Before(cal.Interval().Start)
}

func (afterRelease) apply(now time.Time, cal *calendar.Calendar, sched *schedule.Schedule) (Status, error) {
	day, err := firstSchoolDay(cal)
	if err != nil {
		return Status{}, err
	}
	block, teacher := firstTeacher(day, cal, sched)
	return Status{
		Kind:  KindAfterRelease,
		Title: "First Teacher: " + teacher,
		Info:  "Block " + block + "\nEnjoy what remains of summer",
		Day:   day,
	}, nil
}

type nonSchoolDay struct{}

func (nonSchoolDay) applicable(now time.Time, cal *calendar.Calendar) bool {
	return cal.Includes(now) && !cal.IsSchoolDay(now)
}

func (nonSchoolDay) apply(now time.Time, cal *calendar.Calendar, _ *schedule.Schedule) (Status, error) {
	today, err := cal.Day(now)
	if err != nil {
		return Status{}, err
	}
	status := Status{
		Kind:  KindNonSchoolDay,
		Title: "Today is " + today.Description,
		Day:   today,
	}
	next, ok := cal.NextSchoolDay(now)
	if !ok {
		status.Info = "No more school days this year"
		return status, nil
	}
	status.Info = "Showing next school day\n" + longDate(next.Date)
	status.Day = next
	return status, nil
}

type beforeSchool struct{}

func (beforeSchool) applicable(now time.Time, cal *calendar.Calendar) bool {
	day, ok := schoolDay(now, cal)
	return ok && timetable.TimeOf(now, cal.Location()).IsBefore(day.Span())
}

func (beforeSchool) apply(now time.Time, cal *calendar.Calendar, sched *schedule.Schedule) (Status, error) {
	day, err := cal.Day(now)
	if err != nil {
		return Status{}, err
	}
	block, teacher := firstTeacher(day, cal, sched)
	return Status{
		Kind:    KindBeforeSchool,
		Title:   "Next: " + teacher,
		Info:    "Block " + block + "\nGood morning",
		Day:     day,
		IsToday: true,
	}, nil
}

type afterSchool struct{}

func (afterSchool) applicable(now time.Time, cal *calendar.Calendar) bool {
	day, ok := schoolDay(now, cal)
	return ok && timetable.TimeOf(now, cal.Location()).IsAfter(day.Span())
}

func (afterSchool) apply(now time.Time, cal *calendar.Calendar, _ *schedule.Schedule) (Status, error) {
	today, err := cal.Day(now)
	if err != nil {
		return Status{}, err
	}
	status := Status{
		Kind:  KindAfterSchool,
		Title: "Today was " + today.Description,
		Day:   today,
	}
	next, ok := cal.NextSchoolDay(now)
	if !ok {
		status.Info = "No more school days this year"
		status.IsToday = true
		return status, nil
	}
	status.Info = "Showing " + relativeDate(next.Date, cal.Date(now))
	status.Day = next
	return status, nil
}

type duringSchool struct{}

func (duringSchool) applicable(now time.Time, cal *calendar.Calendar) bool {
	day, ok := schoolDay(now, cal)
	return ok && timetable.TimeOf(now, cal.Location()).IsInside(day.Span())
}

func (duringSchool) apply(now time.Time, cal *calendar.Calendar, sched *schedule.Schedule) (Status, error) {
	day, err := cal.Day(now)
	if err != nil {
		return Status{}, err
	}
	at := timetable.TimeOf(now, cal.Location())
	status := Status{Kind: KindDuringSchool, Day: day, IsToday: true}

	current, inPeriod := day.PeriodIndex(at)
	if inPeriod && current == len(day.Periods)-1 {
		block := day.Blocks[current]
		status.Title = "Now: " + teacherOf(block, day.Date, cal, sched, "Unknown")
		status.Info = "Block " + block + "\nThis is the last block!"
		return status, nil
	}

	next, ok := day.NextPeriodIndex(at)
	if !ok || next >= len(day.Blocks) {
		return Status{}, fmt.Errorf("%w: no period after %s on %s", ErrNoStatus, at, dateutil.FormatDate(day.Date))
	}
	nextBlock := day.Blocks[next]
	nextTeacher := teacherOf(nextBlock, day.Date, cal, sched, "Unknown")

	if !inPeriod {
		status.Title = "Go to " + nextTeacher
		status.Info = "Block " + nextBlock
		return status, nil
	}
	block := day.Blocks[current]
	status.Title = "Now: " + teacherOf(block, day.Date, cal, sched, "Unknown")
	status.Info = "Block " + block + "\nNext: Block " + nextBlock + " with " + nextTeacher
	return status, nil
}

func schoolDay(now time.Time, cal *calendar.Calendar) (calendar.Day, bool) {
	day, err := cal.Day(now)
	if err != nil || !day.IsSchoolDay() {
		return calendar.Day{}, false
	}
	return day, true
}

func firstSchoolDay(cal *calendar.Calendar) (calendar.Day, error) {
	start := cal.Interval().Start
	if day, ok := schoolDay(start, cal); ok {
		return day, nil
	}
	if day, ok := cal.NextSchoolDay(start); ok {
		return day, nil
	}
	return calendar.Day{}, fmt.Errorf("%w: %s has no school days", ErrNoStatus, cal.Name())
}

func firstTeacher(day calendar.Day, cal *calendar.Calendar, sched *schedule.Schedule) (block, teacher string) {
	if len(day.Blocks) == 0 {
		return "?", "Someone unknown"
	}
	block = day.Blocks[0]
	if sched == nil {
		return block, "Someone unknown"
	}
	return block, teacherOf(block, day.Date, cal, sched, "Free block")
}

func teacherOf(block string, date time.Time, cal *calendar.Calendar, sched *schedule.Schedule, fallback string) string {
	if sched == nil {
		return fallback
	}
	semester, ok := cal.SemesterIndex(date)
	if !ok {
		return fallback
	}
	teacher, err := sched.Teacher(block, semester)
	if err != nil {
		return fallback
	}
	return teacher
}

// relativeDate names target as seen from today: "tomorrow", "next Monday" or a
// full date.
func relativeDate(target, today time.Time) string {
	if dateutil.IsSameDay(dateutil.NextDay(today), target) {
		return "tomorrow"
	}
	if dateutil.IsSameDay(dateutil.StartOfWeek(target), dateutil.AddDays(dateutil.StartOfWeek(today), 7)) {
		return "next " + target.Weekday().String()
	}
	return longDate(target)
}

func longDate(date time.Time) string {
	return date.Format("Monday, Jan 2, 2006")
}
