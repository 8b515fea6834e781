package notify

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/schedule"
	"github.com/username/prematch/internal/timetable"
	"github.com/username/prematch/pkg/dateutil"
)

// BriefingID prefixes day briefing identifiers, e.g. "d2019-09-06".
const BriefingID byte = 'd'

// DayBriefing sends a morning summary of every school day.
type DayBriefing struct {
	calendar *calendar.Calendar
	schedule *schedule.Schedule
	// notifyTime is "H:MM"; empty means the briefing was never configured.
	notifyTime string
}

// NewDayBriefing creates the option. sched may be nil.
func NewDayBriefing(cal *calendar.Calendar, sched *schedule.Schedule, notifyTime string) *DayBriefing {
	return &DayBriefing{calendar: cal, schedule: sched, notifyTime: notifyTime}
}

func (b *DayBriefing) ID() byte     { return BriefingID }
func (b *DayBriefing) Name() string { return "School Day Briefing" }

// Identifiers yields one identifier per standard, half or exam day from the date
// of from to the end of the year.
func (b *DayBriefing) Identifiers(from time.Time) iter.Seq2[string, time.Time] {
	return func(yield func(string, time.Time) bool) {
		interval := b.calendar.Interval()
		start := b.calendar.Date(from)
		if start.Before(interval.Start) {
			start = interval.Start
		}
		if start.After(interval.End) {
			return
		}

		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.DAILY,
			Dtstart: start,
			Until:   interval.End,
		})
		if err != nil {
			return
		}

		loc := b.calendar.Location()
		next := rule.Iterator()
		for t, ok := next(); ok; t, ok = next() {
			day, err := b.calendar.Day(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc))
			if err != nil {
				return
			}
			if !day.IsSchoolDay() {
				continue
			}
			if !yield(b.identifier(day.Date), day.Date) {
				return
			}
		}
	}
}

// Request builds the briefing for the school day named by id.
func (b *DayBriefing) Request(id string) (Request, error) {
	if b.notifyTime == "" {
		return Request{}, fmt.Errorf("%w: missing time for day briefings", ErrBadSettings)
	}
	at, err := timetable.ParseTime(b.notifyTime)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrBadSettings, err)
	}

	date, err := b.date(id)
	if err != nil {
		return Request{}, err
	}
	day, err := b.calendar.Day(date)
	if err != nil {
		return Request{}, fmt.Errorf("failed to resolve %s: %w", id, err)
	}

	title := "Your Daily Briefing"
	var initial, suffix string
	switch day.Type {
	case calendar.DayTypeStandard:
		initial = fmt.Sprintf("Today is a Day %d with blocks", day.Number)
	case calendar.DayTypeHalf:
		title = "Your Half Day Briefing"
		initial = "Today is a half day with blocks"
	case calendar.DayTypeExam:
		title = "Your Exam Day Briefing"
		initial = "Today is an exam day with blocks"
		suffix = " Good luck!"
	case calendar.DayTypeUnknown, calendar.DayTypeHoliday, calendar.DayTypeWeekend:
		return Request{}, fmt.Errorf("%w: %s is %s", ErrUnsupportedDay, id, day.Type)
	default:
		return Request{}, fmt.Errorf("%w: %s has type %v", ErrUnsupportedDay, id, day.Type)
	}

	return Request{
		Identifier: b.identifier(day.Date),
		Title:      title,
		Body:       b.dayText(day, initial) + suffix,
		Trigger:    at.On(day.Date),
	}, nil
}

func (b *DayBriefing) dayText(day calendar.Day, initial string) string {
	text := fmt.Sprintf("%s %s.", initial, strings.Join(day.Blocks, ""))
	if b.schedule == nil {
		return text
	}

	semester, ok := b.calendar.SemesterIndex(day.Date)
	teachers := make([]string, len(day.Blocks))
	for i, block := range day.Blocks {
		teachers[i] = "(unknown)"
		if !ok {
			continue
		}
		if teacher, err := b.schedule.Teacher(block, semester); err == nil {
			teachers[i] = teacher
		}
	}
	return text + " Your teachers for today are " + joinNames(teachers) + "."
}

func (b *DayBriefing) identifier(date time.Time) string {
	return string(BriefingID) + dateutil.FormatDate(b.calendar.Date(date))
}

func (b *DayBriefing) date(id string) (time.Time, error) {
	if len(id) < 2 || id[0] != BriefingID {
		return time.Time{}, calendar.InvalidFormat("identifier", id)
	}
	date, err := dateutil.ParseDate(id[1:], b.calendar.Location())
	if err != nil {
		return time.Time{}, calendar.InvalidFormat("identifier", id)
	}
	return date, nil
}

// joinNames lists names in prose: "A", "A and B", "A, B, and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "none"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
