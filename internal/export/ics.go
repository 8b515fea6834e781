// Package export renders resolved school days as an iCalendar feed.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/schedule"
	"github.com/username/prematch/pkg/dateutil"
)

const productID = "-//PreMatch//School Calendar//EN"

// Options narrows the export. The zero value exports the whole year as one
// all-day event per day, weekends excluded.
type Options struct {
	// Range is clipped to the school year. A zero Range means the whole year.
	Range calendar.Interval
	// SchoolDaysOnly drops holidays and unknown days.
	SchoolDaysOnly bool
	// Periods adds a timed event for every block of a school day.
	Periods bool
	// Stamp is written as DTSTAMP. Defaults to time.Now.
	Stamp time.Time
}

// Build creates the feed. sched may be nil.
func Build(cal *calendar.Calendar, sched *schedule.Schedule, opts Options) (*ical.Calendar, error) {
	r := opts.Range
	if r.Start.IsZero() && r.End.IsZero() {
		r = cal.Interval()
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	feed := ical.NewCalendar()
	feed.SetMethod(ical.MethodPublish)
	feed.SetProductId(productID)
	feed.SetName(cal.Name())
	feed.SetXWRCalName(cal.Name())
	feed.SetXWRTimezone(cal.Location().String())

	for day := range cal.Days(r) {
		switch day.Type {
		case calendar.DayTypeWeekend:
			continue
		case calendar.DayTypeHoliday, calendar.DayTypeUnknown:
			if opts.SchoolDaysOnly {
				continue
			}
			addDay(feed, day, summary(day), "", stamp)
		case calendar.DayTypeStandard, calendar.DayTypeHalf, calendar.DayTypeExam:
			addDay(feed, day, summary(day), teacherLines(day, cal, sched), stamp)
			if opts.Periods {
				addPeriods(feed, day, cal, sched, stamp)
			}
		default:
			return nil, fmt.Errorf("cannot export %s: unknown day type %v", dateutil.FormatDate(day.Date), day.Type)
		}
	}
	return feed, nil
}

// Write serializes the feed to w.
func Write(w io.Writer, cal *calendar.Calendar, sched *schedule.Schedule, opts Options) error {
	feed, err := Build(cal, sched, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, feed.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar feed: %w", err)
	}
	return nil
}

func addDay(feed *ical.Calendar, day calendar.Day, title, description string, stamp time.Time) {
	event := feed.AddEvent(uid(day.Date, ""))
	event.SetDtStampTime(stamp)
	event.SetAllDayStartAt(day.Date)
	event.SetAllDayEndAt(dateutil.NextDay(day.Date))
	event.SetSummary(title)
	if description != "" {
		event.SetDescription(description)
	}
}

func addPeriods(feed *ical.Calendar, day calendar.Day, cal *calendar.Calendar, sched *schedule.Schedule, stamp time.Time) {
	for i, period := range day.Periods {
		if i >= len(day.Blocks) {
			return
		}
		block := day.Blocks[i]
		title := "Block " + block
		if teacher, ok := teacherFor(block, day.Date, cal, sched); ok {
			title += ": " + teacher
		}

		event := feed.AddEvent(uid(day.Date, fmt.Sprintf("p%d", i+1)))
		event.SetDtStampTime(stamp)
		event.SetStartAt(period.Start.On(day.Date))
		event.SetEndAt(period.End.On(day.Date))
		event.SetSummary(title)
	}
}

func summary(day calendar.Day) string {
	blocks := strings.Join(day.Blocks, "")
	switch day.Type {
	case calendar.DayTypeStandard:
		return fmt.Sprintf("Day %d: %s", day.Number, blocks)
	case calendar.DayTypeHalf:
		return "Half Day: " + blocks
	case calendar.DayTypeExam:
		return "Exam Day: " + blocks
	default:
		return day.Description
	}
}

func teacherLines(day calendar.Day, cal *calendar.Calendar, sched *schedule.Schedule) string {
	if sched == nil {
		return ""
	}
	lines := make([]string, 0, len(day.Blocks))
	for _, block := range day.Blocks {
		teacher, ok := teacherFor(block, day.Date, cal, sched)
		if !ok {
			teacher = "?"
		}
		lines = append(lines, block+": "+teacher)
	}
	return strings.Join(lines, "\n")
}

func teacherFor(block string, date time.Time, cal *calendar.Calendar, sched *schedule.Schedule) (string, bool) {
	if sched == nil {
		return "", false
	}
	semester, ok := cal.SemesterIndex(date)
	if !ok {
		return "", false
	}
	teacher, err := sched.Teacher(block, semester)
	return teacher, err == nil
}

func uid(date time.Time, suffix string) string {
	id := dateutil.FormatDate(date)
	if suffix != "" {
		id += "-" + suffix
	}
	return id + "@prematch"
}
