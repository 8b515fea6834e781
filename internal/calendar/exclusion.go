package calendar

import (
	"slices"
	"time"

	"github.com/username/prematch/internal/timetable"
	"github.com/username/prematch/pkg/dateutil"
)

// Interval is an inclusive range of dates.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether date lies within the interval, both ends included.
func (i Interval) Contains(date time.Time) bool {
	return !date.Before(i.Start) && !date.After(i.End)
}

func (i Interval) in(loc *time.Location) Interval {
	return Interval{Start: dateutil.DateIn(i.Start, loc), End: dateutil.DateIn(i.End, loc)}
}

// Exclusion replaces the regular rotation on a range of dates.
// Half and exam days carry their block order; standard days carry the asserted rotation number.
type Exclusion struct {
	Interval
	Type        DayType
	Description string
	Blocks      []string
	Number      int
}

// Holiday covers start..end with a non-school day.
func Holiday(start, end time.Time, description string) Exclusion {
	return Exclusion{Interval: Interval{Start: start, End: end}, Type: DayTypeHoliday, Description: description}
}

func HalfDay(date time.Time, blocks []string) Exclusion {
	return Exclusion{Interval: single(date), Type: DayTypeHalf, Description: "a half-day", Blocks: blocks}
}

func ExamDay(date time.Time, blocks []string) Exclusion {
	return Exclusion{Interval: single(date), Type: DayTypeExam, Description: "an exam day", Blocks: blocks}
}

func UnknownDay(date time.Time, description string) Exclusion {
	return Exclusion{Interval: single(date), Type: DayTypeUnknown, Description: description}
}

// StandardDay pins date to the given rotation number.
func StandardDay(date time.Time, number int) Exclusion {
	return Exclusion{Interval: single(date), Type: DayTypeStandard, Number: number}
}

func single(date time.Time) Interval {
	return Interval{Start: date, End: date}
}

// day materializes the exclusion for one of its dates.
func (e Exclusion) day(date time.Time, c *Calendar) Day {
	switch e.Type {
	case DayTypeStandard:
		return c.standardDay(date, e.Number)
	case DayTypeHalf:
		return Day{
			Date:        date,
			Type:        DayTypeHalf,
			Description: e.Description,
			Blocks:      slices.Clone(e.Blocks),
			Periods:     slices.Clone(c.def.HalfDayPeriods),
		}
	case DayTypeExam:
		return Day{
			Date:        date,
			Type:        DayTypeExam,
			Description: e.Description,
			Blocks:      slices.Clone(e.Blocks),
			Periods:     slices.Clone(c.def.ExamPeriods),
		}
	default:
		return Day{Date: date, Type: e.Type, Description: e.Description}
	}
}

func (e Exclusion) periodsIn(c *Calendar) []timetable.Period {
	switch e.Type {
	case DayTypeHalf:
		return c.def.HalfDayPeriods
	case DayTypeExam:
		return c.def.ExamPeriods
	default:
		return nil
	}
}
