package calendar

import (
	"fmt"
	"time"

	"github.com/username/prematch/internal/timetable"
)

// DayType represents the type of day
type DayType int

const (
	DayTypeStandard DayType = iota + 1
	DayTypeHalf
	DayTypeExam
	DayTypeUnknown
	DayTypeHoliday
	DayTypeWeekend
)

var dayTypeNames = map[DayType]string{
	DayTypeStandard: "standard_day",
	DayTypeHalf:     "half_day",
	DayTypeExam:     "exam_day",
	DayTypeUnknown:  "unknown",
	DayTypeHoliday:  "holiday",
	DayTypeWeekend:  "weekend",
}

func (t DayType) String() string {
	if name, ok := dayTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DayType(%d)", int(t))
}

// IsSchoolDay reports whether days of this type have classes.
// Unknown days are not school days: nothing is known about their timetable.
func (t DayType) IsSchoolDay() bool {
	switch t {
	case DayTypeStandard, DayTypeHalf, DayTypeExam:
		return true
	default:
		return false
	}
}

// Default span of a school day when it has no periods.
var (
	DefaultDayStart = timetable.NewTime(7, 44)
	DefaultDayEnd   = timetable.NewTime(14, 20)
)

// Day is the resolved state of one calendar date.
type Day struct {
	Date        time.Time
	Type        DayType
	Description string
	// Number is the position in the rotation, set only for standard days.
	Number int
	// Blocks[i] meets during Periods[i].
	Blocks  []string
	Periods []timetable.Period
}

func (d Day) IsSchoolDay() bool {
	return d.Type.IsSchoolDay()
}

// Span runs from the start of the first period to the end of the last one.
func (d Day) Span() timetable.Period {
	if len(d.Periods) == 0 {
		return timetable.NewPeriod(DefaultDayStart, DefaultDayEnd)
	}
	return timetable.NewPeriod(d.Periods[0].Start, d.Periods[len(d.Periods)-1].End)
}

// PeriodIndex returns the index of the first period containing t.
func (d Day) PeriodIndex(t timetable.Time) (int, bool) {
	for i, p := range d.Periods {
		if t.IsInside(p) {
			return i, true
		}
	}
	return -1, false
}

func (d Day) PeriodAt(t timetable.Time) (timetable.Period, bool) {
	i, ok := d.PeriodIndex(t)
	if !ok {
		return timetable.Period{}, false
	}
	return d.Periods[i], true
}

// NextPeriodIndex returns the index of the first period starting after t.
func (d Day) NextPeriodIndex(t timetable.Time) (int, bool) {
	for i, p := range d.Periods {
		if t.IsBefore(p) {
			return i, true
		}
	}
	return -1, false
}

func (d Day) NextPeriod(t timetable.Time) (timetable.Period, bool) {
	i, ok := d.NextPeriodIndex(t)
	if !ok {
		return timetable.Period{}, false
	}
	return d.Periods[i], true
}

// BlockAt returns the block meeting at t.
func (d Day) BlockAt(t timetable.Time) (string, bool) {
	i, ok := d.PeriodIndex(t)
	if !ok || i >= len(d.Blocks) {
		return "", false
	}
	return d.Blocks[i], true
}

func standardDescription(number int) string {
	return fmt.Sprintf("a Day %d", number)
}

func weekendDescription(date time.Time) string {
	return "a " + date.Weekday().String()
}
