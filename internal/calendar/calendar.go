// Package calendar resolves dates of a school year into rotation days.
package calendar

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"time"

	"github.com/username/prematch/internal/timetable"
	"github.com/username/prematch/pkg/dateutil"
)

// Definition is everything a school year is built from.
type Definition struct {
	Name      string
	Version   float64
	Blocks    []string
	CycleSize int
	Interval  Interval
	// Exclusions count towards the rotation; Overrides only change how a date is shown.
	Exclusions      []Exclusion
	Overrides       []Exclusion
	StandardPeriods []timetable.Period
	HalfDayPeriods  []timetable.Period
	ExamPeriods     []timetable.Period
	// DayBlocks[n-1] is the block order of standard day n.
	DayBlocks   [][]string
	Semesters   []Interval
	ReleaseDate time.Time
	Location    *time.Location
}

// Calendar is an immutable school year. It is safe for concurrent use.
type Calendar struct {
	def   Definition
	cache NumberCache
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithCache replaces the memo used for rotation numbers.
func WithCache(cache NumberCache) Option {
	return func(c *Calendar) {
		c.cache = cache
	}
}

// New validates def and builds a Calendar. All dates are moved to midnight in def.Location.
func New(def Definition, opts ...Option) (*Calendar, error) {
	if def.Location == nil {
		def.Location = time.UTC
	}
	loc := def.Location

	if def.CycleSize < 1 {
		return nil, OutOfRange("cycle_size", def.CycleSize)
	}
	def.Interval = def.Interval.in(loc)
	if def.Interval.End.Before(def.Interval.Start) {
		return nil, OutOfRange("end_date", dateutil.FormatDate(def.Interval.End))
	}
	if len(def.DayBlocks) != def.CycleSize {
		return nil, InvalidFormat("day_blocks", fmt.Sprintf("%d rows for cycle size %d", len(def.DayBlocks), def.CycleSize))
	}
	for i, row := range def.DayBlocks {
		if len(row) != len(def.StandardPeriods) {
			return nil, InvalidFormat(fmt.Sprintf("day_blocks[%d]", i),
				fmt.Sprintf("%d blocks for %d periods", len(row), len(def.StandardPeriods)))
		}
	}

	def.Blocks = slices.Clone(def.Blocks)
	def.DayBlocks = slices.Clone(def.DayBlocks)
	def.Exclusions = normalizeExclusions(def.Exclusions, loc)
	def.Overrides = normalizeExclusions(def.Overrides, loc)

	c := &Calendar{def: def}
	for _, list := range [][]Exclusion{def.Exclusions, def.Overrides} {
		for _, ex := range list {
			if err := c.checkExclusion(ex); err != nil {
				return nil, err
			}
		}
	}

	c.def.Semesters = make([]Interval, len(def.Semesters))
	for i, s := range def.Semesters {
		c.def.Semesters[i] = s.in(loc)
	}
	if !def.ReleaseDate.IsZero() {
		c.def.ReleaseDate = def.ReleaseDate.In(loc)
	}

	c.cache = NewMemoCache()
	for _, opt := range opts {
		opt(c)
	}
	c.cache.Put(dateKey(c.def.Interval.Start), 1)

	return c, nil
}

func normalizeExclusions(list []Exclusion, loc *time.Location) []Exclusion {
	out := make([]Exclusion, len(list))
	for i, ex := range list {
		ex.Interval = ex.Interval.in(loc)
		ex.Blocks = slices.Clone(ex.Blocks)
		out[i] = ex
	}
	return out
}

func (c *Calendar) checkExclusion(ex Exclusion) error {
	start := dateutil.FormatDate(ex.Start)
	switch ex.Type {
	case DayTypeHoliday, DayTypeUnknown:
	case DayTypeHalf, DayTypeExam:
		if periods := ex.periodsIn(c); len(ex.Blocks) != len(periods) {
			return InvalidFormat("blocks", fmt.Sprintf("%s on %s has %d blocks for %d periods", ex.Type, start, len(ex.Blocks), len(periods)))
		}
	case DayTypeStandard:
		if ex.Number < 1 || ex.Number > c.def.CycleSize {
			return OutOfRange("day_number", ex.Number)
		}
	default:
		return InvalidFormat("type", ex.Type)
	}
	if ex.End.Before(ex.Start) {
		return OutOfRange("end_date", dateutil.FormatDate(ex.End))
	}
	return nil
}

func (c *Calendar) Name() string             { return c.def.Name }
func (c *Calendar) Version() float64         { return c.def.Version }
func (c *Calendar) Blocks() []string         { return slices.Clone(c.def.Blocks) }
func (c *Calendar) CycleSize() int           { return c.def.CycleSize }
func (c *Calendar) Interval() Interval       { return c.def.Interval }
func (c *Calendar) Semesters() []Interval    { return slices.Clone(c.def.Semesters) }
func (c *Calendar) ReleaseDate() time.Time   { return c.def.ReleaseDate }
func (c *Calendar) Location() *time.Location { return c.def.Location }
func (c *Calendar) Exclusions() []Exclusion  { return slices.Clone(c.def.Exclusions) }
func (c *Calendar) Overrides() []Exclusion   { return slices.Clone(c.def.Overrides) }

// DayBlocks returns the block order of standard day number.
func (c *Calendar) DayBlocks(number int) []string {
	if number < 1 || number > len(c.def.DayBlocks) {
		return nil
	}
	return slices.Clone(c.def.DayBlocks[number-1])
}

// Date strips t to its calendar date in the calendar's location.
func (c *Calendar) Date(t time.Time) time.Time {
	return dateutil.DateIn(t, c.def.Location)
}

// Includes reports whether the date of t is inside the school year.
func (c *Calendar) Includes(t time.Time) bool {
	return c.def.Interval.Contains(c.Date(t))
}

// Day resolves the date of t.
func (c *Calendar) Day(t time.Time) (Day, error) {
	date := c.Date(t)
	if !c.def.Interval.Contains(date) {
		return Day{}, fmt.Errorf("%w: %s", ErrOutOfRange, dateutil.FormatDate(date))
	}

	if ex, ok := c.exclusionFor(date, true); ok {
		return ex.day(date, c), nil
	}
	if dateutil.IsWeekend(date) {
		return Day{Date: date, Type: DayTypeWeekend, Description: weekendDescription(date)}, nil
	}
	return c.standardDay(date, c.cycleNumber(date)), nil
}

// DayType resolves only the type of the date of t. With includeOverrides false
// it is the type the rotation counter sees.
func (c *Calendar) DayType(t time.Time, includeOverrides bool) (DayType, error) {
	date := c.Date(t)
	if !c.def.Interval.Contains(date) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, dateutil.FormatDate(date))
	}
	return c.dayType(date, includeOverrides), nil
}

func (c *Calendar) dayType(date time.Time, includeOverrides bool) DayType {
	if ex, ok := c.exclusionFor(date, includeOverrides); ok {
		return ex.Type
	}
	if dateutil.IsWeekend(date) {
		return DayTypeWeekend
	}
	return DayTypeStandard
}

// IsSchoolDay reports whether t falls on a standard, half or exam day of this year.
func (c *Calendar) IsSchoolDay(t time.Time) bool {
	date := c.Date(t)
	if !c.def.Interval.Contains(date) {
		return false
	}
	return c.dayType(date, true).IsSchoolDay()
}

// exclusionFor returns the first entry covering date, overrides first.
// Later entries overlapping an earlier one are never reached.
func (c *Calendar) exclusionFor(date time.Time, includeOverrides bool) (Exclusion, bool) {
	if includeOverrides {
		if ex, ok := firstCovering(c.def.Overrides, date); ok {
			return ex, true
		}
	}
	return firstCovering(c.def.Exclusions, date)
}

func firstCovering(list []Exclusion, date time.Time) (Exclusion, bool) {
	for _, ex := range list {
		if ex.Contains(date) {
			return ex, true
		}
	}
	return Exclusion{}, false
}

func (c *Calendar) standardDay(date time.Time, number int) Day {
	return Day{
		Date:        date,
		Type:        DayTypeStandard,
		Description: standardDescription(number),
		Number:      number,
		Blocks:      c.DayBlocks(number),
		Periods:     slices.Clone(c.def.StandardPeriods),
	}
}

// NextSchoolDate returns the first school date strictly after t.
func (c *Calendar) NextSchoolDate(t time.Time) (time.Time, bool) {
	date := dateutil.NextDay(c.Date(t))
	if date.Before(c.def.Interval.Start) {
		date = c.def.Interval.Start
	}
	for ; c.def.Interval.Contains(date); date = dateutil.NextDay(date) {
		if c.dayType(date, true).IsSchoolDay() {
			return date, true
		}
	}
	return time.Time{}, false
}

func (c *Calendar) NextSchoolDay(t time.Time) (Day, bool) {
	date, ok := c.NextSchoolDate(t)
	if !ok {
		return Day{}, false
	}
	day, err := c.Day(date)
	if err != nil {
		return Day{}, false
	}
	return day, true
}

// Days yields every date of r that lies inside the school year.
func (c *Calendar) Days(r Interval) iter.Seq[Day] {
	return func(yield func(Day) bool) {
		start := c.Date(r.Start)
		if start.Before(c.def.Interval.Start) {
			start = c.def.Interval.Start
		}
		end := c.Date(r.End)
		if end.After(c.def.Interval.End) {
			end = c.def.Interval.End
		}
		for date := start; !date.After(end); date = dateutil.NextDay(date) {
			day, err := c.Day(date)
			if err != nil {
				return
			}
			if !yield(day) {
				return
			}
		}
	}
}

// SemesterIndex returns the zero-based semester containing the date of t.
func (c *Calendar) SemesterIndex(t time.Time) (int, bool) {
	date := c.Date(t)
	for i, s := range c.def.Semesters {
		if s.Contains(date) {
			return i, true
		}
	}
	return -1, false
}

// BlockSemesterKeys lists every block followed by a one-based semester number.
func (c *Calendar) BlockSemesterKeys() []string {
	keys := make([]string, 0, len(c.def.Blocks)*len(c.def.Semesters))
	for _, block := range c.def.Blocks {
		for i := range c.def.Semesters {
			keys = append(keys, BlockSemesterKey(block, i))
		}
	}
	return keys
}

// BlockSemesterKey names a block in a zero-based semester, e.g. ("A", 0) is "A1".
func BlockSemesterKey(block string, semesterIndex int) string {
	return block + strconv.Itoa(semesterIndex+1)
}
