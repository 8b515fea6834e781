// Package calendartest provides school years for tests.
package calendartest

import (
	"sync"
	"time"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/timetable"
)

// Location returns America/New_York, panicking without tzdata.
var Location = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
})

// Date returns midnight of the given day in Location.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location())
}

// At returns the given wall-clock time in Location.
func At(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, Location())
}

func span(h1, m1, h2, m2 int) timetable.Period {
	return timetable.NewPeriod(timetable.NewTime(h1, m1), timetable.NewTime(h2, m2))
}

// EightDayDefinition is a 2018-19 year on an eight-day rotation of five periods.
func EightDayDefinition() calendar.Definition {
	return calendar.Definition{
		Name:      "Test Calendar",
		Version:   1.0,
		Blocks:    []string{"A", "B", "C", "D", "E", "F", "G"},
		CycleSize: 8,
		Interval:  calendar.Interval{Start: Date(2018, 8, 29), End: Date(2019, 6, 14)},
		Exclusions: []calendar.Exclusion{
			calendar.Holiday(Date(2018, 8, 31), Date(2018, 9, 3), "Labor Day"),
			calendar.Holiday(Date(2018, 9, 10), Date(2018, 9, 10), "Rosh Hashanah"),
		},
		StandardPeriods: []timetable.Period{
			span(7, 44, 8, 44),
			span(8, 48, 10, 3),
			span(10, 7, 11, 7),
			span(11, 11, 13, 1),
			span(13, 5, 14, 5),
		},
		HalfDayPeriods: []timetable.Period{
			span(7, 44, 8, 29),
			span(8, 33, 9, 16),
			span(9, 20, 10, 3),
			span(10, 7, 10, 50),
		},
		ExamPeriods: []timetable.Period{
			span(8, 0, 9, 30),
			span(10, 0, 11, 30),
			span(13, 0, 14, 0),
		},
		DayBlocks: [][]string{
			{"A", "C", "H", "E", "G"},
			{"B", "D", "F", "G", "E"},
			{"A", "H", "D", "C", "F"},
			{"B", "A", "H", "G", "E"},
			{"C", "B", "F", "D", "G"},
			{"A", "H", "E", "F", "C"},
			{"B", "A", "D", "E", "G"},
			{"C", "B", "H", "F", "D"},
		},
		Semesters: []calendar.Interval{
			{Start: Date(2018, 8, 29), End: Date(2019, 1, 22)},
			{Start: Date(2019, 1, 23), End: Date(2019, 6, 14)},
		},
		ReleaseDate: Date(2018, 8, 22),
		Location:    Location(),
	}
}

// FiveDayDefinition is a 2019-20 year on a five-day rotation of three periods,
// with a half day on 2019-11-11 and an exam day on 2019-12-12 as overrides.
func FiveDayDefinition() calendar.Definition {
	return calendar.Definition{
		Name:      "Notification Test Calendar",
		Version:   1.0,
		Blocks:    []string{"A", "B", "C", "D", "E"},
		CycleSize: 5,
		Interval:  calendar.Interval{Start: Date(2019, 8, 28), End: Date(2020, 6, 11)},
		Overrides: []calendar.Exclusion{
			calendar.HalfDay(Date(2019, 11, 11), []string{"B", "D"}),
			calendar.ExamDay(Date(2019, 12, 12), []string{"A"}),
		},
		StandardPeriods: []timetable.Period{
			span(7, 44, 8, 44),
			span(8, 47, 9, 47),
			span(9, 50, 10, 50),
		},
		HalfDayPeriods: []timetable.Period{
			span(7, 44, 8, 30),
			span(8, 33, 9, 28),
		},
		ExamPeriods: []timetable.Period{
			span(7, 44, 10, 0),
		},
		DayBlocks: [][]string{
			{"B", "C", "E"},
			{"E", "A", "D"},
			{"C", "D", "B"},
			{"A", "E", "B"},
			{"D", "C", "A"},
		},
		Semesters: []calendar.Interval{
			{Start: Date(2019, 8, 28), End: Date(2020, 1, 21)},
			{Start: Date(2020, 1, 22), End: Date(2020, 6, 12)},
		},
		ReleaseDate: Date(2019, 8, 20),
		Location:    Location(),
	}
}

// FiveDayMapping is a complete teacher mapping for FiveDayDefinition.
func FiveDayMapping() map[string]string {
	return map[string]string{
		"A1": "Aubrey",
		"A2": "Armstrong",
		"B1": "Bach",
		"B2": "Bach",
		"C1": "Caveney",
		"C2": "Caveney",
		"D1": "DiBenedetto",
		"D2": "Deschenes",
		"E1": "Emery",
		"E2": "Emory",
	}
}

// Must builds def or panics.
func Must(def calendar.Definition, opts ...calendar.Option) *calendar.Calendar {
	c, err := calendar.New(def, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func EightDay() *calendar.Calendar { return Must(EightDayDefinition()) }
func FiveDay() *calendar.Calendar  { return Must(FiveDayDefinition()) }
