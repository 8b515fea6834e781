package calendar_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/calendar/calendartest"
)

var date = calendartest.Date

func TestStandardDayNumbers(t *testing.T) {
	cal := calendartest.EightDay()

	tests := []struct {
		date time.Time
		want int
	}{
		{date(2018, 8, 29), 1},
		{date(2018, 8, 30), 2},
		{date(2018, 9, 6), 5},
		{date(2018, 9, 13), 1},
		{date(2018, 9, 18), 4},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format("2006-01-02"), func(t *testing.T) {
			day, err := cal.Day(tt.date)
			if err != nil {
				t.Fatalf("Day(%v) error = %v", tt.date, err)
			}
			if day.Type != calendar.DayTypeStandard {
				t.Fatalf("Day(%v).Type = %v, want standard_day", tt.date, day.Type)
			}
			if day.Number != tt.want {
				t.Errorf("Day(%v).Number = %d, want %d", tt.date, day.Number, tt.want)
			}
		})
	}
}

func TestDayTypes(t *testing.T) {
	cal := calendartest.EightDay()

	tests := []struct {
		name     string
		date     time.Time
		wantType calendar.DayType
		wantDesc string
	}{
		{"holiday start", date(2018, 8, 31), calendar.DayTypeHoliday, "Labor Day"},
		{"holiday over weekend", date(2018, 9, 1), calendar.DayTypeHoliday, "Labor Day"},
		{"holiday end", date(2018, 9, 3), calendar.DayTypeHoliday, "Labor Day"},
		{"single holiday", date(2018, 9, 10), calendar.DayTypeHoliday, "Rosh Hashanah"},
		{"saturday", date(2018, 9, 8), calendar.DayTypeWeekend, "a Saturday"},
		{"sunday", date(2018, 9, 9), calendar.DayTypeWeekend, "a Sunday"},
		{"standard", date(2018, 9, 4), calendar.DayTypeStandard, "a Day 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := cal.Day(tt.date)
			if err != nil {
				t.Fatalf("Day(%v) error = %v", tt.date, err)
			}
			if day.Type != tt.wantType || day.Description != tt.wantDesc {
				t.Errorf("Day(%v) = (%v, %q), want (%v, %q)", tt.date, day.Type, day.Description, tt.wantType, tt.wantDesc)
			}
			if got := cal.IsSchoolDay(tt.date); got != tt.wantType.IsSchoolDay() {
				t.Errorf("IsSchoolDay(%v) = %v, want %v", tt.date, got, !got)
			}
		})
	}
}

func TestDayOutOfRange(t *testing.T) {
	cal := calendartest.EightDay()

	for _, d := range []time.Time{date(2018, 8, 28), date(2019, 6, 15)} {
		if _, err := cal.Day(d); !errors.Is(err, calendar.ErrOutOfRange) {
			t.Errorf("Day(%v) error = %v, want ErrOutOfRange", d, err)
		}
		if _, err := cal.DayType(d, true); !errors.Is(err, calendar.ErrOutOfRange) {
			t.Errorf("DayType(%v) error = %v, want ErrOutOfRange", d, err)
		}
		if cal.IsSchoolDay(d) {
			t.Errorf("IsSchoolDay(%v) = true, want false", d)
		}
	}

	for _, d := range []time.Time{date(2018, 8, 29), date(2019, 6, 14)} {
		if _, err := cal.Day(d); err != nil {
			t.Errorf("Day(%v) error = %v, want nil at interval edge", d, err)
		}
	}
}

func TestDayStripsTimeInReferenceZone(t *testing.T) {
	cal := calendartest.EightDay()

	// 02:00 UTC on 2018-09-07 is the evening of 2018-09-06 in New York.
	late := time.Date(2018, 9, 7, 2, 0, 0, 0, time.UTC)
	day, err := cal.Day(late)
	if err != nil {
		t.Fatalf("Day(%v) error = %v", late, err)
	}
	if day.Number != 5 || !day.Date.Equal(date(2018, 9, 6)) {
		t.Errorf("Day(%v) = (%v, #%d), want (2018-09-06, #5)", late, day.Date, day.Number)
	}
}

func TestStandardDayBlocksAndPeriods(t *testing.T) {
	cal := calendartest.EightDay()

	day, err := cal.Day(date(2018, 9, 12))
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if day.Number != 8 {
		t.Fatalf("Day(2018-09-12).Number = %d, want 8", day.Number)
	}
	want := []string{"C", "B", "H", "F", "D"}
	if !reflect.DeepEqual(day.Blocks, want) {
		t.Errorf("Blocks = %v, want %v", day.Blocks, want)
	}
	if len(day.Periods) != len(day.Blocks) {
		t.Errorf("len(Periods) = %d, want %d", len(day.Periods), len(day.Blocks))
	}
}

func TestOverridesTakePrecedenceWithoutShiftingCycle(t *testing.T) {
	def := calendartest.EightDayDefinition()
	def.Overrides = []calendar.Exclusion{
		calendar.HalfDay(date(2018, 9, 6), []string{"A", "C", "E", "G"}),
	}
	cal := calendartest.Must(def)

	day, err := cal.Day(date(2018, 9, 6))
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if day.Type != calendar.DayTypeHalf || day.Description != "a half-day" {
		t.Errorf("Day(2018-09-06) = (%v, %q), want (half_day, %q)", day.Type, day.Description, "a half-day")
	}
	if len(day.Periods) != 4 {
		t.Errorf("len(Periods) = %d, want 4", len(day.Periods))
	}

	base, err := cal.DayType(date(2018, 9, 6), false)
	if err != nil || base != calendar.DayTypeStandard {
		t.Errorf("DayType(2018-09-06, false) = (%v, %v), want standard_day", base, err)
	}

	after, _ := cal.Day(date(2018, 9, 13))
	if after.Number != 1 {
		t.Errorf("Day(2018-09-13).Number = %d, want 1", after.Number)
	}
}

func TestOverrideBeatsExclusionButExclusionCounts(t *testing.T) {
	def := calendartest.EightDayDefinition()
	def.Exclusions = append(def.Exclusions, calendar.Holiday(date(2018, 9, 6), date(2018, 9, 6), "Closed"))
	def.Overrides = []calendar.Exclusion{
		calendar.HalfDay(date(2018, 9, 6), []string{"A", "C", "E", "G"}),
	}
	cal := calendartest.Must(def)

	day, _ := cal.Day(date(2018, 9, 6))
	if day.Type != calendar.DayTypeHalf {
		t.Errorf("Day(2018-09-06).Type = %v, want half_day", day.Type)
	}

	// The base holiday holds the count, so every later day lands one number lower.
	after, _ := cal.Day(date(2018, 9, 13))
	if after.Number != 8 {
		t.Errorf("Day(2018-09-13).Number = %d, want 8", after.Number)
	}
}

func TestStandardDayExclusionAdvancesCount(t *testing.T) {
	def := calendartest.EightDayDefinition()
	def.Exclusions = append(def.Exclusions, calendar.StandardDay(date(2018, 9, 4), 7))
	cal := calendartest.Must(def)

	// 2018-09-04 shows its stated number but counts as the third day.
	tests := []struct {
		date time.Time
		want int
	}{
		{date(2018, 8, 30), 2},
		{date(2018, 9, 4), 7},
		{date(2018, 9, 5), 4},
		{date(2018, 9, 6), 5},
	}
	for _, tt := range tests {
		day, err := cal.Day(tt.date)
		if err != nil {
			t.Fatalf("Day(%v) error = %v", tt.date, err)
		}
		if day.Number != tt.want {
			t.Errorf("Day(%v).Number = %d, want %d", tt.date.Format("2006-01-02"), day.Number, tt.want)
		}
	}
}

func TestStandardDayOverrideOnlyRelabels(t *testing.T) {
	def := calendartest.EightDayDefinition()
	def.Overrides = []calendar.Exclusion{calendar.StandardDay(date(2018, 9, 4), 7)}
	cal := calendartest.Must(def)

	day, _ := cal.Day(date(2018, 9, 4))
	if day.Number != 7 || !reflect.DeepEqual(day.Blocks, []string{"B", "A", "D", "E", "G"}) {
		t.Errorf("Day(2018-09-04) = (#%d, %v), want (#7, [B A D E G])", day.Number, day.Blocks)
	}
	next, _ := cal.Day(date(2018, 9, 5))
	if next.Number != 4 {
		t.Errorf("Day(2018-09-05).Number = %d, want 4", next.Number)
	}
}

func TestUnknownDayIsNotCountedOrSchoolDay(t *testing.T) {
	def := calendartest.EightDayDefinition()
	def.Exclusions = append(def.Exclusions, calendar.UnknownDay(date(2018, 9, 4), "Storm"))
	cal := calendartest.Must(def)

	day, err := cal.Day(date(2018, 9, 4))
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	if day.Type != calendar.DayTypeUnknown || day.Description != "Storm" {
		t.Errorf("Day(2018-09-04) = (%v, %q), want (unknown, Storm)", day.Type, day.Description)
	}
	if day.IsSchoolDay() || len(day.Blocks) != 0 || len(day.Periods) != 0 {
		t.Errorf("unknown day = %+v, want no school, no blocks, no periods", day)
	}

	next, _ := cal.Day(date(2018, 9, 5))
	if next.Number != 3 {
		t.Errorf("Day(2018-09-05).Number = %d, want 3", next.Number)
	}

	got, ok := cal.NextSchoolDate(date(2018, 8, 30))
	if !ok || !got.Equal(date(2018, 9, 5)) {
		t.Errorf("NextSchoolDate(2018-08-30) = (%v, %v), want 2018-09-05", got, ok)
	}
}

func TestCycleAdvancesByOneOverWholeYear(t *testing.T) {
	cal := calendartest.EightDay()
	uncached := calendartest.Must(calendartest.EightDayDefinition(), calendar.WithCache(calendar.NoCache{}))

	prev := 0
	count := 0
	for day := range cal.Days(cal.Interval()) {
		count++
		other, err := uncached.Day(day.Date)
		if err != nil {
			t.Fatalf("uncached Day(%v) error = %v", day.Date, err)
		}
		if !reflect.DeepEqual(day, other) {
			t.Fatalf("Day(%v) = %+v, uncached = %+v", day.Date, day, other)
		}

		if day.Type != calendar.DayTypeStandard {
			continue
		}
		if day.Number < 1 || day.Number > cal.CycleSize() {
			t.Fatalf("Day(%v).Number = %d out of 1..%d", day.Date, day.Number, cal.CycleSize())
		}
		if prev != 0 && day.Number != prev%cal.CycleSize()+1 {
			t.Fatalf("Day(%v).Number = %d after %d", day.Date, day.Number, prev)
		}
		prev = day.Number
	}

	if count < 280 {
		t.Errorf("Days() yielded %d dates, want the whole interval", count)
	}
}

func TestDayIsIdempotent(t *testing.T) {
	cal := calendartest.EightDay()
	d := date(2019, 3, 14)

	first, err := cal.Day(d)
	if err != nil {
		t.Fatalf("Day() error = %v", err)
	}
	second, _ := cal.Day(d)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Day(%v) not idempotent: %+v then %+v", d, first, second)
	}
}

func TestNextSchoolDate(t *testing.T) {
	cal := calendartest.EightDay()

	tests := []struct {
		name   string
		after  time.Time
		want   time.Time
		wantOK bool
	}{
		{"next weekday", date(2018, 8, 29), date(2018, 8, 30), true},
		{"over weekend and holiday", date(2018, 9, 1), date(2018, 9, 4), true},
		{"before the year", date(2018, 8, 1), date(2018, 8, 29), true},
		{"last day", date(2019, 6, 14), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cal.NextSchoolDate(tt.after)
			if ok != tt.wantOK || (ok && !got.Equal(tt.want)) {
				t.Errorf("NextSchoolDate(%v) = (%v, %v), want (%v, %v)", tt.after, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	day, ok := cal.NextSchoolDay(date(2018, 8, 29))
	if !ok || day.Type != calendar.DayTypeStandard || day.Number != 2 {
		t.Errorf("NextSchoolDay(2018-08-29) = (%+v, %v), want standard day #2", day, ok)
	}
}

func TestSemesters(t *testing.T) {
	cal := calendartest.EightDay()

	tests := []struct {
		date   time.Time
		want   int
		wantOK bool
	}{
		{date(2018, 10, 1), 0, true},
		{date(2019, 1, 22), 0, true},
		{date(2019, 1, 23), 1, true},
		{date(2019, 7, 1), -1, false},
	}
	for _, tt := range tests {
		got, ok := cal.SemesterIndex(tt.date)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("SemesterIndex(%v) = (%d, %v), want (%d, %v)", tt.date.Format("2006-01-02"), got, ok, tt.want, tt.wantOK)
		}
	}

	keys := cal.BlockSemesterKeys()
	if len(keys) != 14 || keys[0] != "A1" || keys[1] != "A2" || keys[13] != "G2" {
		t.Errorf("BlockSemesterKeys() = %v", keys)
	}
}

func TestNewRejectsInconsistentDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*calendar.Definition)
		want   error
	}{
		{
			name:   "zero cycle",
			mutate: func(d *calendar.Definition) { d.CycleSize = 0 },
			want:   calendar.ErrFieldOutOfRange,
		},
		{
			name:   "missing rotation row",
			mutate: func(d *calendar.Definition) { d.DayBlocks = d.DayBlocks[:7] },
			want:   calendar.ErrInvalidFormat,
		},
		{
			name:   "short rotation row",
			mutate: func(d *calendar.Definition) { d.DayBlocks[2] = []string{"A"} },
			want:   calendar.ErrInvalidFormat,
		},
		{
			name: "half day block count",
			mutate: func(d *calendar.Definition) {
				d.Overrides = []calendar.Exclusion{calendar.HalfDay(date(2018, 9, 6), []string{"A"})}
			},
			want: calendar.ErrInvalidFormat,
		},
		{
			name: "standard day number",
			mutate: func(d *calendar.Definition) {
				d.Exclusions = []calendar.Exclusion{calendar.StandardDay(date(2018, 9, 6), 9)}
			},
			want: calendar.ErrFieldOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := calendartest.EightDayDefinition()
			tt.mutate(&def)
			if _, err := calendar.New(def); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}
