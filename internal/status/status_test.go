package status

import (
	"testing"
	"time"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/calendar/calendartest"
	"github.com/username/prematch/internal/schedule"
)

func fiveDaySchedule(t *testing.T, cal *calendar.Calendar) *schedule.Schedule {
	t.Helper()
	s, err := schedule.New(calendartest.FiveDayMapping(), cal)
	if err != nil {
		t.Fatalf("schedule.New() error = %v", err)
	}
	return s
}

func TestResolve(t *testing.T) {
	cal := calendartest.FiveDay()
	sched := fiveDaySchedule(t, cal)
	at := calendartest.At

	tests := []struct {
		name      string
		now       time.Time
		wantKind  Kind
		wantTitle string
		wantInfo  string
		wantDay   time.Time
		wantToday bool
	}{
		{
			name:      "before release",
			now:       at(2019, 8, 10, 12, 0),
			wantKind:  KindUnavailable,
			wantTitle: "Not in current school year",
		},
		{
			name:      "summer after the year",
			now:       at(2020, 7, 1, 12, 0),
			wantKind:  KindUnavailable,
			wantTitle: "Not in current school year",
		},
		{
			name:      "after release",
			now:       at(2019, 8, 25, 10, 0),
			wantKind:  KindAfterRelease,
			wantTitle: "First Teacher: Bach",
			wantInfo:  "Block B\nEnjoy what remains of summer",
			wantDay:   calendartest.Date(2019, 8, 28),
		},
		{
			name:      "weekend",
			now:       at(2019, 9, 7, 12, 0),
			wantKind:  KindNonSchoolDay,
			wantTitle: "Today is a Saturday",
			wantInfo:  "Showing next school day\nMonday, Sep 9, 2019",
			wantDay:   calendartest.Date(2019, 9, 9),
		},
		{
			name:      "before school",
			now:       at(2019, 9, 4, 7, 0),
			wantKind:  KindBeforeSchool,
			wantTitle: "Next: Bach",
			wantInfo:  "Block B\nGood morning",
			wantDay:   calendartest.Date(2019, 9, 4),
			wantToday: true,
		},
		{
			name:      "first period",
			now:       at(2019, 9, 4, 8, 0),
			wantKind:  KindDuringSchool,
			wantTitle: "Now: Bach",
			wantInfo:  "Block B\nNext: Block C with Caveney",
			wantDay:   calendartest.Date(2019, 9, 4),
			wantToday: true,
		},
		{
			name:      "passing time",
			now:       at(2019, 9, 4, 8, 45),
			wantKind:  KindDuringSchool,
			wantTitle: "Go to Caveney",
			wantInfo:  "Block C",
			wantDay:   calendartest.Date(2019, 9, 4),
			wantToday: true,
		},
		{
			name:      "last period",
			now:       at(2019, 9, 4, 10, 0),
			wantKind:  KindDuringSchool,
			wantTitle: "Now: Emery",
			wantInfo:  "Block E\nThis is the last block!",
			wantDay:   calendartest.Date(2019, 9, 4),
			wantToday: true,
		},
		{
			name:      "after school",
			now:       at(2019, 9, 4, 15, 0),
			wantKind:  KindAfterSchool,
			wantTitle: "Today was a Day 1",
			wantInfo:  "Showing tomorrow",
			wantDay:   calendartest.Date(2019, 9, 5),
		},
		{
			name:      "after school on friday",
			now:       at(2019, 9, 6, 15, 0),
			wantKind:  KindAfterSchool,
			wantTitle: "Today was a Day 3",
			wantInfo:  "Showing next Monday",
			wantDay:   calendartest.Date(2019, 9, 9),
		},
		{
			name:      "after the last school day",
			now:       at(2020, 6, 11, 15, 0),
			wantKind:  KindAfterSchool,
			wantInfo:  "No more school days this year",
			wantDay:   calendartest.Date(2020, 6, 11),
			wantToday: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.now, cal, sched)
			if err != nil {
				t.Fatalf("Resolve(%v) error = %v", tt.now, err)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if tt.wantTitle != "" && got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Info != tt.wantInfo {
				t.Errorf("Info = %q, want %q", got.Info, tt.wantInfo)
			}
			if !got.Day.Date.Equal(tt.wantDay) {
				t.Errorf("Day = %v, want %v", got.Day.Date, tt.wantDay)
			}
			if got.IsToday != tt.wantToday {
				t.Errorf("IsToday = %v, want %v", got.IsToday, tt.wantToday)
			}
		})
	}
}

func TestResolveWithoutSchedule(t *testing.T) {
	cal := calendartest.FiveDay()

	tests := []struct {
		now       time.Time
		wantTitle string
	}{
		{calendartest.At(2019, 9, 4, 7, 0), "Next: Someone unknown"},
		{calendartest.At(2019, 9, 4, 8, 0), "Now: Unknown"},
		{calendartest.At(2019, 8, 25, 10, 0), "First Teacher: Someone unknown"},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.now, cal, nil)
		if err != nil {
			t.Fatalf("Resolve(%v) error = %v", tt.now, err)
		}
		if got.Title != tt.wantTitle {
			t.Errorf("Resolve(%v).Title = %q, want %q", tt.now, got.Title, tt.wantTitle)
		}
	}
}

func TestResolveAroundHolidays(t *testing.T) {
	cal := calendartest.EightDay()

	got, err := Resolve(calendartest.At(2018, 9, 10, 9, 0), cal, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Kind != KindNonSchoolDay || got.Title != "Today is Rosh Hashanah" {
		t.Errorf("Resolve(Rosh Hashanah) = %v %q", got.Kind, got.Title)
	}
	if want := calendartest.Date(2018, 9, 11); !got.Day.Date.Equal(want) {
		t.Errorf("next school day = %v, want %v", got.Day.Date, want)
	}

	// Thursday before the Labor Day weekend.
	got, err = Resolve(calendartest.At(2018, 8, 30, 16, 0), cal, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Info != "Showing next Tuesday" {
		t.Errorf("Info = %q, want %q", got.Info, "Showing next Tuesday")
	}
}

func TestResolveWithoutReleaseDate(t *testing.T) {
	def := calendartest.FiveDayDefinition()
	def.ReleaseDate = time.Time{}
	cal := calendartest.Must(def)

	got, err := Resolve(calendartest.At(2019, 8, 25, 10, 0), cal, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Kind != KindUnavailable {
		t.Errorf("Kind = %v, want %v", got.Kind, KindUnavailable)
	}
}

func TestRelativeDate(t *testing.T) {
	date := calendartest.Date

	tests := []struct {
		target, today time.Time
		want          string
	}{
		{date(2019, 9, 5), date(2019, 9, 4), "tomorrow"},
		{date(2019, 9, 9), date(2019, 9, 6), "next Monday"},
		{date(2019, 9, 13), date(2019, 9, 4), "next Friday"},
		{date(2019, 9, 6), date(2019, 9, 4), "Friday, Sep 6, 2019"},
		{date(2019, 9, 20), date(2019, 9, 4), "Friday, Sep 20, 2019"},
	}
	for _, tt := range tests {
		if got := relativeDate(tt.target, tt.today); got != tt.want {
			t.Errorf("relativeDate(%v, %v) = %q, want %q", tt.target, tt.today, got, tt.want)
		}
	}
}
