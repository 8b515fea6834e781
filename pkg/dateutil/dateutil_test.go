package dateutil

import (
	"testing"
	"time"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

func TestStartOfDay(t *testing.T) {
	input := time.Date(2025, 1, 15, 14, 30, 45, 123456789, time.UTC)
	expected := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	result := StartOfDay(input)

	if !result.Equal(expected) {
		t.Errorf("StartOfDay(%v) = %v, want %v", input, result, expected)
	}
}

func TestDateIn(t *testing.T) {
	loc := newYork(t)

	// 02:30 UTC on the 16th is still the evening of the 15th in New York.
	input := time.Date(2025, 1, 16, 2, 30, 0, 0, time.UTC)
	expected := time.Date(2025, 1, 15, 0, 0, 0, 0, loc)

	result := DateIn(input, loc)
	if !result.Equal(expected) {
		t.Errorf("DateIn(%v) = %v, want %v", input, result, expected)
	}
}

func TestAddDaysAcrossDST(t *testing.T) {
	loc := newYork(t)

	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{
			name:  "spring forward",
			start: time.Date(2019, 3, 9, 0, 0, 0, 0, loc),
			n:     1,
			want:  time.Date(2019, 3, 10, 0, 0, 0, 0, loc),
		},
		{
			name:  "fall back",
			start: time.Date(2019, 11, 3, 0, 0, 0, 0, loc),
			n:     1,
			want:  time.Date(2019, 11, 4, 0, 0, 0, 0, loc),
		},
		{
			name:  "backwards over spring forward",
			start: time.Date(2019, 3, 11, 0, 0, 0, 0, loc),
			n:     -2,
			want:  time.Date(2019, 3, 9, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AddDays(tt.start, tt.n)
			if !result.Equal(tt.want) {
				t.Errorf("AddDays(%v, %d) = %v, want %v", tt.start, tt.n, result, tt.want)
			}
			if result.Hour() != 0 {
				t.Errorf("AddDays(%v, %d) hour = %d, want 0", tt.start, tt.n, result.Hour())
			}
		})
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "Wednesday returns Monday",
			input:    time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Sunday returns previous Monday",
			input:    time.Date(2025, 1, 19, 12, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StartOfWeek(tt.input)

			if !result.Equal(tt.expected) {
				t.Errorf("StartOfWeek(%v) = %v, want %v",
					tt.input.Format("2006-01-02 Mon"),
					result.Format("2006-01-02 Mon"),
					tt.expected.Format("2006-01-02 Mon"))
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  bool
	}{
		{"Saturday is weekend", time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC), true},
		{"Sunday is weekend", time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), true},
		{"Monday is not weekend", time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), false},
		{"Friday is not weekend", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsWeekend(tt.input)

			if result != tt.want {
				t.Errorf("IsWeekend(%v) = %v, want %v",
					tt.input.Format("2006-01-02 Mon"), result, tt.want)
			}
			if IsWeekday(tt.input) == tt.want {
				t.Errorf("IsWeekday(%v) = %v, want %v",
					tt.input.Format("2006-01-02 Mon"), !tt.want, !tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	loc := newYork(t)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"ISO format YYYY-MM-DD", "2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, loc), false},
		{"day first", "15.01.2025", time.Time{}, true},
		{"trailing time", "2025-01-15T10:30:00", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDate(tt.input, loc)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}

			if !tt.wantErr && !result.Equal(tt.want) {
				t.Errorf("ParseDate(%v) = %v, want %v", tt.input, result, tt.want)
			}
		})
	}
}

func TestParseDateTime(t *testing.T) {
	loc := newYork(t)

	result, err := ParseDateTime("2018-08-22T08:00:00", loc)
	if err != nil {
		t.Fatalf("ParseDateTime() error = %v", err)
	}
	want := time.Date(2018, 8, 22, 8, 0, 0, 0, loc)
	if !result.Equal(want) {
		t.Errorf("ParseDateTime() = %v, want %v", result, want)
	}

	if _, err := ParseDateTime("2018-08-22", loc); err == nil {
		t.Error("ParseDateTime(date only) error = nil, want error")
	}
}

func TestFormatDate(t *testing.T) {
	input := time.Date(2019, 9, 6, 7, 30, 0, 0, time.UTC)
	if got := FormatDate(input); got != "2019-09-06" {
		t.Errorf("FormatDate(%v) = %v, want %v", input, got, "2019-09-06")
	}
}
