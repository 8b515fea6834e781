// Package schedule maps blocks of a school year to the teachers who teach them.
package schedule

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/goccy/go-json"

	"github.com/username/prematch/internal/calendar"
)

// ErrIncomplete is returned when a mapping lacks a block/semester combination.
var ErrIncomplete = errors.New("schedule does not cover every block and semester")

// Schedule is an immutable teacher lookup for one calendar.
type Schedule struct {
	mapping  map[string]string
	calendar *calendar.Calendar
}

// New keeps the entries of mapping that name a block and semester of cal.
// Every such combination must be present.
func New(mapping map[string]string, cal *calendar.Calendar) (*Schedule, error) {
	keys := cal.BlockSemesterKeys()
	kept := make(map[string]string, len(keys))
	for _, key := range keys {
		teacher, ok := mapping[key]
		if !ok {
			return nil, fmt.Errorf("%w: %w", ErrIncomplete, calendar.MissingField(key))
		}
		kept[key] = teacher
	}
	return &Schedule{mapping: kept, calendar: cal}, nil
}

// FromJSON reads a flat object such as {"A1": "Aubrey", "A2": "Armstrong"}.
func FromJSON(data []byte, cal *calendar.Calendar) (*Schedule, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}

	mapping := make(map[string]string, len(raw))
	for _, key := range cal.BlockSemesterKeys() {
		v, ok := raw[key]
		if !ok {
			continue
		}
		teacher, ok := v.(string)
		if !ok {
			return nil, calendar.InvalidFormat("teacher of block "+key, v)
		}
		mapping[key] = teacher
	}
	return New(mapping, cal)
}

func (s *Schedule) Calendar() *calendar.Calendar { return s.calendar }

// Mapping returns a copy of the stored entries.
func (s *Schedule) Mapping() map[string]string {
	return maps.Clone(s.mapping)
}

// Applies reports whether s covers every block and semester of other.
func (s *Schedule) Applies(other *calendar.Calendar) bool {
	for _, key := range other.BlockSemesterKeys() {
		if _, ok := s.mapping[key]; !ok {
			return false
		}
	}
	return true
}

// Teacher returns who teaches block in the zero-based semester.
func (s *Schedule) Teacher(block string, semesterIndex int) (string, error) {
	if !slices.Contains(s.calendar.Blocks(), block) {
		return "", calendar.OutOfRange("block", block)
	}
	if semesterIndex < 0 || semesterIndex >= len(s.calendar.Semesters()) {
		return "", calendar.OutOfRange("semester index", semesterIndex)
	}
	return s.mapping[calendar.BlockSemesterKey(block, semesterIndex)], nil
}

// CurrentTeacher returns who teaches block in the semester containing now.
func (s *Schedule) CurrentTeacher(block string, now time.Time) (string, error) {
	index, ok := s.calendar.SemesterIndex(now)
	if !ok {
		return "", fmt.Errorf("%w: no semester contains %s", calendar.ErrOutOfRange, now.Format(time.DateOnly))
	}
	return s.Teacher(block, index)
}

// MarshalJSON writes the flat mapping.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.mapping)
}
