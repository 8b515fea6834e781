// Package definition reads school year definitions from JSON or YAML documents.
package definition

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/internal/timetable"
	"github.com/username/prematch/pkg/dateutil"
)

// ParseJSON decodes a JSON definition.
func ParseJSON(data []byte, loc *time.Location, opts ...calendar.Option) (*calendar.Calendar, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode definition JSON: %w", err)
	}
	return Parse(raw, loc, opts...)
}

// ParseYAML decodes a YAML definition with the same fields as the JSON form.
func ParseYAML(data []byte, loc *time.Location, opts ...calendar.Option) (*calendar.Calendar, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode definition YAML: %w", err)
	}
	return Parse(raw, loc, opts...)
}

// Read picks JSON when the document starts with '{' and YAML otherwise.
func Read(data []byte, loc *time.Location, opts ...calendar.Option) (*calendar.Calendar, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return ParseJSON(data, loc, opts...)
	}
	return ParseYAML(data, loc, opts...)
}

// Parse builds a calendar from a decoded document tree. Every field is required;
// nothing is defaulted.
func Parse(raw any, loc *time.Location, opts ...calendar.Option) (*calendar.Calendar, error) {
	if loc == nil {
		loc = time.UTC
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, calendar.InvalidFormat("definition", fmt.Sprintf("%T", raw))
	}
	p := &parser{loc: loc}

	var def calendar.Definition
	var err error
	def.Location = loc

	if def.Name, err = stringField(root, "name"); err != nil {
		return nil, err
	}
	if def.Version, err = numberField(root, "version"); err != nil {
		return nil, err
	}
	if def.Blocks, err = blocksField(root, "blocks"); err != nil {
		return nil, err
	}
	if def.CycleSize, err = intField(root, "cycle_size"); err != nil {
		return nil, err
	}
	if def.CycleSize < 1 {
		return nil, calendar.OutOfRange("cycle_size", def.CycleSize)
	}
	p.cycleSize = def.CycleSize

	if def.Interval.Start, err = p.dateField(root, "start_date"); err != nil {
		return nil, err
	}
	if def.Interval.End, err = p.dateField(root, "end_date"); err != nil {
		return nil, err
	}
	if def.Interval.End.Before(def.Interval.Start) {
		return nil, calendar.OutOfRange("end_date", dateutil.FormatDate(def.Interval.End))
	}
	p.interval = def.Interval

	if def.Exclusions, err = p.exclusionsField(root, "exclusions"); err != nil {
		return nil, err
	}
	if def.Overrides, err = p.exclusionsField(root, "overrides"); err != nil {
		return nil, err
	}
	if def.StandardPeriods, err = periodsField(root, "periods"); err != nil {
		return nil, err
	}
	if def.HalfDayPeriods, err = periodsField(root, "half_day_periods"); err != nil {
		return nil, err
	}
	if def.ExamPeriods, err = periodsField(root, "exam_day_periods"); err != nil {
		return nil, err
	}
	if def.DayBlocks, err = dayBlocksField(root, "day_blocks"); err != nil {
		return nil, err
	}
	if def.Semesters, err = p.semestersField(root, "semesters"); err != nil {
		return nil, err
	}

	release, err := stringField(root, "schedule_release")
	if err != nil {
		return nil, err
	}
	if def.ReleaseDate, err = dateutil.ParseDateTime(release, loc); err != nil {
		return nil, calendar.InvalidFormat("schedule_release", release)
	}

	cal, err := calendar.New(def, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid definition %q: %w", def.Name, err)
	}
	return cal, nil
}

type parser struct {
	loc       *time.Location
	cycleSize int
	interval  calendar.Interval
}

func field(obj map[string]any, name string) (any, error) {
	v, ok := obj[name]
	if !ok || v == nil {
		return nil, calendar.MissingField(name)
	}
	return v, nil
}

func stringField(obj map[string]any, name string) (string, error) {
	v, err := field(obj, name)
	if err != nil {
		return "", err
	}
	s, ok := asString(v)
	if !ok {
		return "", calendar.InvalidFormat(name, v)
	}
	return s, nil
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case time.Time:
		return dateutil.FormatDate(s), true
	default:
		return "", false
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func numberField(obj map[string]any, name string) (float64, error) {
	v, err := field(obj, name)
	if err != nil {
		return 0, err
	}
	f, ok := asNumber(v)
	if !ok {
		return 0, calendar.InvalidFormat(name, v)
	}
	return f, nil
}

func intField(obj map[string]any, name string) (int, error) {
	v, err := field(obj, name)
	if err != nil {
		return 0, err
	}
	n, ok := asInt(v)
	if !ok {
		return 0, calendar.InvalidFormat(name, v)
	}
	return n, nil
}

func arrayField(obj map[string]any, name string) ([]any, error) {
	v, err := field(obj, name)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, calendar.InvalidFormat(name, v)
	}
	return list, nil
}

func stringList(v any, name string) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, calendar.InvalidFormat(name, v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := asString(item)
		if !ok {
			return nil, calendar.InvalidFormat(name, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func blocksField(obj map[string]any, name string) ([]string, error) {
	v, err := field(obj, name)
	if err != nil {
		return nil, err
	}
	blocks, err := stringList(v, name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if b == "" || seen[b] {
			return nil, calendar.InvalidFormat(name, b)
		}
		seen[b] = true
	}
	return blocks, nil
}

func dayBlocksField(obj map[string]any, name string) ([][]string, error) {
	rows, err := arrayField(obj, name)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		blocks, err := stringList(row, name)
		if err != nil {
			return nil, err
		}
		out = append(out, blocks)
	}
	return out, nil
}

func periodsField(obj map[string]any, name string) ([]timetable.Period, error) {
	list, err := arrayField(obj, name)
	if err != nil {
		return nil, err
	}
	out := make([]timetable.Period, 0, len(list))
	for _, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, calendar.InvalidFormat(name, item)
		}
		from, err := parseTime(pair[0])
		if err != nil {
			return nil, err
		}
		to, err := parseTime(pair[1])
		if err != nil {
			return nil, err
		}
		out = append(out, timetable.NewPeriod(from, to))
	}
	return out, nil
}

// parseTime reads [hour, minute]. Each part must fit in a byte; the result wraps.
func parseTime(v any) (timetable.Time, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return timetable.Time{}, calendar.InvalidFormat("time", v)
	}
	hour, okH := asInt(pair[0])
	minute, okM := asInt(pair[1])
	if !okH || !okM || hour < 0 || hour > math.MaxUint8 || minute < 0 || minute > math.MaxUint8 {
		return timetable.Time{}, calendar.InvalidFormat("time", v)
	}
	return timetable.NewTime(hour, minute), nil
}

func (p *parser) dateField(obj map[string]any, name string) (time.Time, error) {
	s, err := stringField(obj, name)
	if err != nil {
		return time.Time{}, err
	}
	return p.date(name, s)
}

func (p *parser) date(name, s string) (time.Time, error) {
	d, err := dateutil.ParseDate(s, p.loc)
	if err != nil {
		return time.Time{}, calendar.InvalidFormat(name, s)
	}
	return d, nil
}

// dateInYear parses a date field of an exclusion, which must fall inside the interval.
func (p *parser) dateInYear(obj map[string]any, name string) (time.Time, error) {
	d, err := p.dateField(obj, name)
	if err != nil {
		return time.Time{}, err
	}
	if !p.interval.Contains(d) {
		return time.Time{}, calendar.OutOfRange("date", dateutil.FormatDate(d))
	}
	return d, nil
}

func (p *parser) semestersField(obj map[string]any, name string) ([]calendar.Interval, error) {
	list, err := arrayField(obj, name)
	if err != nil {
		return nil, err
	}
	out := make([]calendar.Interval, 0, len(list))
	for _, item := range list {
		pair, err := stringList(item, name)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, calendar.InvalidFormat(name, item)
		}
		start, err := p.date(name, pair[0])
		if err != nil {
			return nil, err
		}
		end, err := p.date(name, pair[1])
		if err != nil {
			return nil, err
		}
		if !p.interval.Contains(start) {
			return nil, calendar.OutOfRange(name, pair[0])
		}
		if end.Before(start) || !p.interval.Contains(end) {
			return nil, calendar.OutOfRange(name, pair[1])
		}
		if n := len(out); n > 0 && !start.After(out[n-1].End) {
			return nil, calendar.OutOfRange(name, pair[0])
		}
		out = append(out, calendar.Interval{Start: start, End: end})
	}
	return out, nil
}
