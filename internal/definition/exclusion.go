package definition

import (
	"fmt"
	"time"

	"github.com/username/prematch/internal/calendar"
	"github.com/username/prematch/pkg/dateutil"
)

type exclusionParser func(p *parser, obj map[string]any) (calendar.Exclusion, error)

var exclusionParsers = map[string]exclusionParser{
	"holiday":      parseHoliday,
	"half_day":     parseHalfDay,
	"exam_day":     parseExamDay,
	"unknown":      parseUnknown,
	"standard_day": parseStandardDay,
}

func (p *parser) exclusionsField(obj map[string]any, name string) ([]calendar.Exclusion, error) {
	list, err := arrayField(obj, name)
	if err != nil {
		return nil, err
	}
	out := make([]calendar.Exclusion, 0, len(list))
	for i, item := range list {
		ex, err := p.exclusion(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func (p *parser) exclusion(v any) (calendar.Exclusion, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return calendar.Exclusion{}, calendar.InvalidFormat("exclusion", v)
	}
	typ, err := stringField(obj, "type")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	parse, ok := exclusionParsers[typ]
	if !ok {
		return calendar.Exclusion{}, calendar.InvalidFormat("type", typ)
	}
	return parse(p, obj)
}

func parseHoliday(p *parser, obj map[string]any) (calendar.Exclusion, error) {
	start, err := p.dateInYear(obj, "start_date")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	end, err := p.dateInYear(obj, "end_date")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	if end.Before(start) {
		return calendar.Exclusion{}, calendar.OutOfRange("end_date", dateutil.FormatDate(end))
	}
	description, err := stringField(obj, "description")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	return calendar.Holiday(start, end, description), nil
}

func parseHalfDay(p *parser, obj map[string]any) (calendar.Exclusion, error) {
	return parseBlockDay(p, obj, calendar.HalfDay)
}

func parseExamDay(p *parser, obj map[string]any) (calendar.Exclusion, error) {
	return parseBlockDay(p, obj, calendar.ExamDay)
}

func parseBlockDay(p *parser, obj map[string]any, build func(date time.Time, blocks []string) calendar.Exclusion) (calendar.Exclusion, error) {
	date, err := p.dateInYear(obj, "date")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	v, err := field(obj, "blocks")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	blocks, err := stringList(v, "blocks")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	ex := build(date, blocks)
	if _, ok := obj["description"]; ok {
		if ex.Description, err = stringField(obj, "description"); err != nil {
			return calendar.Exclusion{}, err
		}
	}
	return ex, nil
}

func parseUnknown(p *parser, obj map[string]any) (calendar.Exclusion, error) {
	date, err := p.dateInYear(obj, "date")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	description, err := stringField(obj, "description")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	return calendar.UnknownDay(date, description), nil
}

func parseStandardDay(p *parser, obj map[string]any) (calendar.Exclusion, error) {
	date, err := p.dateInYear(obj, "date")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	number, err := intField(obj, "day_number")
	if err != nil {
		return calendar.Exclusion{}, err
	}
	if number < 1 || number > p.cycleSize {
		return calendar.Exclusion{}, calendar.OutOfRange("day_number", number)
	}
	return calendar.StandardDay(date, number), nil
}
