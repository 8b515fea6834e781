package calendar

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for dates outside the calendar interval.
var ErrOutOfRange = errors.New("date is outside the calendar interval")

var (
	ErrMissingField    = errors.New("missing field")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrFieldOutOfRange = errors.New("value out of range")
)

// ErrorKind classifies a FieldError.
type ErrorKind int

const (
	KindMissingField ErrorKind = iota + 1
	KindInvalidFormat
	KindOutOfRange
)

// FieldError describes a definition or mapping field that could not be used.
type FieldError struct {
	Kind  ErrorKind
	Field string
	Value string
}

func (e *FieldError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("missing field %q", e.Field)
	case KindInvalidFormat:
		return fmt.Sprintf("invalid format for %s: %s", e.Field, e.Value)
	case KindOutOfRange:
		return fmt.Sprintf("%s out of range: %s", e.Field, e.Value)
	default:
		return fmt.Sprintf("field %s: %s", e.Field, e.Value)
	}
}

// Unwrap lets errors.Is match the sentinel of the error's kind.
func (e *FieldError) Unwrap() error {
	switch e.Kind {
	case KindMissingField:
		return ErrMissingField
	case KindInvalidFormat:
		return ErrInvalidFormat
	case KindOutOfRange:
		return ErrFieldOutOfRange
	default:
		return nil
	}
}

func MissingField(field string) error {
	return &FieldError{Kind: KindMissingField, Field: field}
}

func InvalidFormat(field string, value any) error {
	return &FieldError{Kind: KindInvalidFormat, Field: field, Value: describe(value)}
}

func OutOfRange(field string, value any) error {
	return &FieldError{Kind: KindOutOfRange, Field: field, Value: describe(value)}
}

func describe(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprint(value)
}
