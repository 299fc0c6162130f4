package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxStringLength bounds every free-text column.
const MaxStringLength = 30

var ErrValidation = errors.New("validation failed")

var emailPattern = regexp.MustCompile(`^[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type validator struct {
	fields []FieldError
}

func (v *validator) add(field, format string, args ...any) {
	v.fields = append(v.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) text(field, value string) {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		v.add(field, "%s is mandatory", field)
		return
	}
	if n > MaxStringLength {
		v.add(field, "size must be between 1 and %d", MaxStringLength)
	}
}

func (v *validator) id(field string, value int64) {
	if value == 0 {
		v.add(field, "%s is mandatory", field)
		return
	}
	if value < 1 {
		v.add(field, "the value must be positive")
	}
}

func (v *validator) email(field, value string) {
	if value == "" {
		v.add(field, "%s is mandatory", field)
		return
	}
	if !emailPattern.MatchString(value) {
		v.add(field, "email is invalid")
	}
}

func (v *validator) date(field string, value Date) {
	if value.IsZero() {
		v.add(field, "%s is mandatory", field)
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
