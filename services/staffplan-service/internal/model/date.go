package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/schedule"
)

// Date is a calendar date serialised as yyyy-mm-dd.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: schedule.Day(t)}
}

func ParseDate(s string) (Date, error) {
	t, err := schedule.ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("date %q must be formatted as yyyy-mm-dd", s)
	}
	return Date{Time: t}, nil
}

// ParseOptionalDate treats an empty string as "no date".
func ParseOptionalDate(s string) (*Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(schedule.DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimePtr returns the underlying time, or nil for a nil or zero date.
func (d *Date) TimePtr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// DateFromPtr is the inverse of TimePtr, used when scanning nullable columns.
func DateFromPtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := NewDate(*t)
	return &d
}
