package schedule

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	// MinDate stands in for an unknown start.
	MinDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	// MaxDate stands in for an unknown (open-ended) end.
	MaxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ErrInvalidInterval is returned when an interval would end before it starts.
var ErrInvalidInterval = errors.New("invalid date interval")

// InvalidIntervalError reports an interval whose start is after its end.
type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("interval start %s is after end %s", e.Start.Format(DateLayout), e.End.Format(DateLayout))
}

func (e *InvalidIntervalError) Is(target error) bool {
	return target == ErrInvalidInterval
}

// DateInterval is a closed range of calendar days. The zero value is not valid;
// build one with NewDateInterval or MustDateInterval.
type DateInterval struct {
	start time.Time
	end   time.Time
}

// NewDateInterval normalises nil bounds to MinDate/MaxDate and truncates both
// bounds to UTC midnight.
func NewDateInterval(start, end *time.Time) (DateInterval, error) {
	s, e := MinDate, MaxDate
	if start != nil {
		s = Day(*start)
	}
	if end != nil {
		e = Day(*end)
	}
	if s.After(e) {
		return DateInterval{}, &InvalidIntervalError{Start: s, End: e}
	}
	return DateInterval{start: s, end: e}, nil
}

// Between is NewDateInterval for two concrete dates.
func Between(start, end time.Time) (DateInterval, error) {
	return NewDateInterval(&start, &end)
}

// MustDateInterval panics on an invalid range. Intended for constants and tests.
func MustDateInterval(start, end time.Time) DateInterval {
	iv, err := Between(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Start is the first day of the interval, MinDate when unbounded.
func (iv DateInterval) Start() time.Time { return iv.start }

// End is the last day of the interval, MaxDate when open-ended.
func (iv DateInterval) End() time.Time { return iv.end }

// Includes reports start <= date <= end.
func (iv DateInterval) Includes(date time.Time) bool {
	d := Day(date)
	return !d.Before(iv.start) && !d.After(iv.end)
}

// IncludesInterval reports whether both endpoints of other fall inside iv.
func (iv DateInterval) IncludesInterval(other DateInterval) bool {
	return iv.Includes(other.start) && iv.Includes(other.end)
}

// Contains reports start < date < end. Touching a boundary does not count.
func (iv DateInterval) Contains(date time.Time) bool {
	d := Day(date)
	return d.After(iv.start) && d.Before(iv.end)
}

// Equal reports whether both intervals cover exactly the same days.
func (iv DateInterval) Equal(other DateInterval) bool {
	return iv.start.Equal(other.start) && iv.end.Equal(other.end)
}

func (iv DateInterval) String() string {
	return "[" + iv.start.Format(DateLayout) + ", " + iv.end.Format(DateLayout) + "]"
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a yyyy-mm-dd date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
