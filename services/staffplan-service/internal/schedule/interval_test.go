package schedule

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateInterval_IncludesBoundaries(t *testing.T) {
	iv := MustDateInterval(date(2000, 12, 1), date(2000, 12, 10))

	if !iv.Includes(date(2000, 12, 1)) {
		t.Fatal("expected start to be included")
	}
	if !iv.Includes(date(2000, 12, 10)) {
		t.Fatal("expected end to be included")
	}
	if iv.Includes(date(2000, 11, 30)) || iv.Includes(date(2000, 12, 11)) {
		t.Fatal("expected dates outside the range to be excluded")
	}
}

func TestDateInterval_ContainsIsExclusive(t *testing.T) {
	iv := MustDateInterval(date(2000, 12, 1), date(2000, 12, 10))

	if iv.Contains(date(2000, 12, 1)) {
		t.Fatal("contains must not match the start boundary")
	}
	if iv.Contains(date(2000, 12, 10)) {
		t.Fatal("contains must not match the end boundary")
	}
	if !iv.Contains(date(2000, 12, 5)) {
		t.Fatal("expected an inner date to be contained")
	}
}

func TestDateInterval_IgnoresTimeOfDay(t *testing.T) {
	iv := MustDateInterval(date(2000, 12, 1), date(2000, 12, 10))
	late := time.Date(2000, 12, 10, 23, 59, 0, 0, time.UTC)
	if !iv.Includes(late) {
		t.Fatalf("expected %s to be included", late)
	}
}

func TestDateInterval_IncludesInterval(t *testing.T) {
	outer := MustDateInterval(date(2000, 5, 1), date(2000, 5, 30))

	if !outer.IncludesInterval(MustDateInterval(date(2000, 5, 5), date(2000, 5, 10))) {
		t.Fatal("expected inner interval to be included")
	}
	if !outer.IncludesInterval(outer) {
		t.Fatal("an interval includes itself")
	}
	if outer.IncludesInterval(MustDateInterval(date(2000, 5, 20), date(2000, 6, 1))) {
		t.Fatal("expected overhanging interval to be rejected")
	}
}

func TestNewDateInterval_NilBoundsAreUnbounded(t *testing.T) {
	iv, err := NewDateInterval(nil, nil)
	if err != nil {
		t.Fatalf("NewDateInterval failed: %v", err)
	}
	if !iv.Start().Equal(MinDate) {
		t.Fatalf("expected start %s, got %s", MinDate, iv.Start())
	}
	if !iv.End().Equal(MaxDate) {
		t.Fatalf("expected end %s, got %s", MaxDate, iv.End())
	}
}

func TestNewDateInterval_RejectsReversedBounds(t *testing.T) {
	_, err := Between(MaxDate, MinDate)
	if err == nil {
		t.Fatal("expected an error for start after end")
	}
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	var ie *InvalidIntervalError
	if !errors.As(err, &ie) || !ie.Start.Equal(MaxDate) {
		t.Fatalf("expected InvalidIntervalError carrying the bounds, got %#v", err)
	}
}

func TestNewDateInterval_SingleDay(t *testing.T) {
	d := date(2000, 5, 1)
	iv, err := Between(d, d)
	if err != nil {
		t.Fatalf("single-day interval rejected: %v", err)
	}
	if !iv.Includes(d) || iv.Contains(d) {
		t.Fatal("single-day interval includes its day but contains nothing")
	}
}

func TestDateInterval_String(t *testing.T) {
	iv := MustDateInterval(date(2000, 5, 1), date(2000, 5, 30))
	if got := iv.String(); got != "[2000-05-01, 2000-05-30]" {
		t.Fatalf("unexpected String(): %s", got)
	}
}
