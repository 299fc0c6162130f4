package schedule

import (
	"sort"
	"time"
)

// Assignment is a dated placement of a user on a project. A nil end date means
// the assignment is open-ended.
type Assignment interface {
	PositionStartDate() time.Time
	PositionEndDate() *time.Time
}

// Span is a plain Assignment.
type Span struct {
	Start time.Time
	End   *time.Time
}

func (s Span) PositionStartDate() time.Time { return s.Start }
func (s Span) PositionEndDate() *time.Time  { return s.End }

// Intervals converts assignments to intervals, preserving order.
func Intervals[A Assignment](assignments []A) ([]DateInterval, error) {
	out := make([]DateInterval, 0, len(assignments))
	for _, a := range assignments {
		start := a.PositionStartDate()
		iv, err := NewDateInterval(&start, a.PositionEndDate())
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

// Merge collapses overlapping and touching intervals. The result is sorted by
// start and pairwise disjoint. The input slice is never reordered.
func Merge(intervals []DateInterval) []DateInterval {
	if len(intervals) < 2 {
		return append([]DateInterval(nil), intervals...)
	}

	sorted := sortedCopy(intervals)
	merged := make([]DateInterval, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if !next.start.After(cur.end) {
			if next.end.After(cur.end) {
				cur.end = next.end
			}
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

// Gaps returns the parts of target not covered by busy. busy is expected to be
// the output of Merge. An empty result means no availability at all.
func Gaps(busy []DateInterval, target DateInterval) ([]DateInterval, error) {
	if len(busy) == 0 {
		return []DateInterval{target}, nil
	}

	var windows []DateInterval
	windowStart, windowEnd := target.start, target.end
	for _, b := range sortedCopy(busy) {
		if b.IncludesInterval(target) {
			return []DateInterval{}, nil
		}
		if target.Contains(b.start) {
			w, err := Between(windowStart, b.start)
			if err != nil {
				return nil, err
			}
			windows = append(windows, w)
			windowEnd = target.end
		}
		if target.Contains(b.end) {
			windowStart = b.end
		}
	}

	trailing, err := Between(windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	windows = append(windows, trailing)
	return uniqueByStart(windows), nil
}

// AvailabilityWindows returns the free windows of target given a user's
// assignments, earliest first.
func AvailabilityWindows[A Assignment](assignments []A, target DateInterval) ([]DateInterval, error) {
	intervals, err := Intervals(assignments)
	if err != nil {
		return nil, err
	}
	return Gaps(Merge(intervals), target)
}

func sortedCopy(intervals []DateInterval) []DateInterval {
	out := append([]DateInterval(nil), intervals...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].start.Before(out[j].start)
	})
	return out
}

// uniqueByStart keeps the first window seen for each start date, then orders
// by start. A sweep that ends inside a busy interval re-emits its last window
// as the trailing one; this drops it.
func uniqueByStart(windows []DateInterval) []DateInterval {
	seen := make(map[int64]struct{}, len(windows))
	out := make([]DateInterval, 0, len(windows))
	for _, w := range windows {
		key := w.start.Unix()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return sortedCopy(out)
}
