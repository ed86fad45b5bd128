// Package interval decides overlap between half-open time intervals.
package interval

import "time"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Of builds the interval covering d from start.
func Of(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Back-to-back intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Overlaps reports whether i and other overlap.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// FindConflict returns the first interval in existing, in the order given,
// that overlaps candidate.
func FindConflict(candidate Interval, existing []Interval) (Interval, bool) {
	return FirstConflict(candidate, existing, func(i Interval) Interval { return i })
}

// FirstConflict is FindConflict over arbitrary items, using span to get each
// item's interval.
func FirstConflict[T any](candidate Interval, items []T, span func(T) Interval) (T, bool) {
	for _, it := range items {
		if candidate.Overlaps(span(it)) {
			return it, true
		}
	}
	var zero T
	return zero, false
}
