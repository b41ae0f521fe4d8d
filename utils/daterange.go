package utils

import "time"

// Reservations are day-granular by business definition. All comparisons
// normalize to calendar dates first; comparing raw timestamps across
// timezones produces false conflicts.

// NormalizeDate strips time-of-day and timezone, keeping only the calendar
// date in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether two half-open date ranges [aStart, aEnd) and
// [bStart, bEnd) intersect. Half-open semantics mean a checkout on day D and
// a check-in on day D for the same room do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	aStart, aEnd = NormalizeDate(aStart), NormalizeDate(aEnd)
	bStart, bEnd = NormalizeDate(bStart), NormalizeDate(bEnd)
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether day falls inside the half-open range [start, end).
func Contains(start, end, day time.Time) bool {
	start, end, day = NormalizeDate(start), NormalizeDate(end), NormalizeDate(day)
	return !day.Before(start) && day.Before(end)
}

// RangeValid reports whether checkIn < checkOut strictly, after
// normalization.
func RangeValid(checkIn, checkOut time.Time) bool {
	return NormalizeDate(checkIn).Before(NormalizeDate(checkOut))
}

// Nights returns the number of nights in [checkIn, checkOut), at least 0.
func Nights(checkIn, checkOut time.Time) int {
	n := int(NormalizeDate(checkOut).Sub(NormalizeDate(checkIn)).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// ParseDate accepts "2006-01-02" or RFC3339 input and returns the
// normalized calendar date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return NormalizeDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}
