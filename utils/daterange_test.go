package utils

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	jan := func(d int) time.Time { return date(2026, time.January, d) }

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint before", jan(1), jan(3), jan(5), jan(8), false},
		{"disjoint after", jan(5), jan(8), jan(1), jan(3), false},
		{"back-to-back stays do not conflict", jan(1), jan(5), jan(5), jan(8), false},
		{"back-to-back reversed", jan(5), jan(8), jan(1), jan(5), false},
		{"partial overlap", jan(1), jan(5), jan(4), jan(8), true},
		{"contained", jan(1), jan(10), jan(3), jan(5), true},
		{"containing", jan(3), jan(5), jan(1), jan(10), true},
		{"identical", jan(2), jan(6), jan(2), jan(6), true},
		{"single night shared", jan(1), jan(2), jan(1), jan(2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps(%v, %v, %v, %v) = %v, want %v",
					tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.want)
			}
		})
	}
}

func TestOverlapsNormalizesTimeOfDayAndZone(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)

	// Same calendar dates expressed with awkward times and offsets must not
	// produce false conflicts against a back-to-back stay.
	aStart := time.Date(2026, time.January, 1, 23, 30, 0, 0, bangkok)
	aEnd := time.Date(2026, time.January, 5, 1, 15, 0, 0, bangkok)
	bStart := time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC)
	bEnd := time.Date(2026, time.January, 8, 10, 0, 0, 0, time.UTC)

	if Overlaps(aStart, aEnd, bStart, bEnd) {
		t.Error("back-to-back stays reported as overlapping after normalization")
	}
}

func TestContains(t *testing.T) {
	start, end := date(2026, time.March, 10), date(2026, time.March, 15)

	if !Contains(start, end, date(2026, time.March, 10)) {
		t.Error("start day should be contained")
	}
	if !Contains(start, end, date(2026, time.March, 14)) {
		t.Error("last night should be contained")
	}
	if Contains(start, end, date(2026, time.March, 15)) {
		t.Error("checkout day must not be contained (half-open)")
	}
	if Contains(start, end, date(2026, time.March, 9)) {
		t.Error("day before start must not be contained")
	}
}

func TestRangeValid(t *testing.T) {
	if !RangeValid(date(2026, time.May, 1), date(2026, time.May, 2)) {
		t.Error("one-night range should be valid")
	}
	if RangeValid(date(2026, time.May, 2), date(2026, time.May, 1)) {
		t.Error("reversed range should be invalid")
	}
	// Same calendar day, different times: zero nights is invalid.
	if RangeValid(
		time.Date(2026, time.May, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2026, time.May, 1, 20, 0, 0, 0, time.UTC),
	) {
		t.Error("same-day range should be invalid after normalization")
	}
}

func TestNights(t *testing.T) {
	if got := Nights(date(2026, time.June, 1), date(2026, time.June, 5)); got != 4 {
		t.Errorf("Nights = %d, want 4", got)
	}
	if got := Nights(date(2026, time.June, 5), date(2026, time.June, 1)); got != 0 {
		t.Errorf("Nights on reversed range = %d, want 0", got)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-01-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(date(2026, time.January, 10)) {
		t.Errorf("ParseDate = %v", got)
	}

	got, err = ParseDate("2026-01-10T15:04:05+07:00")
	if err != nil {
		t.Fatalf("ParseDate RFC3339: %v", err)
	}
	if !got.Equal(date(2026, time.January, 10)) {
		t.Errorf("ParseDate RFC3339 = %v, want normalized date", got)
	}

	if _, err := ParseDate("10/01/2026"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
