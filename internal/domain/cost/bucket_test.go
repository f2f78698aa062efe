package cost

import (
	"testing"
	"time"
)

func TestDayOf(t *testing.T) {
	ts := time.Date(2026, 8, 23, 17, 45, 12, 999, time.FixedZone("CEST", 2*3600))
	got := DayOf(ts)

	// 17:45 CEST is 15:45 UTC, still Aug 23.
	want := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDayOfCrossesMidnight(t *testing.T) {
	// 01:30 on Aug 24 in UTC+3 is 22:30 on Aug 23 UTC.
	ts := time.Date(2026, 8, 24, 1, 30, 0, 0, time.FixedZone("MSK", 3*3600))
	got := DayOf(ts)

	want := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMonthBounds(t *testing.T) {
	ts := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	start, end := MonthBounds(ts)

	if !start.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start: %v", start)
	}
	if !end.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end: %v", end)
	}
}

func TestMonthBoundsDecemberRollover(t *testing.T) {
	ts := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	_, end := MonthBounds(ts)

	if !end.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected January 2027, got %v", end)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2028, 2, 10, 0, 0, 0, 0, time.UTC), 29}, // leap year
		{time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 30},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.date); got != tt.want {
			t.Errorf("DaysInMonth(%v) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestRemainingDaysInMonth(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC), 10},
		{time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC), 1}, // last day divides by 1
		{time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		if got := RemainingDaysInMonth(tt.date); got != tt.want {
			t.Errorf("RemainingDaysInMonth(%v) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
