package cost

import "time"

// DailyBucket is a per-UTC-day aggregate of cost, tokens, and activity.
// Buckets are a computed view: always re-derivable from the activity
// records of that day, never the source of truth.
type DailyBucket struct {
	Day        time.Time `json:"day"`
	CostMicro  Micro     `json:"cost_usd_micro"`
	CostUSD    float64   `json:"cost_usd"`
	Tokens     int64     `json:"tokens"`
	Activities int64     `json:"activities"`
	Agents     int64     `json:"agents"`
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the half-open UTC interval [first of month, first of
// next month) containing t.
func MonthBounds(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// DaysInMonth returns the number of calendar days in t's UTC month.
func DaysInMonth(t time.Time) int {
	start, end := MonthBounds(t)
	return int(end.Sub(start).Hours() / 24)
}

// RemainingDaysInMonth returns the number of days left in t's UTC month,
// counting t's own day. Never less than 1: the last day of the month still
// divides by 1.
func RemainingDaysInMonth(t time.Time) int {
	u := t.UTC()
	remaining := DaysInMonth(t) - u.Day() + 1
	if remaining < 1 {
		return 1
	}
	return remaining
}
