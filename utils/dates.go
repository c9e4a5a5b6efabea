// utils/dates.go
package utils

import "time"

// DayKeyFormat is the canonical key for per-day buckets.
const DayKeyFormat = "2006-01-02"

// ParseISODate parses an RFC 3339 timestamp or a plain ISO date. Returns the
// zero time when the input matches neither.
func ParseISODate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(DayKeyFormat, s); err == nil {
		return t
	}
	return time.Time{}
}

// DaysBetween expands an inclusive date range into per-day keys, in UTC.
// Dense output: every day appears even if no match falls on it.
func DaysBetween(start, end time.Time) []string {
	start = truncateDay(start)
	end = truncateDay(end)

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayKeyFormat))
	}
	return days
}

// MonthsBetween expands an inclusive range into per-month "2006-01" keys.
func MonthsBetween(start, end time.Time) []string {
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)

	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format("2006-01"))
	}
	return months
}

// DayKey buckets a timestamp into its UTC day.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
