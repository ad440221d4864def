// Package dateutil provides date-only arithmetic on midnight-UTC time values.
// The recurrence engine works in calendar dates, never wall-clock times, so
// every helper here normalizes to or assumes 00:00:00 UTC.
package dateutil

import "time"

// ISOLayout is the date format used in persisted pattern records.
const ISOLayout = "2006-01-02"

// MidnightUTC truncates t to its calendar date at midnight UTC.
func MidnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseISO parses a "YYYY-MM-DD" string into a midnight-UTC date.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(ISOLayout, s)
}

// FormatISO renders t's calendar date as "YYYY-MM-DD".
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds a midnight-UTC date, clamping day to the last valid day
// of the month. This is the shared overflow policy for monthly and yearly
// stepping: Jan 31 + 1 month = Feb 29 (leap) or Feb 28, never a skipped month.
func ClampedDate(year int, month time.Month, day int) time.Time {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. Both arguments
// are normalized first, so the result is exact regardless of DST or clock
// components.
func DaysBetween(a, b time.Time) int {
	a = MidnightUTC(a)
	b = MidnightUTC(b)
	return int(b.Sub(a) / (24 * time.Hour))
}

// StartOfWeek returns the Sunday on or before t. Weekday numbering follows
// time.Weekday (0 = Sunday), matching the persisted daysOfWeek values.
func StartOfWeek(t time.Time) time.Time {
	t = MidnightUTC(t)
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// WeeksBetween returns the number of whole calendar weeks (Sunday-anchored)
// elapsed from a's week to b's week.
func WeeksBetween(a, b time.Time) int {
	return DaysBetween(StartOfWeek(a), StartOfWeek(b)) / 7
}
