package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampedDate(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  string
	}{
		{"No clamping needed", 2024, time.January, 31, "2024-01-31"},
		{"February leap year", 2024, time.February, 31, "2024-02-29"},
		{"February non-leap year", 2025, time.February, 29, "2025-02-28"},
		{"Thirty day month", 2024, time.April, 31, "2024-04-30"},
		{"Day below range", 2024, time.June, 0, "2024-06-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampedDate(tt.year, tt.month, tt.day)
			assert.Equal(t, tt.want, FormatISO(got))
		})
	}
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2025, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))
	assert.Equal(t, 30, DaysIn(2024, time.September))
}

func TestMidnightUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// The calendar date in the source location is kept, only the clock and
	// zone are dropped.
	in := time.Date(2024, 3, 4, 23, 45, 12, 0, loc)
	got := MidnightUTC(in)
	assert.Equal(t, "2024-03-04", FormatISO(got))
	assert.Equal(t, time.UTC, got.Location())
}

func TestWeeksBetween(t *testing.T) {
	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)  // Monday
	fri := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)  // same week
	sun := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) // next week starts Sunday

	assert.Equal(t, 0, WeeksBetween(mon, fri))
	assert.Equal(t, 1, WeeksBetween(mon, sun))
	assert.Equal(t, 2, WeeksBetween(mon, sun.AddDate(0, 0, 7)))
}

func TestISORoundTrip(t *testing.T) {
	d, err := ParseISO("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatISO(d))

	_, err = ParseISO("2024-2-29")
	assert.Error(t, err)
}
