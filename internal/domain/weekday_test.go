package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday("  Tuesday ")
	require.NoError(t, err)
	assert.Equal(t, Tuesday, day)

	_, err = ParseWeekday("funday")
	assert.Error(t, err)
	_, err = ParseWeekday("")
	assert.Error(t, err)
}

func TestWeekdayOfIsMondayAnchored(t *testing.T) {
	// 2025-08-25 is a Monday.
	monday := time.Date(2025, time.August, 25, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, Monday, WeekdayOf(monday))
	assert.Equal(t, Sunday, WeekdayOf(monday.AddDate(0, 0, 6)))
	assert.Equal(t, Saturday, WeekdayOf(monday.AddDate(0, 0, -2)))
}

func TestWeekStartOf(t *testing.T) {
	thursday := time.Date(2025, time.August, 28, 17, 45, 0, 0, time.UTC)
	start := WeekStartOf(thursday)

	assert.Equal(t, time.Date(2025, time.August, 25, 0, 0, 0, 0, time.UTC), start)
	// A Monday is its own week start.
	assert.Equal(t, start, WeekStartOf(start))
	// Sunday still belongs to the week that started six days earlier.
	sunday := time.Date(2025, time.August, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, start, WeekStartOf(sunday))
}

func TestDateOn(t *testing.T) {
	start := time.Date(2025, time.August, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start, DateOn(start, Monday))
	assert.Equal(t, start.AddDate(0, 0, 3), DateOn(start, Thursday))
	assert.Equal(t, start.AddDate(0, 0, 6), DateOn(start, Sunday))
}

func TestSameDate(t *testing.T) {
	morning := time.Date(2025, time.August, 26, 6, 0, 0, 0, time.UTC)
	evening := time.Date(2025, time.August, 26, 22, 30, 0, 0, time.UTC)
	nextDay := time.Date(2025, time.August, 27, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDate(morning, evening))
	assert.False(t, SameDate(morning, nextDay))
}

// The week key keeps the legacy zero-based month with no padding; changing
// it would orphan every plan already stored under the old format.
func TestWeekKeyUsesZeroBasedMonth(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"mid-week August", time.Date(2025, time.August, 28, 10, 0, 0, 0, time.UTC), "2025-7-25"},
		{"monday itself", time.Date(2025, time.August, 25, 0, 0, 0, 0, time.UTC), "2025-7-25"},
		{"january week", time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC), "2024-0-1"},
		{"year boundary", time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC), "2025-11-29"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekKey(tc.in))
		})
	}
}

func TestParseWeekKeyRoundTrip(t *testing.T) {
	for _, in := range []time.Time{
		time.Date(2025, time.August, 28, 10, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC),
	} {
		key := WeekKey(in)
		monday, err := ParseWeekKey(key)
		require.NoError(t, err, "key %s", key)
		assert.Equal(t, WeekStartOf(in), monday)
		assert.Equal(t, Monday, WeekdayOf(monday))
	}
}

func TestParseWeekKeyRejectsBadKeys(t *testing.T) {
	bad := []string{
		"",
		"2025-7",
		"2025-7-25-extra",
		"abc-7-25",
		"2025-12-1", // month is zero-based, 12 is out of range
		"2025-7-0",
		"2025-7-32",
		"1999-0-4",  // before the epoch we accept
		"2025-7-26", // a Tuesday
		"2025-8-31", // normalizes into October, not a stored Monday
	}
	for _, key := range bad {
		_, err := ParseWeekKey(key)
		assert.Error(t, err, "key %q should be rejected", key)
	}
}

func TestParseWeekKeyRejectsISOFormat(t *testing.T) {
	// An ISO-looking key parses numerically but lands one month off, which
	// almost never falls on a Monday; here it resolves to a Thursday.
	_, err := ParseWeekKey("2025-8-25")
	assert.Error(t, err)
}

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, 0, Monday.Index())
	assert.Equal(t, 6, Sunday.Index())
	assert.Equal(t, -1, Weekday("funday").Index())
}
