package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the lower-case day name used as a plan slot key.
// The whole application is Monday-anchored: Monday is the first day of a
// training week, Sunday the last. Any date-to-day conversion MUST go through
// this file instead of using time.Weekday directly (time.Weekday is
// Sunday-based and that mismatch has bitten us before).
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// WeekDays lists all days in plan order (Monday first).
var WeekDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// IsValid reports whether d is one of the seven known day names.
func (d Weekday) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// ParseWeekday normalizes and validates a day name coming from a request.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("invalid weekday %q", s)
	}
	return d, nil
}

// WeekdayOf returns the Monday-anchored day name for a calendar date.
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday: Sunday=0 ... Saturday=6. Shift to Monday=0.
	idx := (int(t.Weekday()) + 6) % 7
	return WeekDays[idx]
}

// Index returns the Monday-based offset (monday=0 ... sunday=6) of the day,
// or -1 for an unknown name.
func (d Weekday) Index() int {
	for i, day := range WeekDays {
		if day == d {
			return i
		}
	}
	return -1
}

// WeekStartOf truncates a timestamp to the Monday of its week, at midnight
// in the timestamp's location.
func WeekStartOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// DateOn returns the calendar date the given weekday falls on within the
// week starting at weekStart (which must be a Monday midnight).
func DateOn(weekStart time.Time, d Weekday) time.Time {
	return weekStart.AddDate(0, 0, d.Index())
}

// SameDate reports whether two timestamps fall on the same calendar date,
// ignoring the time of day. Both are compared in a's location.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekKey renders the storage key suffix for the week containing t.
//
// The format is "year-month-day" of that week's Monday with a ZERO-BASED
// month and no zero padding (e.g. 2024-0-1 for January 1st 2024). This is
// the format the mobile client has been writing since the first release;
// normalizing it to ISO-8601 would orphan every stored plan, so the quirk
// is kept deliberately.
func WeekKey(t time.Time) string {
	monday := WeekStartOf(t)
	return fmt.Sprintf("%d-%d-%d", monday.Year(), int(monday.Month())-1, monday.Day())
}

// ParseWeekKey recovers the week's Monday (midnight UTC) from a legacy week
// key. It rejects keys whose date is not a Monday or whose fields are out of
// range, so a mistyped key can never address a phantom week.
func ParseWeekKey(key string) (time.Time, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid week key %q", key)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2200 {
		return time.Time{}, fmt.Errorf("invalid week key year %q", key)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 0 || month > 11 {
		return time.Time{}, fmt.Errorf("invalid week key month %q", key)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid week key day %q", key)
	}
	// Month is stored zero-based.
	monday := time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.UTC)
	if monday.Day() != day || WeekdayOf(monday) != Monday {
		return time.Time{}, fmt.Errorf("week key %q is not a Monday", key)
	}
	return monday, nil
}
