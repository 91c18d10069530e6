// Package dateutil works with calendar dates as ISO YYYY-MM-DD strings.
// Lexicographic order of ISO dates matches chronological order, which the
// bucketing comparisons rely on, and a date string carries no time component
// or timezone to drift.
package dateutil

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Format renders the calendar date of t in t's location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse converts an ISO date string to a midnight UTC time.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Valid reports whether s is a well-formed ISO date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// AddDays shifts an ISO date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, n)), nil
}

// MondayOf returns midnight of the Monday on or before t, in t's location.
// Sunday belongs to the week started the previous Monday.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	year, month, day := t.AddDate(0, 0, -offset).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Monday-aligned week start for an ISO date.
func WeekStart(date string) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return Format(MondayOf(t)), nil
}

// WeekDates lists the seven ISO dates of the week beginning at weekStart.
func WeekDates(weekStart string) ([]string, error) {
	t, err := Parse(weekStart)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = Format(t.AddDate(0, 0, i))
	}
	return dates, nil
}
