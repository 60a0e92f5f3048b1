package util

import (
	"fmt"
	"time"
)

// DateFormat is the calendar format used by every API payload and export
const DateFormat = "2006-01-02"

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// InDateRange reports whether t falls on a day within [start, end]
func InDateRange(t, start, end time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(start)) && !d.After(DateOnly(end))
}

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// MonthRange returns the first and last day of the given month
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month is the last day of this one
	end := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

// MonthBefore returns the date one calendar month before t, clamped to the last
// day of that month (2024-03-31 -> 2024-02-29)
func MonthBefore(t time.Time) time.Time {
	d := DateOnly(t)
	year, month := PreviousMonth(d.Year(), int(d.Month()))
	_, last := MonthRange(year, month)
	if d.Day() > last.Day() {
		return last
	}
	return time.Date(year, time.Month(month), d.Day(), 0, 0, 0, 0, time.UTC)
}
