package util

import (
	"testing"
	"time"
)

func TestPreviousMonth_SameYear(t *testing.T) {
	tests := []struct {
		year      int
		month     int
		wantYear  int
		wantMonth int
	}{
		{2026, 6, 2026, 5},   // June -> May
		{2026, 12, 2026, 11}, // Dec -> Nov
		{2026, 2, 2026, 1},   // Feb -> Jan
	}

	for _, tt := range tests {
		gotYear, gotMonth := PreviousMonth(tt.year, tt.month)
		if gotYear != tt.wantYear || gotMonth != tt.wantMonth {
			t.Errorf("PreviousMonth(%d, %d) = (%d, %d), want (%d, %d)",
				tt.year, tt.month, gotYear, gotMonth, tt.wantYear, tt.wantMonth)
		}
	}
}

func TestPreviousMonth_YearBoundary(t *testing.T) {
	gotYear, gotMonth := PreviousMonth(2026, 1)
	if gotYear != 2025 || gotMonth != 12 {
		t.Errorf("PreviousMonth(2026, 1) = (%d, %d), want (2025, 12)", gotYear, gotMonth)
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   int
		wantEnd int
	}{
		{"31 day month", 2026, 1, 31},
		{"february non-leap", 2026, 2, 28},
		{"february leap", 2024, 2, 29},
		{"december", 2026, 12, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthRange(tt.year, tt.month)
			if start.Day() != 1 || int(start.Month()) != tt.month {
				t.Errorf("start = %s, want first of month", start)
			}
			if end.Day() != tt.wantEnd || int(end.Month()) != tt.month {
				t.Errorf("end = %s, want day %d", end, tt.wantEnd)
			}
		})
	}
}

func TestInDateRange(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		date     time.Time
		expected bool
	}{
		{"start is inclusive", start, true},
		{"end is inclusive", end, true},
		{"end day late evening", time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC), true},
		{"day before start", time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), false},
		{"day after end", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InDateRange(tt.date, start, end); got != tt.expected {
				t.Errorf("InDateRange(%s) = %v, want %v", tt.date, got, tt.expected)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-10-19")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDate(got) != "2026-10-19" {
		t.Errorf("round trip = %s", FormatDate(got))
	}

	if _, err := ParseDate("19/10/2026"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestMonthBefore(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid month", time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"leap month end", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"non-leap month end", time.Date(2023, 3, 30, 0, 0, 0, 0, time.UTC), time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"thirty day month", time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
		{"year boundary", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthBefore(tt.in); !got.Equal(tt.want) {
				t.Errorf("MonthBefore(%s) = %s, want %s", FormatDate(tt.in), FormatDate(got), FormatDate(tt.want))
			}
		})
	}
}
