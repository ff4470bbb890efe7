package services

import (
	"testing"

	"moneta/internal/core"
)

func TestDayStepper_Next(t *testing.T) {
	tests := []struct {
		name    string
		days    int
		current core.Date
		want    string
	}{
		{"daily", 1, core.NewDate(2025, 3, 15), "2025-03-16"},
		{"daily across month end", 1, core.NewDate(2025, 3, 31), "2025-04-01"},
		{"weekly", 7, core.NewDate(2025, 3, 15), "2025-03-22"},
		{"bi-weekly", 14, core.NewDate(2025, 12, 25), "2026-01-08"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayStepper{Days: tt.days}.Next(tt.current, core.Date{})
			if got.String() != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonthStepper_Next(t *testing.T) {
	tests := []struct {
		name    string
		months  int
		current core.Date
		anchor  core.Date
		want    string
	}{
		{
			name:    "mid-month keeps day",
			months:  1,
			current: core.NewDate(2025, 3, 15),
			anchor:  core.NewDate(2025, 1, 15),
			want:    "2025-04-15",
		},
		{
			name:    "clamps 31st into February",
			months:  1,
			current: core.NewDate(2025, 1, 31),
			anchor:  core.NewDate(2025, 1, 31),
			want:    "2025-02-28",
		},
		{
			name:    "restores anchor day after clamped month",
			months:  1,
			current: core.NewDate(2025, 2, 28),
			anchor:  core.NewDate(2025, 1, 31),
			want:    "2025-03-31",
		},
		{
			name:    "leap February keeps 29",
			months:  1,
			current: core.NewDate(2024, 1, 31),
			anchor:  core.NewDate(2024, 1, 31),
			want:    "2024-02-29",
		},
		{
			name:    "quarterly wraps the year",
			months:  3,
			current: core.NewDate(2025, 11, 10),
			anchor:  core.NewDate(2025, 2, 10),
			want:    "2026-02-10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthStepper{Months: tt.months}.Next(tt.current, tt.anchor)
			if got.String() != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestYearStepper_Next(t *testing.T) {
	tests := []struct {
		name    string
		current core.Date
		anchor  core.Date
		want    string
	}{
		{
			name:    "plain year step",
			current: core.NewDate(2025, 6, 10),
			anchor:  core.NewDate(2024, 6, 10),
			want:    "2026-06-10",
		},
		{
			name:    "leap anchor clamps in non-leap year",
			current: core.NewDate(2024, 2, 29),
			anchor:  core.NewDate(2024, 2, 29),
			want:    "2025-02-28",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearStepper{}.Next(tt.current, tt.anchor)
			if got.String() != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetFrequencyStepper(t *testing.T) {
	for _, f := range []core.Frequency{core.Daily, core.Weekly, core.BiWeekly, core.Monthly, core.Quarterly, core.Yearly} {
		if _, err := GetFrequencyStepper(f); err != nil {
			t.Errorf("GetFrequencyStepper(%s) error: %v", f, err)
		}
	}
	if _, err := GetFrequencyStepper("fortnightly"); err == nil {
		t.Error("GetFrequencyStepper(fortnightly) expected error")
	}
}
