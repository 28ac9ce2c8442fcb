package services

import (
	"testing"
	"time"

	"plata/internal/core"
)

func TestDailyWeeklyBiweeklySteppers(t *testing.T) {
	anchor := core.NewDate(2024, 1, 1)
	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		stepper FrequencyStepper
		want    string
	}{
		{name: "daily", stepper: DailyStepper{}, want: "2024-01-16"},
		{name: "weekly", stepper: WeeklyStepper{}, want: "2024-01-22"},
		{name: "biweekly", stepper: BiweeklyStepper{}, want: "2024-01-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.stepper.Next(from, anchor)
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("Next() = %s, want %s", got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestMonthlyStepper_Next(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		anchor core.Date
		want   string
	}{
		{
			name:   "plain month step keeps day",
			from:   "2024-01-15",
			anchor: core.NewDate(2024, 1, 15),
			want:   "2024-02-15",
		},
		{
			name:   "day 31 clamps into 30-day month",
			from:   "2024-03-31",
			anchor: core.NewDate(2024, 1, 31),
			want:   "2024-04-30",
		},
		{
			name:   "clamped month returns to anchor day, no drift",
			from:   "2024-04-30",
			anchor: core.NewDate(2024, 1, 31),
			want:   "2024-05-31",
		},
		{
			name:   "day 31 clamps to Feb 29 in leap year",
			from:   "2024-01-31",
			anchor: core.NewDate(2024, 1, 31),
			want:   "2024-02-29",
		},
		{
			name:   "day 31 clamps to Feb 28 in common year",
			from:   "2025-01-31",
			anchor: core.NewDate(2025, 1, 31),
			want:   "2025-02-28",
		},
		{
			name:   "december rolls into january",
			from:   "2024-12-15",
			anchor: core.NewDate(2024, 1, 15),
			want:   "2025-01-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, err := time.Parse("2006-01-02", tt.from)
			if err != nil {
				t.Fatalf("parse from: %v", err)
			}
			got := MonthlyStepper{}.Next(from, tt.anchor)
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("Next(%s) = %s, want %s", tt.from, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestYearlyStepper_Next(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		anchor core.Date
		want   string
	}{
		{
			name:   "plain year step",
			from:   "2024-06-15",
			anchor: core.NewDate(2024, 6, 15),
			want:   "2025-06-15",
		},
		{
			name:   "leap day clamps to Feb 28",
			from:   "2024-02-29",
			anchor: core.NewDate(2024, 2, 29),
			want:   "2025-02-28",
		},
		{
			name:   "clamped leap day returns on next leap year",
			from:   "2027-02-28",
			anchor: core.NewDate(2024, 2, 29),
			want:   "2028-02-29",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, err := time.Parse("2006-01-02", tt.from)
			if err != nil {
				t.Fatalf("parse from: %v", err)
			}
			got := YearlyStepper{}.Next(from, tt.anchor)
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("Next(%s) = %s, want %s", tt.from, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestStepperFor(t *testing.T) {
	for _, f := range []core.Frequency{core.Daily, core.Weekly, core.Biweekly, core.Monthly, core.Yearly} {
		if _, err := StepperFor(f); err != nil {
			t.Errorf("StepperFor(%s) unexpected error: %v", f, err)
		}
	}
	if _, err := StepperFor("hourly"); err == nil {
		t.Error("StepperFor(hourly) expected error, got nil")
	}
}
