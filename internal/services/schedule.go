// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for advancing recurring-rule due
// dates. Each frequency has its own stepper encapsulating the calendar
// arithmetic for one step forward.

package services

import (
	"fmt"
	"time"

	"plata/internal/core"
)

// FrequencyStepper advances a due date by exactly one occurrence.
//
// anchor is the rule's start date. Month and year steps derive their target
// day (and month, for yearly) from the anchor rather than from the clamped
// previous occurrence, so a rule anchored on the 31st returns to the 31st
// after passing through a short month instead of drifting permanently.
type FrequencyStepper interface {
	Next(from time.Time, anchor core.Date) time.Time
}

// DailyStepper advances by one day.
type DailyStepper struct{}

func (DailyStepper) Next(from time.Time, _ core.Date) time.Time {
	return from.AddDate(0, 0, 1)
}

// WeeklyStepper advances by seven days.
type WeeklyStepper struct{}

func (WeeklyStepper) Next(from time.Time, _ core.Date) time.Time {
	return from.AddDate(0, 0, 7)
}

// BiweeklyStepper advances by fourteen days.
type BiweeklyStepper struct{}

func (BiweeklyStepper) Next(from time.Time, _ core.Date) time.Time {
	return from.AddDate(0, 0, 14)
}

// MonthlyStepper advances to the anchor day of the following month,
// clamped to the last day when the target month is shorter.
type MonthlyStepper struct{}

func (MonthlyStepper) Next(from time.Time, anchor core.Date) time.Time {
	// Normalize to the first of the next month, then clamp the anchor day.
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	day := clampDay(anchor.Day(), first.Year(), first.Month())
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// YearlyStepper advances to the anchor month and day of the following year.
// A Feb-29 anchor clamps to Feb-28 in common years.
type YearlyStepper struct{}

func (YearlyStepper) Next(from time.Time, anchor core.Date) time.Time {
	year := from.Year() + 1
	month := time.Month(anchor.Month())
	day := clampDay(anchor.Day(), year, month)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// clampDay bounds a day-of-month to the length of the given month.
func clampDay(day, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// frequencySteppers maps each frequency to its stepper.
var frequencySteppers = map[core.Frequency]FrequencyStepper{
	core.Daily:    DailyStepper{},
	core.Weekly:   WeeklyStepper{},
	core.Biweekly: BiweeklyStepper{},
	core.Monthly:  MonthlyStepper{},
	core.Yearly:   YearlyStepper{},
}

// StepperFor returns the stepper for a frequency, or an error for values
// that reached the database without passing validation.
func StepperFor(frequency core.Frequency) (FrequencyStepper, error) {
	stepper, ok := frequencySteppers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return stepper, nil
}
