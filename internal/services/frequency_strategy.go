// Package services holds the engine orchestrators: dashboard
// aggregation, budget progress, and recurring-template materialization.
//
// This file implements the Strategy Pattern for advancing a recurring
// template's due date. Each frequency has its own stepper encapsulating
// the calendar arithmetic for one step.
package services

import (
	"fmt"

	"moneta/internal/core"
)

// FrequencyStepper advances a due date by one frequency step. The anchor
// is the template's start date; month-based steppers clamp to it so a
// template anchored on the 31st lands on the 28th in February and back
// on the 31st in March instead of drifting to the shortest month seen.
type FrequencyStepper interface {
	Next(current, anchor core.Date) core.Date
}

// DayStepper advances by a fixed number of days: 1 for daily, 7 for
// weekly, 14 for bi-weekly.
type DayStepper struct {
	Days int
}

func (s DayStepper) Next(current, _ core.Date) core.Date {
	return current.AddDays(s.Days)
}

// MonthStepper advances by a fixed number of calendar months, preserving
// the anchor's day of month with clamping at month-end overflow.
type MonthStepper struct {
	Months int
}

func (s MonthStepper) Next(current, anchor core.Date) core.Date {
	year := current.Year()
	month := current.Month() + s.Months
	for month > 12 {
		month -= 12
		year++
	}
	day := anchor.Day()
	if last := core.DaysInMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// YearStepper advances by one calendar year, clamping Feb 29 anchors in
// non-leap years.
type YearStepper struct{}

func (YearStepper) Next(current, anchor core.Date) core.Date {
	year := current.Year() + 1
	month := anchor.Month()
	day := anchor.Day()
	if last := core.DaysInMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

var frequencySteppers = map[core.Frequency]FrequencyStepper{
	core.Daily:     DayStepper{Days: 1},
	core.Weekly:    DayStepper{Days: 7},
	core.BiWeekly:  DayStepper{Days: 14},
	core.Monthly:   MonthStepper{Months: 1},
	core.Quarterly: MonthStepper{Months: 3},
	core.Yearly:    YearStepper{},
}

// GetFrequencyStepper returns the stepper for a frequency.
func GetFrequencyStepper(frequency core.Frequency) (FrequencyStepper, error) {
	stepper, ok := frequencySteppers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return stepper, nil
}
