package domain

import (
	"fmt"
	"math"
	"time"
)

// Cadence unit factors, in days. Months and years are approximate by design;
// the cadence is whole-day granularity.
const (
	DaysPerWeek  = 7
	DaysPerMonth = 30
	DaysPerYear  = 365

	// DefaultFrequencyDays is the cadence assigned to a contact that has
	// never had one set.
	DefaultFrequencyDays = 30

	// monthTolerance is how far (in days) a value may sit from a whole
	// month count and still be displayed as months.
	monthTolerance = 3
)

// CadenceUnit is the display unit for a cadence.
type CadenceUnit string

const (
	UnitWeeks  CadenceUnit = "weeks"
	UnitMonths CadenceUnit = "months"
	UnitYears  CadenceUnit = "years"
)

var unitFactors = map[CadenceUnit]int{
	UnitWeeks:  DaysPerWeek,
	UnitMonths: DaysPerMonth,
	UnitYears:  DaysPerYear,
}

// Cadence is the display/edit form of a stored day count.
type Cadence struct {
	Quantity int         `json:"quantity"`
	Unit     CadenceUnit `json:"unit"`
}

// DaysToQuantityUnit converts a stored day count to its display form. It
// picks the largest unit that divides days evenly; failing that, a month
// count within the tolerance; failing that, a rounded week count. Absent or
// non-positive days default to one month.
func DaysToQuantityUnit(days int) Cadence {
	if days <= 0 {
		return Cadence{Quantity: 1, Unit: UnitMonths}
	}
	if days%DaysPerYear == 0 {
		return Cadence{Quantity: days / DaysPerYear, Unit: UnitYears}
	}
	if days%DaysPerMonth == 0 {
		return Cadence{Quantity: days / DaysPerMonth, Unit: UnitMonths}
	}
	if days%DaysPerWeek == 0 {
		return Cadence{Quantity: days / DaysPerWeek, Unit: UnitWeeks}
	}

	months := int(math.Round(float64(days) / DaysPerMonth))
	if months < 1 {
		months = 1
	}
	if abs(months*DaysPerMonth-days) <= monthTolerance {
		return Cadence{Quantity: months, Unit: UnitMonths}
	}

	weeks := int(math.Round(float64(days) / DaysPerWeek))
	if weeks < 1 {
		weeks = 1
	}
	return Cadence{Quantity: weeks, Unit: UnitWeeks}
}

// QuantityUnitToDays converts the display form back to a stored day count.
// Unknown units fall back to months; quantity is clamped to a minimum of 1.
func QuantityUnitToDays(quantity int, unit CadenceUnit) int {
	if quantity < 1 {
		quantity = 1
	}
	factor, ok := unitFactors[unit]
	if !ok {
		factor = DaysPerMonth
	}
	return quantity * factor
}

// DueStatus describes how far a due date is from now, in whole days.
// Days is negative when overdue. Known is false when there is no due date.
type DueStatus struct {
	Known bool   `json:"known"`
	Days  int    `json:"days"`
	Label string `json:"label"`
}

// ComputeDueStatus derives the due status of due relative to now. A nil due
// date yields an unknown status. Day distance is the ceiling of the elapsed
// fraction, so any portion of a day still counts as that day.
func ComputeDueStatus(due *time.Time, now time.Time) DueStatus {
	if due == nil {
		return DueStatus{Known: false, Label: "unknown"}
	}
	days := int(math.Ceil(due.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return DueStatus{Known: true, Days: days, Label: fmt.Sprintf("Overdue by %d day(s)", -days)}
	case days == 0:
		return DueStatus{Known: true, Days: 0, Label: "Due today"}
	default:
		return DueStatus{Known: true, Days: days, Label: fmt.Sprintf("Due in %d day(s)", days)}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
