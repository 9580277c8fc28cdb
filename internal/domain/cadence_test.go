package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysToQuantityUnit(t *testing.T) {
	tests := []struct {
		name string
		days int
		want Cadence
	}{
		{"zero defaults to one month", 0, Cadence{Quantity: 1, Unit: UnitMonths}},
		{"negative defaults to one month", -10, Cadence{Quantity: 1, Unit: UnitMonths}},
		{"whole years win over months", 365, Cadence{Quantity: 1, Unit: UnitYears}},
		{"two years", 730, Cadence{Quantity: 2, Unit: UnitYears}},
		{"whole months", 30, Cadence{Quantity: 1, Unit: UnitMonths}},
		{"ninety days is three months", 90, Cadence{Quantity: 3, Unit: UnitMonths}},
		{"whole weeks", 14, Cadence{Quantity: 2, Unit: UnitWeeks}},
		{"within month tolerance rounds to months", 31, Cadence{Quantity: 1, Unit: UnitMonths}},
		{"tolerance upper edge", 33, Cadence{Quantity: 1, Unit: UnitMonths}},
		{"outside tolerance falls back to weeks", 25, Cadence{Quantity: 4, Unit: UnitWeeks}},
		{"tiny value clamps to one week", 2, Cadence{Quantity: 1, Unit: UnitWeeks}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysToQuantityUnit(tt.days))
		})
	}
}

func TestQuantityUnitToDays(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		unit     CadenceUnit
		want     int
	}{
		{"weeks", 2, UnitWeeks, 14},
		{"months", 3, UnitMonths, 90},
		{"years", 1, UnitYears, 365},
		{"zero quantity clamps to one", 0, UnitWeeks, 7},
		{"negative quantity clamps to one", -5, UnitMonths, 30},
		{"unknown unit falls back to months", 2, CadenceUnit("fortnights"), 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuantityUnitToDays(tt.quantity, tt.unit))
		})
	}
}

func TestRoundTripExactMultiples(t *testing.T) {
	// Day counts that are whole multiples of a unit survive the display
	// round trip unchanged.
	for _, days := range []int{7, 14, 21, 30, 60, 90, 365, 730} {
		c := DaysToQuantityUnit(days)
		assert.Equal(t, days, QuantityUnitToDays(c.Quantity, c.Unit), "days=%d", days)
	}
}

func TestComputeDueStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	at := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name      string
		due       *time.Time
		wantKnown bool
		wantDays  int
		wantLabel string
	}{
		{"nil due is unknown", nil, false, 0, "unknown"},
		{"due exactly now", at(now), true, 0, "Due today"},
		{"due earlier today", at(now.Add(-6 * time.Hour)), true, 0, "Due today"},
		{"due later today counts as one day", at(now.Add(12 * time.Hour)), true, 1, "Due in 1 day(s)"},
		{"due in three days", at(now.Add(72 * time.Hour)), true, 3, "Due in 3 day(s)"},
		{"overdue by one day", at(now.Add(-36 * time.Hour)), true, -1, "Overdue by 1 day(s)"},
		{"overdue by five days", at(now.Add(-5 * 24 * time.Hour)), true, -5, "Overdue by 5 day(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDueStatus(tt.due, now)
			assert.Equal(t, tt.wantKnown, got.Known)
			assert.Equal(t, tt.wantDays, got.Days)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}
