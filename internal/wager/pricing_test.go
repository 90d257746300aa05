package wager_test

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
)

func TestUnitCost(t *testing.T) {
	tests := []struct {
		bt   wager.BetType
		want wager.Money
	}{
		{wager.Win, 5},
		{wager.Place, 5},
		{wager.Forecast, 5},
		{wager.DailyDouble, 5},
		{wager.DailyDoublePlusOne, 5},
		{wager.Trifecta, 2},
		{wager.Quartet, 2},
		{wager.Pick4, 2},
		{wager.Pick5, 2},
		{wager.Pick6, 2},
		{wager.WTA, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.bt), func(t *testing.T) {
			if got := wager.UnitCost(tt.bt); got != tt.want {
				t.Errorf("UnitCost(%s) = %d, want %d", tt.bt, got, tt.want)
			}
		})
	}
}

func TestTotalCostWinScenario(t *testing.T) {
	sel := wager.Selection{BetType: wager.Win, RaceID: "R1", Horses: []int{3, 7}}
	combos := wager.Count(sel)
	amount := wager.TotalCost(combos, wager.UnitCost(wager.Win), 2)
	if combos != 2 || amount != 20 {
		t.Errorf("combos=%d amount=%d, want combos=2 amount=20", combos, amount)
	}
}

func TestDeriveUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		combos   int
		unitCost wager.Money
		want     int
	}{
		{"exact", 60, 3, 5, 4},
		{"float noise above", 60.0000001, 3, 5, 4},
		{"float noise below", 59.9999999, 3, 5, 4},
		{"uneven floors", 65, 3, 5, 4},
		{"below one unit", 10, 3, 5, 1},
		{"zero amount", 0, 3, 5, 1},
		{"negative amount", -40, 3, 5, 1},
		{"zero combos", 40, 0, 5, 1},
		{"zero unit cost", 40, 3, 0, 1},
		{"nan amount", math.NaN(), 3, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wager.DeriveUnits(tt.amount, tt.combos, tt.unitCost); got != tt.want {
				t.Errorf("DeriveUnits(%v, %d, %d) = %d, want %d", tt.amount, tt.combos, tt.unitCost, got, tt.want)
			}
		})
	}
}

func TestDeriveUnitsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		combos := rapid.IntRange(1, 5040).Draw(t, "combos")
		unitCost := wager.Money(rapid.IntRange(1, 10).Draw(t, "unitCost"))
		units := rapid.IntRange(1, 500).Draw(t, "units")

		amount := wager.TotalCost(combos, unitCost, units)
		if got := wager.DeriveUnits(float64(amount), combos, unitCost); got != units {
			t.Fatalf("DeriveUnits(%d, %d, %d) = %d, want %d", amount, combos, unitCost, got, units)
		}
	})
}
