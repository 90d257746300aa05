package wager_test

import (
	"reflect"
	"testing"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
)

func TestFormat(t *testing.T) {
	names := map[string]string{"race-0005": "Santa Anita R5"}

	tests := []struct {
		name string
		sel  wager.Selection
		want []string
	}{
		{
			name: "win",
			sel:  wager.Selection{BetType: wager.Win, RaceID: "R1", Horses: []int{3, 7}},
			want: []string{"WIN: 3, 7"},
		},
		{
			name: "trifecta with empty slot",
			sel:  ordered(wager.Trifecta, []int{1, 2}, []int{}, []int{4}),
			want: []string{"1ST: 1, 2", "2ND: -", "3RD: 4"},
		},
		{
			name: "daily double known and unknown race",
			sel: wager.Selection{BetType: wager.DailyDouble, Legs: []wager.Leg{
				{RaceID: "race-0005", Horses: []int{4}},
				{RaceID: "4f1c2a9e-77aa-4d2b", Horses: []int{1, 6}},
			}},
			want: []string{"LEG 1 (Santa Anita R5): 4", "LEG 2 (4f1c2a9e): 1, 6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wager.Format(tt.sel, names)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	sel := legs(wager.Pick4, []int{1}, []int{2, 3}, []int{}, []int{9})
	first := wager.Format(sel, nil)
	second := wager.Format(sel, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Format() not idempotent: %q vs %q", first, second)
	}
}
