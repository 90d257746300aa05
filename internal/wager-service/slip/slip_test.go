package slip_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/slip"
)

type memStore struct {
	slips map[string]slip.Slip
	puts  int
}

func (m *memStore) Get(_ context.Context, id string) (slip.Slip, error) {
	s, ok := m.slips[id]
	if !ok {
		return slip.Slip{}, slip.ErrNotFound
	}
	return slip.Slip{ID: s.ID, UserID: s.UserID, Selection: s.Selection.Clone(), Units: s.Units, UpdatedAt: s.UpdatedAt}, nil
}

func (m *memStore) Put(_ context.Context, s slip.Slip) error {
	m.puts++
	m.slips[s.ID] = s
	return nil
}

type scratchMap map[string][]int

func (m scratchMap) Scratched(_ context.Context, raceID string) ([]int, error) {
	return m[raceID], nil
}

func newService(scr scratchMap) (*slip.Service, *memStore, *clockwork.FakeClock) {
	st := &memStore{slips: map[string]slip.Slip{}}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC))
	return slip.NewService(st, scr, clock), st, clock
}

func TestCreateAndToggle(t *testing.T) {
	svc, _, clock := newService(scratchMap{})
	ctx := context.Background()

	sl, err := svc.Create(ctx, "u1", wager.Forecast, []string{"R1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sl.Units != 1 || !sl.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("new slip = %+v", sl)
	}

	sl, on, err := svc.Toggle(ctx, sl.ID, 0, 4)
	if err != nil || !on {
		t.Fatalf("Toggle on = %v, %v", on, err)
	}
	sl, on, err = svc.Toggle(ctx, sl.ID, 0, 4)
	if err != nil || on {
		t.Fatalf("Toggle off = %v, %v", on, err)
	}
	if len(sl.Selection.Positions[0]) != 0 {
		t.Errorf("positions = %v", sl.Selection.Positions)
	}

	if _, _, err := svc.Toggle(ctx, sl.ID, 2, 1); !errors.Is(err, wager.ErrSlotOutOfRange) {
		t.Errorf("Toggle(slot 2) err = %v", err)
	}
}

func TestGetHealsScratchedHorses(t *testing.T) {
	scr := scratchMap{}
	svc, st, _ := newService(scr)
	ctx := context.Background()

	sl, _ := svc.Create(ctx, "u1", wager.DailyDouble, []string{"R5", "R6"})
	for _, h := range []int{3, 4} {
		sl, _, _ = svc.Toggle(ctx, sl.ID, 0, h)
		sl, _, _ = svc.Toggle(ctx, sl.ID, 1, h)
	}

	scr["R6"] = []int{4}
	before := st.puts
	got, err := svc.Get(ctx, sl.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := [][]int{{3, 4}, {3}}
	if !reflect.DeepEqual(got.Selection.Sets(), want) {
		t.Errorf("sets = %v, want %v", got.Selection.Sets(), want)
	}
	if st.puts != before+1 {
		t.Errorf("healed slip must be written back")
	}

	// leitura sem mudança não grava
	if _, err := svc.Get(ctx, sl.ID); err != nil || st.puts != before+1 {
		t.Errorf("clean read wrote the slip (puts=%d)", st.puts)
	}
}

func TestToggleScratchedHorseStaysOff(t *testing.T) {
	svc, _, _ := newService(scratchMap{"R1": {7}})
	ctx := context.Background()

	sl, _ := svc.Create(ctx, "u1", wager.Win, []string{"R1"})
	sl, on, err := svc.Toggle(ctx, sl.ID, 0, 7)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if on || len(sl.Selection.Horses) != 0 {
		t.Errorf("scratched horse selected: on=%v horses=%v", on, sl.Selection.Horses)
	}
}

func TestSetBetTypeClearsSelection(t *testing.T) {
	svc, _, _ := newService(scratchMap{})
	ctx := context.Background()

	sl, _ := svc.Create(ctx, "u1", wager.Trifecta, []string{"R1"})
	sl, _, _ = svc.Toggle(ctx, sl.ID, 0, 1)
	sl, err := svc.SetBetType(ctx, sl.ID, wager.Pick4, []string{"A", "B", "C", "D"})
	if err != nil {
		t.Fatalf("SetBetType: %v", err)
	}
	if sl.Selection.BetType != wager.Pick4 || sl.Selection.Positions != nil || len(sl.Selection.Legs) != 4 {
		t.Errorf("selection = %+v", sl.Selection)
	}

	if _, err := svc.SetBetType(ctx, sl.ID, wager.Pick4, []string{"A"}); !errors.Is(err, wager.ErrRaceCount) {
		t.Errorf("err = %v, want ErrRaceCount", err)
	}
}

func TestUnitsAndAmount(t *testing.T) {
	svc, _, _ := newService(scratchMap{})
	ctx := context.Background()

	sl, _ := svc.Create(ctx, "u1", wager.Win, []string{"R1"})
	if _, err := svc.SetAmount(ctx, sl.ID, 30); !errors.Is(err, wager.ErrIncompleteSelection) {
		t.Errorf("SetAmount on empty slip err = %v", err)
	}
	sl, _, _ = svc.Toggle(ctx, sl.ID, 0, 3)
	sl, _, _ = svc.Toggle(ctx, sl.ID, 0, 7)

	if _, err := svc.SetUnits(ctx, sl.ID, 0); !errors.Is(err, wager.ErrInvalidUnits) {
		t.Errorf("SetUnits(0) err = %v", err)
	}
	sl, err := svc.SetUnits(ctx, sl.ID, 4)
	if err != nil || sl.Units != 4 {
		t.Fatalf("SetUnits = %d, %v", sl.Units, err)
	}

	// 2 combos x 5 = 10 por unidade
	sl, err = svc.SetAmount(ctx, sl.ID, 30)
	if err != nil || sl.Units != 3 {
		t.Errorf("SetAmount(30) units = %d, %v", sl.Units, err)
	}
}

func TestSetAmountKeepsUnitsWhenInfeasible(t *testing.T) {
	svc, st, _ := newService(scratchMap{})
	ctx := context.Background()

	sl, _ := svc.Create(ctx, "u1", wager.Forecast, []string{"R1"})
	sl, _, _ = svc.Toggle(ctx, sl.ID, 0, 4)
	sl, _, _ = svc.Toggle(ctx, sl.ID, 1, 4)
	sl, _ = svc.SetUnits(ctx, sl.ID, 3)

	_, err := svc.SetAmount(ctx, sl.ID, 50)
	var serr *wager.SelectionError
	if !errors.As(err, &serr) || !errors.Is(err, wager.ErrInfeasibleSelection) {
		t.Fatalf("err = %v, want infeasible", err)
	}
	if st.slips[sl.ID].Units != 3 {
		t.Errorf("units = %d, want 3 untouched", st.slips[sl.ID].Units)
	}
}

func TestResetKeepsRaces(t *testing.T) {
	svc, _, _ := newService(scratchMap{})
	ctx := context.Background()

	sl, _ := svc.Create(ctx, "u1", wager.DailyDouble, []string{"R5", "R5"})
	sl, _, _ = svc.Toggle(ctx, sl.ID, 0, 2)
	sl, _ = svc.SetUnits(ctx, sl.ID, 3)

	sl, err := svc.Reset(ctx, sl)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if sl.Units != 1 || !sl.Selection.Incomplete() || sl.Selection.Legs[1].RaceID != "R5" {
		t.Errorf("reset slip = %+v", sl)
	}
}

func TestGetMissing(t *testing.T) {
	svc, _, _ := newService(scratchMap{})
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, slip.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestReplaceHealsRebet(t *testing.T) {
	svc, _, _ := newService(scratchMap{"R1": {2}})
	ctx := context.Background()

	sl, _ := svc.Create(ctx, "u1", wager.Trifecta, []string{"R1"})
	old := wager.Selection{BetType: wager.Trifecta, RaceID: "R1", Positions: [][]int{{1, 2}, {2, 3}, {4}}}

	sl, err := svc.Replace(ctx, sl.ID, old, 3)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !reflect.DeepEqual(sl.Selection.Positions, [][]int{{1}, {3}, {4}}) || sl.Units != 3 {
		t.Errorf("slip = %+v", sl)
	}
	if len(old.Positions[0]) != 2 {
		t.Error("Replace must not mutate the caller's selection")
	}
}
