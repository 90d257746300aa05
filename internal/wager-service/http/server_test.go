package httpapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/dto"
	httpapi "github.com/radieske/racebet-wagering-poc/internal/wager-service/http"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/settlement"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/slip"
)

type memSlips map[string]slip.Slip

func (m memSlips) Get(_ context.Context, id string) (slip.Slip, error) {
	s, ok := m[id]
	if !ok {
		return slip.Slip{}, slip.ErrNotFound
	}
	s.Selection = s.Selection.Clone()
	return s, nil
}

func (m memSlips) Put(_ context.Context, s slip.Slip) error {
	m[s.ID] = s
	return nil
}

type scratched map[string][]int

func (s scratched) Scratched(_ context.Context, raceID string) ([]int, error) { return s[raceID], nil }

type fixedBoard struct{ board wager.Board }

func (f fixedBoard) ForSelection(context.Context, wager.Selection) (wager.Board, error) {
	return f.board, nil
}

type names map[string]string

func (n names) RaceNames(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if v, ok := n[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type promo struct{ p *wager.Promo }

func (p promo) Promo(context.Context) (*wager.Promo, error) { return p.p, nil }

type tickets struct {
	saved []wager.Ticket
}

func (t *tickets) SaveTicket(_ context.Context, _ string, tk wager.Ticket) error {
	t.saved = append(t.saved, tk)
	return nil
}

func (t *tickets) ListTickets(context.Context, string, int) ([]wager.Ticket, error) {
	return t.saved, nil
}

func (t *tickets) GetTicket(_ context.Context, _ string, id string) (wager.Ticket, error) {
	for _, tk := range t.saved {
		if tk.ID == id {
			return tk, nil
		}
	}
	return wager.Ticket{}, sql.ErrNoRows
}

type settler struct {
	err   error
	calls int
}

// cobra como a liquidação real faria: contagem do próprio motor
func (s *settler) Place(_ context.Context, _ string, sel wager.Selection, units int) (wager.Settled, error) {
	s.calls++
	if s.err != nil {
		return wager.Settled{}, s.err
	}
	combos := wager.Count(sel)
	cost := wager.UnitCost(sel.BetType)
	return wager.Settled{TicketID: "TK-1", Combos: combos, UnitCost: cost, Units: units, Amount: wager.TotalCost(combos, cost, units)}, nil
}

type publisher struct{ n int }

func (p *publisher) PublishTicketPlaced(context.Context, string, wager.Ticket) error {
	p.n++
	return nil
}

type fixture struct {
	srv     *httptest.Server
	scr     scratched
	tickets *tickets
	settler *settler
	pub     *publisher
	results []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{scr: scratched{}, tickets: &tickets{}, settler: &settler{}, pub: &publisher{}}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 13, 30, 0, 0, time.UTC))
	api := &httpapi.API{
		Log:         zap.NewNop(),
		Slips:       slip.NewService(memSlips{}, f.scr, clock),
		Boards:      fixedBoard{wager.NewBoard([]wager.BoardCell{{Row: 1, Col: 2, Value: 8}, {Row: 1, Col: 3, Value: 20}})},
		Races:       names{"R1": "Cidade Jardim 1"},
		Promo:       promo{&wager.Promo{Percent: 10, Text: "Bonus 10%"}},
		Tickets:     f.tickets,
		Settlement:  f.settler,
		Publisher:   f.pub,
		Clock:       clock,
		CORSOrigins: []string{"*"},
		OnConfirm:   func(r string) { f.results = append(f.results, r) },
	}
	f.srv = httptest.NewServer(api.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, f.srv.URL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		// zera o destino; json.Decode mescla com o valor anterior
		v := reflect.ValueOf(out).Elem()
		v.Set(reflect.Zero(v.Type()))
		_ = json.NewDecoder(res.Body).Decode(out)
	}
	return res.StatusCode
}

func TestForecastFlow(t *testing.T) {
	f := newFixture(t)

	var sr dto.SlipResponse
	if code := f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "forecast", RaceIDs: []string{"R1"}}, &sr); code != http.StatusCreated {
		t.Fatalf("create = %d", code)
	}
	id := sr.Slip.ID
	if sr.Quote.Incomplete != true || sr.Quote.Amount != 0 {
		t.Errorf("empty quote = %+v", sr.Quote)
	}

	for _, tg := range []dto.ToggleRequest{{Slot: 0, Horse: 1}, {Slot: 1, Horse: 2}, {Slot: 1, Horse: 3}} {
		if code := f.do(t, http.MethodPost, "/v1/slips/"+id+"/toggle", tg, &sr); code != http.StatusOK {
			t.Fatalf("toggle %+v = %d", tg, code)
		}
	}
	if sr.Selected == nil || !*sr.Selected {
		t.Error("last toggle should report selected")
	}
	q := sr.Quote
	if q.Combos != 2 || q.Amount != 10 || q.Estimate == nil || q.Estimate.Cells != 2 {
		t.Fatalf("quote = %+v", q)
	}
	// multiplicadores vêm crus do painel; a promoção só entra no pagamento
	if q.Estimate.MinMultiplier != 8 || q.Estimate.MaxMultiplier != 20 {
		t.Errorf("estimate = %+v", q.Estimate)
	}

	if code := f.do(t, http.MethodPut, "/v1/slips/"+id+"/units", map[string]int{"units": 3}, &sr); code != http.StatusOK || sr.Quote.Amount != 30 {
		t.Fatalf("units = %d, amount %d", code, sr.Quote.Amount)
	}

	var rc wager.Receipt
	if code := f.do(t, http.MethodPost, "/v1/slips/"+id+"/confirm", nil, &rc); code != http.StatusCreated {
		t.Fatalf("confirm = %d", code)
	}
	if rc.TicketID != "TK-1" || rc.Amount != 30 || rc.Combos != 2 || rc.PromoPercent == nil {
		t.Errorf("receipt = %+v", rc)
	}
	if len(rc.SelectionLines) != 2 || rc.SelectionLines[0] != "1ST: 1" {
		t.Errorf("lines = %v", rc.SelectionLines)
	}
	if len(f.tickets.saved) != 1 || f.pub.n != 1 {
		t.Errorf("saved=%d published=%d", len(f.tickets.saved), f.pub.n)
	}

	// cupom volta vazio
	if code := f.do(t, http.MethodGet, "/v1/slips/"+id, nil, &sr); code != http.StatusOK || !sr.Quote.Incomplete || sr.Slip.Units != 1 {
		t.Errorf("after confirm = %d %+v", code, sr)
	}

	var hist []wager.Receipt
	if code := f.do(t, http.MethodGet, "/v1/tickets", nil, &hist); code != http.StatusOK || len(hist) != 1 {
		t.Errorf("history = %d %v", code, hist)
	}
}

func TestConfirmBlocksInfeasible(t *testing.T) {
	f := newFixture(t)

	var sr dto.SlipResponse
	f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "TRIFECTA", RaceIDs: []string{"R1"}}, &sr)
	id := sr.Slip.ID
	for slot := 0; slot < 3; slot++ {
		f.do(t, http.MethodPost, "/v1/slips/"+id+"/toggle", dto.ToggleRequest{Slot: slot, Horse: 5}, &sr)
	}
	if sr.Quote.Infeasible != "if 1ST: 5, there is no valid completion" || sr.Quote.Amount != 0 {
		t.Fatalf("quote = %+v", sr.Quote)
	}

	var er dto.ErrorResponse
	if code := f.do(t, http.MethodPost, "/v1/slips/"+id+"/confirm", nil, &er); code != http.StatusConflict {
		t.Fatalf("confirm = %d", code)
	}
	if er.Message != "if 1ST: 5, there is no valid completion" {
		t.Errorf("error = %+v", er)
	}
	if f.settler.calls != 0 || len(f.results) != 1 || f.results[0] != "blocked" {
		t.Errorf("settlement calls=%d results=%v", f.settler.calls, f.results)
	}
}

func TestConfirmIncomplete(t *testing.T) {
	f := newFixture(t)

	var sr dto.SlipResponse
	f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "DAILY_DOUBLE", RaceIDs: []string{"R1", "R2"}}, &sr)
	f.do(t, http.MethodPost, "/v1/slips/"+sr.Slip.ID+"/toggle", dto.ToggleRequest{Slot: 0, Horse: 1}, &sr)

	var er dto.ErrorResponse
	if code := f.do(t, http.MethodPost, "/v1/slips/"+sr.Slip.ID+"/confirm", nil, &er); code != http.StatusConflict {
		t.Fatalf("confirm = %d", code)
	}
	if er.Error != wager.ErrIncompleteSelection.Error() {
		t.Errorf("error = %+v", er)
	}
}

func TestConfirmSettlementFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"transport", errors.New("connection refused"), http.StatusBadGateway},
		{"rejected", settlement.ErrRejected, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.settler.err = tt.err

			var sr dto.SlipResponse
			f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "WIN", RaceIDs: []string{"R1"}}, &sr)
			f.do(t, http.MethodPost, "/v1/slips/"+sr.Slip.ID+"/toggle", dto.ToggleRequest{Slot: 0, Horse: 4}, &sr)

			if code := f.do(t, http.MethodPost, "/v1/slips/"+sr.Slip.ID+"/confirm", nil, nil); code != tt.code {
				t.Errorf("confirm = %d, want %d", code, tt.code)
			}
			if len(f.tickets.saved) != 0 || f.pub.n != 0 {
				t.Error("failed settlement must not create a ticket")
			}
		})
	}
}

func TestScratchedHorseLeavesSlip(t *testing.T) {
	f := newFixture(t)

	var sr dto.SlipResponse
	f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "WIN", RaceIDs: []string{"R1"}}, &sr)
	id := sr.Slip.ID
	f.do(t, http.MethodPost, "/v1/slips/"+id+"/toggle", dto.ToggleRequest{Slot: 0, Horse: 3}, &sr)
	f.do(t, http.MethodPost, "/v1/slips/"+id+"/toggle", dto.ToggleRequest{Slot: 0, Horse: 7}, &sr)

	f.scr["R1"] = []int{7}
	f.do(t, http.MethodGet, "/v1/slips/"+id, nil, &sr)
	if sr.Quote.Combos != 1 || len(sr.Quote.Lines) != 1 || sr.Quote.Lines[0] != "WIN: 3" {
		t.Errorf("healed quote = %+v", sr.Quote)
	}
}

func TestUnitsFromAmount(t *testing.T) {
	f := newFixture(t)

	var sr dto.SlipResponse
	f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "WIN", RaceIDs: []string{"R1"}}, &sr)
	id := sr.Slip.ID
	if code := f.do(t, http.MethodPut, "/v1/slips/"+id+"/units", map[string]float64{"amount": 20}, nil); code != http.StatusConflict {
		t.Errorf("amount on empty slip = %d, want 409", code)
	}
	f.do(t, http.MethodPost, "/v1/slips/"+id+"/toggle", dto.ToggleRequest{Slot: 0, Horse: 3}, &sr)
	f.do(t, http.MethodPost, "/v1/slips/"+id+"/toggle", dto.ToggleRequest{Slot: 0, Horse: 7}, &sr)

	if code := f.do(t, http.MethodPut, "/v1/slips/"+id+"/units", map[string]float64{"amount": 20}, &sr); code != http.StatusOK {
		t.Fatalf("units = %d", code)
	}
	if sr.Slip.Units != 2 || sr.Quote.Amount != 20 {
		t.Errorf("units=%d amount=%d", sr.Slip.Units, sr.Quote.Amount)
	}

	if code := f.do(t, http.MethodPut, "/v1/slips/"+id+"/units", map[string]any{"units": 1, "amount": 5}, nil); code != http.StatusBadRequest {
		t.Errorf("both fields = %d, want 400", code)
	}
	if code := f.do(t, http.MethodPut, "/v1/slips/"+id+"/units", map[string]int{"units": 0}, nil); code != http.StatusBadRequest {
		t.Errorf("units 0 = %d, want 400", code)
	}
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)

	if code := f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "EXACTA", RaceIDs: []string{"R1"}}, nil); code != http.StatusBadRequest {
		t.Errorf("unknown bet type = %d", code)
	}
	if code := f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "PICK4", RaceIDs: []string{"R1"}}, nil); code != http.StatusBadRequest {
		t.Errorf("wrong race count = %d", code)
	}
	if code := f.do(t, http.MethodGet, "/v1/slips/missing", nil, nil); code != http.StatusNotFound {
		t.Errorf("missing slip = %d", code)
	}

	var sr dto.SlipResponse
	f.do(t, http.MethodPost, "/v1/slips", dto.CreateSlipRequest{BetType: "WIN", RaceIDs: []string{"R1"}}, &sr)
	if code := f.do(t, http.MethodPost, "/v1/slips/"+sr.Slip.ID+"/toggle", dto.ToggleRequest{Slot: 0, Horse: 99}, nil); code != http.StatusBadRequest {
		t.Errorf("horse 99 = %d", code)
	}

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/v1/slips/"+sr.Slip.ID, nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("no user = %d", res.StatusCode)
	}
}

func TestRebet(t *testing.T) {
	f := newFixture(t)
	sel := wager.Selection{BetType: wager.Forecast, RaceID: "R1", Positions: [][]int{{1, 4}, {2}}}
	f.tickets.saved = append(f.tickets.saved, wager.Reconstruct("old-1", sel, 20, time.Time{}))
	f.scr["R1"] = []int{4}

	var sr dto.SlipResponse
	if code := f.do(t, http.MethodPost, "/v1/tickets/old-1/rebet", nil, &sr); code != http.StatusCreated {
		t.Fatalf("rebet = %d", code)
	}
	if sr.Slip.Units != 2 || sr.Quote.Combos != 1 {
		t.Errorf("rebet slip = %+v quote = %+v", sr.Slip, sr.Quote)
	}
	if code := f.do(t, http.MethodPost, "/v1/tickets/nope/rebet", nil, nil); code != http.StatusNotFound {
		t.Errorf("missing ticket = %d", code)
	}
}

func TestListBetTypes(t *testing.T) {
	f := newFixture(t)
	var out []dto.BetTypeInfo
	if code := f.do(t, http.MethodGet, "/v1/bet-types", nil, &out); code != http.StatusOK || len(out) != len(wager.BetTypes()) {
		t.Fatalf("bet types = %d %v", code, out)
	}
	if out[0].BetType != "WIN" || out[0].Kind != "simple" || out[0].UnitCost != 5 {
		t.Errorf("first = %+v", out[0])
	}
}
