package totesim

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	sdto "github.com/radieske/racebet-wagering-poc/internal/wager-service/settlement/dto"
)

// RaceState é o que a liquidação simulada precisa saber do card
type RaceState interface {
	IsScratched(raceID string, horse int) bool
	Runners(raceID string) int
}

// SettlementHandler é o mock de POST /settlement/place.
// Precifica com o próprio motor e recusa cavalos retirados ou inexistentes.
type SettlementHandler struct {
	Log   *zap.Logger
	State RaceState

	OnResult func(status string)
}

func (h *SettlementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req sdto.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp := h.place(req)
	if h.OnResult != nil {
		h.OnResult(resp.Status)
	}
	h.Log.Info("settlement request",
		zap.String("request_id", req.RequestID),
		zap.String("bet_type", req.BetType),
		zap.String("status", resp.Status),
		zap.String("reason", resp.Reason),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *SettlementHandler) place(req sdto.PlaceRequest) sdto.PlaceResponse {
	reject := func(reason string) sdto.PlaceResponse {
		return sdto.PlaceResponse{Status: sdto.StatusRejected, Reason: reason}
	}

	bt, err := wager.ParseBetType(req.BetType)
	if err != nil {
		return reject("unknown_bet_type")
	}
	if req.Units < 1 {
		return reject("invalid_units")
	}
	sel, err := wager.SelectionFromPayload(bt, req.RaceID, req.Selection)
	if err != nil {
		return reject("invalid_selection")
	}
	if err := wager.Validate(sel); err != nil {
		return reject("invalid_selection")
	}
	if reason := h.checkRunners(sel); reason != "" {
		return reject(reason)
	}

	combos := wager.Count(sel)
	cost := wager.UnitCost(bt)
	return sdto.PlaceResponse{
		Status:   sdto.StatusAccepted,
		TicketID: "TOTE-" + uuid.NewString()[:8],
		Combos:   combos,
		UnitCost: int64(cost),
		Units:    req.Units,
		Amount:   int64(wager.TotalCost(combos, cost, req.Units)),
	}
}

func (h *SettlementHandler) checkRunners(sel wager.Selection) string {
	for i, set := range sel.Sets() {
		race := sel.RaceID
		if sel.BetType.Kind() == wager.KindMultiLeg {
			race = sel.Legs[i].RaceID
		}
		n := h.State.Runners(race)
		if n == 0 {
			return "unknown_race"
		}
		for _, horse := range set {
			if horse > n {
				return "unknown_runner"
			}
			if h.State.IsScratched(race, horse) {
				return "scratched_runner"
			}
		}
	}
	return ""
}
