package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/dto"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/settlement"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/slip"
)

type ctxKey struct{}

// requireUser lê o usuário do header X-User-ID (autenticação fica no gateway)
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get("X-User-ID")
		if uid == "" {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "missing X-User-ID"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, uid)))
	})
}

func userID(r *http.Request) string {
	uid, _ := r.Context().Value(ctxKey{}).(string)
	return uid
}

// writeError converte erros do motor/cupom em status HTTP
func (a *API) writeError(w http.ResponseWriter, err error) {
	var serr *wager.SelectionError
	switch {
	case errors.As(err, &serr):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: serr.Kind.Error(), Message: serr.Message})
	case errors.Is(err, slip.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "slip not found"})
	case errors.Is(err, wager.ErrUnknownBetType),
		errors.Is(err, wager.ErrInvalidHorse),
		errors.Is(err, wager.ErrSlotOutOfRange),
		errors.Is(err, wager.ErrRaceCount),
		errors.Is(err, wager.ErrInvalidUnits):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		a.Log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func (a *API) listBetTypes(w http.ResponseWriter, _ *http.Request) {
	out := make([]dto.BetTypeInfo, 0, len(wager.BetTypes()))
	for _, bt := range wager.BetTypes() {
		out = append(out, dto.BetTypeInfo{
			BetType:  bt.String(),
			Kind:     bt.Kind().String(),
			Slots:    bt.Slots(),
			UnitCost: int64(wager.UnitCost(bt)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// loadSlip busca o cupom do usuário; cupom de outro usuário é tratado como inexistente
func (a *API) loadSlip(r *http.Request) (slip.Slip, error) {
	sl, err := a.Slips.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return slip.Slip{}, err
	}
	if sl.UserID != userID(r) {
		return slip.Slip{}, slip.ErrNotFound
	}
	return sl, nil
}

// quote monta a cotação com painel, promoção e nomes dos páreos.
// Falha em qualquer fonte auxiliar só empobrece a prévia.
func (a *API) quote(ctx context.Context, sl slip.Slip) wager.Quotation {
	board, err := a.Boards.ForSelection(ctx, sl.Selection)
	if err != nil {
		a.Log.Warn("board read failed", zap.Error(err))
		board = wager.NewBoard(nil)
	}
	promo, err := a.Promo.Promo(ctx)
	if err != nil {
		a.Log.Warn("promo read failed", zap.Error(err))
	}
	return wager.Quote(sl.Selection, sl.Units, board, promo, a.raceNames(ctx, sl.Selection))
}

func (a *API) raceNames(ctx context.Context, sel wager.Selection) map[string]string {
	names, err := a.Races.RaceNames(ctx, sel.RaceIDs())
	if err != nil {
		a.Log.Warn("race names read failed", zap.Error(err))
		return nil
	}
	return names
}

func (a *API) respondSlip(w http.ResponseWriter, r *http.Request, status int, sl slip.Slip, selected *bool) {
	writeJSON(w, status, dto.SlipResponse{Slip: sl, Quote: a.quote(r.Context(), sl), Selected: selected})
}

func (a *API) createSlip(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSlipRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	bt, err := wager.ParseBetType(req.BetType)
	if err != nil {
		a.writeError(w, err)
		return
	}
	sl, err := a.Slips.Create(r.Context(), userID(r), bt, req.RaceIDs)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.respondSlip(w, r, http.StatusCreated, sl, nil)
}

func (a *API) getSlip(w http.ResponseWriter, r *http.Request) {
	sl, err := a.loadSlip(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.respondSlip(w, r, http.StatusOK, sl, nil)
}

func (a *API) setBetType(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSlipRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	bt, err := wager.ParseBetType(req.BetType)
	if err != nil {
		a.writeError(w, err)
		return
	}
	sl, err := a.loadSlip(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	sl, err = a.Slips.SetBetType(r.Context(), sl.ID, bt, req.RaceIDs)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.respondSlip(w, r, http.StatusOK, sl, nil)
}

func (a *API) toggle(w http.ResponseWriter, r *http.Request) {
	var req dto.ToggleRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return
	}
	sl, err := a.loadSlip(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	sl, on, err := a.Slips.Toggle(r.Context(), sl.ID, req.Slot, req.Horse)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.respondSlip(w, r, http.StatusOK, sl, &on)
}

func (a *API) setUnits(w http.ResponseWriter, r *http.Request) {
	var req dto.UnitsRequest
	if err := decode(r, &req); err != nil || (req.Units == nil) == (req.Amount == nil) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "send exactly one of units or amount"})
		return
	}
	sl, err := a.loadSlip(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if req.Units != nil {
		sl, err = a.Slips.SetUnits(r.Context(), sl.ID, *req.Units)
	} else {
		sl, err = a.Slips.SetAmount(r.Context(), sl.ID, *req.Amount)
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.respondSlip(w, r, http.StatusOK, sl, nil)
}

// confirm valida, liquida, grava e publica o bilhete; devolve o recibo
func (a *API) confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(r)

	// 1) Cupom já sem retirados
	sl, err := a.loadSlip(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	// 2) Bloqueia seleção incompleta ou inviável com a mensagem do motor
	if err := wager.Validate(sl.Selection); err != nil {
		a.confirmed("blocked")
		a.writeError(w, err)
		return
	}

	// 3) Liquidação externa é a fonte de verdade dos números
	settled, err := a.Settlement.Place(ctx, uid, sl.Selection, sl.Units)
	if err != nil {
		if errors.Is(err, settlement.ErrRejected) {
			a.confirmed("rejected")
			writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "settlement rejected", Message: err.Error()})
			return
		}
		a.confirmed("failed")
		a.Log.Warn("settlement failed", zap.String("slip_id", sl.ID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: "settlement unavailable"})
		return
	}
	ticket := wager.NewTicket(sl.Selection, settled, a.now())

	// 4) Persistência e evento não desfazem um bilhete já aceito pelo tote
	if err := a.Tickets.SaveTicket(ctx, uid, ticket); err != nil {
		a.Log.Error("save ticket failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if err := a.Publisher.PublishTicketPlaced(ctx, uid, ticket); err != nil {
		a.Log.Warn("publish ticket_placed failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	// 5) Cupom volta vazio para a próxima aposta
	if _, err := a.Slips.Reset(ctx, sl); err != nil {
		a.Log.Warn("slip reset failed", zap.String("slip_id", sl.ID), zap.Error(err))
	}

	a.confirmed("placed")
	a.Log.Info("ticket placed",
		zap.String("ticket_id", ticket.ID),
		zap.String("bet_type", ticket.BetType.String()),
		zap.Int("combos", ticket.Combos),
		zap.Int64("amount", int64(ticket.Amount)),
	)

	promo, _ := a.Promo.Promo(ctx)
	writeJSON(w, http.StatusCreated, wager.NewReceipt(ticket, a.raceNames(ctx, ticket.Selection), promo))
}

func (a *API) listTickets(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	tickets, err := a.Tickets.ListTickets(r.Context(), userID(r), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	promo, _ := a.Promo.Promo(r.Context())
	out := make([]wager.Receipt, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, wager.NewReceipt(t, a.raceNames(r.Context(), t.Selection), promo))
	}
	writeJSON(w, http.StatusOK, out)
}

// rebet abre um cupom novo com a seleção de um bilhete anterior
func (a *API) rebet(w http.ResponseWriter, r *http.Request) {
	t, err := a.Tickets.GetTicket(r.Context(), userID(r), chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "ticket not found"})
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}

	sel := t.Rebet()
	sl, err := a.Slips.Create(r.Context(), userID(r), sel.BetType, legRaces(sel))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if sl, err = a.Slips.Replace(r.Context(), sl.ID, sel, t.Units); err != nil {
		a.writeError(w, err)
		return
	}
	a.respondSlip(w, r, http.StatusCreated, sl, nil)
}

// legRaces devolve um raceID por perna (ou o páreo único)
func legRaces(sel wager.Selection) []string {
	if sel.BetType.Kind() != wager.KindMultiLeg {
		return []string{sel.RaceID}
	}
	out := make([]string, len(sel.Legs))
	for i, l := range sel.Legs {
		out[i] = l.RaceID
	}
	return out
}
