package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/repo"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/slip"
)

type BoardSource interface {
	ForSelection(ctx context.Context, sel wager.Selection) (wager.Board, error)
}

type TicketStore interface {
	SaveTicket(ctx context.Context, userID string, t wager.Ticket) error
	ListTickets(ctx context.Context, userID string, limit int) ([]wager.Ticket, error)
	GetTicket(ctx context.Context, userID, id string) (wager.Ticket, error)
}

type Settler interface {
	Place(ctx context.Context, userID string, sel wager.Selection, units int) (wager.Settled, error)
}

type Publisher interface {
	PublishTicketPlaced(ctx context.Context, userID string, t wager.Ticket) error
}

// API expõe os endpoints REST do cupom de apostas e do histórico
type API struct {
	Log        *zap.Logger
	Slips      *slip.Service
	Boards     BoardSource
	Races      repo.RaceNameSource
	Promo      repo.PromoSource
	Tickets    TicketStore
	Settlement Settler
	Publisher  Publisher
	Clock      clockwork.Clock
	WS         http.Handler // hub WebSocket; nil desliga /ws

	CORSOrigins []string

	OnConfirm func(result string) // métricas: placed | blocked | rejected | failed
}

// Router retorna o roteador HTTP com os endpoints REST e o WebSocket
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))

	r.Get("/v1/bet-types", a.listBetTypes)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/v1/slips", a.createSlip)              // Abre cupom
		r.Get("/v1/slips/{id}", a.getSlip)             // Cupom + cotação
		r.Put("/v1/slips/{id}/bet-type", a.setBetType) // Troca tipo (limpa seleção)
		r.Post("/v1/slips/{id}/toggle", a.toggle)      // Alterna cavalo
		r.Put("/v1/slips/{id}/units", a.setUnits)      // Unidades ou valor total
		r.Post("/v1/slips/{id}/confirm", a.confirm)    // Liquidação + bilhete
		r.Get("/v1/tickets", a.listTickets)            // Histórico (recibos)
		r.Post("/v1/tickets/{id}/rebet", a.rebet)      // Novo cupom a partir do bilhete
	})

	if a.WS != nil {
		r.Get("/ws", a.WS.ServeHTTP)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (a *API) now() time.Time {
	if a.Clock == nil {
		return time.Now().UTC()
	}
	return a.Clock.Now().UTC()
}

func (a *API) confirmed(result string) {
	if a.OnConfirm != nil {
		a.OnConfirm(result)
	}
}
