package dto

import "github.com/radieske/racebet-wagering-poc/internal/wager"

// PlaceRequest é o corpo enviado ao serviço de liquidação (tote).
type PlaceRequest struct {
	RequestID string        `json:"requestId"` // idempotência do lado do tote
	UserID    string        `json:"userId"`
	BetType   string        `json:"betType"`
	RaceID    string        `json:"raceId,omitempty"` // vazio em apostas múltiplas
	Units     int           `json:"units"`
	Selection wager.Payload `json:"selection"`
}

// PlaceResponse traz os números autoritativos do bilhete.
type PlaceResponse struct {
	Status   string `json:"status"` // ACCEPTED | REJECTED
	TicketID string `json:"ticketId"`
	Combos   int    `json:"combos"`
	UnitCost int64  `json:"unitCost"`
	Units    int    `json:"units"`
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason,omitempty"`
}

const (
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)
