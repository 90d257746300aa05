package events

import "encoding/json"

// Evento emitido pelo wager-service após a liquidação aceitar o bilhete.
type TicketPlaced struct {
	TicketID  string          `json:"ticket_id"`
	UserID    string          `json:"user_id"`
	BetType   string          `json:"bet_type"`
	RaceID    string          `json:"race_id,omitempty"` // vazio em apostas de múltiplos páreos
	Selection json.RawMessage `json:"selection"`         // payload enviado à liquidação
	Combos    int             `json:"combos"`
	UnitCost  int64           `json:"unit_cost"`
	Units     int             `json:"units"`
	Amount    int64           `json:"amount"`
	TsUnixMs  int64           `json:"ts_unix_ms"`
}
