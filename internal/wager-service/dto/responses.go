package dto

import (
	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/internal/wager-service/slip"
)

// SlipResponse devolve o cupom e a cotação recalculada
type SlipResponse struct {
	Slip     slip.Slip       `json:"slip"`
	Quote    wager.Quotation `json:"quote"`
	Selected *bool           `json:"selected,omitempty"` // só no toggle
}

// ErrorResponse é o corpo padrão de erro
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type BetTypeInfo struct {
	BetType  string `json:"betType"`
	Kind     string `json:"kind"` // simple | ordered | multi_leg
	Slots    int    `json:"slots"`
	UnitCost int64  `json:"unitCost"`
}
