package dto

// CreateSlipRequest abre um cupom (também usado para trocar o tipo de aposta)
type CreateSlipRequest struct {
	BetType string   `json:"betType"`
	RaceIDs []string `json:"raceIds"` // um páreo, ou um por perna nas múltiplas
}

// ToggleRequest alterna um cavalo na posição (ordenadas) ou perna (múltiplas)
type ToggleRequest struct {
	Slot  int `json:"slot"`
	Horse int `json:"horse"`
}

// UnitsRequest aceita unidades ou um valor total (convertido em unidades)
type UnitsRequest struct {
	Units  *int     `json:"units,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}
