package wager

// PayloadLeg é um páreo no payload enviado ao RPC de liquidação.
type PayloadLeg struct {
	RaceID string `json:"race_id"`
	Horses []int  `json:"horses"`
}

// Payload é o formato JSON esperado pelo RPC de liquidação, por tipo:
//
//	simples:  {"horses": [..]}
//	ordem:    {"mode": "combo", "positions": [[..], ..]}
//	múltipla: {"legs": [{"race_id": "..", "horses": [..]}, ..]}
type Payload struct {
	Horses    []int        `json:"horses,omitempty"`
	Mode      string       `json:"mode,omitempty"`
	Positions [][]int      `json:"positions,omitempty"`
	Legs      []PayloadLeg `json:"legs,omitempty"`
}

const ModeCombo = "combo"

// SettlementPayload converte a seleção no payload do RPC de liquidação.
func SettlementPayload(sel Selection) Payload {
	c := sel.Clone()
	switch c.BetType.Kind() {
	case KindSimple:
		return Payload{Horses: nonNil(c.Horses)}
	case KindOrdered:
		pos := make([][]int, len(c.Positions))
		for i, p := range c.Positions {
			pos[i] = nonNil(p)
		}
		return Payload{Mode: ModeCombo, Positions: pos}
	case KindMultiLeg:
		legs := make([]PayloadLeg, len(c.Legs))
		for i, l := range c.Legs {
			legs[i] = PayloadLeg{RaceID: l.RaceID, Horses: nonNil(l.Horses)}
		}
		return Payload{Legs: legs}
	}
	return Payload{}
}

// SelectionFromPayload faz o caminho inverso, usado para reconstruir
// bilhetes históricos e pelo simulador de liquidação.
func SelectionFromPayload(bt BetType, raceID string, p Payload) (Selection, error) {
	sel := Selection{BetType: bt, RaceID: raceID}
	switch bt.Kind() {
	case KindSimple:
		sel.Horses = p.Horses
	case KindOrdered:
		sel.Positions = p.Positions
	case KindMultiLeg:
		sel.RaceID = ""
		sel.Legs = make([]Leg, len(p.Legs))
		for i, l := range p.Legs {
			sel.Legs[i] = Leg{RaceID: l.RaceID, Horses: l.Horses}
		}
	default:
		return Selection{}, ErrUnknownBetType
	}
	if err := sel.Check(); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

func nonNil(hs []int) []int {
	if hs == nil {
		return []int{}
	}
	return hs
}
