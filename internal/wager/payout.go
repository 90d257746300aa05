package wager

import (
	"math"

	"github.com/shopspring/decimal"
)

// BoardCell é um dividendo publicado no painel ao vivo.
// Row/Col são números de cavalo (1ª/2ª posição, ou páreo 1/páreo 2).
type BoardCell struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Value  float64 `json:"value"`
	Capped bool    `json:"capped,omitempty"`
}

type cellKey struct{ row, col int }

// Board é um snapshot imutável e esparso do painel.
// Um snapshot novo substitui o anterior por inteiro; nunca há merge.
type Board struct {
	cells map[cellKey]BoardCell
}

func NewBoard(cells []BoardCell) Board {
	m := make(map[cellKey]BoardCell, len(cells))
	for _, c := range cells {
		m[cellKey{c.Row, c.Col}] = c
	}
	return Board{cells: m}
}

func (b Board) Len() int { return len(b.cells) }

// Lookup retorna a célula se ela existir e tiver valor finito e positivo.
// Células malformadas contam como "sem dado".
func (b Board) Lookup(row, col int) (BoardCell, bool) {
	c, ok := b.cells[cellKey{row, col}]
	if !ok {
		return BoardCell{}, false
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) || c.Value <= 0 {
		return BoardCell{}, false
	}
	return c, true
}

// Promo é o bônus promocional configurado remotamente.
type Promo struct {
	Percent float64 `json:"percent"`
	Text    string  `json:"text"`
}

func (p *Promo) Active() bool { return p != nil && p.Percent > 0 }

// Apply retorna amount * (1 + percent/100). Afeta só prévias e o "valor"
// exibido; o valor cobrado nunca passa por aqui.
func (p *Promo) Apply(amount decimal.Decimal) decimal.Decimal {
	if !p.Active() {
		return amount
	}
	factor := decimal.NewFromFloat(p.Percent).Div(decimal.NewFromInt(100)).Add(decimal.NewFromInt(1))
	return amount.Mul(factor)
}

// PayoutEstimate é a faixa de retorno alcançável com o painel atual.
type PayoutEstimate struct {
	MinMultiplier float64         `json:"minMultiplier"`
	MaxMultiplier float64         `json:"maxMultiplier"`
	MinPayout     decimal.Decimal `json:"minPayout"`
	MaxPayout     decimal.Decimal `json:"maxPayout"`
	Capped        bool            `json:"capped"`
	Cells         int             `json:"cells"`
}

// Estimate calcula a faixa de pagamento para apostas de dois eixos
// (forecast e daily double). Sem célula válida, ou para outros tipos,
// retorna ok=false; nunca inventa valor.
func Estimate(sel Selection, board Board, units int, promo *Promo) (PayoutEstimate, bool) {
	rows, cols, sameHorseConflict, ok := boardAxes(sel)
	if !ok || board.Len() == 0 {
		return PayoutEstimate{}, false
	}

	var est PayoutEstimate
	seen := make(map[cellKey]struct{})
	for _, r := range rows {
		for _, c := range cols {
			if sameHorseConflict && r == c {
				continue
			}
			k := cellKey{r, c}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}

			cell, found := board.Lookup(r, c)
			if !found {
				continue
			}
			if est.Cells == 0 || cell.Value < est.MinMultiplier {
				est.MinMultiplier = cell.Value
			}
			if est.Cells == 0 || cell.Value > est.MaxMultiplier {
				est.MaxMultiplier = cell.Value
			}
			est.Capped = est.Capped || cell.Capped
			est.Cells++
		}
	}
	if est.Cells == 0 {
		return PayoutEstimate{}, false
	}

	if units < 1 {
		units = 1
	}
	stake := promo.Apply(decimal.NewFromInt(int64(UnitCost(sel.BetType)) * int64(units)))
	est.MinPayout = stake.Mul(decimal.NewFromFloat(est.MinMultiplier))
	est.MaxPayout = stake.Mul(decimal.NewFromFloat(est.MaxMultiplier))
	return est, true
}

// boardAxes projeta a seleção nos dois eixos do painel.
// Em forecast o mesmo cavalo não pode ser 1º e 2º; em páreos diferentes pode.
func boardAxes(sel Selection) (rows, cols []int, sameHorseConflict, ok bool) {
	if sel.BetType.Slots() != 2 {
		return nil, nil, false, false
	}
	switch sel.BetType.Kind() {
	case KindOrdered:
		if len(sel.Positions) != 2 {
			return nil, nil, false, false
		}
		return sel.Positions[0], sel.Positions[1], true, true
	case KindMultiLeg:
		if len(sel.Legs) != 2 {
			return nil, nil, false, false
		}
		return sel.Legs[0].Horses, sel.Legs[1].Horses, false, true
	}
	return nil, nil, false, false
}
