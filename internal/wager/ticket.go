package wager

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Quotation é a prévia local do bilhete. O servidor de liquidação é a
// fonte de verdade para combos/custo/unidades/valor.
type Quotation struct {
	BetType    BetType         `json:"betType"`
	Combos     int             `json:"combos"`
	UnitCost   Money           `json:"unitCost"`
	Units      int             `json:"units"`
	Amount     Money           `json:"amount"`
	Incomplete bool            `json:"incomplete"`
	Infeasible string          `json:"infeasible,omitempty"`
	Estimate   *PayoutEstimate `json:"estimate,omitempty"`
	Lines      []string        `json:"lines"`
}

// Bookable indica se a UI pode liberar a confirmação.
func (q Quotation) Bookable() bool {
	return !q.Incomplete && q.Infeasible == "" && q.Combos > 0
}

// Quote junta contador, verificador de viabilidade, preço e estimativa.
// Seleção incompleta ou inviável tem valor zero.
func Quote(sel Selection, units int, board Board, promo *Promo, raceNames map[string]string) Quotation {
	if units < 1 {
		units = 1
	}
	q := Quotation{
		BetType:    sel.BetType,
		Combos:     Count(sel),
		UnitCost:   UnitCost(sel.BetType),
		Units:      units,
		Incomplete: sel.Incomplete(),
		Lines:      Format(sel, raceNames),
	}
	if msg, bad := FindInfeasiblePrefix(sel); bad && !q.Incomplete {
		q.Infeasible = msg
	}
	if q.Bookable() {
		q.Amount = TotalCost(q.Combos, q.UnitCost, q.Units)
	}
	if est, ok := Estimate(sel, board, units, promo); ok {
		q.Estimate = &est
	}
	return q
}

// Validate retorna *SelectionError quando a seleção não pode ser confirmada.
func Validate(sel Selection) error {
	if sel.Incomplete() {
		return &SelectionError{Kind: ErrIncompleteSelection}
	}
	if msg, bad := FindInfeasiblePrefix(sel); bad {
		return &SelectionError{Kind: ErrInfeasibleSelection, Message: msg}
	}
	if Count(sel) == 0 {
		return &SelectionError{Kind: ErrInfeasibleSelection}
	}
	return nil
}

// Ticket é o registro imutável de uma aposta confirmada.
// Um novo bilhete (rebet) substitui o antigo; este nunca é alterado.
type Ticket struct {
	ID        string    `json:"id"`
	BetType   BetType   `json:"betType"`
	Selection Selection `json:"selection"`
	Combos    int       `json:"combos"`
	UnitCost  Money     `json:"unitCost"`
	Units     int       `json:"units"`
	Amount    Money     `json:"amount"`
	PlacedAt  time.Time `json:"placedAt"`
}

// Settled são os números autoritativos devolvidos pela liquidação.
type Settled struct {
	TicketID string
	Combos   int
	UnitCost Money
	Units    int
	Amount   Money
}

// NewTicket cria o bilhete com os números do servidor, nunca os locais.
func NewTicket(sel Selection, s Settled, placedAt time.Time) Ticket {
	return Ticket{
		ID:        s.TicketID,
		BetType:   sel.BetType,
		Selection: sel.Clone(),
		Combos:    s.Combos,
		UnitCost:  s.UnitCost,
		Units:     s.Units,
		Amount:    s.Amount,
		PlacedAt:  placedAt,
	}
}

// Rebet devolve uma cópia editável da seleção para um novo bilhete.
func (t Ticket) Rebet() Selection { return t.Selection.Clone() }

// Reconstruct remonta um bilhete histórico que só guardou o valor final.
func Reconstruct(id string, sel Selection, amount float64, placedAt time.Time) Ticket {
	combos := Count(sel)
	unit := UnitCost(sel.BetType)
	return Ticket{
		ID:        id,
		BetType:   sel.BetType,
		Selection: sel.Clone(),
		Combos:    combos,
		UnitCost:  unit,
		Units:     DeriveUnits(amount, combos, unit),
		Amount:    Money(math.Round(amount)),
		PlacedAt:  placedAt,
	}
}

// Receipt é o conteúdo entregue ao renderizador de recibos.
type Receipt struct {
	TicketID       string           `json:"ticketId,omitempty"`
	BetType        BetType          `json:"betType"`
	SelectionLines []string         `json:"selectionLines"`
	Combos         int              `json:"combos"`
	UnitCost       Money            `json:"unitCost"`
	Units          int              `json:"units"`
	Amount         Money            `json:"amount"`
	Value          *decimal.Decimal `json:"value,omitempty"`
	PromoPercent   *float64         `json:"promoPercent,omitempty"`
	PromoText      *string          `json:"promoText,omitempty"`
	PlacedAt       time.Time        `json:"placedAt"`
}

// NewReceipt monta o recibo; com promo ativa, Value mostra o valor bonificado
// enquanto Amount continua sendo o valor cobrado.
func NewReceipt(t Ticket, raceNames map[string]string, promo *Promo) Receipt {
	r := Receipt{
		TicketID:       t.ID,
		BetType:        t.BetType,
		SelectionLines: Format(t.Selection, raceNames),
		Combos:         t.Combos,
		UnitCost:       t.UnitCost,
		Units:          t.Units,
		Amount:         t.Amount,
		PlacedAt:       t.PlacedAt,
	}
	if promo.Active() {
		pct, txt := promo.Percent, promo.Text
		v := promo.Apply(decimal.NewFromInt(int64(t.Amount)))
		r.PromoPercent, r.PromoText, r.Value = &pct, &txt, &v
	}
	return r
}
