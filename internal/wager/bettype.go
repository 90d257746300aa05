package wager

import "strings"

// BetType identifica o tipo de aposta (pool) do totalizador.
type BetType string

const (
	Win                BetType = "WIN"
	Place              BetType = "PLACE"
	Forecast           BetType = "FORECAST"
	Trifecta           BetType = "TRIFECTA"
	Quartet            BetType = "QUARTET"
	DailyDouble        BetType = "DAILY_DOUBLE"
	DailyDoublePlusOne BetType = "DAILY_DOUBLE_PLUS_ONE"
	Pick4              BetType = "PICK4"
	Pick5              BetType = "PICK5"
	Pick6              BetType = "PICK6"
	WTA                BetType = "WTA"
)

// Kind agrupa os tipos de aposta pelo formato da seleção.
type Kind int

const (
	KindUnknown Kind = iota
	KindSimple       // conjunto único de cavalos
	KindOrdered      // um conjunto por posição de chegada
	KindMultiLeg     // um conjunto por páreo
)

type betShape struct {
	kind  Kind
	slots int
}

var shapes = map[BetType]betShape{
	Win:                {KindSimple, 1},
	Place:              {KindSimple, 1},
	Forecast:           {KindOrdered, 2},
	Trifecta:           {KindOrdered, 3},
	Quartet:            {KindOrdered, 4},
	DailyDouble:        {KindMultiLeg, 2},
	DailyDoublePlusOne: {KindMultiLeg, 3},
	Pick4:              {KindMultiLeg, 4},
	Pick5:              {KindMultiLeg, 5},
	Pick6:              {KindMultiLeg, 6},
	WTA:                {KindMultiLeg, 7},
}

// BetTypes lista todos os tipos suportados, na ordem de exibição.
func BetTypes() []BetType {
	return []BetType{Win, Place, Forecast, Trifecta, Quartet, DailyDouble, DailyDoublePlusOne, Pick4, Pick5, Pick6, WTA}
}

// ParseBetType aceita o nome canônico sem diferenciar maiúsculas
func ParseBetType(s string) (BetType, error) {
	bt := BetType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := shapes[bt]; !ok {
		return "", ErrUnknownBetType
	}
	return bt, nil
}

func (b BetType) Valid() bool {
	_, ok := shapes[b]
	return ok
}

func (b BetType) Kind() Kind { return shapes[b].kind }

// Slots retorna o número fixo de posições (ou páreos); 1 para apostas simples.
func (b BetType) Slots() int { return shapes[b].slots }

func (b BetType) String() string { return string(b) }

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindOrdered:
		return "ordered"
	case KindMultiLeg:
		return "multi_leg"
	}
	return "unknown"
}
