package wager

import "math"

// Money é um valor na menor unidade da moeda da plataforma.
type Money int64

// unitEpsilon tolera erro de ponto flutuante ao reconstruir unidades.
const unitEpsilon = 1e-6

// UnitCost retorna o preço fixo por combinação do tipo de aposta.
func UnitCost(bt BetType) Money {
	switch bt {
	case Win, Place, Forecast, DailyDouble, DailyDoublePlusOne:
		return 5
	}
	return 2
}

func TotalCost(combos int, unitCost Money, units int) Money {
	return Money(combos) * unitCost * Money(units)
}

// DeriveUnits reconstrói a quantidade de unidades de um bilhete histórico
// que guardou só o valor final. Nunca retorna menos que 1.
func DeriveUnits(amount float64, combos int, unitCost Money) int {
	per := float64(combos) * float64(unitCost)
	if per <= 0 || amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 1
	}
	raw := amount / per
	units := math.Floor(raw)
	if r := math.Round(raw); math.Abs(raw-r) <= unitEpsilon {
		units = r
	}
	if units < 1 {
		return 1
	}
	return int(units)
}
