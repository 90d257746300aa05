package wager

// Count retorna o número de combinações válidas da seleção.
// Qualquer posição/páreo vazio resulta em zero.
func Count(sel Selection) int {
	switch sel.BetType.Kind() {
	case KindSimple:
		return len(sel.Horses)
	case KindOrdered:
		return countOrdered(sel.Positions)
	case KindMultiLeg:
		return countLegs(sel.Legs)
	}
	return 0
}

// countOrdered enumera por backtracking um cavalo distinto por posição.
// O mesmo cavalo pode ser candidato em várias posições, mas não ocupa duas
// posições na mesma combinação.
func countOrdered(positions [][]int) int {
	if len(positions) == 0 {
		return 0
	}
	for _, p := range positions {
		if len(p) == 0 {
			return 0
		}
	}
	bits, ok := horseBits(positions)
	if !ok {
		return 0
	}
	var used uint64
	var walk func(slot int) int
	walk = func(slot int) int {
		if slot == len(positions) {
			return 1
		}
		n := 0
		for _, h := range positions[slot] {
			bit := bits[h]
			if used&bit != 0 {
				continue
			}
			used |= bit
			n += walk(slot + 1)
			used &^= bit
		}
		return n
	}
	return walk(0)
}

func countLegs(legs []Leg) int {
	if len(legs) == 0 {
		return 0
	}
	n := 1
	for _, l := range legs {
		if len(l.Horses) == 0 {
			return 0
		}
		n *= len(l.Horses)
	}
	return n
}

// horseBits dá um bit distinto para cada cavalo que aparece nas posições.
// Números fora de 1..MaxHorseNumber também recebem bit próprio; ok=false
// só quando há mais cavalos distintos do que bits na máscara.
func horseBits(positions [][]int) (map[int]uint64, bool) {
	bits := make(map[int]uint64)
	for _, p := range positions {
		for _, h := range p {
			if _, seen := bits[h]; seen {
				continue
			}
			if len(bits) == 64 {
				return nil, false
			}
			bits[h] = 1 << uint(len(bits))
		}
	}
	return bits, true
}
