package wager

import (
	"fmt"
	"strings"
)

var ordinals = []string{"1ST", "2ND", "3RD", "4TH"}

// Ordinal retorna o rótulo da posição de chegada (0 = 1ST).
func Ordinal(slot int) string {
	if slot >= 0 && slot < len(ordinals) {
		return ordinals[slot]
	}
	return fmt.Sprintf("%dTH", slot+1)
}

type memoKey struct {
	slot int
	used uint64
}

// FindInfeasiblePrefix explica por que uma seleção por ordem não tem
// nenhuma combinação válida. Retorna ok=false quando todas as posições têm
// candidatos e existe ao menos uma atribuição completa; apostas que não são
// por ordem sempre retornam ok=false.
//
// A busca percorre os prefixos da esquerda para a direita e devolve o
// primeiro prefixo sem completamento, não necessariamente o menor.
func FindInfeasiblePrefix(sel Selection) (string, bool) {
	if sel.BetType.Kind() != KindOrdered {
		return "", false
	}
	positions := sel.Positions
	for i, p := range positions {
		if len(p) == 0 {
			return fmt.Sprintf("%s: no horses selected", Ordinal(i)), true
		}
	}

	bits, ok := horseBits(positions)
	if !ok {
		return fmt.Sprintf("%s: more than %d distinct horses", Ordinal(0), MaxHorseNumber), true
	}

	memo := make(map[memoKey]bool)
	var hasCompletion func(slot int, used uint64) bool
	hasCompletion = func(slot int, used uint64) bool {
		if slot == len(positions) {
			return true
		}
		k := memoKey{slot: slot, used: used}
		if v, ok := memo[k]; ok {
			return v
		}
		res := false
		for _, h := range positions[slot] {
			bit := bits[h]
			if used&bit != 0 {
				continue
			}
			if hasCompletion(slot+1, used|bit) {
				res = true
				break
			}
		}
		memo[k] = res
		return res
	}

	if hasCompletion(0, 0) {
		return "", false
	}

	prefix := make([]int, 0, len(positions))
	var walk func(slot int, used uint64) (string, bool)
	walk = func(slot int, used uint64) (string, bool) {
		if slot == len(positions) {
			return "", false
		}
		for _, h := range positions[slot] {
			bit := bits[h]
			if used&bit != 0 {
				continue
			}
			prefix = append(prefix, h)
			if !hasCompletion(slot+1, used|bit) {
				return describePrefix(prefix), true
			}
			if msg, ok := walk(slot+1, used|bit); ok {
				return msg, true
			}
			prefix = prefix[:len(prefix)-1]
		}
		return "", false
	}
	if msg, ok := walk(0, 0); ok {
		return msg, true
	}
	return fmt.Sprintf("%s: no valid combination", Ordinal(0)), true
}

func describePrefix(prefix []int) string {
	parts := make([]string, len(prefix))
	for i, h := range prefix {
		parts[i] = fmt.Sprintf("%s: %d", Ordinal(i), h)
	}
	return fmt.Sprintf("if %s, there is no valid completion", strings.Join(parts, ", "))
}
