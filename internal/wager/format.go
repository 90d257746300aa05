package wager

import (
	"fmt"
	"strconv"
	"strings"
)

const raceIDPrefixLen = 8

// Format renderiza a seleção em linhas canônicas (recibo e histórico),
// uma por posição ou páreo. Conjuntos vazios aparecem como "-".
func Format(sel Selection, raceNames map[string]string) []string {
	switch sel.BetType.Kind() {
	case KindSimple:
		return []string{fmt.Sprintf("%s: %s", sel.BetType, joinHorses(sel.Horses))}
	case KindOrdered:
		out := make([]string, len(sel.Positions))
		for i, p := range sel.Positions {
			out[i] = fmt.Sprintf("%s: %s", Ordinal(i), joinHorses(p))
		}
		return out
	case KindMultiLeg:
		out := make([]string, len(sel.Legs))
		for i, l := range sel.Legs {
			out[i] = fmt.Sprintf("LEG %d (%s): %s", i+1, raceLabel(l.RaceID, raceNames), joinHorses(l.Horses))
		}
		return out
	}
	return nil
}

func raceLabel(raceID string, names map[string]string) string {
	if n := strings.TrimSpace(names[raceID]); n != "" {
		return n
	}
	if len(raceID) > raceIDPrefixLen {
		return raceID[:raceIDPrefixLen]
	}
	return raceID
}

func joinHorses(hs []int) string {
	if len(hs) == 0 {
		return "-"
	}
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = strconv.Itoa(h)
	}
	return strings.Join(parts, ", ")
}
