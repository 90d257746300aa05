package wager

import (
	"fmt"
	"slices"
)

// MaxHorseNumber limita o número de um cavalo dentro do páreo.
// Uma seleção válida cabe na máscara uint64 usada por Count e pela viabilidade.
const MaxHorseNumber = 64

// Leg é um páreo de uma aposta múltipla.
type Leg struct {
	RaceID string `json:"race_id"`
	Horses []int  `json:"horses"`
}

// Selection é o estado editável do bilhete antes da confirmação.
// Apostas simples usam Horses, apostas por ordem usam Positions (1º..Nº)
// e apostas múltiplas usam Legs. Todo conjunto fica ordenado e sem repetição.
type Selection struct {
	BetType   BetType `json:"betType"`
	RaceID    string  `json:"raceId,omitempty"`
	Horses    []int   `json:"horses,omitempty"`
	Positions [][]int `json:"positions,omitempty"`
	Legs      []Leg   `json:"legs,omitempty"`
}

// NewSelection cria uma seleção vazia com o número fixo de posições/páreos do tipo.
// Apostas múltiplas exigem um raceID por páreo; as demais, exatamente um.
func NewSelection(bt BetType, raceIDs ...string) (Selection, error) {
	if !bt.Valid() {
		return Selection{}, ErrUnknownBetType
	}
	sel := Selection{BetType: bt}
	switch bt.Kind() {
	case KindSimple:
		if len(raceIDs) != 1 {
			return Selection{}, fmt.Errorf("%s: %w", bt, ErrRaceCount)
		}
		sel.RaceID = raceIDs[0]
		sel.Horses = []int{}
	case KindOrdered:
		if len(raceIDs) != 1 {
			return Selection{}, fmt.Errorf("%s: %w", bt, ErrRaceCount)
		}
		sel.RaceID = raceIDs[0]
		sel.Positions = make([][]int, bt.Slots())
		for i := range sel.Positions {
			sel.Positions[i] = []int{}
		}
	case KindMultiLeg:
		if len(raceIDs) != bt.Slots() {
			return Selection{}, fmt.Errorf("%s needs %d races: %w", bt, bt.Slots(), ErrRaceCount)
		}
		sel.Legs = make([]Leg, len(raceIDs))
		for i, id := range raceIDs {
			sel.Legs[i] = Leg{RaceID: id, Horses: []int{}}
		}
	}
	return sel, nil
}

// Normalize remove repetidos e ordena; rejeita números fora de 1..MaxHorseNumber.
func Normalize(raw []int) ([]int, error) {
	out := make([]int, 0, len(raw))
	for _, h := range raw {
		if h < 1 || h > MaxHorseNumber {
			return nil, fmt.Errorf("%d: %w", h, ErrInvalidHorse)
		}
		out = append(out, h)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Slots retorna o número de conjuntos editáveis da seleção.
func (s *Selection) Slots() int {
	switch s.BetType.Kind() {
	case KindSimple:
		return 1
	case KindOrdered:
		return len(s.Positions)
	case KindMultiLeg:
		return len(s.Legs)
	}
	return 0
}

// Sets retorna os conjuntos por posição/páreo, na ordem.
// Os slices retornados pertencem à seleção e não devem ser alterados.
func (s *Selection) Sets() [][]int {
	out := make([][]int, s.Slots())
	for i := range out {
		out[i] = s.set(i)
	}
	return out
}

func (s *Selection) set(slot int) []int {
	switch s.BetType.Kind() {
	case KindSimple:
		return s.Horses
	case KindOrdered:
		return s.Positions[slot]
	default:
		return s.Legs[slot].Horses
	}
}

func (s *Selection) replace(slot int, horses []int) {
	switch s.BetType.Kind() {
	case KindSimple:
		s.Horses = horses
	case KindOrdered:
		s.Positions[slot] = horses
	default:
		s.Legs[slot].Horses = horses
	}
}

func (s *Selection) checkSlot(slot int) error {
	if slot < 0 || slot >= s.Slots() {
		return fmt.Errorf("slot %d: %w", slot, ErrSlotOutOfRange)
	}
	return nil
}

// Add inclui o cavalo no conjunto da posição/páreo; idempotente.
func (s *Selection) Add(slot, horse int) error {
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	if horse < 1 || horse > MaxHorseNumber {
		return fmt.Errorf("%d: %w", horse, ErrInvalidHorse)
	}
	cur := s.set(slot)
	i, found := slices.BinarySearch(cur, horse)
	if found {
		return nil
	}
	next := make([]int, 0, len(cur)+1)
	next = append(next, cur[:i]...)
	next = append(next, horse)
	next = append(next, cur[i:]...)
	s.replace(slot, next)
	return nil
}

// Remove retira o cavalo do conjunto; ausência não é erro.
func (s *Selection) Remove(slot, horse int) error {
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	s.removeAt(slot, horse)
	return nil
}

func (s *Selection) removeAt(slot, horse int) bool {
	cur := s.set(slot)
	i, found := slices.BinarySearch(cur, horse)
	if !found {
		return false
	}
	next := make([]int, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	next = append(next, cur[i+1:]...)
	s.replace(slot, next)
	return true
}

// Toggle alterna o cavalo na posição e informa se ele ficou selecionado.
func (s *Selection) Toggle(slot, horse int) (bool, error) {
	if err := s.checkSlot(slot); err != nil {
		return false, err
	}
	if slices.Contains(s.set(slot), horse) {
		s.removeAt(slot, horse)
		return false, nil
	}
	if err := s.Add(slot, horse); err != nil {
		return false, err
	}
	return true, nil
}

// Set substitui o conjunto inteiro da posição (entrada bruta da UI).
func (s *Selection) Set(slot int, horses []int) error {
	if err := s.checkSlot(slot); err != nil {
		return err
	}
	norm, err := Normalize(horses)
	if err != nil {
		return err
	}
	s.replace(slot, norm)
	return nil
}

// Incomplete indica que alguma posição/páreo obrigatório está vazio.
func (s *Selection) Incomplete() bool {
	n := s.Slots()
	if n == 0 {
		return true
	}
	for i := 0; i < n; i++ {
		if len(s.set(i)) == 0 {
			return true
		}
	}
	return false
}

// RaceIDs retorna os páreos referenciados pela seleção, sem repetição.
func (s *Selection) RaceIDs() []string {
	if s.BetType.Kind() != KindMultiLeg {
		if s.RaceID == "" {
			return nil
		}
		return []string{s.RaceID}
	}
	out := make([]string, 0, len(s.Legs))
	for _, l := range s.Legs {
		if !slices.Contains(out, l.RaceID) {
			out = append(out, l.RaceID)
		}
	}
	return out
}

// Scratch remove o cavalo retirado de toda posição/páreo do raceID
// sem mexer nas demais escolhas. Retorna true se algo mudou.
func (s *Selection) Scratch(raceID string, horse int) bool {
	changed := false
	for i := 0; i < s.Slots(); i++ {
		if s.slotRace(i) != raceID {
			continue
		}
		if s.removeAt(i, horse) {
			changed = true
		}
	}
	return changed
}

// ScratchAll aplica um conjunto de retiradas do mesmo páreo.
func (s *Selection) ScratchAll(raceID string, horses []int) bool {
	changed := false
	for _, h := range horses {
		if s.Scratch(raceID, h) {
			changed = true
		}
	}
	return changed
}

func (s *Selection) slotRace(slot int) string {
	if s.BetType.Kind() == KindMultiLeg {
		return s.Legs[slot].RaceID
	}
	return s.RaceID
}

// Clone retorna uma cópia profunda.
func (s Selection) Clone() Selection {
	out := Selection{BetType: s.BetType, RaceID: s.RaceID}
	if s.Horses != nil {
		out.Horses = slices.Clone(s.Horses)
	}
	if s.Positions != nil {
		out.Positions = make([][]int, len(s.Positions))
		for i, p := range s.Positions {
			out.Positions[i] = slices.Clone(p)
		}
	}
	if s.Legs != nil {
		out.Legs = make([]Leg, len(s.Legs))
		for i, l := range s.Legs {
			out.Legs[i] = Leg{RaceID: l.RaceID, Horses: slices.Clone(l.Horses)}
		}
	}
	return out
}

// Check valida uma seleção recebida de fora (JSON): formato do tipo de aposta
// e conjuntos normalizados. Conjuntos vazios são permitidos.
func (s *Selection) Check() error {
	if !s.BetType.Valid() {
		return ErrUnknownBetType
	}
	want := s.BetType.Slots()
	switch s.BetType.Kind() {
	case KindOrdered:
		if len(s.Positions) != want {
			return fmt.Errorf("%s needs %d positions: %w", s.BetType, want, ErrSlotOutOfRange)
		}
	case KindMultiLeg:
		if len(s.Legs) != want {
			return fmt.Errorf("%s needs %d legs: %w", s.BetType, want, ErrRaceCount)
		}
	}
	for i := 0; i < s.Slots(); i++ {
		norm, err := Normalize(s.set(i))
		if err != nil {
			return err
		}
		s.replace(i, norm)
	}
	return nil
}
