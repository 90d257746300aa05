package slip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
)

var ErrNotFound = errors.New("slip not found")

// Slip é o cupom em edição de um usuário
type Slip struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Selection wager.Selection `json:"selection"`
	Units     int             `json:"units"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store persiste cupons (Redis em produção)
type Store interface {
	Get(ctx context.Context, id string) (Slip, error)
	Put(ctx context.Context, s Slip) error
}

// ScratchedSource informa os cavalos retirados de um páreo
type ScratchedSource interface {
	Scratched(ctx context.Context, raceID string) ([]int, error)
}

// Service aplica as edições do cupom usando o motor de apostas.
// Toda leitura passa por heal: cavalos retirados saem antes de qualquer operação.
type Service struct {
	Store     Store
	Scratched ScratchedSource
	Clock     clockwork.Clock
}

func NewService(st Store, sc ScratchedSource, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{Store: st, Scratched: sc, Clock: clock}
}

// Create abre um cupom vazio para o tipo de aposta e páreos informados
func (s *Service) Create(ctx context.Context, userID string, bt wager.BetType, raceIDs []string) (Slip, error) {
	sel, err := wager.NewSelection(bt, raceIDs...)
	if err != nil {
		return Slip{}, err
	}
	sl := Slip{
		ID:        uuid.NewString(),
		UserID:    userID,
		Selection: sel,
		Units:     1,
	}
	if err := s.save(ctx, &sl); err != nil {
		return Slip{}, err
	}
	return sl, nil
}

// Get retorna o cupom já sem os cavalos retirados
func (s *Service) Get(ctx context.Context, id string) (Slip, error) {
	sl, err := s.Store.Get(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	changed, err := s.heal(ctx, &sl.Selection)
	if err != nil {
		return Slip{}, err
	}
	if changed {
		if err := s.save(ctx, &sl); err != nil {
			return Slip{}, err
		}
	}
	return sl, nil
}

// SetBetType troca o tipo de aposta; a seleção anterior é descartada
func (s *Service) SetBetType(ctx context.Context, id string, bt wager.BetType, raceIDs []string) (Slip, error) {
	sl, err := s.Store.Get(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	sel, err := wager.NewSelection(bt, raceIDs...)
	if err != nil {
		return Slip{}, err
	}
	sl.Selection = sel
	if err := s.save(ctx, &sl); err != nil {
		return Slip{}, err
	}
	return sl, nil
}

// Toggle alterna um cavalo na posição/páreo. Cavalo retirado não entra.
func (s *Service) Toggle(ctx context.Context, id string, slot, horse int) (Slip, bool, error) {
	sl, err := s.Get(ctx, id)
	if err != nil {
		return Slip{}, false, err
	}
	on, err := sl.Selection.Toggle(slot, horse)
	if err != nil {
		return Slip{}, false, err
	}
	if on {
		// a retirada pode ter chegado entre a leitura e o toggle
		if changed, err := s.heal(ctx, &sl.Selection); err != nil {
			return Slip{}, false, err
		} else if changed {
			on = false
		}
	}
	if err := s.save(ctx, &sl); err != nil {
		return Slip{}, false, err
	}
	return sl, on, nil
}

// SetUnits define o número de unidades (mínimo 1)
func (s *Service) SetUnits(ctx context.Context, id string, units int) (Slip, error) {
	if units < 1 {
		return Slip{}, fmt.Errorf("units %d: %w", units, wager.ErrInvalidUnits)
	}
	sl, err := s.Get(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	sl.Units = units
	if err := s.save(ctx, &sl); err != nil {
		return Slip{}, err
	}
	return sl, nil
}

// SetAmount converte um valor total em unidades para as combinações atuais.
// Sem combinações não há como dividir o valor: devolve o *SelectionError
// de Validate e o cupom fica como estava.
func (s *Service) SetAmount(ctx context.Context, id string, amount float64) (Slip, error) {
	sl, err := s.Get(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	if err := wager.Validate(sl.Selection); err != nil {
		return Slip{}, err
	}
	bt := sl.Selection.BetType
	sl.Units = wager.DeriveUnits(amount, wager.Count(sl.Selection), wager.UnitCost(bt))
	if err := s.save(ctx, &sl); err != nil {
		return Slip{}, err
	}
	return sl, nil
}

// Replace troca a seleção inteira (rebet). Retirados saem antes de gravar.
func (s *Service) Replace(ctx context.Context, id string, sel wager.Selection, units int) (Slip, error) {
	if units < 1 {
		units = 1
	}
	sel = sel.Clone()
	if err := sel.Check(); err != nil {
		return Slip{}, err
	}
	sl, err := s.Store.Get(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	if _, err := s.heal(ctx, &sel); err != nil {
		return Slip{}, err
	}
	sl.Selection = sel
	sl.Units = units
	if err := s.save(ctx, &sl); err != nil {
		return Slip{}, err
	}
	return sl, nil
}

// Reset limpa o cupom mantendo tipo e páreos (usado após confirmação)
func (s *Service) Reset(ctx context.Context, sl Slip) (Slip, error) {
	sel := sl.Selection.Clone()
	for i := 0; i < sel.Slots(); i++ {
		_ = sel.Set(i, nil)
	}
	sl.Selection = sel
	sl.Units = 1
	if err := s.save(ctx, &sl); err != nil {
		return Slip{}, err
	}
	return sl, nil
}

func (s *Service) heal(ctx context.Context, sel *wager.Selection) (bool, error) {
	changed := false
	for _, race := range sel.RaceIDs() {
		horses, err := s.Scratched.Scratched(ctx, race)
		if err != nil {
			return false, fmt.Errorf("scratched %s: %w", race, err)
		}
		if sel.ScratchAll(race, horses) {
			changed = true
		}
	}
	return changed, nil
}

func (s *Service) save(ctx context.Context, sl *Slip) error {
	sl.UpdatedAt = s.Clock.Now().UTC()
	if err := s.Store.Put(ctx, *sl); err != nil {
		return fmt.Errorf("save slip: %w", err)
	}
	return nil
}
