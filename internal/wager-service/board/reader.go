package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	sharedcache "github.com/radieske/racebet-wagering-poc/internal/shared/cache"
	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

// Reader lê o estado do tote gravado pelo board-processor
type Reader struct{ R *redis.Client }

func NewReader(r *redis.Client) *Reader { return &Reader{R: r} }

// Board retorna o painel corrente do pool; sem painel = painel vazio
func (rd *Reader) Board(ctx context.Context, raceID string, pool wager.BetType) (wager.Board, error) {
	b, err := rd.R.HGet(ctx, sharedcache.BoardKey(raceID, pool.String()), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return wager.NewBoard(nil), nil
	}
	if err != nil {
		return wager.Board{}, err
	}
	return Decode(b)
}

// Scratched retorna os cavalos retirados do páreo
func (rd *Reader) Scratched(ctx context.Context, raceID string) ([]int, error) {
	members, err := rd.R.SMembers(ctx, sharedcache.ScratchedKey(raceID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue // lixo no set não derruba a leitura
		}
		out = append(out, n)
	}
	return out, nil
}

// Decode converte o snapshot serializado em painel do motor
func Decode(b []byte) (wager.Board, error) {
	var s events.BoardSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return wager.Board{}, fmt.Errorf("decode board: %w", err)
	}
	return FromSnapshot(s), nil
}

func FromSnapshot(s events.BoardSnapshot) wager.Board {
	cells := make([]wager.BoardCell, 0, len(s.Cells))
	for _, c := range s.Cells {
		cells = append(cells, wager.BoardCell{Row: c.Row, Col: c.Col, Value: c.Value, Capped: c.Capped})
	}
	return wager.NewBoard(cells)
}

// ForSelection busca o painel que vale para a seleção: FORECAST no próprio
// páreo, DAILY_DOUBLE no páreo da primeira perna. Os demais tipos não têm painel.
func (rd *Reader) ForSelection(ctx context.Context, sel wager.Selection) (wager.Board, error) {
	race, ok := BoardRace(sel)
	if !ok {
		return wager.NewBoard(nil), nil
	}
	return rd.Board(ctx, race, sel.BetType)
}

func BoardRace(sel wager.Selection) (string, bool) {
	switch sel.BetType {
	case wager.Forecast:
		return sel.RaceID, sel.RaceID != ""
	case wager.DailyDouble:
		if len(sel.Legs) == 0 {
			return "", false
		}
		return sel.Legs[0].RaceID, true
	}
	return "", false
}
