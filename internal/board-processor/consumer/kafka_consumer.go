package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/board-processor/pubsub"
	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

// MessageReader é o subconjunto de *kafka.Reader usado pelo loop
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// BoardCache grava o painel corrente e os retirados (Redis)
type BoardCache interface {
	SetSnapshot(ctx context.Context, s events.BoardSnapshot) (bool, error)
	SetScratched(ctx context.Context, raceID string, horse int, scratched bool) error
}

// Repo persiste o que precisa sobreviver ao Redis (Postgres)
type Repo interface {
	UpsertRunnerStatus(ctx context.Context, e events.HorseStatusChanged) error
	InsertBoardHistory(ctx context.Context, s events.BoardSnapshot) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

var errInvalid = errors.New("invalid event")

// Processor consome um tópico Kafka e delega cada mensagem a Handle
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Handle func(ctx context.Context, m kafka.Message) error

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo; termina quando o contexto é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.Handle(ctx, m); err != nil {
			p.Log.Warn("message handling failed",
				zap.String("topic", m.Topic),
				zap.ByteString("key", m.Key),
				zap.Error(err),
			)
			if errors.Is(err, errInvalid) {
				p.fail("decode")
			}
		}
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// Handlers aplica snapshots de painel e mudanças de status de cavalos
type Handlers struct {
	Log          *zap.Logger
	Cache        BoardCache
	Repo         Repo
	Broadcaster  Broadcaster
	BoardChannel string
	HorseChannel string

	OnApplied   func()       // snapshot aplicado
	OnStale     func()       // snapshot descartado por versão antiga
	OnScratched func()       // cavalo retirado
	OnError     func(string) // métricas por fase
}

// Board trata uma mensagem de tote_board_snapshots
func (h *Handlers) Board(ctx context.Context, m kafka.Message) error {
	var s events.BoardSnapshot
	if err := json.Unmarshal(m.Value, &s); err != nil {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}
	s, err := validateSnapshot(s)
	if err != nil {
		return err
	}

	applied, err := h.Cache.SetSnapshot(ctx, s)
	if err != nil {
		h.fail("cache")
		return fmt.Errorf("set snapshot: %w", err)
	}
	if !applied {
		if h.OnStale != nil {
			h.OnStale()
		}
		h.Log.Debug("stale board snapshot dropped",
			zap.String("race_id", s.RaceID), zap.String("pool", s.Pool), zap.Int64("version", s.Version))
		return nil
	}
	if h.OnApplied != nil {
		h.OnApplied()
	}

	// histórico não bloqueia o broadcast
	if err := h.Repo.InsertBoardHistory(ctx, s); err != nil {
		h.fail("db_history")
		h.Log.Warn("db insert board history failed", zap.Error(err))
	}

	h.broadcast(ctx, h.BoardChannel, pubsub.WSUpdate{Type: "board", RaceID: s.RaceID, Payload: s})
	return nil
}

// Horse trata uma mensagem de horse_status_changes
func (h *Handlers) Horse(ctx context.Context, m kafka.Message) error {
	var e events.HorseStatusChanged
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}
	if e.RaceID == "" || e.HorseNumber < 1 || e.HorseNumber > wager.MaxHorseNumber {
		return fmt.Errorf("%w: race %q horse %d", errInvalid, e.RaceID, e.HorseNumber)
	}
	if e.Status != events.HorseActive && e.Status != events.HorseScratched {
		return fmt.Errorf("%w: status %q", errInvalid, e.Status)
	}
	if e.Ts.IsZero() {
		e.Ts = m.Time
	}

	// Postgres é a fonte do roster; o Redis é o que as leituras quentes consultam
	if err := h.Repo.UpsertRunnerStatus(ctx, e); err != nil {
		h.fail("db_upsert")
		return fmt.Errorf("upsert runner: %w", err)
	}
	if err := h.Cache.SetScratched(ctx, e.RaceID, e.HorseNumber, e.Scratched()); err != nil {
		h.fail("cache")
		return fmt.Errorf("set scratched: %w", err)
	}
	if e.Scratched() && h.OnScratched != nil {
		h.OnScratched()
	}

	h.broadcast(ctx, h.HorseChannel, pubsub.WSUpdate{Type: "horse_status", RaceID: e.RaceID, Payload: e})
	return nil
}

func (h *Handlers) broadcast(ctx context.Context, channel string, msg pubsub.WSUpdate) {
	b, _ := json.Marshal(msg)

	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := h.Broadcaster.Publish(bctx, channel, b); err != nil {
		h.fail("broadcast")
		h.Log.Warn("ws broadcast publish failed", zap.String("channel", channel), zap.Error(err))
	}
}

func (h *Handlers) fail(stage string) {
	if h.OnError != nil {
		h.OnError(stage)
	}
}

// validateSnapshot só aceita pools que têm painel de dois eixos e devolve
// o snapshot com o nome canônico do pool (é ele que compõe a chave no Redis)
func validateSnapshot(s events.BoardSnapshot) (events.BoardSnapshot, error) {
	if s.RaceID == "" {
		return s, fmt.Errorf("%w: missing race_id", errInvalid)
	}
	bt, err := wager.ParseBetType(s.Pool)
	if err != nil {
		return s, fmt.Errorf("%w: pool %q", errInvalid, s.Pool)
	}
	if bt.Slots() != 2 || bt.Kind() == wager.KindSimple {
		return s, fmt.Errorf("%w: pool %s has no live board", errInvalid, bt)
	}
	s.Pool = bt.String()
	return s, nil
}
