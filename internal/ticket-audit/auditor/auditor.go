package auditor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

const (
	ResultOK       = "ok"
	ResultMismatch = "mismatch"
)

// Record é uma linha de auditoria: o que a liquidação cobrou contra o
// que o motor calcula para a mesma seleção
type Record struct {
	TicketID       string
	UserID         string
	BetType        string
	Combos         int
	Amount         int64
	ExpectedCombos int
	ExpectedAmount int64
	Result         string
	PlacedAt       time.Time
}

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Store interface {
	InsertAudit(ctx context.Context, r Record) error
}

var errPoison = errors.New("poison message")

// Check recalcula combinações e valor do bilhete publicado
func Check(e events.TicketPlaced) (Record, error) {
	bt, err := wager.ParseBetType(e.BetType)
	if err != nil {
		return Record{}, err
	}
	var p wager.Payload
	if err := json.Unmarshal(e.Selection, &p); err != nil {
		return Record{}, fmt.Errorf("selection payload: %w", err)
	}
	sel, err := wager.SelectionFromPayload(bt, e.RaceID, p)
	if err != nil {
		return Record{}, err
	}

	combos := wager.Count(sel)
	expected := int64(wager.TotalCost(combos, wager.UnitCost(bt), e.Units))
	r := Record{
		TicketID:       e.TicketID,
		UserID:         e.UserID,
		BetType:        e.BetType,
		Combos:         e.Combos,
		Amount:         e.Amount,
		ExpectedCombos: combos,
		ExpectedAmount: expected,
		Result:         ResultOK,
		PlacedAt:       time.UnixMilli(e.TsUnixMs).UTC(),
	}
	if combos != e.Combos || expected != e.Amount || int64(wager.UnitCost(bt)) != e.UnitCost {
		r.Result = ResultMismatch
	}
	return r, nil
}

// Worker consome ticket_placed, grava a auditoria e manda para a DLQ
// o que não dá para processar
type Worker struct {
	Log     *zap.Logger
	Reader  MessageReader
	Store   Store
	DLQ     MessageWriter // nil desliga a DLQ
	Retries int
	Backoff time.Duration

	OnAudited func(result string)
	OnDLQ     func(reason string)
}

// Run termina quando o contexto é cancelado
func (w *Worker) Run(ctx context.Context) error {
	for {
		m, err := w.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if err := w.processOne(ctx, m); err != nil {
			w.Log.Error("audit failed", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

func (w *Worker) processOne(ctx context.Context, m kafka.Message) error {
	var e events.TicketPlaced
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return w.deadLetter(ctx, m, "decode", fmt.Errorf("%w: %v", errPoison, err))
	}
	rec, err := Check(e)
	if err != nil {
		return w.deadLetter(ctx, m, "invalid", fmt.Errorf("%w: %v", errPoison, err))
	}

	// Retry simples com backoff linear antes da DLQ
	err = w.Store.InsertAudit(ctx, rec)
	for i := 0; err != nil && i < w.Retries; i++ {
		time.Sleep(time.Duration(i+1) * w.Backoff)
		err = w.Store.InsertAudit(ctx, rec)
	}
	if err != nil {
		return w.deadLetter(ctx, m, "store", err)
	}

	if rec.Result == ResultMismatch {
		w.Log.Warn("ticket amount mismatch",
			zap.String("ticket_id", rec.TicketID),
			zap.Int("combos", rec.Combos),
			zap.Int("expected_combos", rec.ExpectedCombos),
			zap.Int64("amount", rec.Amount),
			zap.Int64("expected_amount", rec.ExpectedAmount),
		)
	}
	if w.OnAudited != nil {
		w.OnAudited(rec.Result)
	}
	return nil
}

// deadLetter republica a mensagem original na DLQ com o motivo no header
func (w *Worker) deadLetter(ctx context.Context, m kafka.Message, reason string, cause error) error {
	if w.OnDLQ != nil {
		w.OnDLQ(reason)
	}
	if w.DLQ == nil {
		return cause
	}
	dl := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: []kafka.Header{{Key: "dlq_reason", Value: []byte(reason)}},
	}
	if err := w.DLQ.WriteMessages(ctx, dl); err != nil {
		return errors.Join(cause, fmt.Errorf("dlq write: %w", err))
	}
	return cause
}
