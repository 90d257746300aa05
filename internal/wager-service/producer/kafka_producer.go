package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

// MessageWriter é o subconjunto de *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer MessageWriter
	Now    func() int64 // unix ms
}

func NewKafkaPublisher(w *kafka.Writer, now func() int64) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Now: now}
}

// TicketEvent monta o evento ticket_placed a partir do bilhete confirmado
func TicketEvent(userID string, t wager.Ticket, tsUnixMs int64) (events.TicketPlaced, error) {
	sel, err := json.Marshal(wager.SettlementPayload(t.Selection))
	if err != nil {
		return events.TicketPlaced{}, err
	}
	return events.TicketPlaced{
		TicketID:  t.ID,
		UserID:    userID,
		BetType:   t.BetType.String(),
		RaceID:    t.Selection.RaceID,
		Selection: sel,
		Combos:    t.Combos,
		UnitCost:  int64(t.UnitCost),
		Units:     t.Units,
		Amount:    int64(t.Amount),
		TsUnixMs:  tsUnixMs,
	}, nil
}

// PublishTicketPlaced publica com chave = ticket id
func (p *KafkaPublisher) PublishTicketPlaced(ctx context.Context, userID string, t wager.Ticket) error {
	e, err := TicketEvent(userID, t, p.Now())
	if err != nil {
		return fmt.Errorf("build ticket event: %w", err)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(t.ID), Value: b})
}
