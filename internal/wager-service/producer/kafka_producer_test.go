package producer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

type captureWriter struct{ msgs []kafka.Message }

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestPublishTicketPlaced(t *testing.T) {
	w := &captureWriter{}
	p := &KafkaPublisher{Writer: w, Now: func() int64 { return 42 }}

	sel := wager.Selection{BetType: wager.DailyDouble, Legs: []wager.Leg{{RaceID: "R5", Horses: []int{1}}, {RaceID: "R6", Horses: []int{2, 3}}}}
	tk := wager.NewTicket(sel, wager.Settled{TicketID: "TK-9", Combos: 2, UnitCost: 5, Units: 1, Amount: 10}, time.Time{})

	if err := p.PublishTicketPlaced(context.Background(), "u7", tk); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "TK-9" {
		t.Fatalf("msgs = %+v", w.msgs)
	}

	var e events.TicketPlaced
	if err := json.Unmarshal(w.msgs[0].Value, &e); err != nil {
		t.Fatal(err)
	}
	if e.UserID != "u7" || e.BetType != "DAILY_DOUBLE" || e.Amount != 10 || e.TsUnixMs != 42 {
		t.Errorf("event = %+v", e)
	}
	if string(e.Selection) != `{"legs":[{"race_id":"R5","horses":[1]},{"race_id":"R6","horses":[2,3]}]}` {
		t.Errorf("selection = %s", e.Selection)
	}
}
