package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta os canais do board-processor e repassa ao Hub
func StartRedisSubscriber(ctx context.Context, r *redis.Client, hub *Hub, log *zap.Logger, channels ...string) {
	sub := r.Subscribe(ctx, channels...)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				upd, err := decodeUpdate(msg.Payload)
				if err != nil {
					log.Warn("ws subscriber unmarshal error", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				hub.Broadcast(upd)
			}
		}
	}()
}

func decodeUpdate(payload string) (Update, error) {
	var upd Update
	if err := json.Unmarshal([]byte(payload), &upd); err != nil {
		return Update{}, err
	}
	return upd, nil
}
