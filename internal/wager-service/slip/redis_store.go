package slip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	sharedcache "github.com/radieske/racebet-wagering-poc/internal/shared/cache"
)

// RedisStore guarda o cupom serializado com TTL renovado a cada escrita
type RedisStore struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedisStore(r *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{R: r, TTL: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (Slip, error) {
	b, err := s.R.Get(ctx, sharedcache.SlipKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Slip{}, ErrNotFound
	}
	if err != nil {
		return Slip{}, err
	}
	var sl Slip
	if err := json.Unmarshal(b, &sl); err != nil {
		return Slip{}, fmt.Errorf("decode slip %s: %w", id, err)
	}
	// protege contra dados gravados por versões antigas
	if err := sl.Selection.Check(); err != nil {
		return Slip{}, fmt.Errorf("slip %s: %w", id, err)
	}
	return sl, nil
}

func (s *RedisStore) Put(ctx context.Context, sl Slip) error {
	b, err := json.Marshal(sl)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, sharedcache.SlipKey(sl.ID), b, s.TTL).Err()
}
