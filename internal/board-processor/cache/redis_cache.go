package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	sharedcache "github.com/radieske/racebet-wagering-poc/internal/shared/cache"
	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

// replaceIfNewer troca o snapshot inteiro só se a versão for maior que a gravada.
// Retorna 1 quando aplicou, 0 quando o snapshot chegou atrasado.
var replaceIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RedisCache guarda o painel corrente e o conjunto de cavalos retirados
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// SetSnapshot substitui o painel (race, pool) se o snapshot for mais novo
func (r *RedisCache) SetSnapshot(ctx context.Context, s events.BoardSnapshot) (bool, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("marshal snapshot: %w", err)
	}
	res, err := replaceIfNewer.Run(ctx, r.Client,
		[]string{sharedcache.BoardKey(s.RaceID, s.Pool)},
		strconv.FormatInt(s.Version, 10), b, r.TTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// SetScratched adiciona/remove o cavalo do conjunto de retirados do páreo
func (r *RedisCache) SetScratched(ctx context.Context, raceID string, horse int, scratched bool) error {
	key := sharedcache.ScratchedKey(raceID)
	pipe := r.Client.TxPipeline()
	if scratched {
		pipe.SAdd(ctx, key, horse)
	} else {
		pipe.SRem(ctx, key, horse)
	}
	pipe.Expire(ctx, key, 24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}
