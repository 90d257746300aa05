package repo

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lib/pq"
)

// RaceNameSource resolve nomes de páreos por id
type RaceNameSource interface {
	RaceNames(ctx context.Context, ids []string) (map[string]string, error)
}

// RaceNames busca os nomes na tabela races; ids desconhecidos ficam fora do mapa
func (p *Postgres) RaceNames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, name FROM races WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query races: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// RaceCache fica na frente do Postgres; nomes de páreos não mudam durante o dia
type RaceCache struct {
	cache *lru.Cache[string, string]
	lock  sync.Mutex
	next  RaceNameSource

	OnHit  func()
	OnMiss func()
}

func NewRaceCache(size int, next RaceNameSource) (*RaceCache, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &RaceCache{cache: c, next: next}, nil
}

// RaceNames implementa RaceNameSource
func (c *RaceCache) RaceNames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	var missing []string

	c.lock.Lock()
	for _, id := range ids {
		if name, ok := c.cache.Get(id); ok {
			out[id] = name
			continue
		}
		missing = append(missing, id)
	}
	c.lock.Unlock()

	if c.OnHit != nil && len(out) > 0 {
		c.OnHit()
	}
	if len(missing) == 0 {
		return out, nil
	}
	if c.OnMiss != nil {
		c.OnMiss()
	}

	fetched, err := c.next.RaceNames(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	for id, name := range fetched {
		c.cache.Add(id, name)
		out[id] = name
	}
	return out, nil
}
