package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
)

// Chaves em app_settings
const (
	SettingPromoPercent = "promo_percent"
	SettingPromoText    = "promo_text"
)

type PromoSource interface {
	Promo(ctx context.Context) (*wager.Promo, error)
}

// Promo lê a promoção corrente; sem promoção (ou percentual <= 0) retorna nil
func (p *Postgres) Promo(ctx context.Context) (*wager.Promo, error) {
	pct, err := p.setting(ctx, SettingPromoPercent)
	if err != nil || pct == "" {
		return nil, err
	}
	v, err := strconv.ParseFloat(pct, 64)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", SettingPromoPercent, pct, err)
	}
	text, err := p.setting(ctx, SettingPromoText)
	if err != nil {
		return nil, err
	}
	promo := &wager.Promo{Percent: v, Text: text}
	if !promo.Active() {
		return nil, nil
	}
	return promo, nil
}

func (p *Postgres) setting(ctx context.Context, key string) (string, error) {
	var v string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

// PromoCache guarda a promoção por um TTL curto; o relógio é injetável para testes
type PromoCache struct {
	next  PromoSource
	ttl   time.Duration
	clock clockwork.Clock

	mu        sync.Mutex
	value     *wager.Promo
	fetchedAt time.Time
	loaded    bool
}

func NewPromoCache(next PromoSource, ttl time.Duration, clock clockwork.Clock) *PromoCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PromoCache{next: next, ttl: ttl, clock: clock}
}

// Promo implementa PromoSource. Em erro devolve o último valor conhecido, se houver.
func (c *PromoCache) Promo(ctx context.Context) (*wager.Promo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.loaded && now.Sub(c.fetchedAt) < c.ttl {
		return c.value, nil
	}

	v, err := c.next.Promo(ctx)
	if err != nil {
		if c.loaded {
			return c.value, nil
		}
		return nil, err
	}
	c.value, c.fetchedAt, c.loaded = v, now, true
	return v, nil
}
