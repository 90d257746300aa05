package totesim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

// Race é um páreo do card simulado
type Race struct {
	ID      string
	Name    string
	Runners int
}

// Card fixo de páreos simulados
var Card = []Race{
	{ID: "GAV-R1", Name: "Gávea 1", Runners: 8},
	{ID: "GAV-R2", Name: "Gávea 2", Runners: 10},
	{ID: "GAV-R3", Name: "Gávea 3", Runners: 7},
	{ID: "GAV-R4", Name: "Gávea 4", Runners: 12},
}

// Generator produz painéis e retiradas aleatórios, com versão crescente por pool
type Generator struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	races     []Race
	version   int64
	scratched map[string]map[int]bool
	source    string
	now       func() time.Time
}

func NewGenerator(races []Race, seed int64, source string, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rnd:       rand.New(rand.NewSource(seed)),
		races:     races,
		scratched: make(map[string]map[int]bool),
		source:    source,
		now:       now,
	}
}

// Boards gera um FORECAST por páreo e um DAILY_DOUBLE por par de páreos seguidos
// (chave = páreo da primeira perna)
func (g *Generator) Boards() []events.BoardSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.version++
	ts := g.now().UTC()
	out := make([]events.BoardSnapshot, 0, 2*len(g.races))
	for i, r := range g.races {
		out = append(out, g.snapshot(r.ID, wager.Forecast, r, r, ts))
		if i+1 < len(g.races) {
			out = append(out, g.snapshot(r.ID, wager.DailyDouble, r, g.races[i+1], ts))
		}
	}
	return out
}

func (g *Generator) snapshot(raceID string, pool wager.BetType, rows, cols Race, ts time.Time) events.BoardSnapshot {
	s := events.BoardSnapshot{
		RaceID:    raceID,
		Pool:      pool.String(),
		Version:   g.version,
		UpdatedAt: ts,
		Source:    g.source,
	}
	for a := 1; a <= rows.Runners; a++ {
		if g.scratched[rows.ID][a] {
			continue
		}
		for b := 1; b <= cols.Runners; b++ {
			if g.scratched[cols.ID][b] || (pool == wager.Forecast && a == b) {
				continue
			}
			v := 2 + g.rnd.Float64()*200
			capped := v > 180
			if capped {
				v = 180
			}
			s.Cells = append(s.Cells, events.BoardCell{Row: a, Col: b, Value: float64(int(v*10)) / 10, Capped: capped})
		}
	}
	return s
}

// MaybeScratch retira um cavalo com probabilidade pct (0..100).
// Nunca deixa um páreo com menos de 4 cavalos ativos.
func (g *Generator) MaybeScratch(pct int) (events.HorseStatusChanged, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.rnd.Intn(100) >= pct {
		return events.HorseStatusChanged{}, false
	}
	r := g.races[g.rnd.Intn(len(g.races))]
	if r.Runners-len(g.scratched[r.ID]) <= 4 {
		return events.HorseStatusChanged{}, false
	}
	horse := 1 + g.rnd.Intn(r.Runners)
	if g.scratched[r.ID][horse] {
		return events.HorseStatusChanged{}, false
	}
	if g.scratched[r.ID] == nil {
		g.scratched[r.ID] = make(map[int]bool)
	}
	g.scratched[r.ID][horse] = true
	return events.HorseStatusChanged{
		RaceID:      r.ID,
		HorseNumber: horse,
		Status:      events.HorseScratched,
		Ts:          g.now().UTC(),
	}, true
}

// IsScratched é consultado pela liquidação simulada
func (g *Generator) IsScratched(raceID string, horse int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scratched[raceID][horse]
}

// Runners retorna o número de cavalos do páreo (0 se desconhecido)
func (g *Generator) Runners(raceID string) int {
	for _, r := range g.races {
		if r.ID == raceID {
			return r.Runners
		}
	}
	return 0
}
