package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/radieske/racebet-wagering-poc/internal/wager"
)

// Postgres implementa a persistência de bilhetes, páreos e configurações
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// SaveTicket grava o bilhete confirmado com os números da liquidação
func (p *Postgres) SaveTicket(ctx context.Context, userID string, t wager.Ticket) error {
	sel, err := json.Marshal(t.Selection)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO tickets (id,user_id,bet_type,selection,combos,unit_cost,units,amount,placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, userID, string(t.BetType), sel, t.Combos, int64(t.UnitCost), t.Units, int64(t.Amount), t.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// ListTickets retorna o histórico do usuário, mais recentes primeiro.
// Linhas antigas só têm amount; combos/unidades são reconstruídos pelo motor.
func (p *Postgres) ListTickets(ctx context.Context, userID string, limit int) ([]wager.Ticket, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, selection, combos, unit_cost, units, amount, placed_at
		FROM tickets WHERE user_id=$1
		ORDER BY placed_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var out []wager.Ticket
	for rows.Next() {
		var (
			id                  string
			raw                 []byte
			combos, cost, units sql.NullInt64
			amount              float64
			placedAt            time.Time
		)
		if err := rows.Scan(&id, &raw, &combos, &cost, &units, &amount, &placedAt); err != nil {
			return nil, err
		}
		t, err := ticketFromRow(id, raw, combos, cost, units, amount, placedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func ticketFromRow(id string, raw []byte, combos, cost, units sql.NullInt64, amount float64, placedAt time.Time) (wager.Ticket, error) {
	var sel wager.Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return wager.Ticket{}, fmt.Errorf("ticket %s selection: %w", id, err)
	}
	if err := sel.Check(); err != nil {
		return wager.Ticket{}, fmt.Errorf("ticket %s: %w", id, err)
	}
	if !combos.Valid || !cost.Valid || !units.Valid {
		return wager.Reconstruct(id, sel, amount, placedAt), nil
	}
	return wager.NewTicket(sel, wager.Settled{
		TicketID: id,
		Combos:   int(combos.Int64),
		UnitCost: wager.Money(cost.Int64),
		Units:    int(units.Int64),
		Amount:   wager.Money(amount),
	}, placedAt), nil
}

// GetTicket busca um bilhete do usuário; sql.ErrNoRows quando não existe
func (p *Postgres) GetTicket(ctx context.Context, userID, id string) (wager.Ticket, error) {
	var (
		raw                 []byte
		combos, cost, units sql.NullInt64
		amount              float64
		placedAt            time.Time
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT selection, combos, unit_cost, units, amount, placed_at
		FROM tickets WHERE id=$1 AND user_id=$2`, id, userID,
	).Scan(&raw, &combos, &cost, &units, &amount, &placedAt)
	if err != nil {
		return wager.Ticket{}, err
	}
	return ticketFromRow(id, raw, combos, cost, units, amount, placedAt)
}
