package auditor

import (
	"context"
	"database/sql"
)

type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{DB: db} }

// InsertAudit é idempotente por ticket_id (reentrega do Kafka)
func (s *PostgresStore) InsertAudit(ctx context.Context, r Record) error {
	const q = `
		INSERT INTO ticket_audit
		  (ticket_id, user_id, bet_type, combos, amount, expected_combos, expected_amount, result, placed_at, audited_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		ON CONFLICT (ticket_id) DO NOTHING
	`
	_, err := s.DB.ExecContext(ctx, q,
		r.TicketID, r.UserID, r.BetType, r.Combos, r.Amount,
		r.ExpectedCombos, r.ExpectedAmount, r.Result, r.PlacedAt,
	)
	return err
}
