package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/radieske/racebet-wagering-poc/pkg/contracts/events"
)

// PostgresRepo persiste o estado dos cavalos e o histórico de painéis
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// UpsertRunnerStatus grava o status atual do cavalo na tabela runners
// Ignora eventos mais antigos que o último aplicado
func (r *PostgresRepo) UpsertRunnerStatus(ctx context.Context, e events.HorseStatusChanged) error {
	const q = `
		INSERT INTO runners (race_id, horse_number, status, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (race_id, horse_number) DO UPDATE SET
		  status     = EXCLUDED.status,
		  updated_at = EXCLUDED.updated_at
		WHERE runners.updated_at <= EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, q, e.RaceID, e.HorseNumber, e.Status, e.Ts)
	return err
}

// InsertBoardHistory guarda o snapshot aplicado em board_history (auditoria)
func (r *PostgresRepo) InsertBoardHistory(ctx context.Context, s events.BoardSnapshot) error {
	cells, err := json.Marshal(s.Cells)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO board_history
		  (race_id, pool, version, cells, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5)
	`
	_, err = r.DB.ExecContext(ctx, q, s.RaceID, s.Pool, s.Version, cells, s.UpdatedAt)
	return err
}
