package events

import "time"

// Evento publicado no tópico "tote_board_snapshots".
// Cada snapshot substitui por inteiro o anterior do mesmo (race, pool).
type BoardCell struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Value  float64 `json:"value"`
	Capped bool    `json:"capped,omitempty"`
}

type BoardSnapshot struct {
	RaceID    string      `json:"race_id"`
	Pool      string      `json:"pool"` // "FORECAST" | "DAILY_DOUBLE"
	Cells     []BoardCell `json:"cells"`
	Version   int64       `json:"version"` // cresce a cada publicação do totalizador
	UpdatedAt time.Time   `json:"updated_at"`
	Source    string      `json:"source"`
}
