package events

import "time"

const (
	HorseActive    = "active"
	HorseScratched = "scratched"
)

// Evento publicado no tópico "horse_status_changes" quando um cavalo é
// retirado (ou reintegrado) do páreo.
type HorseStatusChanged struct {
	RaceID      string    `json:"race_id"`
	HorseNumber int       `json:"horse_number"`
	Status      string    `json:"status"` // "active" | "scratched"
	Ts          time.Time `json:"ts"`
}

func (e HorseStatusChanged) Scratched() bool { return e.Status == HorseScratched }
