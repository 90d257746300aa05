package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// RaceID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	RaceID string `json:"raceId"` // requerido em subscribe/unsubscribe
}

// Update é o que o board-processor publica no Redis e o hub repassa.
// O cliente recalcula a cotação do cupom ao receber.
type Update struct {
	Type    string          `json:"type"` // board | horse_status
	RaceID  string          `json:"raceId"`
	Payload json.RawMessage `json:"payload"`
}
