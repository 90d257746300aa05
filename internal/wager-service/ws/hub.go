package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// conn serializa escritas; gorilla não aceita writers concorrentes
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.ws.WriteJSON(v)
}

func (c *conn) writeRaw(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por páreo
// subs: mapeia raceID para o conjunto de conexões inscritas
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*conn]struct{}

	OnConnect    func()
	OnDisconnect func()
	OnSent       func()
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Cada cliente pode se inscrever em vários páreos
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()
	if h.OnConnect != nil {
		h.OnConnect()
	}

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.RaceID != "" {
				h.subscribe(msg.RaceID, c)
			}
		case "unsubscribe":
			h.unsubscribe(msg.RaceID, c)
		case "ping":
			_ = c.writeJSON(map[string]string{"type": "pong"})
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for race, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, race)
		}
	}
	h.mu.Unlock()
	if h.OnDisconnect != nil {
		h.OnDisconnect()
	}
}

func (h *Hub) subscribe(raceID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[raceID]; !ok {
		h.subs[raceID] = make(map[*conn]struct{})
	}
	h.subs[raceID][c] = struct{}{}
}

func (h *Hub) unsubscribe(raceID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[raceID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, raceID)
		}
	}
}

// Subscribers retorna quantas conexões acompanham o páreo
func (h *Hub) Subscribers(raceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[raceID])
}

// Broadcast envia a atualização para os clientes inscritos no páreo
func (h *Hub) Broadcast(update Update) {
	h.mu.RLock()
	conns := make([]*conn, 0, len(h.subs[update.RaceID]))
	for c := range h.subs[update.RaceID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	for _, c := range conns {
		if err := c.writeRaw(b); err != nil {
			h.log.Debug("ws write failed", zap.String("race_id", update.RaceID), zap.Error(err))
			continue
		}
		if h.OnSent != nil {
			h.OnSent()
		}
	}
}
