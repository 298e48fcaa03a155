package ws

import (
	"net/http"
	"sync"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/gorilla/websocket"
)

// Hub fans pipeline events out to operator websocket connections, grouped by room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]bool
	log   *logger.ZapLogger
}

func NewHub(log *logger.ZapLogger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
		log:   log,
	}
}

func (h *Hub) Register(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[roomID][conn] = true

	h.log.Log(logger.LogEntry{
		Level:   "debug",
		Message: "[hub] register",
		Fields:  map[string]any{"room": roomID, "conns": len(h.rooms[roomID])},
	})
}

func (h *Hub) Unregister(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok {
		return
	}

	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
	}
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}
}

// Count returns the number of connections in a room.
func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// SendToRoom writes msg to every connection of the room. Callers must not
// send concurrently; one forwarding goroutine owns all writes.
func (h *Hub) SendToRoom(roomID string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.rooms[roomID] {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "[hub] send failed",
				Fields:  map[string]any{"room": roomID},
				Error:   err,
			})
		}
	}
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
