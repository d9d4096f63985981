package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"parentyn-backend/internal/models"
	"parentyn-backend/internal/repository"
	"parentyn-backend/internal/sessionsync"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans session snapshots out to browser tabs. Each tab connects with
// a join code; the first connection for a code attaches a sync listener,
// the last one detaches it. Teacher and student tabs use the same path:
// everyone just watches the store.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
	unsubs      map[string]func()
	listener    *sessionsync.Listener
}

func NewHub(listener *sessionsync.Listener) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		unsubs:      make(map[string]func()),
		listener:    listener,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := repository.NormalizeCode(r.URL.Query().Get("code"))
	if code == "" {
		http.Error(w, "Missing session code", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	snapshot := h.registerConnection(code, conn)
	h.send(conn, snapshot)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(code, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(code string, conn *websocket.Conn) *models.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[code] = append(h.connections[code], conn)

	var snapshot *models.Session
	if len(h.connections[code]) == 1 {
		var unsubscribe func()
		snapshot, unsubscribe = h.listener.Subscribe(context.Background(), code, func(s *models.Session) {
			h.broadcast(code, s)
		})
		h.unsubs[code] = unsubscribe
	} else {
		snapshot, _ = h.listener.Snapshot(context.Background(), code)
	}

	log.Printf("WebSocket connected: session %s (total: %d)", code, len(h.connections[code]))
	return snapshot
}

func (h *Hub) unregisterConnection(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[code]
	for i, c := range conns {
		if c == conn {
			h.connections[code] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[code]) == 0 {
		delete(h.connections, code)
		if unsubscribe, ok := h.unsubs[code]; ok {
			unsubscribe()
			delete(h.unsubs, code)
		}
	}

	log.Printf("WebSocket disconnected: session %s", code)
}

func (h *Hub) broadcast(code string, session *models.Session) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(models.WSMessage{Type: "session_update", Payload: session})
	if err != nil {
		return
	}
	for _, conn := range h.connections[code] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (h *Hub) send(conn *websocket.Conn, session *models.Session) {
	data, err := json.Marshal(models.WSMessage{Type: "session_update", Payload: session})
	if err != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, data)
}
