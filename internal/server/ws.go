package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans out match snapshots to websocket subscribers, one subscriber set
// per match id.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*websocket.Conn]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*websocket.Conn]struct{}),
		logger:      logger,
	}
}

func (h *Hub) subscribe(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subscribers[matchID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.subscribers[matchID] = set
	}
	set[conn] = struct{}{}
}

func (h *Hub) unsubscribe(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subscribers[matchID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subscribers, matchID)
		}
	}
}

// Broadcast sends the payload to every subscriber of the match. Dead
// connections are dropped.
func (h *Hub) Broadcast(matchID string, payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subscribers[matchID]))
	for conn := range h.subscribers[matchID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("dropping websocket subscriber",
				zap.String("match_id", matchID),
				zap.Error(err),
			)
			h.unsubscribe(matchID, conn)
			conn.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWebSocket subscribes the client to match snapshots. The current
// state is sent immediately so late joiners do not wait for the next action.
func (s *Server) handleWebSocket(c *gin.Context) {
	matchID := c.Param("match_id")
	snap, err := s.engine.Snapshot(matchID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.subscribe(matchID, conn)

	if err := conn.WriteJSON(gin.H{"match_id": matchID, "game_state": json.RawMessage(snap.Data)}); err != nil {
		s.hub.unsubscribe(matchID, conn)
		conn.Close()
		return
	}

	// Reader loop only watches for close; clients do not send commands over
	// the socket.
	go func() {
		defer func() {
			s.hub.unsubscribe(matchID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
