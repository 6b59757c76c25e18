package stats

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/model/classification"
)

// Hub pushes a user's refreshed current-day stat row to their open
// dashboard websockets whenever a classification is recorded.
type Hub struct {
	stats *Service
	log   *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]string
}

// NewHub builds an empty hub.
func NewHub(stats *Service, log *zap.Logger) *Hub {
	return &Hub{
		stats: stats,
		log:   log,
		conns: make(map[*websocket.Conn]string),
	}
}

// Register tracks a connection for a user until Unregister.
func (h *Hub) Register(conn *websocket.Conn, userID string) {
	h.mu.Lock()
	h.conns[conn] = userID
	h.mu.Unlock()
}

// Unregister drops a connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// ClassificationRecorded recomputes the day row for the record's user and
// fans it out. Failed writes drop the connection; delivery is best-effort.
func (h *Hub) ClassificationRecorded(ctx context.Context, r classification.Record) {
	row, err := h.stats.DayStat(ctx, r.UserID, r.Timestamp)
	if err != nil {
		h.log.Warn("compute live stat row", zap.String("userId", r.UserID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, userID := range h.conns {
		if userID != r.UserID {
			continue
		}
		if err := conn.WriteJSON(row); err != nil {
			h.log.Debug("drop live stats connection", zap.Error(err))
			conn.Close()
			delete(h.conns, conn)
		}
	}
}
