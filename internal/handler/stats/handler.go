// Package stats serves the dashboard's classification statistics:
// daily series, distribution, a live websocket feed, and record cleanup.
package stats

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/middleware"
	statsservice "github.com/kshitijgupta505/text-classify/internal/service/stats"
	"github.com/kshitijgupta505/text-classify/internal/store"
	"github.com/kshitijgupta505/text-classify/pkg/utils"
)

const defaultDays = 7

// Handler serves classification statistics for the authenticated user.
type Handler struct {
	stats    *statsservice.Service
	hub      *statsservice.Hub
	records  store.ClassificationStore
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// New creates the stats handler. hub may be nil to disable the live feed.
func New(stats *statsservice.Service, hub *statsservice.Hub, records store.ClassificationStore, log *zap.Logger) *Handler {
	return &Handler{
		stats:   stats,
		hub:     hub,
		records: records,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

// RegisterRoutes mounts the stats routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/classification-stats", h.handleRecentStats)
	r.Get("/classification-stats/distribution", h.handleDistribution)
	r.Get("/classification-stats/live", h.handleLive)
	r.Delete("/classifications/{id}", h.handleDelete)
}

func (h *Handler) handleRecentStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	days := defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.RespondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	rows, err := h.stats.RecentStats(r.Context(), userID, days)
	if err != nil {
		h.log.Error("recent stats", zap.String("userId", userID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to retrieve classification statistics")
		return
	}

	utils.RespondJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	from, err := millisParam(r, "start")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "start must be unix milliseconds")
		return
	}
	to, err := millisParam(r, "end")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "end must be unix milliseconds")
		return
	}

	dist, err := h.stats.Distribution(r.Context(), userID, from, to)
	if err != nil {
		h.log.Error("distribution stats", zap.String("userId", userID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to retrieve classification statistics")
		return
	}

	utils.RespondJSON(w, http.StatusOK, dist)
}

// handleLive upgrades to a websocket and keeps it registered with the hub
// until the client goes away. The hub writes; this loop only reads to
// detect the close.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.hub == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "live stats unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade live stats connection", zap.Error(err))
		return
	}

	h.hub.Register(conn, userID)
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.records.GetClassification(r.Context(), id)
	if err != nil || record.UserID != userID {
		utils.RespondError(w, http.StatusNotFound, "classification not found")
		return
	}

	if err := h.records.DeleteClassification(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "classification not found")
			return
		}
		h.log.Error("delete classification", zap.String("id", id), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete classification")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func millisParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
