// Package stream serves the SSE chat endpoint, forwarding orchestrator
// events to the client as they are produced.
package stream

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/middleware"
	chatmodel "github.com/kshitijgupta505/text-classify/internal/model/chat"
	streamservice "github.com/kshitijgupta505/text-classify/internal/service/stream"
	"github.com/kshitijgupta505/text-classify/pkg/utils"
)

// Handler bridges the orchestrator's event channel onto an SSE response.
type Handler struct {
	orchestrator *streamservice.Orchestrator
	log          *zap.Logger
}

// New creates the stream handler.
func New(orchestrator *streamservice.Orchestrator, log *zap.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, log: log}
}

// RegisterRoutes mounts the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

type streamRequest struct {
	Messages   []chatmodel.Turn `json:"messages"`
	NewMessage string           `json:"newMessage"`
	ChatID     string           `json:"chatId"`
	ModelID    string           `json:"modelId"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload streamRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.NewMessage == "" {
		utils.RespondError(w, http.StatusBadRequest, "newMessage is required")
		return
	}
	if payload.ChatID == "" {
		utils.RespondError(w, http.StatusBadRequest, "chatId is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.orchestrator.Stream(r.Context(), streamservice.Request{
		UserID:     userID,
		ChatID:     payload.ChatID,
		NewMessage: payload.NewMessage,
		History:    payload.Messages,
		ModelID:    payload.ModelID,
	})

	for ev := range events {
		if err := utils.SendSSEChunk(w, flusher, ev); err != nil {
			// Usually a disconnected client. Drain so the orchestrator
			// can finish persisting the turn.
			h.log.Debug("stop writing stream", zap.String("chatId", payload.ChatID), zap.Error(err))
			for range events {
			}
			return
		}
	}
}
