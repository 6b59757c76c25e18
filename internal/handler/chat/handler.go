// Package chat exposes chat and message history endpoints.
package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/middleware"
	chatmodel "github.com/kshitijgupta505/text-classify/internal/model/chat"
	"github.com/kshitijgupta505/text-classify/internal/store"
	"github.com/kshitijgupta505/text-classify/pkg/utils"
)

// Handler serves chat CRUD for the authenticated user.
type Handler struct {
	chats store.ChatStore
	log   *zap.Logger
}

// New creates the chat handler.
func New(chats store.ChatStore, log *zap.Logger) *Handler {
	return &Handler{chats: chats, log: log}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chats", h.handleCreateChat)
	r.Get("/chats", h.handleListChats)
	r.Get("/chats/{chatID}/messages", h.handleListMessages)
}

func (h *Handler) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Title == "" {
		payload.Title = "New chat"
	}

	created, err := h.chats.CreateChat(r.Context(), chatmodel.Chat{
		Title:  payload.Title,
		UserID: userID,
	})
	if err != nil {
		h.log.Error("create chat", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chats, err := h.chats.ListChats(r.Context(), userID)
	if err != nil {
		h.log.Error("list chats", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chats)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chatID := chi.URLParam(r, "chatID")
	owned, err := h.chats.GetChat(r.Context(), chatID)
	if err != nil || owned.UserID != userID {
		// A foreign chat is indistinguishable from a missing one.
		utils.RespondError(w, http.StatusNotFound, "chat not found")
		return
	}

	messages, err := h.chats.ListMessages(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "chat not found")
			return
		}
		h.log.Error("list messages", zap.String("chatId", chatID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}
