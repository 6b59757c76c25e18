// Package user serves profile mirroring: an authenticated sync endpoint
// and the identity provider's user-created webhook.
package user

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/middleware"
	"github.com/kshitijgupta505/text-classify/internal/service/cms"
	"github.com/kshitijgupta505/text-classify/pkg/utils"
)

// Handler mirrors user profiles into the CMS.
type Handler struct {
	syncer        *cms.Syncer
	webhookSecret string
	log           *zap.Logger
}

// New creates the user handler. syncer may be nil when the CMS is not
// configured; the endpoints then answer 503.
func New(syncer *cms.Syncer, webhookSecret string, log *zap.Logger) *Handler {
	return &Handler{syncer: syncer, webhookSecret: webhookSecret, log: log}
}

// RegisterRoutes mounts the authenticated sync route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/users/sync", h.handleSync)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.syncer == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "user sync unavailable")
		return
	}

	var payload struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		ImageURL  string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.syncer.SyncUser(r.Context(), cms.Profile{
		ExternalID: userID,
		Email:      payload.Email,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		ImageURL:   payload.ImageURL,
	})
	if err != nil {
		h.log.Error("sync user", zap.String("userId", userID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to sync user")
		return
	}

	message := "user updated"
	if created {
		message = "user created"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// webhookEvent is the identity provider's user.created payload shape.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID              string `json:"id"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		ProfileImageURL string `json:"profile_image_url"`
		EmailAddresses  []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// HandleUserCreated verifies the webhook signature and mirrors the new
// user. Mounted outside the session-auth group.
func (h *Handler) HandleUserCreated(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "user sync unavailable")
		return
	}
	if h.webhookSecret == "" {
		h.log.Error("webhook secret not configured")
		utils.RespondError(w, http.StatusInternalServerError, "webhook secret not configured")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := verifySignature(h.webhookSecret, r.Header, body); err != nil {
		h.log.Warn("reject webhook", zap.Error(err))
		utils.RespondError(w, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if event.Type != "user.created" {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
		return
	}

	email := ""
	if len(event.Data.EmailAddresses) > 0 {
		email = event.Data.EmailAddresses[0].EmailAddress
	}

	if _, err := h.syncer.SyncUser(r.Context(), cms.Profile{
		ExternalID: event.Data.ID,
		Email:      email,
		FirstName:  event.Data.FirstName,
		LastName:   event.Data.LastName,
		ImageURL:   event.Data.ProfileImageURL,
	}); err != nil {
		h.log.Error("mirror webhook user", zap.String("externalId", event.Data.ID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to mirror user")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "user mirrored"})
}
