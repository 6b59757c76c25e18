package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	chathandler "github.com/kshitijgupta505/text-classify/internal/handler/chat"
	statshandler "github.com/kshitijgupta505/text-classify/internal/handler/stats"
	streamhandler "github.com/kshitijgupta505/text-classify/internal/handler/stream"
	userhandler "github.com/kshitijgupta505/text-classify/internal/handler/user"
	"github.com/kshitijgupta505/text-classify/internal/middleware"
	"github.com/kshitijgupta505/text-classify/internal/service/cms"
	statsservice "github.com/kshitijgupta505/text-classify/internal/service/stats"
	streamservice "github.com/kshitijgupta505/text-classify/internal/service/stream"
	"github.com/kshitijgupta505/text-classify/internal/store"
	"github.com/kshitijgupta505/text-classify/pkg/utils"
)

// Deps carries everything the router mounts. Orchestrator, Stats, Hub
// and Syncer may be nil; the affected routes then answer 503.
type Deps struct {
	Verifier      middleware.Verifier
	Chats         store.ChatStore
	Records       store.ClassificationStore
	Orchestrator  *streamservice.Orchestrator
	Stats         *statsservice.Service
	Hub           *statsservice.Hub
	Syncer        *cms.Syncer
	WebhookSecret string
	Log           *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.CORS)

	chatHandler := chathandler.New(deps.Chats, deps.Log)
	userHandler := userhandler.New(deps.Syncer, deps.WebhookSecret, deps.Log)

	r.Route("/api", func(api chi.Router) {
		// Webhook deliveries authenticate by signature, not session.
		api.Post("/webhooks/user-created", userHandler.HandleUserCreated)

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.Auth(deps.Verifier))

			chatHandler.RegisterRoutes(authed)
			userHandler.RegisterRoutes(authed)

			if deps.Stats != nil {
				statshandler.New(deps.Stats, deps.Hub, deps.Records, deps.Log).RegisterRoutes(authed)
			}

			if deps.Orchestrator != nil {
				streamhandler.New(deps.Orchestrator, deps.Log).RegisterRoutes(authed)
			} else {
				authed.Post("/chat/stream", func(w http.ResponseWriter, _ *http.Request) {
					utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				})
			}
		})
	})

	return r
}
