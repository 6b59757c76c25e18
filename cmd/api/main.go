package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/config"
	"github.com/kshitijgupta505/text-classify/internal/handler"
	"github.com/kshitijgupta505/text-classify/internal/middleware"
	"github.com/kshitijgupta505/text-classify/internal/service/ai"
	"github.com/kshitijgupta505/text-classify/internal/service/classify"
	"github.com/kshitijgupta505/text-classify/internal/service/cms"
	"github.com/kshitijgupta505/text-classify/internal/service/stats"
	"github.com/kshitijgupta505/text-classify/internal/service/stream"
	"github.com/kshitijgupta505/text-classify/internal/store"
	memorystore "github.com/kshitijgupta505/text-classify/internal/store/memory"
	mongostore "github.com/kshitijgupta505/text-classify/internal/store/mongo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env is optional; system environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	var chats store.ChatStore
	var records store.ClassificationStore
	if cfg.Mongo.Enabled() {
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			logger.Fatal("connect mongodb", zap.Error(err))
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		mongoStore := mongostore.New(client.Database(cfg.Mongo.Database))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logger.Fatal("ensure mongodb indexes", zap.Error(err))
		}
		chats, records = mongoStore, mongoStore
		logger.Info("using mongodb store", zap.String("database", cfg.Mongo.Database))
	} else {
		memStore := memorystore.New()
		chats, records = memStore, memStore
		logger.Warn("MONGODB_URI not set, using in-memory store")
	}

	var syncer *cms.Syncer
	if cfg.CMS.Enabled() {
		client := cms.NewClient(cms.Config{
			ProjectID:  cfg.CMS.ProjectID,
			Dataset:    cfg.CMS.Dataset,
			Token:      cfg.CMS.Token,
			APIVersion: cfg.CMS.APIVersion,
			BaseURL:    cfg.CMS.BaseURL,
		}, logger)
		syncer = cms.NewSyncer(client, logger)
		logger.Info("cms user sync enabled", zap.String("dataset", cfg.CMS.Dataset))
	} else {
		logger.Warn("cms credentials not configured, user sync disabled")
	}

	statsService := stats.NewService(records)
	hub := stats.NewHub(statsService, logger)

	classifier := classify.NewService(cfg.Model.BaseURL, cfg.Model.Timeout, records, hub, logger)

	var runner ai.Runner
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn("chat model init failed, agent turns disabled", zap.Error(err))
		} else {
			tools, err := ai.Tools(classifier)
			if err != nil {
				logger.Fatal("build agent tools", zap.Error(err))
			}
			runner, err = ai.NewAgentRunner(ctx, chatModel, tools, logger)
			if err != nil {
				logger.Fatal("build agent runner", zap.Error(err))
			}
			logger.Info("agent runner initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Warn("model credentials not configured, agent turns disabled")
	}

	orchestrator := stream.NewOrchestrator(chats, classifier, runner, stream.NewPacer(cfg.Stream.TypingDelay), logger)

	router := handler.NewRouter(handler.Deps{
		Verifier:      newVerifier(cfg.Auth, logger),
		Chats:         chats,
		Records:       records,
		Orchestrator:  orchestrator,
		Stats:         statsService,
		Hub:           hub,
		Syncer:        syncer,
		WebhookSecret: cfg.CMS.WebhookSecret,
		Log:           logger,
	})

	startServer(ctx, cfg.Server, router, logger)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	return zapCfg.Build()
}

func newVerifier(cfg config.AuthConfig, logger *zap.Logger) middleware.Verifier {
	if cfg.SessionSecret != "" {
		return middleware.NewSessionVerifier(cfg.SessionSecret)
	}
	if len(cfg.StaticTokens) > 0 {
		return middleware.NewStaticVerifier(cfg.StaticTokens)
	}
	logger.Warn("no auth configured, accepting dev-token only")
	return middleware.NewStaticVerifier(map[string]string{"dev-token": "local-user"})
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("api listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
