package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gsarma/socialgate/internal/api"
	"github.com/gsarma/socialgate/internal/config"
	"github.com/gsarma/socialgate/internal/crypto"
	"github.com/gsarma/socialgate/internal/logging"
	"github.com/gsarma/socialgate/internal/oauth"
	"github.com/gsarma/socialgate/internal/platform"
	"github.com/gsarma/socialgate/internal/publish"
	"github.com/gsarma/socialgate/internal/store"
	"github.com/gsarma/socialgate/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	registry := platform.NewRegistry(cfg.PlatformConfigs()...)
	for _, name := range registry.Unconfigured() {
		logger.Warn("platform not configured", "platform", name)
	}
	if cfg.TwitterCodeVerifier == config.DefaultTwitterCodeVerifier {
		logger.Warn("twitter exchanges without state fall back to the static PKCE verifier")
	}

	var sealer *crypto.Sealer
	if cfg.StateSecret != "" {
		sealer, err = crypto.NewSealer(cfg.StateSecret)
	} else {
		logger.Warn("STATE_SECRET not set; authorize states will not survive a restart")
		sealer, err = crypto.NewRandomSealer()
	}
	if err != nil {
		logger.Fatal("failed to initialize state sealer", "error", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	tokens := oauth.NewService(registry, oauth.NewStateCodec(sealer, cfg.StateTTL),
		oauth.WithHTTPClient(httpClient),
		oauth.WithLogger(logger.WithPrefix("oauth")),
		oauth.WithDefaultVerifier(cfg.TwitterCodeVerifier),
	)
	posts := publish.NewDefault(registry, publish.Options{
		HTTPClient:   httpClient,
		Logger:       logger.WithPrefix("publish"),
		PollInterval: cfg.InstagramPollInterval,
		PollAttempts: cfg.InstagramPollAttempts,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var audit *store.Recorder
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			logger.Fatal("failed to run migrations", "error", err)
		}
		w := worker.New(store.New(pool), cfg.AuditQueueSize,
			worker.WithConcurrency(cfg.AuditWorkers),
			worker.WithLogger(logger.WithPrefix("worker")),
		)
		go func() {
			w.Start(workerCtx)
			close(workerDone)
		}()
		audit = store.NewRecorder(w, logger.WithPrefix("audit"))
		logger.Info("audit trail enabled", "workers", cfg.AuditWorkers)
		if cfg.AdminAPIKey == "" {
			logger.Warn("ADMIN_API_KEY not set; /audit is readable without a key")
		}
	} else {
		close(workerDone)
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Deps{
			Tokens:    tokens,
			Posts:     posts,
			Audit:     audit,
			Logger:    logger,
			Platforms: registry.Configured(),
			AdminKey:  cfg.AdminAPIKey,
		}),
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "platforms", registry.Configured())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	stopWorker()
	<-workerDone
}
