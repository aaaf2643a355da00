package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rshan11/submittal4subs-sub001/internal/analysis"
	"github.com/Rshan11/submittal4subs-sub001/internal/api"
	"github.com/Rshan11/submittal4subs-sub001/internal/config"
	"github.com/Rshan11/submittal4subs-sub001/internal/divcache"
	"github.com/Rshan11/submittal4subs-sub001/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Division map cache: Postgres when configured, in-memory otherwise.
	var store divcache.Store
	var pgStore *divcache.PostgresStore
	if cfg.DatabaseURL != "" {
		var err error
		pgStore, err = divcache.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := pgStore.Initialize(ctx); err != nil {
			log.Error("failed to initialize cache schema", "error", err)
			os.Exit(1)
		}
		store = pgStore
		log.Info("using postgres division map cache")
	} else {
		store = divcache.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory division map cache")
	}
	cache := divcache.New(store, log)

	// Gemini analysis client.
	gemini := analysis.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)

	// Pipeline.
	orch := pipeline.NewOrchestrator(cfg, cache, gemini, log)
	orch.Start(ctx)

	// HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		gemini.Close()
		if pgStore != nil {
			pgStore.Close()
		}
	}()

	log.Info("starting spec analysis service", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
