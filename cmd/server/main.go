package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classmark/session-gateway/internal/config"
	"github.com/classmark/session-gateway/internal/handler"
	"github.com/classmark/session-gateway/internal/kv"
	"github.com/classmark/session-gateway/internal/logger"
	"github.com/classmark/session-gateway/internal/router"
	"github.com/classmark/session-gateway/internal/session"
	"github.com/classmark/session-gateway/internal/testapi"
	"github.com/classmark/session-gateway/internal/validator"
	"github.com/classmark/session-gateway/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("platform", cfg.PlatformBaseURL).
		Str("store", cfg.StoreDriver).
		Msg("Starting Session Gateway")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Durable Store ────────────────────────────────────────────
	store, err := kv.Open(ctx, cfg.StoreDriver, cfg.RedisURL, cfg.SQLitePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open durable store")
	}
	defer store.Close()

	// ─── Platform API Client ───────────────────────────────────────────
	api := testapi.NewClient(cfg.PlatformBaseURL, cfg.PlatformTimeout, log)

	// ─── Session Core ──────────────────────────────────────────────────
	manager := session.NewManager(api, store, log)
	guard := session.NewGuard(store)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Begin:   handler.NewBeginHandler(api, guard, log),
		Session: handler.NewSessionHandler(manager, log),
		WS:      handler.NewWSHandler(manager, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	reaper := worker.NewReaperWorker(manager, cfg.SessionIdleTTL, log)
	go reaper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
