package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jpcarver/versecache/internal/annotate"
	"github.com/jpcarver/versecache/internal/backend"
	"github.com/jpcarver/versecache/internal/cache"
	"github.com/jpcarver/versecache/internal/config"
	"github.com/jpcarver/versecache/internal/handlers"
	"github.com/jpcarver/versecache/internal/logger"
	"github.com/jpcarver/versecache/internal/reader"
	"github.com/jpcarver/versecache/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	api := backend.NewClient(cfg.BackendURL, cfg.BackendToken, appLogger)

	manager := cache.NewManager(cfg.DBPath, cfg.Locales, api, appLogger)
	defer manager.Close()

	// Initialization is lazy for every consumer, but warming it here surfaces
	// storage problems at startup instead of on the first request.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := manager.Initialize(initCtx); err != nil {
		appLogger.Warn("cache unavailable, serving network-only", "error", err)
	}
	cancelInit()

	w := worker.NewWorker(manager, cfg.SweepEvery, appLogger)
	w.Start()
	defer w.Stop()

	annotator := annotate.New(annotate.Config{
		Disabled:  cfg.AnnotateDisabled,
		SkipPages: cfg.AnnotateSkipPages,
		Languages: cfg.Locales,
	}, manager, api, appLogger)
	rd := reader.New(manager, api, appLogger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := handlers.NewHandler(manager, rd, annotator, api, appLogger)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		appLogger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}
