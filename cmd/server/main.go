package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/api"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/auth"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/cache"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/config"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/export"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/loader"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/metrics"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/render"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/storage"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/ticker"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/upstream"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/websocket"
	"github.com/AyanDgr8/cdr-spc-sub001/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("upstream", cfg.UpstreamBaseURL).
		Str("log_level", cfg.LogLevel).
		Msg("starting CDR report server")

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create report history store
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Create upstream client, renderer and load controller
	upstreamClient := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, log.Logger)
	renderer := render.NewRenderer(log.Logger)
	controller := loader.NewController(upstreamClient, nil, store, cfg.ParallelPages, log.Logger)
	controller.SetSink(websocket.NewEventBridge(hub, renderer, controller, log.Logger))

	exporter := export.NewExporter(cfg.ExportChunkSize, log.Logger)
	lookupCache := cache.NewLookupCache(cfg.LookupCacheTTL)

	// Status heartbeat while loads are active
	statusTicker := ticker.NewStatusTicker(hub, controller, 1*time.Second, log.Logger)
	go statusTicker.Start(ctx)

	// Create handlers
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)
	reportHandler := api.NewReportHandler(controller, renderer, exporter, store, log.Logger)
	historyHandler := api.NewHistoryHandler(store, log.Logger)
	lookupHandler := api.NewLookupHandler(upstreamClient, lookupCache, log.Logger)
	adminHandler := api.NewAdminHandler(store, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)

	// Internal routes (no auth - for ops tooling)
	r.Get("/internal/metrics", metrics.Handler)

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Post("/report/query", reportHandler.StartQuery)
			r.Get("/report/status", reportHandler.GetStatus)
			r.Get("/report/table", reportHandler.GetTable)
			r.Get("/report/rows", reportHandler.GetRows)
			r.Get("/report/export", reportHandler.Export)
			r.Get("/report/exports", historyHandler.GetExports)
			r.Get("/report/queries", historyHandler.GetQueries)
			r.Get("/lookups/{kind}", lookupHandler.Get)

			r.Route("/admin", func(r chi.Router) {
				r.Use(api.RequireAdmin)
				r.Delete("/history", adminHandler.WipeHistory)
			})
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Cancel background services
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"cdr-report-server"}`)
}
