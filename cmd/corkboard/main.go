package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cbhttp "github.com/corkboard/corkboard/internal/adapter/http"
	cbnats "github.com/corkboard/corkboard/internal/adapter/nats"
	cbotel "github.com/corkboard/corkboard/internal/adapter/otel"
	"github.com/corkboard/corkboard/internal/adapter/postgres"
	"github.com/corkboard/corkboard/internal/adapter/ristretto"
	"github.com/corkboard/corkboard/internal/adapter/ws"
	"github.com/corkboard/corkboard/internal/config"
	"github.com/corkboard/corkboard/internal/logger"
	"github.com/corkboard/corkboard/internal/middleware"
	"github.com/corkboard/corkboard/internal/port/messagequeue"
	"github.com/corkboard/corkboard/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"dedupe_window", cfg.Activity.DedupeWindow,
	)

	ctx := context.Background()

	// --- Telemetry ---
	if cfg.Telemetry.Enabled {
		shutdown, err := cbotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("otel shutdown", "error", err)
			}
		}()
	}

	metrics, err := cbotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS relay is optional: board events still reach room members when
	// it is down, external consumers just miss the copy.
	queue, err := cbnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, event relay disabled", "error", err)
		queue = nil
	} else {
		defer func() { _ = queue.Drain() }()
	}

	accessCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer accessCache.Close()

	// --- Services ---

	store := postgres.NewStore(pool)
	presence := service.NewPresence()

	// A nil *nats.Queue must not end up as a non-nil interface.
	var relay messagequeue.Queue
	if queue != nil {
		relay = queue
	}

	router := service.NewBroadcastRouter(presence, relay, metrics)

	activityLog := service.NewActivityLog(store, accessCache, cfg.Activity.DedupeWindow, cfg.Cache.AccessTTL)
	ordering := service.NewOrderingEngine(store)

	authSvc := service.NewAuthService(store, &cfg.Auth)
	projectSvc := service.NewProjectService(store, activityLog, router)
	boardSvc := service.NewBoardService(store, ordering, activityLog, router, metrics)
	commentSvc := service.NewCommentService(store, activityLog, router)
	attachmentSvc := service.NewAttachmentService(store, activityLog, router)

	hub := ws.NewHub(presence, router, store, metrics, cfg.Presence.SendQueueSize)
	defer hub.Shutdown()

	// --- HTTP ---

	handlers := &cbhttp.Handlers{
		Auth:        authSvc,
		Projects:    projectSvc,
		Board:       boardSvc,
		Comments:    commentSvc,
		Attachments: attachmentSvc,
		Activities:  activityLog,
		Hub:         hub,
		Store:       store,
		Pool:        pool,
		Queue:       relay,
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := rateLimiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(cbhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cbhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(cbhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(rateLimiter.Handler)
	if cfg.Telemetry.Enabled {
		r.Use(cbotel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.Auth(authSvc, cfg.Auth.Enabled))

	cbhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: it would sever long-lived WebSocket connections.
		IdleTimeout: 120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
