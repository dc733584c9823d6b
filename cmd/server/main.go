package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ktwom22/nhl-bot/internal/app"
	"github.com/ktwom22/nhl-bot/internal/config"
	"github.com/ktwom22/nhl-bot/internal/handlers"
	"github.com/ktwom22/nhl-bot/internal/ingest"
	"github.com/ktwom22/nhl-bot/internal/logic"
	"github.com/ktwom22/nhl-bot/internal/store"
	"github.com/ktwom22/nhl-bot/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	// Games snapshot
	table := store.NewGamesTable(logger)
	loader := store.NewSnapshotLoader(cfg.GamesFile, table, logger)
	snap, err := loader.Load(ctx)
	if errors.Is(err, store.ErrGamesFileMissing) {
		if restored, rerr := app.RestoreGamesFile(ctx, cfg, backends.KV(), table, time.Now()); rerr != nil {
			log.Warnw("Failed to restore games file from redis", "error", rerr)
		} else if restored {
			log.Infow("Restored games file from redis mirror", "path", cfg.GamesFile)
			snap, err = loader.Load(ctx)
		}
	}
	switch {
	case errors.Is(err, store.ErrGamesFileMissing) && cfg.RequireGamesFile:
		return fmt.Errorf("games file %s is required: %w", cfg.GamesFile, err)
	case errors.Is(err, store.ErrGamesFileMissing):
		log.Warnw("No games file yet, picks unavailable until ingestion runs", "path", cfg.GamesFile)
	case err != nil:
		return fmt.Errorf("load games: %w", err)
	default:
		log.Infow("Loaded games", "path", cfg.GamesFile, "date", snap.Date, "games", snap.Len(), "skipped", snap.Skipped)
	}

	// Picks
	pickStore, err := app.NewPickStore(cfg, backends)
	if err != nil {
		return err
	}
	var recorder *logic.Recorder
	if cfg.RecordPicks {
		recorder = logic.NewRecorder(pickStore, logger)
	}
	picks := logic.NewPickService(loader, logic.NewEngine(cfg.Decision), recorder, logger)
	if cfg.ResolverMode == config.ResolverFirst {
		picks.UseFirstMatch()
	}

	// Batch jobs
	jobHandlers := map[worker.Kind]worker.Handler{}
	if cfg.OddsAPIKey != "" {
		ingestSvc := app.NewIngestService(cfg, backends, logger)
		jobHandlers[worker.KindIngest] = func(ctx context.Context) error {
			_, err := ingestSvc.Run(ctx, time.Now())
			if errors.Is(err, ingest.ErrNoGames) {
				return nil
			}
			return err
		}
	} else {
		log.Warn("ODDS_API_KEY not set, ingest job disabled")
	}
	reconcileSvc, err := app.NewReconcileService(cfg, backends, pickStore, logger)
	if err != nil {
		log.Warnw("Reconcile job disabled", "error", err)
	} else {
		jobHandlers[worker.KindReconcile] = func(ctx context.Context) error {
			_, err := reconcileSvc.Run(ctx)
			return err
		}
	}

	pool := worker.NewPool(worker.PoolConfig{
		QueueSize:  cfg.JobQueueSize,
		JobTimeout: cfg.JobTimeout,
		Location:   cfg.Location(),
		Handlers:   jobHandlers,
		Logger:     logger,
	})
	for kind, spec := range map[worker.Kind]string{
		worker.KindIngest:    cfg.IngestSchedule,
		worker.KindReconcile: cfg.ReconcileSchedule,
	} {
		err := pool.Schedule(spec, kind)
		switch {
		case errors.Is(err, worker.ErrUnknownJob):
			log.Warnw("Schedule ignored, job disabled", "kind", kind, "spec", spec)
		case err != nil:
			return err
		}
	}
	pool.Start(ctx)
	defer pool.Stop()

	// HTTP
	hcfg := handlers.Config{
		Picks:            picks,
		Jobs:             pool,
		Logger:           logger,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioWebhookURL: cfg.TwilioWebhookURL,
	}
	if cfg.RecordPicks {
		hcfg.PickLog = pickStore
	}
	if backends.Postgres != nil {
		hcfg.Postgres = backends.Postgres
	}
	if backends.ClickHouse != nil {
		hcfg.ClickHouse = backends.ClickHouse
	}
	if kv := backends.KV(); kv != nil {
		hcfg.Redis = kv
	}
	h := handlers.New(hcfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Twilio-Signature"},
		MaxAge:         300,
	}))
	r.Handle("/metrics", promhttp.Handler())
	h.Routes(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("NHL bot listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	log := logger.Sugar()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Infow("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"requestId", middleware.GetReqID(r.Context()),
			)
		})
	}
}
