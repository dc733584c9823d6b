package handlers

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/logic"
	"github.com/ktwom22/nhl-bot/internal/models"
	"github.com/ktwom22/nhl-bot/internal/worker"
)

// MaxBodySize limits the size of request bodies to 64KB
const MaxBodySize = 65536

// PickService answers inbound queries.
type PickService interface {
	Answer(ctx context.Context, query string) (*logic.PickAnswer, error)
	Games(ctx context.Context) (*models.Snapshot, error)
}

// PickLog lists recorded picks.
type PickLog interface {
	List(ctx context.Context) ([]models.PickLogEntry, error)
}

// JobQueue defines the interface for the batch job pool
type JobQueue interface {
	Enqueue(kind worker.Kind) (worker.Job, error)
	QueueDepth() int
}

// PostgresConn is the part of pgxpool.Pool the handlers use.
type PostgresConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// ClickHouseConn is the part of driver.Conn the handlers use.
type ClickHouseConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Ping(ctx context.Context) error
}

// Pinger is any dependency with a liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the handler. Storage backends are optional; leave them nil
// when not configured.
type Config struct {
	Picks      PickService
	PickLog    PickLog
	Jobs       JobQueue
	Postgres   PostgresConn
	ClickHouse ClickHouseConn
	Redis      Pinger
	Logger     *zap.Logger

	// TwilioAuthToken enables X-Twilio-Signature checks on the webhook.
	TwilioAuthToken string
	// TwilioWebhookURL is the public base URL Twilio calls. When empty the
	// URL is rebuilt from the request.
	TwilioWebhookURL string
	MigrationsDir    string
}

type Handler struct {
	picks         PickService
	pickLog       PickLog
	jobs          JobQueue
	pg            PostgresConn
	ch            ClickHouseConn
	redis         Pinger
	logger        *zap.SugaredLogger
	twilio        *client.RequestValidator
	webhookURL    string
	migrationsDir string
}

func New(cfg Config) *Handler {
	h := &Handler{
		picks:         cfg.Picks,
		pickLog:       cfg.PickLog,
		jobs:          cfg.Jobs,
		pg:            cfg.Postgres,
		ch:            cfg.ClickHouse,
		redis:         cfg.Redis,
		logger:        cfg.Logger.Sugar(),
		webhookURL:    cfg.TwilioWebhookURL,
		migrationsDir: cfg.MigrationsDir,
	}
	if h.migrationsDir == "" {
		h.migrationsDir = "migrations"
	}
	if cfg.TwilioAuthToken != "" {
		v := client.NewRequestValidator(cfg.TwilioAuthToken)
		h.twilio = &v
	}
	return h
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Post("/whatsapp", h.Webhook)
	r.Post("/sms", h.Webhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", h.GetGames)
		r.Get("/picks", h.GetPick)
		r.Get("/picks/log", h.GetPickLog)

		r.Post("/jobs/{kind}", h.EnqueueJob)
	})

	r.Post("/system/install", h.InstallDatabase)
}
