// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/config"
	"github.com/ktwom22/nhl-bot/internal/ingest"
	"github.com/ktwom22/nhl-bot/internal/logic"
	"github.com/ktwom22/nhl-bot/internal/providers/hockeyref"
	"github.com/ktwom22/nhl-bot/internal/providers/oddsapi"
	"github.com/ktwom22/nhl-bot/internal/reconcile"
	"github.com/ktwom22/nhl-bot/internal/store"
)

// NewLogger returns a development logger when ENV=development.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Backends holds the optional storage connections. A nil field means the
// backend is not configured.
type Backends struct {
	Postgres   *pgxpool.Pool
	ClickHouse driver.Conn
	Redis      *redis.Client
}

// Connect opens and pings every backend that has a URL configured.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	log := logger.Sugar()
	b := &Backends{}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.Postgres = pool
		if err := pool.Ping(pingCtx); err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		log.Info("Connected to PostgreSQL")
	}

	if cfg.ClickHouseURL != "" {
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("clickhouse dsn: %w", err)
		}
		conn, err := clickhouse.Open(opts)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		b.ClickHouse = conn
		if err := conn.Ping(pingCtx); err != nil {
			b.Close()
			return nil, fmt.Errorf("clickhouse ping: %w", err)
		}
		log.Info("Connected to ClickHouse")
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("redis url: %w", err)
		}
		b.Redis = redis.NewClient(opts)
		if err := b.Redis.Ping(pingCtx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("Connected to Redis")
	}

	return b, nil
}

func (b *Backends) Close() {
	if b.Postgres != nil {
		b.Postgres.Close()
	}
	if b.ClickHouse != nil {
		b.ClickHouse.Close()
	}
	if b.Redis != nil {
		b.Redis.Close()
	}
}

// KV returns the Redis store, or nil when Redis is not configured.
func (b *Backends) KV() store.KVStore {
	if b.Redis == nil {
		return nil
	}
	return store.NewRedisKV(b.Redis)
}

// NewPickStore returns the pick log selected by PICK_STORE.
func NewPickStore(cfg *config.Config, b *Backends) (logic.PickStore, error) {
	switch cfg.PickStore {
	case "postgres":
		if b.Postgres == nil {
			return nil, fmt.Errorf("PICK_STORE=postgres but postgres is not connected")
		}
		return store.NewPostgresPickLog(b.Postgres), nil
	default:
		return store.NewCSVPickLog(cfg.PicksFile), nil
	}
}

func NewOddsClient(cfg *config.Config, logger *zap.Logger) *oddsapi.Client {
	return oddsapi.NewClient(cfg.OddsAPIKey,
		oddsapi.WithBaseURL(cfg.OddsAPIBaseURL),
		oddsapi.WithTimeout(cfg.OddsAPITimeout),
		oddsapi.WithRateLimit(cfg.OddsAPIRateLimit, 1),
		oddsapi.WithRetry(cfg.OddsAPIRetries, time.Second),
		oddsapi.WithLogger(logger),
	)
}

func NewIngestService(cfg *config.Config, b *Backends, logger *zap.Logger) *ingest.Service {
	return ingest.NewService(ingest.Config{
		Sport:     cfg.Sport,
		Regions:   cfg.OddsAPIRegions,
		GamesFile: cfg.GamesFile,
		Location:  cfg.Location(),
		Defaults:  cfg.Decision,
		LockTTL:   cfg.IngestLockTTL,
		Provider:  NewOddsClient(cfg, logger),
		Writer:    store.NewGamesTable(logger),
		KV:        b.KV(),
		Logger:    logger,
	})
}

// NewScoreSource returns the results source selected by RESULTS_SOURCE.
func NewScoreSource(cfg *config.Config, logger *zap.Logger) (reconcile.ScoreSource, error) {
	switch cfg.ResultsSource {
	case "oddsapi":
		if cfg.OddsAPIKey == "" {
			return nil, fmt.Errorf("RESULTS_SOURCE=oddsapi requires ODDS_API_KEY")
		}
		return reconcile.NewOddsAPIScores(NewOddsClient(cfg, logger), cfg.Sport, cfg.Location()), nil
	default:
		return hockeyref.NewScraper(cfg.ResultsURL, cfg.Location(), cfg.OddsAPITimeout), nil
	}
}

func NewReconcileService(cfg *config.Config, b *Backends, picks reconcile.PickLister, logger *zap.Logger) (*reconcile.Service, error) {
	scores, err := NewScoreSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	rc := reconcile.Config{
		Picks:       picks,
		Scores:      scores,
		ResultsFile: cfg.ResultsFile,
		Logger:      logger,
	}
	if b.ClickHouse != nil {
		rc.Archive = store.NewEvaluationArchive(b.ClickHouse)
	}
	return reconcile.NewService(rc), nil
}

// RestoreGamesFile rewrites a missing games file from the Redis mirror of
// today's league day. It reports whether a file was written.
func RestoreGamesFile(ctx context.Context, cfg *config.Config, kv store.KVStore, table *store.GamesTable, now time.Time) (bool, error) {
	if kv == nil {
		return false, nil
	}
	day, _, _ := ingest.LeagueDay(now, cfg.Location())
	records, err := store.FetchGames(ctx, kv, day)
	if err != nil || len(records) == 0 {
		return false, err
	}
	if err := table.WriteFile(cfg.GamesFile, records); err != nil {
		return false, err
	}
	return true, nil
}
