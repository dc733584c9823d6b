// Package ingest builds the day's games file from the odds provider.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/config"
	"github.com/ktwom22/nhl-bot/internal/models"
	"github.com/ktwom22/nhl-bot/internal/providers/oddsapi"
	"github.com/ktwom22/nhl-bot/internal/store"
)

var (
	// ErrIngestInProgress is returned when another run for the day holds the lock.
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrNoGames means the provider had nothing for the league day. The
	// existing games file is left as it was.
	ErrNoGames = errors.New("no games found for league day")
)

var (
	ingestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nhlbot_ingest_runs_total",
		Help: "Odds ingestion runs by result",
	}, []string{"result"})

	ingestGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nhlbot_ingest_games",
		Help: "Games written by the last successful ingestion",
	})
)

// OddsProvider fetches games with markets.
type OddsProvider interface {
	GetOdds(ctx context.Context, sport string, q oddsapi.OddsQuery) ([]oddsapi.Event, error)
}

// GamesWriter replaces the games file atomically.
type GamesWriter interface {
	WriteFile(path string, records []models.GameRecord) error
}

type Config struct {
	Sport     string
	Regions   string
	GamesFile string
	Location  *time.Location
	Defaults  config.DecisionDefaults
	LockTTL   time.Duration
	Provider  OddsProvider
	Writer    GamesWriter
	KV        store.KVStore // optional; enables the cross-process lock and mirror
	Logger    *zap.Logger
}

// Service runs one ingestion at a time.
type Service struct {
	cfg       Config
	logger    *zap.SugaredLogger
	validator *validator.Validate
	mu        sync.Mutex
}

func NewService(cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &Service{
		cfg:       cfg,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
	}
}

// LeagueDay returns the calendar day containing now in loc, and the UTC
// bounds [start, end) of that day.
func LeagueDay(now time.Time, loc *time.Location) (string, time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.Format(models.DateLayout), start.UTC(), end.UTC()
}

// Run fetches odds and rewrites the games file for the league day containing
// now. A provider failure leaves the existing file untouched.
func (s *Service) Run(ctx context.Context, now time.Time) (*models.IngestResult, error) {
	if !s.mu.TryLock() {
		ingestRuns.WithLabelValues("busy").Inc()
		return nil, ErrIngestInProgress
	}
	defer s.mu.Unlock()

	day, from, to := LeagueDay(now, s.cfg.Location)
	result := &models.IngestResult{
		RunID:      uuid.NewString(),
		Date:       day,
		OutputFile: s.cfg.GamesFile,
	}
	log := s.logger.With("run", result.RunID, "date", day)

	if s.cfg.KV != nil {
		lock, err := store.AcquireLock(ctx, s.cfg.KV, store.IngestLockKey(day), s.cfg.LockTTL)
		switch {
		case errors.Is(err, store.ErrLockHeld):
			ingestRuns.WithLabelValues("busy").Inc()
			return nil, ErrIngestInProgress
		case err != nil:
			log.Warnw("Ingest lock unavailable, continuing with local lock only", "error", err)
		default:
			defer func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := lock.Release(releaseCtx); err != nil {
					log.Warnw("Failed to release ingest lock", "error", err)
				}
			}()
		}
	}

	log.Infow("Fetching odds", "sport", s.cfg.Sport, "from", from, "to", to)
	events, err := s.cfg.Provider.GetOdds(ctx, s.cfg.Sport, oddsapi.OddsQuery{
		Regions: s.cfg.Regions,
		Markets: []string{oddsapi.MarketH2H, oddsapi.MarketSpreads, oddsapi.MarketTotals},
		From:    from,
		To:      to,
	})
	if err != nil {
		ingestRuns.WithLabelValues("provider_error").Inc()
		log.Errorw("Odds fetch failed, games file left untouched", "error", err)
		return nil, fmt.Errorf("fetch odds: %w", err)
	}
	result.Fetched = len(events)

	records := make([]models.GameRecord, 0, len(events))
	for _, ev := range events {
		local := ev.CommenceTime.In(s.cfg.Location)
		if local.Format(models.DateLayout) != day {
			result.OutOfDay++
			continue
		}

		rec := s.buildRecord(ev, day, local)
		if err := s.validator.Struct(rec); err != nil {
			result.Skipped++
			log.Warnw("Skipping game", "event", ev.ID, "away", ev.AwayTeam, "home", ev.HomeTeam, "error", err)
			continue
		}
		records = append(records, rec)
		log.Infow("Added game", "matchup", rec.Matchup(), "start", rec.StartTimeLocal)
	}
	result.Games = len(records)
	result.FinishedAt = time.Now().UTC()

	if len(records) == 0 {
		ingestRuns.WithLabelValues("no_games").Inc()
		log.Warnw("No games found for league day", "fetched", result.Fetched, "outOfDay", result.OutOfDay)
		return result, ErrNoGames
	}

	if err := s.cfg.Writer.WriteFile(s.cfg.GamesFile, records); err != nil {
		ingestRuns.WithLabelValues("write_error").Inc()
		return nil, fmt.Errorf("write games file: %w", err)
	}
	result.Written = true
	ingestRuns.WithLabelValues("ok").Inc()
	ingestGames.Set(float64(len(records)))

	if s.cfg.KV != nil {
		if err := store.PublishGames(ctx, s.cfg.KV, day, records); err != nil {
			log.Warnw("Failed to mirror games to redis", "error", err)
		}
	}

	log.Infow("Saved games", "games", len(records), "path", s.cfg.GamesFile, "skipped", result.Skipped)
	return result, nil
}

// buildRecord extracts one game. Markets the bookmakers do not offer fall
// back to the configured defaults.
func (s *Service) buildRecord(ev oddsapi.Event, day string, local time.Time) models.GameRecord {
	d := s.cfg.Defaults
	rec := models.GameRecord{
		GameDate:        day,
		AwayTeam:        ev.AwayTeam,
		HomeTeam:        ev.HomeTeam,
		StartTimeLocal:  local.Format("15:04"),
		EventID:         ev.ID,
		HomeWinPct:      models.Float(d.HomeWinPct),
		AwayWinPct:      models.Float(d.AwayWinPct),
		GoalDiffMatchup: models.Float(d.GoalDiff),
		HomeGoalsFor:    models.Float(d.HomeGoalsFor),
		AwayGoalsFor:    models.Float(d.AwayGoalsFor),
		HomeSpread:      models.Float(d.HomeSpread),
		AwaySpread:      models.Float(d.AwaySpread),
		TotalLine:       models.Float(d.TotalLine),
	}

	if m, ok := ev.FirstMarket(oddsapi.MarketSpreads); ok {
		if o, ok := m.Outcome(ev.HomeTeam); ok && o.Point != nil {
			rec.HomeSpread = models.Float(*o.Point)
		}
		if o, ok := m.Outcome(ev.AwayTeam); ok && o.Point != nil {
			rec.AwaySpread = models.Float(*o.Point)
		}
	}

	if m, ok := ev.FirstMarket(oddsapi.MarketTotals); ok {
		o, found := m.Outcome("Over")
		if !found {
			o = m.Outcomes[0]
		}
		if o.Point != nil && *o.Point > 0 {
			rec.TotalLine = models.Float(*o.Point)
		}
	}

	if m, ok := ev.FirstMarket(oddsapi.MarketH2H); ok {
		home, homeOK := m.Outcome(ev.HomeTeam)
		away, awayOK := m.Outcome(ev.AwayTeam)
		if homeOK && awayOK {
			if hp, ap, err := noVigPair(home.Price, away.Price); err == nil {
				rec.HomeWinPct = models.Float(round4(hp))
				rec.AwayWinPct = models.Float(round4(ap))
			} else {
				s.logger.Debugw("Unusable moneyline prices", "event", ev.ID, "error", err)
			}
		}
	}

	return rec
}

func noVigPair(homePrice, awayPrice float64) (float64, float64, error) {
	hp, err := AmericanToImpliedProbability(homePrice)
	if err != nil {
		return 0, 0, err
	}
	ap, err := AmericanToImpliedProbability(awayPrice)
	if err != nil {
		return 0, 0, err
	}
	return RemoveVig(hp, ap)
}
