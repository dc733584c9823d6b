package logic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/models"
)

var queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nhlbot_queries_total",
	Help: "Inbound pick queries by result",
}, []string{"result"})

// PickAnswer is everything produced for one inbound query.
type PickAnswer struct {
	Resolution     models.Resolution      `json:"resolution"`
	Recommendation *models.Recommendation `json:"recommendation,omitempty"`
	Recorded       models.RecordOutcome   `json:"recorded,omitempty"`
	Reply          string                 `json:"reply"`
}

// PickService answers free-text queries against the current snapshot.
type PickService struct {
	snapshots SnapshotSource
	engine    *Engine
	recorder  *Recorder
	resolve   func(query string, records []models.GameRecord) models.Resolution
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewPickService builds the query path. recorder may be nil to skip logging picks.
func NewPickService(snapshots SnapshotSource, engine *Engine, recorder *Recorder, logger *zap.Logger) *PickService {
	return &PickService{
		snapshots: snapshots,
		engine:    engine,
		recorder:  recorder,
		resolve:   Resolve,
		logger:    logger.Sugar(),
		now:       time.Now,
	}
}

// UseFirstMatch switches to the legacy lookup, which answers with the first
// matching game instead of reporting ambiguity.
func (s *PickService) UseFirstMatch() {
	s.resolve = resolveFirstMatch
}

func resolveFirstMatch(query string, records []models.GameRecord) models.Resolution {
	res := models.Resolution{Status: models.ResolutionNotFound, Query: query}
	if rec, ok := ResolveFirst(query, records); ok {
		res.Status = models.ResolutionFound
		res.Record = &rec
	}
	return res
}

// IsListCommand reports whether the message asks for tonight's games.
func IsListCommand(body string) bool {
	switch NormalizeTeam(body) {
	case "help", "games", "today", "tonight":
		return true
	}
	return false
}

// Games returns the current snapshot.
func (s *PickService) Games(ctx context.Context) (*models.Snapshot, error) {
	return s.snapshots.Current(ctx)
}

// Answer resolves the query, decides and records. Only a snapshot failure is
// returned as an error; every other outcome is carried in the answer.
func (s *PickService) Answer(ctx context.Context, query string) (*PickAnswer, error) {
	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	query = strings.TrimSpace(query)
	if IsListCommand(query) {
		queriesTotal.WithLabelValues("list").Inc()
		return &PickAnswer{
			Resolution: models.Resolution{Status: models.ResolutionNotFound, Query: query},
			Reply:      FormatGames(snap),
		}, nil
	}

	ans := &PickAnswer{Resolution: s.resolve(query, snap.Records)}
	queriesTotal.WithLabelValues(string(ans.Resolution.Status)).Inc()

	switch ans.Resolution.Status {
	case models.ResolutionNotFound:
		ans.Reply = FormatNotFound(snap)
		return ans, nil
	case models.ResolutionAmbiguous:
		ans.Reply = FormatAmbiguous(query, ans.Resolution.Candidates)
		return ans, nil
	}

	game := *ans.Resolution.Record
	rec, err := s.engine.Pick(game)
	if err != nil {
		s.logger.Warnw("Cannot make pick", "query", query, "matchup", game.Matchup(), "error", err)
		ans.Reply = FormatInsufficient(&game)
		return ans, nil
	}
	ans.Recommendation = &rec
	ans.Reply = FormatPick(game, rec)

	if s.recorder != nil {
		outcome, err := s.recorder.Record(ctx, models.NewPickLogEntry(game, rec, s.now()))
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			s.logger.Errorw("Failed to record pick", "matchup", game.Matchup(), "error", err)
		case err == nil:
			ans.Recorded = outcome
		}
	}

	return ans, nil
}
