// Package reconcile grades logged picks against final scores.
package reconcile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ktwom22/nhl-bot/internal/logic"
	"github.com/ktwom22/nhl-bot/internal/models"
	"github.com/ktwom22/nhl-bot/internal/store"
)

var outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nhlbot_reconcile_outcomes_total",
	Help: "Graded pick markets by outcome",
}, []string{"market", "outcome"})

// ResultColumns is the header of the results file.
var ResultColumns = []string{
	"date", "away_team", "home_team", "ml_pick", "spread_pick", "ou_pick",
	"spread_line", "total_line", "away_goals", "home_goals",
	"ml_result", "spread_result", "ou_result",
	"ml_correct", "spread_correct", "ou_correct", "evaluated_at",
}

// ScoreSource provides final scores.
type ScoreSource interface {
	FetchScores(ctx context.Context) ([]models.FinalScore, error)
}

// PickLister reads the pick log.
type PickLister interface {
	List(ctx context.Context) ([]models.PickLogEntry, error)
}

// Archiver stores evaluations outside the results file.
type Archiver interface {
	Archive(ctx context.Context, runID string, at time.Time, evals []models.Evaluation) error
}

type Config struct {
	Picks       PickLister
	Scores      ScoreSource
	ResultsFile string
	Archive     Archiver // optional
	Logger      *zap.Logger
}

type Service struct {
	cfg    Config
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(cfg Config) *Service {
	return &Service{
		cfg:    cfg,
		logger: cfg.Logger.Sugar(),
		now:    time.Now,
	}
}

// Run grades every logged pick and rewrites the results file.
func (s *Service) Run(ctx context.Context) (*models.ReconcileReport, error) {
	var (
		picks  []models.PickLogEntry
		scores []models.FinalScore
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		picks, err = s.cfg.Picks.List(gctx)
		if err != nil {
			return fmt.Errorf("load picks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		scores, err = s.cfg.Scores.FetchScores(gctx)
		if err != nil {
			return fmt.Errorf("fetch scores: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &models.ReconcileReport{
		RunID:       uuid.NewString(),
		Picks:       len(picks),
		Scores:      len(scores),
		EvaluatedAt: s.now().UTC(),
		OutputFile:  s.cfg.ResultsFile,
	}

	index := newScoreIndex(scores)
	report.Evaluations = make([]models.Evaluation, 0, len(picks))
	for _, p := range picks {
		ev := Evaluate(p, index.lookup(p))
		report.Evaluations = append(report.Evaluations, ev)

		report.Moneyline.Add(ev.Moneyline)
		report.Spread.Add(ev.Spread)
		report.Total.Add(ev.Total)
		outcomesTotal.WithLabelValues("moneyline", string(ev.Moneyline)).Inc()
		outcomesTotal.WithLabelValues("spread", string(ev.Spread)).Inc()
		outcomesTotal.WithLabelValues("total", string(ev.Total)).Inc()
	}

	if err := store.WriteFileAtomic(s.cfg.ResultsFile, func(w io.Writer) error {
		return WriteResults(w, report.Evaluations, report.EvaluatedAt)
	}); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}

	if s.cfg.Archive != nil {
		if err := s.cfg.Archive.Archive(ctx, report.RunID, report.EvaluatedAt, report.Evaluations); err != nil {
			s.logger.Errorw("Failed to archive evaluations", "run", report.RunID, "error", err)
		}
	}

	s.logger.Infow("Reconciled picks",
		"run", report.RunID,
		"picks", report.Picks,
		"scores", report.Scores,
		"moneyline", report.Moneyline,
		"spread", report.Spread,
		"total", report.Total,
		"path", s.cfg.ResultsFile,
	)
	return report, nil
}

type teamsKey struct {
	away, home string
}

// scoreIndex joins on (date, away, home), or on (away, home) for scores the
// source did not date.
type scoreIndex struct {
	byGame  map[models.PickKey]*models.FinalScore
	byTeams map[teamsKey]*models.FinalScore
}

func newScoreIndex(scores []models.FinalScore) *scoreIndex {
	idx := &scoreIndex{
		byGame:  make(map[models.PickKey]*models.FinalScore),
		byTeams: make(map[teamsKey]*models.FinalScore),
	}
	for i := range scores {
		sc := &scores[i]
		away, home := logic.NormalizeTeam(sc.AwayTeam), logic.NormalizeTeam(sc.HomeTeam)
		if sc.Date != "" {
			idx.byGame[models.PickKey{Date: sc.Date, AwayTeam: away, HomeTeam: home}] = sc
		} else {
			idx.byTeams[teamsKey{away: away, home: home}] = sc
		}
	}
	return idx
}

func (idx *scoreIndex) lookup(p models.PickLogEntry) *models.FinalScore {
	away, home := logic.NormalizeTeam(p.AwayTeam), logic.NormalizeTeam(p.HomeTeam)
	if sc, ok := idx.byGame[models.PickKey{Date: p.Date, AwayTeam: away, HomeTeam: home}]; ok {
		return sc
	}
	return idx.byTeams[teamsKey{away: away, home: home}]
}

// WriteResults writes evaluations as CSV. The *_correct columns are
// true/false, or blank for push and pending.
func WriteResults(w io.Writer, evals []models.Evaluation, at time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultColumns); err != nil {
		return err
	}

	stamp := at.Format("2006-01-02 15:04:05")
	for _, ev := range evals {
		e := ev.Entry
		var awayGoals, homeGoals string
		if ev.Score != nil {
			awayGoals = strconv.Itoa(ev.Score.AwayGoals)
			homeGoals = strconv.Itoa(ev.Score.HomeGoals)
		}
		row := []string{
			e.Date, e.AwayTeam, e.HomeTeam, e.MLPick, e.SpreadPick, string(e.OUPick),
			optionalFloat(e.SpreadLine), optionalFloat(e.TotalLine), awayGoals, homeGoals,
			string(ev.Moneyline), string(ev.Spread), string(ev.Total),
			correct(ev.Moneyline), correct(ev.Spread), correct(ev.Total), stamp,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func correct(o models.Outcome) string {
	if c := o.Correct(); c != nil {
		return strconv.FormatBool(*c)
	}
	return ""
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
