package logic

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/models"
)

var picksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nhlbot_picks_recorded_total",
	Help: "Pick log writes by outcome",
}, []string{"outcome"})

// Recorder persists picks once per (date, away, home).
type Recorder struct {
	store     PickStore
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

func NewRecorder(store PickStore, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:     store,
		logger:    logger.Sugar(),
		validator: validator.New(),
	}
}

// Record appends the entry unless its key is already logged. A duplicate is
// not an error.
func (r *Recorder) Record(ctx context.Context, entry models.PickLogEntry) (models.RecordOutcome, error) {
	if err := r.validator.Struct(entry); err != nil {
		return "", fmt.Errorf("invalid pick log entry: %w", err)
	}

	inserted, err := r.store.Insert(ctx, entry)
	if err != nil {
		picksRecorded.WithLabelValues("error").Inc()
		return "", fmt.Errorf("record pick %s %s@%s: %w", entry.Date, entry.AwayTeam, entry.HomeTeam, err)
	}

	if !inserted {
		picksRecorded.WithLabelValues(string(models.RecordDuplicate)).Inc()
		r.logger.Debugw("Pick already logged", "date", entry.Date, "away", entry.AwayTeam, "home", entry.HomeTeam)
		return models.RecordDuplicate, nil
	}

	picksRecorded.WithLabelValues(string(models.RecordAppended)).Inc()
	r.logger.Infow("Pick logged",
		"date", entry.Date,
		"away", entry.AwayTeam,
		"home", entry.HomeTeam,
		"ml", entry.MLPick,
		"spread", entry.SpreadPick,
		"ou", entry.OUPick,
	)
	return models.RecordAppended, nil
}

// List returns every logged pick.
func (r *Recorder) List(ctx context.Context) ([]models.PickLogEntry, error) {
	return r.store.List(ctx)
}
