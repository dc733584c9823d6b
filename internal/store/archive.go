package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// EvaluationArchive appends graded picks to ClickHouse for long-term
// accuracy queries.
type EvaluationArchive struct {
	conn driver.Conn
}

func NewEvaluationArchive(conn driver.Conn) *EvaluationArchive {
	return &EvaluationArchive{conn: conn}
}

func (a *EvaluationArchive) Archive(ctx context.Context, runID string, at time.Time, evals []models.Evaluation) error {
	if len(evals) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO nhl_bot.pick_evaluations (
			run_id, evaluated_at, game_date, away_team, home_team,
			ml_pick, spread_pick, ou_pick, spread_line, total_line,
			away_goals, home_goals, ml_result, spread_result, ou_result
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare evaluation batch: %w", err)
	}

	for _, ev := range evals {
		day, err := time.Parse(models.DateLayout, ev.Entry.Date)
		if err != nil {
			continue
		}

		var awayGoals, homeGoals *int32
		if ev.Score != nil {
			ag, hg := int32(ev.Score.AwayGoals), int32(ev.Score.HomeGoals)
			awayGoals, homeGoals = &ag, &hg
		}

		if err := batch.Append(
			runID,
			at.UTC(),
			day,
			ev.Entry.AwayTeam,
			ev.Entry.HomeTeam,
			ev.Entry.MLPick,
			ev.Entry.SpreadPick,
			string(ev.Entry.OUPick),
			ev.Entry.SpreadLine,
			ev.Entry.TotalLine,
			awayGoals,
			homeGoals,
			string(ev.Moneyline),
			string(ev.Spread),
			string(ev.Total),
		); err != nil {
			batch.Abort()
			return fmt.Errorf("append evaluation: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send evaluation batch: %w", err)
	}
	return nil
}
