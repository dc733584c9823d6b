package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// PgPool is the subset of pgxpool.Pool used by the stores.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresPickLog keeps the pick log in Postgres. The primary key on
// (game_date, away_team, home_team) makes insert-if-absent atomic across
// processes.
type PostgresPickLog struct {
	pg PgPool
}

func NewPostgresPickLog(pg PgPool) *PostgresPickLog {
	return &PostgresPickLog{pg: pg}
}

func (l *PostgresPickLog) Insert(ctx context.Context, e models.PickLogEntry) (bool, error) {
	day, err := time.Parse(models.DateLayout, e.Date)
	if err != nil {
		return false, fmt.Errorf("pick date %q: %w", e.Date, err)
	}
	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	tag, err := l.pg.Exec(ctx, `
		INSERT INTO nhl_picks (
			game_date, away_team, home_team, ml_pick, spread_pick, ou_pick,
			spread_line, total_line, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_date, away_team, home_team) DO NOTHING
	`, day, e.AwayTeam, e.HomeTeam, e.MLPick, e.SpreadPick, string(e.OUPick),
		e.SpreadLine, e.TotalLine, recordedAt)
	if err != nil {
		return false, fmt.Errorf("insert pick: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (l *PostgresPickLog) List(ctx context.Context) ([]models.PickLogEntry, error) {
	rows, err := l.pg.Query(ctx, `
		SELECT game_date, away_team, home_team, ml_pick, spread_pick, ou_pick,
		       spread_line, total_line, recorded_at
		FROM nhl_picks
		ORDER BY game_date, recorded_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()

	var entries []models.PickLogEntry
	for rows.Next() {
		var (
			e   models.PickLogEntry
			day time.Time
			ou  string
		)
		if err := rows.Scan(&day, &e.AwayTeam, &e.HomeTeam, &e.MLPick, &e.SpreadPick, &ou,
			&e.SpreadLine, &e.TotalLine, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		e.Date = day.Format(models.DateLayout)
		e.OUPick = models.TotalPick(ou)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
