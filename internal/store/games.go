package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// ErrGamesFileMissing means no ingestion has produced a games file yet.
var ErrGamesFileMissing = errors.New("games file missing")

// GameColumns is the header written by WriteGames.
var GameColumns = []string{
	"game_date", "away_team", "home_team", "start_time_et", "event_id",
	"home_win_pct", "away_win_pct", "goal_diff_matchup",
	"home_goals_for", "away_goals_for",
	"home_spread", "away_spread", "total_line",
}

// gameColumnAliases maps historical header names onto GameColumns.
var gameColumnAliases = map[string]string{
	"home_puckline":    "home_spread",
	"away_puckline":    "away_spread",
	"over_under":       "total_line",
	"start_time_local": "start_time_et",
	"date":             "game_date",
}

// GamesTable reads and writes the games CSV.
type GamesTable struct {
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

func NewGamesTable(logger *zap.Logger) *GamesTable {
	return &GamesTable{
		logger:    logger.Sugar(),
		validator: validator.New(),
	}
}

// ReadFile loads a games file. Rows that fail validation are skipped and
// counted; unparsable numbers become absent values.
func (t *GamesTable) ReadFile(path string) ([]models.GameRecord, int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", ErrGamesFileMissing, path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open games file: %w", err)
	}
	defer f.Close()

	return t.Read(f)
}

func (t *GamesTable) Read(r io.Reader) ([]models.GameRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if alias, ok := gameColumnAliases[name]; ok {
			name = alias
		}
		if _, dup := colIndex[name]; !dup {
			colIndex[name] = i
		}
	}
	for _, required := range []string{"game_date", "away_team", "home_team"} {
		if _, ok := colIndex[required]; !ok {
			return nil, 0, fmt.Errorf("games file missing column %q", required)
		}
	}

	var records []models.GameRecord
	skipped := 0
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			t.logger.Warnw("Skipping unreadable games row", "line", line, "error", err)
			skipped++
			continue
		}

		field := func(name string) string {
			i, ok := colIndex[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		number := func(name string) *float64 {
			return parseOptionalFloat(field(name))
		}

		rec := models.GameRecord{
			GameDate:        field("game_date"),
			AwayTeam:        field("away_team"),
			HomeTeam:        field("home_team"),
			StartTimeLocal:  field("start_time_et"),
			EventID:         field("event_id"),
			HomeWinPct:      number("home_win_pct"),
			AwayWinPct:      number("away_win_pct"),
			GoalDiffMatchup: number("goal_diff_matchup"),
			HomeGoalsFor:    number("home_goals_for"),
			AwayGoalsFor:    number("away_goals_for"),
			HomeSpread:      number("home_spread"),
			AwaySpread:      number("away_spread"),
			TotalLine:       number("total_line"),
		}

		if err := t.validator.Struct(rec); err != nil {
			t.logger.Warnw("Skipping malformed games row",
				"line", line,
				"away", rec.AwayTeam,
				"home", rec.HomeTeam,
				"error", err,
			)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// WriteFile replaces path with the given records atomically.
func (t *GamesTable) WriteFile(path string, records []models.GameRecord) error {
	for _, rec := range records {
		if err := t.validator.Struct(rec); err != nil {
			return fmt.Errorf("refusing to write invalid game %s: %w", rec.Matchup(), err)
		}
	}
	return WriteFileAtomic(path, func(w io.Writer) error {
		return WriteGames(w, records)
	})
}

func WriteGames(w io.Writer, records []models.GameRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GameColumns); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.GameDate, rec.AwayTeam, rec.HomeTeam, rec.StartTimeLocal, rec.EventID,
			formatFloat(rec.HomeWinPct), formatFloat(rec.AwayWinPct), formatFloat(rec.GoalDiffMatchup),
			formatFloat(rec.HomeGoalsFor), formatFloat(rec.AwayGoalsFor),
			formatFloat(rec.HomeSpread), formatFloat(rec.AwaySpread), formatFloat(rec.TotalLine),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
