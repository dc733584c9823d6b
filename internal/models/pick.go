package models

import "time"

// TotalPick is the over/under side of a recommendation.
type TotalPick string

const (
	Over  TotalPick = "Over"
	Under TotalPick = "Under"
)

// Recommendation is the three-field pick for one game.
type Recommendation struct {
	MoneylinePick string    `json:"moneyline_pick"`
	SpreadPick    string    `json:"spread_pick"`
	TotalPick     TotalPick `json:"total_pick"`

	// Inputs carried so a persisted pick can be graded later.
	SpreadTeam string  `json:"spread_team"`
	SpreadLine float64 `json:"spread_line"`
	TotalLine  float64 `json:"total_line"`
	GoalsSum   float64 `json:"expected_goals"`
	Override   bool    `json:"goal_diff_override"`
}

// PickLogEntry is one persisted recommendation. The key is
// (Date, AwayTeam, HomeTeam).
type PickLogEntry struct {
	Date       string    `json:"date" validate:"required,datetime=2006-01-02"`
	AwayTeam   string    `json:"away_team" validate:"required,nefield=HomeTeam"`
	HomeTeam   string    `json:"home_team" validate:"required"`
	MLPick     string    `json:"ml_pick" validate:"required"`
	SpreadPick string    `json:"spread_pick" validate:"required"`
	OUPick     TotalPick `json:"ou_pick" validate:"oneof=Over Under"`

	SpreadLine *float64  `json:"spread_line,omitempty"`
	TotalLine  *float64  `json:"total_line,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// PickKey identifies a game on a given date.
type PickKey struct {
	Date     string
	AwayTeam string
	HomeTeam string
}

func (e PickLogEntry) Key() PickKey {
	return PickKey{Date: e.Date, AwayTeam: e.AwayTeam, HomeTeam: e.HomeTeam}
}

// NewPickLogEntry builds the log row for a recommendation on a game.
func NewPickLogEntry(game GameRecord, rec Recommendation, now time.Time) PickLogEntry {
	spread := rec.SpreadLine
	total := rec.TotalLine
	return PickLogEntry{
		Date:       game.GameDate,
		AwayTeam:   game.AwayTeam,
		HomeTeam:   game.HomeTeam,
		MLPick:     rec.MoneylinePick,
		SpreadPick: rec.SpreadPick,
		OUPick:     rec.TotalPick,
		SpreadLine: &spread,
		TotalLine:  &total,
		RecordedAt: now.UTC(),
	}
}

// RecordOutcome reports what the pick recorder did with an entry.
type RecordOutcome string

const (
	RecordAppended  RecordOutcome = "appended"
	RecordDuplicate RecordOutcome = "duplicate_skipped"
)
