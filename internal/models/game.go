package models

import "time"

// DateLayout is the calendar-date format used in every data file.
const DateLayout = "2006-01-02"

// GameRecord is one scheduled contest for a league day. Numeric fields are
// optional: nil means the source had no usable value and the decision
// defaults apply.
type GameRecord struct {
	GameDate       string `json:"game_date" validate:"required,datetime=2006-01-02"`
	AwayTeam       string `json:"away_team" validate:"required,nefield=HomeTeam"`
	HomeTeam       string `json:"home_team" validate:"required"`
	StartTimeLocal string `json:"start_time_local,omitempty"`
	EventID        string `json:"event_id,omitempty"`

	HomeWinPct      *float64 `json:"home_win_pct,omitempty"`
	AwayWinPct      *float64 `json:"away_win_pct,omitempty"`
	GoalDiffMatchup *float64 `json:"goal_diff_matchup,omitempty"`
	HomeGoalsFor    *float64 `json:"home_goals_for,omitempty"`
	AwayGoalsFor    *float64 `json:"away_goals_for,omitempty"`
	HomeSpread      *float64 `json:"home_spread,omitempty"`
	AwaySpread      *float64 `json:"away_spread,omitempty"`
	TotalLine       *float64 `json:"total_line,omitempty"`
}

// Matchup renders "Away @ Home".
func (g GameRecord) Matchup() string {
	return g.AwayTeam + " @ " + g.HomeTeam
}

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 {
	return &v
}

// Snapshot is an immutable view of the game file as loaded at one moment.
// Handlers receive it per request and never mutate it.
type Snapshot struct {
	Date     string       `json:"date"`
	Records  []GameRecord `json:"games"`
	Source   string       `json:"source"`
	LoadedAt time.Time    `json:"loaded_at"`
	Skipped  int          `json:"skipped_rows"`
}

// Len is safe on a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}
