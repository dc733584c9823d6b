package models

import "time"

// Outcome grades a single market of a pick.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomePush    Outcome = "push"
	OutcomePending Outcome = "pending"
)

// Correct mirrors the true/false/blank columns of the results sheet.
func (o Outcome) Correct() *bool {
	switch o {
	case OutcomeWin:
		t := true
		return &t
	case OutcomeLoss:
		f := false
		return &f
	default:
		return nil
	}
}

// FinalScore is a completed (or in-progress) game from a results source.
// Date may be empty when the source does not carry one.
type FinalScore struct {
	Date      string `json:"date"`
	AwayTeam  string `json:"away_team"`
	HomeTeam  string `json:"home_team"`
	AwayGoals int    `json:"away_goals"`
	HomeGoals int    `json:"home_goals"`
	Completed bool   `json:"completed"`
}

// Evaluation is a pick joined with its final score and graded.
type Evaluation struct {
	Entry     PickLogEntry `json:"pick"`
	Score     *FinalScore  `json:"score,omitempty"`
	Moneyline Outcome      `json:"ml_result"`
	Spread    Outcome      `json:"spread_result"`
	Total     Outcome      `json:"ou_result"`
}

// MarketTally counts outcomes for one market.
type MarketTally struct {
	Win     int `json:"win"`
	Loss    int `json:"loss"`
	Push    int `json:"push"`
	Pending int `json:"pending"`
}

func (t *MarketTally) Add(o Outcome) {
	switch o {
	case OutcomeWin:
		t.Win++
	case OutcomeLoss:
		t.Loss++
	case OutcomePush:
		t.Push++
	default:
		t.Pending++
	}
}

// ReconcileReport summarises one reconciliation run.
type ReconcileReport struct {
	RunID       string       `json:"run_id"`
	Picks       int          `json:"picks"`
	Scores      int          `json:"scores"`
	Moneyline   MarketTally  `json:"moneyline"`
	Spread      MarketTally  `json:"spread"`
	Total       MarketTally  `json:"total"`
	Evaluations []Evaluation `json:"evaluations"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
	OutputFile  string       `json:"output_file"`
}

// IngestResult summarises one odds ingestion run.
type IngestResult struct {
	RunID      string    `json:"run_id"`
	Date       string    `json:"date"`
	Fetched    int       `json:"fetched"`
	OutOfDay   int       `json:"out_of_day"`
	Skipped    int       `json:"skipped"`
	Games      int       `json:"games"`
	Written    bool      `json:"written"`
	OutputFile string    `json:"output_file"`
	FinishedAt time.Time `json:"finished_at"`
}
