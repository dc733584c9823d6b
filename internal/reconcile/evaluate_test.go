package reconcile

import (
	"testing"

	"github.com/ktwom22/nhl-bot/internal/models"
)

func f(v float64) *float64 { return &v }

func leafsPick() models.PickLogEntry {
	return models.PickLogEntry{
		Date:       "2025-11-04",
		AwayTeam:   "Boston Bruins",
		HomeTeam:   "Toronto Maple Leafs",
		MLPick:     "Toronto Maple Leafs",
		SpreadPick: "Toronto Maple Leafs -1.5",
		OUPick:     models.Under,
		SpreadLine: f(-1.5),
		TotalLine:  f(6),
	}
}

func final(away, home int) *models.FinalScore {
	return &models.FinalScore{
		Date:      "2025-11-04",
		AwayTeam:  "Boston Bruins",
		HomeTeam:  "Toronto Maple Leafs",
		AwayGoals: away,
		HomeGoals: home,
		Completed: true,
	}
}

func TestEvaluate(t *testing.T) {
	awayPick := leafsPick()
	awayPick.MLPick = "Boston Bruins"
	awayPick.SpreadPick = "Boston Bruins +1.5"
	awayPick.SpreadLine = f(1.5)
	awayPick.OUPick = models.Over

	legacy := leafsPick()
	legacy.SpreadLine = nil

	noTotal := leafsPick()
	noTotal.TotalLine = nil

	tests := []struct {
		name   string
		entry  models.PickLogEntry
		score  *models.FinalScore
		ml     models.Outcome
		spread models.Outcome
		total  models.Outcome
	}{
		{"home covers", leafsPick(), final(1, 4), models.OutcomeWin, models.OutcomeWin, models.OutcomeWin},
		{"home wins by one", leafsPick(), final(2, 3), models.OutcomeWin, models.OutcomeLoss, models.OutcomeWin},
		{"home loses, total push", leafsPick(), final(4, 2), models.OutcomeLoss, models.OutcomeLoss, models.OutcomePush},
		{"tie is a loss", leafsPick(), final(3, 3), models.OutcomeLoss, models.OutcomeLoss, models.OutcomePush},
		{"away pick covers losing by one", awayPick, final(2, 3), models.OutcomeLoss, models.OutcomeWin, models.OutcomeLoss},
		{"away pick wins, over", awayPick, final(5, 2), models.OutcomeWin, models.OutcomeWin, models.OutcomeWin},
		{"legacy line parsed from pick", legacy, final(0, 2), models.OutcomeWin, models.OutcomeWin, models.OutcomeWin},
		{"missing total line", noTotal, final(1, 4), models.OutcomeWin, models.OutcomeWin, models.OutcomePending},
		{"no score", leafsPick(), nil, models.OutcomePending, models.OutcomePending, models.OutcomePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evaluate(tt.entry, tt.score)
			if ev.Moneyline != tt.ml {
				t.Errorf("moneyline = %s, want %s", ev.Moneyline, tt.ml)
			}
			if ev.Spread != tt.spread {
				t.Errorf("spread = %s, want %s", ev.Spread, tt.spread)
			}
			if ev.Total != tt.total {
				t.Errorf("total = %s, want %s", ev.Total, tt.total)
			}
		})
	}
}

func TestEvaluateIncompleteScoreIsPending(t *testing.T) {
	score := final(1, 4)
	score.Completed = false

	ev := Evaluate(leafsPick(), score)
	if ev.Moneyline != models.OutcomePending || ev.Spread != models.OutcomePending || ev.Total != models.OutcomePending {
		t.Errorf("got %s/%s/%s, want all pending", ev.Moneyline, ev.Spread, ev.Total)
	}
	if ev.Score != nil {
		t.Error("incomplete score should not be attached")
	}
}

func TestEvaluateMatchesTeamNamesLoosely(t *testing.T) {
	entry := leafsPick()
	entry.MLPick = "toronto  maple leafs"

	ev := Evaluate(entry, final(1, 4))
	if ev.Moneyline != models.OutcomeWin {
		t.Errorf("moneyline = %s, want win", ev.Moneyline)
	}
}

func TestSplitSpreadPick(t *testing.T) {
	entry := models.PickLogEntry{SpreadPick: "St. Louis Blues +1.5"}
	team, line, ok := splitSpreadPick(entry)
	if !ok || team != "St. Louis Blues" || line != 1.5 {
		t.Errorf("got (%q, %v, %v)", team, line, ok)
	}

	if _, _, ok := splitSpreadPick(models.PickLogEntry{SpreadPick: "Blues"}); ok {
		t.Error("pick without a line should not split")
	}
}
