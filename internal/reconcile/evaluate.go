package reconcile

import (
	"strconv"
	"strings"

	"github.com/ktwom22/nhl-bot/internal/logic"
	"github.com/ktwom22/nhl-bot/internal/models"
)

// Evaluate grades one pick against its final score. A nil or unfinished
// score leaves every market pending.
func Evaluate(entry models.PickLogEntry, score *models.FinalScore) models.Evaluation {
	ev := models.Evaluation{
		Entry:     entry,
		Moneyline: models.OutcomePending,
		Spread:    models.OutcomePending,
		Total:     models.OutcomePending,
	}
	if score == nil || !score.Completed {
		return ev
	}
	ev.Score = score

	ev.Moneyline = gradeMoneyline(entry, score)
	ev.Spread = gradeSpread(entry, score)
	ev.Total = gradeTotal(entry, score)
	return ev
}

// gradeMoneyline counts a tie as a loss for either pick.
func gradeMoneyline(entry models.PickLogEntry, score *models.FinalScore) models.Outcome {
	var winner string
	switch {
	case score.HomeGoals > score.AwayGoals:
		winner = entry.HomeTeam
	case score.AwayGoals > score.HomeGoals:
		winner = entry.AwayTeam
	default:
		return models.OutcomeLoss
	}
	if sameTeam(entry.MLPick, winner) {
		return models.OutcomeWin
	}
	return models.OutcomeLoss
}

// gradeSpread wins when the picked side's margin plus its line is strictly
// positive. For a home pick that is (home - away) + home_spread > 0.
func gradeSpread(entry models.PickLogEntry, score *models.FinalScore) models.Outcome {
	team, line, ok := splitSpreadPick(entry)
	if !ok {
		return models.OutcomePending
	}

	var margin int
	switch {
	case sameTeam(team, entry.HomeTeam):
		margin = score.HomeGoals - score.AwayGoals
	case sameTeam(team, entry.AwayTeam):
		margin = score.AwayGoals - score.HomeGoals
	default:
		return models.OutcomePending
	}

	if float64(margin)+line > 0 {
		return models.OutcomeWin
	}
	return models.OutcomeLoss
}

// gradeTotal treats a combined score equal to the line as a push.
func gradeTotal(entry models.PickLogEntry, score *models.FinalScore) models.Outcome {
	if entry.TotalLine == nil {
		return models.OutcomePending
	}
	goals := float64(score.HomeGoals + score.AwayGoals)
	line := *entry.TotalLine

	switch {
	case goals == line:
		return models.OutcomePush
	case entry.OUPick == models.Over && goals > line:
		return models.OutcomeWin
	case entry.OUPick == models.Under && goals < line:
		return models.OutcomeWin
	case entry.OUPick == models.Over || entry.OUPick == models.Under:
		return models.OutcomeLoss
	default:
		return models.OutcomePending
	}
}

// splitSpreadPick reads "Toronto Maple Leafs -1.5" into team and line. The
// stored spread_line wins over the parsed one when present.
func splitSpreadPick(entry models.PickLogEntry) (string, float64, bool) {
	pick := strings.TrimSpace(entry.SpreadPick)
	i := strings.LastIndex(pick, " ")
	if i <= 0 {
		return "", 0, false
	}
	team := strings.TrimSpace(pick[:i])

	if entry.SpreadLine != nil {
		return team, *entry.SpreadLine, true
	}
	line, err := strconv.ParseFloat(pick[i+1:], 64)
	if err != nil {
		return "", 0, false
	}
	return team, line, true
}

func sameTeam(a, b string) bool {
	return a != "" && logic.NormalizeTeam(a) == logic.NormalizeTeam(b)
}
