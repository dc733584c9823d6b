package logic

import (
	"fmt"
	"strings"

	"github.com/ktwom22/nhl-bot/internal/models"
)

var helpExamples = []string{"Hurricanes", "Bruins", "Maple Leafs"}

// FormatPick renders the message reply for a recommendation.
func FormatPick(g models.GameRecord, rec models.Recommendation) string {
	var b strings.Builder
	b.WriteString("🏒 NHL PICK\n\n")
	b.WriteString(g.Matchup())
	if g.StartTimeLocal != "" {
		fmt.Fprintf(&b, " (%s)", g.StartTimeLocal)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "💰 Moneyline: %s\n", rec.MoneylinePick)
	fmt.Fprintf(&b, "📈 Spread: %s\n", rec.SpreadPick)
	fmt.Fprintf(&b, "⚖️ O/U: %s %s", rec.TotalPick, FormatTotal(rec.TotalLine))
	return b.String()
}

// FormatTotal renders a total line without a sign.
func FormatTotal(v float64) string {
	return strings.TrimPrefix(FormatLine(v), "+")
}

// FormatNotFound is the help reply. It suggests teams playing tonight when
// there are any.
func FormatNotFound(snap *models.Snapshot) string {
	examples := helpExamples
	if snap.Len() > 0 {
		examples = nil
		for i, g := range snap.Records {
			if i == 3 {
				break
			}
			examples = append(examples, g.HomeTeam)
		}
	}

	var b strings.Builder
	b.WriteString("No game found for that team tonight.\n")
	b.WriteString("Try texting a team name like:")
	for _, e := range examples {
		b.WriteString("\n• ")
		b.WriteString(e)
	}
	return b.String()
}

func FormatAmbiguous(query string, candidates []models.GameRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q matches more than one game tonight:", query)
	for _, g := range candidates {
		b.WriteString("\n• ")
		b.WriteString(g.Matchup())
	}
	b.WriteString("\nReply with a full team name.")
	return b.String()
}

func FormatInsufficient(g *models.GameRecord) string {
	if g == nil {
		return "Sorry, a pick can't be made for that game right now."
	}
	return fmt.Sprintf("Sorry, a pick can't be made for %s right now.", g.Matchup())
}

// FormatGames lists the snapshot's games.
func FormatGames(snap *models.Snapshot) string {
	if snap.Len() == 0 {
		return "No NHL games loaded for tonight yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏒 NHL games %s", snap.Date)
	for _, g := range snap.Records {
		b.WriteString("\n• ")
		b.WriteString(g.Matchup())
		if g.StartTimeLocal != "" {
			fmt.Fprintf(&b, " %s", g.StartTimeLocal)
		}
	}
	return b.String()
}
