package reconcile

import (
	"context"
	"time"

	"github.com/ktwom22/nhl-bot/internal/models"
	"github.com/ktwom22/nhl-bot/internal/providers/oddsapi"
)

// ScoresClient is the part of the Odds API client used for results.
type ScoresClient interface {
	GetScores(ctx context.Context, sport string, daysFrom int) ([]oddsapi.ScoreEvent, error)
}

// OddsAPIScores adapts the Odds API scores endpoint to a ScoreSource. Dates
// are the league-local day of the start time.
type OddsAPIScores struct {
	client   ScoresClient
	sport    string
	daysFrom int
	loc      *time.Location
}

func NewOddsAPIScores(client ScoresClient, sport string, loc *time.Location) *OddsAPIScores {
	if loc == nil {
		loc = time.UTC
	}
	return &OddsAPIScores{client: client, sport: sport, daysFrom: 3, loc: loc}
}

func (s *OddsAPIScores) FetchScores(ctx context.Context) ([]models.FinalScore, error) {
	events, err := s.client.GetScores(ctx, s.sport, s.daysFrom)
	if err != nil {
		return nil, err
	}

	scores := make([]models.FinalScore, 0, len(events))
	for _, ev := range events {
		home, homeOK := ev.ScoreFor(ev.HomeTeam)
		away, awayOK := ev.ScoreFor(ev.AwayTeam)
		if !homeOK || !awayOK {
			continue
		}
		scores = append(scores, models.FinalScore{
			Date:      ev.CommenceTime.In(s.loc).Format(models.DateLayout),
			AwayTeam:  ev.AwayTeam,
			HomeTeam:  ev.HomeTeam,
			AwayGoals: away,
			HomeGoals: home,
			Completed: ev.Completed,
		})
	}
	return scores, nil
}
