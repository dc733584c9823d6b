package oddsapi

import (
	"strconv"
	"time"
)

// Market keys requested from /odds.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

// Event is one game from /v4/sports/{sport}/odds.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome prices are American odds because requests use oddsFormat=american.
// Point is absent on h2h markets.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// FirstMarket returns the first bookmaker's market with the given key.
func (e Event) FirstMarket(key string) (Market, bool) {
	for _, b := range e.Bookmakers {
		for _, m := range b.Markets {
			if m.Key == key && len(m.Outcomes) > 0 {
				return m, true
			}
		}
	}
	return Market{}, false
}

// Outcome finds the named outcome in the market.
func (m Market) Outcome(name string) (Outcome, bool) {
	for _, o := range m.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// ScoreEvent is one game from /v4/sports/{sport}/scores.
type ScoreEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	Completed    bool        `json:"completed"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Scores       []TeamScore `json:"scores"`
}

// TeamScore carries the score as a string, as the API sends it.
type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// ScoreFor returns the parsed score of the named team.
func (s ScoreEvent) ScoreFor(team string) (int, bool) {
	for _, ts := range s.Scores {
		if ts.Name != team {
			continue
		}
		v, err := strconv.Atoi(ts.Score)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
