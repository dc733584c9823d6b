package logic

import (
	"errors"
	"math"
	"testing"

	"github.com/ktwom22/nhl-bot/internal/config"
	"github.com/ktwom22/nhl-bot/internal/models"
)

func f(v float64) *float64 { return &v }

func torontoGame() models.GameRecord {
	return models.GameRecord{
		GameDate:        "2025-11-04",
		AwayTeam:        "Boston Bruins",
		HomeTeam:        "Toronto Maple Leafs",
		HomeWinPct:      f(0.6),
		AwayWinPct:      f(0.4),
		GoalDiffMatchup: f(1),
		HomeGoalsFor:    f(3),
		AwayGoalsFor:    f(2),
		HomeSpread:      f(-1.5),
		AwaySpread:      f(1.5),
		TotalLine:       f(5.5),
	}
}

func TestDecide(t *testing.T) {
	engine := NewEngine(config.DefaultDecisionDefaults())

	tests := []struct {
		name       string
		mutate     func(g *models.GameRecord)
		wantML     string
		wantSpread string
		wantTotal  models.TotalPick
	}{
		{
			name:       "reference game",
			mutate:     func(g *models.GameRecord) {},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Under,
		},
		{
			name: "goal diff override favors home",
			mutate: func(g *models.GameRecord) {
				g.HomeWinPct, g.AwayWinPct, g.GoalDiffMatchup = f(0.2), f(0.8), f(2.5)
			},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Under,
		},
		{
			name: "goal diff override favors away",
			mutate: func(g *models.GameRecord) {
				g.HomeWinPct, g.AwayWinPct, g.GoalDiffMatchup = f(0.9), f(0.1), f(-2.5)
			},
			wantML:     "Boston Bruins",
			wantSpread: "Boston Bruins +1.5",
			wantTotal:  models.Under,
		},
		{
			name: "goal diff at threshold does not override",
			mutate: func(g *models.GameRecord) {
				g.HomeWinPct, g.AwayWinPct, g.GoalDiffMatchup = f(0.3), f(0.7), f(2)
			},
			wantML:     "Boston Bruins",
			wantSpread: "Boston Bruins +1.5",
			wantTotal:  models.Under,
		},
		{
			name: "tie goes home",
			mutate: func(g *models.GameRecord) {
				g.HomeWinPct, g.AwayWinPct = f(0.5), f(0.5)
			},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Under,
		},
		{
			name: "goals equal to line is under",
			mutate: func(g *models.GameRecord) {
				g.HomeGoalsFor, g.AwayGoalsFor, g.TotalLine = f(3), f(3), f(6)
			},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Under,
		},
		{
			name: "decimal sum equal to line is under",
			mutate: func(g *models.GameRecord) {
				g.HomeGoalsFor, g.AwayGoalsFor, g.TotalLine = f(3.1), f(3.0), f(6.1)
			},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Under,
		},
		{
			name: "over when goals exceed line",
			mutate: func(g *models.GameRecord) {
				g.HomeGoalsFor, g.AwayGoalsFor = f(3.4), f(2.9)
			},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Over,
		},
		{
			name: "spread signs are taken as given",
			mutate: func(g *models.GameRecord) {
				g.HomeSpread, g.AwaySpread = f(1.5), f(1.5)
			},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs +1.5",
			wantTotal:  models.Under,
		},
		{
			name: "all numerics missing use defaults",
			mutate: func(g *models.GameRecord) {
				*g = models.GameRecord{GameDate: g.GameDate, AwayTeam: g.AwayTeam, HomeTeam: g.HomeTeam}
			},
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Over,
		},
		{
			name: "out of range values are defaulted",
			mutate: func(g *models.GameRecord) {
				g.HomeWinPct = f(1.7)
				g.AwayWinPct = f(math.NaN())
				g.HomeGoalsFor = f(-1)
				g.TotalLine = f(0)
			},
			// 0.5 vs 0.5 tie; 3.1 + 2 = 5.1 < 6.0
			wantML:     "Toronto Maple Leafs",
			wantSpread: "Toronto Maple Leafs -1.5",
			wantTotal:  models.Under,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := torontoGame()
			tt.mutate(&g)

			got := engine.Decide(g)
			if got.MoneylinePick != tt.wantML {
				t.Errorf("MoneylinePick = %q, want %q", got.MoneylinePick, tt.wantML)
			}
			if got.SpreadPick != tt.wantSpread {
				t.Errorf("SpreadPick = %q, want %q", got.SpreadPick, tt.wantSpread)
			}
			if got.TotalPick != tt.wantTotal {
				t.Errorf("TotalPick = %q, want %q", got.TotalPick, tt.wantTotal)
			}
		})
	}
}

func TestDecide_OverrideIgnoresProbabilities(t *testing.T) {
	engine := NewEngine(config.DefaultDecisionDefaults())

	for _, pct := range []float64{0, 0.25, 0.5, 0.75, 1} {
		g := torontoGame()
		g.HomeWinPct, g.AwayWinPct = f(pct), f(1-pct)

		g.GoalDiffMatchup = f(2.01)
		if got := engine.Decide(g); got.MoneylinePick != g.HomeTeam || !got.Override {
			t.Errorf("gd>2 home_win=%v: got %q", pct, got.MoneylinePick)
		}

		g.GoalDiffMatchup = f(-2.01)
		if got := engine.Decide(g); got.MoneylinePick != g.AwayTeam {
			t.Errorf("gd<-2 home_win=%v: got %q", pct, got.MoneylinePick)
		}
	}
}

func TestDecide_Total(t *testing.T) {
	engine := NewEngine(config.DefaultDecisionDefaults())
	values := []*float64{nil, f(0), f(-3), f(0.5), f(3), f(1e9), f(math.NaN()), f(math.Inf(1)), f(math.Inf(-1))}

	for _, a := range values {
		for _, b := range values {
			g := models.GameRecord{
				GameDate:        "2025-11-04",
				AwayTeam:        "A",
				HomeTeam:        "H",
				HomeWinPct:      a,
				AwayWinPct:      b,
				GoalDiffMatchup: a,
				HomeGoalsFor:    b,
				AwayGoalsFor:    a,
				HomeSpread:      b,
				AwaySpread:      a,
				TotalLine:       b,
			}
			got := engine.Decide(g)
			if got.MoneylinePick != "A" && got.MoneylinePick != "H" {
				t.Fatalf("MoneylinePick = %q", got.MoneylinePick)
			}
			if got.TotalPick != models.Over && got.TotalPick != models.Under {
				t.Fatalf("TotalPick = %q", got.TotalPick)
			}
			if math.IsNaN(got.SpreadLine) || math.IsInf(got.SpreadLine, 0) {
				t.Fatalf("SpreadLine = %v", got.SpreadLine)
			}
		}
	}
}

func TestPick_InsufficientData(t *testing.T) {
	engine := NewEngine(config.DefaultDecisionDefaults())

	tests := []struct {
		name string
		game models.GameRecord
	}{
		{"same team twice", game("Boston Bruins", "Boston Bruins")},
		{"missing home", game("Boston Bruins", "")},
		{"missing away", game("", "Boston Bruins")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Pick(tt.game)
			if !errors.Is(err, ErrInsufficientData) {
				t.Errorf("Pick() error = %v, want ErrInsufficientData", err)
			}
		})
	}

	if _, err := engine.Pick(torontoGame()); err != nil {
		t.Errorf("Pick(valid) error = %v", err)
	}
}

func TestFormatLine(t *testing.T) {
	tests := map[float64]string{
		-1.5: "-1.5",
		1.5:  "+1.5",
		0:    "+0",
		2:    "+2",
		-0.5: "-0.5",
	}
	for in, want := range tests {
		if got := FormatLine(in); got != want {
			t.Errorf("FormatLine(%v) = %q, want %q", in, got, want)
		}
	}
}
