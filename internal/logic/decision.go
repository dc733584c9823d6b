package logic

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ktwom22/nhl-bot/internal/config"
	"github.com/ktwom22/nhl-bot/internal/models"
)

// ErrInsufficientData is returned when a record cannot produce a pick, e.g.
// missing or identical team names.
var ErrInsufficientData = errors.New("insufficient data to make a pick")

// Engine computes moneyline, spread and total picks.
type Engine struct {
	defaults  config.DecisionDefaults
	validator *validator.Validate
}

func NewEngine(defaults config.DecisionDefaults) *Engine {
	return &Engine{
		defaults:  defaults,
		validator: validator.New(),
	}
}

// inputs is a game record with every numeric field resolved.
type inputs struct {
	homeWinPct   float64
	awayWinPct   float64
	goalDiff     float64
	homeGoalsFor float64
	awayGoalsFor float64
	homeSpread   float64
	awaySpread   float64
	totalLine    float64
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func orDefault(v *float64, fallback float64, ok func(float64) bool) float64 {
	if !finite(v) || (ok != nil && !ok(*v)) {
		return fallback
	}
	return *v
}

func isProbability(v float64) bool { return v >= 0 && v <= 1 }
func isNonNegative(v float64) bool { return v >= 0 }
func isPositive(v float64) bool    { return v > 0 }

// resolve fills absent and out-of-range fields from the defaults.
func (e *Engine) resolve(g models.GameRecord) inputs {
	d := e.defaults
	return inputs{
		homeWinPct:   orDefault(g.HomeWinPct, d.HomeWinPct, isProbability),
		awayWinPct:   orDefault(g.AwayWinPct, d.AwayWinPct, isProbability),
		goalDiff:     orDefault(g.GoalDiffMatchup, d.GoalDiff, nil),
		homeGoalsFor: orDefault(g.HomeGoalsFor, d.HomeGoalsFor, isNonNegative),
		awayGoalsFor: orDefault(g.AwayGoalsFor, d.AwayGoalsFor, isNonNegative),
		homeSpread:   orDefault(g.HomeSpread, d.HomeSpread, nil),
		awaySpread:   orDefault(g.AwaySpread, d.AwaySpread, nil),
		totalLine:    orDefault(g.TotalLine, d.TotalLine, isPositive),
	}
}

// Decide is total: it never fails for any record.
func (e *Engine) Decide(g models.GameRecord) models.Recommendation {
	in := e.resolve(g)

	pickHome := in.homeWinPct >= in.awayWinPct
	override := math.Abs(in.goalDiff) > e.defaults.GoalDiffOverride
	if override {
		pickHome = in.goalDiff > 0
	}

	rec := models.Recommendation{Override: override}
	if pickHome {
		rec.MoneylinePick = g.HomeTeam
		rec.SpreadTeam = g.HomeTeam
		rec.SpreadLine = in.homeSpread
	} else {
		rec.MoneylinePick = g.AwayTeam
		rec.SpreadTeam = g.AwayTeam
		rec.SpreadLine = in.awaySpread
	}
	rec.SpreadPick = rec.SpreadTeam + " " + FormatLine(rec.SpreadLine)

	sum := decimal.NewFromFloat(in.homeGoalsFor).Add(decimal.NewFromFloat(in.awayGoalsFor))
	line := decimal.NewFromFloat(in.totalLine)
	rec.TotalPick = models.Under
	if sum.GreaterThan(line) {
		rec.TotalPick = models.Over
	}
	rec.TotalLine = in.totalLine
	rec.GoalsSum = sum.InexactFloat64()

	return rec
}

// Pick validates the record and decides. Any failure, including a panic in
// the decision path, comes back as ErrInsufficientData.
func (e *Engine) Pick(g models.GameRecord) (rec models.Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInsufficientData, r)
		}
	}()

	if err := e.validator.Struct(g); err != nil {
		return models.Recommendation{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}
	return e.Decide(g), nil
}

// FormatLine renders a line with an explicit sign: -1.5, +1.5, +0.
func FormatLine(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return d.String()
	}
	return "+" + d.String()
}
