package ingest

import (
	"fmt"
	"math"
)

// AmericanToImpliedProbability converts American odds to implied probability.
// -150 → 0.6, +130 → 0.4348.
func AmericanToImpliedProbability(american float64) (float64, error) {
	switch {
	case american == 0 || math.IsNaN(american) || math.IsInf(american, 0):
		return 0, fmt.Errorf("invalid American odds: %v", american)
	case american > 0:
		return 100 / (american + 100), nil
	default:
		return -american / (-american + 100), nil
	}
}

// RemoveVig normalizes a two-way market so the probabilities sum to 1.
func RemoveVig(p1, p2 float64) (float64, float64, error) {
	if p1 <= 0 || p1 >= 1 || p2 <= 0 || p2 >= 1 {
		return 0, 0, fmt.Errorf("probabilities must be between 0 and 1")
	}
	total := p1 + p2
	return p1 / total, p2 / total, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
