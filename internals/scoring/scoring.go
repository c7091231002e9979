// Package scoring turns rosters into team scores.
package scoring

import (
	"errors"
	"math"

	"github.com/portfoligo/api-server/internals/stocks"
)

var ErrInvalidWeights = errors.New("weights must be non-negative and sum to 100")

const weightTolerance = 0.01

// Weights are league scoring weights in percent.
type Weights struct {
	Risk   float64 `json:"risk_weight"`
	Growth float64 `json:"growth_weight"`
	Value  float64 `json:"value_weight"`
}

func DefaultWeights() Weights {
	return Weights{Risk: 20, Growth: 40, Value: 40}
}

func (w Weights) Sum() float64 {
	return w.Risk + w.Growth + w.Value
}

func (w Weights) Validate() error {
	if w.Risk < 0 || w.Growth < 0 || w.Value < 0 {
		return ErrInvalidWeights
	}
	if math.Abs(w.Sum()-100) > weightTolerance {
		return ErrInvalidWeights
	}
	return nil
}

// Normalized returns the weights as fractions of one. Zero weights normalise
// to the defaults.
func (w Weights) Normalized() Weights {
	sum := w.Sum()
	if sum <= 0 {
		return DefaultWeights().Normalized()
	}
	return Weights{Risk: w.Risk / sum, Growth: w.Growth / sum, Value: w.Value / sum}
}

type Factor string

const (
	Risk   Factor = "risk"
	Growth Factor = "growth"
	Value  Factor = "value"
)

// Rebalance sets one factor to value and shares the remainder between the
// other two in proportion to their current weights, so the total stays 100.
func Rebalance(w Weights, f Factor, value float64) (Weights, error) {
	if value < 0 || value > 100 {
		return w, ErrInvalidWeights
	}

	var a, b *float64
	out := w
	switch f {
	case Risk:
		out.Risk, a, b = value, &out.Growth, &out.Value
	case Growth:
		out.Growth, a, b = value, &out.Risk, &out.Value
	case Value:
		out.Value, a, b = value, &out.Risk, &out.Growth
	default:
		return w, ErrInvalidWeights
	}

	rest := 100 - value
	others := *a + *b
	if others <= 0 {
		*a, *b = rest/2, rest/2
	} else {
		*a = round2(rest * *a / others)
		*b = round2(rest - *a)
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func TeamTotal(roster []stocks.Stock) float64 {
	var total float64
	for _, s := range roster {
		total += s.TotalScore
	}
	return total
}

// TeamAverage reports false for an empty roster.
func TeamAverage(roster []stocks.Stock) (float64, bool) {
	if len(roster) == 0 {
		return 0, false
	}
	return TeamTotal(roster) / float64(len(roster)), true
}

// WeightedStockScore blends the factor scores with normalised weights. For
// inputs on a 0-100 scale the result is on the same scale.
func WeightedStockScore(s stocks.Stock, w Weights) float64 {
	n := w.Normalized()
	return s.GrowthScore*n.Growth + s.ValueScore*n.Value + s.RiskScore*n.Risk
}

func WeightedTeamScore(roster []stocks.Stock, w Weights) float64 {
	var total float64
	for _, s := range roster {
		total += WeightedStockScore(s, w)
	}
	return total
}
