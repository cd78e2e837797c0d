package heuristic

import (
	"fmt"
	"math"
	"strings"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// Strategy combines the per-world estimates of a belief state.
type Strategy string

const (
	// StrategyMax takes the largest world estimate.
	StrategyMax Strategy = "MAX"

	// StrategyAdd sums the world estimates.
	StrategyAdd Strategy = "ADD"

	// StrategyAverage takes the mean world estimate.
	StrategyAverage Strategy = "AVERAGE"
)

// ParseStrategy resolves a case-insensitive strategy name.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToUpper(strings.TrimSpace(name)))
	switch s {
	case StrategyMax, StrategyAdd, StrategyAverage:
		return s, nil
	}
	return "", fmt.Errorf("heuristic: unknown strategy %q", name)
}

func (s Strategy) combine(values []float64) float64 {
	if len(values) == 0 {
		return Inf
	}
	switch s {
	case StrategyAdd, StrategyAverage:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		if s == StrategyAverage {
			return sum / float64(len(values))
		}
		return sum
	default:
		best := math.Inf(-1)
		for _, v := range values {
			best = math.Max(best, v)
		}
		return best
	}
}

// worldEval estimates one assignment. Absent variables hold -1.
type worldEval func(values []int, abs *state.Abstraction) float64

// worldHeuristic applies a per-world estimator to every world of a state.
type worldHeuristic struct {
	eval     worldEval
	strategy Strategy
	limit    int
}

func (h *worldHeuristic) Estimate(s state.State) float64 {
	if s.IsGoal() {
		return 0
	}
	we, ok := s.(state.WorldEnumerator)
	if !ok {
		return 1
	}
	worlds := we.Worlds(h.limit)
	values := make([]float64, 0, len(worlds))
	for _, w := range worlds {
		v := h.eval(w, s.Abstraction())
		if math.IsInf(v, 1) {
			return Inf
		}
		values = append(values, v)
	}
	return h.strategy.combine(values)
}
