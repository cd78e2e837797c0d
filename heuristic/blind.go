package heuristic

import (
	"math"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// Blind returns the heuristic that is 0 on goal states and 1 elsewhere.
func Blind() Heuristic {
	return Func(func(s state.State) float64 {
		if s.IsGoal() {
			return 0
		}
		return 1
	})
}

// BlindDeadEnd keeps only the dead-end verdict of inner: +Inf when inner
// reports +Inf, otherwise the blind estimate. Numeric guidance of inner is
// discarded.
func BlindDeadEnd(inner Heuristic) Heuristic {
	return Func(func(s state.State) float64 {
		if math.IsInf(inner.Estimate(s), 1) {
			return Inf
		}
		if s.IsGoal() {
			return 0
		}
		return 1
	})
}
