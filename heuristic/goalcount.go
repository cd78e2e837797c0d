package heuristic

import (
	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

type fact struct {
	v, val int
}

func factsOf(c *explicit.Condition) []fact {
	if c == nil {
		return nil
	}
	out := make([]fact, 0, len(c.Vars()))
	for _, v := range c.Vars() {
		val, _ := c.Value(v)
		out = append(out, fact{v: v, val: val})
	}
	return out
}

// goalFacts returns the goal facts visible under abs.
func goalFacts(goal []fact, abs *state.Abstraction) []fact {
	if abs == nil {
		return goal
	}
	kept := make([]fact, 0, len(goal))
	for _, f := range goal {
		if abs.Pattern.Contains(f.v) {
			kept = append(kept, f)
		}
	}
	return kept
}

// goalCount counts goal facts a world violates. Variables projected away
// never count.
func goalCount(p *explicit.Problem) worldEval {
	goal := factsOf(p.ExplicitGoal())
	return func(values []int, abs *state.Abstraction) float64 {
		n := 0
		for _, f := range goalFacts(goal, abs) {
			if values[f.v] >= 0 && values[f.v] != f.val {
				n++
			}
		}
		return float64(n)
	}
}
