package heuristic

import (
	"math"

	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

// relaxedOp is one effect of one outcome with the facts it needs.
type relaxedOp struct {
	pre  []fact
	add  fact
	cost float64
}

// relax flattens every causative operator into single-effect rules. All
// outcomes are kept, so the relaxation may pick the outcome it likes.
func relax(p *explicit.Problem) []relaxedOp {
	var rules []relaxedOp
	for _, op := range p.ExplicitOperators() {
		if !op.IsCausative() {
			continue
		}
		pre := factsOf(op.Pre())
		for _, outcome := range op.Outcomes() {
			for _, e := range outcome {
				need := pre
				if e.When != nil && !e.When.IsTrue() {
					need = append(append([]fact(nil), pre...), factsOf(e.When)...)
				}
				rules = append(rules, relaxedOp{
					pre:  need,
					add:  fact{v: e.Var, val: e.Value},
					cost: op.Cost(),
				})
			}
		}
	}
	return rules
}

// hmax computes the max-cost of reaching every goal fact in the
// delete-relaxed all-outcomes determinization. Unreachable goals yield +Inf.
func hmax(p *explicit.Problem) worldEval {
	domain := p.DomainSizes()
	rules := relax(p)
	goal := factsOf(p.ExplicitGoal())

	return func(values []int, abs *state.Abstraction) float64 {
		cost := make([][]float64, len(domain))
		for v, d := range domain {
			cost[v] = make([]float64, d)
			for val := range cost[v] {
				if values[v] < 0 || values[v] == val {
					cost[v][val] = 0
				} else {
					cost[v][val] = Inf
				}
			}
		}
		of := func(facts []fact) float64 {
			worst := 0.0
			for _, f := range facts {
				worst = math.Max(worst, cost[f.v][f.val])
			}
			return worst
		}

		for changed := true; changed; {
			changed = false
			for _, r := range rules {
				c := of(r.pre)
				if math.IsInf(c, 1) {
					continue
				}
				c += r.cost
				if c < cost[r.add.v][r.add.val] {
					cost[r.add.v][r.add.val] = c
					changed = true
				}
			}
		}
		return of(goalFacts(goal, abs))
	}
}
