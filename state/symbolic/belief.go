package symbolic

import (
	"math/big"
	"strings"

	"github.com/dalzilio/rudd"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// maxPrintedWorlds bounds String output for large belief states.
const maxPrintedWorlds = 8

// BeliefState is a set of explicit worlds encoded as one formula.
type BeliefState struct {
	problem     *Problem
	node        rudd.Node
	id          *big.Int
	abstraction *state.Abstraction
	cache       state.ApplicableCache
	freed       bool
}

func (p *Problem) newBelief(n rudd.Node, abs *state.Abstraction) *BeliefState {
	return &BeliefState{
		problem:     p,
		node:        n,
		id:          big.NewInt(int64(*n)),
		abstraction: abs,
	}
}

func (b *BeliefState) live(op string) {
	if b.freed {
		panic(&state.FreedError{What: "belief state (" + op + ")"})
	}
}

func (b *BeliefState) Representation() state.Representation { return state.Symbolic }
func (b *BeliefState) ID() *big.Int                          { return b.id }
func (b *BeliefState) Hash() uint64                          { return state.HashOf(b.id) }
func (b *BeliefState) Abstraction() *state.Abstraction       { return b.abstraction }

func (b *BeliefState) Equal(other state.State) bool {
	if other == nil || other.Representation() != state.Symbolic {
		return false
	}
	return b.id.Cmp(other.ID()) == 0
}

// IsEmpty reports whether the belief contains no world.
func (b *BeliefState) IsEmpty() bool {
	b.live("IsEmpty")
	return b.problem.m.isFalse(b.node)
}

func (b *BeliefState) IsGoal() bool {
	if b.abstraction != nil {
		return b.abstraction.Goal.IsSatisfiedIn(b)
	}
	return b.problem.goal.IsSatisfiedIn(b)
}

// IsApplicable reports whether op is enabled in every world.
func (b *BeliefState) IsApplicable(op state.Operator) bool {
	return asOperator("BeliefState.IsApplicable", op).IsEnabledIn(b)
}

// Apply computes the image of the belief under op and splits it on every
// observed variable. Each non-empty observation branch is one successor.
func (b *BeliefState) Apply(op state.Operator) ([]state.State, error) {
	b.live("Apply")
	sop := asOperator("BeliefState.Apply", op)
	if !sop.IsEnabledIn(b) {
		return nil, &state.PreconditionError{Operator: sop.Name(), State: b.String()}
	}
	m := b.problem.m

	image := b.node
	if sop.relation != nil {
		image = m.bdd.Exist(m.bdd.And(sop.relation, b.node), m.curSet)
		image = m.bdd.Replace(image, m.toCurrent)
	}

	branches := []rudd.Node{image}
	for _, v := range sop.source.Observations() {
		var refined []rudd.Node
		for _, branch := range branches {
			for val := 0; val < m.domain[v]; val++ {
				part := m.bdd.And(branch, m.fact(v, val, false))
				if !m.isFalse(part) {
					refined = append(refined, part)
				}
			}
		}
		branches = refined
	}
	if err := m.check(); err != nil {
		return nil, err
	}

	succ := make([]state.State, 0, len(branches))
	for _, n := range branches {
		succ = append(succ, b.problem.newBelief(n, b.abstraction))
	}
	return succ, nil
}

func (b *BeliefState) ApplicableOps(ops *state.OperatorSet) []state.Operator {
	b.live("ApplicableOps")
	return b.cache.Get(b, ops)
}

// Worlds lists the explicit assignments of the belief.
func (b *BeliefState) Worlds(limit int) [][]int {
	b.live("Worlds")
	return b.problem.m.worlds(b.node, limit)
}

// Abstract projects the belief onto pattern.
func (b *BeliefState) Abstract(pattern state.VarSet) *BeliefState {
	b.live("Abstract")
	m := b.problem.m
	drop := m.varsExcept(pattern.Contains)
	n := m.bdd.And(m.bdd.Exist(b.node, drop), m.valid)
	abs := &state.Abstraction{
		Pattern: pattern,
		Goal:    b.problem.goal.Abstract(pattern),
	}
	return b.problem.newBelief(n, abs)
}

// Clone returns an independent owner of the same belief.
func (b *BeliefState) Clone() *BeliefState {
	b.live("Clone")
	return b.problem.newBelief(b.node, b.abstraction)
}

// Free releases the formula. Free is idempotent.
func (b *BeliefState) Free() {
	if b.freed {
		return
	}
	b.freed = true
	b.node = nil
	b.cache.Invalidate()
}

func (b *BeliefState) String() string {
	if b.freed {
		return "<freed belief>"
	}
	worlds := b.Worlds(maxPrintedWorlds + 1)
	src := b.problem.source
	parts := make([]string, 0, len(worlds))
	for i, w := range worlds {
		if i == maxPrintedWorlds {
			parts = append(parts, "...")
			break
		}
		s, err := src.NewState(w)
		if err != nil {
			parts = append(parts, "?")
			continue
		}
		parts = append(parts, s.String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}
