package symbolic

import (
	"fmt"

	"github.com/dalzilio/rudd"

	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

// Problem is an explicit problem lifted to belief states.
type Problem struct {
	source    *explicit.Problem
	m         *Manager
	goal      *Condition
	ops       *state.OperatorSet
	operators []*Operator
	init      rudd.Node
}

// NewProblem lifts p. Operators with conditional effects are rejected.
func NewProblem(p *explicit.Problem, opts ...ManagerOption) (*Problem, error) {
	m, err := NewManager(p.DomainSizes(), opts...)
	if err != nil {
		return nil, err
	}
	goal, err := m.NewCondition(p.ExplicitGoal().Facts())
	if err != nil {
		return nil, err
	}
	sp := &Problem{source: p, m: m, goal: goal}

	generic := make([]state.Operator, 0, len(p.ExplicitOperators()))
	for _, op := range p.ExplicitOperators() {
		lifted, err := m.Lift(op)
		if err != nil {
			return nil, err
		}
		sp.operators = append(sp.operators, lifted)
		generic = append(generic, lifted)
	}
	if sp.ops, err = state.NewOperatorSet(generic); err != nil {
		return nil, err
	}

	sp.init, err = sp.encodeWorld(p.Initial().Values())
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (p *Problem) encodeWorld(values []int) (rudd.Node, error) {
	facts := make(map[int]int, len(values))
	for v, val := range values {
		facts[v] = val
	}
	return p.m.conjunction(facts)
}

func (p *Problem) Name() string                  { return p.source.Name() }
func (p *Problem) Goal() state.Condition         { return p.goal }
func (p *Problem) Operators() *state.OperatorSet { return p.ops }
func (p *Problem) NumAxioms() int                { return p.source.NumAxioms() }

// Explicit returns the explicit problem p was lifted from.
func (p *Problem) Explicit() *explicit.Problem { return p.source }

// Manager returns the decision diagram manager of the problem.
func (p *Problem) Manager() *Manager { return p.m }

// InitialState returns a fresh belief holding the initial world.
func (p *Problem) InitialState() state.State {
	return p.newBelief(p.init, nil)
}

// Belief returns the belief state containing exactly the given worlds.
func (p *Problem) Belief(worlds ...[]int) (*BeliefState, error) {
	n := p.m.bdd.False()
	for _, w := range worlds {
		if len(w) != p.m.NumVars() {
			return nil, fmt.Errorf("symbolic: world has %d values, want %d", len(w), p.m.NumVars())
		}
		world, err := p.encodeWorld(w)
		if err != nil {
			return nil, err
		}
		n = p.m.bdd.Or(n, world)
	}
	return p.newBelief(n, nil), nil
}
