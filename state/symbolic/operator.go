package symbolic

import (
	"errors"
	"fmt"

	"github.com/dalzilio/rudd"

	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

// ErrConditionalEffect is returned when lifting an operator that has
// conditional effects.
var ErrConditionalEffect = errors.New("symbolic: conditional effects are not supported")

// Operator is an explicit operator lifted to a transition relation.
type Operator struct {
	m        *Manager
	source   *explicit.Operator
	pre      *Condition
	relation rudd.Node
}

// Lift builds the symbolic counterpart of op. Each outcome becomes the
// conjunction of its primed facts and of frame axioms for the variables it
// leaves untouched; the relation is the disjunction of the outcomes.
func (m *Manager) Lift(op *explicit.Operator) (*Operator, error) {
	pre, err := m.conjunction(op.Pre().Facts())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name(), err)
	}
	lifted := &Operator{
		m:      m,
		source: op,
		pre:    &Condition{m: m, node: pre},
	}
	if !op.IsCausative() {
		return lifted, nil
	}

	relation := m.bdd.False()
	for _, outcome := range op.Outcomes() {
		assigned := make(map[int]int, len(outcome))
		for _, e := range outcome {
			if e.When != nil && !e.When.IsTrue() {
				return nil, fmt.Errorf("%w: %s", ErrConditionalEffect, op.Name())
			}
			assigned[e.Var] = e.Value
		}
		branch := m.bdd.True()
		for v := range m.domain {
			if val, ok := assigned[v]; ok {
				branch = m.bdd.And(branch, m.fact(v, val, true))
			} else {
				branch = m.bdd.And(branch, m.frame(v))
			}
		}
		relation = m.bdd.Or(relation, branch)
	}
	lifted.relation = relation
	if err := m.check(); err != nil {
		return nil, err
	}
	return lifted, nil
}

func (o *Operator) Name() string                         { return o.source.Name() }
func (o *Operator) Cost() float64                        { return o.source.Cost() }
func (o *Operator) Representation() state.Representation { return state.Symbolic }
func (o *Operator) Precondition() state.Condition        { return o.pre }
func (o *Operator) IsCausative() bool                    { return o.source.IsCausative() }
func (o *Operator) IsSensing() bool                      { return o.source.IsSensing() }
func (o *Operator) AffectedVariables() state.VarSet      { return o.source.AffectedVariables() }

// Explicit returns the operator this one was lifted from.
func (o *Operator) Explicit() *explicit.Operator { return o.source }

func (o *Operator) IsEnabledIn(s state.State) bool {
	return o.pre.IsSatisfiedIn(s)
}

// Abstract projects the explicit operator first and lifts the result. A
// vanished projection stays nil.
func (o *Operator) Abstract(pattern state.VarSet) state.Operator {
	projected := o.source.Project(pattern)
	if projected == nil {
		return nil
	}
	lifted, err := o.m.Lift(projected)
	if err != nil {
		// projection cannot introduce conditional effects the original
		// operator did not have
		panic(err)
	}
	return lifted
}

func (o *Operator) String() string {
	return "symbolic:" + o.source.String()
}
