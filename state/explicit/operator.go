package explicit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// ErrInvalidOperator is returned by NewOperator for malformed input.
var ErrInvalidOperator = errors.New("explicit: invalid operator")

// Effect assigns Value to Var when When holds in the state the operator is
// applied to. A nil When is unconditional.
type Effect struct {
	Var   int
	Value int
	When  *Condition
}

// Operator is a nondeterministic action over explicit states.
//
// Outcomes holds one effect list per nondeterministic choice. An operator
// without outcomes is not causative.
type Operator struct {
	name       string
	cost       float64
	pre        *Condition
	outcomes   [][]Effect
	observe    state.VarSet
	affected   state.VarSet
	abstracted bool
}

// NewOperator builds an operator. pre may be nil for an always-enabled
// operator.
func NewOperator(name string, cost float64, pre *Condition, outcomes [][]Effect, observe ...int) (*Operator, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidOperator)
	}
	if cost < 0 {
		return nil, fmt.Errorf("%w: %s has negative cost %v", ErrInvalidOperator, name, cost)
	}
	if pre == nil {
		pre = True()
	}
	op := &Operator{
		name:    name,
		cost:    cost,
		pre:     pre,
		observe: state.NewVarSet(observe...),
	}
	var affected []int
	for _, outcome := range outcomes {
		effects := make([]Effect, len(outcome))
		copy(effects, outcome)
		for _, e := range effects {
			affected = append(affected, e.Var)
		}
		op.outcomes = append(op.outcomes, effects)
	}
	op.affected = state.NewVarSet(affected...)
	return op, nil
}

func (o *Operator) Name() string                         { return o.name }
func (o *Operator) Cost() float64                        { return o.cost }
func (o *Operator) Representation() state.Representation { return state.Explicit }
func (o *Operator) Precondition() state.Condition        { return o.pre }

// Pre returns the precondition with its concrete type.
func (o *Operator) Pre() *Condition { return o.pre }

// Outcomes returns the nondeterministic effect lists. The slices are shared
// and must not be modified.
func (o *Operator) Outcomes() [][]Effect { return o.outcomes }

// Observations returns the observed variables.
func (o *Operator) Observations() state.VarSet { return o.observe }

func (o *Operator) IsCausative() bool               { return len(o.outcomes) > 0 }
func (o *Operator) IsSensing() bool                 { return len(o.observe) > 0 }
func (o *Operator) IsAbstracted() bool              { return o.abstracted }
func (o *Operator) AffectedVariables() state.VarSet { return o.affected }
func (o *Operator) IsEnabledIn(s state.State) bool  { return o.pre.IsSatisfiedIn(s) }

// Abstract is Project returning the state.Operator interface, nil when the
// operator vanishes.
func (o *Operator) Abstract(p state.VarSet) state.Operator {
	projected := o.Project(p)
	if projected == nil {
		return nil
	}
	return projected
}

// Project keeps the effects and observations over pattern variables. It
// returns nil when nothing is left.
func (o *Operator) Project(pattern state.VarSet) *Operator {
	var outcomes [][]Effect
	nonEmpty := false
	for _, outcome := range o.outcomes {
		var kept []Effect
		for _, e := range outcome {
			if !pattern.Contains(e.Var) {
				continue
			}
			if e.When != nil {
				e.When = e.When.Project(pattern)
			}
			kept = append(kept, e)
		}
		if len(kept) > 0 {
			nonEmpty = true
		}
		outcomes = append(outcomes, kept)
	}
	if !nonEmpty {
		outcomes = nil
	}

	var observe []int
	for _, v := range o.observe {
		if pattern.Contains(v) {
			observe = append(observe, v)
		}
	}
	if outcomes == nil && len(observe) == 0 {
		return nil
	}

	projected, err := NewOperator(o.name+"_abs", o.cost, o.pre.Project(pattern), outcomes, observe...)
	if err != nil {
		// name and cost are copied from a valid operator
		panic(err)
	}
	projected.abstracted = true
	return projected
}

func (o *Operator) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (cost %g) pre[%s]", o.name, o.cost, o.pre)
	for i, outcome := range o.outcomes {
		fmt.Fprintf(&b, " o%d{", i)
		for j, e := range outcome {
			if j > 0 {
				b.WriteString(", ")
			}
			if e.When != nil && !e.When.IsTrue() {
				fmt.Fprintf(&b, "%s -> ", e.When)
			}
			fmt.Fprintf(&b, "v%d:=%d", e.Var, e.Value)
		}
		b.WriteString("}")
	}
	if o.IsSensing() {
		fmt.Fprintf(&b, " observe%s", o.observe)
	}
	return b.String()
}
