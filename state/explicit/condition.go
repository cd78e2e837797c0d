// Package explicit implements states, conditions and operators over full
// assignments of finite-domain variables.
package explicit

import (
	"fmt"
	"strings"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// Condition is a conjunction of variable = value facts.
type Condition struct {
	facts map[int]int
	vars  state.VarSet
}

// NewCondition copies facts into a new condition. A nil or empty map yields
// the always-true condition.
func NewCondition(facts map[int]int) *Condition {
	c := &Condition{facts: make(map[int]int, len(facts))}
	ids := make([]int, 0, len(facts))
	for v, val := range facts {
		c.facts[v] = val
		ids = append(ids, v)
	}
	c.vars = state.NewVarSet(ids...)
	return c
}

// True returns the empty condition.
func True() *Condition {
	return NewCondition(nil)
}

func (c *Condition) Representation() state.Representation { return state.Explicit }

// Facts returns a copy of the variable = value pairs.
func (c *Condition) Facts() map[int]int {
	out := make(map[int]int, len(c.facts))
	for v, val := range c.facts {
		out[v] = val
	}
	return out
}

// Vars returns the variables the condition tests.
func (c *Condition) Vars() state.VarSet { return c.vars }

// Value returns the value required for v.
func (c *Condition) Value(v int) (int, bool) {
	val, ok := c.facts[v]
	return val, ok
}

func (c *Condition) IsTrue() bool { return len(c.facts) == 0 }

// IsSatisfiedIn reports whether every fact holds in s. A fact over a
// variable the state does not assign is not satisfied.
func (c *Condition) IsSatisfiedIn(s state.State) bool {
	return c.holdsIn(asState("Condition.IsSatisfiedIn", s).values)
}

func (c *Condition) holdsIn(values []int) bool {
	for v, val := range c.facts {
		if v < 0 || v >= len(values) || values[v] != val {
			return false
		}
	}
	return true
}

// Abstract keeps only the facts over pattern variables.
func (c *Condition) Abstract(pattern state.VarSet) state.Condition {
	return c.Project(pattern)
}

// Project is Abstract with a concrete result type.
func (c *Condition) Project(pattern state.VarSet) *Condition {
	kept := make(map[int]int, len(c.facts))
	for v, val := range c.facts {
		if pattern.Contains(v) {
			kept[v] = val
		}
	}
	return NewCondition(kept)
}

func (c *Condition) String() string {
	if c.IsTrue() {
		return "true"
	}
	parts := make([]string, 0, len(c.vars))
	for _, v := range c.vars {
		parts = append(parts, fmt.Sprintf("v%d=%d", v, c.facts[v]))
	}
	return strings.Join(parts, " & ")
}

func asState(op string, s state.State) *State {
	state.MustMatch(op, state.Explicit, s.Representation())
	return s.(*State)
}

func asOperator(op string, o state.Operator) *Operator {
	state.MustMatch(op, state.Explicit, o.Representation())
	return o.(*Operator)
}
