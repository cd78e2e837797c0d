package symbolic

import (
	"fmt"

	"github.com/dalzilio/rudd"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// Condition is a formula over current-state levels.
type Condition struct {
	m     *Manager
	node  rudd.Node
	freed bool
}

// NewCondition encodes the conjunction of facts.
func (m *Manager) NewCondition(facts map[int]int) (*Condition, error) {
	n, err := m.conjunction(facts)
	if err != nil {
		return nil, err
	}
	return &Condition{m: m, node: n}, nil
}

func (c *Condition) live(op string) {
	if c.freed {
		panic(&state.FreedError{What: "condition (" + op + ")"})
	}
}

func (c *Condition) Representation() state.Representation { return state.Symbolic }

// IsSatisfiedIn reports whether every world of the belief state satisfies
// the condition: belief & !c is empty.
func (c *Condition) IsSatisfiedIn(s state.State) bool {
	c.live("IsSatisfiedIn")
	b := asBelief("Condition.IsSatisfiedIn", s)
	b.live("Condition.IsSatisfiedIn")
	return c.m.isFalse(c.m.bdd.And(b.node, c.m.bdd.Not(c.node)))
}

func (c *Condition) IsTrue() bool {
	c.live("IsTrue")
	return c.m.bdd.Equal(c.node, c.m.bdd.True())
}

// Abstract existentially quantifies every variable outside pattern.
func (c *Condition) Abstract(pattern state.VarSet) state.Condition {
	c.live("Abstract")
	drop := c.m.varsExcept(pattern.Contains)
	return &Condition{m: c.m, node: c.m.bdd.Exist(c.node, drop)}
}

// Clone returns an independent owner of the same formula.
func (c *Condition) Clone() *Condition {
	c.live("Clone")
	return &Condition{m: c.m, node: c.node}
}

// Free releases the formula. The condition must not be used afterwards.
func (c *Condition) Free() {
	c.freed = true
	c.node = nil
}

func (c *Condition) String() string {
	if c.freed {
		return "<freed>"
	}
	return fmt.Sprintf("bdd#%d", *c.node)
}

func asBelief(op string, s state.State) *BeliefState {
	state.MustMatch(op, state.Symbolic, s.Representation())
	return s.(*BeliefState)
}

func asOperator(op string, o state.Operator) *Operator {
	state.MustMatch(op, state.Symbolic, o.Representation())
	return o.(*Operator)
}
