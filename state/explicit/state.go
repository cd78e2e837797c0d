package explicit

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// absent marks a variable outside an abstraction pattern.
const absent = -1

// State is a full assignment of the problem variables, or a partial one
// when the state lives in an abstraction.
type State struct {
	problem     *Problem
	values      []int
	id          *big.Int
	abstraction *state.Abstraction
	cache       state.ApplicableCache
}

func (p *Problem) newState(values []int, abs *state.Abstraction) *State {
	s := &State{problem: p, values: values, abstraction: abs}
	s.id = p.encode(values)
	return s
}

func (s *State) Representation() state.Representation { return state.Explicit }
func (s *State) ID() *big.Int                          { return s.id }
func (s *State) Hash() uint64                          { return state.HashOf(s.id) }
func (s *State) Abstraction() *state.Abstraction       { return s.abstraction }

// Problem returns the owning problem.
func (s *State) Problem() *Problem { return s.problem }

func (s *State) Equal(other state.State) bool {
	if other == nil || other.Representation() != state.Explicit {
		return false
	}
	return s.id.Cmp(other.ID()) == 0
}

// Value returns the value of v, false when v is outside the abstraction.
func (s *State) Value(v int) (int, bool) {
	if v < 0 || v >= len(s.values) || s.values[v] == absent {
		return 0, false
	}
	return s.values[v], true
}

// Values returns a copy of the assignment; absent variables hold -1.
func (s *State) Values() []int {
	out := make([]int, len(s.values))
	copy(out, s.values)
	return out
}

// Worlds returns the single assignment of the state.
func (s *State) Worlds(int) [][]int {
	return [][]int{s.Values()}
}

func (s *State) IsGoal() bool {
	if s.abstraction != nil {
		return s.abstraction.Goal.IsSatisfiedIn(s)
	}
	return s.problem.goal.holdsIn(s.values)
}

// IsApplicable reports whether op is causative and enabled. Pure sensing
// operators are never applicable to an explicit state: observing a fully
// known world yields nothing new.
func (s *State) IsApplicable(op state.Operator) bool {
	eop := asOperator("State.IsApplicable", op)
	return eop.IsCausative() && eop.pre.holdsIn(s.values)
}

// Apply returns one successor per distinct nondeterministic outcome. A non
// causative operator returns the state itself.
func (s *State) Apply(op state.Operator) ([]state.State, error) {
	eop := asOperator("State.Apply", op)
	if !eop.pre.holdsIn(s.values) {
		return nil, &state.PreconditionError{Operator: eop.name, State: s.String()}
	}
	if !eop.IsCausative() {
		return []state.State{s}, nil
	}

	seen := make(map[string]bool, len(eop.outcomes))
	succ := make([]state.State, 0, len(eop.outcomes))
	for _, outcome := range eop.outcomes {
		next := s.Values()
		for _, e := range outcome {
			if next[e.Var] == absent {
				continue
			}
			if e.When != nil && !e.When.holdsIn(s.values) {
				continue
			}
			next[e.Var] = e.Value
		}
		child := s.problem.newState(next, s.abstraction)
		key := child.id.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		succ = append(succ, child)
	}
	return succ, nil
}

func (s *State) ApplicableOps(ops *state.OperatorSet) []state.Operator {
	return s.cache.Get(s, ops)
}

// Abstract projects the state onto pattern. The projected goal becomes the
// goal of the abstracted state.
func (s *State) Abstract(pattern state.VarSet) *State {
	values := make([]int, len(s.values))
	for v := range values {
		values[v] = absent
		if pattern.Contains(v) {
			values[v] = s.values[v]
		}
	}
	abs := &state.Abstraction{
		Pattern: pattern,
		Goal:    s.problem.goal.Project(pattern),
	}
	return s.problem.newState(values, abs)
}

// Free drops the applicable-operator cache. Explicit states own no other
// resource.
func (s *State) Free() {
	s.cache.Invalidate()
}

func (s *State) String() string {
	parts := make([]string, 0, len(s.values))
	for v, val := range s.values {
		if val == absent {
			continue
		}
		parts = append(parts, s.problem.factName(v, val))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// GoString includes the id, useful when two states print alike.
func (s *State) GoString() string {
	return fmt.Sprintf("explicit.State{id: %s, %s}", s.id, s.String())
}
