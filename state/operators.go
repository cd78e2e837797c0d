package state

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

var operatorSetTokens atomic.Uint64

// OperatorSet is the canonical, immutable handle of a problem's operators.
//
// Every set gets a process-unique token at construction. States cache their
// applicable operators against that token, so passing a different set can
// never return a stale result.
type OperatorSet struct {
	token  uint64
	ops    []Operator
	byName map[string]Operator
}

// NewOperatorSet builds a set from ops, keeping their order. It returns an
// error wrapping ErrDuplicateOperator when two operators share a name.
func NewOperatorSet(ops []Operator) (*OperatorSet, error) {
	set := &OperatorSet{
		token:  operatorSetTokens.Add(1),
		ops:    make([]Operator, 0, len(ops)),
		byName: make(map[string]Operator, len(ops)),
	}
	for _, op := range ops {
		if _, exists := set.byName[op.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOperator, op.Name())
		}
		set.byName[op.Name()] = op
		set.ops = append(set.ops, op)
	}
	return set, nil
}

// Token identifies this set for cache validation.
func (s *OperatorSet) Token() uint64 { return s.token }

// Len returns the number of operators.
func (s *OperatorSet) Len() int { return len(s.ops) }

// Ops returns the operators in construction order. The slice is shared and
// must not be modified.
func (s *OperatorSet) Ops() []Operator { return s.ops }

// Lookup returns the operator with the given name.
func (s *OperatorSet) Lookup(name string) (Operator, bool) {
	op, ok := s.byName[name]
	return op, ok
}

// ApplicableCache memoizes the applicable operators of one state.
//
// The zero value is ready to use. It is not safe for concurrent use; a state
// belongs to a single search engine.
type ApplicableCache struct {
	token uint64
	valid bool
	ops   []Operator
}

// Get returns the operators of set applicable in s, recomputing when set is
// not the one the cache was filled from.
func (c *ApplicableCache) Get(s State, set *OperatorSet) []Operator {
	if c.valid && c.token == set.Token() {
		return c.ops
	}
	ops := make([]Operator, 0, set.Len())
	for _, op := range set.Ops() {
		if s.IsApplicable(op) {
			ops = append(ops, op)
		}
	}
	c.token = set.Token()
	c.ops = ops
	c.valid = true
	return ops
}

// Invalidate drops the cached result.
func (c *ApplicableCache) Invalidate() {
	c.valid = false
	c.ops = nil
}

// VarSet is a sorted set of variable ids.
type VarSet []int

// NewVarSet returns the sorted, de-duplicated set of ids.
func NewVarSet(ids ...int) VarSet {
	out := make(VarSet, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Contains reports whether v is in the set.
func (vs VarSet) Contains(v int) bool {
	i := sort.SearchInts(vs, v)
	return i < len(vs) && vs[i] == v
}

// Union returns the set of ids in vs or other.
func (vs VarSet) Union(other VarSet) VarSet {
	all := make([]int, 0, len(vs)+len(other))
	all = append(all, vs...)
	all = append(all, other...)
	return NewVarSet(all...)
}

func (vs VarSet) String() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
