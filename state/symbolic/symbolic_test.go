package symbolic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

// newRoomProblem: pos ∈ {r0, r1, r2}, lamp ∈ {off, on}. "walk" moves r0 to
// r1 or r2; "look" observes the position; "switch" turns the lamp on.
func newRoomProblem(t *testing.T) *explicit.Problem {
	t.Helper()
	walk, err := explicit.NewOperator("walk", 1, explicit.NewCondition(map[int]int{0: 0}), [][]explicit.Effect{
		{{Var: 0, Value: 1}},
		{{Var: 0, Value: 2}},
	})
	require.NoError(t, err)
	look, err := explicit.NewOperator("look", 1, nil, nil, 0)
	require.NoError(t, err)
	toggle, err := explicit.NewOperator("switch", 1, nil, [][]explicit.Effect{{{Var: 1, Value: 1}}})
	require.NoError(t, err)

	p, err := explicit.NewProblem("rooms",
		[]explicit.Variable{
			{Name: "pos", Values: []string{"r0", "r1", "r2"}},
			{Name: "lamp", Values: []string{"off", "on"}},
		},
		map[int]int{0: 0, 1: 0},
		explicit.NewCondition(map[int]int{1: 1}),
		[]*explicit.Operator{walk, look, toggle},
	)
	require.NoError(t, err)
	return p
}

func lookup(t *testing.T, p *Problem, name string) state.Operator {
	t.Helper()
	op, ok := p.Operators().Lookup(name)
	require.True(t, ok, name)
	return op
}

func TestManager_Width(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4}
	for d, want := range cases {
		assert.Equal(t, want, width(d), "domain %d", d)
	}
}

func TestBelief_InitialState(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	init := p.InitialState()
	assert.Equal(t, state.Symbolic, init.Representation())
	assert.False(t, init.IsGoal())

	worlds := init.(*BeliefState).Worlds(0)
	assert.Equal(t, [][]int{{0, 0}}, worlds)
	assert.True(t, init.Equal(p.InitialState()), "same formula, same id")
}

func TestBelief_ApplyMergesOutcomes(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	succ, err := p.InitialState().Apply(lookup(t, p, "walk"))
	require.NoError(t, err)
	require.Len(t, succ, 1, "a causative non-sensing operator yields one belief")

	worlds := succ[0].(*BeliefState).Worlds(0)
	assert.ElementsMatch(t, [][]int{{1, 0}, {2, 0}}, worlds)
}

func TestBelief_ApplySensingSplits(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	after, err := p.InitialState().Apply(lookup(t, p, "walk"))
	require.NoError(t, err)

	branches, err := after[0].Apply(lookup(t, p, "look"))
	require.NoError(t, err)
	require.Len(t, branches, 2)

	var got [][]int
	for _, b := range branches {
		w := b.(*BeliefState).Worlds(0)
		require.Len(t, w, 1)
		got = append(got, w[0])
	}
	assert.ElementsMatch(t, [][]int{{1, 0}, {2, 0}}, got)
}

func TestBelief_SensingOnKnownWorld(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	init := p.InitialState()
	branches, err := init.Apply(lookup(t, p, "look"))
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.True(t, branches[0].Equal(init))
}

func TestBelief_PreconditionViolation(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	after, err := p.InitialState().Apply(lookup(t, p, "walk"))
	require.NoError(t, err)

	walk := lookup(t, p, "walk")
	assert.False(t, after[0].IsApplicable(walk))
	_, err = after[0].Apply(walk)
	assert.ErrorIs(t, err, state.ErrPreconditionViolation)
}

func TestBelief_GoalRequiresEveryWorld(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	mixed, err := p.Belief([]int{0, 1}, []int{1, 0})
	require.NoError(t, err)
	assert.False(t, mixed.IsGoal())

	lit, err := p.Belief([]int{0, 1}, []int{2, 1})
	require.NoError(t, err)
	assert.True(t, lit.IsGoal())

	succ, err := mixed.Apply(lookup(t, p, "switch"))
	require.NoError(t, err)
	require.Len(t, succ, 1)
	assert.True(t, succ[0].IsGoal())
}

func TestCondition_Abstract(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)
	m := p.Manager()

	c, err := m.NewCondition(map[int]int{0: 2, 1: 1})
	require.NoError(t, err)
	projected := c.Abstract(state.NewVarSet(1))

	b, err := p.Belief([]int{0, 1})
	require.NoError(t, err)
	assert.False(t, c.IsSatisfiedIn(b))
	assert.True(t, projected.IsSatisfiedIn(b))

	assert.True(t, c.Abstract(state.NewVarSet()).IsTrue())
}

func TestOperator_Abstract(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)
	walk := lookup(t, p, "walk")

	assert.Nil(t, walk.Abstract(state.NewVarSet(1)), "walk writes only pos")

	projected := walk.Abstract(state.NewVarSet(0))
	require.NotNil(t, projected)
	assert.Equal(t, "walk_abs", projected.Name())
	assert.Equal(t, state.Symbolic, projected.Representation())
}

func TestBelief_AbstractUsesProjectedGoal(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	b, err := p.Belief([]int{2, 1})
	require.NoError(t, err)
	abs := b.Abstract(state.NewVarSet(0))
	require.NotNil(t, abs.Abstraction())
	assert.True(t, abs.IsGoal(), "goal over lamp is projected away")
	assert.Len(t, abs.Worlds(0), 2)
}

func TestBelief_FreeAndClone(t *testing.T) {
	p, err := NewProblem(newRoomProblem(t))
	require.NoError(t, err)

	b := p.InitialState().(*BeliefState)
	keep := b.Clone()
	b.Free()
	b.Free()

	assert.Equal(t, "<freed belief>", b.String())
	assert.False(t, keep.IsGoal(), "clone outlives the original owner")

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, state.ErrFreed))
	}()
	b.Worlds(0)
}

func TestRepresentationMismatchPanics(t *testing.T) {
	ep := newRoomProblem(t)
	p, err := NewProblem(ep)
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		var mismatch *state.MismatchError
		require.True(t, errors.As(r.(error), &mismatch))
		assert.Equal(t, state.Symbolic, mismatch.Want)
		assert.Equal(t, state.Explicit, mismatch.Got)
	}()
	p.Goal().IsSatisfiedIn(ep.Initial())
}

func TestNewProblem_RejectsConditionalEffects(t *testing.T) {
	op, err := explicit.NewOperator("cond", 1, nil, [][]explicit.Effect{
		{{Var: 0, Value: 1, When: explicit.NewCondition(map[int]int{0: 0})}},
	})
	require.NoError(t, err)
	ep, err := explicit.NewProblem("cond", []explicit.Variable{{Name: "x", Values: []string{"0", "1"}}}, map[int]int{0: 0}, nil, []*explicit.Operator{op})
	require.NoError(t, err)

	_, err = NewProblem(ep)
	assert.ErrorIs(t, err, ErrConditionalEffect)
}
