package heuristic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
	"github.com/ramonpereira/paladinus-sub001/state/symbolic"
)

// newChain builds x ∈ {0,1,2} with step operators 0→1 and 1→2 (cost 1) and a
// switch y ∈ {off,on} that nothing can turn on. The goal is x=2, plus y=on
// when lockedGoal is set.
func newChain(t *testing.T, lockedGoal bool, opts ...explicit.ProblemOption) *explicit.Problem {
	t.Helper()
	step0, err := explicit.NewOperator("step0", 1, explicit.NewCondition(map[int]int{0: 0}), [][]explicit.Effect{{{Var: 0, Value: 1}}})
	require.NoError(t, err)
	step1, err := explicit.NewOperator("step1", 1, explicit.NewCondition(map[int]int{0: 1}), [][]explicit.Effect{{{Var: 0, Value: 2}}})
	require.NoError(t, err)

	goal := map[int]int{0: 2}
	if lockedGoal {
		goal[1] = 1
	}
	p, err := explicit.NewProblem("chain",
		[]explicit.Variable{
			{Name: "x", Values: []string{"0", "1", "2"}},
			{Name: "y", Values: []string{"off", "on"}},
		},
		map[int]int{0: 0, 1: 0},
		explicit.NewCondition(goal),
		[]*explicit.Operator{step0, step1},
		opts...,
	)
	require.NoError(t, err)
	return p
}

func at(t *testing.T, p *explicit.Problem, x int) state.State {
	t.Helper()
	s, err := p.NewState([]int{x, 0})
	require.NoError(t, err)
	return s
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" hmax ")
	require.NoError(t, err)
	assert.Equal(t, KindHMax, k)

	_, err = ParseKind("lmcut")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBlind(t *testing.T) {
	p := newChain(t, false)
	h := Blind()
	assert.Equal(t, 1.0, h.Estimate(at(t, p, 0)))
	assert.Equal(t, 0.0, h.Estimate(at(t, p, 2)))
}

func TestGoalCount(t *testing.T) {
	p := newChain(t, true)
	h, err := New(KindGoalCount, p)
	require.NoError(t, err)

	assert.Equal(t, 2.0, h.Estimate(at(t, p, 0)))
	assert.Equal(t, 1.0, h.Estimate(at(t, p, 2)))

	abs := p.Initial().Abstract(state.NewVarSet(1))
	assert.Equal(t, 1.0, h.Estimate(abs), "x is projected away")
}

func TestHMax(t *testing.T) {
	p := newChain(t, false)
	h, err := New(KindHMax, p)
	require.NoError(t, err)

	assert.Equal(t, 2.0, h.Estimate(at(t, p, 0)))
	assert.Equal(t, 1.0, h.Estimate(at(t, p, 1)))
	assert.Equal(t, 0.0, h.Estimate(at(t, p, 2)))

	locked := newChain(t, true)
	h, err = New(KindHMax, locked)
	require.NoError(t, err)
	assert.True(t, math.IsInf(h.Estimate(at(t, locked, 0)), 1))
}

func TestBlindDeadEnd(t *testing.T) {
	open := newChain(t, false)
	h, err := New(KindBlindDeadEnd, open)
	require.NoError(t, err)
	assert.Equal(t, 1.0, h.Estimate(at(t, open, 0)), "numeric guidance is dropped")
	assert.Equal(t, 0.0, h.Estimate(at(t, open, 2)))

	locked := newChain(t, true)
	h, err = New(KindBlindDeadEnd, locked)
	require.NoError(t, err)
	assert.True(t, math.IsInf(h.Estimate(at(t, locked, 0)), 1))

	wrapped := BlindDeadEnd(Func(func(state.State) float64 { return 42 }))
	assert.Equal(t, 1.0, wrapped.Estimate(at(t, open, 1)))
}

func TestNew_RejectsAxioms(t *testing.T) {
	p := newChain(t, false, explicit.WithAxioms(2))

	for _, k := range []Kind{KindHMax, KindBlindDeadEnd} {
		_, err := New(k, p)
		assert.ErrorIs(t, err, ErrUnsupportedAxioms, string(k))
	}
	for _, k := range []Kind{KindBlind, KindGoalCount} {
		_, err := New(k, p)
		assert.NoError(t, err, string(k))
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(Kind("FF"), newChain(t, false))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBeliefStrategies(t *testing.T) {
	ep := newChain(t, false)
	sp, err := symbolic.NewProblem(ep)
	require.NoError(t, err)

	b, err := sp.Belief([]int{0, 0}, []int{1, 0})
	require.NoError(t, err)

	cases := []struct {
		strategy Strategy
		want     float64
	}{
		{StrategyMax, 2},
		{StrategyAdd, 3},
		{StrategyAverage, 1.5},
	}
	for _, tc := range cases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			h, err := New(KindHMax, sp, WithStrategy(tc.strategy))
			require.NoError(t, err)
			assert.Equal(t, tc.want, h.Estimate(b))
		})
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("average")
	require.NoError(t, err)
	assert.Equal(t, StrategyAverage, s)

	_, err = ParseStrategy("median")
	assert.Error(t, err)
}
