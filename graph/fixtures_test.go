package graph

import (
	"fmt"
	"math"
	"testing"

	"github.com/ramonpereira/paladinus-sub001/heuristic"
	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

func mustOperator(t *testing.T, name string, pre map[int]int, outcomes ...[]explicit.Effect) *explicit.Operator {
	t.Helper()
	op, err := explicit.NewOperator(name, 1, explicit.NewCondition(pre), outcomes)
	if err != nil {
		t.Fatalf("NewOperator(%s): %v", name, err)
	}
	return op
}

func assign(v, val int) []explicit.Effect {
	return []explicit.Effect{{Var: v, Value: val}}
}

func mustProblem(t *testing.T, name string, values []string, init, goal int, ops ...*explicit.Operator) *explicit.Problem {
	t.Helper()
	p, err := explicit.NewProblem(name,
		[]explicit.Variable{{Name: "at", Values: values}},
		map[int]int{0: init},
		explicit.NewCondition(map[int]int{0: goal}),
		ops,
	)
	if err != nil {
		t.Fatalf("NewProblem(%s): %v", name, err)
	}
	return p
}

// retryProblem: at ∈ {a, b}, goal b. "move" either reaches b or stays in a.
func retryProblem(t *testing.T) *explicit.Problem {
	t.Helper()
	move := mustOperator(t, "move", map[int]int{0: 0}, assign(0, 1), assign(0, 0))
	return mustProblem(t, "retry", []string{"a", "b"}, 0, 1, move)
}

// loopProblem: at ∈ {a, b}, goal b, and the only operator keeps a.
func loopProblem(t *testing.T) *explicit.Problem {
	t.Helper()
	spin := mustOperator(t, "spin", map[int]int{0: 0}, assign(0, 0))
	return mustProblem(t, "loop", []string{"a", "b"}, 0, 1, spin)
}

// detourProblem: at ∈ {a, b, trap, goal}. From a, "fall" leads to trap
// which has no operator; "walk" leads to b and "finish" from b to goal.
func detourProblem(t *testing.T) *explicit.Problem {
	t.Helper()
	fall := mustOperator(t, "fall", map[int]int{0: 0}, assign(0, 2))
	walk := mustOperator(t, "walk", map[int]int{0: 0}, assign(0, 1))
	finish := mustOperator(t, "finish", map[int]int{0: 1}, assign(0, 3))
	return mustProblem(t, "detour", []string{"a", "b", "trap", "goal"}, 0, 3, fall, walk, finish)
}

// trapProblem: the only way out of a leads to a state without operators.
func trapProblem(t *testing.T) *explicit.Problem {
	t.Helper()
	fall := mustOperator(t, "fall", map[int]int{0: 0}, assign(0, 1))
	return mustProblem(t, "trap", []string{"a", "trap", "goal"}, 0, 2, fall)
}

// relayProblem: at ∈ {s0..s3}, goal s3. From s0, "a" reaches s2 or stays;
// s1 and s2 relay to each other through "b" and "c", and "d" moves s2 to
// the goal or back to s1. s1 is only solvable once s2 is in the solved set.
func relayProblem(t *testing.T) *explicit.Problem {
	t.Helper()
	a := mustOperator(t, "a", map[int]int{0: 0}, assign(0, 2), assign(0, 0))
	b := mustOperator(t, "b", map[int]int{0: 1}, assign(0, 2))
	c := mustOperator(t, "c", map[int]int{0: 2}, assign(0, 1))
	d := mustOperator(t, "d", map[int]int{0: 2}, assign(0, 3), assign(0, 1))
	return mustProblem(t, "relay", []string{"s0", "s1", "s2", "s3"}, 0, 3, a, b, c, d)
}

// orbitProblem: at ∈ {0..3}, goal 3, but no operator ever reaches 3. The
// states 0, 1 and 2 keep each other busy through several cycles.
func orbitProblem(t *testing.T) *explicit.Problem {
	t.Helper()
	x := mustOperator(t, "x", map[int]int{0: 0}, assign(0, 1))
	y := mustOperator(t, "y", map[int]int{0: 0}, assign(0, 1), assign(0, 2))
	p := mustOperator(t, "p", map[int]int{0: 1}, assign(0, 2))
	q := mustOperator(t, "q", map[int]int{0: 1}, assign(0, 1))
	r := mustOperator(t, "r", map[int]int{0: 2}, assign(0, 1))
	return mustProblem(t, "orbit", []string{"0", "1", "2", "3"}, 0, 3, x, y, p, q, r)
}

// chainProblem: at ∈ {0..n}, goal n. "step-i" advances from i to i+1 or
// stays in i. With deterministic set, the steps always advance.
func chainProblem(t *testing.T, n int, deterministic bool) *explicit.Problem {
	t.Helper()
	values := make([]string, n+1)
	for i := range values {
		values[i] = fmt.Sprint(i)
	}
	ops := make([]*explicit.Operator, n)
	for i := 0; i < n; i++ {
		outcomes := [][]explicit.Effect{assign(0, i+1)}
		if !deterministic {
			outcomes = append(outcomes, assign(0, i))
		}
		ops[i] = mustOperator(t, fmt.Sprintf("step-%d", i), map[int]int{0: i}, outcomes...)
	}
	return mustProblem(t, fmt.Sprintf("chain-%d", n), values, 0, n, ops...)
}

func infinite() heuristic.Heuristic {
	return heuristic.Func(func(state.State) float64 { return math.Inf(1) })
}

func newEngine(t *testing.T, p state.Problem, options ...Option) *Engine {
	t.Helper()
	e, err := New(p, heuristic.Blind(), options...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func stateOf(t *testing.T, p *explicit.Problem, value int) *explicit.State {
	t.Helper()
	s, err := p.NewState([]int{value})
	if err != nil {
		t.Fatalf("NewState(%d): %v", value, err)
	}
	return s
}

func blind(s state.State) float64 { return heuristic.Blind().Estimate(s) }

// mustInsert adds the state at=value and fails when it already exists.
func mustInsert(t *testing.T, g *Graph, p *explicit.Problem, value int) *Node {
	t.Helper()
	n, created := g.Insert(stateOf(t, p, value), blind)
	if !created {
		t.Fatalf("state %d already in graph", value)
	}
	return n
}

func opNamed(t *testing.T, p state.Problem, name string) state.Operator {
	t.Helper()
	op, ok := p.Operators().Lookup(name)
	if !ok {
		t.Fatalf("operator %q not found", name)
	}
	return op
}
