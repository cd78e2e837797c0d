package problem

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonpereira/paladinus-sub001/graph"
	"github.com/ramonpereira/paladinus-sub001/heuristic"
	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

func TestLoadFile(t *testing.T) {
	p, err := LoadFile("testdata/retry.yaml")
	require.NoError(t, err)

	assert.Equal(t, "retry", p.Name())
	assert.Equal(t, []int{2}, p.DomainSizes())
	require.Len(t, p.ExplicitOperators(), 1)

	move := p.ExplicitOperators()[0]
	assert.Equal(t, "move", move.Name())
	assert.Equal(t, 2.0, move.Cost())
	assert.Len(t, move.Outcomes(), 2)

	succ, err := p.Initial().Apply(move)
	require.NoError(t, err)
	assert.Len(t, succ, 2, "one successor per distinct outcome")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := LoadFile("testdata/unknown_field.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDescription)
	assert.Contains(t, err.Error(), "unknown_field.yaml")
}

func TestBuild_Invalid(t *testing.T) {
	base := `
name: t
variables:
  - name: at
    values: [a, b]
`
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty document", "", "empty document"},
		{"missing name", "variables: [{name: at, values: [a]}]\ninit: {at: a}", "missing name"},
		{"no variables", "name: t", "no variables"},
		{"duplicate variable", "name: t\nvariables: [{name: x, values: [a]}, {name: x, values: [b]}]", "duplicate variable"},
		{"empty domain", "name: t\nvariables: [{name: x}]", "has no values"},
		{"repeated value", "name: t\nvariables: [{name: x, values: [a, a]}]", "repeats value"},
		{"partial init", base + "init: {}\n", "does not assign"},
		{"unknown init value", base + "init: {at: c}\n", "is not a value"},
		{"unknown goal variable", base + "init: {at: a}\ngoal: {pos: a}\n", "unknown variable"},
		{"operator without effects", base + "init: {at: a}\noperators: [{name: noop}]\n", "neither outcomes nor observations"},
		{"unknown observed variable", base + "init: {at: a}\noperators: [{name: look, observe: [pos]}]\n", "unknown variable"},
		{"negative cost", base + "init: {at: a}\noperators: [{name: m, cost: -1, outcomes: [{at: b}]}]\n", "negative cost"},
		{"duplicate operator", base + "init: {at: a}\noperators: [{name: m, outcomes: [{at: b}]}, {name: m, outcomes: [{at: a}]}]\n", "m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDescription)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDescription_RoundTrip(t *testing.T) {
	d, err := BuiltinDescription("tireworld")
	require.NoError(t, err)

	data, err := d.Marshal()
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"chain", "rooms", "tireworld"}, Builtins())

	for _, name := range Builtins() {
		p, err := Builtin(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}

	_, err := Builtin("blocksworld")
	assert.ErrorIs(t, err, ErrUnknownBuiltin)
}

func TestResolve(t *testing.T) {
	p, err := Resolve("builtin:chain")
	require.NoError(t, err)
	assert.Equal(t, "chain", p.Name())

	p, err = Resolve("testdata/retry.yaml")
	require.NoError(t, err)
	assert.Equal(t, "retry", p.Name())
}

func TestParseRepresentation(t *testing.T) {
	r, err := ParseRepresentation("")
	require.NoError(t, err)
	assert.Equal(t, Explicit, r)

	r, err = ParseRepresentation(" Symbolic ")
	require.NoError(t, err)
	assert.Equal(t, Symbolic, r)

	_, err = ParseRepresentation("bdd")
	assert.ErrorIs(t, err, ErrInvalidDescription)
}

func TestLift(t *testing.T) {
	p, err := Builtin("rooms")
	require.NoError(t, err)

	same, err := Lift(p, Explicit)
	require.NoError(t, err)
	assert.Same(t, p, same)

	lifted, err := Lift(p, Symbolic)
	require.NoError(t, err)
	assert.Equal(t, state.Symbolic, lifted.InitialState().Representation())
	assert.Equal(t, "rooms", lifted.Name())

	_, err = Lift(p, Representation("sat"))
	assert.ErrorIs(t, err, ErrInvalidDescription)
}

func solve(t *testing.T, p state.Problem, kind heuristic.Kind) *graph.SearchResult {
	t.Helper()
	e, err := graph.NewWithKind(p, kind)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	res, err := e.Run(context.Background(), "")
	require.NoError(t, err)
	return res
}

func TestBuiltins_Solve(t *testing.T) {
	tests := []struct {
		name    string
		repr    Representation
		kind    heuristic.Kind
		entries int
	}{
		{"tireworld", Explicit, heuristic.KindHMax, 4},
		{"tireworld", Explicit, heuristic.KindBlind, 4},
		{"chain", Explicit, heuristic.KindGoalCount, 4},
		{"rooms", Explicit, heuristic.KindBlind, 3},
		{"rooms", Symbolic, heuristic.KindBlind, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+string(tt.repr)+"/"+string(tt.kind), func(t *testing.T) {
			ep, err := Builtin(tt.name)
			require.NoError(t, err)
			p, err := Lift(ep, tt.repr)
			require.NoError(t, err)

			res := solve(t, p, tt.kind)
			require.Equal(t, graph.ResultProven, res.Result)
			assert.Equal(t, tt.entries, res.Policy.Len())
			assert.True(t, res.Policy.Valid())
		})
	}
}

func TestTireworld_NoSpareIsDisproven(t *testing.T) {
	d, err := BuiltinDescription("tireworld")
	require.NoError(t, err)
	d.Init["spare-l2"] = "no"

	p, err := d.Build()
	require.NoError(t, err)
	res := solve(t, p, heuristic.KindHMax)
	assert.Equal(t, graph.ResultDisproven, res.Result)
	assert.Positive(t, res.Stats.DeadEnds)
}

func TestBuild_SensingOperator(t *testing.T) {
	p, err := Builtin("rooms")
	require.NoError(t, err)

	var look *explicit.Operator
	for _, op := range p.ExplicitOperators() {
		if op.Name() == "look" {
			look = op
		}
	}
	require.NotNil(t, look)
	assert.True(t, look.IsSensing())
	assert.False(t, look.IsCausative())
}
