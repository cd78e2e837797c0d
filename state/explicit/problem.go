package explicit

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// ErrInvalidProblem is returned by NewProblem for malformed input.
var ErrInvalidProblem = errors.New("explicit: invalid problem")

// Variable is a finite-domain state variable.
type Variable struct {
	Name   string
	Values []string
}

// Problem is a fully observable nondeterministic planning task over
// explicit states.
type Problem struct {
	name      string
	vars      []Variable
	domain    []int
	init      []int
	goal      *Condition
	ops       *state.OperatorSet
	operators []*Operator
	numAxioms int
}

// ProblemOption configures optional parts of a Problem.
type ProblemOption func(*Problem)

// WithAxioms records the number of derived-variable rules of the task.
// Axioms are not evaluated; the count lets heuristics without axiom support
// reject the problem.
func WithAxioms(n int) ProblemOption {
	return func(p *Problem) {
		p.numAxioms = n
	}
}

// NewProblem validates and builds a problem. init must assign every
// variable; goal may be nil for the always-true goal.
func NewProblem(name string, vars []Variable, init map[int]int, goal *Condition, ops []*Operator, opts ...ProblemOption) (*Problem, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: no variables", ErrInvalidProblem)
	}
	if goal == nil {
		goal = True()
	}
	p := &Problem{
		name:      name,
		vars:      append([]Variable(nil), vars...),
		domain:    make([]int, len(vars)),
		init:      make([]int, len(vars)),
		goal:      goal,
		operators: append([]*Operator(nil), ops...),
	}
	for i, v := range vars {
		if len(v.Values) == 0 {
			return nil, fmt.Errorf("%w: variable %q has an empty domain", ErrInvalidProblem, v.Name)
		}
		p.domain[i] = len(v.Values)
	}
	for i := range p.init {
		val, ok := init[i]
		if !ok {
			return nil, fmt.Errorf("%w: initial state does not assign %q", ErrInvalidProblem, vars[i].Name)
		}
		if err := p.checkFact(i, val); err != nil {
			return nil, err
		}
		p.init[i] = val
	}
	if err := p.checkCondition(goal, "goal"); err != nil {
		return nil, err
	}

	generic := make([]state.Operator, len(ops))
	for i, op := range ops {
		if err := p.checkOperator(op); err != nil {
			return nil, err
		}
		generic[i] = op
	}
	set, err := state.NewOperatorSet(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	p.ops = set

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Problem) checkFact(v, val int) error {
	if v < 0 || v >= len(p.domain) {
		return fmt.Errorf("%w: unknown variable v%d", ErrInvalidProblem, v)
	}
	if val < 0 || val >= p.domain[v] {
		return fmt.Errorf("%w: value %d out of range for %q", ErrInvalidProblem, val, p.vars[v].Name)
	}
	return nil
}

func (p *Problem) checkCondition(c *Condition, where string) error {
	for _, v := range c.Vars() {
		val, _ := c.Value(v)
		if err := p.checkFact(v, val); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	return nil
}

func (p *Problem) checkOperator(op *Operator) error {
	if err := p.checkCondition(op.pre, op.name); err != nil {
		return err
	}
	for _, outcome := range op.outcomes {
		for _, e := range outcome {
			if err := p.checkFact(e.Var, e.Value); err != nil {
				return fmt.Errorf("%s: %w", op.name, err)
			}
			if e.When != nil {
				if err := p.checkCondition(e.When, op.name); err != nil {
					return err
				}
			}
		}
	}
	for _, v := range op.observe {
		if v < 0 || v >= len(p.domain) {
			return fmt.Errorf("%w: %s observes unknown variable v%d", ErrInvalidProblem, op.name, v)
		}
	}
	return nil
}

// encode computes the mixed-radix id of an assignment over the variables
// it assigns.
func (p *Problem) encode(values []int) *big.Int {
	id := new(big.Int)
	mult := big.NewInt(1)
	term := new(big.Int)
	for v, val := range values {
		if val == absent {
			continue
		}
		term.SetInt64(int64(val))
		term.Mul(term, mult)
		id.Add(id, term)
		mult.Mul(mult, big.NewInt(int64(p.domain[v])))
	}
	return id
}

func (p *Problem) Name() string                  { return p.name }
func (p *Problem) Goal() state.Condition         { return p.goal }
func (p *Problem) Operators() *state.OperatorSet { return p.ops }
func (p *Problem) NumAxioms() int                { return p.numAxioms }

// InitialState returns a fresh initial state.
func (p *Problem) InitialState() state.State { return p.Initial() }

// Initial is InitialState with a concrete result type.
func (p *Problem) Initial() *State {
	return p.newState(append([]int(nil), p.init...), nil)
}

// Explicit returns p. Symbolic problems return the explicit task they were
// lifted from, so consumers that need the explicit model accept both.
func (p *Problem) Explicit() *Problem { return p }

// ExplicitGoal returns the goal with its concrete type.
func (p *Problem) ExplicitGoal() *Condition { return p.goal }

// ExplicitOperators returns the operators with their concrete type.
func (p *Problem) ExplicitOperators() []*Operator { return p.operators }

// Variables returns the problem variables.
func (p *Problem) Variables() []Variable { return p.vars }

// DomainSizes returns the number of values of each variable.
func (p *Problem) DomainSizes() []int { return append([]int(nil), p.domain...) }

// NumVars returns the number of state variables.
func (p *Problem) NumVars() int { return len(p.vars) }

// NewState builds a concrete state from a full assignment.
func (p *Problem) NewState(values []int) (*State, error) {
	if len(values) != len(p.domain) {
		return nil, fmt.Errorf("%w: state has %d values, want %d", ErrInvalidProblem, len(values), len(p.domain))
	}
	for v, val := range values {
		if err := p.checkFact(v, val); err != nil {
			return nil, err
		}
	}
	return p.newState(append([]int(nil), values...), nil), nil
}

// VarIndex returns the id of the variable called name.
func (p *Problem) VarIndex(name string) (int, bool) {
	for i, v := range p.vars {
		if v.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ValueIndex returns the index of value within the domain of v.
func (p *Problem) ValueIndex(v int, value string) (int, bool) {
	if v < 0 || v >= len(p.vars) {
		return 0, false
	}
	for i, name := range p.vars[v].Values {
		if name == value {
			return i, true
		}
	}
	return 0, false
}

func (p *Problem) factName(v, val int) string {
	if v < 0 || v >= len(p.vars) || val < 0 || val >= len(p.vars[v].Values) {
		return fmt.Sprintf("v%d=%d", v, val)
	}
	return p.vars[v].Name + "=" + p.vars[v].Values[val]
}

// Dump writes the variables, initial state and operators of the task.
func (p *Problem) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "There are %d state variables.\nDomain sizes:\n", len(p.vars)); err != nil {
		return err
	}
	for i, v := range p.vars {
		if _, err := fmt.Fprintf(w, "%s:%d\n", v.Name, p.domain[i]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Initial state:\n%s\nGoal:\n%s\nActions:\n", p.Initial(), p.goal); err != nil {
		return err
	}
	for _, op := range p.operators {
		if _, err := fmt.Fprintln(w, op); err != nil {
			return err
		}
	}
	return nil
}
