// Package problem loads planning tasks written in YAML.
//
// A description names finite-domain variables and refers to variables and
// values by name everywhere else:
//
//	name: retry
//	variables:
//	  - name: at
//	    values: [a, b]
//	init:
//	  at: a
//	goal:
//	  at: b
//	operators:
//	  - name: move
//	    pre: {at: a}
//	    outcomes:
//	      - {at: b}
//	      - {at: a}
//
// Build turns a description into an explicit problem; Lift optionally moves
// it to belief states.
package problem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
	"github.com/ramonpereira/paladinus-sub001/state/symbolic"
)

// ErrInvalidDescription is returned for descriptions that do not name a
// well-formed task.
var ErrInvalidDescription = errors.New("problem: invalid description")

// Representation selects the state representation of a loaded task.
type Representation string

const (
	// Explicit keeps full variable assignments.
	Explicit Representation = "explicit"

	// Symbolic lifts the task to belief states over decision diagrams.
	Symbolic Representation = "symbolic"
)

// ParseRepresentation resolves a case-insensitive representation name.
// The empty string means Explicit.
func ParseRepresentation(name string) (Representation, error) {
	switch r := Representation(strings.ToLower(strings.TrimSpace(name))); r {
	case "":
		return Explicit, nil
	case Explicit, Symbolic:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown representation %q", ErrInvalidDescription, name)
}

// Description is the YAML form of a task.
type Description struct {
	Name      string            `yaml:"name"`
	Variables []Variable        `yaml:"variables"`
	Init      map[string]string `yaml:"init"`
	Goal      map[string]string `yaml:"goal"`
	Operators []Operator        `yaml:"operators"`

	// Axioms is the number of derived-variable rules of the original task.
	// They are not evaluated; heuristics without axiom support reject the
	// task when it is positive.
	Axioms int `yaml:"axioms,omitempty"`
}

// Variable is a named finite domain.
type Variable struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Operator is a nondeterministic action. Each outcome maps variables to
// the values they take; Observe lists sensed variables.
type Operator struct {
	Name     string              `yaml:"name"`
	Cost     *float64            `yaml:"cost,omitempty"`
	Pre      map[string]string   `yaml:"pre,omitempty"`
	Outcomes []map[string]string `yaml:"outcomes,omitempty"`
	Observe  []string            `yaml:"observe,omitempty"`
}

// Parse decodes a YAML description. Unknown fields are rejected.
func Parse(data []byte) (*Description, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Description
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDescription)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	return &d, nil
}

// Load reads and builds an explicit task.
func Load(r io.Reader) (*explicit.Problem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return d.Build()
}

// LoadFile reads and builds the explicit task stored at path.
func LoadFile(path string) (*explicit.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open problem file: %w", err)
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Lift returns p in the requested representation.
func Lift(p *explicit.Problem, r Representation) (state.Problem, error) {
	switch r {
	case Explicit, "":
		return p, nil
	case Symbolic:
		return symbolic.NewProblem(p)
	}
	return nil, fmt.Errorf("%w: unknown representation %q", ErrInvalidDescription, r)
}

// Build resolves names and validates the description.
func (d *Description) Build() (*explicit.Problem, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidDescription)
	}
	r, err := newResolver(d.Variables)
	if err != nil {
		return nil, err
	}

	init, err := r.facts(d.Init, "init")
	if err != nil {
		return nil, err
	}
	for i, v := range d.Variables {
		if _, ok := init[i]; !ok {
			return nil, fmt.Errorf("%w: init does not assign %q", ErrInvalidDescription, v.Name)
		}
	}
	goal, err := r.facts(d.Goal, "goal")
	if err != nil {
		return nil, err
	}

	ops := make([]*explicit.Operator, 0, len(d.Operators))
	for _, o := range d.Operators {
		op, err := r.operator(o)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	vars := make([]explicit.Variable, len(d.Variables))
	for i, v := range d.Variables {
		vars[i] = explicit.Variable{Name: v.Name, Values: v.Values}
	}
	var opts []explicit.ProblemOption
	if d.Axioms > 0 {
		opts = append(opts, explicit.WithAxioms(d.Axioms))
	}
	p, err := explicit.NewProblem(d.Name, vars, init, explicit.NewCondition(goal), ops, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	return p, nil
}

type resolver struct {
	vars   map[string]int
	values []map[string]int
}

func newResolver(vars []Variable) (*resolver, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: no variables", ErrInvalidDescription)
	}
	r := &resolver{vars: make(map[string]int, len(vars)), values: make([]map[string]int, len(vars))}
	for i, v := range vars {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: variable %d has no name", ErrInvalidDescription, i)
		}
		if _, dup := r.vars[v.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate variable %q", ErrInvalidDescription, v.Name)
		}
		if len(v.Values) == 0 {
			return nil, fmt.Errorf("%w: variable %q has no values", ErrInvalidDescription, v.Name)
		}
		r.vars[v.Name] = i
		r.values[i] = make(map[string]int, len(v.Values))
		for j, val := range v.Values {
			if _, dup := r.values[i][val]; dup {
				return nil, fmt.Errorf("%w: variable %q repeats value %q", ErrInvalidDescription, v.Name, val)
			}
			r.values[i][val] = j
		}
	}
	return r, nil
}

func (r *resolver) variable(name, where string) (int, error) {
	v, ok := r.vars[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s: unknown variable %q", ErrInvalidDescription, where, name)
	}
	return v, nil
}

func (r *resolver) facts(m map[string]string, where string) (map[int]int, error) {
	out := make(map[int]int, len(m))
	for name, value := range m {
		v, err := r.variable(name, where)
		if err != nil {
			return nil, err
		}
		val, ok := r.values[v][value]
		if !ok {
			return nil, fmt.Errorf("%w: %s: %q is not a value of %q", ErrInvalidDescription, where, value, name)
		}
		out[v] = val
	}
	return out, nil
}

func (r *resolver) operator(o Operator) (*explicit.Operator, error) {
	where := "operator " + o.Name
	pre, err := r.facts(o.Pre, where)
	if err != nil {
		return nil, err
	}
	outcomes := make([][]explicit.Effect, 0, len(o.Outcomes))
	for _, outcome := range o.Outcomes {
		assigned, err := r.facts(outcome, where)
		if err != nil {
			return nil, err
		}
		effects := make([]explicit.Effect, 0, len(assigned))
		for v := range r.values {
			if val, ok := assigned[v]; ok {
				effects = append(effects, explicit.Effect{Var: v, Value: val})
			}
		}
		outcomes = append(outcomes, effects)
	}
	observe := make([]int, 0, len(o.Observe))
	for _, name := range o.Observe {
		v, err := r.variable(name, where)
		if err != nil {
			return nil, err
		}
		observe = append(observe, v)
	}
	if len(outcomes) == 0 && len(observe) == 0 {
		return nil, fmt.Errorf("%w: %s has neither outcomes nor observations", ErrInvalidDescription, where)
	}

	cost := 1.0
	if o.Cost != nil {
		cost = *o.Cost
	}
	op, err := explicit.NewOperator(o.Name, cost, explicit.NewCondition(pre), outcomes, observe...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	return op, nil
}

// Marshal renders d as YAML.
func (d *Description) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}
