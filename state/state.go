// Package state defines the capability set that every state representation
// offers to the search engine.
//
// Two representations implement these interfaces:
//   - explicit: a full assignment of values to finite-domain variables
//   - symbolic: a belief state encoded as a binary decision diagram
//
// The search engine only talks to the interfaces below, so it never needs to
// know which representation backs a problem. Mixing the two (for example a
// symbolic Condition tested against an explicit State) is a programming error
// and panics with a *MismatchError.
package state

import (
	"math/big"
)

// Representation tags the concrete backend of a Condition, Operator or State.
type Representation int

const (
	// Explicit states are full variable assignments.
	Explicit Representation = iota + 1

	// Symbolic states are sets of assignments encoded as decision diagrams.
	Symbolic
)

// String returns the lower-case name of the representation.
func (r Representation) String() string {
	switch r {
	case Explicit:
		return "explicit"
	case Symbolic:
		return "symbolic"
	default:
		return "unknown"
	}
}

// Condition is a boolean test of a partial assignment against a state.
//
// Conditions are immutable once built. IsSatisfiedIn must not mutate the
// condition or the state it is evaluated against.
type Condition interface {
	// Representation reports which backend built this condition.
	Representation() Representation

	// IsSatisfiedIn reports whether the condition holds in s. For a belief
	// state the condition must hold in every world the belief contains.
	IsSatisfiedIn(s State) bool

	// IsTrue reports whether the condition is the empty (always true) test.
	IsTrue() bool

	// Abstract projects the condition onto the variables in pattern.
	Abstract(pattern VarSet) Condition

	String() string
}

// Operator is a nondeterministic action.
//
// An operator has a precondition, zero or more nondeterministic outcomes
// (it is causative when it has at least one), an optional set of observed
// variables (it is sensing when that set is non-empty) and a non-negative
// cost. Operator names are unique within an OperatorSet.
type Operator interface {
	Name() string
	Cost() float64
	Representation() Representation
	Precondition() Condition

	// IsCausative reports whether applying the operator changes the world.
	IsCausative() bool

	// IsSensing reports whether the operator observes variables.
	IsSensing() bool

	// AffectedVariables lists every variable written by some outcome.
	AffectedVariables() VarSet

	// IsEnabledIn is Precondition().IsSatisfiedIn(s).
	IsEnabledIn(s State) bool

	// Abstract projects the operator onto the variables in pattern. It
	// returns nil when the projection keeps neither effects nor
	// observations: the operator vanishes under that abstraction.
	Abstract(pattern VarSet) Operator

	String() string
}

// State is a point of the represented state space.
//
// Identity is the arbitrary-precision ID. Hash is derived from the low bits
// of the ID and may collide; correctness-critical comparisons must use
// Equal.
type State interface {
	Representation() Representation

	// ID returns the unique identifier of the state. Callers must not
	// modify the returned value.
	ID() *big.Int

	// Hash returns the low 64 bits of ID.
	Hash() uint64

	// Equal reports whether other has the same ID and representation.
	Equal(other State) bool

	// IsGoal tests the owning problem's goal, or the abstraction goal for
	// an abstracted state.
	IsGoal() bool

	// IsApplicable reports whether op can be used to expand this state.
	IsApplicable(op Operator) bool

	// Apply returns the successor states of applying op. It fails with a
	// *PreconditionError when op is not enabled; it never returns an
	// empty slice without an error.
	Apply(op Operator) ([]State, error)

	// ApplicableOps returns the applicable subset of ops in set order. The
	// result is cached against the set's token and recomputed whenever a
	// different set is passed.
	ApplicableOps(ops *OperatorSet) []Operator

	// Abstraction returns the abstraction this state lives in, or nil for
	// a concrete state.
	Abstraction() *Abstraction

	// Free releases any resource owned by the state. The state must not
	// be used afterwards. Free is idempotent.
	Free()

	String() string
}

// Problem is the planning task consumed by the search engine.
type Problem interface {
	// Name identifies the problem in logs and persisted policies.
	Name() string

	// InitialState returns a new state owned by the caller.
	InitialState() State

	Goal() Condition

	// Operators returns the canonical operator set handle of the problem.
	// The same handle is returned on every call.
	Operators() *OperatorSet

	// NumAxioms reports how many derived-variable rules the problem has.
	NumAxioms() int
}

// WorldEnumerator is implemented by states that can list the explicit
// assignments they represent. An explicit state has exactly one world. A
// belief state has one per satisfying assignment; at most limit worlds are
// returned when limit is positive.
type WorldEnumerator interface {
	Worlds(limit int) [][]int
}

// Abstraction describes the projection an abstracted state lives in.
type Abstraction struct {
	// Pattern is the set of variables kept by the projection.
	Pattern VarSet

	// Goal is the goal condition projected onto Pattern.
	Goal Condition
}

// HashOf returns the low 64 bits of id.
func HashOf(id *big.Int) uint64 {
	return id.Uint64()
}
