// Package heuristic provides cost-to-goal estimators consumed by the search
// engine.
//
// An estimate is a value in [0, +Inf]. +Inf means no goal is reachable from
// the state; the engine uses that both to seed the initial bound and to drop
// hopeless connectors. Estimators are black boxes to the engine: they need
// not be admissible, only honest about +Inf.
package heuristic

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ramonpereira/paladinus-sub001/state"
	"github.com/ramonpereira/paladinus-sub001/state/explicit"
)

// Inf is the estimate of a state from which no goal is reachable.
var Inf = math.Inf(1)

var (
	// ErrUnsupportedAxioms is returned when a heuristic that cannot reason
	// about derived variables is built for a problem that has axioms.
	ErrUnsupportedAxioms = errors.New("heuristic: problem has axioms but heuristic does not support them")

	// ErrUnknownKind is returned by ParseKind and New for unknown names.
	ErrUnknownKind = errors.New("heuristic: unknown heuristic")

	// ErrNoExplicitModel is returned when a heuristic needs the explicit
	// operators of a problem that does not expose them.
	ErrNoExplicitModel = errors.New("heuristic: problem has no explicit model")
)

// Heuristic estimates the cost of reaching a goal from a state.
type Heuristic interface {
	Estimate(s state.State) float64
}

// Func adapts an ordinary function to the Heuristic interface.
type Func func(s state.State) float64

// Estimate calls f(s).
func (f Func) Estimate(s state.State) float64 { return f(s) }

// Kind names a builtin heuristic.
type Kind string

const (
	// KindBlind is 0 on goals and 1 elsewhere.
	KindBlind Kind = "BLIND"

	// KindBlindDeadEnd keeps only the dead-end verdict of HMax.
	KindBlindDeadEnd Kind = "BLIND_DEADEND"

	// KindGoalCount counts unsatisfied goal facts.
	KindGoalCount Kind = "GOAL_COUNT"

	// KindHMax is the max-cost relaxed reachability estimate.
	KindHMax Kind = "HMAX"
)

// Kinds lists the builtin heuristics in a stable order.
func Kinds() []Kind {
	return []Kind{KindBlind, KindBlindDeadEnd, KindGoalCount, KindHMax}
}

// ParseKind resolves a case-insensitive heuristic name.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// SupportsAxioms reports whether the heuristic gives meaningful estimates
// on problems with derived variables.
func (k Kind) SupportsAxioms() bool {
	switch k {
	case KindBlind, KindGoalCount:
		return true
	default:
		return false
	}
}

// ExplicitModel is implemented by problems that expose the explicit
// variables and operators they were built from. Both explicit problems and
// symbolic problems lifted from one implement it.
type ExplicitModel interface {
	Explicit() *explicit.Problem
}

// Option configures a heuristic built by New.
type Option func(*config)

type config struct {
	strategy   Strategy
	worldLimit int
}

// WithStrategy selects how per-world estimates of a belief state combine.
// The default is StrategyMax.
func WithStrategy(s Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithWorldLimit caps the number of worlds of a belief state that are
// evaluated. Zero or less evaluates every world.
func WithWorldLimit(n int) Option {
	return func(c *config) { c.worldLimit = n }
}

// New builds the heuristic named by kind for p.
//
// It fails with ErrUnsupportedAxioms when p has axioms and kind does not
// support them, and with ErrNoExplicitModel when kind needs the explicit
// operators and p does not implement ExplicitModel.
func New(kind Kind, p state.Problem, opts ...Option) (Heuristic, error) {
	cfg := config{strategy: StrategyMax, worldLimit: 256}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !kind.SupportsAxioms() && p.NumAxioms() > 0 {
		return nil, fmt.Errorf("%w: %s on %s (%d axioms)", ErrUnsupportedAxioms, kind, p.Name(), p.NumAxioms())
	}

	switch kind {
	case KindBlind:
		return Blind(), nil
	case KindGoalCount, KindHMax, KindBlindDeadEnd:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	model, ok := p.(ExplicitModel)
	if !ok {
		return nil, fmt.Errorf("%w: %s needs explicit operators", ErrNoExplicitModel, kind)
	}
	ep := model.Explicit()

	switch kind {
	case KindGoalCount:
		return &worldHeuristic{eval: goalCount(ep), strategy: cfg.strategy, limit: cfg.worldLimit}, nil
	case KindHMax:
		return &worldHeuristic{eval: hmax(ep), strategy: cfg.strategy, limit: cfg.worldLimit}, nil
	default:
		inner := &worldHeuristic{eval: hmax(ep), strategy: cfg.strategy, limit: cfg.worldLimit}
		return BlindDeadEnd(inner), nil
	}
}
