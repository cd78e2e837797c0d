package graph

import (
	"fmt"
	"time"

	"github.com/ramonpereira/paladinus-sub001/graph/emit"
	"github.com/ramonpereira/paladinus-sub001/graph/store"
)

// NoTimeout disables the search deadline.
const NoTimeout time.Duration = -1

// DefaultMaxDepth bounds the recursion depth of one search attempt.
const DefaultMaxDepth = 100000

// Options configures an Engine.
type Options struct {
	// Timeout is the wall-clock budget of one Run. NoTimeout disables it.
	// WithTimeout(0) expires immediately; a zero Timeout passed through
	// WithOptions means NoTimeout.
	Timeout time.Duration

	Algorithm           Algorithm
	ActionSelection     ActionSelection
	EvaluationCriterion EvaluationCriterion
	SuccessorOrder      SuccessorOrder
	TieBreak            TieBreak

	// MaxDepth guards the recursion. Exceeding it ends the run with
	// TIMEOUT.
	MaxDepth int

	// UnitaryBound starts the bound at 0 and raises it by one per round.
	UnitaryBound bool

	// Seed drives the RANDOM successor order.
	Seed int64

	// ExpansionEvents enables per-node events (expand, dead_end, solved).
	ExpansionEvents bool

	// Parallelism limits concurrent engines in SolveAll. Zero means one
	// engine per job.
	Parallelism int

	Emitter emit.Emitter
	Metrics *PrometheusMetrics
	Store   store.PolicyStore
}

// DefaultOptions returns the planner defaults: ITERATIVE_DFS, MIN_MAX_H
// selection, MAX criterion, SORT successor order, no tie break and no
// timeout.
func DefaultOptions() Options {
	return Options{
		Timeout:             NoTimeout,
		Algorithm:           AlgorithmIterativeDFS,
		ActionSelection:     SelectMinMaxH,
		EvaluationCriterion: CriterionMax,
		SuccessorOrder:      OrderSort,
		TieBreak:            TieBreakNone,
		MaxDepth:            DefaultMaxDepth,
	}
}

// Option is a functional option for configuring an Engine.
//
// Options are applied in order by New; the first one that fails aborts
// construction with its error.
//
// Example:
//
//	engine, err := graph.New(problem, h,
//	    graph.WithAlgorithm(graph.AlgorithmIterativeDFSPruning),
//	    graph.WithTimeout(30*time.Second),
//	    graph.WithEmitter(emit.NewLogEmitter(os.Stderr, false)),
//	)
type Option func(*engineConfig) error

// engineConfig collects options before they are applied to an Engine.
type engineConfig struct {
	opts Options
}

func invalidOption(format string, args ...interface{}) error {
	return &EngineError{Message: fmt.Sprintf(format, args...), Code: CodeInvalidOption}
}

// WithTimeout sets the wall-clock budget of a run.
//
// Default: NoTimeout. A zero duration makes every run end with TIMEOUT
// before the first expansion; any other negative value is rejected.
func WithTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		if d < 0 && d != NoTimeout {
			return invalidOption("timeout must be non-negative or NoTimeout, got %v", d)
		}
		cfg.opts.Timeout = d
		return nil
	}
}

// WithAlgorithm selects the search variant.
//
// Default: AlgorithmIterativeDFS.
func WithAlgorithm(a Algorithm) Option {
	return func(cfg *engineConfig) error {
		if !a.valid() {
			return invalidOption("unknown algorithm %q", a)
		}
		cfg.opts.Algorithm = a
		return nil
	}
}

// WithActionSelection selects the connector ordering rule.
//
// Default: SelectMinMaxH.
func WithActionSelection(s ActionSelection) Option {
	return func(cfg *engineConfig) error {
		if !s.valid() {
			return invalidOption("unknown action selection %q", s)
		}
		cfg.opts.ActionSelection = s
		return nil
	}
}

// WithEvaluationCriterion selects the connector term used in the bound
// test.
//
// Default: CriterionMax.
func WithEvaluationCriterion(c EvaluationCriterion) Option {
	return func(cfg *engineConfig) error {
		if !c.valid() {
			return invalidOption("unknown evaluation criterion %q", c)
		}
		cfg.opts.EvaluationCriterion = c
		return nil
	}
}

// WithSuccessorOrder selects how the children of a connector are ordered
// for exploration.
//
// Default: OrderSort.
func WithSuccessorOrder(o SuccessorOrder) Option {
	return func(cfg *engineConfig) error {
		if !o.valid() {
			return invalidOption("unknown successor order %q", o)
		}
		cfg.opts.SuccessorOrder = o
		return nil
	}
}

// WithTieBreak selects the secondary connector ordering rule.
//
// Default: TieBreakNone.
func WithTieBreak(t TieBreak) Option {
	return func(cfg *engineConfig) error {
		if !t.valid() {
			return invalidOption("unknown tie break %q", t)
		}
		cfg.opts.TieBreak = t
		return nil
	}
}

// WithMaxDepth sets the recursion depth guard.
//
// Default: DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(cfg *engineConfig) error {
		if n <= 0 {
			return invalidOption("max depth must be positive, got %d", n)
		}
		cfg.opts.MaxDepth = n
		return nil
	}
}

// WithUnitaryBound makes the bound start at 0 and grow by exactly one per
// round instead of jumping to the smallest deferred cost.
func WithUnitaryBound(enabled bool) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.UnitaryBound = enabled
		return nil
	}
}

// WithSeed seeds the RANDOM successor order.
func WithSeed(seed int64) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Seed = seed
		return nil
	}
}

// WithEmitter sets the event sink. A nil emitter disables events.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Emitter = e
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	engine, err := graph.New(problem, h, graph.WithMetrics(metrics))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Metrics = metrics
		return nil
	}
}

// WithExpansionEvents enables expand, dead_end and solved events. They are
// off by default because they fire once per node.
func WithExpansionEvents(enabled bool) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.ExpansionEvents = enabled
		return nil
	}
}

// WithPolicyStore persists every proven policy together with its validity
// flag.
func WithPolicyStore(s store.PolicyStore) Option {
	return func(cfg *engineConfig) error {
		cfg.opts.Store = s
		return nil
	}
}

// WithParallelism limits how many engines SolveAll runs at once.
func WithParallelism(n int) Option {
	return func(cfg *engineConfig) error {
		if n < 0 {
			return invalidOption("parallelism must be non-negative, got %d", n)
		}
		cfg.opts.Parallelism = n
		return nil
	}
}

// WithOptions replaces the whole configuration. Empty enum fields, a zero
// MaxDepth and a zero Timeout take their defaults, so a zero Timeout here
// disables the deadline. Later options still apply on top of it.
func WithOptions(opts Options) Option {
	return func(cfg *engineConfig) error {
		if opts.Timeout == 0 {
			opts.Timeout = NoTimeout
		}
		if err := opts.normalize(); err != nil {
			return err
		}
		cfg.opts = opts
		return nil
	}
}

func (o *Options) normalize() error {
	def := DefaultOptions()
	if o.Algorithm == "" {
		o.Algorithm = def.Algorithm
	}
	if o.ActionSelection == "" {
		o.ActionSelection = def.ActionSelection
	}
	if o.EvaluationCriterion == "" {
		o.EvaluationCriterion = def.EvaluationCriterion
	}
	if o.SuccessorOrder == "" {
		o.SuccessorOrder = def.SuccessorOrder
	}
	if o.TieBreak == "" {
		o.TieBreak = def.TieBreak
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = def.MaxDepth
	}
	switch {
	case !o.Algorithm.valid():
		return invalidOption("unknown algorithm %q", o.Algorithm)
	case !o.ActionSelection.valid():
		return invalidOption("unknown action selection %q", o.ActionSelection)
	case !o.EvaluationCriterion.valid():
		return invalidOption("unknown evaluation criterion %q", o.EvaluationCriterion)
	case !o.SuccessorOrder.valid():
		return invalidOption("unknown successor order %q", o.SuccessorOrder)
	case !o.TieBreak.valid():
		return invalidOption("unknown tie break %q", o.TieBreak)
	case o.MaxDepth < 0:
		return invalidOption("max depth must be positive, got %d", o.MaxDepth)
	case o.Timeout < 0 && o.Timeout != NoTimeout:
		return invalidOption("timeout must be non-negative or NoTimeout, got %v", o.Timeout)
	}
	return nil
}
