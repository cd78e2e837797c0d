package graph

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ramonpereira/paladinus-sub001/graph/emit"
	"github.com/ramonpereira/paladinus-sub001/heuristic"
	"github.com/ramonpereira/paladinus-sub001/state"
)

// Result is the verdict of a search run.
type Result int

const (
	// ResultProven means a strong-cyclic policy for the initial state was
	// found.
	ResultProven Result = iota + 1

	// ResultDisproven means no policy exists within the explored space.
	ResultDisproven

	// ResultTimeout means the deadline, context cancellation or depth guard
	// ended the run first.
	ResultTimeout
)

func (r Result) String() string {
	switch r {
	case ResultProven:
		return "PROVEN"
	case ResultDisproven:
		return "DISPROVEN"
	case ResultTimeout:
		return "TIMEOUT"
	}
	return "UNKNOWN"
}

// Stats summarizes the work of one run.
type Stats struct {
	// Expansions counts node visits that went past the early checks.
	Expansions int

	// Nodes is the size of the graph after the run.
	Nodes int

	// Rounds is the number of bound escalation rounds.
	Rounds int

	// Bounds lists the bound of every round, in order.
	Bounds []float64

	// FixedPointPasses counts passes over connector children.
	FixedPointPasses int

	// AvgBranchingFactor is the mean number of children per connector.
	AvgBranchingFactor float64

	// DeadEnds counts nodes proven to be dead ends.
	DeadEnds int

	Duration   time.Duration
	PolicySize int
}

// SearchResult is what Run returns.
type SearchResult struct {
	RunID  string
	Result Result

	// Root is the node of the initial state.
	Root NodeID

	// Policy is set for PROVEN results.
	Policy *Policy

	Stats Stats
}

// Engine drives the AND-OR search of one problem.
//
// The engine owns its graph. Successive Run calls reuse it, so nodes,
// marks, learned estimates and dead ends from earlier runs are kept. An
// engine must not run concurrently with itself; use one engine per
// goroutine (see SolveAll).
//
// Example:
//
//	h, _ := heuristic.New(heuristic.KindHMax, p)
//	engine, err := graph.New(p, h, graph.WithTimeout(time.Minute))
//	if err != nil {
//	    return err
//	}
//	res, err := engine.Run(ctx, "")
//	if err == nil && res.Result == graph.ResultProven {
//	    fmt.Println(res.Policy.Len(), "entries")
//	}
type Engine struct {
	problem   state.Problem
	heuristic heuristic.Heuristic
	opts      Options
	graph     *Graph
	root      *Node
	rng       *rand.Rand
}

// New builds an engine for p guided by h.
//
// Options are applied over DefaultOptions in order; the first invalid one
// is returned as an *EngineError with code INVALID_OPTION.
func New(p state.Problem, h heuristic.Heuristic, options ...Option) (*Engine, error) {
	if p == nil {
		return nil, &EngineError{Message: "problem is nil", Code: CodeMissingProblem}
	}
	if h == nil {
		return nil, &EngineError{Message: "heuristic is nil", Code: CodeMissingHeuristic}
	}
	cfg := &engineConfig{opts: DefaultOptions()}
	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.opts.normalize(); err != nil {
		return nil, err
	}
	return &Engine{
		problem:   p,
		heuristic: h,
		opts:      cfg.opts,
		graph:     NewGraph(),
		rng:       rand.New(rand.NewSource(cfg.opts.Seed)),
	}, nil
}

// NewWithKind builds the heuristic of kind for p and an engine using it.
// A problem with axioms and a heuristic that cannot handle them yields an
// *EngineError with code UNSUPPORTED_AXIOMS.
func NewWithKind(p state.Problem, kind heuristic.Kind, options ...Option) (*Engine, error) {
	if p == nil {
		return nil, &EngineError{Message: "problem is nil", Code: CodeMissingProblem}
	}
	h, err := heuristic.New(kind, p)
	if err != nil {
		code := CodeInvalidOption
		if errors.Is(err, heuristic.ErrUnsupportedAxioms) {
			code = CodeUnsupportedAxioms
		}
		return nil, &EngineError{Message: err.Error(), Code: code, Cause: err}
	}
	return New(p, h, options...)
}

// Graph returns the search graph. It is only meaningful between runs.
func (e *Engine) Graph() *Graph { return e.graph }

// Options returns the effective configuration.
func (e *Engine) Options() Options { return e.opts }

// Problem returns the problem being solved.
func (e *Engine) Problem() state.Problem { return e.problem }

// Close releases the states held by the graph. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e.graph != nil {
		e.graph.Release()
	}
	e.graph = nil
	e.root = nil
}

// Run searches for a strong-cyclic policy from the initial state.
//
// An empty runID is replaced by a random UUID. Resource exhaustion (the
// configured timeout, ctx cancellation or the depth guard) is reported as
// ResultTimeout, not as an error. Errors are reserved for broken models:
// a duplicate connector, an inconsistent graph, a failing Apply, or mixed
// state representations, which panic inside the state layer and are
// recovered here into an *EngineError with code REPRESENTATION_MISMATCH.
//
// A PROVEN result carries the extracted policy. If a policy store is
// configured the policy is saved; a store failure is returned together
// with the result.
func (e *Engine) Run(ctx context.Context, runID string) (res *SearchResult, err error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if e.graph == nil {
		return nil, &EngineError{Message: "engine is closed", Code: CodeInconsistentGraph}
	}
	start := time.Now()
	s := &search{
		e:        e,
		g:        e.graph,
		opts:     e.opts,
		token:    newCancelToken(ctx, e.opts.Timeout),
		rng:      e.rng,
		runID:    runID,
		deadEnds: make(map[NodeID]bool),
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, recovered(r)
			s.emit(emit.MsgSearchEnd, "", map[string]interface{}{"error": err.Error()})
		}
	}()

	root, err := e.ensureRoot(s)
	if err != nil {
		return nil, err
	}
	s.emit(emit.MsgSearchStart, root.Key, map[string]interface{}{
		"problem":   e.problem.Name(),
		"algorithm": e.opts.Algorithm.String(),
		"selection": e.opts.describe(),
		"bound":     root.H,
	})

	result, solved := s.run(root)
	if s.err != nil {
		s.emit(emit.MsgSearchEnd, root.Key, map[string]interface{}{"error": s.err.Error()})
		return nil, s.err
	}
	if cerr := e.graph.CheckConsistency(); cerr != nil {
		return nil, &EngineError{Message: cerr.Error(), Code: CodeInconsistentGraph, Cause: cerr}
	}

	res = &SearchResult{RunID: runID, Result: result, Root: root.ID, Stats: s.stats}
	res.Stats.Nodes = e.graph.Len()
	res.Stats.AvgBranchingFactor = e.graph.branchingFactor()

	if result == ResultProven {
		if err := e.finishProof(ctx, s, res, solved); err != nil {
			return res, err
		}
	}

	res.Stats.Duration = time.Since(start)
	e.opts.Metrics.UpdateGraphNodes(res.Stats.Nodes)
	e.opts.Metrics.RecordResult(result.String(), res.Stats.Duration)
	s.round = 0
	s.emit(emit.MsgSearchEnd, root.Key, map[string]interface{}{
		"result":      result.String(),
		"duration_ms": res.Stats.Duration.Milliseconds(),
		"expansions":  res.Stats.Expansions,
		"nodes":       res.Stats.Nodes,
	})
	return res, nil
}

func (e *Engine) ensureRoot(s *search) (*Node, error) {
	if e.root != nil {
		return e.root, nil
	}
	initial := e.problem.InitialState()
	if initial == nil {
		return nil, &EngineError{Message: fmt.Sprintf("problem %q has no initial state", e.problem.Name()), Code: CodeNoInitialState}
	}
	root, created := e.graph.Insert(initial, s.estimate)
	if !created && root.State != initial {
		initial.Free()
	}
	e.root = root
	return root, nil
}

// finishProof propagates the proof, extracts and verifies the policy and
// hands it to the store.
func (e *Engine) finishProof(ctx context.Context, s *search, res *SearchResult, solved nodeSet) error {
	ids := solved.sorted()
	e.graph.MarkProven(ids)
	if s.opts.ExpansionEvents {
		for _, id := range ids {
			s.emit(emit.MsgSolved, e.graph.nodes[id].Key, nil)
		}
	}

	policy, err := ExtractPolicy(e.graph, res.Root)
	if err != nil {
		return &EngineError{Message: err.Error(), Code: CodeInconsistentGraph, Cause: err}
	}
	verr := policy.Verify(e.graph)
	meta := map[string]interface{}{"valid": policy.Valid(), "policy_size": policy.Len()}
	if verr != nil {
		meta["reason"] = verr.Error()
	}
	s.emit(emit.MsgPolicyVerified, e.graph.nodes[res.Root].Key, meta)
	res.Policy = policy
	res.Stats.PolicySize = policy.Len()

	if e.opts.Store != nil {
		if err := e.opts.Store.SavePolicy(ctx, policy.Record(res, e.problem.Name(), e.opts.Algorithm)); err != nil {
			return &EngineError{Message: "saving policy: " + err.Error(), Code: CodeStoreError, Cause: err}
		}
	}
	return nil
}

// recovered turns a state-layer panic into an EngineError. Any other panic
// is re-raised.
func recovered(r interface{}) error {
	err, ok := r.(error)
	if !ok {
		panic(r)
	}
	var mismatch *state.MismatchError
	var freed *state.FreedError
	switch {
	case errors.As(err, &mismatch):
		return &EngineError{Message: err.Error(), Code: CodeRepresentationMismatch, Cause: err}
	case errors.As(err, &freed):
		return &EngineError{Message: err.Error(), Code: CodeUseAfterFree, Cause: err}
	}
	panic(r)
}

func (g *Graph) branchingFactor() float64 {
	if g.connectors == 0 {
		return 0
	}
	var children int
	for _, n := range g.nodes {
		for _, c := range n.outgoing {
			children += len(c.Children)
		}
	}
	return float64(children) / float64(g.connectors)
}
