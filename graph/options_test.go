package graph

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ramonpereira/paladinus-sub001/graph/emit"
	"github.com/ramonpereira/paladinus-sub001/graph/store"
	"github.com/ramonpereira/paladinus-sub001/heuristic"
)

// TestFunctionalOptions verifies that each option lands in the engine
// configuration.
func TestFunctionalOptions(t *testing.T) {
	st := store.NewMemStore()
	emitter := emit.NewLogEmitter(io.Discard, false)

	tests := []struct {
		name     string
		option   Option
		validate func(*testing.T, Options)
	}{
		{
			name:   "WithTimeout sets Timeout",
			option: WithTimeout(3 * time.Second),
			validate: func(t *testing.T, o Options) {
				if o.Timeout != 3*time.Second {
					t.Errorf("Timeout = %v, want 3s", o.Timeout)
				}
			},
		},
		{
			name:   "WithAlgorithm sets Algorithm",
			option: WithAlgorithm(AlgorithmIterativeDFSLearning),
			validate: func(t *testing.T, o Options) {
				if o.Algorithm != AlgorithmIterativeDFSLearning {
					t.Errorf("Algorithm = %v", o.Algorithm)
				}
			},
		},
		{
			name:   "WithActionSelection sets ActionSelection",
			option: WithActionSelection(SelectMeanH),
			validate: func(t *testing.T, o Options) {
				if o.ActionSelection != SelectMeanH {
					t.Errorf("ActionSelection = %v", o.ActionSelection)
				}
			},
		},
		{
			name:   "WithEvaluationCriterion sets EvaluationCriterion",
			option: WithEvaluationCriterion(CriterionMin),
			validate: func(t *testing.T, o Options) {
				if o.EvaluationCriterion != CriterionMin {
					t.Errorf("EvaluationCriterion = %v", o.EvaluationCriterion)
				}
			},
		},
		{
			name:   "WithSuccessorOrder sets SuccessorOrder",
			option: WithSuccessorOrder(OrderReverse),
			validate: func(t *testing.T, o Options) {
				if o.SuccessorOrder != OrderReverse {
					t.Errorf("SuccessorOrder = %v", o.SuccessorOrder)
				}
			},
		},
		{
			name:   "WithTieBreak sets TieBreak",
			option: WithTieBreak(TieBreakMaxSum),
			validate: func(t *testing.T, o Options) {
				if o.TieBreak != TieBreakMaxSum {
					t.Errorf("TieBreak = %v", o.TieBreak)
				}
			},
		},
		{
			name:   "WithMaxDepth sets MaxDepth",
			option: WithMaxDepth(64),
			validate: func(t *testing.T, o Options) {
				if o.MaxDepth != 64 {
					t.Errorf("MaxDepth = %d, want 64", o.MaxDepth)
				}
			},
		},
		{
			name:   "WithUnitaryBound sets UnitaryBound",
			option: WithUnitaryBound(true),
			validate: func(t *testing.T, o Options) {
				if !o.UnitaryBound {
					t.Error("UnitaryBound not set")
				}
			},
		},
		{
			name:   "WithSeed sets Seed",
			option: WithSeed(99),
			validate: func(t *testing.T, o Options) {
				if o.Seed != 99 {
					t.Errorf("Seed = %d, want 99", o.Seed)
				}
			},
		},
		{
			name:   "WithEmitter sets Emitter",
			option: WithEmitter(emitter),
			validate: func(t *testing.T, o Options) {
				if o.Emitter != emitter {
					t.Error("Emitter not set")
				}
			},
		},
		{
			name:   "WithPolicyStore sets Store",
			option: WithPolicyStore(st),
			validate: func(t *testing.T, o Options) {
				if o.Store != st {
					t.Error("Store not set")
				}
			},
		},
		{
			name:   "WithExpansionEvents sets ExpansionEvents",
			option: WithExpansionEvents(true),
			validate: func(t *testing.T, o Options) {
				if !o.ExpansionEvents {
					t.Error("ExpansionEvents not set")
				}
			},
		},
		{
			name:   "WithParallelism sets Parallelism",
			option: WithParallelism(4),
			validate: func(t *testing.T, o Options) {
				if o.Parallelism != 4 {
					t.Errorf("Parallelism = %d, want 4", o.Parallelism)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(retryProblem(t), heuristic.Blind(), tt.option)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer e.Close()
			tt.validate(t, e.Options())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Algorithm != AlgorithmIterativeDFS || o.ActionSelection != SelectMinMaxH ||
		o.EvaluationCriterion != CriterionMax || o.SuccessorOrder != OrderSort ||
		o.TieBreak != TieBreakNone || o.Timeout != NoTimeout || o.MaxDepth != DefaultMaxDepth {
		t.Errorf("unexpected defaults %+v", o)
	}
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		option Option
	}{
		{"negative timeout", WithTimeout(-2 * time.Second)},
		{"unknown algorithm", WithAlgorithm("A_STAR")},
		{"unknown selection", WithActionSelection("MIN_COST")},
		{"unknown criterion", WithEvaluationCriterion("AVG")},
		{"unknown order", WithSuccessorOrder("SHUFFLE")},
		{"unknown tie break", WithTieBreak("RANDOM")},
		{"zero depth", WithMaxDepth(0)},
		{"negative parallelism", WithParallelism(-1)},
		{"invalid options", WithOptions(Options{Algorithm: "BFS"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(retryProblem(t), heuristic.Blind(), tt.option)
			var engineErr *EngineError
			if !errors.As(err, &engineErr) || engineErr.Code != CodeInvalidOption {
				t.Errorf("expected INVALID_OPTION, got %v", err)
			}
		})
	}
}

func TestWithOptions_FillsDefaults(t *testing.T) {
	e, err := New(retryProblem(t), heuristic.Blind(),
		WithOptions(Options{Algorithm: AlgorithmDFS, Timeout: NoTimeout}),
		WithSeed(3),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	o := e.Options()
	if o.Algorithm != AlgorithmDFS || o.ActionSelection != SelectMinMaxH || o.MaxDepth != DefaultMaxDepth || o.Seed != 3 {
		t.Errorf("unexpected options %+v", o)
	}
}

func TestWithOptions_ZeroTimeout(t *testing.T) {
	e, err := New(retryProblem(t), heuristic.Blind(), WithOptions(Options{Algorithm: AlgorithmIterativeDFS}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()
	if got := e.Options().Timeout; got != NoTimeout {
		t.Errorf("Timeout = %v, want NoTimeout", got)
	}
	res, err := e.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Result != ResultProven {
		t.Errorf("Result = %v, want PROVEN", res.Result)
	}

	// An explicit zero timeout after the block still expires at once.
	e2, err := New(retryProblem(t), heuristic.Blind(), WithOptions(Options{}), WithTimeout(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e2.Close()
	if got := e2.Options().Timeout; got != 0 {
		t.Errorf("Timeout = %v, want 0", got)
	}
}

func TestParseEnums(t *testing.T) {
	if a, err := ParseAlgorithm(" iterative_dfs_pruning "); err != nil || a != AlgorithmIterativeDFSPruning {
		t.Errorf("ParseAlgorithm = %v, %v", a, err)
	}
	if s, err := ParseActionSelection("min_sum_h_estimated_branching_factor"); err != nil || s != SelectMinSumHEstimatedBranching {
		t.Errorf("ParseActionSelection = %v, %v", s, err)
	}
	if c, err := ParseEvaluationCriterion("min"); err != nil || c != CriterionMin {
		t.Errorf("ParseEvaluationCriterion = %v, %v", c, err)
	}
	if o, err := ParseSuccessorOrder("Random"); err != nil || o != OrderRandom {
		t.Errorf("ParseSuccessorOrder = %v, %v", o, err)
	}
	if tb, err := ParseTieBreak("max_outcomes_size"); err != nil || tb != TieBreakMaxOutcomesSize {
		t.Errorf("ParseTieBreak = %v, %v", tb, err)
	}

	_, err := ParseAlgorithm("bfs")
	var engineErr *EngineError
	if !errors.As(err, &engineErr) || engineErr.Code != CodeInvalidOption {
		t.Errorf("expected INVALID_OPTION, got %v", err)
	}
	if len(ActionSelections()) != 14 {
		t.Errorf("ActionSelections() has %d values, want 14", len(ActionSelections()))
	}
}

func TestEngineError(t *testing.T) {
	cause := errors.New("disk full")
	err := &EngineError{Message: "saving policy", Code: CodeStoreError, Cause: cause}
	if err.Error() != "STORE_ERROR: saving policy" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause must be reachable through errors.Is")
	}
	if (&EngineError{Message: "plain"}).Error() != "plain" {
		t.Error("an error without code prints its message only")
	}
}
