package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/ramonpereira/paladinus-sub001/graph/store"
	"github.com/ramonpereira/paladinus-sub001/heuristic"
)

func TestSolveAll(t *testing.T) {
	st := store.NewMemStore()
	jobs := []Job{
		{Name: "retry", Problem: retryProblem(t), Heuristic: heuristic.Blind()},
		{Name: "loop", Problem: loopProblem(t), Kind: heuristic.KindHMax},
		{Name: "chain", Problem: chainProblem(t, 6, false), Kind: heuristic.KindGoalCount},
		{Name: "broken", Kind: heuristic.KindBlind},
	}

	results, err := SolveAll(context.Background(), jobs, WithParallelism(2), WithPolicyStore(st))
	if err != nil {
		t.Fatalf("SolveAll: %v", err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(results), len(jobs))
	}

	want := map[string]Result{"retry": ResultProven, "loop": ResultDisproven, "chain": ResultProven}
	for _, r := range results[:3] {
		if r.Err != nil {
			t.Errorf("%s: %v", r.Job, r.Err)
			continue
		}
		if r.Result.Result != want[r.Job] || r.Result.RunID != r.Job {
			t.Errorf("%s: Result = %v (run %q), want %v", r.Job, r.Result.Result, r.Result.RunID, want[r.Job])
		}
	}
	var engineErr *EngineError
	if !errors.As(results[3].Err, &engineErr) || engineErr.Code != CodeMissingProblem {
		t.Errorf("broken job: expected MISSING_PROBLEM, got %v", results[3].Err)
	}

	saved, err := st.ListPolicies(context.Background(), "")
	if err != nil {
		t.Fatalf("ListPolicies: %v", err)
	}
	if len(saved) != 2 {
		t.Errorf("expected the 2 proven policies to be saved, got %d", len(saved))
	}
	rec, err := st.LoadPolicy(context.Background(), "chain")
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if rec.Problem != "chain-6" || !rec.Valid || len(rec.Entries) != 6 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestSolveAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := SolveAll(ctx, []Job{{Name: "retry", Problem: retryProblem(t), Heuristic: heuristic.Blind()}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(results) != 1 || !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestSolveAll_InvalidOption(t *testing.T) {
	if _, err := SolveAll(context.Background(), nil, WithMaxDepth(-1)); err == nil {
		t.Error("expected an error for an invalid option")
	}
}

type failingStore struct{ store.PolicyStore }

func (failingStore) SavePolicy(context.Context, store.PolicyRecord) error {
	return store.ErrClosed
}

func TestRun_StoreFailure(t *testing.T) {
	e := newEngine(t, retryProblem(t), WithPolicyStore(failingStore{store.NewMemStore()}))
	res, err := e.Run(context.Background(), "")

	var engineErr *EngineError
	if !errors.As(err, &engineErr) || engineErr.Code != CodeStoreError {
		t.Fatalf("expected STORE_ERROR, got %v", err)
	}
	if !errors.Is(err, store.ErrClosed) {
		t.Error("cause must be reachable through errors.Is")
	}
	if res == nil || res.Result != ResultProven || res.Policy == nil {
		t.Errorf("the result must survive a store failure, got %+v", res)
	}
}
