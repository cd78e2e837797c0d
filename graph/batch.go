package graph

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ramonpereira/paladinus-sub001/heuristic"
	"github.com/ramonpereira/paladinus-sub001/state"
)

// Job is one problem of a batch.
type Job struct {
	// Name becomes the run ID of the job; empty names get a UUID.
	Name    string
	Problem state.Problem

	// Heuristic guides the search. When nil, Kind is used to build one.
	Heuristic heuristic.Heuristic
	Kind      heuristic.Kind
}

// JobResult pairs a job with its outcome. Err is set when the engine
// could not be built or the run failed; Result may still be set for a
// store failure after a PROVEN run.
type JobResult struct {
	Job    string
	Result *SearchResult
	Err    error
}

// SolveAll runs one independent engine per job concurrently, at most
// Options.Parallelism at a time (WithParallelism). Every engine stays
// single threaded and owns its own graph; the emitter, metrics and store
// options are shared and must be safe for concurrent use, which all the
// implementations in this module are.
//
// Per-job failures are reported in the JobResult, not as the returned
// error. The returned error is ctx.Err() when ctx was cancelled; jobs not
// started by then are reported with that error.
//
// Results are returned in job order.
func SolveAll(ctx context.Context, jobs []Job, options ...Option) ([]JobResult, error) {
	cfg := &engineConfig{opts: DefaultOptions()}
	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	results := make([]JobResult, len(jobs))
	var g errgroup.Group
	if cfg.opts.Parallelism > 0 {
		g.SetLimit(cfg.opts.Parallelism)
	}
	for i, job := range jobs {
		results[i].Job = job.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Result, results[i].Err = solveJob(ctx, job, options)
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

func solveJob(ctx context.Context, job Job, options []Option) (*SearchResult, error) {
	var (
		engine *Engine
		err    error
	)
	if job.Heuristic != nil {
		engine, err = New(job.Problem, job.Heuristic, options...)
	} else {
		engine, err = NewWithKind(job.Problem, job.Kind, options...)
	}
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	return engine.Run(ctx, job.Name)
}
