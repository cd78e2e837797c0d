package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ramonpereira/paladinus-sub001/graph"
	"github.com/ramonpereira/paladinus-sub001/graph/store"
	"github.com/ramonpereira/paladinus-sub001/heuristic"
	"github.com/ramonpereira/paladinus-sub001/problem"
)

var (
	configPath string
	noColor    bool

	// overrides holds flag values; only flags the user set are applied.
	overrides Config

	printPolicyFlag bool
	dotPath         string
	simulateSteps   int
	simulateSeed    int64
	runID           string
	showProblem     string

	cfg Config

	rootCmd = &cobra.Command{
		Use:   "paladinus",
		Short: "FOND planner based on iterative depth-first AND-OR search",
		Long: `paladinus computes strong cyclic policies for fully observable and
partially observable non-deterministic planning tasks.

Problems are YAML files or bundled tasks referenced as builtin:<name>.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyOverrides(cmd.Flags(), &loaded, overrides)
			cfg = loaded
			setupColor(noColor)
			return nil
		},
	}

	solveCmd = &cobra.Command{
		Use:   "solve <problem>",
		Short: "Search a policy for one problem",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}

	batchCmd = &cobra.Command{
		Use:   "batch <problem>...",
		Short: "Solve several problems concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}

	showCmd = &cobra.Command{
		Use:   "show [run-id]",
		Short: "List stored policies or print one of them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShow,
	}

	builtinsCmd = &cobra.Command{
		Use:   "builtins",
		Short: "List the bundled problems",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range problem.Builtins() {
				fmt.Fprintln(cmd.OutOrStdout(), "builtin:"+name)
			}
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVar(&overrides.Observability.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&overrides.Observability.LogJSON, "log-json", false, "log as JSON")
	pf.StringVar(&overrides.Store.Driver, "store", "", "policy store (memory, sqlite, mysql)")
	pf.StringVar(&overrides.Store.DSN, "dsn", "", "store file path or data source name")

	for _, cmd := range []*cobra.Command{solveCmd, batchCmd} {
		addSearchFlags(cmd.Flags())
	}
	solveCmd.Flags().BoolVar(&printPolicyFlag, "print-policy", false, "print the policy of a proven run")
	solveCmd.Flags().StringVar(&dotPath, "dot", "", "write the policy as a Graphviz file")
	solveCmd.Flags().IntVar(&simulateSteps, "simulate", 0, "simulate the policy for at most n steps with random outcomes")
	solveCmd.Flags().Int64Var(&simulateSeed, "simulate-seed", 1, "seed of the simulated outcomes")
	solveCmd.Flags().StringVar(&runID, "run-id", "", "run ID (default: a new UUID)")
	batchCmd.Flags().IntVar(&overrides.Parallelism, "parallelism", 0, "concurrent runs (0 runs every problem at once)")
	showCmd.Flags().StringVar(&showProblem, "problem", "", "list the policies of one problem only")

	rootCmd.AddCommand(solveCmd, batchCmd, showCmd, builtinsCmd)
}

func addSearchFlags(fs *pflag.FlagSet) {
	s := &overrides.Search
	fs.StringVarP(&s.Algorithm, "search", "s", "", "search algorithm")
	fs.StringVar(&s.ActionSelection, "action-selection", "", "action selection criterion")
	fs.StringVar(&s.EvaluationCriterion, "evaluation", "", "evaluation criterion (MAX, MIN)")
	fs.StringVar(&s.SuccessorOrder, "order", "", "connector order (SORT, REVERSE, RANDOM)")
	fs.StringVar(&s.TieBreak, "tie-break", "", "tie break criterion")
	fs.StringVarP(&s.Timeout, "timeout", "t", "", "search timeout, for example 30s (none disables it)")
	fs.IntVar(&s.MaxDepth, "max-depth", 0, "recursion depth guard")
	fs.BoolVar(&s.UnitaryBound, "unitary", false, "escalate the bound one unit per round")
	fs.Int64Var(&s.Seed, "seed", 0, "seed of the RANDOM order")
	fs.StringVar(&overrides.Heuristic.Kind, "heuristic", "", "heuristic (BLIND, BLIND_DEADEND, GOAL_COUNT, HMAX)")
	fs.StringVar(&overrides.Heuristic.Strategy, "belief-strategy", "", "belief estimate combination (MAX, ADD, AVERAGE)")
	fs.StringVarP(&overrides.Representation, "representation", "r", "", "state representation (explicit, symbolic)")
	fs.BoolVar(&overrides.Observability.Events, "events", false, "log search events")
	fs.BoolVar(&overrides.Observability.ExpansionEvents, "expansion-events", false, "also log one event per expansion")
	fs.StringVar(&overrides.Observability.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&overrides.Observability.Tracing, "tracing", false, "record OpenTelemetry spans for search events")
}

// applyOverrides copies every flag the user set from src into dst.
func applyOverrides(fs *pflag.FlagSet, dst *Config, src Config) {
	set := func(name string, apply func()) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}
	set("log-level", func() { dst.Observability.LogLevel = src.Observability.LogLevel })
	set("log-json", func() { dst.Observability.LogJSON = src.Observability.LogJSON })
	set("store", func() { dst.Store.Driver = src.Store.Driver })
	set("dsn", func() { dst.Store.DSN = src.Store.DSN })
	set("search", func() { dst.Search.Algorithm = src.Search.Algorithm })
	set("action-selection", func() { dst.Search.ActionSelection = src.Search.ActionSelection })
	set("evaluation", func() { dst.Search.EvaluationCriterion = src.Search.EvaluationCriterion })
	set("order", func() { dst.Search.SuccessorOrder = src.Search.SuccessorOrder })
	set("tie-break", func() { dst.Search.TieBreak = src.Search.TieBreak })
	set("timeout", func() { dst.Search.Timeout = src.Search.Timeout })
	set("max-depth", func() { dst.Search.MaxDepth = src.Search.MaxDepth })
	set("unitary", func() { dst.Search.UnitaryBound = src.Search.UnitaryBound })
	set("seed", func() { dst.Search.Seed = src.Search.Seed })
	set("heuristic", func() { dst.Heuristic.Kind = src.Heuristic.Kind })
	set("belief-strategy", func() { dst.Heuristic.Strategy = src.Heuristic.Strategy })
	set("representation", func() { dst.Representation = src.Representation })
	set("events", func() { dst.Observability.Events = src.Observability.Events })
	set("expansion-events", func() { dst.Observability.ExpansionEvents = src.Observability.ExpansionEvents })
	set("metrics-addr", func() { dst.Observability.MetricsAddr = src.Observability.MetricsAddr })
	set("tracing", func() { dst.Observability.Tracing = src.Observability.Tracing })
	set("parallelism", func() { dst.Parallelism = src.Parallelism })
}

// exitUnsupported is the exit status of a problem that uses a feature the
// selected heuristic cannot handle.
const exitUnsupported = 4

// exitError carries the process exit status of a finished search.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func exitCode(r graph.Result) error {
	switch r {
	case graph.ResultProven:
		return nil
	case graph.ResultDisproven:
		return &exitError{code: 1, msg: "no policy exists"}
	default:
		return &exitError{code: 2, msg: "search timed out"}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func startRuntime() (*runtime, error) {
	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		return nil, err
	}
	return newRuntime(logger, cfg)
}

// loadProblem resolves ref and lifts it to the configured representation.
func loadProblem(ref string) (problemHandle, error) {
	ep, err := problem.Resolve(ref)
	if err != nil {
		return problemHandle{}, err
	}
	repr, err := problem.ParseRepresentation(cfg.Representation)
	if err != nil {
		return problemHandle{}, err
	}
	p, err := problem.Lift(ep, repr)
	if err != nil {
		return problemHandle{}, err
	}
	kind, hopts, err := cfg.heuristicKind()
	if err != nil {
		return problemHandle{}, err
	}
	h, err := heuristic.New(kind, p, hopts...)
	if errors.Is(err, heuristic.ErrUnsupportedAxioms) {
		return problemHandle{}, &exitError{code: exitUnsupported, msg: fmt.Sprintf("%s: %v", ref, err)}
	}
	if err != nil {
		return problemHandle{}, err
	}
	return problemHandle{problem: p, heuristic: h}, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	opts, err := cfg.searchOptions()
	if err != nil {
		return err
	}
	ph, err := loadProblem(args[0])
	if err != nil {
		return err
	}
	rt, err := startRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	engine, err := graph.New(ph.problem, ph.heuristic, rt.options(opts)...)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := signalContext()
	defer cancel()

	rt.logger.Info("search started", "problem", ph.problem.Name(), "algorithm", opts.Algorithm, "heuristic", cfg.Heuristic.Kind)
	res, err := engine.Run(ctx, runID)
	if err != nil {
		var engineErr *graph.EngineError
		if res == nil || !errors.As(err, &engineErr) || engineErr.Code != graph.CodeStoreError {
			return err
		}
		rt.logger.Error("policy not saved", "error", err)
	}

	out := cmd.OutOrStdout()
	printResult(out, ph.problem.Name(), res)
	if res.Result != graph.ResultProven {
		return exitCode(res.Result)
	}

	if printPolicyFlag {
		rec := res.Policy.Record(res, ph.problem.Name(), opts.Algorithm)
		printPolicy(out, rec.Entries)
	}
	if dotPath != "" {
		if err := writeDot(dotPath, res.Policy, engine.Graph()); err != nil {
			return err
		}
		rt.logger.Info("policy written", "path", dotPath)
	}
	if simulateSteps > 0 {
		sim, err := res.Policy.Simulate(engine.Graph(), res.Root, graph.RandomOutcomes(simulateSeed), simulateSteps)
		if err != nil {
			return err
		}
		printSimulation(out, sim)
	}
	return nil
}

func writeDot(path string, p *graph.Policy, g *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := p.WriteDot(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runBatch(cmd *cobra.Command, args []string) error {
	opts, err := cfg.searchOptions()
	if err != nil {
		return err
	}
	jobs := make([]graph.Job, 0, len(args))
	for _, ref := range args {
		ph, err := loadProblem(ref)
		if err != nil {
			return err
		}
		jobs = append(jobs, graph.Job{Problem: ph.problem, Heuristic: ph.heuristic})
	}

	rt, err := startRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results, err := graph.SolveAll(ctx, jobs, rt.options(opts)...)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for i, r := range results {
		if r.Err != nil && r.Result == nil {
			fmt.Fprintf(out, "%s %s: %v\n", failure(), args[i], r.Err)
			failed++
			continue
		}
		if r.Err != nil {
			rt.logger.Error("policy not saved", "problem", args[i], "error", r.Err)
		}
		printResult(out, args[i], r.Result)
		if r.Result.Result != graph.ResultProven {
			failed++
		}
	}
	if failed > 0 {
		return &exitError{code: 1, msg: fmt.Sprintf("%d of %d problems unsolved", failed, len(results))}
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		recs, err := st.ListPolicies(ctx, showProblem)
		if err != nil {
			return err
		}
		printRecords(out, recs)
		return nil
	}

	rec, err := st.LoadPolicy(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no policy stored for run %q", args[0])
	}
	if err != nil {
		return err
	}
	printRecords(out, []store.PolicyRecord{rec})
	fmt.Fprintln(out)
	printPolicy(out, rec.Entries)
	return nil
}
