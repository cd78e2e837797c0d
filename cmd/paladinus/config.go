package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ramonpereira/paladinus-sub001/graph"
	"github.com/ramonpereira/paladinus-sub001/heuristic"
	"github.com/ramonpereira/paladinus-sub001/problem"
)

// Config is the YAML configuration of the planner. Flags given on the
// command line override the file.
type Config struct {
	Search         SearchConfig        `yaml:"search"`
	Heuristic      HeuristicConfig     `yaml:"heuristic"`
	Representation string              `yaml:"representation"`
	Store          StoreConfig         `yaml:"store"`
	Observability  ObservabilityConfig `yaml:"observability"`
	Parallelism    int                 `yaml:"parallelism"`
}

type SearchConfig struct {
	Algorithm           string `yaml:"algorithm"`
	ActionSelection     string `yaml:"action_selection"`
	EvaluationCriterion string `yaml:"evaluation_criterion"`
	SuccessorOrder      string `yaml:"successor_order"`
	TieBreak            string `yaml:"tie_break"`

	// Timeout is a Go duration; empty or "none" disables it.
	Timeout      string `yaml:"timeout"`
	MaxDepth     int    `yaml:"max_depth"`
	UnitaryBound bool   `yaml:"unitary_bound"`
	Seed         int64  `yaml:"seed"`
}

type HeuristicConfig struct {
	Kind       string `yaml:"kind"`
	Strategy   string `yaml:"strategy"`
	WorldLimit int    `yaml:"world_limit"`
}

// StoreConfig selects where proven policies are saved. Driver is one of
// memory, sqlite or mysql; DSN is the file path or data source name.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ObservabilityConfig struct {
	LogLevel        string `yaml:"log_level"`
	LogJSON         bool   `yaml:"log_json"`
	Events          bool   `yaml:"events"`
	ExpansionEvents bool   `yaml:"expansion_events"`
	MetricsAddr     string `yaml:"metrics_addr"`
	Tracing         bool   `yaml:"tracing"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	d := graph.DefaultOptions()
	return Config{
		Search: SearchConfig{
			Algorithm:           string(d.Algorithm),
			ActionSelection:     string(d.ActionSelection),
			EvaluationCriterion: string(d.EvaluationCriterion),
			SuccessorOrder:      string(d.SuccessorOrder),
			TieBreak:            string(d.TieBreak),
			Timeout:             "none",
			MaxDepth:            d.MaxDepth,
		},
		Heuristic: HeuristicConfig{
			Kind:       string(heuristic.KindHMax),
			Strategy:   string(heuristic.StrategyMax),
			WorldLimit: 256,
		},
		Representation: string(problem.Explicit),
		Store:          StoreConfig{Driver: "memory"},
		Observability:  ObservabilityConfig{LogLevel: "info"},
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, nil
}

func parseTimeout(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return graph.NoTimeout, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("a timeout of %v does not make sense", d)
	}
	return d, nil
}

// searchOptions resolves the search section into engine options.
func (c Config) searchOptions() (graph.Options, error) {
	o := graph.DefaultOptions()
	var err error
	if o.Algorithm, err = graph.ParseAlgorithm(c.Search.Algorithm); err != nil {
		return o, err
	}
	if o.ActionSelection, err = graph.ParseActionSelection(c.Search.ActionSelection); err != nil {
		return o, err
	}
	if o.EvaluationCriterion, err = graph.ParseEvaluationCriterion(c.Search.EvaluationCriterion); err != nil {
		return o, err
	}
	if o.SuccessorOrder, err = graph.ParseSuccessorOrder(c.Search.SuccessorOrder); err != nil {
		return o, err
	}
	if o.TieBreak, err = graph.ParseTieBreak(c.Search.TieBreak); err != nil {
		return o, err
	}
	if o.Timeout, err = parseTimeout(c.Search.Timeout); err != nil {
		return o, err
	}
	if c.Search.MaxDepth != 0 {
		o.MaxDepth = c.Search.MaxDepth
	}
	o.UnitaryBound = c.Search.UnitaryBound
	o.Seed = c.Search.Seed
	o.ExpansionEvents = c.Observability.ExpansionEvents
	o.Parallelism = c.Parallelism
	return o, nil
}

// heuristicKind resolves the heuristic section.
func (c Config) heuristicKind() (heuristic.Kind, []heuristic.Option, error) {
	kind, err := heuristic.ParseKind(c.Heuristic.Kind)
	if err != nil {
		return "", nil, err
	}
	var opts []heuristic.Option
	if c.Heuristic.Strategy != "" {
		s, err := heuristic.ParseStrategy(c.Heuristic.Strategy)
		if err != nil {
			return "", nil, err
		}
		opts = append(opts, heuristic.WithStrategy(s))
	}
	if c.Heuristic.WorldLimit != 0 {
		opts = append(opts, heuristic.WithWorldLimit(c.Heuristic.WorldLimit))
	}
	return kind, opts, nil
}

func (c Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Observability.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Observability.LogLevel)
	}
	return level, nil
}
