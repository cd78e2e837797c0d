package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonpereira/paladinus-sub001/graph"
	"github.com/ramonpereira/paladinus-sub001/graph/store"
	"github.com/ramonpereira/paladinus-sub001/heuristic"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	opts, err := cfg.searchOptions()
	require.NoError(t, err)
	assert.Equal(t, graph.DefaultOptions().Algorithm, opts.Algorithm)
	assert.Equal(t, graph.NoTimeout, opts.Timeout)
	assert.Equal(t, graph.DefaultMaxDepth, opts.MaxDepth)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paladinus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  algorithm: iterative_dfs_learning
  timeout: 90s
  unitary_bound: true
heuristic:
  kind: goal_count
  strategy: average
representation: symbolic
store:
  driver: sqlite
  dsn: runs.db
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "symbolic", cfg.Representation)
	assert.Equal(t, StoreConfig{Driver: "sqlite", DSN: "runs.db"}, cfg.Store)
	assert.Equal(t, "info", cfg.Observability.LogLevel, "unset keys keep their defaults")

	opts, err := cfg.searchOptions()
	require.NoError(t, err)
	assert.Equal(t, graph.AlgorithmIterativeDFSLearning, opts.Algorithm)
	assert.Equal(t, "1m30s", opts.Timeout.String())
	assert.True(t, opts.UnitaryBound)
	assert.Equal(t, graph.SelectMinMaxH, opts.ActionSelection)

	kind, hopts, err := cfg.heuristicKind()
	require.NoError(t, err)
	assert.Equal(t, heuristic.KindGoalCount, kind)
	assert.Len(t, hopts, 2)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [1, 2"), 0o644))
	_, err = loadConfig(path)
	assert.Error(t, err)
}

func TestSearchOptions_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"algorithm", func(c *Config) { c.Search.Algorithm = "BFS" }},
		{"selection", func(c *Config) { c.Search.ActionSelection = "CHEAPEST" }},
		{"criterion", func(c *Config) { c.Search.EvaluationCriterion = "AVG" }},
		{"order", func(c *Config) { c.Search.SuccessorOrder = "SHUFFLE" }},
		{"tie break", func(c *Config) { c.Search.TieBreak = "COIN" }},
		{"timeout", func(c *Config) { c.Search.Timeout = "soon" }},
		{"zero timeout", func(c *Config) { c.Search.Timeout = "0s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := cfg.searchOptions()
			assert.Error(t, err)
		})
	}

	cfg := DefaultConfig()
	cfg.Heuristic.Kind = "lmcut"
	_, _, err := cfg.heuristicKind()
	assert.ErrorIs(t, err, heuristic.ErrUnknownKind)

	cfg = DefaultConfig()
	cfg.Heuristic.Strategy = "median"
	_, _, err = cfg.heuristicKind()
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Observability.LogLevel = "loud"
	_, err = cfg.logLevel()
	assert.Error(t, err)
}

func TestParseTimeout(t *testing.T) {
	for _, s := range []string{"", "none", "OFF"} {
		d, err := parseTimeout(s)
		require.NoError(t, err, s)
		assert.Equal(t, graph.NoTimeout, d, s)
	}
	d, err := parseTimeout("250ms")
	require.NoError(t, err)
	assert.Equal(t, "250ms", d.String())
}

func TestApplyOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var src Config
	fs.StringVar(&src.Search.Algorithm, "search", "", "")
	fs.StringVar(&src.Heuristic.Kind, "heuristic", "", "")
	fs.StringVar(&src.Store.DSN, "dsn", "", "")
	require.NoError(t, fs.Parse([]string{"--search", "DFS", "--heuristic", "blind"}))

	dst := DefaultConfig()
	dst.Store.DSN = "kept.db"
	applyOverrides(fs, &dst, src)

	assert.Equal(t, "DFS", dst.Search.Algorithm)
	assert.Equal(t, "blind", dst.Heuristic.Kind)
	assert.Equal(t, "kept.db", dst.Store.DSN, "unset flags must not override the file")
}

func TestOpenStore(t *testing.T) {
	st, err := openStore(StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, &store.MemStore{}, st)
	require.NoError(t, st.Close())

	st, err = openStore(StoreConfig{Driver: "SQLite", DSN: filepath.Join(t.TempDir(), "p.db")})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = openStore(StoreConfig{Driver: "mysql"})
	assert.Error(t, err)
	_, err = openStore(StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Observability.LogJSON = true
	cfg.Observability.LogLevel = "warn"

	logger, err := newLogger(&buf, cfg)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
