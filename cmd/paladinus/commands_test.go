package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonpereira/paladinus-sub001/graph"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--no-color", "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBuiltinsCommand(t *testing.T) {
	out, err := execute(t, "builtins")
	require.NoError(t, err)
	assert.Contains(t, out, "builtin:tireworld")
	assert.Contains(t, out, "builtin:rooms")
}

func TestSolveAndShow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "policies.db")
	dot := filepath.Join(dir, "policy.dot")

	out, err := execute(t, "solve", "builtin:tireworld",
		"--heuristic", "hmax", "--print-policy", "--dot", dot, "--simulate", "20",
		"--run-id", "tire-1", "--store", "sqlite", "--dsn", db)
	require.NoError(t, err)
	assert.Contains(t, out, "PROVEN tireworld (run tire-1)")
	assert.Contains(t, out, "change-tire-l2")
	assert.Contains(t, out, "reached the goal")

	data, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph policy {")

	out, err = execute(t, "show", "--store", "sqlite", "--dsn", db)
	require.NoError(t, err)
	assert.Contains(t, out, "tire-1")
	assert.Contains(t, out, "tireworld")

	out, err = execute(t, "show", "tire-1", "--store", "sqlite", "--dsn", db)
	require.NoError(t, err)
	assert.Contains(t, out, "move-l1-l2")

	_, err = execute(t, "show", "nope", "--store", "sqlite", "--dsn", db)
	assert.Error(t, err)
}

func TestSolve_Unsolvable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stuck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: stuck
variables:
  - name: at
    values: [a, b]
init: {at: a}
goal: {at: b}
operators:
  - name: spin
    pre: {at: a}
    outcomes: [{at: a}]
`), 0o644))

	out, err := execute(t, "solve", path, "--store", "memory", "--heuristic", "blind", "--dot", "")
	var exit *exitError
	require.True(t, errors.As(err, &exit), "got %v", err)
	assert.Equal(t, 1, exit.code)
	assert.Contains(t, out, "DISPROVEN stuck")
}

func TestSolve_BadProblem(t *testing.T) {
	_, err := execute(t, "solve", "builtin:blocksworld")
	require.Error(t, err)
	var exit *exitError
	assert.False(t, errors.As(err, &exit))
}

func TestSolve_UnsupportedAxioms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axioms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: derived
variables:
  - name: at
    values: [a, b]
init: {at: a}
goal: {at: b}
axioms: 1
operators:
  - name: move
    pre: {at: a}
    outcomes: [{at: b}]
`), 0o644))

	_, err := execute(t, "solve", path, "--store", "memory", "--heuristic", "hmax")
	var exit *exitError
	require.True(t, errors.As(err, &exit), "got %v", err)
	assert.Equal(t, exitUnsupported, exit.code)
	assert.Contains(t, exit.msg, "axioms")

	_, err = execute(t, "solve", path, "--store", "memory", "--heuristic", "goal_count")
	assert.NoError(t, err, "goal count handles axioms")

	_, err = execute(t, "solve", filepath.Join(dir, "missing.yaml"), "--store", "memory")
	require.Error(t, err)
	assert.False(t, errors.As(err, &exit), "a missing file is a load error")
}

func TestBatch(t *testing.T) {
	out, err := execute(t, "batch", "builtin:chain", "builtin:rooms",
		"--parallelism", "2", "--heuristic", "goal_count", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "PROVEN builtin:chain")
	assert.Contains(t, out, "PROVEN builtin:rooms")
}

func TestExitCode(t *testing.T) {
	assert.NoError(t, exitCode(graph.ResultProven))

	var exit *exitError
	require.True(t, errors.As(exitCode(graph.ResultDisproven), &exit))
	assert.Equal(t, 1, exit.code)
	require.True(t, errors.As(exitCode(graph.ResultTimeout), &exit))
	assert.Equal(t, 2, exit.code)
}

func TestBatchParallelismFlag(t *testing.T) {
	f := batchCmd.Flags().Lookup("parallelism")
	require.NotNil(t, f)
	assert.Equal(t, "0", f.DefValue)
	assert.Contains(t, f.Usage, "0 runs every problem at once")
}
