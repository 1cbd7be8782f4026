package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const laughGrammar = "Mary :: d -k; laughs :: =d +k t; laughed :: =d +k t; jumps :: =d +k t; jumped :: =d +k t;"

// run executes the root command against an in-memory store and a fresh
// data directory, returning stdout and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	configPath, storeFlag, dataDir, logLevel, logFormat = "", "", "", "", ""
	buildJSON, showScores = false, false
	affixFlag, splitFlag, indicesFlag = "", 0, nil
	pathFrom, pathTo = "d", "t"

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--store", "memory", "--data-dir", dir, "--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeGrammar(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "grammar.mg")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, "Mary :: d -k; laughs :: =d +k t; oops;")

	out, errOut, err := run(t, dir, "build", file)
	require.NoError(t, err)
	assert.Contains(t, out, "laughs :: =d +k t;")
	assert.Contains(t, out, "2 items, 2 nodes, 1 edges (memory store)")
	assert.Contains(t, errOut, "oops", "parse diagnostics go to stderr")

	_, err = os.Stat(filepath.Join(dir, "recent.json"))
	assert.NoError(t, err, "building records the recent grammar")
}

func TestBuild_JSON(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, "laughs :: =d t;")

	out, _, err := run(t, dir, "build", "--json", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"morph": "laughs"`)
	assert.Contains(t, out, `"rel": "LMerge"`)
}

func TestBuild_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, dir, "build", filepath.Join(dir, "nope.mg"))
	assert.ErrorContains(t, err, "read grammar")
}

func TestUnknownStore(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)
	_, _, err := run(t, dir, "build", file, "--store", "redis")
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	out, _, err := run(t, dir, "inspect", file, "$.items[*].morph")
	require.NoError(t, err)
	for _, morph := range []string{"Mary", "laughs", "laughed", "jumps", "jumped"} {
		assert.Contains(t, out, morph)
	}
}

func TestSuggest(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	out, _, err := run(t, dir, "suggest", file)
	require.NoError(t, err)
	assert.Contains(t, out, "-s\t[1 3]")
	assert.Contains(t, out, "-ed\t[2 4]")
	assert.Contains(t, out, "laugh-\t[1 2]")
}

func TestSuggest_Scores(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	out, _, err := run(t, dir, "suggest", "--scores", file)
	require.NoError(t, err)
	assert.Contains(t, out, "jump-\n")
	assert.Contains(t, out, "jumps")
}

func TestDecompose_FromSuggestions(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	out, _, err := run(t, dir, "decompose", file, "--affix=-s", "--split", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "laugh :: =d :-s;")
	assert.Contains(t, out, "-s :: =>:-s +k t;")
	assert.Contains(t, out, "mdl ")
}

func TestDecompose_InvalidAffix(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	_, _, err := run(t, dir, "decompose", file, "--affix", "s", "--indices", "1")
	assert.Error(t, err)
}

func TestSize(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	out, _, err := run(t, dir, "size", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"n_features"`)
	assert.Contains(t, out, `"mdl"`)
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	out, _, err := run(t, dir, "paths", file)
	require.NoError(t, err)
	assert.Contains(t, out, "all paths d -> t:")
	assert.Contains(t, out, "  laughed\n")
	assert.Contains(t, out, "shortest:")
}

func TestCollection(t *testing.T) {
	dir := t.TempDir()
	file := writeGrammar(t, dir, laughGrammar)

	out, _, err := run(t, dir, "collection", "save", file, "--title", "English verbs", "--lang", "en")
	require.NoError(t, err)
	assert.Contains(t, out, `saved "English verbs" (5 items)`)

	out, _, err = run(t, dir, "collection", "list")
	require.NoError(t, err)
	assert.Equal(t, "English verbs\ten\t5 items\n", out)

	out, _, err = run(t, dir, "collection", "show", "English verbs")
	require.NoError(t, err)
	assert.Contains(t, out, "jumped :: =d +k t;")

	_, _, err = run(t, dir, "collection", "show", "missing")
	assert.ErrorContains(t, err, "no example titled")
}
