package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--config", configPath(t)))
	err := root.Execute()
	return out.String(), err
}

// configPath writes a config that keeps logs at error level.
func configPath(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sleepstat.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log:\n  level: error\n"), 0o644))
	return p
}

func TestDemoThenRun(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sleep.csv")
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "demo", "--rows", "200", "--seed", "9", "--out", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 200 rows")

	out, err = execute(t, "run", "--input", csvPath, "--out-dir", outDir, "--compress", "gzip")
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 4, "%v", names)
	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "sleep_full_regression_report_")
	assert.Contains(t, joined, ".txt.gz")
	assert.Contains(t, joined, "correlation_heatmap_")
	assert.Contains(t, joined, "interaction_plot_")
	assert.Contains(t, joined, "sleep_disorder_probabilities_")
	assert.Equal(t, 4, strings.Count(out, "wrote "))
}

func TestRunWithoutPlots(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sleep.csv")
	_, err := execute(t, "demo", "--rows", "150", "--out", csvPath)
	require.NoError(t, err)

	outDir := filepath.Join(dir, "out")
	_, err = execute(t, "run", "-i", csvPath, "-o", outDir, "--no-plots")
	require.NoError(t, err)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".txt"))
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run", "--input", filepath.Join(dir, "missing.csv"), "--out-dir", dir)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,b\n1,2\n"), 0o644))
	_, err = execute(t, "run", "--input", bad, "--out-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")

	_, err = execute(t, "run", "--input", bad, "--compress", "lz4")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "quality_of_sleep")
	assert.Contains(t, string(b), "fixed_policy: mean")

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err)
	_, err = execute(t, "config", "init", path, "--force")
	assert.NoError(t, err)

	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Compress:none")
}
