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

const testModel = `
name: forest
sense: maximize
variables:
  - name: harv(aspen,north,1)
    obj: 12
    upper: 10
  - name: harv(aspen,north,2)
    obj: 11
    upper: 10
  - name: age(north,1)
    upper: 100
  - name: age(north,2)
    upper: 100
constraints:
  - name: harv(north,2)
    vars: [harv(aspen,north,2)]
    sense: "<="
    rhs: 12
  - name: env(north,2)
    vars: [age(north,2)]
    sense: ">="
    rhs: 20
`

const testPlan = `
description: shrink and resolve
modules: [analysis]
steps:
  - call: analysis.solve
  - call: analysis.remove_last_period
  - call: analysis.solve
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, nil, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_PlanAgainstModel(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "forest.yaml", testModel)
	planPath := writeFile(t, dir, "plan.yaml", testPlan)
	snapDir := filepath.Join(dir, "snaps")

	code, stdout, stderr := execute(t,
		"run", "--model", model, "--plan", planPath, "--snapshot-dir", snapDir)

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "solves:     2")
	assert.Contains(t, stdout, "optimal:    true")
	assert.Contains(t, stdout, "operations: 1 recorded")
	assert.Contains(t, stdout, "Snapshot saved as")

	// Two solve snapshots plus the final state snapshot.
	entries, err := os.ReadDir(snapDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRun_MissingModel(t *testing.T) {
	code, _, stderr := execute(t, "run")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "a model is required")
}

func TestRun_ModelFileAbsent(t *testing.T) {
	code, _, stderr := execute(t,
		"run", "--model", filepath.Join(t.TempDir(), "absent.yaml"),
		"--snapshot-dir", t.TempDir())
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Error:")
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, stderr := execute(t, "run", "--fast")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown flag")
}

func TestReplay_RestoresSnapshot(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "forest.yaml", testModel)
	planPath := writeFile(t, dir, "plan.yaml", testPlan)
	snapDir := filepath.Join(dir, "snaps")

	code, stdout, stderr := execute(t,
		"run", "--model", model, "--plan", planPath, "--snapshot-dir", snapDir)
	require.Equal(t, 0, code, stderr)

	var location string
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, "Snapshot saved as ") {
			location = strings.TrimPrefix(line, "Snapshot saved as ")
		}
	}
	require.NotEmpty(t, location)

	code, stdout, stderr = execute(t, "replay", location, "--snapshot-dir", snapDir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "operations: 1 recorded")
	// Restore bumps the counter past the stored value.
	assert.Contains(t, stdout, "solves:     3")
}

func TestReplay_MissingSnapshot(t *testing.T) {
	code, _, stderr := execute(t, "replay",
		filepath.Join(t.TempDir(), "absent.json"), "--snapshot-dir", t.TempDir())
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "snapshot not found")
}

func TestSnapshots_ListEmpty(t *testing.T) {
	code, stdout, _ := execute(t, "snapshots", "--snapshot-dir", t.TempDir())
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "No snapshots found.")
}

func TestSnapshots_ListAndShow(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "forest.yaml", testModel)
	snapDir := filepath.Join(dir, "snaps")

	code, _, stderr := execute(t, "run", "--model", model, "--snapshot-dir", snapDir)
	require.Equal(t, 0, code, stderr)

	code, stdout, _ := execute(t, "snapshots", "list", "--snapshot-dir", snapDir)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "model="+model)

	location := strings.Fields(strings.Split(stdout, "\n")[0])[0]
	code, stdout, _ = execute(t, "snapshots", "show", location, "--snapshot-dir", snapDir)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "model:       "+model)
}

func TestSnapshots_PruneInvalidDays(t *testing.T) {
	code, _, stderr := execute(t, "snapshots", "prune", "soon", "--snapshot-dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid day count")
}

func TestSnapshots_UnknownAction(t *testing.T) {
	code, _, stderr := execute(t, "snapshots", "wipe", "--snapshot-dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown snapshots action")
}
