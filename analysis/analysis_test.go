package analysis

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewBMartin/MetaModel/backend"
	"github.com/AndrewBMartin/MetaModel/backend/memory"
	"github.com/AndrewBMartin/MetaModel/metamodel"
)

const forestFixture = `
name: forest
sense: maximize
variables:
  - name: harv(aspen,north,1)
    obj: 12
    upper: 10
  - name: harv(aspen,north,2)
    obj: 11
    upper: 10
  - name: harv(aspen,north,3)
    obj: 10
    upper: 10
  - name: harv(spruce,south,3)
    obj: 9
    upper: 8
  - name: age(north,1)
    upper: 100
  - name: age(north,2)
    upper: 100
  - name: age(north,3)
    upper: 100
constraints:
  - name: harv(north,1)
    vars: [harv(aspen,north,1)]
    sense: "<="
    rhs: 12
  - name: harv(north,3)
    vars: [harv(aspen,north,3)]
    sense: "<="
    rhs: 12
  - name: age(north,3)
    vars: [age(north,3)]
    sense: ">="
    rhs: 5
  - name: env(north,3)
    vars: [age(north,3)]
    sense: ">="
    rhs: 20
`

func writeForest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(forestFixture), 0644))
	return path
}

func newForestWrapper(t *testing.T, dir string) *metamodel.MetaModel {
	t.Helper()
	m, err := metamodel.New(writeForest(t),
		metamodel.WithBackend(memory.New()),
		metamodel.WithSnapshotDir(dir),
		metamodel.WithModules(ModuleName),
	)
	require.NoError(t, err)
	return m
}

func periods(t *testing.T, m backend.Model, family string) map[float64]bool {
	t.Helper()
	vars, err := m.Variables(family)
	require.NoError(t, err)
	out := make(map[float64]bool)
	for _, v := range vars {
		idx, err := backend.TrailingIndex(v.Name)
		require.NoError(t, err)
		out[idx] = true
	}
	return out
}

func TestRemoveLastPeriod_DropsMaxPeriodOnly(t *testing.T) {
	m := newForestWrapper(t, t.TempDir())

	_, err := m.Invoke("analysis.remove_last_period", nil, nil, true)
	require.NoError(t, err)

	assert.Equal(t, map[float64]bool{1: true, 2: true}, periods(t, m.Model(), "harv"))
	assert.Equal(t, map[float64]bool{1: true, 2: true}, periods(t, m.Model(), "age"))

	env, err := m.Model().Constraints("env")
	require.NoError(t, err)
	assert.Empty(t, env)

	harvCons, err := m.Model().Constraints("harv")
	require.NoError(t, err)
	require.Len(t, harvCons, 1)
	assert.Equal(t, "harv(north,1)", harvCons[0].Name)

	// The operation is mutating and recorded.
	log := m.Log()
	require.Len(t, log, 1)
	assert.Equal(t, "analysis.remove_last_period", log[0].Name)
}

func TestSolve_UpdatesStateAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	m := newForestWrapper(t, dir)

	stemBefore := m.Filename()

	result, err := m.Invoke("analysis.solve", nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "optimal", result)

	assert.True(t, m.Optimal())
	assert.Equal(t, 1, m.SolveCount())
	assert.NotEqual(t, stemBefore, m.Filename())

	// Solve snapshots its own effects and stays off the command log.
	assert.Empty(t, m.Log())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, stemBefore+".json", entries[0].Name())
}

func TestSolve_RepeatedSolvesNeverOverwriteSnapshots(t *testing.T) {
	dir := t.TempDir()
	m := newForestWrapper(t, dir)

	for i := 0; i < 3; i++ {
		_, err := m.Invoke("analysis.solve", nil, nil, true)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSolve_ExportsSolutionWhenAsked(t *testing.T) {
	dir := t.TempDir()
	m := newForestWrapper(t, dir)

	out := filepath.Join(dir, "solution.csv")
	_, err := m.Invoke("analysis.solve", nil, map[string]any{"log": out}, true)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Harvest data")
	assert.Contains(t, text, "Age data")
	assert.Contains(t, text, "category,region,period,value")
	assert.Contains(t, text, "aspen,north,1,10")
	assert.Contains(t, text, "spruce,south,3,8")
}

func TestSolve_RejectsNonStringLogKwarg(t *testing.T) {
	m := newForestWrapper(t, t.TempDir())

	_, err := m.Invoke("analysis.solve", nil, map[string]any{"log": 7}, true)
	assert.ErrorIs(t, err, metamodel.ErrInvocation)
}

func TestZeroObjectiveCoeffs(t *testing.T) {
	m := newForestWrapper(t, t.TempDir())

	_, err := m.Invoke("analysis.zero_objective_coeffs", nil, nil, true)
	require.NoError(t, err)

	vars, err := m.Model().Variables("")
	require.NoError(t, err)
	for _, v := range vars {
		assert.Zero(t, v.Obj, v.Name)
	}
}

func TestSetVariablesAttr(t *testing.T) {
	m := newForestWrapper(t, t.TempDir())

	_, err := m.Invoke("analysis.set_variables_attr", []any{"obj", 1, "age"}, nil, true)
	require.NoError(t, err)

	age, err := m.Model().Variables("age")
	require.NoError(t, err)
	for _, v := range age {
		assert.Equal(t, 1.0, v.Obj, v.Name)
	}

	harv, err := m.Model().Variables("harv")
	require.NoError(t, err)
	for _, v := range harv {
		assert.NotZero(t, v.Obj, v.Name)
	}
}

func TestSetVariablesAttr_ArgumentMismatch(t *testing.T) {
	m := newForestWrapper(t, t.TempDir())

	_, err := m.Invoke("analysis.set_variables_attr", []any{"obj"}, nil, true)
	assert.ErrorIs(t, err, metamodel.ErrInvocation)

	_, err = m.Invoke("analysis.set_variables_attr", []any{"obj", "high", "age"}, nil, true)
	assert.ErrorIs(t, err, metamodel.ErrInvocation)
}

// Restoring a snapshot replays the recorded transformations against a
// freshly loaded model, reproducing the edited horizon.
func TestSnapshotRestore_ReplaysModelEdits(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeForest(t)

	m, err := metamodel.New(modelPath,
		metamodel.WithBackend(memory.New()),
		metamodel.WithSnapshotDir(dir),
		metamodel.WithModules(ModuleName),
		metamodel.WithClock(func() time.Time {
			return time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
		}),
	)
	require.NoError(t, err)

	_, err = m.Invoke("analysis.remove_last_period", nil, nil, true)
	require.NoError(t, err)
	_, err = m.Invoke("analysis.zero_objective_coeffs", nil, nil, true)
	require.NoError(t, err)

	location, err := m.TakeSnapshot()
	require.NoError(t, err)

	restored, err := metamodel.FromSnapshot(location,
		metamodel.WithBackend(memory.New()),
		metamodel.WithSnapshotDir(dir),
	)
	require.NoError(t, err)

	assert.Equal(t, map[float64]bool{1: true, 2: true}, periods(t, restored.Model(), "harv"))

	vars, err := restored.Model().Variables("")
	require.NoError(t, err)
	for _, v := range vars {
		assert.Zero(t, v.Obj, v.Name)
	}

	assert.Equal(t, m.Log(), restored.Log())
}
