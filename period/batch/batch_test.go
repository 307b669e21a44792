package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsim/busyperiod/period"
	"github.com/flowsim/busyperiod/period/flowgen"
	"github.com/flowsim/busyperiod/period/flowlog"
	"github.com/flowsim/busyperiod/period/report"
	"github.com/flowsim/busyperiod/period/topology"
)

// writeScenario generates a workload with the given seed and writes its logs
// into dir as <name>.fct and <name>.links.
func writeScenario(t *testing.T, dir, name string, seed int64) (*flowgen.Workload, Scenario) {
	t.Helper()
	topo, err := topology.NewTwoTier(2, 4, 2)
	require.NoError(t, err)
	cfg := flowgen.DefaultConfig()
	cfg.Seed = seed
	cfg.Flows = 150
	wl, err := flowgen.Generate(cfg, topo)
	require.NoError(t, err)

	sc := Scenario{
		Name:    name,
		FlowLog: filepath.Join(dir, name+".fct"),
		LinkLog: filepath.Join(dir, name+".links"),
	}
	require.NoError(t, flowlog.SaveScenario(sc.FlowLog, sc.LinkLog, wl.Records, wl.LinkFlows))
	return wl, sc
}

func TestRun_ResultsInManifestOrder(t *testing.T) {
	// GIVEN three scenarios and two workers
	dir := t.TempDir()
	m := &Manifest{Workers: 2, Options: Options{OutputDir: filepath.Join(dir, "out"), Verify: true}}
	workloads := make(map[string]*flowgen.Workload)
	for i, name := range []string{"c", "a", "b"} {
		wl, sc := writeScenario(t, dir, name, int64(i+1))
		workloads[name] = wl
		m.Scenarios = append(m.Scenarios, sc)
	}

	// WHEN the batch runs
	results, err := Run(context.Background(), m)
	require.NoError(t, err)

	// THEN results follow the manifest and match a direct detection
	require.Len(t, results, 3)
	runID := results[0].RunID
	_, err = uuid.Parse(runID)
	require.NoError(t, err, "run id is a uuid")
	for i, res := range results {
		sc := m.Scenarios[i]
		assert.Equal(t, sc.Name, res.Scenario)
		assert.Equal(t, runID, res.RunID, "one run id per batch")

		want, err := period.Detect(workloads[sc.Name].Flows)
		require.NoError(t, err)
		assert.Equal(t, want, res.Periods)
		assert.Equal(t, len(want), res.Summary.Periods)

		assert.Equal(t, filepath.Join(m.OutputDir, sc.Name+".json"), res.OutputPath)
		saved, err := report.LoadFile(res.OutputPath)
		require.NoError(t, err)
		assert.Equal(t, want, saved)
	}
}

func TestRun_FailingScenarioAbortsBatch(t *testing.T) {
	dir := t.TempDir()
	_, good := writeScenario(t, dir, "good", 7)
	bad := Scenario{Name: "broken", FlowLog: filepath.Join(dir, "missing.fct"), LinkLog: good.LinkLog}
	m := &Manifest{Workers: 1, Scenarios: []Scenario{good, bad}}

	results, err := Run(context.Background(), m)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "scenario broken")
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	_, sc := writeScenario(t, dir, "only", 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &Manifest{Scenarios: []Scenario{sc}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunScenario_ExplicitOutputWins(t *testing.T) {
	dir := t.TempDir()
	_, sc := writeScenario(t, dir, "one", 5)
	sc.Output = filepath.Join(dir, "explicit.json")

	res, err := RunScenario(context.Background(), sc, Options{OutputDir: filepath.Join(dir, "ignored")}, "test")
	require.NoError(t, err)
	assert.Equal(t, sc.Output, res.OutputPath)
	assert.FileExists(t, sc.Output)
	assert.NoFileExists(t, filepath.Join(dir, "ignored", "one.json"))
	assert.Positive(t, res.Stats.ComponentsCreated)
}

func TestLoadManifest_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	content := `workers: 3
output_dir: results
verify: true
scenarios:
  - name: s1
    flow_log: logs/s1.fct
    link_log: /abs/s1.links
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Workers)
	assert.True(t, m.Verify)
	assert.Equal(t, filepath.Join(dir, "results"), m.OutputDir)
	require.Len(t, m.Scenarios, 1)
	assert.Equal(t, filepath.Join(dir, "logs", "s1.fct"), m.Scenarios[0].FlowLog)
	assert.Equal(t, "/abs/s1.links", m.Scenarios[0].LinkLog)
	assert.Empty(t, m.Scenarios[0].Output)
}

func TestLoadManifest_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "scenarios:\n  - name: a\n    flow_log: f\n    link_log: l\n    flows: f\n"},
		{"no scenarios", "workers: 2\n"},
		{"duplicate name", "scenarios:\n  - {name: a, flow_log: f, link_log: l}\n  - {name: a, flow_log: f, link_log: l}\n"},
		{"missing link log", "scenarios:\n  - {name: a, flow_log: f}\n"},
		{"unnamed", "scenarios:\n  - {flow_log: f, link_log: l}\n"},
		{"name escapes output dir", "output_dir: out\nscenarios:\n  - {name: ../x, flow_log: f, link_log: l}\n"},
		{"name is a path", "scenarios:\n  - {name: a/b, flow_log: f, link_log: l}\n"},
		{"shared explicit output", "scenarios:\n  - {name: a, flow_log: f, link_log: l, output: same.json}\n  - {name: b, flow_log: f, link_log: l, output: ./same.json}\n"},
		{"explicit output hits default", "output_dir: out\nscenarios:\n  - {name: a, flow_log: f, link_log: l}\n  - {name: b, flow_log: f, link_log: l, output: out/a.json}\n"},
		{"negative workers", "workers: -1\nscenarios:\n  - {name: a, flow_log: f, link_log: l}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			_, err := LoadManifest(path)
			assert.Error(t, err)
		})
	}
}

func TestRun_RejectsSharedOutputBeforeWriting(t *testing.T) {
	// GIVEN two scenarios that would write the same file
	dir := t.TempDir()
	_, a := writeScenario(t, dir, "a", 1)
	_, b := writeScenario(t, dir, "b", 2)
	a.Output = filepath.Join(dir, "periods.json")
	b.Output = a.Output

	// WHEN the batch runs
	_, err := Run(context.Background(), &Manifest{Scenarios: []Scenario{a, b}})

	// THEN it fails up front and nothing is written
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both write")
	assert.NoFileExists(t, a.Output)
}
