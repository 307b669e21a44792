package flowlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsim/busyperiod/period"
)

const sampleFlowLog = `0 10 20 10000 100 4000 1000 500 400
1 11 21 10001 100 8000 1200 900 800

2 12 22 10002 100 1000 5000 100 90
`

const sampleLinkLog = `3
0,10,30,2
0,1,
1,30,20,1
0,
2,30,21,1
1,
`

func TestParseFlowLog_EndIsStartPlusFCT(t *testing.T) {
	flows, err := ParseFlowLog(strings.NewReader(sampleFlowLog))
	require.NoError(t, err)
	require.Len(t, flows, 3)

	assert.Equal(t, int64(1000), flows[0].Start)
	assert.Equal(t, int64(1500), flows[0].End)
	assert.Equal(t, int64(2100), flows[1].End)
	assert.Empty(t, flows[2].Links)
}

func TestParseFlowRecords_KeepsAllColumns(t *testing.T) {
	records, err := ParseFlowRecords(strings.NewReader(sampleFlowLog))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, FlowRecord{
		ID: 1, Src: 11, Dst: 21, SrcPort: 10001, DstPort: 100,
		Size: 8000, Start: 1200, FCT: 900, IdealFCT: 800,
	}, records[1])
}

func TestParseFlowLog_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"too few fields", "0 1 2 3\n", "line 1"},
		{"not a number", "0 1 2 3 4 5 x 7\n", "field 7"},
		{"negative fct", "0 1 2 3 4 5 6 -7\n", "negative fct"},
		{"end overflows", "0 1 2 3 4 5 6 7\n1 1 2 3 4 5 9223372036854775807 5\n", "line 2: flow 1: start 9223372036854775807 + fct 5 overflows"},
		{"duplicate id", "0 1 2 3 4 5 6 7\n0 1 2 3 4 5 8 9\n", "duplicate flow id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlowLog(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLinkLog_ReadsLinksAndMembers(t *testing.T) {
	linkFlows, err := ParseLinkLog(strings.NewReader(sampleLinkLog))
	require.NoError(t, err)

	assert.Equal(t, map[period.Link][]period.FlowID{
		{From: 10, To: 30}: {0, 1},
		{From: 30, To: 20}: {0},
		{From: 30, To: 21}: {1},
	}, linkFlows)
}

func TestParseLinkLog_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty"},
		{"bad count", "x\n", "link count"},
		{"negative count", "-1\n", "line 1: negative link count -1"},
		{"missing link", "2\n0,1,2,1\n5,\n", "expected 2 links"},
		{"count mismatch", "1\n0,1,2,3\n5,6,\n", "declares 3 flows, lists 2"},
		{"bad descriptor", "1\n0,1\n5,\n", "malformed link descriptor"},
		{"missing flow list", "1\n0,1,2,1\n", "no flow list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLinkLog(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssignLinks_CountsUnknownFlows(t *testing.T) {
	flows, err := ParseFlowLog(strings.NewReader(sampleFlowLog))
	require.NoError(t, err)
	linkFlows := map[period.Link][]period.FlowID{
		{From: 1, To: 2}: {0, 1, 99},
	}

	assigned, unknown := AssignLinks(flows, linkFlows)

	assert.Equal(t, 2, assigned)
	assert.Equal(t, 1, unknown)
	assert.Equal(t, []period.Link{{From: 1, To: 2}}, flows[0].Links)
}

func TestDropUnrouted(t *testing.T) {
	flows := period.Flows{
		1: period.NewFlow(1, 0, 1, period.Link{From: 0, To: 1}),
		2: period.NewFlow(2, 0, 1),
	}
	assert.Equal(t, 1, DropUnrouted(flows))
	assert.Len(t, flows, 1)
	assert.Contains(t, flows, period.FlowID(1))
}

func TestWriteLogs_RoundTrip(t *testing.T) {
	records := []FlowRecord{
		{ID: 0, Src: 1, Dst: 2, Size: 100, Start: 10, FCT: 5, IdealFCT: 4},
		{ID: 1, Src: 2, Dst: 1, Size: 200, Start: 12, FCT: 7, IdealFCT: 6},
	}
	linkFlows := map[period.Link][]period.FlowID{
		{From: 1, To: 2}: {0},
		{From: 2, To: 1}: {1},
		{From: 5, To: 6}: {},
	}

	var flowBuf, linkBuf bytes.Buffer
	require.NoError(t, WriteFlowLog(&flowBuf, records))
	require.NoError(t, WriteLinkLog(&linkBuf, linkFlows))

	gotRecords, err := ParseFlowRecords(&flowBuf)
	require.NoError(t, err)
	assert.Equal(t, records, gotRecords)

	gotLinks, err := ParseLinkLog(&linkBuf)
	require.NoError(t, err)
	assert.Equal(t, []period.FlowID{0}, gotLinks[period.Link{From: 1, To: 2}])
	assert.Equal(t, []period.FlowID{1}, gotLinks[period.Link{From: 2, To: 1}])
	assert.Empty(t, gotLinks[period.Link{From: 5, To: 6}])
}

func TestLoadScenario_SkipsUnroutedFlows(t *testing.T) {
	// GIVEN flow 2 appears in no link entry
	dir := t.TempDir()
	flowPath := filepath.Join(dir, "fct.txt")
	linkPath := filepath.Join(dir, "path.txt")
	require.NoError(t, os.WriteFile(flowPath, []byte(sampleFlowLog), 0644))
	require.NoError(t, os.WriteFile(linkPath, []byte(sampleLinkLog), 0644))

	// WHEN the scenario is loaded
	flows, err := LoadScenario(flowPath, linkPath)
	require.NoError(t, err)

	// THEN only routed flows remain, with their links attached
	require.Len(t, flows, 2)
	assert.Equal(t, []period.Link{{From: 10, To: 30}, {From: 30, To: 20}}, flows[0].Links)
	assert.Equal(t, []period.Link{{From: 10, To: 30}, {From: 30, To: 21}}, flows[1].Links)

	periods, err := period.Detect(flows)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, int64(1000), periods[0].Start)
	assert.Equal(t, int64(2100), periods[0].End)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope"), "also-nope")
	assert.ErrorContains(t, err, "opening flow log")
}

func TestSaveScenario_LoadsBack(t *testing.T) {
	records := []FlowRecord{
		{ID: 4, Src: 1, Dst: 3, Size: 100, Start: 10, FCT: 5, IdealFCT: 5},
		{ID: 5, Src: 3, Dst: 1, Size: 200, Start: 12, FCT: 7, IdealFCT: 7},
	}
	linkFlows := map[period.Link][]period.FlowID{
		{From: 1, To: 2}: {4},
		{From: 2, To: 3}: {4},
		{From: 3, To: 2}: {5},
		{From: 2, To: 1}: {5},
	}
	dir := t.TempDir()
	flowPath, linkPath := filepath.Join(dir, "flows.txt"), filepath.Join(dir, "links.txt")

	require.NoError(t, SaveScenario(flowPath, linkPath, records, linkFlows))
	flows, err := LoadScenario(flowPath, linkPath)
	require.NoError(t, err)

	assert.Equal(t, period.NewFlow(4, 10, 15, period.Link{From: 1, To: 2}, period.Link{From: 2, To: 3}), flows[4])
	assert.Equal(t, period.NewFlow(5, 12, 19, period.Link{From: 3, To: 2}, period.Link{From: 2, To: 1}), flows[5])
}

func TestSaveScenario_UnwritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	err := SaveScenario(filepath.Join(dir, "f"), filepath.Join(dir, "l"), nil, nil)
	assert.ErrorContains(t, err, "creating")
}
