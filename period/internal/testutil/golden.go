// Package testutil provides shared test infrastructure for the busy-period
// packages: the golden scenario dataset and float comparison helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/flowsim/busyperiod/period"
)

// GoldenDataset represents the structure of testdata/golden_busy_periods.json.
type GoldenDataset struct {
	Cases []GoldenCase `json:"cases"`
}

// GoldenCase is a hand-checked scenario and the busy periods it must produce,
// in dissolution order.
type GoldenCase struct {
	Name         string              `json:"name"`
	Flows        []GoldenFlow        `json:"flows"`
	Periods      []period.BusyPeriod `json:"periods"`
	MeanDuration float64             `json:"mean_duration"`
}

// GoldenFlow is one flow of a golden case.
type GoldenFlow struct {
	ID    period.FlowID      `json:"id"`
	Start int64              `json:"start"`
	End   int64              `json:"end"`
	Links [][2]period.NodeID `json:"links"`
}

// FlowMap builds the case's flow map.
func (c GoldenCase) FlowMap(t *testing.T) period.Flows {
	t.Helper()
	flows := make(period.Flows, len(c.Flows))
	for _, gf := range c.Flows {
		f := period.NewFlow(gf.ID, gf.Start, gf.End)
		for _, l := range gf.Links {
			f.AddLink(period.Link{From: l[0], To: l[1]})
		}
		if err := flows.Add(f); err != nil {
			t.Fatalf("%s: %v", c.Name, err)
		}
	}
	return flows
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: period/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_busy_periods.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Cases) == 0 {
		t.Fatal("golden dataset has no cases")
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
