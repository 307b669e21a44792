// Package batch analyses independent scenarios in parallel. Each scenario
// gets its own engine; nothing is shared between workers.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flowsim/busyperiod/period"
	"github.com/flowsim/busyperiod/period/flowlog"
	"github.com/flowsim/busyperiod/period/report"
	"github.com/flowsim/busyperiod/period/verify"
)

// Result is the outcome of one scenario.
type Result struct {
	RunID      string
	Scenario   string
	Flows      int
	Periods    []period.BusyPeriod
	Stats      period.Stats
	Summary    *report.Summary
	OutputPath string
	Elapsed    time.Duration
}

// RunScenario loads, analyses and optionally verifies and saves one scenario.
func RunScenario(ctx context.Context, sc Scenario, opts Options, runID string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"run": runID, "scenario": sc.Name})
	began := time.Now()

	flows, err := flowlog.LoadScenario(sc.FlowLog, sc.LinkLog)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	events, err := period.BuildEvents(flows)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	eng := period.NewEngine(
		period.WithInvariantChecks(opts.CheckInvariants),
		period.WithLogger(log),
	)
	periods, err := eng.Run(events)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	if opts.Verify {
		if err := verify.Check(flows, periods); err != nil {
			return nil, fmt.Errorf("scenario %s: verification failed: %w", sc.Name, err)
		}
		log.Debug("verified against overlap components")
	}

	res := &Result{
		RunID:    runID,
		Scenario: sc.Name,
		Flows:    len(flows),
		Periods:  periods,
		Stats:    eng.Stats(),
		Summary:  report.Summarize(periods),
	}
	res.OutputPath = opts.outputPath(sc)
	if res.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(res.OutputPath), 0o755); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		if err := report.SaveFile(res.OutputPath, periods); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	res.Elapsed = time.Since(began)

	log.Infof("%d flows -> %d busy periods (%d components created, peak %d live) in %v",
		res.Flows, len(periods), res.Stats.ComponentsCreated, res.Stats.PeakLive, res.Elapsed)
	return res, nil
}

// Run analyses every scenario of m with up to m.Workers concurrent workers
// (GOMAXPROCS when zero). The first failure cancels the remaining scenarios.
// Results are returned in manifest order.
func Run(ctx context.Context, m *Manifest) ([]*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	workers := m.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	runID := uuid.NewString()
	logrus.Infof("batch %s: %d scenarios on %d workers", runID, len(m.Scenarios), workers)

	results := make([]*Result, len(m.Scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, sc := range m.Scenarios {
		i, sc := i, sc
		g.Go(func() error {
			res, err := RunScenario(ctx, sc, m.Options, runID)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch %s: %w", runID, err)
	}
	return results, nil
}
