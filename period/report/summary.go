package report

import (
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/slices"

	"github.com/flowsim/busyperiod/period"
)

// Summary aggregates statistics over a set of busy periods.
type Summary struct {
	Periods      int
	Flows        int // total flows across periods
	Links        int // distinct links across periods
	MeanDuration float64
	MaxDuration  int64
	P50Duration  float64
	P99Duration  float64
	MeanFlows    float64
	MaxFlows     int
	MeanLinks    float64
	MaxLinks     int
	LongestStart int64 // start of the longest period (earliest on ties)
	Span         int64 // last end - first start
}

// Summarize computes aggregate statistics.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(periods []period.BusyPeriod) *Summary {
	s := &Summary{}
	if len(periods) == 0 {
		return s
	}
	s.Periods = len(periods)

	links := make(map[period.Link]struct{})
	durations := make([]int64, 0, len(periods))
	first, last := int64(math.MaxInt64), int64(math.MinInt64)
	var totalDuration, totalLinks int64
	for i, p := range periods {
		d := p.Duration()
		durations = append(durations, d)
		totalDuration += d
		if i == 0 || d > s.MaxDuration || (d == s.MaxDuration && p.Start < s.LongestStart) {
			s.MaxDuration = d
			s.LongestStart = p.Start
		}

		s.Flows += len(p.Flows)
		if len(p.Flows) > s.MaxFlows {
			s.MaxFlows = len(p.Flows)
		}
		totalLinks += int64(len(p.Links))
		if len(p.Links) > s.MaxLinks {
			s.MaxLinks = len(p.Links)
		}
		for _, l := range p.Links {
			links[l] = struct{}{}
		}
		first = min(first, p.Start)
		last = max(last, p.End)
	}
	n := float64(len(periods))
	s.Links = len(links)
	s.MeanDuration = float64(totalDuration) / n
	s.MeanFlows = float64(s.Flows) / n
	s.MeanLinks = float64(totalLinks) / n
	s.Span = last - first

	slices.Sort(durations)
	s.P50Duration = Percentile(durations, 50)
	s.P99Duration = Percentile(durations, 99)
	return s
}

// Percentile returns the p-th percentile of sorted data with linear
// interpolation between closest ranks. Returns 0 for empty data.
func Percentile(sorted []int64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if upperIdx >= n {
		return float64(sorted[n-1])
	}
	if lowerIdx == upperIdx {
		return float64(sorted[lowerIdx])
	}
	lowerVal, upperVal := sorted[lowerIdx], sorted[upperIdx]
	return float64(lowerVal) + float64(upperVal-lowerVal)*(rank-float64(lowerIdx))
}

// Print displays the summary.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Busy Periods ===")
	fmt.Fprintf(w, "Busy Periods         : %d\n", s.Periods)
	fmt.Fprintf(w, "Flows                : %d\n", s.Flows)
	fmt.Fprintf(w, "Distinct Links       : %d\n", s.Links)
	if s.Periods > 0 {
		fmt.Fprintf(w, "Mean Duration        : %.2f ticks\n", s.MeanDuration)
		fmt.Fprintf(w, "P50 / P99 Duration   : %.2f / %.2f ticks\n", s.P50Duration, s.P99Duration)
		fmt.Fprintf(w, "Longest Period       : %d ticks (from %d)\n", s.MaxDuration, s.LongestStart)
		fmt.Fprintf(w, "Mean / Max Flows     : %.2f / %d\n", s.MeanFlows, s.MaxFlows)
		fmt.Fprintf(w, "Mean / Max Links     : %.2f / %d\n", s.MeanLinks, s.MaxLinks)
		fmt.Fprintf(w, "Span                 : %d ticks\n", s.Span)
	}
}
