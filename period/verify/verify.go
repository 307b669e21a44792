// Package verify cross-checks detected busy periods against an independent
// formulation: the connected components of the static overlap graph, where
// two flows are adjacent iff they share a link and are active at a common
// instant (touching intervals excluded, matching the End-before-Start rule).
package verify

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/flowsim/busyperiod/period"
)

// OverlapGraph builds the undirected overlap graph; node ids are flow ids.
func OverlapGraph(flows period.Flows) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for _, id := range flows.IDs() {
		g.AddNode(simple.Node(id))
	}

	byLink := make(map[period.Link][]*period.Flow)
	for _, id := range flows.IDs() {
		f := flows[id]
		for _, l := range f.Links {
			byLink[l] = append(byLink[l], f)
		}
	}
	for _, onLink := range byLink {
		slices.SortStableFunc(onLink, func(a, b *period.Flow) int {
			return cmp.Compare(a.Start, b.Start)
		})
		// sweep in start order keeping flows that may still overlap later ones
		var active []*period.Flow
		for _, f := range onLink {
			kept := active[:0]
			for _, a := range active {
				if a.End > f.Start {
					kept = append(kept, a)
				}
			}
			active = kept
			for _, a := range active {
				if a.Overlaps(f) {
					g.SetEdge(g.NewEdge(simple.Node(a.ID), simple.Node(f.ID)))
				}
			}
			active = append(active, f)
		}
	}
	return g
}

// OverlapComponents returns the flow sets of the overlap graph's connected
// components, each sorted, ordered by their smallest flow id.
func OverlapComponents(flows period.Flows) [][]period.FlowID {
	comps := topo.ConnectedComponents(OverlapGraph(flows))
	out := make([][]period.FlowID, len(comps))
	for i, nodes := range comps {
		ids := make([]period.FlowID, len(nodes))
		for j, n := range nodes {
			ids[j] = period.FlowID(n.ID())
		}
		slices.Sort(ids)
		out[i] = ids
	}
	slices.SortFunc(out, func(a, b []period.FlowID) int {
		return cmp.Compare(a[0], b[0])
	})
	return out
}

// Check verifies that periods are exactly what flows should produce:
// every flow in one period, every period containing its flows in time and
// links, and period membership equal to the overlap components.
func Check(flows period.Flows, periods []period.BusyPeriod) error {
	periodOf := make(map[period.FlowID]int, len(flows))
	for i, p := range periods {
		if p.End < p.Start {
			return fmt.Errorf("period %d ends at %d before it starts at %d", i, p.End, p.Start)
		}
		links := make(map[period.Link]bool, len(p.Links))
		for _, l := range p.Links {
			links[l] = false
		}
		for _, id := range p.Flows {
			f, ok := flows[id]
			if !ok {
				return fmt.Errorf("period %d contains unknown flow %d", i, id)
			}
			if prev, dup := periodOf[id]; dup {
				return fmt.Errorf("flow %d appears in periods %d and %d", id, prev, i)
			}
			periodOf[id] = i
			if f.Start < p.Start || f.End > p.End {
				return fmt.Errorf("period %d [%d,%d] does not contain flow %d [%d,%d]", i, p.Start, p.End, id, f.Start, f.End)
			}
			for _, l := range f.Links {
				if _, ok := links[l]; !ok {
					return fmt.Errorf("period %d is missing link %v of flow %d", i, l, id)
				}
				links[l] = true
			}
		}
		for l, used := range links {
			if !used {
				return fmt.Errorf("period %d reports link %v that none of its flows use", i, l)
			}
		}
	}
	for _, id := range flows.IDs() {
		if _, ok := periodOf[id]; !ok {
			return fmt.Errorf("flow %d is in no period", id)
		}
	}

	for _, comp := range OverlapComponents(flows) {
		want := periodOf[comp[0]]
		for _, id := range comp[1:] {
			if periodOf[id] != want {
				return fmt.Errorf("flows %d and %d are connected but split across periods %d and %d",
					comp[0], id, want, periodOf[id])
			}
		}
		if got := len(periods[want].Flows); got != len(comp) {
			return fmt.Errorf("period %d holds %d flows but its overlap component has %d", want, got, len(comp))
		}
	}
	return nil
}
