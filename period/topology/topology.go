// Package topology describes the simulated network and routes flows over it.
//
// Routing converts the topology into a gonum graph with unit edge weights, so
// a shortest path minimises hop count. When several shortest paths exist
// (e.g. one per spine in a leaf-spine fabric) they are ordered
// lexicographically by node id and one is chosen by the caller's hash, the
// way ECMP spreads flows across equal-cost next hops.
package topology

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gopkg.in/yaml.v3"

	"github.com/flowsim/busyperiod/period"
)

// NodeKind is the role of a node in the fabric.
type NodeKind string

const (
	KindHost   NodeKind = "host"
	KindSwitch NodeKind = "switch"
	KindToR    NodeKind = "tor"
	KindSpine  NodeKind = "spine"
)

var validKinds = map[NodeKind]bool{
	KindHost:   true,
	KindSwitch: true,
	KindToR:    true,
	KindSpine:  true,
}

// NodeSpec is one node of a topology description.
type NodeSpec struct {
	ID   period.NodeID `yaml:"id"`
	Kind NodeKind      `yaml:"kind"`
}

// LinkSpec is one cable. Unless Directed is set it carries traffic both ways
// and yields two directed links.
type LinkSpec struct {
	From     period.NodeID `yaml:"from"`
	To       period.NodeID `yaml:"to"`
	Directed bool          `yaml:"directed,omitempty"`
}

// Description is the YAML form of a topology.
type Description struct {
	Name  string     `yaml:"name,omitempty"`
	Nodes []NodeSpec `yaml:"nodes"`
	Links []LinkSpec `yaml:"links"`
}

// Topology is a validated network with cached shortest-path trees.
//
// Thread-safety: NOT thread-safe; the route cache is filled lazily.
type Topology struct {
	name  string
	kinds map[period.NodeID]NodeKind
	links []period.Link
	g     *simple.WeightedDirectedGraph

	cachedSP map[period.NodeID]path.ShortestAlts
}

// LoadFile reads a YAML topology description with strict field checking.
func LoadFile(p string) (*Topology, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}
	var desc Description
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("parsing topology %s: %w", p, err)
	}
	return New(desc)
}

// New validates desc and builds its graph.
func New(desc Description) (*Topology, error) {
	t := &Topology{
		name:     desc.Name,
		kinds:    make(map[period.NodeID]NodeKind, len(desc.Nodes)),
		g:        simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		cachedSP: make(map[period.NodeID]path.ShortestAlts),
	}
	for _, n := range desc.Nodes {
		if !validKinds[n.Kind] {
			return nil, fmt.Errorf("node %d: unknown kind %q", n.ID, n.Kind)
		}
		if _, dup := t.kinds[n.ID]; dup {
			return nil, fmt.Errorf("node %d declared twice", n.ID)
		}
		t.kinds[n.ID] = n.Kind
		t.g.AddNode(simple.Node(n.ID))
	}
	for _, ls := range desc.Links {
		if err := t.addLink(ls.From, ls.To); err != nil {
			return nil, err
		}
		if !ls.Directed {
			if err := t.addLink(ls.To, ls.From); err != nil {
				return nil, err
			}
		}
	}
	slices.SortFunc(t.links, period.CompareLinks)
	return t, nil
}

func (t *Topology) addLink(from, to period.NodeID) error {
	if from == to {
		return fmt.Errorf("link %d->%d is a self loop", from, to)
	}
	for _, id := range []period.NodeID{from, to} {
		if _, ok := t.kinds[id]; !ok {
			return fmt.Errorf("link %d->%d references undeclared node %d", from, to, id)
		}
	}
	if t.g.HasEdgeFromTo(int64(from), int64(to)) {
		return fmt.Errorf("link %d->%d declared twice", from, to)
	}
	t.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(from), T: simple.Node(to), W: 1.0})
	t.links = append(t.links, period.Link{From: from, To: to})
	return nil
}

// Name returns the description's name, if any.
func (t *Topology) Name() string {
	return t.name
}

// Links returns every directed link in ascending order.
func (t *Topology) Links() []period.Link {
	return slices.Clone(t.links)
}

// Kind returns the role of node id.
func (t *Topology) Kind(id period.NodeID) (NodeKind, bool) {
	k, ok := t.kinds[id]
	return k, ok
}

// Hosts returns the host nodes in ascending order.
func (t *Topology) Hosts() []period.NodeID {
	var hosts []period.NodeID
	for id, k := range t.kinds {
		if k == KindHost {
			hosts = append(hosts, id)
		}
	}
	slices.Sort(hosts)
	return hosts
}

// getSPTree returns all shortest paths rooted at from, computing them on first use.
func (t *Topology) getSPTree(from period.NodeID) path.ShortestAlts {
	if sp, ok := t.cachedSP[from]; ok {
		return sp
	}
	sp := path.DijkstraAllFrom(simple.Node(from), t.g)
	t.cachedSP[from] = sp
	return sp
}

// Paths returns every shortest node sequence from src to dst, ordered
// lexicographically by node id.
func (t *Topology) Paths(src, dst period.NodeID) ([][]period.NodeID, error) {
	for _, id := range []period.NodeID{src, dst} {
		if _, ok := t.kinds[id]; !ok {
			return nil, fmt.Errorf("unknown node %d", id)
		}
	}
	if src == dst {
		return [][]period.NodeID{{src}}, nil
	}
	all, weight := t.getSPTree(src).AllTo(int64(dst))
	if len(all) == 0 || math.IsInf(weight, 1) {
		return nil, fmt.Errorf("no path from %d to %d", src, dst)
	}
	paths := make([][]period.NodeID, len(all))
	for i, nodes := range all {
		paths[i] = convertNodeSeq(nodes)
	}
	slices.SortFunc(paths, func(a, b []period.NodeID) int { return slices.Compare(a, b) })
	return paths, nil
}

// Route returns the directed links of one shortest path from src to dst.
// hash picks among equal-cost paths; the same hash always yields the same path.
func (t *Topology) Route(src, dst period.NodeID, hash uint64) ([]period.Link, error) {
	paths, err := t.Paths(src, dst)
	if err != nil {
		return nil, err
	}
	nodes := paths[hash%uint64(len(paths))]
	links := make([]period.Link, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		links = append(links, period.Link{From: nodes[i-1], To: nodes[i]})
	}
	return links, nil
}

func convertNodeSeq(nodes []graph.Node) []period.NodeID {
	out := make([]period.NodeID, len(nodes))
	for i, n := range nodes {
		out[i] = period.NodeID(n.ID())
	}
	return out
}
