package topology

import (
	"fmt"

	"github.com/flowsim/busyperiod/period"
)

// NewTwoTier builds a leaf-spine fabric. Node ids are assigned hosts first
// (rack-major), then top-of-rack switches, then spines. Every ToR connects to
// every spine.
func NewTwoTier(racks, hostsPerRack, spines int) (*Topology, error) {
	if racks < 1 || hostsPerRack < 1 || spines < 1 {
		return nil, fmt.Errorf("two-tier fabric needs positive racks, hosts per rack and spines (got %d, %d, %d)",
			racks, hostsPerRack, spines)
	}
	nrHosts := racks * hostsPerRack
	torBase := nrHosts
	spineBase := torBase + racks

	desc := Description{Name: fmt.Sprintf("two-tier-%dx%dx%d", racks, hostsPerRack, spines)}
	for h := 0; h < nrHosts; h++ {
		desc.Nodes = append(desc.Nodes, NodeSpec{ID: period.NodeID(h), Kind: KindHost})
	}
	for r := 0; r < racks; r++ {
		desc.Nodes = append(desc.Nodes, NodeSpec{ID: period.NodeID(torBase + r), Kind: KindToR})
	}
	for s := 0; s < spines; s++ {
		desc.Nodes = append(desc.Nodes, NodeSpec{ID: period.NodeID(spineBase + s), Kind: KindSpine})
	}

	for h := 0; h < nrHosts; h++ {
		tor := torBase + h/hostsPerRack
		desc.Links = append(desc.Links, LinkSpec{From: period.NodeID(h), To: period.NodeID(tor)})
	}
	for r := 0; r < racks; r++ {
		for s := 0; s < spines; s++ {
			desc.Links = append(desc.Links, LinkSpec{From: period.NodeID(torBase + r), To: period.NodeID(spineBase + s)})
		}
	}
	return New(desc)
}
