package period

import "golang.org/x/exp/slices"

// ComponentID names a live component. Ids are allocated from 1 upward and
// never reused; 0 means "no component".
type ComponentID uint64

const noComponent ComponentID = 0

type flowSet map[FlowID]struct{}

// component is one connected cluster of flows and the links they occupy.
type component struct {
	id    ComponentID
	start int64

	activeLinks map[Link]flowSet // only links with at least one active flow
	allLinks    map[Link]struct{}
	activeFlows flowSet
	allFlows    flowSet
}

func newComponent(id ComponentID, start int64) *component {
	return &component{
		id:          id,
		start:       start,
		activeLinks: make(map[Link]flowSet),
		allLinks:    make(map[Link]struct{}),
		activeFlows: make(flowSet),
		allFlows:    make(flowSet),
	}
}

// absorb unions o into c. It returns the first link (in link order) that both
// components hold as active, which means the link index had been corrupted.
func (c *component) absorb(o *component) (Link, bool) {
	for _, l := range sortedLinks(o.activeLinks) {
		if _, clash := c.activeLinks[l]; clash {
			return l, true
		}
	}
	if o.start < c.start {
		c.start = o.start
	}
	for l, flows := range o.activeLinks {
		set := make(flowSet, len(flows))
		for f := range flows {
			set[f] = struct{}{}
		}
		c.activeLinks[l] = set
	}
	for l := range o.allLinks {
		c.allLinks[l] = struct{}{}
	}
	for f := range o.activeFlows {
		c.activeFlows[f] = struct{}{}
	}
	for f := range o.allFlows {
		c.allFlows[f] = struct{}{}
	}
	return Link{}, false
}

func (c *component) addFlow(id FlowID, links []Link) {
	for _, l := range links {
		set, ok := c.activeLinks[l]
		if !ok {
			set = make(flowSet)
			c.activeLinks[l] = set
		}
		set[id] = struct{}{}
		c.allLinks[l] = struct{}{}
	}
	c.activeFlows[id] = struct{}{}
	c.allFlows[id] = struct{}{}
}

func (c *component) busyPeriod(end int64) BusyPeriod {
	links := make([]Link, 0, len(c.allLinks))
	for l := range c.allLinks {
		links = append(links, l)
	}
	slices.SortFunc(links, CompareLinks)

	flows := make([]FlowID, 0, len(c.allFlows))
	for f := range c.allFlows {
		flows = append(flows, f)
	}
	slices.Sort(flows)

	return BusyPeriod{Start: c.start, End: end, Links: links, Flows: flows}
}

func sortedLinks[V any](m map[Link]V) []Link {
	links := make([]Link, 0, len(m))
	for l := range m {
		links = append(links, l)
	}
	slices.SortFunc(links, CompareLinks)
	return links
}
