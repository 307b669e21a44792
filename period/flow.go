package period

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// NodeID identifies a node (host or switch) in the simulated topology.
type NodeID int

// Link is a directed edge of the topology, identified by its endpoints.
type Link struct {
	From NodeID
	To   NodeID
}

// String renders the link as "from->to".
func (l Link) String() string {
	return fmt.Sprintf("%d->%d", l.From, l.To)
}

// CompareLinks orders links by From, then To.
func CompareLinks(a, b Link) int {
	if a.From != b.From {
		return cmp.Compare(a.From, b.From)
	}
	return cmp.Compare(a.To, b.To)
}

// FlowID uniquely identifies a flow within one scenario.
type FlowID int64

// Flow is a single transfer occupying a set of links over [Start, End].
// Links is kept sorted and free of duplicates.
type Flow struct {
	ID    FlowID
	Start int64
	End   int64
	Links []Link
}

// NewFlow creates a flow over the given links. Duplicate links are collapsed.
func NewFlow(id FlowID, start, end int64, links ...Link) *Flow {
	f := &Flow{ID: id, Start: start, End: end}
	for _, l := range links {
		f.AddLink(l)
	}
	return f
}

// AddLink records that the flow traverses l. Returns false if it was already present.
func (f *Flow) AddLink(l Link) bool {
	idx, found := slices.BinarySearchFunc(f.Links, l, CompareLinks)
	if found {
		return false
	}
	f.Links = slices.Insert(f.Links, idx, l)
	return true
}

// Duration returns End - Start.
func (f *Flow) Duration() int64 {
	return f.End - f.Start
}

// Overlaps reports whether f and o are active at a common instant under the
// End-before-Start rule: intervals touching at a single point do not overlap.
func (f *Flow) Overlaps(o *Flow) bool {
	return f.Start < o.End && o.Start < f.End
}

// SharesLink reports whether f and o traverse at least one common link.
func (f *Flow) SharesLink(o *Flow) bool {
	i, j := 0, 0
	for i < len(f.Links) && j < len(o.Links) {
		switch c := CompareLinks(f.Links[i], o.Links[j]); {
		case c == 0:
			return true
		case c < 0:
			i++
		default:
			j++
		}
	}
	return false
}

func (f *Flow) validate() error {
	switch {
	case f.Start < 0:
		return fmt.Errorf("%w: flow %d starts at negative time %d", ErrInvalidFlow, f.ID, f.Start)
	case f.End < f.Start:
		return fmt.Errorf("%w: flow %d ends at %d before it starts at %d", ErrInvalidFlow, f.ID, f.End, f.Start)
	case len(f.Links) == 0:
		return fmt.Errorf("%w: flow %d traverses no links", ErrInvalidFlow, f.ID)
	}
	for i := 1; i < len(f.Links); i++ {
		if CompareLinks(f.Links[i-1], f.Links[i]) >= 0 {
			return fmt.Errorf("%w: flow %d links are not a sorted set (%s before %s)",
				ErrInvalidFlow, f.ID, f.Links[i-1], f.Links[i])
		}
	}
	return nil
}

// Flows maps flow ids to flows.
type Flows map[FlowID]*Flow

// Add inserts f, rejecting duplicate ids.
func (fs Flows) Add(f *Flow) error {
	if _, exists := fs[f.ID]; exists {
		return fmt.Errorf("%w: duplicate flow id %d", ErrInvalidFlow, f.ID)
	}
	fs[f.ID] = f
	return nil
}

// IDs returns all flow ids in ascending order.
func (fs Flows) IDs() []FlowID {
	ids := make([]FlowID, 0, len(fs))
	for id := range fs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
