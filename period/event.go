package period

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// EventKind distinguishes the two events a flow produces.
type EventKind int

const (
	EventStart EventKind = iota
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a flow starting or ending at Time on Links.
type Event struct {
	Time  int64
	Kind  EventKind
	Flow  FlowID
	Links []Link
}

func (e Event) String() string {
	return fmt.Sprintf("%s(t=%d, flow=%d)", e.Kind, e.Time, e.Flow)
}

// Ordering phases within a single timestamp. Instantaneous flows sit between
// the ends and the starts so that their own End never precedes their Start.
const (
	phaseEnd = iota
	phaseInstant
	phaseStart
)

type orderedEvent struct {
	Event
	phase int
}

// compareEvents orders by: time → phase → flow id → kind
func compareEvents(a, b orderedEvent) int {
	// Primary: time (earlier first)
	if a.Time != b.Time {
		if a.Time < b.Time {
			return -1
		}
		return 1
	}

	// Secondary: phase (ends, then instantaneous flows, then starts)
	if a.phase != b.phase {
		return a.phase - b.phase
	}

	// Tertiary: flow id (lower first)
	if a.Flow != b.Flow {
		if a.Flow < b.Flow {
			return -1
		}
		return 1
	}

	// Only instantaneous flows reach here: their Start precedes their End.
	return int(a.Kind) - int(b.Kind)
}

// BuildEvents validates flows and produces their 2×len(flows) events in
// processing order. The result depends only on the input.
func BuildEvents(flows Flows) ([]Event, error) {
	ordered := make([]orderedEvent, 0, 2*len(flows))
	for _, id := range flows.IDs() {
		f := flows[id]
		if f == nil {
			return nil, fmt.Errorf("%w: flow %d is nil", ErrInvalidFlow, id)
		}
		if f.ID != id {
			return nil, fmt.Errorf("%w: flow keyed %d carries id %d", ErrInvalidFlow, id, f.ID)
		}
		if err := f.validate(); err != nil {
			return nil, err
		}
		startPhase, endPhase := phaseStart, phaseEnd
		if f.Start == f.End {
			startPhase, endPhase = phaseInstant, phaseInstant
		}
		ordered = append(ordered,
			orderedEvent{Event: Event{Time: f.Start, Kind: EventStart, Flow: id, Links: f.Links}, phase: startPhase},
			orderedEvent{Event: Event{Time: f.End, Kind: EventEnd, Flow: id, Links: f.Links}, phase: endPhase},
		)
	}
	slices.SortFunc(ordered, compareEvents)

	events := make([]Event, len(ordered))
	for i, oe := range ordered {
		events[i] = oe.Event
	}
	return events, nil
}
