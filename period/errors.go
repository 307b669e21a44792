package period

import (
	"errors"
	"fmt"
)

// Consistency faults. All of them are fatal to a run: the engine stops and
// refuses further events rather than report periods built on corrupted state.
var (
	// ErrUnboundFlow: an ending flow has no live component owning any of its links.
	ErrUnboundFlow = errors.New("unbound flow")
	// ErrDanglingFlowLink: an ending flow is missing from the active set of one of its links.
	ErrDanglingFlowLink = errors.New("dangling flow link")
	// ErrDanglingFlowSet: an ending flow is missing from its component's active flows.
	ErrDanglingFlowSet = errors.New("dangling flow set")
	// ErrLinkOwnershipConflict: two live components claim the same link.
	ErrLinkOwnershipConflict = errors.New("link ownership conflict")
	// ErrFlowOwnershipConflict: an active flow is held by zero or several live components.
	ErrFlowOwnershipConflict = errors.New("flow ownership conflict")
)

var (
	// ErrInvalidFlow rejects malformed input before any event is processed.
	ErrInvalidFlow = errors.New("invalid flow")
	// ErrEventOrder: an event is older than one already applied.
	ErrEventOrder = errors.New("event out of order")
	// ErrEngineFailed: the engine already hit a fatal error.
	ErrEngineFailed = errors.New("engine failed")
)

// InvariantError identifies the flow, link and component involved in a
// consistency fault. errors.Is matches it against its Kind.
type InvariantError struct {
	Kind      error
	Time      int64
	Flow      FlowID
	Link      Link
	Component ComponentID

	hasLink bool
}

func newInvariantError(kind error, time int64, flow FlowID) *InvariantError {
	return &InvariantError{Kind: kind, Time: time, Flow: flow}
}

func (e *InvariantError) withLink(l Link) *InvariantError {
	e.Link = l
	e.hasLink = true
	return e
}

func (e *InvariantError) withComponent(id ComponentID) *InvariantError {
	e.Component = id
	return e
}

// HasLink reports whether Link was set.
func (e *InvariantError) HasLink() bool {
	return e.hasLink
}

func (e *InvariantError) Error() string {
	link := "none"
	if e.hasLink {
		link = e.Link.String()
	}
	comp := "none"
	if e.Component != noComponent {
		comp = fmt.Sprintf("%d", e.Component)
	}
	return fmt.Sprintf("%v at t=%d: flow %d, link %s, component %s", e.Kind, e.Time, e.Flow, link, comp)
}

func (e *InvariantError) Unwrap() error {
	return e.Kind
}
