package period

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Stats counts what an engine did during a run.
type Stats struct {
	Events            int // events applied
	ComponentsCreated int // every Start creates one
	Absorbed          int // pre-existing components folded into a new one
	Bridges           int // Starts that joined two or more components
	PeakLive          int // max simultaneously live components
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithInvariantChecks makes the engine verify the partition invariants after
// every event. Costs a full scan of the live state per event.
func WithInvariantChecks(enabled bool) EngineOption {
	return func(e *Engine) {
		e.checkInvariants = enabled
	}
}

// WithLogger sets the logger used for per-event trace output.
func WithLogger(log *logrus.Entry) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine folds an ordered event stream into busy periods.
//
// State is an arena of live components keyed by id, plus an index from each
// active link to the component that owns it.
//
// Thread-safety: NOT thread-safe. One engine per run.
type Engine struct {
	components map[ComponentID]*component
	linkOwner  map[Link]ComponentID
	nextID     ComponentID

	periods []BusyPeriod
	stats   Stats
	clock   int64
	err     error

	checkInvariants bool
	log             *logrus.Entry
}

// NewEngine creates an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		components: make(map[ComponentID]*component),
		linkOwner:  make(map[Link]ComponentID),
		periods:    make([]BusyPeriod, 0),
		log:        logrus.WithField("component", "period"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply processes one event. Once Apply returns an error every later call
// fails with ErrEngineFailed.
func (e *Engine) Apply(ev Event) error {
	if e.err != nil {
		return fmt.Errorf("%w: %v", ErrEngineFailed, e.err)
	}
	if e.stats.Events > 0 && ev.Time < e.clock {
		return e.fail(fmt.Errorf("%w: %s after t=%d", ErrEventOrder, ev, e.clock))
	}
	e.clock = ev.Time
	e.stats.Events++

	var err error
	switch ev.Kind {
	case EventStart:
		err = e.handleStart(ev)
	case EventEnd:
		err = e.handleEnd(ev)
	default:
		err = fmt.Errorf("unknown event kind %v", ev.Kind)
	}
	if err == nil && e.checkInvariants {
		err = e.CheckInvariants()
	}
	if err != nil {
		return e.fail(err)
	}
	return nil
}

func (e *Engine) fail(err error) error {
	e.err = err
	e.log.WithError(err).Debug("engine stopped")
	return err
}

// Run applies events in order and returns the busy periods in the order their
// components dissolved.
func (e *Engine) Run(events []Event) ([]BusyPeriod, error) {
	for _, ev := range events {
		if err := e.Apply(ev); err != nil {
			return nil, err
		}
	}
	if n := len(e.components); n > 0 {
		e.log.Warnf("event stream ended with %d live components; their periods are not reported", n)
	}
	return e.Periods(), nil
}

// Periods returns the busy periods emitted so far.
func (e *Engine) Periods() []BusyPeriod {
	return slices.Clone(e.periods)
}

// Stats returns the run counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// LiveComponents returns the ids of live components in ascending order.
func (e *Engine) LiveComponents() []ComponentID {
	ids := make([]ComponentID, 0, len(e.components))
	for id := range e.components {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ActiveLinks returns the link index: every active link and its owner.
func (e *Engine) ActiveLinks() map[Link]ComponentID {
	out := make(map[Link]ComponentID, len(e.linkOwner))
	for l, id := range e.linkOwner {
		out[l] = id
	}
	return out
}

func (e *Engine) allocateID() ComponentID {
	e.nextID++
	return e.nextID
}

// involved returns the distinct owners of links, lowest id first.
func (e *Engine) involved(links []Link) []ComponentID {
	ids := make([]ComponentID, 0, 1)
	for _, l := range links {
		if id, ok := e.linkOwner[l]; ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (e *Engine) handleStart(ev Event) error {
	involved := e.involved(ev.Links)

	id := e.allocateID()
	merged := newComponent(id, ev.Time)
	for _, cid := range involved {
		c, ok := e.components[cid]
		if !ok {
			// index points at a component that no longer exists
			return newInvariantError(ErrLinkOwnershipConflict, ev.Time, ev.Flow).withComponent(cid)
		}
		if l, clash := merged.absorb(c); clash {
			return newInvariantError(ErrLinkOwnershipConflict, ev.Time, ev.Flow).withLink(l).withComponent(cid)
		}
	}
	merged.addFlow(ev.Flow, ev.Links)

	for _, cid := range involved {
		c := e.components[cid]
		delete(e.components, cid)
		for l := range c.activeLinks {
			e.linkOwner[l] = id
		}
	}
	for _, l := range ev.Links {
		e.linkOwner[l] = id
	}
	e.components[id] = merged

	e.stats.ComponentsCreated++
	e.stats.Absorbed += len(involved)
	if len(involved) > 1 {
		e.stats.Bridges++
	}
	if live := len(e.components); live > e.stats.PeakLive {
		e.stats.PeakLive = live
	}

	if e.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		e.log.Tracef("[t %07d] flow %d starts: component %d (absorbed %v, start %d)", ev.Time, ev.Flow, id, involved, merged.start)
	}
	return nil
}

func (e *Engine) handleEnd(ev Event) error {
	var (
		cid   ComponentID
		found bool
	)
	for _, l := range ev.Links {
		if cid, found = e.linkOwner[l]; found {
			break
		}
	}
	if !found {
		err := newInvariantError(ErrUnboundFlow, ev.Time, ev.Flow)
		if len(ev.Links) > 0 {
			err.withLink(ev.Links[0])
		}
		return err
	}
	c, ok := e.components[cid]
	if !ok {
		return newInvariantError(ErrUnboundFlow, ev.Time, ev.Flow).withComponent(cid)
	}

	for _, l := range ev.Links {
		flows, ok := c.activeLinks[l]
		if !ok {
			return newInvariantError(ErrDanglingFlowLink, ev.Time, ev.Flow).withLink(l).withComponent(cid)
		}
		if _, ok := flows[ev.Flow]; !ok {
			return newInvariantError(ErrDanglingFlowLink, ev.Time, ev.Flow).withLink(l).withComponent(cid)
		}
		delete(flows, ev.Flow)
		if len(flows) == 0 {
			delete(c.activeLinks, l)
			if e.linkOwner[l] == cid {
				delete(e.linkOwner, l)
			}
		}
	}

	if _, ok := c.activeFlows[ev.Flow]; !ok {
		return newInvariantError(ErrDanglingFlowSet, ev.Time, ev.Flow).withComponent(cid)
	}
	delete(c.activeFlows, ev.Flow)

	if e.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		e.log.Tracef("[t %07d] flow %d ends: component %d has %d active flows", ev.Time, ev.Flow, cid, len(c.activeFlows))
	}

	if len(c.activeFlows) == 0 {
		e.dissolve(c, ev.Time)
	}
	return nil
}

// dissolve reports c as a busy period and removes every trace of it.
func (e *Engine) dissolve(c *component, end int64) {
	bp := c.busyPeriod(end)
	e.periods = append(e.periods, bp)
	delete(e.components, c.id)
	for l := range c.allLinks {
		if e.linkOwner[l] == c.id {
			delete(e.linkOwner, l)
		}
	}
	e.log.Debugf("[t %07d] component %d dissolved: busy period [%d, %d] with %d flows on %d links",
		end, c.id, bp.Start, bp.End, len(bp.Flows), len(bp.Links))
}

// CheckInvariants verifies the partition property of the current state:
// every active link is owned by exactly the live component that holds it,
// and every active flow belongs to exactly one live component.
func (e *Engine) CheckInvariants() error {
	for l, id := range e.linkOwner {
		c, ok := e.components[id]
		if !ok {
			return newInvariantError(ErrLinkOwnershipConflict, e.clock, 0).withLink(l).withComponent(id)
		}
		if _, ok := c.activeLinks[l]; !ok {
			return newInvariantError(ErrLinkOwnershipConflict, e.clock, 0).withLink(l).withComponent(id)
		}
	}

	owner := make(map[FlowID]ComponentID)
	for _, id := range e.LiveComponents() {
		c := e.components[id]
		if len(c.activeFlows) == 0 {
			return newInvariantError(ErrDanglingFlowSet, e.clock, 0).withComponent(id)
		}
		for _, l := range sortedLinks(c.activeLinks) {
			flows := c.activeLinks[l]
			if e.linkOwner[l] != id || len(flows) == 0 {
				return newInvariantError(ErrLinkOwnershipConflict, e.clock, 0).withLink(l).withComponent(id)
			}
			for f := range flows {
				if _, ok := c.activeFlows[f]; !ok {
					return newInvariantError(ErrDanglingFlowLink, e.clock, f).withLink(l).withComponent(id)
				}
			}
		}
		for f := range c.activeFlows {
			if prev, dup := owner[f]; dup {
				return newInvariantError(ErrFlowOwnershipConflict, e.clock, f).withComponent(prev)
			}
			owner[f] = id
		}
	}
	return nil
}
