// Package period reconstructs busy periods from a set of network flows.
//
// # Reading Guide
//
// Start with these files:
//   - flow.go: Flow and Link, the immutable inputs
//   - event.go: BuildEvents, which turns flows into a deterministically ordered event stream
//   - engine.go: the connectivity engine that folds events into busy periods
//
// # Model
//
// A flow occupies a set of directed links between its start and end time.
// Flows that are active at the same time on a common link are connected, and
// connectivity is transitive. The engine keeps one component per connected
// cluster of active flows. When a starting flow touches links owned by
// several components, they are merged into a freshly numbered component.
// When the last active flow of a component ends, the component is dissolved
// and reported as a BusyPeriod spanning from its oldest constituent's start
// to that end time.
//
// At equal timestamps End events are processed before Start events, so a
// flow ending at T and another starting at T on the same link do not merge.
//
// # Sub-packages
//
//   - period/flowlog/: ns-3 flow and link log parsing and writing
//   - period/topology/: network topology description and shortest-path routing
//   - period/flowgen/: synthetic flow workloads over a topology
//   - period/verify/: independent cross-check against the static overlap graph
//   - period/report/: JSON persistence and summary statistics
//   - period/batch/: parallel processing of independent scenarios
//
// An Engine is not safe for concurrent use. Run independent scenarios on
// separate engines.
package period
