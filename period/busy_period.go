package period

import (
	"encoding/json"
	"fmt"
)

// BusyPeriod is one dissolved component: the interval during which it had at
// least one active flow, with every link and flow it ever contained.
// Links and Flows are sorted.
type BusyPeriod struct {
	Start int64
	End   int64
	Links []Link
	Flows []FlowID
}

// Duration returns End - Start.
func (bp BusyPeriod) Duration() int64 {
	return bp.End - bp.Start
}

// MarshalJSON encodes the period as [start, end, [[u,v],...], [flow,...]].
func (bp BusyPeriod) MarshalJSON() ([]byte, error) {
	links := make([][2]NodeID, len(bp.Links))
	for i, l := range bp.Links {
		links[i] = [2]NodeID{l.From, l.To}
	}
	flows := bp.Flows
	if flows == nil {
		flows = []FlowID{}
	}
	return json.Marshal([]any{bp.Start, bp.End, links, flows})
}

// UnmarshalJSON decodes the 4-tuple form written by MarshalJSON.
func (bp *BusyPeriod) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("busy period: expected 4 elements, got %d", len(raw))
	}
	var (
		out   BusyPeriod
		links [][2]NodeID
	)
	if err := json.Unmarshal(raw[0], &out.Start); err != nil {
		return fmt.Errorf("busy period start: %w", err)
	}
	if err := json.Unmarshal(raw[1], &out.End); err != nil {
		return fmt.Errorf("busy period end: %w", err)
	}
	if err := json.Unmarshal(raw[2], &links); err != nil {
		return fmt.Errorf("busy period links: %w", err)
	}
	if err := json.Unmarshal(raw[3], &out.Flows); err != nil {
		return fmt.Errorf("busy period flows: %w", err)
	}
	out.Links = make([]Link, len(links))
	for i, l := range links {
		out.Links[i] = Link{From: l[0], To: l[1]}
	}
	*bp = out
	return nil
}
