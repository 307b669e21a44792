// Package flowlog reads and writes the ns-3 simulator logs that describe a
// scenario: the per-flow completion log and the per-link flow membership log.
package flowlog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/flowsim/busyperiod/period"
)

// FlowRecord is one line of the flow completion log:
//
//	id src dst sport dport size start fct [ideal_fct]
type FlowRecord struct {
	ID       period.FlowID
	Src      period.NodeID
	Dst      period.NodeID
	SrcPort  int
	DstPort  int
	Size     int64
	Start    int64
	FCT      int64
	IdealFCT int64
}

// minFlowFields is the number of columns up to and including fct.
const minFlowFields = 8

// ParseFlowRecords reads every record of a flow completion log.
// Blank lines are skipped; any malformed line is an error.
func ParseFlowRecords(r io.Reader) ([]FlowRecord, error) {
	var records []FlowRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := parseFlowRecord(strings.Fields(line))
		if err != nil {
			return nil, fmt.Errorf("flow log line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading flow log: %w", err)
	}
	return records, nil
}

func parseFlowRecord(fields []string) (FlowRecord, error) {
	if len(fields) < minFlowFields {
		return FlowRecord{}, fmt.Errorf("expected at least %d fields, got %d", minFlowFields, len(fields))
	}
	if len(fields) > minFlowFields+1 {
		fields = fields[:minFlowFields+1] // trailing columns are not used
	}
	ints := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return FlowRecord{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		ints[i] = v
	}
	rec := FlowRecord{
		ID:      period.FlowID(ints[0]),
		Src:     period.NodeID(ints[1]),
		Dst:     period.NodeID(ints[2]),
		SrcPort: int(ints[3]),
		DstPort: int(ints[4]),
		Size:    ints[5],
		Start:   ints[6],
		FCT:     ints[7],
	}
	if len(ints) > minFlowFields {
		rec.IdealFCT = ints[8]
	}
	if rec.FCT < 0 {
		return FlowRecord{}, fmt.Errorf("flow %d has negative fct %d", rec.ID, rec.FCT)
	}
	if rec.Start > math.MaxInt64-rec.FCT {
		return FlowRecord{}, fmt.Errorf("flow %d: start %d + fct %d overflows", rec.ID, rec.Start, rec.FCT)
	}
	return rec, nil
}

// ParseFlowLog reads a flow completion log into flows without links.
// End is start + fct.
func ParseFlowLog(r io.Reader) (period.Flows, error) {
	records, err := ParseFlowRecords(r)
	if err != nil {
		return nil, err
	}
	flows := make(period.Flows, len(records))
	for _, rec := range records {
		if err := flows.Add(period.NewFlow(rec.ID, rec.Start, rec.Start+rec.FCT)); err != nil {
			return nil, err
		}
	}
	return flows, nil
}

// WriteFlowLog writes records in the flow completion log format.
func WriteFlowLog(w io.Writer, records []FlowRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, "%d %d %d %d %d %d %d %d %d\n",
			r.ID, r.Src, r.Dst, r.SrcPort, r.DstPort, r.Size, r.Start, r.FCT, r.IdealFCT); err != nil {
			return fmt.Errorf("writing flow %d: %w", r.ID, err)
		}
	}
	return bw.Flush()
}

// ParseLinkLog reads a link membership log: a link count N followed by N
// pairs of lines, "id,from,to,n" and a comma-terminated list of n flow ids.
func ParseLinkLog(r io.Reader) (map[period.Link][]period.FlowID, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	lineNo := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNo++
		return strings.TrimSpace(scanner.Text()), true
	}

	header, ok := next()
	if !ok {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading link log: %w", err)
		}
		return nil, fmt.Errorf("link log is empty")
	}
	numLinks, err := strconv.Atoi(header)
	if err != nil {
		return nil, fmt.Errorf("link log line 1: link count: %w", err)
	}
	if numLinks < 0 {
		return nil, fmt.Errorf("link log line 1: negative link count %d", numLinks)
	}

	linkFlows := make(map[period.Link][]period.FlowID, numLinks)
	for i := 0; i < numLinks; i++ {
		infoLine, ok := next()
		if !ok {
			return nil, fmt.Errorf("link log: expected %d links, found %d", numLinks, i)
		}
		info, err := parseIntList(infoLine)
		if err != nil || len(info) < 4 {
			return nil, fmt.Errorf("link log line %d: malformed link descriptor %q", lineNo, infoLine)
		}
		link := period.Link{From: period.NodeID(info[1]), To: period.NodeID(info[2])}

		flowLine, ok := next()
		if !ok {
			return nil, fmt.Errorf("link log: link %v has no flow list", link)
		}
		ids, err := parseIntList(flowLine)
		if err != nil {
			return nil, fmt.Errorf("link log line %d: %w", lineNo, err)
		}
		if int64(len(ids)) != info[3] {
			return nil, fmt.Errorf("link log line %d: link %v declares %d flows, lists %d", lineNo, link, info[3], len(ids))
		}
		for _, id := range ids {
			linkFlows[link] = append(linkFlows[link], period.FlowID(id))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading link log: %w", err)
	}
	return linkFlows, nil
}

// parseIntList parses "1,2,3," style lists. A trailing comma and empty
// entries are ignored.
func parseIntList(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteLinkLog writes linkFlows in the link membership log format, links in
// ascending order and flow ids as given.
func WriteLinkLog(w io.Writer, linkFlows map[period.Link][]period.FlowID) error {
	links := make([]period.Link, 0, len(linkFlows))
	for l := range linkFlows {
		links = append(links, l)
	}
	slices.SortFunc(links, period.CompareLinks)

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", len(links)); err != nil {
		return err
	}
	for i, l := range links {
		ids := linkFlows[l]
		if _, err := fmt.Fprintf(bw, "%d,%d,%d,%d\n", i, l.From, l.To, len(ids)); err != nil {
			return err
		}
		var sb strings.Builder
		for _, id := range ids {
			sb.WriteString(strconv.FormatInt(int64(id), 10))
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
		if _, err := bw.WriteString(sb.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// AssignLinks attaches every link to the flows listed for it. It returns how
// many (link, flow) pairs were assigned and how many referenced unknown flows.
func AssignLinks(flows period.Flows, linkFlows map[period.Link][]period.FlowID) (assigned, unknown int) {
	for link, ids := range linkFlows {
		for _, id := range ids {
			f, ok := flows[id]
			if !ok {
				unknown++
				continue
			}
			if f.AddLink(link) {
				assigned++
			}
		}
	}
	return assigned, unknown
}

// DropUnrouted removes flows that traverse no link. Such flows can never be
// bound to a component.
func DropUnrouted(flows period.Flows) int {
	dropped := 0
	for id, f := range flows {
		if len(f.Links) == 0 {
			delete(flows, id)
			dropped++
		}
	}
	return dropped
}

// LoadScenario reads a flow log and a link log and returns the routed flows.
func LoadScenario(flowPath, linkPath string) (period.Flows, error) {
	flowFile, err := os.Open(flowPath)
	if err != nil {
		return nil, fmt.Errorf("opening flow log: %w", err)
	}
	defer func() { _ = flowFile.Close() }()
	flows, err := ParseFlowLog(flowFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flowPath, err)
	}

	linkFile, err := os.Open(linkPath)
	if err != nil {
		return nil, fmt.Errorf("opening link log: %w", err)
	}
	defer func() { _ = linkFile.Close() }()
	linkFlows, err := ParseLinkLog(linkFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", linkPath, err)
	}

	total := len(flows)
	_, unknown := AssignLinks(flows, linkFlows)
	dropped := DropUnrouted(flows)
	if unknown > 0 {
		logrus.Warnf("LoadScenario: %d link entries in %s reference flows missing from %s", unknown, linkPath, flowPath)
	}
	if dropped > 0 {
		logrus.Warnf("LoadScenario: %d of %d flows in %s traverse no link and were skipped", dropped, total, flowPath)
	}
	logrus.Debugf("LoadScenario: %d flows over %d links", len(flows), len(linkFlows))
	return flows, nil
}

// SaveScenario writes records and linkFlows as a flow log and a link log.
func SaveScenario(flowPath, linkPath string, records []FlowRecord, linkFlows map[period.Link][]period.FlowID) error {
	if err := writeFile(flowPath, func(w io.Writer) error { return WriteFlowLog(w, records) }); err != nil {
		return err
	}
	return writeFile(linkPath, func(w io.Writer) error { return WriteLinkLog(w, linkFlows) })
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
