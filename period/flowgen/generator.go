// Package flowgen generates synthetic flow workloads over a topology, in the
// same shape the ns-3 logs describe: flow records plus per-link flow lists.
package flowgen

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/flowsim/busyperiod/period"
	"github.com/flowsim/busyperiod/period/flowlog"
	"github.com/flowsim/busyperiod/period/topology"
)

// Config controls workload generation. Times are in ticks (ns in ns-3 logs).
type Config struct {
	Seed             int64   `yaml:"seed"`
	Flows            int     `yaml:"flows"`
	StartTime        int64   `yaml:"start_time"`
	MeanInterarrival float64 `yaml:"mean_interarrival"`
	Arrival          string  `yaml:"arrival"`
	CV               float64 `yaml:"cv,omitempty"`
	MeanSize         float64 `yaml:"mean_size"`      // bytes
	BytesPerTick     float64 `yaml:"bytes_per_tick"` // serialisation rate of the slowest hop
	FirstID          int64   `yaml:"first_id,omitempty"`
}

// DefaultConfig returns a small, moderately loaded workload.
func DefaultConfig() Config {
	return Config{
		Seed:             42,
		Flows:            1000,
		StartTime:        1_000_000_000,
		MeanInterarrival: 2000,
		Arrival:          ArrivalPoisson,
		MeanSize:         20_000,
		BytesPerTick:     1.25, // 10 Gbps
	}
}

// Validate checks that the config can generate a workload.
func (c Config) Validate() error {
	switch {
	case c.Flows < 0:
		return fmt.Errorf("flows must be non-negative, got %d", c.Flows)
	case c.StartTime < 0:
		return fmt.Errorf("start_time must be non-negative, got %d", c.StartTime)
	case c.MeanSize <= 0:
		return fmt.Errorf("mean_size must be positive, got %v", c.MeanSize)
	case c.BytesPerTick <= 0:
		return fmt.Errorf("bytes_per_tick must be positive, got %v", c.BytesPerTick)
	}
	_, err := NewArrivalSampler(c.Arrival, c.MeanInterarrival, c.CV)
	return err
}

// LoadConfig reads a YAML config with strict field checking, starting from
// DefaultConfig so omitted fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading workload config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing workload config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Workload is a generated scenario.
type Workload struct {
	Records   []flowlog.FlowRecord
	LinkFlows map[period.Link][]period.FlowID
	Flows     period.Flows
}

// Generate draws cfg.Flows flows between distinct hosts of topo, routes each
// over a shortest path and returns them with their log records.
func Generate(cfg Config, topo *topology.Topology) (*Workload, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hosts := topo.Hosts()
	if len(hosts) < 2 {
		return nil, fmt.Errorf("topology has %d hosts, need at least 2", len(hosts))
	}
	sampler, err := NewArrivalSampler(cfg.Arrival, cfg.MeanInterarrival, cfg.CV)
	if err != nil {
		return nil, err
	}

	rng := NewPartitionedRNG(cfg.Seed)
	arrivalRNG := rng.ForSubsystem(SubsystemArrival)
	endpointRNG := rng.ForSubsystem(SubsystemEndpoints)
	sizeRNG := rng.ForSubsystem(SubsystemSize)
	routingRNG := rng.ForSubsystem(SubsystemRouting)

	wl := &Workload{
		Records:   make([]flowlog.FlowRecord, 0, cfg.Flows),
		LinkFlows: make(map[period.Link][]period.FlowID),
		Flows:     make(period.Flows, cfg.Flows),
	}
	cur := cfg.StartTime
	for i := 0; i < cfg.Flows; i++ {
		id := period.FlowID(cfg.FirstID + int64(i))
		si := endpointRNG.Intn(len(hosts))
		di := endpointRNG.Intn(len(hosts) - 1)
		if di >= si {
			di++ // uniform over the other hosts
		}
		src, dst := hosts[si], hosts[di]
		links, err := topo.Route(src, dst, routingRNG.Uint64())
		if err != nil {
			return nil, fmt.Errorf("routing flow %d: %w", id, err)
		}

		size := int64(math.Max(1, math.Round(sizeRNG.ExpFloat64()*cfg.MeanSize)))
		fct := int64(math.Ceil(float64(size) / cfg.BytesPerTick))

		rec := flowlog.FlowRecord{
			ID:       id,
			Src:      src,
			Dst:      dst,
			SrcPort:  10000 + i%50000,
			DstPort:  100,
			Size:     size,
			Start:    cur,
			FCT:      fct,
			IdealFCT: fct,
		}
		wl.Records = append(wl.Records, rec)
		if err := wl.Flows.Add(period.NewFlow(id, cur, cur+fct, links...)); err != nil {
			return nil, err
		}
		for _, l := range links {
			wl.LinkFlows[l] = append(wl.LinkFlows[l], id)
		}
		cur += sampler.SampleIAT(arrivalRNG)
	}
	logrus.Debugf("flowgen: %d flows over %d links, last start %d", len(wl.Records), len(wl.LinkFlows), cur)
	return wl, nil
}
