package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsim/busyperiod/period/flowgen"
	"github.com/flowsim/busyperiod/period/flowlog"
	"github.com/flowsim/busyperiod/period/topology"
)

var (
	genTopologyPath string
	genConfigPath   string
	genRacks        int
	genHostsPerRack int
	genSpines       int
	genFlows        int
	genSeed         int64
	genOutDir       string
	genName         string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic flow log and link log",
	Long: "Draw flows between random hosts of a topology (a two-tier fabric built from --racks/--hosts-per-rack/--spines, " +
		"or a YAML description via --topology), route them over shortest paths and write the ns-3 style logs.",
	Run: func(cmd *cobra.Command, args []string) {
		topo, err := loadTopology(genTopologyPath, genRacks, genHostsPerRack, genSpines)
		if err != nil {
			logrus.Fatalf("Failed to build topology: %v", err)
		}

		cfg := flowgen.DefaultConfig()
		if genConfigPath != "" {
			if cfg, err = flowgen.LoadConfig(genConfigPath); err != nil {
				logrus.Fatalf("Failed to load workload config: %v", err)
			}
		}
		// CLI flags win over the config file only when set explicitly
		if cmd.Flags().Changed("seed") || genConfigPath == "" {
			cfg.Seed = genSeed
		}
		if cmd.Flags().Changed("flows") || genConfigPath == "" {
			cfg.Flows = genFlows
		}

		flowPath, linkPath, err := generateScenario(cfg, topo, genOutDir, genName)
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}
		fmt.Printf("Wrote %d flows on %s (seed %d)\n  flows: %s\n  links: %s\n", cfg.Flows, topo.Name(), cfg.Seed, flowPath, linkPath)
	},
}

// loadTopology reads a YAML topology when path is set, else builds a two-tier fabric.
func loadTopology(path string, racks, hostsPerRack, spines int) (*topology.Topology, error) {
	if path != "" {
		return topology.LoadFile(path)
	}
	return topology.NewTwoTier(racks, hostsPerRack, spines)
}

// generateScenario writes <dir>/<name>_flows.txt and <dir>/<name>_links.txt.
func generateScenario(cfg flowgen.Config, topo *topology.Topology, dir, name string) (flowPath, linkPath string, err error) {
	wl, err := flowgen.Generate(cfg, topo)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	flowPath = filepath.Join(dir, name+"_flows.txt")
	linkPath = filepath.Join(dir, name+"_links.txt")
	if err := flowlog.SaveScenario(flowPath, linkPath, wl.Records, wl.LinkFlows); err != nil {
		return "", "", err
	}
	logrus.Infof("generate: %d flows over %d links into %s", len(wl.Records), len(wl.LinkFlows), dir)
	return flowPath, linkPath, nil
}

func init() {
	defaults := flowgen.DefaultConfig()
	generateCmd.Flags().StringVar(&genTopologyPath, "topology", "", "Path to a YAML topology (overrides the two-tier flags)")
	generateCmd.Flags().StringVar(&genConfigPath, "config", "", "Path to a workload config YAML")
	generateCmd.Flags().IntVar(&genRacks, "racks", 4, "Racks in the two-tier fabric")
	generateCmd.Flags().IntVar(&genHostsPerRack, "hosts-per-rack", 8, "Hosts per rack")
	generateCmd.Flags().IntVar(&genSpines, "spines", 2, "Spine switches")
	generateCmd.Flags().IntVar(&genFlows, "flows", defaults.Flows, "Number of flows")
	generateCmd.Flags().Int64Var(&genSeed, "seed", defaults.Seed, "Seed for workload generation")
	generateCmd.Flags().StringVar(&genOutDir, "out-dir", ".", "Directory for the generated logs")
	generateCmd.Flags().StringVar(&genName, "name", "scenario", "File name prefix for the generated logs")

	rootCmd.AddCommand(generateCmd)
}
