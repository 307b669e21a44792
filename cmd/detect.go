package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsim/busyperiod/period/batch"
)

var (
	detectFlowsPath       string
	detectLinksPath       string
	detectOutPath         string
	detectVerify          bool
	detectCheckInvariants bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect busy periods in one flow/link log pair",
	Long:  "Parse an ns-3 style flow log and link log, run the busy-period detector and print a summary. Busy periods are written as JSON when --out is set.",
	Run: func(cmd *cobra.Command, args []string) {
		sc := batch.Scenario{
			Name:    scenarioName(detectFlowsPath),
			FlowLog: detectFlowsPath,
			LinkLog: detectLinksPath,
			Output:  detectOutPath,
		}
		opts := batch.Options{Verify: detectVerify, CheckInvariants: detectCheckInvariants}
		res, err := batch.RunScenario(context.Background(), sc, opts, "detect")
		if err != nil {
			logrus.Fatalf("Detection failed: %v", err)
		}
		printResult(os.Stdout, res)
	},
}

// scenarioName derives a scenario name from a log path: "runs/fct_a.txt" -> "fct_a".
func scenarioName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// printResult writes a scenario's counters and summary.
func printResult(w io.Writer, res *batch.Result) {
	fmt.Fprintf(w, "Scenario %s: %d flows, %d busy periods\n", res.Scenario, res.Flows, len(res.Periods))
	fmt.Fprintf(w, "Components created : %d\n", res.Stats.ComponentsCreated)
	fmt.Fprintf(w, "Bridging starts    : %d\n", res.Stats.Bridges)
	fmt.Fprintf(w, "Peak live          : %d\n", res.Stats.PeakLive)
	if res.OutputPath != "" {
		fmt.Fprintf(w, "Saved to           : %s\n", res.OutputPath)
	}
	res.Summary.Print(w)
}

func init() {
	detectCmd.Flags().StringVar(&detectFlowsPath, "flows", "", "Path to the flow log (id src dst sport dport size start fct [ideal])")
	detectCmd.Flags().StringVar(&detectLinksPath, "links", "", "Path to the link log")
	detectCmd.Flags().StringVar(&detectOutPath, "out", "", "Write busy periods as JSON to this path")
	detectCmd.Flags().BoolVar(&detectVerify, "verify", false, "Cross-check the result against the static overlap graph")
	detectCmd.Flags().BoolVar(&detectCheckInvariants, "check-invariants", false, "Check the partition invariants after every event")
	_ = detectCmd.MarkFlagRequired("flows")
	_ = detectCmd.MarkFlagRequired("links")

	rootCmd.AddCommand(detectCmd)
}
