package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsim/busyperiod/period/batch"
)

var (
	batchManifestPath string
	batchWorkers      int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Detect busy periods for every scenario of a manifest in parallel",
	Run: func(cmd *cobra.Command, args []string) {
		m, err := batch.LoadManifest(batchManifestPath)
		if err != nil {
			logrus.Fatalf("Failed to load manifest: %v", err)
		}
		if cmd.Flags().Changed("workers") {
			m.Workers = batchWorkers
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		results, err := batch.Run(ctx, m)
		if err != nil {
			logrus.Fatalf("Batch failed: %v", err)
		}
		for _, res := range results {
			printResult(os.Stdout, res)
		}
		logrus.Infof("Batch %s complete: %d scenarios", results[0].RunID, len(results))
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchManifestPath, "manifest", "", "Path to the batch manifest YAML")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent scenarios (overrides the manifest; 0 = GOMAXPROCS)")
	_ = batchCmd.MarkFlagRequired("manifest")

	rootCmd.AddCommand(batchCmd)
}
