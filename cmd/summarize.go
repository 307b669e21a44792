package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsim/busyperiod/period/report"
)

var summarizePeriodsPath string

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print statistics for a saved busy-period JSON file",
	Run: func(cmd *cobra.Command, args []string) {
		periods, err := report.LoadFile(summarizePeriodsPath)
		if err != nil {
			logrus.Fatalf("Failed to load busy periods: %v", err)
		}
		report.Summarize(periods).Print(os.Stdout)
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizePeriodsPath, "periods", "", "Path to a busy-period JSON file written by detect or batch")
	_ = summarizeCmd.MarkFlagRequired("periods")

	rootCmd.AddCommand(summarizeCmd)
}
