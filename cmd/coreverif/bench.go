package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/coreverif/benchmarks"
	"github.com/sarchlab/coreverif/timing/latency"
)

var benchFlags struct {
	timingPath string
	dcache     bool
	csv        bool
	json       bool
	verbose    bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Verify and time the directed microbenchmarks.",
	Long: `bench runs every microbenchmark through the verification ` +
		`environment under one timing configuration and reports cycles, ` +
		`CPI and stalls. A benchmark fails when its comparisons fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := benchmarks.DefaultConfig()
		config.Output = os.Stdout
		config.Verbose = benchFlags.verbose

		if benchFlags.timingPath != "" {
			timing, err := latency.LoadConfig(benchFlags.timingPath)
			if err != nil {
				return err
			}
			config.Timing = timing
		}
		if cmd.Flags().Changed("dcache") {
			config.Timing.DataCache = benchFlags.dcache
		}
		if err := config.Timing.Validate(); err != nil {
			return err
		}

		harness := benchmarks.NewHarness(config)
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())

		results := harness.RunAll()

		switch {
		case benchFlags.json:
			if err := harness.PrintJSON(results); err != nil {
				return err
			}
		case benchFlags.csv:
			harness.PrintCSV(results)
		default:
			harness.PrintResults(results)
		}

		summary := benchmarks.Summarize(results)
		if summary.Failed > 0 {
			return errors.Errorf("%d of %d benchmarks failed",
				summary.Failed, summary.TotalBenchmarks)
		}

		if !benchFlags.csv && !benchFlags.json {
			fmt.Printf("average CPI %.3f over %d instructions\n",
				summary.AverageCPI, summary.TotalInstructions)
		}

		return nil
	},
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchFlags.timingPath, "timing", "", "timing configuration JSON")
	f.BoolVar(&benchFlags.dcache, "dcache", false, "enable the L1 data cache")
	f.BoolVar(&benchFlags.csv, "csv", false, "output CSV")
	f.BoolVar(&benchFlags.json, "json", false, "output JSON")
	f.BoolVarP(&benchFlags.verbose, "verbose", "v", false, "verbose output")
}
