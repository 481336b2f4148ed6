// Package bench implements the benchmark subcommand.
package bench

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurobench/brainage/benchmark"
	"github.com/neurobench/brainage/dataset"
)

var (
	datasets   []string
	benchmarks []string
	condition  string
	resultsDir string
	nJobs      int
)

// Cmd runs the cross-product of datasets and benchmarks.
var Cmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run cross-validated age prediction benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(datasets) == 0 {
			datasets = dataset.Names
		}
		if len(benchmarks) == 0 {
			benchmarks = benchmark.Names
		}

		tasks, err := benchmark.Tasks(datasets, benchmarks)
		if err != nil {
			return err
		}

		slog.Info("running benchmarks",
			"benchmarks", strings.Join(benchmarks, ", "),
			"datasets", strings.Join(datasets, ", "),
		)

		return benchmark.Run(tasks, condition, resultsDir, nJobs)
	},
}

func init() {
	Cmd.Flags().StringSliceVarP(&datasets, "dataset", "d", nil, "datasets to benchmark (default: all)")
	Cmd.Flags().StringSliceVarP(&benchmarks, "benchmark", "b", nil, "benchmarks to run (default: all)")
	Cmd.Flags().StringVar(&condition, "condition", "", "recording condition (default: dataset-specific)")
	Cmd.Flags().StringVar(&resultsDir, "results", "./results", "directory for score tables")
	Cmd.Flags().IntVar(&nJobs, "n-jobs", 1, "number of parallel workers")
}
