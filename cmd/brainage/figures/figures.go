// Package figures implements the plot subcommand.
package figures

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neurobench/brainage/benchmark"
	"github.com/neurobench/brainage/dataset"
	"github.com/neurobench/brainage/pkg/errors"
	"github.com/neurobench/brainage/plotting"
)

var (
	datasets   []string
	resultsDir string
	outDir     string
)

// Cmd renders MAE box plots from score tables on disk.
var Cmd = &cobra.Command{
	Use:   "plot",
	Short: "Render benchmark score figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(datasets) == 0 {
			datasets = dataset.Names
		}
		for _, ds := range datasets {
			if !dataset.IsKnown(ds) {
				return errors.NewValidationError("dataset", "unknown dataset", ds)
			}
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return errors.Wrapf(err, "creating figures dir %s", outDir)
		}

		for _, ds := range datasets {
			out := filepath.Join(outDir, "scores_"+ds+".png")
			if err := plotting.ScoreBoxPlot(resultsDir, ds, benchmark.Names, out); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringSliceVarP(&datasets, "dataset", "d", nil, "datasets to plot (default: all)")
	Cmd.Flags().StringVar(&resultsDir, "results", "./results", "directory with score tables")
	Cmd.Flags().StringVar(&outDir, "out", "./figures", "directory for figures")
}
