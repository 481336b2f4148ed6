// Package reject implements the autoreject subcommand.
package reject

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/neurobench/brainage/autoreject"
	"github.com/neurobench/brainage/dataset"
	"github.com/neurobench/brainage/pkg/errors"
)

var (
	datasets []string
	nJobs    int
)

// Cmd runs artifact rejection over the subjects of the selected datasets.
var Cmd = &cobra.Command{
	Use:   "autoreject",
	Short: "Run peak-to-peak artifact rejection on epoched recordings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(datasets) == 0 {
			datasets = dataset.Names
		}
		for _, ds := range datasets {
			if !dataset.IsKnown(ds) {
				return errors.NewValidationError("dataset", "unknown dataset", ds)
			}
		}

		for _, ds := range datasets {
			slog.Info("autoreject", "dataset", ds)
			if err := autoreject.RunDataset(ds, nJobs); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringSliceVarP(&datasets, "dataset", "d", nil, "datasets to preprocess (default: all)")
	Cmd.Flags().IntVar(&nJobs, "n-jobs", 1, "number of parallel workers")
}
