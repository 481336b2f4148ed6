// Package root wires the brainage command tree.
package root

import (
	"github.com/spf13/cobra"

	"github.com/neurobench/brainage/cmd/brainage/bench"
	"github.com/neurobench/brainage/cmd/brainage/figures"
	"github.com/neurobench/brainage/cmd/brainage/reject"
	"github.com/neurobench/brainage/pkg/log"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "brainage",
	Short: "Age prediction benchmarks on M/EEG recordings",
	Long: `brainage runs cross-validated age prediction benchmarks on EEG and
MEG datasets, comparing covariance-based, handcrafted and baseline models,
and writes per-benchmark score tables to disk.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := log.ParseLevel(logLevel); err != nil {
			return err
		}
		log.SetupLogger(logLevel)
		return nil
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.AddCommand(bench.Cmd)
	rootCmd.AddCommand(reject.Cmd)
	rootCmd.AddCommand(figures.Cmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
