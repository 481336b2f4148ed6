// Package plotting renders summary figures of benchmark score tables.
package plotting

import (
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/neurobench/brainage/benchmark"
	"github.com/neurobench/brainage/pkg/errors"
)

// ScoreBoxPlot draws one box per benchmark of the per-fold MAE distributions
// of a dataset and saves the figure as PNG. Benchmarks without a score table
// on disk are skipped.
func ScoreBoxPlot(resultsDir, datasetName string, benchmarks []string, outPath string) error {
	p := plot.New()
	p.Title.Text = "Age prediction on " + datasetName
	p.Y.Label.Text = "MAE (years)"

	var labels []string
	pos := 0.0

	for _, bench := range benchmarks {
		path := benchmark.ResultPath(resultsDir, bench, datasetName)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		result, err := benchmark.ReadResults(path)
		if err != nil {
			return err
		}

		values := make(plotter.Values, len(result.Folds))
		for i, fold := range result.Folds {
			values[i] = fold.MAE
		}

		box, err := plotter.NewBoxPlot(vg.Points(30), pos, values)
		if err != nil {
			return errors.Wrapf(err, "box plot for %s", bench)
		}
		p.Add(box)

		labels = append(labels, bench)
		pos++
	}

	if len(labels) == 0 {
		return errors.Newf("no score tables for dataset %s in %s", datasetName, resultsDir)
	}

	p.NominalX(labels...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return errors.Wrapf(err, "saving figure %s", outPath)
	}
	return nil
}
