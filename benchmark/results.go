package benchmark

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/neurobench/brainage/modelselection"
	"github.com/neurobench/brainage/pkg/errors"
)

// ResultPath returns the score table path for one (benchmark, dataset) pair.
func ResultPath(resultsDir, benchmarkName, datasetName string) string {
	return filepath.Join(resultsDir, fmt.Sprintf("benchmark-%s_dataset-%s.csv", benchmarkName, datasetName))
}

// WriteResults writes the per-fold score table of one run as CSV.
func WriteResults(resultsDir, benchmarkName, datasetName string, result *modelselection.CVResult) error {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating results dir %s", resultsDir)
	}

	path := ResultPath(resultsDir, benchmarkName, datasetName)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating results file %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"fold", "MAE", "r2", "fit_time", "score_time"}); err != nil {
		return errors.Wrap(err, "writing results header")
	}

	for _, fold := range result.Folds {
		record := []string{
			strconv.Itoa(fold.Fold),
			strconv.FormatFloat(fold.MAE, 'g', -1, 64),
			strconv.FormatFloat(fold.R2, 'g', -1, 64),
			strconv.FormatFloat(fold.FitTime, 'g', -1, 64),
			strconv.FormatFloat(fold.ScoreTime, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "writing results row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "flushing results file %s", path)
	}
	return nil
}

// ReadResults reads a score table written by WriteResults.
func ReadResults(path string) (*modelselection.CVResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening results file %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading results file %s", path)
	}
	if len(records) < 2 {
		return nil, errors.Newf("results file %s has no folds", path)
	}

	result := &modelselection.CVResult{}
	for i, rec := range records[1:] {
		if len(rec) != 5 {
			return nil, errors.Newf("results file %s row %d is malformed", path, i+2)
		}
		fold, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, errors.Wrapf(err, "results file %s row %d: bad fold", path, i+2)
		}
		values := make([]float64, 4)
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "results file %s row %d: bad value", path, i+2)
			}
			values[j] = v
		}
		result.Folds = append(result.Folds, modelselection.FoldScore{
			Fold:      fold,
			MAE:       values[0],
			R2:        values[1],
			FitTime:   values[2],
			ScoreTime: values[3],
		})
	}

	return result, nil
}

// Task is one (dataset, benchmark) pair of a benchmark run.
type Task struct {
	Dataset   string
	Benchmark string
}

// Tasks builds the cross-product of datasets and benchmarks, validating
// every name before any work starts.
func Tasks(datasets, benchmarks []string) ([]Task, error) {
	tasks := make([]Task, 0, len(datasets)*len(benchmarks))
	for _, ds := range datasets {
		for _, bench := range benchmarks {
			if !IsKnownDataset(ds) {
				return nil, errors.NewValidationError("dataset", "unknown dataset", ds)
			}
			if !IsKnown(bench) {
				return nil, errors.NewValidationError("benchmark", "unknown benchmark", bench)
			}
			tasks = append(tasks, Task{Dataset: ds, Benchmark: bench})
		}
	}
	return tasks, nil
}

// Run executes every task in order, writing one score table per task.
func Run(tasks []Task, condition, resultsDir string, nJobs int) error {
	for _, task := range tasks {
		slog.Info("running benchmark", "benchmark", task.Benchmark, "dataset", task.Dataset)

		result, err := RunCV(task.Dataset, task.Benchmark, condition, nJobs)
		if err != nil {
			return errors.Wrapf(err, "benchmark %s on %s", task.Benchmark, task.Dataset)
		}
		if err := WriteResults(resultsDir, task.Benchmark, task.Dataset, result); err != nil {
			return err
		}
	}
	return nil
}
