package modelselection

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/core/parallel"
	"github.com/neurobench/brainage/metrics"
	"github.com/neurobench/brainage/pkg/errors"
)

// FoldScore holds the evaluation of a single cross-validation fold.
type FoldScore struct {
	Fold      int
	MAE       float64
	R2        float64
	FitTime   float64 // seconds
	ScoreTime float64 // seconds
}

// CVResult collects per-fold scores of one cross-validated evaluation.
type CVResult struct {
	Folds []FoldScore
}

// MeanMAE returns the mean absolute error averaged over folds.
func (r *CVResult) MeanMAE() float64 {
	sum := 0.0
	for _, f := range r.Folds {
		sum += f.MAE
	}
	return sum / float64(len(r.Folds))
}

// MeanR2 returns the R² averaged over folds.
func (r *CVResult) MeanR2() float64 {
	sum := 0.0
	for _, f := range r.Folds {
		sum += f.R2
	}
	return sum / float64(len(r.Folds))
}

// StdMAE returns the sample standard deviation of the per-fold MAE.
func (r *CVResult) StdMAE() float64 {
	if len(r.Folds) <= 1 {
		return 0
	}
	mean := r.MeanMAE()
	sumSq := 0.0
	for _, f := range r.Folds {
		diff := f.MAE - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(r.Folds)-1))
}

// CrossValidate fits a fresh estimator from newEstimator on the training
// split of every fold and scores MAE and R² on the held-out split. Folds are
// evaluated on up to nJobs workers (nJobs <= 0 uses all CPU cores).
func CrossValidate(newEstimator func() model.Regressor, X, y mat.Matrix, cv *KFold, nJobs int) (*CVResult, error) {
	if newEstimator == nil {
		return nil, errors.NewValueError("CrossValidate", "newEstimator must not be nil")
	}
	if cv == nil {
		return nil, errors.NewValueError("CrossValidate", "cv must not be nil")
	}

	n, _ := X.Dims()
	ny, _ := y.Dims()
	if ny != n {
		return nil, errors.NewDimensionError("CrossValidate", n, ny, 0)
	}
	if n < cv.NSplits {
		return nil, errors.NewValueError("CrossValidate", "more splits than samples")
	}

	folds := cv.Split(X)
	result := &CVResult{Folds: make([]FoldScore, len(folds))}
	foldErrs := make([]error, len(folds))

	parallel.MapN(len(folds), nJobs, func(idx int) {
		fold := folds[idx]

		trainX, trainY := Subset(X, y, fold.TrainIndices)
		testX, testY := Subset(X, y, fold.TestIndices)

		est := newEstimator()

		fitStart := time.Now()
		if err := est.Fit(trainX, trainY); err != nil {
			foldErrs[idx] = errors.Wrapf(err, "fold %d training failed", idx)
			return
		}
		fitTime := time.Since(fitStart).Seconds()

		scoreStart := time.Now()
		pred, err := est.Predict(testX)
		if err != nil {
			foldErrs[idx] = errors.Wrapf(err, "fold %d prediction failed", idx)
			return
		}

		yTrueVec, err := metrics.ColVec(testY)
		if err != nil {
			foldErrs[idx] = err
			return
		}
		yPredVec, err := metrics.ColVec(pred)
		if err != nil {
			foldErrs[idx] = err
			return
		}

		mae, err := metrics.MAE(yTrueVec, yPredVec)
		if err != nil {
			foldErrs[idx] = errors.Wrapf(err, "fold %d MAE failed", idx)
			return
		}
		r2, err := metrics.R2Score(yTrueVec, yPredVec)
		if err != nil {
			foldErrs[idx] = errors.Wrapf(err, "fold %d R2 failed", idx)
			return
		}
		scoreTime := time.Since(scoreStart).Seconds()

		result.Folds[idx] = FoldScore{
			Fold:      idx,
			MAE:       mae,
			R2:        r2,
			FitTime:   fitTime,
			ScoreTime: scoreTime,
		}
	})

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Subset extracts the rows of X and y selected by indices. Indices are sorted
// first so row order within a split is stable.
func Subset(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	sortedIndices := make([]int, len(indices))
	copy(sortedIndices, indices)
	sort.Ints(sortedIndices)

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range sortedIndices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
