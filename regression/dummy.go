// Package regression implements the regression estimators used by the age
// prediction benchmarks: a mean-strategy dummy baseline and ridge regression
// with built-in leave-one-out selection of the regularization strength.
package regression

import (
	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/metrics"
	"github.com/neurobench/brainage/pkg/errors"
)

// DummyRegressor predicts the mean of the training targets regardless of the
// input. It is the chance-level baseline of the benchmarks.
type DummyRegressor struct {
	model.BaseEstimator

	// Constant is the value predicted for every sample.
	Constant float64
}

// NewDummyRegressor creates a mean-strategy dummy regressor.
func NewDummyRegressor() *DummyRegressor {
	return &DummyRegressor{}
}

// Fit stores the mean of y. X is only checked for row agreement.
func (d *DummyRegressor) Fit(X, y mat.Matrix) error {
	r, _ := X.Dims()
	ry, cy := y.Dims()
	if ry == 0 {
		return errors.NewModelError("DummyRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if r != ry {
		return errors.NewDimensionError("DummyRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DummyRegressor.Fit", "y must be a column vector")
	}

	sum := 0.0
	for i := 0; i < ry; i++ {
		sum += y.At(i, 0)
	}
	d.Constant = sum / float64(ry)

	d.SetFitted()
	return nil
}

// Predict returns the stored constant for every row of X.
func (d *DummyRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !d.IsFitted() {
		return nil, errors.NewNotFittedError("DummyRegressor", "Predict")
	}

	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, d.Constant)
	}
	return out, nil
}

// Score returns the R² of the constant prediction, which is at most zero.
func (d *DummyRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !d.IsFitted() {
		return 0, errors.NewNotFittedError("DummyRegressor", "Score")
	}

	yPred, err := d.Predict(X)
	if err != nil {
		return 0, err
	}

	yTrueVec, err := metrics.ColVec(y)
	if err != nil {
		return 0, err
	}
	yPredVec, err := metrics.ColVec(yPred)
	if err != nil {
		return 0, err
	}

	return metrics.R2Score(yTrueVec, yPredVec)
}
