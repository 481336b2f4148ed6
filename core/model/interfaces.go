// Package model provides the estimator and transformer interfaces shared by
// the feature-extraction and regression stages of the benchmarking pipeline.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for trainable estimators.
type Fitter interface {
	// Fit trains the estimator on the given data.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for estimators that produce predictions.
type Predictor interface {
	// Predict returns predictions for the input data.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Regressor combines the interfaces a regression model must satisfy.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Transformer is the interface for feature transformation stages.
type Transformer interface {
	// Fit learns the parameters required for the transformation. The target
	// vector y is accepted for pipeline compatibility and may be ignored.
	Fit(X, y mat.Matrix) error

	// Transform maps the input data to the transformed feature space.
	Transform(X mat.Matrix) (mat.Matrix, error)
}
