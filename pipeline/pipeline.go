// Package pipeline chains feature transformers with a final regressor, in
// the manner of scikit-learn's make_pipeline. Each benchmark assembles its
// model as a Pipeline so cross-validation can treat them uniformly.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/metrics"
	"github.com/neurobench/brainage/pkg/errors"
)

// Step is a named transformation stage.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// Pipeline applies an ordered list of transformers and a final regressor.
type Pipeline struct {
	model.BaseEstimator

	Steps     []Step
	Estimator model.Regressor
}

// New creates a pipeline ending in estimator. Steps may be empty, in which
// case the pipeline is a plain wrapper around the estimator.
func New(estimator model.Regressor, steps ...Step) *Pipeline {
	return &Pipeline{Steps: steps, Estimator: estimator}
}

// Fit runs fit-transform through every step and fits the final estimator on
// the transformed features.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	if p.Estimator == nil {
		return errors.NewValueError("Pipeline.Fit", "pipeline has no final estimator")
	}

	cur := X
	for _, step := range p.Steps {
		if err := step.Transformer.Fit(cur, y); err != nil {
			return errors.Wrapf(err, "pipeline step %q fit failed", step.Name)
		}
		next, err := step.Transformer.Transform(cur)
		if err != nil {
			return errors.Wrapf(err, "pipeline step %q transform failed", step.Name)
		}
		cur = next
	}

	if err := p.Estimator.Fit(cur, y); err != nil {
		return errors.Wrap(err, "pipeline estimator fit failed")
	}

	p.SetFitted()
	return nil
}

// Predict transforms X through every fitted step and predicts with the final
// estimator.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}

	cur := X
	for _, step := range p.Steps {
		next, err := step.Transformer.Transform(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline step %q transform failed", step.Name)
		}
		cur = next
	}

	return p.Estimator.Predict(cur)
}

// Score returns the R² of the pipeline's predictions on X against y.
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	if !p.IsFitted() {
		return 0, errors.NewNotFittedError("Pipeline", "Score")
	}

	yPred, err := p.Predict(X)
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
