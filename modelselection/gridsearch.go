package modelselection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/metrics"
	"github.com/neurobench/brainage/pkg/errors"
)

// ParamGrid maps a hyperparameter name to its candidate values.
type ParamGrid map[string][]interface{}

// EstimatorFactory builds an unfitted estimator for one parameter
// combination.
type EstimatorFactory func(params map[string]interface{}) (model.Regressor, error)

// GridSearchCV exhaustively evaluates every parameter combination with inner
// cross-validation, scored by mean absolute error, then refits the winning
// combination on the full data. It satisfies the Regressor interface so it
// can serve as the final stage of a pipeline.
type GridSearchCV struct {
	model.BaseEstimator

	// New builds an estimator for a parameter combination.
	New EstimatorFactory

	// Grid holds the candidate values per parameter.
	Grid ParamGrid

	// CV is the inner splitter. Nil defaults to 5-fold without shuffling.
	CV *KFold

	// NJobs bounds the worker count of the inner cross-validation.
	NJobs int

	// BestParams holds the winning combination after Fit.
	BestParams map[string]interface{}

	// BestScore is the mean inner-CV MAE of the winning combination.
	BestScore float64

	// BestEstimator is the winning estimator refitted on the full data.
	BestEstimator model.Regressor
}

// NewGridSearchCV creates a grid search over grid using factory-built
// estimators.
func NewGridSearchCV(factory EstimatorFactory, grid ParamGrid, cv *KFold, nJobs int) *GridSearchCV {
	if cv == nil {
		cv = NewKFold(5, false, 0)
	}
	return &GridSearchCV{
		New:   factory,
		Grid:  grid,
		CV:    cv,
		NJobs: nJobs,
	}
}

// combinations enumerates the cartesian product of the grid in a stable
// order.
func (gs *GridSearchCV) combinations() []map[string]interface{} {
	keys := make([]string, 0, len(gs.Grid))
	for k := range gs.Grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]interface{}{{}}
	for _, key := range keys {
		values := gs.Grid[key]
		next := make([]map[string]interface{}, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				extended := make(map[string]interface{}, len(combo)+1)
				for ck, cv := range combo {
					extended[ck] = cv
				}
				extended[key] = v
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

// Fit evaluates every grid combination and refits the best one on (X, y).
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	if gs.New == nil {
		return errors.NewValueError("GridSearchCV.Fit", "estimator factory must not be nil")
	}
	if len(gs.Grid) == 0 {
		return errors.NewValueError("GridSearchCV.Fit", "empty parameter grid")
	}

	bestScore := math.Inf(1)
	var bestParams map[string]interface{}

	for _, params := range gs.combinations() {
		params := params
		factory := func() model.Regressor {
			est, err := gs.New(params)
			if err != nil {
				// Invalid combinations are caught below when the candidate
				// estimator is built for validation.
				return nil
			}
			return est
		}

		// Surface factory errors eagerly instead of inside fold workers.
		if _, err := gs.New(params); err != nil {
			return errors.Wrapf(err, "grid candidate %v is invalid", params)
		}

		res, err := CrossValidate(factory, X, y, gs.CV, gs.NJobs)
		if err != nil {
			return errors.Wrapf(err, "grid candidate %v failed", params)
		}

		if score := res.MeanMAE(); score < bestScore {
			bestScore = score
			bestParams = params
		}
	}

	gs.BestParams = bestParams
	gs.BestScore = bestScore

	best, err := gs.New(bestParams)
	if err != nil {
		return err
	}
	if err := best.Fit(X, y); err != nil {
		return errors.Wrap(err, "refit of best estimator failed")
	}
	gs.BestEstimator = best

	gs.SetFitted()
	return nil
}

// Predict delegates to the refitted best estimator.
func (gs *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !gs.IsFitted() {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return gs.BestEstimator.Predict(X)
}

// Score returns the R² of the best estimator's prediction on X against y.
func (gs *GridSearchCV) Score(X, y mat.Matrix) (float64, error) {
	if !gs.IsFitted() {
		return 0, errors.NewNotFittedError("GridSearchCV", "Score")
	}

	yPred, err := gs.Predict(X)
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
