package ensemble

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/core/parallel"
	"github.com/neurobench/brainage/metrics"
	"github.com/neurobench/brainage/pkg/errors"
)

// Feature subset modes for MaxFeatures.
const (
	// MaxFeaturesAll considers every feature at each split.
	MaxFeaturesAll = ""
	// MaxFeaturesSqrt considers sqrt(n_features) features at each split.
	MaxFeaturesSqrt = "sqrt"
	// MaxFeaturesLog2 considers log2(n_features) features at each split.
	MaxFeaturesLog2 = "log2"
)

// RandomForestRegressor averages bootstrap-trained regression trees.
type RandomForestRegressor struct {
	model.BaseEstimator

	// NEstimators is the number of trees.
	NEstimators int

	// MaxDepth limits tree depth; 0 grows trees until leaves are pure or
	// below MinSamplesSplit.
	MaxDepth int

	// MaxFeatures selects the per-split feature subset mode.
	MaxFeatures string

	// MinSamplesSplit is the minimum samples required to split a node.
	MinSamplesSplit int

	// RandomState seeds bootstrap sampling and feature subsampling.
	RandomState int

	// NFeatures is the number of features seen during Fit.
	NFeatures int

	trees []*regressionTree
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(rf *RandomForestRegressor) {
		rf.NEstimators = n
	}
}

// WithMaxDepth limits the depth of each tree. Zero means unlimited.
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestRegressor) {
		rf.MaxDepth = depth
	}
}

// WithMaxFeatures sets the per-split feature subset mode.
func WithMaxFeatures(mode string) Option {
	return func(rf *RandomForestRegressor) {
		rf.MaxFeatures = mode
	}
}

// WithMinSamplesSplit sets the minimum samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(rf *RandomForestRegressor) {
		rf.MinSamplesSplit = n
	}
}

// WithRandomState seeds the forest's randomness.
func WithRandomState(seed int) Option {
	return func(rf *RandomForestRegressor) {
		rf.RandomState = seed
	}
}

// NewRandomForestRegressor creates a forest with the benchmark defaults:
// 1000 trees, unlimited depth, all features per split, seed 42.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     1000,
		MinSamplesSplit: 2,
		RandomState:     42,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Clone returns an unfitted copy with identical hyperparameters.
func (rf *RandomForestRegressor) Clone() *RandomForestRegressor {
	return NewRandomForestRegressor(
		WithNEstimators(rf.NEstimators),
		WithMaxDepth(rf.MaxDepth),
		WithMaxFeatures(rf.MaxFeatures),
		WithMinSamplesSplit(rf.MinSamplesSplit),
		WithRandomState(rf.RandomState),
	)
}

func (rf *RandomForestRegressor) featuresPerSplit(nFeatures int) (int, error) {
	switch rf.MaxFeatures {
	case MaxFeaturesAll:
		return nFeatures, nil
	case MaxFeaturesSqrt:
		return max(1, int(math.Sqrt(float64(nFeatures)))), nil
	case MaxFeaturesLog2:
		return max(1, int(math.Log2(float64(nFeatures)))), nil
	default:
		return 0, errors.NewValidationError("MaxFeatures", "unknown feature subset mode", rf.MaxFeatures)
	}
}

// Fit grows the forest on bootstrap samples of (X, y). Trees are grown in
// parallel across CPU cores.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	n, p := X.Dims()
	ny, cy := y.Dims()

	if n == 0 || p == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return errors.NewDimensionError("RandomForestRegressor.Fit", n, ny, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", "y must be a column vector")
	}
	if rf.NEstimators < 1 {
		return errors.NewValidationError("NEstimators", "must be at least 1", rf.NEstimators)
	}

	maxFeatures, err := rf.featuresPerSplit(p)
	if err != nil {
		return err
	}

	rf.NFeatures = p

	// Row-major copies keep tree growing off the mat.Matrix interface.
	rows := make([][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			rows[i][j] = X.At(i, j)
		}
		targets[i] = y.At(i, 0)
	}

	trees := make([]*regressionTree, rf.NEstimators)
	parallel.Parallelize(rf.NEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			// Independent stream per tree so results do not depend on
			// scheduling.
			rng := rand.New(rand.NewPCG(uint64(rf.RandomState), uint64(t)))

			bootstrap := make([]int, n)
			for i := range bootstrap {
				bootstrap[i] = rng.IntN(n)
			}

			tree := &regressionTree{
				maxDepth:        rf.MaxDepth,
				minSamplesSplit: rf.MinSamplesSplit,
				maxFeatures:     maxFeatures,
				rng:             rng,
			}
			tree.grow(rows, targets, bootstrap)
			trees[t] = tree
		}
	})

	rf.trees = trees
	rf.SetFitted()
	return nil
}

// Predict returns the mean prediction of all trees as a column matrix.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}

	n, p := X.Dims()
	if p != rf.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", rf.NFeatures, p, 1)
	}

	out := mat.NewDense(n, 1, nil)
	parallel.ParallelizeWithThreshold(n, 256, func(start, end int) {
		row := make([]float64, p)
		for i := start; i < end; i++ {
			for j := 0; j < p; j++ {
				row[j] = X.At(i, j)
			}
			sum := 0.0
			for _, tree := range rf.trees {
				sum += tree.predict(row)
			}
			out.Set(i, 0, sum/float64(len(rf.trees)))
		}
	})

	return out, nil
}

// Score returns the R² of the prediction on X against y.
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !rf.IsFitted() {
		return 0, errors.NewNotFittedError("RandomForestRegressor", "Score")
	}

	yPred, err := rf.Predict(X)
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
