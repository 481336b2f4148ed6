package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/metrics"
	"github.com/neurobench/brainage/pkg/errors"
)

// RidgeCV is ridge regression with efficient leave-one-out selection of the
// regularization strength. Fit factorizes the centered design matrix once
// with SVD and reuses it to evaluate every candidate alpha, so the search
// costs little more than a single fit.
type RidgeCV struct {
	model.BaseEstimator

	// Alphas is the candidate grid of regularization strengths.
	Alphas []float64

	// Coef holds the fitted coefficients.
	Coef *mat.VecDense

	// Intercept is the fitted intercept.
	Intercept float64

	// Alpha is the selected regularization strength.
	Alpha float64

	// BestLOOError is the mean squared leave-one-out error of the selected
	// alpha.
	BestLOOError float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int
}

// DefaultAlphas returns 100 log-spaced values in [1e-5, 1e10], the grid the
// age prediction benchmarks use.
func DefaultAlphas() []float64 {
	return LogSpace(-5, 10, 100)
}

// LogSpace returns n values spaced evenly on a log10 scale from 10^lo to
// 10^hi inclusive.
func LogSpace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{math.Pow(10, lo)}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = math.Pow(10, lo+float64(i)*step)
	}
	return out
}

// NewRidgeCV creates a RidgeCV over the given alpha grid. An empty grid
// selects the default grid.
func NewRidgeCV(alphas []float64) *RidgeCV {
	if len(alphas) == 0 {
		alphas = DefaultAlphas()
	}
	return &RidgeCV{Alphas: alphas}
}

// Fit selects alpha by leave-one-out error and fits the ridge solution on the
// full data with the winning alpha.
func (r *RidgeCV) Fit(X, y mat.Matrix) error {
	n, p := X.Dims()
	ny, cy := y.Dims()

	if n == 0 || p == 0 {
		return errors.NewModelError("RidgeCV.Fit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return errors.NewDimensionError("RidgeCV.Fit", n, ny, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RidgeCV.Fit", "y must be a column vector")
	}
	if n < 3 {
		return errors.NewValueError("RidgeCV.Fit", "need at least 3 samples for leave-one-out selection")
	}

	r.NFeatures = p

	// Center the design matrix and the targets; the intercept is recovered
	// from the means afterwards.
	xMean := make([]float64, p)
	for j := 0; j < p; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		xMean[j] = sum / float64(n)
	}

	yMean := 0.0
	for i := 0; i < n; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(n)

	Xc := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			Xc.Set(i, j, X.At(i, j)-xMean[j])
		}
	}
	yc := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yc.SetVec(i, y.At(i, 0)-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return errors.NewModelError("RidgeCV.Fit", "SVD factorization failed", errors.ErrSingularMatrix)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)
	k := len(sv)

	// Project the centered targets once: uty = U^T yc.
	uty := mat.NewVecDense(k, nil)
	uty.MulVec(u.T(), yc)

	bestAlpha := r.Alphas[0]
	bestErr := math.Inf(1)

	for _, alpha := range r.Alphas {
		// Shrinkage factor per singular direction.
		shrink := make([]float64, k)
		for j := 0; j < k; j++ {
			d2 := sv[j] * sv[j]
			shrink[j] = d2 / (d2 + alpha)
		}

		looErr := 0.0
		for i := 0; i < n; i++ {
			// Fitted value and hat-matrix diagonal for sample i. The
			// intercept contributes 1/n to the leverage.
			pred := 0.0
			h := 1.0 / float64(n)
			for j := 0; j < k; j++ {
				uij := u.At(i, j)
				pred += uij * shrink[j] * uty.AtVec(j)
				h += uij * uij * shrink[j]
			}
			residual := yc.AtVec(i) - pred
			denom := 1.0 - h
			if denom < 1e-12 {
				denom = 1e-12
			}
			loo := residual / denom
			looErr += loo * loo
		}
		looErr /= float64(n)

		if looErr < bestErr {
			bestErr = looErr
			bestAlpha = alpha
		}
	}

	r.Alpha = bestAlpha
	r.BestLOOError = bestErr

	if len(r.Alphas) > 1 && (bestAlpha == r.Alphas[0] || bestAlpha == r.Alphas[len(r.Alphas)-1]) {
		errors.Warn(errors.NewSelectionWarning("RidgeCV",
			fmt.Sprintf("selected alpha %.3g at the edge of the search grid", bestAlpha)))
	}

	// Final coefficients: w = V diag(d/(d²+α)) U^T yc.
	coef := mat.NewVecDense(p, nil)
	scaled := mat.NewVecDense(k, nil)
	for j := 0; j < k; j++ {
		d := sv[j]
		scaled.SetVec(j, d/(d*d+bestAlpha)*uty.AtVec(j))
	}
	coef.MulVec(&v, scaled)

	r.Coef = coef
	r.Intercept = yMean
	for j := 0; j < p; j++ {
		r.Intercept -= xMean[j] * coef.AtVec(j)
	}

	r.SetFitted()
	return nil
}

// Predict returns X·coef + intercept as a column matrix.
func (r *RidgeCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("RidgeCV", "Predict")
	}

	n, p := X.Dims()
	if p != r.NFeatures {
		return nil, errors.NewDimensionError("RidgeCV.Predict", r.NFeatures, p, 1)
	}

	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		pred := r.Intercept
		for j := 0; j < p; j++ {
			pred += X.At(i, j) * r.Coef.AtVec(j)
		}
		out.Set(i, 0, pred)
	}

	return out, nil
}

// Score returns the R² of the prediction on X against y.
func (r *RidgeCV) Score(X, y mat.Matrix) (float64, error) {
	if !r.IsFitted() {
		return 0, errors.NewNotFittedError("RidgeCV", "Score")
	}

	yPred, err := r.Predict(X)
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
