// Package filterbank turns per-frequency-band covariance features into flat
// regression inputs. The riemann method projects band covariances to a
// reduced-rank space and maps them to the tangent space at their geometric
// mean; the log-diag method takes log band power. It mirrors the covariance
// featurization pipelines used for M/EEG age prediction.
package filterbank

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/pkg/errors"
)

// eigFloor clamps eigenvalues before taking logs or inverses so nearly
// singular covariances stay numerically workable.
const eigFloor = 1e-15

// eigSym returns the eigendecomposition of a symmetric matrix.
func eigSym(a *mat.SymDense) (vals []float64, vecs *mat.Dense, err error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(a, true); !ok {
		return nil, nil, errors.NewModelError("eigSym", "eigendecomposition failed", errors.ErrSingularMatrix)
	}

	vals = eig.Values(nil)
	var v mat.Dense
	eig.VectorsTo(&v)
	return vals, &v, nil
}

// applySpectral rebuilds V f(Λ) Vᵀ for a spectral function f.
func applySpectral(a *mat.SymDense, f func(float64) float64) (*mat.SymDense, error) {
	vals, vecs, err := eigSym(a)
	if err != nil {
		return nil, err
	}

	n := len(vals)
	scaled := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		fv := f(vals[j])
		for i := 0; i < n; i++ {
			scaled.Set(i, j, vecs.At(i, j)*fv)
		}
	}

	var prod mat.Dense
	prod.Mul(scaled, vecs.T())

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Symmetrize against round-off.
			out.SetSym(i, j, (prod.At(i, j)+prod.At(j, i))/2)
		}
	}
	return out, nil
}

// LogmSym returns the matrix logarithm of an SPD matrix. Eigenvalues are
// floored at eigFloor.
func LogmSym(a *mat.SymDense) (*mat.SymDense, error) {
	return applySpectral(a, func(v float64) float64 {
		if v < eigFloor {
			v = eigFloor
		}
		return math.Log(v)
	})
}

// ExpmSym returns the matrix exponential of a symmetric matrix.
func ExpmSym(a *mat.SymDense) (*mat.SymDense, error) {
	return applySpectral(a, math.Exp)
}

// InvSqrtmSym returns the inverse matrix square root of an SPD matrix.
func InvSqrtmSym(a *mat.SymDense) (*mat.SymDense, error) {
	return applySpectral(a, func(v float64) float64 {
		if v < eigFloor {
			v = eigFloor
		}
		return 1 / math.Sqrt(v)
	})
}

// MeanLogEuclidean returns the log-Euclidean geometric mean of SPD matrices:
// expm of the average of their logms.
func MeanLogEuclidean(covs []*mat.SymDense) (*mat.SymDense, error) {
	if len(covs) == 0 {
		return nil, errors.NewModelError("MeanLogEuclidean", "empty data", errors.ErrEmptyData)
	}

	n := covs[0].SymmetricDim()
	acc := mat.NewSymDense(n, nil)

	for _, c := range covs {
		if c.SymmetricDim() != n {
			return nil, errors.NewDimensionError("MeanLogEuclidean", n, c.SymmetricDim(), 1)
		}
		lg, err := LogmSym(c)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				acc.SetSym(i, j, acc.At(i, j)+lg.At(i, j))
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			acc.SetSym(i, j, acc.At(i, j)/float64(len(covs)))
		}
	}

	return ExpmSym(acc)
}

// UpperVecDim returns the length of the upper-triangle vectorization of an
// n×n symmetric matrix.
func UpperVecDim(n int) int {
	return n * (n + 1) / 2
}

// UpperVec writes the upper triangle of a symmetric matrix into dst,
// weighting off-diagonal entries by √2 so the Euclidean norm of the vector
// matches the Frobenius norm of the matrix.
func UpperVec(a *mat.SymDense, dst []float64) {
	n := a.SymmetricDim()
	sqrt2 := math.Sqrt2

	k := 0
	for i := 0; i < n; i++ {
		dst[k] = a.At(i, i)
		k++
		for j := i + 1; j < n; j++ {
			dst[k] = sqrt2 * a.At(i, j)
			k++
		}
	}
}
