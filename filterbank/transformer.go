package filterbank

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/pkg/errors"
)

// Method selects how band features are vectorized.
type Method string

const (
	// MethodRiemann projects band covariances to a reduced-rank space and
	// maps them to the tangent space at their geometric mean.
	MethodRiemann Method = "riemann"

	// MethodLogDiag takes the elementwise log of band power features.
	MethodLogDiag Method = "log_diag"
)

// FilterBankTransformer maps flattened per-band covariance rows (see
// CovSet.ToMatrix) or band power rows to flat regression features.
type FilterBankTransformer struct {
	model.BaseEstimator

	// Bands names the frequency bands, in the column order of the input.
	Bands []string

	// NChannels is the covariance dimension per band. Ignored by log_diag.
	NChannels int

	// Method selects the vectorization.
	Method Method

	// Rank is the projection rank for the riemann method. Zero keeps the
	// full channel dimension.
	Rank int

	// filters[band] is the NChannels×rank spatial filter learned during Fit.
	filters []*mat.Dense

	// refInvSqrt[band] is the inverse square root of the geometric mean of
	// the projected training covariances.
	refInvSqrt []*mat.SymDense

	// nCols is the expected input width, recorded during Fit.
	nCols int
}

// NewFilterBankTransformer creates a transformer for the given bands.
func NewFilterBankTransformer(bands []string, nChannels int, method Method, rank int) *FilterBankTransformer {
	return &FilterBankTransformer{
		Bands:     bands,
		NChannels: nChannels,
		Method:    method,
		Rank:      rank,
	}
}

func (t *FilterBankTransformer) rank() int {
	if t.Rank <= 0 || t.Rank > t.NChannels {
		return t.NChannels
	}
	return t.Rank
}

// Fit learns the per-band spatial filters and tangent-space reference points.
// For log_diag it only records the input width. The target vector y is
// ignored.
func (t *FilterBankTransformer) Fit(X, _ mat.Matrix) error {
	n, cols := X.Dims()
	if n == 0 || cols == 0 {
		return errors.NewModelError("FilterBankTransformer.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(t.Bands) == 0 {
		return errors.NewValueError("FilterBankTransformer.Fit", "no frequency bands configured")
	}

	switch t.Method {
	case MethodLogDiag:
		if cols%len(t.Bands) != 0 {
			return errors.NewDimensionError("FilterBankTransformer.Fit", len(t.Bands), cols, 1)
		}
		t.nCols = cols
		t.SetFitted()
		return nil

	case MethodRiemann:
		// Handled below.
	default:
		return errors.NewValidationError("method", "unknown filter bank method", string(t.Method))
	}

	c := t.NChannels
	if cols != len(t.Bands)*c*c {
		return errors.NewDimensionError("FilterBankTransformer.Fit", len(t.Bands)*c*c, cols, 1)
	}
	t.nCols = cols

	rank := t.rank()
	t.filters = make([]*mat.Dense, len(t.Bands))
	t.refInvSqrt = make([]*mat.SymDense, len(t.Bands))

	for band := range t.Bands {
		// Arithmetic mean covariance of the band defines the projection.
		meanCov := mat.NewSymDense(c, nil)
		for s := 0; s < n; s++ {
			cov := covFromRow(X, s, band, c)
			for i := 0; i < c; i++ {
				for j := i; j < c; j++ {
					meanCov.SetSym(i, j, meanCov.At(i, j)+cov.At(i, j)/float64(n))
				}
			}
		}

		vals, vecs, err := eigSym(meanCov)
		if err != nil {
			return errors.Wrapf(err, "band %q mean covariance", t.Bands[band])
		}

		// EigenSym returns ascending eigenvalues; take the top-rank
		// directions and whiten each by its eigenvalue.
		filter := mat.NewDense(c, rank, nil)
		for k := 0; k < rank; k++ {
			idx := c - 1 - k
			ev := vals[idx]
			if ev < eigFloor {
				ev = eigFloor
			}
			scale := 1 / math.Sqrt(ev)
			for i := 0; i < c; i++ {
				filter.Set(i, k, vecs.At(i, idx)*scale)
			}
		}
		t.filters[band] = filter

		projected := make([]*mat.SymDense, n)
		for s := 0; s < n; s++ {
			projected[s] = t.project(covFromRow(X, s, band, c), filter)
		}

		ref, err := MeanLogEuclidean(projected)
		if err != nil {
			return errors.Wrapf(err, "band %q reference point", t.Bands[band])
		}
		w, err := InvSqrtmSym(ref)
		if err != nil {
			return errors.Wrapf(err, "band %q whitening", t.Bands[band])
		}
		t.refInvSqrt[band] = w
	}

	t.SetFitted()
	return nil
}

// project computes Fᵀ C F for a spatial filter F.
func (t *FilterBankTransformer) project(cov *mat.SymDense, filter *mat.Dense) *mat.SymDense {
	_, rank := filter.Dims()

	var tmp, proj mat.Dense
	tmp.Mul(filter.T(), cov)
	proj.Mul(&tmp, filter)

	out := mat.NewSymDense(rank, nil)
	for i := 0; i < rank; i++ {
		for j := i; j < rank; j++ {
			out.SetSym(i, j, (proj.At(i, j)+proj.At(j, i))/2)
		}
	}
	return out
}

// Transform vectorizes every subject row into the flat feature space learned
// during Fit.
func (t *FilterBankTransformer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("FilterBankTransformer", "Transform")
	}

	n, cols := X.Dims()
	if cols != t.nCols {
		return nil, errors.NewDimensionError("FilterBankTransformer.Transform", t.nCols, cols, 1)
	}

	if t.Method == MethodLogDiag {
		out := mat.NewDense(n, cols, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < cols; j++ {
				v := X.At(i, j)
				if v < eigFloor {
					v = eigFloor
				}
				out.Set(i, j, math.Log(v))
			}
		}
		return out, nil
	}

	rank := t.rank()
	perBand := UpperVecDim(rank)
	out := mat.NewDense(n, len(t.Bands)*perBand, nil)

	buf := make([]float64, perBand)
	for s := 0; s < n; s++ {
		for band := range t.Bands {
			proj := t.project(covFromRow(X, s, band, t.NChannels), t.filters[band])

			// Tangent-space map at the reference: logm(W C W).
			w := t.refInvSqrt[band]
			var tmp, whitened mat.Dense
			tmp.Mul(w, proj)
			whitened.Mul(&tmp, w)

			sym := mat.NewSymDense(rank, nil)
			for i := 0; i < rank; i++ {
				for j := i; j < rank; j++ {
					sym.SetSym(i, j, (whitened.At(i, j)+whitened.At(j, i))/2)
				}
			}

			ts, err := LogmSym(sym)
			if err != nil {
				return nil, errors.Wrapf(err, "subject %d band %q tangent map", s, t.Bands[band])
			}

			UpperVec(ts, buf)
			for k, v := range buf {
				out.Set(s, band*perBand+k, v)
			}
		}
	}

	return out, nil
}
