package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/pkg/errors"
)

// SimpleImputer replaces NaN entries with the per-feature mean of the
// training data. Handcrafted feature sets carry NaNs for channels or measures
// that could not be computed for a subject.
type SimpleImputer struct {
	model.BaseEstimator

	// Statistics holds the fill value per feature.
	Statistics []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int
}

// NewSimpleImputer creates a mean-strategy imputer.
func NewSimpleImputer() *SimpleImputer {
	return &SimpleImputer{}
}

// Fit computes the per-feature mean over non-NaN entries. The target vector y
// is ignored.
func (im *SimpleImputer) Fit(X, _ mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	im.NFeatures = c
	im.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		count := 0
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		if count == 0 {
			// Entirely missing feature, filled with zero like sklearn.
			im.Statistics[j] = 0
			continue
		}
		im.Statistics[j] = sum / float64(count)
	}

	im.SetFitted()
	return nil
}

// Transform replaces NaN entries of X with the learned fill values.
func (im *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !im.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}

	r, c := X.Dims()
	if c != im.NFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", im.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = im.Statistics[j]
			}
			out.Set(i, j, v)
		}
	}

	return out, nil
}
