package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/pkg/errors"
)

// AggFunc selects the statistic used to collapse the epochs of one subject
// into a single feature row.
type AggFunc string

const (
	// AggMean aggregates epochs with the NaN-aware mean.
	AggMean AggFunc = "mean"
	// AggMedian aggregates epochs with the NaN-aware median.
	AggMedian AggFunc = "median"
)

// AggregateEpochs collapses per-subject epoch blocks into one row per
// subject. Each block is an epochs × features matrix; all blocks must agree
// on the feature count. NaN entries are ignored by the statistic; a feature
// that is NaN across all epochs of a subject stays NaN and is left to the
// imputer.
func AggregateEpochs(blocks []*mat.Dense, fn AggFunc) (*mat.Dense, error) {
	if len(blocks) == 0 {
		return nil, errors.NewModelError("AggregateEpochs", "empty data", errors.ErrEmptyData)
	}
	if fn != AggMean && fn != AggMedian {
		return nil, errors.NewValidationError("fn", "unknown aggregation function", string(fn))
	}

	_, nFeatures := blocks[0].Dims()
	for i, b := range blocks {
		_, c := b.Dims()
		if c != nFeatures {
			return nil, errors.NewDimensionError("AggregateEpochs", nFeatures, c, 1)
		}
		r, _ := b.Dims()
		if r == 0 {
			return nil, errors.Newf("AggregateEpochs: subject %d has no epochs", i)
		}
	}

	out := mat.NewDense(len(blocks), nFeatures, nil)
	for i, b := range blocks {
		r, _ := b.Dims()
		for j := 0; j < nFeatures; j++ {
			values := make([]float64, 0, r)
			for e := 0; e < r; e++ {
				v := b.At(e, j)
				if !math.IsNaN(v) {
					values = append(values, v)
				}
			}
			out.Set(i, j, aggregate(values, fn))
		}
	}

	return out, nil
}

func aggregate(values []float64, fn AggFunc) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	switch fn {
	case AggMedian:
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 1 {
			return values[mid]
		}
		return (values[mid-1] + values[mid]) / 2
	default:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
}
