package filterbank

import (
	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/pkg/errors"
)

// DefaultBands lists the seven analysis frequency bands (Hz) used by the
// filterbank benchmarks, in their canonical order.
var DefaultBands = []Band{
	{Name: "low", Low: 0.1, High: 1},
	{Name: "delta", Low: 1, High: 4},
	{Name: "theta", Low: 4, High: 8},
	{Name: "alpha", Low: 8, High: 15},
	{Name: "beta_low", Low: 15, High: 26},
	{Name: "beta_mid", Low: 26, High: 35},
	{Name: "beta_high", Low: 35, High: 49},
}

// Band is a frequency band with its edges in Hz.
type Band struct {
	Name string
	Low  float64
	High float64
}

// BandNames returns the names of bands in order.
func BandNames(bands []Band) []string {
	names := make([]string, len(bands))
	for i, b := range bands {
		names[i] = b.Name
	}
	return names
}

// CovSet holds per-subject, per-band covariance matrices.
type CovSet struct {
	Bands     []string
	NChannels int

	// Covs[subject][band] is an NChannels×NChannels covariance.
	Covs [][]*mat.SymDense
}

// NewCovSet creates an empty covariance set for the given bands and channel
// count.
func NewCovSet(bands []string, nChannels int) *CovSet {
	return &CovSet{Bands: bands, NChannels: nChannels}
}

// Append adds one subject's per-band covariances to the set.
func (cs *CovSet) Append(covs []*mat.SymDense) error {
	if len(covs) != len(cs.Bands) {
		return errors.NewDimensionError("CovSet.Append", len(cs.Bands), len(covs), 1)
	}
	for _, c := range covs {
		if c.SymmetricDim() != cs.NChannels {
			return errors.NewDimensionError("CovSet.Append", cs.NChannels, c.SymmetricDim(), 1)
		}
	}
	cs.Covs = append(cs.Covs, covs)
	return nil
}

// NSubjects returns the number of subjects in the set.
func (cs *CovSet) NSubjects() int {
	return len(cs.Covs)
}

// ToMatrix flattens the set into an n_subjects × (n_bands · C²) matrix,
// band-major, row-major within each covariance. FilterBankTransformer
// reshapes rows back into matrices, which keeps covariance features
// compatible with the mat.Matrix pipeline interfaces.
func (cs *CovSet) ToMatrix() (*mat.Dense, error) {
	if len(cs.Covs) == 0 {
		return nil, errors.NewModelError("CovSet.ToMatrix", "empty data", errors.ErrEmptyData)
	}

	c := cs.NChannels
	rowLen := len(cs.Bands) * c * c
	out := mat.NewDense(len(cs.Covs), rowLen, nil)

	for s, covs := range cs.Covs {
		col := 0
		for _, cov := range covs {
			for i := 0; i < c; i++ {
				for j := 0; j < c; j++ {
					out.Set(s, col, cov.At(i, j))
					col++
				}
			}
		}
	}

	return out, nil
}

// covFromRow rebuilds the covariance of one band from a flattened feature
// row.
func covFromRow(X mat.Matrix, row, band, nChannels int) *mat.SymDense {
	offset := band * nChannels * nChannels
	out := mat.NewSymDense(nChannels, nil)
	for i := 0; i < nChannels; i++ {
		for j := i; j < nChannels; j++ {
			a := X.At(row, offset+i*nChannels+j)
			b := X.At(row, offset+j*nChannels+i)
			out.SetSym(i, j, (a+b)/2)
		}
	}
	return out
}
