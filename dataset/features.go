package dataset

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/filterbank"
	"github.com/neurobench/brainage/pkg/errors"
)

// Feature map labels, matching the feature computation pipeline's output
// files.
const (
	FeatureFBCovs      = "fb_covs"
	FeatureSourcePower = "source_power"
	FeatureHandcrafted = "handcrafted"
)

// FeaturePath returns the feature store path for a feature map and condition.
func FeaturePath(derivRoot, featureLabel, condition string) string {
	return filepath.Join(derivRoot, "features_"+featureLabel+"_"+condition+".json")
}

// covsDoc is the per-subject document of the fb_covs store:
// covs[band][channel][channel].
type covsDoc struct {
	Covs [][][]float64 `json:"covs"`
}

// handcraftedDoc is the per-subject document of the handcrafted store:
// feats[epoch][feature]. Missing values are encoded as JSON null and decoded
// to NaN.
type handcraftedDoc struct {
	Feats [][]*float64 `json:"feats"`
}

func readStore[T any](path string) (map[string]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening feature store %s", path)
	}
	defer f.Close()

	var doc map[string]T
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "decoding feature store %s", path)
	}
	return doc, nil
}

// LoadCovFeatures reads per-band covariances for the given subjects, in
// subject order, from the fb_covs store.
func LoadCovFeatures(path string, subjects []string, bands []string) (*filterbank.CovSet, error) {
	doc, err := readStore[covsDoc](path)
	if err != nil {
		return nil, err
	}

	var cs *filterbank.CovSet
	for _, sub := range subjects {
		entry, ok := doc[sub]
		if !ok {
			return nil, errors.Newf("feature store %s has no entry for subject %s", path, sub)
		}
		if len(entry.Covs) != len(bands) {
			return nil, errors.NewDimensionError("LoadCovFeatures", len(bands), len(entry.Covs), 1)
		}

		covs := make([]*mat.SymDense, len(bands))
		for b, band := range entry.Covs {
			n := len(band)
			sym := mat.NewSymDense(n, nil)
			for i := 0; i < n; i++ {
				if len(band[i]) != n {
					return nil, errors.Newf("feature store %s subject %s band %d is not square", path, sub, b)
				}
				for j := i; j < n; j++ {
					sym.SetSym(i, j, (band[i][j]+band[j][i])/2)
				}
			}
			covs[b] = sym
		}

		if cs == nil {
			cs = filterbank.NewCovSet(bands, covs[0].SymmetricDim())
		}
		if err := cs.Append(covs); err != nil {
			return nil, errors.Wrapf(err, "subject %s", sub)
		}
	}

	if cs == nil {
		return nil, errors.NewModelError("LoadCovFeatures", "no subjects", errors.ErrEmptyData)
	}
	return cs, nil
}

// LoadSourcePower reads per-band source power vectors for the given subjects
// and flattens them band-major into an n_subjects × (n_bands · n_sources)
// matrix.
func LoadSourcePower(path string, subjects []string, nBands int) (*mat.Dense, error) {
	doc, err := readStore[[][]float64](path)
	if err != nil {
		return nil, err
	}

	var out *mat.Dense
	nSources := 0
	for s, sub := range subjects {
		entry, ok := doc[sub]
		if !ok {
			return nil, errors.Newf("feature store %s has no entry for subject %s", path, sub)
		}
		if len(entry) != nBands {
			return nil, errors.NewDimensionError("LoadSourcePower", nBands, len(entry), 1)
		}

		if out == nil {
			nSources = len(entry[0])
			out = mat.NewDense(len(subjects), nBands*nSources, nil)
		}

		for b, power := range entry {
			if len(power) != nSources {
				return nil, errors.NewDimensionError("LoadSourcePower", nSources, len(power), 1)
			}
			for k, v := range power {
				out.Set(s, b*nSources+k, v)
			}
		}
	}

	if out == nil {
		return nil, errors.NewModelError("LoadSourcePower", "no subjects", errors.ErrEmptyData)
	}
	return out, nil
}

// LoadHandcrafted reads the per-subject epochs × features blocks of the
// handcrafted store, in subject order.
func LoadHandcrafted(path string, subjects []string) ([]*mat.Dense, error) {
	doc, err := readStore[handcraftedDoc](path)
	if err != nil {
		return nil, err
	}

	blocks := make([]*mat.Dense, 0, len(subjects))
	for _, sub := range subjects {
		entry, ok := doc[sub]
		if !ok {
			return nil, errors.Newf("feature store %s has no entry for subject %s", path, sub)
		}
		if len(entry.Feats) == 0 {
			return nil, errors.Newf("feature store %s subject %s has no epochs", path, sub)
		}

		nFeatures := len(entry.Feats[0])
		block := mat.NewDense(len(entry.Feats), nFeatures, nil)
		for e, row := range entry.Feats {
			if len(row) != nFeatures {
				return nil, errors.Newf("feature store %s subject %s has ragged epochs", path, sub)
			}
			for j, v := range row {
				if v == nil {
					block.Set(e, j, math.NaN())
				} else {
					block.Set(e, j, *v)
				}
			}
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
