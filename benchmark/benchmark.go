// Package benchmark assembles and evaluates the age prediction benchmarks:
// it loads the per-subject features of a dataset, builds the matching
// regression pipeline, and cross-validates it.
package benchmark

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/neurobench/brainage/core/model"
	"github.com/neurobench/brainage/dataset"
	"github.com/neurobench/brainage/ensemble"
	"github.com/neurobench/brainage/filterbank"
	"github.com/neurobench/brainage/modelselection"
	"github.com/neurobench/brainage/pipeline"
	"github.com/neurobench/brainage/pkg/errors"
	"github.com/neurobench/brainage/preprocessing"
	"github.com/neurobench/brainage/regression"
)

// Known benchmark names.
const (
	Dummy            = "dummy"
	FilterBankRieman = "filterbank-riemann"
	FilterBankSource = "filterbank-source"
	Handcrafted      = "handcrafted"
	Deep             = "deep"
)

// Names lists the benchmarks runnable from the command line. The deep
// variant is declared but not implemented yet and is therefore excluded.
var Names = []string{Dummy, FilterBankRieman, FilterBankSource, Handcrafted}

// IsKnownDataset reports whether name is a known dataset.
func IsKnownDataset(name string) bool {
	return dataset.IsKnown(name)
}

// IsKnown reports whether name is a known benchmark.
func IsKnown(name string) bool {
	if name == Deep {
		return true
	}
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// featureLabels maps each benchmark to the feature map computed for it.
var featureLabels = map[string]string{
	FilterBankRieman: dataset.FeatureFBCovs,
	FilterBankSource: dataset.FeatureSourcePower,
	Handcrafted:      dataset.FeatureHandcrafted,
}

// Data bundles the inputs of one benchmark run: the feature matrix, the age
// targets, and a factory producing a fresh unfitted model per
// cross-validation fold.
type Data struct {
	X        mat.Matrix
	Y        *mat.Dense
	NewModel func() model.Regressor
}

// Load assembles the features, targets and model of one (dataset, benchmark)
// pair. An empty condition selects the dataset default.
func Load(datasetName, benchmarkName, condition string) (*Data, error) {
	if !IsKnown(benchmarkName) {
		return nil, errors.NewValidationError("benchmark", "unknown benchmark", benchmarkName)
	}
	if benchmarkName == Deep {
		return nil, errors.Wrap(errors.ErrNotImplemented, "deep benchmark")
	}

	cfg, err := dataset.Load(datasetName)
	if err != nil {
		return nil, err
	}
	cond := cfg.Condition(condition)

	participants, err := dataset.LoadParticipants(cfg.BIDSRoot)
	if err != nil {
		return nil, err
	}

	// The dummy baseline uses every participant; the feature benchmarks keep
	// only subjects whose feature computation succeeded.
	if benchmarkName != Dummy {
		good, err := dataset.LoadFeatureLog(cfg.DerivRoot, featureLabels[benchmarkName], cond)
		if err != nil {
			return nil, err
		}
		participants = dataset.FilterParticipants(participants, good)
		slog.Info("found feature data",
			"dataset", datasetName,
			"benchmark", benchmarkName,
			"n_subjects", len(participants),
		)
	}
	if len(participants) == 0 {
		return nil, errors.Newf("no subjects with features for %s on %s", benchmarkName, datasetName)
	}

	subjects := make([]string, len(participants))
	y := mat.NewDense(len(participants), 1, nil)
	for i, p := range participants {
		subjects[i] = p.ID
		y.Set(i, 0, p.Age)
	}

	switch benchmarkName {
	case Dummy:
		return &Data{
			X: mat.NewDense(len(participants), 1, nil),
			Y: y,
			NewModel: func() model.Regressor {
				return regression.NewDummyRegressor()
			},
		}, nil

	case FilterBankRieman:
		bands := filterbank.BandNames(filterbank.DefaultBands)
		path := dataset.FeaturePath(cfg.DerivRoot, dataset.FeatureFBCovs, cond)
		covs, err := dataset.LoadCovFeatures(path, subjects, bands)
		if err != nil {
			return nil, err
		}
		X, err := covs.ToMatrix()
		if err != nil {
			return nil, err
		}

		nChannels := covs.NChannels
		rank := cfg.ProjectionRank()
		return &Data{
			X: X,
			Y: y,
			NewModel: func() model.Regressor {
				return pipeline.New(
					regression.NewRidgeCV(nil),
					pipeline.Step{
						Name:        "filterbank",
						Transformer: filterbank.NewFilterBankTransformer(bands, nChannels, filterbank.MethodRiemann, rank),
					},
					pipeline.Step{Name: "scaler", Transformer: preprocessing.NewStandardScaler()},
				)
			},
		}, nil

	case FilterBankSource:
		bands := filterbank.BandNames(filterbank.DefaultBands)
		path := dataset.FeaturePath(cfg.DerivRoot, dataset.FeatureSourcePower, cond)
		X, err := dataset.LoadSourcePower(path, subjects, len(bands))
		if err != nil {
			return nil, err
		}

		return &Data{
			X: X,
			Y: y,
			NewModel: func() model.Regressor {
				return pipeline.New(
					regression.NewRidgeCV(nil),
					pipeline.Step{
						Name:        "filterbank",
						Transformer: filterbank.NewFilterBankTransformer(bands, 0, filterbank.MethodLogDiag, 0),
					},
					pipeline.Step{Name: "scaler", Transformer: preprocessing.NewStandardScaler()},
				)
			},
		}, nil

	case Handcrafted:
		path := dataset.FeaturePath(cfg.DerivRoot, dataset.FeatureHandcrafted, cond)
		blocks, err := dataset.LoadHandcrafted(path, subjects)
		if err != nil {
			return nil, err
		}

		// Epoch aggregation is stateless, so it runs once up front rather
		// than inside every fold.
		X, err := preprocessing.AggregateEpochs(blocks, preprocessing.AggMean)
		if err != nil {
			return nil, err
		}

		return &Data{
			X: X,
			Y: y,
			NewModel: func() model.Regressor {
				return pipeline.New(
					newForestSearch(),
					pipeline.Step{Name: "imputer", Transformer: preprocessing.NewSimpleImputer()},
				)
			},
		}, nil
	}

	return nil, errors.NewValidationError("benchmark", "unknown benchmark", benchmarkName)
}

// forestGrid is the hyperparameter grid of the handcrafted benchmark.
var forestGrid = modelselection.ParamGrid{
	"max_depth":    {4, 6, 8, 16, 32, 0},
	"max_features": {ensemble.MaxFeaturesLog2, ensemble.MaxFeaturesSqrt, ensemble.MaxFeaturesAll},
}

// newForestSearch builds the grid-searched random forest of the handcrafted
// benchmark: 1000 trees, inner 5-fold CV scored by MAE.
func newForestSearch() *modelselection.GridSearchCV {
	factory := func(params map[string]interface{}) (model.Regressor, error) {
		depth, ok := params["max_depth"].(int)
		if !ok {
			return nil, errors.NewValidationError("max_depth", "must be an int", params["max_depth"])
		}
		features, ok := params["max_features"].(string)
		if !ok {
			return nil, errors.NewValidationError("max_features", "must be a string", params["max_features"])
		}

		return ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(1000),
			ensemble.WithMaxDepth(depth),
			ensemble.WithMaxFeatures(features),
			ensemble.WithRandomState(42),
		), nil
	}

	return modelselection.NewGridSearchCV(factory, forestGrid, modelselection.NewKFold(5, false, 0), 1)
}

// RunCV cross-validates one (dataset, benchmark) pair with 10-fold CV and
// returns the per-fold scores.
func RunCV(datasetName, benchmarkName, condition string, nJobs int) (*modelselection.CVResult, error) {
	data, err := Load(datasetName, benchmarkName, condition)
	if err != nil {
		return nil, err
	}

	cv := modelselection.NewKFold(10, true, 42)
	result, err := modelselection.CrossValidate(data.NewModel, data.X, data.Y, cv, nJobs)
	if err != nil {
		return nil, err
	}

	slog.Info("cross-validation finished",
		"benchmark", benchmarkName,
		"dataset", datasetName,
		"mean_mae", result.MeanMAE(),
		"mean_r2", result.MeanR2(),
	)

	return result, nil
}
