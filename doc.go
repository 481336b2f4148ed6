// Package brainage implements cross-validated benchmarks for predicting
// subject age from EEG and MEG recordings.
//
// The pipeline loads precomputed per-subject features of a dataset, builds a
// benchmark-specific regression model, evaluates it with 10-fold
// cross-validation, and writes a per-fold score table (MAE, R², fit and
// score times) to disk.
//
// # Benchmarks
//
//   - dummy: mean-age baseline
//   - filterbank-riemann: per-band covariances, reduced-rank projection and
//     tangent-space mapping, ridge regression
//   - filterbank-source: per-band source power, log features, ridge
//     regression
//   - handcrafted: aggregated per-epoch features, mean imputation,
//     grid-searched random forest
//   - deep: declared but not implemented yet
//
// # Datasets
//
// Four datasets are configured out of the box: chbp, lemon, tuab (EEG) and
// camcan (MEG). Paths and channel selections are overridable via
// brainage.yaml or BRAINAGE_* environment variables.
//
// # Usage
//
//	brainage benchmark -d camcan -b filterbank-riemann --n-jobs 4
//	brainage autoreject -d tuab --n-jobs 8
//	brainage plot --results ./results
//
// # Packages
//
//   - benchmark: benchmark assembly and orchestration
//   - dataset: dataset configuration, subject tables, feature stores
//   - filterbank: covariance featurization (riemann and log-diag)
//   - preprocessing: scaling, imputation, epoch aggregation
//   - pipeline: transformer/regressor chaining
//   - regression, ensemble: ridge with leave-one-out alpha selection,
//     random forest
//   - modelselection: k-fold splitting, cross-validation, grid search
//   - autoreject: peak-to-peak epoch artifact rejection
//   - plotting: score figures
package brainage
