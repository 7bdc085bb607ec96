// SPDX-License-Identifier: MIT

// Package lvimpute fills missing values in numeric tables by round-robin
// chained equations.
//
// Each incomplete column is modeled as a regression on the other columns.
// Missing cells start from a simple per-column statistic and are then
// re-estimated column by column, round after round, until the largest
// normalized change falls under a tolerance or the round cap is reached.
//
// Layout:
//
//	matrix/    dense float64 storage, element-wise kernels, statistics
//	mask/      missing-sentinel detection
//	initial/   first-pass fill (mean, median, most frequent, constant)
//	order/     column visiting order policies
//	regress/   per-column regressors (Bayesian ridge, OLS, ridge, kNN, tree, mean)
//	impute/    the engine: Fit, Transform, FitTransform and the fit report
//	indicator/ missingness indicator features
//	metrics/   Prometheus collectors for engine observations
//	cmd/lvimpute  the CSV command-line tool
//
// Quick example:
//
//	eng, _ := impute.New(impute.WithMaxRounds(20))
//	out, rep, err := eng.FitTransform(X)
//
//	go get github.com/katalvlaran/lvimpute
package lvimpute
