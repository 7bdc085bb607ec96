// SPDX-License-Identifier: MIT

// Package impute implements round-robin chained-equations imputation.
//
// What & Why:
//
//	Each incomplete column is modeled as a regression on the other columns.
//	Rounds visit the incomplete columns in a fixed order; a column's
//	regressor is fitted on the rows where it is observed and predicts the
//	rows where it is missing. Later columns in a round see the values
//	earlier columns just wrote (Gauss–Seidel). Rounds repeat until the
//	largest normalized change of any imputed cell falls to the tolerance or
//	the round cap is hit; the last completed round always wins.
//
// Lifecycle:
//
//	New → Unfit. Fit(X) → Fitted (or Unfit again on any error). Transform
//	may be called any number of times on a Fitted engine; it applies one
//	pass of the stored regressors in the stored order and never refits.
//	Fit again discards every fitted artifact before rebuilding.
//
// Degenerate columns:
//
//	A column with no observed value is "always-missing": it keeps its
//	constant initial fill, is never a regression target, and never feeds a
//	predictor set. By default it is dropped from every output; with
//	WithKeepEmptyFeatures(true) it is retained. The decision is made once
//	per fit.
//
// Clipping:
//
//	Imputed values are clamped to the observed [min, max] of the target
//	column at fit time unless WithMinValue/WithMaxValue override a side.
//
// Posterior sampling:
//
//	With WithSamplePosterior(true) each imputed value is drawn from a
//	Normal(mean, std) truncated to the clip bounds, where (mean, std) come
//	from a regress.UncertaintyRegressor. Draws are reproducible for a
//	given seed; distinct seeds give distinct completions.
//
// Concurrency:
//
//	Fit holds the write lock; Transform holds the read lock and works on a
//	private copy, so concurrent transforms are safe.
package impute
