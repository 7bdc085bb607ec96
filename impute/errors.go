// SPDX-License-Identifier: MIT

package impute

import "errors"

var (
	// ErrNotFitted is returned by Transform before a successful Fit.
	ErrNotFitted = errors.New("impute: engine not fitted")

	// ErrShapeMismatch is returned when a transform input has a different
	// column count than the fit input.
	ErrShapeMismatch = errors.New("impute: shape mismatch")

	// ErrRegressorFit wraps a regressor failure together with the column index.
	ErrRegressorFit = errors.New("impute: regressor fit failed")

	// ErrRegressorPredict wraps a failure to predict a column's missing cells
	// from a fitted regressor.
	ErrRegressorPredict = errors.New("impute: regressor predict failed")

	// ErrInvalidOption reports an option value that cannot be honored.
	ErrInvalidOption = errors.New("impute: invalid option")

	// ErrNoUncertainty is returned by Fit when posterior sampling is enabled
	// but the configured regressor cannot report a predictive std.
	ErrNoUncertainty = errors.New("impute: regressor has no predictive uncertainty")

	// ErrEmptyInput is returned for an input without rows or columns.
	ErrEmptyInput = errors.New("impute: empty input")
)
