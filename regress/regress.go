// SPDX-License-Identifier: MIT

// Package regress provides the regression capabilities the imputation engine
// fits once per incomplete column and round.
//
// Contract:
//   - Fit(X, y) learns from X (n×p) and y (len n). p may be 0, in which case
//     every variant degrades to an intercept-only model predicting mean(y).
//   - Predict(X) returns one estimate per row of X; X must have the same p.
//   - Regressors never retain X or y slices owned by the caller.
//   - NaN/±Inf inputs are rejected with matrix.ErrNaNInf.
//
// Variants are selected by Kind through NewFactory, never by type inspection.
// Posterior sampling requires UncertaintyRegressor, which BayesianRidge,
// Linear and Mean implement.
package regress

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/lvimpute/matrix"
)

var (
	// ErrInsufficientSamples is returned when Fit receives no rows.
	ErrInsufficientSamples = errors.New("regress: insufficient samples")

	// ErrSingular is returned when a solver cannot factorize the design.
	ErrSingular = errors.New("regress: singular design")

	// ErrNotFitted is returned by Predict before a successful Fit.
	ErrNotFitted = errors.New("regress: not fitted")

	// ErrFeatureMismatch is returned when len(y) != rows(X) or Predict sees a
	// different column count than Fit.
	ErrFeatureMismatch = errors.New("regress: feature mismatch")

	// ErrUnknownKind is returned by ParseKind and NewFactory.
	ErrUnknownKind = errors.New("regress: unknown kind")
)

// Regressor is the capability invoked per target column.
type Regressor interface {
	Fit(X matrix.Matrix, y []float64) error
	Predict(X matrix.Matrix) ([]float64, error)
}

// UncertaintyRegressor also reports a predictive standard deviation per row.
type UncertaintyRegressor interface {
	Regressor
	PredictWithStd(X matrix.Matrix) (mean, std []float64, err error)
}

// Factory produces a fresh, unfitted Regressor. The engine calls it once per
// target column so fitted models are never shared.
type Factory func() Regressor

// Kind names a regressor variant.
type Kind string

// Supported kinds.
const (
	KindBayesianRidge Kind = "bayesian_ridge"
	KindLinear        Kind = "linear"
	KindRidge         Kind = "ridge"
	KindKNN           Kind = "knn"
	KindTree          Kind = "tree"
	KindMean          Kind = "mean"
)

// Kinds lists every supported kind in display order.
func Kinds() []Kind {
	return []Kind{KindBayesianRidge, KindLinear, KindRidge, KindKNN, KindTree, KindMean}
}

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(name string) (Kind, error) {
	n := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, k := range Kinds() {
		if k == n {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Params carries per-variant hyperparameters; zero values select defaults.
type Params struct {
	MaxIter         int     // BayesianRidge: evidence iterations (default 300)
	Tol             float64 // BayesianRidge: coefficient convergence (default 1e-3)
	Alpha           float64 // Ridge: L2 penalty (default 1)
	K               int     // KNN: neighbors (default 5)
	MaxDepth        int     // Tree: 0 = unlimited
	MinSamplesSplit int     // Tree: default 2
	MinSamplesLeaf  int     // Tree: default 1
}

// NewFactory returns a Factory for kind configured by p.
func NewFactory(kind Kind, p Params) (Factory, error) {
	switch kind {
	case KindBayesianRidge:
		return func() Regressor { return NewBayesianRidge(WithMaxIter(p.MaxIter), WithTol(p.Tol)) }, nil
	case KindLinear:
		return func() Regressor { return NewLinear() }, nil
	case KindRidge:
		return func() Regressor { return NewRidge(p.Alpha) }, nil
	case KindKNN:
		return func() Regressor { return NewKNN(p.K) }, nil
	case KindTree:
		return func() Regressor {
			return NewTree(WithMaxDepth(p.MaxDepth), WithMinSamplesSplit(p.MinSamplesSplit), WithMinSamplesLeaf(p.MinSamplesLeaf))
		}, nil
	case KindMean:
		return func() Regressor { return NewMean() }, nil
	default:
		return nil, fmt.Errorf("regress.NewFactory: %w: %q", ErrUnknownKind, string(kind))
	}
}

// design validates a training pair and returns X as rows.
// Errors: matrix.ErrNilMatrix, ErrInsufficientSamples, ErrFeatureMismatch, matrix.ErrNaNInf.
func design(op string, X matrix.Matrix, y []float64) ([][]float64, error) {
	if err := matrix.ValidateNotNil(X); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if X.Rows() == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientSamples)
	}
	if X.Rows() != len(y) {
		return nil, fmt.Errorf("%s: %d rows, %d labels: %w", op, X.Rows(), len(y), ErrFeatureMismatch)
	}
	if err := matrix.ValidateFiniteVec(y); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rows(op, X, -1)
}

// rows validates X (finite; p columns unless p < 0) and exports it as rows.
func rows(op string, X matrix.Matrix, p int) ([][]float64, error) {
	if err := matrix.ValidateNotNil(X); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p >= 0 && X.Cols() != p {
		return nil, fmt.Errorf("%s: %d cols, fitted on %d: %w", op, X.Cols(), p, ErrFeatureMismatch)
	}
	if err := matrix.ValidateFinite(X); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if d, ok := X.(*matrix.Dense); ok {
		return d.ToRows(), nil
	}
	out := make([][]float64, X.Rows())
	for i := range out {
		out[i] = make([]float64, X.Cols())
		for j := range out[i] {
			v, err := X.At(i, j)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			out[i][j] = v
		}
	}

	return out, nil
}

// center returns the column means of xs and y and their centered copies.
func center(xs [][]float64, y []float64, p int) (xc [][]float64, xMean []float64, yc []float64, yMean float64) {
	n := len(xs)
	xMean = make([]float64, p)
	for _, row := range xs {
		for j, v := range row {
			xMean[j] += v
		}
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)

	xc = make([][]float64, n)
	yc = make([]float64, n)
	for i, row := range xs {
		xc[i] = make([]float64, p)
		for j, v := range row {
			xc[i][j] = v - xMean[j]
		}
		yc[i] = y[i] - yMean
	}

	return xc, xMean, yc, yMean
}

// linearPredict evaluates intercept + Σ coef[j]*(x[j]-xMean[j]) per row.
func linearPredict(xs [][]float64, coef, xMean []float64, intercept float64) []float64 {
	out := make([]float64, len(xs))
	for i, row := range xs {
		s := intercept
		for j, v := range row {
			s += coef[j] * (v - xMean[j])
		}
		out[i] = s
	}

	return out
}

var (
	_ UncertaintyRegressor = (*BayesianRidge)(nil)
	_ UncertaintyRegressor = (*Linear)(nil)
	_ UncertaintyRegressor = (*Mean)(nil)
	_ Regressor            = (*Ridge)(nil)
	_ Regressor            = (*KNN)(nil)
	_ Regressor            = (*Tree)(nil)
)
