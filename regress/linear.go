// SPDX-License-Identifier: MIT

package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvimpute/matrix"
)

// linearModel is the fitted state shared by Linear and Ridge.
type linearModel struct {
	fitted    bool
	p         int
	coef      []float64
	xMean     []float64
	intercept float64
	resStd    float64
}

func (m *linearModel) predict(op string, X matrix.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFitted)
	}
	xs, err := rows(op, X, m.p)
	if err != nil {
		return nil, err
	}

	return linearPredict(xs, m.coef, m.xMean, m.intercept), nil
}

// store records the solution and its residual standard deviation
// sqrt(RSS / max(n-p-1, 1)).
func (m *linearModel) store(xc [][]float64, yc, coef, xMean []float64, yMean float64) {
	n, p := len(xc), len(xMean)
	rss := 0.0
	for i, row := range xc {
		r := yc[i]
		for j, x := range row {
			r -= x * coef[j]
		}
		rss += r * r
	}
	dof := n - p - 1
	if dof < 1 {
		dof = 1
	}
	m.p, m.coef, m.xMean, m.intercept = p, coef, xMean, yMean
	m.resStd = math.Sqrt(rss / float64(dof))
	m.fitted = true
}

// Linear is ordinary least squares with intercept, solved by QR (or LQ when
// underdetermined) on the centered design.
type Linear struct{ linearModel }

// NewLinear returns an unfitted OLS model.
func NewLinear() *Linear { return &Linear{} }

// Fit solves min ‖yc − Xc·coef‖².
// Errors: ErrInsufficientSamples, ErrFeatureMismatch, ErrSingular (rank
// deficient or ill-conditioned design), matrix.ErrNaNInf.
// Complexity: O(n·p²).
func (l *Linear) Fit(X matrix.Matrix, y []float64) error {
	xs, err := design("Linear.Fit", X, y)
	if err != nil {
		return err
	}
	l.fitted = false
	n, p := len(xs), X.Cols()
	xc, xMean, yc, yMean := center(xs, y, p)
	coef := make([]float64, p)
	if p > 0 {
		a := mat.NewDense(n, p, flatten(xc, p))
		b := mat.NewDense(n, 1, append([]float64(nil), yc...))
		var w mat.Dense
		if err := w.Solve(a, b); err != nil {
			return fmt.Errorf("Linear.Fit: %v: %w", err, ErrSingular)
		}
		for j := 0; j < p; j++ {
			coef[j] = w.At(j, 0)
		}
	}
	l.store(xc, yc, coef, xMean, yMean)

	return nil
}

// Predict returns the fitted linear response.
func (l *Linear) Predict(X matrix.Matrix) ([]float64, error) {
	return l.predict("Linear.Predict", X)
}

// PredictWithStd pairs each prediction with the residual standard deviation.
func (l *Linear) PredictWithStd(X matrix.Matrix) (mean, std []float64, err error) {
	mean, err = l.predict("Linear.PredictWithStd", X)
	if err != nil {
		return nil, nil, err
	}
	std = make([]float64, len(mean))
	for i := range std {
		std[i] = l.resStd
	}

	return mean, std, nil
}

// ResidualStd returns sqrt(RSS / max(n-p-1, 1)) of the training fit.
func (l *Linear) ResidualStd() float64 { return l.resStd }

// Coef returns a copy of the fitted coefficients.
func (l *Linear) Coef() []float64 { return append([]float64(nil), l.coef...) }

// defaultRidgeAlpha is the L2 penalty used when none (or a non-positive one) is given.
const defaultRidgeAlpha = 1.0

// Ridge is L2-penalized least squares with an unpenalized intercept, solved
// through a Cholesky factorization of XcᵀXc + αI.
type Ridge struct {
	linearModel
	alpha float64
}

// NewRidge returns an unfitted ridge model; alpha ≤ 0 or NaN selects 1.
func NewRidge(alpha float64) *Ridge {
	if !(alpha > 0) || math.IsInf(alpha, 0) {
		alpha = defaultRidgeAlpha
	}

	return &Ridge{alpha: alpha}
}

// Fit solves (XcᵀXc + αI)·coef = Xcᵀyc.
// Errors: ErrInsufficientSamples, ErrFeatureMismatch, ErrSingular, matrix.ErrNaNInf.
// Complexity: O(n·p² + p³).
func (r *Ridge) Fit(X matrix.Matrix, y []float64) error {
	xs, err := design("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	r.fitted = false
	n, p := len(xs), X.Cols()
	xc, xMean, yc, yMean := center(xs, y, p)
	coef := make([]float64, p)
	if p > 0 {
		a := mat.NewDense(n, p, flatten(xc, p))
		gram := mat.NewSymDense(p, nil)
		gram.SymOuterK(1, a.T())
		for j := 0; j < p; j++ {
			gram.SetSym(j, j, gram.At(j, j)+r.alpha)
		}
		var rhs mat.VecDense
		rhs.MulVec(a.T(), mat.NewVecDense(n, append([]float64(nil), yc...)))

		var chol mat.Cholesky
		if ok := chol.Factorize(gram); !ok {
			return fmt.Errorf("Ridge.Fit: cholesky: %w", ErrSingular)
		}
		var w mat.VecDense
		if err := chol.SolveVecTo(&w, &rhs); err != nil {
			return fmt.Errorf("Ridge.Fit: %v: %w", err, ErrSingular)
		}
		for j := 0; j < p; j++ {
			coef[j] = w.AtVec(j)
		}
	}
	r.store(xc, yc, coef, xMean, yMean)

	return nil
}

// Predict returns the fitted linear response.
func (r *Ridge) Predict(X matrix.Matrix) ([]float64, error) {
	return r.predict("Ridge.Predict", X)
}

// Coef returns a copy of the fitted coefficients.
func (r *Ridge) Coef() []float64 { return append([]float64(nil), r.coef...) }

// flatten packs p-wide rows into a row-major slice.
func flatten(xs [][]float64, p int) []float64 {
	out := make([]float64, 0, len(xs)*p)
	for _, row := range xs {
		out = append(out, row...)
	}

	return out
}
