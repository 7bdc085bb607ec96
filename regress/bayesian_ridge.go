// SPDX-License-Identifier: MIT

package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvimpute/matrix"
)

// Evidence-maximization defaults. alpha is the noise precision and lambda
// the weight precision; both carry Gamma(1e-6, 1e-6) hyperpriors.
const (
	defaultBRMaxIter = 300
	defaultBRTol     = 1e-3
	brAlpha1         = 1e-6
	brAlpha2         = 1e-6
	brLambda1        = 1e-6
	brLambda2        = 1e-6
)

// BayesianRidge is Bayesian linear regression with Gaussian weight prior,
// hyperparameters found by evidence maximization over a thin SVD of the
// centered design. It is the engine's default regressor and reports a
// predictive standard deviation for posterior sampling.
type BayesianRidge struct {
	maxIter int
	tol     float64

	fitted    bool
	p         int
	coef      []float64
	xMean     []float64
	intercept float64
	alpha     float64     // noise precision
	lambda    float64     // weight precision
	v         [][]float64 // right singular vectors, p×k
	eig       []float64   // squared singular values, len k
	nIter     int
}

// BayesianRidgeOption configures a BayesianRidge.
type BayesianRidgeOption func(*BayesianRidge)

// WithMaxIter caps evidence iterations; n ≤ 0 keeps the default (300).
func WithMaxIter(n int) BayesianRidgeOption {
	return func(b *BayesianRidge) {
		if n > 0 {
			b.maxIter = n
		}
	}
}

// WithTol sets the L1 coefficient-change stop threshold; non-positive or
// NaN keeps the default (1e-3).
func WithTol(tol float64) BayesianRidgeOption {
	return func(b *BayesianRidge) {
		if tol > 0 {
			b.tol = tol
		}
	}
}

// NewBayesianRidge returns an unfitted model.
func NewBayesianRidge(opts ...BayesianRidgeOption) *BayesianRidge {
	b := &BayesianRidge{maxIter: defaultBRMaxIter, tol: defaultBRTol}
	for _, fn := range opts {
		fn(b)
	}

	return b
}

// Fit estimates coefficients and the alpha/lambda precisions.
// Implementation:
//   - Stage 1: center X and y; thin SVD Xc = U S Vᵀ (skipped when p == 0).
//   - Stage 2: iterate coef = V diag(s/(s²+λ/α)) Uᵀyc, then update
//     γ = Σ αs²/(λ+αs²), λ = (γ+2λ₁)/(‖coef‖²+2λ₂), α = (n−γ+2α₁)/(RSS+2α₂)
//     until Σ|Δcoef| < tol or maxIter.
//   - Stage 3: recompute coef with the final precisions.
//
// Errors: ErrInsufficientSamples, ErrFeatureMismatch, ErrSingular (SVD
// failure), matrix.ErrNaNInf.
// Complexity: O(n·p·min(n,p)) for the SVD plus O(iter·n·p).
func (b *BayesianRidge) Fit(X matrix.Matrix, y []float64) error {
	xs, err := design("BayesianRidge.Fit", X, y)
	if err != nil {
		return err
	}
	b.fitted = false
	n, p := len(xs), X.Cols()
	xc, xMean, yc, yMean := center(xs, y, p)

	var (
		v   [][]float64
		s   []float64
		uty []float64
	)
	if p > 0 {
		var svd mat.SVD
		if ok := svd.Factorize(mat.NewDense(n, p, flatten(xc, p)), mat.SVDThin); !ok {
			return fmt.Errorf("BayesianRidge.Fit: svd: %w", ErrSingular)
		}
		s = svd.Values(nil)
		var u, vd mat.Dense
		svd.UTo(&u)
		svd.VTo(&vd)
		k := len(s)
		uty = make([]float64, k)
		for c := 0; c < k; c++ {
			for i := 0; i < n; i++ {
				uty[c] += u.At(i, c) * yc[i]
			}
		}
		v = make([][]float64, p)
		for j := 0; j < p; j++ {
			v[j] = make([]float64, k)
			for c := 0; c < k; c++ {
				v[j][c] = vd.At(j, c)
			}
		}
	}
	eig := make([]float64, len(s))
	for c, sv := range s {
		eig[c] = sv * sv
	}

	varY := 0.0
	for _, d := range yc {
		varY += d * d
	}
	varY /= float64(n)
	alpha := 1 / (varY + epsilon)
	lambda := 1.0

	solve := func() []float64 {
		coef := make([]float64, p)
		for c, sv := range s {
			w := sv / (eig[c] + lambda/alpha) * uty[c]
			for j := 0; j < p; j++ {
				coef[j] += v[j][c] * w
			}
		}
		return coef
	}

	var coef, coefOld []float64
	iter := 0
	for ; iter < b.maxIter; iter++ {
		coef = solve()
		rss := 0.0
		for i, row := range xc {
			r := yc[i]
			for j, x := range row {
				r -= x * coef[j]
			}
			rss += r * r
		}
		gamma := 0.0
		for _, e := range eig {
			gamma += alpha * e / (lambda + alpha*e)
		}
		norm := 0.0
		for _, c := range coef {
			norm += c * c
		}
		lambda = (gamma + 2*brLambda1) / (norm + 2*brLambda2)
		alpha = (float64(n) - gamma + 2*brAlpha1) / (rss + 2*brAlpha2)

		if iter > 0 {
			diff := 0.0
			for j := range coef {
				diff += math.Abs(coefOld[j] - coef[j])
			}
			if diff < b.tol {
				break
			}
		}
		coefOld = coef
	}

	b.coef = solve()
	b.p, b.xMean, b.v, b.eig = p, xMean, v, eig
	b.intercept = yMean
	b.alpha, b.lambda = alpha, lambda
	b.nIter = iter
	b.fitted = true

	return nil
}

// epsilon is the float64 machine epsilon guarding 1/var(y) for constant y.
const epsilon = 2.220446049250313e-16

// Predict returns the posterior mean per row.
func (b *BayesianRidge) Predict(X matrix.Matrix) ([]float64, error) {
	mean, _, err := b.predict("BayesianRidge.Predict", X, false)

	return mean, err
}

// PredictWithStd returns the posterior predictive mean and standard
// deviation sqrt(xcᵀΣxc + 1/α), with Σ = (1/λ)I + Σₖ vₖvₖᵀ(1/(αsₖ²+λ) − 1/λ).
func (b *BayesianRidge) PredictWithStd(X matrix.Matrix) (mean, std []float64, err error) {
	return b.predict("BayesianRidge.PredictWithStd", X, true)
}

func (b *BayesianRidge) predict(op string, X matrix.Matrix, withStd bool) ([]float64, []float64, error) {
	if !b.fitted {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFitted)
	}
	xs, err := rows(op, X, b.p)
	if err != nil {
		return nil, nil, err
	}
	mean := linearPredict(xs, b.coef, b.xMean, b.intercept)
	if !withStd {
		return mean, nil, nil
	}

	std := make([]float64, len(xs))
	for i, row := range xs {
		sq := 0.0
		for j, x := range row {
			d := x - b.xMean[j]
			sq += d * d
		}
		q := sq / b.lambda
		for c, e := range b.eig {
			proj := 0.0
			for j, x := range row {
				proj += b.v[j][c] * (x - b.xMean[j])
			}
			q += proj * proj * (1/(b.alpha*e+b.lambda) - 1/b.lambda)
		}
		std[i] = math.Sqrt(math.Max(q, 0) + 1/b.alpha)
	}

	return mean, std, nil
}

// Coef returns a copy of the fitted coefficients.
func (b *BayesianRidge) Coef() []float64 { return append([]float64(nil), b.coef...) }

// Intercept returns the fitted intercept.
func (b *BayesianRidge) Intercept() float64 { return b.intercept }

// Alpha returns the estimated noise precision.
func (b *BayesianRidge) Alpha() float64 { return b.alpha }

// Lambda returns the estimated weight precision.
func (b *BayesianRidge) Lambda() float64 { return b.lambda }
