// SPDX-License-Identifier: MIT

package impute

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/matrix"
	"github.com/katalvlaran/lvimpute/regress"
)

// featureStep is one target column's fixed schedule entry: which columns
// predict it and where its imputations are clamped.
type featureStep struct {
	target     int
	predictors []int
	lo, hi     float64
}

// featureModel pairs a schedule entry with the regressor fitted for it.
type featureModel struct {
	featureStep
	model regress.Regressor
}

// fitFeature fits r on the rows where the target is observed, using the
// current values of the predictor columns in work.
// Complexity: O(n·|predictors|) plus the regressor's own cost.
func fitFeature(work *matrix.Dense, mk *mask.Mask, st featureStep, r regress.Regressor) error {
	observed := mk.ObservedRows(st.target)
	X, err := work.Induced(observed, st.predictors)
	if err != nil {
		return err
	}
	y := make([]float64, len(observed))
	for k, i := range observed {
		if y[k], err = work.At(i, st.target); err != nil {
			return err
		}
	}

	return r.Fit(X, y)
}

// predictFeature fills the target's missing rows of work with predictions
// from r. Only the target column is written. With s != nil, values are
// drawn from the truncated predictive Normal instead of the point estimate.
// Returns the number of cells written.
func predictFeature(work *matrix.Dense, mk *mask.Mask, st featureStep, r regress.Regressor, s *sampler) (int, error) {
	missing := mk.MissingRows(st.target)
	if len(missing) == 0 {
		return 0, nil
	}
	X, err := work.Induced(missing, st.predictors)
	if err != nil {
		return 0, err
	}

	var values []float64
	if s != nil {
		u, ok := r.(regress.UncertaintyRegressor)
		if !ok {
			return 0, ErrNoUncertainty
		}
		mean, std, err := u.PredictWithStd(X)
		if err != nil {
			return 0, err
		}
		values = make([]float64, len(mean))
		for k := range mean {
			values[k] = s.draw(mean[k], std[k], st.lo, st.hi)
		}
	} else {
		if values, err = r.Predict(X); err != nil {
			return 0, err
		}
		if values, err = clipColumn(values, st.lo, st.hi); err != nil {
			return 0, err
		}
	}
	if len(values) != len(missing) {
		return 0, fmt.Errorf("column %d: %d predictions for %d rows: %w", st.target, len(values), len(missing), regress.ErrFeatureMismatch)
	}
	for k, i := range missing {
		if err := work.Set(i, st.target, values[k]); err != nil {
			return 0, err
		}
	}

	return len(missing), nil
}

// clipColumn clamps point predictions into [lo, hi] as a one-column matrix.
// ±Inf bounds are open.
func clipColumn(values []float64, lo, hi float64) ([]float64, error) {
	col, err := matrix.NewZeros(len(values), 1)
	if err != nil {
		return nil, err
	}
	if err = col.SetCol(0, values); err != nil {
		return nil, err
	}
	clipped, err := matrix.ClipColumns(col, []float64{lo}, []float64{hi})
	if err != nil {
		return nil, err
	}

	return clipped.Col(0)
}

// clamp bounds a single posterior draw to [lo, hi]; ±Inf bounds are open.
func clamp(v, lo, hi float64) float64 { return math.Min(math.Max(v, lo), hi) }

// sampler draws from Normal(mean, std) truncated to [lo, hi] by inverse CDF.
// Not goroutine-safe: one sampler per fit or transform call.
type sampler struct{ r *rand.Rand }

// draw returns a truncated-normal sample. std ≤ 0 (or an empty truncation
// interval in floating point) collapses to the clamped mean.
func (s *sampler) draw(mean, std, lo, hi float64) float64 {
	if !(std > 0) || math.IsInf(std, 0) {
		return clamp(mean, lo, hi)
	}
	a := distuv.UnitNormal.CDF((lo - mean) / std)
	b := distuv.UnitNormal.CDF((hi - mean) / std)
	if !(b > a) {
		return clamp(mean, lo, hi)
	}
	u := a + s.r.Float64()*(b-a)
	x := mean + std*distuv.UnitNormal.Quantile(u)
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return clamp(mean, lo, hi)
	}

	return clamp(x, lo, hi)
}
