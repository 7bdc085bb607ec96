// SPDX-License-Identifier: MIT

package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/lvimpute/matrix"
)

// Mean ignores predictors and predicts the training label mean.
// Its uncertainty is the population standard deviation of the labels.
type Mean struct {
	fitted bool
	p      int
	mean   float64
	std    float64
}

// NewMean returns an unfitted model.
func NewMean() *Mean { return &Mean{} }

// Fit records mean(y) and std(y).
func (m *Mean) Fit(X matrix.Matrix, y []float64) error {
	if _, err := design("Mean.Fit", X, y); err != nil {
		return err
	}
	mu, variance := stat.PopMeanVariance(y, nil)
	m.mean, m.std, m.p, m.fitted = mu, math.Sqrt(variance), X.Cols(), true

	return nil
}

// Predict returns mean(y) for every row.
func (m *Mean) Predict(X matrix.Matrix) ([]float64, error) {
	mean, _, err := m.PredictWithStd(X)

	return mean, err
}

// PredictWithStd returns (mean(y), std(y)) for every row.
func (m *Mean) PredictWithStd(X matrix.Matrix) (mean, std []float64, err error) {
	if !m.fitted {
		return nil, nil, fmt.Errorf("Mean.Predict: %w", ErrNotFitted)
	}
	if err := matrix.ValidateNotNil(X); err != nil {
		return nil, nil, fmt.Errorf("Mean.Predict: %w", err)
	}
	if X.Cols() != m.p {
		return nil, nil, fmt.Errorf("Mean.Predict: %d cols, fitted on %d: %w", X.Cols(), m.p, ErrFeatureMismatch)
	}
	mean = make([]float64, X.Rows())
	std = make([]float64, X.Rows())
	for i := range mean {
		mean[i], std[i] = m.mean, m.std
	}

	return mean, std, nil
}
