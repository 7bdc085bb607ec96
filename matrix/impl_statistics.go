// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide column statistics (centering, Pearson correlation) as deterministic
//     compositions over ew* micro-kernels.
//   - Feed predictor selection: the imputation engine ranks candidate predictor
//     columns by |corr| against each target column.
//
// Exposed API:
//   - Correlation(X) -> (Corr, means, stds) // Pearson corr via z-scoring; degenerate std=0 → zeroed column
//
// Internal:
//   - centerColumns(X) -> (Xc, means) // subtract per-column mean
//
// Determinism & Performance:
//   - Fixed i→j traversal for all explicit loops.
//   - Zero-size matrices (0×N or N×0) are treated as no-ops for centering.
//
// AI-Hints:
//   - Run Correlation on an already filled matrix; NaN cells poison every pair they touch.

package matrix

import "math"

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opCenterColumns = "centerColumns"
	opCorrelation   = "Correlation"
)

// centerColumns subtracts the per-column mean from every element (column-wise centering).
// Implementation:
//   - Stage 1: Validate X (non-nil) and handle zero-size as a strict no-op.
//   - Stage 2: Compute column means in a deterministic pass.
//   - Stage 3: Apply ewBroadcastSubCols to produce a centered copy.
//
// Returns:
//   - *Dense: centered copy (r×c).
//   - []float64: column means (len=c).
//
// Complexity:
//   - Time O(r*c), Space O(r*c) for output (+ O(c) means).
func centerColumns(X Matrix) (*Dense, []float64, error) {
	d, err := asDense(opCenterColumns, X)
	if err != nil {
		return nil, nil, err
	}

	r, c := d.r, d.c
	means := make([]float64, c) // always return correct length for callers
	if r == 0 || c == 0 {
		return d.Copy(), means, nil
	}

	var i, j int
	for i = 0; i < r; i++ {
		base := i * c
		for j = 0; j < c; j++ {
			means[j] += d.data[base+j]
		}
	}
	invR := 1.0 / float64(r)
	for j = 0; j < c; j++ {
		means[j] *= invR
	}

	Xc, err := ewBroadcastSubCols(d, means)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}

	return Xc, means, nil
}

// correlation computes Pearson correlation of columns via z-scoring.
// Implementation:
//   - Stage 1: validate; r>=2 required when c>0.
//   - Stage 2: center columns, compute sample stds.
//   - Stage 3: z-score with invStd (0 for degenerate columns).
//   - Stage 4: Corr = (Zᵀ Z)/(r-1), filling the upper triangle and mirroring.
//
// Behavior highlights:
//   - Degenerate (constant) columns get a zero row/column, including a zero diagonal.
//
// Complexity:
//   - Time O(r*c^2), Space O(r*c + c^2).
func correlation(X Matrix) (*Dense, []float64, []float64, error) {
	d, err := asDense(opCorrelation, X)
	if err != nil {
		return nil, nil, nil, err
	}

	r, c := d.r, d.c
	if c == 0 {
		z, _ := newDenseZeroOK(0, 0, false)
		return z, make([]float64, 0), make([]float64, 0), nil
	}
	if r < 2 {
		return nil, nil, nil, matrixErrorf(opCorrelation, ErrDimensionMismatch)
	}

	Xc, means, err := centerColumns(d)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}

	stds := make([]float64, c)
	inv := 1.0 / float64(r-1)
	var i, j, k int
	var v float64
	for i = 0; i < r; i++ {
		base := i * c
		for j = 0; j < c; j++ {
			v = Xc.data[base+j]
			stds[j] += v * v
		}
	}
	invStd := make([]float64, c)
	for j = 0; j < c; j++ {
		stds[j] = math.Sqrt(stds[j] * inv)
		if stds[j] > 0 {
			invStd[j] = 1.0 / stds[j]
		}
	}

	Z, err := ewScaleCols(Xc, invStd)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}

	corr, err := newDenseZeroOK(c, c, false)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	var s float64
	for j = 0; j < c; j++ {
		for k = j; k < c; k++ {
			s = 0
			for i = 0; i < r; i++ {
				s += Z.data[i*c+j] * Z.data[i*c+k]
			}
			s *= inv
			corr.data[j*c+k] = s
			corr.data[k*c+j] = s
		}
	}

	return corr, means, stds, nil
}
