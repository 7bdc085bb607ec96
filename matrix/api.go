// SPDX-License-Identifier: MIT
// Package matrix: public API facades.
//
// Purpose:
//   - Provide thin, well-documented entry points for common tasks across the package.
//   - Avoid logic duplication: each facade delegates to the canonical implementation.
//
// Determinism & Policy:
//   - Facades never change the loop orders or numeric policy of underlying kernels.
//   - Validation is performed in the kernels; facades only compose or forward.
//
// AI-Hints:
//   - Prefer passing *Dense to unlock fast-paths in kernels (flat-slice loops).

package matrix

// NewZeros returns a new zero-initialized *Dense of size rows×cols.
// Unlike NewDense, zero rows or columns are legal (e.g. an empty indicator
// selection); negative sizes yield ErrInvalidDimensions.
func NewZeros(rows, cols int, opts ...Option) (*Dense, error) {
	o := gatherOptions(opts...)

	return newDenseZeroOK(rows, cols, o.validateNaNInf)
}

// SelectColumns copies the listed columns (all rows) into a new Dense.
// An empty list yields a legal r×0 matrix.
// Complexity: O(r*len(cols)).
func SelectColumns(m Matrix, cols []int) (*Dense, error) {
	d, err := asDense("SelectColumns", m)
	if err != nil {
		return nil, err
	}
	rows := make([]int, d.r)
	for i := range rows {
		rows[i] = i
	}

	return d.Induced(rows, cols)
}

// HStack returns [a | b] (column concatenation). Rows must match.
//
// AI-Hints: append missingness indicators to an imputed matrix.
func HStack(a, b Matrix) (*Dense, error) { return ewHStack(a, b) }

// ClipColumns returns a copy of m with column j clamped into [lo[j], hi[j]].
// A -Inf lower or +Inf upper bound leaves that side open, so a column with no
// observed range passes through untouched. NaN bounds yield ErrNaNInf;
// lo[j] > hi[j] is normalized by swapping.
//
// AI-Hints: clamp a column of point predictions to the target's bounds.
func ClipColumns(m Matrix, lo, hi []float64) (*Dense, error) { return ewClipColumns(m, lo, hi) }

// Correlation computes Pearson correlation of columns via z-scoring:
//
//	Z = (X - mean) / std,  std^2 = Σ (Xc)^2 / (n-1),  degenerate std==0 ⇒ column zeroed.
//	Corr = (Zᵀ Z)/(n-1).
//
// Returns Corr, means, stds. Requires at least two rows when X has columns.
func Correlation(X Matrix) (*Dense, []float64, []float64, error) { return correlation(X) }
