// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide small, *private* element-wise and broadcast kernels (ew*) to avoid
//     duplicating tight loops across higher-level ops (stats, clipping, stacking).
//   - Keep all loops deterministic and cache-friendly with Dense fast-paths.
//
// Design:
//   - All ew* are UNEXPORTED (internal micro-kernels).
//   - Public API uses these via thin wrappers in api.go.
//
// Determinism & Performance:
//   - Fixed loop orders (i→j or flat 0..n-1).
//   - Dense fast-path operates on a single flat buffer (row-major).
//   - No hidden allocations beyond the output Dense; O(r*c) time and space.

package matrix

import "math"

// asDense returns X as *Dense, copying through At when it is another implementation.
// The copy keeps every ew* kernel on the flat fast-path.
// Complexity: O(1) for *Dense, O(r*c) otherwise.
func asDense(tag string, X Matrix) (*Dense, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(tag, err)
	}
	if d, ok := X.(*Dense); ok {
		return d, nil
	}
	r, c := X.Rows(), X.Cols()
	out, err := newDenseZeroOK(r, c, false)
	if err != nil {
		return nil, matrixErrorf(tag, err)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, e := X.At(i, j)
			if e != nil {
				return nil, matrixErrorf(tag, e)
			}
			out.data[i*c+j] = v
		}
	}

	return out, nil
}

// ewBroadcastSubCols computes out[i,j] = X[i,j] - colMeans[j].
// Time: O(r*c). Space: O(r*c). Deterministic i→j loops.
//
// AI-Hint: Use for column-centering and z-scoring.
func ewBroadcastSubCols(X Matrix, colMeans []float64) (*Dense, error) {
	d, err := asDense("broadcastSubCols", X)
	if err != nil {
		return nil, err
	}
	r, c := d.r, d.c
	if len(colMeans) != c {
		return nil, matrixErrorf("broadcastSubCols", ErrDimensionMismatch)
	}
	out, err := newDenseZeroOK(r, c, d.validateNaNInf)
	if err != nil {
		return nil, matrixErrorf("broadcastSubCols", err)
	}
	for i := 0; i < r; i++ {
		base := i * c // cache the base offset for row i
		for j := 0; j < c; j++ {
			out.data[base+j] = d.data[base+j] - colMeans[j]
		}
	}

	return out, nil
}

// ewScaleCols computes out[i,j] = X[i,j] * scale[j].
// Time: O(r*c). Space: O(r*c). Deterministic i→j loops.
//
// AI-Hint: use factors as 1/std for z-scoring, or 0 for degenerate columns.
func ewScaleCols(X Matrix, scale []float64) (*Dense, error) {
	d, err := asDense("scaleCols", X)
	if err != nil {
		return nil, err
	}
	r, c := d.r, d.c
	if len(scale) != c {
		return nil, matrixErrorf("scaleCols", ErrDimensionMismatch)
	}
	out, err := newDenseZeroOK(r, c, d.validateNaNInf)
	if err != nil {
		return nil, matrixErrorf("scaleCols", err)
	}
	for i := 0; i < r; i++ {
		base := i * c
		for j := 0; j < c; j++ {
			out.data[base+j] = d.data[base+j] * scale[j]
		}
	}

	return out, nil
}

// ewClipColumns copies X clamping column j into [lo[j], hi[j]].
// ±Inf bounds mean "unbounded on that side"; NaN bounds are rejected.
// NaN cells pass through unchanged (clamp of NaN is NaN).
// Time: O(r*c). Space: O(r*c).
func ewClipColumns(X Matrix, lo, hi []float64) (*Dense, error) {
	d, err := asDense("ClipColumns", X)
	if err != nil {
		return nil, err
	}
	if len(lo) != d.c || len(hi) != d.c {
		return nil, matrixErrorf("ClipColumns", ErrDimensionMismatch)
	}
	for j := 0; j < d.c; j++ {
		if math.IsNaN(lo[j]) || math.IsNaN(hi[j]) {
			return nil, matrixErrorf("ClipColumns", ErrNaNInf)
		}
	}
	out := d.Copy()
	for i := 0; i < d.r; i++ {
		base := i * d.c
		for j := 0; j < d.c; j++ {
			l, h := lo[j], hi[j]
			if l > h {
				l, h = h, l
			}
			out.data[base+j] = clamp(out.data[base+j], l, h)
		}
	}

	return out, nil
}

// clamp returns v limited to [lo, hi]; NaN passes through.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

// ewHStack concatenates a and b column-wise: out = [a | b].
// Both must have the same row count. Time: O(r*(ca+cb)).
func ewHStack(a, b Matrix) (*Dense, error) {
	da, err := asDense("HStack", a)
	if err != nil {
		return nil, err
	}
	db, err := asDense("HStack", b)
	if err != nil {
		return nil, err
	}
	if da.r != db.r {
		return nil, matrixErrorf("HStack", ErrDimensionMismatch)
	}
	c := da.c + db.c
	out, err := newDenseZeroOK(da.r, c, da.validateNaNInf && db.validateNaNInf)
	if err != nil {
		return nil, matrixErrorf("HStack", err)
	}
	for i := 0; i < da.r; i++ {
		copy(out.data[i*c:i*c+da.c], da.data[i*da.c:(i+1)*da.c])
		copy(out.data[i*c+da.c:(i+1)*c], db.data[i*db.c:(i+1)*db.c])
	}

	return out, nil
}
