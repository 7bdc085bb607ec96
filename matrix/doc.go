// SPDX-License-Identifier: MIT

// Package matrix provides the dense numeric table used across lvimpute.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 store with bounds-checked At/Set that return
//     sentinel errors instead of panicking.
//   - A numeric policy (Options) deciding whether NaN/±Inf may be stored.
//     Imputation inputs routinely carry NaN as the missing placeholder, so the
//     package default admits them; WithValidateNaNInf turns strict mode on.
//   - Copy-based column and row selection (Induced, SelectColumns, HStack).
//   - ClipColumns, the per-column clamp applied to predictions, and
//     Correlation, the column statistic behind nearest-feature selection.
//
// Determinism: every loop runs in fixed i→j order; no map iteration and no
// hidden randomness.
//
// See the tests in this package for usage patterns.
package matrix
