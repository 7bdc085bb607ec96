// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvimpute/matrix"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	t.Parallel()

	_, err := matrix.NewDense(0, 5)                      // zero rows
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions) // expect ErrInvalidDimensions

	_, err = matrix.NewDense(5, 0)                       // zero columns
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions) // expect ErrInvalidDimensions

	z, err := matrix.NewZeros(3, 0) // zero-area is legal through NewZeros
	require.NoError(t, err)
	require.Equal(t, 3, z.Rows())
	require.Equal(t, 0, z.Cols())

	_, err = matrix.NewZeros(-1, 2)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestNewDenseFrom covers copying, ragged input and empty input.
func TestNewDenseFrom(t *testing.T) {
	t.Parallel()

	src := [][]float64{{1, 2}, {3, 4}}
	m, err := matrix.NewDenseFrom(src)
	require.NoError(t, err)
	src[0][0] = 99 // the matrix owns its storage
	v, err := m.At(0, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)

	_, err = matrix.NewDenseFrom([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrBadShape)

	_, err = matrix.NewDenseFrom(nil)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	_, err = m.At(-1, 0)                          // negative row
	require.ErrorIs(t, err, matrix.ErrOutOfRange) // expect ErrOutOfRange

	_, err = m.At(0, 2) // column past the end
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)
	require.NoError(t, m.Set(1, 1, 7.89))
	v, err := m.At(1, 1)
	require.NoError(t, err)
	require.Equal(t, 7.89, v)
}

// TestNumericPolicy checks that NaN is storable by default and rejected when strict.
func TestNumericPolicy(t *testing.T) {
	t.Parallel()

	loose, err := matrix.NewDenseFrom([][]float64{{math.NaN(), 1}})
	require.NoError(t, err)
	require.NoError(t, loose.Set(0, 1, math.Inf(1)))

	_, err = matrix.NewDenseFrom([][]float64{{math.NaN(), 1}}, matrix.WithValidateNaNInf())
	require.ErrorIs(t, err, matrix.ErrNaNInf)

	strict, err := matrix.NewDense(1, 2, matrix.WithValidateNaNInf())
	require.NoError(t, err)
	require.ErrorIs(t, strict.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.ErrorIs(t, strict.SetCol(1, []float64{math.Inf(-1)}), matrix.ErrNaNInf)
	require.ErrorIs(t, strict.Apply(func(_, _ int, _ float64) float64 { return math.NaN() }), matrix.ErrNaNInf)

	zeros, err := matrix.NewZeros(2, 1, matrix.WithValidateNaNInf())
	require.NoError(t, err)
	require.ErrorIs(t, zeros.Set(1, 0, math.Inf(1)), matrix.ErrNaNInf)
}

// TestColCopies verifies Col returns a copy and SetCol is all-or-nothing.
func TestColCopies(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDenseFrom([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	col, err := m.Col(0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 4}, col)
	col[0] = 0
	again, err := m.Col(0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 4}, again) // untouched by the slice edit

	require.ErrorIs(t, m.SetCol(1, []float64{9}), matrix.ErrDimensionMismatch)
	require.NoError(t, m.SetCol(1, []float64{8, 9}))
	require.Equal(t, [][]float64{{1, 8, 3}, {4, 9, 6}}, m.ToRows())

	_, err = m.Col(-1)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestCopyIndependence ensures Copy produces an independent buffer.
func TestCopyIndependence(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDenseFrom([][]float64{{1, 2}})
	require.NoError(t, err)
	c := m.Copy()
	require.NoError(t, c.Set(0, 0, 5))
	v, _ := m.At(0, 0)
	require.Equal(t, 1.0, v)
	require.Equal(t, "[1, 2]\n", m.String())
}

// TestInduced covers row/column selection, duplicates and zero-area results.
func TestInduced(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDenseFrom([][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, err)

	sub, err := m.Induced([]int{2, 0}, []int{1, 1})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{8, 8}, {2, 2}}, sub.ToRows())

	empty, err := m.Induced([]int{0, 1}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, empty.Rows())
	require.Equal(t, 0, empty.Cols())

	_, err = m.Induced([]int{3}, []int{0})
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = m.Induced([]int{0}, []int{-1})
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestDoApply checks visiting order, early exit and in-place replacement.
func TestDoApply(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDenseFrom([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	var seen []float64
	m.Do(func(_, _ int, v float64) bool {
		seen = append(seen, v)
		return v < 3 // stop after the first value >= 3
	})
	require.Equal(t, []float64{1, 2, 3}, seen)

	require.NoError(t, m.Apply(func(i, j int, v float64) float64 { return v*10 + float64(i+j) }))
	require.Equal(t, [][]float64{{10, 21}, {31, 42}}, m.ToRows())
}
