// SPDX-License-Identifier: MIT

// Package indicator turns a missingness mask into a 0/1 feature matrix that
// can be appended to an imputed matrix (see matrix.HStack).
//
// The selected columns are fixed by Fit: either every column, or only the
// columns that had at least one missing value in the fit mask. Transform
// then emits one indicator column per selected feature, in ascending order.
package indicator

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/matrix"
)

// Features selects which columns receive an indicator.
type Features int

const (
	// MissingOnly selects columns with at least one missing value at fit time.
	MissingOnly Features = iota
	// All selects every column.
	All
)

var (
	// ErrShapeMismatch is returned when Transform sees a different column count.
	ErrShapeMismatch = errors.New("indicator: shape mismatch")

	// ErrNilMask is returned for a nil mask.
	ErrNilMask = errors.New("indicator: nil mask")
)

// Indicator is a fitted column selection. Read-only after Fit.
type Indicator struct {
	cols     int
	features []int
}

// Fit records the selected features of mk.
func Fit(mk *mask.Mask, f Features) (*Indicator, error) {
	if mk == nil {
		return nil, ErrNilMask
	}
	ind := &Indicator{cols: mk.Cols(), features: make([]int, 0, mk.Cols())}
	for j := 0; j < mk.Cols(); j++ {
		if f == All || mk.AnyInColumn(j) {
			ind.features = append(ind.features, j)
		}
	}

	return ind, nil
}

// Features returns a copy of the selected column indices.
func (ind *Indicator) Features() []int { return append([]int(nil), ind.features...) }

// Transform returns a rows×len(Features()) matrix with 1 where mk is missing.
// Errors: ErrNilMask, ErrShapeMismatch.
// Complexity: O(r*k).
func (ind *Indicator) Transform(mk *mask.Mask) (*matrix.Dense, error) {
	if mk == nil {
		return nil, ErrNilMask
	}
	if mk.Cols() != ind.cols {
		return nil, fmt.Errorf("indicator.Transform: %d columns, fitted on %d: %w", mk.Cols(), ind.cols, ErrShapeMismatch)
	}
	out, err := matrix.NewZeros(mk.Rows(), len(ind.features), matrix.WithValidateNaNInf())
	if err != nil {
		return nil, fmt.Errorf("indicator.Transform: %w", err)
	}
	for k, j := range ind.features {
		for _, i := range mk.MissingRows(j) {
			if err := out.Set(i, k, 1); err != nil {
				return nil, fmt.Errorf("indicator.Transform: %w", err)
			}
		}
	}

	return out, nil
}
