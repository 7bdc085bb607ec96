// SPDX-License-Identifier: MIT

// Package mask records which cells of a dataset matrix hold the missing sentinel.
//
// What & Why:
//
//	A Mask is computed once per input matrix (fit or transform) and never
//	mutated afterwards. Every downstream stage (initial fill, visiting order,
//	per-column regression, convergence) reads it to know which cells are
//	observed training values and which are estimates.
//
// Sentinel policy:
//
//	Exactly one sentinel is active. A NaN sentinel matches every NaN bit
//	pattern (NaN != NaN under IEEE-754, so plain == can never find it); any
//	other sentinel matches by exact ==. No implicit null handling: with a
//	numeric sentinel, NaN cells are just values.
//
// Complexity:
//
//	Compute is O(r*c); At and Count are O(1); row listings are O(r).
package mask

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvimpute/matrix"
)

// ErrShapeMismatch is returned by Check when a mask is reused against a
// matrix of a different shape.
var ErrShapeMismatch = errors.New("mask: shape mismatch")

// Sentinel is the value designating "missing".
type Sentinel struct {
	value float64
	isNaN bool
}

// NaN returns the NaN sentinel (matches any NaN payload).
func NaN() Sentinel { return Sentinel{value: math.NaN(), isNaN: true} }

// Value returns a sentinel for v. Passing a NaN is equivalent to NaN().
func Value(v float64) Sentinel {
	if math.IsNaN(v) {
		return NaN()
	}

	return Sentinel{value: v}
}

// Matches reports whether v is the sentinel.
func (s Sentinel) Matches(v float64) bool {
	if s.isNaN {
		return math.IsNaN(v)
	}

	return v == s.value
}

// IsNaN reports whether the sentinel is the NaN placeholder.
func (s Sentinel) IsNaN() bool { return s.isNaN }

// Float returns the sentinel value (NaN for the NaN sentinel).
func (s Sentinel) Float() float64 { return s.value }

// String implements fmt.Stringer.
func (s Sentinel) String() string {
	if s.isNaN {
		return "NaN"
	}

	return fmt.Sprintf("%g", s.value)
}

// Mask is a read-only boolean matrix: true where the sentinel was present.
type Mask struct {
	r, c   int
	bits   []bool // row-major, len == r*c
	counts []int  // missing count per column
}

// Compute builds the mask of m against s.
// Implementation:
//   - Stage 1: validate m (non-nil).
//   - Stage 2: single row-major pass; count per column.
//
// Errors: matrix.ErrNilMatrix (wrapped).
// Complexity: O(r*c).
func Compute(m matrix.Matrix, s Sentinel) (*Mask, error) {
	if err := matrix.ValidateNotNil(m); err != nil {
		return nil, fmt.Errorf("mask.Compute: %w", err)
	}
	r, c := m.Rows(), m.Cols()
	mk := &Mask{r: r, c: c, bits: make([]bool, r*c), counts: make([]int, c)}

	if d, ok := m.(*matrix.Dense); ok {
		d.Do(func(i, j int, v float64) bool {
			if s.Matches(v) {
				mk.bits[i*c+j] = true
				mk.counts[j]++
			}
			return true
		})
		return mk, nil
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, err := m.At(i, j)
			if err != nil {
				return nil, fmt.Errorf("mask.Compute: %w", err)
			}
			if s.Matches(v) {
				mk.bits[i*c+j] = true
				mk.counts[j]++
			}
		}
	}

	return mk, nil
}

// FromBools builds a mask from an explicit boolean table (rectangular).
// Used by callers that track missingness outside a numeric sentinel.
func FromBools(rows [][]bool) (*Mask, error) {
	r := len(rows)
	c := 0
	if r > 0 {
		c = len(rows[0])
	}
	mk := &Mask{r: r, c: c, bits: make([]bool, r*c), counts: make([]int, c)}
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("mask.FromBools: row %d: %w", i, ErrShapeMismatch)
		}
		for j, b := range row {
			if b {
				mk.bits[i*c+j] = true
				mk.counts[j]++
			}
		}
	}

	return mk, nil
}

// Rows returns the number of rows.
func (m *Mask) Rows() int { return m.r }

// Cols returns the number of columns.
func (m *Mask) Cols() int { return m.c }

// At reports whether cell (i, j) was missing. Out-of-range cells report false.
func (m *Mask) At(i, j int) bool {
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		return false
	}

	return m.bits[i*m.c+j]
}

// Check fails with ErrShapeMismatch unless the mask has shape rows×cols.
func (m *Mask) Check(rows, cols int) error {
	if m.r != rows || m.c != cols {
		return fmt.Errorf("mask: have %dx%d, want %dx%d: %w", m.r, m.c, rows, cols, ErrShapeMismatch)
	}

	return nil
}

// Count returns the number of missing cells in column j (0 when out of range).
func (m *Mask) Count(j int) int {
	if j < 0 || j >= m.c {
		return 0
	}

	return m.counts[j]
}

// ColumnCounts returns a copy of the per-column missing counts.
func (m *Mask) ColumnCounts() []int {
	out := make([]int, m.c)
	copy(out, m.counts)

	return out
}

// Any reports whether any cell is missing.
func (m *Mask) Any() bool {
	for _, n := range m.counts {
		if n > 0 {
			return true
		}
	}

	return false
}

// AnyInColumn reports whether column j has at least one missing cell.
func (m *Mask) AnyInColumn(j int) bool { return m.Count(j) > 0 }

// AllInColumn reports whether every cell of column j is missing.
// A column of a zero-row mask is not considered all-missing.
func (m *Mask) AllInColumn(j int) bool { return m.r > 0 && m.Count(j) == m.r }

// MissingRows lists row indices where column j is missing, ascending.
func (m *Mask) MissingRows(j int) []int { return m.rowsWhere(j, true) }

// ObservedRows lists row indices where column j is observed, ascending.
func (m *Mask) ObservedRows(j int) []int { return m.rowsWhere(j, false) }

func (m *Mask) rowsWhere(j int, missing bool) []int {
	if j < 0 || j >= m.c {
		return nil
	}
	n := m.counts[j]
	if !missing {
		n = m.r - n
	}
	out := make([]int, 0, n)
	for i := 0; i < m.r; i++ {
		if m.bits[i*m.c+j] == missing {
			out = append(out, i)
		}
	}

	return out
}
