// SPDX-License-Identifier: MIT

// Package initial produces the first-pass complete matrix that seeds the
// round-robin iteration: every missing cell receives a simple per-column
// statistic computed over that column's observed cells.
//
// Strategies:
//   - Mean:         arithmetic mean of observed values.
//   - Median:       middle order statistic; mean of the two middle values for even counts.
//   - MostFrequent: the mode; ties resolve to the smallest value.
//   - Constant:     a user-supplied value (default 0).
//
// Degenerate columns:
//
//	A column with zero observed entries has no statistic. It is filled with
//	the constant fill value (0 for the non-constant strategies) and flagged
//	always-missing; the imputation engine never regresses on it.
//
// Determinism: statistics depend only on the observed multiset of values.
package initial

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/matrix"
)

// Strategy selects the per-column statistic.
type Strategy int

const (
	// Mean fills with the observed mean.
	Mean Strategy = iota
	// Median fills with the observed median.
	Median
	// MostFrequent fills with the smallest most frequent observed value.
	MostFrequent
	// Constant fills with the configured fill value.
	Constant
)

var (
	// ErrUnknownStrategy is returned by ParseStrategy for unrecognized names.
	ErrUnknownStrategy = errors.New("initial: unknown strategy")

	// ErrShapeMismatch is returned when matrix and mask shapes disagree, or
	// when Fill receives a matrix with a different column count than Fit.
	ErrShapeMismatch = errors.New("initial: shape mismatch")
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case Mean:
		return "mean"
	case Median:
		return "median"
	case MostFrequent:
		return "most_frequent"
	case Constant:
		return "constant"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool { return s >= Mean && s <= Constant }

// ParseStrategy maps "mean", "median", "most_frequent" (or "mode") and
// "constant" to a Strategy. Matching is case-insensitive.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean":
		return Mean, nil
	case "median":
		return Median, nil
	case "most_frequent", "mode":
		return MostFrequent, nil
	case "constant":
		return Constant, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Option configures Fit.
type Option func(*options)

type options struct {
	strategy  Strategy
	fillValue float64
}

// WithStrategy selects the statistic (default Mean).
func WithStrategy(s Strategy) Option { return func(o *options) { o.strategy = s } }

// WithFillValue sets the Constant strategy value and the fill used for
// always-missing columns under Constant (default 0).
// Panics on NaN/±Inf: a fill must be a valid regressor input.
func WithFillValue(v float64) Option {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic("initial: WithFillValue: value must be finite")
	}

	return func(o *options) { o.fillValue = v }
}

// Statistics holds the fitted per-column fill values.
// Read-only after Fit; safe for concurrent Fill calls.
type Statistics struct {
	strategy      Strategy
	values        []float64
	alwaysMissing []bool
}

// Fit computes one statistic per column of m over the cells mk marks observed.
// Implementation:
//   - Stage 1: validate m and shape agreement with mk.
//   - Stage 2: per column, gather observed values and reduce them.
//   - Stage 3: flag columns with no observed value.
//
// Errors: matrix.ErrNilMatrix, ErrShapeMismatch.
// Complexity: O(r*c) for Mean/Constant, O(r log r * c) for Median/MostFrequent.
func Fit(m *matrix.Dense, mk *mask.Mask, opts ...Option) (*Statistics, error) {
	if err := matrix.ValidateNotNil(m); err != nil {
		return nil, fmt.Errorf("initial.Fit: %w", err)
	}
	if mk == nil || mk.Check(m.Rows(), m.Cols()) != nil {
		return nil, fmt.Errorf("initial.Fit: %w", ErrShapeMismatch)
	}
	o := options{strategy: Mean}
	for _, fn := range opts {
		fn(&o)
	}

	c := m.Cols()
	st := &Statistics{
		strategy:      o.strategy,
		values:        make([]float64, c),
		alwaysMissing: make([]bool, c),
	}
	for j := 0; j < c; j++ {
		col, err := m.Col(j)
		if err != nil {
			return nil, fmt.Errorf("initial.Fit: %w", err)
		}
		observed := make([]float64, 0, len(col))
		for i, v := range col {
			if !mk.At(i, j) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			st.alwaysMissing[j] = true
			if o.strategy == Constant {
				st.values[j] = o.fillValue
			}
			continue
		}
		st.values[j] = reduce(o.strategy, observed, o.fillValue)
	}

	return st, nil
}

// reduce applies the strategy to a non-empty observed slice (may reorder it).
func reduce(s Strategy, observed []float64, fill float64) float64 {
	switch s {
	case Median:
		return median(observed)
	case MostFrequent:
		return mostFrequent(observed)
	case Constant:
		return fill
	default:
		return stat.Mean(observed, nil)
	}
}

// median sorts x in place and returns its middle value (average of the two
// middle values for even lengths).
func median(x []float64) float64 {
	sort.Float64s(x)
	n := len(x)
	if n%2 == 1 {
		return x[n/2]
	}

	return (x[n/2-1] + x[n/2]) / 2
}

// mostFrequent sorts x in place and returns the value with the longest run;
// the first (smallest) run wins ties.
func mostFrequent(x []float64) float64 {
	sort.Float64s(x)
	best, bestN := x[0], 0
	for i := 0; i < len(x); {
		k := i
		for k < len(x) && x[k] == x[i] {
			k++
		}
		if k-i > bestN {
			best, bestN = x[i], k-i
		}
		i = k
	}

	return best
}

// Fill returns a copy of m where every cell mk marks missing holds its
// column statistic. Never removes or reorders columns.
// Errors: matrix.ErrNilMatrix, ErrShapeMismatch.
// Complexity: O(r*c).
func (s *Statistics) Fill(m *matrix.Dense, mk *mask.Mask) (*matrix.Dense, error) {
	if err := matrix.ValidateNotNil(m); err != nil {
		return nil, fmt.Errorf("initial.Fill: %w", err)
	}
	if m.Cols() != len(s.values) || mk == nil || mk.Check(m.Rows(), m.Cols()) != nil {
		return nil, fmt.Errorf("initial.Fill: %w", ErrShapeMismatch)
	}
	out := m.Copy()
	if err := out.Apply(func(i, j int, v float64) float64 {
		if mk.At(i, j) {
			return s.values[j]
		}
		return v
	}); err != nil {
		return nil, fmt.Errorf("initial.Fill: %w", err)
	}

	return out, nil
}

// Strategy returns the strategy used at fit time.
func (s *Statistics) Strategy() Strategy { return s.strategy }

// Cols returns the number of fitted columns.
func (s *Statistics) Cols() int { return len(s.values) }

// Values returns a copy of the per-column fill values.
func (s *Statistics) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)

	return out
}

// IsAlwaysMissing reports whether column j had no observed value at fit time.
func (s *Statistics) IsAlwaysMissing(j int) bool {
	return j >= 0 && j < len(s.alwaysMissing) && s.alwaysMissing[j]
}

// AlwaysMissing lists the always-missing column indices, ascending.
func (s *Statistics) AlwaysMissing() []int {
	var out []int
	for j, b := range s.alwaysMissing {
		if b {
			out = append(out, j)
		}
	}

	return out
}
