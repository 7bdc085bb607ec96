// SPDX-License-Identifier: MIT

// Package order decides the sequence in which incomplete columns are imputed
// within each round.
//
// Policies:
//   - Ascending:  fewest missing values first.
//   - Descending: most missing values first.
//   - Roman:      left to right (input order).
//   - Arabic:     right to left (reverse input order).
//   - Random:     seeded Fisher–Yates permutation.
//
// Only columns with at least one missing value are scheduled; callers exclude
// always-missing columns with WithExclude. Ties in Ascending/Descending are
// broken by ascending column index so the result is fully deterministic.
package order

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/lvimpute/internal/rng"
	"github.com/katalvlaran/lvimpute/mask"
)

// Policy selects the visiting order.
type Policy int

const (
	// Ascending visits columns with the fewest missing values first.
	Ascending Policy = iota
	// Descending visits columns with the most missing values first.
	Descending
	// Roman visits columns in input order.
	Roman
	// Arabic visits columns in reverse input order.
	Arabic
	// Random visits columns in a seeded random permutation.
	Random
)

var (
	// ErrUnknownPolicy is returned for unrecognized policy names or values.
	ErrUnknownPolicy = errors.New("order: unknown policy")

	// ErrNilMask is returned when Compute receives a nil mask.
	ErrNilMask = errors.New("order: nil mask")
)

var policyNames = map[Policy]string{
	Ascending:  "ascending",
	Descending: "descending",
	Roman:      "roman",
	Arabic:     "arabic",
	Random:     "random",
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}

	return fmt.Sprintf("Policy(%d)", int(p))
}

// Valid reports whether p names a known policy.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]

	return ok
}

// ParsePolicy maps a case-insensitive name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for p, s := range policyNames {
		if s == n {
			return p, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Option configures Compute.
type Option func(*options)

type options struct {
	seed    int64
	exclude map[int]struct{}
}

// WithSeed sets the Random policy seed (0 maps to the package default).
func WithSeed(seed int64) Option { return func(o *options) { o.seed = seed } }

// WithExclude removes the listed columns from the schedule.
func WithExclude(cols ...int) Option {
	return func(o *options) {
		for _, j := range cols {
			o.exclude[j] = struct{}{}
		}
	}
}

// Compute returns the visiting order for mk under p.
// Implementation:
//   - Stage 1: collect incomplete, non-excluded columns in ascending index order.
//   - Stage 2: arrange them per policy (stable sort keeps index tie-breaks).
//
// The returned slice is freshly allocated; an empty schedule is a non-nil
// empty slice.
// Errors: ErrNilMask, ErrUnknownPolicy.
// Complexity: O(c log c) plus O(c) for the shuffle.
func Compute(mk *mask.Mask, p Policy, opts ...Option) ([]int, error) {
	if mk == nil {
		return nil, ErrNilMask
	}
	if !p.Valid() {
		return nil, fmt.Errorf("order.Compute: %w: %d", ErrUnknownPolicy, int(p))
	}
	o := options{exclude: make(map[int]struct{})}
	for _, fn := range opts {
		fn(&o)
	}

	counts := mk.ColumnCounts()
	cols := make([]int, 0, len(counts))
	for j, n := range counts {
		if n == 0 {
			continue
		}
		if _, skip := o.exclude[j]; skip {
			continue
		}
		cols = append(cols, j)
	}

	switch p {
	case Ascending:
		sort.SliceStable(cols, func(a, b int) bool { return counts[cols[a]] < counts[cols[b]] })
	case Descending:
		sort.SliceStable(cols, func(a, b int) bool { return counts[cols[a]] > counts[cols[b]] })
	case Arabic:
		for a, b := 0, len(cols)-1; a < b; a, b = a+1, b-1 {
			cols[a], cols[b] = cols[b], cols[a]
		}
	case Random:
		rng.ShuffleInts(cols, rng.FromSeed(o.seed))
	}

	return cols, nil
}
