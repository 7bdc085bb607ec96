// SPDX-License-Identifier: MIT

package impute

import (
	"math"

	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/matrix"
)

// tracker records successive round deltas and applies the stop rule.
type tracker struct {
	tol       float64
	maxRounds int
	deltas    []float64
}

func newTracker(tol float64, maxRounds int) *tracker {
	return &tracker{tol: tol, maxRounds: maxRounds, deltas: make([]float64, 0, maxRounds)}
}

// observe appends the delta of the round just completed and reports whether
// iteration should stop.
func (t *tracker) observe(delta float64) bool {
	t.deltas = append(t.deltas, delta)

	return shouldStop(delta, t.tol, len(t.deltas), t.maxRounds)
}

// converged reports whether the last recorded delta met the tolerance.
func (t *tracker) converged() bool {
	return len(t.deltas) > 0 && t.deltas[len(t.deltas)-1] <= t.tol
}

// last returns the most recent delta (0 when no round ran).
func (t *tracker) last() float64 {
	if len(t.deltas) == 0 {
		return 0
	}

	return t.deltas[len(t.deltas)-1]
}

// shouldStop is true once delta ≤ tol or round ≥ maxRounds.
func shouldStop(delta, tol float64, round, maxRounds int) bool {
	return delta <= tol || round >= maxRounds
}

// roundDelta is max over the missing cells of cols of |curr − prev| / scale[j].
// Only scheduled columns change between rounds, so cols lists those.
// Complexity: O(Σ missing(j)) over cols.
func roundDelta(prev, curr *matrix.Dense, mk *mask.Mask, cols []int, scale []float64) float64 {
	delta := 0.0
	for _, j := range cols {
		for _, i := range mk.MissingRows(j) {
			a, _ := prev.At(i, j)
			b, _ := curr.At(i, j)
			if d := math.Abs(b-a) / scale[j]; d > delta {
				delta = d
			}
		}
	}

	return delta
}

// columnScales returns max |observed value| per column, 1 where that is 0
// or the column has no observed value.
func columnScales(X *matrix.Dense, mk *mask.Mask) []float64 {
	scale := make([]float64, X.Cols())
	X.Do(func(i, j int, v float64) bool {
		if !mk.At(i, j) {
			scale[j] = math.Max(scale[j], math.Abs(v))
		}
		return true
	})
	for j, s := range scale {
		if s == 0 {
			scale[j] = 1
		}
	}

	return scale
}
