// SPDX-License-Identifier: MIT

package regress

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/katalvlaran/lvimpute/matrix"
)

const defaultK = 5

// KNN predicts the uniform mean of the k nearest training labels under
// Euclidean distance. Distance ties keep the lower training index.
type KNN struct {
	k  int
	p  int
	xs [][]float64
	y  []float64
}

// NewKNN returns an unfitted model; k ≤ 0 selects 5.
func NewKNN(k int) *KNN {
	if k <= 0 {
		k = defaultK
	}

	return &KNN{k: k}
}

// Fit stores a private copy of the training data.
// Errors: ErrInsufficientSamples, ErrFeatureMismatch, matrix.ErrNaNInf.
func (m *KNN) Fit(X matrix.Matrix, y []float64) error {
	xs, err := design("KNN.Fit", X, y)
	if err != nil {
		return err
	}
	m.xs, m.y, m.p = xs, append([]float64(nil), y...), X.Cols()

	return nil
}

// Predict splits rows across GOMAXPROCS workers; each row scans the whole
// training set keeping a sorted window of at most k neighbors.
// Complexity: O(q·n·(p+k)) total work.
func (m *KNN) Predict(X matrix.Matrix) ([]float64, error) {
	if m.xs == nil {
		return nil, fmt.Errorf("KNN.Predict: %w", ErrNotFitted)
	}
	qs, err := rows("KNN.Predict", X, m.p)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(qs))
	if len(qs) == 0 {
		return out, nil
	}
	workers := runtime.GOMAXPROCS(0)
	per := (len(qs) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * per
		end := min(start+per, len(qs))
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				out[i] = m.predictOne(qs[i])
			}
		}(start, end)
	}
	wg.Wait()

	return out, nil
}

func (m *KNN) predictOne(q []float64) float64 {
	type pair struct{ d, v float64 }
	k := min(m.k, len(m.xs))
	nbrs := make([]pair, 0, k+1)
	for i, x := range m.xs {
		d := euclidSquared(q, x)
		if len(nbrs) == k && d >= nbrs[k-1].d {
			continue
		}
		pos := len(nbrs)
		for pos > 0 && nbrs[pos-1].d > d {
			pos--
		}
		nbrs = append(nbrs, pair{})
		copy(nbrs[pos+1:], nbrs[pos:])
		nbrs[pos] = pair{d: d, v: m.y[i]}
		if len(nbrs) > k {
			nbrs = nbrs[:k]
		}
	}
	sum := 0.0
	for _, nb := range nbrs {
		sum += nb.v
	}

	return sum / float64(len(nbrs))
}

func euclidSquared(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}

	return s
}
