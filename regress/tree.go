// SPDX-License-Identifier: MIT

package regress

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/lvimpute/matrix"
)

// Tree is a CART regression tree minimizing within-node squared error.
// Splits are searched over features in index order; only strict
// improvements replace the incumbent, so equal data gives equal trees.
type Tree struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int

	p    int
	root *treeNode
}

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) leaf() bool { return n.left == nil }

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithMaxDepth limits depth; d ≤ 0 means unlimited.
func WithMaxDepth(d int) TreeOption {
	return func(t *Tree) {
		if d > 0 {
			t.maxDepth = d
		}
	}
}

// WithMinSamplesSplit sets the minimum node size eligible for a split (≥ 2).
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *Tree) {
		if n >= 2 {
			t.minSamplesSplit = n
		}
	}
}

// WithMinSamplesLeaf sets the minimum rows per child (≥ 1).
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *Tree) {
		if n >= 1 {
			t.minSamplesLeaf = n
		}
	}
}

// NewTree returns an unfitted tree with unlimited depth, min split 2, min leaf 1.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{minSamplesSplit: 2, minSamplesLeaf: 1}
	for _, fn := range opts {
		fn(t)
	}

	return t
}

// Fit grows the tree greedily.
// Errors: ErrInsufficientSamples, ErrFeatureMismatch, matrix.ErrNaNInf.
// Complexity: O(p·n log n) per level.
func (t *Tree) Fit(X matrix.Matrix, y []float64) error {
	xs, err := design("Tree.Fit", X, y)
	if err != nil {
		return err
	}
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	t.p = X.Cols()
	t.root = t.grow(xs, y, idx, 0)

	return nil
}

func (t *Tree) grow(xs [][]float64, y []float64, idx []int, depth int) *treeNode {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	node := &treeNode{value: sum / float64(len(idx))}
	if len(idx) < t.minSamplesSplit || (t.maxDepth > 0 && depth >= t.maxDepth) {
		return node
	}

	feature, threshold, ok := t.bestSplit(xs, y, idx)
	if !ok {
		return node
	}
	var left, right []int
	for _, i := range idx {
		if xs[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.feature, node.threshold = feature, threshold
	node.left = t.grow(xs, y, left, depth+1)
	node.right = t.grow(xs, y, right, depth+1)

	return node
}

// bestSplit scans sorted prefix sums per feature and returns the split with
// the lowest left+right SSE that beats the parent SSE.
func (t *Tree) bestSplit(xs [][]float64, y []float64, idx []int) (int, float64, bool) {
	n := len(idx)
	total, totalSq := 0.0, 0.0
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	best := totalSq - total*total/float64(n)
	bestFeature, bestThreshold, found := -1, 0.0, false
	const minGain = 1e-12

	order := make([]int, n)
	for f := 0; f < t.p; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return xs[order[a]][f] < xs[order[b]][f] })
		ls, lsq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			v := y[order[k]]
			ls += v
			lsq += v * v
			nl := k + 1
			nr := n - nl
			if nl < t.minSamplesLeaf || nr < t.minSamplesLeaf {
				continue
			}
			a, b := xs[order[k]][f], xs[order[k+1]][f]
			if a == b {
				continue
			}
			rs, rsq := total-ls, totalSq-lsq
			sse := (lsq - ls*ls/float64(nl)) + (rsq - rs*rs/float64(nr))
			if sse < best-minGain {
				best, bestFeature, bestThreshold, found = sse, f, a+(b-a)/2, true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

// Predict routes each row to a leaf and returns the leaf mean.
func (t *Tree) Predict(X matrix.Matrix) ([]float64, error) {
	if t.root == nil {
		return nil, fmt.Errorf("Tree.Predict: %w", ErrNotFitted)
	}
	xs, err := rows("Tree.Predict", X, t.p)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(xs))
	for i, row := range xs {
		n := t.root
		for !n.leaf() {
			if row[n.feature] <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		out[i] = n.value
	}

	return out, nil
}

// Depth returns the depth of the fitted tree (0 for a single leaf).
func (t *Tree) Depth() int { return depthOf(t.root) }

func depthOf(n *treeNode) int {
	if n == nil || n.leaf() {
		return 0
	}

	return 1 + max(depthOf(n.left), depthOf(n.right))
}
