// SPDX-License-Identifier: MIT

package order_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/order"
)

// maskWithCounts builds a 4-row mask whose column j has counts[j] missing cells.
func maskWithCounts(t *testing.T, counts ...int) *mask.Mask {
	t.Helper()
	rows := make([][]bool, 4)
	for i := range rows {
		rows[i] = make([]bool, len(counts))
		for j, n := range counts {
			rows[i][j] = i < n
		}
	}
	mk, err := mask.FromBools(rows)
	require.NoError(t, err)

	return mk
}

func TestCompute_Policies(t *testing.T) {
	t.Parallel()

	mk := maskWithCounts(t, 2, 0, 1, 3, 1)
	cases := []struct {
		p    order.Policy
		want []int
	}{
		{order.Ascending, []int{2, 4, 0, 3}},
		{order.Descending, []int{3, 0, 2, 4}},
		{order.Roman, []int{0, 2, 3, 4}},
		{order.Arabic, []int{4, 3, 2, 0}},
	}
	for _, tc := range cases {
		got, err := order.Compute(mk, tc.p)
		require.NoError(t, err, tc.p.String())
		require.Equal(t, tc.want, got, tc.p.String())
	}
}

func TestCompute_DescendingScenario(t *testing.T) {
	t.Parallel()

	got, err := order.Compute(maskWithCounts(t, 1, 3, 0), order.Descending)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, got)
}

func TestCompute_Exclude(t *testing.T) {
	t.Parallel()

	got, err := order.Compute(maskWithCounts(t, 4, 1, 2), order.Ascending, order.WithExclude(0))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)
}

func TestCompute_RandomSeeded(t *testing.T) {
	t.Parallel()

	mk := maskWithCounts(t, 1, 1, 1, 1, 1, 1, 1, 1)
	a, err := order.Compute(mk, order.Random, order.WithSeed(11))
	require.NoError(t, err)
	b, err := order.Compute(mk, order.Random, order.WithSeed(11))
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, a)

	z, err := order.Compute(mk, order.Random)
	require.NoError(t, err)
	d, err := order.Compute(mk, order.Random, order.WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, z, d, "seed 0 maps to the default seed")
}

func TestCompute_NoMissing(t *testing.T) {
	t.Parallel()

	got, err := order.Compute(maskWithCounts(t, 0, 0), order.Roman)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestCompute_Errors(t *testing.T) {
	t.Parallel()

	_, err := order.Compute(nil, order.Roman)
	require.ErrorIs(t, err, order.ErrNilMask)
	_, err = order.Compute(maskWithCounts(t, 1), order.Policy(99))
	require.ErrorIs(t, err, order.ErrUnknownPolicy)
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := order.ParsePolicy("Descending")
	require.NoError(t, err)
	require.Equal(t, order.Descending, p)
	_, err = order.ParsePolicy("sideways")
	require.ErrorIs(t, err, order.ErrUnknownPolicy)
}
