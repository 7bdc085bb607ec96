// SPDX-License-Identifier: MIT

package dataset_test

import (
	"bytes"
	"encoding/csv"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvimpute/internal/dataset"
)

func TestRead_MissingTokens(t *testing.T) {
	t.Parallel()

	src := "a,b,c\n1,,3\nNaN,5, 6\n7,nan,9\n"
	tb, err := dataset.Read(strings.NewReader(src), dataset.ReadOptions{Header: true, Sentinel: math.NaN()})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, tb.Header)
	require.Equal(t, 3, tb.Data.Rows())

	for _, cell := range [][2]int{{0, 1}, {1, 0}, {2, 1}} {
		v, err := tb.Data.At(cell[0], cell[1])
		require.NoError(t, err)
		require.True(t, math.IsNaN(v), "cell %v", cell)
	}
	v, err := tb.Data.At(1, 2)
	require.NoError(t, err)
	require.Equal(t, 6.0, v)
}

func TestRead_NumericToken(t *testing.T) {
	t.Parallel()

	tb, err := dataset.Read(strings.NewReader("1,-999\n,4\n"), dataset.ReadOptions{Token: "-999", Sentinel: -999})
	require.NoError(t, err)
	require.Nil(t, tb.Header)
	require.Equal(t, [][]float64{{1, -999}, {-999, 4}}, tb.Data.ToRows())
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()

	_, err := dataset.Read(strings.NewReader("a,b\n"), dataset.ReadOptions{Header: true})
	require.ErrorIs(t, err, dataset.ErrEmpty)

	_, err = dataset.Read(strings.NewReader("1,x\n"), dataset.ReadOptions{})
	require.ErrorIs(t, err, dataset.ErrParse)

	_, err = dataset.Read(strings.NewReader("1,2\n3\n"), dataset.ReadOptions{})
	require.ErrorIs(t, err, csv.ErrFieldCount)
}

func TestWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	src := "x,y\n1.5,NaN\n-2,3e10\n"
	tb, err := dataset.Read(strings.NewReader(src), dataset.ReadOptions{Header: true, Sentinel: math.NaN()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dataset.Write(&buf, tb, ""))
	require.Equal(t, "x,y\n1.5,NaN\n-2,3e+10\n", buf.String())

	sel, err := tb.Select([]int{1})
	require.NoError(t, err)
	require.Equal(t, []string{"y"}, sel.Header)

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, dataset.WriteFile(path, sel, "NA"))
	back, err := dataset.ReadFile(path, dataset.ReadOptions{Header: true, Token: "NA", Sentinel: math.NaN()})
	require.NoError(t, err)
	v, err := back.Data.At(0, 0)
	require.NoError(t, err)
	require.True(t, math.IsNaN(v))
}
