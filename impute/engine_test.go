// SPDX-License-Identifier: MIT

package impute_test

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/katalvlaran/lvimpute/impute"
	"github.com/katalvlaran/lvimpute/initial"
	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/matrix"
	"github.com/katalvlaran/lvimpute/order"
	"github.com/katalvlaran/lvimpute/regress"
)

var nan = math.NaN()

func dense(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(rows)
	require.NoError(t, err)

	return m
}

func newEngine(t *testing.T, opts ...impute.Option) *impute.Engine {
	t.Helper()
	opts = append([]impute.Option{impute.WithLogger(zaptest.NewLogger(t))}, opts...)
	e, err := impute.New(opts...)
	require.NoError(t, err)

	return e
}

func at(t *testing.T, m *matrix.Dense, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// linearData builds three correlated columns with interior missing cells in
// columns 0 and 1.
func linearData(t *testing.T, n int) *matrix.Dense {
	t.Helper()
	rows := make([][]float64, n)
	for i := range rows {
		x := float64(i) / 4
		rows[i] = []float64{
			x + 0.05*math.Sin(float64(i)),
			2*x + 1 + 0.05*math.Cos(3*float64(i)),
			-x + 0.1*math.Sin(2*float64(i)),
		}
		if i%5 == 2 {
			rows[i][0] = nan
		}
		if i%7 == 3 {
			rows[i][1] = nan
		}
	}

	return dense(t, rows)
}

// constRegressor predicts a fixed value and records the design width.
type constRegressor struct {
	value  float64
	fitErr error
	mu     *sync.Mutex
	widths *[]int
}

func (c *constRegressor) Fit(X matrix.Matrix, _ []float64) error {
	if c.fitErr != nil {
		return c.fitErr
	}
	if c.widths != nil {
		c.mu.Lock()
		*c.widths = append(*c.widths, X.Cols())
		c.mu.Unlock()
	}

	return nil
}

func (c *constRegressor) Predict(X matrix.Matrix) ([]float64, error) {
	out := make([]float64, X.Rows())
	for i := range out {
		out[i] = c.value
	}

	return out, nil
}

// echoRegressor predicts predictor column 0 of each row unchanged.
type echoRegressor struct{}

func (echoRegressor) Fit(matrix.Matrix, []float64) error { return nil }

func (echoRegressor) Predict(X matrix.Matrix) ([]float64, error) {
	out := make([]float64, X.Rows())
	for i := range out {
		v, err := X.At(i, 0)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

func TestFit_GaussSeidelUsesFreshWrites(t *testing.T) {
	t.Parallel()

	// Mean fill puts row 1 at [1, 15]. Column 0 is visited first and echoes
	// column 1 (15). Column 1 then sees the fresh 15 in column 0; a
	// round-start snapshot would have given it 1.
	X := dense(t, [][]float64{{0, 10}, {nan, nan}, {2, 20}})
	e := newEngine(t,
		impute.WithInitialStrategy(initial.Mean),
		impute.WithOrderPolicy(order.Roman),
		impute.WithMaxRounds(1),
		impute.WithMinValue(math.Inf(-1)),
		impute.WithMaxValue(math.Inf(1)),
		impute.WithRegressor(func() regress.Regressor { return echoRegressor{} }),
	)
	out, _, err := e.FitTransform(X)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, e.Order())
	require.Equal(t, 15.0, at(t, out, 1, 0))
	require.Equal(t, 15.0, at(t, out, 1, 1))
}

func TestFit_MeanScenario(t *testing.T) {
	t.Parallel()

	X := dense(t, [][]float64{{1, 2}, {nan, 3}, {7, 6}})
	meanFactory, err := regress.NewFactory(regress.KindMean, regress.Params{})
	require.NoError(t, err)
	e := newEngine(t,
		impute.WithInitialStrategy(initial.Mean),
		impute.WithMaxRounds(1),
		impute.WithRegressor(meanFactory),
	)

	out, rep, err := e.FitTransform(X)
	require.NoError(t, err)
	require.Equal(t, 4.0, at(t, out, 1, 0))
	require.Equal(t, 1, rep.Rounds)
	require.Equal(t, []int{0}, rep.Order)
	require.Equal(t, 1, rep.Imputed)

	// Input is never modified.
	require.True(t, math.IsNaN(at(t, X, 1, 0)))
}

func TestFit_AllMissingColumnKeepOrDrop(t *testing.T) {
	t.Parallel()

	X := dense(t, [][]float64{{1, nan}, {2, nan}, {3, nan}})

	keep := newEngine(t, impute.WithKeepEmptyFeatures(true))
	out, rep, err := keep.FitTransform(X)
	require.NoError(t, err)
	require.Equal(t, 2, out.Cols())
	col, err := out.Col(1)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0}, col)
	require.Equal(t, []int{1}, rep.AlwaysMissing)
	require.Empty(t, rep.Dropped)

	drop := newEngine(t)
	out, rep, err = drop.FitTransform(X)
	require.NoError(t, err)
	require.Equal(t, 1, out.Cols())
	require.Equal(t, []int{1}, rep.Dropped)
	require.Equal(t, 1, drop.OutputCols())

	tr, err := drop.Transform(dense(t, [][]float64{{nan, 5}, {4, nan}}))
	require.NoError(t, err)
	require.Equal(t, 1, tr.Cols(), "drop set is fixed at fit time")
	require.Equal(t, 2.0, at(t, tr, 0, 0))
}

func TestFit_DescendingOrderScenario(t *testing.T) {
	t.Parallel()

	X := dense(t, [][]float64{
		{nan, 1, 5},
		{2, nan, 6},
		{3, nan, 7},
		{4, nan, 8},
		{5, 9, 9},
	})
	e := newEngine(t, impute.WithOrderPolicy(order.Descending))
	rep, err := e.Fit(X)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, rep.Order)
	require.Equal(t, []int{1, 0}, e.Order())
}

func TestTransform_Idempotent(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Fit(linearData(t, 40))
	require.NoError(t, err)

	Y := linearData(t, 25)
	a, err := e.Transform(Y)
	require.NoError(t, err)
	b, err := e.Transform(Y)
	require.NoError(t, err)
	require.Equal(t, a.ToRows(), b.ToRows())
	require.Equal(t, Y.Rows(), a.Rows())
	require.Equal(t, e.OutputCols(), a.Cols())
}

func TestTransform_NoMissingIsNoOp(t *testing.T) {
	t.Parallel()

	X := dense(t, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 10}})
	e := newEngine(t)
	rep, err := e.Fit(X)
	require.NoError(t, err)
	require.Zero(t, rep.Rounds)
	require.True(t, rep.Converged)
	require.Empty(t, e.Order())

	out, err := e.Transform(X)
	require.NoError(t, err)
	require.Equal(t, X.ToRows(), out.ToRows())
}

func TestTransform_ColumnCompleteAtFitUsesInitialFill(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Fit(dense(t, [][]float64{{1, 2}, {nan, 4}, {3, 6}}))
	require.NoError(t, err)
	out, err := e.Transform(dense(t, [][]float64{{1, nan}}))
	require.NoError(t, err)
	require.Equal(t, 4.0, at(t, out, 0, 1))
}

func TestFit_MonotoneConvergence(t *testing.T) {
	t.Parallel()

	linear, err := regress.NewFactory(regress.KindLinear, regress.Params{})
	require.NoError(t, err)
	e := newEngine(t, impute.WithRegressor(linear), impute.WithTolerance(0), impute.WithMaxRounds(30))
	rep, err := e.Fit(linearData(t, 40))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rep.Deltas), 2)
	for k := 1; k < len(rep.Deltas); k++ {
		require.LessOrEqual(t, rep.Deltas[k], rep.Deltas[k-1]+1e-9, "round %d", k+1)
	}
	require.Less(t, rep.FinalDelta, rep.Deltas[0])
}

func TestFit_ClippingBound(t *testing.T) {
	t.Parallel()

	X := linearData(t, 30)
	huge := func() regress.Regressor { return &constRegressor{value: 1e6} }

	e := newEngine(t, impute.WithRegressor(huge))
	out, _, err := e.FitTransform(X)
	require.NoError(t, err)
	mk, err := mask.Compute(X, mask.NaN())
	require.NoError(t, err)
	for _, j := range []int{0, 1} {
		hi := math.Inf(-1)
		for _, i := range mk.ObservedRows(j) {
			hi = math.Max(hi, at(t, X, i, j))
		}
		for _, i := range mk.MissingRows(j) {
			require.Equal(t, hi, at(t, out, i, j))
		}
	}

	capped := newEngine(t, impute.WithRegressor(huge), impute.WithMaxValue(5))
	out, _, err = capped.FitTransform(X)
	require.NoError(t, err)
	for _, i := range mk.MissingRows(0) {
		require.Equal(t, 5.0, at(t, out, i, 0))
	}

	perCol := newEngine(t, impute.WithMinValue(0, 0, 0, 0))
	_, err = perCol.Fit(X)
	require.ErrorIs(t, err, impute.ErrInvalidOption)
	require.False(t, perCol.Fitted())
}

func TestFit_RefitResetsState(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Fit(dense(t, [][]float64{{1, nan}, {2, 3}, {3, 4}}))
	require.NoError(t, err)
	require.Equal(t, []int{1}, e.Order())

	_, err = e.Fit(dense(t, [][]float64{{nan, 1, 2}, {2, 3, 1}, {3, 4, 0}}))
	require.NoError(t, err)
	require.Equal(t, []int{0}, e.Order())
	require.Equal(t, 3, e.OutputCols())

	_, err = e.Transform(dense(t, [][]float64{{1, 2}}))
	require.ErrorIs(t, err, impute.ErrShapeMismatch)
}

func TestFit_RegressorFailureLeavesUnfit(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := func() regress.Regressor { return &constRegressor{fitErr: boom} }
	X := dense(t, [][]float64{{1, nan}, {2, 3}, {3, 4}})

	e := newEngine(t)
	_, err := e.Fit(X)
	require.NoError(t, err)
	require.True(t, e.Fitted())

	e2 := newEngine(t, impute.WithRegressor(failing))
	_, err = e2.Fit(X)
	require.ErrorIs(t, err, impute.ErrRegressorFit)
	require.ErrorIs(t, err, boom)
	require.False(t, e2.Fitted())
	require.Nil(t, e2.Report())
	require.Nil(t, e2.Order())
	_, err = e2.Transform(X)
	require.ErrorIs(t, err, impute.ErrNotFitted)
}

func TestFit_NonSentinelNaNFails(t *testing.T) {
	t.Parallel()

	// Under a numeric sentinel NaN is an ordinary value. In a training row
	// it fails the regressor fit.
	X := dense(t, [][]float64{{nan, 1}, {2, -1}, {3, 4}, {4, 6}})
	e := newEngine(t, impute.WithSentinel(mask.Value(-1)))
	_, err := e.Fit(X)
	require.ErrorIs(t, err, impute.ErrRegressorFit)
	require.NotErrorIs(t, err, impute.ErrRegressorPredict)
	require.ErrorIs(t, err, matrix.ErrNaNInf)
	require.False(t, e.Fitted())

	// In a row whose target is missing it fails the prediction instead.
	X = dense(t, [][]float64{{nan, -1}, {2, 3}, {3, 4}, {4, 6}})
	_, err = e.Fit(X)
	require.ErrorIs(t, err, impute.ErrRegressorPredict)
	require.NotErrorIs(t, err, impute.ErrRegressorFit)
	require.ErrorIs(t, err, matrix.ErrNaNInf)
	require.False(t, e.Fitted())
}

func TestTransform_NonSentinelNaNFailsPredict(t *testing.T) {
	t.Parallel()

	e := newEngine(t, impute.WithSentinel(mask.Value(-1)))
	_, err := e.Fit(dense(t, [][]float64{{1, 2}, {2, -1}, {3, 4}, {4, 5}}))
	require.NoError(t, err)

	_, err = e.Transform(dense(t, [][]float64{{nan, -1}}))
	require.ErrorIs(t, err, impute.ErrRegressorPredict)
	require.ErrorIs(t, err, matrix.ErrNaNInf)
	require.True(t, e.Fitted(), "a failed transform keeps the fitted state")
}

func TestFit_NumericSentinel(t *testing.T) {
	t.Parallel()

	X := dense(t, [][]float64{{1, 2}, {-999, 3}, {7, 6}})
	meanFactory, err := regress.NewFactory(regress.KindMean, regress.Params{})
	require.NoError(t, err)
	e := newEngine(t, impute.WithSentinel(mask.Value(-999)), impute.WithRegressor(meanFactory))
	out, _, err := e.FitTransform(X)
	require.NoError(t, err)
	require.Equal(t, 4.0, at(t, out, 1, 0))
}

func TestFit_PosteriorSampling(t *testing.T) {
	t.Parallel()

	X := linearData(t, 40)
	run := func(seed int64) *matrix.Dense {
		e := newEngine(t, impute.WithSamplePosterior(true), impute.WithSeed(seed), impute.WithMaxRounds(3))
		out, _, err := e.FitTransform(X)
		require.NoError(t, err)
		return out
	}

	a, b, c := run(7), run(7), run(8)
	require.Equal(t, a.ToRows(), b.ToRows(), "same seed, same completion")
	require.NotEqual(t, a.ToRows(), c.ToRows(), "different seeds, different completions")

	tree, err := regress.NewFactory(regress.KindTree, regress.Params{})
	require.NoError(t, err)
	e := newEngine(t, impute.WithSamplePosterior(true), impute.WithRegressor(tree))
	_, err = e.Fit(X)
	require.ErrorIs(t, err, impute.ErrNoUncertainty)
}

func TestTransform_Concurrent(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Fit(linearData(t, 40))
	require.NoError(t, err)
	Y := linearData(t, 20)
	want, err := e.Transform(Y)
	require.NoError(t, err)

	const workers = 8
	got := make([]*matrix.Dense, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			got[w], errs[w] = e.Transform(Y)
		}(w)
	}
	wg.Wait()
	for w := 0; w < workers; w++ {
		require.NoError(t, errs[w])
		require.Equal(t, want.ToRows(), got[w].ToRows())
	}
}

func TestFit_NearestFeatures(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		widths []int
	)
	rec := func() regress.Regressor { return &constRegressor{value: 0, mu: &mu, widths: &widths} }
	e := newEngine(t, impute.WithRegressor(rec), impute.WithNearestFeatures(1), impute.WithMaxRounds(1))
	_, err := e.Fit(linearData(t, 30))
	require.NoError(t, err)
	require.Equal(t, []int{1, 1}, widths)
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	for name, opt := range map[string]impute.Option{
		"rounds":    impute.WithMaxRounds(0),
		"tolerance": impute.WithTolerance(-1),
		"nan tol":   impute.WithTolerance(nan),
		"nearest":   impute.WithNearestFeatures(-1),
		"factory":   impute.WithRegressor(nil),
		"policy":    impute.WithOrderPolicy(order.Policy(42)),
		"strategy":  impute.WithInitialStrategy(initial.Strategy(42)),
		"fill":      impute.WithFillValue(math.Inf(1)),
		"nan bound": impute.WithMinValue(nan),
	} {
		_, err := impute.New(opt)
		require.ErrorIs(t, err, impute.ErrInvalidOption, name)
	}
	_, err := impute.New(impute.WithMinValue(5), impute.WithMaxValue(1))
	require.ErrorIs(t, err, impute.ErrInvalidOption)
}

func TestTransform_Errors(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Transform(dense(t, [][]float64{{1}}))
	require.ErrorIs(t, err, impute.ErrNotFitted)
	_, err = e.Fit(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
	empty, err := matrix.SelectColumns(dense(t, [][]float64{{1}}), nil)
	require.NoError(t, err)
	_, err = e.Fit(empty)
	require.ErrorIs(t, err, impute.ErrEmptyInput)
}

type recorder struct {
	mu      sync.Mutex
	fits    map[string]int
	rounds  int
	imputed map[string]int
}

func (r *recorder) ObserveFit(status string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits[status]++
}

func (r *recorder) ObserveRound(float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds++
}

func (r *recorder) AddImputed(phase string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imputed[phase] += n
}

func TestEngine_Metrics(t *testing.T) {
	t.Parallel()

	rec := &recorder{fits: map[string]int{}, imputed: map[string]int{}}
	e := newEngine(t, impute.WithMetrics(rec), impute.WithMaxRounds(2), impute.WithTolerance(0))
	X := dense(t, [][]float64{{1, 2}, {nan, 3}, {7, 6}, {4, 4}})
	rep, err := e.Fit(X)
	require.NoError(t, err)
	_, err = e.Transform(X)
	require.NoError(t, err)

	require.Equal(t, 1, rec.fits["ok"])
	require.Equal(t, rep.Rounds, rec.rounds)
	require.Equal(t, 1, rec.imputed["fit"])
	require.Equal(t, 1, rec.imputed["transform"])
}
