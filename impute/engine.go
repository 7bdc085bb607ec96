// SPDX-License-Identifier: MIT

package impute

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/lvimpute/initial"
	"github.com/katalvlaran/lvimpute/internal/rng"
	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/matrix"
	"github.com/katalvlaran/lvimpute/order"
	"github.com/katalvlaran/lvimpute/regress"
)

// Engine is a round-robin imputer. The zero value is not usable; call New.
type Engine struct {
	mu    sync.RWMutex
	opts  Options
	state *fittedState // nil while Unfit
	calls atomic.Uint64
}

// fittedState is everything Fit persists; read-only once published.
type fittedState struct {
	cols    int
	stats   *initial.Statistics
	order   []int
	models  []featureModel // in visiting order
	keep    []int          // output columns
	dropped []int
	final   *matrix.Dense // last fit round, all columns
	report  *Report
}

// New validates opts and returns an Unfit engine.
// Errors: ErrInvalidOption.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if err := o.validate(); err != nil {
		return nil, fmt.Errorf("impute.New: %w", err)
	}

	return &Engine{opts: o}, nil
}

// Fit learns per-column regressors on X and returns the fit report.
// Any previous fitted state is discarded first; on error the engine is Unfit.
// X is never modified.
// Errors: matrix.ErrNilMatrix, ErrEmptyInput, ErrInvalidOption (bounds length),
// ErrNoUncertainty, ErrRegressorFit, ErrRegressorPredict.
func (e *Engine) Fit(X matrix.Matrix) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.fitLocked(X)
	if err != nil {
		return nil, err
	}

	return st.report.clone(), nil
}

// FitTransform fits on X and returns the matrix of the last fit round with
// the drop set applied.
func (e *Engine) FitTransform(X matrix.Matrix) (*matrix.Dense, *Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.fitLocked(X)
	if err != nil {
		return nil, nil, err
	}
	out, err := matrix.SelectColumns(st.final, st.keep)
	if err != nil {
		return nil, nil, fmt.Errorf("impute.FitTransform: %w", err)
	}

	return out, st.report.clone(), nil
}

func (e *Engine) fitLocked(X matrix.Matrix) (*fittedState, error) {
	e.state = nil
	start := time.Now()
	st, err := e.fit(X)
	elapsed := time.Since(start)
	if err != nil {
		e.observeFit("error", 0, elapsed)
		e.opts.logger.Debug("fit failed", zap.Error(err))
		return nil, err
	}
	st.report.Elapsed = elapsed
	e.state = st
	e.observeFit("ok", st.report.Rounds, elapsed)

	return st, nil
}

// fit runs the full pipeline on a private copy of X.
// Implementation:
//   - Stage 1: mask, initial fill, always-missing detection, clip bounds, scales.
//   - Stage 2: visiting order and predictor sets.
//   - Stage 3: rounds; per scheduled column fit on observed rows, predict
//     missing rows, clamp or sample, write in place.
//   - Stage 4: stop on tolerance or round cap; publish state.
//
// Complexity: O(rounds · Σ_j cost(fit_j)).
func (e *Engine) fit(X matrix.Matrix) (*fittedState, error) {
	o := &e.opts
	log := o.logger

	work, err := load("impute.Fit", X)
	if err != nil {
		return nil, err
	}
	c := work.Cols()
	mk, err := mask.Compute(work, o.sentinel)
	if err != nil {
		return nil, fmt.Errorf("impute.Fit: %w", err)
	}
	stats, err := initial.Fit(work, mk, initial.WithStrategy(o.strategy), initial.WithFillValue(o.fillValue))
	if err != nil {
		return nil, fmt.Errorf("impute.Fit: %w", err)
	}
	if work, err = stats.Fill(work, mk); err != nil {
		return nil, fmt.Errorf("impute.Fit: %w", err)
	}
	always := stats.AlwaysMissing()
	for _, j := range always {
		log.Info("column has no observed values", zap.Int("column", j), zap.Float64("fill", stats.Values()[j]), zap.Bool("kept", o.keepEmpty))
	}
	lo, hi, err := o.bounds(work, mk, stats)
	if err != nil {
		return nil, fmt.Errorf("impute.Fit: %w", err)
	}
	scale := columnScales(work, mk)

	ord, err := order.Compute(mk, o.policy, order.WithSeed(o.seed), order.WithExclude(always...))
	if err != nil {
		return nil, fmt.Errorf("impute.Fit: %w", err)
	}
	var smp *sampler
	if o.posterior {
		if _, ok := o.newModel().(regress.UncertaintyRegressor); !ok {
			return nil, fmt.Errorf("impute.Fit: %w", ErrNoUncertainty)
		}
		smp = &sampler{r: rng.FromSeed(o.seed)}
	}
	predictors, err := o.predictorSets(work, ord, stats)
	if err != nil {
		return nil, fmt.Errorf("impute.Fit: %w", err)
	}

	models := make([]featureModel, len(ord))
	for k, j := range ord {
		models[k].featureStep = featureStep{target: j, predictors: predictors[j], lo: lo[j], hi: hi[j]}
	}
	tr := newTracker(o.tol, o.maxRounds)
	for round := 1; len(ord) > 0; round++ {
		prev := work.Copy()
		for k := range models {
			step := models[k].featureStep
			r := o.newModel()
			if err := fitFeature(work, mk, step, r); err != nil {
				return nil, fmt.Errorf("impute.Fit: round %d: column %d: %w: %w", round, step.target, ErrRegressorFit, err)
			}
			if _, err := predictFeature(work, mk, step, r, smp); err != nil {
				return nil, fmt.Errorf("impute.Fit: round %d: column %d: %w: %w", round, step.target, ErrRegressorPredict, err)
			}
			models[k].model = r
		}
		delta := roundDelta(prev, work, mk, ord, scale)
		log.Debug("round complete", zap.Int("round", round), zap.Float64("delta", delta))
		if o.recorder != nil {
			o.recorder.ObserveRound(delta)
		}
		if tr.observe(delta) {
			break
		}
	}
	if len(ord) > 0 && !tr.converged() {
		log.Info("round limit reached before tolerance",
			zap.Int("max_rounds", o.maxRounds), zap.Float64("final_delta", tr.last()), zap.Float64("tolerance", o.tol))
	}

	keep, dropped := outputColumns(c, always, o.keepEmpty)
	imputed := 0
	for _, n := range mk.ColumnCounts() {
		imputed += n
	}
	if o.recorder != nil {
		o.recorder.AddImputed("fit", imputed)
	}
	report := &Report{
		Rounds:        len(tr.deltas),
		Deltas:        tr.deltas,
		Converged:     len(ord) == 0 || tr.converged(),
		FinalDelta:    tr.last(),
		AlwaysMissing: always,
		Dropped:       dropped,
		Order:         ord,
		Imputed:       imputed,
	}
	log.Info("fit complete",
		zap.Int("rows", work.Rows()), zap.Int("cols", c), zap.Int("rounds", report.Rounds),
		zap.Bool("converged", report.Converged), zap.Float64("final_delta", report.FinalDelta))

	return &fittedState{
		cols:    c,
		stats:   stats,
		order:   ord,
		models:  models,
		keep:    keep,
		dropped: dropped,
		final:   work,
		report:  report,
	}, nil
}

// Transform imputes X with the fitted state: initial fill from fit-time
// statistics, then one pass of the stored regressors in the stored order.
// Columns complete at fit time but missing in X keep their initial fill.
// X is never modified; the result has X's rows and OutputCols() columns.
// Errors: ErrNotFitted, matrix.ErrNilMatrix, ErrEmptyInput, ErrShapeMismatch,
// ErrRegressorPredict.
func (e *Engine) Transform(X matrix.Matrix) (*matrix.Dense, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := e.state
	if st == nil {
		return nil, fmt.Errorf("impute.Transform: %w", ErrNotFitted)
	}
	work, err := load("impute.Transform", X)
	if err != nil {
		return nil, err
	}
	if work.Cols() != st.cols {
		return nil, fmt.Errorf("impute.Transform: %d columns, fitted on %d: %w", work.Cols(), st.cols, ErrShapeMismatch)
	}
	mk, err := mask.Compute(work, e.opts.sentinel)
	if err != nil {
		return nil, fmt.Errorf("impute.Transform: %w", err)
	}
	if work, err = st.stats.Fill(work, mk); err != nil {
		return nil, fmt.Errorf("impute.Transform: %w", err)
	}
	var smp *sampler
	if e.opts.posterior {
		smp = &sampler{r: rng.Derive(e.opts.seed, e.calls.Add(1))}
	}
	for _, fm := range st.models {
		if _, err := predictFeature(work, mk, fm.featureStep, fm.model, smp); err != nil {
			return nil, fmt.Errorf("impute.Transform: column %d: %w: %w", fm.target, ErrRegressorPredict, err)
		}
	}
	if e.opts.recorder != nil {
		n := 0
		for _, c := range mk.ColumnCounts() {
			n += c
		}
		e.opts.recorder.AddImputed("transform", n)
	}

	out, err := matrix.SelectColumns(work, st.keep)
	if err != nil {
		return nil, fmt.Errorf("impute.Transform: %w", err)
	}

	return out, nil
}

// Fitted reports whether the engine holds a fitted state.
func (e *Engine) Fitted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state != nil
}

// Order returns a copy of the visiting order (nil when Unfit).
func (e *Engine) Order() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return nil
	}

	return append([]int(nil), e.state.order...)
}

// Statistics returns the fit-time initial fill statistics (nil when Unfit).
func (e *Engine) Statistics() *initial.Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return nil
	}

	return e.state.stats
}

// Dropped returns the columns removed from every output.
func (e *Engine) Dropped() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return nil
	}

	return append([]int(nil), e.state.dropped...)
}

// OutputCols returns the column count of every Transform output (0 when Unfit).
func (e *Engine) OutputCols() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return 0
	}

	return len(e.state.keep)
}

// Report returns a copy of the last fit report (nil when Unfit).
func (e *Engine) Report() *Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return nil
	}

	return e.state.report.clone()
}

func (e *Engine) observeFit(status string, rounds int, elapsed time.Duration) {
	if e.opts.recorder != nil {
		e.opts.recorder.ObserveFit(status, rounds, elapsed)
	}
}

// load copies X into a fresh Dense so callers' data is never touched.
func load(op string, X matrix.Matrix) (*matrix.Dense, error) {
	if err := matrix.ValidateNotNil(X); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if X.Rows() == 0 || X.Cols() == 0 {
		return nil, fmt.Errorf("%s: %dx%d: %w", op, X.Rows(), X.Cols(), ErrEmptyInput)
	}
	if d, ok := X.(*matrix.Dense); ok {
		return d.Copy(), nil
	}
	all := make([]int, X.Cols())
	for j := range all {
		all[j] = j
	}
	d, err := matrix.SelectColumns(X, all)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

// outputColumns splits 0..c-1 into retained and dropped columns.
func outputColumns(c int, always []int, keepEmpty bool) (keep, dropped []int) {
	drop := make(map[int]bool, len(always))
	if !keepEmpty {
		for _, j := range always {
			drop[j] = true
		}
	}
	keep = make([]int, 0, c)
	for j := 0; j < c; j++ {
		if drop[j] {
			dropped = append(dropped, j)
			continue
		}
		keep = append(keep, j)
	}

	return keep, dropped
}

// bounds resolves per-column clip bounds: observed [min, max] by default,
// each side replaced by the user value when given. Always-missing columns
// default to (-Inf, +Inf).
func (o *Options) bounds(X *matrix.Dense, mk *mask.Mask, stats *initial.Statistics) (lo, hi []float64, err error) {
	c := X.Cols()
	ulo, err := expandBound("min", o.minValue, c)
	if err != nil {
		return nil, nil, err
	}
	uhi, err := expandBound("max", o.maxValue, c)
	if err != nil {
		return nil, nil, err
	}

	lo, hi = make([]float64, c), make([]float64, c)
	for j := range lo {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
	}
	X.Do(func(i, j int, v float64) bool {
		if !mk.At(i, j) {
			lo[j] = math.Min(lo[j], v)
			hi[j] = math.Max(hi[j], v)
		}
		return true
	})
	for j := 0; j < c; j++ {
		if stats.IsAlwaysMissing(j) {
			lo[j], hi[j] = math.Inf(-1), math.Inf(1)
		}
		if ulo != nil {
			lo[j] = ulo[j]
		}
		if uhi != nil {
			hi[j] = uhi[j]
		}
		if lo[j] > hi[j] {
			switch {
			case ulo != nil && uhi != nil:
				return nil, nil, fmt.Errorf("%w: column %d: min %v > max %v", ErrInvalidOption, j, lo[j], hi[j])
			case ulo != nil:
				hi[j] = lo[j]
			default:
				lo[j] = hi[j]
			}
		}
	}

	return lo, hi, nil
}

func expandBound(name string, v []float64, c int) ([]float64, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 1:
		out := make([]float64, c)
		for j := range out {
			out[j] = v[0]
		}
		return out, nil
	case c:
		return append([]float64(nil), v...), nil
	default:
		return nil, fmt.Errorf("%w: %d %s bounds for %d columns", ErrInvalidOption, len(v), name, c)
	}
}

// predictorSets maps each scheduled column to its predictor columns: every
// other column with an observed value, or the k most correlated of them on
// the initial fill when nearest features are enabled. Ties keep the lower
// column index; each set is returned in ascending column order.
func (o *Options) predictorSets(filled *matrix.Dense, ord []int, stats *initial.Statistics) (map[int][]int, error) {
	c := filled.Cols()
	sets := make(map[int][]int, len(ord))
	for _, j := range ord {
		ps := make([]int, 0, c-1)
		for p := 0; p < c; p++ {
			if p != j && !stats.IsAlwaysMissing(p) {
				ps = append(ps, p)
			}
		}
		sets[j] = ps
	}
	if o.nearest == 0 || filled.Rows() < 2 {
		return sets, nil
	}

	corr, _, _, err := matrix.Correlation(filled)
	if err != nil {
		return nil, err
	}
	for _, j := range ord {
		ps := sets[j]
		if o.nearest >= len(ps) {
			continue
		}
		strength := make(map[int]float64, len(ps))
		for _, p := range ps {
			v, err := corr.At(j, p)
			if err != nil {
				return nil, err
			}
			strength[p] = math.Abs(v)
		}
		sort.SliceStable(ps, func(a, b int) bool { return strength[ps[a]] > strength[ps[b]] })
		ps = ps[:o.nearest]
		sort.Ints(ps)
		sets[j] = ps
	}

	return sets, nil
}
