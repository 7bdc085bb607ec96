// SPDX-License-Identifier: MIT

package impute

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/lvimpute/initial"
	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/order"
	"github.com/katalvlaran/lvimpute/regress"
)

// Defaults applied by New.
const (
	DefaultMaxRounds = 10
	DefaultTolerance = 1e-3
)

// Recorder receives engine observations. metrics.Collectors implements it.
type Recorder interface {
	ObserveFit(status string, rounds int, elapsed time.Duration)
	ObserveRound(delta float64)
	AddImputed(phase string, cells int)
}

// Option configures an Engine.
type Option func(*Options)

// Options holds the engine configuration. Build it through Option values.
type Options struct {
	sentinel   mask.Sentinel
	strategy   initial.Strategy
	fillValue  float64
	policy     order.Policy
	maxRounds  int
	tol        float64
	minValue   []float64 // nil: observed min; len 1: broadcast; else per column
	maxValue   []float64
	posterior  bool
	seed       int64
	keepEmpty  bool
	nearest    int
	newModel   regress.Factory
	logger     *zap.Logger
	recorder   Recorder
	factoryErr error
}

func defaultOptions() Options {
	f, err := regress.NewFactory(regress.KindBayesianRidge, regress.Params{})

	return Options{
		sentinel:   mask.NaN(),
		strategy:   initial.Mean,
		policy:     order.Ascending,
		maxRounds:  DefaultMaxRounds,
		tol:        DefaultTolerance,
		newModel:   f,
		factoryErr: err,
		logger:     zap.NewNop(),
	}
}

// WithSentinel sets the missing-value sentinel (default NaN).
func WithSentinel(s mask.Sentinel) Option { return func(o *Options) { o.sentinel = s } }

// WithInitialStrategy selects the first-pass fill statistic (default mean).
func WithInitialStrategy(s initial.Strategy) Option { return func(o *Options) { o.strategy = s } }

// WithFillValue sets the constant used by initial.Constant and for
// always-missing columns under that strategy. Must be finite.
func WithFillValue(v float64) Option { return func(o *Options) { o.fillValue = v } }

// WithOrderPolicy selects the visiting order (default ascending).
func WithOrderPolicy(p order.Policy) Option { return func(o *Options) { o.policy = p } }

// WithMaxRounds caps the number of rounds (≥ 1, default 10).
func WithMaxRounds(n int) Option { return func(o *Options) { o.maxRounds = n } }

// WithTolerance sets the stop threshold on the normalized round delta
// (≥ 0, default 1e-3).
func WithTolerance(tol float64) Option { return func(o *Options) { o.tol = tol } }

// WithMinValue overrides the lower clip bound: one value applies to every
// column, several give one bound per column. -Inf leaves the side open.
func WithMinValue(v ...float64) Option {
	return func(o *Options) { o.minValue = append([]float64(nil), v...) }
}

// WithMaxValue overrides the upper clip bound; see WithMinValue.
func WithMaxValue(v ...float64) Option {
	return func(o *Options) { o.maxValue = append([]float64(nil), v...) }
}

// WithSamplePosterior toggles posterior sampling of imputed values.
func WithSamplePosterior(on bool) Option { return func(o *Options) { o.posterior = on } }

// WithSeed seeds the random order policy and posterior sampling (0 maps to
// a fixed default).
func WithSeed(seed int64) Option { return func(o *Options) { o.seed = seed } }

// WithKeepEmptyFeatures retains always-missing columns in the output.
func WithKeepEmptyFeatures(keep bool) Option { return func(o *Options) { o.keepEmpty = keep } }

// WithNearestFeatures limits each target to the k predictors most correlated
// with it on the initial fill. 0 (default) uses every predictor.
func WithNearestFeatures(k int) Option { return func(o *Options) { o.nearest = k } }

// WithRegressor sets the per-column regressor factory (default Bayesian ridge).
func WithRegressor(f regress.Factory) Option {
	return func(o *Options) { o.newModel, o.factoryErr = f, nil }
}

// WithLogger attaches a zap logger (default no-op).
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics attaches a Recorder.
func WithMetrics(r Recorder) Option { return func(o *Options) { o.recorder = r } }

// validate checks every option that does not depend on the input shape.
func (o *Options) validate() error {
	switch {
	case o.factoryErr != nil:
		return fmt.Errorf("%w: %v", ErrInvalidOption, o.factoryErr)
	case o.newModel == nil:
		return fmt.Errorf("%w: nil regressor factory", ErrInvalidOption)
	case o.maxRounds < 1:
		return fmt.Errorf("%w: max rounds %d < 1", ErrInvalidOption, o.maxRounds)
	case math.IsNaN(o.tol) || o.tol < 0:
		return fmt.Errorf("%w: tolerance %v", ErrInvalidOption, o.tol)
	case math.IsNaN(o.fillValue) || math.IsInf(o.fillValue, 0):
		return fmt.Errorf("%w: fill value %v", ErrInvalidOption, o.fillValue)
	case o.nearest < 0:
		return fmt.Errorf("%w: nearest features %d < 0", ErrInvalidOption, o.nearest)
	}
	if !o.policy.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidOption, o.policy)
	}
	if !o.strategy.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidOption, o.strategy)
	}
	for _, v := range append(append([]float64(nil), o.minValue...), o.maxValue...) {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: NaN clip bound", ErrInvalidOption)
		}
	}
	if len(o.minValue) == 1 && len(o.maxValue) == 1 && o.minValue[0] > o.maxValue[0] {
		return fmt.Errorf("%w: min value %v > max value %v", ErrInvalidOption, o.minValue[0], o.maxValue[0])
	}

	return nil
}
