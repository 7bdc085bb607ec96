// SPDX-License-Identifier: MIT

// Package config loads CLI configuration with koanf.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/katalvlaran/lvimpute/impute"
	"github.com/katalvlaran/lvimpute/initial"
	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/order"
	"github.com/katalvlaran/lvimpute/regress"
)

// EnvPrefix marks environment variables read by Load: LVIMPUTE_MAX_ROUNDS -> max_rounds.
const EnvPrefix = "LVIMPUTE_"

// DefaultConfigFiles are probed in the working directory when no file is given.
var DefaultConfigFiles = []string{"lvimpute.yaml", "lvimpute.yml"}

// Config is the flattened CLI configuration.
type Config struct {
	Input        string   `koanf:"input"`
	Output       string   `koanf:"output"`
	Transform    []string `koanf:"transform"`
	Header       bool     `koanf:"header"`
	Missing      string   `koanf:"missing"`
	Report       bool     `koanf:"report"`
	AddIndicator bool     `koanf:"add_indicator"`
	Verbose      bool     `koanf:"verbose"`
	MetricsFile  string   `koanf:"metrics_file"`
	Concurrency  int      `koanf:"concurrency"`

	Strategy          string    `koanf:"strategy"`
	FillValue         float64   `koanf:"fill_value"`
	OrderPolicy       string    `koanf:"order_policy"`
	MaxRounds         int       `koanf:"max_rounds"`
	Tol               float64   `koanf:"tol"`
	Estimator         string    `koanf:"estimator"`
	Seed              int64     `koanf:"seed"`
	SamplePosterior   bool      `koanf:"sample_posterior"`
	KeepEmptyFeatures bool      `koanf:"keep_empty_features"`
	NearestFeatures   int       `koanf:"nearest_features"`
	MinValue          []float64 `koanf:"min_value"`
	MaxValue          []float64 `koanf:"max_value"`

	RidgeAlpha     float64 `koanf:"ridge_alpha"`
	KNNNeighbors   int     `koanf:"knn_neighbors"`
	TreeMaxDepth   int     `koanf:"tree_max_depth"`
	TreeMinLeaf    int     `koanf:"tree_min_leaf"`
	BayesMaxIter   int     `koanf:"bayes_max_iter"`
	ConfigFileUsed string  `koanf:"-"`
}

// Defaults returns the default key/value layer.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"header":              true,
		"missing":             "NaN",
		"concurrency":         4,
		"strategy":            initial.Mean.String(),
		"order_policy":        order.Ascending.String(),
		"max_rounds":          impute.DefaultMaxRounds,
		"tol":                 impute.DefaultTolerance,
		"estimator":           string(regress.KindBayesianRidge),
		"keep_empty_features": false,
		"add_indicator":       false,
	}
}

// Load merges defaults, the config file, LVIMPUTE_* env vars and the
// explicitly changed flags of fs (kebab-case flag names map to snake_case keys).
func Load(cfgFile string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFileUsed = used

	return &cfg, nil
}

// findConfigFile returns the explicit path or the first default file present.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}

	return ""
}

// Sentinel parses the missing token: "NaN" (any case) or a number.
func (c *Config) Sentinel() (mask.Sentinel, error) {
	tok := strings.TrimSpace(c.Missing)
	if tok == "" || strings.EqualFold(tok, "nan") {
		return mask.NaN(), nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsInf(v, 0) {
		return mask.Sentinel{}, fmt.Errorf("config: missing token %q is neither NaN nor a finite number", c.Missing)
	}

	return mask.Value(v), nil
}

// RegressorParams collects the per-variant hyperparameters.
func (c *Config) RegressorParams() regress.Params {
	return regress.Params{
		MaxIter:        c.BayesMaxIter,
		Alpha:          c.RidgeAlpha,
		K:              c.KNNNeighbors,
		MaxDepth:       c.TreeMaxDepth,
		MinSamplesLeaf: c.TreeMinLeaf,
	}
}

// EngineOptions maps the configuration onto impute options. logger and rec
// may be nil.
func (c *Config) EngineOptions(logger *zap.Logger, rec impute.Recorder) ([]impute.Option, error) {
	sentinel, err := c.Sentinel()
	if err != nil {
		return nil, err
	}
	strategy, err := initial.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	policy, err := order.ParsePolicy(c.OrderPolicy)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	kind, err := regress.ParseKind(c.Estimator)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	factory, err := regress.NewFactory(kind, c.RegressorParams())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	opts := []impute.Option{
		impute.WithSentinel(sentinel),
		impute.WithInitialStrategy(strategy),
		impute.WithFillValue(c.FillValue),
		impute.WithOrderPolicy(policy),
		impute.WithMaxRounds(c.MaxRounds),
		impute.WithTolerance(c.Tol),
		impute.WithRegressor(factory),
		impute.WithSeed(c.Seed),
		impute.WithSamplePosterior(c.SamplePosterior),
		impute.WithKeepEmptyFeatures(c.KeepEmptyFeatures),
		impute.WithNearestFeatures(c.NearestFeatures),
		impute.WithLogger(logger),
	}
	if len(c.MinValue) > 0 {
		opts = append(opts, impute.WithMinValue(c.MinValue...))
	}
	if len(c.MaxValue) > 0 {
		opts = append(opts, impute.WithMaxValue(c.MaxValue...))
	}
	if rec != nil {
		opts = append(opts, impute.WithMetrics(rec))
	}

	return opts, nil
}
