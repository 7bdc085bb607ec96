// SPDX-License-Identifier: MIT

// Package cli provides the lvimpute command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/lvimpute/internal/config"
	"github.com/katalvlaran/lvimpute/regress"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store the run logger in context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "lvimpute",
		Short: "lvimpute - round-robin imputation of missing values",
		Long: `lvimpute fills missing cells of numeric CSV tables by chained equations:
each incomplete column is regressed on the others, round after round,
until the imputed values stop changing.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.ConfigFileUsed != "" {
				logger.Debug("using config file", zap.String("path", cfg.ConfigFileUsed))
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./lvimpute.yaml)")
	pf.Bool("header", true, "first CSV record holds column names")
	pf.String("missing", "NaN", "missing-value token: NaN or a number")
	pf.String("strategy", "mean", "initial fill: mean|median|most_frequent|constant")
	pf.Float64("fill-value", 0, "value used by the constant strategy")
	pf.String("order-policy", "ascending", "visiting order: ascending|descending|roman|arabic|random")
	pf.Int("max-rounds", 10, "maximum imputation rounds")
	pf.Float64("tol", 1e-3, "stopping tolerance on the normalized round delta")
	pf.String("estimator", string(regress.KindBayesianRidge), "per-column regressor")
	pf.Int64("seed", 0, "random seed for the random order and posterior sampling")
	pf.Bool("sample-posterior", false, "draw imputations from the predictive distribution")
	pf.Bool("keep-empty-features", false, "keep columns without observed values")
	pf.Int("nearest-features", 0, "predictors per column, by absolute correlation (0 = all)")
	pf.StringSlice("min-value", nil, "lower clip bound, one value or one per column")
	pf.StringSlice("max-value", nil, "upper clip bound, one value or one per column")
	pf.Float64("ridge-alpha", 0, "ridge penalty (estimator ridge)")
	pf.Int("knn-neighbors", 0, "neighbors (estimator knn)")
	pf.Int("tree-max-depth", 0, "maximum depth, 0 unlimited (estimator tree)")
	pf.Int("tree-min-leaf", 0, "minimum samples per leaf (estimator tree)")
	pf.Int("bayes-max-iter", 0, "evidence iterations (estimator bayesian_ridge)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("metrics-file", "", "write Prometheus metrics to this file")
	pf.Int("concurrency", 4, "parallel transform files")

	_ = rootCmd.RegisterFlagCompletionFunc("estimator", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(regress.Kinds()))
		for _, k := range regress.Kinds() {
			names = append(names, string(k))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand(Version))
	rootCmd.AddCommand(NewImputeCommand())
	rootCmd.AddCommand(NewOrderCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		return &config.Config{}
	}
	return cfg
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display lvimpute version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "lvimpute v%s (%s)\n", version, GitCommit)
		},
	}
}

// out picks the writer for human-readable summaries: stderr while the
// imputed CSV goes to stdout.
func out(cmd *cobra.Command, csvOnStdout bool) io.Writer {
	if csvOnStdout {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}
