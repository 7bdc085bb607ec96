// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/lvimpute/impute"
	"github.com/katalvlaran/lvimpute/indicator"
	"github.com/katalvlaran/lvimpute/internal/config"
	"github.com/katalvlaran/lvimpute/internal/dataset"
	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/matrix"
	"github.com/katalvlaran/lvimpute/metrics"
)

// NewImputeCommand creates the impute command.
func NewImputeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impute",
		Short: "Fit on a CSV and write the imputed table",
		Long: `Fit the imputation engine on --input and write the completed table to
--output (stdout when empty). Every --transform file is imputed with the
fitted engine and written next to it as <name>.imputed.csv.
With --add-indicator every output also gets a 0/1 missing_<name> column for
each input column that had missing cells in --input.`,
		Example: `  lvimpute impute -i train.csv -o train.out.csv
  lvimpute impute -i train.csv --transform a.csv,b.csv --estimator knn --report
  lvimpute impute -i train.csv --add-indicator`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImpute(cmd)
		},
	}

	cmd.Flags().StringP("input", "i", "", "CSV to fit on (required)")
	cmd.Flags().StringP("output", "o", "", "output CSV (default stdout)")
	cmd.Flags().StringSlice("transform", nil, "additional CSVs to impute with the fitted engine")
	cmd.Flags().Bool("report", false, "print the fit report")
	cmd.Flags().Bool("add-indicator", false, "append missing-value indicator columns")

	return cmd
}

func runImpute(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	if cfg.Input == "" {
		return errors.New("--input is required")
	}
	log := GetLogger(ctx).With(zap.String("run_id", uuid.NewString()))

	var (
		reg *prometheus.Registry
		rec impute.Recorder
	)
	if cfg.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		c, err := metrics.New(reg)
		if err != nil {
			return err
		}
		rec = c
	}

	opts, err := cfg.EngineOptions(log, rec)
	if err != nil {
		return err
	}
	eng, err := impute.New(opts...)
	if err != nil {
		return err
	}
	ropts, err := readOptions(cfg)
	if err != nil {
		return err
	}

	train, err := dataset.ReadFile(cfg.Input, ropts)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Input, err)
	}
	log.Info("fitting", zap.String("input", cfg.Input),
		zap.Int("rows", train.Data.Rows()), zap.Int("cols", train.Data.Cols()))

	ind, err := newMissingIndicator(cfg, train.Data)
	if err != nil {
		return err
	}
	filled, rep, err := eng.FitTransform(train.Data)
	if err != nil {
		return err
	}
	keep := keepColumns(train.Data.Cols(), eng.Dropped())
	tb, err := outputTable(train, filled, keep, ind)
	if err != nil {
		return err
	}
	if err := writeTable(cmd.OutOrStdout(), cfg, tb, cfg.Output); err != nil {
		return err
	}

	if err := transformAll(ctx, eng, cfg, ropts, keep, ind, log); err != nil {
		return err
	}

	if cfg.Report {
		renderReport(out(cmd, cfg.Output == ""), rep, train.Header)
	}
	if reg != nil {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		log.Debug("metrics written", zap.String("path", cfg.MetricsFile))
	}

	return nil
}

// transformAll imputes every --transform file with at most cfg.Concurrency
// files in flight. The first failure cancels the rest.
func transformAll(ctx context.Context, eng *impute.Engine, cfg *config.Config, ropts dataset.ReadOptions, keep []int, ind *missingIndicator, log *zap.Logger) error {
	if len(cfg.Transform) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for _, path := range cfg.Transform {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tb, err := dataset.ReadFile(path, ropts)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			res, err := eng.Transform(tb.Data)
			if err != nil {
				return fmt.Errorf("transform %s: %w", path, err)
			}
			outTb, err := outputTable(tb, res, keep, ind)
			if err != nil {
				return fmt.Errorf("transform %s: %w", path, err)
			}
			dst := imputedPath(path)
			if err := writeTable(nil, cfg, outTb, dst); err != nil {
				return err
			}
			log.Info("transformed", zap.String("input", path), zap.String("output", dst))
			return nil
		})
	}

	return g.Wait()
}

// missingIndicator is the indicator fitted on the --input mask together with
// the sentinel used to recompute masks of later inputs. Nil when disabled.
type missingIndicator struct {
	*indicator.Indicator
	sentinel mask.Sentinel
}

func newMissingIndicator(cfg *config.Config, X *matrix.Dense) (*missingIndicator, error) {
	if !cfg.AddIndicator {
		return nil, nil
	}
	s, err := cfg.Sentinel()
	if err != nil {
		return nil, err
	}
	mk, err := mask.Compute(X, s)
	if err != nil {
		return nil, fmt.Errorf("indicator: %w", err)
	}
	ind, err := indicator.Fit(mk, indicator.MissingOnly)
	if err != nil {
		return nil, err
	}

	return &missingIndicator{Indicator: ind, sentinel: s}, nil
}

// outputTable assembles the written table: the kept columns of the imputed
// matrix, then one indicator column per selected feature of src when ind is
// set. src.Data is the raw input the missing cells are read from.
func outputTable(src *dataset.Table, imputed *matrix.Dense, keep []int, ind *missingIndicator) (*dataset.Table, error) {
	header, err := selectHeader(src.Header, keep)
	if err != nil {
		return nil, err
	}
	if ind == nil {
		return &dataset.Table{Header: header, Data: imputed}, nil
	}
	mk, err := mask.Compute(src.Data, ind.sentinel)
	if err != nil {
		return nil, fmt.Errorf("indicator: %w", err)
	}
	flags, err := ind.Transform(mk)
	if err != nil {
		return nil, err
	}
	data, err := matrix.HStack(imputed, flags)
	if err != nil {
		return nil, fmt.Errorf("indicator: %w", err)
	}
	names, err := selectHeader(src.Header, ind.Features())
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		header = append(header, "missing_"+name)
	}

	return &dataset.Table{Header: header, Data: data}, nil
}

// writeTable writes tb to path (stdout when empty).
func writeTable(stdout io.Writer, cfg *config.Config, tb *dataset.Table, path string) error {
	if path == "" {
		return dataset.Write(stdout, tb, outputToken(cfg))
	}
	if err := dataset.WriteFile(path, tb, outputToken(cfg)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

func readOptions(cfg *config.Config) (dataset.ReadOptions, error) {
	s, err := cfg.Sentinel()
	if err != nil {
		return dataset.ReadOptions{}, err
	}

	return dataset.ReadOptions{Header: cfg.Header, Token: cfg.Missing, Sentinel: s.Float()}, nil
}

// outputToken is the text written for NaN cells: the missing token when it
// is NaN-like, "NaN" otherwise.
func outputToken(cfg *config.Config) string {
	if s, err := cfg.Sentinel(); err == nil && s.IsNaN() && cfg.Missing != "" {
		return cfg.Missing
	}
	return "NaN"
}

func keepColumns(c int, dropped []int) []int {
	drop := make(map[int]bool, len(dropped))
	for _, j := range dropped {
		drop[j] = true
	}
	keep := make([]int, 0, c-len(dropped))
	for j := 0; j < c; j++ {
		if !drop[j] {
			keep = append(keep, j)
		}
	}
	return keep
}

func selectHeader(header []string, keep []int) ([]string, error) {
	if header == nil {
		return nil, nil
	}
	out := make([]string, len(keep))
	for k, j := range keep {
		if j >= len(header) {
			return nil, fmt.Errorf("header has %d names, column %d requested", len(header), j)
		}
		out[k] = header[j]
	}
	return out, nil
}

// imputedPath maps dir/name.csv to dir/name.imputed.csv.
func imputedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".imputed" + orDefault(ext, ".csv")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
