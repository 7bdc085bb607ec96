// SPDX-License-Identifier: MIT

package cli

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/lvimpute/internal/dataset"
	"github.com/katalvlaran/lvimpute/mask"
	"github.com/katalvlaran/lvimpute/order"
)

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show the column visiting order for a CSV",
		Long: `Print the columns the engine would impute, in visiting order, with their
missing counts. Columns with no observed value are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOrder(cmd)
		},
	}
	cmd.Flags().StringP("input", "i", "", "CSV to inspect (required)")

	return cmd
}

func runOrder(cmd *cobra.Command) error {
	cfg := GetConfig(cmd.Context())
	if cfg.Input == "" {
		return errors.New("--input is required")
	}
	policy, err := order.ParsePolicy(cfg.OrderPolicy)
	if err != nil {
		return err
	}
	ropts, err := readOptions(cfg)
	if err != nil {
		return err
	}
	s, err := cfg.Sentinel()
	if err != nil {
		return err
	}
	tb, err := dataset.ReadFile(cfg.Input, ropts)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Input, err)
	}
	mk, err := mask.Compute(tb.Data, s)
	if err != nil {
		return err
	}

	var empty []int
	for j := 0; j < mk.Cols(); j++ {
		if mk.AllInColumn(j) {
			empty = append(empty, j)
		}
	}
	cols, err := order.Compute(mk, policy, order.WithSeed(cfg.Seed), order.WithExclude(empty...))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Column", "Name", "Missing"})
	for k, j := range cols {
		name := ""
		if j < len(tb.Header) {
			name = tb.Header[j]
		}
		t.AppendRow(table.Row{k + 1, j, name, mk.Count(j)})
	}
	t.AppendFooter(table.Row{"", "", "policy", policy.String()})
	t.Render()

	return nil
}
