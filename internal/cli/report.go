// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/katalvlaran/lvimpute/impute"
)

// renderReport prints the fit summary and the per-round deltas.
func renderReport(w io.Writer, rep *impute.Report, header []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Rounds", rep.Rounds})
	t.AppendRow(table.Row{"Converged", rep.Converged})
	t.AppendRow(table.Row{"Final delta", fmt.Sprintf("%.6g", rep.FinalDelta)})
	t.AppendRow(table.Row{"Imputed cells", rep.Imputed})
	t.AppendRow(table.Row{"Order", columnList(rep.Order, header)})
	t.AppendRow(table.Row{"Always missing", columnList(rep.AlwaysMissing, header)})
	t.AppendRow(table.Row{"Dropped", columnList(rep.Dropped, header)})
	t.AppendRow(table.Row{"Elapsed", rep.Elapsed.String()})
	t.Render()

	if len(rep.Deltas) == 0 {
		return
	}
	d := table.NewWriter()
	d.SetOutputMirror(w)
	d.SetStyle(table.StyleLight)
	d.AppendHeader(table.Row{"Round", "Delta"})
	for i, v := range rep.Deltas {
		d.AppendRow(table.Row{i + 1, fmt.Sprintf("%.6g", v)})
	}
	d.Render()
}

// columnList formats column indices, with names when a header exists.
func columnList(cols []int, header []string) string {
	if len(cols) == 0 {
		return "-"
	}
	parts := make([]string, len(cols))
	for k, j := range cols {
		if j < len(header) {
			parts[k] = header[j]
			continue
		}
		parts[k] = strconv.Itoa(j)
	}
	return strings.Join(parts, ", ")
}
