// SPDX-License-Identifier: MIT

// Package dataset reads and writes numeric CSV tables for the CLI.
//
// Missing cells: an empty field or a field equal to the configured missing
// token is stored as the sentinel value, so mask.Compute finds it.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/lvimpute/matrix"
)

var (
	// ErrEmpty is returned for a CSV without data rows.
	ErrEmpty = errors.New("dataset: no data rows")

	// ErrParse is returned for a non-numeric, non-missing cell.
	ErrParse = errors.New("dataset: invalid numeric cell")
)

// Table is a numeric matrix with optional column names.
type Table struct {
	Header []string // nil when the source had no header
	Data   *matrix.Dense
}

// ReadOptions controls parsing.
type ReadOptions struct {
	Header   bool    // first record holds column names
	Token    string  // missing token, matched case-insensitively ("NaN" by default)
	Sentinel float64 // value stored for missing cells
}

// Read parses a CSV table. Rows must all have the header's width.
// Errors: ErrEmpty, ErrParse, csv.ErrFieldCount (wrapped).
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset.Read: %w", err)
	}
	t := &Table{}
	if opts.Header && len(records) > 0 {
		t.Header = append([]string(nil), records[0]...)
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	token := opts.Token
	if token == "" {
		token = "NaN"
	}

	rows := make([][]float64, len(records))
	for i, rec := range records {
		rows[i] = make([]float64, len(rec))
		for j, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" || strings.EqualFold(cell, token) {
				rows[i][j] = opts.Sentinel
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset.Read: row %d col %d %q: %w", i+1, j+1, cell, ErrParse)
			}
			rows[i][j] = v
		}
	}
	if t.Data, err = matrix.NewDenseFrom(rows); err != nil {
		return nil, fmt.Errorf("dataset.Read: %w", err)
	}

	return t, nil
}

// ReadFile opens path and calls Read.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, opts)
}

// Select returns the table restricted to cols (header included).
func (t *Table) Select(cols []int) (*Table, error) {
	d, err := matrix.SelectColumns(t.Data, cols)
	if err != nil {
		return nil, err
	}
	out := &Table{Data: d}
	if t.Header != nil {
		out.Header = make([]string, len(cols))
		for k, j := range cols {
			out.Header[k] = t.Header[j]
		}
	}

	return out, nil
}

// Write emits t as CSV; NaN cells are written as token ("NaN" when empty).
func Write(w io.Writer, t *Table, token string) error {
	if token == "" {
		token = "NaN"
	}
	cw := csv.NewWriter(w)
	if t.Header != nil {
		if err := cw.Write(t.Header); err != nil {
			return fmt.Errorf("dataset.Write: %w", err)
		}
	}
	for _, row := range t.Data.ToRows() {
		rec := make([]string, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				rec[j] = token
				continue
			}
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("dataset.Write: %w", err)
		}
	}
	cw.Flush()

	return cw.Error()
}

// WriteFile creates path and calls Write.
func WriteFile(path string, t *Table, token string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Write(f, t, token)
}
