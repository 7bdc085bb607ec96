// SPDX-License-Identifier: MIT

package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvimpute/internal/cli"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestImpute_Stdout(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "train.csv", "a,b\n1,2\nNaN,3\n7,6\n")

	stdout, stderr, err := execute(t, "impute", "-i", in, "--estimator", "mean")
	require.NoError(t, err, stderr)
	require.Equal(t, "a,b\n1,2\n4,3\n7,6\n", stdout)
	require.Contains(t, stderr, "run_id")
}

func TestImpute_NumericMissingToken(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "train.csv", "a,b\n1,2\n-999,3\n7,6\n")

	stdout, _, err := execute(t, "impute", "-i", in, "--estimator", "mean", "--missing=-999")
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n4,3\n7,6\n", stdout)
}

func TestImpute_OutputTransformReportMetrics(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "train.csv", "a,b\n1,2\nNaN,3\n7,6\n")
	tr1 := writeCSV(t, dir, "new1.csv", "a,b\nNaN,10\n")
	tr2 := writeCSV(t, dir, "new2.csv", "a,b\nNaN,11\n5,5\n")
	outPath := filepath.Join(dir, "train.out.csv")
	metricsPath := filepath.Join(dir, "metrics.prom")

	stdout, stderr, err := execute(t, "impute",
		"-i", in, "-o", outPath,
		"--transform", tr1+","+tr2,
		"--estimator", "mean",
		"--concurrency", "2",
		"--report",
		"--metrics-file", metricsPath,
	)
	require.NoError(t, err, stderr)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n4,3\n7,6\n", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "new1.imputed.csv"))
	require.NoError(t, err)
	require.Equal(t, "a,b\n4,10\n", string(got))
	got, err = os.ReadFile(filepath.Join(dir, "new2.imputed.csv"))
	require.NoError(t, err)
	require.Equal(t, "a,b\n4,11\n5,5\n", string(got))

	require.Contains(t, stdout, "Rounds")
	require.Contains(t, stdout, "Converged")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(prom), `lvimpute_fits_total{status="ok"} 1`)
	require.Contains(t, string(prom), `lvimpute_imputed_cells_total{phase="transform"} 2`)
}

func TestImpute_DropsEmptyColumn(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "train.csv", "a,b\n1,NaN\n2,NaN\n")

	stdout, _, err := execute(t, "impute", "-i", in)
	require.NoError(t, err)
	require.Equal(t, "a\n1\n2\n", stdout)

	stdout, _, err = execute(t, "impute", "-i", in, "--keep-empty-features")
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,0\n2,0\n", stdout)
}

func TestImpute_AddIndicator(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "train.csv", "a,b\n1,2\nNaN,3\n7,6\n")
	tr := writeCSV(t, dir, "new.csv", "a,b\nNaN,10\n5,5\n")

	stdout, stderr, err := execute(t, "impute", "-i", in, "--estimator", "mean",
		"--transform", tr, "--add-indicator")
	require.NoError(t, err, stderr)
	// Only column a had missing cells at fit time.
	require.Equal(t, "a,b,missing_a\n1,2,0\n4,3,1\n7,6,0\n", stdout)

	got, err := os.ReadFile(filepath.Join(dir, "new.imputed.csv"))
	require.NoError(t, err)
	require.Equal(t, "a,b,missing_a\n4,10,1\n5,5,0\n", string(got))

	plain, _, err := execute(t, "impute", "-i", in, "--estimator", "mean")
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n4,3\n7,6\n", plain)
}

func TestImpute_Errors(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "train.csv", "a,b\n1,2\nNaN,3\n")

	_, _, err := execute(t, "impute")
	require.ErrorContains(t, err, "--input is required")

	_, _, err = execute(t, "impute", "-i", in, "--estimator", "forest")
	require.Error(t, err)

	_, _, err = execute(t, "impute", "-i", in, "--max-rounds", "0")
	require.Error(t, err)

	_, _, err = execute(t, "impute", "-i", filepath.Join(dir, "absent.csv"))
	require.Error(t, err)
}

func TestOrder_Descending(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "x.csv", "a,b,c,d\nNaN,NaN,1,NaN\n2,NaN,3,NaN\n4,NaN,5,NaN\n6,7,8,NaN\n")

	stdout, _, err := execute(t, "order", "-i", in, "--order-policy", "descending")
	require.NoError(t, err)
	ia, ib := strings.Index(stdout, " a "), strings.Index(stdout, " b ")
	require.True(t, ia > 0 && ib > 0 && ib < ia, stdout)
	require.NotContains(t, stdout, " c ")
	require.NotContains(t, stdout, " d ")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "lvimpute v"+cli.Version)
}
