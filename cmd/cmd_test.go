package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestColumnsCommand(t *testing.T) {
	out, err := execute(t, "columns", "J", "aa", "9")
	require.NoError(t, err)
	assert.Equal(t, "J -> 9\naa -> 26\n9 -> J\n", out)

	_, err = execute(t, "columns", "J1")
	assert.Error(t, err)
}

func TestValidatePrintDefault(t *testing.T) {
	t.Cleanup(func() { printDefault = false })

	out, err := execute(t, "validate", "--print-default")
	require.NoError(t, err)
	assert.Contains(t, out, "name: default")
	assert.Contains(t, out, "quantity_column: J")
}

func TestGenerateCommand(t *testing.T) {
	for _, key := range []string{"RECONCILER_DATABASE_URL", "DATABASE_URL", "RECONCILER_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	suppliers := filepath.Join(dir, "suppliers")
	require.NoError(t, os.MkdirAll(suppliers, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(suppliers, "acme.yaml"), []byte(`
price_list: {start_row: 2, code_column: A, price_column: B, quantity_column: C, sum_column: D}
warehouse_order: {start_row: 2, code_column: A, quantity_column: B}
preorders: {start_row: 2, code_column: A, quantity_column: B}
`), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"output_dir: "+filepath.Join(dir, "out")+"\nsuppliers_dir: "+suppliers+"\nlog_level: error\n"), 0o644))

	prices := testutil.WriteWorkbook(t, dir, "prices.xlsx", testutil.Sheet{
		Name: "Prices",
		Values: map[string]interface{}{
			"A1": "Code", "B1": "Price", "C1": "Qty", "D1": "Sum",
			"A2": "AB-100", "B2": 4,
		},
		Styled: []string{"C2", "D2"},
	})
	warehouse := testutil.WriteWorkbook(t, dir, "warehouse.xlsx", testutil.Sheet{
		Name: "Sheet1", Values: map[string]interface{}{"A2": "AB-100", "B2": 2},
	})
	preorders := testutil.WriteWorkbook(t, dir, "preorders.xlsx", testutil.Sheet{
		Name: "Sheet1", Values: map[string]interface{}{"A2": "AB-100", "B2": 1},
	})
	output := filepath.Join(dir, "out", "acme.xlsx")

	out, err := execute(t, "generate", "--config", configPath, "--supplier", "acme",
		"--price", prices, "--warehouse", warehouse, "--preorders", preorders, "--out", output)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Items found:    1")
	assert.Contains(t, out, "Total quantity: 3")

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	qty, err := f.GetCellValue("Prices", "C2")
	require.NoError(t, err)
	assert.Equal(t, "3", qty)
	sum, err := f.GetCellValue("Prices", "D2")
	require.NoError(t, err)
	assert.Equal(t, "12", sum)
}

func TestPreviewCommand(t *testing.T) {
	for _, key := range []string{"RECONCILER_DATABASE_URL", "DATABASE_URL", "RECONCILER_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Cleanup(func() { previewFlags.warehouse = "" })
	dir := t.TempDir()
	suppliers := filepath.Join(dir, "suppliers")
	require.NoError(t, os.MkdirAll(suppliers, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(suppliers, "acme.yaml"), []byte(`
warehouse_order: {start_row: 3, code_column: A, quantity_column: B}
`), 0o644))
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"output_dir: "+filepath.Join(dir, "out")+"\nsuppliers_dir: "+suppliers+"\nlog_level: error\n"), 0o644))
	warehouse := testutil.WriteWorkbook(t, dir, "warehouse.xlsx", testutil.Sheet{
		Name: "Sheet1", Values: map[string]interface{}{"A2": "Code", "B2": "Qty", "A3": "AB-100", "B3": 2},
	})

	out, err := execute(t, "preview", "--config", configPath, "--supplier", "acme", "--warehouse", warehouse)
	require.NoError(t, err, out)
	assert.Contains(t, out, "(warehouse_order), data from row 3, code A, quantity B\n")
}
