package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/patch"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDatabaseURL, EnvDatabaseURLShared, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestLoadMainConfigDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "output_dir: "+filepath.Join(dir, "orders")+"\n")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "orders"), cfg.OutputDir)
	assert.DirExists(t, cfg.OutputDir)
	assert.Equal(t, "./suppliers", cfg.SuppliersDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1000, cfg.MaxRowsPerSheet)
	assert.Equal(t, "{supplier}_order_{timestamp}.xlsx", cfg.OutputNameFormat)
	assert.Equal(t, SourceFiles, cfg.SupplierSource)
	assert.False(t, cfg.CaseInsensitiveCodes)
	assert.Equal(t, patch.StrategyXML, cfg.StrategyKind())
	assert.Equal(t, xlsxparser.KindExcelize, cfg.ReaderKind())
}

func TestLoadMainConfigEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
output_dir: `+filepath.Join(dir, "out")+`
supplier_source: postgres
database_url: postgres://file
log_level: warn
reader: stream
patch_strategy: excelize
`)
	t.Setenv(EnvDatabaseURLShared, "postgres://shared")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://shared", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, xlsxparser.KindStream, cfg.ReaderKind())
	assert.Equal(t, patch.StrategyExcelize, cfg.StrategyKind())

	t.Setenv(EnvDatabaseURL, "postgres://own")
	cfg, err = LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://own", cfg.DatabaseURL)
}

func TestLoadMainConfigRejectsBadValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	out := "output_dir: " + filepath.Join(dir, "out") + "\n"

	cases := map[string]string{
		"strategy":      out + "patch_strategy: rewrite\n",
		"reader":        out + "reader: sax\n",
		"level":         out + "log_level: loud\n",
		"source":        out + "supplier_source: ldap\n",
		"postgres":      out + "supplier_source: postgres\n",
		"negative rows": out + "max_rows_per_sheet: -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMainConfig(writeFile(t, dir, "config.yaml", content))
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}

	_, err := LoadMainConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMainConfigRejectsBrokenDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "output_dir: "+filepath.Join(dir, "out")+"\n")
	writeFile(t, dir, ".env", "BAD-KEY=1\n")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = LoadMainConfig(path)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), ".env")
}

func TestDefaultSupplierLayouts(t *testing.T) {
	set, err := DefaultSupplier().Layouts()
	require.NoError(t, err)

	assert.Equal(t, layout.Config{
		StartRowIndex: 2, CodeColumn: 0, QuantityColumn: 9,
		PriceColumn: layout.Index(4), SumColumn: layout.Index(10),
	}, set.PriceList)
	assert.Equal(t, layout.Config{StartRowIndex: 2, CodeColumn: 0, QuantityColumn: 9}, set.WarehouseOrder)
	assert.Equal(t, layout.Config{
		StartRowIndex: 2, CodeColumn: 2, QuantityColumn: 4, SecondaryCodeColumn: layout.Index(5),
	}, set.Preorders)
	assert.True(t, layout.ValidateSet(set).IsValid())
}

func TestDocumentLayoutRoundTrip(t *testing.T) {
	d := DocumentLayout{
		Sheet: 2, StartRow: 5, CodeColumn: "b", QuantityColumn: "AA",
		PriceColumn: "C", SumColumn: "D", TotalRow: 40, TotalQuantity: true,
	}
	cfg, err := d.ToConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.SheetIndex)
	assert.Equal(t, 4, cfg.StartRowIndex)
	assert.Equal(t, 1, cfg.CodeColumn)
	assert.Equal(t, 26, cfg.QuantityColumn)
	require.NotNil(t, cfg.TotalRowIndex)
	assert.Equal(t, 39, *cfg.TotalRowIndex)

	back := FromConfig(cfg)
	d.CodeColumn = "B"
	assert.Equal(t, d, back)
}

func TestDocumentLayoutMissingAndInvalid(t *testing.T) {
	cfg, err := DocumentLayout{CodeColumn: "A"}.ToConfig()
	require.NoError(t, err)
	assert.Equal(t, layout.Unset, cfg.StartRowIndex)
	assert.Equal(t, layout.Unset, cfg.QuantityColumn)
	assert.False(t, layout.Validate(layout.RoleWarehouseOrder, cfg).IsValid())

	_, err = DocumentLayout{StartRow: 1, CodeColumn: "A1", QuantityColumn: "B"}.ToConfig()
	assert.ErrorIs(t, err, types.ErrConfiguration)

	_, err = (&SupplierConfig{Preorders: DocumentLayout{SecondaryCodeColumn: "?"}}).Layouts()
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestLoadSupplierConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acme.yaml", `
template: acme.xlsx
price_list: {start_row: 3, code_column: A, quantity_column: J}
warehouse_order: {start_row: 2, code_column: A, quantity_column: B}
preorders: {start_row: 2, code_column: C, quantity_column: E, secondary_code_column: F}
`)
	writeFile(t, dir, "other.yml", "name: Globex\n")
	writeFile(t, dir, "notes.txt", "ignored")

	configs, err := LoadSupplierConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	acme := configs["acme"]
	require.NotNil(t, acme)
	assert.Equal(t, "acme.xlsx", acme.Template)
	set, err := acme.Layouts()
	require.NoError(t, err)
	assert.Equal(t, 9, set.PriceList.QuantityColumn)
	assert.Equal(t, 5, *set.Preorders.SecondaryCodeColumn)

	assert.Contains(t, configs, "Globex")

	writeFile(t, dir, "acme2.yaml", "name: acme\n")
	_, err = LoadSupplierConfigs(dir)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestSupplierConfigMarshal(t *testing.T) {
	data, err := DefaultSupplier().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "code_column: A")
	assert.Contains(t, string(data), "secondary_code_column: F")
	assert.NotContains(t, string(data), "template")
}
