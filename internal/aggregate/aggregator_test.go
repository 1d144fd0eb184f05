package aggregate

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/normalize"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/testutil"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/xlsxparser"
)

var readers = []xlsxparser.Kind{xlsxparser.KindExcelize, xlsxparser.KindStream}

func warehouseFixture(t *testing.T) string {
	t.Helper()
	return testutil.WriteWorkbook(t, t.TempDir(), "warehouse.xlsx",
		testutil.Sheet{
			Name: "North",
			Values: map[string]interface{}{
				"A1": "Article", "B1": "Qty",
				"A2": "AB -100", "B2": 3,
				"A3": "CD-200", "B3": "1,5",
				"A4": "ZERO-1", "B4": 0,
				"A5": "", "B5": 9,
				"A6": "BAD-1", "B6": "lots",
				"A7": "NEG-1", "B7": -2,
			},
		},
		testutil.Sheet{
			Name: "South",
			Values: map[string]interface{}{
				"A1": "Article", "B1": "Qty",
				"A2": "AB-100 ", "B2": 2,
				"A3": "CD-200", "B3": "2.5",
				"A4": "ZERO-1", "B4": "0",
			},
		},
	)
}

func TestAggregateSumsAcrossSheets(t *testing.T) {
	path := warehouseFixture(t)
	opts := Options{CodeColumn: 0, QuantityColumn: 1, StartRowIndex: 1}

	for _, kind := range readers {
		t.Run(string(kind), func(t *testing.T) {
			got, diag, err := New(nil, nil).AggregateFile(path, kind, opts)
			require.NoError(t, err)

			assert.Equal(t, types.QuantityMap{"AB-100": 5, "CD-200": 4}, got)
			assert.Equal(t, 2, diag.SheetsScanned)
			assert.Equal(t, 9, diag.RowsSeen)
			assert.Equal(t, 8, diag.CodesSeen)
			assert.Equal(t, 4, diag.PositiveQuantityRows)
			assert.Equal(t, 1, diag.InvalidQuantityRows)
			assert.Equal(t, 2, diag.DistinctCodes)
			assert.Empty(t, diag.TruncatedSheets)
			assert.Equal(t, path, diag.Source)

			for code, q := range got {
				assert.Greater(t, q, 0.0, code)
			}
		})
	}
}

func TestAggregateZeroQuantityCodesAreAbsent(t *testing.T) {
	got, _, err := New(nil, nil).AggregateFile(warehouseFixture(t), xlsxparser.KindExcelize,
		Options{CodeColumn: 0, QuantityColumn: 1, StartRowIndex: 1})
	require.NoError(t, err)

	assert.NotContains(t, got, "ZERO-1")
	assert.NotContains(t, got, "NEG-1")
	assert.NotContains(t, got, "BAD-1")
}

func TestAggregateCaseHandling(t *testing.T) {
	path := testutil.WriteWorkbook(t, t.TempDir(), "mixed.xlsx",
		testutil.Sheet{Name: "One", Values: map[string]interface{}{"A2": "AB-100", "B2": 1}},
		testutil.Sheet{Name: "Two", Values: map[string]interface{}{"A2": "ab-100", "B2": 2}},
	)
	opts := Options{CodeColumn: 0, QuantityColumn: 1, StartRowIndex: 1}

	sensitive, _, err := New(normalize.Default(), nil).AggregateFile(path, xlsxparser.KindExcelize, opts)
	require.NoError(t, err)
	assert.Equal(t, types.QuantityMap{"AB-100": 1, "ab-100": 2}, sensitive)

	folded := normalize.New(normalize.Options{CaseInsensitive: true})
	insensitive, _, err := New(folded, nil).AggregateFile(path, xlsxparser.KindExcelize, opts)
	require.NoError(t, err)
	assert.Equal(t, types.QuantityMap{folded.Text("AB-100"): 3}, insensitive)
}

func TestAggregateSecondaryCodeTakesPrecedence(t *testing.T) {
	path := testutil.WriteWorkbook(t, t.TempDir(), "preorders.xlsx",
		testutil.Sheet{
			Name: "Preorders",
			Values: map[string]interface{}{
				"C1": "Code", "E1": "Qty", "F1": "Code 2",
				"C2": "", "E2": 4, "F2": "XY-1",
				"C3": "PRIMARY", "E3": 1, "F3": "SECOND",
				"C4": "ONLY-PRIMARY", "E4": 2, "F4": " ",
			},
		},
	)
	cfg := layout.Config{StartRowIndex: 1, CodeColumn: 2, QuantityColumn: 4, SecondaryCodeColumn: layout.Index(5)}

	for _, kind := range readers {
		t.Run(string(kind), func(t *testing.T) {
			got, _, err := New(nil, nil).AggregateFile(path, kind, OptionsFor(cfg, 0, false))
			require.NoError(t, err)
			assert.Equal(t, types.QuantityMap{"XY-1": 4, "SECOND": 1, "ONLY-PRIMARY": 2}, got)
		})
	}
}

func TestAggregateRowCap(t *testing.T) {
	values := map[string]interface{}{}
	for i := 2; i <= 8; i++ {
		values[cellRef("A", i)] = "CODE"
		values[cellRef("B", i)] = 1
	}
	path := testutil.WriteWorkbook(t, t.TempDir(), "big.xlsx", testutil.Sheet{Name: "Big", Values: values})

	opts := Options{CodeColumn: 0, QuantityColumn: 1, StartRowIndex: 1, MaxRowsPerSheet: 5}

	got, diag, err := New(nil, nil).AggregateFile(path, xlsxparser.KindExcelize, opts)
	require.NoError(t, err)
	assert.Equal(t, types.QuantityMap{"CODE": 4}, got)
	assert.Equal(t, []string{"Big"}, diag.TruncatedSheets)

	opts.FailOnTruncation = true
	_, diag, err = New(nil, nil).AggregateFile(path, xlsxparser.KindExcelize, opts)
	assert.ErrorIs(t, err, ErrRowCapExceeded)
	assert.Equal(t, []string{"Big"}, diag.TruncatedSheets)
}

func TestAggregateRejectsUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xls")
	require.NoError(t, os.WriteFile(path, []byte{0xD0, 0xCF, 0x11, 0xE0}, 0o644))

	_, _, err := New(nil, nil).AggregateFile(path, xlsxparser.KindExcelize, Options{QuantityColumn: 1})
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestAggregateRequiresColumns(t *testing.T) {
	r, err := xlsxparser.Open(warehouseFixture(t), xlsxparser.KindExcelize)
	require.NoError(t, err)
	defer r.Close()

	_, _, err = New(nil, nil).Aggregate(r, Options{CodeColumn: layout.Unset, QuantityColumn: 1})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestPreview(t *testing.T) {
	r, err := xlsxparser.Open(warehouseFixture(t), xlsxparser.KindExcelize)
	require.NoError(t, err)
	defer r.Close()

	rows, err := New(nil, nil).Preview(r, Options{CodeColumn: 0, QuantityColumn: 1, StartRowIndex: 1}, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].Header)
	assert.Equal(t, 1, rows[0].RowNumber)

	assert.False(t, rows[1].Header)
	assert.Equal(t, "AB -100", rows[1].RawCode)
	assert.Equal(t, "AB-100", rows[1].Code)
	assert.True(t, rows[1].HasQuantity)
	assert.Equal(t, 3.0, rows[1].Quantity)

	assert.Equal(t, "1,5", rows[2].RawQuantity)
	assert.Equal(t, 1.5, rows[2].Quantity)

	lines := PreviewLines(rows)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "(header)")
	assert.Contains(t, lines[1], `"AB -100" -> "AB-100"`)
	assert.Contains(t, lines[2], "-> 1.5")
}

func cellRef(col string, row int) string {
	return col + strconv.Itoa(row)
}
