package xmlwriter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

const sheet = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` +
	`<row r="6" spans="1:11"><c r="A6" t="s"><v>0</v></c><c r="J6" s="3"><v>1</v></c><c r="K6" s="4"/></row>` +
	`<row r="7"><c r="A7" t="s"><v>1</v></c><c r="J7" t="n"></c><c r="K7"><f>J7*E7</f><v>0</v></c></row>` +
	`<row r="9"><c r="J9" t="str"><v>n/a</v></c><c r="K9"><v/></c></row>` +
	`</sheetData><mergeCells count="1"><mergeCell ref="A1:C1"/></mergeCells></worksheet>`

func update(ref string, col, row int, value float64) types.CellUpdate {
	return types.CellUpdate{Column: col, Row: row, Value: value, Kind: types.UpdateQuantity, Code: ref}
}

func TestPatchCellsReplacesExistingValue(t *testing.T) {
	out, res, err := PatchCells([]byte(sheet), []types.CellUpdate{update("J6", 9, 5, 12)})
	require.NoError(t, err)

	assert.Len(t, res.Applied, 1)
	assert.Empty(t, res.Skipped)
	assert.Contains(t, string(out), `<c r="J6" s="3"><v>12</v></c>`)
	assert.Equal(t, len(sheet)+1, len(out))
}

func TestPatchCellsFillsEmptyNumericCells(t *testing.T) {
	out, res, err := PatchCells([]byte(sheet), []types.CellUpdate{
		update("K6", 10, 5, 2.5),
		update("J7", 9, 6, 3),
		update("K9", 10, 8, 7),
	})
	require.NoError(t, err)

	assert.Len(t, res.Applied, 3)
	assert.Contains(t, string(out), `<c r="K6" s="4"><v>2.5</v></c>`)
	assert.Contains(t, string(out), `<c r="J7" t="n"><v>3</v></c>`)
	assert.Contains(t, string(out), `<c r="K9"><v>7</v></c>`)
}

func TestPatchCellsLeavesTextAndFormulasAlone(t *testing.T) {
	out, res, err := PatchCells([]byte(sheet), []types.CellUpdate{
		update("A6", 0, 5, 1),
		update("K7", 10, 6, 1),
		update("J9", 9, 8, 1),
	})
	require.NoError(t, err)

	assert.Empty(t, res.Applied)
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, types.SkipNotNumeric, res.Skipped[0].Reason)
	assert.Equal(t, types.SkipFormula, res.Skipped[1].Reason)
	assert.Equal(t, types.SkipNotNumeric, res.Skipped[2].Reason)
	assert.Equal(t, sheet, string(out))
}

func TestPatchCellsNeverCreatesCells(t *testing.T) {
	out, res, err := PatchCells([]byte(sheet), []types.CellUpdate{
		update("E6", 4, 5, 1),
		update("J8", 9, 7, 1),
	})
	require.NoError(t, err)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, types.SkipCellMissing, res.Skipped[0].Reason)
	assert.Equal(t, types.SkipRowMissing, res.Skipped[1].Reason)
	assert.Equal(t, sheet, string(out))
}

func TestPatchCellsKeepsNamespacePrefix(t *testing.T) {
	src := `<x:worksheet xmlns:x="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><x:sheetData>` +
		`<x:row r="1"><x:c r="A1"/><x:c r="B1"><x:v>1</x:v></x:c></x:row></x:sheetData></x:worksheet>`

	out, res, err := PatchCells([]byte(src), []types.CellUpdate{update("A1", 0, 0, 4), update("B1", 1, 0, 5)})
	require.NoError(t, err)

	assert.Len(t, res.Applied, 2)
	assert.Contains(t, string(out), `<x:c r="A1"><x:v>4</x:v></x:c>`)
	assert.Contains(t, string(out), `<x:c r="B1"><x:v>5</x:v></x:c>`)
}

func TestPatchCellsImplicitReferences(t *testing.T) {
	src := `<worksheet><sheetData><row><c><v>1</v></c><c><v>2</v></c></row></sheetData></worksheet>`

	out, res, err := PatchCells([]byte(src), []types.CellUpdate{update("B1", 1, 0, 9)})
	require.NoError(t, err)

	assert.Len(t, res.Applied, 1)
	assert.Equal(t, `<worksheet><sheetData><row><c><v>1</v></c><c><v>9</v></c></row></sheetData></worksheet>`, string(out))
}

func TestPatchCellsLaterUpdateWins(t *testing.T) {
	out, res, err := PatchCells([]byte(sheet), []types.CellUpdate{update("J6", 9, 5, 1), update("J6", 9, 5, 8)})
	require.NoError(t, err)

	require.Len(t, res.Applied, 1)
	assert.Equal(t, 8.0, res.Applied[0].Value)
	assert.Contains(t, string(out), `<c r="J6" s="3"><v>8</v></c>`)
}

func TestPatchCellsRejectsMalformedXML(t *testing.T) {
	_, _, err := PatchCells([]byte(`<worksheet><sheetData><row r="1"><c r="A1">`), nil)
	require.Error(t, err)
}
